package domain

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func TestAlignTime_Modes(t *testing.T) {
	raw := []float64{100, 101, 102, 103}

	tests := []struct {
		name   string
		mode   TimeMode
		offset float64
		scale  float64
		want   []float64
	}{
		{"absolute passthrough", TimeAbsolute, 0, 1, []float64{100, 101, 102, 103}},
		{"relative shifts to zero", TimeRelative, 0, 1, []float64{0, 1, 2, 3}},
		{"custom offset", TimeCustomOffset, 10, 1, []float64{110, 111, 112, 113}},
		{"relative with scale", TimeRelative, 0, 1000, []float64{0, 1000, 2000, 3000}},
		{"zero scale treated as one", TimeAbsolute, 0, 0, []float64{100, 101, 102, 103}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AlignTime(raw, tt.mode, tt.offset, tt.scale)
			if err != nil {
				t.Fatalf("AlignTime: %v", err)
			}
			if !almostEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAlignTime_DoesNotMutateInput(t *testing.T) {
	raw := []float64{5, 6, 7}
	if _, err := AlignTime(raw, TimeRelative, 0, 1); err != nil {
		t.Fatal(err)
	}
	if !almostEqual(raw, []float64{5, 6, 7}) {
		t.Errorf("input mutated: %v", raw)
	}
}

func TestAlignTime_NonMonotonicFlagged(t *testing.T) {
	_, err := AlignTime([]float64{0, 1, 0.5, 2}, TimeAbsolute, 0, 1)
	var mt *MalformedTimeError
	if !errors.As(err, &mt) {
		t.Fatalf("want MalformedTimeError, got %v", err)
	}
	if mt.Row != 2 {
		t.Errorf("row = %d, want 2", mt.Row)
	}
}

func TestAlignTime_NaNFlagged(t *testing.T) {
	_, err := AlignTime([]float64{0, math.NaN(), 2}, TimeAbsolute, 0, 1)
	var mt *MalformedTimeError
	if !errors.As(err, &mt) {
		t.Fatalf("want MalformedTimeError, got %v", err)
	}
	if mt.Row != 1 {
		t.Errorf("row = %d, want 1", mt.Row)
	}
}

func TestAlignTime_DuplicateTimestampsAllowed(t *testing.T) {
	if _, err := AlignTime([]float64{0, 1, 1, 2}, TimeAbsolute, 0, 1); err != nil {
		t.Errorf("equal consecutive timestamps should pass: %v", err)
	}
}

func TestAlignFile_MissingTimeColumn(t *testing.T) {
	f := &DataFile{ID: "f1", TimeColumnID: "c9", Columns: NewColumnStore()}
	_, err := AlignFile(f, TimeAbsolute)
	var mt *MalformedTimeError
	if !errors.As(err, &mt) {
		t.Fatalf("want MalformedTimeError, got %v", err)
	}
	if mt.FileID != "f1" {
		t.Errorf("file id = %s, want f1", mt.FileID)
	}
}

func TestConcatOffset(t *testing.T) {
	tests := []struct {
		name            string
		end, start, gap float64
		want            float64
	}{
		{"no gap", 10, 5, 0, 5},
		{"with gap", 10, 0, 5, 15},
		{"negative start", 10, -2, 0, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConcatOffset(tt.end, tt.start, tt.gap); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
