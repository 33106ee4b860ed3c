package domain

import (
	"reflect"
	"testing"
)

func rangeTable(t *testing.T, times []float64) *MergedTable {
	t.Helper()
	table, err := NewMergedTable(times, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func TestCompareShifts(t *testing.T) {
	a := rangeTable(t, []float64{0, 5, 10})
	b := rangeTable(t, []float64{0, 1, 2})
	empty := rangeTable(t, nil)

	t.Run("overlay is unshifted", func(t *testing.T) {
		got := CompareShifts([]*MergedTable{a, b}, CompareOverlay, 5)
		if !reflect.DeepEqual(got, []float64{0, 0}) {
			t.Errorf("shifts = %v", got)
		}
	})

	t.Run("concatenate with gap", func(t *testing.T) {
		got := CompareShifts([]*MergedTable{a, b}, CompareConcatenate, 5)
		// B starts at A's end (10) plus the gap.
		if !reflect.DeepEqual(got, []float64{0, 15}) {
			t.Errorf("shifts = %v", got)
		}
	})

	t.Run("empty table is skipped", func(t *testing.T) {
		got := CompareShifts([]*MergedTable{a, empty, b}, CompareConcatenate, 0)
		if !reflect.DeepEqual(got, []float64{0, 0, 10}) {
			t.Errorf("shifts = %v", got)
		}
	})
}

func TestCombinedTimeRange(t *testing.T) {
	a := rangeTable(t, []float64{0, 10})
	b := rangeTable(t, []float64{2, 6})

	lo, hi := CombinedTimeRange([]*MergedTable{a, b}, CompareOverlay, 0)
	if lo != 0 || hi != 10 {
		t.Errorf("overlay range = [%v, %v], want [0, 10]", lo, hi)
	}

	lo, hi = CombinedTimeRange([]*MergedTable{a, b}, CompareConcatenate, 5)
	// B shifted to start at 15, so it ends at 19.
	if lo != 0 || hi != 19 {
		t.Errorf("concatenate range = [%v, %v], want [0, 19]", lo, hi)
	}

	lo, hi = CombinedTimeRange(nil, CompareOverlay, 0)
	if lo != 0 || hi != 0 {
		t.Errorf("empty comparison range = [%v, %v]", lo, hi)
	}
}
