package application

import (
	"math"
	"reflect"
	"testing"

	"logmerge/internal/domain"
)

func maskTable(t *testing.T) *domain.MergedTable {
	t.Helper()
	table, err := domain.NewMergedTable(
		[]float64{0, 1, 2, 3},
		[]string{"ch1"},
		map[string][]float64{"ch1": {10, 20, math.NaN(), 40}},
	)
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func TestFilterManager_SetReplacesSlot(t *testing.T) {
	m := NewFilterManager()
	table := maskTable(t)

	m.Set("t1", domain.FilterSpec{Kind: domain.FilterTimeRange, Min: 1, Max: 3}, table)
	mask := m.Set("t1", domain.FilterSpec{Kind: domain.FilterTimeRange, Min: 0, Max: 1}, table)

	// The second time-range spec replaces the first instead of stacking.
	if !reflect.DeepEqual(mask, []bool{true, true, false, false}) {
		t.Errorf("mask = %v", mask)
	}
	if specs := m.Specs("t1"); len(specs) != 1 {
		t.Errorf("specs = %v, want one", specs)
	}
}

func TestFilterManager_ValueAndTimeCombine(t *testing.T) {
	m := NewFilterManager()
	table := maskTable(t)

	m.Set("t1", domain.FilterSpec{Kind: domain.FilterTimeRange, Min: 1, Max: 3}, table)
	mask := m.Set("t1", domain.FilterSpec{
		Kind: domain.FilterValueRange, ChannelID: "ch1", Min: 0, Max: 25,
	}, table)

	// Row 0 fails the time range, row 2 is NaN, row 3 exceeds the value cap.
	if !reflect.DeepEqual(mask, []bool{false, true, false, false}) {
		t.Errorf("mask = %v", mask)
	}
}

func TestFilterManager_IdenticalSpecIdenticalMask(t *testing.T) {
	m := NewFilterManager()
	table := maskTable(t)
	spec := domain.FilterSpec{Kind: domain.FilterValueRange, ChannelID: "ch1", Min: 15, Max: 45}

	first := m.Set("t1", spec, table)
	second := m.Set("t1", spec, table)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("masks differ: %v vs %v", first, second)
	}
}

func TestFilterManager_Notification(t *testing.T) {
	m := NewFilterManager()
	table := maskTable(t)

	var got []struct {
		id   string
		mask []bool
	}
	m.Subscribe(func(id string, mask []bool) {
		got = append(got, struct {
			id   string
			mask []bool
		}{id, mask})
	})

	m.Set("t1", domain.FilterSpec{Kind: domain.FilterTimeRange, Min: 0, Max: 2}, table)
	m.Remove("t1", domain.FilterTimeRange, "", table)
	m.Clear("t1", table)

	if len(got) != 3 {
		t.Fatalf("notified %d times, want 3", len(got))
	}
	for _, n := range got {
		if n.id != "t1" {
			t.Errorf("notified test id %q", n.id)
		}
	}
	if !reflect.DeepEqual(got[2].mask, []bool{true, true, true, true}) {
		t.Errorf("mask after clear = %v", got[2].mask)
	}
}

func TestFilterManager_NilTable(t *testing.T) {
	m := NewFilterManager()
	if mask := m.Set("t1", domain.FilterSpec{Kind: domain.FilterTimeRange, Min: 0, Max: 1}, nil); mask != nil {
		t.Errorf("mask = %v, want nil without a table", mask)
	}
	if mask := m.Mask("t1", nil); mask != nil {
		t.Errorf("Mask = %v, want nil", mask)
	}
}

func TestFilterManager_DropTest(t *testing.T) {
	m := NewFilterManager()
	table := maskTable(t)
	m.Set("t1", domain.FilterSpec{Kind: domain.FilterTimeRange, Min: 1, Max: 2}, table)
	m.DropTest("t1")
	if specs := m.Specs("t1"); len(specs) != 0 {
		t.Errorf("specs after drop = %v", specs)
	}
}
