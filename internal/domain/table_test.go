package domain

import (
	"math"
	"testing"
)

func TestColumnStore(t *testing.T) {
	s := NewColumnStore()
	if err := s.Add("c1", []float64{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := s.Add("c2", []float64{4, 5, 6}); err != nil {
		t.Fatal(err)
	}

	if err := s.Add("c1", []float64{7, 8, 9}); err == nil {
		t.Error("duplicate id should be rejected")
	}
	if err := s.Add("c3", []float64{1}); err == nil {
		t.Error("mismatched length should be rejected")
	}

	col, ok := s.Column("c2")
	if !ok || col[0] != 4 {
		t.Errorf("Column(c2) = %v, %v", col, ok)
	}
	if _, ok := s.Column("missing"); ok {
		t.Error("missing id should report false")
	}
	if s.Rows() != 3 {
		t.Errorf("Rows() = %d, want 3", s.Rows())
	}
	if ids := s.IDs(); len(ids) != 2 || ids[0] != "c1" || ids[1] != "c2" {
		t.Errorf("IDs() = %v", ids)
	}
}

func TestNewMergedTable_Invariants(t *testing.T) {
	_, err := NewMergedTable([]float64{0, 1}, []string{"ch1"}, map[string][]float64{
		"ch1": {1, 2, 3},
	})
	if err == nil {
		t.Error("length mismatch should be rejected")
	}

	_, err = NewMergedTable([]float64{1, 0}, []string{"ch1"}, map[string][]float64{
		"ch1": {1, 2},
	})
	if err == nil {
		t.Error("unsorted time column should be rejected")
	}

	_, err = NewMergedTable([]float64{0, 1}, []string{"ch1"}, map[string][]float64{})
	if err == nil {
		t.Error("missing column should be rejected")
	}
}

func TestMergedTable_Accessors(t *testing.T) {
	table, err := NewMergedTable([]float64{0, 1, 2}, []string{"ch1"}, map[string][]float64{
		"ch1": {10, math.NaN(), 30},
	})
	if err != nil {
		t.Fatal(err)
	}
	if table.RowCount() != 3 {
		t.Errorf("RowCount() = %d", table.RowCount())
	}
	lo, hi := table.TimeRange()
	if lo != 0 || hi != 2 {
		t.Errorf("TimeRange() = %v, %v", lo, hi)
	}
	if _, ok := table.Column("missing"); ok {
		t.Error("missing channel should report false")
	}
}

func TestMergedTable_Stats(t *testing.T) {
	table, err := NewMergedTable([]float64{0, 1, 2, 3}, []string{"ch1", "ch2"}, map[string][]float64{
		"ch1": {1, 3, math.NaN(), 5},
		"ch2": {math.NaN(), math.NaN(), math.NaN(), math.NaN()},
	})
	if err != nil {
		t.Fatal(err)
	}

	st, ok := table.Stats("ch1")
	if !ok {
		t.Fatal("stats for ch1 should exist")
	}
	if st.Count != 3 || st.Min != 1 || st.Max != 5 || st.Mean != 3 {
		t.Errorf("stats = %+v", st)
	}

	if _, ok := table.Stats("ch2"); ok {
		t.Error("all-NaN channel should report no stats")
	}
	if _, ok := table.Stats("missing"); ok {
		t.Error("missing channel should report no stats")
	}
}
