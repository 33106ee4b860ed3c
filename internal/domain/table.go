package domain

import (
	"fmt"
	"math"
	"sort"
)

// ColumnStore is a typed columnar arena indexed by stable channel id.
// Hot-path access goes through integer positions, never display-name lookup.
type ColumnStore struct {
	ids   []string
	index map[string]int
	cols  [][]float64
	rows  int
}

// NewColumnStore creates an empty store.
func NewColumnStore() *ColumnStore {
	return &ColumnStore{index: make(map[string]int)}
}

// Add appends a column under the given id. All columns must share one length.
func (s *ColumnStore) Add(id string, col []float64) error {
	if _, dup := s.index[id]; dup {
		return fmt.Errorf("duplicate column id: %s", id)
	}
	if len(s.cols) > 0 && len(col) != s.rows {
		return fmt.Errorf("column %s has %d rows, store has %d", id, len(col), s.rows)
	}
	s.index[id] = len(s.cols)
	s.ids = append(s.ids, id)
	s.cols = append(s.cols, col)
	s.rows = len(col)
	return nil
}

// Column returns the column stored under id.
func (s *ColumnStore) Column(id string) ([]float64, bool) {
	pos, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.cols[pos], true
}

// IDs returns the column ids in insertion order.
func (s *ColumnStore) IDs() []string {
	return s.ids
}

// Rows reports the shared column length.
func (s *ColumnStore) Rows() int {
	return s.rows
}

// MergedTable is the unified view over all files of a test. It is built once
// per merge configuration and never mutated in place; consumers share it as a
// lock-free snapshot.
type MergedTable struct {
	time  []float64
	ids   []string
	index map[string]int
	cols  [][]float64
}

// NewMergedTable builds a table from a time column and channel columns in
// the given order. Every column must match the time column's length.
func NewMergedTable(timeCol []float64, order []string, cols map[string][]float64) (*MergedTable, error) {
	t := &MergedTable{
		time:  timeCol,
		index: make(map[string]int, len(order)),
	}
	for _, id := range order {
		col, ok := cols[id]
		if !ok {
			return nil, fmt.Errorf("missing column for channel %s", id)
		}
		if len(col) != len(timeCol) {
			return nil, fmt.Errorf("channel %s has %d rows, time column has %d", id, len(col), len(timeCol))
		}
		t.index[id] = len(t.cols)
		t.ids = append(t.ids, id)
		t.cols = append(t.cols, col)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// RowCount reports the number of merged rows.
func (t *MergedTable) RowCount() int {
	return len(t.time)
}

// Time returns the canonical time column, sorted ascending.
func (t *MergedTable) Time() []float64 {
	return t.time
}

// ChannelIDs returns the canonical channel ids in table order.
func (t *MergedTable) ChannelIDs() []string {
	return t.ids
}

// Column returns the values for a canonical channel id. Cells where no
// source row contributed hold NaN.
func (t *MergedTable) Column(id string) ([]float64, bool) {
	pos, ok := t.index[id]
	if !ok {
		return nil, false
	}
	return t.cols[pos], true
}

// TimeRange returns the first and last merged timestamps.
func (t *MergedTable) TimeRange() (min, max float64) {
	if len(t.time) == 0 {
		return 0, 0
	}
	return t.time[0], t.time[len(t.time)-1]
}

// Validate checks the structural invariants: equal column lengths and an
// ascending time column. A violation here is an internal defect, not a
// recoverable input condition.
func (t *MergedTable) Validate() error {
	for i, col := range t.cols {
		if len(col) != len(t.time) {
			return fmt.Errorf("column %s length %d != row count %d", t.ids[i], len(col), len(t.time))
		}
	}
	if !sort.Float64sAreSorted(t.time) {
		return fmt.Errorf("time column is not sorted ascending")
	}
	return nil
}

// ColumnStats are NaN-aware summary statistics for one channel column.
type ColumnStats struct {
	Min   float64
	Max   float64
	Mean  float64
	Std   float64
	Count int
}

// Stats computes summary statistics for a channel, ignoring NaN cells.
// The second return is false when the channel is absent or all-NaN.
func (t *MergedTable) Stats(id string) (ColumnStats, bool) {
	col, ok := t.Column(id)
	if !ok {
		return ColumnStats{}, false
	}
	st := ColumnStats{Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for _, v := range col {
		if math.IsNaN(v) {
			continue
		}
		st.Count++
		sum += v
		if v < st.Min {
			st.Min = v
		}
		if v > st.Max {
			st.Max = v
		}
	}
	if st.Count == 0 {
		return ColumnStats{}, false
	}
	st.Mean = sum / float64(st.Count)
	var sq float64
	for _, v := range col {
		if math.IsNaN(v) {
			continue
		}
		d := v - st.Mean
		sq += d * d
	}
	st.Std = math.Sqrt(sq / float64(st.Count))
	return st, true
}
