package domain

import "math"

// CompareShifts computes the per-table time shift for a cross-test
// comparison. Overlay shares the canonical axis, so all shifts are zero.
// Concatenate lays tables end-to-end: each table starts at the previous
// table's shifted end plus the gap. Empty tables keep a zero shift and do
// not advance the running end.
func CompareShifts(tables []*MergedTable, mode CompareMode, gap float64) []float64 {
	shifts := make([]float64, len(tables))
	if mode != CompareConcatenate {
		return shifts
	}
	haveEnd := false
	var end float64
	for i, tb := range tables {
		if tb.RowCount() == 0 {
			continue
		}
		start, last := tb.TimeRange()
		if haveEnd {
			shifts[i] = ConcatOffset(end, start, gap)
		}
		end = last + shifts[i]
		haveEnd = true
	}
	return shifts
}

// CombinedTimeRange returns the overall [min, max] axis range of the
// comparison after applying CompareShifts.
func CombinedTimeRange(tables []*MergedTable, mode CompareMode, gap float64) (min, max float64) {
	shifts := CompareShifts(tables, mode, gap)
	min, max = math.Inf(1), math.Inf(-1)
	for i, tb := range tables {
		if tb.RowCount() == 0 {
			continue
		}
		lo, hi := tb.TimeRange()
		if lo+shifts[i] < min {
			min = lo + shifts[i]
		}
		if hi+shifts[i] > max {
			max = hi + shifts[i]
		}
	}
	if math.IsInf(min, 1) {
		return 0, 0
	}
	return min, max
}
