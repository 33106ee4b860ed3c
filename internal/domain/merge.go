package domain

import (
	"fmt"
	"math"
	"sort"
)

// JoinConflictError is returned for join misconfiguration that cannot
// produce any table, such as a file missing the alternative key channel.
// Zero-overlap joins are not errors; they surface as an EmptyOverlap result.
type JoinConflictError struct {
	Strategy JoinStrategy
	FileID   string
	Reason   string
}

func (e *JoinConflictError) Error() string {
	return fmt.Sprintf("%s join conflict on file %s: %s", e.Strategy, e.FileID, e.Reason)
}

// MergeResult is an immutable merge artifact. EmptyOverlap warns that an
// exact or alternative-key join found no shared keys across files and the
// table is intentionally empty rather than silently so.
type MergeResult struct {
	Table        *MergedTable
	EmptyOverlap bool
}

// fileInput is one file prepared for merging: its aligned axis values and
// its contribution of canonical channels.
type fileInput struct {
	file *DataFile
	axis []float64
}

// Merge builds the unified table for a test from its current files, time
// mode and join configuration. Files are processed in import order, which is
// what every deterministic tie-break below falls back to.
func Merge(t *Test) (*MergeResult, error) {
	if len(t.Files) == 0 {
		empty, err := NewMergedTable(nil, nil, nil)
		if err != nil {
			return nil, err
		}
		return &MergeResult{Table: empty}, nil
	}

	inputs := make([]fileInput, 0, len(t.Files))
	for _, f := range t.Files {
		axis, err := mergeAxis(t, f)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, fileInput{file: f, axis: axis})
	}

	order, contribs := channelContributions(t)

	switch t.Strategy {
	case JoinTimeNearest:
		return mergeNearest(inputs, order, contribs, t.Tolerance)
	case JoinTimeExact, JoinAlternativeKey:
		return mergeExact(inputs, order, contribs)
	case JoinAppend:
		return mergeAppend(inputs, order, contribs, t.Gap)
	default:
		return nil, fmt.Errorf("unknown join strategy: %d", t.Strategy)
	}
}

// mergeAxis returns the join-axis values for one file: the aligned canonical
// time column, or the alternative key channel's values.
func mergeAxis(t *Test, f *DataFile) ([]float64, error) {
	if t.Strategy != JoinAlternativeKey {
		return AlignFile(f, t.TimeMode)
	}
	local, ok := localChannelFor(f, t.KeyID)
	if !ok {
		return nil, &JoinConflictError{
			Strategy: t.Strategy,
			FileID:   f.ID,
			Reason:   fmt.Sprintf("no channel bound to key %s", t.KeyID),
		}
	}
	col, ok := f.Columns.Column(local)
	if !ok {
		return nil, &JoinConflictError{
			Strategy: t.Strategy,
			FileID:   f.ID,
			Reason:   fmt.Sprintf("key column %s has no data", local),
		}
	}
	return col, nil
}

// localChannelFor finds the file-local channel bound to a canonical id.
func localChannelFor(f *DataFile, canonicalID string) (string, bool) {
	for local, canon := range f.Bindings {
		if canon == canonicalID {
			return local, true
		}
	}
	return "", false
}

type contribution struct {
	fileIdx int
	col     []float64
}

// channelContributions resolves, per canonical channel, which files
// contribute data for it. The axis channel (test time column binding, or the
// alternative key) is excluded from the value columns. Canonical channels
// with no contributor still get a column; it will be all NaN.
func channelContributions(t *Test) (order []string, contribs map[string][]contribution) {
	contribs = make(map[string][]contribution)
	for _, ch := range t.Channels {
		if isAxisChannel(t, ch.ID) {
			continue
		}
		order = append(order, ch.ID)
		contribs[ch.ID] = nil
	}
	for i, f := range t.Files {
		for local, canon := range f.Bindings {
			if _, want := contribs[canon]; !want {
				continue
			}
			if local == f.TimeColumnID && t.Strategy != JoinAlternativeKey {
				continue
			}
			col, ok := f.Columns.Column(local)
			if !ok {
				continue
			}
			contribs[canon] = append(contribs[canon], contribution{fileIdx: i, col: col})
		}
	}
	// Bindings iterate in map order; restore import determinism.
	for id := range contribs {
		cs := contribs[id]
		sort.Slice(cs, func(a, b int) bool { return cs[a].fileIdx < cs[b].fileIdx })
	}
	return order, contribs
}

func isAxisChannel(t *Test, canonicalID string) bool {
	if t.Strategy == JoinAlternativeKey {
		return canonicalID == t.KeyID
	}
	for _, f := range t.Files {
		if canon, ok := f.Bindings[f.TimeColumnID]; ok && canon == canonicalID {
			return true
		}
	}
	return false
}

// mergeNearest implements the Time Nearest strategy. Distinct timestamps
// are formed by clustering the union of all aligned times within the
// tolerance window; each cluster is represented by the earliest-imported
// file's timestamp. Cells take the value of the row with the smallest time
// delta inside the tolerance, equal deltas preferring the earlier-imported
// file, and NaN outside it.
func mergeNearest(inputs []fileInput, order []string, contribs map[string][]contribution, tolerance float64) (*MergeResult, error) {
	type stamp struct {
		t       float64
		fileIdx int
	}
	var stamps []stamp
	for i, in := range inputs {
		for _, v := range in.axis {
			stamps = append(stamps, stamp{t: v, fileIdx: i})
		}
	}
	sort.Slice(stamps, func(a, b int) bool {
		if stamps[a].t != stamps[b].t {
			return stamps[a].t < stamps[b].t
		}
		return stamps[a].fileIdx < stamps[b].fileIdx
	})

	var times []float64
	for i := 0; i < len(stamps); {
		j := i + 1
		for j < len(stamps) && stamps[j].t-stamps[i].t <= tolerance {
			j++
		}
		rep := stamps[i]
		for _, s := range stamps[i:j] {
			if s.fileIdx < rep.fileIdx {
				rep = s
			}
		}
		times = append(times, rep.t)
		i = j
	}

	cols := make(map[string][]float64, len(order))
	for _, id := range order {
		col := nanColumn(len(times))
		for ri, t := range times {
			bestDelta := math.Inf(1)
			for _, c := range contribs[id] {
				axis := inputs[c.fileIdx].axis
				row, delta := nearestRow(axis, t)
				if row < 0 || delta > tolerance {
					continue
				}
				if delta < bestDelta {
					bestDelta = delta
					col[ri] = c.col[row]
				}
			}
		}
		cols[id] = col
	}

	table, err := NewMergedTable(times, order, cols)
	if err != nil {
		return nil, err
	}
	return &MergeResult{Table: table}, nil
}

// nearestRow binary-searches a sorted axis for the row closest to t.
// Equidistant neighbors resolve to the earlier row.
func nearestRow(axis []float64, t float64) (int, float64) {
	if len(axis) == 0 {
		return -1, 0
	}
	i := sort.SearchFloat64s(axis, t)
	best, delta := -1, math.Inf(1)
	if i > 0 {
		best, delta = i-1, t-axis[i-1]
	}
	if i < len(axis) {
		if d := axis[i] - t; d < delta {
			best, delta = i, d
		}
	}
	return best, delta
}

// mergeExact implements Time Exact and Alternative Key joins: only axis
// values present in every contributing file survive; others are dropped from
// the view (source files keep their rows). Zero overlap across multiple
// files yields an empty table flagged EmptyOverlap.
func mergeExact(inputs []fileInput, order []string, contribs map[string][]contribution) (*MergeResult, error) {
	rowByKey := make([]map[float64]int, len(inputs))
	for i, in := range inputs {
		m := make(map[float64]int, len(in.axis))
		for row, v := range in.axis {
			if _, dup := m[v]; !dup {
				m[v] = row
			}
		}
		rowByKey[i] = m
	}

	var keys []float64
	for k := range rowByKey[0] {
		shared := true
		for _, m := range rowByKey[1:] {
			if _, ok := m[k]; !ok {
				shared = false
				break
			}
		}
		if shared {
			keys = append(keys, k)
		}
	}
	sort.Float64s(keys)

	cols := make(map[string][]float64, len(order))
	for _, id := range order {
		col := nanColumn(len(keys))
		for ri, k := range keys {
			for _, c := range contribs[id] {
				row := rowByKey[c.fileIdx][k]
				col[ri] = c.col[row]
				break // earlier-imported file wins
			}
		}
		cols[id] = col
	}

	table, err := NewMergedTable(keys, order, cols)
	if err != nil {
		return nil, err
	}
	return &MergeResult{
		Table:        table,
		EmptyOverlap: len(keys) == 0 && len(inputs) > 1,
	}, nil
}

// mergeAppend concatenates files end-to-end: file N starts at the end of
// file N-1 plus the gap. No value-matching happens; columns line up only
// through header bindings, so total row count is the sum of file row counts.
func mergeAppend(inputs []fileInput, order []string, contribs map[string][]contribution, gap float64) (*MergeResult, error) {
	shifts, total := appendShifts(inputs, gap)

	times := make([]float64, 0, total)
	starts := make([]int, len(inputs))
	for i, in := range inputs {
		starts[i] = len(times)
		for _, v := range in.axis {
			times = append(times, v+shifts[i])
		}
	}

	cols := make(map[string][]float64, len(order))
	for _, id := range order {
		col := nanColumn(total)
		for _, c := range contribs[id] {
			copy(col[starts[c.fileIdx]:], c.col)
		}
		cols[id] = col
	}

	table, err := NewMergedTable(times, order, cols)
	if err != nil {
		return nil, err
	}
	return &MergeResult{Table: table}, nil
}

// appendShifts computes the cumulative time shift per file and the total row
// count. Empty files contribute nothing and leave the running end untouched.
func appendShifts(inputs []fileInput, gap float64) ([]float64, int) {
	shifts := make([]float64, len(inputs))
	total := 0
	haveEnd := false
	var end float64
	for i, in := range inputs {
		total += len(in.axis)
		if len(in.axis) == 0 {
			continue
		}
		if haveEnd {
			shifts[i] = ConcatOffset(end, in.axis[0], gap)
		}
		end = in.axis[len(in.axis)-1] + shifts[i]
		haveEnd = true
	}
	return shifts, total
}

// AppendIncremental extends an existing Append-strategy table with the
// test's newest file without recomputing earlier segments. Canonical
// channels added since the previous build get NaN for all earlier rows.
// The previous table is not modified.
func AppendIncremental(prev *MergedTable, t *Test) (*MergeResult, error) {
	if t.Strategy != JoinAppend || len(t.Files) == 0 {
		return Merge(t)
	}
	f := t.Files[len(t.Files)-1]
	axis, err := AlignFile(f, t.TimeMode)
	if err != nil {
		return nil, err
	}

	shift := 0.0
	if prev.RowCount() > 0 && len(axis) > 0 {
		_, end := prev.TimeRange()
		shift = ConcatOffset(end, axis[0], t.Gap)
	}

	oldRows := prev.RowCount()
	times := make([]float64, 0, oldRows+len(axis))
	times = append(times, prev.Time()...)
	for _, v := range axis {
		times = append(times, v+shift)
	}

	order, _ := channelContributions(t)
	cols := make(map[string][]float64, len(order))
	for _, id := range order {
		col := nanColumn(oldRows + len(axis))
		if old, ok := prev.Column(id); ok {
			copy(col, old)
		}
		if local, ok := localChannelFor(f, id); ok && local != f.TimeColumnID {
			if src, ok := f.Columns.Column(local); ok {
				copy(col[oldRows:], src)
			}
		}
		cols[id] = col
	}

	table, err := NewMergedTable(times, order, cols)
	if err != nil {
		return nil, err
	}
	return &MergeResult{Table: table}, nil
}

func nanColumn(n int) []float64 {
	col := make([]float64, n)
	for i := range col {
		col[i] = math.NaN()
	}
	return col
}
