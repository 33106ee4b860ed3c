package domain

import (
	"fmt"
	"math"
)

// MalformedTimeError flags a time column that cannot anchor a merge:
// non-numeric samples or a non-monotonic sequence. The column is never
// auto-sorted, since reordering rows would desynchronize the other columns.
type MalformedTimeError struct {
	FileID string
	Row    int
	Reason string
}

func (e *MalformedTimeError) Error() string {
	return fmt.Sprintf("malformed time column in file %s at row %d: %s", e.FileID, e.Row, e.Reason)
}

// AlignTime maps a file's raw time column onto the test's canonical base.
//
// Absolute passes values through, Relative shifts so the first sample is
// zero, CustomOffset adds the file's user offset. The file's scale factor is
// applied last in every mode. The input slice is never modified.
func AlignTime(raw []float64, mode TimeMode, offset, scale float64) ([]float64, error) {
	if err := checkMonotonic(raw, ""); err != nil {
		return nil, err
	}
	if scale == 0 {
		scale = 1
	}

	out := make([]float64, len(raw))
	var shift float64
	switch mode {
	case TimeRelative:
		if len(raw) > 0 {
			shift = -raw[0]
		}
	case TimeCustomOffset:
		shift = offset
	}
	for i, v := range raw {
		out[i] = (v + shift) * scale
	}
	return out, nil
}

// AlignFile aligns one file's time column under the test's mode.
func AlignFile(f *DataFile, mode TimeMode) ([]float64, error) {
	raw, ok := f.Columns.Column(f.TimeColumnID)
	if !ok {
		return nil, &MalformedTimeError{FileID: f.ID, Row: 0, Reason: "time column missing"}
	}
	out, err := AlignTime(raw, mode, f.TimeOffset, f.TimeScale)
	if err != nil {
		if mt, isMT := err.(*MalformedTimeError); isMT {
			mt.FileID = f.ID
		}
		return nil, err
	}
	return out, nil
}

// checkMonotonic rejects NaN samples and decreasing steps.
func checkMonotonic(times []float64, fileID string) error {
	for i, v := range times {
		if math.IsNaN(v) {
			return &MalformedTimeError{FileID: fileID, Row: i, Reason: "non-numeric sample"}
		}
		if i > 0 && v < times[i-1] {
			return &MalformedTimeError{
				FileID: fileID,
				Row:    i,
				Reason: fmt.Sprintf("time decreases from %g to %g", times[i-1], v),
			}
		}
	}
	return nil
}

// ConcatOffset computes the shift for end-to-end concatenation: the second
// series starts at the first one's end plus the gap.
func ConcatOffset(endTime, startTime, gap float64) float64 {
	return (endTime - startTime) + gap
}
