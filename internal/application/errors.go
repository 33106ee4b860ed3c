package application

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidOperation  = errors.New("invalid operation")
	ErrParseFailed       = errors.New("parse failed")
	ErrMalformedTime     = errors.New("malformed time column")
	ErrJoinConflict      = errors.New("join conflict")
	ErrUnresolvedMapping = errors.New("unresolved header mapping")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ParseError represents a failure to read or decode an input file. Row is
// 1-based over data rows and zero when the failure is not row-specific.
type ParseError struct {
	Path   string
	Row    int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("cannot parse %s (row %d): %s", e.Path, e.Row, e.Reason)
	}
	return fmt.Sprintf("cannot parse %s: %s", e.Path, e.Reason)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParseFailed
}

// MappingError represents an attempt to attach a file whose header diff
// still has unresolved rename proposals.
type MappingError struct {
	FileName string
	Pending  int
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("cannot attach %s: %d unresolved rename proposals", e.FileName, e.Pending)
}

func (e *MappingError) Is(target error) bool {
	return target == ErrUnresolvedMapping
}
