package application

import "logmerge/internal/domain"

// Re-export enum types for use by adapters
type (
	TimeMode     = domain.TimeMode
	JoinStrategy = domain.JoinStrategy
	CompareMode  = domain.CompareMode
)

const (
	TimeAbsolute     = domain.TimeAbsolute
	TimeRelative     = domain.TimeRelative
	TimeCustomOffset = domain.TimeCustomOffset

	JoinTimeNearest    = domain.JoinTimeNearest
	JoinTimeExact      = domain.JoinTimeExact
	JoinAlternativeKey = domain.JoinAlternativeKey
	JoinAppend         = domain.JoinAppend

	CompareOverlay     = domain.CompareOverlay
	CompareConcatenate = domain.CompareConcatenate
)

// Re-export domain types for use by adapters
type (
	ChannelDescriptor = domain.ChannelDescriptor
	DataFile          = domain.DataFile
	Test              = domain.Test
	HeaderDiff        = domain.HeaderDiff
	HeaderMapping     = domain.HeaderMapping
	MergedTable       = domain.MergedTable
	FilterSpec        = domain.FilterSpec
	ChannelQuery      = domain.ChannelQuery
)

// ParseTimeMode parses the canonical string form of a time mode
func ParseTimeMode(s string) (TimeMode, error) {
	return domain.ParseTimeMode(s)
}

// ParseJoinStrategy parses the canonical string form of a join strategy
func ParseJoinStrategy(s string) (JoinStrategy, error) {
	return domain.ParseJoinStrategy(s)
}

// ParseCompareMode parses the canonical string form of a compare mode
func ParseCompareMode(s string) (CompareMode, error) {
	return domain.ParseCompareMode(s)
}
