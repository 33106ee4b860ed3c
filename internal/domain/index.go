package domain

// CacheEntry is one import-cache record: the parsed header descriptor set of
// a source file, keyed by its path and modification state. A stale mtime or
// size invalidates the entry.
type CacheEntry struct {
	Path         string // Absolute source path (primary key)
	MTime        int64  // Unix timestamp at parse time
	Size         int64  // File size at parse time
	Delimiter    string // Detected delimiter
	Encoding     string // Detected encoding
	TimeColumnID string // File-local id of the detected time column
	Channels     []ChannelDescriptor
}

// CacheStats holds statistics from an import run against the cache.
type CacheStats struct {
	Hits   int
	Misses int
	Stored int
}
