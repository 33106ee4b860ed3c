package ports

import "logmerge/internal/domain"

// ImportIndex caches parsed header descriptor sets keyed by source path and
// file modification state, so re-importing an unchanged file skips the header
// grammar pass. Lookups should be O(1) via database indexes.
type ImportIndex interface {
	// Lifecycle
	Open(dbPath string) error
	Close() error

	// NeedsFullRebuild reports whether the cache was written by an
	// incompatible schema version and must be discarded.
	NeedsFullRebuild() bool

	// Reset drops every cached entry.
	Reset() error

	// Lookup returns the cached entry for a source file, or nil when the
	// path is unknown or its mtime/size no longer match.
	Lookup(path string, mtime, size int64) (*domain.CacheEntry, error)

	// Batch updates
	BeginTx() (IndexTx, error)
}

// IndexTx is a transaction for atomic cache updates.
type IndexTx interface {
	Put(entry *domain.CacheEntry) error
	Delete(path string) error

	Commit() error
	Rollback() error
}
