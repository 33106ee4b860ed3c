package ports

import (
	"context"

	"logmerge/internal/domain"
)

// FileReader parses one on-disk log file into a DataFile: channel
// descriptors from the header row, a detected time column and a populated
// column store. Implementations cover one input format each; the workspace
// picks the first reader whose CanRead accepts the path.
type FileReader interface {
	// CanRead reports whether this reader handles the file, judged by
	// its extension.
	CanRead(path string) bool

	// Read parses the file. Undecodable content, a missing header row or
	// a non-numeric cell is reported as a parse error, never papered over.
	Read(ctx context.Context, path string) (*domain.DataFile, error)
}

// CachedHeaderReader is implemented by readers that can reuse a cached
// header descriptor set, skipping delimiter and encoding detection and the
// header grammar pass. Data rows are still read; column values are never
// cached.
type CachedHeaderReader interface {
	ReadCached(ctx context.Context, path string, entry *domain.CacheEntry) (*domain.DataFile, error)
}
