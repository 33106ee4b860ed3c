package sqlite

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"logmerge/internal/domain"
	"logmerge/internal/ports"

	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

// Index implements ports.ImportIndex using SQLite
type Index struct {
	db     *sql.DB
	dbPath string
}

// Ensure Index implements ImportIndex
var _ ports.ImportIndex = (*Index)(nil)

// NewIndex creates a new SQLite import cache
func NewIndex() *Index {
	return &Index{}
}

// Open initializes the cache database at the given path
func (idx *Index) Open(dbPath string) error {
	// Expand ~ in path
	if len(dbPath) > 0 && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	idx.dbPath = dbPath

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(idx.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", idx.dbPath+"?_journal_mode=WAL")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	idx.db = db

	// Performance pragmas + schema in single batch (reduces round-trips)
	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA cache_size = -64000;
		PRAGMA temp_store = MEMORY;
		PRAGMA busy_timeout = 5000;

		CREATE TABLE IF NOT EXISTS files (
			path TEXT PRIMARY KEY,
			mtime INTEGER NOT NULL,
			size INTEGER NOT NULL,
			delimiter TEXT NOT NULL,
			encoding TEXT NOT NULL,
			time_column TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS channels (
			file_path TEXT NOT NULL,
			position INTEGER NOT NULL,
			id TEXT NOT NULL,
			raw_header TEXT NOT NULL,
			display_name TEXT NOT NULL,
			unit TEXT NOT NULL,
			category TEXT NOT NULL,
			form INTEGER NOT NULL,
			PRIMARY KEY (file_path, position)
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_channels_file ON channels(file_path);
	`)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to setup database: %w", err)
	}

	// Update metadata
	if err := idx.updateMeta(); err != nil {
		db.Close()
		return fmt.Errorf("failed to update metadata: %w", err)
	}

	return nil
}

// Close closes the database connection
func (idx *Index) Close() error {
	if idx.db != nil {
		return idx.db.Close()
	}
	return nil
}

// NeedsFullRebuild returns true if the cache was written by an incompatible
// schema version and should be discarded
func (idx *Index) NeedsFullRebuild() bool {
	var version string

	idx.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&version)

	return version != schemaVersion
}

// Reset drops every cached entry
func (idx *Index) Reset() error {
	_, err := idx.db.Exec(`
		DELETE FROM channels;
		DELETE FROM files;
	`)
	if err != nil {
		return err
	}
	return idx.updateMeta()
}

// DatabasePath returns the default cache location for a workspace directory
func DatabasePath(workDir string) string {
	// XDG data directory
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}

	// Hash workspace path for unique DB name
	hash := hashWorkDir(workDir)

	return filepath.Join(dataHome, "logmerge", hash+".db")
}

// hashWorkDir returns a short hash of the workspace path
func hashWorkDir(workDir string) string {
	h := sha256.Sum256([]byte(workDir))
	return hex.EncodeToString(h[:8]) // First 8 bytes = 16 hex chars
}

// updateMeta updates the schema version
func (idx *Index) updateMeta() error {
	_, err := idx.db.Exec(`
		INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?);
	`, schemaVersion)
	return err
}

// Lookup retrieves the cached entry for a source file. A missing path or a
// changed mtime/size returns nil without error.
func (idx *Index) Lookup(path string, mtime, size int64) (*domain.CacheEntry, error) {
	var entry domain.CacheEntry

	err := idx.db.QueryRow(`
		SELECT path, mtime, size, delimiter, encoding, time_column
		FROM files WHERE path = ?
	`, path).Scan(&entry.Path, &entry.MTime, &entry.Size, &entry.Delimiter, &entry.Encoding, &entry.TimeColumnID)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if entry.MTime != mtime || entry.Size != size {
		return nil, nil
	}

	rows, err := idx.db.Query(`
		SELECT id, raw_header, display_name, unit, category, form
		FROM channels WHERE file_path = ?
		ORDER BY position
	`, path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var desc domain.ChannelDescriptor
		var form int
		if err := rows.Scan(&desc.ID, &desc.RawHeader, &desc.DisplayName, &desc.Unit, &desc.Category, &form); err != nil {
			return nil, err
		}
		desc.Form = domain.HeaderForm(form)
		entry.Channels = append(entry.Channels, desc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &entry, nil
}

// BeginTx starts a new transaction
func (idx *Index) BeginTx() (ports.IndexTx, error) {
	tx, err := idx.db.Begin()
	if err != nil {
		return nil, err
	}
	return &indexTx{tx: tx}, nil
}
