package sqlite

import (
	"database/sql"

	"logmerge/internal/domain"
	"logmerge/internal/ports"
)

// indexTx implements ports.IndexTx
type indexTx struct {
	tx *sql.Tx
}

// Ensure indexTx implements IndexTx
var _ ports.IndexTx = (*indexTx)(nil)

// Put inserts or replaces a cache entry with its channel descriptors
func (t *indexTx) Put(entry *domain.CacheEntry) error {
	_, err := t.tx.Exec(`
		INSERT OR REPLACE INTO files (path, mtime, size, delimiter, encoding, time_column)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.Path, entry.MTime, entry.Size, entry.Delimiter, entry.Encoding, entry.TimeColumnID)
	if err != nil {
		return err
	}

	// Replace the descriptor set wholesale; stale rows would corrupt positions
	if _, err := t.tx.Exec(`DELETE FROM channels WHERE file_path = ?`, entry.Path); err != nil {
		return err
	}

	for i, desc := range entry.Channels {
		_, err := t.tx.Exec(`
			INSERT INTO channels (file_path, position, id, raw_header, display_name, unit, category, form)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, entry.Path, i, desc.ID, desc.RawHeader, desc.DisplayName, desc.Unit, desc.Category, int(desc.Form))
		if err != nil {
			return err
		}
	}

	return nil
}

// Delete removes a cache entry by path
func (t *indexTx) Delete(path string) error {
	if _, err := t.tx.Exec(`DELETE FROM channels WHERE file_path = ?`, path); err != nil {
		return err
	}
	_, err := t.tx.Exec(`DELETE FROM files WHERE path = ?`, path)
	return err
}

// Commit commits the transaction
func (t *indexTx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction
func (t *indexTx) Rollback() error {
	return t.tx.Rollback()
}
