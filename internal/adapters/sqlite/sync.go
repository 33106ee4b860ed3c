package sqlite

import (
	"os"
	"time"
)

// SyncStats summarizes one reconciliation pass over the cache.
type SyncStats struct {
	EntriesScanned int
	EntriesRemoved int
	Duration       time.Duration
}

// Sync walks every cached entry and drops the ones whose source file has
// vanished or no longer matches the recorded mtime/size. The next import of
// such a file re-parses and re-stores it.
func (idx *Index) Sync() (*SyncStats, error) {
	start := time.Now()
	stats := &SyncStats{}

	rows, err := idx.db.Query(`SELECT path, mtime, size FROM files`)
	if err != nil {
		return nil, err
	}

	type cached struct {
		path  string
		mtime int64
		size  int64
	}
	var entries []cached
	for rows.Next() {
		var c cached
		if err := rows.Scan(&c.path, &c.mtime, &c.size); err != nil {
			rows.Close()
			return nil, err
		}
		entries = append(entries, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tx, err := idx.BeginTx()
	if err != nil {
		return nil, err
	}

	for _, c := range entries {
		stats.EntriesScanned++

		stat, err := os.Stat(c.path)
		if err == nil && stat.ModTime().Unix() == c.mtime && stat.Size() == c.size {
			continue
		}

		if err := tx.Delete(c.path); err != nil {
			tx.Rollback()
			return nil, err
		}
		stats.EntriesRemoved++
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	// Record the pass for diagnostics
	idx.db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('last_sync_time', ?)`,
		time.Now().Unix())

	stats.Duration = time.Since(start)
	return stats, nil
}
