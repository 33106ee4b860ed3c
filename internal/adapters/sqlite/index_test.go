package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"logmerge/internal/domain"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx := NewIndex()
	if err := idx.Open(filepath.Join(t.TempDir(), "cache.db")); err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := idx.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return idx
}

func sampleEntry(path string) *domain.CacheEntry {
	return &domain.CacheEntry{
		Path:         path,
		MTime:        1700000000,
		Size:         2048,
		Delimiter:    ",",
		Encoding:     "utf-8",
		TimeColumnID: "c1",
		Channels: []domain.ChannelDescriptor{
			{ID: "c1", RawHeader: "Time [s]", DisplayName: "Time", Unit: "s", Category: "Time", Form: domain.FormBracket},
			{ID: "c2", RawHeader: "Temperature [C]", DisplayName: "Temperature", Unit: "C", Category: "Temperature", Form: domain.FormBracket},
			{ID: "c3", RawHeader: "Press_bar", DisplayName: "Press", Unit: "bar", Category: "Pressure", Form: domain.FormUnderscore},
		},
	}
}

func storeEntry(t *testing.T, idx *Index, entry *domain.CacheEntry) {
	t.Helper()
	tx, err := idx.BeginTx()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tx.Put(entry); err != nil {
		tx.Rollback()
		t.Fatalf("put: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestIndex_PutAndLookup(t *testing.T) {
	idx := openTestIndex(t)
	entry := sampleEntry("/data/run_a.csv")
	storeEntry(t, idx, entry)

	got, err := idx.Lookup(entry.Path, entry.MTime, entry.Size)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got == nil {
		t.Fatal("expected a cache hit")
	}
	if got.Delimiter != "," || got.Encoding != "utf-8" || got.TimeColumnID != "c1" {
		t.Errorf("entry fields = %q %q %q", got.Delimiter, got.Encoding, got.TimeColumnID)
	}
	if len(got.Channels) != 3 {
		t.Fatalf("channels = %d, want 3", len(got.Channels))
	}
	if got.Channels[2].Unit != "bar" || got.Channels[2].Form != domain.FormUnderscore {
		t.Errorf("channel 3 = %+v", got.Channels[2])
	}
}

func TestIndex_LookupMissIsNotAnError(t *testing.T) {
	idx := openTestIndex(t)

	got, err := idx.Lookup("/data/unknown.csv", 1, 1)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown path, got %+v", got)
	}
}

func TestIndex_StaleEntryMisses(t *testing.T) {
	idx := openTestIndex(t)
	entry := sampleEntry("/data/run_a.csv")
	storeEntry(t, idx, entry)

	tests := []struct {
		name  string
		mtime int64
		size  int64
	}{
		{"changed mtime", entry.MTime + 60, entry.Size},
		{"changed size", entry.MTime, entry.Size + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idx.Lookup(entry.Path, tt.mtime, tt.size)
			if err != nil {
				t.Fatalf("lookup: %v", err)
			}
			if got != nil {
				t.Error("stale entry should miss")
			}
		})
	}
}

func TestIndex_PutReplacesChannels(t *testing.T) {
	idx := openTestIndex(t)
	entry := sampleEntry("/data/run_a.csv")
	storeEntry(t, idx, entry)

	entry.Channels = entry.Channels[:2]
	entry.MTime++
	storeEntry(t, idx, entry)

	got, err := idx.Lookup(entry.Path, entry.MTime, entry.Size)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got == nil {
		t.Fatal("expected a cache hit")
	}
	if len(got.Channels) != 2 {
		t.Errorf("channels = %d, want 2 after replace", len(got.Channels))
	}
}

func TestIndex_DeleteAndReset(t *testing.T) {
	idx := openTestIndex(t)
	a := sampleEntry("/data/run_a.csv")
	b := sampleEntry("/data/run_b.csv")
	storeEntry(t, idx, a)
	storeEntry(t, idx, b)

	tx, err := idx.BeginTx()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tx.Delete(a.Path); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if got, _ := idx.Lookup(a.Path, a.MTime, a.Size); got != nil {
		t.Error("deleted entry still present")
	}
	if got, _ := idx.Lookup(b.Path, b.MTime, b.Size); got == nil {
		t.Error("unrelated entry was removed")
	}

	if err := idx.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got, _ := idx.Lookup(b.Path, b.MTime, b.Size); got != nil {
		t.Error("reset should drop every entry")
	}
	if idx.NeedsFullRebuild() {
		t.Error("schema version should survive a reset")
	}
}

func TestIndex_SyncDropsVanishedFiles(t *testing.T) {
	idx := openTestIndex(t)
	dir := t.TempDir()

	alive := filepath.Join(dir, "alive.csv")
	if err := os.WriteFile(alive, []byte("Time,Val\n0,1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	stat, err := os.Stat(alive)
	if err != nil {
		t.Fatal(err)
	}

	aliveEntry := sampleEntry(alive)
	aliveEntry.MTime = stat.ModTime().Unix()
	aliveEntry.Size = stat.Size()
	storeEntry(t, idx, aliveEntry)

	storeEntry(t, idx, sampleEntry(filepath.Join(dir, "gone.csv")))

	stats, err := idx.Sync()
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if stats.EntriesScanned != 2 {
		t.Errorf("scanned = %d, want 2", stats.EntriesScanned)
	}
	if stats.EntriesRemoved != 1 {
		t.Errorf("removed = %d, want 1", stats.EntriesRemoved)
	}

	if got, _ := idx.Lookup(aliveEntry.Path, aliveEntry.MTime, aliveEntry.Size); got == nil {
		t.Error("entry for existing file was dropped")
	}
}
