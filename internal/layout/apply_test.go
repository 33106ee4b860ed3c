package layout

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"logmerge/internal/adapters/csvfile"
	"logmerge/internal/application"
	"logmerge/internal/domain"
	"logmerge/internal/ports"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newWorkspace() *application.Workspace {
	return application.NewWorkspace([]ports.FileReader{csvfile.NewReader()})
}

func TestSnapshotApplyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	pathA := writeCSV(t, dir, "run_a.csv", "Time [s],Temp [C]\n0,20\n1,21\n2,22\n")
	pathB := writeCSV(t, dir, "run_b.csv", "Time [s],Temp [C]\n0,30\n1,31\n")

	src := newWorkspace()
	testID, err := src.CreateTest("baseline")
	if err != nil {
		t.Fatal(err)
	}
	if err := src.SetJoin(testID, domain.JoinAppend, "", 0, 2); err != nil {
		t.Fatal(err)
	}
	reports, err := src.ImportFiles(context.Background(), testID, []string{pathA, pathB}, application.AcceptRenames)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range reports {
		if r.Err != nil {
			t.Fatalf("import %s: %v", r.Path, r.Err)
		}
	}
	if _, err := src.SetFilter(testID, domain.FilterSpec{
		Kind: domain.FilterTimeRange, Min: 1, Max: 10,
	}); err != nil {
		t.Fatal(err)
	}

	doc, err := Snapshot(src, domain.CompareConcatenate, 3)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if doc.Compare.Mode != "concatenate" || doc.Compare.Gap != 3 {
		t.Errorf("compare = %+v", doc.Compare)
	}

	dst := newWorkspace()
	missing, err := Apply(context.Background(), dst, doc, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("missing = %v", missing)
	}

	infos := dst.Tests()
	if len(infos) != 1 || infos[0].Files != 2 {
		t.Fatalf("restored tests = %+v", infos)
	}
	restored, err := dst.Test(infos[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if restored.Strategy != domain.JoinAppend || restored.Gap != 2 {
		t.Errorf("restored config = %+v", restored)
	}
	if len(restored.Channels) != 2 {
		t.Errorf("restored channels = %d, want 2", len(restored.Channels))
	}

	// The restored test merges identically to the source test.
	if _, err := dst.RebuildMerged(context.Background(), infos[0].ID); err != nil {
		t.Fatalf("RebuildMerged: %v", err)
	}
	snap, err := dst.Merged(infos[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Table.RowCount() != 5 {
		t.Errorf("rows = %d, want 5", snap.Table.RowCount())
	}

	if specs := dst.Filters().Specs(infos[0].ID); len(specs) != 1 {
		t.Errorf("restored filters = %v", specs)
	}
}

func TestApplyReportsMissingFilesAndRemaps(t *testing.T) {
	dir := t.TempDir()
	real := writeCSV(t, dir, "moved.csv", "Time [s],Temp [C]\n0,20\n")

	doc := &Document{
		Version: Version,
		Compare: CompareState{Mode: "overlay"},
		Tests: []TestState{{
			Name:     "moved",
			TimeMode: "absolute",
			Strategy: "time-nearest",
			Channels: []ChannelRef{
				{ID: "ch1", RawHeader: "Time [s]"},
				{ID: "ch2", RawHeader: "Temp [C]"},
			},
			Files: []FileState{{
				Path:     "/gone/moved.csv",
				Bindings: map[string]string{"c1": "ch1", "c2": "ch2"},
			}},
		}},
	}

	w := newWorkspace()
	missing, err := Apply(context.Background(), w, doc, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(missing) != 1 || missing[0].Path != "/gone/moved.csv" {
		t.Fatalf("missing = %v", missing)
	}
	// The test itself is restored; only the file is absent.
	if infos := w.Tests(); len(infos) != 1 || infos[0].Files != 0 {
		t.Errorf("tests = %+v", infos)
	}

	w2 := newWorkspace()
	missing, err = Apply(context.Background(), w2, doc, map[string]string{"/gone/moved.csv": real})
	if err != nil {
		t.Fatalf("Apply with remap: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("missing after remap = %v", missing)
	}
	if infos := w2.Tests(); infos[0].Files != 1 {
		t.Errorf("tests after remap = %+v", infos)
	}
}

func TestApplyV10RediffsFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "old.csv", "Time [s],Temp [C]\n0,20\n1,21\n")

	doc := &Document{
		Version: Version, // already migrated by Decode
		Compare: CompareState{Mode: "overlay"},
		Tests: []TestState{{
			Name:     "legacy",
			TimeMode: "absolute",
			Strategy: "time-nearest",
			Channels: []ChannelRef{},
			Files:    []FileState{{Path: path}},
		}},
	}

	w := newWorkspace()
	missing, err := Apply(context.Background(), w, doc, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("missing = %v", missing)
	}
	// Without mapping history the channels are adopted fresh via a diff.
	channels, err := w.Channels(w.Tests()[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(channels) != 2 {
		t.Errorf("channels = %d, want 2", len(channels))
	}
}
