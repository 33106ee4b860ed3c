package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
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

func seededWorkspace(t *testing.T) (*application.Workspace, string, string, string) {
	t.Helper()
	dir := t.TempDir()
	pathA := writeCSV(t, dir, "run_a.csv",
		"Time [s],Temperature [C],Press_bar\n0,20,1.0\n1,21,1.1\n2,22,1.2\n")
	pathB := writeCSV(t, dir, "run_b.csv",
		"Time [s],Temperature [C],Pressure_bar\n0,30,2.0\n1,31,2.1\n2,32,2.2\n")

	ws := application.NewWorkspace([]ports.FileReader{csvfile.NewReader()})
	testID, err := ws.CreateTest("baseline")
	if err != nil {
		t.Fatal(err)
	}
	return ws, testID, pathA, pathB
}

func TestImportCommand_Validate(t *testing.T) {
	ws, testID, pathA, _ := seededWorkspace(t)

	tests := []struct {
		name    string
		testID  string
		paths   []string
		wantErr string
	}{
		{name: "valid", testID: testID, paths: []string{pathA}},
		{name: "empty test ID", paths: []string{pathA}, wantErr: "test ID is required"},
		{name: "no paths", testID: testID, wantErr: "at least one file path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewImportCommand(ws, tt.testID, tt.paths, false)
			err := cmd.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestImportCommand_Execute(t *testing.T) {
	ws, testID, pathA, pathB := seededWorkspace(t)

	res, err := NewImportCommand(ws, testID, []string{pathA, pathB, "nope.json"}, true).
		Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Failed != 1 {
		t.Errorf("failed = %d, want 1", res.Failed)
	}
	if !strings.Contains(res.Message, "2 of 3") {
		t.Errorf("message = %q", res.Message)
	}

	channels, err := ws.Channels(testID)
	if err != nil {
		t.Fatal(err)
	}
	// Pressure_bar was accepted onto Press_bar, so no fourth channel.
	if len(channels) != 3 {
		t.Errorf("channels = %d, want 3", len(channels))
	}
}

func TestDiffCommand_Execute(t *testing.T) {
	ws, testID, pathA, pathB := seededWorkspace(t)
	if _, err := NewImportCommand(ws, testID, []string{pathA}, false).Execute(context.Background()); err != nil {
		t.Fatal(err)
	}

	res, err := NewDiffCommand(ws, testID, pathB).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(res.Message, "2 matched, 1 renamed, 0 added, 0 removed") {
		t.Errorf("message = %q", res.Message)
	}
	if len(res.Diff.Proposals()) != 1 {
		t.Errorf("proposals = %v", res.Diff.Proposals())
	}

	// The diff never attached anything.
	infos := ws.Tests()
	if infos[0].Files != 1 {
		t.Errorf("files = %d, want 1", infos[0].Files)
	}
}

func TestMergeCommand_Execute(t *testing.T) {
	ws, testID, pathA, pathB := seededWorkspace(t)
	if _, err := NewImportCommand(ws, testID, []string{pathA, pathB}, true).Execute(context.Background()); err != nil {
		t.Fatal(err)
	}

	cmd := NewMergeCommand(ws, testID)
	cmd.Tolerance = 0.2
	res, err := cmd.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Rows != 3 {
		t.Errorf("rows = %d, want 3", res.Rows)
	}
	if res.EmptyOverlap {
		t.Error("unexpected empty-overlap warning")
	}
}

func TestMergeCommand_DefaultsPreserveConfiguration(t *testing.T) {
	ws, testID, pathA, _ := seededWorkspace(t)
	if _, err := NewImportCommand(ws, testID, []string{pathA}, false).Execute(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := ws.SetTimeMode(testID, domain.TimeRelative); err != nil {
		t.Fatal(err)
	}
	if err := ws.SetJoin(testID, domain.JoinTimeNearest, "", 0.25, 0); err != nil {
		t.Fatal(err)
	}

	cmd := NewMergeCommand(ws, testID)
	if cmd.TimeMode != domain.TimeRelative {
		t.Errorf("default time mode = %v, want the test's relative mode", cmd.TimeMode)
	}
	if cmd.Tolerance != 0.25 {
		t.Errorf("default tolerance = %v, want the test's 0.25", cmd.Tolerance)
	}

	if _, err := cmd.Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	test, err := ws.Test(testID)
	if err != nil {
		t.Fatal(err)
	}
	if test.TimeMode != domain.TimeRelative {
		t.Errorf("merge without overrides reset time mode to %v", test.TimeMode)
	}
	if test.Tolerance != 0.25 {
		t.Errorf("merge without overrides reset tolerance to %v", test.Tolerance)
	}
}

func TestMergeCommand_ValidateAlternativeKey(t *testing.T) {
	ws, testID, _, _ := seededWorkspace(t)
	cmd := NewMergeCommand(ws, testID)
	cmd.Strategy = domain.JoinAlternativeKey
	if err := cmd.Validate(); err == nil {
		t.Error("missing key channel accepted")
	}
}

func TestExportCommand_Execute(t *testing.T) {
	ws, testID, pathA, _ := seededWorkspace(t)
	if _, err := NewImportCommand(ws, testID, []string{pathA}, false).Execute(context.Background()); err != nil {
		t.Fatal(err)
	}
	mc := NewMergeCommand(ws, testID)
	mc.Tolerance = 0.2
	if _, err := mc.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := ws.SetFilter(testID, domain.FilterSpec{
		Kind: domain.FilterTimeRange, Min: 1, Max: 2,
	}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	res, err := NewExportCommand(ws, testID, &buf).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Rows != 2 {
		t.Errorf("rows = %d, want 2", res.Rows)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "Temperature [C]") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "1,") {
		t.Errorf("first data row = %q", lines[1])
	}
}

func TestChannelsCommand_Execute(t *testing.T) {
	ws, testID, pathA, _ := seededWorkspace(t)
	if _, err := NewImportCommand(ws, testID, []string{pathA}, false).Execute(context.Background()); err != nil {
		t.Fatal(err)
	}
	mc := NewMergeCommand(ws, testID)
	mc.Tolerance = 0.2
	if _, err := mc.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}

	cmd := NewChannelsCommand(ws, testID)
	cmd.Query = domain.ChannelQuery{Text: "temp"}
	cmd.Grouped = true
	res, err := cmd.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(res.Entries))
	}
	entry := res.Entries[0]
	if entry.Descriptor.Category != "Temperature" {
		t.Errorf("descriptor = %+v", entry.Descriptor)
	}
	if !entry.HasStats || entry.Stats.Min != 20 || entry.Stats.Max != 22 {
		t.Errorf("stats = %+v", entry.Stats)
	}
	if _, ok := res.Groups["Temperature"]["C"]; !ok {
		t.Errorf("groups = %v", res.Groups)
	}
}

func TestLayoutCommands_RoundTrip(t *testing.T) {
	ws, testID, pathA, pathB := seededWorkspace(t)
	if _, err := NewImportCommand(ws, testID, []string{pathA, pathB}, true).Execute(context.Background()); err != nil {
		t.Fatal(err)
	}

	layoutPath := filepath.Join(t.TempDir(), "session.json")
	save := NewSaveLayoutCommand(ws, layoutPath)
	save.CompareMode = domain.CompareConcatenate
	save.Gap = 4
	if _, err := save.Execute(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}

	restored := application.NewWorkspace([]ports.FileReader{csvfile.NewReader()})
	res, err := NewLoadLayoutCommand(restored, layoutPath).Execute(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Tests != 1 || len(res.Missing) != 0 {
		t.Errorf("load result = %+v", res)
	}
	infos := restored.Tests()
	if len(infos) != 1 || infos[0].Files != 2 || infos[0].Channels != 3 {
		t.Errorf("restored = %+v", infos)
	}
}
