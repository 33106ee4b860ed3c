package views

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"logmerge/internal/adapters/csvfile"
	"logmerge/internal/application"
	"logmerge/internal/ports"
)

func browserFixture(t *testing.T) (*BrowserModel, *application.Workspace, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "run_a.csv")
	content := "Time [s],Temperature [C],Pressure_bar\n0,20,1.0\n1,21,1.1\n2,22,1.2\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	ws := application.NewWorkspace([]ports.FileReader{csvfile.NewReader()})
	testID, err := ws.CreateTest("baseline")
	if err != nil {
		t.Fatal(err)
	}
	file, err := ws.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if err := ws.AttachParsed(testID, file, nil); err != nil {
		t.Fatal(err)
	}

	m := NewBrowserModel(ws)
	m.Init()
	return m, ws, testID
}

func TestBrowserModel_RowsListTests(t *testing.T) {
	m, _, _ := browserFixture(t)

	if len(m.rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(m.rows))
	}
	if m.rows[0].kind != rowTest {
		t.Errorf("expected test row, got kind %d", m.rows[0].kind)
	}
	if !strings.Contains(m.rows[0].label, "baseline") {
		t.Errorf("label %q missing test name", m.rows[0].label)
	}
	if !strings.Contains(m.rows[0].label, "1 files, 2 channels") {
		t.Errorf("label %q missing file and channel counts", m.rows[0].label)
	}
}

func TestBrowserModel_ExpandShowsFilesAndChannels(t *testing.T) {
	m, _, testID := browserFixture(t)

	m.Update(keyMsg('l'))
	if !m.expanded[testID] {
		t.Fatal("expected test expanded after l")
	}

	var files, channels int
	for _, row := range m.rows {
		switch row.kind {
		case rowFile:
			files++
		case rowChannel:
			channels++
			if strings.Contains(row.label, "Time") {
				t.Errorf("time axis listed as a channel: %q", row.label)
			}
		}
	}
	if files != 1 {
		t.Errorf("expected 1 file row, got %d", files)
	}
	if channels != 2 {
		t.Errorf("expected 2 channel rows, got %d", channels)
	}

	m.Update(keyMsg('h'))
	if m.expanded[testID] {
		t.Error("expected test collapsed after h")
	}
	if len(m.rows) != 1 {
		t.Errorf("expected 1 row after collapse, got %d", len(m.rows))
	}
}

func TestBrowserModel_CursorStaysInBounds(t *testing.T) {
	m, _, _ := browserFixture(t)

	m.Update(keyMsg('k'))
	if m.cursor != 0 {
		t.Errorf("cursor moved above first row: %d", m.cursor)
	}

	m.Update(keyMsg('l'))
	for i := 0; i < 10; i++ {
		m.Update(keyMsg('j'))
	}
	if m.cursor != len(m.rows)-1 {
		t.Errorf("cursor = %d, want last row %d", m.cursor, len(m.rows)-1)
	}
}

func TestBrowserModel_MergeProducesMergeDoneMsg(t *testing.T) {
	m, _, _ := browserFixture(t)

	_, cmd := m.Update(keyMsg('m'))
	if cmd == nil {
		t.Fatal("expected a merge command")
	}
	msg := cmd()
	done, ok := msg.(mergeDoneMsg)
	if !ok {
		t.Fatalf("expected mergeDoneMsg, got %T", msg)
	}
	if done.rows != 3 {
		t.Errorf("rows = %d, want 3", done.rows)
	}
	if done.empty {
		t.Error("single-file merge should not report empty overlap")
	}

	m.Update(msg)
	if !strings.Contains(m.Message, "Merged 3 rows") {
		t.Errorf("message = %q", m.Message)
	}
}

func TestBrowserModel_RemoveFileDetaches(t *testing.T) {
	m, ws, testID := browserFixture(t)

	m.Update(keyMsg('l'))
	for m.selectedRow() != nil && m.selectedRow().kind != rowFile {
		m.Update(keyMsg('j'))
	}
	row := m.selectedRow()
	if row == nil || row.kind != rowFile {
		t.Fatal("no file row selected")
	}

	_, cmd := m.Update(keyMsg('d'))
	if cmd == nil {
		t.Fatal("expected a remove command")
	}
	m.Update(cmd())

	test, err := ws.Test(testID)
	if err != nil {
		t.Fatal(err)
	}
	if len(test.Files) != 0 {
		t.Errorf("expected file detached, still have %d", len(test.Files))
	}
}

func TestBrowserModel_ViewRendersEmptyState(t *testing.T) {
	ws := application.NewWorkspace(nil)
	m := NewBrowserModel(ws)
	m.Init()

	out := m.View()
	if !strings.Contains(out, "No tests yet") {
		t.Errorf("empty view missing placeholder:\n%s", out)
	}
}
