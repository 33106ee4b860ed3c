package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"logmerge/internal/adapters/tui/styles"
	"logmerge/internal/application"
	"logmerge/internal/domain"
)

// BrowserKeyMap defines key bindings for the browser view
type BrowserKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Enter  key.Binding
	Merge  key.Binding
	Remove key.Binding
	Help   key.Binding
	Quit   key.Binding
}

var BrowserKeys = BrowserKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h/←", "collapse"),
	),
	Right: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l/→", "expand"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "toggle"),
	),
	Merge: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "merge"),
	),
	Remove: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "detach file"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

type rowKind int

const (
	rowTest rowKind = iota
	rowFile
	rowChannel
)

// browserRow is one visible line: a test, or one of its files or channels
// when the test is expanded.
type browserRow struct {
	kind   rowKind
	testID string
	fileID string
	label  string
}

// BrowserModel lists the workspace tests with their files and channels.
type BrowserModel struct {
	ViewState

	ws       *application.Workspace
	rows     []browserRow
	expanded map[string]bool
	cursor   int
}

// NewBrowserModel creates a new browser model
func NewBrowserModel(ws *application.Workspace) *BrowserModel {
	return &BrowserModel{
		ws:       ws,
		expanded: make(map[string]bool),
	}
}

// Init initializes the browser
func (m *BrowserModel) Init() tea.Cmd {
	m.refreshRows()
	return nil
}

type mergeDoneMsg struct {
	testID string
	rows   int
	empty  bool
}

// Update handles messages for the browser
func (m *BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case errMsg:
		m.SetMessage(msg.err.Error(), true)
		return m, nil

	case statusMsg:
		m.SetMessage(msg.message, false)
		m.refreshRows()
		return m, nil

	case mergeDoneMsg:
		text := fmt.Sprintf("Merged %d rows", msg.rows)
		if msg.empty {
			text += " (no overlapping keys)"
		}
		m.SetMessage(text, false)
		m.refreshRows()
		return m, nil

	case tea.KeyMsg:
		m.ClearMessage()

		switch {
		case key.Matches(msg, BrowserKeys.Quit):
			return m, tea.Quit

		case key.Matches(msg, BrowserKeys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case key.Matches(msg, BrowserKeys.Down):
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
			return m, nil

		case key.Matches(msg, BrowserKeys.Left):
			if row := m.selectedRow(); row != nil {
				if row.kind == rowTest && m.expanded[row.testID] {
					m.expanded[row.testID] = false
					m.refreshRows()
				} else if row.kind != rowTest {
					m.moveToTest(row.testID)
				}
			}
			return m, nil

		case key.Matches(msg, BrowserKeys.Right), key.Matches(msg, BrowserKeys.Enter):
			if row := m.selectedRow(); row != nil && row.kind == rowTest {
				m.expanded[row.testID] = !m.expanded[row.testID]
				m.refreshRows()
			}
			return m, nil

		case key.Matches(msg, BrowserKeys.Merge):
			if row := m.selectedRow(); row != nil {
				return m, m.mergeTest(row.testID)
			}
			return m, nil

		case key.Matches(msg, BrowserKeys.Remove):
			if row := m.selectedRow(); row != nil && row.kind == rowFile {
				return m, m.removeFile(row.testID, row.fileID)
			}
			return m, nil

		case key.Matches(msg, BrowserKeys.Help):
			return m, func() tea.Msg {
				return SwitchToHelpMsg{}
			}
		}
	}

	return m, nil
}

func (m *BrowserModel) mergeTest(testID string) tea.Cmd {
	return func() tea.Msg {
		committed, err := m.ws.RebuildMerged(context.Background(), testID)
		if err != nil {
			return errMsg{err}
		}
		if !committed {
			return statusMsg{"merge superseded by a concurrent change"}
		}
		snap, err := m.ws.Merged(testID)
		if err != nil {
			return errMsg{err}
		}
		rows := 0
		if snap.Table != nil {
			rows = snap.Table.RowCount()
		}
		return mergeDoneMsg{testID: testID, rows: rows, empty: snap.EmptyOverlap}
	}
}

func (m *BrowserModel) removeFile(testID, fileID string) tea.Cmd {
	return func() tea.Msg {
		if err := m.ws.RemoveFile(testID, fileID); err != nil {
			return errMsg{err}
		}
		return statusMsg{"Detached " + fileID}
	}
}

func (m *BrowserModel) selectedRow() *browserRow {
	if m.cursor >= 0 && m.cursor < len(m.rows) {
		return &m.rows[m.cursor]
	}
	return nil
}

func (m *BrowserModel) moveToTest(testID string) {
	for i, row := range m.rows {
		if row.kind == rowTest && row.testID == testID {
			m.cursor = i
			return
		}
	}
}

func (m *BrowserModel) refreshRows() {
	m.rows = m.rows[:0]
	for _, info := range m.ws.Tests() {
		test, err := m.ws.Test(info.ID)
		if err != nil {
			continue
		}
		// The time axis is not a channel in the listing, only the data
		// channels are.
		timeIDs := make(map[string]bool)
		for _, f := range test.Files {
			if canon, ok := f.Bindings[f.TimeColumnID]; ok {
				timeIDs[canon] = true
			}
		}
		channels := len(test.Channels) - len(timeIDs)

		label := fmt.Sprintf("%s  (%d files, %d channels)", info.Name, info.Files, channels)
		if info.Rows > 0 {
			label += fmt.Sprintf(", %d merged rows", info.Rows)
		}
		m.rows = append(m.rows, browserRow{kind: rowTest, testID: info.ID, label: label})
		if !m.expanded[info.ID] {
			continue
		}
		for _, f := range test.Files {
			m.rows = append(m.rows, browserRow{
				kind:   rowFile,
				testID: info.ID,
				fileID: f.ID,
				label:  fmt.Sprintf("%s  (%d channels)", f.Name, len(f.Channels)),
			})
		}
		for _, ch := range test.Channels {
			if timeIDs[ch.ID] {
				continue
			}
			m.rows = append(m.rows, browserRow{
				kind:   rowChannel,
				testID: info.ID,
				label:  fmt.Sprintf("%s  %s", ch.ID, domain.FormatHeader(ch)),
			})
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// View renders the browser
func (m *BrowserModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Logmerge"))
	b.WriteString("\n")
	b.WriteString(styles.Subtitle.Render("Time-series log reconciliation"))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(styles.RowMuted.Render("No tests yet. Import files to get started."))
		b.WriteString("\n")
	}

	for i, row := range m.rows {
		b.WriteString(m.renderRow(row, i == m.cursor))
		b.WriteString("\n")
	}

	if m.Message != "" {
		b.WriteString("\n")
		if m.MessageErr {
			b.WriteString(styles.MessageError.Render(m.Message))
		} else {
			b.WriteString(styles.MessageInfo.Render(m.Message))
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelpLine())

	return styles.App.Render(b.String())
}

func (m *BrowserModel) renderRow(row browserRow, selected bool) string {
	indent := ""
	if row.kind != rowTest {
		indent = "    "
	}
	if selected {
		return indent + styles.RowSelected.Render(row.label)
	}
	if row.kind == rowChannel {
		return indent + styles.RowMuted.Render(row.label)
	}
	return indent + styles.Row.Render(row.label)
}

func (m *BrowserModel) renderHelpLine() string {
	keys := []struct {
		key  string
		desc string
	}{
		{"j/k", "navigate"},
		{"h/l", "collapse/expand"},
		{"m", "merge"},
		{"d", "detach file"},
		{"?", "help"},
		{"q", "quit"},
	}

	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s",
			styles.HelpKey.Render(k.key),
			styles.HelpDesc.Render(k.desc),
		))
	}

	return strings.Join(parts, styles.HelpSeparator.String())
}

// Reload refreshes the test list
func (m *BrowserModel) Reload() tea.Cmd {
	m.refreshRows()
	return nil
}
