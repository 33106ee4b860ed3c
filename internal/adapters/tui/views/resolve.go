package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"logmerge/internal/adapters/tui/styles"
	"logmerge/internal/domain"
)

// ResolveKeyMap defines key bindings for the resolution view
type ResolveKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Accept    key.Binding
	Reject    key.Binding
	AcceptAll key.Binding
	Confirm   key.Binding
	Cancel    key.Binding
}

var ResolveKeys = ResolveKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Accept: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "accept rename"),
	),
	Reject: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "keep as new"),
	),
	AcceptAll: key.NewBinding(
		key.WithKeys("A"),
		key.WithHelp("A", "accept all"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "skip file"),
	),
}

// ResolveDoneMsg carries the decisions for every rename proposal.
// Decisions maps the incoming channel id to true (bind to the proposed
// canonical channel) or false (adopt as a new channel).
type ResolveDoneMsg struct {
	Decisions map[string]bool
}

// ResolveCancelMsg signals that the file should be skipped.
type ResolveCancelMsg struct{}

// proposalRow is one rename proposal plus the headers it connects.
type proposalRow struct {
	sourceID string
	from     string
	to       string
	score    float64
}

// ResolveModel asks the user to settle rename proposals before a file is
// attached to a test.
type ResolveModel struct {
	ViewState

	fileName  string
	proposals []proposalRow
	matched   int
	added     int
	removed   int
	decisions map[string]bool
	cursor    int
}

// NewResolveModel creates a new resolution view model
func NewResolveModel() *ResolveModel {
	return &ResolveModel{}
}

// Load fills the view with the proposals of one header diff. The canonical
// set supplies the display headers for proposal targets.
func (m *ResolveModel) Load(file *domain.DataFile, diff *domain.HeaderDiff, canonical []domain.ChannelDescriptor) {
	byID := make(map[string]domain.ChannelDescriptor, len(file.Channels))
	for _, ch := range file.Channels {
		byID[ch.ID] = ch
	}
	canonByID := make(map[string]domain.ChannelDescriptor, len(canonical))
	for _, ch := range canonical {
		canonByID[ch.ID] = ch
	}

	m.fileName = file.Name
	m.proposals = nil
	m.matched, m.added, m.removed = 0, 0, 0
	m.decisions = make(map[string]bool)
	m.cursor = 0
	m.ClearMessage()

	for _, e := range diff.Entries {
		switch e.Class {
		case domain.ClassMatched:
			m.matched++
		case domain.ClassAdded:
			m.added++
		case domain.ClassRemoved:
			m.removed++
		case domain.ClassRenamed:
			m.proposals = append(m.proposals, proposalRow{
				sourceID: e.SourceID,
				from:     domain.FormatHeader(byID[e.SourceID]),
				to:       domain.FormatHeader(canonByID[e.TargetID]),
				score:    e.Score,
			})
		}
	}
}

// Init initializes the resolution view
func (m *ResolveModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the resolution view
func (m *ResolveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, ResolveKeys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case key.Matches(msg, ResolveKeys.Down):
			if m.cursor < len(m.proposals)-1 {
				m.cursor++
			}
			return m, nil

		case key.Matches(msg, ResolveKeys.Accept):
			if p := m.selected(); p != nil {
				m.decisions[p.sourceID] = true
				m.advance()
			}
			return m, nil

		case key.Matches(msg, ResolveKeys.Reject):
			if p := m.selected(); p != nil {
				m.decisions[p.sourceID] = false
				m.advance()
			}
			return m, nil

		case key.Matches(msg, ResolveKeys.AcceptAll):
			for _, p := range m.proposals {
				m.decisions[p.sourceID] = true
			}
			return m, nil

		case key.Matches(msg, ResolveKeys.Confirm):
			if len(m.decisions) < len(m.proposals) {
				m.SetMessage("undecided proposals remain", true)
				return m, nil
			}
			decisions := m.decisions
			return m, func() tea.Msg {
				return ResolveDoneMsg{Decisions: decisions}
			}

		case key.Matches(msg, ResolveKeys.Cancel):
			return m, func() tea.Msg {
				return ResolveCancelMsg{}
			}
		}
	}

	return m, nil
}

func (m *ResolveModel) selected() *proposalRow {
	if m.cursor >= 0 && m.cursor < len(m.proposals) {
		return &m.proposals[m.cursor]
	}
	return nil
}

func (m *ResolveModel) advance() {
	if m.cursor < len(m.proposals)-1 {
		m.cursor++
	}
}

// View renders the resolution view
func (m *ResolveModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Resolve renames"))
	b.WriteString("\n")
	b.WriteString(styles.Subtitle.Render(m.fileName))
	b.WriteString("\n\n")

	summary := fmt.Sprintf("%s matched  %s proposed  %s added  %s removed",
		styles.TagMatched.Render(fmt.Sprintf("%d", m.matched)),
		styles.TagRenamed.Render(fmt.Sprintf("%d", len(m.proposals))),
		styles.TagAdded.Render(fmt.Sprintf("%d", m.added)),
		styles.TagRemoved.Render(fmt.Sprintf("%d", m.removed)),
	)
	b.WriteString(summary)
	b.WriteString("\n\n")

	for i, p := range m.proposals {
		b.WriteString(m.renderProposal(p, i == m.cursor))
		b.WriteString("\n")
	}

	if m.Message != "" {
		b.WriteString("\n")
		b.WriteString(styles.MessageError.Render(m.Message))
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelpLine())

	return styles.App.Render(b.String())
}

func (m *ResolveModel) renderProposal(p proposalRow, selected bool) string {
	mark := "[ ]"
	if decided, ok := m.decisions[p.sourceID]; ok {
		if decided {
			mark = styles.TagMatched.Render("[map]")
		} else {
			mark = styles.TagAdded.Render("[new]")
		}
	}

	line := fmt.Sprintf("%s %s -> %s  (%.2f)", mark, p.from, p.to, p.score)
	if selected {
		return styles.RowSelected.Render(line)
	}
	return styles.Row.Render(line)
}

func (m *ResolveModel) renderHelpLine() string {
	keys := []struct {
		key  string
		desc string
	}{
		{"a", "accept"},
		{"r", "keep as new"},
		{"A", "accept all"},
		{"enter", "confirm"},
		{"esc", "skip file"},
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
