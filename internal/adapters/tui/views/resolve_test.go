package views

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"logmerge/internal/domain"
)

func proposalFixture() (*domain.DataFile, *domain.HeaderDiff, []domain.ChannelDescriptor) {
	canonical := domain.ParseHeaders([]string{"Time [s]", "Temperature [C]", "Pressure_bar"})
	for i := range canonical {
		canonical[i].ID = "ch" + string(rune('1'+i))
	}
	incoming := domain.ParseHeaders([]string{"Time [s]", "Temperature [C]", "Press_bar"})

	diff := domain.DiffHeaders(incoming, canonical, domain.DefaultDiffConfig())
	file := &domain.DataFile{
		ID:       "f1",
		Name:     "run_b.csv",
		Channels: incoming,
	}
	return file, diff, canonical
}

func keyMsg(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestResolveModel_LoadClassifiesEntries(t *testing.T) {
	file, diff, canonical := proposalFixture()
	if len(diff.Proposals()) != 1 {
		t.Fatalf("fixture expected 1 proposal, got %d", len(diff.Proposals()))
	}

	m := NewResolveModel()
	m.Load(file, diff, canonical)

	if m.matched != 2 {
		t.Errorf("matched = %d, want 2", m.matched)
	}
	if len(m.proposals) != 1 {
		t.Fatalf("proposals = %d, want 1", len(m.proposals))
	}
	if m.proposals[0].from != "Press_bar" {
		t.Errorf("from = %q, want Press_bar", m.proposals[0].from)
	}
	if m.proposals[0].to != "Pressure_bar" {
		t.Errorf("to = %q, want Pressure_bar", m.proposals[0].to)
	}
}

func TestResolveModel_AcceptThenConfirm(t *testing.T) {
	file, diff, canonical := proposalFixture()
	m := NewResolveModel()
	m.Load(file, diff, canonical)

	m.Update(keyMsg('a'))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected command after confirm")
	}
	done, ok := cmd().(ResolveDoneMsg)
	if !ok {
		t.Fatalf("expected ResolveDoneMsg, got %T", cmd())
	}
	srcID := m.proposals[0].sourceID
	if accept, ok := done.Decisions[srcID]; !ok || !accept {
		t.Errorf("decision for %s = %v, %v; want accept", srcID, accept, ok)
	}
}

func TestResolveModel_ConfirmBlockedWhileUndecided(t *testing.T) {
	file, diff, canonical := proposalFixture()
	m := NewResolveModel()
	m.Load(file, diff, canonical)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("confirm should not emit a command with undecided proposals")
	}
	if m.Message == "" {
		t.Error("expected a warning message")
	}
}

func TestResolveModel_RejectKeepsChannelNew(t *testing.T) {
	file, diff, canonical := proposalFixture()
	m := NewResolveModel()
	m.Load(file, diff, canonical)

	m.Update(keyMsg('r'))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected command after confirm")
	}
	done := cmd().(ResolveDoneMsg)
	if done.Decisions[m.proposals[0].sourceID] {
		t.Error("rejected proposal should map to false")
	}
}

func TestResolveModel_CancelEmitsCancelMsg(t *testing.T) {
	file, diff, canonical := proposalFixture()
	m := NewResolveModel()
	m.Load(file, diff, canonical)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected command after esc")
	}
	if _, ok := cmd().(ResolveCancelMsg); !ok {
		t.Fatalf("expected ResolveCancelMsg, got %T", cmd())
	}
}
