package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func typeString(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestEnterEmitsTrimmedCommand(t *testing.T) {
	m := New(80, 20, []string{"today"})
	m = typeString(m, " today ")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("no command emitted")
	}
	if got := cmd().(CommandMsg); got != "today" {
		t.Errorf("CommandMsg = %q", got)
	}
	if m.input.Value() != "" {
		t.Errorf("input not reset: %q", m.input.Value())
	}
}

func TestEnterOnEmptyInputIsNoop(t *testing.T) {
	m := New(80, 20, nil)
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("empty input emitted a command")
	}
}
