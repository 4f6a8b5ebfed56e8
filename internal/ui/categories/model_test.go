package categories

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/novatasks/internal/keys"
	"github.com/nhle/novatasks/internal/model"
)

func sampleTasks() []model.Task {
	return []model.Task{
		{ID: "1", Title: "a", Category: "Work"},
		{ID: "2", Title: "b", Category: "work ", Status: model.StatusCompleted},
		{ID: "3", Title: "c", Category: "Home"},
		{ID: "4", Title: "d"},
	}
}

func TestSummarizeGroupsCaseVariants(t *testing.T) {
	got := Summarize(sampleTasks())
	want := []Entry{{Name: "Home", Total: 1, Open: 1}, {Name: "Work", Total: 2, Open: 1}}
	if len(got) != len(want) {
		t.Fatalf("entries = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestEnterFiltersSelectedCategory(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.SetTasks(sampleTasks())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter returned no command")
	}
	if msg, ok := cmd().(FilterMsg); !ok || msg.Category != "Work" {
		t.Errorf("msg = %#v", cmd())
	}
}

func TestEscClosesAndEmptyListIgnoresActions(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("enter on empty list returned a command")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if _, ok := cmd().(CloseMsg); !ok {
		t.Error("esc did not close")
	}
}

func TestSetTasksClampsSelection(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.SetTasks(sampleTasks())
	m.selectedIdx = 1

	m.SetTasks(sampleTasks()[2:])
	if e, ok := m.Selected(); !ok || e.Name != "Home" {
		t.Errorf("Selected = %+v, %v", e, ok)
	}
}

func TestEditOpensRenameForm(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.SetTasks(sampleTasks())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	if m.mode != modeForm || m.fb.name != "Home" {
		t.Fatalf("mode = %v, name = %q", m.mode, m.fb.name)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != modeList {
		t.Errorf("esc left mode %v", m.mode)
	}
}
