package board

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/novatasks/internal/keys"
	"github.com/nhle/novatasks/internal/model"
)

func fixedNow() time.Time { return time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC) }

func TestSetTasksGroupsByStatus(t *testing.T) {
	m := New(keys.DefaultKeyMap(), fixedNow, 120, 30)
	m.SetTasks([]model.Task{
		{ID: "a", Title: "A", Status: model.StatusPending},
		{ID: "b", Title: "B", Status: model.StatusCompleted},
		{ID: "c", Title: "C", Status: model.StatusInProcess},
		{ID: "d", Title: "D", Status: model.StatusPending},
	})

	want := []int{2, 1, 1}
	for i, n := range want {
		if len(m.columns[i]) != n {
			t.Errorf("column %d has %d tasks, want %d", i, len(m.columns[i]), n)
		}
	}
	if got, _ := m.Selected(); got.ID != "a" {
		t.Errorf("Selected = %q, want a", got.ID)
	}
}

func TestCursorMovement(t *testing.T) {
	m := New(keys.DefaultKeyMap(), fixedNow, 120, 30)
	m.SetTasks([]model.Task{
		{ID: "a", Status: model.StatusPending},
		{ID: "b", Status: model.StatusPending},
		{ID: "c", Status: model.StatusInProcess},
	})

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	if got, _ := m.Selected(); got.ID != "b" {
		t.Fatalf("after j: %q", got.ID)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	if got, _ := m.Selected(); got.ID != "c" || m.Column() != 1 {
		t.Fatalf("after l: %q col %d", got.ID, m.Column())
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	if _, ok := m.Selected(); ok {
		t.Error("empty completed column reported a selection")
	}
}

func TestSetTasksFollowsMovedTask(t *testing.T) {
	m := New(keys.DefaultKeyMap(), fixedNow, 120, 30)
	m.SetTasks([]model.Task{{ID: "a", Status: model.StatusPending}})

	m.SetTasks([]model.Task{{ID: "a", Status: model.StatusCompleted}})
	if got, ok := m.Selected(); !ok || got.ID != "a" || m.Column() != 2 {
		t.Errorf("Selected = %q (ok=%v) col %d", got.ID, ok, m.Column())
	}
}

func TestScrollStart(t *testing.T) {
	tests := []struct{ cursor, total, rows, want int }{
		{0, 3, 5, 0},
		{4, 10, 5, 0},
		{5, 10, 5, 1},
		{9, 10, 5, 5},
	}
	for _, tt := range tests {
		if got := scrollStart(tt.cursor, tt.total, tt.rows); got != tt.want {
			t.Errorf("scrollStart(%d, %d, %d) = %d, want %d", tt.cursor, tt.total, tt.rows, got, tt.want)
		}
	}
}
