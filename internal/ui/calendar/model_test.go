package calendar

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/novatasks/internal/keys"
	"github.com/nhle/novatasks/internal/model"
)

func TestGridStartsOnSunday(t *testing.T) {
	// March 2025 starts on a Saturday.
	days := Grid(time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC))
	if len(days) != Cells {
		t.Fatalf("len = %d", len(days))
	}
	if want := time.Date(2025, time.February, 23, 0, 0, 0, 0, time.UTC); !days[0].Equal(want) {
		t.Errorf("first cell = %v, want %v", days[0], want)
	}
	if days[0].Weekday() != time.Sunday {
		t.Errorf("first cell is a %v", days[0].Weekday())
	}
	if want := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC); !days[6].Equal(want) {
		t.Errorf("cell 6 = %v, want March 1", days[6])
	}
}

func TestGroupByDayUsesLocalDate(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	late := time.Date(2025, time.March, 2, 3, 0, 0, 0, time.UTC) // March 1, 22:00 local
	noon := time.Date(2025, time.March, 2, 17, 0, 0, 0, time.UTC)

	got := GroupByDay([]model.Task{
		{ID: "a", Deadline: &late},
		{ID: "b", Deadline: &noon},
		{ID: "c"},
	}, loc)

	mar1 := time.Date(2025, time.March, 1, 0, 0, 0, 0, loc)
	mar2 := time.Date(2025, time.March, 2, 0, 0, 0, 0, loc)
	if len(got[mar1]) != 1 || got[mar1][0].ID != "a" {
		t.Errorf("March 1 = %+v", got[mar1])
	}
	if len(got[mar2]) != 1 || got[mar2][0].ID != "b" {
		t.Errorf("March 2 = %+v", got[mar2])
	}
	if len(got) != 2 {
		t.Errorf("buckets = %d", len(got))
	}
}

func TestNavigationCrossesMonths(t *testing.T) {
	now := func() time.Time { return time.Date(2025, time.January, 31, 10, 0, 0, 0, time.UTC) }
	m := New(keys.DefaultKeyMap(), now, 140, 40)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	if m.Month().Month() != time.February || m.SelectedDate().Day() != 1 {
		t.Errorf("after l: month %v day %d", m.Month().Month(), m.SelectedDate().Day())
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("[")})
	if m.Month().Month() != time.January || m.SelectedDate().Day() != 1 {
		t.Errorf("after [: month %v day %d", m.Month().Month(), m.SelectedDate().Day())
	}
}

func TestSelectedCyclesTasksOnDay(t *testing.T) {
	now := func() time.Time { return time.Date(2025, time.April, 10, 8, 0, 0, 0, time.UTC) }
	m := New(keys.DefaultKeyMap(), now, 140, 40)
	due := time.Date(2025, time.April, 10, 17, 0, 0, 0, time.UTC)
	m.SetTasks([]model.Task{{ID: "a", Deadline: &due}, {ID: "b", Deadline: &due}})

	if got, _ := m.Selected(); got.ID != "a" {
		t.Fatalf("Selected = %q", got.ID)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("J")})
	if got, _ := m.Selected(); got.ID != "b" {
		t.Errorf("after J: %q", got.ID)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("J")})
	if got, _ := m.Selected(); got.ID != "a" {
		t.Errorf("after second J: %q", got.ID)
	}
	if m.View() == "" {
		t.Error("empty view")
	}
}
