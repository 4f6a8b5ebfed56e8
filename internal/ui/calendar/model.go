// Package calendar renders a month grid with the tasks due on each day.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/novatasks/internal/keys"
	"github.com/nhle/novatasks/internal/model"
	"github.com/nhle/novatasks/internal/theme"
	"github.com/nhle/novatasks/internal/ui"
)

// Cells is the number of days in the grid: six weeks starting on Sunday.
const Cells = 42

var weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Model is the month view.
type Model struct {
	month    time.Time
	selected time.Time
	byDay    map[time.Time][]model.Task
	pick     int
	keys     *keys.KeyMap
	now      func() time.Time
	width    int
	height   int
}

// New creates a calendar showing the current month with today selected.
func New(k *keys.KeyMap, now func() time.Time, width, height int) Model {
	today := dayOf(now())
	return Model{
		month:    firstOfMonth(today),
		selected: today,
		byDay:    map[time.Time][]model.Task{},
		keys:     k,
		now:      now,
		width:    width,
		height:   height,
	}
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// Grid returns the 42 days shown for month, starting on the Sunday on or
// before the first of the month.
func Grid(month time.Time) []time.Time {
	first := firstOfMonth(month)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	days := make([]time.Time, Cells)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// GroupByDay buckets dated tasks by their local calendar day.
func GroupByDay(tasks []model.Task, loc *time.Location) map[time.Time][]model.Task {
	out := make(map[time.Time][]model.Task)
	for _, t := range tasks {
		if t.Deadline == nil {
			continue
		}
		d := dayOf(t.Deadline.In(loc))
		out[d] = append(out[d], t)
	}
	return out
}

// SetTasks replaces the tasks shown on the grid.
func (m *Model) SetTasks(tasks []model.Task) {
	m.byDay = GroupByDay(tasks, m.now().Location())
	if m.pick >= len(m.byDay[m.selected]) {
		m.pick = 0
	}
}

// SelectedDate returns the highlighted day.
func (m Model) SelectedDate() time.Time { return m.selected }

// Month returns the first day of the displayed month.
func (m Model) Month() time.Time { return m.month }

// Selected returns the highlighted task on the selected day.
func (m Model) Selected() (model.Task, bool) {
	tasks := m.byDay[m.selected]
	if len(tasks) == 0 {
		return model.Task{}, false
	}
	return tasks[m.pick], true
}

// Update moves the day cursor and pages months.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(km, m.keys.Left):
		m.selectDay(m.selected.AddDate(0, 0, -1))
	case key.Matches(km, m.keys.Right):
		m.selectDay(m.selected.AddDate(0, 0, 1))
	case key.Matches(km, m.keys.Up):
		m.selectDay(m.selected.AddDate(0, 0, -7))
	case key.Matches(km, m.keys.Down):
		m.selectDay(m.selected.AddDate(0, 0, 7))
	case key.Matches(km, m.keys.PrevMonth):
		m.month = m.month.AddDate(0, -1, 0)
		m.selectDay(m.month)
	case key.Matches(km, m.keys.NextMonth):
		m.month = m.month.AddDate(0, 1, 0)
		m.selectDay(m.month)
	case key.Matches(km, m.keys.MoveDown):
		if n := len(m.byDay[m.selected]); n > 0 {
			m.pick = (m.pick + 1) % n
		}
	case key.Matches(km, m.keys.MoveUp):
		if n := len(m.byDay[m.selected]); n > 0 {
			m.pick = (m.pick + n - 1) % n
		}
	}
	return m, nil
}

// selectDay moves the cursor and follows it into another month.
func (m *Model) selectDay(d time.Time) {
	m.selected = dayOf(d)
	m.month = firstOfMonth(m.selected)
	m.pick = 0
}

// GoToday selects today.
func (m *Model) GoToday() {
	m.selectDay(m.now())
}

// View renders the month grid followed by the selected day's tasks.
func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}

	cellWidth := m.width/7 - 1
	if cellWidth < 6 {
		cellWidth = 6
	}
	// Title, weekday row and the day strip below the grid.
	cellLines := (m.height - 6) / 6
	if cellLines < 1 {
		cellLines = 1
	}

	title := theme.TitleStyle.Render(m.month.Format("January 2006"))

	var head []string
	for _, wd := range weekdays {
		head = append(head, lipgloss.NewStyle().Width(cellWidth).Bold(true).Align(lipgloss.Center).Render(wd))
	}
	rows := []string{strings.Join(head, " ")}

	today := dayOf(m.now())
	days := Grid(m.month)
	for w := 0; w < 6; w++ {
		var cells []string
		for d := 0; d < 7; d++ {
			cells = append(cells, m.renderCell(days[w*7+d], today, cellWidth, cellLines))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, interleave(cells, " ")...))
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(rows, "\n"), m.renderDayStrip())
}

func (m Model) renderCell(day, today time.Time, width, lines int) string {
	inMonth := day.Month() == m.month.Month()

	num := fmt.Sprintf("%2d", day.Day())
	numStyle := lipgloss.NewStyle()
	switch {
	case day.Equal(m.selected):
		numStyle = numStyle.Reverse(true).Bold(true)
	case day.Equal(today):
		numStyle = numStyle.Foreground(theme.ColorBlue).Bold(true)
	case !inMonth:
		numStyle = numStyle.Foreground(theme.ColorSubtle)
	}
	out := []string{numStyle.Render(num)}

	if inMonth {
		tasks := m.byDay[day]
		show := len(tasks)
		if show > lines {
			show = lines - 1
		}
		for _, t := range tasks[:max(show, 0)] {
			style := lipgloss.NewStyle().Foreground(theme.AccentColor(t.Color))
			if t.IsCompleted() {
				style = theme.DimmedStyle
			}
			out = append(out, style.Render(ui.Truncate(t.Title, width)))
		}
		if rest := len(tasks) - max(show, 0); rest > 0 {
			out = append(out, theme.MutedStyle.Render(fmt.Sprintf("+%d more", rest)))
		}
	}

	return lipgloss.NewStyle().Width(width).Height(lines + 1).Render(strings.Join(out, "\n"))
}

func (m Model) renderDayStrip() string {
	tasks := m.byDay[m.selected]
	label := theme.DueDateStyle.Render(m.selected.Format("Mon Jan 2"))
	if len(tasks) == 0 {
		return label + theme.MutedStyle.Render("  no deadlines (n adds one)")
	}
	var names []string
	for i, t := range tasks {
		name := t.Title
		if i == m.pick {
			name = theme.SelectedItemStyle.UnsetBorderStyle().UnsetPaddingLeft().Render(name)
		}
		names = append(names, name)
	}
	return label + "  " + strings.Join(names, theme.MutedStyle.Render(" · "))
}

func interleave(items []string, sep string) []string {
	out := make([]string, 0, len(items)*2)
	for i, it := range items {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, it)
	}
	return out
}

// SetSize updates the calendar dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
