// Package board renders tasks as three status columns.
package board

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

// Model is the status board.
type Model struct {
	columns [][]model.Task
	cursor  []int
	col     int
	keys    *keys.KeyMap
	now     func() time.Time
	width   int
	height  int
}

// New creates an empty board.
func New(k *keys.KeyMap, now func() time.Time, width, height int) Model {
	return Model{
		columns: make([][]model.Task, len(model.Statuses)),
		cursor:  make([]int, len(model.Statuses)),
		keys:    k,
		now:     now,
		width:   width,
		height:  height,
	}
}

// SetTasks distributes tasks into their status columns, preserving
// order and keeping the cursor on the same task when possible.
func (m *Model) SetTasks(tasks []model.Task) {
	selected, hadSelection := m.Selected()

	columns := make([][]model.Task, len(model.Statuses))
	for _, t := range tasks {
		i := columnOf(t.Status)
		columns[i] = append(columns[i], t)
	}
	m.columns = columns

	for c := range m.columns {
		if m.cursor[c] >= len(m.columns[c]) {
			m.cursor[c] = max(len(m.columns[c])-1, 0)
		}
	}
	if !hadSelection {
		return
	}
	for c, col := range m.columns {
		for r, t := range col {
			if t.ID == selected.ID {
				m.col, m.cursor[c] = c, r
				return
			}
		}
	}
}

func columnOf(s model.Status) int {
	for i, st := range model.Statuses {
		if st == s {
			return i
		}
	}
	return 0
}

// Selected returns the task under the cursor.
func (m Model) Selected() (model.Task, bool) {
	col := m.columns[m.col]
	if len(col) == 0 {
		return model.Task{}, false
	}
	return col[m.cursor[m.col]], true
}

// Column returns the index of the focused column.
func (m Model) Column() int { return m.col }

// Update moves the cursor.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(km, m.keys.Left):
		if m.col > 0 {
			m.col--
		}
	case key.Matches(km, m.keys.Right):
		if m.col < len(m.columns)-1 {
			m.col++
		}
	case key.Matches(km, m.keys.Up):
		if m.cursor[m.col] > 0 {
			m.cursor[m.col]--
		}
	case key.Matches(km, m.keys.Down):
		if m.cursor[m.col] < len(m.columns[m.col])-1 {
			m.cursor[m.col]++
		}
	}
	return m, nil
}

// View renders the columns side by side.
func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}

	n := len(m.columns)
	colWidth := m.width/n - 2
	if colWidth < 10 {
		colWidth = 10
	}
	// Border and header take four lines.
	rows := m.height - 4
	if rows < 1 {
		rows = 1
	}

	now := m.now()
	rendered := make([]string, n)
	for c, tasks := range m.columns {
		header := theme.StatusStyle(model.Statuses[c]).
			Render(fmt.Sprintf("%s (%d)", model.Statuses[c], len(tasks)))

		var lines []string
		start := scrollStart(m.cursor[c], len(tasks), rows)
		for r := start; r < len(tasks) && r < start+rows; r++ {
			line := ui.Truncate(ui.TaskLine(tasks[r], now, false), colWidth-3)
			if c == m.col && r == m.cursor[c] {
				line = theme.SelectedItemStyle.Render(line)
			} else {
				line = theme.ListItemStyle.Render(line)
			}
			lines = append(lines, line)
		}
		if len(tasks) == 0 {
			lines = append(lines, theme.MutedStyle.Render("  nothing here"))
		}

		style := theme.ColumnStyle
		if c == m.col {
			style = theme.FocusedColumnStyle
		}
		rendered[c] = style.
			Width(colWidth).
			Height(m.height - 2).
			Render(header + "\n" + strings.Join(lines, "\n"))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// scrollStart returns the first visible row so that cursor stays in view.
func scrollStart(cursor, total, rows int) int {
	if total <= rows || cursor < rows {
		return 0
	}
	start := cursor - rows + 1
	if start > total-rows {
		start = total - rows
	}
	return start
}

// SetSize updates the board dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
