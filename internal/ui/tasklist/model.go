package tasklist

import (
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/novatasks/internal/model"
	"github.com/nhle/novatasks/internal/theme"
	"github.com/nhle/novatasks/internal/ui"
)

// Model is the flat list view of the filtered tasks.
type Model struct {
	list   list.Model
	width  int
	height int
}

// New creates a task list model. now supplies the clock used to flag
// overdue tasks.
func New(now func() time.Time, width, height int) Model {
	l := list.New([]list.Item{}, TaskDelegate{now: now}, width, height)
	l.Title = "Tasks"
	l.SetShowTitle(false)
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("task", "tasks")
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		width:  width,
		height: height,
	}
}

// SetTasks replaces the rows, keeping the cursor on the same task when
// it is still present.
func (m *Model) SetTasks(tasks []model.Task) tea.Cmd {
	selected, hadSelection := m.Selected()

	items := make([]list.Item, len(tasks))
	cursor := 0
	for i, task := range tasks {
		items[i] = TaskItem{Task: task}
		if hadSelection && task.ID == selected.ID {
			cursor = i
		}
	}
	cmd := m.list.SetItems(items)
	m.list.Select(cursor)
	return cmd
}

// Selected returns the task under the cursor.
func (m Model) Selected() (model.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return item.Task, true
}

// Len returns the number of rows.
func (m Model) Len() int {
	return len(m.list.Items())
}

// Update handles navigation keys.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the task list view.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return ui.Centered("No tasks here.\n\nPress n to add one.", m.width, m.height)
	}
	return m.list.View()
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
