package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/novatasks/internal/keys"
	"github.com/nhle/novatasks/internal/model"
	"github.com/nhle/novatasks/internal/theme"
	"github.com/nhle/novatasks/internal/ui"
)

const timeLayout = "2006-01-02 15:04"

// BackMsg signals the parent to navigate back to the task view.
type BackMsg struct{}

// ActionMsg signals the parent to execute an action on the shown task.
type ActionMsg struct {
	Action string
	TaskID string
}

// Actions carried by ActionMsg.
const (
	ActionEdit    = "edit"
	ActionDelete  = "delete"
	ActionToggle  = "toggle"
	ActionAdvance = "advance"
)

// Model is the task detail view component.
type Model struct {
	task     *model.Task
	viewport viewport.Model
	keys     *keys.KeyMap
	now      func() time.Time
	width    int
	height   int
}

// New creates a new detail view model.
func New(k *keys.KeyMap, now func() time.Time, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		now:      now,
		width:    width,
		height:   height,
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(msg, m.keys.Back) {
			return m, func() tea.Msg { return BackMsg{} }
		}
		if m.task != nil {
			action := ""
			switch {
			case key.Matches(msg, m.keys.Edit):
				action = ActionEdit
			case key.Matches(msg, m.keys.Delete):
				action = ActionDelete
			case key.Matches(msg, m.keys.ToggleDone):
				action = ActionToggle
			case key.Matches(msg, m.keys.Advance):
				action = ActionAdvance
			}
			if action != "" {
				id := m.task.ID
				return m, func() tea.Msg { return ActionMsg{Action: action, TaskID: id} }
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.task == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No task selected")
	}
	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.task == nil {
		return ""
	}

	task := m.task
	now := m.now()
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.AccentColor(task.Color))
	sections = append(sections, titleStyle.Render(task.Title))

	badges := []string{
		theme.StatusStyle(task.Status).Render(string(task.Status)),
		theme.PriorityStyle(task.Priority).Render(ui.PriorityLabel(task.Priority) + " " + string(task.Priority)),
	}
	if task.IsOverdue(now) {
		badges = append(badges, theme.OverdueStyle.Render("OVERDUE"))
	}
	sections = append(sections, strings.Join(badges, "  "), "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(11)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) {
		sections = append(sections, metaStyle.Render(label)+valStyle.Render(value))
	}

	row("Category:", task.Category)
	if task.Deadline != nil {
		row("Deadline:", fmt.Sprintf("%s (%s)", task.Deadline.Local().Format(timeLayout), ui.DueLabel(*task.Deadline, now)))
	}
	if task.Recurring != nil {
		row("Repeats:", task.Recurring.String())
	}
	if len(task.Tags) > 0 {
		var tags []string
		for _, t := range task.Tags {
			tags = append(tags, theme.TagStyle.Render("#"+t))
		}
		sections = append(sections, metaStyle.Render("Tags:")+strings.Join(tags, " "))
	}
	if !task.CreatedAt.IsZero() {
		row("Created:", task.CreatedAt.Local().Format(timeLayout))
	}
	if !task.UpdatedAt.IsZero() {
		row("Updated:", task.UpdatedAt.Local().Format(timeLayout))
	}
	if task.CompletedAt != nil {
		row("Completed:", task.CompletedAt.Local().Format(timeLayout))
	}

	separator := lipgloss.NewStyle().
		Foreground(theme.ColorSubtle).
		Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "", separator, "")

	sections = append(sections, lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render("Description"))
	body := task.Description
	if body == "" {
		body = lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true).Render("No description")
	}
	sections = append(sections, body)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetTask updates the task being displayed and re-renders the content.
func (m *Model) SetTask(task model.Task) {
	m.task = &task
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Refresh re-renders the shown task from tasks, or clears the view when
// it no longer exists.
func (m *Model) Refresh(tasks []model.Task) bool {
	if m.task == nil {
		return false
	}
	for _, t := range tasks {
		if t.ID == m.task.ID {
			offset := m.viewport.YOffset
			m.task = &t
			m.viewport.SetContent(m.renderContent())
			m.viewport.SetYOffset(offset)
			return true
		}
	}
	m.task = nil
	return false
}

// TaskID returns the id of the shown task, if any.
func (m Model) TaskID() string {
	if m.task == nil {
		return ""
	}
	return m.task.ID
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.task != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
