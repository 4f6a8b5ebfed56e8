// Package notifications renders the notification panel.
package notifications

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

// BackMsg closes the panel.
type BackMsg struct{}

// MarkReadMsg asks the parent to mark one entry read.
type MarkReadMsg struct{ ID string }

// MarkAllReadMsg asks the parent to mark every entry read.
type MarkAllReadMsg struct{}

// RemoveMsg asks the parent to drop one entry.
type RemoveMsg struct{ ID string }

// OpenTaskMsg asks the parent to show the task an entry points at.
type OpenTaskMsg struct {
	NotificationID string
	TaskID         string
}

// Model is the notification panel.
type Model struct {
	items  []model.Notification
	cursor int
	keys   *keys.KeyMap
	now    func() time.Time
	width  int
	height int
}

// New creates an empty panel.
func New(k *keys.KeyMap, now func() time.Time, width, height int) Model {
	return Model{keys: k, now: now, width: width, height: height}
}

// SetItems replaces the entries, newest first, keeping the cursor in range.
func (m *Model) SetItems(items []model.Notification) {
	m.items = items
	if m.cursor >= len(items) {
		m.cursor = max(len(items)-1, 0)
	}
}

// Selected returns the highlighted entry.
func (m Model) Selected() (model.Notification, bool) {
	if len(m.items) == 0 {
		return model.Notification{}, false
	}
	return m.items[m.cursor], true
}

// Update handles panel keys.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(km, m.keys.Back), key.Matches(km, m.keys.Notifications):
		return m, func() tea.Msg { return BackMsg{} }
	case key.Matches(km, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(km, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(km, m.keys.MarkAllRead):
		return m, func() tea.Msg { return MarkAllReadMsg{} }
	}

	n, ok := m.Selected()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(km, m.keys.MarkRead):
		return m, func() tea.Msg { return MarkReadMsg{ID: n.ID} }
	case key.Matches(km, m.keys.Delete):
		return m, func() tea.Msg { return RemoveMsg{ID: n.ID} }
	case key.Matches(km, m.keys.Select):
		if n.TaskID != "" {
			return m, func() tea.Msg { return OpenTaskMsg{NotificationID: n.ID, TaskID: n.TaskID} }
		}
		return m, func() tea.Msg { return MarkReadMsg{ID: n.ID} }
	}
	return m, nil
}

// View renders the panel.
func (m Model) View() string {
	unread := 0
	for _, n := range m.items {
		if !n.Read {
			unread++
		}
	}
	title := theme.TitleStyle.Render(fmt.Sprintf("Notifications (%d unread)", unread))

	if len(m.items) == 0 {
		body := theme.MutedStyle.Render("Nothing here yet.")
		return theme.PanelStyle.Width(m.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
	}

	now := m.now()
	rows := max(m.height-6, 1)
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := min(start+rows, len(m.items))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderItem(m.items[i], i == m.cursor, now))
	}

	hints := theme.HelpStyle.Render("m read · M read all · d remove · enter open · esc close")
	content := lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n"), "", hints)
	return theme.PanelStyle.Width(m.width - 4).Render(content)
}

func (m Model) renderItem(n model.Notification, selected bool, now time.Time) string {
	marker := " "
	if !n.Read {
		marker = theme.KindStyle(n.Kind).Render("●")
	}
	kind := theme.KindStyle(n.Kind).Width(8).Render(string(n.Kind))
	when := theme.MutedStyle.Render(ui.RelativeTime(n.Timestamp, now))

	msgWidth := max(m.width-30, 10)
	text := ui.Truncate(n.Message, msgWidth)
	if n.Read {
		text = theme.MutedStyle.Render(text)
	}

	line := fmt.Sprintf("%s %s %s  %s", marker, kind, text, when)
	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
