// Package categories lists the categories in use and lets the user filter
// by, rename or clear one across all its tasks.
package categories

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/novatasks/internal/keys"
	"github.com/nhle/novatasks/internal/model"
	"github.com/nhle/novatasks/internal/theme"
	"github.com/nhle/novatasks/internal/tracker"
)

// CloseMsg signals the parent to close the category view.
type CloseMsg struct{}

// FilterMsg asks the parent to show only tasks in Category.
type FilterMsg struct {
	Category string
}

// RenameMsg asks the parent to move every task in From to To. An empty To
// clears the category.
type RenameMsg struct {
	From, To string
}

// Entry is one category with its task counts.
type Entry struct {
	Name  string
	Total int
	Open  int
}

type mode int

const (
	modeList mode = iota
	modeForm
	modeConfirmClear
)

type formBindings struct {
	name    string
	confirm bool
}

// Model is the Bubble Tea model for category management.
type Model struct {
	mode        mode
	keys        *keys.KeyMap
	entries     []Entry
	selectedIdx int
	editing     string
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	width       int
	height      int
}

// New creates a new category manager model.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		keys:   k,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Summarize counts tasks per category, grouping case variants the same way
// tracker.Categories does.
func Summarize(tasks []model.Task) []Entry {
	names := tracker.Categories(tasks)
	idx := make(map[string]int, len(names))
	entries := make([]Entry, len(names))
	for i, n := range names {
		idx[strings.ToLower(n)] = i
		entries[i].Name = n
	}
	for _, t := range tasks {
		i, ok := idx[strings.ToLower(strings.TrimSpace(t.Category))]
		if !ok {
			continue
		}
		entries[i].Total++
		if !t.IsCompleted() {
			entries[i].Open++
		}
	}
	return entries
}

// SetTasks recomputes the category list.
func (m *Model) SetTasks(tasks []model.Task) {
	m.entries = Summarize(tasks)
	if m.selectedIdx >= len(m.entries) {
		m.selectedIdx = max(len(m.entries)-1, 0)
	}
}

// Reset returns to the list.
func (m *Model) Reset() {
	m.mode = modeList
}

// Selected returns the highlighted entry.
func (m Model) Selected() (Entry, bool) {
	if len(m.entries) == 0 {
		return Entry{}, false
	}
	return m.entries[m.selectedIdx], true
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch m.mode {
		case modeList:
			return m.handleListKey(kmsg)
		default:
			if key.Matches(kmsg, m.keys.Back) {
				m.mode = modeList
				return m, nil
			}
		}
	}

	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmClear:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.entries) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.entries)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.entries) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.entries) - 1
			}
		}
		return m, nil
	}

	e, ok := m.Selected()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Select):
		return m, func() tea.Msg { return FilterMsg{Category: e.Name} }

	case key.Matches(msg, m.keys.Edit), msg.String() == "r":
		m.editing = e.Name
		m.fb.name = e.Name
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		m.editing = e.Name
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm(e)
		m.mode = modeConfirmClear
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("Rename %q to", m.editing)).
				Value(&m.fb.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
		),
	).WithWidth(m.formWidth())
}

func (m Model) buildConfirmForm(e Entry) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Clear category %q?", e.Name)).
				Description(fmt.Sprintf("%d tasks will become uncategorized.", e.Total)).
				Affirmative("Yes, clear").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		m.mode = modeList
		from, to := m.editing, strings.TrimSpace(m.fb.name)
		if to == from {
			return m, nil
		}
		return m, func() tea.Msg { return RenameMsg{From: from, To: to} }
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	switch m.confirmForm.State {
	case huh.StateCompleted:
		m.mode = modeList
		if !m.fb.confirm {
			return m, nil
		}
		from := m.editing
		return m, func() tea.Msg { return RenameMsg{From: from} }
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

// View renders the category manager.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return m.viewForm(m.form)
	case modeConfirmClear:
		return m.viewForm(m.confirmForm)
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	b.WriteString(theme.TitleStyle.Render("Categories"))
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No categories yet. Set one when adding a task."))
	} else {
		for i, e := range m.entries {
			label := fmt.Sprintf("%s  %d open / %d", e.Name, e.Open, e.Total)
			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render("enter filter | e rename | d clear | esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(f.View())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}
