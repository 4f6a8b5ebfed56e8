package taskform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/novatasks/internal/model"
	"github.com/nhle/novatasks/internal/theme"
	"github.com/nhle/novatasks/internal/ui"
)

// DeadlineLayout is the format the deadline field is shown in.
const DeadlineLayout = "2006-01-02 15:04"

// TaskSubmittedMsg is dispatched when the form is completed.
type TaskSubmittedMsg struct {
	Task model.Task
	Edit bool
}

// FormCancelMsg is dispatched when the user cancels the form.
type FormCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	category    string
	priority    model.Priority
	status      model.Status
	deadline    string
	tags        string
	color       model.Color
	frequency   model.Frequency
	interval    string
}

// Model is the Bubble Tea model for the task create/edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	base     model.Task
	editMode bool
	width    int
	height   int
}

// New creates a new task form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// StartCreate initializes the form for a new task. A non-nil deadline
// pre-fills the deadline field, as when adding from a calendar day.
func (m *Model) StartCreate(deadline *time.Time) tea.Cmd {
	m.editMode = false
	m.base = model.Task{}
	*m.fb = formBindings{
		category: model.DefaultCategory,
		priority: model.PriorityLow,
		status:   model.StatusPending,
		color:    model.ColorDefault,
		interval: "1",
	}
	if deadline != nil {
		m.fb.deadline = deadline.Format(DeadlineLayout)
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form with an existing task.
func (m *Model) StartEdit(task model.Task) tea.Cmd {
	m.editMode = true
	m.base = task
	m.fb.load(task)
	m.form = m.buildForm()
	return m.form.Init()
}

// Editing reports whether the form is editing an existing task.
func (m Model) Editing() bool { return m.editMode }

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m, m.handleSubmit()
	case huh.StateAborted:
		return m, func() tea.Msg { return FormCancelMsg{} }
	}
	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Task"
	if m.editMode {
		titleText = "Edit Task"
	}

	content := theme.TitleStyle.Render(titleText) + "\n" + m.form.View()
	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	details := []huh.Field{
		huh.NewInput().
			Title("Title").
			Placeholder("What needs to be done?").
			Value(&m.fb.title).
			Validate(validateRequired("Title")),
		huh.NewText().
			Title("Description").
			Placeholder("Optional details...").
			Value(&m.fb.description),
		huh.NewInput().
			Title("Category").
			Value(&m.fb.category),
		huh.NewSelect[model.Priority]().
			Title("Priority").
			Options(priorityOptions()...).
			Value(&m.fb.priority),
	}
	if m.editMode {
		details = append(details, huh.NewSelect[model.Status]().
			Title("Status").
			Options(statusOptions()...).
			Value(&m.fb.status))
	}

	schedule := []huh.Field{
		huh.NewInput().
			Title("Deadline").
			Placeholder("YYYY-MM-DD HH:MM (optional)").
			Value(&m.fb.deadline).
			Validate(validateOptionalDeadline),
		huh.NewInput().
			Title("Tags").
			Placeholder("comma separated").
			Value(&m.fb.tags),
		huh.NewSelect[model.Color]().
			Title("Color").
			Options(colorOptions()...).
			Value(&m.fb.color),
		huh.NewSelect[model.Frequency]().
			Title("Repeat").
			Options(frequencyOptions()...).
			Value(&m.fb.frequency),
		huh.NewInput().
			Title("Every").
			Description("Number of units between occurrences").
			Value(&m.fb.interval).
			Validate(validateInterval),
	}

	return huh.NewForm(
		huh.NewGroup(details...),
		huh.NewGroup(schedule...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	task := m.fb.apply(m.base)
	edit := m.editMode
	return func() tea.Msg { return TaskSubmittedMsg{Task: task, Edit: edit} }
}

func (fb *formBindings) load(t model.Task) {
	*fb = formBindings{
		title:       t.Title,
		description: t.Description,
		category:    t.Category,
		priority:    t.Priority,
		status:      t.Status,
		tags:        strings.Join(t.Tags, ", "),
		color:       t.Color,
		interval:    "1",
	}
	if t.Deadline != nil {
		fb.deadline = t.Deadline.Local().Format(DeadlineLayout)
	}
	if t.Recurring != nil {
		fb.frequency = t.Recurring.Frequency
		fb.interval = strconv.Itoa(t.Recurring.Step())
	}
}

// apply copies the form values onto base, leaving fields the form does not
// show untouched.
func (fb *formBindings) apply(base model.Task) model.Task {
	t := base
	t.Title = strings.TrimSpace(fb.title)
	t.Description = strings.TrimSpace(fb.description)
	t.Category = strings.TrimSpace(fb.category)
	t.Priority = fb.priority
	t.Status = fb.status
	t.Color = fb.color
	t.Tags = splitTags(fb.tags)

	t.Deadline = nil
	if s := strings.TrimSpace(fb.deadline); s != "" {
		if d, err := model.ParseTime(s); err == nil {
			t.Deadline = &d
		}
	}

	t.Recurring = nil
	if fb.frequency != "" {
		n, err := strconv.Atoi(strings.TrimSpace(fb.interval))
		if err != nil || n < 1 {
			n = 1
		}
		t.Recurring = &model.Recurrence{Frequency: fb.frequency, Interval: n}
	}

	t.ApplyDefaults()
	return t
}

func splitTags(s string) []string {
	tags := []string{}
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

func priorityOptions() []huh.Option[model.Priority] {
	opts := make([]huh.Option[model.Priority], 0, len(model.Priorities))
	for i := len(model.Priorities) - 1; i >= 0; i-- {
		p := model.Priorities[i]
		opts = append(opts, huh.NewOption(ui.PriorityLabel(p)+" - "+string(p), p))
	}
	return opts
}

func statusOptions() []huh.Option[model.Status] {
	opts := make([]huh.Option[model.Status], len(model.Statuses))
	for i, s := range model.Statuses {
		opts[i] = huh.NewOption(string(s), s)
	}
	return opts
}

func colorOptions() []huh.Option[model.Color] {
	opts := make([]huh.Option[model.Color], len(model.Colors))
	for i, c := range model.Colors {
		opts[i] = huh.NewOption(string(c), c)
	}
	return opts
}

func frequencyOptions() []huh.Option[model.Frequency] {
	opts := []huh.Option[model.Frequency]{huh.NewOption("Does not repeat", model.Frequency(""))}
	for _, f := range model.Frequencies {
		opts = append(opts, huh.NewOption(string(f), f))
	}
	return opts
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-4, 10)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptionalDeadline(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := model.ParseTime(s); err != nil {
		return fmt.Errorf("invalid date, use YYYY-MM-DD or YYYY-MM-DD HH:MM")
	}
	return nil
}

func validateInterval(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return fmt.Errorf("must be a whole number of at least 1")
	}
	return nil
}
