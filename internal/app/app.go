// Package app is the root Bubble Tea model for the NovaTasks terminal UI.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/novatasks/internal/event"
	"github.com/nhle/novatasks/internal/keys"
	"github.com/nhle/novatasks/internal/model"
	"github.com/nhle/novatasks/internal/remotesync"
	"github.com/nhle/novatasks/internal/scheduler"
	"github.com/nhle/novatasks/internal/theme"
	"github.com/nhle/novatasks/internal/tracker"
	"github.com/nhle/novatasks/internal/ui"
	"github.com/nhle/novatasks/internal/ui/board"
	"github.com/nhle/novatasks/internal/ui/calendar"
	"github.com/nhle/novatasks/internal/ui/categories"
	"github.com/nhle/novatasks/internal/ui/command"
	settingsview "github.com/nhle/novatasks/internal/ui/config"
	"github.com/nhle/novatasks/internal/ui/detail"
	helpview "github.com/nhle/novatasks/internal/ui/help"
	"github.com/nhle/novatasks/internal/ui/notifications"
	"github.com/nhle/novatasks/internal/ui/taskform"
	"github.com/nhle/novatasks/internal/ui/tasklist"
)

var errSyncDisabled = errors.New("remote sync is not configured")

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewTasks ViewState = iota
	ViewDetail
	ViewForm
	ViewNotifications
	ViewHelp
	ViewCommand
	ViewSearch
	ViewConfirm
	ViewSettings
	ViewCategories
)

// Mode selects how the task view lays out tasks.
type Mode int

const (
	ModeBoard Mode = iota
	ModeList
	ModeCalendar
)

var modeNames = []string{"Board", "List", "Calendar"}

// Options wires the model to the rest of the application.
type Options struct {
	Tracker   *tracker.Tracker
	Scheduler *scheduler.Scheduler

	// Syncer is nil when remote sync is disabled.
	Syncer Syncer

	// Config and ConfigPath back the settings view; nil Config disables it.
	Config     *model.AppConfig
	ConfigPath string

	Logger *slog.Logger
}

// Model is the root Bubble Tea model that manages view routing,
// layout and access to the tracker.
type Model struct {
	currentView  ViewState
	previousView ViewState
	mode         Mode
	layout       ui.Layout
	keys         *keys.KeyMap

	tracker   *tracker.Tracker
	scheduler *scheduler.Scheduler
	syncer    Syncer
	logger    *slog.Logger

	events      <-chan event.Event
	unsubscribe func()

	board         board.Model
	taskList      tasklist.Model
	calendar      calendar.Model
	detail        detail.Model
	form          taskform.Model
	notifications notifications.Model
	helpView      helpview.Model
	commandView   command.Model
	categories    categories.Model
	settings      settingsview.Model
	hasSettings   bool
	search        textinput.Model

	view        []model.Task
	all         []model.Task
	unreadCount int
	status      string
	statusErr   bool

	confirmPrompt string
	confirmCmd    tea.Cmd

	ready bool
}

// New creates the root model and subscribes it to the tracker's bus.
func New(opts Options) Model {
	k := keys.DefaultKeyMap()
	now := opts.Tracker.Now
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search title or description"

	events, unsubscribe := subscribe(opts.Tracker.Bus())

	m := Model{
		currentView:   ViewTasks,
		keys:          k,
		tracker:       opts.Tracker,
		scheduler:     opts.Scheduler,
		syncer:        opts.Syncer,
		logger:        logger,
		events:        events,
		unsubscribe:   unsubscribe,
		board:         board.New(k, now, 80, 24),
		taskList:      tasklist.New(now, 80, 24),
		calendar:      calendar.New(k, now, 80, 24),
		detail:        detail.New(k, now, 80, 24),
		form:          taskform.New(80, 24),
		notifications: notifications.New(k, now, 80, 24),
		helpView:      helpview.New(k, 80, 24),
		commandView:   command.New(80, 24, commandSuggestions),
		categories:    categories.New(k, 80, 24),
		search:        search,
	}
	if opts.Config != nil {
		m.settings = settingsview.New(opts.Config, opts.ConfigPath, k, 80, 24)
		m.hasSettings = true
	}
	return m
}

// Init loads the tasks, starts the background jobs and listens for bus
// events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadTasks(m.tracker),
		m.scheduler.Start(),
		waitForEvent(m.events),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.board.SetSize(w, h)
		m.taskList.SetSize(w, h)
		m.calendar.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.form.SetSize(w, h)
		m.notifications.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.settings.SetSize(w, h)
		m.categories.SetSize(w, h)
		m.search.Width = w - 4
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case tasksLoadedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		return m, m.applySnapshot(msg)

	case busEventMsg:
		drain(m.events)
		return m, tea.Batch(loadTasks(m.tracker), waitForEvent(m.events))

	case actionResultMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else if msg.status != "" {
			m.setStatus(msg.status)
		}
		return m, nil

	case scheduler.ResultMsg:
		m.handleJobResult(msg)
		return m, m.scheduler.WaitForNextResult()

	case taskform.TaskSubmittedMsg:
		m.currentView = ViewTasks
		if msg.Edit {
			return m, updateTask(m.tracker, msg.Task)
		}
		return m, createTask(m.tracker, msg.Task)

	case taskform.FormCancelMsg:
		m.currentView = m.previousView
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewTasks
		return m, nil

	case detail.ActionMsg:
		task, ok := m.findTask(msg.TaskID)
		if !ok {
			return m, nil
		}
		return m, m.taskAction(msg.Action, task)

	case notifications.BackMsg:
		m.currentView = m.previousView
		return m, nil

	case notifications.MarkReadMsg:
		return m, markRead(m.tracker, msg.ID)

	case notifications.MarkAllReadMsg:
		return m, markAllRead(m.tracker)

	case notifications.RemoveMsg:
		return m, removeNotification(m.tracker, msg.ID)

	case notifications.OpenTaskMsg:
		task, ok := m.findTask(msg.TaskID)
		if !ok {
			m.setError(fmt.Errorf("task no longer exists"))
			return m, markRead(m.tracker, msg.NotificationID)
		}
		m.detail.SetTask(task)
		m.previousView = ViewTasks
		m.currentView = ViewDetail
		return m, markRead(m.tracker, msg.NotificationID)

	case settingsview.ConfigSavedMsg:
		m.setStatus("Settings saved; restart to apply sync and calendar changes")
		return m, nil

	case settingsview.ConfigDoneMsg:
		m.currentView = ViewTasks
		return m, nil

	case categories.CloseMsg:
		m.currentView = ViewTasks
		return m, nil

	case categories.FilterMsg:
		m.currentView = ViewTasks
		filter, _ := m.tracker.ViewState()
		filter.Category = msg.Category
		return m, m.applyFilter(filter)

	case categories.RenameMsg:
		return m, renameCategory(m.tracker, msg.From, msg.To)

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if m.currentView == ViewTasks {
			m.status = ""
		}
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleKey processes keys that the active view does not own. It reports
// whether the key was consumed.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch m.currentView {
	case ViewConfirm:
		cmd := m.confirmCmd
		m.confirmCmd = nil
		m.currentView = m.previousView
		if msg.String() == "y" || msg.String() == "Y" {
			return cmd, true
		}
		m.setStatus("Cancelled")
		return nil, true

	case ViewSearch:
		switch msg.String() {
		case "enter":
			m.currentView = ViewTasks
			return nil, true
		case "esc":
			m.currentView = ViewTasks
			m.search.SetValue("")
			filter, _ := m.tracker.ViewState()
			filter.Query = ""
			return m.applyFilter(filter), true
		}
		return nil, false

	case ViewForm:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return nil, true
		}
		return nil, false

	case ViewHelp:
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
		}
		return nil, true

	case ViewCommand:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return nil, true
		}
		return nil, false

	case ViewSettings, ViewCategories:
		return nil, false

	case ViewDetail, ViewNotifications:
		if key.Matches(msg, m.keys.Help) {
			m.switchTo(ViewHelp)
			return nil, true
		}
		return nil, false
	}

	// ViewTasks
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit(), true
	case key.Matches(msg, m.keys.Help):
		m.switchTo(ViewHelp)
	case key.Matches(msg, m.keys.Command):
		m.switchTo(ViewCommand)
		return m.commandView.Focus(), true
	case key.Matches(msg, m.keys.Search):
		m.switchTo(ViewSearch)
		filter, _ := m.tracker.ViewState()
		m.search.SetValue(filter.Query)
		return m.search.Focus(), true
	case key.Matches(msg, m.keys.Notifications):
		m.openNotifications()
	case key.Matches(msg, m.keys.CycleView):
		m.mode = (m.mode + 1) % Mode(len(modeNames))
	case key.Matches(msg, m.keys.CycleDate):
		filter, _ := m.tracker.ViewState()
		filter.Date = nextDateFilter(filter.Date)
		return m.applyFilter(filter), true
	case key.Matches(msg, m.keys.CycleSort):
		_, mode := m.tracker.ViewState()
		m.tracker.SetSort(nextSortMode(mode))
		return loadTasks(m.tracker), true
	case key.Matches(msg, m.keys.ClearFilter):
		m.search.SetValue("")
		return m.applyFilter(tracker.Filter{Date: tracker.DateAll}), true
	case key.Matches(msg, m.keys.Refresh):
		return m.runChecks(), true
	case key.Matches(msg, m.keys.Sync):
		if m.syncer == nil {
			m.setError(errSyncDisabled)
			return nil, true
		}
		m.setStatus("Pushing to remote...")
		return pushRemote(m.syncer), true
	case key.Matches(msg, m.keys.New):
		return m.openCreateForm(), true
	default:
		return m.handleTaskKey(msg)
	}
	return nil, true
}

// handleTaskKey runs the per-task actions on the selected task.
func (m *Model) handleTaskKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if m.mode == ModeCalendar && (key.Matches(msg, m.keys.MoveUp) || key.Matches(msg, m.keys.MoveDown)) {
		return nil, false
	}

	action := ""
	switch {
	case key.Matches(msg, m.keys.Select):
		action = "open"
	case key.Matches(msg, m.keys.Edit):
		action = detail.ActionEdit
	case key.Matches(msg, m.keys.Delete):
		action = detail.ActionDelete
	case key.Matches(msg, m.keys.ToggleDone):
		action = detail.ActionToggle
	case key.Matches(msg, m.keys.Advance):
		action = detail.ActionAdvance
	case key.Matches(msg, m.keys.MoveUp):
		action = "up"
	case key.Matches(msg, m.keys.MoveDown):
		action = "down"
	default:
		return nil, false
	}

	task, ok := m.selectedTask()
	if !ok {
		return nil, true
	}
	return m.taskAction(action, task), true
}

func (m *Model) taskAction(action string, task model.Task) tea.Cmd {
	switch action {
	case "open":
		m.detail.SetTask(task)
		m.switchTo(ViewDetail)
	case detail.ActionEdit:
		m.switchTo(ViewForm)
		return m.form.StartEdit(task)
	case detail.ActionDelete:
		m.currentView = ViewTasks
		m.askConfirm(fmt.Sprintf("Delete %q?", task.Title), deleteTask(m.tracker, task))
	case detail.ActionToggle:
		return toggleDone(m.tracker, task)
	case detail.ActionAdvance:
		return advance(m.tracker, task)
	case "up", "down":
		if _, mode := m.tracker.ViewState(); mode != tracker.SortCustom {
			m.setError(fmt.Errorf("switch to custom sort to reorder"))
			return nil
		}
		return reorder(m.tracker, task, action == "up")
	}
	return nil
}

func (m *Model) openCreateForm() tea.Cmd {
	var deadline *time.Time
	if m.mode == ModeCalendar {
		d := m.calendar.SelectedDate().Add(9 * time.Hour)
		deadline = &d
	}
	m.switchTo(ViewForm)
	return m.form.StartCreate(deadline)
}

func (m *Model) openSettings() tea.Cmd {
	if !m.hasSettings {
		m.setError(fmt.Errorf("settings are unavailable"))
		return nil
	}
	m.switchTo(ViewSettings)
	return m.settings.Init()
}

func (m *Model) openCategories() {
	m.categories.Reset()
	m.categories.SetTasks(m.all)
	m.switchTo(ViewCategories)
}

func (m *Model) openNotifications() {
	m.notifications.SetItems(m.tracker.Notifications())
	m.switchTo(ViewNotifications)
}

func (m *Model) switchTo(v ViewState) {
	if m.currentView == v {
		return
	}
	m.previousView = m.currentView
	m.currentView = v
}

func (m *Model) askConfirm(prompt string, cmd tea.Cmd) {
	m.confirmPrompt = prompt
	m.confirmCmd = cmd
	m.switchTo(ViewConfirm)
}

func (m *Model) applyFilter(f tracker.Filter) tea.Cmd {
	m.tracker.SetFilter(f)
	return loadTasks(m.tracker)
}

func (m *Model) quit() tea.Cmd {
	m.scheduler.Stop()
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	return tea.Quit
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.logger.Warn("ui action failed", "err", err)
	m.status = err.Error()
	m.statusErr = true
}

// applySnapshot pushes fresh tracker state into every view.
func (m *Model) applySnapshot(msg tasksLoadedMsg) tea.Cmd {
	m.view = msg.view
	m.all = msg.all
	m.unreadCount = 0
	for _, n := range msg.notifications {
		if !n.Read {
			m.unreadCount++
		}
	}

	m.board.SetTasks(msg.view)
	m.calendar.SetTasks(msg.view)
	m.notifications.SetItems(msg.notifications)
	m.categories.SetTasks(msg.all)
	if m.currentView == ViewDetail && !m.detail.Refresh(msg.all) {
		m.currentView = ViewTasks
	}
	return m.taskList.SetTasks(msg.view)
}

func (m *Model) handleJobResult(msg scheduler.ResultMsg) {
	if msg.Error == nil {
		return
	}
	var authErr *remotesync.AuthError
	if errors.As(msg.Error, &authErr) {
		m.setError(fmt.Errorf("remote sync: %s (run `novatasks sync login`)", authErr.Message))
		return
	}
	m.setError(fmt.Errorf("%s job: %w", msg.Job, msg.Error))
}

func (m Model) findTask(id string) (model.Task, bool) {
	for _, t := range m.all {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func (m Model) selectedTask() (model.Task, bool) {
	switch m.mode {
	case ModeList:
		return m.taskList.Selected()
	case ModeCalendar:
		return m.calendar.Selected()
	default:
		return m.board.Selected()
	}
}

func nextDateFilter(d tracker.DateFilter) tracker.DateFilter {
	for i, f := range tracker.DateFilters {
		if f == d {
			return tracker.DateFilters[(i+1)%len(tracker.DateFilters)]
		}
	}
	return tracker.DateToday
}

func nextSortMode(s tracker.SortMode) tracker.SortMode {
	for i, mode := range tracker.SortModes {
		if mode == s {
			return tracker.SortModes[(i+1)%len(tracker.SortModes)]
		}
	}
	return tracker.SortCustom
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewTasks:
		switch m.mode {
		case ModeBoard:
			m.board, cmd = m.board.Update(msg)
		case ModeList:
			m.taskList, cmd = m.taskList.Update(msg)
		case ModeCalendar:
			m.calendar, cmd = m.calendar.Update(msg)
		}
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewForm:
		m.form, cmd = m.form.Update(msg)
	case ViewNotifications:
		m.notifications, cmd = m.notifications.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewSettings:
		m.settings, cmd = m.settings.Update(msg)
	case ViewCategories:
		m.categories, cmd = m.categories.Update(msg)
	case ViewSearch:
		prev := m.search.Value()
		m.search, cmd = m.search.Update(msg)
		if m.search.Value() != prev {
			filter, _ := m.tracker.ViewState()
			filter.Query = m.search.Value()
			cmd = tea.Batch(cmd, m.applyFilter(filter))
		}
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "NovaTasks"
	if m.unreadCount > 0 {
		title = fmt.Sprintf("NovaTasks [%d new]", m.unreadCount)
	}
	header := m.layout.RenderHeader(title, m.jobStatus())
	toolbar := m.layout.RenderToolbar(modeNames, int(m.mode), m.summary())
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, toolbar, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewDetail:
		return m.detail.View()
	case ViewForm:
		return m.form.View()
	case ViewNotifications:
		return m.notifications.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewSettings:
		return m.settings.View()
	case ViewCategories:
		return m.categories.View()
	case ViewConfirm:
		return ui.Centered(
			theme.TitleStyle.Render(m.confirmPrompt)+"\n"+theme.HelpStyle.Render("y confirm · any other key cancels"),
			m.layout.ContentWidth(), m.layout.ContentHeight())
	}

	var body string
	switch m.mode {
	case ModeList:
		body = m.taskList.View()
	case ModeCalendar:
		body = m.calendar.View()
	default:
		body = m.board.View()
	}
	if m.currentView == ViewSearch {
		body = m.search.View() + "\n" + body
	}
	return body
}

// summary describes the active filter, sort and completion stats.
func (m Model) summary() string {
	filter, sortMode := m.tracker.ViewState()
	stats := tracker.ComputeStats(m.all, m.tracker.Now())

	var parts []string
	if filter.Date != "" && filter.Date != tracker.DateAll {
		parts = append(parts, string(filter.Date))
	}
	if filter.Category != "" {
		parts = append(parts, "category:"+filter.Category)
	}
	if filter.Priority != "" {
		parts = append(parts, "priority:"+string(filter.Priority))
	}
	if filter.Query != "" {
		parts = append(parts, fmt.Sprintf("%q", filter.Query))
	}
	if len(parts) == 0 {
		parts = append(parts, "all")
	}

	s := fmt.Sprintf("%s · sort:%s · %d/%d done (%d%%)",
		strings.Join(parts, " "), sortMode, stats.Completed, stats.Total, stats.Percent())
	if stats.Overdue > 0 {
		s += fmt.Sprintf(" · %d overdue", stats.Overdue)
	}
	return s
}

// jobStatus returns a short string describing the background jobs.
func (m Model) jobStatus() string {
	var running, failed []string
	for _, s := range m.scheduler.Statuses() {
		switch s.State {
		case scheduler.Running:
			running = append(running, s.Job)
		case scheduler.Failed:
			failed = append(failed, s.Job)
		}
	}
	switch {
	case len(running) > 0:
		return "running " + strings.Join(running, ", ")
	case len(failed) > 0:
		return "⚠ failed: " + strings.Join(failed, ", ")
	}
	return "idle"
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.status != "" && (m.currentView == ViewTasks || m.currentView == ViewDetail || m.currentView == ViewCategories) {
		if m.statusErr {
			return theme.OverdueStyle.Render(m.status)
		}
		return m.status
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewSearch:
		return "enter keep filter | esc clear"
	case ViewDetail:
		return "esc back | e edit | x done | s next status | d delete | j/k scroll"
	case ViewForm:
		return "enter next | shift+tab back | esc cancel"
	case ViewNotifications:
		return "m read | M read all | d remove | enter open | esc back"
	case ViewConfirm:
		return "y confirm | any key cancel"
	case ViewSettings:
		return "enter next | shift+tab back | esc cancel"
	case ViewCategories:
		return "enter filter | e rename | d clear | esc back"
	}

	switch m.mode {
	case ModeCalendar:
		return "q quit | ? help | hjkl day | [ ] month | J/K pick task | n new on day | v view"
	default:
		return "q quit | ? help | n new | x done | s status | / search | f date | tab sort | v view | : command"
	}
}
