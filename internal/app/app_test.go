package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/novatasks/internal/gcal"
	"github.com/nhle/novatasks/internal/model"
	"github.com/nhle/novatasks/internal/scheduler"
	settingsview "github.com/nhle/novatasks/internal/ui/config"
	"github.com/nhle/novatasks/internal/tracker"
	"github.com/nhle/novatasks/internal/ui/categories"
	"github.com/nhle/novatasks/internal/ui/taskform"
	"github.com/nhle/novatasks/tests/testutil"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	tr := testutil.NewTestTracker(t)
	m := New(Options{Tracker: tr, Scheduler: scheduler.New(nil)})
	t.Cleanup(m.unsubscribe)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

// step feeds msg to the model and runs the returned command once,
// returning the model and the command's message.
func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		return m, nil
	}
	return m, cmd()
}

func TestCommandsUpdateViewState(t *testing.T) {
	m := newTestModel(t)

	tests := []struct {
		input string
		check func(f tracker.Filter, s tracker.SortMode) bool
	}{
		{"week", func(f tracker.Filter, _ tracker.SortMode) bool { return f.Date == tracker.DateWeek }},
		{"sort priority", func(_ tracker.Filter, s tracker.SortMode) bool { return s == tracker.SortPriority }},
		{"priority high", func(f tracker.Filter, _ tracker.SortMode) bool { return f.Priority == model.PriorityHigh }},
		{"category Work", func(f tracker.Filter, _ tracker.SortMode) bool { return f.Category == "Work" }},
		{"search milk", func(f tracker.Filter, _ tracker.SortMode) bool { return f.Query == "milk" }},
		{"clear", func(f tracker.Filter, _ tracker.SortMode) bool { return f.IsZero() }},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m.executeCommand(tt.input)
			f, s := m.tracker.ViewState()
			if !tt.check(f, s) {
				t.Errorf("after %q: filter %+v sort %s", tt.input, f, s)
			}
		})
	}
}

func TestUnknownCommandReportsError(t *testing.T) {
	m := newTestModel(t)
	m.executeCommand("frobnicate")
	if !m.statusErr || m.status == "" {
		t.Errorf("status = %q, err = %v", m.status, m.statusErr)
	}

	m.executeCommand("push")
	if m.status != errSyncDisabled.Error() {
		t.Errorf("push without syncer: %q", m.status)
	}
}

func TestCommandSwitchesMode(t *testing.T) {
	m := newTestModel(t)
	m.executeCommand("calendar")
	if m.mode != ModeCalendar {
		t.Errorf("mode = %v", m.mode)
	}
	m.executeCommand("list")
	if m.mode != ModeList {
		t.Errorf("mode = %v", m.mode)
	}
}

func TestSettingsCommand(t *testing.T) {
	m := newTestModel(t)
	m.executeCommand("settings")
	if m.currentView != ViewTasks || !m.statusErr {
		t.Fatalf("settings without config: view %v, status %q", m.currentView, m.status)
	}

	m.hasSettings = true
	m.settings = settingsview.New(&model.AppConfig{}, filepath.Join(t.TempDir(), "config.yaml"), m.keys, 80, 24)
	m.executeCommand("settings")
	if m.currentView != ViewSettings {
		t.Fatalf("view = %v, want settings", m.currentView)
	}

	next, _ := m.Update(settingsview.ConfigDoneMsg{})
	if m = next.(Model); m.currentView != ViewTasks {
		t.Errorf("view after done = %v", m.currentView)
	}
}

func TestCategoriesRenameAndFilter(t *testing.T) {
	m := newTestModel(t)
	ctx := context.Background()
	for _, c := range []string{"Work", "work", "Home"} {
		if _, err := m.tracker.CreateTask(ctx, model.Task{Title: c, Category: c}); err != nil {
			t.Fatal(err)
		}
	}
	m, _ = step(t, m, loadTasks(m.tracker)())

	m.executeCommand("categories")
	if m.currentView != ViewCategories {
		t.Fatalf("view = %v", m.currentView)
	}

	m, msg := step(t, m, categories.RenameMsg{From: "work", To: "Office"})
	m, _ = step(t, m, msg)
	if m.statusErr || !strings.Contains(m.status, "Moved 2 tasks") {
		t.Errorf("status = %q", m.status)
	}

	m, msg = step(t, m, categories.FilterMsg{Category: "Office"})
	if f, _ := m.tracker.ViewState(); f.Category != "Office" || m.currentView != ViewTasks {
		t.Errorf("filter = %+v, view = %v", f, m.currentView)
	}
	m, _ = step(t, m, msg)
	if len(m.view) != 2 {
		t.Errorf("len(view) = %d, want 2", len(m.view))
	}
}

func TestSubmittedTaskIsCreatedAndReloaded(t *testing.T) {
	m := newTestModel(t)

	m, msg := step(t, m, taskform.TaskSubmittedMsg{Task: model.Task{Title: "Buy milk", Status: model.StatusPending}})
	if res, ok := msg.(actionResultMsg); !ok || res.err != nil {
		t.Fatalf("create result = %#v", msg)
	}

	select {
	case ev := <-m.events:
		m, msg = step(t, m, busEventMsg(ev))
	case <-time.After(time.Second):
		t.Fatal("no bus event after create")
	}

	// The bus reload batches the load with the next wait; run the load.
	snapshot := loadTasks(m.tracker)()
	m, _ = step(t, m, snapshot)
	if len(m.all) != 1 || m.all[0].Title != "Buy milk" {
		t.Fatalf("all = %+v", m.all)
	}
	if got, ok := m.board.Selected(); !ok || got.Title != "Buy milk" {
		t.Errorf("board selection = %+v, %v", got, ok)
	}
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	m := newTestModel(t)
	ctx := context.Background()
	task, err := m.tracker.CreateTask(ctx, model.Task{Title: "Keep me", Status: model.StatusPending})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	m, _ = step(t, m, loadTasks(m.tracker)())

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	if m.currentView != ViewConfirm {
		t.Fatalf("view = %v, want confirm", m.currentView)
	}

	m, msg := step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	if msg != nil || m.currentView != ViewTasks {
		t.Fatalf("cancel: msg %#v view %v", msg, m.currentView)
	}
	if _, err := m.tracker.Task(ctx, task.ID); err != nil {
		t.Fatalf("task deleted despite cancel: %v", err)
	}

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	_, msg = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	if res, ok := msg.(actionResultMsg); !ok || res.err != nil {
		t.Fatalf("confirm result = %#v", msg)
	}
	if _, err := m.tracker.Task(ctx, task.ID); err == nil {
		t.Error("task still present after confirm")
	}
}

func TestToggleDoneCompletesSelectedTask(t *testing.T) {
	m := newTestModel(t)
	ctx := context.Background()
	task, _ := m.tracker.CreateTask(ctx, model.Task{Title: "Ship it", Status: model.StatusInProcess})
	m, _ = step(t, m, loadTasks(m.tracker)())

	// The board starts on the Pending column; move right to In-Process.
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	_, msg := step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if res, ok := msg.(actionResultMsg); !ok || res.err != nil {
		t.Fatalf("toggle result = %#v", msg)
	}

	got, err := m.tracker.Task(ctx, task.ID)
	if err != nil {
		t.Fatalf("Task: %v", err)
	}
	if got.Status != model.StatusCompleted || got.CompletedAt == nil {
		t.Errorf("status = %s, completedAt = %v", got.Status, got.CompletedAt)
	}
}

func TestNextStatusWraps(t *testing.T) {
	tests := map[model.Status]model.Status{
		model.StatusPending:   model.StatusInProcess,
		model.StatusInProcess: model.StatusCompleted,
		model.StatusCompleted: model.StatusPending,
		"bogus":               model.StatusPending,
	}
	for in, want := range tests {
		if got := nextStatus(in); got != want {
			t.Errorf("nextStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

type fakeSyncer struct{}

func (fakeSyncer) Push(context.Context) (int, error) { return 0, nil }
func (fakeSyncer) Pull(context.Context) (int, error) { return 0, nil }

type fakeCalendar struct{}

func (fakeCalendar) SyncAll(context.Context, []model.Task) (gcal.SyncReport, error) {
	return gcal.SyncReport{}, nil
}

func TestRegisterJobs(t *testing.T) {
	tr := testutil.NewTestTracker(t)
	cfg := &model.AppConfig{}

	s := scheduler.New(nil)
	RegisterJobs(s, tr, cfg, nil, nil, nil)
	if got := len(s.Statuses()); got != 2 {
		t.Errorf("jobs without sync = %d, want 2", got)
	}

	s = scheduler.New(nil)
	RegisterJobs(s, tr, cfg, fakeSyncer{}, fakeCalendar{}, nil)
	var names []string
	for _, st := range s.Statuses() {
		names = append(names, st.Job)
	}
	want := []string{scheduler.JobRecurring, scheduler.JobDeadlines, scheduler.JobRemotePush, scheduler.JobCalendar}
	if len(names) != len(want) {
		t.Fatalf("jobs = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("job %d = %s, want %s", i, names[i], want[i])
		}
	}
}
