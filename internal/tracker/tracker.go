// Package tracker owns the task collection and everything that reacts to
// it: the notification log, the change bus, the view state and the
// periodic recurring and deadline passes.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nhle/novatasks/internal/event"
	"github.com/nhle/novatasks/internal/model"
	"github.com/nhle/novatasks/internal/notify"
	"github.com/nhle/novatasks/internal/recurring"
	"github.com/nhle/novatasks/internal/store"
)

// Store is the persistence the tracker needs.
type Store interface {
	store.TaskStore
	store.NotificationStore
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// WithNotificationLimits sets the notification log cap, retention and
// suppression window. Non-positive values keep the defaults.
func WithNotificationLimits(maxEntries int, retention, window time.Duration) Option {
	return func(t *Tracker) {
		t.log = notify.NewLog(maxEntries, retention)
		t.scanner = notify.Scanner{Window: window}
	}
}

// Tracker is the application context. Mutations are serialized, so a tick
// never interleaves with a user edit.
type Tracker struct {
	mu      sync.Mutex
	store   Store
	log     *notify.Log
	scanner notify.Scanner
	bus     *event.Bus
	logger  *slog.Logger
	now     func() time.Time

	viewMu sync.RWMutex
	filter Filter
	sort   SortMode
}

// New creates a tracker and loads the persisted notification log, purging
// entries past retention.
func New(ctx context.Context, st Store, bus *event.Bus, opts ...Option) (*Tracker, error) {
	t := &Tracker{
		store:  st,
		log:    notify.NewLog(0, 0),
		bus:    bus,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
		sort:   SortCustom,
		filter: Filter{Date: DateAll},
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.bus == nil {
		t.bus = event.NewBus(t.logger)
	}

	stored, err := st.GetNotifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading notifications: %w", err)
	}
	t.log.Load(stored, t.now())
	if t.log.Len() != len(stored) {
		if err := t.persistLog(ctx); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// Bus returns the change bus.
func (t *Tracker) Bus() *event.Bus { return t.bus }

// Now returns the tracker's current time.
func (t *Tracker) Now() time.Time { return t.now() }

// CreateTask stores a new task. A deadline within the next day raises a
// one-off warning.
func (t *Tracker) CreateTask(ctx context.Context, task model.Task) (model.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	created, err := t.createLocked(ctx, task)
	if err != nil {
		return model.Task{}, err
	}
	t.bus.Publish(event.Event{Type: event.TaskCreated, TaskID: created.ID})
	return created, nil
}

func (t *Tracker) createLocked(ctx context.Context, task model.Task) (model.Task, error) {
	now := t.now()
	task.ID = ""
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	if task.IsCompleted() && task.CompletedAt == nil {
		task.CompletedAt = &now
	}

	created, err := t.store.CreateTask(ctx, task)
	if err != nil {
		return model.Task{}, fmt.Errorf("creating task: %w", err)
	}
	t.logger.Debug("task created", "id", created.ID, "title", created.Title)
	t.warnDueSoonLocked(ctx, created, now)
	return created, nil
}

// warnDueSoonLocked raises the one-off alert for a new task due within a day.
func (t *Tracker) warnDueSoonLocked(ctx context.Context, created model.Task, now time.Time) {
	if req, ok := notify.CheckCreated(created, now); ok {
		if _, err := t.notifyLocked(ctx, req); err != nil {
			t.logger.Warn("recording due-soon notification", "id", created.ID, "err", err)
		}
	}
}

// UpdateTask replaces a task. Moving into Completed stamps CompletedAt with
// the tracker clock; moving out clears it.
func (t *Tracker) UpdateTask(ctx context.Context, task model.Task) (model.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, err := t.store.GetTaskByID(ctx, task.ID)
	if err != nil {
		return model.Task{}, fmt.Errorf("loading task %s: %w", task.ID, err)
	}

	now := t.now()
	switch {
	case task.IsCompleted() && !prev.IsCompleted():
		task.CompletedAt = &now
	case task.IsCompleted():
		if task.CompletedAt == nil {
			task.CompletedAt = prev.CompletedAt
		}
	default:
		task.CompletedAt = nil
	}
	if task.RolledAt == nil {
		task.RolledAt = prev.RolledAt
	}
	task.CreatedAt = prev.CreatedAt

	updated, err := t.store.UpdateTask(ctx, task)
	if err != nil {
		return model.Task{}, fmt.Errorf("updating task: %w", err)
	}
	t.bus.Publish(event.Event{Type: event.TaskUpdated, TaskID: updated.ID})
	return updated, nil
}

// SetStatus moves a task to another board column.
func (t *Tracker) SetStatus(ctx context.Context, id string, status model.Status) (model.Task, error) {
	if !status.Valid() {
		return model.Task{}, fmt.Errorf("unknown status %q", status)
	}
	task, err := t.Task(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	task.Status = status
	return t.UpdateTask(ctx, task)
}

// DeleteTask removes a task.
func (t *Tracker) DeleteTask(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	t.bus.Publish(event.Event{Type: event.TaskDeleted, TaskID: id})
	return nil
}

// ClearAll removes every task.
func (t *Tracker) ClearAll(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.DeleteAllTasks(ctx); err != nil {
		return fmt.Errorf("clearing tasks: %w", err)
	}
	t.bus.Publish(event.Event{Type: event.TasksReloaded})
	return nil
}

// Reorder swaps a task's custom sort position with its neighbour in the
// same status column. up moves it towards the top.
func (t *Tracker) Reorder(ctx context.Context, id string, up bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	tasks, err := t.store.GetTasks(ctx, store.TaskFilter{})
	if err != nil {
		return fmt.Errorf("loading tasks: %w", err)
	}

	idx := -1
	for i := range tasks {
		if tasks[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("task %s: %w", id, store.ErrNotFound)
	}

	step := 1
	if up {
		step = -1
	}
	j := idx + step
	for j >= 0 && j < len(tasks) && tasks[j].Status != tasks[idx].Status {
		j += step
	}
	if j < 0 || j >= len(tasks) {
		return nil
	}

	a, b := tasks[idx], tasks[j]
	a.SortOrder, b.SortOrder = b.SortOrder, a.SortOrder
	if err := t.store.UpsertTasks(ctx, []model.Task{a, b}); err != nil {
		return fmt.Errorf("reordering task %s: %w", id, err)
	}
	t.bus.Publish(event.Event{Type: event.TaskUpdated, TaskID: id})
	return nil
}

// RenameCategory moves every task filed under from (case-insensitive) to
// to. An empty to clears the category. It returns the number of tasks
// changed.
func (t *Tracker) RenameCategory(ctx context.Context, from, to string) (int, error) {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" {
		return 0, fmt.Errorf("category name is required")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	tasks, err := t.store.GetTasks(ctx, store.TaskFilter{})
	if err != nil {
		return 0, fmt.Errorf("loading tasks: %w", err)
	}

	var changed []model.Task
	for _, task := range tasks {
		if strings.EqualFold(strings.TrimSpace(task.Category), from) && task.Category != to {
			task.Category = to
			changed = append(changed, task)
		}
	}
	if len(changed) == 0 {
		return 0, nil
	}
	if err := t.store.UpsertTasks(ctx, changed); err != nil {
		return 0, fmt.Errorf("renaming category %q: %w", from, err)
	}
	t.logger.Debug("category renamed", "from", from, "to", to, "tasks", len(changed))
	t.bus.Publish(event.Event{Type: event.TasksReloaded})
	return len(changed), nil
}

// Task returns a single task.
func (t *Tracker) Task(ctx context.Context, id string) (model.Task, error) {
	task, err := t.store.GetTaskByID(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	return *task, nil
}

// Tasks returns every task in custom order.
func (t *Tracker) Tasks(ctx context.Context) ([]model.Task, error) {
	tasks, err := t.store.GetTasks(ctx, store.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}
	return tasks, nil
}

// View returns the tasks passing the active filter, in the active order.
func (t *Tracker) View(ctx context.Context) ([]model.Task, error) {
	tasks, err := t.Tasks(ctx)
	if err != nil {
		return nil, err
	}
	filter, mode := t.ViewState()
	out := filter.Apply(tasks, t.now())
	SortTasks(out, mode)
	return out, nil
}

// ViewState returns the active filter and sort mode.
func (t *Tracker) ViewState() (Filter, SortMode) {
	t.viewMu.RLock()
	defer t.viewMu.RUnlock()
	return t.filter, t.sort
}

// SetFilter replaces the active filter.
func (t *Tracker) SetFilter(f Filter) {
	t.viewMu.Lock()
	t.filter = f
	t.viewMu.Unlock()
}

// SetSort replaces the active sort mode.
func (t *Tracker) SetSort(mode SortMode) {
	t.viewMu.Lock()
	t.sort = mode
	t.viewMu.Unlock()
}

// Stats summarizes every task.
func (t *Tracker) Stats(ctx context.Context) (Stats, error) {
	tasks, err := t.Tasks(ctx)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(tasks, t.now()), nil
}

// Notify records a notification and persists the log.
func (t *Tracker) Notify(ctx context.Context, req model.NotificationRequest) (model.Notification, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.notifyLocked(ctx, req)
}

func (t *Tracker) notifyLocked(ctx context.Context, req model.NotificationRequest) (model.Notification, error) {
	n := t.log.Append(req, t.now())
	if err := t.persistLog(ctx); err != nil {
		return n, err
	}
	t.bus.Publish(event.Event{Type: event.NotificationsChanged, TaskID: n.TaskID})
	return n, nil
}

// Notifications returns the log, newest first.
func (t *Tracker) Notifications() []model.Notification { return t.log.Items() }

// UnreadCount returns the number of unread notifications.
func (t *Tracker) UnreadCount() int { return t.log.UnreadCount() }

// MarkRead flags a notification as read.
func (t *Tracker) MarkRead(ctx context.Context, id string) error {
	return t.editLog(ctx, func(l *notify.Log) bool { return l.MarkRead(id) })
}

// MarkAllRead flags every notification as read.
func (t *Tracker) MarkAllRead(ctx context.Context) error {
	return t.editLog(ctx, func(l *notify.Log) bool { l.MarkAllRead(); return true })
}

// RemoveNotification deletes a notification.
func (t *Tracker) RemoveNotification(ctx context.Context, id string) error {
	return t.editLog(ctx, func(l *notify.Log) bool { return l.Remove(id) })
}

func (t *Tracker) editLog(ctx context.Context, edit func(*notify.Log) bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !edit(t.log) {
		return fmt.Errorf("notification: %w", store.ErrNotFound)
	}
	if err := t.persistLog(ctx); err != nil {
		return err
	}
	t.bus.Publish(event.Event{Type: event.NotificationsChanged})
	return nil
}

func (t *Tracker) persistLog(ctx context.Context) error {
	if err := t.store.ReplaceNotifications(ctx, t.log.Items()); err != nil {
		return fmt.Errorf("saving notifications: %w", err)
	}
	return nil
}

// RollReport summarizes one recurring pass.
type RollReport struct {
	Created []model.Task
	Skipped []recurring.Diagnostic
	Failed  int
}

// RollRecurring creates the next occurrence of every completed recurring
// task that is due. The successor and the source's rolled stamp are stored
// together, so a later pass never rolls the same completion again. Dates
// step in the clock's location. One task failing does not stop the rest.
func (t *Tracker) RollRecurring(ctx context.Context) (RollReport, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var report RollReport
	tasks, err := t.store.GetTasks(ctx, store.TaskFilter{Recurring: true})
	if err != nil {
		return report, fmt.Errorf("loading recurring tasks: %w", err)
	}

	now := t.now()
	res := recurring.Roll(inLocation(tasks, now.Location()), now)
	report.Skipped = res.Skipped
	for _, d := range res.Skipped {
		t.logger.Warn("skipping recurring task", "id", d.TaskID, "err", d.Err)
	}

	for _, req := range res.Requests {
		created, err := t.store.RollTask(ctx, req.Task, req.SourceID, now)
		if err != nil {
			report.Failed++
			t.logger.Error("rolling recurring task", "source", req.SourceID, "err", err)
			continue
		}
		t.warnDueSoonLocked(ctx, created, now)
		report.Created = append(report.Created, created)
		t.logger.Info("rolled recurring task", "source", req.SourceID, "id", created.ID)
	}

	if len(report.Created) > 0 {
		t.bus.Publish(event.Event{Type: event.TasksReloaded})
	}
	return report, nil
}

// inLocation returns copies of tasks with every timestamp expressed in loc.
// The store hands times back in UTC.
func inLocation(tasks []model.Task, loc *time.Location) []model.Task {
	in := func(p *time.Time) *time.Time {
		if p == nil {
			return nil
		}
		v := p.In(loc)
		return &v
	}

	out := make([]model.Task, len(tasks))
	for i, task := range tasks {
		task.CreatedAt = task.CreatedAt.In(loc)
		task.UpdatedAt = task.UpdatedAt.In(loc)
		task.Deadline = in(task.Deadline)
		task.CompletedAt = in(task.CompletedAt)
		task.RolledAt = in(task.RolledAt)
		out[i] = task
	}
	return out
}

// ScanDeadlines records due-soon and overdue alerts. It returns how many
// alerts were raised.
func (t *Tracker) ScanDeadlines(ctx context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tasks, err := t.store.GetTasks(ctx, store.TaskFilter{})
	if err != nil {
		return 0, fmt.Errorf("loading tasks: %w", err)
	}

	now := t.now()
	reqs := t.scanner.Scan(tasks, t.log.Recent(t.scanner.Lookback(), now), now)
	if len(reqs) == 0 {
		return 0, nil
	}

	for _, req := range reqs {
		t.log.Append(req, now)
	}
	if err := t.persistLog(ctx); err != nil {
		return len(reqs), err
	}
	t.bus.Publish(event.Event{Type: event.NotificationsChanged})
	return len(reqs), nil
}

// Tick runs the recurring pass followed by the deadline scan. Both run
// even if the first fails.
func (t *Tracker) Tick(ctx context.Context) error {
	_, rollErr := t.RollRecurring(ctx)
	_, scanErr := t.ScanDeadlines(ctx)
	return errors.Join(rollErr, scanErr)
}
