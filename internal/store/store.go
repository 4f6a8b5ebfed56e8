package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/novatasks/internal/model"
)

// ErrNotFound is returned when a task id does not exist.
var ErrNotFound = errors.New("not found")

// TaskFilter controls filtering, sorting, and pagination for task queries.
type TaskFilter struct {
	Status    *model.Status
	Priority  *model.Priority
	Category  *string // case-insensitive equality
	Query     *string // search title, description, category and tags
	Recurring bool    // only tasks with a recurrence rule
	SortBy    string  // "sort_order", "deadline", "created_at", "updated_at", "title", "category"
	SortDesc  bool
	Limit     int
	Offset    int
}

// TaskStore persists the local task collection.
type TaskStore interface {
	CreateTask(ctx context.Context, task model.Task) (model.Task, error)
	UpdateTask(ctx context.Context, task model.Task) (model.Task, error)
	DeleteTask(ctx context.Context, id string) error
	DeleteAllTasks(ctx context.Context) error
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)

	// UpsertTasks inserts or replaces tasks by id. Used by import and pull.
	UpsertTasks(ctx context.Context, tasks []model.Task) error

	// RollTask stores next and records on the source that its next
	// occurrence was generated at the given time. Both happen or neither.
	RollTask(ctx context.Context, next model.Task, sourceID string, at time.Time) (model.Task, error)
}

// NotificationStore persists the notification log.
type NotificationStore interface {
	// ReplaceNotifications overwrites the stored log with items.
	ReplaceNotifications(ctx context.Context, items []model.Notification) error
	GetNotifications(ctx context.Context) ([]model.Notification, error)
}

// RemoteStore holds the per-user task mirror served by the sync server.
type RemoteStore interface {
	UpsertRemoteTasks(ctx context.Context, userID string, tasks []model.Task) (int, error)
	GetRemoteTasks(ctx context.Context, userID string) ([]model.Task, error)
}

// Store is the full persistence interface.
type Store interface {
	TaskStore
	NotificationStore
	RemoteStore
	Close() error
}
