package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/novatasks/internal/model"
)

const insertTaskSQL = `INSERT INTO tasks (` + taskColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// CreateTask inserts a new task and returns it as stored. Missing fields get
// their defaults and a UUID is generated if ID is empty.
func (s *SQLiteStore) CreateTask(ctx context.Context, task model.Task) (model.Task, error) {
	return s.insertTask(ctx, s.db, task)
}

// RollTask inserts next, the successor of a recurring task, and stamps
// rolled_at on the source in one transaction. If the source is gone
// nothing is written.
func (s *SQLiteStore) RollTask(ctx context.Context, next model.Task, sourceID string, at time.Time) (model.Task, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Task{}, fmt.Errorf("beginning roll transaction: %w", err)
	}
	defer tx.Rollback()

	created, err := s.insertTask(ctx, tx, next)
	if err != nil {
		return model.Task{}, err
	}
	if err := markRolled(ctx, tx, sourceID, at); err != nil {
		return model.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Task{}, fmt.Errorf("committing roll of %s: %w", sourceID, err)
	}
	return created, nil
}

func (s *SQLiteStore) insertTask(ctx context.Context, ex sqlx.ExtContext, task model.Task) (model.Task, error) {
	task.ApplyDefaults()
	if err := validateTask(task); err != nil {
		return model.Task{}, err
	}
	if task.ID == "" {
		task.ID = uuid.New().String()
	}

	now := s.now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	syncCompletedAt(&task, now)

	// Default sort_order to max+1.
	if task.SortOrder == 0 {
		var maxOrder int
		err := sqlx.GetContext(ctx, ex, &maxOrder,
			"SELECT COALESCE(MAX(sort_order), 0) FROM tasks")
		if err != nil {
			return model.Task{}, fmt.Errorf("getting max sort_order: %w", err)
		}
		task.SortOrder = maxOrder + 1
	}

	args, err := taskArgs(task)
	if err != nil {
		return model.Task{}, err
	}
	if _, err := ex.ExecContext(ctx, insertTaskSQL, args...); err != nil {
		return model.Task{}, fmt.Errorf("creating task: %w", err)
	}
	return task, nil
}

// UpdateTask overwrites an existing task by ID. completed_at follows the
// status: entering Completed stamps it, leaving Completed clears it.
func (s *SQLiteStore) UpdateTask(ctx context.Context, task model.Task) (model.Task, error) {
	task.ApplyDefaults()
	if err := validateTask(task); err != nil {
		return model.Task{}, err
	}

	now := s.now().UTC()
	task.UpdatedAt = now
	syncCompletedAt(&task, now)

	var recurType interface{}
	interval := 1
	if task.Recurring != nil {
		recurType = string(task.Recurring.Frequency)
		interval = task.Recurring.Interval
	}
	tags, err := encodeTags(task)
	if err != nil {
		return model.Task{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, category = ?, priority = ?, status = ?,
			deadline = ?, tags = ?, color = ?,
			recurrence_type = ?, recurrence_interval = ?,
			sort_order = ?, completed_at = ?, updated_at = ?, rolled_at = ?
		WHERE id = ?`,
		task.Title, task.Description, task.Category, string(task.Priority), string(task.Status),
		nullTime(task.Deadline), tags, string(task.Color),
		recurType, interval,
		task.SortOrder, nullTime(task.CompletedAt), task.UpdatedAt, nullTime(task.RolledAt),
		task.ID,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("updating task %s: %w", task.ID, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return model.Task{}, fmt.Errorf("task %s: %w", task.ID, ErrNotFound)
	}
	return task, nil
}

// DeleteTask removes a task by ID.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteAllTasks removes every task.
func (s *SQLiteStore) DeleteAllTasks(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM tasks"); err != nil {
		return fmt.Errorf("deleting all tasks: %w", err)
	}
	return nil
}

// GetTaskByID retrieves a single task by ID.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	return &task, nil
}

// GetTasks retrieves tasks matching the filter.
func (s *SQLiteStore) GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query, args := buildTaskQuery(filter)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// UpsertTasks inserts or replaces a batch of tasks by ID in one transaction.
// Entries without an ID get a fresh UUID.
func (s *SQLiteStore) UpsertTasks(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx,
		strings.Replace(insertTaskSQL, "INSERT", "INSERT OR REPLACE", 1))
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	now := s.now().UTC()
	for _, t := range tasks {
		t.ApplyDefaults()
		if err := validateTask(t); err != nil {
			return err
		}
		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		if t.UpdatedAt.IsZero() {
			t.UpdatedAt = now
		}
		syncCompletedAt(&t, now)

		args, err := taskArgs(t)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("upserting task %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// markRolled stamps rolled_at on a recurring task.
func markRolled(ctx context.Context, ex sqlx.ExecerContext, id string, at time.Time) error {
	result, err := ex.ExecContext(ctx,
		"UPDATE tasks SET rolled_at = ? WHERE id = ?", at.UTC(), id)
	if err != nil {
		return fmt.Errorf("marking task %s rolled: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

// validateTask rejects tasks the schema would refuse.
func validateTask(task model.Task) error {
	if strings.TrimSpace(task.Title) == "" {
		return fmt.Errorf("task title must not be empty")
	}
	if !task.Status.Valid() {
		return fmt.Errorf("task %s: unknown status %q", task.ID, task.Status)
	}
	if !task.Priority.Valid() {
		return fmt.Errorf("task %s: unknown priority %q", task.ID, task.Priority)
	}
	return nil
}

// syncCompletedAt keeps completed_at present exactly when the task is completed.
func syncCompletedAt(task *model.Task, now time.Time) {
	switch {
	case task.IsCompleted() && task.CompletedAt == nil:
		task.CompletedAt = &now
	case !task.IsCompleted():
		task.CompletedAt = nil
	}
}

// buildTaskQuery constructs the SQL query and args for a TaskFilter.
func buildTaskQuery(filter TaskFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.Priority != nil {
		conditions = append(conditions, "priority = ?")
		args = append(args, string(*filter.Priority))
	}
	if filter.Category != nil && *filter.Category != "" {
		conditions = append(conditions, "LOWER(category) = LOWER(?)")
		args = append(args, *filter.Category)
	}
	if filter.Recurring {
		conditions = append(conditions, "recurrence_type IS NOT NULL")
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions,
			"(title LIKE ? OR description LIKE ? OR category LIKE ? OR tags LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q, q, q)
	}

	query := "SELECT " + taskColumns + " FROM tasks"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	sortBy := "sort_order"
	if filter.SortBy != "" {
		allowed := map[string]string{
			"sort_order": "sort_order",
			"deadline":   "deadline IS NULL, deadline",
			"created_at": "created_at",
			"updated_at": "updated_at",
			"title":      "title COLLATE NOCASE",
			"category":   "category COLLATE NOCASE",
		}
		if col, ok := allowed[filter.SortBy]; ok {
			sortBy = col
		}
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, direction)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	return query, args
}
