package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/novatasks/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration.
func (s *SQLiteStore) SchemaVersion() (int, error) {
	var v int
	if err := s.db.Get(&v, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// taskColumns is the column list shared by every task SELECT, in scan order.
const taskColumns = `id, title, description, category, priority, status,
	deadline, tags, color, recurrence_type, recurrence_interval,
	sort_order, created_at, completed_at, updated_at, rolled_at`

// scanTask scans a task row selected with taskColumns.
func scanTask(row interface{ Scan(dest ...interface{}) error }) (model.Task, error) {
	var (
		task      model.Task
		tags      string
		recurType sql.NullString
		interval  int
	)

	err := row.Scan(
		&task.ID, &task.Title, &task.Description, &task.Category,
		&task.Priority, &task.Status,
		&task.Deadline, &tags, &task.Color, &recurType, &interval,
		&task.SortOrder, &task.CreatedAt, &task.CompletedAt, &task.UpdatedAt,
		&task.RolledAt,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("scanning task row: %w", err)
	}

	task.Tags = []string{}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &task.Tags); err != nil {
			return model.Task{}, fmt.Errorf("unmarshaling tags for task %s: %w", task.ID, err)
		}
	}

	if recurType.Valid && recurType.String != "" {
		task.Recurring = &model.Recurrence{
			Frequency: model.Frequency(recurType.String),
			Interval:  interval,
		}
	}

	return task, nil
}

// taskArgs returns the insert arguments for task in taskColumns order.
func taskArgs(task model.Task) ([]interface{}, error) {
	tags, err := encodeTags(task)
	if err != nil {
		return nil, err
	}

	var recurType interface{}
	interval := 1
	if task.Recurring != nil {
		recurType = string(task.Recurring.Frequency)
		interval = task.Recurring.Interval
	}

	return []interface{}{
		task.ID, task.Title, task.Description, task.Category,
		string(task.Priority), string(task.Status),
		nullTime(task.Deadline), tags, string(task.Color), recurType, interval,
		task.SortOrder, task.CreatedAt.UTC(), nullTime(task.CompletedAt), task.UpdatedAt.UTC(),
		nullTime(task.RolledAt),
	}, nil
}

// encodeTags renders the tag list as a JSON array.
func encodeTags(task model.Task) (string, error) {
	tags := task.Tags
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("marshaling tags for task %s: %w", task.ID, err)
	}
	return string(b), nil
}

// scanNotification scans a notification row from a sqlx.Rows result set.
func scanNotification(rows *sqlx.Rows) (model.Notification, error) {
	var (
		n       model.Notification
		kind    string
		readInt int
	)

	err := rows.Scan(&n.ID, &n.Message, &kind, &n.TaskID, &readInt, &n.Timestamp)
	if err != nil {
		return model.Notification{}, fmt.Errorf("scanning notification row: %w", err)
	}

	n.Kind = model.Kind(kind)
	n.Read = readInt != 0

	return n, nil
}

// nullTime converts an optional timestamp to a UTC value or NULL.
func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
