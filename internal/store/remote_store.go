package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/nhle/novatasks/internal/model"
)

// UpsertRemoteTasks stores tasks pushed by userID, replacing entries with the
// same id. It returns the number of tasks written.
func (s *SQLiteStore) UpsertRemoteTasks(ctx context.Context, userID string, tasks []model.Task) (int, error) {
	if len(tasks) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO remote_tasks (user_id, id, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`)
	if err != nil {
		return 0, fmt.Errorf("preparing remote upsert: %w", err)
	}
	defer stmt.Close()

	now := s.now().UTC()
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		payload, err := json.Marshal(t)
		if err != nil {
			return 0, fmt.Errorf("marshaling remote task %s: %w", t.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, userID, t.ID, string(payload), now); err != nil {
			return 0, fmt.Errorf("upserting remote task %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing remote upsert: %w", err)
	}
	return len(tasks), nil
}

// GetRemoteTasks returns every task stored for userID.
func (s *SQLiteStore) GetRemoteTasks(ctx context.Context, userID string) ([]model.Task, error) {
	var payloads []string
	err := s.db.SelectContext(ctx, &payloads,
		"SELECT payload FROM remote_tasks WHERE user_id = ? ORDER BY updated_at, id", userID)
	if err != nil {
		return nil, fmt.Errorf("querying remote tasks: %w", err)
	}

	tasks := make([]model.Task, 0, len(payloads))
	for _, p := range payloads {
		var t model.Task
		if err := json.Unmarshal([]byte(p), &t); err != nil {
			return nil, fmt.Errorf("unmarshaling remote task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
