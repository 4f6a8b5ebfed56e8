package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nhle/novatasks/internal/model"
)

// ReplaceNotifications overwrites the stored notification log in a single
// transaction, so a failed write leaves the previous log intact.
func (s *SQLiteStore) ReplaceNotifications(ctx context.Context, items []model.Notification) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM notifications"); err != nil {
		return fmt.Errorf("clearing notifications: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT OR REPLACE INTO notifications (id, message, kind, task_id, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing notification insert: %w", err)
	}
	defer stmt.Close()

	for _, n := range items {
		if n.ID == "" {
			n.ID = uuid.New().String()
		}
		_, err := stmt.ExecContext(ctx,
			n.ID, n.Message, string(n.Kind), n.TaskID,
			boolToInt(n.Read), n.Timestamp.UTC(),
		)
		if err != nil {
			return fmt.Errorf("inserting notification %s: %w", n.ID, err)
		}
	}

	return tx.Commit()
}

// GetNotifications returns the stored log, newest first.
func (s *SQLiteStore) GetNotifications(ctx context.Context) ([]model.Notification, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, message, kind, task_id, read, created_at
		FROM notifications ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}
