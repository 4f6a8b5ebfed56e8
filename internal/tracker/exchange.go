package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/nhle/novatasks/internal/event"
	"github.com/nhle/novatasks/internal/model"
)

// ErrInvalidImport is returned when import data is not a JSON array of tasks.
var ErrInvalidImport = errors.New("invalid import file")

// Export writes every task as an indented JSON array.
func (t *Tracker) Export(ctx context.Context, w io.Writer) error {
	tasks, err := t.Tasks(ctx)
	if err != nil {
		return err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tasks); err != nil {
		return fmt.Errorf("encoding tasks: %w", err)
	}
	return nil
}

// Import reads a JSON array of tasks and merges it into the store by id.
// Entries without an id get a new one. It returns the number of tasks read.
func (t *Tracker) Import(ctx context.Context, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("reading import: %w", err)
	}
	tasks, err := DecodeTasks(data)
	if err != nil {
		return 0, err
	}
	if err := t.Merge(ctx, tasks); err != nil {
		return 0, err
	}

	if _, err := t.Notify(ctx, model.NotificationRequest{
		Message: fmt.Sprintf("Imported %d tasks", len(tasks)),
		Kind:    model.KindSuccess,
	}); err != nil {
		t.logger.Warn("recording import notification", "err", err)
	}
	return len(tasks), nil
}

// DecodeTasks parses a JSON array of tasks, filling ids and defaults.
func DecodeTasks(data []byte) ([]model.Task, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrInvalidImport
	}

	var tasks []model.Task
	if err := json.Unmarshal(trimmed, &tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	for i := range tasks {
		if tasks[i].ID == "" {
			tasks[i].ID = uuid.New().String()
		}
		tasks[i].ApplyDefaults()
	}
	return tasks, nil
}

// Merge upserts tasks by id and announces a reload. Incoming tasks win
// over local copies with the same id.
func (t *Tracker) Merge(ctx context.Context, tasks []model.Task) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.UpsertTasks(ctx, tasks); err != nil {
		return fmt.Errorf("merging tasks: %w", err)
	}
	t.bus.Publish(event.Event{Type: event.TasksReloaded})
	return nil
}
