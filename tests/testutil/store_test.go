package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/novatasks/internal/model"
	"github.com/nhle/novatasks/internal/tracker"
)

func TestNewTestTrackerAppliesOptions(t *testing.T) {
	fixed := time.Date(2025, time.April, 1, 8, 0, 0, 0, time.UTC)
	tr := NewTestTracker(t, tracker.WithClock(func() time.Time { return fixed }))

	task, err := tr.CreateTask(context.Background(), model.Task{Title: "Stretch"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if !task.CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", task.CreatedAt, fixed)
	}
}
