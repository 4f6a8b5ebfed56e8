package remotesync

import (
	"context"
	"log/slog"

	"github.com/nhle/novatasks/internal/model"
)

// Tracker is the subset of the task tracker the syncer needs.
type Tracker interface {
	Tasks(ctx context.Context) ([]model.Task, error)
	Merge(ctx context.Context, tasks []model.Task) error
	Notify(ctx context.Context, req model.NotificationRequest) (model.Notification, error)
}

// Remote is the server side of a sync. *Client satisfies it.
type Remote interface {
	Push(ctx context.Context, tasks []model.Task) (int, error)
	Pull(ctx context.Context) ([]model.Task, error)
}

// Syncer pushes and pulls the tracker's tasks and reports the outcome in
// the notification log.
type Syncer struct {
	tracker Tracker
	remote  Remote
	logger  *slog.Logger
}

// NewSyncer creates a Syncer. A nil logger discards output.
func NewSyncer(tracker Tracker, remote Remote, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Syncer{tracker: tracker, remote: remote, logger: logger}
}

// Push sends every local task to the server.
func (s *Syncer) Push(ctx context.Context) (int, error) {
	tasks, err := s.tracker.Tasks(ctx)
	if err != nil {
		return 0, err
	}

	n, err := s.remote.Push(ctx, tasks)
	if err != nil {
		s.logger.Error("remote push failed", "err", err)
		s.report(ctx, "Failed to sync with remote database", model.KindDanger)
		return 0, err
	}

	s.logger.Info("remote push", "tasks", len(tasks), "inserted", n)
	s.report(ctx, "Synced with remote database", model.KindSuccess)
	return n, nil
}

// Pull fetches the server's tasks and upserts them by id; on conflict
// the remote copy wins.
func (s *Syncer) Pull(ctx context.Context) (int, error) {
	tasks, err := s.remote.Pull(ctx)
	if err != nil {
		s.logger.Error("remote pull failed", "err", err)
		s.report(ctx, "Failed to pull from remote database", model.KindDanger)
		return 0, err
	}

	if err := s.tracker.Merge(ctx, tasks); err != nil {
		s.report(ctx, "Failed to pull from remote database", model.KindDanger)
		return 0, err
	}

	s.logger.Info("remote pull", "tasks", len(tasks))
	s.report(ctx, "Pulled tasks from remote database", model.KindSuccess)
	return len(tasks), nil
}

func (s *Syncer) report(ctx context.Context, msg string, kind model.Kind) {
	if _, err := s.tracker.Notify(ctx, model.NotificationRequest{Message: msg, Kind: kind}); err != nil {
		s.logger.Warn("recording sync notification", "err", err)
	}
}
