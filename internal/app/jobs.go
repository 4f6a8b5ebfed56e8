package app

import (
	"context"
	"log/slog"

	"github.com/nhle/novatasks/internal/gcal"
	"github.com/nhle/novatasks/internal/model"
	"github.com/nhle/novatasks/internal/scheduler"
	"github.com/nhle/novatasks/internal/tracker"
)

// Syncer pushes and pulls the task collection. *remotesync.Syncer
// satisfies it.
type Syncer interface {
	Push(ctx context.Context) (int, error)
	Pull(ctx context.Context) (int, error)
}

// CalendarSyncer mirrors task deadlines to a calendar.
// *gcal.CalendarClient satisfies it.
type CalendarSyncer interface {
	SyncAll(ctx context.Context, tasks []model.Task) (gcal.SyncReport, error)
}

// RegisterJobs adds the background jobs to s: the recurring roller and
// deadline scan always, the remote push and calendar mirror when
// configured. Nil syncers are skipped.
func RegisterJobs(
	s *scheduler.Scheduler,
	tr *tracker.Tracker,
	cfg *model.AppConfig,
	syncer Syncer,
	cal CalendarSyncer,
	logger *slog.Logger,
) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s.Register(scheduler.Job{
		Name:     scheduler.JobRecurring,
		Interval: cfg.TickInterval(),
		Run: func(ctx context.Context) error {
			report, err := tr.RollRecurring(ctx)
			if err != nil {
				return err
			}
			if len(report.Created) > 0 || len(report.Skipped) > 0 {
				logger.Info("recurring pass", "created", len(report.Created), "skipped", len(report.Skipped), "failed", report.Failed)
			}
			return nil
		},
	})

	s.Register(scheduler.Job{
		Name:     scheduler.JobDeadlines,
		Interval: cfg.TickInterval(),
		Run: func(ctx context.Context) error {
			_, err := tr.ScanDeadlines(ctx)
			return err
		},
	})

	if syncer != nil {
		s.Register(scheduler.Job{
			Name:     scheduler.JobRemotePush,
			Interval: cfg.SyncInterval(),
			Run: func(ctx context.Context) error {
				_, err := syncer.Push(ctx)
				return err
			},
		})
	}

	if cal != nil {
		s.Register(scheduler.Job{
			Name:     scheduler.JobCalendar,
			Interval: cfg.SyncInterval(),
			Run: func(ctx context.Context) error {
				tasks, err := tr.Tasks(ctx)
				if err != nil {
					return err
				}
				report, err := cal.SyncAll(ctx, tasks)
				logger.Debug("calendar sync", "created", report.Created, "updated", report.Updated, "deleted", report.Deleted)
				return err
			},
		})
	}
}
