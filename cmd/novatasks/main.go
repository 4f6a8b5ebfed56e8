// Command novatasks is a terminal task manager with recurring tasks,
// deadline alerts and optional remote and calendar sync.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/novatasks/internal/app"
	"github.com/nhle/novatasks/internal/credential"
	"github.com/nhle/novatasks/internal/gcal"
	"github.com/nhle/novatasks/internal/model"
	"github.com/nhle/novatasks/internal/remotesync"
	"github.com/nhle/novatasks/internal/scheduler"
	"github.com/nhle/novatasks/internal/store"
	"github.com/nhle/novatasks/internal/tracker"
)

var Version = "dev"

var (
	configPath string
	verbose    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "novatasks",
		Short:        "NovaTasks - a terminal task manager",
		Version:      Version,
		SilenceUsage: true,
		RunE:         runTUI,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "config file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "debug logging")

	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(doneCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(notificationsCmd())
	rootCmd.AddCommand(tickCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(calendarCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(tokenCmd())

	return rootCmd
}

// env is the state shared by the task subcommands.
type env struct {
	cfg     *model.AppConfig
	logger  *slog.Logger
	store   *store.SQLiteStore
	tracker *tracker.Tracker
}

func (e *env) Close() error {
	return e.store.Close()
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openEnv loads the config, opens the task database and builds the
// tracker. Logs go to w.
func openEnv(ctx context.Context, w io.Writer) (*env, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := newLogger(w)

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	st, err := store.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	tr, err := tracker.New(ctx, st, nil,
		tracker.WithLogger(logger),
		tracker.WithNotificationLimits(cfg.Notifications.MaxEntries, cfg.Retention(), cfg.SuppressionWindow()),
	)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &env{cfg: cfg, logger: logger, store: st, tracker: tr}, nil
}

// newSyncer returns the remote syncer, or nil when sync is disabled.
func (e *env) newSyncer() (*remotesync.Syncer, error) {
	if !e.cfg.Sync.Enabled {
		return nil, nil
	}
	if e.cfg.Sync.URL == "" {
		return nil, errors.New("sync.url is not set")
	}
	token, err := credential.SyncToken()
	if err != nil && !errors.Is(err, credential.ErrNotFound) {
		return nil, err
	}
	client := remotesync.NewClient(e.cfg.Sync.URL, token)
	return remotesync.NewSyncer(e.tracker, client, e.logger), nil
}

// newCalendar returns the calendar mirror, or nil when it is disabled.
func (e *env) newCalendar(ctx context.Context) (*gcal.CalendarClient, error) {
	if !e.cfg.Calendar.Enabled {
		return nil, nil
	}
	srv, err := gcal.NewService(ctx, e.cfg.Calendar.CredentialsFile, e.cfg.Calendar.TokenFile, e.logger)
	if err != nil {
		return nil, err
	}
	id, err := gcal.FindCalendar(ctx, srv, e.cfg.Calendar.Name)
	if err != nil {
		return nil, err
	}
	return gcal.NewCalendarClient(srv, id, e.logger), nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := os.MkdirAll(model.ConfigDir(), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	logFile, err := os.OpenFile(filepath.Join(model.ConfigDir(), "novatasks.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	e, err := openEnv(ctx, logFile)
	if err != nil {
		return err
	}
	defer e.Close()

	var syncer app.Syncer
	if s, err := e.newSyncer(); err != nil {
		e.logger.Warn("remote sync disabled", "err", err)
	} else if s != nil {
		syncer = s
	}

	var cal app.CalendarSyncer
	if c, err := e.newCalendar(ctx); err != nil {
		e.logger.Warn("calendar mirror disabled", "err", err)
	} else if c != nil {
		cal = c
	}

	sched := scheduler.New(e.logger)
	app.RegisterJobs(sched, e.tracker, e.cfg, syncer, cal, e.logger)

	m := app.New(app.Options{
		Tracker:    e.tracker,
		Scheduler:  sched,
		Syncer:     syncer,
		Config:     e.cfg,
		ConfigPath: configPath,
		Logger:     e.logger,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	sched.Stop()
	return err
}
