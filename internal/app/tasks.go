package app

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/novatasks/internal/model"
	"github.com/nhle/novatasks/internal/tracker"
)

// tasksLoadedMsg carries a fresh snapshot of the tracker state.
type tasksLoadedMsg struct {
	view          []model.Task
	all           []model.Task
	notifications []model.Notification
	err           error
}

// actionResultMsg is sent after a mutation finishes. The bus triggers the
// reload; this only carries the status line.
type actionResultMsg struct {
	status string
	err    error
}

// loadTasks reads the filtered view, the full collection and the
// notification log.
func loadTasks(tr *tracker.Tracker) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		view, err := tr.View(ctx)
		if err != nil {
			return tasksLoadedMsg{err: err}
		}
		all, err := tr.Tasks(ctx)
		if err != nil {
			return tasksLoadedMsg{err: err}
		}
		return tasksLoadedMsg{view: view, all: all, notifications: tr.Notifications()}
	}
}

// run wraps a tracker call in a tea.Cmd reporting status on success.
func run(status string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(context.Background()); err != nil {
			return actionResultMsg{err: err}
		}
		return actionResultMsg{status: status}
	}
}

func createTask(tr *tracker.Tracker, task model.Task) tea.Cmd {
	return run(fmt.Sprintf("Added %q", task.Title), func(ctx context.Context) error {
		_, err := tr.CreateTask(ctx, task)
		return err
	})
}

func updateTask(tr *tracker.Tracker, task model.Task) tea.Cmd {
	return run(fmt.Sprintf("Saved %q", task.Title), func(ctx context.Context) error {
		_, err := tr.UpdateTask(ctx, task)
		return err
	})
}

func deleteTask(tr *tracker.Tracker, task model.Task) tea.Cmd {
	return run(fmt.Sprintf("Deleted %q", task.Title), func(ctx context.Context) error {
		return tr.DeleteTask(ctx, task.ID)
	})
}

// toggleDone flips a task between Completed and Pending.
func toggleDone(tr *tracker.Tracker, task model.Task) tea.Cmd {
	next := model.StatusCompleted
	if task.IsCompleted() {
		next = model.StatusPending
	}
	return setStatus(tr, task, next)
}

// advance moves a task to the next board column, wrapping to Pending.
func advance(tr *tracker.Tracker, task model.Task) tea.Cmd {
	return setStatus(tr, task, nextStatus(task.Status))
}

func nextStatus(s model.Status) model.Status {
	for i, st := range model.Statuses {
		if st == s {
			return model.Statuses[(i+1)%len(model.Statuses)]
		}
	}
	return model.StatusPending
}

func setStatus(tr *tracker.Tracker, task model.Task, status model.Status) tea.Cmd {
	return run(fmt.Sprintf("%q is now %s", task.Title, status), func(ctx context.Context) error {
		_, err := tr.SetStatus(ctx, task.ID, status)
		return err
	})
}

func reorder(tr *tracker.Tracker, task model.Task, up bool) tea.Cmd {
	return run("", func(ctx context.Context) error {
		return tr.Reorder(ctx, task.ID, up)
	})
}

func clearAll(tr *tracker.Tracker) tea.Cmd {
	return run("Cleared all tasks", tr.ClearAll)
}

func renameCategory(tr *tracker.Tracker, from, to string) tea.Cmd {
	return func() tea.Msg {
		n, err := tr.RenameCategory(context.Background(), from, to)
		if err != nil {
			return actionResultMsg{err: err}
		}
		if to == "" {
			return actionResultMsg{status: fmt.Sprintf("Cleared %q from %d tasks", from, n)}
		}
		return actionResultMsg{status: fmt.Sprintf("Moved %d tasks to %q", n, to)}
	}
}

func markRead(tr *tracker.Tracker, id string) tea.Cmd {
	return run("", func(ctx context.Context) error { return tr.MarkRead(ctx, id) })
}

func markAllRead(tr *tracker.Tracker) tea.Cmd {
	return run("All notifications read", tr.MarkAllRead)
}

func removeNotification(tr *tracker.Tracker, id string) tea.Cmd {
	return run("", func(ctx context.Context) error { return tr.RemoveNotification(ctx, id) })
}

// exportTasks writes the collection to path as JSON.
func exportTasks(tr *tracker.Tracker, path string) tea.Cmd {
	return run("Exported to "+path, func(ctx context.Context) error {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		if err := tr.Export(ctx, f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})
}

// importTasks replaces the collection with the tasks in path.
func importTasks(tr *tracker.Tracker, path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return actionResultMsg{err: fmt.Errorf("opening import file: %w", err)}
		}
		defer f.Close()

		n, err := tr.Import(context.Background(), f)
		if err != nil {
			return actionResultMsg{err: err}
		}
		return actionResultMsg{status: fmt.Sprintf("Imported %d tasks", n)}
	}
}

func pushRemote(s Syncer) tea.Cmd {
	return func() tea.Msg {
		n, err := s.Push(context.Background())
		if err != nil {
			return actionResultMsg{err: err}
		}
		return actionResultMsg{status: fmt.Sprintf("Pushed tasks (%d stored remotely)", n)}
	}
}

func pullRemote(s Syncer) tea.Cmd {
	return func() tea.Msg {
		n, err := s.Pull(context.Background())
		if err != nil {
			return actionResultMsg{err: err}
		}
		return actionResultMsg{status: fmt.Sprintf("Pulled %d tasks", n)}
	}
}
