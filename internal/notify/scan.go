// Package notify decides when tasks deserve a deadline alert and keeps the
// bounded, newest-first notification log.
package notify

import (
	"fmt"
	"time"

	"github.com/nhle/novatasks/internal/model"
)

const (
	// DueSoonWindow is how close a deadline must be for a due-soon warning.
	DueSoonWindow = time.Hour

	// SuppressionWindow is how long an alert for the same task and kind
	// blocks a repeat.
	SuppressionWindow = time.Hour

	// CreationWindow is how close a new task's deadline must be for the
	// one-off alert raised when the task is created.
	CreationWindow = 24 * time.Hour
)

// Scanner evaluates deadline alerts. The zero value uses SuppressionWindow.
type Scanner struct {
	Window time.Duration
}

// Lookback is how far back history must reach for Scan's suppression.
func (s Scanner) Lookback() time.Duration {
	return s.window()
}

func (s Scanner) window() time.Duration {
	if s.Window <= 0 {
		return SuppressionWindow
	}
	return s.Window
}

// Scan returns the alerts to raise at now for tasks with a deadline that
// are not completed. A task due within the hour yields a warning, an
// overdue task yields a danger alert. An alert is suppressed while history
// holds one for the same task and kind younger than the window.
func (s Scanner) Scan(tasks []model.Task, history []model.Notification, now time.Time) []model.NotificationRequest {
	var out []model.NotificationRequest

	for _, t := range tasks {
		if t.Deadline == nil || t.IsCompleted() {
			continue
		}

		delta := t.Deadline.Sub(now)
		var req model.NotificationRequest
		switch {
		case delta > 0 && delta <= DueSoonWindow:
			req = model.NotificationRequest{
				Message: fmt.Sprintf("Task \"%s\" is due in less than an hour!", t.Title),
				Kind:    model.KindWarning,
				TaskID:  t.ID,
			}
		case delta < 0:
			req = model.NotificationRequest{
				Message: fmt.Sprintf("Task \"%s\" is overdue!", t.Title),
				Kind:    model.KindDanger,
				TaskID:  t.ID,
			}
		default:
			continue
		}

		if s.suppressed(history, req, now) {
			continue
		}
		out = append(out, req)
	}

	return out
}

func (s Scanner) suppressed(history []model.Notification, req model.NotificationRequest, now time.Time) bool {
	for _, n := range history {
		if n.TaskID == req.TaskID && n.Kind == req.Kind && now.Sub(n.Timestamp) < s.window() {
			return true
		}
	}
	return false
}

// Scan runs the default Scanner.
func Scan(tasks []model.Task, history []model.Notification, now time.Time) []model.NotificationRequest {
	return Scanner{}.Scan(tasks, history, now)
}

// CheckCreated returns the one-off alert for a task that was just created
// with a deadline inside CreationWindow. The alert carries no task
// reference so it never suppresses the hourly deadline warning.
func CheckCreated(t model.Task, now time.Time) (model.NotificationRequest, bool) {
	if t.Deadline == nil {
		return model.NotificationRequest{}, false
	}
	delta := t.Deadline.Sub(now)
	if delta <= 0 || delta > CreationWindow {
		return model.NotificationRequest{}, false
	}
	return model.NotificationRequest{
		Message: fmt.Sprintf("Task \"%s\" is due soon!", t.Title),
		Kind:    model.KindWarning,
	}, true
}
