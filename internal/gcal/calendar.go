// Package gcal mirrors task deadlines to a Google Calendar as one-hour
// events.
package gcal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/nhle/novatasks/internal/model"
)

// TaskIDProperty is the private extended property linking an event to
// its task.
const TaskIDProperty = "novatasks_id"

// EventDuration is the length of a mirrored event.
const EventDuration = time.Hour

// Action is what SyncTask did to the calendar.
type Action int

const (
	ActionNone Action = iota
	ActionCreated
	ActionUpdated
	ActionDeleted
)

func (a Action) String() string {
	switch a {
	case ActionCreated:
		return "created"
	case ActionUpdated:
		return "updated"
	case ActionDeleted:
		return "deleted"
	default:
		return "unchanged"
	}
}

// SyncReport counts the outcome of SyncAll.
type SyncReport struct {
	Created   int
	Updated   int
	Deleted   int
	Unchanged int
	Failed    int
}

// Google Calendar event color ids for task colors.
var colorIDs = map[model.Color]string{
	model.ColorBlue:   "9",
	model.ColorGreen:  "10",
	model.ColorRed:    "11",
	model.ColorPurple: "3",
	model.ColorOrange: "6",
}

// CalendarClient creates, patches and deletes deadline events.
type CalendarClient struct {
	srv        *calendar.Service
	calendarID string
	logger     *slog.Logger
}

// NewCalendarClient wraps srv for the calendar with id calendarID.
func NewCalendarClient(srv *calendar.Service, calendarID string, logger *slog.Logger) *CalendarClient {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CalendarClient{srv: srv, calendarID: calendarID, logger: logger}
}

// FindCalendar returns the id of the calendar whose summary is name.
// An empty name selects the primary calendar.
func FindCalendar(ctx context.Context, srv *calendar.Service, name string) (string, error) {
	if name == "" {
		return "primary", nil
	}

	list, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("listing calendars: %w", err)
	}
	for _, item := range list.Items {
		if item.Summary == name {
			return item.Id, nil
		}
	}
	return "", fmt.Errorf("calendar %q not found", name)
}

// SyncTask makes the calendar reflect task: a dated, unfinished task has
// one event at its deadline; any other task has none.
func (c *CalendarClient) SyncTask(ctx context.Context, task model.Task) (Action, error) {
	existing, err := c.eventForTask(ctx, task.ID)
	if err != nil {
		return ActionNone, err
	}

	if task.Deadline == nil || task.IsCompleted() {
		if existing == nil {
			return ActionNone, nil
		}
		if err := c.srv.Events.Delete(c.calendarID, existing.Id).Context(ctx).Do(); err != nil {
			return ActionNone, fmt.Errorf("deleting event for task %s: %w", task.ID, err)
		}
		return ActionDeleted, nil
	}

	target := eventFor(task)
	if existing == nil {
		if _, err := c.srv.Events.Insert(c.calendarID, target).Context(ctx).Do(); err != nil {
			return ActionNone, fmt.Errorf("creating event for task %s: %w", task.ID, err)
		}
		return ActionCreated, nil
	}

	patch := eventPatch(existing, target)
	if patch == nil {
		return ActionNone, nil
	}
	if _, err := c.srv.Events.Patch(c.calendarID, existing.Id, patch).Context(ctx).Do(); err != nil {
		return ActionNone, fmt.Errorf("updating event for task %s: %w", task.ID, err)
	}
	return ActionUpdated, nil
}

// SyncAll syncs every task. A failing task is logged and counted, and
// the rest still sync.
func (c *CalendarClient) SyncAll(ctx context.Context, tasks []model.Task) (SyncReport, error) {
	var report SyncReport
	var errs []error
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		action, err := c.SyncTask(ctx, t)
		if err != nil {
			c.logger.Error("calendar sync failed", "task", t.ID, "err", err)
			report.Failed++
			errs = append(errs, err)
			continue
		}
		switch action {
		case ActionCreated:
			report.Created++
		case ActionUpdated:
			report.Updated++
		case ActionDeleted:
			report.Deleted++
		default:
			report.Unchanged++
		}
	}
	return report, errors.Join(errs...)
}

func (c *CalendarClient) eventForTask(ctx context.Context, taskID string) (*calendar.Event, error) {
	events, err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(TaskIDProperty + "=" + taskID).
		ShowDeleted(false).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("searching event for task %s: %w", taskID, err)
	}
	if len(events.Items) == 0 {
		return nil, nil
	}
	return events.Items[0], nil
}

// eventFor converts a dated task to its calendar event.
func eventFor(task model.Task) *calendar.Event {
	start := task.Deadline.UTC()
	return &calendar.Event{
		Summary:     task.Title,
		Description: task.Description,
		ColorId:     colorIDs[task.Color],
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: start.Add(EventDuration).Format(time.RFC3339)},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{TaskIDProperty: task.ID},
		},
	}
}

// eventPatch returns the fields of target that differ from existing, or
// nil when nothing changed.
func eventPatch(existing, target *calendar.Event) *calendar.Event {
	patch := &calendar.Event{}
	changed := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		changed = true
	}
	if existing.Description != target.Description {
		patch.Description = target.Description
		patch.ForceSendFields = append(patch.ForceSendFields, "Description")
		changed = true
	}
	if existing.ColorId != target.ColorId {
		patch.ColorId = target.ColorId
		patch.ForceSendFields = append(patch.ForceSendFields, "ColorId")
		changed = true
	}
	if !sameTime(existing.Start, target.Start) || !sameTime(existing.End, target.End) {
		patch.Start = target.Start
		patch.End = target.End
		changed = true
	}

	if !changed {
		return nil
	}
	return patch
}

func sameTime(a, b *calendar.EventDateTime) bool {
	if a == nil || b == nil {
		return a == b
	}
	ta, errA := time.Parse(time.RFC3339, a.DateTime)
	tb, errB := time.Parse(time.RFC3339, b.DateTime)
	if errA != nil || errB != nil {
		return false
	}
	return ta.Equal(tb)
}
