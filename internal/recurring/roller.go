package recurring

import (
	"time"

	"github.com/nhle/novatasks/internal/model"
)

// Diagnostic explains why a recurring task was left alone during a roll.
type Diagnostic struct {
	TaskID string
	Err    error
}

// RollResult is the outcome of a single pass over the task set.
type RollResult struct {
	// Requests holds one creation request per task that is due to roll.
	Requests []model.NewTaskRequest

	// Skipped lists recurring tasks that could not be rolled.
	Skipped []Diagnostic
}

// Roll returns a creation request for every completed recurring task whose
// next occurrence is due at or before now. It never mutates tasks.
//
// A task whose RolledAt is at or after its basis (completion time, or
// creation time when it was never stamped) has already produced its next
// occurrence and is not rolled again.
func Roll(tasks []model.Task, now time.Time) RollResult {
	var res RollResult

	for _, t := range tasks {
		if t.Recurring == nil || t.Status != model.StatusCompleted {
			continue
		}
		if err := t.Recurring.Validate(); err != nil {
			res.Skipped = append(res.Skipped, Diagnostic{TaskID: t.ID, Err: err})
			continue
		}

		basis := t.CreatedAt
		if t.CompletedAt != nil {
			basis = *t.CompletedAt
		}
		if t.RolledAt != nil && !t.RolledAt.Before(basis) {
			continue
		}

		nextDue, _ := NextDueDate(basis, t.Recurring)
		if nextDue.After(now) {
			continue
		}

		res.Requests = append(res.Requests, model.NewTaskRequest{
			SourceID: t.ID,
			Task:     nextOccurrence(t, now),
		})
	}

	return res
}

// nextOccurrence copies src into a fresh pending task created at now.
func nextOccurrence(src model.Task, now time.Time) model.Task {
	next := src
	next.ID = ""
	next.Status = model.StatusPending
	next.CompletedAt = nil
	next.RolledAt = nil
	next.SortOrder = 0 // appended by the store
	next.CreatedAt = now
	next.UpdatedAt = now

	if src.Tags != nil {
		next.Tags = append([]string(nil), src.Tags...)
	}
	rule := *src.Recurring
	next.Recurring = &rule

	if src.Deadline != nil {
		d, _ := NextDueDate(*src.Deadline, src.Recurring)
		next.Deadline = &d
	}

	return next
}
