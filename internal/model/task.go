package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the workflow state of a task. The three values double as the
// kanban board columns.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusInProcess Status = "In-Process"
	StatusCompleted Status = "Completed"
)

// Statuses lists every status in board column order.
var Statuses = []Status{StatusPending, StatusInProcess, StatusCompleted}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProcess, StatusCompleted:
		return true
	}
	return false
}

// Priority is the user-assigned importance of a task.
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// Rank orders priorities for sorting; higher is more urgent.
// Unknown values rank with Low.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Color is the accent shown on a task card.
type Color string

const (
	ColorDefault Color = "default"
	ColorBlue    Color = "blue"
	ColorGreen   Color = "green"
	ColorRed     Color = "red"
	ColorPurple  Color = "purple"
	ColorOrange  Color = "orange"
)

// Colors lists the accents offered by the task form.
var Colors = []Color{ColorDefault, ColorBlue, ColorGreen, ColorRed, ColorPurple, ColorOrange}

// Frequency is the unit a recurrence rule advances by.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Frequencies lists the recognized recurrence units.
var Frequencies = []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly}

// ErrUnrecognizedFrequency is reported for recurrence rules whose frequency
// is not one of the Frequency constants. Such rules usually come from
// imported data.
var ErrUnrecognizedFrequency = errors.New("unrecognized recurrence frequency")

// Recurrence describes how often a completed task regenerates.
type Recurrence struct {
	// Frequency is the calendar unit. The JSON key matches exported files.
	Frequency Frequency `json:"type" yaml:"type"`

	// Interval is the number of units between occurrences.
	// Values below 1 are treated as 1.
	Interval int `json:"interval" yaml:"interval"`
}

// Step returns the effective interval, never less than 1.
func (r Recurrence) Step() int {
	if r.Interval < 1 {
		return 1
	}
	return r.Interval
}

// Validate reports ErrUnrecognizedFrequency for unknown frequencies.
func (r Recurrence) Validate() error {
	switch r.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnrecognizedFrequency, string(r.Frequency))
}

// String renders the rule for display, e.g. "every 2 weeks".
func (r Recurrence) String() string {
	n := r.Step()
	unit := strings.TrimSuffix(string(r.Frequency), "ly")
	if r.Frequency == FrequencyDaily {
		unit = "day"
	}
	if n == 1 {
		return "every " + unit
	}
	return fmt.Sprintf("every %d %ss", n, unit)
}

// DefaultCategory is assigned to tasks saved without a category.
const DefaultCategory = "General"

// Task is a single user task.
type Task struct {
	ID          string      `json:"id" db:"id"`
	Title       string      `json:"title" db:"title"`
	Description string      `json:"desc" db:"description"`
	Category    string      `json:"category" db:"category"`
	Priority    Priority    `json:"priority" db:"priority"`
	Status      Status      `json:"status" db:"status"`
	Deadline    *time.Time  `json:"deadline,omitempty" db:"deadline"`
	Tags        []string    `json:"tags" db:"-"`
	Color       Color       `json:"color" db:"color"`
	Recurring   *Recurrence `json:"recurring,omitempty" db:"-"`
	SortOrder   int         `json:"order" db:"sort_order"`
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"`
	CompletedAt *time.Time  `json:"completedAt,omitempty" db:"completed_at"`
	UpdatedAt   time.Time   `json:"updatedAt" db:"updated_at"`

	// RolledAt records when the next occurrence of this recurring task was
	// generated. It guards against rolling the same completion twice.
	RolledAt *time.Time `json:"rolledAt,omitempty" db:"rolled_at"`
}

// IsCompleted reports whether the task is in the Completed column.
func (t Task) IsCompleted() bool { return t.Status == StatusCompleted }

// IsOverdue reports whether the deadline has passed for an unfinished task.
func (t Task) IsOverdue(now time.Time) bool {
	return t.Deadline != nil && t.Deadline.Before(now) && !t.IsCompleted()
}

// ApplyDefaults fills the fields that older or imported records may lack.
func (t *Task) ApplyDefaults() {
	if strings.TrimSpace(t.Title) == "" {
		t.Title = "Untitled"
	}
	if strings.TrimSpace(t.Category) == "" {
		t.Category = DefaultCategory
	}
	if t.Priority == "" {
		t.Priority = PriorityLow
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Color == "" {
		t.Color = ColorDefault
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
}

// NewTaskRequest asks the task store to create a task. The store assigns
// the identifier; every other field is taken as given.
type NewTaskRequest struct {
	// SourceID is the recurring task this request was rolled from, if any.
	SourceID string

	Task Task
}
