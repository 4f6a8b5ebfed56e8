package tracker

import (
	"sort"
	"strings"
	"time"

	"github.com/nhle/novatasks/internal/model"
)

// DateFilter narrows the view by deadline.
type DateFilter string

const (
	DateAll       DateFilter = "all"
	DateToday     DateFilter = "today"
	DateWeek      DateFilter = "week"
	DateOverdue   DateFilter = "overdue"
	DateRecurring DateFilter = "recurring"
)

// DateFilters lists the date filters in menu order.
var DateFilters = []DateFilter{DateAll, DateToday, DateWeek, DateOverdue, DateRecurring}

// Filter is the active view filter. Empty fields match everything.
type Filter struct {
	Date     DateFilter
	Category string
	Priority model.Priority
	Query    string
}

// IsZero reports whether the filter matches every task.
func (f Filter) IsZero() bool {
	return (f.Date == "" || f.Date == DateAll) && f.Category == "" &&
		f.Priority == "" && strings.TrimSpace(f.Query) == ""
}

// Apply returns the tasks matching f. Day boundaries are taken in now's
// location.
func (f Filter) Apply(tasks []model.Task, now time.Time) []model.Task {
	today := startOfDay(now)
	q := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if !f.matchDate(t, today) {
			continue
		}
		if f.Category != "" && !strings.EqualFold(t.Category, f.Category) {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		if q != "" && !matchesQuery(t, q) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (f Filter) matchDate(t model.Task, today time.Time) bool {
	switch f.Date {
	case DateToday:
		return deadlineDayIn(t, today, today.AddDate(0, 0, 1))
	case DateWeek:
		return deadlineDayIn(t, today, today.AddDate(0, 0, 7))
	case DateOverdue:
		if t.Deadline == nil || t.IsCompleted() {
			return false
		}
		return startOfDay(t.Deadline.In(today.Location())).Before(today)
	case DateRecurring:
		return t.Recurring != nil
	}
	return true
}

func deadlineDayIn(t model.Task, from, to time.Time) bool {
	if t.Deadline == nil {
		return false
	}
	d := startOfDay(t.Deadline.In(from.Location()))
	return !d.Before(from) && d.Before(to)
}

func matchesQuery(t model.Task, q string) bool {
	fields := []string{t.Title, t.Description, strings.Join(t.Tags, " "), t.Category}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SortMode orders the task view.
type SortMode string

const (
	SortCustom   SortMode = "custom"
	SortDeadline SortMode = "deadline"
	SortPriority SortMode = "priority"
	SortCreated  SortMode = "created"
	SortTitle    SortMode = "title"
	SortCategory SortMode = "category"
)

// SortModes lists the sort modes in menu order.
var SortModes = []SortMode{SortCustom, SortDeadline, SortPriority, SortCreated, SortTitle, SortCategory}

// SortTasks sorts tasks in place. Ties keep their relative order.
func SortTasks(tasks []model.Task, mode SortMode) {
	var less func(a, b model.Task) bool
	switch mode {
	case SortDeadline:
		less = func(a, b model.Task) bool {
			switch {
			case a.Deadline == nil:
				return false
			case b.Deadline == nil:
				return true
			}
			return a.Deadline.Before(*b.Deadline)
		}
	case SortPriority:
		less = func(a, b model.Task) bool { return a.Priority.Rank() > b.Priority.Rank() }
	case SortCreated:
		less = func(a, b model.Task) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortTitle:
		less = func(a, b model.Task) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case SortCategory:
		less = func(a, b model.Task) bool { return strings.ToLower(a.Category) < strings.ToLower(b.Category) }
	default:
		less = func(a, b model.Task) bool { return a.SortOrder < b.SortOrder }
	}

	sort.SliceStable(tasks, func(i, j int) bool { return less(tasks[i], tasks[j]) })
}

// Stats summarizes the whole task collection.
type Stats struct {
	Total     int
	Completed int
	Overdue   int
}

// Percent is the completion ratio rounded to a whole percent.
func (s Stats) Percent() int {
	if s.Total == 0 {
		return 0
	}
	return (s.Completed*100 + s.Total/2) / s.Total
}

// ComputeStats counts tasks as of now.
func ComputeStats(tasks []model.Task, now time.Time) Stats {
	var s Stats
	s.Total = len(tasks)
	for _, t := range tasks {
		if t.IsCompleted() {
			s.Completed++
		}
		if t.IsOverdue(now) {
			s.Overdue++
		}
	}
	return s
}

// Categories returns the distinct non-empty categories, sorted. Case
// variants collapse onto the first spelling seen.
func Categories(tasks []model.Task) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range tasks {
		c := strings.TrimSpace(t.Category)
		if c == "" || seen[strings.ToLower(c)] {
			continue
		}
		seen[strings.ToLower(c)] = true
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}
