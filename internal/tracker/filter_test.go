package tracker

import (
	"testing"
	"time"

	"github.com/nhle/novatasks/internal/model"
)

func at(d time.Duration) *time.Time {
	t := filterNow.Add(d)
	return &t
}

var filterNow = time.Date(2025, time.March, 5, 15, 0, 0, 0, time.UTC)

func titles(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}

func sameTitles(got []model.Task, want ...string) bool {
	g := titles(got)
	if len(g) != len(want) {
		return false
	}
	for i := range g {
		if g[i] != want[i] {
			return false
		}
	}
	return true
}

func TestFilterApply(t *testing.T) {
	tasks := []model.Task{
		{Title: "this morning", Deadline: at(-10 * time.Hour), Category: "Work"},
		{Title: "tonight", Deadline: at(5 * time.Hour), Tags: []string{"errand"}},
		{Title: "in six days", Deadline: at(6 * 24 * time.Hour), Priority: model.PriorityHigh},
		{Title: "in seven days", Deadline: at(7 * 24 * time.Hour)},
		{Title: "yesterday", Deadline: at(-24 * time.Hour), Description: "Bring receipts"},
		{Title: "yesterday done", Deadline: at(-24 * time.Hour), Status: model.StatusCompleted},
		{Title: "repeats", Recurring: &model.Recurrence{Frequency: model.FrequencyWeekly}},
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, titles(tasks)},
		{"today counts past hours", Filter{Date: DateToday}, []string{"this morning", "tonight"}},
		{"week excludes day seven", Filter{Date: DateWeek}, []string{"this morning", "tonight", "in six days"}},
		{"overdue is by day and skips completed", Filter{Date: DateOverdue}, []string{"yesterday"}},
		{"recurring", Filter{Date: DateRecurring}, []string{"repeats"}},
		{"category", Filter{Category: "work"}, []string{"this morning"}},
		{"priority", Filter{Priority: model.PriorityHigh}, []string{"in six days"}},
		{"query tags", Filter{Query: "ERRAND"}, []string{"tonight"}},
		{"query description", Filter{Query: " receipts "}, []string{"yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(tasks, filterNow)
			if !sameTitles(got, tt.want...) {
				t.Errorf("got %v, want %v", titles(got), tt.want)
			}
		})
	}
}

func TestSortTasks(t *testing.T) {
	base := []model.Task{
		{Title: "b", Category: "zeta", Priority: model.PriorityLow, SortOrder: 2, CreatedAt: filterNow.Add(time.Hour)},
		{Title: "C", Category: "Alpha", Priority: model.PriorityCritical, SortOrder: 3, Deadline: at(time.Hour)},
		{Title: "a", Category: "mid", Priority: model.PriorityHigh, SortOrder: 1, CreatedAt: filterNow, Deadline: at(2 * time.Hour)},
	}

	tests := []struct {
		mode SortMode
		want []string
	}{
		{SortCustom, []string{"a", "b", "C"}},
		{SortDeadline, []string{"C", "a", "b"}},
		{SortPriority, []string{"C", "a", "b"}},
		{SortCreated, []string{"C", "a", "b"}},
		{SortTitle, []string{"a", "b", "C"}},
		{SortCategory, []string{"C", "a", "b"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			tasks := append([]model.Task(nil), base...)
			SortTasks(tasks, tt.mode)
			if !sameTitles(tasks, tt.want...) {
				t.Errorf("got %v, want %v", titles(tasks), tt.want)
			}
		})
	}
}

func TestComputeStats(t *testing.T) {
	tasks := []model.Task{
		{Status: model.StatusCompleted},
		{Status: model.StatusCompleted, Deadline: at(-time.Hour)},
		{Status: model.StatusPending, Deadline: at(-time.Hour)},
	}
	s := ComputeStats(tasks, filterNow)
	if s.Total != 3 || s.Completed != 2 || s.Overdue != 1 {
		t.Errorf("stats = %+v", s)
	}
	if s.Percent() != 67 {
		t.Errorf("Percent = %d, want 67", s.Percent())
	}
	if (Stats{}).Percent() != 0 {
		t.Error("empty Percent should be 0")
	}
}

func TestCategories(t *testing.T) {
	tasks := []model.Task{{Category: "Work"}, {Category: "home"}, {Category: "work"}, {Category: " "}}
	got := Categories(tasks)
	if len(got) != 2 || got[0] != "home" || got[1] != "Work" {
		t.Errorf("Categories = %v", got)
	}
}
