package taskform

import (
	"testing"
	"time"

	"github.com/nhle/novatasks/internal/model"
)

func TestApplyBuildsTask(t *testing.T) {
	fb := &formBindings{
		title:     "  Pay rent ",
		category:  "",
		priority:  model.PriorityHigh,
		status:    model.StatusPending,
		deadline:  "2025-03-01 09:30",
		tags:      "home, money, ,home",
		color:     model.ColorRed,
		frequency: model.FrequencyMonthly,
		interval:  "2",
	}

	got := fb.apply(model.Task{})

	if got.Title != "Pay rent" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Category != model.DefaultCategory {
		t.Errorf("Category = %q", got.Category)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "home" || got.Tags[1] != "money" {
		t.Errorf("Tags = %v", got.Tags)
	}
	want := time.Date(2025, time.March, 1, 9, 30, 0, 0, time.Local)
	if got.Deadline == nil || !got.Deadline.Equal(want) {
		t.Errorf("Deadline = %v, want %v", got.Deadline, want)
	}
	if got.Recurring == nil || got.Recurring.Frequency != model.FrequencyMonthly || got.Recurring.Interval != 2 {
		t.Errorf("Recurring = %+v", got.Recurring)
	}
}

func TestApplyKeepsHiddenFields(t *testing.T) {
	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	base := model.Task{
		ID:        "t1",
		Title:     "Old",
		SortOrder: 7,
		CreatedAt: created,
		Recurring: &model.Recurrence{Frequency: model.FrequencyDaily, Interval: 1},
	}

	fb := &formBindings{}
	fb.load(base)
	fb.title = "New"
	fb.frequency = ""

	got := fb.apply(base)
	if got.ID != "t1" || got.SortOrder != 7 || !got.CreatedAt.Equal(created) {
		t.Errorf("hidden fields changed: %+v", got)
	}
	if got.Title != "New" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Recurring != nil {
		t.Errorf("Recurring = %+v, want cleared", got.Recurring)
	}
}

func TestStartCreatePrefillsDeadline(t *testing.T) {
	m := New(80, 30)
	day := time.Date(2025, time.June, 3, 0, 0, 0, 0, time.Local)
	m.StartCreate(&day)

	if m.fb.deadline != "2025-06-03 00:00" {
		t.Errorf("deadline = %q", m.fb.deadline)
	}
	if m.Editing() {
		t.Error("Editing = true")
	}
}

func TestValidators(t *testing.T) {
	if err := validateOptionalDeadline(""); err != nil {
		t.Errorf("empty deadline: %v", err)
	}
	if err := validateOptionalDeadline("tomorrow"); err == nil {
		t.Error("expected error for free text")
	}
	if err := validateInterval("0"); err == nil {
		t.Error("expected error for zero interval")
	}
	if err := validateInterval("3"); err != nil {
		t.Errorf("interval 3: %v", err)
	}
	if err := validateRequired("Title")("  "); err == nil {
		t.Error("expected required error")
	}
}
