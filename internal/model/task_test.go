package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestRecurrenceValidate(t *testing.T) {
	for _, f := range []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly} {
		if err := (Recurrence{Frequency: f, Interval: 1}).Validate(); err != nil {
			t.Errorf("%s: unexpected error %v", f, err)
		}
	}

	err := Recurrence{Frequency: "hourly"}.Validate()
	if !errors.Is(err, ErrUnrecognizedFrequency) {
		t.Fatalf("err = %v, want ErrUnrecognizedFrequency", err)
	}
}

func TestRecurrenceString(t *testing.T) {
	tests := []struct {
		rule Recurrence
		want string
	}{
		{Recurrence{FrequencyDaily, 1}, "every day"},
		{Recurrence{FrequencyDaily, 3}, "every 3 days"},
		{Recurrence{FrequencyWeekly, 0}, "every week"},
		{Recurrence{FrequencyMonthly, 2}, "every 2 months"},
		{Recurrence{FrequencyYearly, 1}, "every year"},
	}
	for _, tt := range tests {
		if got := tt.rule.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.rule, got, tt.want)
		}
	}
}

func TestTaskApplyDefaults(t *testing.T) {
	var task Task
	task.ApplyDefaults()

	if task.Title != "Untitled" || task.Priority != PriorityLow ||
		task.Status != StatusPending || task.Color != ColorDefault ||
		task.Category != DefaultCategory {
		t.Errorf("defaults not applied: %+v", task)
	}
	if task.Tags == nil {
		t.Error("Tags should be an empty slice, not nil")
	}
}

func TestTaskIsOverdue(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)

	open := Task{Status: StatusPending, Deadline: &past}
	if !open.IsOverdue(now) {
		t.Error("pending task past deadline should be overdue")
	}
	done := Task{Status: StatusCompleted, Deadline: &past}
	if done.IsOverdue(now) {
		t.Error("completed task is never overdue")
	}
	if (Task{Status: StatusPending}).IsOverdue(now) {
		t.Error("task without deadline is never overdue")
	}
}

func TestPriorityRank(t *testing.T) {
	if PriorityCritical.Rank() <= PriorityHigh.Rank() ||
		PriorityHigh.Rank() <= PriorityMedium.Rank() ||
		PriorityMedium.Rank() <= PriorityLow.Rank() {
		t.Error("priority ranks out of order")
	}
	if Priority("bogus").Rank() != PriorityLow.Rank() {
		t.Error("unknown priority should rank as Low")
	}
}

func TestTaskUnmarshalLegacyTimestamps(t *testing.T) {
	data := []byte(`{
		"id": "a1",
		"title": "Legacy",
		"desc": "from the browser export",
		"deadline": "2025-03-01T10:30",
		"createdAt": 1740823200000,
		"completedAt": null,
		"recurring": {"type": "weekly"}
	}`)

	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if task.Description != "from the browser export" {
		t.Errorf("Description = %q", task.Description)
	}
	want := time.Date(2025, time.March, 1, 10, 30, 0, 0, time.Local)
	if task.Deadline == nil || !task.Deadline.Equal(want) {
		t.Errorf("Deadline = %v, want %v", task.Deadline, want)
	}
	if !task.CreatedAt.Equal(time.UnixMilli(1740823200000)) {
		t.Errorf("CreatedAt = %v", task.CreatedAt)
	}
	if task.CompletedAt != nil {
		t.Errorf("CompletedAt = %v, want nil", task.CompletedAt)
	}
	if task.Recurring == nil || task.Recurring.Step() != 1 {
		t.Errorf("Recurring = %+v", task.Recurring)
	}
}

func TestTaskJSONRoundTrip(t *testing.T) {
	deadline := time.Date(2025, time.April, 2, 9, 0, 0, 0, time.UTC)
	in := Task{
		ID:        "r1",
		Title:     "Round trip",
		Deadline:  &deadline,
		CreatedAt: deadline.Add(-time.Hour),
		Tags:      []string{"x"},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}

	var out Task
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Deadline == nil || !out.Deadline.Equal(deadline) || !out.CreatedAt.Equal(in.CreatedAt) {
		t.Errorf("timestamps lost: %+v", out)
	}
}

func TestTaskUnmarshalRejectsBadTime(t *testing.T) {
	var task Task
	if err := json.Unmarshal([]byte(`{"deadline": "next tuesday"}`), &task); err == nil {
		t.Fatal("expected error")
	}
}
