package notify

import (
	"fmt"
	"testing"
	"time"

	"github.com/nhle/novatasks/internal/model"
)

var now = time.Date(2025, time.April, 2, 10, 0, 0, 0, time.UTC)

func taskDue(id string, d time.Duration) model.Task {
	deadline := now.Add(d)
	return model.Task{ID: id, Title: "Pay rent", Status: model.StatusPending, Deadline: &deadline}
}

// record appends the requests to log the way the tracker does.
func record(l *Log, reqs []model.NotificationRequest, at time.Time) {
	for _, r := range reqs {
		l.Append(r, at)
	}
}

func TestScanDueSoon(t *testing.T) {
	tasks := []model.Task{taskDue("t1", 30*time.Minute)}

	got := Scan(tasks, nil, now)
	if len(got) != 1 {
		t.Fatalf("got %d alerts, want 1", len(got))
	}
	if got[0].Kind != model.KindWarning || got[0].TaskID != "t1" {
		t.Errorf("alert = %+v", got[0])
	}
	if want := `Task "Pay rent" is due in less than an hour!`; got[0].Message != want {
		t.Errorf("Message = %q, want %q", got[0].Message, want)
	}

	l := NewLog(0, 0)
	record(l, got, now)
	if again := Scan(tasks, l.Items(), now); len(again) != 0 {
		t.Fatalf("second scan produced %d alerts, want 0", len(again))
	}
}

func TestScanBoundaries(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want model.Kind
	}{
		{"exactly one hour", time.Hour, model.KindWarning},
		{"just over an hour", time.Hour + time.Second, ""},
		{"exactly now", 0, ""},
		{"one second late", -time.Second, model.KindDanger},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Scan([]model.Task{taskDue("t", tt.d)}, nil, now)
			if tt.want == "" {
				if len(got) != 0 {
					t.Fatalf("got %+v, want none", got)
				}
				return
			}
			if len(got) != 1 || got[0].Kind != tt.want {
				t.Fatalf("got %+v, want one %s", got, tt.want)
			}
		})
	}
}

func TestScanOverdueOncePerWindow(t *testing.T) {
	tasks := []model.Task{taskDue("t1", -10*time.Minute)}
	l := NewLog(0, 0)

	alerts := 0
	// One tick per minute over three hours.
	for i := 0; i < 180; i++ {
		at := now.Add(time.Duration(i) * time.Minute)
		reqs := Scan(tasks, l.Items(), at)
		for _, r := range reqs {
			if r.Kind != model.KindDanger {
				t.Fatalf("unexpected kind %s", r.Kind)
			}
		}
		alerts += len(reqs)
		record(l, reqs, at)
	}
	if alerts != 3 {
		t.Fatalf("got %d overdue alerts over 3h, want 3", alerts)
	}
}

func TestScanSkipsCompletedAndUndated(t *testing.T) {
	done := taskDue("done", -time.Hour)
	done.Status = model.StatusCompleted
	undated := model.Task{ID: "u", Title: "Someday", Status: model.StatusPending}

	if got := Scan([]model.Task{done, undated}, nil, now); len(got) != 0 {
		t.Fatalf("got %+v, want none", got)
	}
}

func TestScanSuppressionIsPerKind(t *testing.T) {
	task := taskDue("t1", -time.Minute)
	history := []model.Notification{
		{ID: "n1", TaskID: "t1", Kind: model.KindWarning, Timestamp: now.Add(-5 * time.Minute)},
	}
	got := Scan([]model.Task{task}, history, now)
	if len(got) != 1 || got[0].Kind != model.KindDanger {
		t.Fatalf("a warning must not suppress a danger alert: %+v", got)
	}
}

func TestScanExpiredWindowRefires(t *testing.T) {
	task := taskDue("t1", 20*time.Minute)
	history := []model.Notification{
		{ID: "n1", TaskID: "t1", Kind: model.KindWarning, Timestamp: now.Add(-time.Hour)},
	}
	if got := Scan([]model.Task{task}, history, now); len(got) != 1 {
		t.Fatalf("got %d alerts, want 1 after window expiry", len(got))
	}
}

func TestScannerCustomWindow(t *testing.T) {
	task := taskDue("t1", -time.Minute)
	history := []model.Notification{
		{ID: "n1", TaskID: "t1", Kind: model.KindDanger, Timestamp: now.Add(-20 * time.Minute)},
	}
	if got := (Scanner{Window: 15 * time.Minute}).Scan([]model.Task{task}, history, now); len(got) != 1 {
		t.Fatalf("got %d alerts, want 1 with 15m window", len(got))
	}
}

func TestCheckCreated(t *testing.T) {
	tests := []struct {
		name string
		task model.Task
		want bool
	}{
		{"due in 3 hours", taskDue("a", 3*time.Hour), true},
		{"due in exactly 24 hours", taskDue("b", 24*time.Hour), true},
		{"due in 2 days", taskDue("c", 48*time.Hour), false},
		{"already past", taskDue("d", -time.Minute), false},
		{"no deadline", model.Task{Title: "x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, ok := CheckCreated(tt.task, now)
			if ok != tt.want {
				t.Fatalf("ok = %v, want %v", ok, tt.want)
			}
			if ok && (req.Kind != model.KindWarning || req.TaskID != "") {
				t.Errorf("req = %+v", req)
			}
		})
	}
}

func TestLogCapAndOrder(t *testing.T) {
	l := NewLog(50, 0)
	for i := 0; i < 60; i++ {
		l.Append(model.NotificationRequest{Message: fmt.Sprintf("n%d", i)}, now.Add(time.Duration(i)*time.Second))
	}

	items := l.Items()
	if len(items) != 50 {
		t.Fatalf("len = %d, want 50", len(items))
	}
	if items[0].Message != "n59" || items[49].Message != "n10" {
		t.Errorf("order wrong: first %q last %q", items[0].Message, items[49].Message)
	}
	if items[0].Kind != model.KindInfo {
		t.Errorf("default kind = %q, want info", items[0].Kind)
	}
}

func TestLogLoadPurgesOldEntries(t *testing.T) {
	l := NewLog(0, 0)
	l.Load([]model.Notification{
		{ID: "old", Timestamp: now.Add(-8 * 24 * time.Hour)},
		{ID: "older-edge", Timestamp: now.Add(-7 * 24 * time.Hour)},
		{ID: "a", Timestamp: now.Add(-2 * time.Hour)},
		{ID: "b", Timestamp: now.Add(-time.Hour)},
	}, now)

	items := l.Items()
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(items), items)
	}
	if items[0].ID != "b" || items[1].ID != "a" {
		t.Errorf("not newest first: %+v", items)
	}
}

func TestLogReadAndRemove(t *testing.T) {
	l := NewLog(0, 0)
	a := l.Append(model.NotificationRequest{Message: "a"}, now)
	b := l.Append(model.NotificationRequest{Message: "b"}, now)
	l.Append(model.NotificationRequest{Message: "c"}, now)

	if l.UnreadCount() != 3 {
		t.Fatalf("UnreadCount = %d, want 3", l.UnreadCount())
	}
	if !l.MarkRead(a.ID) || l.UnreadCount() != 2 {
		t.Fatalf("MarkRead failed, unread = %d", l.UnreadCount())
	}
	if l.MarkRead("missing") {
		t.Error("MarkRead reported success for a missing id")
	}
	if !l.Remove(b.ID) || l.Len() != 2 {
		t.Fatalf("Remove failed, len = %d", l.Len())
	}
	l.MarkAllRead()
	if l.UnreadCount() != 0 {
		t.Fatalf("UnreadCount after MarkAllRead = %d", l.UnreadCount())
	}
}

func TestLogRecent(t *testing.T) {
	l := NewLog(0, 0)
	l.Append(model.NotificationRequest{Message: "old"}, now.Add(-2*time.Hour))
	l.Append(model.NotificationRequest{Message: "new"}, now.Add(-10*time.Minute))

	got := l.Recent(time.Hour, now)
	if len(got) != 1 || got[0].Message != "new" {
		t.Fatalf("Recent = %+v", got)
	}
}
