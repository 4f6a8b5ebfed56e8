package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// nextResult runs the tea.Cmd bridge with a deadline.
func nextResult(t *testing.T, s *Scheduler) ResultMsg {
	t.Helper()

	ch := make(chan ResultMsg, 1)
	go func() {
		msg, _ := s.WaitForNextResult()().(ResultMsg)
		ch <- msg
	}()

	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for job result")
		return ResultMsg{}
	}
}

func TestJobsRunOnceAtStartInOrder(t *testing.T) {
	s := New(nil)
	var a, b atomic.Int32
	s.Register(Job{Name: "a", Interval: time.Hour, Run: func(context.Context) error { a.Add(1); return nil }})
	s.Register(Job{Name: "b", Interval: time.Hour, Run: func(context.Context) error { b.Add(1); return nil }})

	s.Start()
	defer s.Stop()

	first := nextResult(t, s)
	second := nextResult(t, s)
	if first.Job != "a" || second.Job != "b" {
		t.Fatalf("order = %s, %s", first.Job, second.Job)
	}
	if a.Load() != 1 || b.Load() != 1 {
		t.Fatalf("runs = %d, %d", a.Load(), b.Load())
	}
}

func TestJobRepeatsOnInterval(t *testing.T) {
	s := New(nil)
	var runs atomic.Int32
	s.Register(Job{Name: "tick", Interval: 10 * time.Millisecond, Run: func(context.Context) error {
		runs.Add(1)
		return nil
	}})

	s.Start()
	for i := 0; i < 3; i++ {
		nextResult(t, s)
	}
	s.Stop()

	if runs.Load() < 3 {
		t.Fatalf("runs = %d, want at least 3", runs.Load())
	}
}

func TestJobsNeverOverlap(t *testing.T) {
	s := New(nil)
	var active, overlaps atomic.Int32
	work := func(context.Context) error {
		if active.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return nil
	}
	s.Register(Job{Name: "one", Interval: time.Millisecond, Run: work})
	s.Register(Job{Name: "two", Interval: time.Millisecond, Run: work})

	s.Start()
	for i := 0; i < 10; i++ {
		nextResult(t, s)
	}
	s.Stop()

	if overlaps.Load() != 0 {
		t.Fatalf("%d overlapping runs", overlaps.Load())
	}
}

func TestTriggerRunsImmediately(t *testing.T) {
	s := New(nil)
	s.Register(Job{Name: "push", Interval: time.Hour, Run: func(context.Context) error { return nil }})

	s.Start()
	defer s.Stop()
	nextResult(t, s)

	s.Trigger("push")
	if msg := nextResult(t, s); msg.Job != "push" {
		t.Fatalf("Job = %q", msg.Job)
	}
}

func TestFailuresAreRecorded(t *testing.T) {
	boom := errors.New("boom")
	s := New(nil)
	s.Register(Job{Name: "fails", Interval: time.Hour, Run: func(context.Context) error { return boom }})
	s.Register(Job{Name: "panics", Interval: time.Hour, Run: func(context.Context) error { panic("bad") }})
	s.Register(Job{Name: "fine", Interval: time.Hour, Run: func(context.Context) error { return nil }})

	s.Start()
	defer s.Stop()

	if msg := nextResult(t, s); !errors.Is(msg.Error, boom) {
		t.Errorf("fails: err = %v", msg.Error)
	}
	var pe *PanicError
	if msg := nextResult(t, s); !errors.As(msg.Error, &pe) || pe.Job != "panics" {
		t.Errorf("panics: err = %v", msg.Error)
	}
	if msg := nextResult(t, s); msg.Error != nil {
		t.Errorf("fine: err = %v", msg.Error)
	}

	statuses := s.Statuses()
	if len(statuses) != 3 {
		t.Fatalf("len(statuses) = %d", len(statuses))
	}
	if statuses[0].State != Failed || statuses[2].State != Idle || statuses[2].LastRun.IsZero() {
		t.Errorf("statuses = %+v", statuses)
	}
}

func TestStopCancelsRunningJob(t *testing.T) {
	s := New(nil)
	started := make(chan struct{})
	s.Register(Job{Name: "slow", Interval: time.Hour, Run: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}})

	s.Start()
	<-started

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	// A second Stop is a no-op.
	s.Stop()
}

func TestRegisterDefaultsInterval(t *testing.T) {
	s := New(nil)
	s.Register(Job{Name: "x", Run: func(context.Context) error { return nil }})
	if s.jobs[0].Interval != DefaultInterval {
		t.Fatalf("Interval = %v", s.jobs[0].Interval)
	}
}

func TestTriggerDropsWhenBacklogFull(t *testing.T) {
	s := New(nil)
	s.Register(Job{Name: "x", Interval: time.Hour, Run: func(context.Context) error { return nil }})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			s.Trigger("x")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Trigger blocked without a running worker")
	}
}
