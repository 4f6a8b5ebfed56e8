// Package scheduler runs the periodic background jobs: rolling recurring
// tasks, scanning deadlines and mirroring to remote services.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// State is the current state of a job.
type State int

const (
	Idle State = iota
	Running
	Failed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Failed:
		return "error"
	default:
		return "idle"
	}
}

// Default job names and intervals.
const (
	JobRecurring  = "recurring"
	JobDeadlines  = "deadlines"
	JobRemotePush = "remote-push"
	JobCalendar   = "calendar"

	DefaultInterval     = 60 * time.Second
	DefaultPushInterval = 5 * time.Minute
)

// jobTimeout bounds a single run.
const jobTimeout = 30 * time.Second

// Job is a named unit of periodic work.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Status holds the run state of a single job.
type Status struct {
	Job     string
	State   State
	LastRun time.Time
	Error   error
}

// ResultMsg is a tea.Msg sent each time a job finishes.
type ResultMsg struct {
	Job      string
	Error    error
	Duration time.Duration
}

// Scheduler runs registered jobs once at start and then on their interval.
// All jobs share one worker goroutine, so runs never overlap.
type Scheduler struct {
	jobs      []Job
	statuses  map[string]*Status
	resultCh  chan ResultMsg
	triggerCh chan string
	stopCh    chan struct{}
	doneCh    chan struct{}
	mu        sync.Mutex
	running   bool
	logger    *slog.Logger
}

// New creates an empty scheduler. A nil logger discards output.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		statuses:  make(map[string]*Status),
		resultCh:  make(chan ResultMsg, 16),
		triggerCh: make(chan string, 16),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		logger:    logger,
	}
}

// Register adds a job. Jobs registered after Start are ignored.
// A non-positive interval uses DefaultInterval.
func (s *Scheduler) Register(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	if job.Interval <= 0 {
		job.Interval = DefaultInterval
	}
	s.jobs = append(s.jobs, job)
	s.statuses[job.Name] = &Status{Job: job.Name, State: Idle}
}

// Start launches the worker and returns a tea.Cmd that waits for the first
// result. Subsequent results are read with WaitForNextResult.
func (s *Scheduler) Start() tea.Cmd {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	jobs := make([]Job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	go s.loop(jobs)

	return s.waitForResult()
}

// Stop halts the worker and waits for an in-flight job to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	<-s.doneCh
}

// Trigger asks the worker to run a job now. The request is dropped if the
// worker already has a backlog.
func (s *Scheduler) Trigger(name string) {
	select {
	case s.triggerCh <- name:
	default:
	}
}

// Statuses returns the status of every job in registration order.
func (s *Scheduler) Statuses() []Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Status, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, *s.statuses[j.Name])
	}
	return out
}

func (s *Scheduler) loop(jobs []Job) {
	defer close(s.doneCh)

	if len(jobs) == 0 {
		<-s.stopCh
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-s.stopCh
		cancel()
	}()

	next := make([]time.Time, len(jobs))
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		for i, job := range jobs {
			if s.stopped() {
				return
			}
			if time.Now().Before(next[i]) {
				continue
			}
			s.runJob(ctx, job)
			next[i] = time.Now().Add(job.Interval)
		}

		timer.Reset(time.Until(earliest(next)))

		select {
		case <-s.stopCh:
			return
		case <-timer.C:
		case name := <-s.triggerCh:
			for i, job := range jobs {
				if job.Name == name {
					s.runJob(ctx, job)
					next[i] = time.Now().Add(job.Interval)
				}
			}
		}
	}
}

func (s *Scheduler) stopped() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

func earliest(ts []time.Time) time.Time {
	var first time.Time
	for i, t := range ts {
		if i == 0 || t.Before(first) {
			first = t
		}
	}
	return first
}

// runJob performs a single run, records its status and publishes a result.
func (s *Scheduler) runJob(ctx context.Context, job Job) {
	s.setStatus(job.Name, Running, nil)

	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	err := s.safeRun(ctx, job)
	elapsed := time.Since(start)

	if err != nil {
		s.setStatus(job.Name, Failed, err)
		s.logger.Error("job failed", "job", job.Name, "err", err, "elapsed", elapsed)
	} else {
		s.setStatus(job.Name, Idle, nil)
		s.logger.Debug("job finished", "job", job.Name, "elapsed", elapsed)
	}

	s.sendResult(ResultMsg{Job: job.Name, Error: err, Duration: elapsed})
}

func (s *Scheduler) safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Job: job.Name, Value: r}
		}
	}()
	return job.Run(ctx)
}

// setStatus updates the status of a job.
func (s *Scheduler) setStatus(name string, state State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.statuses[name]
	if !ok {
		return
	}

	status.State = state
	status.Error = err
	if state != Running {
		status.LastRun = time.Now()
	}
}

// sendResult sends a ResultMsg on the result channel without blocking.
func (s *Scheduler) sendResult(msg ResultMsg) {
	select {
	case s.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the worker
	}
}

func (s *Scheduler) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-s.resultCh:
			return result
		case <-s.doneCh:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next job result.
// Call it after handling a ResultMsg to keep listening.
func (s *Scheduler) WaitForNextResult() tea.Cmd {
	return s.waitForResult()
}
