// Package jobs runs background tasks on fixed intervals.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/akeren/clawsec-waitlist/internal/log"
	"github.com/robfig/cron/v3"
)

const defaultTaskTimeout = time.Minute

// TaskFunc is a unit of background work. Its context expires after the task timeout.
type TaskFunc func(ctx context.Context) error

var ErrUnknownTask = errors.New("jobs: unknown task")

type task struct {
	id       cron.EntryID
	fn       TaskFunc
	interval time.Duration
}

type Scheduler struct {
	cron    *cron.Cron
	logger  *log.Logger
	timeout time.Duration

	mu      sync.Mutex
	tasks   map[string]task
	running bool
}

func NewScheduler(logger *log.Logger, taskTimeout time.Duration) *Scheduler {
	if taskTimeout <= 0 {
		taskTimeout = defaultTaskTimeout
	}
	scoped := logger.WithScope("jobs")
	adapter := cronLogger{logger: scoped}

	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(adapter),
			cron.SkipIfStillRunning(adapter),
		)),
		logger:  scoped,
		timeout: taskTimeout,
		tasks:   make(map[string]task),
	}
}

// AddIntervalTask schedules fn every interval, replacing any task with the same name.
func (s *Scheduler) AddIntervalTask(name string, interval time.Duration, fn TaskFunc) error {
	if interval <= 0 {
		return fmt.Errorf("jobs: interval for %q must be positive", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.tasks[name]; ok {
		s.cron.Remove(existing.id)
	}

	id := s.cron.Schedule(cron.Every(interval), cron.FuncJob(func() { s.run(name, fn) }))
	s.tasks[name] = task{id: id, fn: fn, interval: interval}

	s.logger.Info("Interval task registered", "task", name, "interval", interval)
	return nil
}

// Trigger runs a registered task immediately on the caller's goroutine.
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	t, ok := s.tasks[name]
	s.mu.Unlock()

	if !ok {
		return ErrUnknownTask
	}
	return s.run(name, t.fn)
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	s.logger.Info("Scheduler started", "tasks", len(s.tasks))
}

// Stop waits for running tasks until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out; tasks still running")
	}
}

// Tasks returns the registered task names in order.
func (s *Scheduler) Tasks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) run(name string, fn TaskFunc) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := fn(ctx); err != nil {
		s.logger.Error("Scheduled task failed", "task", name, "error", err, "duration", time.Since(start))
		return err
	}

	s.logger.Debug("Scheduled task completed", "task", name, "duration", time.Since(start))
	return nil
}

// cronLogger routes cron's own diagnostics through the application logger.
type cronLogger struct {
	logger *log.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
