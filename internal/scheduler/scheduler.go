// Package scheduler runs named background jobs on cron specs. A job never
// overlaps itself: a trigger that arrives while the job is running is
// dropped and counted.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frahmantamala/performance-tracker/internal"
	"github.com/robfig/cron/v3"
)

var ErrUnknownJob = internal.NewNotFoundError("unknown job", internal.ErrCodeUnknownJob)

type JobFunc func(ctx context.Context) error

type JobStats struct {
	Name     string `json:"name"`
	Spec     string `json:"spec"`
	Running  bool   `json:"running"`
	Runs     int64  `json:"runs"`
	Failures int64  `json:"failures"`
	Skipped  int64  `json:"skipped"`
}

type job struct {
	name     string
	spec     string
	fn       JobFunc
	running  atomic.Bool
	runs     atomic.Int64
	failures atomic.Int64
	skipped  atomic.Int64
}

type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.RWMutex
	jobs    map[string]*job
	stopped bool
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

func New(location *time.Location, logger *slog.Logger) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(location)),
		logger: logger,
		jobs:   make(map[string]*job),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Register adds a job. An empty spec registers a job that only runs when
// triggered.
func (s *Scheduler) Register(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	j := &job{name: name, spec: spec, fn: fn}
	if spec != "" {
		if _, err := s.cron.AddFunc(spec, func() { _, _ = s.runGuarded(s.ctx, j, "schedule") }); err != nil {
			return fmt.Errorf("invalid cron spec %q for job %q: %w", spec, name, err)
		}
	}
	s.jobs[name] = j

	s.logger.Info("job registered", "job", name, "spec", spec)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.jobs))
}

// Stop halts the cron loop, cancels running jobs and waits for them to
// return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	cronDone := s.cron.Stop()
	s.cancel()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out with jobs still running")
		return ctx.Err()
	}
}

// TryRun runs the job in the calling goroutine. It reports false without
// running when the job is already in progress.
func (s *Scheduler) TryRun(ctx context.Context, name string) (bool, error) {
	j, err := s.job(name)
	if err != nil {
		return false, err
	}
	return s.runGuarded(ctx, j, "manual")
}

// Trigger starts the job in the background. It reports false when the job
// is already in progress.
func (s *Scheduler) Trigger(name string) (bool, error) {
	j, err := s.job(name)
	if err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return false, fmt.Errorf("scheduler is stopped")
	}

	if !j.running.CompareAndSwap(false, true) {
		s.skip(j, "manual")
		return false, nil
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer j.running.Store(false)
		s.execute(s.ctx, j, "manual")
	}()
	return true, nil
}

func (s *Scheduler) Stats() []JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make([]JobStats, 0, len(s.jobs))
	for _, j := range s.jobs {
		stats = append(stats, JobStats{
			Name:     j.name,
			Spec:     j.spec,
			Running:  j.running.Load(),
			Runs:     j.runs.Load(),
			Failures: j.failures.Load(),
			Skipped:  j.skipped.Load(),
		})
	}
	sort.Slice(stats, func(i, k int) bool { return stats[i].Name < stats[k].Name })
	return stats
}

func (s *Scheduler) job(name string) (*job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[name]
	if !ok {
		return nil, ErrUnknownJob
	}
	return j, nil
}

func (s *Scheduler) runGuarded(ctx context.Context, j *job, trigger string) (bool, error) {
	if !j.running.CompareAndSwap(false, true) {
		s.skip(j, trigger)
		return false, nil
	}
	defer j.running.Store(false)
	return true, s.execute(ctx, j, trigger)
}

func (s *Scheduler) skip(j *job, trigger string) {
	skipped := j.skipped.Add(1)
	s.logger.Warn("job already running, trigger skipped", "job", j.name, "trigger", trigger, "skipped_total", skipped)
}

func (s *Scheduler) execute(ctx context.Context, j *job, trigger string) (err error) {
	started := time.Now()
	j.runs.Add(1)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %q panicked: %v", j.name, r)
		}
		if err != nil {
			j.failures.Add(1)
			s.logger.Error("job failed", "job", j.name, "trigger", trigger, "error", err, "duration", time.Since(started).String())
			return
		}
		s.logger.Info("job finished", "job", j.name, "trigger", trigger, "duration", time.Since(started).String())
	}()

	s.logger.Info("job started", "job", j.name, "trigger", trigger)
	return j.fn(ctx)
}
