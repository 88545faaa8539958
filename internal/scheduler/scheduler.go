// Package scheduler drives the refresh cycle on a cron clock.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"GoldPulse/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Job is one unit of scheduled work. Runs may overlap.
type Job interface {
	Run(ctx context.Context)
}

// JobFunc adapts a function to Job.
type JobFunc func(ctx context.Context)

func (f JobFunc) Run(ctx context.Context) { f(ctx) }

// Scheduler runs the refresh job once at start and then every interval, plus any
// housekeeping tasks registered with Every.
type Scheduler struct {
	cron     *cron.Cron
	job      Job
	interval time.Duration
	log      *logger.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

func New(interval time.Duration, job Job, log *logger.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("scheduler: interval must be positive, got %s", interval)
	}
	if job == nil {
		return nil, errors.New("scheduler: job is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:     cron.New(),
		job:      job,
		interval: interval,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	if _, err := s.cron.AddFunc("@every "+interval.String(), s.tick); err != nil {
		cancel()
		return nil, fmt.Errorf("register refresh job: %w", err)
	}
	return s, nil
}

// Every registers a housekeeping task on its own interval.
func (s *Scheduler) Every(interval time.Duration, name string, fn func()) error {
	if _, err := s.cron.AddFunc("@every "+interval.String(), fn); err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	return nil
}

// Start fires the job immediately and starts the cron clock.
func (s *Scheduler) Start() {
	s.cron.Start()
	go s.tick()
	s.log.Info("scheduler started", logger.Duration("interval", s.interval))
}

// Stop halts the clock, cancels in-flight runs and waits for them to return.
func (s *Scheduler) Stop(ctx context.Context) error {
	cronDone := s.cron.Stop()
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.cancel()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()
	s.job.Run(s.ctx)
}
