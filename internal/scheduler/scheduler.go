package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// JobFunc runs one batch job to completion.
type JobFunc func(ctx context.Context) error

// Job is a named batch job executed on a fixed interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      JobFunc
}

// Options tune scheduler behaviour.
type Options struct {
	// RunAtStart fires every job once immediately before interval ticking.
	RunAtStart bool
	// StartupDelay postpones the first activity after Run is called.
	StartupDelay time.Duration
}

// Scheduler drives fixed-interval execution of batch jobs. Job failures are
// logged and the cadence continues; retry policy beyond the next tick is not
// the scheduler's business.
type Scheduler struct {
	opts   Options
	jobs   []Job
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	return &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Add registers a job. Must be called before Run.
func (s *Scheduler) Add(job Job) {
	if job.Interval <= 0 {
		panic("scheduler job interval must be positive")
	}
	s.jobs = append(s.jobs, job)
}

// Run blocks, executing every registered job on its own interval until ctx is
// cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.opts.StartupDelay > 0 {
		timer := time.NewTimer(s.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	var wg sync.WaitGroup
	for _, job := range s.jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			s.runJob(ctx, job)
		}(job)
	}
	wg.Wait()
	return ctx.Err()
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	logger := s.logger.With().Str("job", job.Name).Logger()

	if s.opts.RunAtStart {
		s.execute(ctx, job, logger)
	}

	for {
		timer := time.NewTimer(job.Interval)
		logger.Debug().Dur("interval", job.Interval).Msg("waiting for next run")

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			timer.Stop()
		}

		s.execute(ctx, job, logger)
	}
}

func (s *Scheduler) execute(ctx context.Context, job Job, logger zerolog.Logger) {
	if ctx.Err() != nil {
		return
	}
	logger.Info().Msg("executing scheduled job")
	if err := job.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("job execution failed")
	}
}
