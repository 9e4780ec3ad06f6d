package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"carebridge/chat-api/internal/infrastructure/metrics"
)

// Job is one supervised periodic sweep.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)
}

// Supervisor owns the background sweeps. Every job runs on its own
// ticker with per-run panic recovery, so one failing sweep never takes
// down the others.
type Supervisor struct {
	jobs     []Job
	log      zerolog.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewSupervisor creates a supervisor for the given jobs.
func NewSupervisor(jobs []Job, log zerolog.Logger) *Supervisor {
	return &Supervisor{
		jobs:     jobs,
		log:      log.With().Str("component", "worker-supervisor").Logger(),
		stopChan: make(chan struct{}),
	}
}

// Start launches all jobs.
func (s *Supervisor) Start(ctx context.Context) error {
	s.log.Info().Int("jobs", len(s.jobs)).Msg("starting worker supervisor")

	g, ctx := errgroup.WithContext(ctx)
	for _, job := range s.jobs {
		job := job
		s.wg.Add(1)
		g.Go(func() error {
			defer s.wg.Done()
			s.runJob(ctx, job)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
	}()

	s.log.Info().Msg("worker supervisor started")
	return nil
}

// Stop signals all jobs and waits for them to finish, with a timeout.
func (s *Supervisor) Stop() {
	s.log.Info().Msg("stopping worker supervisor")
	close(s.stopChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info().Msg("all sweeps stopped gracefully")
	case <-time.After(30 * time.Second):
		s.log.Warn().Msg("worker supervisor shutdown timed out")
	}
}

func (s *Supervisor) runJob(ctx context.Context, job Job) {
	log := s.log.With().Str("job", job.Name).Logger()
	log.Info().Dur("interval", job.Interval).Msg("sweep started")

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("sweep stopped by context")
			return
		case <-s.stopChan:
			log.Info().Msg("sweep stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx, job, log)
		}
	}
}

// runOnce executes a single sweep pass, converting panics into logged
// failures so the ticker loop survives.
func (s *Supervisor) runOnce(ctx context.Context, job Job, log zerolog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordSweep(job.Name, "panic")
			log.Error().Interface("panic", r).Msg("sweep panicked")
		}
	}()

	job.Run(ctx)
	metrics.RecordSweep(job.Name, "ok")
}
