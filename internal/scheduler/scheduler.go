package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/oussamael/internhub/internal/pkg/logger"
)

// Job is a unit of periodic background work.
type Job interface {
	// Name returns the unique name of the job.
	Name() string

	// Run executes the job. The context is cancelled when the scheduler
	// stops.
	Run(ctx context.Context) error
}

// entry pairs a job with its interval.
type entry struct {
	job      Job
	interval time.Duration
}

// Scheduler runs registered jobs on fixed intervals. Each job ticks
// independently; a slow run delays only its own next tick.
type Scheduler struct {
	mu      sync.Mutex
	entries []entry
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	log     zerolog.Logger
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{log: logger.Component("scheduler")}
}

// Register adds a job to run every interval. Must be called before Start.
func (s *Scheduler) Register(job Job, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry{job: job, interval: interval})
}

// Start launches one goroutine per registered job. Calling Start twice is
// a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, e := range s.entries {
		s.wg.Add(1)
		go s.loop(ctx, e)
	}
	s.log.Info().Int("jobs", len(s.entries)).Msg("Scheduler started")
}

// Stop cancels all job loops and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.log.Info().Msg("Scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, e entry) {
	defer s.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOne(ctx, e.job)
		}
	}
}

func (s *Scheduler) runOne(ctx context.Context, job Job) {
	started := time.Now()
	s.log.Debug().Str("job", job.Name()).Msg("Job starting")

	if err := job.Run(ctx); err != nil {
		s.log.Error().Err(err).
			Str("job", job.Name()).
			Dur("duration", time.Since(started)).
			Msg("Job failed")
		return
	}
	s.log.Info().
		Str("job", job.Name()).
		Dur("duration", time.Since(started)).
		Msg("Job finished")
}
