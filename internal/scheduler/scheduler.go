package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// JobFunc is a scheduled unit of work; ctx is cancelled when the scheduler stops
type JobFunc func(ctx context.Context) error

// ResultFunc observes every finished run
type ResultFunc func(job string, err error, took time.Duration)

// Scheduler runs named jobs on cron expressions. A job still running when
// its next tick arrives is skipped rather than overlapped.
type Scheduler struct {
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
	onResult ResultFunc

	mu   sync.Mutex
	jobs map[string]cron.EntryID
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithResultHook reports each run's outcome, e.g. to metrics
func WithResultHook(fn ResultFunc) Option {
	return func(s *Scheduler) {
		s.onResult = fn
	}
}

// New creates a stopped scheduler
func New(opts ...Option) *Scheduler {
	logger := cronLogger{log.Logger}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]cron.EntryID),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers a job under a unique name using a standard five-field spec
// or a descriptor such as "@daily"
func (s *Scheduler) Add(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already scheduled", name)
	}
	id, err := s.cron.AddFunc(spec, s.wrap(name, fn))
	if err != nil {
		return fmt.Errorf("scheduling %s with %q: %w", name, spec, err)
	}
	s.jobs[name] = id

	log.Info().Str("job", name).Str("spec", spec).Msg("Job scheduled")
	return nil
}

// Next returns the next run time of a job
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

// Jobs returns the number of registered jobs
func (s *Scheduler) Jobs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Start begins running jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return or for ctx to expire
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) wrap(name string, fn JobFunc) func() {
	return func() {
		started := time.Now()
		log.Info().Str("job", name).Msg("Job started")

		err := fn(s.ctx)
		took := time.Since(started)

		if err != nil {
			log.Error().Err(err).Str("job", name).Dur("took", took).Msg("Job failed")
		} else {
			log.Info().Str("job", name).Dur("took", took).Msg("Job finished")
		}
		if s.onResult != nil {
			s.onResult(name, err, took)
		}
	}
}

// cronLogger forwards cron's own messages to zerolog
type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
