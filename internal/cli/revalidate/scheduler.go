package revalidate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/travelsystem/tso/internal/cli/bootstrap"
)

// Standard 5-field cron expressions plus descriptors such as "@every 5m"
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Runner performs one session check
type Runner interface {
	Run(ctx context.Context) (bootstrap.State, error)
}

// Scheduler re-validates the admin session on a cron schedule. Each tick runs
// a fresh bootstrap; an overlapping tick supersedes the previous one.
type Scheduler struct {
	runner  Runner
	timeout time.Duration
	logger  zerolog.Logger

	cron     *cron.Cron
	schedule string

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler validates schedule and prepares a scheduler. timeout bounds
// each check.
func NewScheduler(runner Runner, schedule string, timeout time.Duration, logger zerolog.Logger) (*Scheduler, error) {
	if _, err := parser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("invalid revalidation schedule %q: %w", schedule, err)
	}

	s := &Scheduler{
		runner:   runner,
		timeout:  timeout,
		logger:   logger,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(parser)),
	}
	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return nil, fmt.Errorf("failed to schedule revalidation: %w", err)
	}
	return s, nil
}

// Start begins running checks until ctx ends or Stop is called
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info().
		Str("schedule", s.schedule).
		Time("next_run", s.Next(time.Now())).
		Msg("Session revalidation started")
}

// Stop halts the schedule, cancels an in-flight check and waits for it
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Session revalidation stopped")
}

// RunOnce runs a single check outside the schedule
func (s *Scheduler) RunOnce(ctx context.Context) (bootstrap.State, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.runner.Run(ctx)
}

// Next returns the next scheduled run after from
func (s *Scheduler) Next(from time.Time) time.Time {
	sched, err := parser.Parse(s.schedule)
	if err != nil {
		return time.Time{}
	}
	return sched.Next(from)
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	state, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Session revalidation did not settle")
		return
	}

	event := s.logger.Debug()
	if state != bootstrap.StateAuthenticated {
		event = s.logger.Warn()
	}
	event.Str("state", state.String()).Msg("Session revalidated")
}
