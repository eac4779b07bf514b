// Package scheduler fires the daily acquisition on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

var (
	// ErrSchedulerArmed is returned by Start on an armed scheduler
	ErrSchedulerArmed = errors.New("scheduler already armed")
	// ErrSchedulerIdle is returned by Stop on an idle scheduler
	ErrSchedulerIdle = errors.New("scheduler not armed")
)

// Job is a unit of scheduled work
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// State is the scheduler lifecycle state
type State string

const (
	StateIdle  State = "idle"
	StateArmed State = "armed"
)

// Scheduler owns one cron entry evaluated in a fixed timezone
type Scheduler struct {
	mu       sync.Mutex
	spec     string
	schedule cron.Schedule
	loc      *time.Location
	job      Job
	cron     *cron.Cron
	entry    cron.EntryID
	state    State
	cancel   context.CancelFunc
	log      zerolog.Logger
}

// New creates an idle scheduler for job. spec is a standard 5-field cron
// expression interpreted in loc.
func New(spec string, loc *time.Location, job Job, log zerolog.Logger) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		spec:     spec,
		schedule: schedule,
		loc:      loc,
		job:      job,
		state:    StateIdle,
		log:      log.With().Str("component", "scheduler").Logger(),
	}, nil
}

// Start registers the job and starts the cron loop
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateArmed {
		return ErrSchedulerArmed
	}

	s.cron = cron.New(cron.WithLocation(s.loc))
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.entry = s.cron.Schedule(s.schedule, cron.FuncJob(func() { s.fire(runCtx) }))
	s.cron.Start()
	s.state = StateArmed

	s.log.Info().
		Str("schedule", s.spec).
		Str("timezone", s.loc.String()).
		Str("job", s.job.Name()).
		Time("next_run", s.cron.Entry(s.entry).Next).
		Msg("Scheduler started")
	return nil
}

// Stop removes the entry and waits for an in-flight run to finish. If ctx
// ends first the in-flight run is cancelled, and Stop still waits for it to
// return. No job starts after Stop returns.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateArmed {
		return ErrSchedulerIdle
	}

	s.cron.Remove(s.entry)
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn().Str("job", s.job.Name()).Msg("Shutdown deadline reached, cancelling in-flight run")
		s.cancel()
		<-done.Done()
	}
	s.cancel()
	s.state = StateIdle

	s.log.Info().Msg("Scheduler stopped")
	return nil
}

// State returns the lifecycle state
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NextRun returns the next fire time while armed
func (s *Scheduler) NextRun() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateArmed {
		return time.Time{}, false
	}
	next := s.cron.Entry(s.entry).Next
	if next.IsZero() {
		next = s.schedule.Next(time.Now().In(s.loc))
	}
	return next, true
}

// fire must not take s.mu: Stop holds it while waiting for running jobs
func (s *Scheduler) fire(ctx context.Context) {
	name := s.job.Name()
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			s.log.Error().Str("job", name).Interface("panic", p).Msg("Job panicked")
		}
	}()

	s.log.Debug().Str("job", name).Msg("Running job")
	if err := s.job.Run(ctx); err != nil {
		s.log.Error().
			Err(err).
			Str("job", name).
			Dur("duration", time.Since(start)).
			Msg("Job failed")
		return
	}
	s.log.Debug().Str("job", name).Dur("duration", time.Since(start)).Msg("Job completed")
}
