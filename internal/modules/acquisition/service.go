package acquisition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/petracker/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Acquirer gathers values for symbols on date
type Acquirer interface {
	Acquire(ctx context.Context, symbols []string, date string) ([]domain.AcquisitionResult, error)
}

// Persister stores acquisition results
type Persister interface {
	Persist(ctx context.Context, results []domain.AcquisitionResult) (int, error)
}

// RunRecorder keeps a history of runs
type RunRecorder interface {
	RecordRun(ctx context.Context, run domain.RunRecord) error
}

// Clock supplies the trading date a run is recorded under
type Clock interface {
	Today() string
}

// Service runs acquire → persist for the configured universe
type Service struct {
	acquirer Acquirer
	writer   Persister
	runs     RunRecorder
	universe domain.Universe
	clock    Clock
	now      func() time.Time
	log      zerolog.Logger
}

// NewService creates an acquisition service. runs may be nil.
func NewService(
	acquirer Acquirer,
	writer Persister,
	runs RunRecorder,
	universe domain.Universe,
	clock Clock,
	log zerolog.Logger,
) *Service {
	return &Service{
		acquirer: acquirer,
		writer:   writer,
		runs:     runs,
		universe: universe,
		clock:    clock,
		now:      time.Now,
		log:      log.With().Str("service", "acquisition").Logger(),
	}
}

// TriggerNow runs one acquisition synchronously. It fails only when
// persistence faults or ctx is cancelled; a run with no values is reported
// as degraded, not as an error.
func (s *Service) TriggerNow(ctx context.Context) (*domain.RunReport, error) {
	return s.run(ctx, domain.TriggerManual)
}

// RunScheduled is the scheduler entry point
func (s *Service) RunScheduled(ctx context.Context) (*domain.RunReport, error) {
	return s.run(ctx, domain.TriggerScheduled)
}

func (s *Service) run(ctx context.Context, trigger domain.Trigger) (*domain.RunReport, error) {
	symbols := s.universe.Symbols()
	report := &domain.RunReport{
		RunID:            uuid.New().String(),
		Trigger:          trigger,
		Date:             s.clock.Today(),
		SymbolsAttempted: len(symbols),
		ByTier:           make(map[domain.Tier]int),
		StartedAt:        s.now(),
	}
	log := s.log.With().
		Str("run_id", report.RunID).
		Str("trigger", string(trigger)).
		Str("date", report.Date).
		Logger()
	log.Info().Int("symbols", len(symbols)).Msg("Acquisition run started")

	err := s.acquireAndPersist(ctx, report, symbols)
	report.FinishedAt = s.now()
	s.record(ctx, report, err, log)

	if err != nil {
		log.Error().
			Err(err).
			Int("succeeded", report.SymbolsSucceeded).
			Int("rows_written", report.RowsWritten).
			Msg("Acquisition run failed")
		return report, err
	}

	event := log.Info()
	if report.Degraded() {
		event = log.Warn()
	}
	event.
		Int("attempted", report.SymbolsAttempted).
		Int("succeeded", report.SymbolsSucceeded).
		Int("rows_written", report.RowsWritten).
		Dur("duration", report.FinishedAt.Sub(report.StartedAt)).
		Msg("Acquisition run finished")
	return report, nil
}

func (s *Service) acquireAndPersist(ctx context.Context, report *domain.RunReport, symbols []string) error {
	results, acquireErr := s.acquirer.Acquire(ctx, symbols, report.Date)
	report.SymbolsSucceeded = len(results)
	for _, res := range results {
		report.ByTier[res.Tier]++
	}
	if acquireErr != nil {
		// Cancelled mid-acquisition: nothing is written
		return fmt.Errorf("acquisition interrupted: %w", acquireErr)
	}

	written, err := s.writer.Persist(ctx, results)
	report.RowsWritten = written
	if err != nil {
		return fmt.Errorf("failed to persist results: %w", err)
	}
	return nil
}

// record stores the run outside ctx so a cancelled run is still recorded
func (s *Service) record(ctx context.Context, report *domain.RunReport, runErr error, log zerolog.Logger) {
	if s.runs == nil {
		return
	}

	rec := domain.RunRecord{RunReport: *report, Status: report.Status(runErr)}
	if runErr != nil {
		rec.Error = runErr.Error()
	}

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.runs.RecordRun(recordCtx, rec); err != nil {
		log.Warn().Err(err).Msg("Failed to record run")
	}
}

// IsPersistenceFault reports whether err came from the store
func IsPersistenceFault(err error) bool {
	return errors.Is(err, domain.ErrPersistence)
}
