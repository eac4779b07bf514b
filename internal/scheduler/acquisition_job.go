package scheduler

import (
	"context"
	"time"

	"github.com/aristath/petracker/internal/domain"
	"github.com/rs/zerolog"
)

// ScheduledRunner runs one scheduled acquisition
type ScheduledRunner interface {
	RunScheduled(ctx context.Context) (*domain.RunReport, error)
}

// TradingCalendar decides whether the exchange trades on a given day
type TradingCalendar interface {
	Now() time.Time
	IsTradingDay(t time.Time) bool
}

// PostRunTask runs after a successful scheduled acquisition
type PostRunTask interface {
	Name() string
	AfterRun(ctx context.Context, report *domain.RunReport) error
}

// AcquisitionJob runs the daily acquisition on trading days
type AcquisitionJob struct {
	runner   ScheduledRunner
	calendar TradingCalendar
	after    []PostRunTask
	log      zerolog.Logger
}

// NewAcquisitionJob creates the scheduled acquisition job. after tasks run
// in order once the acquisition succeeded; their failures are logged only.
func NewAcquisitionJob(runner ScheduledRunner, calendar TradingCalendar, log zerolog.Logger, after ...PostRunTask) *AcquisitionJob {
	return &AcquisitionJob{
		runner:   runner,
		calendar: calendar,
		after:    after,
		log:      log.With().Str("job", "daily_acquisition").Logger(),
	}
}

// Name returns the job name
func (j *AcquisitionJob) Name() string {
	return "daily_acquisition"
}

// Run acquires and persists today's values unless the market is closed today
func (j *AcquisitionJob) Run(ctx context.Context) error {
	now := j.calendar.Now()
	if !j.calendar.IsTradingDay(now) {
		j.log.Info().Str("date", domain.FormatDate(now)).Msg("Not a trading day, skipping acquisition")
		return nil
	}

	report, err := j.runner.RunScheduled(ctx)
	if err != nil {
		return err
	}

	for _, task := range j.after {
		if err := task.AfterRun(ctx, report); err != nil {
			j.log.Warn().Err(err).Str("task", task.Name()).Msg("Post-run task failed")
		}
	}
	return nil
}
