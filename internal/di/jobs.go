package di

import (
	"fmt"

	"github.com/aristath/petracker/internal/config"
	"github.com/aristath/petracker/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs builds the daily acquisition job and its scheduler. The
// scheduler is returned idle; main arms it.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.Maintenance = scheduler.NewDatabaseMaintenance(container.DB, log)

	after := []scheduler.PostRunTask{container.Maintenance}
	if container.BackupService != nil {
		after = append(after, container.BackupService)
	}
	container.AcquisitionJob = scheduler.NewAcquisitionJob(
		container.AcquisitionService,
		container.Calendar,
		log,
		after...,
	)

	sched, err := scheduler.New(cfg.Market.Schedule, container.Calendar.Location(), container.AcquisitionJob, log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	container.Scheduler = sched

	log.Info().
		Str("schedule", cfg.Market.Schedule).
		Str("timezone", cfg.Market.Timezone).
		Int("post_run_tasks", len(after)).
		Msg("Jobs registered")
	return nil
}
