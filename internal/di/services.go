package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/petracker/internal/clients/nse"
	"github.com/aristath/petracker/internal/clients/peservice"
	"github.com/aristath/petracker/internal/config"
	"github.com/aristath/petracker/internal/database"
	"github.com/aristath/petracker/internal/domain"
	"github.com/aristath/petracker/internal/modules/acquisition"
	"github.com/aristath/petracker/internal/modules/market_hours"
	"github.com/aristath/petracker/internal/modules/observations"
	"github.com/aristath/petracker/internal/modules/universe"
	"github.com/aristath/petracker/internal/reliability"
	"github.com/rs/zerolog"
)

// InitializeServices creates reference data, clients and services
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	// Reference data
	u, err := universe.Load(cfg.UniverseFile)
	if err != nil {
		return fmt.Errorf("failed to load universe: %w", err)
	}
	container.Universe = u

	loc, err := time.LoadLocation(cfg.Market.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load market timezone: %w", err)
	}
	calendar, err := market_hours.NewCalendar(loc, cfg.Market.Holidays, time.Now)
	if err != nil {
		return fmt.Errorf("failed to build market calendar: %w", err)
	}
	container.Calendar = calendar

	// Clients
	container.PEServiceClient = peservice.NewClient(peservice.Config{
		BaseURL:      cfg.Sources.ServiceURL,
		Timeout:      cfg.Sources.ServiceTimeout,
		BatchTimeout: cfg.Sources.BatchTimeout,
	}, log)
	container.NSEClient = nse.NewClient(nse.Config{
		BaseURL:      cfg.Sources.NSEBaseURL,
		Timeout:      cfg.Sources.NSETimeout,
		RequestDelay: cfg.Sources.RequestDelay,
	}, log)

	// Fallback chain, in order: per-symbol service, direct API, quote page
	chain := []domain.SymbolSource{
		container.PEServiceClient,
		container.NSEClient.DirectAPI(),
		container.NSEClient.QuotePage(),
	}
	container.Orchestrator = acquisition.NewOrchestrator(container.PEServiceClient, chain, cfg.Workers, log)
	container.Writer = observations.NewWriter(container.ObservationRepo, u, log)
	container.AcquisitionService = acquisition.NewService(
		container.Orchestrator,
		container.Writer,
		container.ObservationRepo,
		u,
		calendar,
		log,
	)

	// Backups need a file to snapshot
	if cfg.Backup.Enabled() {
		if container.DB.Driver() != database.DriverSQLite {
			log.Warn().Str("driver", container.DB.Driver()).Msg("Backups are only supported for sqlite, disabling")
			return nil
		}
		store, err := reliability.NewS3Client(context.Background(), reliability.S3Config{
			Bucket:          cfg.Backup.Bucket,
			Endpoint:        cfg.Backup.Endpoint,
			Region:          cfg.Backup.Region,
			AccessKeyID:     cfg.Backup.AccessKeyID,
			SecretAccessKey: cfg.Backup.SecretAccessKey,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to create backup client: %w", err)
		}
		container.BackupService = reliability.NewBackupService(store, container.DB, cfg.Backup.Prefix, cfg.Backup.RetentionDays, log)
	}

	return nil
}
