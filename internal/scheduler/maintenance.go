package scheduler

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/aristath/petracker/internal/database"
	"github.com/aristath/petracker/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

const (
	// walFrameLimit is the WAL size, in frames, above which a truncating
	// checkpoint is forced
	walFrameLimit = 1000

	criticalFreeBytes = 500 << 20
	lowFreeBytes      = 5 << 30
)

// DatabaseMaintenance checks store integrity and keeps the WAL small
type DatabaseMaintenance struct {
	db  *database.DB
	log zerolog.Logger
}

// NewDatabaseMaintenance creates the maintenance task for db
func NewDatabaseMaintenance(db *database.DB, log zerolog.Logger) *DatabaseMaintenance {
	return &DatabaseMaintenance{
		db:  db,
		log: log.With().Str("job", "database_maintenance").Logger(),
	}
}

// Name returns the task name
func (m *DatabaseMaintenance) Name() string {
	return "database_maintenance"
}

// AfterRun runs maintenance once the day's writes are done
func (m *DatabaseMaintenance) AfterRun(ctx context.Context, _ *domain.RunReport) error {
	return m.Run(ctx)
}

// Run verifies integrity, then checkpoints the WAL when it has grown
func (m *DatabaseMaintenance) Run(ctx context.Context) error {
	if err := m.db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database %s unhealthy: %w", m.db.Name(), err)
	}
	if m.db.Driver() != database.DriverSQLite {
		return nil
	}
	if err := m.checkDiskSpace(ctx); err != nil {
		return err
	}

	// PRAGMA wal_checkpoint returns: busy, log, checkpointed
	var busy, frames, checkpointed int
	err := m.db.Conn().QueryRowContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &frames, &checkpointed)
	if err != nil {
		return fmt.Errorf("failed to check WAL checkpoint: %w", err)
	}

	if frames <= walFrameLimit {
		m.log.Debug().Int("wal_frames", frames).Msg("WAL checkpoint status OK")
		return nil
	}

	m.log.Info().
		Int("wal_frames", frames).
		Int("checkpointed", checkpointed).
		Msg("WAL file is large, truncating")
	return m.db.WALCheckpoint("TRUNCATE")
}

// checkDiskSpace fails when the volume holding the database is nearly full
func (m *DatabaseMaintenance) checkDiskSpace(ctx context.Context) error {
	usage, err := disk.UsageWithContext(ctx, filepath.Dir(m.db.Path()))
	if err != nil {
		m.log.Warn().Err(err).Msg("Failed to read disk usage")
		return nil
	}

	free := float64(usage.Free) / 1e9
	switch {
	case usage.Free < criticalFreeBytes:
		m.log.Error().Float64("free_gb", free).Msg("Disk nearly full")
		return fmt.Errorf("only %.2f GB free on %s", free, usage.Path)
	case usage.Free < lowFreeBytes:
		m.log.Warn().Float64("free_gb", free).Msg("Disk space running low")
	default:
		m.log.Debug().Float64("free_gb", free).Msg("Disk space check")
	}
	return nil
}
