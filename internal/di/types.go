/**
 * Package di provides dependency injection type definitions.
 *
 * The Container holds every long-lived component. It is built by Wire()
 * and handed to the HTTP server, the CLI, and main.
 */
package di

import (
	"github.com/aristath/petracker/internal/clients/nse"
	"github.com/aristath/petracker/internal/clients/peservice"
	"github.com/aristath/petracker/internal/database"
	"github.com/aristath/petracker/internal/modules/acquisition"
	"github.com/aristath/petracker/internal/modules/market_hours"
	"github.com/aristath/petracker/internal/modules/observations"
	"github.com/aristath/petracker/internal/modules/universe"
	"github.com/aristath/petracker/internal/reliability"
	"github.com/aristath/petracker/internal/scheduler"
)

/**
 * Container holds all dependencies for the application.
 *
 * Layers:
 * - Database: one store (SQLite by default, Postgres optional)
 * - Clients: the P/E service (batch + per-symbol) and the exchange (direct API + quote page)
 * - Repositories: securities, observations, run records
 * - Services: orchestrator, store writer, acquisition service, backups
 * - Jobs: the daily acquisition job and its cron scheduler
 */
type Container struct {
	// Database
	DB *database.DB

	// Reference data
	Universe *universe.Universe
	Calendar *market_hours.Calendar

	// Clients
	PEServiceClient *peservice.Client
	NSEClient       *nse.Client

	// Repositories
	ObservationRepo *observations.Repository

	// Services
	Orchestrator       *acquisition.Orchestrator
	Writer             *observations.Writer
	AcquisitionService *acquisition.Service
	BackupService      *reliability.BackupService // nil when backups are disabled

	// Jobs
	Maintenance    *scheduler.DatabaseMaintenance
	AcquisitionJob *scheduler.AcquisitionJob
	Scheduler      *scheduler.Scheduler
}

// Close releases the database. The scheduler must be stopped first.
func (c *Container) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
