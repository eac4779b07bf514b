// Package di provides dependency injection for database connections.
package di

import (
	"fmt"

	"github.com/aristath/petracker/internal/config"
	"github.com/aristath/petracker/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabase opens the store and applies the schema
func InitializeDatabase(cfg *config.Config, log zerolog.Logger) (*database.DB, error) {
	db, err := database.New(database.Config{
		Driver:  cfg.DatabaseDriver,
		Path:    cfg.DatabasePath(),
		URL:     cfg.DatabaseURL,
		Profile: database.ProfileLedger, // observations are never rewritten
		Name:    "petracker",
		Log:     log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info().
		Str("driver", db.Driver()).
		Str("path", db.Path()).
		Msg("Database initialized")
	return db, nil
}
