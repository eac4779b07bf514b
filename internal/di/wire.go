// Package di provides dependency injection wiring and initialization.
package di

import (
	"fmt"

	"github.com/aristath/petracker/internal/config"
	"github.com/rs/zerolog"
)

// Wire initializes all dependencies and returns a fully configured container
// Order of operations:
// 1. Initialize the database
// 2. Initialize repositories
// 3. Initialize services
// 4. Register jobs
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	// Step 1: Initialize the database
	db, err := InitializeDatabase(cfg, log)
	if err != nil {
		return nil, err
	}
	container := &Container{DB: db}

	// Step 2: Initialize repositories
	InitializeRepositories(container, log)

	// Step 3: Initialize services
	if err := InitializeServices(container, cfg, log); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Step 4: Register jobs
	if err := RegisterJobs(container, cfg, log); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	log.Info().
		Int("symbols", container.Universe.Len()).
		Msg("Dependency injection wiring completed successfully")

	return container, nil
}
