package di

import (
	"github.com/aristath/petracker/internal/modules/observations"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates the repositories on the container's database
func InitializeRepositories(container *Container, log zerolog.Logger) {
	container.ObservationRepo = observations.NewRepository(container.DB.Conn(), container.DB.Driver(), log)
}
