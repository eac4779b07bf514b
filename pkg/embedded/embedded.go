// Package embedded provides embedded static assets for the application.
package embedded

import (
	"embed"
)

// Files contains all files embedded in the Go binary:
// - universe/ - default security universes (YAML), selected by name at startup
//
//go:embed universe
var Files embed.FS

// DefaultUniverse is the path of the universe loaded when no UNIVERSE_FILE is configured.
const DefaultUniverse = "universe/nifty50.yaml"
