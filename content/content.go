// Package content embeds the default battle data: moves, species, statuses,
// weather, items, teams and AI scripts.
package content

import "embed"

// FS holds the default data tree. Each top-level directory is read by the
// loader of the matching package.
//
//go:embed moves species statuses weather items teams scripts
var FS embed.FS

// Directory names inside FS.
const (
	MovesDir    = "moves"
	SpeciesDir  = "species"
	StatusesDir = "statuses"
	WeatherDir  = "weather"
	ItemsDir    = "items"
	TeamsDir    = "teams"
	AIScripts   = "scripts/ai"
)
