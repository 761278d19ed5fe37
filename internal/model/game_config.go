package model

import "time"

// Generic state keys shared by several plugins.
const (
	StateGameStart  = "game_start"
	StateGameEnd    = "game_end"
	StateTimezone   = "timezone"
	StatePermaDeath = "perma_death"
)

// DefaultTimezone is used when no game timezone has been configured.
const DefaultTimezone = "Europe/London"

// GameStart returns the configured game start, or the zero time.
func GameStart(g *GenericState) time.Time {
	return StateValue(g, StateGameStart, Timestamp{}).Time
}

// GameEnd returns the configured game end, or the zero time.
func GameEnd(g *GenericState) time.Time {
	return StateValue(g, StateGameEnd, Timestamp{}).Time
}

// PermaDeath reports whether players stay dead after their first death.
func PermaDeath(g *GenericState) bool {
	return StateValue(g, StatePermaDeath, true)
}

// Location returns the game timezone, falling back to UTC when the configured
// zone cannot be loaded.
func Location(g *GenericState) *time.Location {
	name := StateValue(g, StateTimezone, DefaultTimezone)
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
