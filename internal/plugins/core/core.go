// Package core is the plugin that owns assassins, events and the game
// settings. Its forms are extended by every other enabled plugin through the
// bus hooks.
package core

import (
	"log/slog"

	"github.com/mcoot/autoumpire/internal/dependencies/clock"
	"github.com/mcoot/autoumpire/internal/plugins"
	"github.com/mcoot/autoumpire/internal/services/database"
)

// Export ids
const (
	ExportCreateAssassin = "core.create_assassin"
	ExportUpdateAssassin = "core.update_assassin"
	ExportResurrect      = "core.resurrect"
	ExportCreateEvent    = "core.create_event"
	ExportUpdateEvent    = "core.update_event"
	ExportDeleteEvent    = "core.delete_event"
	ExportGameConfig     = "core.game_config"
	ExportPluginConfig   = "core.plugin_config"
)

type corePlugin struct {
	bus    *plugins.Bus
	db     *database.Service
	clock  clock.Clock
	logger *slog.Logger
}

// New creates the core plugin. It dispatches its form hooks through bus.
func New(bus *plugins.Bus, clk clock.Clock, logger *slog.Logger) *plugins.Plugin {
	c := &corePlugin{bus: bus, db: bus.DB(), clock: clk, logger: logger}
	return &plugins.Plugin{
		ID:   plugins.CoreID,
		Name: "Core",
		Exports: []plugins.Export{
			{
				ID:          ExportCreateAssassin,
				DisplayName: "Assassin -> Create",
				Ask:         c.askCreateAssassin,
				Answer:      c.answerCreateAssassin,
			},
			{
				ID:          ExportUpdateAssassin,
				DisplayName: "Assassin -> Update",
				Gather:      []plugins.Gatherer{{Title: "Assassin", Options: plugins.AssassinOptions(c.db, everyone)}},
				Ask:         c.askUpdateAssassin,
				Answer:      c.answerUpdateAssassin,
			},
			{
				ID:          ExportResurrect,
				DisplayName: "Assassin -> Resurrect as City Watch",
				Gather:      []plugins.Gatherer{{Title: "Dead player", Options: c.deadPlayerOptions}},
				Ask:         c.askResurrect,
				Answer:      c.answerResurrect,
			},
			{
				ID:          ExportCreateEvent,
				DisplayName: "Event -> Create",
				Ask:         c.askCreateEvent,
				Answer:      c.answerCreateEvent,
			},
			{
				ID:          ExportUpdateEvent,
				DisplayName: "Event -> Update",
				Gather:      []plugins.Gatherer{{Title: "Event", Options: plugins.EventOptions(c.db)}},
				Ask:         c.askUpdateEvent,
				Answer:      c.answerUpdateEvent,
			},
			{
				ID:          ExportDeleteEvent,
				DisplayName: "Event -> Delete",
				Gather:      []plugins.Gatherer{{Title: "Event", Options: plugins.EventOptions(c.db)}},
				Ask:         c.askDeleteEvent,
				Answer:      c.answerDeleteEvent,
			},
			{
				ID:          ExportGameConfig,
				DisplayName: "Game -> Settings",
				Ask:         c.askGameConfig,
				Answer:      c.answerGameConfig,
			},
			{
				ID:          ExportPluginConfig,
				DisplayName: "Plugins -> Enable/Disable",
				Ask:         c.askPluginConfig,
				Answer:      c.answerPluginConfig,
			},
		},
	}
}
