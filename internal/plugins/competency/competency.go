// Package competency is the plugin that records competency extensions and
// attempts on events and reports deadlines.
package competency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/mcoot/autoumpire/internal/dependencies/clock"
	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/plugins"
	"github.com/mcoot/autoumpire/internal/services/competency"
	"github.com/mcoot/autoumpire/internal/services/database"
	"github.com/mcoot/autoumpire/internal/services/death"
	"github.com/mcoot/autoumpire/internal/ui"
)

// Export ids
const (
	ExportConfig    = "competency.config"
	ExportDeadlines = "competency.deadlines"
)

// Component ids
const (
	FieldExtensions  = "competency.extensions"
	FieldAttempts    = "competency.attempts"
	fieldMode        = "competency.mode"
	fieldInitialDays = "competency.initial_days"
	fieldDefaultDays = "competency.default_extension"
)

const deadlineLayout = "Mon 2 Jan 15:04"

var errNegativeDays = errors.New("competency periods cannot be negative")

type competencyPlugin struct {
	db     *database.Service
	clock  clock.Clock
	logger *slog.Logger
}

// New creates the competency plugin.
func New(db *database.Service, clk clock.Clock, logger *slog.Logger) *plugins.Plugin {
	c := &competencyPlugin{db: db, clock: clk, logger: logger}
	return &plugins.Plugin{
		ID:   competency.PluginID,
		Name: "Competency",
		Exports: []plugins.Export{
			{ID: ExportConfig, DisplayName: "Competency -> Settings", Ask: c.askConfig, Answer: c.answerConfig},
			{ID: ExportDeadlines, DisplayName: "Competency -> Deadlines", Answer: c.answerDeadlines},
		},
		Subscriptions: []plugins.Subscription{
			{Hook: plugins.HookMail, Respond: c.mail},
		},
		Hooks: plugins.Hooks{
			EventRequestCreate: c.eventRequest,
			EventCreate:        c.eventResponse,
			EventRequestUpdate: c.eventRequest,
			EventUpdate:        c.eventResponse,
		},
	}
}

// implicitBefore returns the assassins e grants the default extension to,
// given every event before it.
func implicitBefore(snapshot *model.Snapshot, e *model.Event) []string {
	m := competency.NewManager(competency.ConfigFromState(snapshot.State), snapshot.Assassins)
	for _, ev := range snapshot.Events {
		if ev.Identifier() == e.Identifier() {
			break
		}
		m.AddEvent(ev)
	}
	return m.ImplicitExtensions(e)
}

func (c *competencyPlugin) eventRequest(ctx context.Context, e *model.Event) []ui.Component {
	snapshot, err := c.db.Snapshot(ctx)
	if err != nil {
		return []ui.Component{ui.Error(err)}
	}
	cfg := competency.ConfigFromState(snapshot.State)

	var state competency.EventState
	if e != nil {
		state = competency.ReadEventState(e)
	}
	extensions := state.Competency
	if extensions == nil {
		extensions = make(map[string]int)
	}

	var cs []ui.Component
	switch {
	case cfg.Mode == competency.FullAuto:
		cs = append(cs, ui.Hidden{ID: FieldExtensions, Value: extensions})
	case cfg.Mode == competency.Auto && e != nil:
		for _, id := range implicitBefore(snapshot, e) {
			if _, ok := extensions[id]; !ok {
				extensions[id] = cfg.DefaultExtension
			}
		}
		fallthrough
	default:
		cs = append(cs, ui.AssassinDependentInteger{
			ID:        FieldExtensions,
			Title:     "Competency extensions (days)",
			DependsOn: plugins.FieldEventAssassins,
			Defaults:  extensions,
		})
	}
	cs = append(cs, ui.AssassinDependentSelector{
		ID:        FieldAttempts,
		Title:     "Attempts",
		DependsOn: plugins.FieldEventAssassins,
		Defaults:  state.Attempts,
	})
	return []ui.Component{ui.Dependency{On: plugins.FieldEventAssassins, Components: cs}}
}

func (c *competencyPlugin) eventResponse(_ context.Context, e *model.Event, answers ui.Answers) []ui.Component {
	state := competency.EventState{
		Competency: ui.ValueOr(answers, FieldExtensions, map[string]int{}),
		Attempts:   ui.ValueOr(answers, FieldAttempts, []string{}),
	}
	for id := range state.Competency {
		if _, ok := e.Assassins[id]; !ok {
			delete(state.Competency, id)
		}
	}
	state.Attempts = slices.DeleteFunc(slices.Clone(state.Attempts), func(id string) bool {
		_, ok := e.Assassins[id]
		return !ok
	})
	slices.Sort(state.Attempts)
	if len(state.Competency) == 0 && len(state.Attempts) == 0 {
		e.PluginState.Remove(competency.PluginID)
		return nil
	}
	if err := e.PluginState.Encode(competency.PluginID, state); err != nil {
		return []ui.Component{ui.Error(err)}
	}
	return nil
}

func (c *competencyPlugin) askConfig(ctx context.Context, _ []string) ([]ui.Component, error) {
	state, err := c.db.GenericState(ctx)
	if err != nil {
		return nil, err
	}
	cfg := competency.ConfigFromState(state)
	modes := make([]string, len(competency.Modes))
	for i, m := range competency.Modes {
		modes[i] = string(m)
	}
	return []ui.Component{
		ui.Dropdown{ID: fieldMode, Title: "Competency mode", Options: ui.Opts(modes...), Default: string(cfg.Mode)},
		ui.Integer{ID: fieldInitialDays, Title: "Initial competency period (days)", Default: &cfg.InitialDays},
		ui.Integer{ID: fieldDefaultDays, Title: "Default extension (days)", Default: &cfg.DefaultExtension},
	}, nil
}

func (c *competencyPlugin) answerConfig(ctx context.Context, answers ui.Answers, _ []string) ([]ui.Component, error) {
	initial := ui.ValueOr(answers, fieldInitialDays, competency.DefaultInitialDays)
	extension := ui.ValueOr(answers, fieldDefaultDays, competency.DefaultExtensionDays)
	if initial < 0 || extension < 0 {
		return nil, errNegativeDays
	}
	mode := ui.ValueOr(answers, fieldMode, string(competency.Auto))
	err := c.db.UpdateGenericState(ctx, func(g *model.GenericState) error {
		g.SetInt(competency.StateInitialDays, initial)
		g.SetInt(competency.StateDefaultExtension, extension)
		return g.Set(competency.StateMode, mode)
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info("competency settings changed",
		slog.String("mode", mode),
		slog.Int("initial_days", initial),
		slog.Int("default_extension", extension),
	)
	return []ui.Component{ui.Success(fmt.Sprintf("Competency: %s, %d days initially, %d per extension.", mode, initial, extension))}, nil
}

func (c *competencyPlugin) answerDeadlines(ctx context.Context, _ ui.Answers, _ []string) ([]ui.Component, error) {
	snapshot, err := c.db.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	m := competency.Build(snapshot)
	deaths := death.Build(snapshot)
	loc := model.Location(snapshot.State)
	now := c.clock.Now()

	var out []ui.Component
	for _, a := range snapshot.FullPlayers() {
		id := a.Identifier()
		if a.Hidden || deaths.IsDead(id) {
			continue
		}
		line := fmt.Sprintf("%s: %s", id, m.Deadline(id).In(loc).Format(deadlineLayout))
		if m.IsIncoAt(id, now) {
			out = append(out, ui.Warning(line+" (incompetent)"))
		} else {
			out = append(out, ui.Info(line))
		}
	}
	if len(out) == 0 {
		return []ui.Component{ui.Info("No live players.")}, nil
	}
	return out, nil
}

func (c *competencyPlugin) mail(_ context.Context, _ ui.Answers, payload any) []ui.Component {
	bag, ok := payload.(*plugins.Mailbag)
	if !ok {
		return nil
	}
	m := competency.Build(bag.Snapshot)
	if !m.Config().Enabled {
		return nil
	}
	loc := model.Location(bag.Snapshot.State)
	for _, email := range bag.Emails {
		a := email.Recipient
		if a.IsCityWatch {
			continue
		}
		id := a.Identifier()
		email.Add("Competency", deadlineSection(m.Deadline(id).In(loc).Format(deadlineLayout), m.IsIncoAt(id, bag.At)))
	}
	return nil
}
