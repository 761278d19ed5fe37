// Package targeting is the plugin that shows the targeting graph to the
// umpire and sends players their targets.
package targeting

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mcoot/autoumpire/internal/dependencies/clock"
	"github.com/mcoot/autoumpire/internal/metrics"
	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/plugins"
	"github.com/mcoot/autoumpire/internal/services/database"
	"github.com/mcoot/autoumpire/internal/services/death"
	"github.com/mcoot/autoumpire/internal/services/targeting"
	"github.com/mcoot/autoumpire/internal/ui"
)

// Export ids
const (
	ExportSummary = "targeting.summary"
	ExportGraph   = "targeting.graph"
	ExportConfig  = "targeting.config"
)

const (
	fieldSeed        = "targeting.seed"
	fieldSeeds       = "targeting.seeds"
	fieldUpdatesOnly = "targeting.seeds_updates_only"
	fieldShowInfo    = "targeting.show_info"
)

const hiddenNotice = "Targeting information is hidden because computing it is slow. Re-enable it under Targeting -> Settings."

type targetingPlugin struct {
	db      *database.Service
	engine  *targeting.Engine
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates the targeting plugin.
func New(db *database.Service, limits targeting.Limits, clk clock.Clock, m *metrics.Metrics, logger *slog.Logger) *plugins.Plugin {
	t := &targetingPlugin{
		db:      db,
		engine:  targeting.NewEngine(limits, clk, logger),
		metrics: m,
		logger:  logger,
	}
	players := plugins.AssassinOptions(db, func(a *model.Assassin) bool { return !a.IsCityWatch })
	return &plugins.Plugin{
		ID:   targeting.PluginID,
		Name: "Targeting",
		Exports: []plugins.Export{
			{
				ID:          ExportSummary,
				DisplayName: "Targeting -> Summary",
				Gather:      []plugins.Gatherer{{Title: "Player", Options: players}},
				Answer:      t.answerSummary,
			},
			{ID: ExportGraph, DisplayName: "Targeting -> Full graph", Answer: t.answerGraph},
			{ID: ExportConfig, DisplayName: "Targeting -> Settings", Ask: t.askConfig, Answer: t.answerConfig},
		},
		Subscriptions: []plugins.Subscription{
			{Hook: plugins.HookMail, Order: plugins.First, Respond: t.mail},
		},
	}
}

func warningKind(msg string) string {
	for _, kind := range []string{"collapsed", "mutual", "seeds", "limit", "more than once", "only"} {
		if strings.Contains(msg, kind) {
			return strings.ReplaceAll(kind, " ", "_")
		}
	}
	return "other"
}

// compute derives the graph and records its cost. A computation slower than
// targeting.SlowComputation turns targeting info off.
func (t *targetingPlugin) compute(ctx context.Context, snapshot *model.Snapshot) (*targeting.Result, []ui.Component, error) {
	result, err := t.engine.Compute(snapshot)
	if err != nil {
		return nil, nil, err
	}
	t.metrics.ObserveDerivation(targeting.PluginID, result.Elapsed)
	for _, w := range result.Warnings {
		t.metrics.TargetingWarning(warningKind(w))
	}
	if result.Collapsed {
		t.metrics.TargetingCollapsed()
	}

	notes := plugins.Labels(result.Warnings)
	if result.Elapsed > targeting.SlowComputation && targeting.ShowTargetingInfo(snapshot.State) {
		t.logger.Warn("targeting is slow, hiding targeting info",
			slog.Duration("elapsed", result.Elapsed),
		)
		if err := t.db.UpdateGenericState(ctx, func(g *model.GenericState) error {
			return g.Set(targeting.StateShowTargetingInfo, false)
		}); err != nil {
			return nil, nil, err
		}
		snapshot.State = snapshot.State.Clone()
		_ = snapshot.State.Set(targeting.StateShowTargetingInfo, false)
		notes = append(notes, ui.Warning(fmt.Sprintf("Targeting took %s; targeting information is now hidden.", result.Elapsed.Round(time.Millisecond))))
	}
	return result, notes, nil
}

func (t *targetingPlugin) answerSummary(ctx context.Context, _ ui.Answers, args []string) ([]ui.Component, error) {
	snapshot, err := t.db.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	result, notes, err := t.compute(ctx, snapshot)
	if err != nil {
		return nil, err
	}
	if !targeting.ShowTargetingInfo(snapshot.State) {
		return append(notes, ui.Warning(hiddenNotice)), nil
	}
	id := args[0]
	out := []ui.Component{
		ui.Info("Targets of " + id + ": " + list(result.TargetsOf(id))),
		ui.Info("Attackers of " + id + ": " + list(result.AttackersOf(id))),
	}
	return append(out, notes...), nil
}

func list(ids []string) string {
	if len(ids) == 0 {
		return "none"
	}
	return strings.Join(ids, "; ")
}

func (t *targetingPlugin) answerGraph(ctx context.Context, _ ui.Answers, _ []string) ([]ui.Component, error) {
	snapshot, err := t.db.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	result, notes, err := t.compute(ctx, snapshot)
	if err != nil {
		return nil, err
	}
	if !targeting.ShowTargetingInfo(snapshot.State) {
		return append(notes, ui.Warning(hiddenNotice)), nil
	}
	var out []ui.Component
	switch {
	case result.Declined:
		out = append(out, ui.Info("Not enough players for targeting."))
	case result.Collapsed:
		out = append(out, ui.Warning("Open season since "+result.CollapseEvent))
	default:
		for _, id := range result.Graph.Nodes() {
			out = append(out, ui.Info(id+" -> "+list(result.TargetsOf(id))))
		}
	}
	out = append(out, ui.Info(fmt.Sprintf("Computed in %s.", result.Elapsed.Round(time.Millisecond))))
	return append(out, notes...), nil
}

func (t *targetingPlugin) askConfig(ctx context.Context, _ []string) ([]ui.Component, error) {
	snapshot, err := t.db.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	cfg := targeting.ConfigFromState(snapshot.State)
	seed := int(cfg.Seed)
	var players []string
	for _, a := range snapshot.FullPlayers() {
		players = append(players, a.Identifier())
	}
	model.SortIdentifiers(players)
	return []ui.Component{
		ui.Integer{ID: fieldSeed, Title: "Random seed", Default: &seed},
		ui.Searchable{Component: ui.SelectorList{
			ID:       fieldSeeds,
			Title:    "Seeds (kept apart where possible)",
			Options:  ui.Opts(players...),
			Defaults: cfg.Seeds,
		}},
		ui.Checkbox{ID: fieldUpdatesOnly, Title: "Use seeds only when repairing?", Default: cfg.SeedsForUpdatesOnly},
		ui.Checkbox{ID: fieldShowInfo, Title: "Show targeting information?", Default: targeting.ShowTargetingInfo(snapshot.State)},
	}, nil
}

func (t *targetingPlugin) answerConfig(ctx context.Context, answers ui.Answers, _ []string) ([]ui.Component, error) {
	seeds := ui.ValueOr(answers, fieldSeeds, []string{})
	err := t.db.UpdateGenericState(ctx, func(g *model.GenericState) error {
		g.SetInt(targeting.StateSeed, ui.ValueOr(answers, fieldSeed, targeting.DefaultSeed))
		if err := g.Set(targeting.StateSeeds, seeds); err != nil {
			return err
		}
		if err := g.Set(targeting.StateSeedsUpdatesOnly, ui.ValueOr(answers, fieldUpdatesOnly, false)); err != nil {
			return err
		}
		return g.Set(targeting.StateShowTargetingInfo, ui.ValueOr(answers, fieldShowInfo, true))
	})
	if err != nil {
		return nil, err
	}
	return []ui.Component{ui.Success(fmt.Sprintf("Targeting settings saved (%d seeds).", len(seeds)))}, nil
}

// mail tells each live full player who their targets are.
func (t *targetingPlugin) mail(ctx context.Context, _ ui.Answers, payload any) []ui.Component {
	bag, ok := payload.(*plugins.Mailbag)
	if !ok {
		return nil
	}
	if !targeting.ShowTargetingInfo(bag.Snapshot.State) {
		return []ui.Component{ui.Warning("Targets were not emailed: " + hiddenNotice)}
	}
	result, notes, err := t.compute(ctx, bag.Snapshot)
	if err != nil {
		return []ui.Component{ui.Error(err)}
	}
	deaths := death.Build(bag.Snapshot)
	for _, email := range bag.Emails {
		a := email.Recipient
		if a.IsCityWatch || deaths.IsDead(a.Identifier()) {
			continue
		}
		switch {
		case result.Declined:
		case result.Collapsed:
			email.Add("Targets", openSeasonSection())
		default:
			var targets []*model.Assassin
			for _, id := range result.TargetsOf(a.Identifier()) {
				if target, ok := bag.Snapshot.Assassin(id); ok {
					targets = append(targets, target)
				}
			}
			email.Add("Targets", targetsSection(targets))
		}
	}
	return notes
}

// targetDetails lists what a player is told about one of their targets,
// after the real name.
func targetDetails(a *model.Assassin) []string {
	fields := []string{"pseudonyms: " + strings.Join(a.AllPseudonyms(), ", ")}
	for _, f := range [][2]string{
		{"address", a.Address},
		{"college", a.College},
		{"water weapons", a.WaterStatus},
		{"notes", a.Notes},
	} {
		if f[1] != "" {
			fields = append(fields, f[0]+": "+f[1])
		}
	}
	return fields
}
