// Package policerank is the plugin that promotes and demotes City Watch
// members on events.
package policerank

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/plugins"
	"github.com/mcoot/autoumpire/internal/services/database"
	"github.com/mcoot/autoumpire/internal/services/policerank"
	"github.com/mcoot/autoumpire/internal/ui"
)

// Export ids
const (
	ExportConfig = "policerank.config"
	ExportRoster = "policerank.roster"
)

// FieldChanges holds relative rank changes on event forms.
const FieldChanges = "policerank.changes"

const (
	fieldRanks       = "policerank.ranks"
	fieldDefaultRank = "policerank.default"
)

var errNoRanks = errors.New("at least one rank is needed")

type rankPlugin struct {
	db *database.Service
}

// New creates the police rank plugin. It is off until enabled.
func New(db *database.Service) *plugins.Plugin {
	r := &rankPlugin{db: db}
	return &plugins.Plugin{
		ID:              policerank.PluginID,
		Name:            "Police Ranks",
		DefaultDisabled: true,
		Exports: []plugins.Export{
			{ID: ExportConfig, DisplayName: "City Watch -> Ranks", Ask: r.askConfig, Answer: r.answerConfig},
			{ID: ExportRoster, DisplayName: "City Watch -> Roster", Answer: r.answerRoster},
		},
		Subscriptions: []plugins.Subscription{
			{Hook: plugins.HookMail, Order: plugins.Last, Respond: r.mail},
		},
		Hooks: plugins.Hooks{
			EventRequestCreate: r.eventRequest,
			EventCreate:        r.eventResponse,
			EventRequestUpdate: r.eventRequest,
			EventUpdate:        r.eventResponse,
		},
	}
}

func (r *rankPlugin) eventRequest(_ context.Context, e *model.Event) []ui.Component {
	var defaults map[string]int
	if e != nil {
		defaults = policerank.ReadEventState(e)
	}
	return []ui.Component{ui.Dependency{On: plugins.FieldEventAssassins, Components: []ui.Component{
		ui.AssassinDependentInteger{
			ID:        FieldChanges,
			Title:     "City Watch rank changes (+1 promotes, -1 demotes)",
			DependsOn: plugins.FieldEventAssassins,
			Defaults:  defaults,
		},
	}}}
}

// eventResponse keeps the non-zero changes of City Watch members in e.
func (r *rankPlugin) eventResponse(ctx context.Context, e *model.Event, answers ui.Answers) []ui.Component {
	snapshot, err := r.db.Snapshot(ctx)
	if err != nil {
		return []ui.Component{ui.Error(err)}
	}
	changes := make(map[string]int)
	var ignored []string
	for id, delta := range ui.ValueOr(answers, FieldChanges, map[string]int{}) {
		if _, ok := e.Assassins[id]; !ok || delta == 0 {
			continue
		}
		if !snapshot.IsCityWatch(id) {
			ignored = append(ignored, id)
			continue
		}
		changes[id] = delta
	}
	var out []ui.Component
	if len(ignored) > 0 {
		slices.Sort(ignored)
		out = append(out, ui.Warning("Rank changes ignored for full players: "+strings.Join(ignored, ", ")))
	}
	if len(changes) == 0 {
		e.PluginState.Remove(policerank.PluginID)
		return out
	}
	if err := e.PluginState.Encode(policerank.PluginID, changes); err != nil {
		return append(out, ui.Error(err))
	}
	return out
}

func (r *rankPlugin) askConfig(ctx context.Context, _ []string) ([]ui.Component, error) {
	state, err := r.db.GenericState(ctx)
	if err != nil {
		return nil, err
	}
	cfg := policerank.ConfigFromState(state)
	return []ui.Component{
		ui.ArbitraryList{ID: fieldRanks, Title: "Ranks, lowest first", Options: cfg.Ranks, Defaults: cfg.Ranks, AllowNew: true},
		ui.Dropdown{ID: fieldDefaultRank, Title: "Rank of new City Watch members", Options: ui.Opts(cfg.Ranks...), Default: cfg.Ranks[cfg.DefaultRank]},
	}, nil
}

func (r *rankPlugin) answerConfig(ctx context.Context, answers ui.Answers, _ []string) ([]ui.Component, error) {
	var ranks []string
	for _, rank := range ui.ValueOr(answers, fieldRanks, []string{}) {
		if rank = strings.TrimSpace(rank); rank != "" && !slices.Contains(ranks, rank) {
			ranks = append(ranks, rank)
		}
	}
	if len(ranks) == 0 {
		return nil, errNoRanks
	}
	def := max(0, slices.Index(ranks, ui.ValueOr(answers, fieldDefaultRank, "")))
	err := r.db.UpdateGenericState(ctx, func(g *model.GenericState) error {
		g.SetInt(policerank.StateDefaultRank, def)
		return g.Set(policerank.StateRanks, ranks)
	})
	if err != nil {
		return nil, err
	}
	return []ui.Component{ui.Success(fmt.Sprintf("Ranks: %s (new members start as %s).", strings.Join(ranks, ", "), ranks[def]))}, nil
}

func (r *rankPlugin) answerRoster(ctx context.Context, _ ui.Answers, _ []string) ([]ui.Component, error) {
	snapshot, err := r.db.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	m := policerank.Build(snapshot)
	roster := m.Roster(false)
	if len(roster) == 0 {
		return []ui.Component{ui.Info("The City Watch is empty.")}, nil
	}
	out := make([]ui.Component, 0, len(roster))
	for _, id := range roster {
		out = append(out, ui.Info(fmt.Sprintf("%s: %s", m.RankName(id), id)))
	}
	return out, nil
}

func (r *rankPlugin) mail(_ context.Context, _ ui.Answers, payload any) []ui.Component {
	bag, ok := payload.(*plugins.Mailbag)
	if !ok {
		return nil
	}
	m := policerank.Build(bag.Snapshot)
	for _, email := range bag.Emails {
		if !email.Recipient.IsCityWatch {
			continue
		}
		email.Add("Rank", rankSection(m.RankName(email.Recipient.Identifier())))
	}
	return nil
}
