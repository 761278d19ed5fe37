// Package scoring is the plugin that configures the scoring formula and
// bonuses and shows the scoreboard.
package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/plugins"
	"github.com/mcoot/autoumpire/internal/services/database"
	"github.com/mcoot/autoumpire/internal/services/formula"
	"github.com/mcoot/autoumpire/internal/services/scoring"
	"github.com/mcoot/autoumpire/internal/ui"
)

// Export ids
const (
	ExportFormula    = "scoring.formula"
	ExportBonus      = "scoring.bonus"
	ExportScoreboard = "scoring.scoreboard"
)

const (
	fieldFormula = "scoring.formula"
	fieldBonus   = "scoring.bonus"
)

type scoringPlugin struct {
	db     *database.Service
	logger *slog.Logger
}

// New creates the scoring plugin.
func New(db *database.Service, logger *slog.Logger) *plugins.Plugin {
	p := &scoringPlugin{db: db, logger: logger}
	return &plugins.Plugin{
		ID:   scoring.PluginID,
		Name: "Scoring",
		Exports: []plugins.Export{
			{ID: ExportFormula, DisplayName: "Scoring -> Formula", Ask: p.askFormula, Answer: p.answerFormula},
			{
				ID:          ExportBonus,
				DisplayName: "Scoring -> Bonus",
				Gather:      []plugins.Gatherer{{Title: "Assassin", Options: plugins.AssassinOptions(db, nil)}},
				Ask:         p.askBonus,
				Answer:      p.answerBonus,
			},
			{ID: ExportScoreboard, DisplayName: "Scoring -> Scoreboard", Answer: p.answerScoreboard},
		},
	}
}

func (p *scoringPlugin) askFormula(ctx context.Context, _ []string) ([]ui.Component, error) {
	state, err := p.db.GenericState(ctx)
	if err != nil {
		return nil, err
	}
	return []ui.Component{
		ui.Info(fmt.Sprintf("Variables: k (kills), c (conkers), a (attempts), b (bonus). Functions: %s. Blank scores by conkers.",
			strings.Join(sortedFunctions(), ", "))),
		ui.Text{
			ID:       fieldFormula,
			Title:    "Scoring formula",
			Default:  scoring.ConfigFromState(state).Formula,
			Validate: formula.Validate,
		},
	}, nil
}

func sortedFunctions() []string {
	names := formula.Functions()
	slices.Sort(names)
	return names
}

func (p *scoringPlugin) answerFormula(ctx context.Context, answers ui.Answers, _ []string) ([]ui.Component, error) {
	src := strings.TrimSpace(ui.ValueOr(answers, fieldFormula, ""))
	if err := formula.Validate(src); err != nil {
		return nil, err
	}
	if err := p.db.UpdateGenericState(ctx, func(g *model.GenericState) error {
		return g.Set(scoring.StateFormula, src)
	}); err != nil {
		return nil, err
	}
	p.logger.Info("scoring formula changed", slog.String("formula", src))
	if src == "" {
		return []ui.Component{ui.Success("Scores are now conkers.")}, nil
	}
	return []ui.Component{ui.Success("Scoring formula set to " + src)}, nil
}

func (p *scoringPlugin) askBonus(ctx context.Context, args []string) ([]ui.Component, error) {
	state, err := p.db.GenericState(ctx)
	if err != nil {
		return nil, err
	}
	return []ui.Component{
		ui.Float{ID: fieldBonus, Title: "Bonus for " + args[0], Default: scoring.ConfigFromState(state).Bonuses[args[0]]},
	}, nil
}

func (p *scoringPlugin) answerBonus(ctx context.Context, answers ui.Answers, args []string) ([]ui.Component, error) {
	if _, err := p.db.GetAssassin(ctx, args[0]); err != nil {
		return nil, err
	}
	bonus := ui.ValueOr(answers, fieldBonus, 0.0)
	err := p.db.UpdateGenericState(ctx, func(g *model.GenericState) error {
		bonuses := model.StateValue(g, scoring.StateBonuses, map[string]float64{})
		if bonus == 0 {
			delete(bonuses, args[0])
		} else {
			bonuses[args[0]] = bonus
		}
		return g.Set(scoring.StateBonuses, bonuses)
	})
	if err != nil {
		return nil, err
	}
	return []ui.Component{ui.Success(fmt.Sprintf("Bonus for %s set to %s", args[0], formatScore(bonus)))}, nil
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (p *scoringPlugin) answerScoreboard(ctx context.Context, _ ui.Answers, _ []string) ([]ui.Component, error) {
	snapshot, err := p.db.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	m := scoring.Build(snapshot)
	var ids []string
	for _, a := range snapshot.FullPlayers() {
		if !a.Hidden {
			ids = append(ids, a.Identifier())
		}
	}
	if len(ids) == 0 {
		return []ui.Component{ui.Info("No players.")}, nil
	}

	var out []ui.Component
	for i, id := range m.Scoreboard(ids) {
		line := fmt.Sprintf("%d. %s: score %s (%d kills, %d conkers, %d attempts)",
			i+1, id, formatScore(m.Score(id)), m.Kills(id), m.Conkers(id), m.Attempts(id))
		if !m.IsLive(id) {
			line += " [dead]"
		}
		out = append(out, ui.Info(line))
	}
	return append(out, plugins.Labels(m.Warnings())...), nil
}
