package plugins

import (
	"context"

	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/services/database"
	"github.com/mcoot/autoumpire/internal/ui"
)

// Ids of the core event form components that other plugins depend on.
const (
	FieldEventDatetime  = "core.datetime"
	FieldEventHeadline  = "core.headline"
	FieldEventAssassins = "core.assassins"
	FieldEventReports   = "core.reports"
	FieldEventKills     = "core.kills"
)

// AssassinOptions lists assassins accepted by keep, sorted by identifier.
// A nil keep accepts every non-hidden assassin.
func AssassinOptions(db *database.Service, keep func(*model.Assassin) bool) func(context.Context) ([]ui.Option, error) {
	return func(ctx context.Context) ([]ui.Option, error) {
		var include, includeHidden func(*model.Assassin) bool
		if keep != nil {
			include, includeHidden = keep, keep
		}
		ids, err := db.GetIdentifiers(ctx, include, includeHidden)
		if err != nil {
			return nil, err
		}
		return ui.Opts(ids...), nil
	}
}

// EventOptions lists events, most recent first.
func EventOptions(db *database.Service) func(context.Context) ([]ui.Option, error) {
	return func(ctx context.Context) ([]ui.Option, error) {
		ids, err := db.EventIdentifiers(ctx)
		if err != nil {
			return nil, err
		}
		return ui.Opts(ids...), nil
	}
}

// Labels turns warnings into warning labels.
func Labels(warnings []string) []ui.Component {
	out := make([]ui.Component, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, ui.Warning(w))
	}
	return out
}
