package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/plugins"
	"github.com/mcoot/autoumpire/internal/ui"
)

// eventForm builds the core event components, filled from e when updating.
func (c *corePlugin) eventForm(ctx context.Context, e *model.Event) ([]ui.Component, error) {
	snapshot, err := c.db.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	loc := model.Location(snapshot.State)

	var referenced map[string]int
	when := c.now(loc)
	var headline string
	var kills []model.Kill
	var reports []model.Report
	if e != nil {
		referenced = e.Assassins
		when = e.Datetime
		headline = e.Headline
		kills = e.Kills
		reports = e.Reports
	}

	var choices []ui.AssassinChoice
	for _, a := range snapshot.SortedAssassins(func(a *model.Assassin) bool {
		_, used := referenced[a.Identifier()]
		return !a.Hidden || used
	}) {
		choices = append(choices, ui.AssassinChoice{Identifier: a.Identifier(), Pseudonyms: a.Pseudonyms})
	}

	return []ui.Component{
		ui.Datetime{ID: plugins.FieldEventDatetime, Title: "Date/time", Default: &when, Location: loc},
		ui.Text{ID: plugins.FieldEventHeadline, Title: "Headline", Default: headline},
		ui.Searchable{Component: ui.AssassinPseudonymPair{
			ID:       plugins.FieldEventAssassins,
			Title:    "Assassins involved",
			Choices:  choices,
			Defaults: referenced,
		}},
		ui.Dependency{On: plugins.FieldEventAssassins, Components: []ui.Component{
			ui.ReportEntry{
				ID:        plugins.FieldEventReports,
				Title:     "Reports",
				DependsOn: plugins.FieldEventAssassins,
				Defaults:  reports,
			},
			ui.KillEntry{
				ID:        plugins.FieldEventKills,
				Title:     "Kills",
				DependsOn: plugins.FieldEventAssassins,
				Defaults:  kills,
			},
		}},
	}, nil
}

// applyEventAnswers copies the core answers onto e.
func applyEventAnswers(e *model.Event, answers ui.Answers) {
	if t, ok := ui.Value[time.Time](answers, plugins.FieldEventDatetime); ok {
		e.Datetime = t
	}
	e.Headline = ui.ValueOr(answers, plugins.FieldEventHeadline, e.Headline)
	if pairs, ok := ui.Value[map[string]int](answers, plugins.FieldEventAssassins); ok {
		e.Assassins = pairs
	}
	e.Kills = ui.ValueOr(answers, plugins.FieldEventKills, e.Kills)

	reports, ok := ui.Value[[]model.Report](answers, plugins.FieldEventReports)
	if !ok {
		return
	}
	e.Reports = nil
	for _, r := range reports {
		if _, involved := e.Assassins[r.Assassin]; !involved {
			continue
		}
		if r.Text = strings.TrimSpace(r.Text); r.Text != "" {
			e.Reports = append(e.Reports, r)
		}
	}
}

func (c *corePlugin) askCreateEvent(ctx context.Context, _ []string) ([]ui.Component, error) {
	cs, err := c.eventForm(ctx, nil)
	if err != nil {
		return nil, err
	}
	return append(cs, c.bus.EventRequestCreate(ctx)...), nil
}

func (c *corePlugin) answerCreateEvent(ctx context.Context, answers ui.Answers, _ []string) ([]ui.Component, error) {
	e, err := c.db.NewEvent(ctx, ui.ValueOr(answers, plugins.FieldEventDatetime, time.Time{}), ui.ValueOr(answers, plugins.FieldEventHeadline, ""))
	if err != nil {
		return nil, err
	}
	applyEventAnswers(e, answers)
	results := c.bus.EventCreate(ctx, e, answers)
	if err := c.db.AddEvent(ctx, e); err != nil {
		return results, err
	}
	return append([]ui.Component{ui.Success("Created " + e.Identifier())}, results...), nil
}

func (c *corePlugin) askUpdateEvent(ctx context.Context, args []string) ([]ui.Component, error) {
	e, err := c.db.GetEvent(ctx, args[0])
	if err != nil {
		return nil, err
	}
	cs, err := c.eventForm(ctx, e)
	if err != nil {
		return nil, err
	}
	return append(cs, c.bus.EventRequestUpdate(ctx, e)...), nil
}

func (c *corePlugin) answerUpdateEvent(ctx context.Context, answers ui.Answers, args []string) ([]ui.Component, error) {
	e, err := c.db.GetEvent(ctx, args[0])
	if err != nil {
		return nil, err
	}
	applyEventAnswers(e, answers)
	results := c.bus.EventUpdate(ctx, e, answers)
	if err := c.db.UpdateEvent(ctx, e); err != nil {
		return results, err
	}
	return append([]ui.Component{ui.Success("Updated " + e.Identifier())}, results...), nil
}

func (c *corePlugin) askDeleteEvent(ctx context.Context, args []string) ([]ui.Component, error) {
	e, err := c.db.GetEvent(ctx, args[0])
	if err != nil {
		return nil, err
	}
	cs := []ui.Component{
		ui.Warning(fmt.Sprintf("Deleting %s cannot be undone.", e.Identifier())),
		ui.Checkbox{ID: fieldConfirm, Title: "Delete this event?"},
	}
	return append(cs, c.bus.EventRequestDelete(ctx, e)...), nil
}

func (c *corePlugin) answerDeleteEvent(ctx context.Context, answers ui.Answers, args []string) ([]ui.Component, error) {
	if !ui.ValueOr(answers, fieldConfirm, false) {
		return []ui.Component{ui.Info("Event kept.")}, nil
	}
	e, err := c.db.GetEvent(ctx, args[0])
	if err != nil {
		return nil, err
	}
	results := c.bus.EventDelete(ctx, e, answers)
	if err := c.db.DeleteEvent(ctx, e.Identifier()); err != nil {
		return results, err
	}
	return append([]ui.Component{ui.Success("Deleted " + e.Identifier())}, results...), nil
}
