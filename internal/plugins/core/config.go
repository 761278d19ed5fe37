package core

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/plugins"
	"github.com/mcoot/autoumpire/internal/ui"
)

const (
	fieldGameStart  = "core.game_start"
	fieldGameEnd    = "core.game_end"
	fieldTimezone   = "core.timezone"
	fieldPermaDeath = "core.perma_death"
	fieldEnabled    = "core.enabled_plugins"
)

func validTimezone(s string) error {
	if _, err := time.LoadLocation(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("unknown timezone %q", s)
	}
	return nil
}

func (c *corePlugin) askGameConfig(ctx context.Context, _ []string) ([]ui.Component, error) {
	state, err := c.db.GenericState(ctx)
	if err != nil {
		return nil, err
	}
	loc := model.Location(state)
	start := model.GameStart(state)
	if start.IsZero() {
		start = c.now(loc)
	}
	var end *time.Time
	if e := model.GameEnd(state); !e.IsZero() {
		end = &e
	}
	return []ui.Component{
		ui.Text{
			ID:       fieldTimezone,
			Title:    "Game timezone",
			Default:  model.StateValue(state, model.StateTimezone, model.DefaultTimezone),
			Validate: validTimezone,
		},
		ui.Datetime{ID: fieldGameStart, Title: "Game start", Default: &start, Location: loc},
		ui.Datetime{ID: fieldGameEnd, Title: "Game end (blank if undecided)", Default: end, Optional: true, Location: loc},
		ui.Checkbox{ID: fieldPermaDeath, Title: "Perma-death?", Default: model.PermaDeath(state)},
	}, nil
}

func (c *corePlugin) answerGameConfig(ctx context.Context, answers ui.Answers, _ []string) ([]ui.Component, error) {
	err := c.db.UpdateGenericState(ctx, func(g *model.GenericState) error {
		if err := g.Set(model.StateTimezone, strings.TrimSpace(ui.ValueOr(answers, fieldTimezone, model.DefaultTimezone))); err != nil {
			return err
		}
		if start, ok := ui.Value[time.Time](answers, fieldGameStart); ok {
			if err := g.Set(model.StateGameStart, model.Timestamp{Time: start}); err != nil {
				return err
			}
		}
		if end, _ := ui.Value[*time.Time](answers, fieldGameEnd); end != nil {
			if err := g.Set(model.StateGameEnd, model.Timestamp{Time: *end}); err != nil {
				return err
			}
		} else {
			g.Delete(model.StateGameEnd)
		}
		return g.Set(model.StatePermaDeath, ui.ValueOr(answers, fieldPermaDeath, true))
	})
	if err != nil {
		return nil, err
	}
	return []ui.Component{ui.Success("Game settings saved.")}, nil
}

func (c *corePlugin) askPluginConfig(ctx context.Context, _ []string) ([]ui.Component, error) {
	var options []ui.Option
	var enabled []string
	for _, p := range c.bus.Plugins() {
		if p.ID == plugins.CoreID {
			continue
		}
		options = append(options, ui.Option{Label: p.Name, Value: p.ID})
		on, err := c.bus.IsEnabled(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if on {
			enabled = append(enabled, p.ID)
		}
	}
	return []ui.Component{
		ui.SelectorList{ID: fieldEnabled, Title: "Enabled plugins", Options: options, Defaults: enabled},
	}, nil
}

func (c *corePlugin) answerPluginConfig(ctx context.Context, answers ui.Answers, _ []string) ([]ui.Component, error) {
	enabled := ui.ValueOr(answers, fieldEnabled, []string{})
	var results []ui.Component
	for _, p := range c.bus.Plugins() {
		if p.ID == plugins.CoreID {
			continue
		}
		on := slices.Contains(enabled, p.ID)
		if err := c.bus.SetEnabled(ctx, p.ID, on); err != nil {
			return results, err
		}
		state := "disabled"
		if on {
			state = "enabled"
		}
		results = append(results, ui.Info(fmt.Sprintf("%s %s", p.Name, state)))
	}
	return results, nil
}
