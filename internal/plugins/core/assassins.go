package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/services/database"
	"github.com/mcoot/autoumpire/internal/services/death"
	"github.com/mcoot/autoumpire/internal/ui"
)

const (
	fieldPseudonym   = "core.pseudonym"
	fieldPseudonyms  = "core.pseudonyms"
	fieldRealName    = "core.real_name"
	fieldPronouns    = "core.pronouns"
	fieldEmail       = "core.email"
	fieldAddress     = "core.address"
	fieldWaterStatus = "core.water_status"
	fieldCollege     = "core.college"
	fieldNotes       = "core.notes"
	fieldCityWatch   = "core.city_watch"
	fieldHidden      = "core.hidden"
	fieldConfirm     = "core.confirm"
)

func everyone(*model.Assassin) bool { return true }

func required(title string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", title)
		}
		return nil
	}
}

func detailFields(a *model.Assassin) []ui.Component {
	if a == nil {
		a = &model.Assassin{}
	}
	return []ui.Component{
		ui.Text{ID: fieldRealName, Title: "Real name", Default: a.RealName, Validate: required("Real name")},
		ui.Text{ID: fieldPronouns, Title: "Pronouns", Default: a.Pronouns},
		ui.Text{ID: fieldEmail, Title: "Email", Default: a.Email},
		ui.Text{ID: fieldAddress, Title: "Address", Default: a.Address},
		ui.Text{ID: fieldWaterStatus, Title: "Water weapons status", Default: a.WaterStatus},
		ui.Text{ID: fieldCollege, Title: "College", Default: a.College},
		ui.Text{ID: fieldNotes, Title: "Notes", Default: a.Notes},
	}
}

func (c *corePlugin) askCreateAssassin(ctx context.Context, _ []string) ([]ui.Component, error) {
	cs := []ui.Component{
		ui.Text{ID: fieldPseudonym, Title: "Initial pseudonym", Required: true},
	}
	cs = append(cs, detailFields(nil)...)
	cs = append(cs, ui.Checkbox{ID: fieldCityWatch, Title: "City Watch?"})
	return append(cs, c.bus.AssassinRequestCreate(ctx)...), nil
}

func (c *corePlugin) answerCreateAssassin(ctx context.Context, answers ui.Answers, _ []string) ([]ui.Component, error) {
	a, err := c.db.CreateAssassin(ctx, database.AssassinParams{
		InitialPseudonym: ui.ValueOr(answers, fieldPseudonym, ""),
		RealName:         ui.ValueOr(answers, fieldRealName, ""),
		Pronouns:         ui.ValueOr(answers, fieldPronouns, ""),
		Email:            ui.ValueOr(answers, fieldEmail, ""),
		Address:          ui.ValueOr(answers, fieldAddress, ""),
		WaterStatus:      ui.ValueOr(answers, fieldWaterStatus, ""),
		College:          ui.ValueOr(answers, fieldCollege, ""),
		Notes:            ui.ValueOr(answers, fieldNotes, ""),
		IsCityWatch:      ui.ValueOr(answers, fieldCityWatch, false),
	})
	if err != nil {
		return nil, err
	}
	results := c.bus.AssassinCreate(ctx, a, answers)
	if err := c.db.UpdateAssassin(ctx, a); err != nil {
		return results, err
	}
	return append([]ui.Component{ui.Success("Created " + a.Identifier())}, results...), nil
}

func (c *corePlugin) askUpdateAssassin(ctx context.Context, args []string) ([]ui.Component, error) {
	a, err := c.db.GetAssassin(ctx, args[0])
	if err != nil {
		return nil, err
	}
	state, err := c.db.GenericState(ctx)
	if err != nil {
		return nil, err
	}
	loc := model.Location(state)

	entries := make([]ui.PseudonymEntry, len(a.Pseudonyms))
	for i, p := range a.Pseudonyms {
		entries[i].Name = p
		if from, ok := a.PseudonymDatetimes[i]; ok {
			entries[i].ValidFrom = &from
		}
	}
	cs := []ui.Component{
		ui.Info(a.Identifier()),
		ui.PseudonymList{ID: fieldPseudonyms, Title: "Pseudonyms", Entries: entries, Location: loc},
	}
	cs = append(cs, detailFields(a)...)
	cs = append(cs, ui.Checkbox{ID: fieldHidden, Title: "Hidden?", Default: a.Hidden})
	return append(cs, c.bus.AssassinRequestUpdate(ctx, a)...), nil
}

func (c *corePlugin) answerUpdateAssassin(ctx context.Context, answers ui.Answers, args []string) ([]ui.Component, error) {
	a, err := c.db.GetAssassin(ctx, args[0])
	if err != nil {
		return nil, err
	}
	if entries, ok := ui.Value[[]ui.PseudonymEntry](answers, fieldPseudonyms); ok {
		if err := applyPseudonyms(a, entries); err != nil {
			return nil, err
		}
	}
	a.RealName = ui.ValueOr(answers, fieldRealName, a.RealName)
	a.Pronouns = ui.ValueOr(answers, fieldPronouns, a.Pronouns)
	a.Email = ui.ValueOr(answers, fieldEmail, a.Email)
	a.Address = ui.ValueOr(answers, fieldAddress, a.Address)
	a.WaterStatus = ui.ValueOr(answers, fieldWaterStatus, a.WaterStatus)
	a.College = ui.ValueOr(answers, fieldCollege, a.College)
	a.Notes = ui.ValueOr(answers, fieldNotes, a.Notes)
	a.Hidden = ui.ValueOr(answers, fieldHidden, a.Hidden)

	results := c.bus.AssassinUpdate(ctx, a, answers)
	if err := c.db.UpdateAssassin(ctx, a); err != nil {
		return results, err
	}
	return append([]ui.Component{ui.Success("Updated " + a.Identifier())}, results...), nil
}

// applyPseudonyms edits existing slots in place, blanks removed ones and
// appends new ones, so indices used by events stay valid.
func applyPseudonyms(a *model.Assassin, entries []ui.PseudonymEntry) error {
	for i, e := range entries {
		name := strings.TrimSpace(e.Name)
		if i >= len(a.Pseudonyms) {
			if name == "" {
				continue
			}
			if _, err := a.AddPseudonym(name, e.ValidFrom); err != nil {
				return err
			}
			continue
		}
		if name == "" {
			if a.Pseudonyms[i] == "" {
				continue
			}
			if err := a.DeletePseudonym(i); err != nil {
				return err
			}
			continue
		}
		if err := a.EditPseudonym(i, name); err != nil {
			return err
		}
		if err := a.SetPseudonymValidity(i, e.ValidFrom); err != nil {
			return err
		}
	}
	return a.Validate()
}

func (c *corePlugin) deadPlayerOptions(ctx context.Context) ([]ui.Option, error) {
	snapshot, err := c.db.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	deaths := death.Build(snapshot)
	var ids []string
	for _, id := range deaths.Dead() {
		if a, ok := snapshot.Assassin(id); ok && !a.IsCityWatch && !a.Hidden {
			ids = append(ids, id)
		}
	}
	model.SortIdentifiers(ids)
	return ui.Opts(ids...), nil
}

func (c *corePlugin) askResurrect(ctx context.Context, args []string) ([]ui.Component, error) {
	a, err := c.db.GetAssassin(ctx, args[0])
	if err != nil {
		return nil, err
	}
	cs := []ui.Component{
		ui.Info(fmt.Sprintf("%s will be hidden and a City Watch copy created.", a.Identifier())),
		ui.Text{ID: fieldPseudonym, Title: "Initial pseudonym in the City Watch", Default: a.InitialPseudonym(), Required: true},
	}
	return append(cs, c.bus.AssassinRequestCreate(ctx)...), nil
}

func (c *corePlugin) answerResurrect(ctx context.Context, answers ui.Answers, args []string) ([]ui.Component, error) {
	a, err := c.db.GetAssassin(ctx, args[0])
	if err != nil {
		return nil, err
	}
	secretID, err := c.db.UniqueStr(ctx)
	if err != nil {
		return nil, err
	}
	source := a.Clone()
	source.Pseudonyms[0] = strings.TrimSpace(ui.ValueOr(answers, fieldPseudonym, a.InitialPseudonym()))
	watch := source.CloneAs(secretID, true)
	if err := c.db.AddAssassin(ctx, watch); err != nil {
		return nil, err
	}
	results := c.bus.AssassinCreate(ctx, watch, answers)
	if err := c.db.UpdateAssassin(ctx, watch); err != nil {
		return results, err
	}

	a.Hidden = true
	if err := c.db.UpdateAssassin(ctx, a); err != nil {
		return results, err
	}
	c.logger.Info("assassin resurrected",
		slog.String("from", a.Identifier()),
		slog.String("to", watch.Identifier()),
	)
	return append([]ui.Component{ui.Success("Resurrected as " + watch.Identifier())}, results...), nil
}

func (c *corePlugin) now(loc *time.Location) time.Time {
	return c.clock.Now().In(loc).Truncate(time.Minute)
}
