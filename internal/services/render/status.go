package render

import (
	"time"

	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/services/competency"
	"github.com/mcoot/autoumpire/internal/services/death"
	"github.com/mcoot/autoumpire/internal/services/wanted"
)

// Tracker folds events into the managers that decide name colours.
type Tracker struct {
	snapshot   *model.Snapshot
	deaths     *death.Manager
	competency *competency.Manager
	wanted     *wanted.Manager
	overrides  map[string]string
}

// NewTracker creates a Tracker with no events applied.
func NewTracker(snapshot *model.Snapshot) *Tracker {
	return &Tracker{
		snapshot:   snapshot,
		deaths:     death.NewManager(model.PermaDeath(snapshot.State)),
		competency: competency.NewManager(competency.ConfigFromState(snapshot.State), snapshot.Assassins),
		wanted:     wanted.NewManager(snapshot.Assassins),
		overrides:  model.StateValue(snapshot.State, StateColourOverrides, map[string]string{}),
	}
}

// Apply folds e into every manager.
func (t *Tracker) Apply(e *model.Event) {
	t.deaths.AddEvent(e)
	t.competency.AddEvent(e)
	t.wanted.AddEvent(e)
}

// Deaths returns the death manager.
func (t *Tracker) Deaths() *death.Manager { return t.deaths }

// Competency returns the competency manager.
func (t *Tracker) Competency() *competency.Manager { return t.competency }

// Wanted returns the wanted manager.
func (t *Tracker) Wanted() *wanted.Manager { return t.wanted }

// Status returns the highest-precedence status of the assassin at at.
func (t *Tracker) Status(id string, at time.Time) (Status, string) {
	switch {
	case t.wanted.IsWantedAt(id, at):
		return StatusWanted, ""
	case t.deaths.IsDead(id):
		return StatusDead, ""
	case t.competency.IsIncoAt(id, at):
		return StatusIncompetent, ""
	}
	if c, ok := t.overrides[id]; ok && c != "" {
		return StatusOverride, c
	}
	if t.snapshot.IsCityWatch(id) {
		return StatusCityWatch, ""
	}
	return StatusDefault, ""
}
