package death

import (
	"slices"

	"github.com/mcoot/autoumpire/internal/model"
)

// Manager folds events into the set of dead assassins.
type Manager struct {
	permaDeath bool
	deaths     map[string][]*model.Event
	order      []string
}

// NewManager creates an empty Manager.
func NewManager(permaDeath bool) *Manager {
	return &Manager{
		permaDeath: permaDeath,
		deaths:     make(map[string][]*model.Event),
	}
}

// Build folds every event of the snapshot in chronological order.
func Build(snapshot *model.Snapshot) *Manager {
	m := NewManager(model.PermaDeath(snapshot.State))
	for _, e := range snapshot.Events {
		m.AddEvent(e)
	}
	return m
}

// PermaDeath reports whether later deaths of a dead victim are ignored by
// managers built on top of this one.
func (m *Manager) PermaDeath() bool {
	return m.permaDeath
}

// AddEvent records the event against each of its victims. Adding the same
// event twice, or naming a victim twice in one event, records it once.
func (m *Manager) AddEvent(e *model.Event) {
	victims, _ := e.Victims()
	for _, v := range victims {
		if slices.ContainsFunc(m.deaths[v], func(d *model.Event) bool {
			return d.Identifier() == e.Identifier()
		}) {
			continue
		}
		if len(m.deaths[v]) == 0 {
			m.order = append(m.order, v)
		}
		m.deaths[v] = append(m.deaths[v], e)
	}
}

// IsDead reports whether the assassin has died at least once.
func (m *Manager) IsDead(identifier string) bool {
	return len(m.deaths[identifier]) > 0
}

// Dead returns every dead assassin in order of first death.
func (m *Manager) Dead() []string {
	return slices.Clone(m.order)
}

// DeathEvents returns every event in which the assassin died. Under
// perma-death only the first is meaningful.
func (m *Manager) DeathEvents(identifier string) []*model.Event {
	return slices.Clone(m.deaths[identifier])
}

// FirstDeath returns the event in which the assassin first died.
func (m *Manager) FirstDeath(identifier string) (*model.Event, bool) {
	events := m.deaths[identifier]
	if len(events) == 0 {
		return nil, false
	}
	return events[0], true
}

// Killers returns who killed the assassin, in event order.
func (m *Manager) Killers(identifier string) []string {
	var out []string
	for _, e := range m.deaths[identifier] {
		for _, k := range e.Kills {
			if k.Victim == identifier {
				out = append(out, k.Killer)
			}
		}
	}
	return out
}
