package wanted

import (
	"maps"
	"slices"
	"time"

	"github.com/mcoot/autoumpire/internal/model"
)

// PluginID keys wanted data in plugin maps and event plugin state.
const PluginID = "wanted"

// Order is the event plugin state: assassin identifier to the wanted order
// issued against them in that event.
type Order struct {
	// Duration in days. Zero or less clears an earlier order.
	Duration   int    `json:"duration"`
	Crime      string `json:"crime"`
	Redemption string `json:"redemption"`
}

// ReadEventState decodes the wanted orders of e.
func ReadEventState(e *model.Event) map[string]Order {
	return model.PluginStateOf[map[string]Order](e.PluginState, PluginID)
}

// Entry is one item of an assassin's wanted history: either an order or a
// death.
type Entry struct {
	Event     string
	EventTime time.Time
	Death     bool
	Order
}

// Expires returns when the order stops being in force.
func (e Entry) Expires() time.Time {
	return e.EventTime.Add(time.Duration(e.Duration) * 24 * time.Hour)
}

// InForceAt reports whether the entry is an order that is in force at t.
func (e Entry) InForceAt(t time.Time) bool {
	return !e.Death && e.Duration > 0 && !e.Expires().Before(t)
}

// Kill records the death of an assassin who was wanted when they died.
type Kill struct {
	Victim      string
	Killers     []string
	Event       string
	EventTime   time.Time
	Crime       string
	Redemption  string
	IsCityWatch bool
}

// Manager tracks wanted orders and wanted kills.
type Manager struct {
	assassins map[string]*model.Assassin
	entries   map[string][]Entry
	kills     map[string]Kill
	killOrder []string
}

// NewManager creates an empty Manager.
func NewManager(assassins map[string]*model.Assassin) *Manager {
	return &Manager{
		assassins: assassins,
		entries:   make(map[string][]Entry),
		kills:     make(map[string]Kill),
	}
}

// Build folds every event of the snapshot in chronological order.
func Build(snapshot *model.Snapshot) *Manager {
	m := NewManager(snapshot.Assassins)
	for _, e := range snapshot.Events {
		m.AddEvent(e)
	}
	return m
}

// AddEvent records the orders issued in e, then its deaths. An assassin
// ordered and killed in the same event counts as a wanted kill.
func (m *Manager) AddEvent(e *model.Event) {
	orders := ReadEventState(e)
	ids := make([]string, 0, len(orders))
	for id := range orders {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		m.entries[id] = append(m.entries[id], Entry{
			Event:     e.Identifier(),
			EventTime: e.Datetime,
			Order:     orders[id],
		})
	}

	victims, _ := e.Victims()
	for _, v := range victims {
		history := m.entries[v]
		if n := len(history); n > 0 && history[n-1].InForceAt(e.Datetime) {
			prev := history[n-1]
			if _, seen := m.kills[v]; !seen {
				m.killOrder = append(m.killOrder, v)
			}
			m.kills[v] = Kill{
				Victim:      v,
				Killers:     killersOf(e, v),
				Event:       e.Identifier(),
				EventTime:   e.Datetime,
				Crime:       prev.Crime,
				Redemption:  prev.Redemption,
				IsCityWatch: m.isCityWatch(v),
			}
		}
		m.entries[v] = append(history, Entry{
			Event:     e.Identifier(),
			EventTime: e.Datetime,
			Death:     true,
		})
	}
}

func killersOf(e *model.Event, victim string) []string {
	var out []string
	for _, k := range e.Kills {
		if k.Victim == victim && !slices.Contains(out, k.Killer) {
			out = append(out, k.Killer)
		}
	}
	return out
}

func (m *Manager) isCityWatch(id string) bool {
	a, ok := m.assassins[id]
	return ok && a.IsCityWatch
}

// History returns every entry recorded for the assassin.
func (m *Manager) History(id string) []Entry {
	return slices.Clone(m.entries[id])
}

// latestAt returns the last entry recorded at or before t.
func (m *Manager) latestAt(id string, t time.Time) (Entry, bool) {
	history := m.entries[id]
	for i := len(history) - 1; i >= 0; i-- {
		if !history[i].EventTime.After(t) {
			return history[i], true
		}
	}
	return Entry{}, false
}

// IsWantedAt reports whether the assassin's latest entry at t is an order
// still in force.
func (m *Manager) IsWantedAt(id string, t time.Time) bool {
	e, ok := m.latestAt(id, t)
	return ok && e.InForceAt(t)
}

// CurrentOrder returns the order in force against the assassin at t.
func (m *Manager) CurrentOrder(id string, t time.Time) (Entry, bool) {
	e, ok := m.latestAt(id, t)
	if !ok || !e.InForceAt(t) {
		return Entry{}, false
	}
	return e, true
}

// WantedAt returns every wanted full player at t, sorted.
func (m *Manager) WantedAt(t time.Time) []string {
	return m.wantedAt(t, false)
}

// CorruptAt returns every wanted city watch member at t, sorted.
func (m *Manager) CorruptAt(t time.Time) []string {
	return m.wantedAt(t, true)
}

func (m *Manager) wantedAt(t time.Time, cityWatch bool) []string {
	var out []string
	for id := range m.entries {
		if m.isCityWatch(id) == cityWatch && m.IsWantedAt(id, t) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// WantedKills returns every wanted kill keyed by victim.
func (m *Manager) WantedKills() map[string]Kill {
	return maps.Clone(m.kills)
}

// PlayerDeaths returns wanted kills of full players in order of death.
func (m *Manager) PlayerDeaths() []Kill {
	return m.killsWhere(false)
}

// CorruptDeaths returns wanted kills of city watch members in order of death.
func (m *Manager) CorruptDeaths() []Kill {
	return m.killsWhere(true)
}

func (m *Manager) killsWhere(cityWatch bool) []Kill {
	var out []Kill
	for _, id := range m.killOrder {
		if k := m.kills[id]; k.IsCityWatch == cityWatch {
			out = append(out, k)
		}
	}
	return out
}
