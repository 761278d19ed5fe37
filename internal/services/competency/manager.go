package competency

import (
	"maps"
	"slices"
	"time"

	"github.com/mcoot/autoumpire/internal/model"
)

// PluginID keys competency data in plugin maps and event plugin state.
const PluginID = "competency"

// Generic state keys.
const (
	StateInitialDays      = "competency_initial_days"
	StateDefaultExtension = "competency_default_extension"
	StateMode             = "competency_mode"
)

const (
	DefaultInitialDays   = 7
	DefaultExtensionDays = 3
)

const attemptsPerExtension = 2

// Mode controls how extensions are derived.
type Mode string

const (
	// Manual: only explicit extensions apply.
	Manual Mode = "Manual"
	// Auto: kills and attempts grant implicit extensions, which the event
	// form pre-fills.
	Auto Mode = "Auto"
	// FullAuto: as Auto, but the event form hides the competency component.
	FullAuto Mode = "Full Auto"
)

// Modes lists every mode in menu order.
var Modes = []Mode{Manual, Auto, FullAuto}

// Implicit reports whether kills and attempts grant extensions.
func (m Mode) Implicit() bool {
	return m == Auto || m == FullAuto
}

// Config holds the game settings the manager needs.
type Config struct {
	Enabled          bool
	GameStart        time.Time
	InitialDays      int
	DefaultExtension int
	Mode             Mode
}

// ConfigFromState reads the competency settings from the generic state.
func ConfigFromState(state *model.GenericState) Config {
	return Config{
		Enabled:          state.PluginEnabled(PluginID, true),
		GameStart:        model.GameStart(state),
		InitialDays:      state.GetInt(StateInitialDays, DefaultInitialDays),
		DefaultExtension: state.GetInt(StateDefaultExtension, DefaultExtensionDays),
		Mode:             Mode(model.StateValue(state, StateMode, string(Auto))),
	}
}

// EventState is what an event stores under PluginID.
type EventState struct {
	// Competency maps an assassin to an explicit extension in days.
	Competency map[string]int `json:"competency"`
	// Attempts lists assassins who made an attempt in this event.
	Attempts []string `json:"attempts"`
}

// ReadEventState decodes the competency state of e. Malformed state reads as
// empty.
func ReadEventState(e *model.Event) EventState {
	return model.PluginStateOf[EventState](e.PluginState, PluginID)
}

// Manager tracks competency deadlines.
type Manager struct {
	cfg       Config
	assassins map[string]*model.Assassin

	deadlines         map[string]time.Time
	attemptsSinceKill map[string]int
}

// NewManager creates a Manager for the given assassins.
func NewManager(cfg Config, assassins map[string]*model.Assassin) *Manager {
	m := &Manager{
		cfg:               cfg,
		assassins:         assassins,
		deadlines:         make(map[string]time.Time, len(assassins)),
		attemptsSinceKill: make(map[string]int),
	}
	initial := m.initialDeadline()
	for id := range assassins {
		m.deadlines[id] = initial
	}
	return m
}

// Build folds every event of the snapshot in chronological order.
func Build(snapshot *model.Snapshot) *Manager {
	m := NewManager(ConfigFromState(snapshot.State), snapshot.Assassins)
	for _, e := range snapshot.Events {
		m.AddEvent(e)
	}
	return m
}

func (m *Manager) initialDeadline() time.Time {
	return m.cfg.GameStart.Add(days(m.cfg.InitialDays))
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

// Config returns the settings the manager was built with.
func (m *Manager) Config() Config {
	return m.cfg
}

// AddEvent applies the extensions granted by e.
func (m *Manager) AddEvent(e *model.Event) {
	state := ReadEventState(e)

	if m.cfg.Mode.Implicit() {
		for id := range m.advance(e, m.attemptsSinceKill) {
			if _, explicit := state.Competency[id]; !explicit {
				m.extend(id, e.Datetime, m.cfg.DefaultExtension)
			}
		}
	}
	for id, n := range state.Competency {
		m.extend(id, e.Datetime, n)
	}
}

// ImplicitExtensions returns, sorted, the assassins that e would grant the
// default extension to if it were added next. The manager is not changed.
func (m *Manager) ImplicitExtensions(e *model.Event) []string {
	granted := m.advance(e, maps.Clone(m.attemptsSinceKill))
	return slices.Sorted(maps.Keys(granted))
}

// advance returns the assassins granted an implicit extension by e. Kills
// reset a killer's attempt counter; every second attempt since the last kill
// grants an extension.
func (m *Manager) advance(e *model.Event, attempts map[string]int) map[string]bool {
	granted := make(map[string]bool)
	for _, k := range e.Kills {
		victim, ok := m.assassins[k.Victim]
		if ok && victim.IsCityWatch {
			continue
		}
		granted[k.Killer] = true
		attempts[k.Killer] = 0
	}
	for _, id := range ReadEventState(e).Attempts {
		attempts[id]++
		if attempts[id] >= attemptsPerExtension {
			granted[id] = true
			attempts[id] = 0
		}
	}
	return granted
}

func (m *Manager) extend(id string, from time.Time, n int) {
	current, ok := m.deadlines[id]
	if !ok {
		current = m.initialDeadline()
	}
	if candidate := from.Add(days(n)); candidate.After(current) {
		current = candidate
	}
	m.deadlines[id] = current
}

// Deadline returns the assassin's current deadline.
func (m *Manager) Deadline(id string) time.Time {
	if d, ok := m.deadlines[id]; ok {
		return d
	}
	return m.initialDeadline()
}

// Deadlines returns a copy of every tracked deadline.
func (m *Manager) Deadlines() map[string]time.Time {
	return maps.Clone(m.deadlines)
}

// IsIncoAt reports whether the assassin is incompetent at t.
func (m *Manager) IsIncoAt(id string, t time.Time) bool {
	if !m.cfg.Enabled {
		return false
	}
	if a, ok := m.assassins[id]; ok && a.IsCityWatch {
		return false
	}
	return m.Deadline(id).Before(t)
}

// IncosAt returns every incompetent assassin at t, sorted by identifier.
func (m *Manager) IncosAt(t time.Time) []string {
	var out []string
	for id := range m.assassins {
		if m.IsIncoAt(id, t) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}
