package scoring

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/services/competency"
	"github.com/mcoot/autoumpire/internal/services/death"
	"github.com/mcoot/autoumpire/internal/services/formula"
)

// PluginID keys scoring configuration.
const PluginID = "scoring"

// Generic state keys.
const (
	StateFormula = "scoring_formula"
	StateBonuses = "scoring_bonuses"
)

// Config holds the scoring settings.
type Config struct {
	PermaDeath bool
	Formula    string
	// Bonuses are manual score adjustments keyed by assassin identifier.
	Bonuses map[string]float64
	GameEnd time.Time
}

// ConfigFromState reads the scoring settings from the generic state.
func ConfigFromState(state *model.GenericState) Config {
	return Config{
		PermaDeath: model.PermaDeath(state),
		Formula:    model.StateValue(state, StateFormula, ""),
		Bonuses:    model.StateValue(state, StateBonuses, map[string]float64{}),
		GameEnd:    model.GameEnd(state),
	}
}

// Manager derives kills, conkers, attempts, scores and ratings.
type Manager struct {
	cfg     Config
	formula *formula.Formula
	deaths  *death.Manager

	killTree map[string][]string
	attempts map[string]int
	live     map[string]bool
	lastSeen time.Time

	score    map[string]float64
	warnings []string
}

// NewManager creates a Manager over the given assassins, all initially live.
// An invalid formula is reported as a warning and scores fall back to
// conkers.
func NewManager(cfg Config, assassins []string) *Manager {
	m := &Manager{
		cfg:      cfg,
		deaths:   death.NewManager(cfg.PermaDeath),
		killTree: make(map[string][]string),
		attempts: make(map[string]int),
		live:     make(map[string]bool, len(assassins)),
	}
	for _, id := range assassins {
		m.live[id] = true
	}
	f, err := formula.Parse(cfg.Formula)
	if err != nil {
		m.warn(fmt.Sprintf("scoring formula %q rejected, using conkers: %v", cfg.Formula, err))
	}
	m.formula = f
	return m
}

// Build folds every event of the snapshot in chronological order.
func Build(snapshot *model.Snapshot) *Manager {
	ids := make([]string, 0, len(snapshot.Assassins))
	for id := range snapshot.Assassins {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	m := NewManager(ConfigFromState(snapshot.State), ids)
	for _, e := range snapshot.Events {
		m.AddEvent(e)
	}
	return m
}

func (m *Manager) warn(msg string) {
	if !slices.Contains(m.warnings, msg) {
		m.warnings = append(m.warnings, msg)
	}
}

// Warnings returns every problem met while scoring.
func (m *Manager) Warnings() []string {
	return slices.Clone(m.warnings)
}

// AddEvent folds e into the kill tree and attempt counters.
func (m *Manager) AddEvent(e *model.Event) {
	m.score = nil
	if e.Datetime.After(m.lastSeen) {
		m.lastSeen = e.Datetime
	}
	for _, k := range e.Kills {
		if !m.live[k.Victim] {
			continue
		}
		m.killTree[k.Killer] = append(m.killTree[k.Killer], k.Victim)
		if m.cfg.PermaDeath {
			delete(m.live, k.Victim)
		}
	}
	for _, id := range competency.ReadEventState(e).Attempts {
		m.attempts[id]++
	}
	m.deaths.AddEvent(e)
}

// Kills returns how many victims the assassin has been credited with.
func (m *Manager) Kills(id string) int {
	return len(m.killTree[id])
}

// Victims returns the assassin's credited victims in kill order.
func (m *Manager) Victims(id string) []string {
	return slices.Clone(m.killTree[id])
}

// Conkers counts every distinct assassin reachable through the kill tree,
// never counting the assassin themself.
func (m *Manager) Conkers(id string) int {
	visited := map[string]bool{id: true}
	stack := slices.Clone(m.killTree[id])
	total := 0
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[v] {
			continue
		}
		visited[v] = true
		total++
		stack = append(stack, m.killTree[v]...)
	}
	return total
}

// Attempts returns the assassin's attempt count.
func (m *Manager) Attempts(id string) int {
	return m.attempts[id]
}

// Bonus returns the assassin's manual bonus.
func (m *Manager) Bonus(id string) float64 {
	return m.cfg.Bonuses[id]
}

// IsLive reports whether the assassin is still in the live set.
func (m *Manager) IsLive(id string) bool {
	return m.live[id]
}

// Live returns the live set, sorted.
func (m *Manager) Live() []string {
	out := make([]string, 0, len(m.live))
	for id := range m.live {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Score evaluates the scoring formula for the assassin. Without a formula,
// or when evaluation fails, the score is the conkers count.
func (m *Manager) Score(id string) float64 {
	if s, ok := m.score[id]; ok {
		return s
	}
	if m.score == nil {
		m.score = make(map[string]float64)
	}
	s := m.evaluate(id)
	m.score[id] = s
	return s
}

func (m *Manager) evaluate(id string) float64 {
	conkers := float64(m.Conkers(id))
	if m.formula == nil {
		return conkers
	}
	v, err := m.formula.Eval(map[string]float64{
		"k": float64(m.Kills(id)),
		"c": conkers,
		"a": float64(m.Attempts(id)),
		"b": m.Bonus(id),
	})
	if err != nil {
		m.warn(fmt.Sprintf("scoring formula failed for %s, using conkers: %v", id, err))
		return conkers
	}
	return v
}

// Rating orders assassins for the scoreboard: the unix time of death for
// those who died before the game ended, otherwise the game end time plus
// the score. An unset game end uses the latest event time.
func (m *Manager) Rating(id string) float64 {
	end := m.cfg.GameEnd
	if end.IsZero() {
		end = m.lastSeen
	}
	if d, ok := m.deaths.FirstDeath(id); ok && d.Datetime.Before(end) {
		return unixSeconds(d.Datetime)
	}
	return unixSeconds(end) + m.Score(id)
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// Scoreboard returns the given assassins ordered by rating, best first,
// ties by identifier.
func (m *Manager) Scoreboard(ids []string) []string {
	out := slices.Clone(ids)
	slices.SortStableFunc(out, func(a, b string) int {
		ra, rb := m.Rating(a), m.Rating(b)
		switch {
		case ra > rb:
			return -1
		case ra < rb:
			return 1
		}
		return strings.Compare(a, b)
	})
	return out
}
