package policerank

import (
	"slices"
	"strings"

	"github.com/mcoot/autoumpire/internal/model"
)

// PluginID keys rank data in plugin maps and event plugin state.
const PluginID = "policerank"

// Generic state keys.
const (
	StateRanks       = "policerank_ranks"
	StateDefaultRank = "policerank_default"
)

// DefaultRanks is used until the umpire configures their own.
var DefaultRanks = []string{"Constable", "Sergeant", "Lieutenant", "Captain", "Commander"}

// Config holds the rank ladder.
type Config struct {
	Ranks       []string
	DefaultRank int
}

// ConfigFromState reads the rank ladder from the generic state.
func ConfigFromState(state *model.GenericState) Config {
	cfg := Config{
		Ranks:       model.StateValue(state, StateRanks, slices.Clone(DefaultRanks)),
		DefaultRank: state.GetInt(StateDefaultRank, 0),
	}
	if len(cfg.Ranks) == 0 {
		cfg.Ranks = slices.Clone(DefaultRanks)
	}
	cfg.DefaultRank = cfg.clamp(cfg.DefaultRank)
	return cfg
}

func (c Config) clamp(rank int) int {
	return max(0, min(rank, len(c.Ranks)-1))
}

// ReadEventState decodes the relative rank changes recorded in e.
func ReadEventState(e *model.Event) map[string]int {
	return model.PluginStateOf[map[string]int](e.PluginState, PluginID)
}

// Manager tracks city watch ranks.
type Manager struct {
	cfg       Config
	assassins map[string]*model.Assassin
	ranks     map[string]int
}

// NewManager creates a Manager where every city watch member holds the
// default rank.
func NewManager(cfg Config, assassins map[string]*model.Assassin) *Manager {
	return &Manager{
		cfg:       cfg,
		assassins: assassins,
		ranks:     make(map[string]int),
	}
}

// Build folds every event of the snapshot in chronological order.
func Build(snapshot *model.Snapshot) *Manager {
	m := NewManager(ConfigFromState(snapshot.State), snapshot.Assassins)
	for _, e := range snapshot.Events {
		m.AddEvent(e)
	}
	return m
}

// AddEvent applies the promotions and demotions recorded in e.
func (m *Manager) AddEvent(e *model.Event) {
	for id, delta := range ReadEventState(e) {
		m.ranks[id] = m.cfg.clamp(m.Rank(id) + delta)
	}
}

// Rank returns the assassin's rank index.
func (m *Manager) Rank(id string) int {
	if r, ok := m.ranks[id]; ok {
		return r
	}
	return m.cfg.DefaultRank
}

// RankName returns the assassin's rank title.
func (m *Manager) RankName(id string) string {
	return m.cfg.Ranks[m.Rank(id)]
}

// Ranks returns the rank ladder, lowest first.
func (m *Manager) Ranks() []string {
	return slices.Clone(m.cfg.Ranks)
}

// Roster returns every city watch member, highest rank first, ties by
// identifier.
func (m *Manager) Roster(includeHidden bool) []string {
	var out []string
	for id, a := range m.assassins {
		if a.IsCityWatch && (includeHidden || !a.Hidden) {
			out = append(out, id)
		}
	}
	slices.SortFunc(out, func(a, b string) int {
		if ra, rb := m.Rank(a), m.Rank(b); ra != rb {
			return rb - ra
		}
		return strings.Compare(a, b)
	})
	return out
}
