// Package targeting maintains the targeting graph: every live full player
// has three targets and three attackers. The graph is rebuilt from a fixed
// seed on every computation and repaired event by event in creation order,
// so the same events always give the same graph.
package targeting

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/mcoot/autoumpire/internal/dependencies/clock"
	"github.com/mcoot/autoumpire/internal/dependencies/random"
	"github.com/mcoot/autoumpire/internal/model"
)

// PluginID keys targeting configuration.
const PluginID = "targeting"

// Generic state keys.
const (
	StateSeed              = "targeting_seed"
	StateSeeds             = "targeting_seeds"
	StateSeedsUpdatesOnly  = "targeting_seeds_updates_only"
	StateShowTargetingInfo = "show_targeting_info"
)

// DefaultSeed is used when no seed has been stored.
const DefaultSeed = 28794

// ChunkSize is how many victims are repaired together.
const ChunkSize = 3

// SlowComputation is how long a computation may take before targeting info
// is hidden from other plugins.
const SlowComputation = 10 * time.Second

var (
	// ErrTooFewPlayers is returned when there are not enough players to build
	// a graph.
	ErrTooFewPlayers = errors.New("too few players for targeting")
	// ErrTargetingUnsatisfiable is returned when no initial graph could be
	// found within the retry limits.
	ErrTargetingUnsatisfiable = errors.New("no targeting graph found")
)

// Limits bound the searches.
type Limits struct {
	ShufflesPerCycle int
	StrictShuffles   int
	MaxRestarts      int
	PermutationCap   int
}

// DefaultLimits are the limits used by the targeting plugin.
var DefaultLimits = Limits{
	ShufflesPerCycle: 2000,
	StrictShuffles:   1000,
	MaxRestarts:      50,
	PermutationCap:   1_000_000,
}

// Config holds the targeting settings stored in the generic state.
type Config struct {
	Seed int64
	// Seeds are assassins who should not target one another.
	Seeds []string
	// SeedsForUpdatesOnly skips seed interleaving when building the initial
	// graph; seeds still constrain repairs.
	SeedsForUpdatesOnly bool
}

// ConfigFromState reads the targeting settings.
func ConfigFromState(state *model.GenericState) Config {
	return Config{
		Seed:                int64(state.GetInt(StateSeed, DefaultSeed)),
		Seeds:               model.StateValue(state, StateSeeds, []string{}),
		SeedsForUpdatesOnly: model.StateValue(state, StateSeedsUpdatesOnly, false),
	}
}

// ShowTargetingInfo reports whether other plugins may display targets.
func ShowTargetingInfo(state *model.GenericState) bool {
	return model.StateValue(state, StateShowTargetingInfo, true)
}

// Result is the outcome of one computation.
type Result struct {
	Graph *Graph
	// Declined is set when there were too few players to build a graph.
	Declined bool
	// Collapsed is set when a repair found no assignment at all; the graph
	// is then empty and it is open season.
	Collapsed     bool
	CollapseEvent string
	Warnings      []string
	Elapsed       time.Duration
}

// TargetsOf returns the assassin's targets, or nil without a graph.
func (r *Result) TargetsOf(id string) []string {
	return r.Graph.TargetsOf(id)
}

// AttackersOf returns the assassin's attackers, or nil without a graph.
func (r *Result) AttackersOf(id string) []string {
	return r.Graph.AttackersOf(id)
}

// Engine computes targeting graphs.
type Engine struct {
	limits Limits
	clock  clock.Clock
	logger *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(limits Limits, clk clock.Clock, logger *slog.Logger) *Engine {
	return &Engine{limits: limits, clock: clk, logger: logger}
}

// Compute derives the current graph from the snapshot.
func (e *Engine) Compute(snapshot *model.Snapshot) (*Result, error) {
	start := e.clock.Now()
	cfg := ConfigFromState(snapshot.State)

	var players []string
	for _, a := range snapshot.FullPlayers() {
		players = append(players, a.Identifier())
	}
	seeds := make(map[string]bool)
	for _, id := range cfg.Seeds {
		if slices.Contains(players, id) {
			seeds[id] = true
		}
	}

	result := &Result{Graph: NewGraph()}
	if len(players) < MinPlayers {
		result.Declined = true
		result.warn(e.logger, fmt.Sprintf("only %d players, targeting needs at least %d", len(players), MinPlayers))
		result.Elapsed = e.clock.Now().Sub(start)
		return result, nil
	}

	rng := random.NewSeeded(cfg.Seed)
	g, err := buildInitial(players, seeds, !cfg.SeedsForUpdatesOnly, rng, e.limits)
	if err != nil {
		return nil, err
	}
	result.Graph = g

	for _, ev := range snapshot.EventsBySecretID() {
		if !e.applyEvent(result, ev, seeds, snapshot) {
			break
		}
	}

	result.Elapsed = e.clock.Now().Sub(start)
	e.logger.Info("targeting computed",
		slog.Int("players", len(players)),
		slog.Int("nodes", result.Graph.Len()),
		slog.Bool("collapsed", result.Collapsed),
		slog.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// applyEvent repairs the graph for the victims of ev. It returns false once
// the graph has collapsed.
func (e *Engine) applyEvent(result *Result, ev *model.Event, seeds map[string]bool, snapshot *model.Snapshot) bool {
	victims, duplicates := ev.Victims()
	for _, d := range duplicates {
		result.warn(e.logger, fmt.Sprintf("%s is killed more than once in %s; counting one death", d, ev.Identifier()))
	}

	var dead []string
	for _, v := range victims {
		if snapshot.IsCityWatch(v) || !result.Graph.Contains(v) {
			continue
		}
		dead = append(dead, v)
	}

	for chunk := range slices.Chunk(dead, ChunkSize) {
		outcome := result.Graph.repair(chunk, seeds, e.limits.PermutationCap)
		for _, stage := range outcome.capHits {
			result.warn(e.logger, fmt.Sprintf("search limit reached at %s stage repairing %s", stage, ev.Identifier()))
		}
		if outcome.stage >= StageAllowSeeds && len(seeds) > 0 {
			result.warn(e.logger, fmt.Sprintf("seeds may target each other after %s", ev.Identifier()))
		}
		if outcome.stage >= StageAllowMutual {
			result.warn(e.logger, fmt.Sprintf("mutual targets allowed after %s", ev.Identifier()))
		}
		if outcome.stage == StageCollapsed {
			result.Collapsed = true
			result.CollapseEvent = ev.Identifier()
			result.Graph = NewGraph()
			result.warn(e.logger, fmt.Sprintf("targeting graph collapsed at %s: it is now open season", ev.Identifier()))
			return false
		}
	}
	return true
}

func (r *Result) warn(logger *slog.Logger, msg string) {
	logger.Warn("targeting", slog.String("warning", msg))
	r.Warnings = append(r.Warnings, msg)
}
