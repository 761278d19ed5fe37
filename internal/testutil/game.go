package testutil

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/storage/memory"
)

// Epoch is a Monday morning used as a game start in tests.
var Epoch = time.Date(2024, time.January, 8, 9, 0, 0, 0, time.UTC)

// GameBuilder assembles assassins and events with sequential secret ids for
// manager tests.
type GameBuilder struct {
	Start     time.Time
	State     *model.GenericState
	Assassins []*model.Assassin
	Events    []*model.Event
	next      int
}

// NewGame starts a builder whose game begins at start.
func NewGame(start time.Time) *GameBuilder {
	return &GameBuilder{Start: start, State: model.NewGenericState()}
}

func (g *GameBuilder) nextID() string {
	id := strconv.Itoa(g.next)
	g.next++
	g.State.UniqueID = g.next
	return id
}

// Player adds a full player.
func (g *GameBuilder) Player(pseudonym string) *model.Assassin {
	return g.add(pseudonym, false)
}

// CityWatch adds a city watch member.
func (g *GameBuilder) CityWatch(pseudonym string) *model.Assassin {
	return g.add(pseudonym, true)
}

// Players adds n full players named prefix0..prefix(n-1).
func (g *GameBuilder) Players(prefix string, n int) []*model.Assassin {
	out := make([]*model.Assassin, n)
	for i := range n {
		out[i] = g.Player(fmt.Sprintf("%s%d", prefix, i))
	}
	return out
}

func (g *GameBuilder) add(pseudonym string, cityWatch bool) *model.Assassin {
	a, err := model.NewAssassin(g.nextID(), pseudonym, "Real "+pseudonym, cityWatch)
	if err != nil {
		panic(err)
	}
	g.Assassins = append(g.Assassins, a)
	return a
}

// Event adds an event at the given offset from the game start.
func (g *GameBuilder) Event(offset time.Duration, headline string, kills ...model.Kill) *model.Event {
	e := model.NewEvent(g.nextID(), g.Start.Add(offset), headline)
	e.Kills = kills
	for _, k := range kills {
		e.Assassins[k.Killer] = 0
		e.Assassins[k.Victim] = 0
	}
	g.Events = append(g.Events, e)
	return e
}

// Snapshot indexes everything added so far.
func (g *GameBuilder) Snapshot() *model.Snapshot {
	return model.NewSnapshot(g.Assassins, g.Events, g.State)
}

// Kill builds a kill between two assassins.
func Kill(killer, victim *model.Assassin) model.Kill {
	return model.Kill{Killer: killer.Identifier(), Victim: victim.Identifier()}
}

// Days converts a day count into a duration.
func Days(n float64) time.Duration {
	return time.Duration(n * float64(24*time.Hour))
}

// Store loads everything built so far into a fresh memory store.
func (g *GameBuilder) Store() *memory.Storage {
	s := memory.New()
	s.Load(g.Assassins, g.Events, g.State)
	return s
}
