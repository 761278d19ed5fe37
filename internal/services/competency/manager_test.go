package competency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/testutil"
)

type ManagerSuite struct {
	suite.Suite
	game *testutil.GameBuilder
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.game = testutil.NewGame(time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC))
	s.Require().NoError(s.game.State.Set(model.StateGameStart, model.Timestamp{Time: s.game.Start}))
}

func (s *ManagerSuite) setMode(mode Mode) {
	s.Require().NoError(s.game.State.Set(StateMode, string(mode)))
}

func (s *ManagerSuite) withState(e *model.Event, st EventState) {
	s.Require().NoError(e.PluginState.Encode(PluginID, st))
}

func (s *ManagerSuite) TestDefaultDeadline() {
	a := s.game.Player("A")

	m := Build(s.game.Snapshot())

	s.Equal(s.game.Start.Add(testutil.Days(DefaultInitialDays)), m.Deadline(a.Identifier()))
	s.False(m.IsIncoAt(a.Identifier(), s.game.Start.Add(testutil.Days(6))))
	s.True(m.IsIncoAt(a.Identifier(), s.game.Start.Add(testutil.Days(8))))
}

func (s *ManagerSuite) TestExplicitExtensionUsesMax() {
	a := s.game.Player("A")
	e1 := s.game.Event(testutil.Days(5), "long extension")
	s.withState(e1, EventState{Competency: map[string]int{a.Identifier(): 10}})
	e2 := s.game.Event(testutil.Days(6), "short extension")
	s.withState(e2, EventState{Competency: map[string]int{a.Identifier(): 1}})

	m := Build(s.game.Snapshot())

	s.Equal(s.game.Start.Add(testutil.Days(15)), m.Deadline(a.Identifier()))
}

func (s *ManagerSuite) TestDeadlineNeverDecreases() {
	a, b := s.game.Player("A"), s.game.Player("B")
	for i := range 10 {
		e := s.game.Event(testutil.Days(float64(i)), "event")
		s.withState(e, EventState{Competency: map[string]int{a.Identifier(): 10 - i}})
	}
	s.game.Event(testutil.Days(11), "kill", testutil.Kill(a, b))

	cfg := ConfigFromState(s.game.State)
	snapshot := s.game.Snapshot()
	m := NewManager(cfg, snapshot.Assassins)
	prev := m.Deadline(a.Identifier())
	for _, e := range snapshot.Events {
		m.AddEvent(e)
		next := m.Deadline(a.Identifier())
		s.False(next.Before(prev))
		prev = next
	}
}

func (s *ManagerSuite) TestKillGrantsImplicitExtension() {
	a, b := s.game.Player("A"), s.game.Player("B")
	s.game.Event(testutil.Days(6), "A kills B", testutil.Kill(a, b))

	m := Build(s.game.Snapshot())

	s.Equal(s.game.Start.Add(testutil.Days(6+DefaultExtensionDays)), m.Deadline(a.Identifier()))
}

func (s *ManagerSuite) TestCityWatchKillGrantsNothing() {
	a, cw := s.game.Player("A"), s.game.CityWatch("Watch")
	s.game.Event(testutil.Days(6), "A kills watch", testutil.Kill(a, cw))

	m := Build(s.game.Snapshot())

	s.Equal(s.game.Start.Add(testutil.Days(DefaultInitialDays)), m.Deadline(a.Identifier()))
}

func (s *ManagerSuite) TestExplicitOverridesImplicit() {
	a, b := s.game.Player("A"), s.game.Player("B")
	e := s.game.Event(testutil.Days(6), "A kills B", testutil.Kill(a, b))
	s.withState(e, EventState{Competency: map[string]int{a.Identifier(): 0}})

	m := Build(s.game.Snapshot())

	s.Equal(s.game.Start.Add(testutil.Days(DefaultInitialDays)), m.Deadline(a.Identifier()))
}

func (s *ManagerSuite) TestEverySecondAttemptGrantsExtension() {
	a := s.game.Player("A")
	e1 := s.game.Event(testutil.Days(5), "attempt one")
	s.withState(e1, EventState{Attempts: []string{a.Identifier()}})
	e2 := s.game.Event(testutil.Days(6), "attempt two")
	s.withState(e2, EventState{Attempts: []string{a.Identifier()}})

	snapshot := s.game.Snapshot()
	m := NewManager(ConfigFromState(snapshot.State), snapshot.Assassins)
	m.AddEvent(e1)
	s.Equal(s.game.Start.Add(testutil.Days(DefaultInitialDays)), m.Deadline(a.Identifier()))
	s.Equal([]string{a.Identifier()}, m.ImplicitExtensions(e2))
	m.AddEvent(e2)

	s.Equal(s.game.Start.Add(testutil.Days(6+DefaultExtensionDays)), m.Deadline(a.Identifier()))
}

func (s *ManagerSuite) TestManualModeIgnoresKills() {
	s.setMode(Manual)
	a, b := s.game.Player("A"), s.game.Player("B")
	s.game.Event(testutil.Days(6), "A kills B", testutil.Kill(a, b))

	m := Build(s.game.Snapshot())

	s.Equal(s.game.Start.Add(testutil.Days(DefaultInitialDays)), m.Deadline(a.Identifier()))
}

func (s *ManagerSuite) TestIncos() {
	a, b := s.game.Player("A"), s.game.Player("B")
	cw := s.game.CityWatch("Watch")
	e := s.game.Event(testutil.Days(1), "extension")
	s.withState(e, EventState{Competency: map[string]int{b.Identifier(): 30}})

	m := Build(s.game.Snapshot())
	later := s.game.Start.Add(testutil.Days(10))

	s.Equal([]string{a.Identifier()}, m.IncosAt(later))
	s.False(m.IsIncoAt(cw.Identifier(), later))
}

func (s *ManagerSuite) TestDisabledPluginHasNoIncos() {
	a := s.game.Player("A")
	s.game.State.SetPluginEnabled(PluginID, false)

	m := Build(s.game.Snapshot())

	s.False(m.IsIncoAt(a.Identifier(), s.game.Start.Add(testutil.Days(100))))
	s.Empty(m.IncosAt(s.game.Start.Add(testutil.Days(100))))
}
