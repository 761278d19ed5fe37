package death

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
}

func (s *ManagerSuite) TestDeathsAreRecorded() {
	a, b, c := s.game.Player("A"), s.game.Player("B"), s.game.Player("C")
	e := s.game.Event(time.Hour, "A kills B", testutil.Kill(a, b))

	m := Build(s.game.Snapshot())

	s.True(m.IsDead(b.Identifier()))
	s.False(m.IsDead(a.Identifier()))
	s.False(m.IsDead(c.Identifier()))
	s.Equal([]string{b.Identifier()}, m.Dead())
	first, ok := m.FirstDeath(b.Identifier())
	s.True(ok)
	s.Equal(e.Identifier(), first.Identifier())
	s.Equal([]string{a.Identifier()}, m.Killers(b.Identifier()))
}

func (s *ManagerSuite) TestAddingSameEventTwiceIsIdempotent() {
	a, b := s.game.Player("A"), s.game.Player("B")
	e := s.game.Event(time.Hour, "A kills B", testutil.Kill(a, b))

	m := NewManager(true)
	m.AddEvent(e)
	before := m.Dead()
	m.AddEvent(e)

	s.Equal(before, m.Dead())
	s.Len(m.DeathEvents(b.Identifier()), 1)
}

func (s *ManagerSuite) TestDoubleDeathInOneEventCountsOnce() {
	a, b, v := s.game.Player("A"), s.game.Player("B"), s.game.Player("V")
	s.game.Event(time.Hour, "both kill V", testutil.Kill(a, v), testutil.Kill(b, v))

	m := Build(s.game.Snapshot())

	s.Len(m.DeathEvents(v.Identifier()), 1)
	s.Equal([]string{a.Identifier(), b.Identifier()}, m.Killers(v.Identifier()))
}

func (s *ManagerSuite) TestRepeatedDeathsTracked() {
	a, b := s.game.Player("A"), s.game.Player("B")
	s.game.Event(time.Hour, "first", testutil.Kill(a, b))
	s.game.Event(2*time.Hour, "second", testutil.Kill(a, b))
	s.Require().NoError(s.game.State.Set(model.StatePermaDeath, false))

	m := Build(s.game.Snapshot())

	s.False(m.PermaDeath())
	s.Len(m.DeathEvents(b.Identifier()), 2)
	s.Equal([]string{b.Identifier()}, m.Dead())
}
