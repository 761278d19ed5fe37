package scoring

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/services/competency"
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

func (s *ManagerSuite) TestChainOfKills() {
	players := s.game.Players("p", 50)
	for i := 1; i < 50; i++ {
		s.game.Event(time.Duration(i)*time.Hour, fmt.Sprintf("p%d kills p%d", i, i-1),
			testutil.Kill(players[i], players[i-1]))
	}

	m := Build(s.game.Snapshot())

	s.Equal(0, m.Kills(players[0].Identifier()))
	for i := 1; i < 50; i++ {
		s.Equal(1, m.Kills(players[i].Identifier()), "kills of p%d", i)
		s.Equal(i, m.Conkers(players[i].Identifier()), "conkers of p%d", i)
	}
	s.Equal([]string{players[49].Identifier()}, m.Live())
}

func (s *ManagerSuite) TestBinaryKillTree() {
	players := s.game.Players("n", 15)
	offset := time.Duration(0)
	for i := 6; i >= 0; i-- {
		for _, child := range []int{2*i + 1, 2*i + 2} {
			offset += time.Hour
			s.game.Event(offset, "tree kill", testutil.Kill(players[i], players[child]))
		}
	}

	m := Build(s.game.Snapshot())

	expected := map[int]int{0: 14, 1: 6, 2: 6, 3: 2, 4: 2, 5: 2, 6: 2}
	for i, p := range players {
		s.Equal(expected[i], m.Conkers(p.Identifier()), "conkers of node %d", i)
		if i <= 6 {
			s.Equal(2, m.Kills(p.Identifier()), "kills of node %d", i)
		} else {
			s.Equal(0, m.Kills(p.Identifier()), "kills of node %d", i)
		}
	}
}

func (s *ManagerSuite) TestLoopedKillGraphWithoutPermaDeath() {
	s.Require().NoError(s.game.State.Set(model.StatePermaDeath, false))
	p := s.game.Players("p", 5)
	edges := [][2]int{{0, 1}, {1, 0}, {1, 2}, {2, 3}, {3, 4}, {4, 1}}
	for i, edge := range edges {
		s.game.Event(time.Duration(i+1)*time.Hour, "loop", testutil.Kill(p[edge[0]], p[edge[1]]))
	}

	m := Build(s.game.Snapshot())

	for i, a := range p {
		s.Equal(4, m.Conkers(a.Identifier()), "conkers of p%d", i)
		s.True(m.IsLive(a.Identifier()))
	}
}

func (s *ManagerSuite) TestPermaDeathIgnoresRepeatKills() {
	a, b, v := s.game.Player("A"), s.game.Player("B"), s.game.Player("V")
	s.game.Event(time.Hour, "A kills V", testutil.Kill(a, v))
	s.game.Event(2*time.Hour, "B kills V again", testutil.Kill(b, v))

	m := Build(s.game.Snapshot())

	s.Equal(1, m.Kills(a.Identifier()))
	s.Equal(0, m.Kills(b.Identifier()))
	s.False(m.IsLive(v.Identifier()))
}

func (s *ManagerSuite) TestFormula() {
	a, b := s.game.Player("A"), s.game.Player("B")
	s.Require().NoError(s.game.State.Set(StateFormula, "k * 10 + a + b"))
	s.Require().NoError(s.game.State.Set(StateBonuses, map[string]float64{a.Identifier(): 0.5}))
	e := s.game.Event(time.Hour, "A kills B", testutil.Kill(a, b))
	s.Require().NoError(e.PluginState.Encode(competency.PluginID, competency.EventState{
		Attempts: []string{a.Identifier(), a.Identifier()},
	}))

	m := Build(s.game.Snapshot())

	s.Equal(2, m.Attempts(a.Identifier()))
	s.InDelta(12.5, m.Score(a.Identifier()), 1e-9)
	s.Empty(m.Warnings())
}

func (s *ManagerSuite) TestEmptyFormulaIsConkers() {
	a, b, c := s.game.Player("A"), s.game.Player("B"), s.game.Player("C")
	s.game.Event(time.Hour, "B kills C", testutil.Kill(b, c))
	s.game.Event(2*time.Hour, "A kills B", testutil.Kill(a, b))

	m := Build(s.game.Snapshot())

	s.InDelta(2.0, m.Score(a.Identifier()), 1e-9)
}

func (s *ManagerSuite) TestFailingFormulaFallsBackToConkers() {
	a, b := s.game.Player("A"), s.game.Player("B")
	s.Require().NoError(s.game.State.Set(StateFormula, "k / a"))
	s.game.Event(time.Hour, "A kills B", testutil.Kill(a, b))

	m := Build(s.game.Snapshot())

	s.InDelta(1.0, m.Score(a.Identifier()), 1e-9)
	s.Len(m.Warnings(), 1)
}

func (s *ManagerSuite) TestInvalidFormulaWarns() {
	s.Require().NoError(s.game.State.Set(StateFormula, "import os"))
	a := s.game.Player("A")

	m := Build(s.game.Snapshot())

	s.InDelta(0.0, m.Score(a.Identifier()), 1e-9)
	s.Len(m.Warnings(), 1)
}

func (s *ManagerSuite) TestRatingOrdersSurvivorsAboveDead() {
	end := s.game.Start.Add(testutil.Days(14))
	s.Require().NoError(s.game.State.Set(model.StateGameEnd, model.Timestamp{Time: end}))
	a, b, c, d := s.game.Player("A"), s.game.Player("B"), s.game.Player("C"), s.game.Player("D")
	s.game.Event(testutil.Days(1), "C kills D", testutil.Kill(c, d))
	s.game.Event(testutil.Days(2), "A kills C", testutil.Kill(a, c))

	m := Build(s.game.Snapshot())

	s.InDelta(float64(end.Unix())+2, m.Rating(a.Identifier()), 1e-6)
	s.InDelta(float64(s.game.Start.Add(testutil.Days(2)).Unix()), m.Rating(c.Identifier()), 1e-6)
	s.Equal(
		[]string{a.Identifier(), b.Identifier(), c.Identifier(), d.Identifier()},
		m.Scoreboard([]string{d.Identifier(), c.Identifier(), b.Identifier(), a.Identifier()}),
	)
}
