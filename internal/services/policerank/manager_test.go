package policerank

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

func (s *ManagerSuite) changes(e *model.Event, deltas map[string]int) {
	s.Require().NoError(e.PluginState.Encode(PluginID, deltas))
}

func (s *ManagerSuite) TestDefaultRank() {
	cw := s.game.CityWatch("Watch")

	m := Build(s.game.Snapshot())

	s.Equal(0, m.Rank(cw.Identifier()))
	s.Equal("Constable", m.RankName(cw.Identifier()))
	s.Equal(DefaultRanks, m.Ranks())
}

func (s *ManagerSuite) TestPromotionsClamp() {
	cw := s.game.CityWatch("Watch")
	s.changes(s.game.Event(0, "promoted"), map[string]int{cw.Identifier(): 2})
	s.changes(s.game.Event(time.Hour, "promoted again"), map[string]int{cw.Identifier(): 10})

	m := Build(s.game.Snapshot())
	s.Equal("Commander", m.RankName(cw.Identifier()))

	s.changes(s.game.Event(2*time.Hour, "disgraced"), map[string]int{cw.Identifier(): -100})
	m = Build(s.game.Snapshot())
	s.Equal("Constable", m.RankName(cw.Identifier()))
}

func (s *ManagerSuite) TestCustomRanks() {
	s.Require().NoError(s.game.State.Set(StateRanks, []string{"Cadet", "Chief"}))
	s.game.State.SetInt(StateDefaultRank, 5)
	cw := s.game.CityWatch("Watch")

	m := Build(s.game.Snapshot())

	s.Equal("Chief", m.RankName(cw.Identifier()))
}

func (s *ManagerSuite) TestRosterOrder() {
	low := s.game.CityWatch("Low")
	high := s.game.CityWatch("High")
	s.game.Player("Player")
	s.changes(s.game.Event(0, "promotion"), map[string]int{high.Identifier(): 1})

	m := Build(s.game.Snapshot())

	s.Equal([]string{high.Identifier(), low.Identifier()}, m.Roster(false))
}
