package wanted

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

func (s *ManagerSuite) order(e *model.Event, orders map[string]Order) {
	s.Require().NoError(e.PluginState.Encode(PluginID, orders))
}

func (s *ManagerSuite) TestWantedThenKilled() {
	k, v := s.game.Player("K"), s.game.Player("V")
	e := s.game.Event(0, "V goes rogue")
	s.order(e, map[string]Order{v.Identifier(): {Duration: 2, Crime: "Arson", Redemption: "Die"}})
	s.game.Event(testutil.Days(1), "K kills V", testutil.Kill(k, v))

	m := Build(s.game.Snapshot())

	deaths := m.PlayerDeaths()
	s.Require().Len(deaths, 1)
	s.Equal(v.Identifier(), deaths[0].Victim)
	s.Equal("Arson", deaths[0].Crime)
	s.Equal([]string{k.Identifier()}, deaths[0].Killers)
	s.Contains(m.WantedKills(), v.Identifier())
	s.Empty(m.CorruptDeaths())
	s.False(m.IsWantedAt(v.Identifier(), s.game.Start.Add(testutil.Days(1.5))))
}

func (s *ManagerSuite) TestExpiredOrderIsNotWantedKill() {
	k, v := s.game.Player("K"), s.game.Player("V")
	e := s.game.Event(0, "V goes rogue")
	s.order(e, map[string]Order{v.Identifier(): {Duration: 1, Crime: "Arson"}})
	s.game.Event(testutil.Days(3), "K kills V", testutil.Kill(k, v))

	m := Build(s.game.Snapshot())

	s.Empty(m.WantedKills())
}

func (s *ManagerSuite) TestWantedWindow() {
	v := s.game.Player("V")
	e := s.game.Event(testutil.Days(1), "V goes rogue")
	s.order(e, map[string]Order{v.Identifier(): {Duration: 2, Crime: "Arson"}})

	m := Build(s.game.Snapshot())

	s.False(m.IsWantedAt(v.Identifier(), s.game.Start))
	s.True(m.IsWantedAt(v.Identifier(), s.game.Start.Add(testutil.Days(2))))
	s.True(m.IsWantedAt(v.Identifier(), s.game.Start.Add(testutil.Days(3))))
	s.False(m.IsWantedAt(v.Identifier(), s.game.Start.Add(testutil.Days(3.5))))
	order, ok := m.CurrentOrder(v.Identifier(), s.game.Start.Add(testutil.Days(2)))
	s.True(ok)
	s.Equal("Arson", order.Crime)
}

func (s *ManagerSuite) TestZeroDurationClearsOrder() {
	v := s.game.Player("V")
	e1 := s.game.Event(0, "V goes rogue")
	s.order(e1, map[string]Order{v.Identifier(): {Duration: 5, Crime: "Arson"}})
	e2 := s.game.Event(testutil.Days(1), "V redeemed")
	s.order(e2, map[string]Order{v.Identifier(): {Duration: 0}})

	m := Build(s.game.Snapshot())

	s.True(m.IsWantedAt(v.Identifier(), s.game.Start.Add(testutil.Days(0.5))))
	s.False(m.IsWantedAt(v.Identifier(), s.game.Start.Add(testutil.Days(2))))
}

func (s *ManagerSuite) TestCityWatchAndPlayersSplit() {
	p, cw := s.game.Player("P"), s.game.CityWatch("Watch")
	e := s.game.Event(0, "both rogue")
	s.order(e, map[string]Order{
		p.Identifier():  {Duration: 3, Crime: "Theft"},
		cw.Identifier(): {Duration: 3, Crime: "Bribery"},
	})
	s.game.Event(testutil.Days(1), "P kills watch", testutil.Kill(p, cw))

	m := Build(s.game.Snapshot())
	at := s.game.Start.Add(testutil.Days(0.5))

	s.Equal([]string{p.Identifier()}, m.WantedAt(at))
	s.Equal([]string{cw.Identifier()}, m.CorruptAt(at))
	s.Require().Len(m.CorruptDeaths(), 1)
	s.Equal("Bribery", m.CorruptDeaths()[0].Crime)
	s.Empty(m.PlayerDeaths())
	s.Empty(m.CorruptAt(s.game.Start.Add(testutil.Days(2))))
}
