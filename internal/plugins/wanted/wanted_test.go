package wanted

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/autoumpire/internal/dependencies/mocks"
	"github.com/mcoot/autoumpire/internal/metrics"
	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/plugins"
	"github.com/mcoot/autoumpire/internal/plugins/core"
	"github.com/mcoot/autoumpire/internal/services/database"
	"github.com/mcoot/autoumpire/internal/services/targeting"
	"github.com/mcoot/autoumpire/internal/services/wanted"
	"github.com/mcoot/autoumpire/internal/testutil"
	"github.com/mcoot/autoumpire/internal/ui"
	"github.com/mcoot/autoumpire/internal/ui/prompt"
)

type PluginSuite struct {
	suite.Suite
	ctx    context.Context
	game   *testutil.GameBuilder
	alpha  *model.Assassin
	bravo  *model.Assassin
	clock  *mocks.MockClock
	db     *database.Service
	bus    *plugins.Bus
	plugin *plugins.Plugin
	script *prompt.Scripted
	engine *targeting.Engine
}

func TestPluginSuite(t *testing.T) {
	suite.Run(t, new(PluginSuite))
}

func (s *PluginSuite) SetupTest() {
	s.ctx = context.Background()
	s.game = testutil.NewGame(testutil.Epoch)
	s.Require().NoError(s.game.State.Set(model.StateTimezone, "UTC"))
	s.alpha = s.game.Player("Alpha")
	s.bravo = s.game.Player("Bravo")
	s.clock = mocks.NewMockClock(testutil.Epoch.Add(time.Hour))
	s.engine = targeting.NewEngine(targeting.DefaultLimits, s.clock, testutil.NopLogger())
	s.load()
}

func (s *PluginSuite) load() {
	s.db = database.New(s.game.Store(), testutil.NopLogger())
	s.bus = plugins.NewBus(s.db, metrics.New(), testutil.NopLogger())
	s.plugin = New(s.db, s.clock, s.engine)
	s.Require().NoError(s.bus.Register(core.New(s.bus, s.clock, testutil.NopLogger()), s.plugin))
	s.script = prompt.NewScripted()
}

func (s *PluginSuite) order(e *model.Event, id string, o wanted.Order) {
	e.Assassins[id] = 0
	s.Require().NoError(e.PluginState.Encode(wanted.PluginID, map[string]wanted.Order{id: o}))
}

func (s *PluginSuite) TestCreateEventStoresOrders() {
	s.script.
		Answer(plugins.FieldEventAssassins, map[string]int{s.alpha.Identifier(): 0, s.bravo.Identifier(): 0}).
		Answer(FieldOrders, map[string]ui.Crime{
			s.alpha.Identifier(): {Duration: 3, Crime: " Arson ", Redemption: "Apologise"},
			s.bravo.Identifier(): {},
		})
	s.Require().NoError(s.bus.Run(s.ctx, s.script, core.ExportCreateEvent))

	ids, err := s.db.EventIdentifiers(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(ids, 1)
	e, err := s.db.GetEvent(s.ctx, ids[0])
	s.Require().NoError(err)
	s.Equal(map[string]wanted.Order{
		s.alpha.Identifier(): {Duration: 3, Crime: "Arson", Redemption: "Apologise"},
	}, wanted.ReadEventState(e))
}

func (s *PluginSuite) TestUpdateEventDefaultsToStoredOrders() {
	e := s.game.Event(time.Hour, "Crime")
	s.order(e, s.alpha.Identifier(), wanted.Order{Duration: 2, Crime: "Theft"})
	s.load()

	s.script.Choices = []string{e.Identifier()}
	s.Require().NoError(s.bus.Run(s.ctx, s.script, core.ExportUpdateEvent))

	got, err := s.db.GetEvent(s.ctx, e.Identifier())
	s.Require().NoError(err)
	s.Equal(wanted.ReadEventState(e), wanted.ReadEventState(got))
}

func (s *PluginSuite) TestList() {
	s.Require().NoError(s.bus.Run(s.ctx, s.script, ExportList))
	s.Equal([]string{"Nobody is wanted."}, s.script.Labels())

	e := s.game.Event(time.Hour, "Crime")
	s.order(e, s.alpha.Identifier(), wanted.Order{Duration: 2, Crime: "Theft", Redemption: "Return it"})
	s.load()
	s.clock.Set(testutil.Epoch.Add(testutil.Days(1)))

	s.Require().NoError(s.bus.Run(s.ctx, s.script, ExportList))
	s.Equal([]string{
		"Wanted players:",
		s.alpha.Identifier() + " wanted for Theft until Wed 10 Jan 10:00; redemption: Return it",
	}, s.script.Labels())
}

// wantedAmongTen orders Alpha wanted in a game big enough for targeting.
func (s *PluginSuite) wantedAmongTen() {
	s.game.Players("Player", targeting.MinPlayers)
	e := s.game.Event(time.Hour, "Crime")
	s.order(e, s.alpha.Identifier(), wanted.Order{Duration: 2, Crime: "Theft"})
}

func (s *PluginSuite) TestListNamesAttackers() {
	s.wantedAmongTen()
	s.load()
	s.clock.Set(testutil.Epoch.Add(testutil.Days(1)))

	result, err := s.engine.Compute(s.game.Snapshot())
	s.Require().NoError(err)
	s.Require().False(result.Declined)
	attackers := result.AttackersOf(s.alpha.Identifier())
	s.Require().NotEmpty(attackers)

	s.Require().NoError(s.bus.Run(s.ctx, s.script, ExportList))
	labels := s.script.Labels()
	s.Equal("Attackers of "+s.alpha.Identifier()+": "+strings.Join(attackers, ", "), labels[len(labels)-1])
}

func (s *PluginSuite) TestListHidesAttackers() {
	for name, hide := range map[string]func(*model.GenericState){
		"info hidden":        func(g *model.GenericState) { s.Require().NoError(g.Set(targeting.StateShowTargetingInfo, false)) },
		"targeting disabled": func(g *model.GenericState) { g.SetPluginEnabled(targeting.PluginID, false) },
	} {
		s.Run(name, func() {
			s.SetupTest()
			s.wantedAmongTen()
			hide(s.game.State)
			s.load()
			s.clock.Set(testutil.Epoch.Add(testutil.Days(1)))

			s.Require().NoError(s.bus.Run(s.ctx, s.script, ExportList))
			for _, l := range s.script.Labels() {
				s.NotContains(l, "Attackers of")
			}
		})
	}
}

func (s *PluginSuite) TestMail() {
	e := s.game.Event(time.Hour, "Crime")
	s.order(e, s.alpha.Identifier(), wanted.Order{Duration: 2, Crime: "Theft"})
	bag := plugins.NewMailbag(s.game.Snapshot(), testutil.Epoch.Add(testutil.Days(1)),
		[]string{s.alpha.Identifier(), s.bravo.Identifier()})

	s.plugin.Subscriptions[0].Respond(s.ctx, nil, bag)

	s.Require().Len(bag.Emails[0].Sections, 1)
	own, err := bag.Emails[0].Sections[0].HTML(s.ctx)
	s.Require().NoError(err)
	s.Contains(own, "You are <b>wanted for Theft")
	s.Require().Len(bag.Emails[1].Sections, 1)
	other, err := bag.Emails[1].Sections[0].HTML(s.ctx)
	s.Require().NoError(err)
	s.NotContains(other, "You are")
	s.Contains(other, "<li><b>Alpha</b>: Theft</li>")
}
