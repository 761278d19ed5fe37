package competency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/autoumpire/internal/dependencies/mocks"
	"github.com/mcoot/autoumpire/internal/metrics"
	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/plugins"
	"github.com/mcoot/autoumpire/internal/plugins/core"
	"github.com/mcoot/autoumpire/internal/services/competency"
	"github.com/mcoot/autoumpire/internal/services/database"
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
}

func TestPluginSuite(t *testing.T) {
	suite.Run(t, new(PluginSuite))
}

func (s *PluginSuite) SetupTest() {
	s.ctx = context.Background()
	s.game = testutil.NewGame(testutil.Epoch)
	s.Require().NoError(s.game.State.Set(model.StateGameStart, model.Timestamp{Time: testutil.Epoch}))
	s.Require().NoError(s.game.State.Set(model.StateTimezone, "UTC"))
	s.alpha = s.game.Player("Alpha")
	s.bravo = s.game.Player("Bravo")
	s.clock = mocks.NewMockClock(testutil.Epoch.Add(time.Hour))
	s.load()
}

func (s *PluginSuite) load() {
	s.db = database.New(s.game.Store(), testutil.NopLogger())
	s.bus = plugins.NewBus(s.db, metrics.New(), testutil.NopLogger())
	s.plugin = New(s.db, s.clock, testutil.NopLogger())
	s.Require().NoError(s.bus.Register(core.New(s.bus, s.clock, testutil.NopLogger()), s.plugin))
	s.script = prompt.NewScripted()
}

func (s *PluginSuite) setMode(mode competency.Mode) {
	s.Require().NoError(s.game.State.Set(competency.StateMode, string(mode)))
	s.load()
}

func (s *PluginSuite) onlyEvent() *model.Event {
	ids, err := s.db.EventIdentifiers(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(ids, 1)
	e, err := s.db.GetEvent(s.ctx, ids[0])
	s.Require().NoError(err)
	return e
}

func (s *PluginSuite) asked(id string) ui.Component {
	for _, round := range s.script.Asked {
		for _, c := range round {
			if c.Ident() == id {
				return c
			}
		}
	}
	return nil
}

func (s *PluginSuite) TestCreateEventStoresExtensionsAndAttempts() {
	s.script.
		Answer(plugins.FieldEventAssassins, map[string]int{s.alpha.Identifier(): 0, s.bravo.Identifier(): 0}).
		Answer(FieldExtensions, map[string]int{s.alpha.Identifier(): 5, "Nobody ID: 99": 3}).
		Answer(FieldAttempts, []string{s.bravo.Identifier()})
	s.Require().NoError(s.bus.Run(s.ctx, s.script, core.ExportCreateEvent))

	state := competency.ReadEventState(s.onlyEvent())
	s.Equal(map[string]int{s.alpha.Identifier(): 5}, state.Competency)
	s.Equal([]string{s.bravo.Identifier()}, state.Attempts)
}

func (s *PluginSuite) TestEmptyAnswersLeaveNoState() {
	s.script.Answer(plugins.FieldEventAssassins, map[string]int{s.alpha.Identifier(): 0})
	s.Require().NoError(s.bus.Run(s.ctx, s.script, core.ExportCreateEvent))

	_, ok := s.onlyEvent().PluginState[competency.PluginID]
	s.False(ok)
}

func (s *PluginSuite) TestAutoModePrefillsImplicitExtensions() {
	e := s.game.Event(testutil.Days(2), "Alpha kills Bravo", testutil.Kill(s.alpha, s.bravo))
	s.setMode(competency.Auto)

	s.script.Choices = []string{e.Identifier()}
	s.Require().NoError(s.bus.Run(s.ctx, s.script, core.ExportUpdateEvent))

	field, ok := s.asked(FieldExtensions).(ui.AssassinDependentInteger)
	s.Require().True(ok)
	s.Equal(map[string]int{s.alpha.Identifier(): competency.DefaultExtensionDays}, field.Defaults)
	s.Equal(map[string]int{s.alpha.Identifier(): competency.DefaultExtensionDays}, competency.ReadEventState(s.onlyEvent()).Competency)
}

func (s *PluginSuite) TestManualModeDoesNotPrefill() {
	e := s.game.Event(testutil.Days(2), "Alpha kills Bravo", testutil.Kill(s.alpha, s.bravo))
	s.setMode(competency.Manual)

	s.script.Choices = []string{e.Identifier()}
	s.Require().NoError(s.bus.Run(s.ctx, s.script, core.ExportUpdateEvent))

	field, ok := s.asked(FieldExtensions).(ui.AssassinDependentInteger)
	s.Require().True(ok)
	s.Empty(field.Defaults)
}

func (s *PluginSuite) TestFullAutoHidesExtensions() {
	e := s.game.Event(testutil.Days(2), "Extended")
	e.Assassins[s.alpha.Identifier()] = 0
	s.Require().NoError(e.PluginState.Encode(competency.PluginID, competency.EventState{
		Competency: map[string]int{s.alpha.Identifier(): 9},
	}))
	s.setMode(competency.FullAuto)

	s.script.Choices = []string{e.Identifier()}
	s.Require().NoError(s.bus.Run(s.ctx, s.script, core.ExportUpdateEvent))

	_, hidden := s.asked(FieldExtensions).(ui.Hidden)
	s.True(hidden)
	s.Equal(map[string]int{s.alpha.Identifier(): 9}, competency.ReadEventState(s.onlyEvent()).Competency)
}

func (s *PluginSuite) TestConfig() {
	s.script.
		Answer(fieldMode, string(competency.Manual)).
		Answer(fieldInitialDays, 10).
		Answer(fieldDefaultDays, 4)
	s.Require().NoError(s.bus.Run(s.ctx, s.script, ExportConfig))

	state, err := s.db.GenericState(s.ctx)
	s.Require().NoError(err)
	cfg := competency.ConfigFromState(state)
	s.Equal(competency.Manual, cfg.Mode)
	s.Equal(10, cfg.InitialDays)
	s.Equal(4, cfg.DefaultExtension)
}

func (s *PluginSuite) TestConfigRejectsNegativeDays() {
	s.script.Answer(fieldInitialDays, -1)
	s.Require().NoError(s.bus.Run(s.ctx, s.script, ExportConfig))
	s.Contains(s.script.Labels(), errNegativeDays.Error())
}

func (s *PluginSuite) TestDeadlines() {
	s.clock.Set(testutil.Epoch.Add(testutil.Days(8)))
	s.Require().NoError(s.bus.Run(s.ctx, s.script, ExportDeadlines))

	s.Equal([]string{
		s.alpha.Identifier() + ": Mon 15 Jan 09:00 (incompetent)",
		s.bravo.Identifier() + ": Mon 15 Jan 09:00 (incompetent)",
	}, s.script.Labels())
}

func (s *PluginSuite) TestMailSection() {
	watch := s.game.CityWatch("Copper")
	bag := plugins.NewMailbag(s.game.Snapshot(), testutil.Epoch.Add(testutil.Days(8)),
		[]string{s.alpha.Identifier(), watch.Identifier()})

	s.plugin.Subscriptions[0].Respond(s.ctx, nil, bag)

	s.Require().Len(bag.Emails, 2)
	s.Require().Len(bag.Emails[0].Sections, 1)
	body, err := bag.Emails[0].Sections[0].HTML(s.ctx)
	s.Require().NoError(err)
	s.Contains(body, "<b>Mon 15 Jan 09:00</b>")
	s.Contains(body, "<b>incompetent</b>")
	s.Empty(bag.Emails[1].Sections)
}
