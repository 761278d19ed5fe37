package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/autoumpire/internal/dependencies/mocks"
	"github.com/mcoot/autoumpire/internal/metrics"
	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/plugins"
	"github.com/mcoot/autoumpire/internal/services/database"
	"github.com/mcoot/autoumpire/internal/testutil"
	"github.com/mcoot/autoumpire/internal/ui"
	"github.com/mcoot/autoumpire/internal/ui/prompt"
)

type CoreSuite struct {
	suite.Suite
	ctx    context.Context
	game   *testutil.GameBuilder
	alpha  *model.Assassin
	bravo  *model.Assassin
	db     *database.Service
	bus    *plugins.Bus
	script *prompt.Scripted
}

func TestCoreSuite(t *testing.T) {
	suite.Run(t, new(CoreSuite))
}

func (s *CoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.game = testutil.NewGame(testutil.Epoch)
	s.alpha = s.game.Player("Alpha")
	s.bravo = s.game.Player("Bravo")
	s.load()
}

// load rebuilds the store and bus from the game built so far.
func (s *CoreSuite) load() {
	s.db = database.New(s.game.Store(), testutil.NopLogger())
	s.bus = plugins.NewBus(s.db, metrics.New(), testutil.NopLogger())
	clk := mocks.NewMockClock(testutil.Epoch.Add(2 * time.Hour))
	s.Require().NoError(s.bus.Register(New(s.bus, clk, testutil.NopLogger())))
	s.script = prompt.NewScripted()
}

func (s *CoreSuite) run(id string) {
	s.Require().NoError(s.bus.Run(s.ctx, s.script, id))
}

func (s *CoreSuite) onlyEvent() *model.Event {
	ids, err := s.db.EventIdentifiers(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(ids, 1)
	e, err := s.db.GetEvent(s.ctx, ids[0])
	s.Require().NoError(err)
	return e
}

func (s *CoreSuite) TestCreateAssassin() {
	s.script.
		Answer(fieldPseudonym, "Charlie").
		Answer(fieldRealName, "Chris").
		Answer(fieldCollege, "Trinity").
		Answer(fieldCityWatch, true)
	s.run(ExportCreateAssassin)

	a, err := s.db.GetAssassin(s.ctx, "Chris (Charlie) (City Watch) ID: 2")
	s.Require().NoError(err)
	s.Equal("Trinity", a.College)
	s.True(a.IsCityWatch)
	s.Contains(s.script.Labels(), "Created "+a.Identifier())
}

func (s *CoreSuite) TestCreateAssassinNeedsRealName() {
	s.script.Answer(fieldPseudonym, "Charlie")
	s.Error(s.bus.Run(s.ctx, s.script, ExportCreateAssassin))

	ids, err := s.db.GetIdentifiers(s.ctx, nil, nil)
	s.Require().NoError(err)
	s.Len(ids, 2)
}

func (s *CoreSuite) TestUpdateAssassinPseudonyms() {
	later := testutil.Epoch.Add(testutil.Days(2))
	s.script.Choices = []string{s.alpha.Identifier()}
	s.script.
		Answer(fieldPseudonyms, []ui.PseudonymEntry{{Name: "Alpha"}, {Name: "The Ghost", ValidFrom: &later}}).
		Answer(fieldNotes, "left-handed")
	s.run(ExportUpdateAssassin)

	a, err := s.db.GetAssassin(s.ctx, s.alpha.Identifier())
	s.Require().NoError(err)
	s.Equal([]string{"Alpha", "The Ghost"}, a.Pseudonyms)
	s.WithinDuration(later, a.PseudonymDatetimes[1], 0)
	s.Equal("left-handed", a.Notes)
}

func (s *CoreSuite) TestCreateEvent() {
	kill := testutil.Kill(s.alpha, s.bravo)
	s.script.
		Answer(plugins.FieldEventHeadline, "Alpha strikes").
		Answer(plugins.FieldEventAssassins, map[string]int{s.alpha.Identifier(): 0, s.bravo.Identifier(): 0}).
		Answer(plugins.FieldEventReports, []model.Report{{Assassin: s.bravo.Identifier(), Text: "  Ouch.  "}}).
		Answer(plugins.FieldEventKills, []model.Kill{kill})
	s.run(ExportCreateEvent)

	e := s.onlyEvent()
	s.Equal("Alpha strikes", e.Headline)
	s.WithinDuration(testutil.Epoch.Add(2*time.Hour), e.Datetime, 0)
	s.Equal([]model.Kill{kill}, e.Kills)
	s.Equal([]model.Report{{Assassin: s.bravo.Identifier(), Text: "Ouch."}}, e.Reports)
}

func (s *CoreSuite) TestCreateEventRejectsUnknownPseudonym() {
	s.script.
		Answer(plugins.FieldEventHeadline, "Bad").
		Answer(plugins.FieldEventAssassins, map[string]int{s.alpha.Identifier(): 3})
	s.run(ExportCreateEvent)

	ids, err := s.db.EventIdentifiers(s.ctx)
	s.Require().NoError(err)
	s.Empty(ids)
	s.Contains(s.script.Labels()[len(s.script.Labels())-1], "pseudonym")
}

func (s *CoreSuite) TestUpdateEventKeepsDefaults() {
	e := s.game.Event(time.Hour, "Original", testutil.Kill(s.alpha, s.bravo))
	e.Reports = []model.Report{{Assassin: s.alpha.Identifier(), Text: "Easy."}}
	s.load()

	s.script.Choices = []string{e.Identifier()}
	s.script.Answer(plugins.FieldEventHeadline, "Rewritten")
	s.run(ExportUpdateEvent)

	got := s.onlyEvent()
	s.Equal(e.Identifier(), got.Identifier())
	s.Equal("Rewritten", got.Headline)
	s.Equal(e.Kills, got.Kills)
	s.Equal(e.Reports, got.Reports)
	s.WithinDuration(e.Datetime, got.Datetime, 0)
}

func (s *CoreSuite) TestUpdateEventKeepsEachReport() {
	e := s.game.Event(time.Hour, "Duel", testutil.Kill(s.alpha, s.bravo))
	e.Reports = []model.Report{
		{Assassin: s.alpha.Identifier(), Text: "First."},
		{Assassin: s.bravo.Identifier(), Text: "Ouch."},
		{Assassin: s.alpha.Identifier(), Text: "Second."},
	}
	s.load()

	s.script.Choices = []string{e.Identifier()}
	s.run(ExportUpdateEvent)

	s.Equal(e.Reports, s.onlyEvent().Reports)
}

func (s *CoreSuite) TestDeleteEventNeedsConfirmation() {
	e := s.game.Event(time.Hour, "Doomed")
	s.load()

	s.script.Choices = []string{e.Identifier()}
	s.run(ExportDeleteEvent)
	s.onlyEvent()

	s.script.Choices = []string{e.Identifier()}
	s.script.Answer(fieldConfirm, true)
	s.run(ExportDeleteEvent)
	ids, err := s.db.EventIdentifiers(s.ctx)
	s.Require().NoError(err)
	s.Empty(ids)
}

func (s *CoreSuite) TestResurrect() {
	s.game.Event(time.Hour, "Bravo falls", testutil.Kill(s.alpha, s.bravo))
	s.load()

	s.script.Choices = []string{s.bravo.Identifier()}
	s.script.Answer(fieldPseudonym, "Bravo Reborn")
	s.run(ExportResurrect)

	old, err := s.db.GetAssassin(s.ctx, s.bravo.Identifier())
	s.Require().NoError(err)
	s.True(old.Hidden)

	watch, err := s.db.GetFiltered(s.ctx, func(a *model.Assassin) bool { return a.IsCityWatch }, nil)
	s.Require().NoError(err)
	s.Require().Len(watch, 1)
	s.Equal("Bravo Reborn", watch[0].InitialPseudonym())
	s.Equal(old.RealName, watch[0].RealName)
}

func (s *CoreSuite) TestResurrectWithNobodyDead() {
	s.run(ExportResurrect)
	s.Contains(s.script.Labels(), "Nothing to choose: Dead player")
}

func (s *CoreSuite) TestGameConfig() {
	end := testutil.Epoch.Add(testutil.Days(14))
	s.script.
		Answer(fieldTimezone, "UTC").
		Answer(fieldGameStart, testutil.Epoch).
		Answer(fieldGameEnd, &end).
		Answer(fieldPermaDeath, false)
	s.run(ExportGameConfig)

	state, err := s.db.GenericState(s.ctx)
	s.Require().NoError(err)
	s.Equal(time.UTC, model.Location(state))
	s.True(testutil.Epoch.Equal(model.GameStart(state)))
	s.True(end.Equal(model.GameEnd(state)))
	s.False(model.PermaDeath(state))
}

func (s *CoreSuite) TestGameConfigRejectsUnknownTimezone() {
	s.script.Answer(fieldTimezone, "Mars/Olympus")
	s.Error(s.bus.Run(s.ctx, s.script, ExportGameConfig))
}

func (s *CoreSuite) TestPluginConfig() {
	s.Require().NoError(s.bus.Register(
		&plugins.Plugin{ID: "extra", Name: "Extra"},
		&plugins.Plugin{ID: "optional", Name: "Optional", DefaultDisabled: true},
	))

	s.script.Answer(fieldEnabled, []string{"optional"})
	s.run(ExportPluginConfig)

	extra, err := s.bus.IsEnabled(s.ctx, "extra")
	s.Require().NoError(err)
	s.False(extra)
	optional, err := s.bus.IsEnabled(s.ctx, "optional")
	s.Require().NoError(err)
	s.True(optional)
}
