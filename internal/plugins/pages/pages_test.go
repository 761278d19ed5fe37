package pages

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/autoumpire/internal/dependencies/mocks"
	"github.com/mcoot/autoumpire/internal/metrics"
	"github.com/mcoot/autoumpire/internal/pages"
	"github.com/mcoot/autoumpire/internal/plugins"
	"github.com/mcoot/autoumpire/internal/plugins/policerank"
	"github.com/mcoot/autoumpire/internal/plugins/scoring"
	"github.com/mcoot/autoumpire/internal/services/database"
	"github.com/mcoot/autoumpire/internal/services/render"
	"github.com/mcoot/autoumpire/internal/testutil"
	"github.com/mcoot/autoumpire/internal/ui"
	"github.com/mcoot/autoumpire/internal/ui/prompt"
)

type PluginSuite struct {
	suite.Suite
	ctx       context.Context
	game      *testutil.GameBuilder
	dir       Dir
	bus       *plugins.Bus
	script    *prompt.Scripted
	published []string
}

func TestPluginSuite(t *testing.T) {
	suite.Run(t, new(PluginSuite))
}

func (s *PluginSuite) SetupTest() {
	s.ctx = context.Background()
	s.published = nil
	s.game = testutil.NewGame(testutil.Epoch)
	alpha, bravo := s.game.Player("Alpha"), s.game.Player("Bravo")
	s.game.CityWatch("Copper")
	s.game.Event(time.Hour, "Alpha kills Bravo", testutil.Kill(alpha, bravo))

	db := database.New(s.game.Store(), testutil.NopLogger())
	s.dir = Dir(s.T().TempDir())
	s.bus = plugins.NewBus(db, metrics.New(), testutil.NopLogger())
	clk := mocks.NewMockClock(testutil.Epoch.Add(testutil.Days(1)))
	s.Require().NoError(s.bus.Register(
		New(s.bus, s.dir, clk, metrics.New(), testutil.NopLogger()),
		scoring.New(db, testutil.NopLogger()),
		policerank.New(db),
		s.uploader(),
	))
	s.script = prompt.NewScripted()
}

// uploader stands in for a plugin that publishes generated pages elsewhere.
func (s *PluginSuite) uploader() *plugins.Plugin {
	return &plugins.Plugin{
		ID: "uploader",
		Hooks: plugins.Hooks{
			PageRequestGenerate: func(context.Context) []ui.Component {
				return []ui.Component{ui.Checkbox{ID: "uploader.go", Title: "Upload?", Default: true}}
			},
			PageGenerate: func(_ context.Context, answers ui.Answers) []ui.Component {
				if !ui.ValueOr(answers, "uploader.go", false) {
					return nil
				}
				site, err := s.dir.Load()
				s.Require().NoError(err)
				for name := range site {
					s.published = append(s.published, name)
				}
				return []ui.Component{ui.Info("uploaded")}
			},
		},
	}
}

func (s *PluginSuite) TestGenerateWritesEnabledPages() {
	s.Require().NoError(s.bus.Run(s.ctx, s.script, ExportGenerate))

	site, err := s.dir.Load()
	s.Require().NoError(err)
	s.Contains(site, pages.IndexPage)
	s.Contains(site, pages.Stylesheet)
	s.Contains(site, render.NewsPage(1))
	s.Contains(site, pages.ScoreboardPage)
	s.Contains(site, pages.StatsPage)
	s.NotContains(site, pages.CityWatchPage)
	s.NotContains(site, pages.WantedPage)

	s.Equal([]string{"Generated 6 pages.", "uploaded"}, s.script.Labels())
	s.ElementsMatch(s.published, keys(site))
}

func (s *PluginSuite) TestEnablingPluginAddsPage() {
	s.Require().NoError(s.bus.SetEnabled(s.ctx, "policerank", true))
	s.Require().NoError(s.bus.Run(s.ctx, s.script, ExportGenerate))

	site, err := s.dir.Load()
	s.Require().NoError(err)
	s.Contains(site, pages.CityWatchPage)
}

func (s *PluginSuite) TestHookAnswerIsHonoured() {
	s.script.Answer("uploader.go", false)
	s.Require().NoError(s.bus.Run(s.ctx, s.script, ExportGenerate))

	s.Empty(s.published)
	s.Equal([]string{"Generated 6 pages."}, s.script.Labels())
}

func (s *PluginSuite) TestDirRejectsNestedNames() {
	s.Error(s.dir.Publish(s.ctx, map[string][]byte{"../escape.html": nil}))
}

func (s *PluginSuite) TestLoadMissingDir() {
	site, err := Dir(s.T().TempDir() + "/missing").Load()
	s.Require().NoError(err)
	s.Empty(site)
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
