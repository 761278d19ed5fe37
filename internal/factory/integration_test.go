package factory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/autoumpire/internal/config"
	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/pages"
	"github.com/mcoot/autoumpire/internal/plugins/mail"
	pagesplugin "github.com/mcoot/autoumpire/internal/plugins/pages"
	"github.com/mcoot/autoumpire/internal/plugins/remotesync"
	"github.com/mcoot/autoumpire/internal/remote"
	"github.com/mcoot/autoumpire/internal/services/database"
	"github.com/mcoot/autoumpire/internal/storage/file"
	"github.com/mcoot/autoumpire/internal/testutil"
	"github.com/mcoot/autoumpire/internal/ui"
	"github.com/mcoot/autoumpire/internal/ui/prompt"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.ctx = context.Background()
	app, err := NewTestApp(s.ctx, s.T().TempDir())
	s.Require().NoError(err)
	s.app = app
}

func (s *IntegrationSuite) addPlayers(names ...string) []*model.Assassin {
	out := make([]*model.Assassin, 0, len(names))
	for _, name := range names {
		a, err := s.app.DB.CreateAssassin(s.ctx, database.AssassinParams{
			InitialPseudonym: name,
			RealName:         "Real " + name,
			Email:            strings.ToLower(name) + "@example.org",
		})
		s.Require().NoError(err)
		out = append(out, a)
	}
	s.Require().NoError(s.app.DB.Flush(s.ctx))
	return out
}

func (s *IntegrationSuite) addKill(killer, victim *model.Assassin) {
	e, err := s.app.DB.NewEvent(s.ctx, s.app.MockClock.Now(), killer.Pseudonyms[0]+" strikes")
	s.Require().NoError(err)
	e.Assassins[killer.Identifier()] = 0
	e.Assassins[victim.Identifier()] = 0
	e.Kills = []model.Kill{testutil.Kill(killer, victim)}
	s.Require().NoError(s.app.DB.AddEvent(s.ctx, e))
	s.Require().NoError(s.app.DB.Flush(s.ctx))
}

func (s *IntegrationSuite) run(export string, script *prompt.Scripted) []string {
	if script == nil {
		script = prompt.NewScripted()
	}
	labels, err := s.app.RunScripted(s.ctx, script, export)
	s.Require().NoError(err)
	return labels
}

func (s *IntegrationSuite) TestMenuOffersEveryPlugin() {
	menu, err := s.app.Bus.Menu(s.ctx)
	s.Require().NoError(err)
	values := make([]string, len(menu))
	for i, o := range menu {
		values[i] = o.Value
	}
	s.Contains(values, pagesplugin.ExportGenerate)
	s.Contains(values, remotesync.ExportUpload)
	s.Contains(values, mail.ExportSend)
}

// Test: a week of play from sign-up to published pages and emails
func (s *IntegrationSuite) TestGameFlow() {
	players := s.addPlayers("Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot")
	s.app.MockClock.Advance(2 * time.Hour)
	s.addKill(players[0], players[1])

	// Generating writes the pages locally and publishes them remotely
	labels := s.run(pagesplugin.ExportGenerate, nil)
	s.Require().Len(labels, 2)
	s.True(strings.HasPrefix(labels[0], "Generated "))
	s.True(strings.HasPrefix(labels[1], "Published "))

	local, err := os.ReadFile(filepath.Join(s.app.Config.PagesDir(), pages.IndexPage))
	s.Require().NoError(err)
	published, err := s.app.Remote.ReadFile(s.ctx, remote.PublicDir+"/"+pages.IndexPage)
	s.Require().NoError(err)
	s.Equal(local, published)

	// Mailing spools one email per player with sections, then uploads
	labels = s.run(mail.ExportSend, nil)
	s.Contains(strings.Join(labels, "\n"), "Spooled ")
	s.Contains(strings.Join(labels, "\n"), "Databases uploaded")

	status := s.run(remotesync.ExportStatus, nil)
	s.Contains(status[0], "in sync")
}

func (s *IntegrationSuite) TestRunScriptedReportsActionFailures() {
	script := prompt.NewScripted()
	script.Answer("core.pseudonym", "Alpha").Answer("core.real_name", "Real Alpha").Answer("core.email", "not an email")
	_, err := s.app.RunScripted(s.ctx, script, "core.create_assassin")
	s.Error(err)

	_, err = s.app.RunScripted(s.ctx, prompt.NewScripted(), "nobody.export")
	s.Error(err)
}

// panicking is a prompter whose forms blow up.
type panicking struct {
	*prompt.Scripted
}

func (panicking) Ask(context.Context, []ui.Component) (ui.Answers, error) {
	panic("form exploded")
}

func (s *IntegrationSuite) TestPanicWritesCrashDump() {
	s.addPlayers("Alpha")

	err := s.app.Run(s.ctx, panicking{prompt.NewScripted()}, "core.create_assassin")
	s.Require().Error(err)
	s.Contains(err.Error(), "form exploded")

	entries, err := os.ReadDir(s.app.Config.CrashDir())
	s.Require().NoError(err)
	s.Require().Len(entries, 2)

	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".txt" {
			continue
		}
		text, err := os.ReadFile(filepath.Join(s.app.Config.CrashDir(), e.Name()))
		s.Require().NoError(err)
		s.Contains(string(text), "==== "+file.AssassinsDocument+" ====")
		s.Contains(string(text), "Real Alpha")
	}
}

func (s *IntegrationSuite) TestRegenerateAfterExternalEdit() {
	s.Require().NoError(s.app.Regenerate(s.ctx))
	_, err := os.Stat(filepath.Join(s.app.Config.PagesDir(), pages.IndexPage))
	s.Require().NoError(err)

	// Another umpire's databases arrive through a download
	other, err := NewTestApp(s.ctx, s.T().TempDir())
	s.Require().NoError(err)
	_, err = other.DB.CreateAssassin(s.ctx, database.AssassinParams{InitialPseudonym: "Zulu", RealName: "Real Zulu"})
	s.Require().NoError(err)
	s.Require().NoError(other.DB.Flush(s.ctx))
	for _, doc := range file.SyncableDocuments {
		data, err := os.ReadFile(filepath.Join(other.Config.DatabasesDir(), doc))
		s.Require().NoError(err)
		s.Require().NoError(os.WriteFile(filepath.Join(s.app.Config.DatabasesDir(), doc), data, 0o644))
	}

	s.Require().NoError(s.app.Regenerate(s.ctx))
	ids, err := s.app.DB.GetIdentifiers(s.ctx, nil, nil)
	s.Require().NoError(err)
	s.Equal([]string{"Real Zulu (Zulu) ID: 0"}, ids)
}

func (s *IntegrationSuite) TestDatabasesForDump() {
	s.addPlayers("Alpha")
	dbs := s.app.Databases(s.ctx)
	s.Len(dbs, len(file.SyncableDocuments))
	s.Contains(string(dbs[file.AssassinsDocument]), "Alpha")
}

func TestNewWithMemoryStorage(t *testing.T) {
	cfg := config.Default()
	cfg.BaseDir = t.TempDir()
	cfg.Storage = config.StorageMemory

	app, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	if app.Syncer != nil {
		t.Fatal("expected no syncer without a remote")
	}
	if _, ok := app.Bus.Plugin(remotesync.PluginID); ok {
		t.Fatal("remote plugin registered without a remote")
	}
	if _, ok := app.Bus.Plugin(mail.PluginID); !ok {
		t.Fatal("mail plugin missing")
	}
}

func TestNewRejectsUnknownStorage(t *testing.T) {
	cfg := config.Default()
	cfg.BaseDir = t.TempDir()
	cfg.Storage = "postgres"
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected an error")
	}
}
