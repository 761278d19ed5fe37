package mail

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

type fakeOutbox struct {
	spooled   [][]byte
	uploads   int
	spoolErr  error
	uploadErr error
}

func (f *fakeOutbox) SpoolEmail(_ context.Context, data []byte) (string, error) {
	if f.spoolErr != nil {
		return "", f.spoolErr
	}
	f.spooled = append(f.spooled, data)
	return "emails/email.1", nil
}

func (f *fakeOutbox) Upload(context.Context) (string, error) {
	f.uploads++
	return "2024-01-08_09-00-00", f.uploadErr
}

type PluginSuite struct {
	suite.Suite
	ctx    context.Context
	game   *testutil.GameBuilder
	alpha  *model.Assassin
	bravo  *model.Assassin
	outbox *fakeOutbox
	bus    *plugins.Bus
	script *prompt.Scripted
}

func TestPluginSuite(t *testing.T) {
	suite.Run(t, new(PluginSuite))
}

func (s *PluginSuite) SetupTest() {
	s.ctx = context.Background()
	s.game = testutil.NewGame(testutil.Epoch)
	s.alpha = s.game.Player("Alpha")
	s.alpha.Email = "alpha@example.com"
	s.bravo = s.game.Player("Bravo")
	s.outbox = &fakeOutbox{}
	s.load(s.outbox)
}

func (s *PluginSuite) load(outbox Outbox) {
	db := database.New(s.game.Store(), testutil.NopLogger())
	s.bus = plugins.NewBus(db, metrics.New(), testutil.NopLogger())
	s.Require().NoError(s.bus.Register(
		New(db, outbox, mocks.NewMockClock(testutil.Epoch), testutil.NopLogger()),
		newsletter(),
	))
	s.script = prompt.NewScripted()
}

// newsletter adds one section to every email.
func newsletter() *plugins.Plugin {
	return &plugins.Plugin{
		ID: "newsletter",
		Subscriptions: []plugins.Subscription{{
			Hook: plugins.HookMail,
			Respond: func(_ context.Context, _ ui.Answers, payload any) []ui.Component {
				for _, e := range payload.(*plugins.Mailbag).Emails {
					e.Add("News", templ.Raw("<p>Hello <b>"+e.Recipient.InitialPseudonym()+"</b></p><ul><li>one</li><li>two</li></ul>"))
				}
				return nil
			},
		}},
	}
}

func (s *PluginSuite) TestSendSpoolsAndUploads() {
	s.script.Answer(fieldRecipients, []string{s.alpha.Identifier()})
	s.Require().NoError(s.bus.Run(s.ctx, s.script, ExportSend))

	s.Require().Len(s.outbox.spooled, 1)
	msg := string(s.outbox.spooled[0])
	s.True(strings.HasPrefix(msg, "To: alpha@example.com\r\nSubject: "+DefaultSubject+"\r\n"))
	s.Contains(msg, "multipart/alternative")
	s.Contains(msg, "== News ==")
	s.Contains(msg, "<b>Alpha</b>")
	s.Equal(1, s.outbox.uploads)
	s.Equal([]string{"Spooled 1 emails.", "Databases uploaded; previous copy backed up as 2024-01-08_09-00-00."}, s.script.Labels())
}

func (s *PluginSuite) TestMissingAddressIsWarned() {
	s.Require().NoError(s.bus.Run(s.ctx, s.script, ExportSend))

	s.Len(s.outbox.spooled, 1)
	s.Contains(s.script.Labels(), "No email address for "+s.bravo.Identifier())
}

func (s *PluginSuite) TestPreviewDoesNotSend() {
	s.script.Answer(fieldRecipients, []string{s.alpha.Identifier()}).Answer(fieldSend, false)
	s.Require().NoError(s.bus.Run(s.ctx, s.script, ExportSend))

	s.Empty(s.outbox.spooled)
	s.Zero(s.outbox.uploads)
	labels := s.script.Labels()
	s.Require().Len(labels, 2)
	s.Equal("To alpha@example.com:\nDear Real Alpha,\n== News ==\nHello Alpha\n  * one\n  * two\nThe Umpire", labels[0])
	s.Equal("Previewed 1 emails; nothing was sent.", labels[1])
}

func (s *PluginSuite) TestNoOutboxPreviews() {
	s.load(nil)
	s.script.Answer(fieldRecipients, []string{s.alpha.Identifier()})
	s.Require().NoError(s.bus.Run(s.ctx, s.script, ExportSend))

	s.Contains(s.script.Labels(), "Previewed 1 emails; nothing was sent.")
}

func (s *PluginSuite) TestSpoolFailureIsShown() {
	s.outbox.spoolErr = errors.New("disk full")
	s.script.Answer(fieldRecipients, []string{s.alpha.Identifier()})
	s.Require().NoError(s.bus.Run(s.ctx, s.script, ExportSend))

	labels := s.script.Labels()
	s.Require().NotEmpty(labels)
	s.Contains(labels[len(labels)-1], "disk full")
	s.Zero(s.outbox.uploads)
}

func TestPlainText(t *testing.T) {
	text, err := PlainText(`<p>a  <i>b</i></p><h3>T</h3><ul><li> x </li></ul><p></p>`)
	require.NoError(t, err)
	assert.Equal(t, "a b\n== T ==\n  * x", text)
}
