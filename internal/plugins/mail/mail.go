// Package mail is the plugin that emails players. It owns the mail hook:
// other plugins add sections to each player's email, then the emails are
// spooled on the remote host for the mailer to send.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mcoot/autoumpire/internal/dependencies/clock"
	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/plugins"
	"github.com/mcoot/autoumpire/internal/services/database"
	"github.com/mcoot/autoumpire/internal/services/render"
	"github.com/mcoot/autoumpire/internal/ui"
)

// PluginID identifies the mail plugin.
const PluginID = "mail"

// ExportSend is the id of the mail hooked export.
const ExportSend = "mail.send"

const (
	fieldRecipients = "mail.recipients"
	fieldSubject    = "mail.subject"
	fieldSend       = "mail.send"
)

// DefaultSubject is the subject offered for a new mailing.
const DefaultSubject = "Assassins' Guild update"

// Outbox spools emails and uploads the databases once they are sent.
// remote.Syncer implements it.
type Outbox interface {
	SpoolEmail(ctx context.Context, data []byte) (string, error)
	Upload(ctx context.Context) (string, error)
}

type mailPlugin struct {
	db     *database.Service
	outbox Outbox
	clock  clock.Clock
	logger *slog.Logger
}

// New creates the mail plugin. A nil outbox previews emails without sending.
func New(db *database.Service, outbox Outbox, clk clock.Clock, logger *slog.Logger) *plugins.Plugin {
	m := &mailPlugin{db: db, outbox: outbox, clock: clk, logger: logger}
	return &plugins.Plugin{
		ID:   PluginID,
		Name: "Mail",
		HookedExports: []plugins.HookedExport{
			{
				Hook:        plugins.HookMail,
				ID:          ExportSend,
				DisplayName: "Mail -> Send emails",
				Ask:         m.ask,
				Produce:     m.produce,
				Finish:      m.finish,
			},
		},
	}
}

func (m *mailPlugin) ask(ctx context.Context) ([]ui.Component, error) {
	ids, err := m.db.GetIdentifiers(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	out := []ui.Component{
		ui.Searchable{Component: ui.SelectorList{
			ID:       fieldRecipients,
			Title:    "Recipients",
			Options:  ui.Opts(ids...),
			Defaults: ids,
		}},
		ui.Text{ID: fieldSubject, Title: "Subject", Default: DefaultSubject, Required: true},
	}
	if m.outbox != nil {
		out = append(out, ui.Checkbox{ID: fieldSend, Title: "Send emails? (otherwise preview only)", Default: true})
	}
	return out, nil
}

func (m *mailPlugin) produce(ctx context.Context, answers ui.Answers) (any, error) {
	snapshot, err := m.db.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	recipients := ui.ValueOr(answers, fieldRecipients, []string{})
	return plugins.NewMailbag(snapshot, m.clock.Now(), recipients), nil
}

func (m *mailPlugin) finish(ctx context.Context, answers ui.Answers, payload any) ([]ui.Component, error) {
	bag, ok := payload.(*plugins.Mailbag)
	if !ok {
		return nil, fmt.Errorf("unexpected mail payload %T", payload)
	}
	subject := strings.Join(strings.Fields(ui.ValueOr(answers, fieldSubject, DefaultSubject)), " ")
	send := m.outbox != nil && ui.ValueOr(answers, fieldSend, false)

	var out []ui.Component
	n := 0
	for _, email := range bag.Emails {
		a := email.Recipient
		if len(email.Sections) == 0 {
			continue
		}
		if a.Email == "" {
			out = append(out, ui.Warning("No email address for "+a.Identifier()))
			continue
		}
		html, err := Body(ctx, email)
		if err != nil {
			return out, err
		}
		text, err := PlainText(html)
		if err != nil {
			return out, err
		}
		if !send {
			out = append(out, ui.Info("To "+a.Email+":\n"+text))
			n++
			continue
		}
		msg, err := Message(a.Email, subject, text, html)
		if err != nil {
			return out, err
		}
		path, err := m.outbox.SpoolEmail(ctx, msg)
		if err != nil {
			return out, fmt.Errorf("spool email for %s: %w", a.Identifier(), err)
		}
		m.logger.Info("email spooled", slog.String("assassin", a.Identifier()), slog.String("path", path))
		n++
	}
	if !send {
		return append(out, ui.Info(fmt.Sprintf("Previewed %d emails; nothing was sent.", n))), nil
	}

	out = append(out, ui.Success(fmt.Sprintf("Spooled %d emails.", n)))
	backup, err := m.outbox.Upload(ctx)
	if err != nil {
		return out, fmt.Errorf("upload databases: %w", err)
	}
	if backup == "" {
		return append(out, ui.Info("Databases uploaded.")), nil
	}
	return append(out, ui.Info("Databases uploaded; previous copy backed up as "+backup+".")), nil
}

// Body renders the HTML of an email.
func Body(ctx context.Context, email *plugins.Email) (string, error) {
	return render.HTML(ctx, body(email))
}

func greeting(a *model.Assassin) string {
	if a.RealName != "" {
		return a.RealName
	}
	return a.InitialPseudonym()
}

// PlainText flattens an email body into text, one block per line.
func PlainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	var lines []string
	doc.Find("p, h3, li").Each(func(_ int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			return
		}
		switch goquery.NodeName(s) {
		case "h3":
			text = "== " + text + " =="
		case "li":
			text = "  * " + text
		}
		lines = append(lines, text)
	})
	return strings.Join(lines, "\n"), nil
}

// Message builds the spooled multipart/alternative message.
func Message(to, subject, text, html string) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, part := range []struct{ contentType, content string }{
		{"text/plain; charset=utf-8", text},
		{"text/html; charset=utf-8", html},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {part.contentType}})
		if err != nil {
			return nil, err
		}
		if _, err := io.WriteString(w, part.content); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}
