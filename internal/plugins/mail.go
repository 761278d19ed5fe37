package plugins

import (
	"context"
	"slices"
	"time"

	"github.com/a-h/templ"

	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/services/render"
)

// HookMail is the hooked export that emails players. Subscribers receive a
// *Mailbag and add sections to its emails.
const HookMail = "mail"

// Section is one titled part of an email.
type Section struct {
	Title string
	Body  templ.Component
}

// HTML renders the section body.
func (s Section) HTML(ctx context.Context) (string, error) {
	return render.HTML(ctx, s.Body)
}

// Email is the message for one assassin.
type Email struct {
	Recipient *model.Assassin
	Sections  []Section
}

// Add appends a section.
func (e *Email) Add(title string, body templ.Component) {
	e.Sections = append(e.Sections, Section{Title: title, Body: body})
}

// Mailbag is the payload of HookMail: one email per recipient, built from a
// single snapshot taken at At.
type Mailbag struct {
	Snapshot *model.Snapshot
	At       time.Time
	Emails   []*Email
}

// NewMailbag creates an empty email for each recipient, in secret id order.
func NewMailbag(snapshot *model.Snapshot, at time.Time, recipients []string) *Mailbag {
	bag := &Mailbag{Snapshot: snapshot, At: at}
	for _, a := range snapshot.SortedAssassins(func(a *model.Assassin) bool {
		return slices.Contains(recipients, a.Identifier())
	}) {
		bag.Emails = append(bag.Emails, &Email{Recipient: a})
	}
	return bag
}
