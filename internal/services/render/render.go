// Package render turns events into the HTML shown on the public news pages:
// substitution codes become coloured names, reports are escaped, and events
// are bucketed by week of the game.
package render

import (
	"fmt"
	"time"

	"github.com/mcoot/autoumpire/internal/model"
)

const (
	// DuelPage holds every event after the game has ended.
	DuelPage    = "news-duel.html"
	daysPerWeek = 7
)

// NewsPage is the file name of the news page for week.
func NewsPage(week int) string {
	return fmt.Sprintf("news%02d.html", week)
}

// HeadlinesPage is the file name of the headlines page for week.
func HeadlinesPage(week int) string {
	return fmt.Sprintf("head%02d.html", week)
}

// Report is a rendered report.
type Report struct {
	Author string
	Body   string
}

// Event is a rendered event.
type Event struct {
	Event *model.Event
	// When is the event time in the game timezone.
	When     time.Time
	Week     int
	Day      int
	Duel     bool
	Headline string
	Reports  []Report
}

// Page returns the news page the event appears on.
func (e Event) Page() string {
	if e.Duel {
		return DuelPage
	}
	return NewsPage(e.Week)
}

// Anchor is the id of the event's block on its news page.
func (e Event) Anchor() string {
	return "event-" + e.Event.SecretID()
}

// Renderer renders every event of a snapshot.
type Renderer struct {
	snapshot *model.Snapshot
	palette  Palette
	loc      *time.Location
	start    time.Time
	end      time.Time
}

// New creates a Renderer for the snapshot.
func New(snapshot *model.Snapshot, palette Palette) *Renderer {
	r := &Renderer{
		snapshot: snapshot,
		palette:  palette,
		loc:      model.Location(snapshot.State),
		start:    model.GameStart(snapshot.State),
		end:      model.GameEnd(snapshot.State),
	}
	if r.start.IsZero() && len(snapshot.Events) > 0 {
		r.start = snapshot.Events[0].Datetime
	}
	return r
}

// Location returns the game timezone.
func (r *Renderer) Location() *time.Location {
	return r.loc
}

// Render renders every event in chronological order. Names are coloured by
// the game state just after their event.
func (r *Renderer) Render() ([]Event, *Tracker) {
	tracker := NewTracker(r.snapshot)
	sub := NewSubstituter(r.snapshot, r.palette, tracker.Status)
	out := make([]Event, 0, len(r.snapshot.Events))
	for _, e := range r.snapshot.Events {
		tracker.Apply(e)
		out = append(out, r.renderEvent(e, sub))
	}
	return out, tracker
}

func (r *Renderer) renderEvent(e *model.Event, sub *Substituter) Event {
	week, day, duel := r.Bucket(e.Datetime)
	out := Event{
		Event:    e,
		When:     e.Datetime.In(r.loc),
		Week:     week,
		Day:      day,
		Duel:     duel,
		Headline: sub.Substitute(FormatText(e.Headline), e),
	}
	for _, rep := range e.Reports {
		author := rep.Assassin
		if a, ok := r.snapshot.Assassin(rep.Assassin); ok {
			author = sub.Name(a, a.Pseudonym(rep.PseudonymIndex), e.Datetime)
		}
		out.Reports = append(out.Reports, Report{
			Author: author,
			Body:   sub.Substitute(FormatText(rep.Text), e),
		})
	}
	return out
}

// Bucket places t in the game calendar. Week 0 is before the game; weeks
// count from 1 on the game's first day, and days run 0-6 within a week.
// Events after the game end go to the duel page.
func (r *Renderer) Bucket(t time.Time) (week, day int, duel bool) {
	if !r.end.IsZero() && t.After(r.end) {
		duel = true
	}
	if r.start.IsZero() {
		return 1, 0, duel
	}
	d := daysBetween(r.start.In(r.loc), t.In(r.loc))
	if d < 0 {
		return 0, max(0, daysPerWeek+d), duel
	}
	return d/daysPerWeek + 1, d % daysPerWeek, duel
}

// daysBetween counts calendar days from a to b.
func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
