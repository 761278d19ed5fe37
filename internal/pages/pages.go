// Package pages holds the components of the public HTML pages.
package pages

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/mcoot/autoumpire/internal/services/render"
)

// Stylesheet is linked from every page.
const Stylesheet = "au2.css"

// Day is one day of events on a news page.
type Day struct {
	Label  string
	Events []render.Event
}

// GroupByDay splits events, already in order, into days.
func GroupByDay(events []render.Event) []Day {
	var days []Day
	for _, e := range events {
		label := e.When.Format("Monday, 02 January")
		if n := len(days); n > 0 && days[n-1].Label == label {
			days[n-1].Events = append(days[n-1].Events, e)
			continue
		}
		days = append(days, Day{Label: label, Events: []render.Event{e}})
	}
	return days
}

// Cell is a table cell. HTML cells are written as they are; others are
// escaped.
type Cell struct {
	Text string
	HTML bool
}

// Text is an escaped cell.
func Text(s string) Cell { return Cell{Text: s} }

// HTML is a pre-rendered cell.
func HTML(s string) Cell { return Cell{Text: s, HTML: true} }

// Int is a numeric cell.
func Int(n int) Cell { return Cell{Text: strconv.Itoa(n)} }

// Link is an entry of a page index.
type Link struct {
	Href  string
	Title string
}

// Render renders a complete page.
func Render(ctx context.Context, title string, body templ.Component) (string, error) {
	return render.HTML(ctx, Layout(title, body))
}
