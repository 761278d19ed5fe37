package pages

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/services/policerank"
	"github.com/mcoot/autoumpire/internal/services/render"
	"github.com/mcoot/autoumpire/internal/services/scoring"
	"github.com/mcoot/autoumpire/internal/services/wanted"
)

// Page file names besides the news pages.
const (
	IndexPage      = "index.html"
	WantedPage     = "wanted.html"
	IncoPage       = "inco.html"
	ScoreboardPage = "scoreboard.html"
	CityWatchPage  = "citywatch.html"
	StatsPage      = "stats.html"
)

const whenLayout = "Mon 2 Jan 15:04"

// StylesheetCSS is written alongside the pages as Stylesheet.
const StylesheetCSS = `body { font-family: Georgia, serif; max-width: 60em; margin: 1em auto; }
.event { margin: 0.5em 0 1em; }
.event-time { color: #555; }
.headline { font-weight: bold; }
.report { margin: 0.3em 0 0 2em; }
.report-body { margin-left: 1em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.2em 0.5em; }
.empty { font-style: italic; }
`

// Features selects the optional pages.
type Features struct {
	Competency bool
	Wanted     bool
	Scoring    bool
	PoliceRank bool
}

// AllFeatures enables every page.
var AllFeatures = Features{Competency: true, Wanted: true, Scoring: true, PoliceRank: true}

// Site builds the public pages.
type Site struct {
	Palette  render.Palette
	Features Features
}

type builder struct {
	snapshot *model.Snapshot
	tracker  *render.Tracker
	sub      *render.Substituter
	loc      *time.Location
	now      time.Time
	pages    map[string][]byte
	links    []Link
}

// Build renders every page from snapshot as seen at now, keyed by file name.
func (s Site) Build(ctx context.Context, snapshot *model.Snapshot, now time.Time) (map[string][]byte, error) {
	events, tracker := render.New(snapshot, s.Palette).Render()
	b := &builder{
		snapshot: snapshot,
		tracker:  tracker,
		sub:      render.NewSubstituter(snapshot, s.Palette, tracker.Status),
		loc:      model.Location(snapshot.State),
		now:      now,
		pages:    map[string][]byte{Stylesheet: []byte(StylesheetCSS)},
	}

	steps := []func(context.Context, []render.Event) error{b.news}
	if s.Features.Wanted {
		steps = append(steps, b.wanted)
	}
	if s.Features.Competency {
		steps = append(steps, b.incos)
	}
	if s.Features.Scoring {
		steps = append(steps, b.scoreboard, b.stats)
	}
	if s.Features.PoliceRank {
		steps = append(steps, b.cityWatch)
	}
	for _, step := range steps {
		if err := step(ctx, events); err != nil {
			return nil, err
		}
	}
	if err := b.page(ctx, IndexPage, "Assassins' Guild", Index(b.links)); err != nil {
		return nil, err
	}
	return b.pages, nil
}

func (b *builder) page(ctx context.Context, name, title string, body templ.Component) error {
	html, err := Render(ctx, title, body)
	if err != nil {
		return fmt.Errorf("page %s: %w", name, err)
	}
	b.pages[name] = []byte(html)
	if name != IndexPage {
		b.links = append(b.links, Link{Href: name, Title: title})
	}
	return nil
}

// name is the coloured current pseudonym of id.
func (b *builder) name(id string) Cell {
	a, ok := b.snapshot.Assassin(id)
	if !ok {
		return Text(id)
	}
	idx := a.PseudonymIndicesUntil(&b.now)
	current := 0
	if len(idx) > 0 {
		current = idx[len(idx)-1]
	}
	return HTML(b.sub.Name(a, a.Pseudonym(current), b.now))
}

func (b *builder) news(ctx context.Context, events []render.Event) error {
	byWeek := make(map[int][]render.Event)
	var duel []render.Event
	for _, e := range events {
		if e.Duel {
			duel = append(duel, e)
			continue
		}
		byWeek[e.Week] = append(byWeek[e.Week], e)
	}
	for _, week := range slices.Sorted(maps.Keys(byWeek)) {
		title := "News: week " + strconv.Itoa(week)
		if week == 0 {
			title = "News: before the game"
		}
		days := GroupByDay(byWeek[week])
		if err := b.page(ctx, render.NewsPage(week), title, News(days)); err != nil {
			return err
		}
		if err := b.page(ctx, render.HeadlinesPage(week), strings.Replace(title, "News", "Headlines", 1), Headlines(days)); err != nil {
			return err
		}
	}
	if len(duel) > 0 {
		return b.page(ctx, render.DuelPage, "News: the duel", News(GroupByDay(duel)))
	}
	return nil
}

func (b *builder) wanted(ctx context.Context, _ []render.Event) error {
	m := b.tracker.Wanted()
	orders := func(ids []string) [][]Cell {
		var rows [][]Cell
		for _, id := range ids {
			o, _ := m.CurrentOrder(id, b.now)
			rows = append(rows, []Cell{b.name(id), Text(o.Crime), Text(o.Redemption), Text(o.Expires().In(b.loc).Format(whenLayout))})
		}
		return rows
	}
	deaths := func(kills []wanted.Kill) [][]Cell {
		var rows [][]Cell
		for _, k := range kills {
			var killers []string
			for _, id := range k.Killers {
				killers = append(killers, b.name(id).Text)
			}
			rows = append(rows, []Cell{b.name(k.Victim), Text(k.Crime), HTML(strings.Join(killers, ", ")), Text(k.EventTime.In(b.loc).Format(whenLayout))})
		}
		return rows
	}
	headers := []string{"Name", "Crime", "Redemption", "Until"}
	deathHeaders := []string{"Name", "Crime", "Killed by", "When"}
	return b.page(ctx, WantedPage, "Wanted List", templ.Join(
		Table("Wanted players", headers, orders(m.WantedAt(b.now)), "Nobody is wanted."),
		Table("Corrupt City Watch", headers, orders(m.CorruptAt(b.now)), "The City Watch is clean."),
		Table("Deceased wanted players", deathHeaders, deaths(m.PlayerDeaths()), "None."),
		Table("Deceased corrupt City Watch", deathHeaders, deaths(m.CorruptDeaths()), "None."),
	))
}

func (b *builder) incos(ctx context.Context, _ []render.Event) error {
	deaths := b.tracker.Deaths()
	var rows [][]Cell
	for _, id := range b.tracker.Competency().IncosAt(b.now) {
		a, ok := b.snapshot.Assassin(id)
		if !ok || a.Hidden || deaths.IsDead(id) {
			continue
		}
		rows = append(rows, []Cell{b.name(id), Text(a.RealName), Text(a.Address), Text(a.College), Text(a.WaterStatus)})
	}
	return b.page(ctx, IncoPage, "Incompetents", Table("",
		[]string{"Name", "Real name", "Address", "College", "Water weapons"}, rows, "Everyone is competent."))
}

func (b *builder) livePlayers() []string {
	var ids []string
	for _, a := range b.snapshot.FullPlayers() {
		if !a.Hidden {
			ids = append(ids, a.Identifier())
		}
	}
	return ids
}

func (b *builder) scoreboard(ctx context.Context, _ []render.Event) error {
	m := scoring.Build(b.snapshot)
	var rows [][]Cell
	for i, id := range m.Scoreboard(b.livePlayers()) {
		status := "Alive"
		if b.tracker.Deaths().IsDead(id) {
			status = "Dead"
		}
		rows = append(rows, []Cell{
			Int(i + 1), b.name(id),
			Text(strconv.FormatFloat(m.Score(id), 'f', -1, 64)),
			Int(m.Kills(id)), Int(m.Conkers(id)), Text(status),
		})
	}
	return b.page(ctx, ScoreboardPage, "Scoreboard", Table("",
		[]string{"#", "Name", "Score", "Kills", "Conkers", "Status"}, rows, "No players."))
}

func (b *builder) stats(ctx context.Context, _ []render.Event) error {
	m := scoring.Build(b.snapshot)
	var rows [][]Cell
	for _, id := range b.livePlayers() {
		var victims []string
		for _, v := range m.Victims(id) {
			victims = append(victims, b.name(v).Text)
		}
		rows = append(rows, []Cell{b.name(id), Int(m.Kills(id)), Int(m.Conkers(id)), Int(m.Attempts(id)), HTML(strings.Join(victims, ", "))})
	}
	return b.page(ctx, StatsPage, "Statistics", Table("",
		[]string{"Name", "Kills", "Conkers", "Attempts", "Victims"}, rows, "No players."))
}

func (b *builder) cityWatch(ctx context.Context, _ []render.Event) error {
	m := policerank.Build(b.snapshot)
	var rows [][]Cell
	for _, id := range m.Roster(false) {
		rows = append(rows, []Cell{b.name(id), Text(m.RankName(id))})
	}
	return b.page(ctx, CityWatchPage, "The City Watch", Table("", []string{"Name", "Rank"}, rows, "The City Watch is empty."))
}
