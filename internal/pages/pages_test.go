package pages

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/services/render"
)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestLayoutEscapesTitle(t *testing.T) {
	html, err := Render(context.Background(), "Wanted <list>", Table("", nil, nil, "Nobody"))
	require.NoError(t, err)

	doc := parse(t, html)
	assert.Equal(t, "Wanted <list>", doc.Find("title").Text())
	assert.Equal(t, "Nobody", doc.Find(".empty").Text())
	href, _ := doc.Find("link").Attr("href")
	assert.Equal(t, Stylesheet, href)
}

func TestTable(t *testing.T) {
	rows := [][]Cell{
		{HTML(`<b>bold</b>`), Text("<plain>"), Int(3)},
	}
	html, err := render.HTML(context.Background(), Table("Scores", []string{"Name", "Note", "Kills"}, rows, "none"))
	require.NoError(t, err)

	doc := parse(t, html)
	assert.Equal(t, "Scores", doc.Find("h2").Text())
	assert.Equal(t, 3, doc.Find("th").Length())
	assert.Equal(t, "bold", doc.Find("td b").Text())
	assert.Equal(t, "<plain>", doc.Find("td").Eq(1).Text())
	assert.Equal(t, "3", doc.Find("td").Eq(2).Text())
}

func TestGroupByDay(t *testing.T) {
	day := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	events := []render.Event{
		{Event: model.NewEvent("1", day, "a"), When: day},
		{Event: model.NewEvent("2", day.Add(time.Hour), "b"), When: day.Add(time.Hour)},
		{Event: model.NewEvent("3", day.Add(24*time.Hour), "c"), When: day.Add(24 * time.Hour)},
	}

	days := GroupByDay(events)

	require.Len(t, days, 2)
	assert.Equal(t, "Monday, 08 January", days[0].Label)
	assert.Len(t, days[0].Events, 2)
	assert.Len(t, days[1].Events, 1)
}

func TestNewsAndHeadlines(t *testing.T) {
	day := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	events := []render.Event{
		{Event: model.NewEvent("1", day, "a"), When: day, Week: 1, Headline: "First"},
		{Event: model.NewEvent("2", day, "b"), When: day, Week: 1, Headline: "Second"},
	}
	days := GroupByDay(events)

	news, err := render.HTML(context.Background(), News(days))
	require.NoError(t, err)
	doc := parse(t, news)
	assert.Equal(t, 2, doc.Find(".event").Length())
	assert.Equal(t, "Monday, 08 January", doc.Find("h2").Text())

	heads, err := render.HTML(context.Background(), Headlines(days))
	require.NoError(t, err)
	doc = parse(t, heads)
	assert.Equal(t, 2, doc.Find(".headline-item a").Length())

	empty, err := render.HTML(context.Background(), News(nil))
	require.NoError(t, err)
	assert.Contains(t, empty, "Nothing has happened yet.")
}

func TestIndex(t *testing.T) {
	html, err := render.HTML(context.Background(), Index([]Link{{Href: "news01.html", Title: "Week 1"}}))
	require.NoError(t, err)

	doc := parse(t, html)
	href, _ := doc.Find("a").Attr("href")
	assert.Equal(t, "news01.html", href)
	assert.Equal(t, "Week 1", doc.Find("a").Text())
}
