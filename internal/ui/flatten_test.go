package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/autoumpire/internal/model"
)

func idents(cs []Component) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Ident()
	}
	return out
}

func TestFlattenPlacesDependentsAfterProvider(t *testing.T) {
	cs := []Component{
		Dependency{On: "pair", Components: []Component{Text{ID: "dep1"}}},
		Text{ID: "headline"},
		AssassinPseudonymPair{ID: "pair"},
		Text{ID: "after"},
		Dependency{On: "pair", Components: []Component{Text{ID: "dep2"}}},
	}

	assert.Equal(t, []string{"headline", "pair", "dep1", "dep2", "after"}, idents(Flatten(cs)))
}

func TestFlattenNestedDependencies(t *testing.T) {
	cs := []Component{
		AssassinPseudonymPair{ID: "pair"},
		Dependency{On: "pair", Components: []Component{
			KillEntry{ID: "kills", DependsOn: "pair"},
			Dependency{On: "kills", Components: []Component{KillDependentSelector{ID: "wanted_kills", DependsOn: "kills"}}},
		}},
		Text{ID: "end"},
	}

	assert.Equal(t, []string{"pair", "kills", "wanted_kills", "end"}, idents(Flatten(cs)))
}

func TestFlattenOrphansGoLast(t *testing.T) {
	cs := []Component{
		Dependency{On: "missing", Components: []Component{Text{ID: "orphan"}}},
		Text{ID: "a"},
	}

	assert.Equal(t, []string{"a", "orphan"}, idents(Flatten(cs)))
}

func TestApplyOverrides(t *testing.T) {
	cs := []Component{
		Text{ID: "a", Title: "old"},
		Dependency{On: "a", Components: []Component{Text{ID: "b", Title: "old"}}},
		Override{Target: "b", Replacement: Hidden{ID: "b", Value: 3}},
		Override{Target: "a", Replacement: Text{ID: "a", Title: "new"}},
	}

	out := Flatten(ApplyOverrides(cs))

	assert.Equal(t, []string{"a", "b"}, idents(out))
	assert.Equal(t, "new", out[0].(Text).Title)
	assert.Equal(t, Hidden{ID: "b", Value: 3}, out[1])
}

func TestContextIsImmutable(t *testing.T) {
	base := NewContext()
	next := base.With("pair", map[string]int{"b": 0, "a": 1})

	assert.Empty(t, base.Answers())
	assert.Equal(t, []string{"a", "b"}, next.Assassins("pair"))
}

func TestDefaultsFollowProvider(t *testing.T) {
	ctx := NewContext().With("pair", map[string]int{"a": 0, "b": 0})

	sel := AssassinDependentSelector{ID: "s", DependsOn: "pair", Defaults: []string{"a", "gone"}}
	assert.Equal(t, []string{"a"}, Default(sel, ctx))

	ints := AssassinDependentInteger{ID: "i", DependsOn: "pair", Defaults: map[string]int{"b": 3, "gone": 1}}
	assert.Equal(t, map[string]int{"b": 3}, Default(ints, ctx))

	kills := KillEntry{ID: "k", DependsOn: "pair", Defaults: []model.Kill{{Killer: "a", Victim: "b"}, {Killer: "a", Victim: "a"}}}
	assert.Equal(t, []model.Kill{{Killer: "a", Victim: "b"}}, Default(kills, ctx))

	reports := ReportEntry{ID: "r", DependsOn: "pair", Defaults: []model.Report{
		{Assassin: "a", Text: "one"},
		{Assassin: "gone", Text: "lost"},
		{Assassin: "a", PseudonymIndex: 1, Text: "two"},
	}}
	assert.Equal(t, []model.Report{
		{Assassin: "a", Text: "one"},
		{Assassin: "a", PseudonymIndex: 1, Text: "two"},
	}, Default(reports, ctx))
}

func TestDefaultForEach(t *testing.T) {
	fe := ForEach{
		ID:       "fe",
		Options:  Opts("x", "y"),
		Defaults: []string{"y"},
		Form: func(o Option) []Component {
			return []Component{Text{ID: "name", Default: "for " + o.Value}}
		},
	}

	assert.Equal(t, map[string]Answers{"y": {"name": "for y"}}, Default(fe, NewContext()))
}

func TestKillPairs(t *testing.T) {
	assert.Equal(t, []model.Kill{{Killer: "a", Victim: "b"}, {Killer: "b", Victim: "a"}}, KillPairs([]string{"a", "b"}))
}
