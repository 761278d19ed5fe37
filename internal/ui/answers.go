package ui

import (
	"maps"
	"slices"
	"time"

	"github.com/mcoot/autoumpire/internal/model"
)

// Answers maps component ids to answers.
type Answers map[string]any

// Value returns the answer for id if it has type T.
func Value[T any](a Answers, id string) (T, bool) {
	v, ok := a[id].(T)
	return v, ok
}

// ValueOr returns the answer for id, or def when missing or of another type.
func ValueOr[T any](a Answers, id string, def T) T {
	if v, ok := Value[T](a, id); ok {
		return v
	}
	return def
}

// Context is what a renderer knows while showing a component: the answers
// given so far. It is never modified; With returns an extended copy.
type Context struct {
	answers Answers
}

// NewContext creates an empty context.
func NewContext() Context {
	return Context{answers: Answers{}}
}

// With returns a context that also holds the answer for id.
func (c Context) With(id string, v any) Context {
	next := maps.Clone(c.answers)
	if next == nil {
		next = Answers{}
	}
	next[id] = v
	return Context{answers: next}
}

// Answers returns a copy of the answers so far.
func (c Context) Answers() Answers {
	return maps.Clone(c.answers)
}

// Assassins returns the assassins answered by provider, sorted. Pair,
// selector and list answers are understood.
func (c Context) Assassins(provider string) []string {
	switch v := c.answers[provider].(type) {
	case map[string]int:
		return slices.Sorted(maps.Keys(v))
	case []string:
		return slices.Sorted(slices.Values(v))
	case []model.Kill:
		var out []string
		for _, k := range v {
			for _, id := range []string{k.Killer, k.Victim} {
				if !slices.Contains(out, id) {
					out = append(out, id)
				}
			}
		}
		slices.Sort(out)
		return out
	}
	return nil
}

// Kills returns the kills answered by provider.
func (c Context) Kills(provider string) []model.Kill {
	kills, _ := c.answers[provider].([]model.Kill)
	return slices.Clone(kills)
}

// KillPairs lists every (killer, victim) pair among assassins.
func KillPairs(assassins []string) []model.Kill {
	var out []model.Kill
	for _, k := range assassins {
		for _, v := range assassins {
			if k != v {
				out = append(out, model.Kill{Killer: k, Victim: v})
			}
		}
	}
	return out
}

// Default returns the answer a component gives when the user accepts its
// defaults.
func Default(c Component, ctx Context) any {
	switch c := c.(type) {
	case Checkbox:
		return c.Default
	case Text:
		return c.Default
	case Hidden:
		return c.Value
	case Dropdown:
		if c.Default == "" && len(c.Options) > 0 {
			return c.Options[0].Value
		}
		return c.Default
	case SelectorList:
		return slices.Clone(c.Defaults)
	case ArbitraryList:
		return slices.Clone(c.Defaults)
	case Datetime:
		if c.Optional {
			return c.Default
		}
		if c.Default == nil {
			return time.Time{}
		}
		return *c.Default
	case Integer:
		if c.Optional {
			return c.Default
		}
		if c.Default == nil {
			return 0
		}
		return *c.Default
	case Float:
		return c.Default
	case PseudonymList:
		return slices.Clone(c.Entries)
	case AssassinPseudonymPair:
		return maps.Clone(c.Defaults)
	case AssassinDependentSelector:
		return keep(c.Defaults, ctx.Assassins(c.DependsOn))
	case AssassinDependentInteger:
		return keepKeys(c.Defaults, ctx.Assassins(c.DependsOn))
	case ReportEntry:
		return keepReports(c.Defaults, ctx.Assassins(c.DependsOn))
	case AssassinDependentCrime:
		return keepKeys(c.Defaults, ctx.Assassins(c.DependsOn))
	case KillEntry:
		return keepKills(c.Defaults, KillPairs(ctx.Assassins(c.DependsOn)))
	case KillDependentSelector:
		return keepKills(c.Defaults, ctx.Kills(c.DependsOn))
	case ForEach:
		out := make(map[string]Answers, len(c.Defaults))
		for _, o := range c.Options {
			if c.Form == nil || !slices.Contains(c.Defaults, o.Value) {
				continue
			}
			sub := Answers{}
			subCtx := NewContext()
			for _, sc := range Flatten(c.Form(o)) {
				if id := sc.Ident(); id != "" {
					v := Default(sc, subCtx)
					sub[id] = v
					subCtx = subCtx.With(id, v)
				}
			}
			out[o.Value] = sub
		}
		return out
	case Searchable:
		return Default(c.Component, ctx)
	}
	return nil
}

func keep(values, allowed []string) []string {
	out := []string{}
	for _, v := range values {
		if slices.Contains(allowed, v) {
			out = append(out, v)
		}
	}
	return out
}

func keepKeys[V any](m map[string]V, allowed []string) map[string]V {
	out := make(map[string]V)
	for k, v := range m {
		if slices.Contains(allowed, k) {
			out[k] = v
		}
	}
	return out
}

func keepKills(kills, allowed []model.Kill) []model.Kill {
	out := []model.Kill{}
	for _, k := range kills {
		if slices.Contains(allowed, k) {
			out = append(out, k)
		}
	}
	return out
}

func keepReports(reports []model.Report, allowed []string) []model.Report {
	out := []model.Report{}
	for _, r := range reports {
		if slices.Contains(allowed, r.Assassin) {
			out = append(out, r)
		}
	}
	return out
}
