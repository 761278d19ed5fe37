// Package prompt shows ui components on a terminal and reads the answers.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/ui"
)

// ErrAborted is returned when the user abandons a form.
var ErrAborted = errors.New("aborted by user")

// Prompter shows forms and results.
type Prompter interface {
	// Ask shows the components in dependency order and returns the answers
	// keyed by component id.
	Ask(ctx context.Context, components []ui.Component) (ui.Answers, error)
	// Show displays result components.
	Show(components ...ui.Component)
	// Choose picks one option, returning its value.
	Choose(ctx context.Context, title string, options []ui.Option) (string, error)
	// Confirm asks a yes/no question.
	Confirm(ctx context.Context, title string) (bool, error)
}

// Terminal is a Prompter backed by huh forms.
type Terminal struct {
	in         io.Reader
	out        io.Writer
	styles     Styles
	accessible bool
}

var _ Prompter = (*Terminal)(nil)

// NewTerminal creates a terminal prompter. Accessible mode reads plain
// lines instead of drawing widgets, which suits piped input.
func NewTerminal(in io.Reader, out io.Writer, accessible bool) *Terminal {
	return &Terminal{in: in, out: out, styles: DefaultStyles(), accessible: accessible}
}

func (t *Terminal) run(ctx context.Context, fields ...huh.Field) error {
	form := huh.NewForm(huh.NewGroup(fields...)).
		WithAccessible(t.accessible).
		WithOutput(t.out)
	if t.in != nil {
		form = form.WithInput(t.in)
	}
	err := form.RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrAborted
	}
	return err
}

// Show prints labels. Other components are shown by title.
func (t *Terminal) Show(components ...ui.Component) {
	for _, c := range components {
		switch c := c.(type) {
		case ui.Label:
			fmt.Fprintln(t.out, t.styles.Label(c))
		default:
			if id := c.Ident(); id != "" {
				fmt.Fprintln(t.out, t.styles.Muted.Render(id))
			}
		}
	}
}

// Choose shows a menu.
func (t *Terminal) Choose(ctx context.Context, title string, options []ui.Option) (string, error) {
	var choice string
	if len(options) > 0 {
		choice = options[0].Value
	}
	err := t.run(ctx, huh.NewSelect[string]().
		Title(title).
		Options(huhOptions(options, nil)...).
		Value(&choice))
	return choice, err
}

// Confirm asks a yes/no question.
func (t *Terminal) Confirm(ctx context.Context, title string) (bool, error) {
	var ok bool
	err := t.run(ctx, huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(&ok))
	return ok, err
}

// Ask resolves overrides and dependencies, then asks each component in turn.
// Answers failing validation are reported and asked again.
func (t *Terminal) Ask(ctx context.Context, components []ui.Component) (ui.Answers, error) {
	uctx := ui.NewContext()
	for _, c := range ui.Flatten(ui.ApplyOverrides(components)) {
		if l, ok := c.(ui.Label); ok {
			t.Show(l)
			continue
		}
		if c.Ident() == "" {
			continue
		}
		for {
			v, err := t.ask(ctx, c, uctx, false)
			if err != nil {
				return nil, err
			}
			if err := ui.Validate(c, v); err != nil {
				t.Show(ui.Error(err))
				continue
			}
			uctx = uctx.With(c.Ident(), v)
			break
		}
	}
	return uctx.Answers(), nil
}

func (t *Terminal) ask(ctx context.Context, c ui.Component, uctx ui.Context, filter bool) (any, error) {
	switch c := c.(type) {
	case ui.Searchable:
		return t.ask(ctx, c.Component, uctx, true)
	case ui.Hidden:
		return c.Value, nil
	case ui.Checkbox:
		v := c.Default
		err := t.run(ctx, huh.NewConfirm().Title(c.Title).Value(&v))
		return v, err
	case ui.Text:
		v := c.Default
		err := t.run(ctx, huh.NewInput().Title(c.Title).Value(&v).
			Validate(func(s string) error { return ui.Validate(c, s) }))
		return v, err
	case ui.Dropdown:
		v, _ := ui.Default(c, uctx).(string)
		err := t.run(ctx, huh.NewSelect[string]().Title(c.Title).
			Options(huhOptions(c.Options, nil)...).Filtering(filter).Value(&v))
		return v, err
	case ui.SelectorList:
		v := slices.Clone(c.Defaults)
		err := t.run(ctx, multi(c.Title, huhOptions(c.Options, c.Defaults), &v, filter))
		return v, err
	case ui.ArbitraryList:
		return t.askArbitrary(ctx, c, filter)
	case ui.Datetime:
		return t.askDatetime(ctx, c)
	case ui.Integer:
		return t.askInteger(ctx, c)
	case ui.Float:
		s := strconv.FormatFloat(c.Default, 'f', -1, 64)
		err := t.run(ctx, huh.NewInput().Title(c.Title).Value(&s).
			Validate(func(s string) error { _, err := ui.ParseFloat(s); return err }))
		if err != nil {
			return nil, err
		}
		return ui.ParseFloat(s)
	case ui.PseudonymList:
		return t.askPseudonyms(ctx, c)
	case ui.AssassinPseudonymPair:
		return t.askPairs(ctx, c)
	case ui.AssassinDependentSelector:
		v, _ := ui.Default(c, uctx).([]string)
		err := t.run(ctx, multi(c.Title, huhOptions(ui.Opts(uctx.Assassins(c.DependsOn)...), v), &v, filter))
		return v, err
	case ui.AssassinDependentInteger:
		return askPerAssassin(t, ctx, c.Title, uctx.Assassins(c.DependsOn), c.Defaults, filter,
			func(id string, def int, hasDef bool) (int, error) {
				s := ""
				if hasDef {
					s = strconv.Itoa(def)
				}
				err := t.run(ctx, huh.NewInput().Title(fmt.Sprintf("%s: %s", c.Title, id)).Value(&s).
					Validate(func(s string) error { _, err := ui.ParseInteger(s); return err }))
				if err != nil {
					return 0, err
				}
				n, _ := ui.ParseInteger(s)
				if n == nil {
					return 0, nil
				}
				return *n, nil
			})
	case ui.ReportEntry:
		return t.askReports(ctx, c, uctx)
	case ui.AssassinDependentCrime:
		return askPerAssassin(t, ctx, c.Title, uctx.Assassins(c.DependsOn), c.Defaults, filter,
			func(id string, def ui.Crime, _ bool) (ui.Crime, error) {
				duration := strconv.Itoa(def.Duration)
				err := t.run(ctx,
					huh.NewNote().Title(id),
					huh.NewInput().Title("Duration (days)").Value(&duration).
						Validate(func(s string) error { _, err := ui.ParseInteger(s); return err }),
					huh.NewInput().Title("Crime").Value(&def.Crime),
					huh.NewInput().Title("Redemption").Value(&def.Redemption))
				if err != nil {
					return def, err
				}
				if n, _ := ui.ParseInteger(duration); n != nil {
					def.Duration = *n
				} else {
					def.Duration = 0
				}
				return def, nil
			})
	case ui.KillEntry:
		v, _ := ui.Default(c, uctx).([]model.Kill)
		err := t.run(ctx, multi(c.Title, killOptions(ui.KillPairs(uctx.Assassins(c.DependsOn)), v), &v, filter))
		return v, err
	case ui.KillDependentSelector:
		v, _ := ui.Default(c, uctx).([]model.Kill)
		err := t.run(ctx, multi(c.Title, killOptions(uctx.Kills(c.DependsOn), v), &v, filter))
		return v, err
	case ui.ForEach:
		return t.askForEach(ctx, c, filter)
	}
	return nil, fmt.Errorf("unsupported component %T", c)
}

func (t *Terminal) askArbitrary(ctx context.Context, c ui.ArbitraryList, filter bool) ([]string, error) {
	choices := slices.Clone(c.Options)
	for _, d := range c.Defaults {
		if !slices.Contains(choices, d) {
			choices = append(choices, d)
		}
	}
	v := slices.Clone(c.Defaults)
	fields := []huh.Field{multi(c.Title, huhOptions(ui.Opts(choices...), v), &v, filter)}
	var extra string
	if c.AllowNew {
		fields = append(fields, huh.NewText().Title("Additional entries, one per line").Value(&extra))
	}
	if err := t.run(ctx, fields...); err != nil {
		return nil, err
	}
	for _, line := range strings.Split(extra, "\n") {
		if line = strings.TrimSpace(line); line != "" && !slices.Contains(v, line) {
			v = append(v, line)
		}
	}
	return v, nil
}

func (t *Terminal) askDatetime(ctx context.Context, c ui.Datetime) (any, error) {
	s := ui.FormatDatetime(c.Default, c.Location)
	title := fmt.Sprintf("%s (%s)", c.Title, ui.DatetimeLayout)
	err := t.run(ctx, huh.NewInput().Title(title).Value(&s).Validate(func(s string) error {
		d, err := ui.ParseDatetime(s, c.Location)
		if err == nil && d == nil && !c.Optional {
			return fmt.Errorf("%w: %s", model.ErrInvalidDatetime, c.Title)
		}
		return err
	}))
	if err != nil {
		return nil, err
	}
	d, err := ui.ParseDatetime(s, c.Location)
	if err != nil {
		return nil, err
	}
	if c.Optional {
		return d, nil
	}
	if d == nil {
		return time.Time{}, nil
	}
	return *d, nil
}

func (t *Terminal) askInteger(ctx context.Context, c ui.Integer) (any, error) {
	s := ""
	if c.Default != nil {
		s = strconv.Itoa(*c.Default)
	}
	err := t.run(ctx, huh.NewInput().Title(c.Title).Value(&s).Validate(func(s string) error {
		n, err := ui.ParseInteger(s)
		if err == nil && n == nil && !c.Optional {
			return fmt.Errorf("%w: %s", model.ErrInvalidInteger, c.Title)
		}
		return err
	}))
	if err != nil {
		return nil, err
	}
	n, err := ui.ParseInteger(s)
	if err != nil {
		return nil, err
	}
	if c.Optional {
		return n, nil
	}
	if n == nil {
		return 0, nil
	}
	return *n, nil
}

// askPseudonyms edits every existing slot plus one new slot. Blanking a
// later slot deletes it without renumbering.
func (t *Terminal) askPseudonyms(ctx context.Context, c ui.PseudonymList) ([]ui.PseudonymEntry, error) {
	entries := append(slices.Clone(c.Entries), ui.PseudonymEntry{})
	names := make([]string, len(entries))
	froms := make([]string, len(entries))
	var fields []huh.Field
	if c.Title != "" {
		fields = append(fields, huh.NewNote().Title(c.Title))
	}
	for i, e := range entries {
		names[i] = e.Name
		froms[i] = ui.FormatDatetime(e.ValidFrom, c.Location)
		title := fmt.Sprintf("Pseudonym %d", i)
		if i == len(entries)-1 {
			title = "New pseudonym (blank for none)"
		}
		fields = append(fields, huh.NewInput().Title(title).Value(&names[i]))
		if i > 0 {
			fields = append(fields, huh.NewInput().
				Title(fmt.Sprintf("Valid from (%s, blank for always)", ui.DatetimeLayout)).
				Value(&froms[i]).
				Validate(func(s string) error { _, err := ui.ParseDatetime(s, c.Location); return err }))
		}
	}
	if err := t.run(ctx, fields...); err != nil {
		return nil, err
	}
	out := make([]ui.PseudonymEntry, 0, len(entries))
	for i := range entries {
		name := strings.TrimSpace(names[i])
		if i == len(entries)-1 && name == "" {
			break
		}
		from, err := ui.ParseDatetime(froms[i], c.Location)
		if err != nil {
			return nil, err
		}
		if name == "" {
			from = nil
		}
		out = append(out, ui.PseudonymEntry{Name: name, ValidFrom: from})
	}
	return out, nil
}

func (t *Terminal) askPairs(ctx context.Context, c ui.AssassinPseudonymPair) (map[string]int, error) {
	options := make([]ui.Option, len(c.Choices))
	for i, ch := range c.Choices {
		options[i] = ui.Opt(ch.Identifier)
	}
	chosen := slices.Sorted(maps.Keys(c.Defaults))
	if err := t.run(ctx, multi(c.Title, huhOptions(options, chosen), &chosen, true)); err != nil {
		return nil, err
	}
	out := make(map[string]int, len(chosen))
	for _, ch := range c.Choices {
		if !slices.Contains(chosen, ch.Identifier) {
			continue
		}
		idx := c.Defaults[ch.Identifier]
		var opts []huh.Option[int]
		for i, p := range ch.Pseudonyms {
			if p != "" {
				opts = append(opts, huh.NewOption(p, i))
			}
		}
		if len(opts) > 1 {
			err := t.run(ctx, huh.NewSelect[int]().
				Title(fmt.Sprintf("Pseudonym used by %s", ch.Identifier)).
				Options(opts...).
				Value(&idx))
			if err != nil {
				return nil, err
			}
		}
		out[ch.Identifier] = idx
	}
	return out, nil
}

func (t *Terminal) askForEach(ctx context.Context, c ui.ForEach, filter bool) (map[string]ui.Answers, error) {
	chosen := slices.Clone(c.Defaults)
	if err := t.run(ctx, multi(c.Title, huhOptions(c.Options, chosen), &chosen, filter)); err != nil {
		return nil, err
	}
	out := make(map[string]ui.Answers, len(chosen))
	for _, o := range c.Options {
		if !slices.Contains(chosen, o.Value) || c.Form == nil {
			continue
		}
		t.Show(ui.Info(o.Label))
		sub, err := t.Ask(ctx, c.Form(o))
		if err != nil {
			return nil, err
		}
		out[o.Value] = sub
	}
	return out, nil
}

// askPerAssassin picks a subset of assassins, then asks one value for each.
// askReports edits each kept report in place and offers one new report per
// assassin. Clearing a report's text removes it.
func (t *Terminal) askReports(ctx context.Context, c ui.ReportEntry, uctx ui.Context) ([]model.Report, error) {
	pairs, _ := ui.Value[map[string]int](uctx.Answers(), c.DependsOn)
	existing, _ := ui.Default(c, uctx).([]model.Report)
	texts := make([]string, len(existing))
	var fields []huh.Field
	for i, r := range existing {
		texts[i] = r.Text
		fields = append(fields, huh.NewText().Title(fmt.Sprintf("%s: %s", c.Title, r.Assassin)).Value(&texts[i]))
	}
	assassins := uctx.Assassins(c.DependsOn)
	fresh := make([]string, len(assassins))
	for i, id := range assassins {
		fields = append(fields, huh.NewText().Title(fmt.Sprintf("New report: %s", id)).Value(&fresh[i]))
	}
	if len(fields) == 0 {
		return []model.Report{}, nil
	}
	if err := t.run(ctx, fields...); err != nil {
		return nil, err
	}
	out := []model.Report{}
	for i, r := range existing {
		if r.Text = strings.TrimSpace(texts[i]); r.Text != "" {
			out = append(out, r)
		}
	}
	for i, id := range assassins {
		if text := strings.TrimSpace(fresh[i]); text != "" {
			out = append(out, model.Report{Assassin: id, PseudonymIndex: pairs[id], Text: text})
		}
	}
	return out, nil
}

func askPerAssassin[T any](t *Terminal, ctx context.Context, title string, assassins []string, defaults map[string]T, filter bool, one func(id string, def T, hasDef bool) (T, error)) (map[string]T, error) {
	var chosen []string
	for _, id := range assassins {
		if _, ok := defaults[id]; ok {
			chosen = append(chosen, id)
		}
	}
	if err := t.run(ctx, multi(title, huhOptions(ui.Opts(assassins...), chosen), &chosen, filter)); err != nil {
		return nil, err
	}
	out := make(map[string]T, len(chosen))
	for _, id := range assassins {
		if !slices.Contains(chosen, id) {
			continue
		}
		def, ok := defaults[id]
		v, err := one(id, def, ok)
		if err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, nil
}

func multi[T comparable](title string, options []huh.Option[T], value *[]T, filter bool) huh.Field {
	return huh.NewMultiSelect[T]().
		Title(title).
		Options(options...).
		Filterable(filter).
		Value(value)
}

func huhOptions(options []ui.Option, selected []string) []huh.Option[string] {
	out := make([]huh.Option[string], len(options))
	for i, o := range options {
		out[i] = huh.NewOption(o.Label, o.Value).Selected(slices.Contains(selected, o.Value))
	}
	return out
}

func killOptions(kills, selected []model.Kill) []huh.Option[model.Kill] {
	out := make([]huh.Option[model.Kill], len(kills))
	for i, k := range kills {
		out[i] = huh.NewOption(fmt.Sprintf("%s killed %s", k.Killer, k.Victim), k).
			Selected(slices.Contains(selected, k))
	}
	return out
}
