// Package ui describes forms independently of how they are shown. Plugins
// return components when asked and read the answers, keyed by component id,
// when answered. Answer types are listed on each component.
package ui

import (
	"time"

	"github.com/mcoot/autoumpire/internal/model"
)

// Component is one element of a form. Display-only and structural
// components have an empty id.
type Component interface {
	Ident() string
}

// Option is one choice of a list component.
type Option struct {
	Label string
	Value string
}

// Opt is an option whose label is its value.
func Opt(v string) Option {
	return Option{Label: v, Value: v}
}

// Opts turns values into options.
func Opts(vs ...string) []Option {
	out := make([]Option, len(vs))
	for i, v := range vs {
		out[i] = Opt(v)
	}
	return out
}

// LabelStyle sets how a label is shown.
type LabelStyle int

const (
	LabelInfo LabelStyle = iota
	LabelSuccess
	LabelWarning
	LabelError
)

// Label is display-only text.
type Label struct {
	Text  string
	Style LabelStyle
}

func (Label) Ident() string { return "" }

// Info is an informational label.
func Info(text string) Label { return Label{Text: text} }

// Success is a label reporting that something worked.
func Success(text string) Label { return Label{Text: text, Style: LabelSuccess} }

// Warning is a warning label.
func Warning(text string) Label { return Label{Text: text, Style: LabelWarning} }

// Error is a label describing err.
func Error(err error) Label { return Label{Text: err.Error(), Style: LabelError} }

// Checkbox answers bool.
type Checkbox struct {
	ID      string
	Title   string
	Default bool
}

func (c Checkbox) Ident() string { return c.ID }

// Text answers string. A non-empty Default makes it a default text input.
type Text struct {
	ID       string
	Title    string
	Default  string
	Required bool
	Validate func(string) error
}

func (c Text) Ident() string { return c.ID }

// Hidden is never shown; it answers Value.
type Hidden struct {
	ID    string
	Value any
}

func (c Hidden) Ident() string { return c.ID }

// Dropdown picks one option and answers its value as a string.
type Dropdown struct {
	ID      string
	Title   string
	Options []Option
	Default string
}

func (c Dropdown) Ident() string { return c.ID }

// SelectorList picks a subset of options and answers []string of values.
type SelectorList struct {
	ID       string
	Title    string
	Options  []Option
	Defaults []string
}

func (c SelectorList) Ident() string { return c.ID }

// ArbitraryList edits a list of strings, answering []string. With AllowNew
// the user may add entries not among Options.
type ArbitraryList struct {
	ID       string
	Title    string
	Options  []string
	Defaults []string
	AllowNew bool
}

func (c ArbitraryList) Ident() string { return c.ID }

// DatetimeLayout is how datetimes are typed.
const DatetimeLayout = "2006-01-02 15:04"

// Datetime answers time.Time, or *time.Time when Optional (nil for none).
type Datetime struct {
	ID       string
	Title    string
	Default  *time.Time
	Optional bool
	Location *time.Location
}

func (c Datetime) Ident() string { return c.ID }

// Integer answers int, or *int when Optional.
type Integer struct {
	ID       string
	Title    string
	Default  *int
	Optional bool
}

func (c Integer) Ident() string { return c.ID }

// Float answers float64.
type Float struct {
	ID      string
	Title   string
	Default float64
}

func (c Float) Ident() string { return c.ID }

// PseudonymEntry is one row of a PseudonymList.
type PseudonymEntry struct {
	Name      string
	ValidFrom *time.Time
}

// PseudonymList edits pseudonyms and their validity starts, answering
// []PseudonymEntry. Entry 0 cannot be blanked or given a validity.
type PseudonymList struct {
	ID       string
	Title    string
	Entries  []PseudonymEntry
	Location *time.Location
}

func (c PseudonymList) Ident() string { return c.ID }

// AssassinChoice is an assassin offered by AssassinPseudonymPair.
type AssassinChoice struct {
	Identifier string
	Pseudonyms []string
}

// AssassinPseudonymPair picks assassins and, for each, the index of the
// pseudonym they used. Answers map[string]int.
type AssassinPseudonymPair struct {
	ID       string
	Title    string
	Choices  []AssassinChoice
	Defaults map[string]int
}

func (c AssassinPseudonymPair) Ident() string { return c.ID }

// AssassinDependentSelector picks a subset of the assassins answered by
// DependsOn. Answers []string.
type AssassinDependentSelector struct {
	ID        string
	Title     string
	DependsOn string
	Defaults  []string
}

func (c AssassinDependentSelector) Ident() string    { return c.ID }
func (c AssassinDependentSelector) Provider() string { return c.DependsOn }

// AssassinDependentInteger collects an integer for each chosen assassin
// answered by DependsOn. Answers map[string]int.
type AssassinDependentInteger struct {
	ID        string
	Title     string
	DependsOn string
	Defaults  map[string]int
}

func (c AssassinDependentInteger) Ident() string    { return c.ID }
func (c AssassinDependentInteger) Provider() string { return c.DependsOn }

// ReportEntry collects reports from the assassins answered by DependsOn,
// which must be an AssassinPseudonymPair. An assassin may file several
// reports; each keeps its own pseudonym index. Answers []model.Report.
type ReportEntry struct {
	ID        string
	Title     string
	DependsOn string
	Defaults  []model.Report
}

func (c ReportEntry) Ident() string    { return c.ID }
func (c ReportEntry) Provider() string { return c.DependsOn }

// Crime is a wanted order as entered on a form.
type Crime struct {
	Duration   int
	Crime      string
	Redemption string
}

// AssassinDependentCrime collects a crime for each chosen assassin answered
// by DependsOn. Answers map[string]Crime.
type AssassinDependentCrime struct {
	ID        string
	Title     string
	DependsOn string
	Defaults  map[string]Crime
}

func (c AssassinDependentCrime) Ident() string    { return c.ID }
func (c AssassinDependentCrime) Provider() string { return c.DependsOn }

// KillEntry picks (killer, victim) pairs among the assassins answered by
// DependsOn. Answers []model.Kill.
type KillEntry struct {
	ID        string
	Title     string
	DependsOn string
	Defaults  []model.Kill
}

func (c KillEntry) Ident() string    { return c.ID }
func (c KillEntry) Provider() string { return c.DependsOn }

// KillDependentSelector picks a subset of the kills answered by DependsOn.
// Answers []model.Kill.
type KillDependentSelector struct {
	ID        string
	Title     string
	DependsOn string
	Defaults  []model.Kill
}

func (c KillDependentSelector) Ident() string    { return c.ID }
func (c KillDependentSelector) Provider() string { return c.DependsOn }

// ForEach picks options, then fills Form for each picked option. Answers
// map[string]Answers keyed by option value.
type ForEach struct {
	ID       string
	Title    string
	Options  []Option
	Defaults []string
	Form     func(Option) []Component
}

func (c ForEach) Ident() string { return c.ID }

// Dependency declares that Components need the answer of the component
// with id On, and are shown straight after it.
type Dependency struct {
	On         string
	Components []Component
}

func (Dependency) Ident() string { return "" }

// Override replaces the component with id Target by Replacement.
type Override struct {
	Target      string
	Replacement Component
}

func (Override) Ident() string { return "" }

// Searchable lets the user filter the choices of a list component.
type Searchable struct {
	Component
}

// Dependent is implemented by components that read another component's
// answer.
type Dependent interface {
	Component
	Provider() string
}
