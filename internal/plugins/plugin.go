// Package plugins composes game features. A Plugin declares its exports and
// lifecycle hooks as data; the Bus runs exports and fans hooks out to every
// enabled plugin in registration order, core first.
package plugins

import (
	"context"

	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/ui"
)

// CoreID is the plugin that is always first and cannot be disabled.
const CoreID = "core"

// Request hooks return the components a plugin adds to a form. Create
// requests receive a nil entity.
type (
	AssassinRequest func(ctx context.Context, a *model.Assassin) []ui.Component
	EventRequest    func(ctx context.Context, e *model.Event) []ui.Component
	PageRequest     func(ctx context.Context) []ui.Component
)

// Response hooks react to the answers of a form and return result
// components. Assassin and event responses may modify the entity before it
// is stored.
type (
	AssassinResponse func(ctx context.Context, a *model.Assassin, answers ui.Answers) []ui.Component
	EventResponse    func(ctx context.Context, e *model.Event, answers ui.Answers) []ui.Component
	PageResponse     func(ctx context.Context, answers ui.Answers) []ui.Component
)

// Hooks are the lifecycle callbacks of a plugin. Every field is optional.
type Hooks struct {
	AssassinRequestCreate AssassinRequest
	AssassinCreate        AssassinResponse
	AssassinRequestUpdate AssassinRequest
	AssassinUpdate        AssassinResponse

	EventRequestCreate EventRequest
	EventCreate        EventResponse
	EventRequestUpdate EventRequest
	EventUpdate        EventResponse
	EventRequestDelete EventRequest
	EventDelete        EventResponse

	PageRequestGenerate PageRequest
	PageGenerate        PageResponse
}

// Gatherer produces the choices for one positional argument of an export.
type Gatherer struct {
	Title   string
	Options func(ctx context.Context) ([]ui.Option, error)
}

// Export is an action offered on the main menu. The values chosen for its
// gatherers are passed to Ask and Answer as args.
type Export struct {
	ID          string
	DisplayName string
	Gather      []Gatherer
	Ask         func(ctx context.Context, args []string) ([]ui.Component, error)
	Answer      func(ctx context.Context, answers ui.Answers, args []string) ([]ui.Component, error)
}

// Order places a subscriber among the others on the same hook.
type Order int

const (
	First Order = iota
	Last
)

// Subscription contributes to another plugin's hooked export.
type Subscription struct {
	Hook  string
	Order Order
	// Request adds components to the hooked export's form.
	Request func(ctx context.Context) []ui.Component
	// Respond contributes to the payload built by the hooked export.
	Respond func(ctx context.Context, answers ui.Answers, payload any) []ui.Component
}

// HookedExport is an export that other plugins contribute to. Produce
// builds the payload, every subscriber responds to it, then Finish acts on
// the result.
type HookedExport struct {
	Hook        string
	ID          string
	DisplayName string
	Ask         func(ctx context.Context) ([]ui.Component, error)
	Produce     func(ctx context.Context, answers ui.Answers) (any, error)
	Finish      func(ctx context.Context, answers ui.Answers, payload any) ([]ui.Component, error)
}

// Plugin is one feature of the umpiring tool.
type Plugin struct {
	ID   string
	Name string
	// DefaultDisabled plugins stay off until enabled in the plugin map.
	DefaultDisabled bool

	Exports       []Export
	HookedExports []HookedExport
	Subscriptions []Subscription
	Hooks         Hooks
}
