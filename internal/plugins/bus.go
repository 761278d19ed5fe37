package plugins

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/mcoot/autoumpire/internal/metrics"
	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/services/database"
	"github.com/mcoot/autoumpire/internal/ui"
	"github.com/mcoot/autoumpire/internal/ui/prompt"
)

var (
	ErrDuplicatePlugin = errors.New("plugin already registered")
	ErrDuplicateExport = errors.New("export already registered")
	ErrUnknownPlugin   = errors.New("unknown plugin")
	ErrUnknownExport   = errors.New("unknown or disabled export")
	ErrCoreDisabled    = errors.New("the core plugin cannot be disabled")
)

// Bus is the plugin registry.
type Bus struct {
	db      *database.Service
	metrics *metrics.Metrics
	logger  *slog.Logger

	plugins []*Plugin
	byID    map[string]*Plugin
	exports map[string]string
}

// NewBus creates an empty registry.
func NewBus(db *database.Service, m *metrics.Metrics, logger *slog.Logger) *Bus {
	return &Bus{
		db:      db,
		metrics: m,
		logger:  logger,
		byID:    make(map[string]*Plugin),
		exports: make(map[string]string),
	}
}

// DB returns the store the bus flushes after every action.
func (b *Bus) DB() *database.Service {
	return b.db
}

// Register adds plugins. The core plugin is always ordered first; the rest
// keep registration order.
func (b *Bus) Register(plugins ...*Plugin) error {
	for _, p := range plugins {
		if _, ok := b.byID[p.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicatePlugin, p.ID)
		}
		ids := make([]string, 0, len(p.Exports)+len(p.HookedExports))
		for _, e := range p.Exports {
			ids = append(ids, e.ID)
		}
		for _, h := range p.HookedExports {
			ids = append(ids, h.ID)
		}
		for _, id := range ids {
			if owner, ok := b.exports[id]; ok {
				return fmt.Errorf("%w: %s (from %s)", ErrDuplicateExport, id, owner)
			}
		}
		for _, id := range ids {
			b.exports[id] = p.ID
		}
		b.byID[p.ID] = p
		b.plugins = append(b.plugins, p)
	}
	slices.SortStableFunc(b.plugins, func(x, y *Plugin) int {
		switch {
		case x.ID == CoreID && y.ID != CoreID:
			return -1
		case y.ID == CoreID && x.ID != CoreID:
			return 1
		}
		return 0
	})
	return nil
}

// Plugins returns every registered plugin in order.
func (b *Bus) Plugins() []*Plugin {
	return slices.Clone(b.plugins)
}

// Plugin looks a plugin up by id.
func (b *Bus) Plugin(id string) (*Plugin, bool) {
	p, ok := b.byID[id]
	return p, ok
}

// Enabled returns the enabled plugins in order.
func (b *Bus) Enabled(ctx context.Context) ([]*Plugin, error) {
	state, err := b.db.GenericState(ctx)
	if err != nil {
		return nil, err
	}
	var out []*Plugin
	for _, p := range b.plugins {
		if p.ID == CoreID || state.PluginEnabled(p.ID, !p.DefaultDisabled) {
			out = append(out, p)
		}
	}
	return out, nil
}

// IsEnabled reports whether the plugin id is enabled.
func (b *Bus) IsEnabled(ctx context.Context, id string) (bool, error) {
	p, ok := b.byID[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownPlugin, id)
	}
	if id == CoreID {
		return true, nil
	}
	state, err := b.db.GenericState(ctx)
	if err != nil {
		return false, err
	}
	return state.PluginEnabled(id, !p.DefaultDisabled), nil
}

// SetEnabled turns a plugin on or off in the plugin map.
func (b *Bus) SetEnabled(ctx context.Context, id string, enabled bool) error {
	if _, ok := b.byID[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlugin, id)
	}
	if id == CoreID && !enabled {
		return ErrCoreDisabled
	}
	err := b.db.UpdateGenericState(ctx, func(g *model.GenericState) error {
		g.SetPluginEnabled(id, enabled)
		return nil
	})
	if err != nil {
		return err
	}
	b.logger.Info("plugin toggled", slog.String("plugin", id), slog.Bool("enabled", enabled))
	return nil
}

// Menu lists the exports of enabled plugins, in plugin order.
func (b *Bus) Menu(ctx context.Context) ([]ui.Option, error) {
	enabled, err := b.Enabled(ctx)
	if err != nil {
		return nil, err
	}
	var out []ui.Option
	for _, p := range enabled {
		for _, e := range p.Exports {
			out = append(out, ui.Option{Label: e.DisplayName, Value: e.ID})
		}
		for _, h := range p.HookedExports {
			out = append(out, ui.Option{Label: h.DisplayName, Value: h.ID})
		}
	}
	return out, nil
}

func (b *Bus) find(ctx context.Context, id string) (*Export, *HookedExport, error) {
	enabled, err := b.Enabled(ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, p := range enabled {
		for i := range p.Exports {
			if p.Exports[i].ID == id {
				return &p.Exports[i], nil, nil
			}
		}
		for i := range p.HookedExports {
			if p.HookedExports[i].ID == id {
				return nil, &p.HookedExports[i], nil
			}
		}
	}
	return nil, nil, fmt.Errorf("%w: %s", ErrUnknownExport, id)
}

// outcome is what an action produced. err is a failure of the action
// itself, shown to the user rather than returned.
type outcome struct {
	results []ui.Component
	err     error
}

// Run performs one export: gather its arguments, ask, answer, show the
// results and save. Failures of the action itself are shown as labels;
// only prompt and save failures are returned.
func (b *Bus) Run(ctx context.Context, p prompt.Prompter, id string) error {
	export, hooked, err := b.find(ctx, id)
	if err != nil {
		return err
	}

	var out outcome
	if hooked != nil {
		out, err = b.runHooked(ctx, p, hooked)
	} else {
		out, err = b.runExport(ctx, p, export)
	}
	if err != nil {
		return err
	}
	b.metrics.Action(id, out.err)
	if out.err != nil {
		b.logger.Warn("action failed", slog.String("export", id), slog.String("error", out.err.Error()))
		out.results = append(out.results, ui.Error(out.err))
	}
	p.Show(out.results...)
	return b.db.Flush(ctx)
}

func (b *Bus) runExport(ctx context.Context, p prompt.Prompter, e *Export) (outcome, error) {
	args := make([]string, 0, len(e.Gather))
	for _, g := range e.Gather {
		options, err := g.Options(ctx)
		if err != nil {
			return outcome{err: err}, nil
		}
		if len(options) == 0 {
			return outcome{results: []ui.Component{ui.Warning("Nothing to choose: " + g.Title)}}, nil
		}
		choice, err := p.Choose(ctx, g.Title, options)
		if err != nil {
			return outcome{}, err
		}
		args = append(args, choice)
	}

	var components []ui.Component
	if e.Ask != nil {
		cs, err := e.Ask(ctx, args)
		if err != nil {
			return outcome{err: err}, nil
		}
		components = cs
	}
	answers, err := p.Ask(ctx, components)
	if err != nil {
		return outcome{}, err
	}
	if e.Answer == nil {
		return outcome{}, nil
	}
	results, err := e.Answer(ctx, answers, args)
	return outcome{results: results, err: err}, nil
}

func (b *Bus) runHooked(ctx context.Context, p prompt.Prompter, h *HookedExport) (outcome, error) {
	subs, err := b.subscribers(ctx, h.Hook)
	if err != nil {
		return outcome{err: err}, nil
	}
	var components []ui.Component
	if h.Ask != nil {
		cs, err := h.Ask(ctx)
		if err != nil {
			return outcome{err: err}, nil
		}
		components = cs
	}
	for _, s := range subs {
		if s.Request != nil {
			components = append(components, s.Request(ctx)...)
		}
	}
	answers, err := p.Ask(ctx, components)
	if err != nil {
		return outcome{}, err
	}

	payload, err := h.Produce(ctx, answers)
	if err != nil {
		return outcome{err: err}, nil
	}
	var results []ui.Component
	for _, s := range subs {
		if s.Respond != nil {
			results = append(results, s.Respond(ctx, answers, payload)...)
		}
	}
	if h.Finish == nil {
		return outcome{results: results}, nil
	}
	finished, err := h.Finish(ctx, answers, payload)
	return outcome{results: append(results, finished...), err: err}, nil
}

// subscribers returns the enabled subscriptions to hook: First ones, then
// Last ones, each in plugin order.
func (b *Bus) subscribers(ctx context.Context, hook string) ([]Subscription, error) {
	enabled, err := b.Enabled(ctx)
	if err != nil {
		return nil, err
	}
	var first, last []Subscription
	for _, p := range enabled {
		for _, s := range p.Subscriptions {
			if s.Hook != hook {
				continue
			}
			if s.Order == Last {
				last = append(last, s)
			} else {
				first = append(first, s)
			}
		}
	}
	return append(first, last...), nil
}

// Hook fan-out. Each collects from the enabled plugins in order; a failure
// to read the plugin map is reported as a label.

func (b *Bus) each(ctx context.Context, fn func(p *Plugin) []ui.Component) []ui.Component {
	enabled, err := b.Enabled(ctx)
	if err != nil {
		return []ui.Component{ui.Error(err)}
	}
	var out []ui.Component
	for _, p := range enabled {
		out = append(out, fn(p)...)
	}
	return out
}

// AssassinRequestCreate collects the extra fields every enabled plugin asks for when an assassin is created.
func (b *Bus) AssassinRequestCreate(ctx context.Context) []ui.Component {
	return b.each(ctx, func(p *Plugin) []ui.Component {
		if p.Hooks.AssassinRequestCreate == nil {
			return nil
		}
		return p.Hooks.AssassinRequestCreate(ctx, nil)
	})
}

// AssassinCreate lets every enabled plugin act on a newly created assassin.
func (b *Bus) AssassinCreate(ctx context.Context, a *model.Assassin, answers ui.Answers) []ui.Component {
	return b.each(ctx, func(p *Plugin) []ui.Component {
		if p.Hooks.AssassinCreate == nil {
			return nil
		}
		return p.Hooks.AssassinCreate(ctx, a, answers)
	})
}

// AssassinRequestUpdate collects the extra fields shown when a is updated.
func (b *Bus) AssassinRequestUpdate(ctx context.Context, a *model.Assassin) []ui.Component {
	return b.each(ctx, func(p *Plugin) []ui.Component {
		if p.Hooks.AssassinRequestUpdate == nil {
			return nil
		}
		return p.Hooks.AssassinRequestUpdate(ctx, a)
	})
}

// AssassinUpdate lets every enabled plugin act on an updated assassin.
func (b *Bus) AssassinUpdate(ctx context.Context, a *model.Assassin, answers ui.Answers) []ui.Component {
	return b.each(ctx, func(p *Plugin) []ui.Component {
		if p.Hooks.AssassinUpdate == nil {
			return nil
		}
		return p.Hooks.AssassinUpdate(ctx, a, answers)
	})
}

// EventRequestCreate collects the extra fields every enabled plugin asks for when an event is created.
func (b *Bus) EventRequestCreate(ctx context.Context) []ui.Component {
	return b.each(ctx, func(p *Plugin) []ui.Component {
		if p.Hooks.EventRequestCreate == nil {
			return nil
		}
		return p.Hooks.EventRequestCreate(ctx, nil)
	})
}

// EventCreate lets every enabled plugin act on a newly created event.
func (b *Bus) EventCreate(ctx context.Context, e *model.Event, answers ui.Answers) []ui.Component {
	return b.each(ctx, func(p *Plugin) []ui.Component {
		if p.Hooks.EventCreate == nil {
			return nil
		}
		return p.Hooks.EventCreate(ctx, e, answers)
	})
}

// EventRequestUpdate collects the extra fields shown when e is updated.
func (b *Bus) EventRequestUpdate(ctx context.Context, e *model.Event) []ui.Component {
	return b.each(ctx, func(p *Plugin) []ui.Component {
		if p.Hooks.EventRequestUpdate == nil {
			return nil
		}
		return p.Hooks.EventRequestUpdate(ctx, e)
	})
}

// EventUpdate lets every enabled plugin act on an updated event.
func (b *Bus) EventUpdate(ctx context.Context, e *model.Event, answers ui.Answers) []ui.Component {
	return b.each(ctx, func(p *Plugin) []ui.Component {
		if p.Hooks.EventUpdate == nil {
			return nil
		}
		return p.Hooks.EventUpdate(ctx, e, answers)
	})
}

// EventRequestDelete collects what every enabled plugin wants shown before e is deleted.
func (b *Bus) EventRequestDelete(ctx context.Context, e *model.Event) []ui.Component {
	return b.each(ctx, func(p *Plugin) []ui.Component {
		if p.Hooks.EventRequestDelete == nil {
			return nil
		}
		return p.Hooks.EventRequestDelete(ctx, e)
	})
}

// EventDelete lets every enabled plugin clean up after e is deleted.
func (b *Bus) EventDelete(ctx context.Context, e *model.Event, answers ui.Answers) []ui.Component {
	return b.each(ctx, func(p *Plugin) []ui.Component {
		if p.Hooks.EventDelete == nil {
			return nil
		}
		return p.Hooks.EventDelete(ctx, e, answers)
	})
}

// PageRequestGenerate collects the fields every enabled plugin asks for before pages are generated.
func (b *Bus) PageRequestGenerate(ctx context.Context) []ui.Component {
	return b.each(ctx, func(p *Plugin) []ui.Component {
		if p.Hooks.PageRequestGenerate == nil {
			return nil
		}
		return p.Hooks.PageRequestGenerate(ctx)
	})
}

// PageGenerate lets every enabled plugin write its pages.
func (b *Bus) PageGenerate(ctx context.Context, answers ui.Answers) []ui.Component {
	return b.each(ctx, func(p *Plugin) []ui.Component {
		if p.Hooks.PageGenerate == nil {
			return nil
		}
		return p.Hooks.PageGenerate(ctx, answers)
	})
}
