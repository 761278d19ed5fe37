package prompt

import (
	"context"
	"fmt"

	"github.com/mcoot/autoumpire/internal/ui"
)

// Scripted is a Prompter that answers from a script. Components without a
// scripted answer take their defaults. It is used by tests and by
// non-interactive commands.
type Scripted struct {
	// Answers are keyed by component id and consumed in order per id.
	Answers map[string][]any
	// Choices answer Choose calls in order.
	Choices []string
	// Confirms answer Confirm calls in order. An empty queue answers yes.
	Confirms []bool

	// Shown collects everything passed to Show.
	Shown []ui.Component
	// Asked collects the flattened components of every Ask call.
	Asked [][]ui.Component
}

var _ Prompter = (*Scripted)(nil)

// NewScripted creates an empty script.
func NewScripted() *Scripted {
	return &Scripted{Answers: make(map[string][]any)}
}

// Answer queues an answer for the component with id.
func (s *Scripted) Answer(id string, v any) *Scripted {
	s.Answers[id] = append(s.Answers[id], v)
	return s
}

// Choose queues a menu choice.
func (s *Scripted) Choose(_ context.Context, title string, options []ui.Option) (string, error) {
	if len(s.Choices) == 0 {
		return "", fmt.Errorf("%w: no scripted choice for %q", ErrAborted, title)
	}
	choice := s.Choices[0]
	s.Choices = s.Choices[1:]
	for _, o := range options {
		if o.Value == choice || o.Label == choice {
			return o.Value, nil
		}
	}
	return "", fmt.Errorf("scripted choice %q is not offered by %q", choice, title)
}

// Confirm pops the next scripted confirmation.
func (s *Scripted) Confirm(context.Context, string) (bool, error) {
	if len(s.Confirms) == 0 {
		return true, nil
	}
	ok := s.Confirms[0]
	s.Confirms = s.Confirms[1:]
	return ok, nil
}

// Show records components.
func (s *Scripted) Show(components ...ui.Component) {
	s.Shown = append(s.Shown, components...)
}

// Ask answers each component from the script or its default. A scripted
// answer that fails validation is an error, since there is nobody to ask
// again.
func (s *Scripted) Ask(ctx context.Context, components []ui.Component) (ui.Answers, error) {
	flat := ui.Flatten(ui.ApplyOverrides(components))
	s.Asked = append(s.Asked, flat)
	uctx := ui.NewContext()
	for _, c := range flat {
		if l, ok := c.(ui.Label); ok {
			s.Show(l)
			continue
		}
		id := c.Ident()
		if id == "" {
			continue
		}
		v := ui.Default(c, uctx)
		if queued := s.Answers[id]; len(queued) > 0 {
			v = queued[0]
			s.Answers[id] = queued[1:]
		}
		if err := ui.Validate(c, v); err != nil {
			return nil, fmt.Errorf("component %s: %w", id, err)
		}
		uctx = uctx.With(id, v)
	}
	return uctx.Answers(), nil
}

// Labels returns the text of every label shown.
func (s *Scripted) Labels() []string {
	var out []string
	for _, c := range s.Shown {
		if l, ok := c.(ui.Label); ok {
			out = append(out, l.Text)
		}
	}
	return out
}

// Errors returns the text of every error label shown.
func (s *Scripted) Errors() []string {
	var out []string
	for _, c := range s.Shown {
		if l, ok := c.(ui.Label); ok && l.Style == ui.LabelError {
			out = append(out, l.Text)
		}
	}
	return out
}
