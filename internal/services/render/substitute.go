package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/mcoot/autoumpire/internal/model"
)

// HTMLSentinel marks report text that is already HTML.
const HTMLSentinel = "<!--HTML-->"

// StatusFunc gives the colouring status of an assassin at a time.
type StatusFunc func(id string, at time.Time) (Status, string)

// Substituter expands substitution codes into coloured names.
type Substituter struct {
	snapshot *model.Snapshot
	palette  Palette
	status   StatusFunc
}

// NewSubstituter creates a Substituter. A nil status colours every name as
// default.
func NewSubstituter(snapshot *model.Snapshot, palette Palette, status StatusFunc) *Substituter {
	if status == nil {
		status = func(string, time.Time) (Status, string) { return StatusDefault, "" }
	}
	return &Substituter{snapshot: snapshot, palette: palette, status: status}
}

// FormatText escapes plain text and turns newlines into line breaks. Text
// starting with HTMLSentinel is passed through without the sentinel.
func FormatText(text string) string {
	if rest, ok := strings.CutPrefix(text, HTMLSentinel); ok {
		return rest
	}
	return strings.ReplaceAll(templ.EscapeString(text), "\n", "<br />\n")
}

// Substitute expands every code in html for event e. Codes naming unknown
// assassins are left as they are.
func (s *Substituter) Substitute(html string, e *model.Event) string {
	return model.CodePattern.ReplaceAllStringFunc(html, func(raw string) string {
		code, err := model.ParseCode(raw)
		if err != nil {
			return raw
		}
		a, ok := s.snapshot.AssassinBySecretID(code.SecretID)
		if !ok {
			return raw
		}
		switch code.Kind {
		case model.CodeRealName:
			return s.Name(a, a.RealName, e.Datetime)
		case model.CodeAllPseudonyms:
			names := a.PseudonymsUntil(&e.Datetime)
			parts := make([]string, len(names))
			for i, n := range names {
				parts[i] = s.Name(a, n, e.Datetime)
			}
			return strings.Join(parts, " AKA ")
		default:
			return s.Name(a, a.Pseudonym(mainPseudonym(a, code, e)), e.Datetime)
		}
	})
}

// mainPseudonym picks the explicit index of the code, then the index the
// event records for the assassin, then the initial pseudonym.
func mainPseudonym(a *model.Assassin, code model.Code, e *model.Event) int {
	if code.Index >= 0 && a.HasPseudonym(code.Index) {
		return code.Index
	}
	if i, ok := e.Assassins[a.Identifier()]; ok {
		return i
	}
	return 0
}

// Name renders one coloured name of a.
func (s *Substituter) Name(a *model.Assassin, name string, at time.Time) string {
	status, override := s.status(a.Identifier(), at)
	return fmt.Sprintf(`<b style="color:%s">%s</b>`, s.palette.Colour(name, status, override), templ.EscapeString(name))
}
