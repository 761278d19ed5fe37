package model

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"
)

// eventHeadlineIdentifierLength bounds how much of the headline appears in an
// event identifier.
const eventHeadlineIdentifierLength = 25

// Report is a piece of text written by an assassin about an event, attributed
// to one of their pseudonyms.
type Report struct {
	Assassin       string
	PseudonymIndex int
	Text           string
}

// Kill records that Killer killed Victim. Both are assassin identifiers.
type Kill struct {
	Killer string
	Victim string
}

// Event is a single umpire-recorded occurrence in the game.
type Event struct {
	// Assassins maps each participating assassin identifier to the index of
	// the pseudonym they used in this event.
	Assassins map[string]int
	Datetime  time.Time
	Headline  string
	Reports   []Report
	Kills     []Kill

	PluginState PluginState

	secretID   string
	identifier string
}

// NewEvent creates an event with the given secret id. The identifier is
// derived from the secret id and the headline at creation.
func NewEvent(secretID string, datetime time.Time, headline string) *Event {
	e := &Event{
		Assassins:   make(map[string]int),
		Datetime:    datetime,
		Headline:    headline,
		PluginState: make(PluginState),
		secretID:    secretID,
	}
	e.identifier = eventIdentifier(e)
	return e
}

func eventIdentifier(e *Event) string {
	return fmt.Sprintf("[%s] %s", e.secretID, truncateRunes(e.Headline, eventHeadlineIdentifierLength))
}

// SecretID returns the internal id allocated from the generic state counter.
func (e *Event) SecretID() string {
	return e.secretID
}

// Identifier returns the human-readable key of this event.
func (e *Event) Identifier() string {
	return e.identifier
}

// Victims returns the distinct victims of this event in order of first
// appearance, and every victim that appeared again after its first kill.
func (e *Event) Victims() (victims []string, duplicates []string) {
	seen := make(map[string]bool, len(e.Kills))
	for _, k := range e.Kills {
		if seen[k.Victim] {
			duplicates = append(duplicates, k.Victim)
			continue
		}
		seen[k.Victim] = true
		victims = append(victims, k.Victim)
	}
	return victims, duplicates
}

// ReferencedAssassins returns every assassin identifier mentioned anywhere in
// the event, sorted.
func (e *Event) ReferencedAssassins() []string {
	set := make(map[string]struct{})
	for id := range e.Assassins {
		set[id] = struct{}{}
	}
	for _, r := range e.Reports {
		set[r.Assassin] = struct{}{}
	}
	for _, k := range e.Kills {
		set[k.Killer] = struct{}{}
		set[k.Victim] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}

// Clone returns a deep copy of e.
func (e *Event) Clone() *Event {
	c := *e
	c.Assassins = maps.Clone(e.Assassins)
	c.Reports = slices.Clone(e.Reports)
	c.Kills = slices.Clone(e.Kills)
	c.PluginState = e.PluginState.Clone()
	return &c
}

// Reports and kills are encoded as JSON arrays: [assassin, index, text] and
// [killer, victim].

func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.Assassin, r.PseudonymIndex, r.Text})
}

func (r *Report) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("report must have 3 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &r.Assassin); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[1], &r.PseudonymIndex); err != nil {
		return err
	}
	return json.Unmarshal(raw[2], &r.Text)
}

func (k Kill) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{k.Killer, k.Victim})
}

func (k *Kill) UnmarshalJSON(data []byte) error {
	var raw [2]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	k.Killer, k.Victim = raw[0], raw[1]
	return nil
}

type eventJSON struct {
	Identifier  string         `json:"identifier"`
	SecretID    string         `json:"secret_id"`
	Assassins   map[string]int `json:"assassins"`
	Datetime    Timestamp      `json:"datetime"`
	Headline    string         `json:"headline"`
	Reports     []Report       `json:"reports"`
	Kills       []Kill         `json:"kills"`
	PluginState PluginState    `json:"plugin_state"`
}

func (e *Event) MarshalJSON() ([]byte, error) {
	raw := eventJSON{
		Identifier:  e.identifier,
		SecretID:    e.secretID,
		Assassins:   e.Assassins,
		Datetime:    Timestamp{e.Datetime},
		Headline:    e.Headline,
		Reports:     e.Reports,
		Kills:       e.Kills,
		PluginState: e.PluginState,
	}
	if raw.Assassins == nil {
		raw.Assassins = map[string]int{}
	}
	if raw.Reports == nil {
		raw.Reports = []Report{}
	}
	if raw.Kills == nil {
		raw.Kills = []Kill{}
	}
	if raw.PluginState == nil {
		raw.PluginState = PluginState{}
	}
	return json.Marshal(raw)
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Event{
		Assassins:   raw.Assassins,
		Datetime:    raw.Datetime.Time,
		Headline:    raw.Headline,
		Reports:     raw.Reports,
		Kills:       raw.Kills,
		PluginState: raw.PluginState,
		secretID:    raw.SecretID,
		identifier:  raw.Identifier,
	}
	if e.Assassins == nil {
		e.Assassins = make(map[string]int)
	}
	if e.PluginState == nil {
		e.PluginState = make(PluginState)
	}
	if e.identifier == "" {
		e.identifier = eventIdentifier(e)
	}
	return nil
}

// SortChronologically orders events by datetime, breaking ties by secret id.
func SortChronologically(events []*Event) {
	slices.SortStableFunc(events, func(a, b *Event) int {
		if c := a.Datetime.Compare(b.Datetime); c != 0 {
			return c
		}
		return CompareSecretIDs(a.secretID, b.secretID)
	})
}

// SortBySecretID orders events by creation order.
func SortBySecretID(events []*Event) {
	slices.SortStableFunc(events, func(a, b *Event) int {
		return CompareSecretIDs(a.secretID, b.secretID)
	})
}
