package model

import (
	"slices"
	"strings"
)

// Snapshot is a read-only view of every document, taken for one derivation
// pass. Managers must not keep references to it afterwards.
type Snapshot struct {
	// Assassins keyed by identifier, hidden ones included.
	Assassins map[string]*Assassin
	// Events in chronological order.
	Events []*Event
	State  *GenericState

	bySecretID map[string]*Assassin
}

// NewSnapshot indexes the given documents. Events are sorted chronologically.
func NewSnapshot(assassins []*Assassin, events []*Event, state *GenericState) *Snapshot {
	s := &Snapshot{
		Assassins:  make(map[string]*Assassin, len(assassins)),
		Events:     slices.Clone(events),
		State:      state,
		bySecretID: make(map[string]*Assassin, len(assassins)),
	}
	for _, a := range assassins {
		s.Assassins[a.Identifier()] = a
		s.bySecretID[a.SecretID()] = a
	}
	SortChronologically(s.Events)
	if s.State == nil {
		s.State = NewGenericState()
	}
	return s
}

// AssassinBySecretID finds an assassin from the id used in substitution codes.
func (s *Snapshot) AssassinBySecretID(secretID string) (*Assassin, bool) {
	a, ok := s.bySecretID[secretID]
	return a, ok
}

// Assassin looks up an assassin by identifier.
func (s *Snapshot) Assassin(identifier string) (*Assassin, bool) {
	a, ok := s.Assassins[identifier]
	return a, ok
}

// EventsBySecretID returns the events in creation order.
func (s *Snapshot) EventsBySecretID() []*Event {
	out := slices.Clone(s.Events)
	SortBySecretID(out)
	return out
}

// SortedAssassins returns assassins accepted by keep, ordered by secret id.
func (s *Snapshot) SortedAssassins(keep func(*Assassin) bool) []*Assassin {
	var out []*Assassin
	for _, a := range s.Assassins {
		if keep == nil || keep(a) {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b *Assassin) int {
		return CompareSecretIDs(a.SecretID(), b.SecretID())
	})
	return out
}

// FullPlayers returns every non-city-watch assassin (hidden included) in
// secret id order.
func (s *Snapshot) FullPlayers() []*Assassin {
	return s.SortedAssassins(func(a *Assassin) bool { return !a.IsCityWatch })
}

// IsCityWatch reports whether identifier names a city watch member.
func (s *Snapshot) IsCityWatch(identifier string) bool {
	a, ok := s.Assassins[identifier]
	return ok && a.IsCityWatch
}

// SortIdentifiers sorts identifiers alphabetically, case-sensitively.
func SortIdentifiers(ids []string) {
	slices.SortFunc(ids, strings.Compare)
}
