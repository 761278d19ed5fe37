package memory

import (
	"context"
	"sync"

	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	assassins    map[string]*model.Assassin
	events       map[string]*model.Event
	genericState *model.GenericState
}

// New creates a new in-memory storage instance
func New() *Storage {
	s := &Storage{}
	s.Reset()
	return s
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Reset drops every document.
func (s *Storage) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assassins = make(map[string]*model.Assassin)
	s.events = make(map[string]*model.Event)
	s.genericState = model.NewGenericState()
}

// Load replaces every document with the given contents.
func (s *Storage) Load(assassins []*model.Assassin, events []*model.Event, state *model.GenericState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assassins = make(map[string]*model.Assassin, len(assassins))
	for _, a := range assassins {
		s.assassins[a.Identifier()] = a.Clone()
	}
	s.events = make(map[string]*model.Event, len(events))
	for _, e := range events {
		s.events[e.Identifier()] = e.Clone()
	}
	if state == nil {
		state = model.NewGenericState()
	}
	s.genericState = state.Clone()
}

// Assassin operations

func (s *Storage) SaveAssassin(ctx context.Context, assassin *model.Assassin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assassins[assassin.Identifier()] = assassin.Clone()
	return nil
}

func (s *Storage) GetAssassin(ctx context.Context, identifier string) (*model.Assassin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assassins[identifier]
	if !ok {
		return nil, model.ErrAssassinNotFound
	}
	return a.Clone(), nil
}

func (s *Storage) ListAssassins(ctx context.Context) ([]*model.Assassin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Assassin, 0, len(s.assassins))
	for _, a := range s.assassins {
		out = append(out, a.Clone())
	}
	return out, nil
}

// Event operations

func (s *Storage) SaveEvent(ctx context.Context, event *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.Identifier()] = event.Clone()
	return nil
}

func (s *Storage) GetEvent(ctx context.Context, identifier string) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[identifier]
	if !ok {
		return nil, model.ErrEventNotFound
	}
	return e.Clone(), nil
}

func (s *Storage) DeleteEvent(ctx context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[identifier]; !ok {
		return model.ErrEventNotFound
	}
	delete(s.events, identifier)
	return nil
}

func (s *Storage) ListEvents(ctx context.Context) ([]*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Clone())
	}
	return out, nil
}

// Generic state operations

func (s *Storage) GetGenericState(ctx context.Context) (*model.GenericState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.genericState.Clone(), nil
}

func (s *Storage) SaveGenericState(ctx context.Context, state *model.GenericState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.genericState = state.Clone()
	return nil
}

func (s *Storage) NextUniqueID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.genericState.UniqueStr(), nil
}
