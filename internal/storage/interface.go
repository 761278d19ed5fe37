package storage

import (
	"context"

	"github.com/mcoot/autoumpire/internal/model"
)

// Storage defines the interface for data persistence. Backends hold three
// independent documents: assassins, events and the generic state.
type Storage interface {
	// Assassin operations
	SaveAssassin(ctx context.Context, assassin *model.Assassin) error
	GetAssassin(ctx context.Context, identifier string) (*model.Assassin, error)
	ListAssassins(ctx context.Context) ([]*model.Assassin, error)

	// Event operations
	SaveEvent(ctx context.Context, event *model.Event) error
	GetEvent(ctx context.Context, identifier string) (*model.Event, error)
	DeleteEvent(ctx context.Context, identifier string) error
	ListEvents(ctx context.Context) ([]*model.Event, error)

	// Generic state operations
	GetGenericState(ctx context.Context) (*model.GenericState, error)
	SaveGenericState(ctx context.Context, state *model.GenericState) error

	// NextUniqueID returns the current counter value as a string and
	// increments the persisted counter.
	NextUniqueID(ctx context.Context) (string, error)
}

// Flusher is implemented by backends that buffer writes in memory and persist
// them on demand.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Refresher is implemented by backends that can reload their documents from
// the underlying medium, discarding unflushed changes.
type Refresher interface {
	Refresh(ctx context.Context) error
}
