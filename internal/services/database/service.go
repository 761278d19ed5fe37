package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/storage"
)

// AssassinParams holds the user-supplied fields of a new assassin
type AssassinParams struct {
	InitialPseudonym string `validate:"required"`
	RealName         string `validate:"required"`
	Pronouns         string
	Email            string `validate:"omitempty,email"`
	Address          string
	WaterStatus      string
	College          string
	Notes            string
	IsCityWatch      bool
}

// Service implements the store operations on top of a storage backend:
// secret id allocation, filtered queries and referential integrity checks.
type Service struct {
	storage  storage.Storage
	validate *validator.Validate
	logger   *slog.Logger
}

// New creates a new database Service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage:  storage,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Storage returns the underlying backend.
func (s *Service) Storage() storage.Storage {
	return s.storage
}

// UniqueStr allocates the next secret id.
func (s *Service) UniqueStr(ctx context.Context) (string, error) {
	return s.storage.NextUniqueID(ctx)
}

// Assassins

// CreateAssassin validates params, allocates a secret id and stores the new
// assassin.
func (s *Service) CreateAssassin(ctx context.Context, params AssassinParams) (*model.Assassin, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, fmt.Errorf("invalid assassin: %w", err)
	}

	secretID, err := s.storage.NextUniqueID(ctx)
	if err != nil {
		return nil, err
	}

	a, err := model.NewAssassin(secretID, params.InitialPseudonym, params.RealName, params.IsCityWatch)
	if err != nil {
		return nil, err
	}
	a.Pronouns = params.Pronouns
	a.Email = params.Email
	a.Address = params.Address
	a.WaterStatus = params.WaterStatus
	a.College = params.College
	a.Notes = params.Notes

	if err := s.AddAssassin(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// AddAssassin stores a new assassin, refusing to overwrite an existing one.
func (s *Service) AddAssassin(ctx context.Context, a *model.Assassin) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if _, err := s.storage.GetAssassin(ctx, a.Identifier()); err == nil {
		return fmt.Errorf("%w: %s", model.ErrDuplicateAssassin, a.Identifier())
	} else if !errors.Is(err, model.ErrAssassinNotFound) {
		return err
	}

	if err := s.storage.SaveAssassin(ctx, a); err != nil {
		s.logger.Error("failed to save assassin",
			slog.String("assassin", a.Identifier()),
			slog.String("error", err.Error()),
		)
		return err
	}

	s.logger.Info("assassin added",
		slog.String("assassin", a.Identifier()),
		slog.Bool("city_watch", a.IsCityWatch),
	)
	return nil
}

// UpdateAssassin replaces an existing assassin.
func (s *Service) UpdateAssassin(ctx context.Context, a *model.Assassin) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if _, err := s.storage.GetAssassin(ctx, a.Identifier()); err != nil {
		return err
	}
	return s.storage.SaveAssassin(ctx, a)
}

// GetAssassin retrieves an assassin by identifier
func (s *Service) GetAssassin(ctx context.Context, identifier string) (*model.Assassin, error) {
	return s.storage.GetAssassin(ctx, identifier)
}

// GetFiltered returns the non-hidden assassins accepted by include and the
// hidden assassins accepted by includeHidden, ordered by secret id. A nil
// include accepts every non-hidden assassin; a nil includeHidden rejects every
// hidden one.
func (s *Service) GetFiltered(ctx context.Context, include, includeHidden func(*model.Assassin) bool) ([]*model.Assassin, error) {
	all, err := s.storage.ListAssassins(ctx)
	if err != nil {
		return nil, err
	}
	snapshot := model.NewSnapshot(all, nil, nil)
	return snapshot.SortedAssassins(func(a *model.Assassin) bool {
		if a.Hidden {
			return includeHidden != nil && includeHidden(a)
		}
		return include == nil || include(a)
	}), nil
}

// GetIdentifiers is GetFiltered returning alphabetically sorted identifiers.
func (s *Service) GetIdentifiers(ctx context.Context, include, includeHidden func(*model.Assassin) bool) ([]string, error) {
	assassins, err := s.GetFiltered(ctx, include, includeHidden)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(assassins))
	for _, a := range assassins {
		ids = append(ids, a.Identifier())
	}
	model.SortIdentifiers(ids)
	return ids, nil
}

// Events

// NewEvent allocates a secret id for an event that has not been stored yet.
func (s *Service) NewEvent(ctx context.Context, datetime time.Time, headline string) (*model.Event, error) {
	secretID, err := s.storage.NextUniqueID(ctx)
	if err != nil {
		return nil, err
	}
	return model.NewEvent(secretID, datetime, headline), nil
}

// ValidateEvent checks that every referenced assassin exists and that every
// pseudonym index used is valid at the event datetime.
func (s *Service) ValidateEvent(ctx context.Context, e *model.Event) error {
	if e.Datetime.IsZero() {
		return model.ErrMissingEventDatetime
	}
	for _, id := range e.ReferencedAssassins() {
		if _, err := s.storage.GetAssassin(ctx, id); err != nil {
			if errors.Is(err, model.ErrAssassinNotFound) {
				return fmt.Errorf("%w: %s", model.ErrUnknownAssassinReference, id)
			}
			return err
		}
	}
	for id, idx := range e.Assassins {
		if err := s.checkPseudonym(ctx, id, idx, e.Datetime); err != nil {
			return err
		}
	}
	for _, r := range e.Reports {
		if err := s.checkPseudonym(ctx, r.Assassin, r.PseudonymIndex, e.Datetime); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) checkPseudonym(ctx context.Context, id string, idx int, at time.Time) error {
	a, err := s.storage.GetAssassin(ctx, id)
	if err != nil {
		return err
	}
	if !a.HasPseudonym(idx) {
		return fmt.Errorf("%w: %s has no pseudonym %d", model.ErrInvalidPseudonymIndex, id, idx)
	}
	if !a.PseudonymValidAt(idx, at) {
		return fmt.Errorf("%w: %s pseudonym %d", model.ErrPseudonymNotValid, id, idx)
	}
	return nil
}

// AddEvent validates and stores a new event.
func (s *Service) AddEvent(ctx context.Context, e *model.Event) error {
	if err := s.ValidateEvent(ctx, e); err != nil {
		return err
	}
	if _, err := s.storage.GetEvent(ctx, e.Identifier()); err == nil {
		return fmt.Errorf("%w: %s", model.ErrDuplicateEvent, e.Identifier())
	} else if !errors.Is(err, model.ErrEventNotFound) {
		return err
	}
	if err := s.storage.SaveEvent(ctx, e); err != nil {
		s.logger.Error("failed to save event",
			slog.String("event", e.Identifier()),
			slog.String("error", err.Error()),
		)
		return err
	}
	s.logger.Info("event added",
		slog.String("event", e.Identifier()),
		slog.Int("kills", len(e.Kills)),
	)
	return nil
}

// UpdateEvent validates and replaces an existing event.
func (s *Service) UpdateEvent(ctx context.Context, e *model.Event) error {
	if _, err := s.storage.GetEvent(ctx, e.Identifier()); err != nil {
		return err
	}
	if err := s.ValidateEvent(ctx, e); err != nil {
		return err
	}
	return s.storage.SaveEvent(ctx, e)
}

// GetEvent retrieves an event by identifier
func (s *Service) GetEvent(ctx context.Context, identifier string) (*model.Event, error) {
	return s.storage.GetEvent(ctx, identifier)
}

// DeleteEvent removes an event. Secret ids already allocated stay used.
func (s *Service) DeleteEvent(ctx context.Context, identifier string) error {
	if err := s.storage.DeleteEvent(ctx, identifier); err != nil {
		return err
	}
	s.logger.Info("event deleted", slog.String("event", identifier))
	return nil
}

// EventIdentifiers lists event identifiers, most recent first.
func (s *Service) EventIdentifiers(ctx context.Context) ([]string, error) {
	events, err := s.storage.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	model.SortChronologically(events)
	ids := make([]string, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		ids = append(ids, events[i].Identifier())
	}
	return ids, nil
}

// Generic state

// GenericState returns a copy of the generic state document.
func (s *Service) GenericState(ctx context.Context) (*model.GenericState, error) {
	return s.storage.GetGenericState(ctx)
}

// UpdateGenericState applies fn to a fresh copy of the generic state and
// saves it. Reading inside the call keeps secret id allocations made by fn's
// callers from being overwritten by a stale copy.
func (s *Service) UpdateGenericState(ctx context.Context, fn func(*model.GenericState) error) error {
	state, err := s.storage.GetGenericState(ctx)
	if err != nil {
		return err
	}
	if err := fn(state); err != nil {
		return err
	}
	return s.storage.SaveGenericState(ctx, state)
}

// Snapshot loads every document for one derivation pass.
func (s *Service) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	assassins, err := s.storage.ListAssassins(ctx)
	if err != nil {
		return nil, err
	}
	events, err := s.storage.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	state, err := s.storage.GetGenericState(ctx)
	if err != nil {
		return nil, err
	}
	return model.NewSnapshot(assassins, events, state), nil
}

// Flush persists buffered writes when the backend supports it.
func (s *Service) Flush(ctx context.Context) error {
	if f, ok := s.storage.(storage.Flusher); ok {
		return f.Flush(ctx)
	}
	return nil
}

// Refresh reloads documents when the backend supports it.
func (s *Service) Refresh(ctx context.Context) error {
	if r, ok := s.storage.(storage.Refresher); ok {
		return r.Refresh(ctx)
	}
	return nil
}
