package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/autoumpire/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *StorageSuite) TestSavedAssassinIsCopied() {
	a, err := model.NewAssassin("0", "Alpha", "Alice", false)
	s.Require().NoError(err)
	s.Require().NoError(s.storage.SaveAssassin(s.ctx, a))

	a.Notes = "changed after save"

	retrieved, err := s.storage.GetAssassin(s.ctx, a.Identifier())
	s.Require().NoError(err)
	s.Empty(retrieved.Notes)
}

func (s *StorageSuite) TestGetMissing() {
	_, err := s.storage.GetAssassin(s.ctx, "x")
	s.ErrorIs(err, model.ErrAssassinNotFound)
	_, err = s.storage.GetEvent(s.ctx, "x")
	s.ErrorIs(err, model.ErrEventNotFound)
	s.ErrorIs(s.storage.DeleteEvent(s.ctx, "x"), model.ErrEventNotFound)
}

func (s *StorageSuite) TestEventLifecycle() {
	e := model.NewEvent("1", time.Unix(100, 0), "Headline")
	s.Require().NoError(s.storage.SaveEvent(s.ctx, e))

	events, err := s.storage.ListEvents(s.ctx)
	s.Require().NoError(err)
	s.Len(events, 1)

	s.Require().NoError(s.storage.DeleteEvent(s.ctx, e.Identifier()))
	events, err = s.storage.ListEvents(s.ctx)
	s.Require().NoError(err)
	s.Empty(events)
}

func (s *StorageSuite) TestNextUniqueIDIncrementsCounter() {
	for i, want := range []string{"0", "1", "2"} {
		got, err := s.storage.NextUniqueID(s.ctx)
		s.Require().NoError(err)
		s.Equal(want, got, "call %d", i)
	}
	state, err := s.storage.GetGenericState(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, state.UniqueID)
}

func (s *StorageSuite) TestResetDropsEverything() {
	e := model.NewEvent("1", time.Unix(100, 0), "Headline")
	s.Require().NoError(s.storage.SaveEvent(s.ctx, e))
	_, _ = s.storage.NextUniqueID(s.ctx)

	s.storage.Reset()

	events, _ := s.storage.ListEvents(s.ctx)
	s.Empty(events)
	state, _ := s.storage.GetGenericState(s.ctx)
	s.Equal(0, state.UniqueID)
}
