package database

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/storage/memory"
	"github.com/mcoot/autoumpire/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	service *Service
	ctx     context.Context
	at      time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.service = New(memory.New(), testutil.NopLogger())
	s.ctx = context.Background()
	s.at = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
}

func (s *ServiceSuite) create(pseudonym string, cityWatch bool) *model.Assassin {
	a, err := s.service.CreateAssassin(s.ctx, AssassinParams{
		InitialPseudonym: pseudonym,
		RealName:         "Real " + pseudonym,
		IsCityWatch:      cityWatch,
	})
	s.Require().NoError(err)
	return a
}

func (s *ServiceSuite) TestSecretIDsAreMonotone() {
	first := s.create("Alpha", false)
	e, err := s.service.NewEvent(s.ctx, s.at, "headline")
	s.Require().NoError(err)
	second := s.create("Beta", false)

	ids := []string{first.SecretID(), e.SecretID(), second.SecretID()}
	for i := 1; i < len(ids); i++ {
		prev, _ := strconv.Atoi(ids[i-1])
		cur, _ := strconv.Atoi(ids[i])
		s.Less(prev, cur)
	}
}

func (s *ServiceSuite) TestCreateAssassinValidatesEmail() {
	_, err := s.service.CreateAssassin(s.ctx, AssassinParams{
		InitialPseudonym: "Alpha",
		RealName:         "Alice",
		Email:            "not-an-email",
	})
	s.Error(err)

	_, err = s.service.CreateAssassin(s.ctx, AssassinParams{RealName: "Alice"})
	s.Error(err)
}

func (s *ServiceSuite) TestGetFilteredAndIdentifiers() {
	zed := s.create("Zed", false)
	watch := s.create("Watch", true)
	hidden := s.create("Ghost", false)
	hidden.Hidden = true
	s.Require().NoError(s.service.UpdateAssassin(s.ctx, hidden))

	visible, err := s.service.GetFiltered(s.ctx, nil, nil)
	s.Require().NoError(err)
	s.Len(visible, 2)

	players, err := s.service.GetFiltered(s.ctx, func(a *model.Assassin) bool { return !a.IsCityWatch }, nil)
	s.Require().NoError(err)
	s.Equal([]*model.Assassin{zed}, players)

	ids, err := s.service.GetIdentifiers(s.ctx, nil, func(*model.Assassin) bool { return true })
	s.Require().NoError(err)
	s.Equal([]string{hidden.Identifier(), watch.Identifier(), zed.Identifier()}, ids)
}

func (s *ServiceSuite) TestAddEventRejectsUnknownAssassin() {
	e, err := s.service.NewEvent(s.ctx, s.at, "ghost kill")
	s.Require().NoError(err)
	e.Kills = []model.Kill{{Killer: "nobody", Victim: "nobody else"}}

	s.ErrorIs(s.service.AddEvent(s.ctx, e), model.ErrUnknownAssassinReference)
}

func (s *ServiceSuite) TestAddEventRejectsFuturePseudonym() {
	a := s.create("Alpha", false)
	later := s.at.Add(time.Hour)
	_, err := a.AddPseudonym("Later", &later)
	s.Require().NoError(err)
	s.Require().NoError(s.service.UpdateAssassin(s.ctx, a))

	e, err := s.service.NewEvent(s.ctx, s.at, "too early")
	s.Require().NoError(err)
	e.Assassins[a.Identifier()] = 1

	s.ErrorIs(s.service.AddEvent(s.ctx, e), model.ErrPseudonymNotValid)

	e.Datetime = later
	s.NoError(s.service.AddEvent(s.ctx, e))
}

func (s *ServiceSuite) TestDeleteEventKeepsCounter() {
	a := s.create("Alpha", false)
	e, err := s.service.NewEvent(s.ctx, s.at, "thing")
	s.Require().NoError(err)
	e.Assassins[a.Identifier()] = 0
	s.Require().NoError(s.service.AddEvent(s.ctx, e))

	s.Require().NoError(s.service.DeleteEvent(s.ctx, e.Identifier()))
	_, err = s.service.GetEvent(s.ctx, e.Identifier())
	s.ErrorIs(err, model.ErrEventNotFound)

	next, err := s.service.UniqueStr(s.ctx)
	s.Require().NoError(err)
	s.Equal("2", next)
}

func (s *ServiceSuite) TestUpdateGenericStateDoesNotLoseAllocations() {
	s.create("Alpha", false)
	s.Require().NoError(s.service.UpdateGenericState(s.ctx, func(g *model.GenericState) error {
		return g.Set("targeting_seed", 28)
	}))

	state, err := s.service.GenericState(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, state.UniqueID)
	s.Equal(28, model.StateValue(state, "targeting_seed", 0))
}

func (s *ServiceSuite) TestSnapshotOrdersEventsChronologically() {
	a := s.create("Alpha", false)
	late, _ := s.service.NewEvent(s.ctx, s.at.Add(time.Hour), "late")
	early, _ := s.service.NewEvent(s.ctx, s.at, "early")
	for _, e := range []*model.Event{late, early} {
		e.Assassins[a.Identifier()] = 0
		s.Require().NoError(s.service.AddEvent(s.ctx, e))
	}

	snap, err := s.service.Snapshot(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{early.Identifier(), late.Identifier()}, []string{snap.Events[0].Identifier(), snap.Events[1].Identifier()})
	got, ok := snap.AssassinBySecretID(a.SecretID())
	s.True(ok)
	s.Equal(a.Identifier(), got.Identifier())
}
