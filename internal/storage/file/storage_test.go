package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/testutil"
)

type StorageSuite struct {
	suite.Suite
	dir string
	ctx context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.dir = filepath.Join(s.T().TempDir(), "databases")
	s.ctx = context.Background()
}

func (s *StorageSuite) open(testMode bool) *Storage {
	st, err := Open(s.ctx, s.dir, testMode, testutil.NopLogger())
	s.Require().NoError(err)
	return st
}

func (s *StorageSuite) populate(st *Storage) (*model.Assassin, *model.Event) {
	id, err := st.NextUniqueID(s.ctx)
	s.Require().NoError(err)
	a, err := model.NewAssassin(id, "Alpha", "Alice", false)
	s.Require().NoError(err)
	s.Require().NoError(st.SaveAssassin(s.ctx, a))

	id, err = st.NextUniqueID(s.ctx)
	s.Require().NoError(err)
	e := model.NewEvent(id, time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), "Alpha did a thing")
	e.Assassins[a.Identifier()] = 0
	s.Require().NoError(st.SaveEvent(s.ctx, e))
	return a, e
}

func (s *StorageSuite) TestFlushAndReopen() {
	st := s.open(false)
	a, e := s.populate(st)
	s.Require().NoError(st.Flush(s.ctx))

	reopened := s.open(false)
	gotA, err := reopened.GetAssassin(s.ctx, a.Identifier())
	s.Require().NoError(err)
	s.Equal("Alice", gotA.RealName)

	gotE, err := reopened.GetEvent(s.ctx, e.Identifier())
	s.Require().NoError(err)
	s.True(e.Datetime.Equal(gotE.Datetime))

	state, err := reopened.GetGenericState(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, state.UniqueID)
}

func (s *StorageSuite) TestDocumentShapes() {
	st := s.open(false)
	a, e := s.populate(st)
	s.Require().NoError(st.Flush(s.ctx))

	var assassins map[string]map[string]json.RawMessage
	s.readJSON(AssassinsDocument, &assassins)
	s.Contains(assassins["assassins"], a.Identifier())

	var events map[string]map[string]json.RawMessage
	s.readJSON(EventsDocument, &events)
	s.Contains(events["events"], e.Identifier())

	var generic map[string]json.RawMessage
	s.readJSON(GenericStateDocument, &generic)
	s.Contains(generic, "uniqueId")
	s.Contains(generic, "plugin_map")
	s.Contains(generic, "arb_state")
	s.Contains(generic, "arb_int_state")
}

func (s *StorageSuite) TestTestModeSuppressesWrites() {
	st := s.open(true)
	s.populate(st)
	s.Require().NoError(st.Flush(s.ctx))

	_, err := os.Stat(filepath.Join(s.dir, AssassinsDocument))
	s.True(os.IsNotExist(err))

	s.Require().NoError(st.Refresh(s.ctx))
	assassins, err := st.ListAssassins(s.ctx)
	s.Require().NoError(err)
	s.Empty(assassins)
}

func (s *StorageSuite) TestRefreshDiscardsUnflushedChanges() {
	st := s.open(false)
	s.populate(st)
	s.Require().NoError(st.Flush(s.ctx))

	extra, err := model.NewAssassin("99", "Extra", "Eve", false)
	s.Require().NoError(err)
	s.Require().NoError(st.SaveAssassin(s.ctx, extra))
	s.Require().NoError(st.Refresh(s.ctx))

	_, err = st.GetAssassin(s.ctx, extra.Identifier())
	s.ErrorIs(err, model.ErrAssassinNotFound)
}

func (s *StorageSuite) TestLocalDocuments() {
	st := s.open(false)
	s.Require().NoError(st.WriteLocal("sync", map[string]int{"marker": 4}))

	_, err := os.Stat(filepath.Join(s.dir, "__sync"))
	s.Require().NoError(err)

	var got map[string]int
	s.Require().NoError(st.ReadLocal("sync", &got))
	s.Equal(4, got["marker"])
}

func (s *StorageSuite) readJSON(name string, v any) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	s.Require().NoError(err)
	s.Require().NoError(json.Unmarshal(data, v))
}
