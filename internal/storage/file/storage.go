package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/storage"
	"github.com/mcoot/autoumpire/internal/storage/memory"
)

// Document file names inside the databases directory. Files whose name starts
// with LocalPrefix are never synchronised with a remote host.
const (
	AssassinsDocument    = "AssassinsDatabase.json"
	EventsDocument       = "EventsDatabase.json"
	GenericStateDocument = "GenericStateDatabase.json"
	LocalPrefix          = "__"
)

// SyncableDocuments lists the documents exchanged with a remote host.
var SyncableDocuments = []string{AssassinsDocument, EventsDocument, GenericStateDocument}

type assassinsDocument struct {
	Assassins map[string]*model.Assassin `json:"assassins"`
}

type eventsDocument struct {
	Events map[string]*model.Event `json:"events"`
}

// Storage keeps the three documents in memory and writes them as JSON files
// on Flush. In test mode writes are suppressed and Refresh always yields empty
// state.
type Storage struct {
	*memory.Storage

	dir      string
	testMode bool
	logger   *slog.Logger
}

// Ensure Storage implements the interfaces
var (
	_ storage.Storage   = (*Storage)(nil)
	_ storage.Flusher   = (*Storage)(nil)
	_ storage.Refresher = (*Storage)(nil)
)

// Open loads the documents in dir, creating the directory if needed.
func Open(ctx context.Context, dir string, testMode bool, logger *slog.Logger) (*Storage, error) {
	s := &Storage{
		Storage:  memory.New(),
		dir:      dir,
		testMode: testMode,
		logger:   logger,
	}
	if !testMode {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create databases directory: %w", err)
		}
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the databases directory.
func (s *Storage) Dir() string {
	return s.dir
}

// TestMode reports whether writes are suppressed.
func (s *Storage) TestMode() bool {
	return s.testMode
}

// Refresh reloads every document from disk.
func (s *Storage) Refresh(ctx context.Context) error {
	if s.testMode {
		s.Reset()
		return nil
	}

	var assassinsDoc assassinsDocument
	if err := readDocument(filepath.Join(s.dir, AssassinsDocument), &assassinsDoc); err != nil {
		return err
	}
	var eventsDoc eventsDocument
	if err := readDocument(filepath.Join(s.dir, EventsDocument), &eventsDoc); err != nil {
		return err
	}
	state := model.NewGenericState()
	if err := readDocument(filepath.Join(s.dir, GenericStateDocument), state); err != nil {
		return err
	}

	assassins := make([]*model.Assassin, 0, len(assassinsDoc.Assassins))
	for _, a := range assassinsDoc.Assassins {
		assassins = append(assassins, a)
	}
	events := make([]*model.Event, 0, len(eventsDoc.Events))
	for _, e := range eventsDoc.Events {
		events = append(events, e)
	}
	s.Load(assassins, events, state)

	s.logger.Debug("databases loaded",
		slog.String("dir", s.dir),
		slog.Int("assassins", len(assassins)),
		slog.Int("events", len(events)),
	)
	return nil
}

// Flush writes every document to disk.
func (s *Storage) Flush(ctx context.Context) error {
	if s.testMode {
		return nil
	}

	assassins, err := s.ListAssassins(ctx)
	if err != nil {
		return err
	}
	assassinsDoc := assassinsDocument{Assassins: make(map[string]*model.Assassin, len(assassins))}
	for _, a := range assassins {
		assassinsDoc.Assassins[a.Identifier()] = a
	}

	events, err := s.ListEvents(ctx)
	if err != nil {
		return err
	}
	eventsDoc := eventsDocument{Events: make(map[string]*model.Event, len(events))}
	for _, e := range events {
		eventsDoc.Events[e.Identifier()] = e
	}

	state, err := s.GetGenericState(ctx)
	if err != nil {
		return err
	}

	if err := writeDocument(filepath.Join(s.dir, AssassinsDocument), assassinsDoc); err != nil {
		return err
	}
	if err := writeDocument(filepath.Join(s.dir, EventsDocument), eventsDoc); err != nil {
		return err
	}
	if err := writeDocument(filepath.Join(s.dir, GenericStateDocument), state); err != nil {
		return err
	}

	s.logger.Debug("databases saved", slog.String("dir", s.dir))
	return nil
}

// ReadLocal decodes the non-syncable document name into v. Missing documents
// leave v untouched.
func (s *Storage) ReadLocal(name string, v any) error {
	if s.testMode {
		return nil
	}
	return readDocument(filepath.Join(s.dir, localName(name)), v)
}

// WriteLocal stores v as the non-syncable document name.
func (s *Storage) WriteLocal(name string, v any) error {
	if s.testMode {
		return nil
	}
	return writeDocument(filepath.Join(s.dir, localName(name)), v)
}

func localName(name string) string {
	if strings.HasPrefix(name, LocalPrefix) {
		return name
	}
	return LocalPrefix + name
}

func readDocument(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeDocument writes through a temporary file so a failed write never
// truncates the previous document.
func writeDocument(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
