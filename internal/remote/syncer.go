package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/autoumpire/internal/dependencies/clock"
	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/storage/file"
)

// backupLayout names backup folders so that they sort chronologically.
const backupLayout = "2006-01-02_15-04-05"

// Log kinds
const (
	AccessLog  = "access"
	EditLog    = "edit"
	PublishLog = "publish"
)

// Lock is the content of the advisory lock file.
type Lock struct {
	User  string
	Since time.Time
}

// ParseLock reads "<user>,<unix timestamp>".
func ParseLock(s string) (Lock, error) {
	user, ts, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok || user == "" {
		return Lock{}, fmt.Errorf("%w: %q", ErrMalformedLock, s)
	}
	secs, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return Lock{}, fmt.Errorf("%w: %q", ErrMalformedLock, s)
	}
	return Lock{User: user, Since: time.Unix(int64(secs), 0)}, nil
}

func (l Lock) String() string {
	return fmt.Sprintf("%s,%d", l.User, l.Since.Unix())
}

// Status compares the local and remote sync markers.
type Status int

const (
	InSync Status = iota
	RemoteAhead
	RemoteBehind
	NoRemoteDatabases
)

func (s Status) String() string {
	switch s {
	case RemoteAhead:
		return "remote is ahead"
	case RemoteBehind:
		return "remote is behind"
	case NoRemoteDatabases:
		return "remote has no databases"
	}
	return "in sync"
}

// Syncer moves the local database documents to and from a Remote.
type Syncer struct {
	remote    Remote
	localDir  string
	documents []string
	user      string
	keep      int
	clock     clock.Clock
	logger    *slog.Logger
}

// NewSyncer creates a syncer for the documents in localDir. keep bounds the
// number of backups retained; zero keeps every backup.
func NewSyncer(r Remote, localDir, user string, keep int, clk clock.Clock, logger *slog.Logger) *Syncer {
	return &Syncer{
		remote:    r,
		localDir:  localDir,
		documents: file.SyncableDocuments,
		user:      user,
		keep:      keep,
		clock:     clk,
		logger:    logger,
	}
}

// User returns the name written to locks and logs.
func (s *Syncer) User() string {
	return s.user
}

// CurrentLock returns the lock, or nil when nobody holds it.
func (s *Syncer) CurrentLock(ctx context.Context) (*Lock, error) {
	data, err := s.remote.ReadFile(ctx, LockFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}
	l, err := ParseLock(string(data))
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// AcquireLock takes the lock. A lock held by someone else is only taken
// over when force is set.
func (s *Syncer) AcquireLock(ctx context.Context, force bool) error {
	held, err := s.CurrentLock(ctx)
	if err != nil && !errors.Is(err, ErrMalformedLock) {
		return err
	}
	if held != nil && held.User != s.user && !force {
		return fmt.Errorf("%w: %s since %s", ErrLockHeld, held.User, held.Since.Format(time.DateTime))
	}
	l := Lock{User: s.user, Since: s.clock.Now()}
	if err := s.remote.WriteFile(ctx, LockFile, []byte(l.String())); err != nil {
		return err
	}
	s.logger.Info("remote lock acquired", slog.String("user", s.user), slog.Bool("forced", held != nil && held.User != s.user))
	return nil
}

// ReleaseLock drops the lock if this umpire holds it.
func (s *Syncer) ReleaseLock(ctx context.Context) error {
	held, err := s.CurrentLock(ctx)
	if err != nil {
		return err
	}
	if held == nil {
		return nil
	}
	if held.User != s.user {
		return fmt.Errorf("%w: %s", ErrLockHeld, held.User)
	}
	if err := s.remote.RemoveAll(ctx, LockFile); err != nil {
		return err
	}
	s.logger.Info("remote lock released", slog.String("user", s.user))
	return nil
}

// Compare reads the remote counter and compares it with local.
func (s *Syncer) Compare(ctx context.Context, local int) (Status, int, error) {
	data, err := s.remote.ReadFile(ctx, path.Join(DatabasesDir, file.GenericStateDocument))
	if errors.Is(err, fs.ErrNotExist) {
		return NoRemoteDatabases, 0, nil
	}
	if err != nil {
		return InSync, 0, err
	}
	state := model.NewGenericState()
	if err := json.Unmarshal(data, state); err != nil {
		return InSync, 0, fmt.Errorf("decode remote generic state: %w", err)
	}
	switch {
	case state.UniqueID > local:
		return RemoteAhead, state.UniqueID, nil
	case state.UniqueID < local:
		return RemoteBehind, state.UniqueID, nil
	}
	return InSync, state.UniqueID, nil
}

// Download replaces the local documents with the remote ones. Documents
// missing remotely are left alone. The caller must refresh its storage.
func (s *Syncer) Download(ctx context.Context) (int, error) {
	if err := os.MkdirAll(s.localDir, 0o755); err != nil {
		return 0, err
	}
	n := 0
	for _, doc := range s.documents {
		data, err := s.remote.ReadFile(ctx, path.Join(DatabasesDir, doc))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return n, fmt.Errorf("download %s: %w", doc, err)
		}
		if err := os.WriteFile(filepath.Join(s.localDir, doc), data, 0o644); err != nil {
			return n, err
		}
		n++
	}
	s.logger.Info("databases downloaded", slog.Int("documents", n))
	return n, s.Log(ctx, AccessLog, fmt.Sprintf("downloaded %d databases", n))
}

// Upload backs up the remote documents, replaces them with the local ones
// and rotates old backups. It returns the backup folder, if one was made.
func (s *Syncer) Upload(ctx context.Context) (string, error) {
	backup, err := s.Backup(ctx)
	if err != nil {
		return "", err
	}
	for _, doc := range s.documents {
		data, err := os.ReadFile(filepath.Join(s.localDir, doc))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return backup, err
		}
		if err := s.remote.WriteFile(ctx, path.Join(DatabasesDir, doc), data); err != nil {
			return backup, fmt.Errorf("upload %s: %w", doc, err)
		}
	}
	if _, err := s.RotateBackups(ctx); err != nil {
		return backup, err
	}
	s.logger.Info("databases uploaded", slog.String("backup", backup))
	return backup, s.Log(ctx, EditLog, "uploaded databases")
}

// Backup copies the remote documents into a new timestamped folder. It
// returns "" when the remote has nothing to back up.
func (s *Syncer) Backup(ctx context.Context) (string, error) {
	names, err := s.remote.List(ctx, DatabasesDir)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", nil
	}
	stamp := s.clock.Now().UTC().Format(backupLayout)
	dir := path.Join(BackupsDir, stamp)
	for _, name := range names {
		data, err := s.remote.ReadFile(ctx, path.Join(DatabasesDir, name))
		if err != nil {
			return "", fmt.Errorf("back up %s: %w", name, err)
		}
		if err := s.remote.WriteFile(ctx, path.Join(dir, name), data); err != nil {
			return "", fmt.Errorf("back up %s: %w", name, err)
		}
	}
	return stamp, nil
}

// Backups lists backup folders, newest first.
func (s *Syncer) Backups(ctx context.Context) ([]string, error) {
	names, err := s.remote.List(ctx, BackupsDir)
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	slices.Reverse(names)
	return names, nil
}

// RotateBackups removes the oldest backups beyond the retention count.
func (s *Syncer) RotateBackups(ctx context.Context) ([]string, error) {
	if s.keep <= 0 {
		return nil, nil
	}
	backups, err := s.Backups(ctx)
	if err != nil || len(backups) <= s.keep {
		return nil, err
	}
	removed := backups[s.keep:]
	for _, b := range removed {
		if err := s.remote.RemoveAll(ctx, path.Join(BackupsDir, b)); err != nil {
			return nil, err
		}
	}
	s.logger.Info("backups rotated", slog.Int("removed", len(removed)))
	return removed, nil
}

// Publish writes pages into the public web directory.
func (s *Syncer) Publish(ctx context.Context, pages map[string][]byte) error {
	names := slices.Sorted(maps.Keys(pages))
	for _, name := range names {
		if err := s.remote.WriteFile(ctx, path.Join(PublicDir, name), pages[name]); err != nil {
			return fmt.Errorf("publish %s: %w", name, err)
		}
	}
	s.logger.Info("pages published", slog.Int("pages", len(names)))
	return s.Log(ctx, PublishLog, fmt.Sprintf("published %d pages", len(names)))
}

// SpoolEmail stores one email for the mailer on the remote host and returns
// its path.
func (s *Syncer) SpoolEmail(ctx context.Context, data []byte) (string, error) {
	p := path.Join(EmailsDir, fmt.Sprintf("email.%d", s.clock.Now().UnixNano()))
	if err := s.remote.WriteFile(ctx, p, data); err != nil {
		return "", err
	}
	return p, nil
}

// Log appends a line to one of the remote logs.
func (s *Syncer) Log(ctx context.Context, kind, msg string) error {
	line := fmt.Sprintf("%s %s %s\n", s.clock.Now().UTC().Format(time.RFC3339), s.user, msg)
	return s.remote.AppendFile(ctx, path.Join(LogsDir, kind+".log"), []byte(line))
}

// ReadLog returns the content of a remote log.
func (s *Syncer) ReadLog(ctx context.Context, kind string) (string, error) {
	data, err := s.remote.ReadFile(ctx, path.Join(LogsDir, kind+".log"))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	return string(data), err
}
