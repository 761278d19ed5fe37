// Package remote exchanges databases, pages and mail spool files with the
// host shared by every umpire. Coordination is advisory: a lock file names
// whoever is editing, and the generic state counter tells which side is newer.
package remote

import (
	"context"
	"errors"
	"strings"
)

// Remote layout, relative to the remote root.
const (
	FilesDir     = "AU2_files"
	DatabasesDir = FilesDir + "/databases"
	BackupsDir   = FilesDir + "/backups"
	LogsDir      = FilesDir + "/logs"
	LockFile     = FilesDir + "/lockfile.txt"
	PublicDir    = "public_html"
	EmailsDir    = "emails"
)

var (
	// ErrLockHeld is returned when another umpire holds the lock.
	ErrLockHeld = errors.New("remote lock held by another umpire")
	// ErrMalformedLock is returned for a lock file not of the form user,timestamp.
	ErrMalformedLock = errors.New("malformed lock file")
	// ErrNoRemote is returned when no remote is configured.
	ErrNoRemote = errors.New("no remote configured")
)

// Remote is a file tree on the shared host. Paths are slash separated and
// relative to the remote root. Reading a missing file returns an error
// matching fs.ErrNotExist.
type Remote interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, data []byte) error
	AppendFile(ctx context.Context, path string, data []byte) error
	// List returns the names in dir, sorted. A missing dir is empty.
	List(ctx context.Context, dir string) ([]string, error)
	RemoveAll(ctx context.Context, path string) error
	Close() error
}

func cleanPath(p string) string {
	return strings.TrimPrefix(p, "/")
}
