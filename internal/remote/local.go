package remote

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// Local is a Remote on a locally mounted directory.
type Local struct {
	root string
}

var _ Remote = (*Local)(nil)

// NewLocal creates a remote rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{root: dir}
}

// Root returns the directory the remote writes to.
func (l *Local) Root() string {
	return l.root
}

func (l *Local) path(p string) string {
	return filepath.Join(l.root, filepath.FromSlash(cleanPath(p)))
}

func (l *Local) ReadFile(_ context.Context, p string) ([]byte, error) {
	return os.ReadFile(l.path(p))
}

func (l *Local) WriteFile(_ context.Context, p string, data []byte) error {
	full := l.path(p)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

func (l *Local) AppendFile(_ context.Context, p string, data []byte) error {
	full := l.path(p)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(full, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (l *Local) List(_ context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(l.path(dir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names, nil
}

func (l *Local) RemoveAll(_ context.Context, p string) error {
	return os.RemoveAll(l.path(p))
}

func (l *Local) Close() error {
	return nil
}
