// Package crash writes a dump of the databases and the failure when the
// umpiring tool dies, so that nothing typed since the last save is lost.
package crash

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	mathrand "math/rand"
	"os"
	"path/filepath"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mcoot/autoumpire/internal/dependencies/clock"
)

// DefaultMaxBytes bounds the size of one dump file.
const DefaultMaxBytes = 32 << 20

var (
	// ErrNotWritten is returned when every fallback failed.
	ErrNotWritten = errors.New("crash dump not written")
	// ErrPanic wraps a panic recovered by Guard.
	ErrPanic = errors.New("panic")
)

// Dump is the content of a crash dump. Databases maps document names to
// their JSON.
type Dump struct {
	ID        string
	Time      time.Time
	Error     string
	Stack     string
	Databases map[string][]byte
}

// Writer writes dumps into a directory as a text file and a gob file named
// by a ULID, so that dumps sort by time.
type Writer struct {
	dir      string
	maxBytes int
	clock    clock.Clock
	logger   *slog.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewWriter creates a writer for dir.
func NewWriter(dir string, clk clock.Clock, logger *slog.Logger) *Writer {
	return &Writer{
		dir:      dir,
		maxBytes: DefaultMaxBytes,
		clock:    clk,
		logger:   logger,
		entropy:  ulid.Monotonic(mathrand.New(mathrand.NewSource(clk.Now().UnixNano())), 0),
	}
}

// WithMaxBytes sets the size above which a dump is stripped.
func (w *Writer) WithMaxBytes(n int) *Writer {
	w.maxBytes = n
	return w
}

func (w *Writer) newID(t time.Time) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), w.entropy).String()
}

// fallbacks strip progressively more of the dump.
var fallbacks = []struct {
	name  string
	strip func(*Dump)
}{
	{"full", func(*Dump) {}},
	{"no stack", func(d *Dump) { d.Stack = "" }},
	{"no databases", func(d *Dump) { d.Databases = nil }},
	{"no error", func(d *Dump) { d.Error = "" }},
}

// Write records a failure with the given databases. Each attempt that fails
// strips more detail: the stack, then the databases, then the error. It
// returns the path of the text dump.
func (w *Writer) Write(failure any, stack []byte, databases map[string][]byte) (string, error) {
	now := w.clock.Now()
	d := Dump{
		ID:        w.newID(now),
		Time:      now,
		Error:     fmt.Sprint(failure),
		Stack:     string(stack),
		Databases: databases,
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotWritten, err)
	}
	var errs []error
	for _, f := range fallbacks {
		f.strip(&d)
		path, err := w.write(d)
		if err == nil {
			w.logger.Error("crash dump written",
				slog.String("path", path),
				slog.String("detail", f.name),
			)
			return path, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", f.name, err))
	}
	return "", fmt.Errorf("%w: %w", ErrNotWritten, errors.Join(errs...))
}

func (w *Writer) write(d Dump) (string, error) {
	var bin bytes.Buffer
	if err := gob.NewEncoder(&bin).Encode(d); err != nil {
		return "", err
	}
	text := Text(d)
	if bin.Len() > w.maxBytes || len(text) > w.maxBytes {
		return "", fmt.Errorf("dump exceeds %d bytes", w.maxBytes)
	}
	base := filepath.Join(w.dir, d.ID)
	if err := os.WriteFile(base+".gob", bin.Bytes(), 0o644); err != nil {
		return "", err
	}
	if err := os.WriteFile(base+".txt", []byte(text), 0o644); err != nil {
		return "", err
	}
	return base + ".txt", nil
}

// Text renders a dump for people to read.
func Text(d Dump) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Crash %s at %s\n", d.ID, d.Time.UTC().Format(time.RFC3339))
	if d.Error != "" {
		fmt.Fprintf(&b, "\nError: %s\n", d.Error)
	}
	if d.Stack != "" {
		fmt.Fprintf(&b, "\nStack:\n%s\n", d.Stack)
	}
	names := make([]string, 0, len(d.Databases))
	for name := range d.Databases {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(&b, "\n==== %s ====\n%s\n", name, d.Databases[name])
	}
	return b.String()
}

// Read decodes a gob dump.
func Read(path string) (Dump, error) {
	var d Dump
	data, err := os.ReadFile(path)
	if err != nil {
		return d, err
	}
	err = gob.NewDecoder(bytes.NewReader(data)).Decode(&d)
	return d, err
}

// Guard runs fn and turns a panic into a dump. It returns the panic as an
// error after the dump is written; snapshot supplies the databases at the
// time of the panic.
func (w *Writer) Guard(fn func() error, snapshot func() map[string][]byte) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		stack := debug.Stack()
		var databases map[string][]byte
		if snapshot != nil {
			databases = snapshot()
		}
		path, werr := w.Write(r, stack, databases)
		if werr != nil {
			w.logger.Error("crash dump failed", slog.String("error", werr.Error()))
			err = fmt.Errorf("%w: %v (%w)", ErrPanic, r, werr)
			return
		}
		err = fmt.Errorf("%w: %v (dump in %s)", ErrPanic, r, path)
	}()
	return fn()
}
