// Package preview serves the generated pages locally so an umpire can check
// them before publishing, and regenerates them when the databases change.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/autoumpire/internal/dependencies/clock"
	"github.com/mcoot/autoumpire/internal/metrics"
	"github.com/mcoot/autoumpire/internal/middleware"
)

// Options configures a Server.
type Options struct {
	Host     string
	Port     int
	PagesDir string
	// DatabasesDir, when set, is watched and Regenerate runs after changes.
	DatabasesDir string
	Regenerate   func(ctx context.Context) error
	Debounce     time.Duration
}

// Server is the preview HTTP server.
type Server struct {
	opts    Options
	router  *mux.Router
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New builds the router.
func New(opts Options, m *metrics.Metrics, clk clock.Clock, logger *slog.Logger) *Server {
	s := &Server{opts: opts, metrics: m, logger: logger}

	r := mux.NewRouter()
	r.Use(middleware.Recovery(logger, middleware.ErrorPage))
	r.Use(middleware.Logging(logger, clk))
	r.Use(m.Instrument)

	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	if opts.Regenerate != nil {
		r.HandleFunc("/regenerate", s.regenerate).Methods(http.MethodPost)
	}
	r.PathPrefix("/").Handler(s.pages()).Methods(http.MethodGet, http.MethodHead)

	s.router = r
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) regenerate(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Regenerate(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// pages serves the pages directory. A directory request gets its
// index.html.
func (s *Server) pages() http.Handler {
	return http.FileServer(http.Dir(s.opts.PagesDir))
}

// ListenAndServe serves until ctx ends. When a databases directory is
// configured the pages are regenerated once up front and after each change.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.opts.DatabasesDir != "" && s.opts.Regenerate != nil {
		if err := s.opts.Regenerate(ctx); err != nil {
			return fmt.Errorf("initial generation: %w", err)
		}
		w, err := NewWatcher(s.opts.DatabasesDir, s.opts.Debounce, s.opts.Regenerate, s.logger)
		if err != nil {
			return fmt.Errorf("watch %s: %w", s.opts.DatabasesDir, err)
		}
		defer func() { _ = w.Stop() }()
		go w.Run(ctx)
	}

	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("preview listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
