// Package factory wires the application from its configuration.
package factory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mcoot/autoumpire/internal/config"
	"github.com/mcoot/autoumpire/internal/crash"
	"github.com/mcoot/autoumpire/internal/dependencies/clock"
	"github.com/mcoot/autoumpire/internal/metrics"
	"github.com/mcoot/autoumpire/internal/plugins"
	"github.com/mcoot/autoumpire/internal/plugins/competency"
	"github.com/mcoot/autoumpire/internal/plugins/core"
	"github.com/mcoot/autoumpire/internal/plugins/mail"
	pagesplugin "github.com/mcoot/autoumpire/internal/plugins/pages"
	"github.com/mcoot/autoumpire/internal/plugins/policerank"
	"github.com/mcoot/autoumpire/internal/plugins/remotesync"
	"github.com/mcoot/autoumpire/internal/plugins/scoring"
	targetingplugin "github.com/mcoot/autoumpire/internal/plugins/targeting"
	"github.com/mcoot/autoumpire/internal/plugins/wanted"
	"github.com/mcoot/autoumpire/internal/preview"
	"github.com/mcoot/autoumpire/internal/remote"
	"github.com/mcoot/autoumpire/internal/services/database"
	"github.com/mcoot/autoumpire/internal/services/render"
	"github.com/mcoot/autoumpire/internal/services/targeting"
	"github.com/mcoot/autoumpire/internal/storage"
	"github.com/mcoot/autoumpire/internal/storage/file"
	"github.com/mcoot/autoumpire/internal/storage/memory"
	redisstorage "github.com/mcoot/autoumpire/internal/storage/redis"
	"github.com/mcoot/autoumpire/internal/ui/prompt"
)

// App contains all wired application components
type App struct {
	Config config.Config

	// Storage
	Storage storage.Storage

	// External dependencies
	Clock   clock.Clock
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Services
	DB    *database.Service
	Bus   *plugins.Bus
	Pages pagesplugin.Dir
	Crash *crash.Writer
	// Syncer is nil when no remote is configured.
	Syncer *remote.Syncer

	closers []io.Closer
}

// NewLogger builds the application logger from the configuration.
func NewLogger(cfg config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level()}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var (
		store   storage.Storage
		closers []io.Closer
	)
	switch cfg.Storage {
	case config.StorageMemory:
		store = memory.New()
	case config.StorageFile:
		fs, err := file.Open(ctx, cfg.DatabasesDir(), cfg.TestMode, logger)
		if err != nil {
			return nil, err
		}
		store = fs
	case config.StorageRedis:
		redisStore, err := redisstorage.New(redisstorage.Config{
			URL:          cfg.Redis.URL,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: 1,
			KeyPrefix:    cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		store = redisStore
		closers = append(closers, redisStore)
	default:
		return nil, fmt.Errorf("invalid storage %q: must be file, memory or redis", cfg.Storage)
	}

	var rem remote.Remote
	switch cfg.Remote.Kind {
	case config.RemoteNone, "":
	case config.RemoteLocal:
		rem = remote.NewLocal(cfg.Remote.Root)
	case config.RemoteSSH:
		conn, err := remote.DialSSH(ctx, remote.SSHConfig{
			Host:           cfg.Remote.Host,
			Port:           cfg.Remote.Port,
			User:           cfg.Remote.User,
			KeyPath:        cfg.Remote.KeyPath,
			KnownHostsPath: cfg.Remote.KnownHostsPath,
			Root:           cfg.Remote.Root,
			Timeout:        cfg.Remote.Timeout,
		})
		if err != nil {
			closeAll(closers)
			return nil, fmt.Errorf("connect to %s: %w", cfg.Remote.Host, err)
		}
		rem = conn
		closers = append(closers, conn)
	default:
		closeAll(closers)
		return nil, fmt.Errorf("invalid remote %q: must be none, local or ssh", cfg.Remote.Kind)
	}

	app, err := newWithDependencies(cfg, store, rem, clock.New(), metrics.New(), logger)
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	app.closers = closers
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(cfg config.Config, store storage.Storage, rem remote.Remote, clk clock.Clock, m *metrics.Metrics, logger *slog.Logger) (*App, error) {
	db := database.New(store, logger)
	bus := plugins.NewBus(db, m, logger)
	pagesDir := pagesplugin.Dir(cfg.PagesDir())

	app := &App{
		Config:  cfg,
		Storage: store,
		Clock:   clk,
		Logger:  logger,
		Metrics: m,
		DB:      db,
		Bus:     bus,
		Pages:   pagesDir,
		Crash:   crash.NewWriter(cfg.CrashDir(), clk, logger),
	}

	var outbox mail.Outbox
	if rem != nil {
		app.Syncer = remote.NewSyncer(rem, cfg.DatabasesDir(), cfg.Username, cfg.Remote.BackupsToKeep, clk, logger)
		outbox = app.Syncer
	}

	all := []*plugins.Plugin{
		core.New(bus, clk, logger),
		targetingplugin.New(db, targeting.DefaultLimits, clk, m, logger),
		competency.New(db, clk, logger),
		wanted.New(db, clk, targeting.NewEngine(targeting.DefaultLimits, clk, logger)),
		scoring.New(db, logger),
		policerank.New(db),
		pagesplugin.New(bus, pagesDir, clk, m, logger),
		mail.New(db, outbox, clk, logger),
	}
	if app.Syncer != nil {
		all = append(all, remotesync.New(db, app.Syncer, pagesDir, logger))
	}
	if err := bus.Register(all...); err != nil {
		return nil, err
	}
	return app, nil
}

// Run performs one export with p, turning a panic into a crash dump.
func (a *App) Run(ctx context.Context, p prompt.Prompter, export string) error {
	return a.Crash.Guard(func() error {
		return a.Bus.Run(ctx, p, export)
	}, func() map[string][]byte { return a.Databases(ctx) })
}

// Databases encodes the three documents the way the file backend stores
// them. Documents that cannot be read are left out.
func (a *App) Databases(ctx context.Context) map[string][]byte {
	out := make(map[string][]byte, len(file.SyncableDocuments))
	put := func(name string, v any, err error) {
		if err != nil {
			a.Logger.Warn("read database for dump", slog.String("document", name), slog.String("error", err.Error()))
			return
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return
		}
		out[name] = data
	}
	assassins, err := a.Storage.ListAssassins(ctx)
	put(file.AssassinsDocument, assassins, err)
	events, err := a.Storage.ListEvents(ctx)
	put(file.EventsDocument, events, err)
	state, err := a.Storage.GetGenericState(ctx)
	put(file.GenericStateDocument, state, err)
	return out
}

// Regenerate reloads the databases and writes the pages into the pages
// directory. It is what the preview server runs after each change.
func (a *App) Regenerate(ctx context.Context) error {
	if err := a.DB.Refresh(ctx); err != nil {
		return fmt.Errorf("reload databases: %w", err)
	}
	site, err := pagesplugin.Generate(ctx, a.Bus, render.DefaultPalette, a.Clock.Now())
	if err != nil {
		return err
	}
	if err := a.Pages.Publish(ctx, site); err != nil {
		return fmt.Errorf("write pages: %w", err)
	}
	a.Metrics.PagesGenerated(len(site))
	return nil
}

// Preview builds the preview server for the pages directory.
func (a *App) Preview() *preview.Server {
	opts := preview.Options{
		Host:       a.Config.Preview.Host,
		Port:       a.Config.Preview.Port,
		PagesDir:   a.Config.PagesDir(),
		Regenerate: a.Regenerate,
	}
	if a.Config.Storage == config.StorageFile {
		opts.DatabasesDir = a.Config.DatabasesDir()
	}
	return preview.New(opts, a.Metrics, a.Clock, a.Logger)
}

// Close releases connections to redis and the remote host.
func (a *App) Close() error {
	return closeAll(a.closers)
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RunScripted performs an export without a terminal. Components take
// their defaults unless script answers them. The labels shown are returned,
// and any error label becomes the error.
func (a *App) RunScripted(ctx context.Context, script *prompt.Scripted, export string) ([]string, error) {
	if err := a.Run(ctx, script, export); err != nil {
		return script.Labels(), err
	}
	if errs := script.Errors(); len(errs) > 0 {
		return script.Labels(), errors.New(strings.Join(errs, "; "))
	}
	return script.Labels(), nil
}
