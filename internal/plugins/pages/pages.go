// Package pages is the plugin that generates the public web pages.
package pages

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mcoot/autoumpire/internal/dependencies/clock"
	"github.com/mcoot/autoumpire/internal/metrics"
	"github.com/mcoot/autoumpire/internal/pages"
	"github.com/mcoot/autoumpire/internal/plugins"
	"github.com/mcoot/autoumpire/internal/services/competency"
	"github.com/mcoot/autoumpire/internal/services/policerank"
	"github.com/mcoot/autoumpire/internal/services/render"
	"github.com/mcoot/autoumpire/internal/services/scoring"
	"github.com/mcoot/autoumpire/internal/services/wanted"
	"github.com/mcoot/autoumpire/internal/ui"
)

// PluginID identifies the pages plugin.
const PluginID = "pages"

// ExportGenerate is the id of the page generation export.
const ExportGenerate = "pages.generate"

// Publisher receives generated pages keyed by file name.
type Publisher interface {
	Publish(ctx context.Context, pages map[string][]byte) error
}

// Dir is a local directory of generated pages.
type Dir string

var _ Publisher = Dir("")

// Publish writes every page into the directory, creating it if needed.
func (d Dir) Publish(_ context.Context, site map[string][]byte) error {
	if err := os.MkdirAll(string(d), 0o755); err != nil {
		return err
	}
	for name, data := range site {
		if strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("page name %q is not a plain file name", name)
		}
		if err := os.WriteFile(filepath.Join(string(d), name), data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// Load reads every page previously written. A missing directory is empty.
func (d Dir) Load() (map[string][]byte, error) {
	entries, err := os.ReadDir(string(d))
	if errors.Is(err, fs.ErrNotExist) {
		return map[string][]byte{}, nil
	}
	if err != nil {
		return nil, err
	}
	site := make(map[string][]byte, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(string(d), e.Name()))
		if err != nil {
			return nil, err
		}
		site[e.Name()] = data
	}
	return site, nil
}

type pagesPlugin struct {
	bus       *plugins.Bus
	publisher Publisher
	palette   render.Palette
	clock     clock.Clock
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates the pages plugin. Pages go to publisher, then every plugin's
// PageGenerate hook runs.
func New(bus *plugins.Bus, publisher Publisher, clk clock.Clock, m *metrics.Metrics, logger *slog.Logger) *plugins.Plugin {
	p := &pagesPlugin{
		bus:       bus,
		publisher: publisher,
		palette:   render.DefaultPalette,
		clock:     clk,
		metrics:   m,
		logger:    logger,
	}
	return &plugins.Plugin{
		ID:   PluginID,
		Name: "Pages",
		Exports: []plugins.Export{
			{ID: ExportGenerate, DisplayName: "Pages -> Generate", Ask: p.ask, Answer: p.answer},
		},
	}
}

func (p *pagesPlugin) ask(ctx context.Context, _ []string) ([]ui.Component, error) {
	return p.bus.PageRequestGenerate(ctx), nil
}

// features enables the pages of every enabled plugin.
func features(ctx context.Context, bus *plugins.Bus) (pages.Features, error) {
	var f pages.Features
	for id, flag := range map[string]*bool{
		competency.PluginID: &f.Competency,
		wanted.PluginID:     &f.Wanted,
		scoring.PluginID:    &f.Scoring,
		policerank.PluginID: &f.PoliceRank,
	} {
		if _, ok := bus.Plugin(id); !ok {
			continue
		}
		on, err := bus.IsEnabled(ctx, id)
		if err != nil {
			return f, err
		}
		*flag = on
	}
	return f, nil
}

// Generate builds the site from the current database with the pages of
// every enabled plugin. It neither saves nor runs the PageGenerate hooks.
func Generate(ctx context.Context, bus *plugins.Bus, palette render.Palette, now time.Time) (map[string][]byte, error) {
	snapshot, err := bus.DB().Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	f, err := features(ctx, bus)
	if err != nil {
		return nil, err
	}
	return pages.Site{Palette: palette, Features: f}.Build(ctx, snapshot, now)
}

func (p *pagesPlugin) answer(ctx context.Context, answers ui.Answers, _ []string) ([]ui.Component, error) {
	site, err := Generate(ctx, p.bus, p.palette, p.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := p.publisher.Publish(ctx, site); err != nil {
		return nil, fmt.Errorf("write pages: %w", err)
	}
	p.metrics.PagesGenerated(len(site))
	p.logger.Info("pages generated", slog.Int("pages", len(site)))

	out := []ui.Component{ui.Success(fmt.Sprintf("Generated %d pages.", len(site)))}
	return append(out, p.bus.PageGenerate(ctx, answers)...), nil
}
