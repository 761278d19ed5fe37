package factory

import (
	"context"
	"path/filepath"
	"time"

	"github.com/mcoot/autoumpire/internal/config"
	"github.com/mcoot/autoumpire/internal/dependencies/mocks"
	"github.com/mcoot/autoumpire/internal/metrics"
	"github.com/mcoot/autoumpire/internal/remote"
	"github.com/mcoot/autoumpire/internal/storage/file"
	"github.com/mcoot/autoumpire/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
	Remote    *remote.Local
}

// NewTestApp creates an App below baseDir with file storage, a local remote
// and a mocked clock.
func NewTestApp(ctx context.Context, baseDir string) (*TestApp, error) {
	cfg := config.Default()
	cfg.BaseDir = baseDir
	cfg.Username = "umpire"
	cfg.Remote = config.RemoteConfig{
		Kind:          config.RemoteLocal,
		Root:          filepath.Join(baseDir, "remote"),
		BackupsToKeep: 3,
	}

	logger := testutil.NopLogger()
	store, err := file.Open(ctx, cfg.DatabasesDir(), false, logger)
	if err != nil {
		return nil, err
	}
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC))
	rem := remote.NewLocal(cfg.Remote.Root)

	app, err := newWithDependencies(cfg, store, rem, mockClock, metrics.New(), logger)
	if err != nil {
		return nil, err
	}
	return &TestApp{App: app, MockClock: mockClock, Remote: rem}, nil
}
