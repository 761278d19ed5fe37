// Package config loads the tool's settings: a YAML file in the base
// directory, then environment overrides, then validation.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileName is the settings file inside the base directory.
const FileName = "au2.yaml"

// Storage kinds
const (
	StorageFile   = "file"
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Remote kinds
const (
	RemoteNone  = "none"
	RemoteLocal = "local"
	RemoteSSH   = "ssh"
)

// Config holds every setting of the tool.
type Config struct {
	BaseDir   string `yaml:"base_dir" env:"BASE_DIR" validate:"required"`
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" validate:"oneof=json text"`
	Storage   string `yaml:"storage" env:"STORAGE" validate:"oneof=file memory redis"`
	Username  string `yaml:"username" env:"USERNAME" validate:"required,excludesall=0x2C"`
	// TestMode suppresses every write to the databases directory.
	TestMode bool `yaml:"test_mode" env:"TEST_MODE"`
	// Accessible draws forms as plain prompts for screen readers and pipes.
	Accessible bool `yaml:"accessible" env:"ACCESSIBLE"`

	Redis   RedisConfig   `yaml:"redis" envPrefix:"REDIS_"`
	Remote  RemoteConfig  `yaml:"remote" envPrefix:"REMOTE_"`
	Preview PreviewConfig `yaml:"preview" envPrefix:"PREVIEW_"`
}

// RedisConfig configures the redis storage backend.
type RedisConfig struct {
	URL       string `yaml:"url" env:"URL" validate:"required_if=Enabled true"`
	PoolSize  int    `yaml:"pool_size" env:"POOL_SIZE" validate:"gte=1"`
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`
	// Enabled is derived from Config.Storage.
	Enabled bool `yaml:"-"`
}

// RemoteConfig configures the shared host.
type RemoteConfig struct {
	Kind           string        `yaml:"kind" env:"KIND" validate:"oneof=none local ssh"`
	Host           string        `yaml:"host" env:"HOST" validate:"required_if=Kind ssh"`
	Port           int           `yaml:"port" env:"PORT" validate:"gte=0,lte=65535"`
	User           string        `yaml:"user" env:"USER" validate:"required_if=Kind ssh"`
	KeyPath        string        `yaml:"key_path" env:"KEY_PATH" validate:"required_if=Kind ssh"`
	KnownHostsPath string        `yaml:"known_hosts_path" env:"KNOWN_HOSTS_PATH"`
	Root           string        `yaml:"root" env:"ROOT" validate:"required_if=Kind local"`
	Timeout        time.Duration `yaml:"timeout" env:"TIMEOUT"`
	BackupsToKeep  int           `yaml:"backups_to_keep" env:"BACKUPS_TO_KEEP" validate:"gte=0"`
}

// PreviewConfig configures the local preview server.
type PreviewConfig struct {
	Host string `yaml:"host" env:"HOST" validate:"required"`
	Port int    `yaml:"port" env:"PORT" validate:"gte=1,lte=65535"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		BaseDir:   defaultBaseDir(),
		LogLevel:  "info",
		LogFormat: "json",
		Storage:   StorageFile,
		Username:  defaultUsername(),
		Redis:     RedisConfig{URL: "redis://localhost:6379", PoolSize: 4, KeyPrefix: "au2"},
		Remote:    RemoteConfig{Kind: RemoteNone, Port: 22, BackupsToKeep: 10, Timeout: 15 * time.Second},
		Preview:   PreviewConfig{Host: "127.0.0.1", Port: 8080},
	}
}

func defaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".au2"
	}
	return filepath.Join(home, ".au2")
}

func defaultUsername() string {
	for _, v := range []string{"USER", "USERNAME"} {
		if u := os.Getenv(v); u != "" {
			return u
		}
	}
	return "umpire"
}

// Load reads the settings. baseDir, when not empty, takes precedence over
// AU2_BASE_DIR for locating the file. A missing file is not an error.
func Load(baseDir string) (Config, error) {
	cfg := Default()
	if dir := os.Getenv("AU2_BASE_DIR"); dir != "" {
		cfg.BaseDir = dir
	}
	if baseDir != "" {
		cfg.BaseDir = baseDir
	}

	data, err := os.ReadFile(filepath.Join(cfg.BaseDir, FileName))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", FileName, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "AU2_"}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if baseDir != "" {
		cfg.BaseDir = baseDir
	}
	return cfg, cfg.Validate()
}

// Validate checks the settings against their constraints.
func (c *Config) Validate() error {
	c.Redis.Enabled = c.Storage == StorageRedis
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Write saves the settings file into the base directory.
func (c Config) Write() error {
	if err := os.MkdirAll(c.BaseDir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.BaseDir, FileName), data, 0o644)
}

// Paths below the base directory.

func (c Config) DatabasesDir() string { return filepath.Join(c.BaseDir, "databases") }
func (c Config) PagesDir() string     { return filepath.Join(c.BaseDir, "pages") }
func (c Config) LogsDir() string      { return filepath.Join(c.BaseDir, "logs") }
func (c Config) CrashDir() string     { return filepath.Join(c.BaseDir, "coredumps") }

// Level parses LogLevel.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return l
}
