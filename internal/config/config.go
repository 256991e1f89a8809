// Package config loads the cleanstreak configuration file and generates the
// stable per-install user identity.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"cleanstreak/internal/engine"
	"cleanstreak/internal/storage"
)

const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

type RemoteConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	// Timeout is a Go duration string, e.g. "10s".
	Timeout string `yaml:"timeout"`
}

type Config struct {
	// DataDir holds the databases. Defaults to ~/.cleanstreak.
	DataDir string `yaml:"data_dir"`

	// Backend selects the durable substrate: "sqlite" or "badger".
	Backend string `yaml:"backend"`

	// UserID keys the remote replica. Generated once and persisted.
	UserID string `yaml:"user_id"`

	Remote RemoteConfig `yaml:"remote"`

	// SyncInterval is the periodic local/remote agreement check, as a Go
	// duration string. Only used when the remote is enabled.
	SyncInterval string `yaml:"sync_interval"`

	Anomaly engine.AnomalyConfig `yaml:"anomaly"`
}

func Default() Config {
	return Config{
		Backend:      BackendSQLite,
		Remote:       RemoteConfig{Timeout: "10s"},
		SyncInterval: "15m",
		Anomaly:      engine.DefaultAnomalyConfig(),
	}
}

// DefaultPath returns ~/.cleanstreak/config.yaml.
func DefaultPath() (string, error) {
	dir, err := storage.DefaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads path over the defaults. A missing file yields the defaults. The
// user id is generated and persisted on first load.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if cfg.Backend != BackendSQLite && cfg.Backend != BackendBadger {
		return cfg, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if cfg.DataDir == "" {
		dir, err := storage.DefaultDataDir()
		if err != nil {
			return cfg, err
		}
		cfg.DataDir = dir
	}
	if cfg.Anomaly.RunawayThreshold <= 0 || cfg.Anomaly.FutureStartMinCount <= 0 {
		cfg.Anomaly = engine.DefaultAnomalyConfig()
	}

	if cfg.UserID == "" {
		cfg.UserID = uuid.NewString()
		if err := cfg.Save(path); err != nil {
			return cfg, fmt.Errorf("persist generated user id: %w", err)
		}
	}
	return cfg, nil
}

// Save writes the config to path, creating the directory if needed.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// RemoteTimeout parses the remote timeout, defaulting to 10s.
func (c Config) RemoteTimeout() time.Duration {
	d, err := time.ParseDuration(c.Remote.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// SyncEvery parses the sync interval, defaulting to 15 minutes.
func (c Config) SyncEvery() time.Duration {
	d, err := time.ParseDuration(c.SyncInterval)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}
