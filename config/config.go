// Package config loads the node configuration (TOML) and the genesis
// document (YAML).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// File names inside the node home directory.
const (
	ConfigFile  = "config.toml"
	GenesisFile = "genesis.yaml"
)

// Config is the node configuration.
type Config struct {
	DataDir     string `toml:"DataDir"`
	GenesisFile string `toml:"GenesisFile"`
	// GRPCAddress serves the consensus connection.
	GRPCAddress string `toml:"GRPCAddress"`
	// MetricsAddress serves /metrics; empty disables it.
	MetricsAddress string `toml:"MetricsAddress"`

	Log   LogConfig   `toml:"Log"`
	Store StoreConfig `toml:"Store"`
	Query QueryConfig `toml:"Query"`

	// CheckInvariants runs the supply audit at every EndBlock.
	CheckInvariants bool `toml:"CheckInvariants"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `toml:"Level"`  // debug, info, warn, error
	Format string `toml:"Format"` // json or text
	// File receives the log when set, rotated by size.
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
}

// StoreConfig tunes the leveldb store.
type StoreConfig struct {
	CacheSizeMB    int `toml:"CacheSizeMB"`
	OpenFilesCache int `toml:"OpenFilesCache"`
}

// QueryConfig controls the read path.
type QueryConfig struct {
	// Retain is the number of committed generations kept for
	// height-addressed queries.
	Retain int `toml:"Retain"`
}

// Default returns the configuration for a node rooted at home.
func Default(home string) *Config {
	return &Config{
		DataDir:        filepath.Join(home, "data"),
		GenesisFile:    filepath.Join(home, GenesisFile),
		GRPCAddress:    "127.0.0.1:26658",
		MetricsAddress: "127.0.0.1:26660",
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 10,
			MaxAgeDays: 28,
		},
		Store: StoreConfig{
			CacheSizeMB:    128,
			OpenFilesCache: 256,
		},
		Query:           QueryConfig{Retain: 16},
		CheckInvariants: true,
	}
}

// Load reads the configuration at path on top of the defaults for
// the directory containing it.
func Load(path string) (*Config, error) {
	cfg := Default(filepath.Dir(path))
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

func (cfg *Config) normalize() {
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	cfg.GRPCAddress = strings.TrimSpace(cfg.GRPCAddress)
	cfg.MetricsAddress = strings.TrimSpace(cfg.MetricsAddress)
}

// Validate checks the configuration.
func (cfg *Config) Validate() error {
	switch {
	case cfg.DataDir == "":
		return fmt.Errorf("DataDir is required")
	case cfg.GRPCAddress == "":
		return fmt.Errorf("GRPCAddress is required")
	case cfg.Query.Retain < 1:
		return fmt.Errorf("Query.Retain must be at least 1")
	case cfg.Store.CacheSizeMB < 0 || cfg.Store.OpenFilesCache < 0:
		return fmt.Errorf("Store sizes must not be negative")
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("Log.Level %q is not one of debug, info, warn, error", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("Log.Format %q is not one of json, text", cfg.Log.Format)
	}
	return nil
}
