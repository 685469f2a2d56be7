package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, ConfigFile)

	cfg := Default(home)
	cfg.Log.Level = "debug"
	cfg.Query.Retain = 3
	cfg.MetricsAddress = ""
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestLoadFillsDefaultsAndNormalizes(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, ConfigFile)
	require.NoError(t, os.WriteFile(path, []byte("GRPCAddress = \" 0.0.0.0:9000 \"\n[Log]\nLevel = \"WARN\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9000", cfg.GRPCAddress)
	require.Equal(t, "warn", cfg.Log.Level)
	require.Equal(t, filepath.Join(home, "data"), cfg.DataDir)
	require.Equal(t, 16, cfg.Query.Retain)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	require.NoError(t, os.WriteFile(path, []byte("GRPCAdress = \"x\"\n"), 0o644))

	_, err := Load(path)
	require.ErrorContains(t, err, "unknown key")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		edit func(*Config)
		err  string
	}{
		{"default", func(*Config) {}, ""},
		{"no data dir", func(c *Config) { c.DataDir = "" }, "DataDir"},
		{"no grpc address", func(c *Config) { c.GRPCAddress = "" }, "GRPCAddress"},
		{"zero retain", func(c *Config) { c.Query.Retain = 0 }, "Retain"},
		{"negative cache", func(c *Config) { c.Store.CacheSizeMB = -1 }, "Store"},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, "Log.Level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "Log.Format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default(t.TempDir())
			tc.edit(cfg)
			err := cfg.Validate()
			if tc.err == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.err)
		})
	}
}
