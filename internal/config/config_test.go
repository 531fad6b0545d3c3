package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{StrategyMySQL, StrategyPostgres, StrategySnapshot}, cfg.StrategyNames())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Cache.Enabled)
	assert.False(t, cfg.GateConfigured(), "default config must not carry credentials")
	assert.Empty(t, cfg.Store.MySQLDSN, "default config must not carry a DSN")
	assert.Empty(t, cfg.Store.PostgresDSN)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "port zero",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "out of range",
		},
		{
			name:    "port too large",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "out of range",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "unknown log level",
		},
		{
			name:    "bad log output",
			mutate:  func(c *Config) { c.Logging.Output = "syslog" },
			wantErr: "unknown log output",
		},
		{
			name:    "unknown strategy",
			mutate:  func(c *Config) { c.Store.Strategies = []string{"mysql", "oracle"} },
			wantErr: "unknown store strategy",
		},
		{
			name:    "duplicate strategy",
			mutate:  func(c *Config) { c.Store.Strategies = []string{"mysql", "mysql"} },
			wantErr: "listed twice",
		},
		{
			name:    "non-positive session ttl",
			mutate:  func(c *Config) { c.Gate.SessionTTL = 0 },
			wantErr: "session ttl",
		},
		{
			name:    "non-positive cache ttl",
			mutate:  func(c *Config) { c.Cache.TTL = 0 },
			wantErr: "cache ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGateConfigured(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.GateConfigured())

	cfg.Gate.Password = "hunter2"
	assert.True(t, cfg.GateConfigured())

	cfg.Gate.Password = ""
	cfg.Gate.PasswordHash = "$2a$10$abcdefghijklmnopqrstuv"
	assert.True(t, cfg.GateConfigured())
}

func TestStrategyNamesNormalization(t *testing.T) {
	cfg := Default()
	cfg.Store.Strategies = []string{" MySQL ", "", "Snapshot"}

	assert.Equal(t, []string{"mysql", "snapshot"}, cfg.StrategyNames())
}

func TestMergePrecedence(t *testing.T) {
	fileCfg := *Default()
	fileCfg.Server.Port = 9090
	fileCfg.Store.MySQLDSN = "file-dsn"
	fileCfg.Gate.Password = "file-pass"

	envCfg := *Default()
	envCfg.Store.MySQLDSN = "env-dsn"
	envCfg.Server.Port = 0 // unset in env

	merged := merge(fileCfg, envCfg)

	assert.Equal(t, 9090, merged.Server.Port, "file value fills unset env value")
	assert.Equal(t, "env-dsn", merged.Store.MySQLDSN, "env value wins")
	assert.Equal(t, "file-pass", merged.Gate.Password)
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Paths.ExportsDir = filepath.Join(dir, "data", "exports")
	cfg.Paths.LogsDir = filepath.Join(dir, "logs")

	require.NoError(t, cfg.EnsureDirectories())

	assert.DirExists(t, cfg.Paths.DataDir)
	assert.DirExists(t, cfg.Paths.ExportsDir)
	assert.DirExists(t, cfg.Paths.LogsDir)
}

func TestExportPath(t *testing.T) {
	cfg := Default()
	cfg.Paths.ExportsDir = "/srv/washpulse/exports"

	assert.Equal(t, filepath.Join("/srv/washpulse/exports", "daily.csv"), cfg.ExportPath("daily.csv"))
}
