package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Zero(t, cfg.Simulation.Seed)
	assert.Equal(t, 100, cfg.Simulation.Days)
	assert.Equal(t, 1000, cfg.Simulation.MaxPopulation)
	assert.Equal(t, 10, cfg.Simulation.StartingColonists)
	assert.True(t, cfg.Simulation.AutoStaff)
	assert.Equal(t, 6, cfg.Simulation.MapRadius)
	assert.Equal(t, "data/colony.db", cfg.Database.Path)
	assert.Equal(t, 1, cfg.Database.SaveEvery)
	assert.False(t, cfg.API.Enabled)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, 5.0, cfg.API.RateLimit.RequestsPerSecond)
	assert.Equal(t, 10, cfg.API.RateLimit.Burst)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)

	assert.Equal(t, cfg, Default())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("COLONY_SIMULATION_SEED", "42")
	t.Setenv("COLONY_SIMULATION_AUTO_STAFF", "false")
	t.Setenv("COLONY_SIMULATION_STEP_INTERVAL", "250ms")
	t.Setenv("COLONY_API_ENABLED", "true")
	t.Setenv("COLONY_API_RATE_LIMIT_BURST", "3")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Simulation.Seed)
	assert.False(t, cfg.Simulation.AutoStaff)
	assert.Equal(t, 250*time.Millisecond, cfg.Simulation.StepInterval)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, 3, cfg.API.RateLimit.Burst)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colony.yaml")
	yaml := `
simulation:
  days: 30
  map_radius: 8
database:
  path: /tmp/elsewhere.db
logging:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("COLONY_SIMULATION_DAYS", "45")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 45, cfg.Simulation.Days, "environment beats file")
	assert.Equal(t, 8, cfg.Simulation.MapRadius)
	assert.Equal(t, "/tmp/elsewhere.db", cfg.Database.Path)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 10, cfg.Simulation.StartingColonists, "untouched keys keep defaults")
}

func TestMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		field string
	}{
		{"log level", "COLONY_LOGGING_LEVEL", "loud", "Logging.Level"},
		{"log format", "COLONY_LOGGING_FORMAT", "xml", "Logging.Format"},
		{"port", "COLONY_API_PORT", "70000", "API.Port"},
		{"save cadence", "COLONY_DATABASE_SAVE_EVERY", "0", "Database.SaveEvery"},
		{"tiny map", "COLONY_SIMULATION_MAP_RADIUS", "1", "Simulation.MapRadius"},
		{"metrics path", "COLONY_METRICS_PATH", "metrics", "Metrics.Path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := LoggingConfig{Level: "warn", Format: "json"}.NewLogger(&buf)

	log.Info("hidden")
	log.Warn("shown", "day", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, 3.0, line["day"])
}
