package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Server.RunTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "presets", cfg.Paths.PresetsDir)
	assert.True(t, cfg.Security.RateLimit.Enabled)
	require.NoError(t, cfg.validate())
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	assert.Error(t, cfg.validate())

	cfg.Server.Port = 70000
	assert.Error(t, cfg.validate())
}

func TestValidateNormalizesLoggingOutput(t *testing.T) {
	cfg := Default()
	cfg.Logging.Output = "syslog"
	require.NoError(t, cfg.validate())
	assert.Equal(t, "both", cfg.Logging.Output)
}

func TestValidateRequiresOrigins(t *testing.T) {
	cfg := Default()
	cfg.Security.AllowedOrigins = nil
	assert.Error(t, cfg.validate())
}

func TestMergeConfigsEnvWins(t *testing.T) {
	file := *Default()
	file.Server.Port = 9000
	file.Logging.Level = "debug"
	file.Paths.PresetsDir = "/tmp/presets"

	env := Config{}
	env.Server.Port = 3000

	merged := mergeConfigs(file, env)
	assert.Equal(t, 3000, merged.Server.Port)
	assert.Equal(t, "debug", merged.Logging.Level)
	assert.Equal(t, "/tmp/presets", merged.Paths.PresetsDir)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `server:
  port: 9191
  run_timeout: 5m
logging:
  level: warn
paths:
  presets_dir: mypresets
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := loadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Server.RunTimeout)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "mypresets", cfg.Paths.PresetsDir)
}

func TestLoadFromFileRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0644))

	_, err := loadFromFile(path)
	assert.Error(t, err)
}

func TestLoadUsesEnvironment(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("TSPREP_SERVER_PORT", "9999")
	t.Setenv("TSPREP_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Working directories were created relative to the temp dir.
	_, err = os.Stat(filepath.Join(dir, "presets"))
	assert.NoError(t, err)
}
