package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teahouse/internal/storage"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "teahouse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv(EnvConfigPath, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, storage.DefaultDBPath(), cfg.Database.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 10.0, cfg.Economy.SignInReward)
	assert.Equal(t, "0 0 * * *", cfg.Schedule.DailyReset)
	assert.Equal(t, "0 0 * * 1", cfg.Schedule.WeeklyReset)
}

func TestLoad_FileOverridesAndEnvExpansion(t *testing.T) {
	t.Setenv("TEAHOUSE_TEST_DIR", "/srv/bot")
	path := writeConfig(t, `
database:
  path: "${TEAHOUSE_TEST_DIR}/tea.db"
logging:
  level: debug
  format: json
economy:
  sign_in_reward: 25.5
schedule:
  weekly_reset: ""
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/bot/tea.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 25.5, cfg.Economy.SignInReward)
	assert.Equal(t, "0 0 * * *", cfg.Schedule.DailyReset)
	assert.Empty(t, cfg.Schedule.WeeklyReset)
}

func TestLoad_PathFromEnv(t *testing.T) {
	path := writeConfig(t, "economy:\n  sign_in_reward: 3\n")
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3.0, cfg.Economy.SignInReward)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "logging: [nope"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "logging:\n  level: loud\n  format: xml\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
	assert.Contains(t, err.Error(), "logging.format")

	_, err = Load(writeConfig(t, "economy:\n  sign_in_reward: -1\n"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LoggingConfig{Level: "warn", Format: "json"}.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":"v"`)
}
