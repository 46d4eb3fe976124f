package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOCKERSIM_DIR", dir)
	t.Setenv("DOCKERSIM_DATABASE_URL", "")
	t.Setenv("DOCKERSIM_SQLITE_DATABASE", "")
	t.Setenv("DOCKERSIM_HISTORY_LIMIT", "")
	t.Setenv("DOCKERSIM_USER", "")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "dockersim.db"), cfg.Database.DSN)
	assert.Equal(t, dir, cfg.Directory.DataDir)
	assert.Equal(t, 20, cfg.Simulator.HistoryLimit)
	assert.Equal(t, "local", cfg.Simulator.DefaultUser)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, gormlogger.Warn, cfg.Database.LogLevel)
}

func TestLoadConfigFromFile_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`app:
  env: development
  log_level: debug
simulator:
  history_limit: 5
  default_user: alice
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("DOCKERSIM_DIR", dir)
	t.Setenv("DOCKERSIM_ENV", "")
	t.Setenv("DOCKERSIM_LOG_LEVEL", "")
	t.Setenv("DOCKERSIM_USER", "")
	t.Setenv("DOCKERSIM_HISTORY_LIMIT", "7")

	cfg, err := LoadConfigFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.ENV)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "alice", cfg.Simulator.DefaultUser)
	assert.Equal(t, 7, cfg.Simulator.HistoryLimit)
}

func TestLoadConfigFromFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app: [broken"), 0o600))

	_, err := LoadConfigFromFile(path)
	assert.Error(t, err)
}

func TestValidateDiscord(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.ValidateDiscord())

	cfg.Discord.Token = "token"
	assert.NoError(t, cfg.ValidateDiscord())
}

func TestNewLoggerWithConfig(t *testing.T) {
	cfg := &Config{App: AppConfig{ENV: "development", LogLevel: "warn"}}

	logger, err := NewLoggerWithConfig("test", cfg)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))

	quiet, err := NewCLILogger("cli", &Config{App: AppConfig{ENV: "development", LogLevel: "debug"}}, false)
	require.NoError(t, err)
	assert.False(t, quiet.Core().Enabled(0))
}
