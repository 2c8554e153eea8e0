package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "attmon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	watchDir := t.TempDir()
	t.Setenv("ATTMON_WATCH_DIR", watchDir)

	cfg, err := NewLoader("", "1.0.0").Load()
	require.NoError(t, err)

	assert.Equal(t, watchDir, cfg.WatchDir)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 20*time.Second, cfg.FileReadyTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.FileReadyPoll)
	assert.Equal(t, 1000, cfg.HistoryLimit)
	assert.Equal(t, 800, cfg.HistoryKeep)
	assert.True(t, cfg.ScanOnStart)
	assert.True(t, cfg.Notifications)
	assert.Equal(t, "1.0.0", cfg.Version)
}

func TestLoadFromFile(t *testing.T) {
	watchDir := t.TempDir()
	dbDir := t.TempDir()
	path := writeConfigFile(t, `
watchDir: `+watchDir+`
databasePath: `+filepath.Join(dbDir, "att.db")+`
listenAddr: ":9090"
scanOnStart: false
fileReadyTimeout: 30s
historyLimit: 200
historyKeep: 150
logLevel: debug
`)

	cfg, err := NewLoader(path, "1.0.0").Load()
	require.NoError(t, err)

	assert.Equal(t, watchDir, cfg.WatchDir)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.False(t, cfg.ScanOnStart)
	assert.Equal(t, 30*time.Second, cfg.FileReadyTimeout)
	assert.Equal(t, 200, cfg.HistoryLimit)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestEnvOverridesFile(t *testing.T) {
	fileDir := t.TempDir()
	envDir := t.TempDir()
	path := writeConfigFile(t, "watchDir: "+fileDir+"\nlistenAddr: \":9090\"\n")

	t.Setenv("ATTMON_WATCH_DIR", envDir)
	t.Setenv("ATTMON_LISTEN", ":7070")

	cfg, err := NewLoader(path, "dev").Load()
	require.NoError(t, err)
	assert.Equal(t, envDir, cfg.WatchDir)
	assert.Equal(t, ":7070", cfg.ListenAddr)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfigFile(t, "watchFolder: /somewhere\n")
	_, err := NewLoader(path, "dev").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strict config parse error")
}

func TestLoadRejectsNonYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attmon.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	_, err := NewLoader(path, "dev").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only YAML supported")
}

func TestLoadValidation(t *testing.T) {
	t.Run("missing watch dir", func(t *testing.T) {
		_, err := NewLoader("", "dev").Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "watch dir is required")
	})

	t.Run("watch dir does not exist", func(t *testing.T) {
		t.Setenv("ATTMON_WATCH_DIR", filepath.Join(t.TempDir(), "nope"))
		_, err := NewLoader("", "dev").Load()
		require.Error(t, err)
	})

	t.Run("poll must be below timeout", func(t *testing.T) {
		t.Setenv("ATTMON_WATCH_DIR", t.TempDir())
		t.Setenv("ATTMON_FILE_READY_POLL", "30s")
		t.Setenv("ATTMON_FILE_READY_TIMEOUT", "10s")
		_, err := NewLoader("", "dev").Load()
		require.Error(t, err)
	})

	t.Run("history keep below limit", func(t *testing.T) {
		t.Setenv("ATTMON_WATCH_DIR", t.TempDir())
		t.Setenv("ATTMON_HISTORY_KEEP", "2000")
		_, err := NewLoader("", "dev").Load()
		require.Error(t, err)
	})
}

func TestLoadToolingSkipsWatchDir(t *testing.T) {
	cfg, err := NewLoader("", "dev").LoadTooling()
	require.NoError(t, err)
	assert.Empty(t, cfg.WatchDir)
	assert.Equal(t, "dev", cfg.Version)
}

func TestParseBool(t *testing.T) {
	t.Setenv("ATTMON_TEST_BOOL", "yes")
	assert.True(t, ParseBool("ATTMON_TEST_BOOL", false))

	t.Setenv("ATTMON_TEST_BOOL", "0")
	assert.False(t, ParseBool("ATTMON_TEST_BOOL", true))

	t.Setenv("ATTMON_TEST_BOOL", "maybe")
	assert.True(t, ParseBool("ATTMON_TEST_BOOL", true))
}

func TestParseDuration(t *testing.T) {
	t.Setenv("ATTMON_TEST_DUR", "90s")
	assert.Equal(t, 90*time.Second, ParseDuration("ATTMON_TEST_DUR", time.Second))

	t.Setenv("ATTMON_TEST_DUR", "soon")
	assert.Equal(t, time.Second, ParseDuration("ATTMON_TEST_DUR", time.Second))
}
