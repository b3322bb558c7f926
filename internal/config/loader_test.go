package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(&logger, path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	assert.Equal(t, Default(), cfg)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestLoadFileThenEnv(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "addr: \":9000\"\nhistory_limit: 10\ntranscriber:\n  provider: openai\n  language: en\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("VOXRELAY_HISTORY_LIMIT", "25")
	t.Setenv("VOXRELAY_SHUTDOWN_TIMEOUT", "9s")

	cfg, _, err := Load(&logger, path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 25, cfg.HistoryLimit)
	assert.Equal(t, 9*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "openai", cfg.Transcriber.Provider)
	assert.Equal(t, "en", cfg.Transcriber.Language)
	assert.Equal(t, "whisper-1", cfg.Transcriber.Model)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("transcriber:\n  provider: google\n"), 0o600))

	_, _, err := Load(&logger, path)
	require.Error(t, err)
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":1", LogLevel: "debug", Transcriber: TranscriberConfig{Provider: "openai"}})

	assert.Equal(t, ":1", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "openai", cfg.Transcriber.Provider)
	assert.Equal(t, "whisper-1", cfg.Transcriber.Model)
	assert.Equal(t, Default().HistoryLimit, cfg.HistoryLimit)
}
