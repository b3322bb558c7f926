package app

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/voxrelay/internal/config"
)

func TestNewWiresRoutes(t *testing.T) {
	cfg := config.Default()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "voxrelay.db")
	logger := zerolog.Nop()

	a, err := New(&cfg, &logger)
	require.NoError(t, err)
	t.Cleanup(a.cleanup)

	for _, path := range []string{"/health", "/metrics", "/api/messages"} {
		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, 200, rec.Code, path)
	}
}

func TestNewRejectsUnknownTranscriber(t *testing.T) {
	cfg := config.Default()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "voxrelay.db")
	cfg.Transcriber.Provider = "carrier-pigeon"
	logger := zerolog.Nop()

	_, err := New(&cfg, &logger)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "init transcriber"))
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Addr = "127.0.0.1:0"
	cfg.DatabasePath = filepath.Join(t.TempDir(), "voxrelay.db")
	logger := zerolog.Nop()

	a, err := New(&cfg, &logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
