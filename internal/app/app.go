package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/voxrelay/internal/config"
	"github.com/vovakirdan/voxrelay/internal/core"
	"github.com/vovakirdan/voxrelay/internal/message"
	"github.com/vovakirdan/voxrelay/internal/metrics"
	"github.com/vovakirdan/voxrelay/internal/store"
	"github.com/vovakirdan/voxrelay/internal/store/sqlite"
	"github.com/vovakirdan/voxrelay/internal/transcribe"
	transporthttp "github.com/vovakirdan/voxrelay/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	tr, err := transcribe.New(cfg.Transcriber)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("init transcriber: %w", err)
	}
	if tr != nil {
		logger.Info().Str("provider", cfg.Transcriber.Provider).Str("model", cfg.Transcriber.Model).Msg("voice transcription enabled")
	}

	m := metrics.New()
	hub := core.NewHub(core.Options{
		Store:        st,
		Transcriber:  tr,
		Metrics:      m,
		Logger:       logger,
		HistoryLimit: cfg.HistoryLimit,
	})
	server := transporthttp.NewServer(hub, cfg, message.NewFactory(nil), m, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		log:             logger,
	}, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run starts the hub and the HTTP server and blocks until ctx is cancelled
// or one of them fails. The store is closed before returning.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
