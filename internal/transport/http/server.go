package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/voxrelay/internal/auth"
	"github.com/vovakirdan/voxrelay/internal/config"
	"github.com/vovakirdan/voxrelay/internal/core"
	"github.com/vovakirdan/voxrelay/internal/message"
	"github.com/vovakirdan/voxrelay/internal/metrics"
)

// NewServer builds an HTTP server with the relay routes.
// m may be nil, in which case /metrics is not mounted.
func NewServer(hub *core.Hub, cfg *config.Config, factory *message.Factory, m *metrics.Metrics, logger *zerolog.Logger) *stdhttp.Server {
	if factory == nil {
		factory = message.NewFactory(nil)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	limiter := newRateLimiter(cfg.RateLimitPerMinute)
	stop := make(chan struct{})
	limiter.startCleanup(stop)

	jwtCfg := auth.PublishConfig(cfg.PublishSecret)

	router.GET("/health", healthHandler)

	api := NewAPIHandlers(hub, factory, cfg.MaxMessageBytes, m, logger)
	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/publish", RateLimitMiddleware(limiter, m), PublishAuthMiddleware(jwtCfg, m, logger), api.Publish)
		apiGroup.GET("/messages", api.ListMessages)
	}

	if m != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		})))
	}

	// The WebSocket upgrade needs an unwrapped ResponseWriter to hijack.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, factory, limiter, cfg.MaxMessageBytes, m, logger))
	mux.Handle("/", router)

	srv := &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	srv.RegisterOnShutdown(func() { close(stop) })
	return srv
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
