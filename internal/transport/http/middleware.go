package http

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/voxrelay/internal/auth"
	"github.com/vovakirdan/voxrelay/internal/core"
	"github.com/vovakirdan/voxrelay/internal/metrics"
	"github.com/vovakirdan/voxrelay/internal/proto"
)

// ContextKeyPublisher is the context key for the authenticated publisher subject.
const ContextKeyPublisher = "publisher"

// PublishAuthMiddleware requires a bearer token when jwtCfg is enabled.
func PublishAuthMiddleware(jwtCfg *auth.JWTConfig, m *metrics.Metrics, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !jwtCfg.Enabled() {
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			logger.Debug().Msg("missing or malformed authorization header")
			abortWithError(c, m, &proto.Error{Code: core.ErrCodeUnauthorized, Msg: "missing bearer token"})
			return
		}

		claims, err := auth.ValidateToken(jwtCfg, token)
		if err != nil {
			logger.Debug().Err(err).Msg("invalid token")
			abortWithError(c, m, &proto.Error{Code: core.ErrCodeUnauthorized, Msg: "invalid token"})
			return
		}

		c.Set(ContextKeyPublisher, claims.Subject)
		c.Next()
	}
}

// RateLimitMiddleware limits requests per remote IP.
func RateLimitMiddleware(limiter *rateLimiter, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			abortWithError(c, m, &proto.Error{Code: core.ErrCodeRateLimited, Msg: "too many requests"})
			return
		}
		c.Next()
	}
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Process request
		c.Next()

		// Log after request
		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	}
}

func bearerToken(header string) (string, bool) {
	// Extract token from "Bearer <token>"
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

func abortWithError(c *gin.Context, m *metrics.Metrics, perr *proto.Error) {
	m.MessageRejected(rejectionReason(perr.Code))
	c.AbortWithStatusJSON(statusForCode(perr.Code), ErrorResponse{Error: perr})
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error *proto.Error `json:"error"`
}

