package http

import (
	"errors"
	"io"
	stdhttp "net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/voxrelay/internal/core"
	"github.com/vovakirdan/voxrelay/internal/message"
	"github.com/vovakirdan/voxrelay/internal/metrics"
	"github.com/vovakirdan/voxrelay/internal/proto"
)

// APIHandlers provides HTTP handlers for REST API endpoints.
type APIHandlers struct {
	hub      *core.Hub
	factory  *message.Factory
	maxBytes int64
	metrics  *metrics.Metrics
	log      *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(hub *core.Hub, factory *message.Factory, maxBytes int64, m *metrics.Metrics, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		hub:      hub,
		factory:  factory,
		maxBytes: maxBytes,
		metrics:  m,
		log:      logger,
	}
}

// PublishResponse mirrors the relay's publish result.
type PublishResponse struct {
	ID           int64           `json:"id,omitempty"`
	Message      message.Message `json:"message"`
	NSubscribers int             `json:"n_subscribers"`
}

// MessagesResponse lists stored messages, oldest first.
type MessagesResponse struct {
	Messages []proto.EventMessage `json:"messages"`
}

// Publish stamps and broadcasts a message.
// POST /api/publish
func (h *APIHandlers) Publish(c *gin.Context) {
	body, err := io.ReadAll(stdhttp.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes))
	if err != nil {
		var tooLarge *stdhttp.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.reject(c, stdhttp.StatusRequestEntityTooLarge, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "request body too large"})
			return
		}
		h.reject(c, stdhttp.StatusBadRequest, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "invalid request body"})
		return
	}

	msg, perr := decodePublish(h.factory, body)
	if perr != nil {
		h.log.Debug().Str("code", perr.Code).Msg("rejected publish request")
		h.reject(c, statusForCode(perr.Code), perr)
		return
	}

	delivery, err := h.hub.Publish(c.Request.Context(), msg)
	if err != nil {
		perr, status := errorFromCore(err)
		if status >= stdhttp.StatusInternalServerError {
			h.log.Error().Err(err).Msg("failed to publish message")
		}
		c.JSON(status, ErrorResponse{Error: perr})
		return
	}

	h.log.Info().
		Int64("id", delivery.Entry.ID).
		Str("kind", string(delivery.Entry.Message.Body().Kind())).
		Str("publisher", c.GetString(ContextKeyPublisher)).
		Int("subscribers", delivery.Subscribers).
		Msg("message published")

	c.JSON(stdhttp.StatusOK, PublishResponse{
		ID:           delivery.Entry.ID,
		Message:      delivery.Entry.Message,
		NSubscribers: delivery.Subscribers,
	})
}

// ListMessages returns stored history.
// GET /api/messages?limit=20&before=123
func (h *APIHandlers) ListMessages(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(stdhttp.StatusBadRequest, ErrorResponse{Error: &proto.Error{Code: core.ErrCodeBadRequest, Msg: "invalid limit"}})
			return
		}
		limit = n
	}

	var before *int64
	if raw := c.Query("before"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(stdhttp.StatusBadRequest, ErrorResponse{Error: &proto.Error{Code: core.ErrCodeBadRequest, Msg: "invalid before"}})
			return
		}
		before = &id
	}

	entries, err := h.hub.History(c.Request.Context(), before, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list messages")
		perr, status := errorFromCore(err)
		c.JSON(status, ErrorResponse{Error: perr})
		return
	}

	c.JSON(stdhttp.StatusOK, MessagesResponse{Messages: toEventHistory(entries).Messages})
}

func (h *APIHandlers) reject(c *gin.Context, status int, perr *proto.Error) {
	h.metrics.MessageRejected(rejectionReason(perr.Code))
	c.JSON(status, ErrorResponse{Error: perr})
}
