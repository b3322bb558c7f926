package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/voxrelay/internal/core"
	"github.com/vovakirdan/voxrelay/internal/message"
	"github.com/vovakirdan/voxrelay/internal/metrics"
	"github.com/vovakirdan/voxrelay/internal/proto"
)

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub      *core.Hub
	factory  *message.Factory
	limiter  *rateLimiter
	maxBytes int64
	metrics  *metrics.Metrics
	log      *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, factory *message.Factory, limiter *rateLimiter, maxBytes int64, m *metrics.Metrics, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{
		hub:      hub,
		factory:  factory,
		limiter:  limiter,
		maxBytes: maxBytes,
		metrics:  m,
		log:      logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()
	if h.maxBytes > 0 {
		conn.SetReadLimit(h.maxBytes)
	}

	client := core.NewClient(uuid.NewString(), "")
	if err := h.hub.RegisterClient(client); err != nil {
		h.log.Warn().Err(err).Str("client_id", client.ID).Msg("hub unavailable, closing connection")
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.hub.UnregisterClient(client)
	defer h.limiter.forget(client.ID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		var protoErr *protocolError
		if errors.As(err, &protoErr) {
			status = websocket.StatusPolicyViolation
			reason = protoErr.perr.Msg
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = "internal error"
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	_ = conn.Close(status, reason)
}

// protocolError ends a connection after the error has been reported to the peer.
type protocolError struct {
	perr *proto.Error
}

func (e *protocolError) Error() string {
	return e.perr.Code + ": " + e.perr.Msg
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			h.log.Debug().Err(err).Str("client_id", client.ID).Msg("read ws inbound")
			return err
		}

		var inbound proto.Inbound
		if err := json.Unmarshal(data, &inbound); err != nil {
			h.metrics.MessageRejected(metrics.ReasonInvalidMessage)
			if writeErr := h.writeError(ctx, conn, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "invalid json"}); writeErr != nil {
				return writeErr
			}
			continue
		}

		if inbound.Type == proto.InboundTypeHello {
			if err := h.handleHello(ctx, conn, client, inbound.Data); err != nil {
				return err
			}
			continue
		}

		cmd, protoErr := inboundToCommand(h.factory, inbound)
		if protoErr == nil && cmd.Kind == core.CommandPublish && !h.limiter.allow(client.ID) {
			protoErr = &proto.Error{Code: core.ErrCodeRateLimited, Msg: "too many messages"}
		}
		if protoErr != nil {
			if cmd == nil || cmd.Kind == core.CommandPublish {
				h.metrics.MessageRejected(rejectionReason(protoErr.Code))
			}
			if writeErr := h.writeError(ctx, conn, protoErr); writeErr != nil {
				return writeErr
			}
			continue
		}

		select {
		case client.Commands <- cmd:
		case <-client.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) handleHello(ctx context.Context, conn *websocket.Conn, client *core.Client, raw json.RawMessage) error {
	var hello proto.HelloData
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &hello); err != nil {
			return h.writeError(ctx, conn, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "invalid hello"})
		}
	}

	if hello.Protocol != 0 && hello.Protocol != proto.ProtocolVersion {
		perr := &proto.Error{Code: core.ErrCodeUnsupportedVersion, Msg: "unsupported protocol version"}
		if err := h.writeError(ctx, conn, perr); err != nil {
			return err
		}
		return &protocolError{perr: perr}
	}

	if hello.User != "" {
		client.Name = hello.User
	}
	h.log.Info().Str("client_id", client.ID).Str("user", client.Name).Msg("client said hello")

	return wsjson.Write(ctx, conn, proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: proto.EventNameWelcome,
		Data: proto.WelcomeData{
			ClientID: client.ID,
			User:     client.Name,
			Protocol: proto.ProtocolVersion,
		},
	})
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event := <-client.Events:
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-client.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeError(ctx context.Context, conn *websocket.Conn, perr *proto.Error) error {
	return wsjson.Write(ctx, conn, proto.Outbound{Type: proto.OutboundTypeError, Error: perr})
}
