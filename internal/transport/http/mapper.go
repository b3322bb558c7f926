package http

import (
	"encoding/json"
	"errors"
	stdhttp "net/http"

	"github.com/vovakirdan/voxrelay/internal/core"
	"github.com/vovakirdan/voxrelay/internal/message"
	"github.com/vovakirdan/voxrelay/internal/metrics"
	"github.com/vovakirdan/voxrelay/internal/proto"
)

// decodePublish turns a publish payload into a Message. The payload is
// either a complete message object or {text} / {data_url} user input.
func decodePublish(f *message.Factory, raw json.RawMessage) (message.Message, *proto.Error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil || probe == nil {
		return message.Message{}, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "publish data must be an object"}
	}

	if _, ok := probe["body"]; ok {
		msg, err := decodePublishedMessage(f, raw)
		if err != nil {
			return message.Message{}, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "message is not well-formed"}
		}
		return msg, nil
	}

	var data proto.PublishData
	if err := json.Unmarshal(raw, &data); err != nil {
		return message.Message{}, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "text and data_url must be strings"}
	}

	switch {
	case data.Text != nil && data.DataURL != nil:
		return message.Message{}, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "exactly one of text or data_url is allowed"}
	case data.Text != nil:
		return f.FromPlainText(*data.Text), nil
	case data.DataURL != nil:
		msg, ok := f.FromVoiceDataURL(*data.DataURL)
		if !ok {
			return message.Message{}, &proto.Error{Code: core.ErrCodeInvalidDataURL, Msg: "data_url is not a valid voice recording"}
		}
		return msg, nil
	default:
		return message.Message{}, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "text or data_url is required"}
	}
}

// decodePublishedMessage reads a message object whose timestamp may be
// missing or null; the hub restamps it either way. A timestamp that is
// present must still parse.
func decodePublishedMessage(f *message.Factory, raw json.RawMessage) (message.Message, error) {
	var payload struct {
		Body      message.Body `json:"body"`
		Timestamp *string      `json:"timestamp"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return message.Message{}, err
	}

	msg, ok := f.FromBody(payload.Body)
	if !ok {
		return message.Message{}, message.ErrInvalidMessage
	}
	if payload.Timestamp != nil {
		ts, err := message.ParseTimestamp(*payload.Timestamp)
		if err != nil {
			return message.Message{}, err
		}
		msg = msg.WithTimestamp(ts)
	}
	return msg, nil
}

func inboundToCommand(f *message.Factory, inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypePublish:
		msg, protoErr := decodePublish(f, inbound.Data)
		if protoErr != nil {
			return nil, protoErr
		}
		return &core.Command{Kind: core.CommandPublish, Message: msg}, nil
	case proto.InboundTypeHistory:
		var data proto.HistoryData
		if len(inbound.Data) > 0 {
			if err := json.Unmarshal(inbound.Data, &data); err != nil {
				return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "invalid history request"}
			}
		}
		return &core.Command{Kind: core.CommandHistory, BeforeID: data.Before, Limit: data.Limit}, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "unknown message type"}
	}
}

func toEventMessage(entry core.Entry) proto.EventMessage {
	return proto.EventMessage{ID: entry.ID, Message: entry.Message}
}

func toEventHistory(entries []core.Entry) proto.EventHistory {
	messages := make([]proto.EventMessage, 0, len(entries))
	for _, entry := range entries {
		messages = append(messages, toEventMessage(entry))
	}
	return proto.EventHistory{Messages: messages}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameMessage,
			Data:  toEventMessage(event.Entry),
		}
	case core.EventHistory:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameHistory,
			Data:  toEventHistory(event.History),
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func rejectionReason(code string) string {
	switch code {
	case core.ErrCodeInvalidDataURL:
		return metrics.ReasonInvalidDataURL
	case core.ErrCodeRateLimited:
		return metrics.ReasonRateLimited
	case core.ErrCodeUnauthorized:
		return metrics.ReasonUnauthorized
	default:
		return metrics.ReasonInvalidMessage
	}
}

func statusForCode(code string) int {
	switch code {
	case core.ErrCodeBadRequest, core.ErrCodeInvalidMessage, core.ErrCodeInvalidDataURL:
		return stdhttp.StatusBadRequest
	case core.ErrCodeUnauthorized:
		return stdhttp.StatusUnauthorized
	case core.ErrCodeRateLimited:
		return stdhttp.StatusTooManyRequests
	case core.ErrCodeTranscribeFailed:
		return stdhttp.StatusBadGateway
	default:
		return stdhttp.StatusInternalServerError
	}
}

func errorFromCore(err error) (*proto.Error, int) {
	if errors.Is(err, core.ErrHubStopped) {
		return &proto.Error{Code: core.ErrCodeInternal, Msg: "server is shutting down"}, stdhttp.StatusServiceUnavailable
	}
	ce := core.AsCoreError(err)
	return &proto.Error{Code: ce.Code, Msg: ce.Message}, statusForCode(ce.Code)
}
