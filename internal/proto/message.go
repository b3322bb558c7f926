package proto

import (
	"encoding/json"

	"github.com/vovakirdan/voxrelay/internal/message"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello   = "hello"
	InboundTypePublish = "publish"
	InboundTypeHistory = "history"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventNameWelcome = "welcome"
	EventNameMessage = "message"
	EventNameHistory = "history"
)

// HelloData is sent by the client to introduce itself.
type HelloData struct {
	User     string `json:"user,omitempty"`
	Protocol int    `json:"protocol,omitempty"`
}

// PublishData is user input: typed text or a voice recording as a data URL.
// A publish payload may instead be a complete message object with "body"
// and "timestamp".
type PublishData struct {
	Text    *string `json:"text,omitempty"`
	DataURL *string `json:"data_url,omitempty"`
}

// HistoryData requests stored messages older than Before.
type HistoryData struct {
	Before *int64 `json:"before,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// WelcomeData is sent once after a successful hello.
type WelcomeData struct {
	ClientID string `json:"client_id"`
	User     string `json:"user"`
	Protocol int    `json:"protocol"`
}

// EventMessage wraps the message wire contract with its storage ID.
type EventMessage struct {
	ID      int64           `json:"id,omitempty"`
	Message message.Message `json:"message"`
}

// EventHistory delivers stored messages, oldest first.
type EventHistory struct {
	Messages []EventMessage `json:"messages"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
