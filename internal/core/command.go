package core

import "github.com/vovakirdan/voxrelay/internal/message"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandPublish broadcasts a message to every subscriber.
	CommandPublish CommandKind = iota
	// CommandHistory requests stored messages older than BeforeID.
	CommandHistory
)

// Command represents an action requested by a client.
type Command struct {
	Kind     CommandKind
	Message  message.Message
	BeforeID *int64
	Limit    int
}
