package core

import "github.com/vovakirdan/voxrelay/internal/message"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventMessage delivers a published message.
	EventMessage EventKind = iota
	// EventHistory delivers stored messages, oldest first.
	EventHistory
	// EventError notifies a client about a domain error.
	EventError
)

// Entry is a message together with its storage ID (0 when not persisted).
type Entry struct {
	ID      int64
	Message message.Message
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind    EventKind
	Entry   Entry
	History []Entry
	Error   *CoreError
}
