package store

import (
	"context"
	"errors"
	"time"

	"github.com/vovakirdan/voxrelay/internal/message"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Record is a persisted chat message.
type Record struct {
	ID        int64
	Message   message.Message
	CreatedAt time.Time
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message and returns the stored record.
	SaveMessage(ctx context.Context, msg message.Message) (*Record, error)

	// GetMessage retrieves a single record by ID.
	GetMessage(ctx context.Context, id int64) (*Record, error)

	// ListMessages retrieves messages with pagination, oldest first.
	// If beforeID is provided, returns messages older than that ID.
	// Limit determines max number of messages to return.
	ListMessages(ctx context.Context, limit int, beforeID *int64) ([]*Record, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
