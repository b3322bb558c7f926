package core

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/voxrelay/internal/message"
	"github.com/vovakirdan/voxrelay/internal/metrics"
	"github.com/vovakirdan/voxrelay/internal/store"
	"github.com/vovakirdan/voxrelay/internal/transcribe"
)

const defaultHistoryLimit = 50

// Options configures a Hub. Every field is optional.
type Options struct {
	Store        store.MessageStore
	Transcriber  transcribe.Transcriber
	Clock        clock.Clock
	Metrics      *metrics.Metrics
	Logger       *zerolog.Logger
	HistoryLimit int
}

// Delivery is the outcome of a publish.
type Delivery struct {
	Entry       Entry
	Subscribers int
}

type broadcastRequest struct {
	entry Entry
	reply chan int
}

// Hub owns the subscriber set and fans published messages out to it.
// Transcription and persistence happen on the publishing goroutine; only
// membership changes and broadcasts go through the Run loop.
type Hub struct {
	store        store.MessageStore
	transcriber  transcribe.Transcriber
	clock        clock.Clock
	metrics      *metrics.Metrics
	log          *zerolog.Logger
	historyLimit int

	room        *Room
	register    chan *Client
	unregister  chan *Client
	broadcast   chan broadcastRequest
	done        chan struct{}
	subscribers atomic.Int64
}

// NewHub creates a new hub. Call Run to start it.
func NewHub(opts Options) *Hub {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	return &Hub{
		store:        opts.Store,
		transcriber:  opts.Transcriber,
		clock:        opts.Clock,
		metrics:      opts.Metrics,
		log:          opts.Logger,
		historyLimit: opts.HistoryLimit,
		room:         NewRoom("lobby"),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		broadcast:    make(chan broadcastRequest),
		done:         make(chan struct{}),
	}
}

// Run processes membership changes and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case c := <-h.register:
			if h.room.AddClient(c) {
				h.updateSubscribers()
				h.log.Debug().Str("client_id", c.ID).Int("subscribers", h.room.Len()).Msg("subscriber added")
				h.sendHistory(ctx, c, nil, h.historyLimit)
				go h.pump(ctx, c)
			}
		case c := <-h.unregister:
			if h.room.RemoveClient(c) {
				c.close()
				h.updateSubscribers()
				h.log.Debug().Str("client_id", c.ID).Int("subscribers", h.room.Len()).Msg("subscriber removed")
			}
		case req := <-h.broadcast:
			delivered, dropped := h.room.Broadcast(&Event{Kind: EventMessage, Entry: req.entry})
			h.metrics.Delivered(delivered)
			h.metrics.Dropped(dropped)
			if dropped > 0 {
				h.log.Warn().Int("dropped", dropped).Msg("dropped events for slow subscribers")
			}
			req.reply <- h.room.Len()
		case <-ctx.Done():
			for c := range h.room.clients {
				h.room.RemoveClient(c)
				c.close()
			}
			h.updateSubscribers()
			return
		}
	}
}

// RegisterClient adds c to the subscriber set. The client receives the
// recent history first, then every broadcast. It returns ErrHubStopped
// once Run has exited; c is closed in that case.
func (h *Hub) RegisterClient(c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		c.close()
		return ErrHubStopped
	}
}

// UnregisterClient removes c from the subscriber set.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Subscribers returns the current number of subscribers.
func (h *Hub) Subscribers() int {
	return int(h.subscribers.Load())
}

// Publish stamps msg with the hub clock, transcribes voice bodies when a
// transcriber is configured, persists it and broadcasts it to every subscriber.
func (h *Hub) Publish(ctx context.Context, msg message.Message) (Delivery, error) {
	if !message.IsMessage(msg) {
		h.metrics.MessageRejected(metrics.ReasonInvalidMessage)
		return Delivery{}, coreError(ErrCodeInvalidMessage, "message is not well-formed")
	}

	msg = msg.WithTimestamp(h.clock.Now())

	if audio, ok := msg.Body().Voice(); ok && h.transcriber != nil {
		start := time.Now()
		text, err := h.transcriber.Transcribe(ctx, audio)
		h.metrics.ObserveTranscribe(time.Since(start), err)
		if err != nil {
			h.metrics.MessageRejected(metrics.ReasonTranscribeFailed)
			h.log.Error().Err(err).Str("media_type", audio.MediaType).Msg("transcribe voice message")
			return Delivery{}, wrapCoreError(ErrCodeTranscribeFailed, "failed to transcribe voice message", err)
		}
		h.log.Info().Str("media_type", audio.MediaType).Int("chars", len(text)).Msg("voice message transcribed")
		msg = msg.WithBody(message.TextBody(text))
	}

	entry := Entry{Message: msg}
	if h.store != nil {
		rec, err := h.store.SaveMessage(ctx, msg)
		if err != nil {
			return Delivery{}, wrapCoreError(ErrCodeInternal, "failed to store message", err)
		}
		entry.ID = rec.ID
	}

	req := broadcastRequest{entry: entry, reply: make(chan int, 1)}
	select {
	case h.broadcast <- req:
	case <-h.done:
		return Delivery{}, ErrHubStopped
	case <-ctx.Done():
		return Delivery{}, ctx.Err()
	}

	n := <-req.reply
	h.metrics.MessagePublished(string(msg.Body().Kind()))
	h.log.Debug().Int64("id", entry.ID).Str("kind", string(msg.Body().Kind())).Int("subscribers", n).Msg("message published")

	return Delivery{Entry: entry, Subscribers: n}, nil
}

// History returns stored entries older than beforeID, oldest first.
func (h *Hub) History(ctx context.Context, beforeID *int64, limit int) ([]Entry, error) {
	if h.store == nil {
		return []Entry{}, nil
	}
	if limit <= 0 || limit > h.historyLimit {
		limit = h.historyLimit
	}
	records, err := h.store.ListMessages(ctx, limit, beforeID)
	if err != nil {
		return nil, wrapCoreError(ErrCodeInternal, "failed to load history", err)
	}
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, Entry{ID: rec.ID, Message: rec.Message})
	}
	return entries, nil
}

// pump executes commands for a single client until it is unregistered.
func (h *Hub) pump(ctx context.Context, c *Client) {
	for {
		select {
		case cmd := <-c.Commands:
			if cmd == nil {
				continue
			}
			switch cmd.Kind {
			case CommandPublish:
				if _, err := h.Publish(ctx, cmd.Message); err != nil {
					h.sendError(c, err)
				}
			case CommandHistory:
				h.sendHistory(ctx, c, cmd.BeforeID, cmd.Limit)
			default:
				h.sendError(c, coreError(ErrCodeBadRequest, "unknown command"))
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) sendHistory(ctx context.Context, c *Client, beforeID *int64, limit int) {
	if h.store == nil {
		return
	}
	entries, err := h.History(ctx, beforeID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("client_id", c.ID).Msg("load history")
		h.sendError(c, err)
		return
	}
	c.trySend(&Event{Kind: EventHistory, History: entries})
}

func (h *Hub) sendError(c *Client, err error) {
	if errors.Is(err, ErrHubStopped) || errors.Is(err, context.Canceled) {
		return
	}
	if !c.trySend(&Event{Kind: EventError, Error: AsCoreError(err)}) {
		h.log.Warn().Err(err).Str("client_id", c.ID).Msg("dropped error event")
	}
}

func (h *Hub) updateSubscribers() {
	n := h.room.Len()
	h.subscribers.Store(int64(n))
	h.metrics.SetSubscribers(n)
}
