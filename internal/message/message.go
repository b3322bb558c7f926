package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// VoicePlaceholder is the text projection of a voice message.
const VoicePlaceholder = "**voice-data**"

// ISO-8601 date-time without an offset.
const naiveTimestampLayout = "2006-01-02T15:04:05.999999999"

var ErrInvalidMessage = errors.New("invalid message")

// Message is an immutable chat message: a body plus its ISO-8601 creation time.
type Message struct {
	body      Body
	timestamp string
}

// Factory builds messages stamped by its clock.
type Factory struct {
	clock clock.Clock
}

// NewFactory returns a factory using c, or the wall clock when c is nil.
func NewFactory(c clock.Clock) *Factory {
	if c == nil {
		c = clock.New()
	}
	return &Factory{clock: c}
}

var defaultFactory = NewFactory(nil)

// FromPlainText builds a text message. Any string is accepted.
func (f *Factory) FromPlainText(text string) Message {
	return Message{body: TextBody(text), timestamp: FormatTimestamp(f.clock.Now())}
}

// FromVoiceDataURL builds a voice message from a data URL string.
// It returns false when dataURL is not a valid data URL.
func (f *Factory) FromVoiceDataURL(dataURL string) (Message, bool) {
	d, ok := ParseDataURL(dataURL)
	if !ok {
		return Message{}, false
	}
	return Message{body: VoiceBody(d), timestamp: FormatTimestamp(f.clock.Now())}, true
}

// FromBody builds a message carrying b. It returns false when b was never
// built with TextBody or VoiceBody.
func (f *Factory) FromBody(b Body) (Message, bool) {
	if !IsMessageBody(b) {
		return Message{}, false
	}
	return Message{body: b, timestamp: FormatTimestamp(f.clock.Now())}, true
}

// FromPlainText builds a text message stamped with the current time.
func FromPlainText(text string) Message {
	return defaultFactory.FromPlainText(text)
}

// FromVoiceDataURL builds a voice message stamped with the current time.
func FromVoiceDataURL(dataURL string) (Message, bool) {
	return defaultFactory.FromVoiceDataURL(dataURL)
}

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts RFC 3339 instants and offset-less date-times,
// the latter interpreted in the local time zone.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(naiveTimestampLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func (m Message) Body() Body { return m.body }

// Timestamp returns the canonical ISO-8601 creation time.
func (m Message) Timestamp() string { return m.timestamp }

// Time returns the parsed timestamp.
func (m Message) Time() (time.Time, error) {
	return ParseTimestamp(m.timestamp)
}

// WithTimestamp returns a copy of m stamped with t.
func (m Message) WithTimestamp(t time.Time) Message {
	return Message{body: m.body, timestamp: FormatTimestamp(t)}
}

// WithBody returns a copy of m carrying b and the same timestamp.
func (m Message) WithBody(b Body) Message {
	return Message{body: b, timestamp: m.timestamp}
}

// Text is a best-effort human readable projection. It never fails.
func (m Message) Text() string {
	if text, ok := m.body.Text(); ok {
		return text
	}
	if m.body.Kind() == KindVoice {
		return VoicePlaceholder
	}
	return "undefined"
}

// TimestampString renders the timestamp in the local time zone using the
// environment's locale. For display only.
func (m Message) TimestampString() string {
	return m.TimestampStringIn(DefaultLocale())
}

// TimestampStringIn renders the timestamp in the local time zone with loc.
func (m Message) TimestampStringIn(loc Locale) string {
	t, err := ParseTimestamp(m.timestamp)
	if err != nil {
		return m.timestamp
	}
	return loc.Format(t.Local())
}

type messageJSON struct {
	Body      Body   `json:"body"`
	Timestamp string `json:"timestamp"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(messageJSON{Body: m.body, Timestamp: m.timestamp})
}

func (m *Message) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*m = decoded
	return nil
}

// Decode rebuilds a Message from untrusted JSON after full structural validation.
func Decode(data []byte) (Message, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return FromValue(raw)
}

// FromValue rebuilds a Message from an already decoded JSON value.
func FromValue(v any) (Message, error) {
	if !IsMessage(v) {
		return Message{}, ErrInvalidMessage
	}
	obj := v.(map[string]any)
	return Message{
		body:      bodyFromMap(obj["body"].(map[string]any)),
		timestamp: obj["timestamp"].(string),
	}, nil
}

// IsMessageShallow checks only that v has a string body and a string timestamp.
func IsMessageShallow(v any) bool {
	obj, ok := v.(map[string]any)
	if !ok {
		return false
	}
	if _, ok := obj["body"].(string); !ok {
		return false
	}
	_, ok = obj["timestamp"].(string)
	return ok
}

// IsMessage checks full structural well-formedness of v, including the
// nested tagged body and a parseable timestamp.
func IsMessage(v any) bool {
	switch m := v.(type) {
	case Message:
		return m.valid()
	case *Message:
		return m != nil && m.valid()
	case map[string]any:
		ts, ok := m["timestamp"].(string)
		if !ok {
			return false
		}
		if _, err := ParseTimestamp(ts); err != nil {
			return false
		}
		body, ok := m["body"].(map[string]any)
		return ok && IsMessageBody(body)
	default:
		return false
	}
}

func (m Message) valid() bool {
	if !IsMessageBody(m.body) {
		return false
	}
	_, err := ParseTimestamp(m.timestamp)
	return err == nil
}
