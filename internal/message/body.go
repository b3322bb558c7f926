package message

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind discriminates the content of a Body.
type Kind string

const (
	KindText  Kind = "text"
	KindVoice Kind = "voice"
)

var (
	ErrUnknownKind     = errors.New("unknown body type")
	ErrContentMismatch = errors.New("content does not match body type")
)

// Body is a tagged union: either Text(string) or Voice(DataURL).
// The zero value holds neither and is only seen on bodies that were never built.
type Body struct {
	kind  Kind
	text  string
	voice DataURL
}

// TextBody builds a text variant.
func TextBody(text string) Body {
	return Body{kind: KindText, text: text}
}

// VoiceBody builds a voice variant.
func VoiceBody(d DataURL) Body {
	return Body{kind: KindVoice, voice: d}
}

func (b Body) Kind() Kind { return b.kind }

// Text returns the text content when b is a text variant.
func (b Body) Text() (string, bool) {
	return b.text, b.kind == KindText
}

// Voice returns the data URL when b is a voice variant.
func (b Body) Voice() (DataURL, bool) {
	return b.voice, b.kind == KindVoice
}

type bodyJSON struct {
	Type    Kind            `json:"type"`
	Content json.RawMessage `json:"content"`
}

func (b Body) MarshalJSON() ([]byte, error) {
	var content any
	switch b.kind {
	case KindText:
		content = b.text
	case KindVoice:
		content = b.voice
	default:
		return nil, ErrUnknownKind
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(bodyJSON{Type: b.kind, Content: raw})
}

// UnmarshalJSON rejects bodies whose content shape disagrees with the type.
func (b *Body) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if !IsMessageBody(raw) {
		if kind, _ := raw["type"].(string); Kind(kind).valid() {
			return ErrContentMismatch
		}
		return ErrUnknownKind
	}
	*b = bodyFromMap(raw)
	return nil
}

func (k Kind) valid() bool {
	return k == KindText || k == KindVoice
}

// bodyFromMap assumes raw already passed IsMessageBody.
func bodyFromMap(raw map[string]any) Body {
	if Kind(raw["type"].(string)) == KindText {
		return TextBody(raw["content"].(string))
	}
	content := raw["content"].(map[string]any)
	return VoiceBody(DataURL{
		MediaType: content["media_type"].(string),
		Encoding:  Encoding(content["encoding"].(string)),
		Data:      content["data"].(string),
	})
}

// IsMessageBody checks an untrusted value for a well-formed body:
// "text" requires string content and "voice" requires a data URL.
func IsMessageBody(v any) bool {
	switch b := v.(type) {
	case Body:
		return b.kind.valid()
	case *Body:
		return b != nil && b.kind.valid()
	case map[string]any:
		kind, ok := b["type"].(string)
		if !ok {
			return false
		}
		switch Kind(kind) {
		case KindText:
			_, ok := b["content"].(string)
			return ok
		case KindVoice:
			_, isMap := b["content"].(map[string]any)
			return isMap && IsDataURL(b["content"])
		}
		return false
	default:
		return false
	}
}

// IsMessageBodyLoose accepts a known type with either content shape,
// without checking that the two agree.
func IsMessageBodyLoose(v any) bool {
	b, ok := v.(map[string]any)
	if !ok {
		return IsMessageBody(v)
	}
	kind, ok := b["type"].(string)
	if !ok || !Kind(kind).valid() {
		return false
	}
	if _, ok := b["content"].(string); ok {
		return true
	}
	return IsDataURL(b["content"])
}
