// Package transcribe turns voice payloads into text.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/vovakirdan/voxrelay/internal/config"
	"github.com/vovakirdan/voxrelay/internal/message"
)

// ErrEmptyAudio is returned for voice payloads without any bytes.
var ErrEmptyAudio = errors.New("empty audio payload")

// Transcriber transcribes a voice data URL to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio message.DataURL) (string, error)
}

// Func adapts a function to Transcriber.
type Func func(ctx context.Context, audio message.DataURL) (string, error)

func (f Func) Transcribe(ctx context.Context, audio message.DataURL) (string, error) {
	return f(ctx, audio)
}

// New builds the transcriber selected by cfg. It returns nil when
// transcription is disabled.
func New(cfg config.TranscriberConfig) (Transcriber, error) {
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "openai":
		return NewOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("unknown transcriber provider %q", cfg.Provider)
	}
}

// FileName picks an upload file name whose extension matches the audio
// format. The payload is sniffed first; the declared media type is the fallback.
func FileName(audio message.DataURL, raw []byte) string {
	ext := ""
	if detected := mimetype.Detect(raw); !detected.Is("application/octet-stream") && !detected.Is("text/plain") {
		ext = detected.Extension()
	}
	if ext == "" {
		mediaType, _, _ := strings.Cut(audio.MediaType, ";")
		if declared := mimetype.Lookup(strings.TrimSpace(mediaType)); declared != nil {
			ext = declared.Extension()
		}
	}
	if ext == "" {
		ext = ".webm"
	}
	return "voice" + ext
}
