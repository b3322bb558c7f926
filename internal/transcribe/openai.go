package transcribe

import (
	"bytes"
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/vovakirdan/voxrelay/internal/config"
	"github.com/vovakirdan/voxrelay/internal/message"
)

// OpenAI transcribes audio using the OpenAI transcription API.
// Without an explicit key the SDK reads OPENAI_API_KEY.
type OpenAI struct {
	client   openai.Client
	model    string
	language string
}

func NewOpenAI(cfg config.TranscriberConfig, opts ...option.RequestOption) *OpenAI {
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	model := cfg.Model
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}
	return &OpenAI{
		client:   openai.NewClient(opts...),
		model:    model,
		language: cfg.Language,
	}
}

func (t *OpenAI) Transcribe(ctx context.Context, audio message.DataURL) (string, error) {
	raw, err := audio.Bytes()
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", ErrEmptyAudio
	}

	name := FileName(audio, raw)
	params := openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(t.model),
		File:  openai.File(bytes.NewReader(raw), name, audio.MediaType),
	}
	if t.language != "" {
		params.Language = openai.String(t.language)
	}

	transcription, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("transcribing %s (%d bytes): %w", name, len(raw), err)
	}

	return transcription.Text, nil
}
