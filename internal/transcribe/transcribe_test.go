package transcribe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/voxrelay/internal/config"
	"github.com/vovakirdan/voxrelay/internal/message"
)

func TestNewSelectsProvider(t *testing.T) {
	tr, err := New(config.TranscriberConfig{Provider: "none"})
	require.NoError(t, err)
	assert.Nil(t, tr)

	tr, err = New(config.TranscriberConfig{Provider: "openai", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, tr)

	_, err = New(config.TranscriberConfig{Provider: "google"})
	require.Error(t, err)
}

func TestFileName(t *testing.T) {
	wav := []byte("RIFF\x24\x00\x00\x00WAVEfmt ")
	assert.Equal(t, "voice.wav", FileName(message.DataURL{MediaType: "audio/webm"}, wav))

	assert.Equal(t, "voice.mp3", FileName(message.DataURL{MediaType: "audio/mpeg"}, []byte{0x00, 0x01}))
	assert.Equal(t, "voice.webm", FileName(message.DataURL{MediaType: "application/x-unknown"}, []byte{0x00}))
}

func TestOpenAITranscribe(t *testing.T) {
	var gotPath, gotLanguage, gotFile string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		gotLanguage = r.FormValue("language")
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		body, _ := io.ReadAll(f)
		gotFile = hdr.Filename + ":" + string(body)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "こんにちは"})
	}))
	defer srv.Close()

	tr := NewOpenAI(
		config.TranscriberConfig{Model: "whisper-1", Language: "ja", APIKey: "test"},
		option.WithBaseURL(srv.URL+"/"),
		option.WithMaxRetries(0),
	)

	text, err := tr.Transcribe(context.Background(), message.DataURL{
		MediaType: "audio/mpeg",
		Encoding:  message.EncodingPlain,
		Data:      "\x00\x01",
	})
	require.NoError(t, err)
	assert.Equal(t, "こんにちは", text)
	assert.True(t, strings.HasSuffix(gotPath, "/audio/transcriptions"), gotPath)
	assert.Equal(t, "ja", gotLanguage)
	assert.Equal(t, "voice.mp3:\x00\x01", gotFile)
}

func TestOpenAITranscribeRejectsEmptyAudio(t *testing.T) {
	tr := NewOpenAI(config.TranscriberConfig{APIKey: "test"})

	_, err := tr.Transcribe(context.Background(), message.DataURL{Encoding: message.EncodingBase64})
	require.ErrorIs(t, err, ErrEmptyAudio)

	_, err = tr.Transcribe(context.Background(), message.DataURL{Encoding: message.EncodingBase64, Data: "%%"})
	require.Error(t, err)
}

func TestFuncAdapter(t *testing.T) {
	var tr Transcriber = Func(func(_ context.Context, audio message.DataURL) (string, error) {
		return audio.MediaType, nil
	})
	text, err := tr.Transcribe(context.Background(), message.DataURL{MediaType: "audio/ogg"})
	require.NoError(t, err)
	assert.Equal(t, "audio/ogg", text)
}
