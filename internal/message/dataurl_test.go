package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataURL(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   DataURL
		wantOK bool
	}{
		{
			name:   "base64 audio",
			input:  "data:audio/webm;base64,AAA=",
			want:   DataURL{MediaType: "audio/webm", Encoding: EncodingBase64, Data: "AAA="},
			wantOK: true,
		},
		{
			name:   "plain text without encoding token",
			input:  "data:text/plain,hello",
			want:   DataURL{MediaType: "text/plain", Encoding: EncodingPlain, Data: "hello"},
			wantOK: true,
		},
		{
			name:   "empty media type",
			input:  "data:,hello",
			want:   DataURL{MediaType: "", Encoding: EncodingPlain, Data: "hello"},
			wantOK: true,
		},
		{
			name:   "commas in payload are kept",
			input:  "data:text/csv,a,b,c",
			want:   DataURL{MediaType: "text/csv", Encoding: EncodingPlain, Data: "a,b,c"},
			wantOK: true,
		},
		{
			name:   "empty payload",
			input:  "data:audio/wav;base64,",
			want:   DataURL{MediaType: "audio/wav", Encoding: EncodingBase64, Data: ""},
			wantOK: true,
		},
		{
			name:   "last parameter wins",
			input:  "data:audio/webm;codecs=opus;base64,AAA=",
			want:   DataURL{MediaType: "audio/webm", Encoding: EncodingBase64, Data: "AAA="},
			wantOK: true,
		},
		{
			name:   "trailing semicolon is plain",
			input:  "data:text/plain;,hi",
			want:   DataURL{MediaType: "text/plain", Encoding: EncodingPlain, Data: "hi"},
			wantOK: true,
		},
		{
			name:   "not a data url",
			input:  "not-a-data-url",
			wantOK: false,
		},
		{
			name:   "missing scheme",
			input:  "audio/webm;base64,AAA=",
			wantOK: false,
		},
		{
			name:   "missing comma",
			input:  "data:audio/webm;base64",
			wantOK: false,
		},
		{
			// Unknown tokens fail instead of defaulting to plain.
			name:   "unknown encoding token",
			input:  "data:audio/webm;gzip,AAA=",
			wantOK: false,
		},
		{
			name:   "parameter only",
			input:  "data:text/plain;charset=utf-8,hi",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDataURL(tt.input)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDataURLStringRoundTrip(t *testing.T) {
	for _, input := range []string{
		"data:audio/webm;base64,AAA=",
		"data:text/plain,hello, world",
		"data:,",
	} {
		d, ok := ParseDataURL(input)
		require.True(t, ok, input)
		assert.Equal(t, input, d.String())
	}
}

func TestDataURLBytes(t *testing.T) {
	plain := DataURL{MediaType: "text/plain", Encoding: EncodingPlain, Data: "héllo"}
	raw, err := plain.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("héllo"), raw)

	encoded := DataURL{MediaType: "audio/wav", Encoding: EncodingBase64, Data: "UklGRg=="}
	raw, err = encoded.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF"), raw)

	_, err = DataURL{Encoding: EncodingBase64, Data: "%%%"}.Bytes()
	require.Error(t, err)

	_, err = DataURL{Encoding: "gzip"}.Bytes()
	require.Error(t, err)
}

func TestIsDataURL(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  bool
	}{
		{"plain map", map[string]any{"media_type": "x", "encoding": "plain", "data": "y"}, true},
		{"base64 map", map[string]any{"media_type": "", "encoding": "base64", "data": ""}, true},
		{"unknown encoding", map[string]any{"media_type": "x", "encoding": "gzip", "data": "y"}, false},
		{"missing media type", map[string]any{"encoding": "plain", "data": "y"}, false},
		{"numeric data", map[string]any{"media_type": "x", "encoding": "plain", "data": 1.0}, false},
		{"typed value", DataURL{Encoding: EncodingPlain}, true},
		{"typed value bad encoding", DataURL{Encoding: "zip"}, false},
		{"nil pointer", (*DataURL)(nil), false},
		{"string", "data:,x", false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDataURL(tt.input))
		})
	}
}

// FuzzParseDataURL checks that parsing never panics and that accepted inputs
// re-render to an equivalent data URL.
// Run with: go test -fuzz=FuzzParseDataURL -fuzztime=30s ./internal/message/
func FuzzParseDataURL(f *testing.F) {
	f.Add("data:audio/webm;base64,AAA=")
	f.Add("data:text/plain,hello")
	f.Add("data:,")
	f.Add("data:;;;,")
	f.Add("not-a-data-url")
	f.Add("")

	f.Fuzz(func(t *testing.T, input string) {
		d, ok := ParseDataURL(input)
		if !ok {
			return
		}
		if !d.Encoding.Valid() {
			t.Fatalf("invalid encoding %q from %q", d.Encoding, input)
		}
		again, ok := ParseDataURL(d.String())
		if !ok || again != d {
			t.Fatalf("re-parse mismatch: %+v vs %+v", d, again)
		}
	})
}
