package message

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Encoding is the transfer encoding of a data URL payload.
type Encoding string

const (
	EncodingPlain  Encoding = "plain"
	EncodingBase64 Encoding = "base64"
)

const dataURLScheme = "data:"

// Valid reports whether e is one of the known encodings.
func (e Encoding) Valid() bool {
	return e == EncodingPlain || e == EncodingBase64
}

// DataURL is a decoded `data:` URL. Data is the raw payload substring and is
// never decoded at this layer.
type DataURL struct {
	MediaType string   `json:"media_type"`
	Encoding  Encoding `json:"encoding"`
	Data      string   `json:"data"`
}

// ParseDataURL parses data:<media-type>[;<encoding>]*,<payload>.
// It returns false for anything that is not a well-formed data URL,
// including encoding tokens other than "base64".
func ParseDataURL(s string) (DataURL, bool) {
	header, payload, found := strings.Cut(s, ",")
	if !found {
		return DataURL{}, false
	}

	rest, ok := strings.CutPrefix(header, dataURLScheme)
	if !ok {
		return DataURL{}, false
	}

	// Only the last ;token is significant.
	mediaType, params, hasParams := strings.Cut(rest, ";")
	token := ""
	if hasParams {
		segments := strings.Split(params, ";")
		token = segments[len(segments)-1]
	}

	enc, ok := encodingFromToken(token)
	if !ok {
		return DataURL{}, false
	}

	return DataURL{
		MediaType: mediaType,
		Encoding:  enc,
		Data:      payload,
	}, true
}

func encodingFromToken(token string) (Encoding, bool) {
	switch token {
	case "":
		return EncodingPlain, true
	case string(EncodingBase64):
		return EncodingBase64, true
	default:
		return "", false
	}
}

// String renders the data URL back into its textual form.
func (d DataURL) String() string {
	var b strings.Builder
	b.WriteString(dataURLScheme)
	b.WriteString(d.MediaType)
	if d.Encoding == EncodingBase64 {
		b.WriteString(";base64")
	}
	b.WriteByte(',')
	b.WriteString(d.Data)
	return b.String()
}

// Bytes returns the payload bytes, decoding base64 payloads.
func (d DataURL) Bytes() ([]byte, error) {
	switch d.Encoding {
	case EncodingPlain:
		return []byte(d.Data), nil
	case EncodingBase64:
		raw, err := base64.StdEncoding.DecodeString(d.Data)
		if err != nil {
			return nil, fmt.Errorf("decode base64 payload: %w", err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("unknown encoding %q", d.Encoding)
	}
}

// IsDataURL is a shape check over an untrusted value: decoded JSON objects
// as well as DataURL values are accepted.
func IsDataURL(v any) bool {
	switch d := v.(type) {
	case DataURL:
		return d.Encoding.Valid()
	case *DataURL:
		return d != nil && d.Encoding.Valid()
	case map[string]any:
		if _, ok := d["media_type"].(string); !ok {
			return false
		}
		if _, ok := d["data"].(string); !ok {
			return false
		}
		enc, ok := d["encoding"].(string)
		return ok && Encoding(enc).Valid()
	default:
		return false
	}
}
