// Package classify turns raw upstream response bytes into a typed payload:
// binary (with media-format sniffing), parsed JSON, or plain text.
package classify

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"unicode/utf8"
)

// Payload is the classified form of an upstream response body.
// Exactly one concrete variant (Binary, JSON or Text) backs each value.
type Payload interface {
	// Kind returns "binary", "json" or "text".
	Kind() string

	isPayload()
}

// Binary holds a base64-encoded body that contained non-printable bytes
// or was not valid UTF-8.
type Binary struct {
	Format string // sniffed media type, e.g. "image/png"
	Data   string // base64 of the raw bytes
}

// JSON holds a body that parsed as a JSON document.
type JSON struct {
	Value json.RawMessage
}

// Text holds a body that decoded as UTF-8 but was not JSON.
type Text struct {
	Value string
}

func (Binary) isPayload() {}
func (JSON) isPayload()   {}
func (Text) isPayload()   {}

func (Binary) Kind() string { return "binary" }
func (JSON) Kind() string   { return "json" }
func (Text) Kind() string   { return "text" }

func (b Binary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   string `json:"type"`
		Format string `json:"format"`
		Data   string `json:"data"`
	}{"binary", b.Format, b.Data})
}

func (j JSON) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}{"json", j.Value})
}

func (t Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Data string `json:"data"`
	}{"text", t.Value})
}

// magicPrefix maps leading byte sequences to media types, checked in order.
type magicPrefix struct {
	prefix []byte
	format string
}

var magicPrefixes = []magicPrefix{
	{[]byte{0xff, 0xd8}, "image/jpeg"},
	{[]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, "image/png"},
	{[]byte("GIF87a"), "image/gif"},
	{[]byte("GIF89a"), "image/gif"},
	{[]byte{0x00, 0x00, 0x00, 0x1c, 'f', 't', 'y', 'p'}, "video/mp4"},
	{[]byte{0x1a, 0x45, 0xdf, 0xa3}, "video/webm"},
	{[]byte("ID3"), "audio/mpeg"},
	{[]byte{0xff, 0xfb}, "audio/mpeg"},
	{[]byte{0xff, 0xf3}, "audio/mpeg"},
}

// SniffFormat guesses a media type from the leading bytes of a binary body.
func SniffFormat(data []byte) string {
	for _, m := range magicPrefixes {
		if bytes.HasPrefix(data, m.prefix) {
			return m.format
		}
	}
	return "application/octet-stream"
}

// hasControlBytes reports whether data contains a control character outside
// the printable/whitespace range (0x00-0x08, 0x0B, 0x0C, 0x0E-0x1F, 0x7F).
func hasControlBytes(data []byte) bool {
	for _, b := range data {
		switch {
		case b <= 0x08, b == 0x0b, b == 0x0c, b >= 0x0e && b <= 0x1f, b == 0x7f:
			return true
		}
	}
	return false
}

// Classify inspects a raw body and returns its typed payload. The control
// byte scan runs before any decode attempt so binary payloads never leak
// through as garbled text. Pure function of its input.
func Classify(raw []byte) Payload {
	if len(raw) == 0 {
		return Text{}
	}

	if hasControlBytes(raw) {
		return Binary{
			Format: SniffFormat(raw),
			Data:   base64.StdEncoding.EncodeToString(raw),
		}
	}

	if !utf8.Valid(raw) {
		return Binary{
			Format: "application/octet-stream",
			Data:   base64.StdEncoding.EncodeToString(raw),
		}
	}

	if json.Valid(raw) {
		return JSON{Value: append(json.RawMessage(nil), raw...)}
	}

	return Text{Value: string(raw)}
}

// Reduce unwraps a JSON payload whose value is a non-empty array to its
// first element. The upstream sometimes wraps a single playlist object in a
// singleton array; everything else passes through unchanged.
func Reduce(p Payload) Payload {
	j, ok := p.(JSON)
	if !ok {
		return p
	}

	trimmed := bytes.TrimSpace(j.Value)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return p
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil || len(elems) == 0 {
		return p
	}
	return JSON{Value: elems[0]}
}
