package classify

import (
	"encoding/base64"
	"encoding/json"
	"reflect"
	"testing"
)

func TestClassify_Binary(t *testing.T) {
	tests := []struct {
		name       string
		input      []byte
		wantFormat string
	}{
		{
			name:       "jpeg magic bytes",
			input:      []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10},
			wantFormat: "image/jpeg",
		},
		{
			name:       "png magic bytes",
			input:      []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0x00},
			wantFormat: "image/png",
		},
		{
			name:       "gif87a header",
			input:      append([]byte("GIF87a"), 0x01, 0x02),
			wantFormat: "image/gif",
		},
		{
			name:       "gif89a header",
			input:      append([]byte("GIF89a"), 0x01, 0x02),
			wantFormat: "image/gif",
		},
		{
			name:       "mp4 ftyp box",
			input:      []byte{0x00, 0x00, 0x00, 0x1c, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm'},
			wantFormat: "video/mp4",
		},
		{
			name:       "webm ebml header",
			input:      []byte{0x1a, 0x45, 0xdf, 0xa3, 0x01},
			wantFormat: "video/webm",
		},
		{
			name:       "mp3 id3 tag",
			input:      append([]byte("ID3"), 0x03, 0x00),
			wantFormat: "audio/mpeg",
		},
		{
			name:       "mp3 frame sync ff fb",
			input:      []byte{0xff, 0xfb, 0x90, 0x00},
			wantFormat: "audio/mpeg",
		},
		{
			name:       "mp3 frame sync ff f3",
			input:      []byte{0xff, 0xf3, 0x90, 0x00},
			wantFormat: "audio/mpeg",
		},
		{
			name:       "unknown binary defaults to octet-stream",
			input:      []byte{0x01, 0x02, 0x03, 0x04},
			wantFormat: "application/octet-stream",
		},
		{
			name:       "text with embedded nul",
			input:      []byte("hello\x00world"),
			wantFormat: "application/octet-stream",
		},
		{
			name:       "text with delete character",
			input:      []byte("hello\x7fworld"),
			wantFormat: "application/octet-stream",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Classify(tt.input)
			b, ok := p.(Binary)
			if !ok {
				t.Fatalf("Classify() = %T, want Binary", p)
			}
			if b.Format != tt.wantFormat {
				t.Errorf("Format = %q, want %q", b.Format, tt.wantFormat)
			}

			decoded, err := base64.StdEncoding.DecodeString(b.Data)
			if err != nil {
				t.Fatalf("base64 decode: %v", err)
			}
			if !reflect.DeepEqual(decoded, tt.input) {
				t.Errorf("base64 round-trip = %v, want %v", decoded, tt.input)
			}
		})
	}
}

func TestClassify_InvalidUTF8(t *testing.T) {
	// 0xC3 with no continuation byte is invalid UTF-8 but not in the
	// control-byte sniff set.
	input := []byte{'a', 'b', 0xc3}

	p := Classify(input)
	b, ok := p.(Binary)
	if !ok {
		t.Fatalf("Classify() = %T, want Binary", p)
	}
	if b.Format != "application/octet-stream" {
		t.Errorf("Format = %q, want application/octet-stream", b.Format)
	}
}

func TestClassify_JSON(t *testing.T) {
	input := []byte(`{"sources":[{"file":"/x.m3u8","label":"HD"}],"count":1}`)

	p := Classify(input)
	j, ok := p.(JSON)
	if !ok {
		t.Fatalf("Classify() = %T, want JSON", p)
	}

	var got, want any
	if err := json.Unmarshal(j.Value, &got); err != nil {
		t.Fatalf("unmarshal classified value: %v", err)
	}
	if err := json.Unmarshal(input, &want); err != nil {
		t.Fatalf("unmarshal input: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("classified JSON = %v, want %v", got, want)
	}
}

func TestClassify_Text(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"empty body", nil, ""},
		{"zero-length body", []byte{}, ""},
		{"plain text", []byte("404 Not Found"), "404 Not Found"},
		{"broken json falls back to text", []byte(`{"a":`), `{"a":`},
		{"html page", []byte("<html><body>Access denied</body></html>"), "<html><body>Access denied</body></html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Classify(tt.input)
			txt, ok := p.(Text)
			if !ok {
				t.Fatalf("Classify() = %T, want Text", p)
			}
			if txt.Value != tt.want {
				t.Errorf("Value = %q, want %q", txt.Value, tt.want)
			}
		})
	}
}

func TestReduce(t *testing.T) {
	tests := []struct {
		name string
		in   Payload
		want Payload
	}{
		{
			name: "singleton array unwraps to first element",
			in:   JSON{Value: json.RawMessage(`[{"a":1}]`)},
			want: JSON{Value: json.RawMessage(`{"a":1}`)},
		},
		{
			name: "multi-element array keeps first element only",
			in:   JSON{Value: json.RawMessage(`[{"a":1},{"a":2}]`)},
			want: JSON{Value: json.RawMessage(`{"a":1}`)},
		},
		{
			name: "empty array unchanged",
			in:   JSON{Value: json.RawMessage(`[]`)},
			want: JSON{Value: json.RawMessage(`[]`)},
		},
		{
			name: "object unchanged",
			in:   JSON{Value: json.RawMessage(`{"a":1}`)},
			want: JSON{Value: json.RawMessage(`{"a":1}`)},
		},
		{
			name: "text unchanged",
			in:   Text{Value: "plain"},
			want: Text{Value: "plain"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(tt.in)
			gj, gok := got.(JSON)
			wj, wok := tt.want.(JSON)
			if gok != wok {
				t.Fatalf("Reduce() = %T, want %T", got, tt.want)
			}
			if gok {
				var gv, wv any
				json.Unmarshal(gj.Value, &gv)
				json.Unmarshal(wj.Value, &wv)
				if !reflect.DeepEqual(gv, wv) {
					t.Errorf("Reduce() = %s, want %s", gj.Value, wj.Value)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Reduce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPayload_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   Payload
		want string
	}{
		{
			name: "binary payload",
			in:   Binary{Format: "image/png", Data: "aGk="},
			want: `{"type":"binary","format":"image/png","data":"aGk="}`,
		},
		{
			name: "json payload",
			in:   JSON{Value: json.RawMessage(`{"a":1}`)},
			want: `{"type":"json","data":{"a":1}}`,
		},
		{
			name: "text payload",
			in:   Text{Value: "hello"},
			want: `{"type":"text","data":"hello"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.in)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("marshal = %s, want %s", got, tt.want)
			}
		})
	}
}
