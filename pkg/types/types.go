// Package types defines the core domain types shared across the relay.
package types

import "netfree-relay-go/pkg/classify"

// FetchRequest describes a single upstream playlist fetch.
type FetchRequest struct {
	ContentID    string
	Title        string
	TM           string
	FreshCookies bool

	// Cookie carries the resolved fresh-cookie string when FreshCookies is
	// set. The coordinator fills it in; the fetcher never consults the
	// cache for the fresh slot itself.
	Cookie string
}

// FetchOutcome is the tri-state result of one upstream request: status code,
// raw body bytes, and a transport error description. Transport failures are
// mapped to synthetic status codes (408 timeout, 503 connection failure,
// 0 anything else) instead of Go errors so the pipeline stays uniform.
type FetchOutcome struct {
	StatusCode     int
	Body           []byte
	TransportError string
}

// Failed reports whether the outcome carries a transport error.
func (o FetchOutcome) Failed() bool {
	return o.TransportError != ""
}

// Status is the logical status block of an envelope.
type Status struct {
	Code    int    `json:"code"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Envelope is the normalized response returned to API callers: the logical
// status plus the classified payload.
type Envelope struct {
	Status Status           `json:"status"`
	Data   classify.Payload `json:"data"`
}

// StreamingSource is one HLS variant extracted from a playlist document.
type StreamingSource struct {
	Quality string `json:"quality"`
	URL     string `json:"url"`
	Type    string `json:"type"`
	Default bool   `json:"default"`
}

// HLSResponse is the wire shape of the /hls/ endpoint.
type HLSResponse struct {
	HLSURLs []StreamingSource `json:"hls_urls"`
}
