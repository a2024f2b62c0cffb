// Package urlutil provides small URL helpers for the relay.
package urlutil

import (
	"net/url"
	"strings"
)

// Origin extracts scheme://host from a URL.
func Origin(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

// Absolutize turns a playlist file reference into an absolute URL. Values
// already carrying an http scheme pass through untouched; anything else is
// prefixed with the upstream origin by plain concatenation, preserving the
// reference's original encoding.
func Absolutize(ref, origin string) string {
	if strings.HasPrefix(ref, "http") {
		return ref
	}
	return origin + ref
}
