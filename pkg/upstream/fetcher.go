package upstream

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	"netfree-relay-go/pkg/credentials"
	"netfree-relay-go/pkg/identity"
	"netfree-relay-go/pkg/logging"
	"netfree-relay-go/pkg/types"
)

// Fetcher issues the single playlist request with a rotated identity and
// the resolved cookies. No retries here; the relay service owns those.
type Fetcher struct {
	baseURL string
	client  *Client
	chooser identity.Chooser
	cache   *credentials.Cache
	log     *logging.Logger
}

// NewFetcher creates a fetcher against the given upstream base URL.
func NewFetcher(baseURL string, client *Client, chooser identity.Chooser, cache *credentials.Cache, log *logging.Logger) *Fetcher {
	return &Fetcher{
		baseURL: baseURL,
		client:  client,
		chooser: chooser,
		cache:   cache,
		log:     log.WithComponent("fetcher"),
	}
}

// Fetch performs one playlist request and maps the result into a
// FetchOutcome: upstream status and body on success, synthetic status codes
// for transport failures (408 timeout, 503 connection failure, 0 other).
func (f *Fetcher) Fetch(ctx context.Context, freq types.FetchRequest) types.FetchOutcome {
	target := f.playlistURL(freq)
	id := f.chooser.Choose()
	f.log.Info("fetching playlist", "url", target, "proxy", id.ProxyURL, "fresh", freq.FreshCookies)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return types.FetchOutcome{StatusCode: 0, TransportError: err.Error()}
	}
	f.setHeaders(req, freq, id)

	resp, err := f.client.Do(req, id.ProxyURL)
	if err != nil {
		return mapTransportError(err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return types.FetchOutcome{StatusCode: 0, TransportError: "reading response body: " + err.Error()}
	}

	f.log.Info("playlist response", "status", resp.StatusCode, "bytes", len(body))
	return types.FetchOutcome{StatusCode: resp.StatusCode, Body: body}
}

func (f *Fetcher) playlistURL(freq types.FetchRequest) string {
	q := url.Values{}
	q.Set("id", freq.ContentID)
	q.Set("t", freq.Title)
	q.Set("tm", freq.TM)
	return f.baseURL + "/playlist.php?" + q.Encode()
}

// setHeaders applies the XHR-style header profile the site's own player
// sends for playlist requests.
func (f *Fetcher) setHeaders(req *http.Request, freq types.FetchRequest, id identity.Identity) {
	req.Header.Set("User-Agent", id.UserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("DNT", "1")
	req.Header.Set("Referer", f.baseURL+"/home")
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	req.Header.Set("TE", "trailers")

	if freq.FreshCookies {
		if freq.Cookie != "" {
			req.Header.Set("Cookie", freq.Cookie)
		}
		return
	}
	req.Header.Set("Cookie", f.cache.Default())
}

func mapTransportError(err error) types.FetchOutcome {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return types.FetchOutcome{StatusCode: http.StatusRequestTimeout, TransportError: "Request timed out"}
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return types.FetchOutcome{StatusCode: http.StatusServiceUnavailable, TransportError: "Connection error: " + err.Error()}
	}

	return types.FetchOutcome{StatusCode: 0, TransportError: err.Error()}
}
