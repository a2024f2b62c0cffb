package credentials

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"netfree-relay-go/pkg/identity"
	"netfree-relay-go/pkg/logging"
	"netfree-relay-go/pkg/metrics"
)

// RefreshOutcome reports one refresh attempt. Cookie is always usable: the
// freshly minted string on success, the cached default otherwise. Err holds
// the cause when Refreshed is false so callers decide how to log it.
type RefreshOutcome struct {
	Cookie    string
	Refreshed bool
	Err       error
}

// Refresher mints new session cookies by visiting the upstream homepage
// with browser-like headers and serializing whatever the session
// accumulates. Best effort: every failure path degrades to the default
// cookie, never to an error.
type Refresher struct {
	homeURL   string
	cache     *Cache
	chooser   identity.Chooser
	transport http.RoundTripper
	timeout   time.Duration
	log       *logging.Logger
}

// NewRefresher creates a refresher for the given upstream base URL. The
// transport should carry the browser TLS fingerprint; each refresh runs
// its own cookie jar on top of it.
func NewRefresher(baseURL string, cache *Cache, chooser identity.Chooser, transport http.RoundTripper, timeout time.Duration, log *logging.Logger) *Refresher {
	return &Refresher{
		homeURL:   strings.TrimSuffix(baseURL, "/") + "/home",
		cache:     cache,
		chooser:   chooser,
		transport: transport,
		timeout:   timeout,
		log:       log.WithComponent("refresher"),
	}
}

// Refresh visits the upstream homepage and stores the resulting cookie
// string into the latest slot. On any failure the latest slot is left
// untouched and the default cookie is returned.
func (r *Refresher) Refresh(ctx context.Context) RefreshOutcome {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return r.fail(err)
	}

	client := &http.Client{
		Jar:       jar,
		Transport: r.transport,
		Timeout:   r.timeout,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.homeURL, nil)
	if err != nil {
		return r.fail(err)
	}
	r.setHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		return r.fail(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		r.log.Warn("homepage visit returned non-200", "status", resp.StatusCode)
		metrics.CookieRefreshes.WithLabelValues("failure").Inc()
		return RefreshOutcome{Cookie: r.cache.Default(), Err: fmt.Errorf("homepage returned status %d", resp.StatusCode)}
	}

	cookie := serializeCookies(jar, r.homeURL)
	r.cache.SetLatest(cookie)
	r.log.Info("obtained fresh cookies", "cookie_length", len(cookie))
	metrics.CookieRefreshes.WithLabelValues("success").Inc()

	return RefreshOutcome{Cookie: cookie, Refreshed: true}
}

func (r *Refresher) fail(err error) RefreshOutcome {
	r.log.Warn("cookie refresh failed", "error", err)
	metrics.CookieRefreshes.WithLabelValues("failure").Inc()
	return RefreshOutcome{Cookie: r.cache.Default(), Err: err}
}

// setHeaders applies a browser homepage-navigation header profile with a
// rotated user agent.
func (r *Refresher) setHeaders(req *http.Request) {
	id := r.chooser.Choose()
	req.Header.Set("User-Agent", id.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")
	req.Header.Set("DNT", "1")
}

// serializeCookies flattens the jar's cookies for the given URL into a
// single "k=v; k=v" header value.
func serializeCookies(jar http.CookieJar, rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	cookies := jar.Cookies(u)
	parts := make([]string, 0, len(cookies))
	for _, ck := range cookies {
		parts = append(parts, ck.Name+"="+ck.Value)
	}
	return strings.Join(parts, "; ")
}
