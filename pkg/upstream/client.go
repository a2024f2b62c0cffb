// Package upstream talks to the content site: a browser-fingerprint HTTP
// client with per-request proxy routing, and the playlist fetcher built on
// top of it.
package upstream

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"netfree-relay-go/pkg/logging"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
	"golang.org/x/net/proxy"
)

// Client routes upstream requests either directly through a browser-like
// TLS fingerprint or through one of the rotating proxy endpoints.
type Client struct {
	direct       *http.Client
	proxyClients map[string]*http.Client
	mu           sync.RWMutex
	timeout      time.Duration
	log          *logging.Logger
}

// NewClient creates a client with the given per-request timeout.
func NewClient(timeout time.Duration, log *logging.Logger) *Client {
	return &Client{
		direct: &http.Client{
			Transport: newBrowserRoundTripper(),
			Timeout:   timeout,
		},
		proxyClients: make(map[string]*http.Client),
		timeout:      timeout,
		log:          log.WithComponent("upstream"),
	}
}

// Do executes the request, through proxyURL when non-empty, directly with
// the browser TLS fingerprint otherwise.
func (c *Client) Do(req *http.Request, proxyURL string) (*http.Response, error) {
	return c.clientFor(proxyURL).Do(req)
}

// DirectTransport exposes the browser-fingerprint round tripper so the
// cookie refresher can layer its own jar on top.
func (c *Client) DirectTransport() http.RoundTripper {
	return c.direct.Transport
}

func (c *Client) clientFor(proxyURL string) *http.Client {
	if proxyURL == "" {
		return c.direct
	}

	c.mu.RLock()
	if client, ok := c.proxyClients[proxyURL]; ok {
		c.mu.RUnlock()
		return client
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if client, ok := c.proxyClients[proxyURL]; ok {
		return client
	}

	client := c.createProxyClient(proxyURL)
	c.proxyClients[proxyURL] = client
	c.log.Debug("created proxy client", "proxy", proxyURL)

	return client
}

func (c *Client) createProxyClient(proxyURL string) *http.Client {
	transport := &http.Transport{
		DialContext:           ipv4DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   c.timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	parsedURL, err := url.Parse(proxyURL)
	if err != nil {
		c.log.Error("failed to parse proxy URL", "url", proxyURL, "error", err)
		return c.direct
	}

	switch parsedURL.Scheme {
	case "socks5", "socks5h":
		dialer, err := proxy.FromURL(parsedURL, proxy.Direct)
		if err != nil {
			c.log.Error("failed to create SOCKS5 dialer", "error", err)
			return c.direct
		}
		if contextDialer, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = contextDialer.DialContext
		} else {
			transport.Dial = dialer.Dial
		}
	case "http", "https":
		transport.Proxy = http.ProxyURL(parsedURL)
	default:
		c.log.Warn("unsupported proxy scheme", "scheme", parsedURL.Scheme)
		return c.direct
	}

	return &http.Client{
		Transport: transport,
		Timeout:   c.timeout,
	}
}

// ipv4DialContext forces IPv4-only connections; the proxy pool entries are
// IPv4 endpoints and some of them misbehave over IPv6.
func ipv4DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	if network == "tcp" {
		network = "tcp4"
	}
	d := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 60 * time.Second,
	}
	return d.DialContext(ctx, network, addr)
}

// browserRoundTripper implements http.RoundTripper with a Chrome TLS
// fingerprint and HTTP/2 support, so direct connections look like a real
// browser at the TLS layer too.
type browserRoundTripper struct {
	dialer      *net.Dialer
	h2Transport *http2.Transport
}

func newBrowserRoundTripper() *browserRoundTripper {
	return &browserRoundTripper{
		dialer: &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 60 * time.Second,
		},
		h2Transport: &http2.Transport{
			DisableCompression: false,
			AllowHTTP:          false,
		},
	}
}

func (t *browserRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// Only HTTPS gets the fingerprint treatment
	if req.URL.Scheme != "https" {
		return http.DefaultTransport.RoundTrip(req)
	}

	addr := req.URL.Host
	if !strings.Contains(addr, ":") {
		addr = addr + ":443"
	}

	conn, err := t.dialer.DialContext(req.Context(), "tcp4", addr)
	if err != nil {
		return nil, err
	}

	tlsConfig := &utls.Config{
		ServerName: req.URL.Hostname(),
	}

	utlsConn := utls.UClient(conn, tlsConfig, utls.HelloChrome_120)
	if err := utlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, err
	}

	if utlsConn.ConnectionState().NegotiatedProtocol == "h2" {
		h2Conn, err := t.h2Transport.NewClientConn(utlsConn)
		if err != nil {
			conn.Close()
			return nil, err
		}
		return h2Conn.RoundTrip(req)
	}

	// Fallback to HTTP/1.1
	return t.doHTTP1Request(utlsConn, req)
}

func (t *browserRoundTripper) doHTTP1Request(conn net.Conn, req *http.Request) (*http.Response, error) {
	if err := req.Write(conn); err != nil {
		conn.Close()
		return nil, err
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	if err != nil {
		conn.Close()
		return nil, err
	}

	resp.Body = &connCloser{resp.Body, conn}
	return resp, nil
}

type connCloser struct {
	io.ReadCloser
	conn net.Conn
}

func (c *connCloser) Close() error {
	c.ReadCloser.Close()
	return c.conn.Close()
}

// readBody drains a response body, reversing whatever Content-Encoding the
// upstream applied. We advertise gzip, deflate and br ourselves, so the
// transport's automatic gzip handling is off and decoding is on us.
func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body

	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	case "deflate":
		fr := flate.NewReader(resp.Body)
		defer fr.Close()
		r = fr
	case "br":
		r = brotli.NewReader(resp.Body)
	}

	return io.ReadAll(r)
}
