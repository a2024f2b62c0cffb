// Package identity selects the outbound disguise for each upstream request:
// a browser user-agent string and an optional proxy endpoint.
package identity

import "math/rand/v2"

// Identity is the disguise material for one outbound request.
type Identity struct {
	UserAgent string
	ProxyURL  string // empty means connect directly
}

// Chooser picks an identity per request. Implementations must be safe for
// concurrent use; tests supply deterministic fakes.
type Chooser interface {
	Choose() Identity
}

// UserAgents is the rotation pool of browser user-agent strings.
var UserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:124.0) Gecko/20100101 Firefox/124.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
}

// DefaultProxies is the built-in outbound proxy pool, used unless the
// deployment overrides or disables proxying.
var DefaultProxies = []string{
	"http://40.76.69.94:8080",
	"http://88.99.209.189:1234",
	"http://67.43.228.251:21621",
	"http://8.219.97.248:80",
	"http://119.156.195.173:3128",
	"http://34.102.48.89:8080",
	"http://45.140.143.77:18080",
	"http://3.110.60.103:80",
	"http://200.174.198.86:8888",
	"http://34.143.143.61:7777",
	"http://72.10.160.173:11025",
	"http://91.243.226.71:8080",
	"http://44.220.205.79:8080",
}

// Rotator picks uniformly at random from fixed pools. Stateless; every call
// is independent, no session stickiness.
type Rotator struct {
	userAgents []string
	proxies    []string
}

// NewRotator creates a rotator over the built-in user-agent pool and the
// given proxy pool. An empty proxy pool disables proxying.
func NewRotator(proxies []string) *Rotator {
	return &Rotator{
		userAgents: UserAgents,
		proxies:    proxies,
	}
}

// Choose returns a random identity from the pools.
func (r *Rotator) Choose() Identity {
	id := Identity{
		UserAgent: r.userAgents[rand.IntN(len(r.userAgents))],
	}
	if len(r.proxies) > 0 {
		id.ProxyURL = r.proxies[rand.IntN(len(r.proxies))]
	}
	return id
}

var _ Chooser = (*Rotator)(nil)
