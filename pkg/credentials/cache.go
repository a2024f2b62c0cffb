// Package credentials manages the upstream session cookies: a baked-in
// default and an optional freshly minted one, plus the refresher that
// visits the upstream homepage to mint new cookies.
package credentials

import "sync"

// DefaultCookie is the build-time default session cookie used whenever no
// fresh cookie is available.
const DefaultCookie = "user_token=c4e606ec3f66b93e8198a48c8c71e6b8; t_hash_t=4184321d319f63c93cff4c7588764623%3A%3A14b66f534e8c2fa68723668dead845ce%3A%3A1746367568%3A%3Ani; recentplay=81688854; 81688854=95%3A7065"

// Cache holds the two cookie slots for the process: the immutable default
// and the latest refreshed value. Writes are guarded; concurrent refreshes
// race last-writer-wins, which is fine since any fresh cookie is usable.
type Cache struct {
	mu        sync.RWMutex
	def       string
	latest    string
	hasLatest bool
}

// NewCache creates a cache with the given default cookie, falling back to
// the build-time constant when empty.
func NewCache(defaultCookie string) *Cache {
	if defaultCookie == "" {
		defaultCookie = DefaultCookie
	}
	return &Cache{def: defaultCookie}
}

// Default returns the immutable default cookie.
func (c *Cache) Default() string {
	return c.def
}

// Latest returns the most recently refreshed cookie, if any.
func (c *Cache) Latest() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest, c.hasLatest
}

// SetLatest stores a freshly minted cookie. The slot is never cleared.
func (c *Cache) SetLatest(cookie string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest = cookie
	c.hasLatest = true
}

// Resolve returns the cookie to attach for a request: the latest slot in
// fresh mode when populated, the default otherwise.
func (c *Cache) Resolve(fresh bool) string {
	if fresh {
		if latest, ok := c.Latest(); ok {
			return latest
		}
	}
	return c.def
}
