package credentials

import (
	"sync"
	"testing"
)

func TestCache_Resolve(t *testing.T) {
	c := NewCache("default=1")

	if got := c.Resolve(false); got != "default=1" {
		t.Errorf("Resolve(false) = %q, want default", got)
	}
	// Fresh mode with an empty latest slot falls back to the default.
	if got := c.Resolve(true); got != "default=1" {
		t.Errorf("Resolve(true) before refresh = %q, want default", got)
	}

	c.SetLatest("fresh=2")

	if got := c.Resolve(true); got != "fresh=2" {
		t.Errorf("Resolve(true) after refresh = %q, want fresh", got)
	}
	// Non-fresh requests keep using the default even after a refresh.
	if got := c.Resolve(false); got != "default=1" {
		t.Errorf("Resolve(false) after refresh = %q, want default", got)
	}
}

func TestCache_DefaultFallback(t *testing.T) {
	c := NewCache("")
	if c.Default() != DefaultCookie {
		t.Error("empty default should fall back to the build-time cookie")
	}
}

func TestCache_Latest(t *testing.T) {
	c := NewCache("d")

	if _, ok := c.Latest(); ok {
		t.Error("Latest() should report absent before any refresh")
	}

	c.SetLatest("a=b")
	latest, ok := c.Latest()
	if !ok || latest != "a=b" {
		t.Errorf("Latest() = %q, %v; want a=b, true", latest, ok)
	}

	// An empty refreshed string still counts as populated.
	c.SetLatest("")
	latest, ok = c.Latest()
	if !ok || latest != "" {
		t.Errorf("Latest() after empty refresh = %q, %v; want empty, true", latest, ok)
	}
}

func TestCache_ConcurrentWrites(t *testing.T) {
	c := NewCache("d")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.SetLatest("fresh")
			c.Resolve(true)
		}()
	}
	wg.Wait()

	if got := c.Resolve(true); got != "fresh" {
		t.Errorf("Resolve(true) = %q, want fresh", got)
	}
}
