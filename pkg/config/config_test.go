package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != 8000 {
		t.Errorf("Port = %d, want 8000", cfg.Port)
	}
	if cfg.UpstreamBaseURL != "https://netfree2.cc" {
		t.Errorf("UpstreamBaseURL = %q, want https://netfree2.cc", cfg.UpstreamBaseURL)
	}
	if cfg.UpstreamTimeout != 10*time.Second {
		t.Errorf("UpstreamTimeout = %v, want 10s", cfg.UpstreamTimeout)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.DirectUpstream {
		t.Error("DirectUpstream should default to false")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("UPSTREAM_BASE_URL", "https://upstream.example.com/")
	t.Setenv("UPSTREAM_TIMEOUT", "5")
	t.Setenv("UPSTREAM_PROXIES", "http://p1:8080, socks5://p2:1080")
	t.Setenv("UPSTREAM_DIRECT", "true")
	t.Setenv("LOG_JSON", "1")

	cfg := Load()

	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.UpstreamBaseURL != "https://upstream.example.com" {
		t.Errorf("UpstreamBaseURL = %q, want trailing slash trimmed", cfg.UpstreamBaseURL)
	}
	if cfg.UpstreamTimeout != 5*time.Second {
		t.Errorf("UpstreamTimeout = %v, want 5s", cfg.UpstreamTimeout)
	}
	want := []string{"http://p1:8080", "socks5://p2:1080"}
	if len(cfg.UpstreamProxies) != len(want) {
		t.Fatalf("UpstreamProxies = %v, want %v", cfg.UpstreamProxies, want)
	}
	for i := range want {
		if cfg.UpstreamProxies[i] != want[i] {
			t.Errorf("UpstreamProxies[%d] = %q, want %q", i, cfg.UpstreamProxies[i], want[i])
		}
	}
	if !cfg.DirectUpstream {
		t.Error("DirectUpstream should be true")
	}
	if !cfg.LogJSON {
		t.Error("LogJSON should be true")
	}
}

func TestGetEnvDuration_Formats(t *testing.T) {
	t.Setenv("TEST_DUR_SECS", "30")
	t.Setenv("TEST_DUR_STR", "1m30s")
	t.Setenv("TEST_DUR_BAD", "nonsense")

	if d := getEnvDuration("TEST_DUR_SECS", time.Second); d != 30*time.Second {
		t.Errorf("integer seconds = %v, want 30s", d)
	}
	if d := getEnvDuration("TEST_DUR_STR", time.Second); d != 90*time.Second {
		t.Errorf("duration string = %v, want 1m30s", d)
	}
	if d := getEnvDuration("TEST_DUR_BAD", time.Second); d != time.Second {
		t.Errorf("bad value = %v, want default 1s", d)
	}
}
