// Package metrics exposes Prometheus collectors for the relay pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamFetches counts playlist fetches by envelope status code.
	UpstreamFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netfree_relay",
		Name:      "upstream_fetches_total",
		Help:      "Upstream playlist fetches by logical status code.",
	}, []string{"code"})

	// FetchRetries counts refresh-and-retry cycles triggered by failures
	// while in fresh-cookie mode.
	FetchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "netfree_relay",
		Name:      "fetch_retries_total",
		Help:      "Fetch retries after a cookie refresh.",
	})

	// CookieRefreshes counts homepage cookie-mint attempts by result.
	CookieRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netfree_relay",
		Name:      "cookie_refreshes_total",
		Help:      "Cookie refresh attempts by result.",
	}, []string{"result"})

	// Payloads counts classified response payloads by kind.
	Payloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netfree_relay",
		Name:      "payloads_total",
		Help:      "Classified upstream payloads by kind.",
	}, []string{"kind"})
)
