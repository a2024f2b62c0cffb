// Package relay orchestrates the playlist pipeline: fetch, classify,
// remap embedded failure markers, retry once on fresh-cookie failures, and
// assemble the response envelope. It also derives the HLS source view from
// an envelope.
package relay

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"netfree-relay-go/pkg/classify"
	"netfree-relay-go/pkg/credentials"
	"netfree-relay-go/pkg/logging"
	"netfree-relay-go/pkg/metrics"
	"netfree-relay-go/pkg/types"
)

// PlaylistFetcher performs one upstream playlist request.
type PlaylistFetcher interface {
	Fetch(ctx context.Context, req types.FetchRequest) types.FetchOutcome
}

// CookieRefresher mints fresh session cookies, degrading to the default on
// failure.
type CookieRefresher interface {
	Refresh(ctx context.Context) credentials.RefreshOutcome
}

// Service is the retry coordinator for playlist requests.
type Service struct {
	fetcher   PlaylistFetcher
	refresher CookieRefresher
	cache     *credentials.Cache
	log       *logging.Logger
}

// NewService creates the relay service.
func NewService(fetcher PlaylistFetcher, refresher CookieRefresher, cache *credentials.Cache, log *logging.Logger) *Service {
	return &Service{
		fetcher:   fetcher,
		refresher: refresher,
		cache:     cache,
		log:       log.WithComponent("relay"),
	}
}

// Playlist runs one end-to-end attempt: warm the fresh-cookie slot if
// needed, fetch and classify, remap embedded failure markers, and on a
// failure in fresh-cookie mode refresh and retry exactly once. Whatever
// envelope results after the retry budget is spent is returned as-is.
func (s *Service) Playlist(ctx context.Context, req types.FetchRequest) *types.Envelope {
	if req.FreshCookies {
		if _, ok := s.cache.Latest(); !ok {
			s.refresher.Refresh(ctx)
		}
		req.Cookie = s.cache.Resolve(true)
	}

	outcome := s.fetcher.Fetch(ctx, req)
	status, errMsg, payload := s.settle(outcome)

	if (status >= 400 || outcome.Failed()) && req.FreshCookies {
		s.log.Info("playlist fetch failed, refreshing cookies and retrying", "status", status, "error", errMsg)
		metrics.FetchRetries.Inc()

		s.refresher.Refresh(ctx)
		req.Cookie = s.cache.Resolve(true)

		outcome = s.fetcher.Fetch(ctx, req)
		status, errMsg, payload = s.settle(outcome)
	}

	success := status >= 200 && status < 300 && errMsg == ""
	metrics.UpstreamFetches.WithLabelValues(strconv.Itoa(status)).Inc()
	s.log.Info("playlist request settled", "status", status, "success", success, "payload", payload.Kind())

	return &types.Envelope{
		Status: types.Status{Code: status, Success: success, Error: errMsg},
		Data:   payload,
	}
}

// settle classifies the outcome's body and remaps upstream failure pages
// that arrive with a 200: some error paths come back as plain text rather
// than HTTP status codes.
func (s *Service) settle(outcome types.FetchOutcome) (int, string, classify.Payload) {
	payload := classify.Reduce(classify.Classify(outcome.Body))
	metrics.Payloads.WithLabelValues(payload.Kind()).Inc()

	status := outcome.StatusCode
	errMsg := outcome.TransportError

	if status == http.StatusOK {
		if txt, ok := payload.(classify.Text); ok {
			switch {
			case strings.Contains(txt.Value, "404 Not Found"):
				status = http.StatusNotFound
				errMsg = "Resource not found on netfree2.cc"
			case strings.Contains(txt.Value, "Access denied"):
				status = http.StatusForbidden
				errMsg = "Access denied - authentication required"
			}
		}
	}

	return status, errMsg, payload
}
