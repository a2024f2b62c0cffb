// Package api provides the HTTP handlers for the relay API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"netfree-relay-go/pkg/config"
	"netfree-relay-go/pkg/credentials"
	"netfree-relay-go/pkg/logging"
	"netfree-relay-go/pkg/relay"
	"netfree-relay-go/pkg/types"
	"netfree-relay-go/pkg/urlutil"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version is reported by the root and health endpoints.
const Version = "1.0.2"

// Handlers contains all API handlers.
type Handlers struct {
	cfg       *config.Config
	log       *logging.Logger
	relay     *relay.Service
	cache     *credentials.Cache
	refresher *credentials.Refresher
	origin    string
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cfg *config.Config, log *logging.Logger, svc *relay.Service, cache *credentials.Cache, refresher *credentials.Refresher) *Handlers {
	return &Handlers{
		cfg:       cfg,
		log:       log.WithComponent("api"),
		relay:     svc,
		cache:     cache,
		refresher: refresher,
		origin:    urlutil.Origin(cfg.UpstreamBaseURL),
	}
}

// RegisterRoutes registers all API routes.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("GET /health", h.handleHealth)

	mux.HandleFunc("GET /playlist/", h.handlePlaylist)
	mux.HandleFunc("GET /hls/", h.handleHLS)
	mux.HandleFunc("GET /example/", h.handleExample)

	mux.HandleFunc("GET /refresh-cookies", h.handleRefreshCookies)
	mux.HandleFunc("GET /debug/headers/", h.handleDebugHeaders)
	mux.Handle("GET /metrics", promhttp.Handler())
}

// handleIndex serves the usage description.
func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"message":        "NetFree relay service",
		"usage":          "Make GET requests to /playlist/ with id, t, and tm parameters",
		"example":        "/playlist/?id=81900595&t=Mad%20Square&tm=14170286",
		"options":        "Add fresh_cookies=true to use fresh cookies instead of saved ones",
		"cookie_refresh": "/refresh-cookies to manually refresh the cookie cache",
		"version":        Version,
	})
}

// handleHealth serves the liveness payload.
func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": Version,
	})
}

// handlePlaylist relays one playlist fetch and returns the envelope. The
// logical status lives inside the envelope; the HTTP response itself is
// always 200 once parameters validate.
func (h *Handlers) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseFetchRequest(w, r)
	if !ok {
		return
	}

	env := h.relay.Playlist(r.Context(), req)
	h.writeJSON(w, http.StatusOK, env)
}

// handleHLS returns the streaming-source view of a playlist fetch.
func (h *Handlers) handleHLS(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseFetchRequest(w, r)
	if !ok {
		return
	}

	env := h.relay.Playlist(r.Context(), req)

	sources, err := relay.ExtractSources(env, h.origin)
	if err != nil {
		if errors.Is(err, relay.ErrNoSources) {
			h.writeError(w, http.StatusNotFound, relay.ErrNoSources.Error())
			return
		}
		h.log.Error("source extraction failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, types.HLSResponse{HLSURLs: sources})
}

// handleExample relays a canned playlist request, useful for smoke checks.
func (h *Handlers) handleExample(w http.ResponseWriter, r *http.Request) {
	env := h.relay.Playlist(r.Context(), types.FetchRequest{
		ContentID:    "81900595",
		Title:        "Mad Square",
		TM:           "14170286",
		FreshCookies: parseBool(r.URL.Query().Get("fresh_cookies")),
	})
	h.writeJSON(w, http.StatusOK, env)
}

// handleRefreshCookies triggers a cookie refresh and reports the result.
func (h *Handlers) handleRefreshCookies(w http.ResponseWriter, r *http.Request) {
	out := h.refresher.Refresh(r.Context())
	if !out.Refreshed {
		h.log.Warn("manual cookie refresh failed", "error", out.Err)
		h.writeJSON(w, http.StatusOK, map[string]any{
			"status":  "error",
			"message": "Failed to refresh cookies, still using the default",
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":         "success",
		"message":        "Cookies refreshed successfully",
		"cookies_length": len(out.Cookie),
	})
}

// handleDebugHeaders echoes the inbound request headers and the cookie
// cache state. Diagnostic only.
func (h *Handlers) handleDebugHeaders(w http.ResponseWriter, r *http.Request) {
	headers := make(map[string]string, len(r.Header))
	for key, values := range r.Header {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	latest, hasLatest := h.cache.Latest()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"headers": headers,
		"client":  r.RemoteAddr,
		"cookies_cache_status": map[string]any{
			"default_cookie_length": len(h.cache.Default()),
			"has_fresh_cookies":     hasLatest,
			"fresh_cookie_length":   len(latest),
		},
	})
}

// Helper methods

func (h *Handlers) parseFetchRequest(w http.ResponseWriter, r *http.Request) (types.FetchRequest, bool) {
	q := r.URL.Query()
	req := types.FetchRequest{
		ContentID:    q.Get("id"),
		Title:        q.Get("t"),
		TM:           q.Get("tm"),
		FreshCookies: parseBool(q.Get("fresh_cookies")),
	}

	if req.ContentID == "" || req.Title == "" || req.TM == "" {
		h.writeError(w, http.StatusBadRequest, "id, t and tm query parameters are required")
		return types.FetchRequest{}, false
	}
	return req, true
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
