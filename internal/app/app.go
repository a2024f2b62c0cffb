// Package app provides the main application setup and dependency injection.
package app

import (
	"context"
	"time"

	"netfree-relay-go/pkg/config"
	"netfree-relay-go/pkg/credentials"
	"netfree-relay-go/pkg/handlers/api"
	"netfree-relay-go/pkg/identity"
	"netfree-relay-go/pkg/logging"
	"netfree-relay-go/pkg/relay"
	"netfree-relay-go/pkg/server"
	"netfree-relay-go/pkg/upstream"
)

// App is the main application container.
type App struct {
	Cfg       *config.Config
	Log       *logging.Logger
	Server    *server.Server
	Relay     *relay.Service
	Refresher *credentials.Refresher
}

// New creates and initializes the application.
func New() (*App, error) {
	cfg := config.Load()

	log := logging.New(cfg.LogLevel, cfg.LogJSON, nil)
	log.Info("initializing netfree relay",
		"port", cfg.Port,
		"upstream", cfg.UpstreamBaseURL,
		"log_level", cfg.LogLevel,
	)

	proxies := cfg.UpstreamProxies
	if len(proxies) == 0 {
		proxies = identity.DefaultProxies
	}
	if cfg.DirectUpstream {
		proxies = nil
	}
	rotator := identity.NewRotator(proxies)

	cache := credentials.NewCache(cfg.DefaultCookie)
	client := upstream.NewClient(cfg.UpstreamTimeout, log)
	refresher := credentials.NewRefresher(cfg.UpstreamBaseURL, cache, rotator, client.DirectTransport(), cfg.UpstreamTimeout, log)
	fetcher := upstream.NewFetcher(cfg.UpstreamBaseURL, client, rotator, cache, log)
	svc := relay.NewService(fetcher, refresher, cache, log)

	srv := server.New(cfg, log)
	handlers := api.NewHandlers(cfg, log, svc, cache, refresher)
	handlers.RegisterRoutes(srv.Router())

	return &App{
		Cfg:       cfg,
		Log:       log,
		Server:    srv,
		Relay:     svc,
		Refresher: refresher,
	}, nil
}

// Run warms the cookie cache in the background and starts the server.
// Warm-up failure must not block readiness.
func (a *App) Run() error {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.UpstreamTimeout+5*time.Second)
		defer cancel()

		out := a.Refresher.Refresh(ctx)
		if out.Refreshed {
			a.Log.Info("cookie cache warmed", "cookie_length", len(out.Cookie))
			return
		}
		a.Log.Warn("initial cookie refresh failed, serving with default cookie", "error", out.Err)
	}()

	return a.Server.Start()
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.Log.Info("shutting down application")
	return a.Server.Shutdown(ctx)
}
