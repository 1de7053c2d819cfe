// Package app initializes and holds long-lived application services, acting
// as a dependency injection container for the link-preview service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/shakilemon73/Tni-news-sub001/internal/api"
	"github.com/shakilemon73/Tni-news-sub001/internal/article"
	"github.com/shakilemon73/Tni-news-sub001/internal/botdetect"
	"github.com/shakilemon73/Tni-news-sub001/internal/config"
	"github.com/shakilemon73/Tni-news-sub001/internal/edge"
	"github.com/shakilemon73/Tni-news-sub001/internal/edge/echoadapter"
	"github.com/shakilemon73/Tni-news-sub001/internal/metrics"
	"github.com/shakilemon73/Tni-news-sub001/internal/ratelimit"
	"github.com/shakilemon73/Tni-news-sub001/internal/render"
	"github.com/shakilemon73/Tni-news-sub001/internal/settings"
	"github.com/shakilemon73/Tni-news-sub001/internal/spa"
	"github.com/shakilemon73/Tni-news-sub001/internal/store"
)

// App holds the shared, long-lived services. It is built once at startup.
type App struct {
	cfg        config.Config
	logger     *zap.Logger
	store      store.Store
	closeStore func() error
	resolver   *article.Resolver
	settings   *settings.Cache
	renderer   *render.Renderer
	intercept  *edge.Dispatcher
	endpoint   *edge.Dispatcher
	handler    http.Handler
}

// Option customizes New.
type Option func(*options)

type options struct {
	store store.Store
}

// WithStore injects an already opened store instead of opening cfg.Store.
func WithStore(s store.Store) Option {
	return func(o *options) { o.store = s }
}

// New wires every service from cfg. A store without credentials is not a
// startup error: requests then fail open and /readyz reports it.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	metrics.Init()

	a := &App{cfg: cfg, logger: logger, closeStore: func() error { return nil }}

	if o.store != nil {
		a.store = o.store
	} else {
		s, closer, err := store.Open(ctx, store.Options{
			Backend:         cfg.Store.Backend,
			URL:             cfg.Store.URL,
			APIKey:          cfg.Store.APIKey,
			DSN:             cfg.Store.DSN,
			SQLitePath:      cfg.Store.SQLitePath,
			ArticlesTable:   cfg.Store.ArticlesTable,
			SettingsTable:   cfg.Store.SettingsTable,
			MaxConns:        cfg.Store.MaxConns,
			MaxConnLifetime: cfg.Store.MaxConnLifetime,
		})
		switch {
		case errors.Is(err, store.ErrNotConfigured):
			logger.Error("content store not configured, previews disabled", zap.Error(err))
		case err != nil:
			return nil, fmt.Errorf("open store: %w", err)
		default:
			a.store = s
			a.closeStore = closer
		}
	}

	a.renderer = render.New(render.Options{
		SiteName: cfg.Site.Name,
		Locale:   cfg.Site.Locale,
	})
	if a.store != nil {
		a.resolver = article.NewResolver(a.store, logger.Named("resolver"))
		a.settings = settings.New(a.store,
			settings.WithTTL(cfg.Settings.TTL),
			settings.WithLogger(logger.Named("settings")))
	}

	if err := a.buildDispatchers(); err != nil {
		_ = a.closeStore()
		return nil, err
	}
	if err := a.buildHandler(); err != nil {
		_ = a.closeStore()
		return nil, err
	}

	logger.Info("application services initialized",
		zap.String("store", cfg.Store.Backend),
		zap.Bool("store_configured", a.store != nil),
		zap.String("router", cfg.Server.Router),
		zap.String("spa", cfg.SPA.Mode))
	return a, nil
}

func (a *App) buildDispatchers() error {
	classifier := botdetect.New(a.cfg.Bots.ExtraSignatures...)

	// A nil settings cache must stay a nil interface.
	var settingsSrc edge.SettingsSource
	if a.settings != nil {
		settingsSrc = a.settings
	}
	local := edge.NewLocalBackend(a.resolver, settingsSrc, a.renderer, a.cfg.Site.URL, a.logger.Named("render"))

	var backend edge.Backend = local
	if a.cfg.Render.RemoteEndpoint != "" {
		remote, err := edge.NewRemoteBackend(a.cfg.Render.RemoteEndpoint,
			&http.Client{Timeout: a.cfg.Render.RemoteTimeout})
		if err != nil {
			return fmt.Errorf("remote renderer: %w", err)
		}
		backend = remote
	}

	a.intercept = edge.NewDispatcher(backend,
		edge.WithClassifier(classifier),
		edge.WithMode(edge.ModeIntercept),
		edge.WithAdapter(a.cfg.Server.Router),
		edge.WithLogger(a.logger.Named("intercept")))

	endpointOpts := []edge.Option{
		edge.WithClassifier(classifier),
		edge.WithMode(edge.ModeEndpoint),
		edge.WithAdapter("endpoint"),
		edge.WithLogger(a.logger.Named("endpoint")),
	}
	if a.cfg.Limits.ForcedRPS > 0 {
		endpointOpts = append(endpointOpts, edge.WithForceLimiter(ratelimit.New(ratelimit.Config{
			RPS:   a.cfg.Limits.ForcedRPS,
			Burst: a.cfg.Limits.ForcedBurst,
		})))
	}
	// The endpoint always renders locally so a remote backend cannot loop.
	a.endpoint = edge.NewDispatcher(local, endpointOpts...)
	return nil
}

func (a *App) buildHandler() error {
	appHandler, err := spa.New(spa.Config{
		Mode:   a.cfg.SPA.Mode,
		Dir:    a.cfg.SPA.Dir,
		Origin: a.cfg.SPA.Origin,
	}, a.logger.Named("spa"))
	if err != nil {
		return fmt.Errorf("spa: %w", err)
	}

	var ready article.Pinger
	if a.store != nil {
		ready = a.store
	}

	switch a.cfg.Server.Router {
	case "echo":
		a.handler = echoadapter.NewServer(echoadapter.Config{
			Intercept: a.intercept,
			Endpoint:  a.endpoint,
			App:       appHandler,
			Routes: map[string]http.Handler{
				"/healthz": http.HandlerFunc(api.Healthz),
				"/readyz":  api.ReadyHandler(ready, a.logger),
				"/metrics": metrics.Handler(),
			},
			Logger: a.logger.Named("http"),
		})
	default:
		var preview *api.PreviewHandler
		if a.resolver != nil {
			preview = api.NewPreviewHandler(a.resolver, a.settings, a.renderer, a.cfg.Site.URL, a.logger.Named("preview"))
		}
		a.handler = api.NewServer(api.Options{
			Intercept:      a.intercept,
			Endpoint:       a.endpoint,
			Preview:        preview,
			App:            appHandler,
			Ready:          ready,
			RequestTimeout: a.cfg.Server.RequestTimeout,
			Logger:         a.logger.Named("http"),
		}).Handler()
	}
	return nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Logger returns the shared logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Config returns the configuration the app was built from.
func (a *App) Config() config.Config { return a.cfg }

// Store returns the content store, or nil when it is not configured.
func (a *App) Store() store.Store { return a.store }

// Intercept returns the dispatcher guarding /article/*.
func (a *App) Intercept() *edge.Dispatcher { return a.intercept }

// Endpoint returns the dispatcher behind /api/og.
func (a *App) Endpoint() *edge.Dispatcher { return a.endpoint }

// Close releases the store connection and flushes the logger.
func (a *App) Close() error {
	a.logger.Info("shutting down application services")
	err := a.closeStore()
	if err != nil {
		a.logger.Warn("error closing store", zap.Error(err))
	}
	_ = a.logger.Sync()
	return err
}
