// Package echoadapter mounts the edge dispatcher on a labstack/echo server.
package echoadapter

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/shakilemon73/Tni-news-sub001/internal/edge"
)

// Middleware intercepts article routes for d; other outcomes reach next.
func Middleware(d *edge.Dispatcher) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			o := d.Dispatch(c.Request().Context(), request(c))
			if o.PassThrough() {
				return next(c)
			}
			o.Write(c.Response())
			return nil
		}
	}
}

// Endpoint serves the renderer endpoint contract for d.
func Endpoint(d *edge.Dispatcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		o := d.Dispatch(c.Request().Context(), request(c))
		if o.PassThrough() {
			return echo.ErrNotFound
		}
		o.Write(c.Response())
		return nil
	}
}

func request(c echo.Context) edge.Request {
	req := edge.FromHTTP(c.Request())
	req.ClientIP = c.RealIP()
	return req
}

// Config wires an echo server.
type Config struct {
	// Intercept guards every route except the endpoint and extra routes.
	Intercept *edge.Dispatcher
	// Endpoint serves GET /api/og when set.
	Endpoint *edge.Dispatcher
	// App receives pass-through traffic.
	App http.Handler
	// Routes are extra GET handlers such as health checks and metrics.
	Routes map[string]http.Handler
	Logger *zap.Logger
}

// NewServer builds the echo variant of the HTTP surface.
func NewServer(cfg Config) *echo.Echo {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))
	e.Use(middleware.Recover())

	for path, h := range cfg.Routes {
		e.GET(path, echo.WrapHandler(h))
	}
	if cfg.Endpoint != nil {
		e.GET("/api/og", Endpoint(cfg.Endpoint))
	}

	app := cfg.App
	if app == nil {
		app = http.NotFoundHandler()
	}
	fallback := echo.WrapHandler(app)
	if cfg.Intercept != nil {
		fallback = Middleware(cfg.Intercept)(fallback)
	}
	e.Any("/*", fallback)
	return e
}
