package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shakilemon73/Tni-news-sub001/internal/article"
	"github.com/shakilemon73/Tni-news-sub001/internal/edge"
	"github.com/shakilemon73/Tni-news-sub001/internal/metrics"
)

const (
	defaultRequestTimeout = 10 * time.Second
	readyTimeout          = 2 * time.Second
)

// Options wires the server's collaborators.
type Options struct {
	// Intercept guards /article/*.
	Intercept *edge.Dispatcher
	// Endpoint serves /api/og.
	Endpoint *edge.Dispatcher
	// Preview serves /api/preview/{identifier} when set.
	Preview *PreviewHandler
	// App receives pass-through traffic and every unmatched route.
	App http.Handler
	// Ready is pinged by /readyz. Nil means the store is not configured.
	Ready          article.Pinger
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// Server wires HTTP handlers to the edge dispatchers.
type Server struct {
	router chi.Router
}

// NewServer constructs a Server with middleware and routes.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	app := opts.App
	if app == nil {
		app = http.NotFoundHandler()
	}
	s := &Server{}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)

	r.Get("/healthz", Healthz)
	r.Get("/readyz", ReadyHandler(opts.Ready, logger))
	r.Handle("/metrics", metrics.Handler())

	// Rendering routes are bounded; application traffic streams unbounded.
	r.Group(func(r chi.Router) {
		r.Use(timeoutMiddleware(timeout))
		if opts.Endpoint != nil {
			r.Get("/api/og", dispatchHandler(opts.Endpoint, http.NotFoundHandler(), 0))
		}
		if opts.Preview != nil {
			r.Get("/api/preview/{identifier}", opts.Preview.Get)
		}
	})
	if opts.Intercept != nil {
		// Every method is routed here; the dispatcher passes writes through.
		r.Handle("/article/*", dispatchHandler(opts.Intercept, app, timeout))
	}
	r.NotFound(app.ServeHTTP)

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler reports whether the content store answers a ping. A nil
// pinger means the store is not configured.
func ReadyHandler(p article.Pinger, logger *zap.Logger) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if p == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "store not configured"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			logger.Warn("readiness check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "store unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// dispatchHandler runs d and hands pass-through outcomes to fallback. A
// positive timeout bounds the dispatch step only; fallback runs on the
// request's own context.
func dispatchHandler(d *edge.Dispatcher, fallback http.Handler, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		o := d.Dispatch(ctx, edge.FromHTTP(r))
		if entry, ok := r.Context().Value(logEntryKey{}).(*logEntry); ok {
			entry.outcome = string(o.Kind)
		}
		if o.PassThrough() {
			fallback.ServeHTTP(w, r)
			return
		}
		o.Write(w)
	}
}

type requestIDKey struct{}

type logEntryKey struct{}

// logEntry collects fields handlers add for the request log line.
type logEntry struct {
	outcome string
}

// RequestID returns the id assigned by the request id middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			entry := &logEntry{}
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), logEntryKey{}, entry)))
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", RequestID(r.Context())),
			}
			if entry.outcome != "" {
				fields = append(fields, zap.String("outcome", entry.outcome))
			}
			logger.Info("request completed", fields...)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic recovered", zap.Any("error", rec), zap.String("path", r.URL.Path))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
