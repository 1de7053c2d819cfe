// Package edge decides, per request, whether a link-preview bot gets a
// server-rendered meta document or the request passes through to the
// single-page application.
package edge

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/shakilemon73/Tni-news-sub001/internal/article"
	"github.com/shakilemon73/Tni-news-sub001/internal/botdetect"
	"github.com/shakilemon73/Tni-news-sub001/internal/metrics"
)

// ArticlePrefix is the article-detail route every intercepting adapter matches.
const ArticlePrefix = "/article/"

// ErrNotConfigured is returned by a Backend that has no content store.
var ErrNotConfigured = errors.New("renderer backend not configured")

// Mode selects how the dispatcher reads its input.
type Mode int

const (
	// ModeIntercept matches /article/<identifier> and never forces rendering.
	ModeIntercept Mode = iota
	// ModeEndpoint reads slug or id from the query and honors force=1.
	ModeEndpoint
)

// MissPolicy decides what a resolution miss turns into.
type MissPolicy int

const (
	// MissPassThrough hands the request to the application.
	MissPassThrough MissPolicy = iota
	// MissNotFound answers 404 JSON.
	MissNotFound
)

// Request is the adapter-neutral view of an inbound request.
type Request struct {
	// Method is the HTTP method; empty means GET.
	Method    string
	Path      string
	Query     url.Values
	UserAgent string
	// ClientIP keys the forced-render rate limit.
	ClientIP string
}

// FromHTTP builds a Request from r. The path stays percent-encoded so the
// resolver decodes the identifier exactly once.
func FromHTTP(r *http.Request) Request {
	return Request{
		Method:    r.Method,
		Path:      r.URL.EscapedPath(),
		Query:     r.URL.Query(),
		UserAgent: r.UserAgent(),
		ClientIP:  clientIP(r.RemoteAddr),
	}
}

// Lookup is what a Backend is asked to render. Identifier is always
// percent-encoded, whichever mode produced it.
type Lookup struct {
	Identifier string
	UserAgent  string
}

// Backend turns an identifier into a rendered document. It returns
// article.ErrNotFound on a miss and ErrNotConfigured when it cannot run.
type Backend interface {
	Render(ctx context.Context, l Lookup) ([]byte, error)
}

// Allower admits or rejects a keyed request.
type Allower interface {
	Allow(key string) bool
}

// Dispatcher runs the per-request state machine shared by every adapter.
type Dispatcher struct {
	classifier *botdetect.Classifier
	backend    Backend
	mode       Mode
	miss       MissPolicy
	adapter    string
	limiter    Allower
	logger     *zap.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClassifier replaces the default bot classifier.
func WithClassifier(c *botdetect.Classifier) Option {
	return func(d *Dispatcher) { d.classifier = c }
}

// WithMode sets the input mode. ModeEndpoint also selects MissNotFound;
// pass WithMissPolicy afterwards to override.
func WithMode(m Mode) Option {
	return func(d *Dispatcher) {
		d.mode = m
		if m == ModeEndpoint {
			d.miss = MissNotFound
		}
	}
}

// WithMissPolicy sets the miss policy.
func WithMissPolicy(p MissPolicy) Option {
	return func(d *Dispatcher) { d.miss = p }
}

// WithAdapter labels outcomes in metrics and logs.
func WithAdapter(name string) Option {
	return func(d *Dispatcher) { d.adapter = name }
}

// WithForceLimiter rate-limits forced renders by client IP.
func WithForceLimiter(l Allower) Option {
	return func(d *Dispatcher) { d.limiter = l }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher creates a Dispatcher over backend.
func NewDispatcher(backend Backend, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		classifier: botdetect.New(),
		backend:    backend,
		adapter:    "middleware",
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Adapter returns the metric label of d.
func (d *Dispatcher) Adapter() string {
	return d.adapter
}

// Dispatch decides the outcome for req.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Outcome {
	o := d.dispatch(ctx, req)
	metrics.ObserveDispatch(d.adapter, string(o.Kind))
	d.logger.Debug("dispatch",
		zap.String("adapter", d.adapter),
		zap.String("path", req.Path),
		zap.String("outcome", string(o.Kind)),
		zap.String("reason", o.Reason))
	return o
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request) Outcome {
	segment := ""
	if d.mode == ModeIntercept {
		rest, ok := strings.CutPrefix(req.Path, ArticlePrefix)
		if !ok {
			return passThrough("route")
		}
		segment = rest
		if !readMethod(req.Method) {
			return passThrough("method")
		}
	}

	bot := d.classifier.IsBot(req.UserAgent)
	metrics.ObserveClassification(bot)
	forced := d.mode == ModeEndpoint && req.Query.Get("force") == "1"
	// Bots already pass classification, so only the override is charged.
	if forced && !bot && d.limiter != nil && !d.limiter.Allow(req.ClientIP) {
		return jsonError(KindRateLimited, http.StatusTooManyRequests, msgRateLimited, "forced render limit")
	}

	identifier := d.identifier(segment, req.Query)
	if identifier == "" {
		if d.mode == ModeEndpoint {
			return jsonError(KindBadRequest, http.StatusBadRequest, msgMissingIdentifier, "no identifier")
		}
		return passThrough("no identifier")
	}

	if !bot && !forced {
		if d.mode == ModeEndpoint {
			return redirect(ArticlePrefix + identifier)
		}
		return passThrough("human")
	}

	body, err := d.backend.Render(ctx, Lookup{Identifier: identifier, UserAgent: req.UserAgent})
	switch {
	case err == nil:
		return served(body)
	case errors.Is(err, ErrNotConfigured):
		d.logger.Error("renderer not configured", zap.String("adapter", d.adapter), zap.Error(err))
		if d.mode == ModeEndpoint {
			return jsonError(KindConfigError, http.StatusInternalServerError, msgConfig, "not configured")
		}
		return passThrough("not configured")
	case errors.Is(err, article.ErrNotFound), errors.Is(err, article.ErrInvalidIdentifier):
		return d.missed("not found")
	default:
		d.logger.Warn("resolution failed",
			zap.String("adapter", d.adapter),
			zap.String("identifier", identifier),
			zap.Error(err))
		return d.missed("backend error")
	}
}

// identifier returns the percent-encoded identifier. Query values arrive
// decoded, so they are escaped back for the resolver's single decode.
func (d *Dispatcher) identifier(segment string, q url.Values) string {
	if d.mode == ModeIntercept {
		return strings.Trim(strings.TrimSpace(segment), "/")
	}
	v := strings.TrimSpace(q.Get("slug"))
	if v == "" {
		v = strings.TrimSpace(q.Get("id"))
	}
	if v == "" {
		return ""
	}
	return url.PathEscape(v)
}

func readMethod(m string) bool {
	return m == "" || m == http.MethodGet || m == http.MethodHead
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func (d *Dispatcher) missed(reason string) Outcome {
	if d.miss == MissNotFound {
		return jsonError(KindNotFound, http.StatusNotFound, msgNotFound, reason)
	}
	return passThrough(reason)
}
