package edge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/shakilemon73/Tni-news-sub001/internal/article"
	"github.com/shakilemon73/Tni-news-sub001/internal/metrics"
	"github.com/shakilemon73/Tni-news-sub001/internal/render"
)

// maxRemoteBody caps how much of a remote document is read.
const maxRemoteBody = 2 << 20

// SettingsSource supplies site branding for renders.
type SettingsSource interface {
	Get(ctx context.Context) (article.SiteSettings, error)
}

// LocalBackend resolves and renders in process.
type LocalBackend struct {
	resolver *article.Resolver
	settings SettingsSource
	renderer *render.Renderer
	baseURL  string
	logger   *zap.Logger
}

// NewLocalBackend creates a LocalBackend. A nil resolver means the content
// store is not configured; every Render then fails with ErrNotConfigured.
func NewLocalBackend(
	resolver *article.Resolver,
	settings SettingsSource,
	renderer *render.Renderer,
	baseURL string,
	logger *zap.Logger,
) *LocalBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalBackend{
		resolver: resolver,
		settings: settings,
		renderer: renderer,
		baseURL:  render.NormalizeBaseURL(baseURL),
		logger:   logger,
	}
}

// Render resolves l.Identifier and renders its document. Settings failures
// degrade to default branding.
func (b *LocalBackend) Render(ctx context.Context, l Lookup) ([]byte, error) {
	if b.resolver == nil || b.renderer == nil {
		return nil, ErrNotConfigured
	}
	a, err := b.resolver.Resolve(ctx, l.Identifier)
	if err != nil {
		return nil, err
	}

	var s article.SiteSettings
	if b.settings != nil {
		if s, err = b.settings.Get(ctx); err != nil {
			b.logger.Warn("site settings unavailable, using defaults", zap.Error(err))
			s = article.SiteSettings{}
		}
	}

	start := time.Now()
	doc := b.renderer.Document(render.Context{Article: a, Settings: s, BaseURL: b.baseURL})
	metrics.ObserveRender(time.Since(start))
	return []byte(doc), nil
}

// RemoteBackend delegates rendering to a central renderer endpoint.
type RemoteBackend struct {
	endpoint string
	client   *http.Client
}

// NewRemoteBackend creates a RemoteBackend for endpoint, for example
// https://site/api/og. A nil client gets a 10 second timeout.
func NewRemoteBackend(endpoint string, client *http.Client) (*RemoteBackend, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid remote endpoint %q", endpoint)
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RemoteBackend{endpoint: endpoint, client: client}, nil
}

// Render fetches {endpoint}?slug=<identifier>&force=1 with the caller's
// User-Agent. Only a 200 counts as a document.
func (b *RemoteBackend) Render(ctx context.Context, l Lookup) ([]byte, error) {
	u, err := url.Parse(b.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse remote endpoint: %w", err)
	}
	// The query encoding carries the identifier; send it decoded so the
	// endpoint does not see it escaped twice.
	slug, err := article.DecodeIdentifier(l.Identifier)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("slug", slug)
	q.Set("force", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build remote request: %w", err)
	}
	if l.UserAgent != "" {
		req.Header.Set("User-Agent", l.UserAgent)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote render: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, article.ErrNotFound
	default:
		return nil, fmt.Errorf("remote render: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteBody))
	if err != nil {
		return nil, fmt.Errorf("read remote document: %w", err)
	}
	if len(body) == 0 {
		return nil, errors.New("remote render: empty document")
	}
	return body, nil
}
