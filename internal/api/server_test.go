package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shakilemon73/Tni-news-sub001/internal/article"
	"github.com/shakilemon73/Tni-news-sub001/internal/edge"
	"github.com/shakilemon73/Tni-news-sub001/internal/ratelimit"
	"github.com/shakilemon73/Tni-news-sub001/internal/render"
	"github.com/shakilemon73/Tni-news-sub001/internal/settings"
	"github.com/shakilemon73/Tni-news-sub001/internal/store/memory"
)

const (
	botUA   = "facebookexternalhit/1.1"
	humanUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0 Safari/537.36"
)

var spaHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	_, _ = io.WriteString(w, "<div id=root></div>")
})

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func newTestStore() *memory.Store {
	s := memory.New(article.Article{
		ID:      "0b6f1c2e-8a4d-4f7b-9c1e-2d3a4b5c6d7e",
		Slug:    "pm-visits-dhaka",
		Title:   "প্রধানমন্ত্রী ঢাকা সফরে",
		Excerpt: "উদ্বোধন",
		Status:  article.StatusPublished,
		Tags:    []string{"রাজনীতি"},
	})
	s.SetSiteSettings(article.SiteSettings{SiteName: "টিএনআই"})
	return s
}

func newTestServer(t *testing.T, opts ...func(*Options)) *Server {
	t.Helper()
	s := newTestStore()
	resolver := article.NewResolver(s, nil)
	cache := settings.New(s)
	renderer := render.New(render.Options{})
	backend := edge.NewLocalBackend(resolver, cache, renderer, "https://site", nil)

	o := Options{
		Intercept: edge.NewDispatcher(backend, edge.WithAdapter("chi")),
		Endpoint:  edge.NewDispatcher(backend, edge.WithMode(edge.ModeEndpoint), edge.WithAdapter("endpoint")),
		Preview:   NewPreviewHandler(resolver, cache, renderer, "https://site", nil),
		App:       spaHandler,
		Ready:     s,
		Logger:    zap.NewNop(),
	}
	for _, fn := range opts {
		fn(&o)
	}
	return NewServer(o)
}

func do(t *testing.T, h http.Handler, target, ua string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("User-Agent", ua)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Healthz(t *testing.T) {
	t.Parallel()

	rec := do(t, newTestServer(t).Handler(), "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServer_Readyz(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		ready article.Pinger
		code  int
		body  string
	}{
		{"ready", fakePinger{}, http.StatusOK, `{"status":"ready"}`},
		{"ping fails", fakePinger{err: errors.New("dial tcp: refused")}, http.StatusServiceUnavailable, `{"status":"store unavailable"}`},
		{"not configured", nil, http.StatusServiceUnavailable, `{"status":"store not configured"}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := newTestServer(t, func(o *Options) { o.Ready = tc.ready })
			rec := do(t, srv.Handler(), "/readyz", "")
			require.Equal(t, tc.code, rec.Code)
			require.JSONEq(t, tc.body, rec.Body.String())
		})
	}
}

func TestServer_ArticleRoute(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()

	rec := do(t, h, "/article/pm-visits-dhaka", botUA)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, edge.ContentTypeHTML, rec.Header().Get("Content-Type"))
	require.Equal(t, edge.CacheControl, rec.Header().Get("Cache-Control"))
	require.Contains(t, rec.Body.String(), `<meta property="og:title" content="প্রধানমন্ত্রী ঢাকা সফরে">`)
	require.Contains(t, rec.Body.String(), `<link rel="canonical" href="https://site/article/pm-visits-dhaka">`)
	require.Contains(t, rec.Body.String(), `<title>প্রধানমন্ত্রী ঢাকা সফরে | টিএনআই</title>`)

	rec = do(t, h, "/article/pm-visits-dhaka", humanUA)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "<div id=root></div>", rec.Body.String())

	rec = do(t, h, "/article/does-not-exist", botUA)
	require.Equal(t, "<div id=root></div>", rec.Body.String())

	rec = do(t, h, "/category/politics", botUA)
	require.Equal(t, "<div id=root></div>", rec.Body.String())
}

func TestServer_RendererEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()

	testCases := []struct {
		name     string
		target   string
		ua       string
		code     int
		body     string
		location string
	}{
		{"human redirected", "/api/og?slug=pm-visits-dhaka", humanUA, http.StatusFound, "", "/article/pm-visits-dhaka"},
		{"missing identifier", "/api/og", botUA, http.StatusBadRequest, `{"error":"Missing slug or id"}`, ""},
		{"unknown article", "/api/og?slug=does-not-exist", botUA, http.StatusNotFound, `{"error":"Article not found"}`, ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := do(t, h, tc.target, tc.ua)
			require.Equal(t, tc.code, rec.Code)
			if tc.body != "" {
				require.JSONEq(t, tc.body, rec.Body.String())
			}
			require.Equal(t, tc.location, rec.Header().Get("Location"))
		})
	}

	bySlug := do(t, h, "/api/og?slug=pm-visits-dhaka&force=1", humanUA)
	byID := do(t, h, "/api/og?id=0b6f1c2e-8a4d-4f7b-9c1e-2d3a4b5c6d7e", botUA)
	require.Equal(t, http.StatusOK, bySlug.Code)
	require.Equal(t, bySlug.Body.String(), byID.Body.String())
}

func TestServer_RendererEndpointNotConfigured(t *testing.T) {
	t.Parallel()

	backend := edge.NewLocalBackend(nil, nil, nil, "https://site", nil)
	srv := newTestServer(t, func(o *Options) {
		o.Endpoint = edge.NewDispatcher(backend, edge.WithMode(edge.ModeEndpoint))
		o.Intercept = edge.NewDispatcher(backend)
	})

	rec := do(t, srv.Handler(), "/api/og?slug=pm-visits-dhaka", botUA)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"Server configuration error"}`, rec.Body.String())

	rec = do(t, srv.Handler(), "/article/pm-visits-dhaka", botUA)
	require.Equal(t, "<div id=root></div>", rec.Body.String())
}

func TestServer_ForcedRendersRateLimited(t *testing.T) {
	t.Parallel()

	s := newTestStore()
	backend := edge.NewLocalBackend(article.NewResolver(s, nil), nil, render.New(render.Options{}), "https://site", nil)
	srv := newTestServer(t, func(o *Options) {
		o.Endpoint = edge.NewDispatcher(backend,
			edge.WithMode(edge.ModeEndpoint),
			edge.WithForceLimiter(ratelimit.New(ratelimit.Config{RPS: 0.001, Burst: 1})))
	})

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/og?slug=pm-visits-dhaka&force=1", nil)
		req.Header.Set("User-Agent", humanUA)
		req.Header.Set("X-Forwarded-For", ip)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		return rec.Code
	}
	require.Equal(t, http.StatusOK, send("203.0.113.1"))
	require.Equal(t, http.StatusTooManyRequests, send("203.0.113.1"))
	require.Equal(t, http.StatusOK, send("203.0.113.2"))
}

func TestServer_Preview(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()

	rec := do(t, h, "/api/preview/pm-visits-dhaka", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Preview previewDTO `json:"preview"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "https://site/article/pm-visits-dhaka", body.Preview.Canonical)
	require.Equal(t, "টিএনআই", body.Preview.SiteName)
	require.Equal(t, []string{"রাজনীতি"}, body.Preview.Tags)

	rec = do(t, h, "/api/preview/missing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_PreviewWithoutStore(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, func(o *Options) {
		o.Preview = NewPreviewHandler(nil, nil, render.New(render.Options{}), "https://site", nil)
	})
	rec := do(t, srv.Handler(), "/api/preview/pm-visits-dhaka", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_MetricsExposed(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()
	do(t, h, "/article/pm-visits-dhaka", botUA)

	rec := do(t, h, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ogshim_dispatch_outcomes_total")
	require.Contains(t, rec.Body.String(), "ogshim_classifications_total")
}

func TestServer_RecoversPanics(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, func(o *Options) {
		o.App = http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	})
	rec := do(t, srv.Handler(), "/somewhere", humanUA)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

type blockingBackend struct{}

func (blockingBackend) Render(ctx context.Context, _ edge.Lookup) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestServer_RequestTimeout(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, func(o *Options) {
		o.RequestTimeout = 20 * time.Millisecond
		o.Endpoint = edge.NewDispatcher(blockingBackend{}, edge.WithMode(edge.ModeEndpoint))
	})
	rec := do(t, srv.Handler(), "/api/og?slug=pm-visits-dhaka", botUA)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "request timed out"))
}

func TestServer_InterceptTimeoutFailsOpen(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, func(o *Options) {
		o.RequestTimeout = 20 * time.Millisecond
		o.Intercept = edge.NewDispatcher(blockingBackend{})
	})
	rec := do(t, srv.Handler(), "/article/pm-visits-dhaka", botUA)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "<div id=root></div>", rec.Body.String())
}

func TestServer_AppTrafficIsNotTimedOut(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, func(o *Options) {
		o.RequestTimeout = 20 * time.Millisecond
		o.App = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(80 * time.Millisecond):
			}
			_, flushes := w.(http.Flusher)
			if flushes {
				_, _ = io.WriteString(w, "streamed")
				return
			}
			_, _ = io.WriteString(w, "buffered")
		})
	})
	for _, target := range []string{"/assets/app.js", "/article/pm-visits-dhaka"} {
		rec := do(t, srv.Handler(), target, humanUA)
		require.Equal(t, http.StatusOK, rec.Code, target)
		require.Equal(t, "streamed", rec.Body.String(), target)
	}
}

func TestServer_ArticleWritesReachApp(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, func(o *Options) {
		o.App = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "app "+r.Method)
		})
	})
	req := httptest.NewRequest(http.MethodPost, "/article/pm-visits-dhaka", strings.NewReader("{}"))
	req.Header.Set("User-Agent", botUA)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "app POST", rec.Body.String())
}

func TestServer_KeepsInboundRequestID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	newTestServer(t).Handler().ServeHTTP(rec, req)
	require.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}
