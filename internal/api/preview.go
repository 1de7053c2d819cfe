package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/shakilemon73/Tni-news-sub001/internal/article"
	"github.com/shakilemon73/Tni-news-sub001/internal/render"
)

const previewTimeout = 3 * time.Second

// SettingsSource supplies site branding.
type SettingsSource interface {
	Get(ctx context.Context) (article.SiteSettings, error)
}

// PreviewHandler exposes the metadata a crawler would receive, as JSON, so
// editors can check a link before sharing it.
type PreviewHandler struct {
	resolver *article.Resolver
	settings SettingsSource
	renderer *render.Renderer
	baseURL  string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewPreviewHandler wires the resolver, settings and renderer. A nil
// resolver means the content store is not configured.
func NewPreviewHandler(
	resolver *article.Resolver,
	settings SettingsSource,
	renderer *render.Renderer,
	baseURL string,
	logger *zap.Logger,
) *PreviewHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreviewHandler{
		resolver: resolver,
		settings: settings,
		renderer: renderer,
		baseURL:  render.NormalizeBaseURL(baseURL),
		timeout:  previewTimeout,
		logger:   logger,
	}
}

type previewDTO struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	PageTitle   string   `json:"page_title"`
	Description string   `json:"description"`
	Canonical   string   `json:"canonical_url"`
	Image       string   `json:"image"`
	ImageType   string   `json:"image_type"`
	SiteName    string   `json:"site_name,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Published   string   `json:"published_time,omitempty"`
	Modified    string   `json:"modified_time,omitempty"`
}

// Get handles GET /api/preview/{identifier}. It returns {"preview": {...}}
// on success, 400 for an empty identifier, 404 when no published article
// matches, 503 when the store is not configured, or 500 for store errors.
func (h *PreviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.resolver == nil {
		writeError(w, http.StatusServiceUnavailable, "content store unavailable")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	a, err := h.resolver.Resolve(ctx, chi.URLParam(r, "identifier"))
	if err != nil {
		switch {
		case errors.Is(err, article.ErrInvalidIdentifier):
			writeError(w, http.StatusBadRequest, "invalid identifier")
		case errors.Is(err, article.ErrNotFound):
			writeError(w, http.StatusNotFound, "Article not found")
		default:
			h.logger.Error("preview lookup failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load article")
		}
		return
	}

	var s article.SiteSettings
	if h.settings != nil {
		if s, err = h.settings.Get(ctx); err != nil {
			h.logger.Warn("site settings unavailable, using defaults", zap.Error(err))
			s = article.SiteSettings{}
		}
	}
	m := h.renderer.Meta(render.Context{Article: a, Settings: s, BaseURL: h.baseURL})
	writeJSON(w, http.StatusOK, map[string]any{"preview": previewDTO{
		ID:          a.ID,
		Slug:        a.Slug,
		Title:       m.Title,
		PageTitle:   m.PageTitle,
		Description: m.Description,
		Canonical:   m.Canonical,
		Image:       m.Image,
		ImageType:   m.ImageType,
		SiteName:    m.SiteName,
		Keywords:    m.Keywords,
		Tags:        m.Tags,
		Published:   m.Published,
		Modified:    m.Modified,
	}})
}
