// Package article defines the read-only article model, the content store
// contract, and the slug-or-id resolver used on the link-preview path.
package article

import (
	"context"
	"errors"
	"time"
)

// Status is the editorial state of an article.
type Status string

// Article statuses. Only StatusPublished is resolvable.
const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Field names a column the resolver may look articles up by.
type Field string

// Lookup fields.
const (
	FieldSlug Field = "slug"
	FieldID   Field = "id"
)

var (
	// ErrNotFound is returned when no published article matches.
	ErrNotFound = errors.New("article not found")
	// ErrInvalidIdentifier is returned for empty or undecodable identifiers.
	ErrInvalidIdentifier = errors.New("invalid article identifier")
)

// SEOMetadata carries editor overrides for title, description and keywords.
type SEOMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// Article mirrors a row of the CMS articles table.
type Article struct {
	ID            string       `json:"id"`
	Slug          string       `json:"slug"`
	Title         string       `json:"title"`
	Excerpt       string       `json:"excerpt"`
	Content       string       `json:"content"`
	FeaturedImage *string      `json:"featured_image"`
	PublishedAt   *time.Time   `json:"published_at"`
	UpdatedAt     *time.Time   `json:"updated_at"`
	Status        Status       `json:"status"`
	Tags          []string     `json:"tags"`
	SEOMetadata   *SEOMetadata `json:"seo_metadata"`
}

// Published reports whether the article may be served to crawlers.
func (a Article) Published() bool {
	return a.Status == StatusPublished
}

// SiteSettings is the CMS branding singleton.
type SiteSettings struct {
	SiteName        string `json:"site_name"`
	SiteDescription string `json:"site_description"`
	LogoURL         string `json:"logo_url"`
	FaviconURL      string `json:"favicon_url"`
}

// Store reads published articles and site settings from the content store.
type Store interface {
	// FindPublished returns the first published article whose field equals
	// value, or ErrNotFound.
	FindPublished(ctx context.Context, field Field, value string) (Article, error)
	// SiteSettings returns the settings row, or ErrNotFound when absent.
	SiteSettings(ctx context.Context) (SiteSettings, error)
}

// Pinger is implemented by stores that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
