// Package render builds the server-side Open Graph document served to
// link-preview bots in place of the single-page application.
package render

import (
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/shakilemon73/Tni-news-sub001/internal/article"
)

// Document limits and fallbacks.
const (
	DescriptionLimit = 160
	ImageWidth       = 1200
	ImageHeight      = 630
	MaxTags          = 5

	ellipsis         = "..."
	placeholderTitle = "Article"
	defaultImagePath = "/og-default.png"
	defaultFavicon   = "/favicon.ico"
	defaultTouchIcon = "/apple-touch-icon.png"
)

// Meta is the derived metadata a document is rendered from.
type Meta struct {
	Title       string
	PageTitle   string
	Description string
	Canonical   string
	Image       string
	ImageType   string
	ImageAlt    string
	SiteName    string
	Locale      string
	Language    string
	Favicon     string
	TouchIcon   string
	Logo        string
	Keywords    []string
	Tags        []string
	Published   string
	Modified    string
}

// Context is everything one document is rendered from. The inbound request
// URL is deliberately absent: a slug request and an id request for the same
// article must produce the same bytes.
type Context struct {
	Article  article.Article
	Settings article.SiteSettings
	BaseURL  string
}

// DisplayTitle returns the SEO title, the article title, or a placeholder.
func DisplayTitle(a article.Article) string {
	if a.SEOMetadata != nil {
		if t := strings.TrimSpace(a.SEOMetadata.Title); t != "" {
			return t
		}
	}
	if t := strings.TrimSpace(a.Title); t != "" {
		return t
	}
	return placeholderTitle
}

// DisplayDescription returns the SEO description, excerpt or title, truncated
// to DescriptionLimit codepoints.
func DisplayDescription(a article.Article) string {
	desc := ""
	if a.SEOMetadata != nil {
		desc = strings.TrimSpace(a.SEOMetadata.Description)
	}
	if desc == "" {
		desc = strings.TrimSpace(a.Excerpt)
	}
	if desc == "" {
		desc = strings.TrimSpace(a.Title)
	}
	return Truncate(desc, DescriptionLimit)
}

// Truncate shortens s to at most limit codepoints, ending in "..." when cut.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	keep := limit - len(ellipsis)
	if keep < 0 {
		keep = 0
	}
	return string(runes[:keep]) + ellipsis
}

// NormalizeBaseURL trims whitespace and trailing slashes.
func NormalizeBaseURL(base string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/")
}

// AbsoluteURL resolves ref against base. Empty refs and data URIs yield "".
func AbsoluteURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	lower := strings.ToLower(ref)
	switch {
	case ref == "", strings.HasPrefix(lower, "data:"):
		return ""
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return ref
	case strings.HasPrefix(ref, "//"):
		return "https:" + ref
	case strings.HasPrefix(ref, "/"):
		return base + ref
	default:
		return base + "/" + ref
	}
}

// CanonicalURL is the public article address, always built from the slug.
func CanonicalURL(base, slug string) string {
	return base + "/article/" + url.PathEscape(slug)
}

// ImageURL returns the absolute featured image or the site default.
func ImageURL(base string, a article.Article) string {
	if a.FeaturedImage != nil {
		if img := AbsoluteURL(base, *a.FeaturedImage); img != "" {
			return img
		}
	}
	return base + defaultImagePath
}

// ImageType guesses the MIME type from the image path extension.
func ImageType(imageURL string) string {
	p := imageURL
	if u, err := url.Parse(imageURL); err == nil {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".svg":
		return "image/svg+xml"
	default:
		return "image/jpeg"
	}
}

// Meta derives the document metadata for c.
func (r *Renderer) Meta(c Context) Meta {
	base := NormalizeBaseURL(c.BaseURL)
	a := c.Article

	siteName := strings.TrimSpace(c.Settings.SiteName)
	if siteName == "" {
		siteName = r.opts.SiteName
	}
	title := DisplayTitle(a)
	pageTitle := title
	if siteName != "" {
		pageTitle = title + " | " + siteName
	}
	image := ImageURL(base, a)

	m := Meta{
		Title:       title,
		PageTitle:   pageTitle,
		Description: DisplayDescription(a),
		Canonical:   CanonicalURL(base, a.Slug),
		Image:       image,
		ImageType:   ImageType(image),
		ImageAlt:    title,
		SiteName:    siteName,
		Locale:      r.opts.Locale,
		Language:    r.opts.Language,
		Favicon:     firstNonEmpty(AbsoluteURL(base, c.Settings.FaviconURL), base+defaultFavicon),
		TouchIcon:   firstNonEmpty(AbsoluteURL(base, c.Settings.LogoURL), base+defaultTouchIcon),
		Logo:        AbsoluteURL(base, c.Settings.LogoURL),
		Tags:        limit(cleanList(a.Tags), MaxTags),
	}
	if a.SEOMetadata != nil {
		m.Keywords = cleanList(a.SEOMetadata.Keywords)
	}
	if len(m.Keywords) == 0 {
		m.Keywords = cleanList(a.Tags)
	}
	if a.PublishedAt != nil {
		m.Published = formatTime(*a.PublishedAt)
	}
	switch {
	case a.UpdatedAt != nil:
		m.Modified = formatTime(*a.UpdatedAt)
	case a.PublishedAt != nil:
		m.Modified = m.Published
	}
	return m
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func cleanList(in []string) []string {
	var out []string
	for _, v := range in {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func limit(in []string, n int) []string {
	if len(in) > n {
		return in[:n]
	}
	return in
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
