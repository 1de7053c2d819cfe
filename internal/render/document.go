package render

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// Options holds site-wide fallbacks that are not stored per article.
type Options struct {
	// SiteName is used when the settings row has no name.
	SiteName string
	// Locale is the og:locale value.
	Locale string
	// Language is the html lang attribute.
	Language string
}

// Renderer produces meta documents. It holds no mutable state.
type Renderer struct {
	opts Options
}

// New creates a Renderer, filling Bengali locale defaults.
func New(opts Options) *Renderer {
	opts.SiteName = strings.TrimSpace(opts.SiteName)
	if opts.Locale == "" {
		opts.Locale = "bn_BD"
	}
	if opts.Language == "" {
		opts.Language = "bn"
	}
	return &Renderer{opts: opts}
}

// Document renders c to a string.
func (r *Renderer) Document(c Context) string {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer cannot fail.
	_ = r.Component(c).Render(context.Background(), &buf)
	return buf.String()
}

// Component returns the document for c as a templ component.
func (r *Renderer) Component(c Context) templ.Component {
	m := r.Meta(c)
	ld := jsonLD(m)
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		d := &docWriter{w: w}
		d.raw("<!DOCTYPE html>\n")
		d.raw(`<html lang="`, esc(m.Language), `" prefix="og: https://ogp.me/ns#">`, "\n")
		d.raw("<head>\n")
		d.raw(`  <meta charset="UTF-8">`, "\n")
		d.raw(`  <meta name="viewport" content="width=device-width, initial-scale=1.0">`, "\n")
		d.link("icon", m.Favicon)
		d.link("apple-touch-icon", m.TouchIcon)
		d.raw("  <title>", esc(m.PageTitle), "</title>\n")
		d.name("description", m.Description)
		if len(m.Keywords) > 0 {
			d.name("keywords", strings.Join(m.Keywords, ", "))
		}

		d.property("og:type", "article")
		d.property("og:url", m.Canonical)
		d.property("og:title", m.Title)
		d.property("og:description", m.Description)
		d.property("og:image", m.Image)
		d.property("og:image:secure_url", m.Image)
		d.property("og:image:type", m.ImageType)
		d.property("og:image:width", strconv.Itoa(ImageWidth))
		d.property("og:image:height", strconv.Itoa(ImageHeight))
		d.property("og:image:alt", m.ImageAlt)
		if m.SiteName != "" {
			d.property("og:site_name", m.SiteName)
		}
		d.property("og:locale", m.Locale)
		if m.Published != "" {
			d.property("article:published_time", m.Published)
		}
		if m.Modified != "" {
			d.property("article:modified_time", m.Modified)
		}
		for _, tag := range m.Tags {
			d.property("article:tag", tag)
		}

		d.name("twitter:card", "summary_large_image")
		d.name("twitter:url", m.Canonical)
		d.name("twitter:title", m.Title)
		d.name("twitter:description", m.Description)
		d.name("twitter:image", m.Image)
		d.name("twitter:image:alt", m.ImageAlt)

		d.raw(`  <meta http-equiv="refresh" content="0;url=`, esc(m.Canonical), `">`, "\n")
		d.link("canonical", m.Canonical)
		d.raw(`  <script type="application/ld+json">`, ld, "</script>\n")
		d.raw("</head>\n")

		d.raw("<body>\n")
		d.raw("  <article>\n")
		d.raw("    <h1>", esc(m.Title), "</h1>\n")
		if m.Description != "" {
			d.raw("    <p>", esc(m.Description), "</p>\n")
		}
		d.raw(`    <img src="`, esc(m.Image), `" alt="`, esc(m.ImageAlt), `" width="1200" height="630">`, "\n")
		d.raw(`    <p>আর্টিকেলে নিয়ে যাওয়া হচ্ছে... <a href="`, esc(m.Canonical), `">`, esc(m.Title), "</a></p>\n")
		d.raw("  </article>\n")
		d.raw("</body>\n")
		d.raw("</html>\n")
		return d.err
	})
}

// esc escapes & < > " and ' for text and attribute positions.
func esc(s string) string {
	return templ.EscapeString(s)
}

type docWriter struct {
	w   io.Writer
	err error
}

func (d *docWriter) raw(parts ...string) {
	for _, p := range parts {
		if d.err != nil {
			return
		}
		_, d.err = io.WriteString(d.w, p)
	}
}

func (d *docWriter) property(prop, content string) {
	d.raw(`  <meta property="`, prop, `" content="`, esc(content), `">`, "\n")
}

func (d *docWriter) name(name, content string) {
	d.raw(`  <meta name="`, name, `" content="`, esc(content), `">`, "\n")
}

func (d *docWriter) link(rel, href string) {
	d.raw(`  <link rel="`, rel, `" href="`, esc(href), `">`, "\n")
}

type ldThing struct {
	Type string `json:"@type"`
	ID   string `json:"@id,omitempty"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

type ldOrganization struct {
	Type string   `json:"@type"`
	Name string   `json:"name,omitempty"`
	Logo *ldThing `json:"logo,omitempty"`
}

type newsArticleLD struct {
	Context          string         `json:"@context"`
	Type             string         `json:"@type"`
	Headline         string         `json:"headline"`
	Description      string         `json:"description,omitempty"`
	Image            []string       `json:"image"`
	DatePublished    string         `json:"datePublished,omitempty"`
	DateModified     string         `json:"dateModified,omitempty"`
	URL              string         `json:"url"`
	MainEntityOfPage ldThing        `json:"mainEntityOfPage"`
	Publisher        ldOrganization `json:"publisher"`
	Keywords         string         `json:"keywords,omitempty"`
	InLanguage       string         `json:"inLanguage,omitempty"`
}

// jsonLD marshals the NewsArticle block. encoding/json escapes quotes and
// the HTML-significant runes, so the payload cannot close its script tag.
func jsonLD(m Meta) string {
	doc := newsArticleLD{
		Context:       "https://schema.org",
		Type:          "NewsArticle",
		Headline:      m.Title,
		Description:   m.Description,
		Image:         []string{m.Image},
		DatePublished: m.Published,
		DateModified:  m.Modified,
		URL:           m.Canonical,
		MainEntityOfPage: ldThing{
			Type: "WebPage",
			ID:   m.Canonical,
		},
		Publisher: ldOrganization{
			Type: "Organization",
			Name: m.SiteName,
		},
		Keywords:   strings.Join(m.Keywords, ", "),
		InLanguage: m.Language,
	}
	if m.Logo != "" {
		doc.Publisher.Logo = &ldThing{Type: "ImageObject", URL: m.Logo}
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "{}"
	}
	return string(b)
}
