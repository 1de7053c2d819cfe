// Package sqlite keeps a local copy of the articles and settings tables in a
// SQLite file, for development and self-hosted deployments.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/shakilemon73/Tni-news-sub001/internal/article"
)

// Store wraps a SQLite database holding articles and site settings.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store.sqlite_path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// WAL lets the seeder write while the server reads.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS articles (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    excerpt TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    featured_image TEXT,
    published_at TEXT,
    updated_at TEXT,
    status TEXT NOT NULL DEFAULT 'draft',
    tags TEXT NOT NULL DEFAULT '[]',
    seo_metadata TEXT
);
CREATE INDEX IF NOT EXISTS articles_slug_idx ON articles (slug);
CREATE TABLE IF NOT EXISTS site_settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    site_name TEXT NOT NULL DEFAULT '',
    site_description TEXT NOT NULL DEFAULT '',
    logo_url TEXT NOT NULL DEFAULT '',
    favicon_url TEXT NOT NULL DEFAULT ''
);
`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// FindPublished returns the first published article whose field equals value.
func (s *Store) FindPublished(ctx context.Context, field article.Field, value string) (article.Article, error) {
	var where string
	switch field {
	case article.FieldSlug:
		where = "slug = ?"
	case article.FieldID:
		where = "id = ?"
	default:
		return article.Article{}, fmt.Errorf("unsupported lookup field %q", field)
	}

	row := s.db.QueryRowContext(ctx, `SELECT id, slug, title, excerpt, content, featured_image, published_at, updated_at, status, tags, seo_metadata
FROM articles WHERE `+where+` AND status = ? ORDER BY rowid LIMIT 1`, value, string(article.StatusPublished))

	var (
		a                    article.Article
		image, pub, upd, seo sql.NullString
		status, tags         string
	)
	if err := row.Scan(&a.ID, &a.Slug, &a.Title, &a.Excerpt, &a.Content, &image, &pub, &upd, &status, &tags, &seo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return article.Article{}, article.ErrNotFound
		}
		return article.Article{}, fmt.Errorf("query article: %w", err)
	}
	a.Status = article.Status(status)
	if image.Valid {
		a.FeaturedImage = &image.String
	}
	var err error
	if a.PublishedAt, err = parseTime(pub); err != nil {
		return article.Article{}, fmt.Errorf("parse published_at: %w", err)
	}
	if a.UpdatedAt, err = parseTime(upd); err != nil {
		return article.Article{}, fmt.Errorf("parse updated_at: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
		return article.Article{}, fmt.Errorf("decode tags: %w", err)
	}
	if seo.Valid && seo.String != "" && seo.String != "null" {
		var meta article.SEOMetadata
		if err := json.Unmarshal([]byte(seo.String), &meta); err != nil {
			return article.Article{}, fmt.Errorf("decode seo_metadata: %w", err)
		}
		a.SEOMetadata = &meta
	}
	return a, nil
}

// SiteSettings returns the settings row or article.ErrNotFound.
func (s *Store) SiteSettings(ctx context.Context) (article.SiteSettings, error) {
	var out article.SiteSettings
	err := s.db.QueryRowContext(ctx, `SELECT site_name, site_description, logo_url, favicon_url FROM site_settings WHERE id = 1`).
		Scan(&out.SiteName, &out.SiteDescription, &out.LogoURL, &out.FaviconURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return article.SiteSettings{}, article.ErrNotFound
		}
		return article.SiteSettings{}, fmt.Errorf("query site settings: %w", err)
	}
	return out, nil
}

// SaveArticle inserts or replaces a by id.
func (s *Store) SaveArticle(ctx context.Context, a article.Article) error {
	if a.ID == "" {
		return fmt.Errorf("article id is required")
	}
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	var seo sql.NullString
	if a.SEOMetadata != nil {
		b, err := json.Marshal(a.SEOMetadata)
		if err != nil {
			return fmt.Errorf("encode seo_metadata: %w", err)
		}
		seo = sql.NullString{String: string(b), Valid: true}
	}
	var image sql.NullString
	if a.FeaturedImage != nil {
		image = sql.NullString{String: *a.FeaturedImage, Valid: true}
	}
	status := a.Status
	if status == "" {
		status = article.StatusDraft
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO articles (id, slug, title, excerpt, content, featured_image, published_at, updated_at, status, tags, seo_metadata)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    slug = excluded.slug,
    title = excluded.title,
    excerpt = excluded.excerpt,
    content = excluded.content,
    featured_image = excluded.featured_image,
    published_at = excluded.published_at,
    updated_at = excluded.updated_at,
    status = excluded.status,
    tags = excluded.tags,
    seo_metadata = excluded.seo_metadata`,
		a.ID, a.Slug, a.Title, a.Excerpt, a.Content, image,
		formatTime(a.PublishedAt), formatTime(a.UpdatedAt),
		string(status), string(tagsJSON), seo)
	if err != nil {
		return fmt.Errorf("save article: %w", err)
	}
	return nil
}

// SaveSiteSettings replaces the settings singleton.
func (s *Store) SaveSiteSettings(ctx context.Context, settings article.SiteSettings) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO site_settings (id, site_name, site_description, logo_url, favicon_url)
VALUES (1, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    site_name = excluded.site_name,
    site_description = excluded.site_description,
    logo_url = excluded.logo_url,
    favicon_url = excluded.favicon_url`,
		settings.SiteName, settings.SiteDescription, settings.LogoURL, settings.FaviconURL)
	if err != nil {
		return fmt.Errorf("save site settings: %w", err)
	}
	return nil
}

func formatTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}

func parseTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
