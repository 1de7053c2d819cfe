// Package postgres reads articles and site settings directly from the CMS
// Postgres database.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shakilemon73/Tni-news-sub001/internal/article"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool and table names.
type Config struct {
	DSN             string
	ArticlesTable   string
	SettingsTable   string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type queryer interface {
	QueryRow(context.Context, string, ...any) pgx.Row
	Ping(context.Context) error
	Close()
}

// Store implements article.Store over a pgx pool.
type Store struct {
	pool     queryer
	articles string
	settings string
}

// New connects a pool using cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s, err := NewWithPool(pool, cfg.ArticlesTable, cfg.SettingsTable)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool queryer, articlesTable, settingsTable string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if articlesTable == "" {
		articlesTable = "articles"
	}
	if settingsTable == "" {
		settingsTable = "site_settings"
	}
	for _, t := range []string{articlesTable, settingsTable} {
		if !validTableName.MatchString(t) {
			return nil, fmt.Errorf("invalid table name %q", t)
		}
	}
	return &Store{pool: pool, articles: articlesTable, settings: settingsTable}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// FindPublished returns the first published row whose field equals value.
func (s *Store) FindPublished(ctx context.Context, field article.Field, value string) (article.Article, error) {
	var column string
	switch field {
	case article.FieldSlug:
		column = "slug"
	case article.FieldID:
		column = "id::text"
	default:
		return article.Article{}, fmt.Errorf("unsupported lookup field %q", field)
	}

	query := fmt.Sprintf(`
SELECT
	id::text,
	slug,
	coalesce(title, ''),
	coalesce(excerpt, ''),
	coalesce(content, ''),
	featured_image,
	published_at,
	updated_at,
	status::text,
	coalesce(tags, '{}'),
	seo_metadata
FROM %s
WHERE %s = $1 AND status = $2
LIMIT 1`, s.articles, column)

	var (
		a      article.Article
		status string
		seo    []byte
	)
	err := s.pool.QueryRow(ctx, query, value, string(article.StatusPublished)).Scan(
		&a.ID,
		&a.Slug,
		&a.Title,
		&a.Excerpt,
		&a.Content,
		&a.FeaturedImage,
		&a.PublishedAt,
		&a.UpdatedAt,
		&status,
		&a.Tags,
		&seo,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return article.Article{}, article.ErrNotFound
		}
		return article.Article{}, fmt.Errorf("query article: %w", err)
	}
	a.Status = article.Status(status)
	if len(seo) > 0 && string(seo) != "null" {
		var meta article.SEOMetadata
		if err := json.Unmarshal(seo, &meta); err != nil {
			return article.Article{}, fmt.Errorf("decode seo_metadata: %w", err)
		}
		a.SEOMetadata = &meta
	}
	return a, nil
}

// SiteSettings returns the first settings row.
func (s *Store) SiteSettings(ctx context.Context) (article.SiteSettings, error) {
	query := fmt.Sprintf(`
SELECT
	coalesce(site_name, ''),
	coalesce(site_description, ''),
	coalesce(logo_url, ''),
	coalesce(favicon_url, '')
FROM %s
LIMIT 1`, s.settings)

	var out article.SiteSettings
	err := s.pool.QueryRow(ctx, query).Scan(
		&out.SiteName,
		&out.SiteDescription,
		&out.LogoURL,
		&out.FaviconURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return article.SiteSettings{}, article.ErrNotFound
		}
		return article.SiteSettings{}, fmt.Errorf("query site settings: %w", err)
	}
	return out, nil
}
