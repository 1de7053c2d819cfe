// Package rest reads articles and site settings through the hosted content
// store's PostgREST interface using the Supabase client.
package rest

import (
	"context"
	"encoding/json"
	"fmt"

	supabase "github.com/supabase-community/supabase-go"

	"github.com/shakilemon73/Tni-news-sub001/internal/article"
)

const (
	articleColumns  = "id,slug,title,excerpt,content,featured_image,published_at,updated_at,status,tags,seo_metadata"
	settingsColumns = "site_name,site_description,logo_url,favicon_url"
)

// Config identifies the project and tables to read from.
type Config struct {
	URL           string
	APIKey        string
	ArticlesTable string
	SettingsTable string
}

// Store implements article.Store over the REST API.
type Store struct {
	client   *supabase.Client
	articles string
	settings string
}

// New creates a REST-backed store. It performs no network calls.
func New(cfg Config) (*Store, error) {
	if cfg.URL == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("store.url and store.api_key are required")
	}
	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize supabase client: %w", err)
	}
	s := &Store{client: client, articles: cfg.ArticlesTable, settings: cfg.SettingsTable}
	if s.articles == "" {
		s.articles = "articles"
	}
	if s.settings == "" {
		s.settings = "site_settings"
	}
	return s, nil
}

// FindPublished returns the first published row whose field equals value.
func (s *Store) FindPublished(ctx context.Context, field article.Field, value string) (article.Article, error) {
	if field != article.FieldSlug && field != article.FieldID {
		return article.Article{}, fmt.Errorf("unsupported lookup field %q", field)
	}
	body, err := execute(ctx, func() ([]byte, int64, error) {
		return s.client.From(s.articles).
			Select(articleColumns, "", false).
			Eq(string(field), value).
			Eq("status", string(article.StatusPublished)).
			Limit(1, "").
			Execute()
	})
	if err != nil {
		return article.Article{}, fmt.Errorf("query %s: %w", s.articles, err)
	}
	var rows []article.Article
	if err := json.Unmarshal(body, &rows); err != nil {
		return article.Article{}, fmt.Errorf("decode %s: %w", s.articles, err)
	}
	if len(rows) == 0 {
		return article.Article{}, article.ErrNotFound
	}
	return rows[0], nil
}

// SiteSettings returns the first settings row.
func (s *Store) SiteSettings(ctx context.Context) (article.SiteSettings, error) {
	body, err := execute(ctx, func() ([]byte, int64, error) {
		return s.client.From(s.settings).
			Select(settingsColumns, "", false).
			Limit(1, "").
			Execute()
	})
	if err != nil {
		return article.SiteSettings{}, fmt.Errorf("query %s: %w", s.settings, err)
	}
	var rows []article.SiteSettings
	if err := json.Unmarshal(body, &rows); err != nil {
		return article.SiteSettings{}, fmt.Errorf("decode %s: %w", s.settings, err)
	}
	if len(rows) == 0 {
		return article.SiteSettings{}, article.ErrNotFound
	}
	return rows[0], nil
}

// Ping issues a cheap settings read; an empty table still counts as reachable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := execute(ctx, func() ([]byte, int64, error) {
		return s.client.From(s.settings).Select("site_name", "", false).Limit(1, "").Execute()
	})
	return err
}

type result struct {
	body []byte
	err  error
}

// execute runs a query that has no context support and abandons it when ctx
// ends first. The buffered channel lets the abandoned call finish and exit.
func execute(ctx context.Context, query func() ([]byte, int64, error)) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done := make(chan result, 1)
	go func() {
		body, _, err := query()
		done <- result{body: body, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.body, r.err
	}
}
