// Package memory keeps articles and site settings in process memory for
// development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/shakilemon73/Tni-news-sub001/internal/article"
)

// Store is an in-memory article.Store.
type Store struct {
	mu       sync.RWMutex
	articles []article.Article
	settings *article.SiteSettings
}

// New creates a Store seeded with articles.
func New(articles ...article.Article) *Store {
	s := &Store{}
	for _, a := range articles {
		s.Put(a)
	}
	return s
}

// Put inserts a, replacing any article with the same id.
func (s *Store) Put(a article.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.articles {
		if a.ID != "" && s.articles[i].ID == a.ID {
			s.articles[i] = a
			return
		}
	}
	s.articles = append(s.articles, a)
}

// SetSiteSettings replaces the settings singleton.
func (s *Store) SetSiteSettings(settings article.SiteSettings) {
	s.mu.Lock()
	s.settings = &settings
	s.mu.Unlock()
}

// FindPublished returns the first published article, in insertion order,
// whose field equals value.
func (s *Store) FindPublished(_ context.Context, field article.Field, value string) (article.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.articles {
		if !a.Published() {
			continue
		}
		switch field {
		case article.FieldSlug:
			if a.Slug == value {
				return a, nil
			}
		case article.FieldID:
			if a.ID == value {
				return a, nil
			}
		}
	}
	return article.Article{}, article.ErrNotFound
}

// SiteSettings returns the settings singleton or article.ErrNotFound.
func (s *Store) SiteSettings(_ context.Context) (article.SiteSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return article.SiteSettings{}, article.ErrNotFound
	}
	return *s.settings, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}
