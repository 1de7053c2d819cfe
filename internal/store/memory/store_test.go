package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shakilemon73/Tni-news-sub001/internal/article"
)

func TestFindPublishedFiltersStatus(t *testing.T) {
	t.Parallel()

	s := New(
		article.Article{ID: "1", Slug: "draft", Status: article.StatusDraft},
		article.Article{ID: "2", Slug: "live", Status: article.StatusPublished},
	)

	_, err := s.FindPublished(context.Background(), article.FieldSlug, "draft")
	require.ErrorIs(t, err, article.ErrNotFound)

	got, err := s.FindPublished(context.Background(), article.FieldSlug, "live")
	require.NoError(t, err)
	require.Equal(t, "2", got.ID)

	got, err = s.FindPublished(context.Background(), article.FieldID, "2")
	require.NoError(t, err)
	require.Equal(t, "live", got.Slug)
}

func TestFindPublishedReturnsFirstMatch(t *testing.T) {
	t.Parallel()

	s := New(
		article.Article{ID: "1", Slug: "dup", Title: "first", Status: article.StatusPublished},
		article.Article{ID: "2", Slug: "dup", Title: "second", Status: article.StatusPublished},
	)
	got, err := s.FindPublished(context.Background(), article.FieldSlug, "dup")
	require.NoError(t, err)
	require.Equal(t, "first", got.Title)
}

func TestPutReplacesByID(t *testing.T) {
	t.Parallel()

	s := New(article.Article{ID: "1", Slug: "a", Status: article.StatusDraft})
	s.Put(article.Article{ID: "1", Slug: "a", Status: article.StatusPublished})

	_, err := s.FindPublished(context.Background(), article.FieldSlug, "a")
	require.NoError(t, err)
}

func TestSiteSettings(t *testing.T) {
	t.Parallel()

	s := New()
	_, err := s.SiteSettings(context.Background())
	require.ErrorIs(t, err, article.ErrNotFound)

	s.SetSiteSettings(article.SiteSettings{SiteName: "সাইট"})
	got, err := s.SiteSettings(context.Background())
	require.NoError(t, err)
	require.Equal(t, "সাইট", got.SiteName)
	require.NoError(t, s.Ping(context.Background()))
}
