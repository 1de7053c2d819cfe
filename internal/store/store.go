package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shakilemon73/Tni-news-sub001/internal/article"
	"github.com/shakilemon73/Tni-news-sub001/internal/store/memory"
	"github.com/shakilemon73/Tni-news-sub001/internal/store/postgres"
	"github.com/shakilemon73/Tni-news-sub001/internal/store/rest"
	"github.com/shakilemon73/Tni-news-sub001/internal/store/sqlite"
)

// Backend names.
const (
	BackendREST     = "rest"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// ErrNotConfigured is returned when the selected backend lacks credentials.
var ErrNotConfigured = errors.New("content store not configured")

// Options selects and configures a backend.
type Options struct {
	Backend         string
	URL             string
	APIKey          string
	DSN             string
	SQLitePath      string
	ArticlesTable   string
	SettingsTable   string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// Store is an opened backend.
type Store interface {
	article.Store
	article.Pinger
}

// Open connects the backend named by opts and returns it with its closer.
func Open(ctx context.Context, opts Options) (Store, func() error, error) {
	switch opts.Backend {
	case BackendREST, "":
		if opts.URL == "" || opts.APIKey == "" {
			return nil, nil, fmt.Errorf("%w: store.url and store.api_key are required", ErrNotConfigured)
		}
		s, err := rest.New(rest.Config{
			URL:           opts.URL,
			APIKey:        opts.APIKey,
			ArticlesTable: opts.ArticlesTable,
			SettingsTable: opts.SettingsTable,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, noopClose, nil
	case BackendPostgres:
		if opts.DSN == "" {
			return nil, nil, fmt.Errorf("%w: store.dsn is required", ErrNotConfigured)
		}
		s, err := postgres.New(ctx, postgres.Config{
			DSN:             opts.DSN,
			ArticlesTable:   opts.ArticlesTable,
			SettingsTable:   opts.SettingsTable,
			MaxConns:        opts.MaxConns,
			MaxConnLifetime: opts.MaxConnLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { s.Close(); return nil }, nil
	case BackendSQLite:
		if opts.SQLitePath == "" {
			return nil, nil, fmt.Errorf("%w: store.sqlite_path is required", ErrNotConfigured)
		}
		s, err := sqlite.NewStore(opts.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case BackendMemory:
		return memory.New(), noopClose, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

func noopClose() error { return nil }
