package article

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shakilemon73/Tni-news-sub001/internal/metrics"
)

// Resolver turns a slug or id path segment into a published article.
type Resolver struct {
	store  Store
	logger *zap.Logger
}

// NewResolver creates a Resolver over store.
func NewResolver(store Store, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{store: store, logger: logger}
}

// Resolve looks the identifier up by slug first and, when that misses and the
// identifier is a UUID, by id. Store errors are returned wrapped; a miss in
// both phases yields ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (Article, error) {
	key, err := DecodeIdentifier(identifier)
	if err != nil {
		return Article{}, err
	}

	a, slugErr := r.lookup(ctx, FieldSlug, key)
	if slugErr == nil {
		return a, nil
	}
	if !IsUUID(key) {
		return Article{}, slugErr
	}
	if !errors.Is(slugErr, ErrNotFound) {
		r.logger.Warn("slug lookup failed, trying id", zap.String("identifier", key), zap.Error(slugErr))
	}

	a, idErr := r.lookup(ctx, FieldID, key)
	if idErr == nil {
		return a, nil
	}
	if errors.Is(idErr, ErrNotFound) && !errors.Is(slugErr, ErrNotFound) {
		return Article{}, slugErr
	}
	return Article{}, idErr
}

func (r *Resolver) lookup(ctx context.Context, field Field, value string) (Article, error) {
	a, err := r.store.FindPublished(ctx, field, value)
	switch {
	case errors.Is(err, ErrNotFound):
		metrics.ObserveLookup(string(field), "miss")
		return Article{}, ErrNotFound
	case err != nil:
		metrics.ObserveLookup(string(field), "error")
		return Article{}, fmt.Errorf("find article by %s: %w", field, err)
	case !a.Published():
		// Stores filter on status already; a row that slips through is a miss.
		metrics.ObserveLookup(string(field), "miss")
		r.logger.Warn("store returned unpublished article",
			zap.String("field", string(field)),
			zap.String("status", string(a.Status)))
		return Article{}, ErrNotFound
	}
	metrics.ObserveLookup(string(field), "hit")
	return a, nil
}

// DecodeIdentifier percent-decodes a path segment and trims surrounding
// whitespace and slashes.
func DecodeIdentifier(raw string) (string, error) {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidIdentifier, err)
	}
	decoded = strings.Trim(strings.TrimSpace(decoded), "/")
	if decoded == "" {
		return "", ErrInvalidIdentifier
	}
	return decoded, nil
}

// IsUUID reports whether s is a UUID in the 8-4-4-4-12 hex form.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
