// Package store opens the configured content store backend. The backends
// live in subpackages and each implements article.Store.
package store
