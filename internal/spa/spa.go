// Package spa serves the single-page application that human visitors and
// pass-through requests end up at.
package spa

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Modes.
const (
	ModeStatic = "static"
	ModeProxy  = "proxy"
)

// Config selects how the application is served.
type Config struct {
	Mode   string
	Dir    string
	Origin string
}

// New returns the application handler for cfg. An unset mode yields a
// handler that answers 404 for everything.
func New(cfg Config, logger *zap.Logger) (http.Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Mode {
	case ModeStatic:
		return Static(cfg.Dir)
	case ModeProxy:
		return Proxy(cfg.Origin, logger)
	case "":
		return http.NotFoundHandler(), nil
	default:
		return nil, fmt.Errorf("unknown spa mode %q", cfg.Mode)
	}
}

// Static serves files from dir and falls back to index.html for client-side
// routes such as /article/<slug>.
func Static(dir string) (http.Handler, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("spa dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("spa dir %q is not a directory", dir)
	}
	index := filepath.Join(dir, "index.html")
	files := http.FileServer(http.Dir(dir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clean := path.Clean("/" + r.URL.Path)
		if clean != "/" {
			fi, err := os.Stat(filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))))
			if err == nil && !fi.IsDir() {
				files.ServeHTTP(w, r)
				return
			}
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
		}
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, r, index)
	}), nil
}

// Proxy forwards every request to origin unchanged.
func Proxy(origin string, logger *zap.Logger) (http.Handler, error) {
	target, err := url.Parse(origin)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid spa origin %q", origin)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	proxy := httputil.NewSingleHostReverseProxy(target)
	director := proxy.Director
	proxy.Director = func(r *http.Request) {
		director(r)
		r.Host = target.Host
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("spa origin unavailable", zap.String("path", r.URL.Path), zap.Error(err))
		w.WriteHeader(http.StatusBadGateway)
	}
	return proxy, nil
}
