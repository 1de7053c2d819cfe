// Package config loads and validates service configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Site     SiteConfig     `mapstructure:"site"`
	Store    StoreConfig    `mapstructure:"store"`
	Settings SettingsConfig `mapstructure:"settings"`
	SPA      SPAConfig      `mapstructure:"spa"`
	Bots     BotsConfig     `mapstructure:"bots"`
	Render   RenderConfig   `mapstructure:"render"`
	Limits   LimitsConfig   `mapstructure:"limits"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port           int           `mapstructure:"port" validate:"gt=0,lte=65535"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	// Router picks the HTTP stack: chi or echo.
	Router string `mapstructure:"router" validate:"oneof=chi echo"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// SiteConfig describes the public site documents link to.
type SiteConfig struct {
	URL    string `mapstructure:"url" validate:"required,url"`
	Name   string `mapstructure:"name"`
	Locale string `mapstructure:"locale"`
}

// StoreConfig selects the content store backend.
type StoreConfig struct {
	Backend         string        `mapstructure:"backend" validate:"oneof=rest postgres sqlite memory"`
	URL             string        `mapstructure:"url" validate:"omitempty,url"`
	APIKey          string        `mapstructure:"api_key"`
	DSN             string        `mapstructure:"dsn"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	ArticlesTable   string        `mapstructure:"articles_table" validate:"required"`
	SettingsTable   string        `mapstructure:"settings_table" validate:"required"`
	MaxConns        int32         `mapstructure:"max_conns" validate:"gte=0"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime" validate:"gte=0"`
}

// SettingsConfig tunes the site settings cache.
type SettingsConfig struct {
	TTL time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// SPAConfig controls where pass-through traffic goes.
type SPAConfig struct {
	Mode   string `mapstructure:"mode" validate:"omitempty,oneof=static proxy"`
	Dir    string `mapstructure:"dir"`
	Origin string `mapstructure:"origin" validate:"omitempty,url"`
}

// BotsConfig extends the built-in crawler signature list.
type BotsConfig struct {
	ExtraSignatures []string `mapstructure:"extra_signatures"`
}

// RenderConfig switches the dispatcher to a remote renderer endpoint.
type RenderConfig struct {
	RemoteEndpoint string        `mapstructure:"remote_endpoint" validate:"omitempty,url"`
	RemoteTimeout  time.Duration `mapstructure:"remote_timeout" validate:"gt=0"`
}

// LimitsConfig rate-limits forced renders per client IP. Zero RPS disables.
type LimitsConfig struct {
	ForcedRPS   float64 `mapstructure:"forced_rps" validate:"gte=0"`
	ForcedBurst int     `mapstructure:"forced_burst" validate:"gte=0"`
}

// envFallbacks maps keys to the variable names hosting platforms export,
// in priority order after the OGSHIM_ name.
var envFallbacks = map[string][]string{
	"store.url":     {"SUPABASE_URL", "VITE_SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL"},
	"store.api_key": {"SUPABASE_ANON_KEY", "VITE_SUPABASE_ANON_KEY", "SUPABASE_SERVICE_ROLE_KEY"},
	"store.dsn":     {"DATABASE_URL"},
	"site.url":      {"SITE_URL", "VITE_SITE_URL", "URL"},
	"site.name":     {"SITE_NAME", "VITE_SITE_NAME"},
	"server.port":   {"PORT"},
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("OGSHIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindEnvFallbacks(v); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Site.URL = strings.TrimRight(strings.TrimSpace(cfg.Site.URL), "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout", 10*time.Second)
	v.SetDefault("server.router", "chi")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("site.url", "http://localhost:8080")
	v.SetDefault("site.name", "")
	v.SetDefault("site.locale", "bn_BD")
	v.SetDefault("store.backend", "rest")
	v.SetDefault("store.url", "")
	v.SetDefault("store.api_key", "")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.sqlite_path", "data/ogshim.db")
	v.SetDefault("store.articles_table", "articles")
	v.SetDefault("store.settings_table", "site_settings")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.max_conn_lifetime", 30*time.Minute)
	v.SetDefault("settings.ttl", 5*time.Minute)
	v.SetDefault("spa.mode", "")
	v.SetDefault("spa.dir", "dist")
	v.SetDefault("spa.origin", "")
	v.SetDefault("bots.extra_signatures", []string{})
	v.SetDefault("render.remote_endpoint", "")
	v.SetDefault("render.remote_timeout", 10*time.Second)
	v.SetDefault("limits.forced_rps", 1.0)
	v.SetDefault("limits.forced_burst", 5)
}

func bindEnvFallbacks(v *viper.Viper) error {
	for key, names := range envFallbacks {
		primary := "OGSHIM_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, primary}, names...)...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			_, field, _ := strings.Cut(fe.Namespace(), ".")
			if fe.Param() != "" {
				return fmt.Errorf("%s failed %s=%s", field, fe.Tag(), fe.Param())
			}
			return fmt.Errorf("%s failed %s", field, fe.Tag())
		}
		return fmt.Errorf("validate config: %w", err)
	}
	switch c.SPA.Mode {
	case "static":
		if c.SPA.Dir == "" {
			return fmt.Errorf("spa.dir must be set when spa.mode is static")
		}
	case "proxy":
		if c.SPA.Origin == "" {
			return fmt.Errorf("spa.origin must be set when spa.mode is proxy")
		}
	}
	return nil
}

// StoreConfigured reports whether the selected backend has what it needs to
// connect. Missing credentials are a request-time error, not a startup one.
func (c Config) StoreConfigured() bool {
	switch c.Store.Backend {
	case "rest":
		return c.Store.URL != "" && c.Store.APIKey != ""
	case "postgres":
		return c.Store.DSN != ""
	case "sqlite":
		return c.Store.SQLitePath != ""
	default:
		return true
	}
}
