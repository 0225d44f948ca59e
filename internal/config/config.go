// Package config loads and validates application configuration from
// environment variables and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cache backends accepted by CACHE_BACKEND.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds all configuration values for the API server and deskctl.
// Values are populated by Load.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// DeveloperMode allows creating pages and exporting standard ones to
	// the module tree.
	DeveloperMode bool

	// AppsPath is the root of the module source tree. Defaults to "apps".
	AppsPath string

	// Languages are the UI languages offered; the first is the fallback.
	Languages []string

	CacheBackend string
	RedisURL     string
	CacheTTL     time.Duration
	CacheSize    int

	// NamingMaxAttempts bounds how often a page create is retried after
	// losing a naming race.
	NamingMaxAttempts int

	SentryDSN         string
	SentryEnvironment string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// PageJSHooks maps a page name to extra scripts appended to its bundle.
	// Set PAGE_JS_HOOKS as "page:path,page:path".
	PageJSHooks map[string][]string
}

var defaults = map[string]any{
	"port":                "8080",
	"log_level":           "info",
	"cors_origins":        "http://localhost:5173",
	"developer_mode":      false,
	"apps_path":           "apps",
	"languages":           "en",
	"cache_backend":       CacheMemory,
	"cache_ttl":           "10m",
	"cache_size":          512,
	"naming_max_attempts": 5,
	"sentry_environment":  "development",
	"max_body_bytes":      1 << 20,
}

// Load reads configuration and returns a Config. Environment variables win
// over the YAML file named by DESK_CONFIG, which wins over defaults.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	if path := v.GetString("desk_config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := Config{
		Port:              v.GetString("port"),
		DatabaseURL:       v.GetString("database_url"),
		LogLevel:          v.GetString("log_level"),
		CORSOrigins:       stringList(v, "cors_origins"),
		DeveloperMode:     v.GetBool("developer_mode"),
		AppsPath:          v.GetString("apps_path"),
		Languages:         stringList(v, "languages"),
		CacheBackend:      strings.ToLower(v.GetString("cache_backend")),
		RedisURL:          v.GetString("redis_url"),
		CacheTTL:          v.GetDuration("cache_ttl"),
		CacheSize:         v.GetInt("cache_size"),
		NamingMaxAttempts: v.GetInt("naming_max_attempts"),
		SentryDSN:         v.GetString("sentry_dsn"),
		SentryEnvironment: v.GetString("sentry_environment"),
		MaxBodyBytes:      v.GetInt64("max_body_bytes"),
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.CacheBackend == CacheRedis && cfg.RedisURL == "" {
		missing = append(missing, "REDIS_URL")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	var errs []error
	if cfg.CacheBackend != CacheMemory && cfg.CacheBackend != CacheRedis {
		errs = append(errs, fmt.Errorf("CACHE_BACKEND must be %q or %q, got %q", CacheMemory, CacheRedis, cfg.CacheBackend))
	}
	if cfg.NamingMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("NAMING_MAX_ATTEMPTS must be at least 1, got %d", cfg.NamingMaxAttempts))
	}
	if cfg.MaxBodyBytes < 1 {
		errs = append(errs, fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", cfg.MaxBodyBytes))
	}
	hooks, err := parseHooks(stringList(v, "page_js_hooks"))
	if err != nil {
		errs = append(errs, err)
	}
	cfg.PageJSHooks = hooks
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// stringList reads key either as a comma-separated string (environment) or
// as a YAML sequence (config file).
func stringList(v *viper.Viper, key string) []string {
	if s, ok := v.Get(key).(string); ok {
		return splitCSV(s)
	}
	return splitCSV(strings.Join(v.GetStringSlice(key), ","))
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseHooks turns "page:path" entries into a page-to-paths map.
func parseHooks(entries []string) (map[string][]string, error) {
	hooks := make(map[string][]string, len(entries))
	for _, e := range entries {
		page, path, ok := strings.Cut(e, ":")
		page, path = strings.TrimSpace(page), strings.TrimSpace(path)
		if !ok || page == "" || path == "" {
			return nil, fmt.Errorf("PAGE_JS_HOOKS entry %q must be page:path", e)
		}
		hooks[page] = append(hooks[page], path)
	}
	return hooks, nil
}
