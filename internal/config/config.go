// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env on top.
// - Validation failures wrap ErrInvalidConfig so callers can errors.Is them.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Supported survey store drivers.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8005".
	Addr string `koanf:"addr"`

	// OfflineEnabled turns on the offline-capable webform at /_.
	OfflineEnabled bool `koanf:"offline_enabled"`

	// CookieSecret signs the device-id cookie.
	CookieSecret string `koanf:"cookie_secret"`

	// CookieSecure marks issued cookies Secure.
	CookieSecure bool `koanf:"cookie_secure"`

	// TrustProxy makes X-Forwarded-Host authoritative for the request hostname.
	TrustProxy bool `koanf:"trust_proxy"`

	// AuthSecret verifies the HS256 token stored in the auth cookie.
	AuthSecret string `koanf:"auth_secret"`

	// AuthCookieName names the cookie carrying the credentials token.
	AuthCookieName string `koanf:"auth_cookie_name"`

	// StoreDriver selects the survey store: sqlite, redis or memory.
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath is the database file for the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`

	// RedisAddr, RedisPassword and RedisDB configure the redis driver.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// RedisDialTimeoutMS bounds connecting to Redis and the startup ping.
	RedisDialTimeoutMS int `koanf:"redis_dial_timeout_ms"`

	// OpenRosaTimeoutMS bounds each request to an OpenRosa server.
	OpenRosaTimeoutMS int `koanf:"openrosa_timeout_ms"`

	// XFormCacheTTLSeconds is the lifetime of cached XForms; 0 disables the cache.
	XFormCacheTTLSeconds int `koanf:"xform_cache_ttl_s"`

	// XFormCacheMaxMB caps the XForm cache size.
	XFormCacheMaxMB int `koanf:"xform_cache_max_mb"`

	// DefaultLanguage is used when Accept-Language matches no catalog.
	DefaultLanguage string `koanf:"default_language"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":8005",
		OfflineEnabled:       false,
		CookieSecret:         "enketo-dev-cookie-secret-change-me",
		AuthSecret:           "enketo-dev-auth-secret-change-me",
		AuthCookieName:       "__enketo",
		StoreDriver:          StoreSQLite,
		SQLitePath:           "enketo.db",
		RedisAddr:            "127.0.0.1:6379",
		RedisDialTimeoutMS:   5_000,
		OpenRosaTimeoutMS:    10_000,
		XFormCacheTTLSeconds: 600,
		XFormCacheMaxMB:      64,
		DefaultLanguage:      "en",
	}
}

// OpenRosaTimeout returns the OpenRosa request timeout as a duration.
func (c *Config) OpenRosaTimeout() time.Duration {
	return time.Duration(c.OpenRosaTimeoutMS) * time.Millisecond
}

// RedisDialTimeout returns the Redis dial timeout as a duration.
func (c *Config) RedisDialTimeout() time.Duration {
	return time.Duration(c.RedisDialTimeoutMS) * time.Millisecond
}

// XFormCacheTTL returns the XForm cache lifetime as a duration.
func (c *Config) XFormCacheTTL() time.Duration {
	return time.Duration(c.XFormCacheTTLSeconds) * time.Second
}

// Validate checks the configuration for values the service cannot start with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.CookieSecret == "":
		return fmt.Errorf("%w: cookie_secret must not be empty", ErrInvalidConfig)
	case c.AuthCookieName == "":
		return fmt.Errorf("%w: auth_cookie_name must not be empty", ErrInvalidConfig)
	case c.OpenRosaTimeoutMS <= 0:
		return fmt.Errorf("%w: openrosa_timeout_ms must be positive", ErrInvalidConfig)
	case c.RedisDialTimeoutMS < 0:
		return fmt.Errorf("%w: redis_dial_timeout_ms must not be negative", ErrInvalidConfig)
	case c.XFormCacheTTLSeconds < 0:
		return fmt.Errorf("%w: xform_cache_ttl_s must not be negative", ErrInvalidConfig)
	}

	switch c.StoreDriver {
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr must not be empty", ErrInvalidConfig)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	return nil
}
