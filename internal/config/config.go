// Package config loads the server configuration from environment variables.
// Defaults come from struct tags and the result is validated once at startup.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Catalog  CatalogConfig
	Compare  CompareConfig
	Session  SessionConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`

	// RequestTimeout is the middleware timeout for a single request (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`
}

// CatalogConfig describes where the CPU catalog comes from.
type CatalogConfig struct {
	// Source is a file path or an http(s) URL of the catalog CSV.
	Source string `env:"CATALOG_SOURCE" envAlt:"CSV_PATH" default:"data/tpu_cpus.csv"`

	// Watch reloads a file source when it changes on disk (default: false)
	Watch bool `env:"CATALOG_WATCH" default:"false"`

	// ReloadInterval refetches the source periodically; 0 disables it.
	ReloadInterval time.Duration `env:"CATALOG_RELOAD_INTERVAL" default:"0s"`

	// FetchTimeout bounds a single fetch of the source (default: 10s)
	FetchTimeout time.Duration `env:"CATALOG_FETCH_TIMEOUT" default:"10s"`

	// MaxSize is the largest catalog accepted, in bytes (default: 16MB)
	MaxSize int64 `env:"CATALOG_MAX_SIZE" default:"16777216"`

	// ColumnsFile overrides the built-in column policy with a YAML file.
	ColumnsFile string `env:"COLUMNS_FILE"`
}

// CompareConfig holds comparison limits.
type CompareConfig struct {
	// MaxSelected is how many CPUs can be compared at once (default: 5)
	MaxSelected int `env:"COMPARE_MAX_SELECTED" default:"5"`

	// SearchLimit is the number of suggestions per search (default: 12)
	SearchLimit int `env:"SEARCH_LIMIT" default:"12"`
}

// SessionConfig holds browser session settings.
type SessionConfig struct {
	// TTL is how long an idle session is kept (default: 2h)
	TTL time.Duration `env:"SESSION_TTL" default:"2h"`

	CookieName string `env:"SESSION_COOKIE" default:"cpucompare_session"`

	// Secure marks the cookie Secure; enable behind TLS.
	Secure bool `env:"SESSION_COOKIE_SECURE" default:"false"`

	// MaxSessions caps live sessions; the least recently used is evicted.
	MaxSessions int `env:"SESSION_MAX" default:"10000"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the sustained rate per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// Burst is the number of requests allowed above the sustained rate (default: 30)
	Burst int `env:"RATE_LIMIT_BURST" default:"30"`

	// ReloadPerMinute limits catalog reloads per IP (default: 6)
	ReloadPerMinute int `env:"RATE_LIMIT_RELOAD" default:"6"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Forwarded-For / X-Real-IP headers are believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP sends a Content-Security-Policy header (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
