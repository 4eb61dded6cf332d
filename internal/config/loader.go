package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from the process environment.
// It applies defaults for unset values and validates the result.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads configuration using getenv to look up variables.
func LoadFrom(getenv func(string) string) (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), getenv); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct fills the tagged fields of v, descending into nested sections.
// A field is read from its env tag, then its envAlt tag, then its default.
func loadStruct(v reflect.Value, getenv func(string) string) error {
	for i := range v.NumField() {
		sf := v.Type().Field(i)
		fv := v.Field(i)
		if !sf.IsExported() {
			continue
		}

		if sf.Type.Kind() == reflect.Struct {
			if err := loadStruct(fv, getenv); err != nil {
				return err
			}
			continue
		}

		name, raw := lookupEnv(sf, getenv)
		if name == "" || raw == "" {
			continue
		}
		if err := setField(fv, raw); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", name, raw, err)
		}
	}
	return nil
}

// lookupEnv returns the variable name of a field and its raw value, which
// falls back to the default tag. An untagged field has no name.
func lookupEnv(sf reflect.StructField, getenv func(string) string) (name, raw string) {
	name = sf.Tag.Get("env")
	if name == "" {
		return "", ""
	}
	if raw = getenv(name); raw != "" {
		return name, raw
	}
	if alt := sf.Tag.Get("envAlt"); alt != "" {
		if raw = getenv(alt); raw != "" {
			return alt, raw
		}
	}
	return name, sf.Tag.Get("default")
}

var durationType = reflect.TypeFor[time.Duration]()

// setField parses raw into the field according to its type.
func setField(fv reflect.Value, raw string) error {
	if fv.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		fv.SetInt(int64(d))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		fv.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("cannot decode into []%s", fv.Type().Elem().Kind())
		}
		var items []string
		for item := range strings.SplitSeq(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		fv.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("cannot decode into %s", fv.Kind())
	}
	return nil
}

// Validate checks that the configuration is usable.
// All problems are reported together rather than one at a time.
func (c *Config) Validate() error {
	var errs []string

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "SERVER_REQUEST_TIMEOUT must be positive")
	}

	// Catalog
	if strings.TrimSpace(c.Catalog.Source) == "" {
		errs = append(errs, "CATALOG_SOURCE is required")
	} else if IsRemoteSource(c.Catalog.Source) {
		if u, err := url.Parse(c.Catalog.Source); err != nil || u.Host == "" {
			errs = append(errs, fmt.Sprintf("CATALOG_SOURCE (%q) is not a valid URL", c.Catalog.Source))
		}
		if c.Catalog.Watch {
			errs = append(errs, "CATALOG_WATCH requires a file source; use CATALOG_RELOAD_INTERVAL for URLs")
		}
	}
	if c.Catalog.FetchTimeout <= 0 {
		errs = append(errs, "CATALOG_FETCH_TIMEOUT must be positive")
	}
	if c.Catalog.MaxSize <= 0 {
		errs = append(errs, "CATALOG_MAX_SIZE must be positive")
	}
	if c.Catalog.ReloadInterval < 0 {
		errs = append(errs, "CATALOG_RELOAD_INTERVAL must be non-negative")
	}

	// Compare
	if c.Compare.MaxSelected < 2 {
		errs = append(errs, fmt.Sprintf("COMPARE_MAX_SELECTED (%d) must be at least 2", c.Compare.MaxSelected))
	}
	if c.Compare.SearchLimit <= 0 {
		errs = append(errs, "SEARCH_LIMIT must be positive")
	}

	// Session
	if c.Session.TTL <= 0 {
		errs = append(errs, "SESSION_TTL must be positive")
	}
	if c.Session.CookieName == "" {
		errs = append(errs, "SESSION_COOKIE must not be empty")
	}
	if c.Session.MaxSessions <= 0 {
		errs = append(errs, "SESSION_MAX must be positive")
	}

	// Rate limit
	if c.Rate.Enabled {
		if c.Rate.RequestsPerMinute <= 0 {
			errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
		}
		if c.Rate.Burst <= 0 {
			errs = append(errs, "RATE_LIMIT_BURST must be positive when rate limiting is enabled")
		}
		if c.Rate.ReloadPerMinute <= 0 {
			errs = append(errs, "RATE_LIMIT_RELOAD must be positive when rate limiting is enabled")
		}
	}

	// Security
	for _, cidr := range c.Security.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errs = append(errs, fmt.Sprintf("TRUSTED_PROXIES entry %q is not a CIDR", cidr))
		}
	}

	// Logging
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsRemoteSource reports whether a catalog source is an http(s) URL.
func IsRemoteSource(source string) bool {
	s := strings.ToLower(source)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// String returns a representation of the config for logging.
// Query strings of remote catalog sources are masked since they may carry tokens.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Addr: %q}, ", c.Server.Addr())
	fmt.Fprintf(&b, "Catalog: {Source: %q, Watch: %v, ReloadInterval: %s, MaxSize: %d}, ",
		maskSource(c.Catalog.Source), c.Catalog.Watch, c.Catalog.ReloadInterval, c.Catalog.MaxSize)
	fmt.Fprintf(&b, "Compare: {MaxSelected: %d, SearchLimit: %d}, ",
		c.Compare.MaxSelected, c.Compare.SearchLimit)
	fmt.Fprintf(&b, "Session: {TTL: %s, MaxSessions: %d}, ", c.Session.TTL, c.Session.MaxSessions)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}

func maskSource(source string) string {
	if !IsRemoteSource(source) {
		return source
	}
	u, err := url.Parse(source)
	if err != nil {
		return "[MASKED]"
	}
	if u.RawQuery != "" {
		u.RawQuery = "MASKED"
	}
	u.User = nil
	return u.String()
}
