// Package catalog fetches the CPU catalog and keeps the shared copy current.
package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/JonMunkholm/cpucompare/internal/core"
)

// DefaultFetchTimeout bounds a fetch when the caller's context has no deadline.
const DefaultFetchTimeout = 10 * time.Second

// Source locates a catalog: a local file path or an http(s) URL.
type Source struct {
	Location string

	// Client is used for URL sources; http.DefaultClient when nil.
	Client *http.Client

	// MaxSize caps the document size; core.DefaultMaxCatalogSize when <= 0.
	MaxSize int64

	// Timeout bounds a fetch; DefaultFetchTimeout when <= 0.
	Timeout time.Duration
}

// IsRemote reports whether the source is fetched over HTTP.
func (s Source) IsRemote() bool {
	l := strings.ToLower(s.Location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Path returns the file path of a local source, without a file:// prefix.
func (s Source) Path() string {
	return strings.TrimPrefix(s.Location, "file://")
}

// String is the location with credentials and query removed, for logs.
func (s Source) String() string {
	if !s.IsRemote() {
		return s.Location
	}
	u, err := url.Parse(s.Location)
	if err != nil {
		return "[invalid url]"
	}
	u.User = nil
	if u.RawQuery != "" {
		u.RawQuery = "MASKED"
	}
	return u.String()
}

// Fetch reads the whole catalog document. A non-2xx HTTP status is an error;
// there is no retry.
func (s Source) Fetch(ctx context.Context) (string, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	limit := s.MaxSize
	if limit <= 0 {
		limit = core.DefaultMaxCatalogSize
	}

	if s.IsRemote() {
		return s.fetchHTTP(ctx, limit)
	}
	return s.fetchFile(ctx, limit)
}

func (s Source) fetchHTTP(ctx context.Context, limit int64) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Location, nil)
	if err != nil {
		return "", fmt.Errorf("fetch catalog: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch catalog: unexpected status %s", resp.Status)
	}

	text, err := core.ReadCatalogText(resp.Body, limit)
	if err != nil {
		return "", fmt.Errorf("fetch catalog: %w", err)
	}
	return text, nil
}

func (s Source) fetchFile(ctx context.Context, limit int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("fetch catalog: %w", err)
	}
	f, err := os.Open(s.Path())
	if err != nil {
		return "", fmt.Errorf("fetch catalog: %w", err)
	}
	defer f.Close()

	text, err := core.ReadCatalogText(f, limit)
	if err != nil {
		return "", fmt.Errorf("fetch catalog: %w", err)
	}
	return text, nil
}
