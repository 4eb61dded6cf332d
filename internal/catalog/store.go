package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/cpucompare/internal/core"
	"github.com/JonMunkholm/cpucompare/internal/metrics"
)

// Status describes the most recent load.
type Status struct {
	Source     string    `json:"source"`
	Loaded     bool      `json:"loaded"`
	Records    int       `json:"records"`
	Headers    []string  `json:"headers"`
	Duplicates []string  `json:"duplicates,omitempty"`
	LoadedAt   time.Time `json:"loaded_at,omitzero"`
	LastError  string    `json:"last_error,omitempty"`
}

// Store loads catalogs from a Source into a shared core.CatalogHolder.
// A failed load keeps the previous catalog, which is empty until the first
// success. Loads are serialized.
type Store struct {
	source  Source
	holder  *core.CatalogHolder
	metrics *metrics.Metrics
	logger  *slog.Logger

	loadMu sync.Mutex

	mu       sync.RWMutex
	raw      string
	loadedAt time.Time
	lastErr  error
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithMetrics reports loads to m.
func WithMetrics(m *metrics.Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// WithLogger sets the logger; slog.Default() otherwise.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a store publishing into holder. A nil holder gets a fresh one.
func NewStore(src Source, holder *core.CatalogHolder, opts ...StoreOption) *Store {
	if holder == nil {
		holder = core.NewCatalogHolder()
	}
	s := &Store{source: src, holder: holder}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Holder returns the holder controllers read from.
func (s *Store) Holder() *core.CatalogHolder {
	return s.holder
}

// Source returns the configured source.
func (s *Store) Source() Source {
	return s.source
}

// Load fetches and parses the source and, on success, replaces the shared
// catalog wholesale.
func (s *Store) Load(ctx context.Context) (*core.Catalog, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	start := time.Now()
	cat, text, err := s.fetch(ctx)
	elapsed := time.Since(start)

	s.mu.Lock()
	s.lastErr = err
	if err == nil {
		s.raw = text
		s.loadedAt = time.Now()
	}
	loadedAt := s.loadedAt
	s.mu.Unlock()

	if err != nil {
		s.metrics.ObserveCatalogLoad(0, elapsed, loadedAt, err)
		s.logger.Error("catalog load failed",
			"source", s.source.String(),
			"error", err,
			"code", core.MapError(err).Code,
		)
		return nil, err
	}

	s.holder.Replace(cat)
	s.metrics.ObserveCatalogLoad(cat.Len(), elapsed, loadedAt, nil)

	attrs := []any{
		"source", s.source.String(),
		"records", cat.Len(),
		"columns", len(cat.Headers()),
		"duration", elapsed,
	}
	if dups := cat.Duplicates(); len(dups) > 0 {
		attrs = append(attrs, "duplicates", len(dups))
		s.logger.Warn("catalog has duplicate names, first occurrence kept", "names", dups)
	}
	s.logger.Info("catalog loaded", attrs...)
	return cat, nil
}

func (s *Store) fetch(ctx context.Context) (*core.Catalog, string, error) {
	text, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, "", err
	}
	cat, err := core.LoadCatalog(text)
	if err != nil {
		return nil, "", err
	}
	return cat, text, nil
}

// Raw returns the text of the last successfully loaded document.
func (s *Store) Raw() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.raw, !s.loadedAt.IsZero()
}

// LastError returns the error of the most recent load, nil after a success.
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// LoadedAt returns when the current catalog was loaded, zero if never.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Status summarizes the store for the API and health checks.
func (s *Store) Status() Status {
	cat := s.holder.Current()

	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Source:     s.source.String(),
		Loaded:     s.holder.Loaded(),
		Records:    cat.Len(),
		Headers:    cat.Headers(),
		Duplicates: cat.Duplicates(),
		LoadedAt:   s.loadedAt,
	}
	if s.lastErr != nil {
		st.LastError = core.FormatUserError(s.lastErr)
	}
	return st
}

// Refresh reloads the source every interval until ctx is cancelled.
// Failures are logged and the previous catalog stays in place.
func (s *Store) Refresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.Load(ctx)
		}
	}
}
