// Package session keeps one comparison controller per browser.
//
// Sessions are identified by a random UUID in a cookie and live in memory
// only; an idle session is dropped after its TTL. Losing a session loses
// nothing but the current selection.
package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/cpucompare/internal/core"
	"github.com/JonMunkholm/cpucompare/internal/metrics"
)

// Defaults applied by NewManager for zero Options fields.
const (
	DefaultCookieName  = "cpucompare_session"
	DefaultTTL         = 2 * time.Hour
	DefaultMaxSessions = 10000
)

// Options configures a Manager.
type Options struct {
	CookieName  string
	TTL         time.Duration
	MaxSessions int
	Secure      bool
	Metrics     *metrics.Metrics
}

// Manager maps session IDs to controllers.
type Manager struct {
	newController func() *core.Controller
	opts          Options
	now           func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	ctrl     *core.Controller
	lastSeen time.Time
}

// NewManager creates a manager that builds controllers with factory.
func NewManager(factory func() *core.Controller, opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	return &Manager{
		newController: factory,
		opts:          opts,
		now:           time.Now,
		sessions:      make(map[string]*entry),
	}
}

// Controller returns the controller for the request's session, creating a
// session and setting its cookie when the request has none or an expired one.
func (m *Manager) Controller(w http.ResponseWriter, r *http.Request) *core.Controller {
	if c, err := r.Cookie(m.opts.CookieName); err == nil {
		if ctrl, ok := m.Lookup(c.Value); ok {
			return ctrl
		}
	}

	id, ctrl := m.create()
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(m.opts.TTL / time.Second),
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return ctrl
}

// Lookup returns the controller for id and marks the session as used.
// Malformed and unknown IDs report false.
func (m *Manager) Lookup(id string) (*core.Controller, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	now := m.now()
	if now.Sub(e.lastSeen) > m.opts.TTL {
		delete(m.sessions, id)
		m.opts.Metrics.SetSessions(len(m.sessions))
		return nil, false
	}
	e.lastSeen = now
	return e.ctrl, true
}

func (m *Manager) create() (string, *core.Controller) {
	id := uuid.NewString()
	ctrl := m.newController()

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.opts.MaxSessions {
		m.evictOldestLocked()
	}
	m.sessions[id] = &entry{ctrl: ctrl, lastSeen: m.now()}
	m.opts.Metrics.SetSessions(len(m.sessions))
	return id, ctrl
}

func (m *Manager) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, e := range m.sessions {
		if oldestID == "" || e.lastSeen.Before(oldest) {
			oldestID, oldest = id, e.lastSeen
		}
	}
	if oldestID != "" {
		delete(m.sessions, oldestID)
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, e := range m.sessions {
		if now.Sub(e.lastSeen) > m.opts.TTL {
			delete(m.sessions, id)
			removed++
		}
	}
	m.opts.Metrics.SetSessions(len(m.sessions))
	return removed
}

// Run sweeps expired sessions periodically until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	interval := m.opts.TTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
