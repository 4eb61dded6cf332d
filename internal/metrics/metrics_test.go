package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCatalogLoad(t *testing.T) {
	m := New()
	now := time.Unix(1700000000, 0)

	m.ObserveCatalogLoad(120, 5*time.Millisecond, now, nil)
	m.ObserveCatalogLoad(0, time.Millisecond, time.Time{}, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.catalogLoads.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.catalogLoads.WithLabelValues("error")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.catalogRecords))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.catalogLoadedAt))
}

func TestObserveSelectionAndSessions(t *testing.T) {
	m := New()
	m.ObserveSelection("added")
	m.ObserveSelection("added")
	m.ObserveSelection("capacity_reached")
	m.SetSessions(3)
	m.RateLimited()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.selections.WithLabelValues("added")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.selections.WithLabelValues("capacity_reached")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.sessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", "/api/search", 200, 2*time.Millisecond)
	m.ObserveRequest("GET", "", 404, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	out := string(body)
	assert.True(t, strings.Contains(out, `cpucompare_http_requests_total{code="200",method="GET",route="/api/search"} 1`), out)
	assert.Contains(t, out, `route="unmatched"`)
	assert.Contains(t, out, "go_goroutines")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCatalogLoad(1, time.Second, time.Now(), nil)
		m.SetSessions(1)
		m.ObserveSelection("added")
		m.ObserveRequest("GET", "/", 200, time.Second)
		m.RateLimited()
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}
