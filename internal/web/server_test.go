package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/cpucompare/internal/catalog"
	"github.com/JonMunkholm/cpucompare/internal/core"
	"github.com/JonMunkholm/cpucompare/internal/metrics"
	"github.com/JonMunkholm/cpucompare/internal/session"
)

const testCatalog = `ID,Name,Codename,Cores,Clock,Socket,TDP
1,Core i7-9700K,Coffee Lake,8,3.6 to 4.9,LGA1151,95
2,Core i9-9900K,Coffee Lake,8/16,3.6 to 5.0,LGA1151,95
3,Ryzen 5 3600,Matisse,6/12,3.6 to 4.2,AM4,65
4,Ryzen 7 3700X,Matisse,8/16,3.6 to 4.4,AM4,65
`

type testEnv struct {
	server  *Server
	http    *httptest.Server
	client  *http.Client
	csvPath string
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	return newTestEnvWithCatalog(t, opts, testCatalog)
}

func newTestEnvWithCatalog(t *testing.T, opts Options, csv string) *testEnv {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tpu_cpus.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	holder := core.NewCatalogHolder()
	store := catalog.NewStore(catalog.Source{Location: path}, holder,
		catalog.WithLogger(quiet), catalog.WithMetrics(m))
	_, err := store.Load(context.Background())
	require.NoError(t, err)

	sessions := session.NewManager(func() *core.Controller {
		return core.NewController(holder, core.Options{MaxSelected: 2})
	}, session.Options{})

	srv := NewServer(store, sessions, m, opts)
	ts := httptest.NewServer(srv.Router())

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	t.Cleanup(func() {
		ts.Close()
		_ = srv.Shutdown(context.Background())
	})
	return &testEnv{server: srv, http: ts, client: client, csvPath: path}
}

func (e *testEnv) do(t *testing.T, method, path string, form url.Values) *http.Response {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, e.http.URL+path, body)
	require.NoError(t, err)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestAPISelection_EscapedNames(t *testing.T) {
	env := newTestEnvWithCatalog(t, Options{}, "ID,Name,Cores\n1,Turbo 100% Edition,8\n2,Xeon E5/E7,12\n")

	names := []string{"Turbo 100% Edition", "Xeon E5/E7"}
	for _, name := range names {
		resp := env.do(t, http.MethodPost, "/api/selection/"+url.PathEscape(name), nil)
		assert.Equal(t, http.StatusCreated, resp.StatusCode, name)
	}

	var sel selectionResponse
	decode(t, env.do(t, http.MethodGet, "/api/selection", nil), &sel)
	assert.Equal(t, names, sel.Names)

	resp := env.do(t, http.MethodDelete, "/api/selection/"+url.PathEscape("Turbo 100% Edition"), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPage_SearchSelectAndCompare(t *testing.T) {
	env := newTestEnv(t, Options{})

	resp := env.do(t, http.MethodGet, "/?q=ryzen", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "Ryzen 5 3600")
	assert.Contains(t, body, "Ryzen 7 3700X")
	assert.NotContains(t, body, "Core i9-9900K")

	resp = env.do(t, http.MethodPost, "/select", url.Values{"name": {"Ryzen 5 3600"}, "q": {"ryzen"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/?q=ryzen", resp.Header.Get("Location"))

	resp = env.do(t, http.MethodPost, "/select", url.Values{"name": {"Core i9-9900K"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/", nil)
	body = readBody(t, resp)
	assert.Contains(t, body, "<table")
	assert.Contains(t, body, "Core i9-9900K")
	assert.Contains(t, body, "best")
}

func TestPage_SelectWhenFullShowsNotice(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.do(t, http.MethodPost, "/select", url.Values{"name": {"Ryzen 5 3600"}})
	env.do(t, http.MethodPost, "/select", url.Values{"name": {"Ryzen 7 3700X"}})
	resp := env.do(t, http.MethodPost, "/select", url.Values{"name": {"Core i7-9700K"}})

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "You can compare at most 2 processors", loc.Query().Get("notice"))
}

func TestPage_SortAndClear(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.do(t, http.MethodPost, "/select", url.Values{"name": {"Ryzen 5 3600"}})
	env.do(t, http.MethodPost, "/select", url.Values{"name": {"Core i9-9900K"}})

	resp := env.do(t, http.MethodPost, "/sort", url.Values{"column": {"Socket"}})
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "This column cannot be sorted", loc.Query().Get("notice"))

	resp = env.do(t, http.MethodPost, "/sort", url.Values{"column": {"Cores"}})
	assert.Equal(t, "/", resp.Header.Get("Location"))

	var model map[string]any
	decode(t, env.do(t, http.MethodGet, "/api/compare", nil), &model)
	assert.Equal(t, map[string]any{"column": "Cores", "dir": "asc"}, model["sort"])

	env.do(t, http.MethodPost, "/clear", url.Values{})
	var sel selectionResponse
	decode(t, env.do(t, http.MethodGet, "/api/selection", nil), &sel)
	assert.Empty(t, sel.Names)
}

func TestAPI_SelectionLifecycle(t *testing.T) {
	env := newTestEnv(t, Options{})

	resp := env.do(t, http.MethodPost, "/api/selection/"+url.PathEscape("Core i7-9700K"), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var sel selectionResponse
	decode(t, resp, &sel)
	assert.Equal(t, []string{"Core i7-9700K"}, sel.Names)
	assert.Equal(t, 2, sel.Max)

	resp = env.do(t, http.MethodPost, "/api/selection/"+url.PathEscape("Core i7-9700K"), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/selection/"+url.PathEscape("Pentium II"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var errResp ErrorResponse
	decode(t, resp, &errResp)
	assert.Equal(t, "SEL002", errResp.Code)

	env.do(t, http.MethodPost, "/api/selection/"+url.PathEscape("Ryzen 5 3600"), nil)
	resp = env.do(t, http.MethodPost, "/api/selection/"+url.PathEscape("Ryzen 7 3700X"), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	decode(t, resp, &errResp)
	assert.Equal(t, "SEL001", errResp.Code)

	resp = env.do(t, http.MethodDelete, "/api/selection/"+url.PathEscape("Core i7-9700K"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &sel)
	assert.Equal(t, []string{"Ryzen 5 3600"}, sel.Names)

	resp = env.do(t, http.MethodDelete, "/api/selection/"+url.PathEscape("Core i7-9700K"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/api/selection", nil)
	decode(t, resp, &sel)
	assert.Empty(t, sel.Names)
}

func TestAPI_SessionsAreIsolated(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.do(t, http.MethodPost, "/api/selection/"+url.PathEscape("Ryzen 5 3600"), nil)

	resp, err := http.Get(env.http.URL + "/api/selection")
	require.NoError(t, err)
	defer resp.Body.Close()
	var sel selectionResponse
	decode(t, resp, &sel)
	assert.Empty(t, sel.Names)
}

func TestAPI_Search(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.do(t, http.MethodPost, "/api/selection/"+url.PathEscape("Core i9-9900K"), nil)

	var resp searchResponse
	decode(t, env.do(t, http.MethodGet, "/api/search?q=core+99", nil), &resp)
	require.Len(t, resp.Results, 1)
	got := resp.Results[0]
	assert.Equal(t, "Core i9-9900K", got.Name)
	assert.Equal(t, 16, got.EffectiveCores)
	require.NotNil(t, got.MaxClockGHz)
	assert.InDelta(t, 5.0, *got.MaxClockGHz, 1e-9)
	assert.True(t, got.Selected)

	decode(t, env.do(t, http.MethodGet, "/api/search?q=", nil), &resp)
	assert.Empty(t, resp.Results)
}

func TestAPI_SortRejectsUnsortableColumn(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.do(t, http.MethodPost, "/api/selection/"+url.PathEscape("Ryzen 5 3600"), nil)

	resp := env.do(t, http.MethodPost, "/api/sort/Codename", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errResp ErrorResponse
	decode(t, resp, &errResp)
	assert.Equal(t, "SORT001", errResp.Code)

	resp = env.do(t, http.MethodPost, "/api/sort/TDP", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(t, http.MethodPost, "/api/sort/TDP", nil)
	var model map[string]any
	decode(t, resp, &model)
	assert.Equal(t, map[string]any{"column": "TDP", "dir": "desc"}, model["sort"])
}

func TestAPI_Export(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.do(t, http.MethodPost, "/api/selection/"+url.PathEscape("Ryzen 5 3600"), nil)

	resp := env.do(t, http.MethodGet, "/api/export.csv", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "cpu-comparison.csv")
	rows, err := catalog.ReadSummary(resp.Body)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ryzen 5 3600", rows[0].Name)
	assert.Equal(t, "12", rows[0].EffectiveCores)

	resp = env.do(t, http.MethodGet, "/api/export.csv?all=1", nil)
	rows, err = catalog.ReadSummary(resp.Body)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestCatalog_RawAndStatus(t *testing.T) {
	env := newTestEnv(t, Options{})

	resp := env.do(t, http.MethodGet, "/tpu_cpus.csv", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, testCatalog, readBody(t, resp))

	var st catalogResponse
	decode(t, env.do(t, http.MethodGet, "/api/catalog", nil), &st)
	assert.True(t, st.Loaded)
	assert.Equal(t, 4, st.Records)
	keys := make([]string, len(st.Columns))
	for i, c := range st.Columns {
		keys[i] = c.Key
	}
	assert.Equal(t, []string{"Name", "Codename", "Cores", "Clock", "Socket", "TDP"}, keys)
}

func TestCatalog_FailedReloadKeepsPrevious(t *testing.T) {
	env := newTestEnv(t, Options{})
	require.NoError(t, os.WriteFile(env.csvPath, []byte("ID,Model\n1,x\n"), 0o644))

	resp := env.do(t, http.MethodPost, "/api/catalog/reload", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var errResp ErrorResponse
	decode(t, resp, &errResp)
	assert.Equal(t, "CSV002", errResp.Code)

	var st catalogResponse
	decode(t, env.do(t, http.MethodGet, "/api/catalog", nil), &st)
	assert.Equal(t, 4, st.Records)
	assert.Contains(t, st.LastError, "CSV002")

	body := readBody(t, env.do(t, http.MethodGet, "/", nil))
	assert.Contains(t, body, "CSV002")

	require.NoError(t, os.WriteFile(env.csvPath, []byte("ID,Name\n1,Core i3-8100\n"), 0o644))
	resp = env.do(t, http.MethodPost, "/api/catalog/reload", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &st)
	assert.Equal(t, 1, st.Records)
	assert.Empty(t, st.LastError)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, Options{})
	resp := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var h map[string]any
	decode(t, resp, &h)
	assert.Equal(t, "ok", h["status"])
	assert.Equal(t, float64(4), h["records"])
}

func TestNotFound_NegotiatesFormat(t *testing.T) {
	env := newTestEnv(t, Options{})

	resp := env.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	resp = env.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, readBody(t, resp), "Page not found")
}

func TestSecurityHeadersAndStatic(t *testing.T) {
	env := newTestEnv(t, Options{EnableCSP: true})

	resp := env.do(t, http.MethodGet, "/static/style.css", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("Content-Security-Policy"))
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.do(t, http.MethodPost, "/api/selection/"+url.PathEscape("Ryzen 5 3600"), nil)

	body := readBody(t, env.do(t, http.MethodGet, "/metrics", nil))
	assert.Contains(t, body, "cpucompare_catalog_records 4")
	assert.Contains(t, body, `status="added"`)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, Options{RateLimit: RateLimitOptions{
		Enabled:           true,
		RequestsPerMinute: 1,
		Burst:             2,
		ReloadPerMinute:   1,
	}})

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", nil).StatusCode)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", nil).StatusCode)

	resp := env.do(t, http.MethodGet, "/api/selection", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
	var errResp ErrorResponse
	decode(t, resp, &errResp)
	assert.Equal(t, "RATE001", errResp.Code)
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := newRateLimiter(60, 1, nil)
	defer rl.Close()

	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.2"))

	rl.sweep(time.Now().Add(visitorTTL + time.Second))
	rl.mu.Lock()
	assert.Empty(t, rl.visitors)
	rl.mu.Unlock()

	assert.Equal(t, "1", rl.retryAfter())
	rl.Close()
}
