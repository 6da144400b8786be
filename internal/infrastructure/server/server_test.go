package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/SectionPortal/backend/internal/api/middleware"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "navigation", "sections.yaml"), `
items:
  - id: concierge
    type: applications-package
  - id: operations
    type: running-board
  - id: research
    type: running-board
`)
	writeFile(t, filepath.Join(root, "navigation", "finance.toml"), `
[[items]]
id = "finance"
type = "table-reporting"
`)
	writeFile(t, filepath.Join(root, "catalogs", "concierge.json"), `{
  "title": "Concierge Programs",
  "program_groups": [{"name": "Core", "programs": [{"id": "matter-intake", "name": "Matter Intake"}]}]
}`)
	writeFile(t, filepath.Join(root, "modules", "operations", "hub", "operations_hub.js"), `
function launch(info, mount) {
  mount.title("Operations Hub");
  mount.render("<h2>" + info.section + "</h2><script>alert(1)</script>");
}
`)

	cfg := config.Default()
	cfg.Logging.Development = true
	cfg.Logging.Level = "error"
	cfg.RateLimit.Enabled = false
	cfg.Navigation.Path = filepath.Join(root, "navigation")
	cfg.Catalog.Dir = filepath.Join(root, "catalogs")
	cfg.Modules.Root = filepath.Join(root, "modules")
	return cfg
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := NewServer(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func serve(srv *Server, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestNewServerLoadsNavigationFromAllFormats(t *testing.T) {
	srv := newTestServer(t)

	w := serve(srv, http.MethodGet, "/navigation", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Count)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestDispatchThroughScriptAndBuiltinModules(t *testing.T) {
	srv := newTestServer(t)

	w := serve(srv, http.MethodPost, "/navigation/operations/dispatch", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"specifier":"operations/hub/operations_hub"`)

	w = serve(srv, http.MethodGet, "/window", nil)
	assert.Contains(t, w.Body.String(), "Operations Hub")
	assert.NotContains(t, w.Body.String(), "alert(1)")

	// No research-specific module: the built-in prototype board mounts
	w = serve(srv, http.MethodPost, "/navigation/research/dispatch", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"specifier":"prototype/handler"`)

	w = serve(srv, http.MethodPost, "/navigation/finance/dispatch", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"coming_soon"`)

	w = serve(srv, http.MethodPost, "/navigation/concierge/dispatch", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"console_opened"`)
}

func TestMetricsEndpointIsCompressed(t *testing.T) {
	srv := newTestServer(t)

	serve(srv, http.MethodPost, "/navigation/research/dispatch", nil)

	w := serve(srv, http.MethodGet, "/metrics", http.Header{"Accept-Encoding": {"gzip"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	w = serve(srv, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `portal_dispatches_total{outcome="mounted",type="running-board"} 1`)
}

func TestStreamBypassesCompression(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	header := http.Header{"Accept-Encoding": {"gzip"}}
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+streamPath, header)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "system", msg["type"])
}

func TestNewServerFailsWithoutNavigation(t *testing.T) {
	cfg := testConfig(t)
	cfg.Navigation.Path = filepath.Join(t.TempDir(), "missing")

	_, err := NewServer(cfg)
	assert.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	srv, err := NewServer(testConfig(t))
	require.NoError(t, err)

	assert.NoError(t, srv.Close())
	assert.NoError(t, srv.Close())
}

func TestCloseStopsRunningServer(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Modules.Watch = true

	srv, err := NewServer(cfg)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Run() }()

	require.NoError(t, srv.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Close")
	}

	// A closed server does not start again
	assert.NoError(t, srv.Run())
}
