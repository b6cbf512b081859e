package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evinsights/internal/config"
	"evinsights/internal/infrastructure"
	"evinsights/internal/shared/testutil"
)

// OTel providers register exporters with the process-wide Prometheus
// registry, so the test binary initializes them once.
var (
	testOTelOnce      sync.Once
	testOTelProviders *infrastructure.OTelProviders
	testOTelErr       error
)

func otelProvidersForTest(t *testing.T) *infrastructure.OTelProviders {
	t.Helper()
	testOTelOnce.Do(func() {
		logger, _ := testutil.NewTestLogger(t)
		testOTelProviders, testOTelErr = infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	})
	require.NoError(t, testOTelErr)
	return testOTelProviders
}

// newTestApplication assembles an Application over fixture data without
// going through NewApplication, which resolves paths relative to the
// executable.
func newTestApplication(t *testing.T) *Application {
	t.Helper()

	dir := t.TempDir()
	fixtures := testutil.NewDataFixtures(dir)
	geoPath, concernsPath := fixtures.WriteBoth(t)

	paths := &config.Paths{
		ExecutableDir: dir,
		DataDir:       dir,
		ReportsDir:    filepath.Join(dir, "reports"),
		LogsDir:       filepath.Join(dir, "logs"),
		GeoCSV:        geoPath,
		ConcernsCSV:   concernsPath,
	}
	require.NoError(t, paths.EnsureDirectories())

	logger, _ := testutil.NewTestLogger(t)

	app := &Application{
		Config:        config.Default(),
		Paths:         paths,
		Logger:        logger,
		Metrics:       infrastructure.NewMetricsForTesting(),
		OTelProviders: otelProvidersForTest(t),
		FrontendFS: fstest.MapFS{
			"index.html": &fstest.MapFile{Data: []byte("<!DOCTYPE html><html><body>dashboard</body></html>")},
			"app.js":     &fstest.MapFile{Data: []byte("console.log('ready');")},
		},
	}

	require.NoError(t, app.initializeServices())
	t.Cleanup(app.WebSocketHub.Stop)

	app.setupRouter()
	return app
}

func TestApplication_DashboardEndpoint(t *testing.T) {
	app := newTestApplication(t)
	server := httptest.NewServer(app.Router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/dashboard?state=TX&city=Austin&top=5")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))

	summary, ok := view["summary"].(map[string]interface{})
	require.True(t, ok, "dashboard payload should carry a summary")
	assert.Equal(t, float64(5), summary["zip_count"])
	assert.NotEmpty(t, view["top_zips"])
	assert.NotEmpty(t, view["concerns"])
	assert.NotEmpty(t, view["talking_points"])
}

func TestApplication_HealthAndVersionEndpoints(t *testing.T) {
	app := newTestApplication(t)
	server := httptest.NewServer(app.Router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])

	resp, err = http.Get(server.URL + "/api/version")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var version map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&version))
	assert.Equal(t, Version, version["version"])
}

func TestApplication_MetricsEndpoint(t *testing.T) {
	app := newTestApplication(t)
	server := httptest.NewServer(app.Router)
	defer server.Close()

	resp, err := http.Get(server.URL + config.MetricsEndpoint)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotEmpty(t, body)
}

func TestApplication_ServesFrontend(t *testing.T) {
	app := newTestApplication(t)
	server := httptest.NewServer(app.Router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "dashboard")

	resp, err = http.Get(server.URL + "/assets/app.js")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Cache-Control"), "max-age")
}

func TestApplication_WebSocketUpgrade(t *testing.T) {
	app := newTestApplication(t)
	server := httptest.NewServer(app.Router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + config.WebSocketEndpoint
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var greeting map[string]interface{}
	require.NoError(t, json.Unmarshal(frame, &greeting))
	assert.Equal(t, "connect", greeting["type"])
}

func TestApplication_WebSocketRejectsForeignOrigin(t *testing.T) {
	app := newTestApplication(t)
	server := httptest.NewServer(app.Router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + config.WebSocketEndpoint
	header := http.Header{"Origin": []string{"http://attacker.example"}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if conn != nil {
		conn.Close()
	}
	if resp != nil {
		resp.Body.Close()
	}
	assert.Error(t, err)
}

func TestApplication_CORSConfig(t *testing.T) {
	app := &Application{Config: config.Default()}
	cfg := app.corsConfig()

	assert.Contains(t, cfg.AllowedOrigins, "http://localhost:8080")
	assert.Contains(t, cfg.AllowedMethods, "GET")
	assert.Contains(t, cfg.AllowedMethods, "POST")
	assert.True(t, cfg.AllowCredentials)
}

func TestApplication_StartupHealthCheck(t *testing.T) {
	app := newTestApplication(t)

	require.NoError(t, app.performStartupHealthCheck(context.Background()))

	require.NoError(t, os.Remove(app.Paths.GeoCSV))
	err := app.performStartupHealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.GeoFileName)
}

func TestApplication_RefreshEndpoint(t *testing.T) {
	app := newTestApplication(t)
	server := httptest.NewServer(app.Router)
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/refresh", "application/json",
		strings.NewReader(`{"reason":"integration test"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "success", payload["status"])
}

func TestApplication_ExportEndpoint(t *testing.T) {
	app := newTestApplication(t)
	server := httptest.NewServer(app.Router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/export/zips?top=3")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	assert.Len(t, lines, 4, "header plus three ranked rows")
}

func TestApplication_UnknownAPIRouteRendersProblem(t *testing.T) {
	app := newTestApplication(t)
	server := httptest.NewServer(app.Router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/nonexistent")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var problem map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))
	assert.Equal(t, "/errors/not-found", problem["type"])

	resp, err = http.Post(server.URL+"/api/dashboard", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	problem = map[string]interface{}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))
	assert.Contains(t, problem["detail"], "POST")
}
