package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/ecomm/internal/config"
)

func loadConfig(t *testing.T, debug bool) *config.Config {
	t.Helper()
	for _, k := range []string{"SECRET_KEY", "DEBUG", "DATABASE_URL", "ECOMM_BASE_DIR", "ECOMM_HTTP__METRICS_ADDR"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	if debug {
		t.Setenv("DEBUG", "on")
	}
	cfg, err := config.Load(config.Options{BaseDir: t.TempDir()})
	require.NoError(t, err)
	return cfg
}

func do(h http.Handler, host, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Host = host
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_HealthAndMetricsBypassChain(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cfg := loadConfig(t, false)
	h, err := NewRouter(Deps{Config: cfg, DB: sqlx.NewDb(db, "sqlmock")})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	rr := do(h, "10.0.0.5:8000", "/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))
	assert.Empty(t, rr.Header().Get("X-Frame-Options"))

	mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("down"))
	assert.Equal(t, http.StatusServiceUnavailable, do(h, "10.0.0.5", "/healthz").Code)
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, http.StatusOK, do(h, "10.0.0.5", "/metrics").Code)
}

func TestRouter_SiteRunsChain(t *testing.T) {
	cfg := loadConfig(t, false)
	h, err := NewRouter(Deps{Config: cfg})
	require.NoError(t, err)

	rr := do(h, "localhost", "/no-such-page/")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rr.Header().Get("Strict-Transport-Security"))

	assert.Equal(t, http.StatusBadRequest, do(h, "evil.example", "/").Code)
	assert.Equal(t, http.StatusNotFound, do(h, "localhost", "/__debug__/request").Code)
}

func TestRouter_DebugEndpoint(t *testing.T) {
	cfg := loadConfig(t, true)
	h, err := NewRouter(Deps{Config: cfg})
	require.NoError(t, err)

	rr := do(h, "localhost", "/__debug__/request")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"signed_in": false`)
}

func TestRouter_SeparateMetricsListener(t *testing.T) {
	cfg := loadConfig(t, false)
	cp := *cfg
	cp.HTTP.MetricsAddr = ":9100"
	h, err := NewRouter(Deps{Config: &cp})
	require.NoError(t, err)

	// /metrics now falls through to the site and 404s.
	assert.Equal(t, http.StatusNotFound, do(h, "localhost", "/metrics").Code)
	assert.Equal(t, http.StatusOK, do(MetricsHandler(), "localhost", "/metrics").Code)
}

func TestRouter_BadChain(t *testing.T) {
	cfg := loadConfig(t, false)
	cp := *cfg
	cp.Middleware = config.NewPipeline("csrf", "security")
	_, err := NewRouter(Deps{Config: &cp})
	assert.Error(t, err)
}

func TestRequestIDReusesValidInbound(t *testing.T) {
	const id = "3f1c8a7e-2b4d-4c1e-9a7f-6d5e4c3b2a10"
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, id, RequestIDFrom(r.Context()))
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, id)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, id, rr.Header().Get(RequestIDHeader))

	req.Header.Set(RequestIDHeader, "not-a-uuid\nX-Injected: 1")
	rr = httptest.NewRecorder()
	RequestID(http.NotFoundHandler()).ServeHTTP(rr, req)
	assert.NotEqual(t, "not-a-uuid\nX-Injected: 1", rr.Header().Get(RequestIDHeader))
}
