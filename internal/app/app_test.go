package app

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bookedbeauty/welcome-offer-gate/internal/config"
	"github.com/bookedbeauty/welcome-offer-gate/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, crm http.HandlerFunc) http.Handler {
	t.Helper()
	srv := httptest.NewServer(crm)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.CRM.APIKey = "test"
	cfg.CRM.LocationID = "loc"
	cfg.CRM.BaseURL = srv.URL

	a := New(cfg, logger.Discard())
	t.Cleanup(a.Close)
	return a.Router()
}

func TestUnknownContactMakesTwoOrderedAttempts(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
		n     int32
	)
	router := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&n, 1)
		mu.Lock()
		calls = append(calls, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/validateOffer?contactId=ghost", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, config.DefaultInvalidURL, rec.Header().Get("Location"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&n))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/v1/contacts/ghost", "/v1/locations/loc/contacts/ghost"}, calls)
}

func TestRootPathValidatesOffer(t *testing.T) {
	router := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"contact":{"id":"abc","tags":["Welcome Offer Opt-In"],"customField":[{"name":"Welcome Offer Access","value":"yes"}]}}`))
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?contactId=abc&utm_source=ig", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), config.DefaultValidURL+"?")
	assert.Contains(t, rec.Header().Get("Location"), "utm_source=ig")
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
	assert.NotEmpty(t, rec.Header().Get("Location"))
}

func TestMissingContactIDMakesNoCRMCalls(t *testing.T) {
	var n int32
	router := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&n, 1)
	})

	for _, path := range []string{"/api/entry", "/api/validateOffer", "/api/opt-inRejoin"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusFound, rec.Code, path)
	}
	assert.Zero(t, atomic.LoadInt32(&n))
}

func TestOperationalEndpoints(t *testing.T) {
	router := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestStatusPreflightAllowsCORS(t *testing.T) {
	router := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodOptions, "/api/checkOfferStatus", nil)
	req.Header.Set("Origin", "https://yourbeautyclinic.bookedbeauty.co")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
