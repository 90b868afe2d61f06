package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNoCacheHeaders(t *testing.T) {
	h := NoCache(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/validateOffer", nil))

	assert.Equal(t, "no-store, no-cache, must-revalidate, proxy-revalidate", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
	assert.Equal(t, "0", rec.Header().Get("Expires"))
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/api/validateOffer", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/validateOffer", "302"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/validateOffer?contactId=abc", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/validateOffer", "302")))
}

func TestRecordVerdict(t *testing.T) {
	before := testutil.ToFloat64(offerVerdicts.WithLabelValues("validate_offer", "valid"))
	RecordVerdict("validate_offer", true)
	assert.Equal(t, before+1, testutil.ToFloat64(offerVerdicts.WithLabelValues("validate_offer", "valid")))

	before = testutil.ToFloat64(crmAttempts.WithLabelValues("contact", "not_found"))
	RecordCRMAttempt("contact", "not_found")
	assert.Equal(t, before+1, testutil.ToFloat64(crmAttempts.WithLabelValues("contact", "not_found")))
}
