package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"modulys-admin/internal/observability"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func metricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(Metrics())
	r.Get("/api/tenants/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Delete("/api/tenants/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.WriteHeader(http.StatusInternalServerError)
	})
	r.Get("/plain", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	return r
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	router := metricsRouter()
	counter := observability.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/tenants/{id}", "200")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"t1", "t2", "t3"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/tenants/"+id, nil))
	}

	assert.Equal(t, before+3, testutil.ToFloat64(counter))
}

func TestMetrics_RecordsFirstStatus(t *testing.T) {
	router := metricsRouter()
	counter := observability.HTTPRequestsTotal.WithLabelValues(http.MethodDelete, "/api/tenants/{id}", "404")
	before := testutil.ToFloat64(counter)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/tenants/t1", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestMetrics_ImplicitOK(t *testing.T) {
	router := metricsRouter()
	counter := observability.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/plain", "200")
	before := testutil.ToFloat64(counter)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/plain", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestMetrics_UnmatchedRoute(t *testing.T) {
	counter := observability.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")
	before := testutil.ToFloat64(counter)

	handler := Metrics()(http.NotFoundHandler())
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestResponseWriter_Flush(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	rw.Write([]byte("chunk"))
	rw.Flush()

	assert.True(t, rec.Flushed)
	assert.Equal(t, http.ResponseWriter(rec), rw.Unwrap())
}
