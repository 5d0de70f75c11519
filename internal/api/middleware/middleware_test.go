package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AgendaService/pkg/metrics"
)

func TestAuth(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := Auth(next)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, seen)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	req.Header.Set(UserIDHeader, "  ")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	req.Header.Set(UserIDHeader, "user-7")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-7", seen)
}

func TestGetUserID_Missing(t *testing.T) {
	_, ok := GetUserID(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}

type recorderStub struct {
	method string
	path   string
	status int
}

func (r *recorderStub) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	r.method, r.path, r.status = method, path, status
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	rec := &recorderStub{}
	r := mux.NewRouter()
	r.Use(MetricsMiddleware(rec))
	r.HandleFunc("/api/v1/appointments/{appointmentId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/appointments/a-42", nil))

	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/api/v1/appointments/{appointmentId}", rec.path)
	assert.Equal(t, http.StatusNotFound, rec.status)
}

func TestMetricsMiddleware_Prometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegisterer("agenda-test", reg)

	r := mux.NewRouter()
	r.Use(MetricsMiddleware(m))
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	}

	families, err := reg.Gather()
	require.NoError(t, err)
	var (
		series int
		total  float64
	)
	for _, mf := range families {
		if mf.GetName() != "agenda_http_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			series++
			total += metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1, series)
	assert.Equal(t, 3.0, total)
}
