package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"AveList/pkg/loader"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

var _ loader.Metrics = (*LoaderMetrics)(nil)

func TestLoaderMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLoaderMetrics(reg)
	m.ObservePass()
	m.ObserveFetch(loader.OutcomeLoaded, 20*time.Millisecond)
	m.ObserveFetch(loader.OutcomeLoaded, 30*time.Millisecond)
	m.ObserveFetch(loader.OutcomeCancelled, time.Millisecond)
	m.SetResident(6)
	m.SetInFlight(2)

	require.Equal(t, 1.0, testutil.ToFloat64(m.passes))
	require.Equal(t, 2.0, testutil.ToFloat64(m.fetches.WithLabelValues(loader.OutcomeLoaded)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues(loader.OutcomeCancelled)))
	require.Equal(t, 6.0, testutil.ToFloat64(m.resident))
	require.Equal(t, 2.0, testutil.ToFloat64(m.inflight))
	require.Equal(t, 2, testutil.CollectAndCount(m.duration))

	var nilMetrics *LoaderMetrics
	nilMetrics.ObservePass()
	nilMetrics.SetResident(1)
}

func TestServerMetricsHandler(t *testing.T) {
	reg := NewRegistry()
	m := NewServerMetrics(reg)
	m.ObserveRequest("/api/virtual-list/data", http.MethodGet, 200, 10*time.Millisecond)
	m.ObserveRequest("", http.MethodGet, 404, time.Millisecond)
	require.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("unmatched", "GET", "404")))

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.True(t, strings.Contains(body, `avelist_http_requests_total{method="GET",route="/api/virtual-list/data",status="200"} 1`), body)
	require.Contains(t, body, "go_goroutines")
}
