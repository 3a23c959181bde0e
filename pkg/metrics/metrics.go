// pkg/metrics/metrics.go

// Package metrics exports loader and server activity to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "avelist"

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the metrics of reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// LoaderMetrics implements loader.Metrics.
// All methods are nil-safe.
type LoaderMetrics struct {
	passes   prometheus.Counter
	fetches  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	resident prometheus.Gauge
	inflight prometheus.Gauge
}

func NewLoaderMetrics(reg prometheus.Registerer) *LoaderMetrics {
	return &LoaderMetrics{
		passes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "passes_total",
			Help:      "Scheduling passes run after the visible range settled",
		}),
		fetches: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "fetches_total",
			Help:      "Chunk fetches by outcome",
		}, []string{"outcome"}),
		duration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of chunk fetches by outcome",
			Buckets: []float64{
				0.01, // 10ms
				0.05,
				0.1,
				0.25,
				0.5, // slowest simulated delay
				1,
				2.5,
				10, // client timeout
			},
		}, []string{"outcome"}),
		resident: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "resident_chunks",
			Help:      "Chunks held in the store, errored ones included",
		}),
		inflight: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "inflight_chunks",
			Help:      "Chunks being fetched",
		}),
	}
}

func (m *LoaderMetrics) ObservePass() {
	if m == nil {
		return
	}
	m.passes.Inc()
}

func (m *LoaderMetrics) ObserveFetch(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *LoaderMetrics) SetResident(chunks int) {
	if m == nil {
		return
	}
	m.resident.Set(float64(chunks))
}

func (m *LoaderMetrics) SetInFlight(chunks int) {
	if m == nil {
		return
	}
	m.inflight.Set(float64(chunks))
}

// ServerMetrics implements server.Observer.
type ServerMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewServerMetrics(reg prometheus.Registerer) *ServerMetrics {
	return &ServerMetrics{
		requests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests served by route, method and status",
		}, []string{"route", "method", "status"}),
		duration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Request latency by route, simulated delay included",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (m *ServerMetrics) ObserveRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(d.Seconds())
}
