package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for PrescriptionsTotal.
const (
	LabelFulfilled    = "fulfilled"
	LabelInsufficient = "insufficient"
	LabelParseError   = "parse_error"
	LabelStoreError   = "store_error"
	LabelError        = "error"
)

// Metrics holds the service's collectors on a private registry. A nil
// *Metrics records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	prescriptions *prometheus.CounterVec
	extraction    prometheus.Histogram
	httpRequests  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		prescriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rxdesk",
			Name:      "prescriptions_total",
			Help:      "Prescriptions processed, by outcome",
		}, []string{"outcome"}),
		extraction: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rxdesk",
			Name:      "extraction_duration_seconds",
			Help:      "Time spent waiting on the vision model",
			Buckets:   []float64{.25, .5, 1, 2, 4, 8, 16, 32},
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rxdesk",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(m.prescriptions, m.extraction, m.httpRequests)
	return m
}

func (m *Metrics) CountPrescription(outcome string) {
	if m == nil {
		return
	}
	m.prescriptions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveExtraction(d time.Duration) {
	if m == nil {
		return
	}
	m.extraction.Observe(d.Seconds())
}

// Registry exposes the registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware counts requests by chi route pattern so path parameters do not
// explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	})
}
