package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CountPrescription(LabelFulfilled)
		m.ObserveExtraction(time.Second)
	})
}

func TestCountersAndMiddleware(t *testing.T) {
	m := New()
	m.CountPrescription(LabelInsufficient)
	m.CountPrescription(LabelInsufficient)
	m.ObserveExtraction(1500 * time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.prescriptions.WithLabelValues(LabelInsufficient)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.extraction))

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/drugs/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	for _, name := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/drugs/"+name, nil))
	}

	expected := `# HELP rxdesk_http_requests_total HTTP requests by method, route and status
# TYPE rxdesk_http_requests_total counter
rxdesk_http_requests_total{method="GET",route="/drugs/{name}",status="404"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "rxdesk_http_requests_total"))
}
