package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	m := New()

	m.ObserveExtraction("MTB", OutcomeSuccess, 3)
	m.ObserveExtraction("MTB", OutcomeSuccess, 1)
	m.ObserveExtraction("", OutcomeUnsupported, 0)
	m.ObserveIngestion(OutcomeDuplicate)
	m.ObserveProcessing(150 * time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.extractions.WithLabelValues("MTB", OutcomeSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.extractions.WithLabelValues("unknown", OutcomeUnsupported)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ingestions.WithLabelValues(OutcomeDuplicate)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.extractedTransactions))
	assert.Equal(t, 1, testutil.CollectAndCount(m.processingDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveExtraction("EBL", OutcomeSuccess, 1)
		m.ObserveIngestion(OutcomeSuccess)
		m.ObserveProcessing(time.Second)
		m.ObserveHTTPRequest("GET", "/health", 200, time.Millisecond)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveIngestion(OutcomeSuccess)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `statement_ingestions_total{outcome="success"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestMetrics_ObserveHTTPRequest(t *testing.T) {
	m := New()

	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/statements/:id", http.StatusOK, 10*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/statements/:id", http.StatusOK, 20*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.httpRequests.WithLabelValues(http.MethodGet, "/api/v1/statements/:id", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.httpRequests.WithLabelValues(http.MethodGet, "unmatched", "404")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.httpDuration))
}
