package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerFor_ExposesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	server := NewServerMetrics(reg, "test")
	payments := NewPaymentMetrics(reg)

	server.Requests.WithLabelValues("/health", "200").Inc()
	payments.Outcomes.WithLabelValues("payment", "credit_card", "OK").Add(2)

	rec := httptest.NewRecorder()
	HandlerFor(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `storefront_test_http_requests_total{handler="/health",status="200"} 1`)
	assert.Contains(t, string(body), `storefront_payment_outcomes_total{code="OK",method="credit_card",operation="payment"} 2`)
}

func TestNewServerMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewServerMetrics(reg, "dup")
	assert.Panics(t, func() { NewServerMetrics(reg, "dup") })
}
