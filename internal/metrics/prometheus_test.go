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

func TestCollectorRecord(t *testing.T) {
	c := NewCollector()

	c.Record("deposit", time.Now(), true, 100)
	c.Record("deposit", time.Now(), true, 50)
	c.Record("deposit", time.Now(), false, 999)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.operations.WithLabelValues("deposit", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.operations.WithLabelValues("deposit", "failure")))
	assert.Equal(t, float64(150), testutil.ToFloat64(c.moved.WithLabelValues("deposit")))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() { c.Record("withdraw", time.Now(), true, 10) })
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector()
	c.Record("login", time.Now(), true, 0)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ledger_operations_total{operation="login",outcome="success"} 1`)
}
