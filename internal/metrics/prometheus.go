package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector counts ledger operations by name and outcome.
type Collector struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	moved      *prometheus.CounterVec
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Total number of ledger operations by outcome",
		}, []string{"operation", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Time taken to process a ledger operation",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		moved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_amount_moved_total",
			Help: "Sum of amounts moved by successful operations",
		}, []string{"operation"}),
	}
}

// Record observes one operation. amount is added to the moved total only on success.
func (c *Collector) Record(operation string, started time.Time, success bool, amount int64) {
	if c == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
		if amount > 0 {
			c.moved.WithLabelValues(operation).Add(float64(amount))
		}
	}
	c.operations.WithLabelValues(operation, outcome).Inc()
	c.duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
