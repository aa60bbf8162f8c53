package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Store Prometheus metrics.
var (
	StoreRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecgate",
			Name:      "store_requests_total",
			Help:      "Total number of vector store operations",
		},
		[]string{"backend", "op", "status"},
	)

	StoreRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vecgate",
			Name:      "store_request_duration_seconds",
			Help:      "Vector store operation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"backend", "op"},
	)

	StoreCollections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "vecgate",
			Name:      "store_collections",
			Help:      "Number of collections seen by the last list operation",
		},
		[]string{"backend"},
	)
)

var registerStore sync.Once

// RegisterStoreMetrics registers Prometheus store metrics. Safe to call more than once.
func RegisterStoreMetrics() {
	registerStore.Do(func() {
		prometheus.MustRegister(StoreRequestsTotal)
		prometheus.MustRegister(StoreRequestDuration)
		prometheus.MustRegister(StoreCollections)
	})
}

// ObserveStore records one store operation.
func ObserveStore(backend, op, status string, d time.Duration) {
	StoreRequestsTotal.WithLabelValues(backend, op, status).Inc()
	StoreRequestDuration.WithLabelValues(backend, op).Observe(d.Seconds())
}
