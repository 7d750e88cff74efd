package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	opTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatdb_store_operations_total",
		Help: "Store operations by operation, collection and result.",
	}, []string{"op", "collection", "result"})

	opSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chatdb_store_operation_seconds",
		Help:    "Store operation latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "collection"})
)

// ObserveOp records one store operation outcome. start is when the call
// began.
func ObserveOp(op, collection string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	opTotal.WithLabelValues(op, collection, result).Inc()
	opSeconds.WithLabelValues(op, collection).Observe(time.Since(start).Seconds())
}
