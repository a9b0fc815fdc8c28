// Package observability exposes the matching engine's Prometheus metrics:
// orders processed, match latency, and stop-trigger cascade depth.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matching_engine",
			Subsystem: "orders",
			Name:      "processed_total",
			Help:      "Orders submitted to the engine, by symbol and outcome",
		},
		[]string{"symbol", "outcome"},
	)

	tradesExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matching_engine",
			Subsystem: "trades",
			Name:      "executed_total",
			Help:      "Trades produced by the matching engine, by symbol",
		},
		[]string{"symbol"},
	)

	matchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "matching_engine",
			Subsystem: "orders",
			Name:      "submit_duration_seconds",
			Help:      "Time spent inside Engine.Submit, by symbol",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"symbol"},
	)

	cascadeDepth = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "matching_engine",
			Subsystem: "stops",
			Name:      "cascade_depth",
			Help:      "Number of stop-trigger waves processed per price move",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"symbol"},
	)

	cascadeOverflows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matching_engine",
			Subsystem: "stops",
			Name:      "cascade_overflow_total",
			Help:      "Cascade waves that exceeded the configured max depth",
		},
		[]string{"symbol"},
	)

	bookDepthGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "matching_engine",
			Subsystem: "book",
			Name:      "best_quantity",
			Help:      "Quantity resting at the best price for a symbol/side",
		},
		[]string{"symbol", "side"},
	)
)

// ObserveSubmit records the outcome and latency of one Engine.Submit call.
func ObserveSubmit(symbol, outcome string, duration time.Duration) {
	ordersProcessed.WithLabelValues(symbol, outcome).Inc()
	matchLatency.WithLabelValues(symbol).Observe(duration.Seconds())
}

// ObserveTrades records how many trades one submission produced.
func ObserveTrades(symbol string, count int) {
	if count <= 0 {
		return
	}
	tradesExecuted.WithLabelValues(symbol).Add(float64(count))
}

// ObserveCascade records the depth reached by one stop-trigger wave, and
// whether it overflowed the configured ceiling.
func ObserveCascade(symbol string, depth int, overflowed bool) {
	cascadeDepth.WithLabelValues(symbol).Observe(float64(depth))
	if overflowed {
		cascadeOverflows.WithLabelValues(symbol).Inc()
	}
}

// ObserveBestQuantity records the current best-bid/best-ask quantity.
func ObserveBestQuantity(symbol, side string, quantity float64) {
	bookDepthGauge.WithLabelValues(symbol, side).Set(quantity)
}
