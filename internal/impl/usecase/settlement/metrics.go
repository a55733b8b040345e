package impl_settlement

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	settlementTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "remittance_settlement_transitions_total",
		Help: "Settlement attempts per transfer, labeled by result",
	}, []string{"result"})

	settlementTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "remittance_settlement_tick_duration_seconds",
		Help:    "Duration of a settlement tick",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
	})

	settlementScanErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "remittance_settlement_scan_errors_total",
		Help: "Ticks that could not list pending transfers",
	})
)
