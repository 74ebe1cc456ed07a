package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// passTotal counts recomputation passes by outcome
	passTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ignoromenot_pass_total",
		Help: "Recomputation passes by result (ok, invalid, cancelled)",
	}, []string{"result"})

	// passDuration tracks end-to-end pass latency
	passDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ignoromenot_pass_duration_seconds",
		Help:    "Recomputation pass duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
	})

	// rowErrorsTotal counts mention tables skipped for failed coercion
	rowErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ignoromenot_row_errors_total",
		Help: "Mention tables skipped because a row failed type coercion",
	})

	proteinsInView = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ignoromenot_proteins_in_view",
		Help: "Proteins in the most recent snapshot",
	})

	mentionsInView = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ignoromenot_mentions_in_view",
		Help: "Qualifying mentions in the most recent snapshot",
	})

	// fallbackTotal counts passes that returned a previous snapshot instead of a fresh one
	fallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ignoromenot_fallback_total",
		Help: "Failed passes answered with the previous consistent snapshot",
	})

	// reloadTotal counts source reloads by result
	reloadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ignoromenot_reload_total",
		Help: "Source reloads by result (ok, error)",
	}, []string{"result"})
)
