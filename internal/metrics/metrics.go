package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Broadcast metrics
var (
	// ActiveSessions tracks currently open sessions per topic
	ActiveSessions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "broadcast_active_sessions",
			Help: "Currently open sessions by topic",
		},
		[]string{"topic"},
	)

	// FramesDelivered tracks frames successfully delivered to clients
	FramesDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_frames_delivered_total",
			Help: "Total frames delivered to clients by topic",
		},
		[]string{"topic"},
	)

	// DeliveryFailures tracks delivery failures (treated as disconnects)
	DeliveryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_delivery_failures_total",
			Help: "Total delivery failures by topic",
		},
		[]string{"topic"},
	)

	// FetchFailures tracks snapshot fetch failures (cycle skipped)
	FetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_fetch_failures_total",
			Help: "Total snapshot fetch failures by topic",
		},
		[]string{"topic"},
	)

	// SkippedCycles tracks cycles skipped by reason (not_ready, fetch_error, empty)
	SkippedCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_skipped_cycles_total",
			Help: "Total broadcast cycles skipped by topic and reason",
		},
		[]string{"topic", "reason"},
	)

	// CycleDuration tracks full broadcast cycle duration in seconds
	CycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "broadcast_cycle_duration_seconds",
			Help:    "Broadcast cycle duration in seconds (fetch plus delivery)",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"topic"},
	)
)

// Collector metrics
var (
	// CollectorBatches tracks completed collection runs
	CollectorBatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "collector_batches_total",
			Help: "Total completed data collection runs",
		},
	)

	// CollectorErrors tracks failed collection runs
	CollectorErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "collector_errors_total",
			Help: "Total failed data collection runs",
		},
	)
)
