// Package metrics exposes Prometheus instrumentation for the scan pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ScanAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qr_scan_attempts_total",
			Help: "Total number of scan attempts processed",
		},
		[]string{"action"},
	)

	ScanAcceptedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qr_scan_accepted_total",
			Help: "Total number of accepted scans",
		},
		[]string{"action"},
	)

	ScanRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qr_scan_rejected_total",
			Help: "Total number of rejected scans by rejection kind",
		},
		[]string{"action", "reason"},
	)

	ScanProcessingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qr_scan_processing_duration_seconds",
			Help:    "Duration of scan processing from decode to commit",
			Buckets: prometheus.DefBuckets,
		},
	)

	PayloadsGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qr_payloads_generated_total",
			Help: "Total number of QR payloads derived for display",
		},
		[]string{"action"},
	)

	SeedsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qr_seeds_created_total",
			Help: "Total number of day seeds created",
		},
	)

	ReapedEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qr_reaped_entries_total",
			Help: "Total number of expired entries removed by the reaper",
		},
		[]string{"kind"},
	)
)

// Register registers all collectors with the default registry.
func Register() {
	prometheus.MustRegister(ScanAttemptsTotal)
	prometheus.MustRegister(ScanAcceptedTotal)
	prometheus.MustRegister(ScanRejectedTotal)
	prometheus.MustRegister(ScanProcessingDuration)
	prometheus.MustRegister(PayloadsGeneratedTotal)
	prometheus.MustRegister(SeedsCreatedTotal)
	prometheus.MustRegister(ReapedEntriesTotal)
}
