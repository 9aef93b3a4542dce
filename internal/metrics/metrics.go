// Package metrics provides Prometheus instrumentation for the trade log.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FillsSeen counts option fills observed in gateway snapshots.
	FillsSeen = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradelog_fills_seen_total",
		Help: "Option fills observed in gateway snapshots",
	})

	// FillsSkipped counts fills held back for an unknown commission or an
	// unreadable execution time.
	FillsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradelog_fills_skipped_total",
		Help: "Option fills skipped for missing commission or unreadable time",
	})

	LedgerRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradelog_ledger_rows",
		Help: "Rows currently in the ledger",
	})

	PendingFills = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradelog_pending_fills",
		Help: "Option fills waiting for a commission report",
	})

	LedgerWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradelog_ledger_writes_total",
		Help: "Times the ledger file was rewritten",
	})

	// CycleErrors counts failed poll cycles, partitioned by stage.
	CycleErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradelog_cycle_errors_total",
		Help: "Failed poll cycles",
	}, []string{"stage"})

	Reconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradelog_reconnects_total",
		Help: "Gateway session reconnects",
	})

	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tradelog_cycle_duration_seconds",
		Help:    "Poll cycle duration in seconds",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
