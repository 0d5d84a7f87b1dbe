package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the Prometheus instrument set elementstore exports: scan and
// write throughput, and a per-stage dropped-rows counter. StageDroppedRows
// is registered, but nothing in elementstore increments it, so it always
// reads zero.
type Metrics struct {
	ScansTotal       *prometheus.CounterVec
	ScanRowsTotal    *prometheus.CounterVec
	WritesTotal      *prometheus.CounterVec
	WriteSkipsTotal  *prometheus.CounterVec
	StageDroppedRows *prometheus.CounterVec
}

// NewMetrics registers elementstore's instruments against reg. Pass
// prometheus.NewRegistry() in tests to avoid colliding with the global
// registry across parallel test binaries.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ScansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "elementstore",
			Name:      "scans_total",
			Help:      "Number of range scans issued against the store.",
		}, []string{"result"}),
		ScanRowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "elementstore",
			Name:      "scan_rows_total",
			Help:      "Number of raw rows returned by scans, before iterator stage filtering.",
		}, []string{"group"}),
		WritesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "elementstore",
			Name:      "writes_total",
			Help:      "Number of elements written via AddElements.",
		}, []string{"result"}),
		WriteSkipsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "elementstore",
			Name:      "write_skips_total",
			Help:      "Number of elements skipped by AddElements, by reason.",
		}, []string{"reason"}),
		StageDroppedRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "elementstore",
			Name:      "iterator_stage_dropped_rows_total",
			Help:      "Number of rows each iterator stage removed from its input.",
		}, []string{"stage"}),
	}
}
