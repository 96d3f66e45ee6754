package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the warranty lifecycle.
// All methods are no-ops on a nil receiver.
type Metrics struct {
	// Successful serial transitions by expected source set and target
	Transitions *prometheus.CounterVec

	// Lost compare-and-swap attempts by target status
	TransitionConflicts *prometheus.CounterVec

	// Registration attempts by result: registered, already_registered, rejected
	Registrations *prometheus.CounterVec

	ClaimsFiled prometheus.Counter

	// Claims created whose serial transition failed
	Inconsistencies prometheus.Counter

	// Object storage uploads by kind (evidence, receipt) and result
	Uploads        *prometheus.CounterVec
	UploadDuration prometheus.Histogram

	// Bulk import rows by result: created or the failing error code
	ImportRows *prometheus.CounterVec

	// Claims flagged by the most recent reconciliation scan
	OrphanedClaims prometheus.Gauge

	// End-to-end protocol latency by operation
	OperationDuration *prometheus.HistogramVec
}

// New registers warranty metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "warranty_serial_transitions_total",
			Help: "Serial status transitions by expected source set and target status",
		}, []string{"expected", "to"}),

		TransitionConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "warranty_serial_transition_conflicts_total",
			Help: "Transitions rejected because the serial was not in an expected status",
		}, []string{"to"}),

		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "warranty_registrations_total",
			Help: "Warranty registration attempts by result",
		}, []string{"result"}),

		ClaimsFiled: f.NewCounter(prometheus.CounterOpts{
			Name: "warranty_claims_filed_total",
			Help: "Claims filed with the serial moved to claimed",
		}),

		Inconsistencies: f.NewCounter(prometheus.CounterOpts{
			Name: "warranty_claim_inconsistencies_total",
			Help: "Claims created whose serial transition failed and need manual review",
		}),

		Uploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "warranty_uploads_total",
			Help: "Object storage uploads by kind and result",
		}, []string{"kind", "result"}),

		UploadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "warranty_upload_duration_seconds",
			Help:    "Duration of a single object storage upload",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		ImportRows: f.NewCounterVec(prometheus.CounterOpts{
			Name: "warranty_import_rows_total",
			Help: "Bulk import rows by result",
		}, []string{"result"}),

		OrphanedClaims: f.NewGauge(prometheus.GaugeOpts{
			Name: "warranty_orphaned_claims",
			Help: "Claims whose serial does not point back to them, as of the last scan",
		}),

		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "warranty_operation_duration_seconds",
			Help:    "Duration of warranty protocol operations",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncTransition(expected, to string) {
	if m != nil {
		m.Transitions.WithLabelValues(expected, to).Inc()
	}
}

func (m *Metrics) IncTransitionConflict(to string) {
	if m != nil {
		m.TransitionConflicts.WithLabelValues(to).Inc()
	}
}

func (m *Metrics) IncRegistration(result string) {
	if m != nil {
		m.Registrations.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncClaimFiled() {
	if m != nil {
		m.ClaimsFiled.Inc()
	}
}

func (m *Metrics) IncInconsistency() {
	if m != nil {
		m.Inconsistencies.Inc()
	}
}

// ObserveUpload records one upload attempt.
func (m *Metrics) ObserveUpload(kind string, err error, d time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Uploads.WithLabelValues(kind, result).Inc()
	m.UploadDuration.Observe(d.Seconds())
}

func (m *Metrics) IncImportRow(result string) {
	if m != nil {
		m.ImportRows.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) SetOrphanedClaims(n int) {
	if m != nil {
		m.OrphanedClaims.Set(float64(n))
	}
}

func (m *Metrics) ObserveOperation(op string, d time.Duration) {
	if m != nil {
		m.OperationDuration.WithLabelValues(op).Observe(d.Seconds())
	}
}
