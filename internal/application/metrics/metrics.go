package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the application workflow. Counters
// track lifecycle volume; the histogram watches the finalize critical path.
type Metrics struct {
	Submitted        prometheus.Counter
	ProfilesProposed prometheus.Counter
	Approved         prometheus.Counter
	ChangesRequested prometheus.Counter
	Rejected         prometheus.Counter
	Finalized        prometheus.Counter
	FinalizeDuration prometheus.Histogram
}

// New creates a Metrics instance with all workflow metrics registered.
func New() *Metrics {
	return &Metrics{
		Submitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stagelink_applications_submitted_total",
			Help: "Total number of applications submitted",
		}),
		ProfilesProposed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stagelink_profiles_proposed_total",
			Help: "Total number of admin profile proposals",
		}),
		Approved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stagelink_applications_approved_total",
			Help: "Total number of applicant approvals (including manual overrides)",
		}),
		ChangesRequested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stagelink_application_changes_requested_total",
			Help: "Total number of applicant change requests",
		}),
		Rejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stagelink_applications_rejected_total",
			Help: "Total number of rejected applications",
		}),
		Finalized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stagelink_applications_finalized_total",
			Help: "Total number of applications finalized into public profiles",
		}),
		FinalizeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "stagelink_finalize_duration_seconds",
			Help:    "Duration of finalize operations (directory insert plus status flip)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveFinalize records the duration of a finalize operation.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveFinalize(start time.Time) {
	m.FinalizeDuration.Observe(time.Since(start).Seconds())
}
