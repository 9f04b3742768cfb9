package report

import "github.com/prometheus/client_golang/prometheus"

// MetricsSink counts resource outcomes as Prometheus metrics, grounded
// on the teacher's own prometheus.Counter/Histogram usage.
type MetricsSink struct {
	applied  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	errors   prometheus.Counter
}

// NewMetricsSink constructs a MetricsSink and registers its collectors
// with reg.
func NewMetricsSink(reg prometheus.Registerer) *MetricsSink {
	m := &MetricsSink{
		applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ember_resources_applied_total",
			Help: "Count of resources by outcome (updated, up_to_date, skipped, error).",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ember_resource_duration_seconds",
			Help:    "Apply duration per resource.",
			Buckets: prometheus.DefBuckets,
		}, []string{"type"}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ember_run_errors_total",
			Help: "Count of failed resource applies, including ones ignored via ignore_failure.",
		}),
	}
	reg.MustRegister(m.applied, m.duration, m.errors)
	return m
}

func (m *MetricsSink) Emit(r Record) {
	if r.Phase != PhaseDone {
		return
	}
	outcome := "up_to_date"
	switch {
	case r.WasUpdated:
		outcome = "updated"
	case r.Failed:
		outcome = "error"
	case r.SkipReason != nil:
		outcome = "skipped"
	}
	m.applied.WithLabelValues(outcome).Inc()
	if r.Elapsed > 0 {
		m.duration.WithLabelValues(identityType(r.Identity)).Observe(r.Elapsed.Seconds())
	}
	if outcome == "error" {
		m.errors.Inc()
	}
}

func identityType(identity string) string {
	for i, c := range identity {
		if c == '[' {
			return identity[:i]
		}
	}
	return identity
}
