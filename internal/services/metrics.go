package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records optimization and review activity. A nil *Metrics is a no-op.
type Metrics struct {
	runs        *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	assigned    *prometheus.CounterVec
	unassigned  *prometheus.CounterVec
	objective   *prometheus.GaugeVec
	reviews     *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on reg
// (prometheus.DefaultRegisterer if nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wmsopt",
			Subsystem: "optimizer",
			Name:      "runs_total",
			Help:      "Optimization runs by strategy and result (success, failure).",
		}, []string{"strategy", "result"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wmsopt",
			Subsystem: "optimizer",
			Name:      "run_duration_seconds",
			Help:      "Wall time of optimization runs including persistence.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms .. ~10s
		}, []string{"strategy"}),
		assigned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wmsopt",
			Subsystem: "optimizer",
			Name:      "assigned_tasks_total",
			Help:      "Tasks assigned by successful runs.",
		}, []string{"strategy"}),
		unassigned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wmsopt",
			Subsystem: "optimizer",
			Name:      "unassigned_tasks_total",
			Help:      "Eligible tasks left unassigned by successful runs.",
		}, []string{"strategy"}),
		objective: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "wmsopt",
			Subsystem: "optimizer",
			Name:      "last_objective",
			Help:      "Total weight of the last successful matching run.",
		}, []string{"strategy"}),
		reviews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wmsopt",
			Subsystem: "assignments",
			Name:      "reviews_total",
			Help:      "Assignment status changes by resulting status.",
		}, []string{"status"}),
	}
	reg.MustRegister(m.runs, m.runDuration, m.assigned, m.unassigned, m.objective, m.reviews)
	return m
}

func (m *Metrics) observeRun(strategy string, plan *Plan, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.runDuration.WithLabelValues(strategy).Observe(took.Seconds())
	if err != nil {
		m.runs.WithLabelValues(strategy, "failure").Inc()
		return
	}
	m.runs.WithLabelValues(strategy, "success").Inc()
	m.assigned.WithLabelValues(strategy).Add(float64(plan.Assigned))
	m.unassigned.WithLabelValues(strategy).Add(float64(len(plan.Unassigned)))
	m.objective.WithLabelValues(strategy).Set(plan.Objective)
}

func (m *Metrics) observeReview(status string) {
	if m == nil {
		return
	}
	m.reviews.WithLabelValues(status).Inc()
}
