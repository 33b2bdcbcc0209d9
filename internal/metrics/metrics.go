// Package metrics exposes the workflow's prometheus instruments. Collectors
// are created per set rather than globally registered so tests can run in
// isolation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Set bundles the counters the workflow and poller report into.
type Set struct {
	Uploads *prometheus.CounterVec // by bundle
	Polls   prometheus.Counter
	Jobs    *prometheus.CounterVec // by outcome
}

// NewSet creates the instruments and registers them on reg when non-nil.
func NewSet(reg prometheus.Registerer) *Set {
	s := &Set{
		Uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mergeflow_uploads_total",
				Help: "Acknowledged file uploads, partitioned by bundle.",
			},
			[]string{"bundle"},
		),
		Polls: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "mergeflow_job_polls_total",
				Help: "Job status polls issued.",
			},
		),
		Jobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mergeflow_jobs_total",
				Help: "Merge jobs reaching a terminal state, partitioned by outcome.",
			},
			[]string{"outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(s.Uploads, s.Polls, s.Jobs)
	}
	return s
}

// NewNopSet creates unregistered instruments that record nowhere visible.
func NewNopSet() *Set {
	return NewSet(nil)
}
