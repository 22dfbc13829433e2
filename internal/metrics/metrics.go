// Package metrics registers the Prometheus collectors the coordinator
// updates during a build, trimmed from the shape of the teacher's
// app/observability/metrics registry (gauges/counters registered once,
// updated from many goroutines).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors holds every collector the bundler exposes. A fresh set is
// registered into its own registry per Bundler instance so that multiple
// bundlers in one process don't collide on metric names.
type Collectors struct {
	Registry *prometheus.Registry

	TasksInFlight  prometheus.Gauge
	TasksCompleted prometheus.Counter
	TaskErrors     *prometheus.CounterVec
	BuildDuration  prometheus.Histogram
}

// New constructs and registers a fresh Collectors set.
func New() *Collectors {
	reg := prometheus.NewRegistry()

	c := &Collectors{
		Registry: reg,
		TasksInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bundler",
			Name:      "tasks_in_flight",
			Help:      "Number of module tasks spawned but not yet consumed by the coordinator.",
		}),
		TasksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bundler",
			Name:      "tasks_completed_total",
			Help:      "Number of module tasks whose result has been consumed.",
		}),
		TaskErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bundler",
			Name:      "task_errors_total",
			Help:      "Per-module task errors, labeled by error code.",
		}, []string{"code"}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bundler",
			Name:      "build_duration_seconds",
			Help:      "Wall-clock duration of a full build() call.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(c.TasksInFlight, c.TasksCompleted, c.TaskErrors, c.BuildDuration)
	return c
}

// Gatherer exposes the registry as a prometheus.Gatherer for a host to
// scrape; no HTTP handler ships with this package.
func (c *Collectors) Gatherer() prometheus.Gatherer { return c.Registry }
