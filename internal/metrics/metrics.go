// Package metrics counts what a sweep does. A nil *Recorder is valid and
// records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sweepgen"

type Recorder struct {
	reg *prometheus.Registry

	planned  prometheus.Gauge
	written  prometheus.Counter
	failures prometheus.Counter
	duration prometheus.Histogram
	phases   *prometheus.GaugeVec
}

func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		planned: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "combinations_planned",
			Help:      "Number of combinations in the validated sweep plan.",
		}),
		written: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_written_total",
			Help:      "Parameter files written.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "combination_failures_total",
			Help:      "Combinations that could not be materialized.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "materialize_seconds",
			Help:      "Time spent materializing one combination.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		phases: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "phase_seconds",
			Help:      "Wall time of each sweep phase.",
		}, []string{"phase"}),
	}
	r.reg.MustRegister(r.planned, r.written, r.failures, r.duration, r.phases)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

func (r *Recorder) Planned(n int) {
	if r == nil {
		return
	}
	r.planned.Set(float64(n))
}

// Materialized records a combination that wrote files parameter files in d.
func (r *Recorder) Materialized(files int, d time.Duration) {
	if r == nil {
		return
	}
	r.written.Add(float64(files))
	r.duration.Observe(d.Seconds())
}

func (r *Recorder) Failed(d time.Duration) {
	if r == nil {
		return
	}
	r.failures.Inc()
	r.duration.Observe(d.Seconds())
}

func (r *Recorder) Phase(name string, d time.Duration) {
	if r == nil {
		return
	}
	r.phases.WithLabelValues(name).Set(d.Seconds())
}

// WriteTextfile writes every metric in the Prometheus text format, for
// node_exporter's textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.reg)
}
