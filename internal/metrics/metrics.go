// Package metrics records batch statistics for analysis passes and solver
// runs in a Prometheus registry. Batches are short-lived, so metrics are
// written to a node-exporter textfile rather than served.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gapbench"

// Recorder holds the metrics of one process. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	// LogsParsed counts parsed logs. Labels: group, status.
	LogsParsed *prometheus.CounterVec
	// ParseFailures counts logs that could not be read or parsed. Labels: group.
	ParseFailures *prometheus.CounterVec
	// CacheLookups counts outcome cache lookups. Labels: result (hit, miss).
	CacheLookups *prometheus.CounterVec
	// Instances is the number of instances in the last pass. Labels: state (resolved, unresolved).
	Instances *prometheus.GaugeVec
	// MeanGap is the mean primal gap per group in the last pass.
	MeanGap *prometheus.GaugeVec
	// AnalysisSeconds observes the duration of analysis passes.
	AnalysisSeconds prometheus.Histogram
	// Tasks counts solver tasks by outcome. Labels: outcome (completed, timeout, failed, skipped).
	Tasks *prometheus.CounterVec
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		LogsParsed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "logs_parsed_total",
			Help:      "Solver logs parsed, by group and outcome status.",
		}, []string{"group", "status"}),
		ParseFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "parse_failures_total",
			Help:      "Solver logs that could not be read or parsed.",
		}, []string{"group"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "cache_lookups_total",
			Help:      "Outcome cache lookups by result.",
		}, []string{"result"}),
		Instances: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "instances",
			Help:      "Instances in the last analysis pass by best-known state.",
		}, []string{"state"}),
		MeanGap: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "mean_primal_gap",
			Help:      "Mean primal gap per group in the last analysis pass.",
		}, []string{"group"}),
		AnalysisSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Wall time of analysis passes.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		Tasks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "tasks_total",
			Help:      "Solver tasks by outcome.",
		}, []string{"outcome"}),
	}
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) ObserveLog(group, status string, failed bool) {
	if r == nil {
		return
	}
	r.LogsParsed.WithLabelValues(group, status).Inc()
	if failed {
		r.ParseFailures.WithLabelValues(group).Inc()
	}
}

func (r *Recorder) ObserveCache(hit bool) {
	if r == nil {
		return
	}
	if hit {
		r.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		r.CacheLookups.WithLabelValues("miss").Inc()
	}
}

func (r *Recorder) SetInstances(resolved, unresolved int) {
	if r == nil {
		return
	}
	r.Instances.WithLabelValues("resolved").Set(float64(resolved))
	r.Instances.WithLabelValues("unresolved").Set(float64(unresolved))
}

func (r *Recorder) SetMeanGap(group string, v float64) {
	if r == nil {
		return
	}
	r.MeanGap.WithLabelValues(group).Set(v)
}

func (r *Recorder) ObserveAnalysis(seconds float64) {
	if r == nil {
		return
	}
	r.AnalysisSeconds.Observe(seconds)
}

func (r *Recorder) ObserveTask(outcome string) {
	if r == nil {
		return
	}
	r.Tasks.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes all metrics in the Prometheus text format, atomically
// replacing path.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
