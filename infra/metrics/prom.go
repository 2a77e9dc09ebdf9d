package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/nightplan/core/events"
	coremetrics "github.com/kilianp07/nightplan/core/metrics"
)

// PromSink records rule runs and marker churn in Prometheus metrics.
type PromSink struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	markers  *prometheus.CounterVec
	live     *prometheus.GaugeVec
	allocs   *prometheus.GaugeVec
}

// NewPromSink registers the metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nightplan_rule_runs_total",
		Help: "Rule recomputations by rule, scope and outcome",
	}, []string{"rule", "scope", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nightplan_rule_duration_seconds",
		Help:    "Time spent running a rule against one target",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
	}, []string{"rule", "scope"})
	markers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nightplan_marker_events_total",
		Help: "Markers added and removed by source and severity",
	}, []string{"source", "severity", "op"})
	live := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "nightplan_markers_live",
		Help: "Live markers by schedule and severity",
	}, []string{"schedule", "severity"})
	allocs := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "nightplan_schedule_allocs",
		Help: "Allocations across all variants of a schedule",
	}, []string{"schedule"})

	var err error
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if markers, err = register(reg, markers); err != nil {
		return nil, err
	}
	if live, err = register(reg, live); err != nil {
		return nil, err
	}
	if allocs, err = register(reg, allocs); err != nil {
		return nil, err
	}
	return &PromSink{runs: runs, duration: duration, markers: markers, live: live, allocs: allocs}, nil
}

// register reuses a collector already registered under the same descriptor.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRuleRun counts the run and observes its duration.
func (s *PromSink) RecordRuleRun(run coremetrics.RuleRun) error {
	s.runs.WithLabelValues(run.Rule, run.Scope, run.Outcome).Inc()
	s.duration.WithLabelValues(run.Rule, run.Scope).Observe(run.Duration.Seconds())
	return nil
}

// RecordMarker counts the marker event.
func (s *PromSink) RecordMarker(ev events.MarkerEvent) error {
	s.markers.WithLabelValues(ev.Source, ev.Severity, string(ev.Op)).Inc()
	return nil
}

// RecordSnapshot sets the live marker gauges of the schedule.
func (s *PromSink) RecordSnapshot(snap coremetrics.Snapshot) error {
	s.live.WithLabelValues(snap.Schedule, "error").Set(float64(snap.Errors))
	s.live.WithLabelValues(snap.Schedule, "warning").Set(float64(snap.Warnings))
	s.live.WithLabelValues(snap.Schedule, "info").Set(float64(snap.Infos))
	s.live.WithLabelValues(snap.Schedule, "notice").Set(float64(snap.Notices))
	s.allocs.WithLabelValues(snap.Schedule).Set(float64(snap.Allocs))
	return nil
}
