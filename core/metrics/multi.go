package metrics

import "github.com/kilianp07/nightplan/core/events"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRuleRun forwards the run to all sinks, returning the first error encountered.
func (m *MultiSink) RecordRuleRun(run RuleRun) error {
	for _, s := range m.Sinks {
		if err := s.RecordRuleRun(run); err != nil {
			return err
		}
	}
	return nil
}

// RecordMarker forwards marker events to sinks that accept them.
func (m *MultiSink) RecordMarker(ev events.MarkerEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(MarkerRecorder); ok {
			if err := rec.RecordMarker(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSnapshot forwards snapshots to sinks that accept them.
func (m *MultiSink) RecordSnapshot(snap Snapshot) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SnapshotRecorder); ok {
			if err := rec.RecordSnapshot(snap); err != nil {
				return err
			}
		}
	}
	return nil
}
