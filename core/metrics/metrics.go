package metrics

import (
	"time"

	"github.com/kilianp07/nightplan/core/events"
)

// Rule run outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomePanic = "panic"
)

// RuleRun describes one recompute of one rule for one target.
type RuleRun struct {
	Rule     string
	Scope    string // "schedule" or "variant"
	Schedule string
	Target   string
	Outcome  string
	Markers  int
	Duration time.Duration
	Time     time.Time
}

// MetricsSink records rule runs for observability purposes.
type MetricsSink interface {
	RecordRuleRun(run RuleRun) error
}

// MarkerRecorder records marker additions and removals.
type MarkerRecorder interface {
	RecordMarker(ev events.MarkerEvent) error
}

// Snapshot summarises the live markers of a schedule after a change.
type Snapshot struct {
	Schedule string
	Variants int
	Allocs   int
	Errors   int
	Warnings int
	Infos    int
	Notices  int
	Time     time.Time
}

// SnapshotRecorder records schedule snapshots.
type SnapshotRecorder interface {
	RecordSnapshot(s Snapshot) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRuleRun(RuleRun) error            { return nil }
func (NopSink) RecordMarker(events.MarkerEvent) error  { return nil }
func (NopSink) RecordSnapshot(Snapshot) error          { return nil }
