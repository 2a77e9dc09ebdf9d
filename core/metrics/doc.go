// Package metrics defines the sinks that observe the validation engine. Sinks like
// PromSink and InfluxSink record rule runs, marker changes and schedule snapshots
// and can be combined with NewMultiSink. NewMetricsSink builds them from
// configuration and returns a MultiSink when several remain.
package metrics
