package events

import "time"

// RuleEvent is emitted after a rule has been run by the listener registry.
// Outcome is "ok", "error" or "panic".
type RuleEvent struct {
	Rule     string
	Scope    string
	Outcome  string
	Markers  int
	Duration time.Duration
	Err      error
}
