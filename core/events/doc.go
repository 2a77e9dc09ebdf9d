// Package events defines the validation events emitted on the event bus.
//
// Available event types:
//   - MarkerEvent: a marker was added to or removed from a schedule
//   - RuleEvent: a rule finished a run, with its outcome
package events
