// Package listeners binds validation rules to schedules and variants.
//
// A Registry holds an ordered list of schedule-level and variant-level rules. When a
// schedule or variant is attached, every rule subscribes to it and runs once. On each
// change notification a rule clears the markers it previously produced for the
// target and recomputes them from scratch, so rules never depend on each other or on
// their own history. A rule that fails or panics is logged and reported and leaves no
// markers behind for that target.
package listeners
