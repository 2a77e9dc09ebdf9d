package listeners

import "github.com/kilianp07/nightplan/core/schedule"

// Rule sources.
const (
	SourceEmptySchedule    = "EmptySchedule"
	SourceEmptyIctd        = "EmptyIctd"
	SourceEmptyVariant     = "EmptyVariant"
	SourceOverlappingAlloc = "OverlappingAlloc"
	SourceTruncatedAlloc   = "TruncatedAlloc"
	SourceSetup            = "Setup"
	SourceOverAllocation   = "OverAllocation"
	SourceLimits           = "Limits"
	SourceAzimuth          = "Azimuth"
	SourceSchedulingGroup  = "SchedulingGroup"
)

// EmptySchedule notes schedules without blocks or variants.
type EmptySchedule struct{}

func (EmptySchedule) Source() string { return SourceEmptySchedule }

func (EmptySchedule) Check(s *schedule.Schedule, emit *Emitter) error {
	if len(s.Blocks()) == 0 {
		emit.Info("Schedule has no observing blocks.", s.Scope())
	}
	if len(s.Variants()) == 0 {
		emit.Info("Schedule has no variants.", s.Scope())
	}
	return nil
}

// EmptyIctd warns when instrument configuration data could not be loaded.
type EmptyIctd struct{}

func (EmptyIctd) Source() string { return SourceEmptyIctd }

func (EmptyIctd) Check(s *schedule.Schedule, emit *Emitter) error {
	if !s.ICTD() {
		emit.Warning("Instrument configuration (ICTD) information is unavailable; availability checks are incomplete.", s.Scope())
	}
	return nil
}

// EmptyVariant notes variants without allocations.
type EmptyVariant struct{}

func (EmptyVariant) Source() string { return SourceEmptyVariant }

func (EmptyVariant) Check(v *schedule.Variant, emit *Emitter) error {
	if v.Empty() {
		emit.Info("Variant is empty.", v.Scope())
	}
	return nil
}
