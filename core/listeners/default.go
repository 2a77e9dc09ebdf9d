package listeners

import (
	"github.com/kilianp07/nightplan/core/azimuth"
	"github.com/kilianp07/nightplan/core/windows"
)

// Collaborators are the external services the standard rules consult.
type Collaborators struct {
	Flags   Classifier
	Shutter ShutterAdvisor
	Scores  Scorer
	Windows windows.Provider
	Azimuth azimuth.Factory
}

// NewDefaultRegistry returns a registry holding the standard rule catalog.
func NewDefaultRegistry(c Collaborators, opts ...Option) *Registry {
	r := NewRegistry(opts...)
	r.AddScheduleRule(EmptySchedule{}).
		AddScheduleRule(EmptyIctd{})
	r.AddVariantRule(EmptyVariant{}).
		AddVariantRule(OverlappingAlloc{}).
		AddVariantRule(TruncatedAlloc{}).
		AddVariantRule(Setup{}).
		AddVariantRule(OverAllocation{}).
		AddVariantRule(NewLimits(c)).
		AddVariantRule(NewAzimuth(c.Azimuth)).
		AddVariantRule(SchedulingGroup{})
	return r
}
