package schedule

import (
	"fmt"

	"github.com/kilianp07/nightplan/core/interval"
	"github.com/kilianp07/nightplan/core/model"
)

// SetupType says which acquisition overhead precedes the science steps of an Alloc.
type SetupType int

const (
	SetupNone SetupType = iota
	SetupReacquisition
	SetupFull
)

var setupNames = [...]string{"NONE", "REACQUISITION", "FULL"}

func (s SetupType) String() string {
	if int(s) >= 0 && int(s) < len(setupNames) {
		return setupNames[s]
	}
	return fmt.Sprintf("SetupType(%d)", int(s))
}

// ParseSetupType maps a name back to its SetupType.
func ParseSetupType(s string) (SetupType, error) {
	for i, n := range setupNames {
		if n == s {
			return SetupType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown setup type %q", s)
}

// SetupTime returns the overhead of setup for obs.
func SetupTime(obs *model.Obs, setup SetupType) int64 {
	switch setup {
	case SetupFull:
		return obs.Steps.SetupTime
	case SetupReacquisition:
		return obs.Steps.ReacquisitionTime
	default:
		return 0
	}
}

// Span computes the length of a visit covering steps first..last (inclusive) with the
// given setup. Steps already executed cost nothing.
func Span(obs *model.Obs, first, last int, setup SetupType) int64 {
	total := SetupTime(obs, setup)
	for i := first; i <= last && i < obs.Steps.Len(); i++ {
		if i < obs.Steps.Done {
			continue
		}
		total += obs.Steps.StepTimes[i]
	}
	return total
}

// Alloc places steps first..last of an observation on an interval of a Variant.
// Allocs are immutable; moving one replaces it.
type Alloc struct {
	variant *Variant
	obs     *model.Obs
	iv      interval.Interval
	first   int
	last    int
	setup   SetupType
	comment string
}

func (a *Alloc) Obs() *model.Obs             { return a.obs }
func (a *Alloc) Variant() *Variant           { return a.variant }
func (a *Alloc) Interval() interval.Interval { return a.iv }
func (a *Alloc) Start() int64                { return a.iv.Start }
func (a *Alloc) End() int64                  { return a.iv.End }
func (a *Alloc) Length() int64               { return a.iv.Length() }
func (a *Alloc) Middle() int64               { return a.iv.Middle() }
func (a *Alloc) FirstStep() int              { return a.first }
func (a *Alloc) LastStep() int               { return a.last }
func (a *Alloc) Setup() SetupType            { return a.setup }
func (a *Alloc) Comment() string             { return a.comment }

// SetupTime returns the overhead at the start of the visit.
func (a *Alloc) SetupTime() int64 { return SetupTime(a.obs, a.setup) }

// Overlaps compares the intervals of two allocations.
func (a *Alloc) Overlaps(o *Alloc, kind interval.Overlap) bool {
	return o != nil && a.iv.Overlaps(o.iv, kind)
}

// Stats delegates to the schedule's sampler.
func (a *Alloc) Stats(c model.Circumstance, entireVisit bool) (model.Stats, bool) {
	if a.variant == nil || a.variant.schedule == nil || a.variant.schedule.sampler == nil {
		return model.Stats{}, false
	}
	return a.variant.schedule.sampler.Sample(a, c, entireVisit)
}

func (a *Alloc) Min(c model.Circumstance, entireVisit bool) (float64, bool) {
	s, ok := a.Stats(c, entireVisit)
	return s.Min, ok
}

func (a *Alloc) Max(c model.Circumstance, entireVisit bool) (float64, bool) {
	s, ok := a.Stats(c, entireVisit)
	return s.Max, ok
}

func (a *Alloc) Mean(c model.Circumstance, entireVisit bool) (float64, bool) {
	s, ok := a.Stats(c, entireVisit)
	return s.Mean, ok
}

// Predecessor is the Alloc of the same observation covering the steps just before this one.
func (a *Alloc) Predecessor() *Alloc {
	if a.variant == nil {
		return nil
	}
	return a.variant.Predecessor(a)
}

// Successor is the Alloc of the same observation covering the steps just after this one.
func (a *Alloc) Successor() *Alloc {
	if a.variant == nil {
		return nil
	}
	return a.variant.Successor(a)
}

// Previous is the Alloc immediately before this one in time order.
func (a *Alloc) Previous() *Alloc {
	if a.variant == nil {
		return nil
	}
	return a.variant.Previous(a)
}

// Next is the Alloc immediately after this one in time order.
func (a *Alloc) Next() *Alloc {
	if a.variant == nil {
		return nil
	}
	return a.variant.Next(a)
}

// Severity returns the worst marker attached to the Alloc.
func (a *Alloc) Severity() (Severity, bool) {
	if a.variant == nil || a.variant.schedule == nil {
		return 0, false
	}
	return a.variant.schedule.markers.Worst(AllocTarget(a), false)
}

// String renders the observation and its 1-based step range, e.g. "GS-2024A-Q-1-3 S2-4".
func (a *Alloc) String() string {
	s := fmt.Sprintf("%s S%d", a.obs.ID, a.first+1)
	if a.last > a.first {
		s += fmt.Sprintf("-%d", a.last+1)
	}
	return s
}

// less orders allocations by start, then observation and first step.
func less(a, b *Alloc) bool {
	if a.iv.Start != b.iv.Start {
		return a.iv.Start < b.iv.Start
	}
	if a.obs.ID != b.obs.ID {
		return a.obs.ID < b.obs.ID
	}
	if a.first != b.first {
		return a.first < b.first
	}
	return a.iv.End < b.iv.End
}
