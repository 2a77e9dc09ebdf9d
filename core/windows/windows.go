// Package windows serves the per-observation unions of time during which a visit
// would satisfy one of its constraints.
package windows

import (
	"fmt"

	"github.com/kilianp07/nightplan/core/interval"
	"github.com/kilianp07/nightplan/core/model"
	"github.com/kilianp07/nightplan/core/schedule"
)

// Kind selects a constraint.
type Kind int

const (
	// Timing is the time inside the observation's timing windows.
	Timing Kind = iota + 1
	// Visible is the time inside the observation's elevation constraint.
	Visible
	// Dark is the time the sky background constraint is met.
	Dark
)

func (k Kind) String() string {
	switch k {
	case Timing:
		return "timing"
	case Visible:
		return "visible"
	case Dark:
		return "dark"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Provider returns the union of kind for obs over the night of s. A nil union reads
// as empty.
type Provider interface {
	Union(s *schedule.Schedule, obs *model.Obs, kind Kind) *interval.Union
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(s *schedule.Schedule, obs *model.Obs, kind Kind) *interval.Union

func (f ProviderFunc) Union(s *schedule.Schedule, obs *model.Obs, kind Kind) *interval.Union {
	return f(s, obs, kind)
}

// Nop knows no windows.
type Nop struct{}

func (Nop) Union(*schedule.Schedule, *model.Obs, Kind) *interval.Union { return interval.NewUnion() }

// ObsTiming derives Timing unions from the observation's own timing windows,
// clipped to the observing blocks of the schedule. Other kinds are delegated to
// Next, or are empty when Next is nil.
type ObsTiming struct {
	Next Provider
}

func (p ObsTiming) Union(s *schedule.Schedule, obs *model.Obs, kind Kind) *interval.Union {
	if kind != Timing {
		if p.Next == nil {
			return interval.NewUnion()
		}
		return p.Next.Union(s, obs, kind)
	}
	u := interval.NewUnion()
	if s == nil || obs == nil {
		return u
	}
	for _, b := range s.Blocks() {
		for _, w := range obs.TimingWindows {
			open := interval.Interval{Start: w.Start, End: b.End}
			if w.Duration >= 0 {
				open.End = w.Start + w.Duration
			}
			if x, ok := b.Interval.Intersect(open); ok {
				u.Add(x)
			}
		}
	}
	return u
}
