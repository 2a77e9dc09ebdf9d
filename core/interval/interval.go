// Package interval provides half-open time ranges and disjoint unions of them.
// Instants are epoch milliseconds.
package interval

import "fmt"

// Overlap classifies how two intervals intersect.
type Overlap int

const (
	// OverlapNone means the intervals share no instant.
	OverlapNone Overlap = iota
	// OverlapPartial means the intervals intersect but neither contains the other.
	OverlapPartial
	// OverlapEither means any intersection, containment included.
	OverlapEither
)

func (o Overlap) String() string {
	switch o {
	case OverlapNone:
		return "NONE"
	case OverlapPartial:
		return "PARTIAL"
	case OverlapEither:
		return "EITHER"
	default:
		return fmt.Sprintf("Overlap(%d)", int(o))
	}
}

// Interval is the half-open range [Start, End).
type Interval struct {
	Start int64 `json:"start" yaml:"start"`
	End   int64 `json:"end" yaml:"end"`
}

// New returns [start, end). It fails when end precedes start.
func New(start, end int64) (Interval, error) {
	if end < start {
		return Interval{}, fmt.Errorf("interval end %d precedes start %d", end, start)
	}
	return Interval{Start: start, End: end}, nil
}

// Length returns End-Start in milliseconds.
func (i Interval) Length() int64 { return i.End - i.Start }

// Empty reports whether the interval contains no instant.
func (i Interval) Empty() bool { return i.End <= i.Start }

// Middle returns the midpoint instant.
func (i Interval) Middle() int64 { return i.Start + i.Length()/2 }

// Contains reports whether t lies in [Start, End).
func (i Interval) Contains(t int64) bool { return t >= i.Start && t < i.End }

// Encloses reports whether every instant of o also belongs to i.
func (i Interval) Encloses(o Interval) bool { return o.Start >= i.Start && o.End <= i.End }

// Abuts reports whether the intervals touch without sharing an instant.
func (i Interval) Abuts(o Interval) bool { return i.End == o.Start || o.End == i.Start }

func (i Interval) intersects(o Interval) bool {
	if i.Empty() || o.Empty() {
		return false
	}
	return i.Start < o.End && o.Start < i.End
}

// Overlap returns OverlapNone when the intervals are disjoint, OverlapPartial when
// the intersection is a strict sub-range of both, and OverlapEither otherwise.
func (i Interval) Overlap(o Interval) Overlap {
	if !i.intersects(o) {
		return OverlapNone
	}
	if i.Encloses(o) || o.Encloses(i) {
		return OverlapEither
	}
	return OverlapPartial
}

// Overlaps reports whether the intervals satisfy the requested overlap kind.
// OverlapEither holds for any intersection, OverlapPartial only for a straddled
// boundary, and OverlapNone only for disjoint intervals.
func (i Interval) Overlaps(o Interval, kind Overlap) bool {
	got := i.Overlap(o)
	switch kind {
	case OverlapNone:
		return got == OverlapNone
	case OverlapPartial:
		return got == OverlapPartial
	case OverlapEither:
		return got != OverlapNone
	default:
		return false
	}
}

// Intersect returns the shared range and whether it is non-empty.
func (i Interval) Intersect(o Interval) (Interval, bool) {
	if !i.intersects(o) {
		return Interval{}, false
	}
	return Interval{Start: max(i.Start, o.Start), End: min(i.End, o.End)}, true
}

func (i Interval) String() string { return fmt.Sprintf("[%d, %d)", i.Start, i.End) }
