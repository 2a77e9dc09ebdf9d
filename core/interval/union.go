package interval

import (
	"iter"
	"sort"
)

// Union is an ordered set of disjoint, non-adjacent intervals.
// The zero value is an empty union ready to use. A nil *Union reads as empty.
type Union struct {
	members []Interval
}

// NewUnion builds a union from the given intervals.
func NewUnion(ivs ...Interval) *Union {
	u := &Union{}
	for _, iv := range ivs {
		u.Add(iv)
	}
	return u
}

// Add inserts iv, merging every member that touches or overlaps it.
// Empty intervals are ignored.
func (u *Union) Add(iv Interval) {
	if iv.Empty() {
		return
	}
	// first member whose end reaches iv.Start; members before it stay untouched
	lo := sort.Search(len(u.members), func(k int) bool { return u.members[k].End >= iv.Start })
	hi := lo
	merged := iv
	for hi < len(u.members) && u.members[hi].Start <= iv.End {
		merged.Start = min(merged.Start, u.members[hi].Start)
		merged.End = max(merged.End, u.members[hi].End)
		hi++
	}
	out := make([]Interval, 0, len(u.members)-(hi-lo)+1)
	out = append(out, u.members[:lo]...)
	out = append(out, merged)
	out = append(out, u.members[hi:]...)
	u.members = out
}

// Len returns the number of disjoint members.
func (u *Union) Len() int {
	if u == nil {
		return 0
	}
	return len(u.members)
}

// Length returns the summed length of all members.
func (u *Union) Length() int64 {
	var total int64
	if u == nil {
		return 0
	}
	for _, m := range u.members {
		total += m.Length()
	}
	return total
}

// Intervals returns a copy of the members in ascending order.
func (u *Union) Intervals() []Interval {
	if u == nil {
		return nil
	}
	out := make([]Interval, len(u.members))
	copy(out, u.members)
	return out
}

// All iterates the members in ascending order.
func (u *Union) All() iter.Seq[Interval] {
	return func(yield func(Interval) bool) {
		if u == nil {
			return
		}
		for _, m := range u.members {
			if !yield(m) {
				return
			}
		}
	}
}

// Contains reports whether t falls inside any member.
func (u *Union) Contains(t int64) bool {
	if u == nil {
		return false
	}
	k := sort.Search(len(u.members), func(k int) bool { return u.members[k].End > t })
	return k < len(u.members) && u.members[k].Contains(t)
}

// Remove subtracts iv from the union, splitting members that straddle it.
func (u *Union) Remove(iv Interval) {
	if iv.Empty() {
		return
	}
	out := make([]Interval, 0, len(u.members)+1)
	for _, m := range u.members {
		if m.End <= iv.Start || m.Start >= iv.End {
			out = append(out, m)
			continue
		}
		if m.Start < iv.Start {
			out = append(out, Interval{Start: m.Start, End: iv.Start})
		}
		if m.End > iv.End {
			out = append(out, Interval{Start: iv.End, End: m.End})
		}
	}
	u.members = out
}
