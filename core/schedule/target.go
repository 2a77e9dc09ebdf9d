package schedule

import "fmt"

// TargetKind tags the entity a Marker is attached to.
type TargetKind int

const (
	TargetSchedule TargetKind = iota + 1
	TargetVariant
	TargetAlloc
)

func (k TargetKind) String() string {
	switch k {
	case TargetSchedule:
		return "schedule"
	case TargetVariant:
		return "variant"
	case TargetAlloc:
		return "alloc"
	default:
		return fmt.Sprintf("TargetKind(%d)", int(k))
	}
}

// Target is a closed union over Schedule, Variant and Alloc.
// Exactly the pointer matching Kind is set.
type Target struct {
	Kind     TargetKind
	schedule *Schedule
	variant  *Variant
	alloc    *Alloc
}

func ScheduleTarget(s *Schedule) Target { return Target{Kind: TargetSchedule, schedule: s} }
func VariantTarget(v *Variant) Target   { return Target{Kind: TargetVariant, variant: v} }
func AllocTarget(a *Alloc) Target       { return Target{Kind: TargetAlloc, alloc: a} }

// Schedule returns the schedule the target belongs to.
func (t Target) Schedule() *Schedule {
	switch t.Kind {
	case TargetSchedule:
		return t.schedule
	case TargetVariant:
		return t.variant.schedule
	case TargetAlloc:
		if t.alloc.variant != nil {
			return t.alloc.variant.schedule
		}
	}
	return nil
}

// Variant returns the variant of a Variant or Alloc target, nil otherwise.
func (t Target) Variant() *Variant {
	switch t.Kind {
	case TargetVariant:
		return t.variant
	case TargetAlloc:
		return t.alloc.variant
	}
	return nil
}

// Alloc returns the allocation of an Alloc target, nil otherwise.
func (t Target) Alloc() *Alloc {
	if t.Kind == TargetAlloc {
		return t.alloc
	}
	return nil
}

// Within reports whether t is scope itself or belongs to it.
// An Alloc lies within its Variant and a Variant within its Schedule.
func (t Target) Within(scope Target) bool {
	switch scope.Kind {
	case TargetSchedule:
		return t.Schedule() == scope.schedule
	case TargetVariant:
		return t.Variant() == scope.variant
	case TargetAlloc:
		return t.Kind == TargetAlloc && t.alloc == scope.alloc
	}
	return false
}

// Label is a short human readable name for the target.
func (t Target) Label() string {
	switch t.Kind {
	case TargetSchedule:
		return t.schedule.Name()
	case TargetVariant:
		return t.variant.Name()
	case TargetAlloc:
		return t.alloc.String()
	}
	return ""
}

func (t Target) String() string { return t.Kind.String() + ":" + t.Label() }
