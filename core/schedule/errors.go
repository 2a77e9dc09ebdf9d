package schedule

import "errors"

var (
	// ErrReentrantNotify is returned when a change is attempted while subscribers of the
	// same schedule are still being notified.
	ErrReentrantNotify = errors.New("schedule: re-entrant change notification")
	// ErrCollision is returned when a new Alloc overlaps an existing one.
	ErrCollision = errors.New("schedule: allocation collides with an existing allocation")
	// ErrMissingPredecessor is returned when the steps before an Alloc are not scheduled.
	ErrMissingPredecessor = errors.New("schedule: preceding steps are not scheduled")
	// ErrOrdering is returned when an Alloc would start before its predecessor ends
	// or end after its successor starts.
	ErrOrdering = errors.New("schedule: allocation is out of step order")
	// ErrAbandonedSuccessor is returned when removing an Alloc would orphan its successor.
	ErrAbandonedSuccessor = errors.New("schedule: removal would abandon the successor allocation")
	// ErrForeignAlloc is returned when an Alloc does not belong to the Variant.
	ErrForeignAlloc = errors.New("schedule: allocation belongs to another variant")
	// ErrInvalidSteps is returned for step ranges outside the observation sequence.
	ErrInvalidSteps = errors.New("schedule: invalid step range")
	// ErrInvalidInterval is returned for empty or inverted intervals.
	ErrInvalidInterval = errors.New("schedule: invalid interval")
	// ErrUnknownVariant is returned when a Variant is not part of the Schedule.
	ErrUnknownVariant = errors.New("schedule: unknown variant")
)
