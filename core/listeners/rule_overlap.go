package listeners

import (
	"fmt"

	"github.com/kilianp07/nightplan/core/interval"
	"github.com/kilianp07/nightplan/core/schedule"
)

// OverlappingAlloc reports every pair of allocations that share time.
type OverlappingAlloc struct{}

func (OverlappingAlloc) Source() string { return SourceOverlappingAlloc }

func (OverlappingAlloc) Check(v *schedule.Variant, emit *Emitter) error {
	allocs := v.Allocs()
	for i, a := range allocs {
		if a.Length() == 0 {
			continue
		}
		for _, b := range allocs[i+1:] {
			if b.Length() == 0 {
				continue
			}
			// sorted by start, so nothing after the first miss can overlap a
			if !a.Overlaps(b, interval.OverlapEither) {
				break
			}
			emit.Error(fmt.Sprintf("Visit overlaps %s.", b), schedule.AllocTarget(a))
			emit.Error(fmt.Sprintf("Visit overlaps %s.", a), schedule.AllocTarget(b))
		}
	}
	return nil
}
