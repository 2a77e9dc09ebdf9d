package listeners

import (
	"fmt"

	"github.com/kilianp07/nightplan/core/schedule"
)

// TruncatedAlloc warns when the last scheduled visit of an observation stops before
// the end of its sequence.
type TruncatedAlloc struct{}

func (TruncatedAlloc) Source() string { return SourceTruncatedAlloc }

func (TruncatedAlloc) Check(v *schedule.Variant, emit *Emitter) error {
	for _, a := range v.Allocs() {
		if a.Successor() != nil {
			continue
		}
		total := a.Obs().Steps.Len()
		if a.LastStep() >= total-1 {
			continue
		}
		first, last := a.LastStep()+2, total
		var msg string
		if first == last {
			msg = fmt.Sprintf("Sequence step %d is not scheduled.", first)
		} else {
			msg = fmt.Sprintf("Sequence steps %d-%d are not scheduled.", first, last)
		}
		emit.Warning(msg, schedule.AllocTarget(a))
	}
	return nil
}
