package listeners

import (
	"github.com/kilianp07/nightplan/core/model"
	"github.com/kilianp07/nightplan/core/schedule"
)

// SchedulingGroup warns about visits whose scheduling group appears in no other
// visit of the plan. Two visits of the same observation count as the group
// appearing twice.
type SchedulingGroup struct{}

func (SchedulingGroup) Source() string { return SourceSchedulingGroup }

func (SchedulingGroup) Check(v *schedule.Variant, emit *Emitter) error {
	visits := map[*model.Group]int{}
	for _, a := range v.Allocs() {
		if g := a.Obs().Group; g != nil && g.Type == model.GroupScheduling {
			visits[g]++
		}
	}
	for _, a := range v.Allocs() {
		g := a.Obs().Group
		if g == nil || g.Type != model.GroupScheduling || len(g.Observations) <= 1 {
			continue
		}
		if visits[g] == 1 {
			emit.Warning("Observation is part of a scheduling group, but no other members appear in plan.",
				schedule.AllocTarget(a))
		}
	}
	return nil
}
