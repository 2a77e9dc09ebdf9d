package listeners

import (
	"fmt"
	"sort"

	"github.com/kilianp07/nightplan/core/model"
	"github.com/kilianp07/nightplan/core/schedule"
	"github.com/kilianp07/nightplan/internal/timeutil"
)

// OverAllocation compares the charged time each program uses in the variant with
// its remaining budgets.
type OverAllocation struct{}

func (OverAllocation) Source() string { return SourceOverAllocation }

func (OverAllocation) Check(v *schedule.Variant, emit *Emitter) error {
	used := map[*model.Prog]int64{}
	for _, a := range v.Allocs() {
		p := a.Obs().Prog
		if p == nil || p.IsEngOrCal() || !a.Obs().Class.Charged() {
			continue
		}
		used[p] += a.Length()
	}
	progs := make([]*model.Prog, 0, len(used))
	for p := range used {
		progs = append(progs, p)
	}
	sort.Slice(progs, func(i, j int) bool { return progs[i].ID < progs[j].ID })

	for _, p := range progs {
		total := used[p]
		if total > p.RemainingTime {
			emit.Warning(fmt.Sprintf("Program %s is over-allocated by %s.", p.ID,
				timeutil.MinutesSeconds(total-p.RemainingTime)), v.Scope())
		}
		if b3 := p.Band3RemainingTime; b3 != nil && total > *b3 {
			emit.Warning(fmt.Sprintf("Program %s exceeds its Band 3 minimum time by %s.", p.ID,
				timeutil.MinutesSeconds(total-*b3)), v.Scope())
		}
	}
	return nil
}
