package listeners

import (
	"fmt"

	"github.com/kilianp07/nightplan/core/azimuth"
	"github.com/kilianp07/nightplan/core/schedule"
	"github.com/kilianp07/nightplan/internal/timeutil"
)

// WindyLimit is the longest tolerated time pointed into the wind, in ms.
const WindyLimit = int64(1000)

// Azimuth warns when a visit spends more than WindyLimit pointed into the wind.
// Variants without a wind constraint are not checked.
type Azimuth struct {
	Solvers azimuth.Factory
}

func NewAzimuth(f azimuth.Factory) *Azimuth {
	if f == nil {
		f = azimuth.Nop{}
	}
	return &Azimuth{Solvers: f}
}

func (*Azimuth) Source() string { return SourceAzimuth }

func (r *Azimuth) Check(v *schedule.Variant, emit *Emitter) error {
	wind, ok := v.Wind()
	if !ok {
		return nil
	}
	site := v.Schedule().Site()
	for _, a := range v.Allocs() {
		// a nil union from the solver counts as no wind
		windy := r.Solvers.New(site, a.Obs().Coords, wind).Solve(a.Interval())
		if d := windy.Length(); d > WindyLimit {
			emit.Warning(fmt.Sprintf("Observation is pointed into the wind for %s.", timeutil.MinutesSeconds(d)),
				schedule.AllocTarget(a))
		}
	}
	return nil
}
