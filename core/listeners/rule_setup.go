package listeners

import "github.com/kilianp07/nightplan/core/schedule"

// Setup checks each visit's setup against the visit before it. A visit that follows
// one with the same instrument and target can drop or shorten its setup; a visit that
// follows anything else needs a full setup.
type Setup struct{}

func (Setup) Source() string { return SourceSetup }

func (Setup) Check(v *schedule.Variant, emit *Emitter) error {
	mid := v.Schedule().MiddlePoint()
	for _, a := range v.Allocs() {
		prev := a.Previous()
		target := schedule.AllocTarget(a)
		if compatible(prev, a, mid) {
			switch a.Setup() {
			case schedule.SetupNone:
				emit.Info("Setup removed: same instrument and target as previous visit.", target)
			case schedule.SetupFull:
				emit.Info("Setup may be unnecessary: same instrument and target as previous visit.", target)
			case schedule.SetupReacquisition:
				emit.Info("Reacquisition in use: same instrument and target as previous visit.", target)
			}
			continue
		}
		if a.Setup() == schedule.SetupFull {
			continue
		}
		if prev == nil {
			emit.Error("Full setup required: first visit of the night.", target)
		} else {
			emit.Error("Full setup required: instrument or target differs from previous visit.", target)
		}
	}
	return nil
}

func compatible(prev, a *schedule.Alloc, at int64) bool {
	if prev == nil {
		return false
	}
	po, ao := prev.Obs(), a.Obs()
	return po.InstrumentName() == ao.InstrumentName() && po.CoordsAt(at) == ao.CoordsAt(at)
}
