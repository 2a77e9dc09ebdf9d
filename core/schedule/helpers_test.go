package schedule

import "github.com/kilianp07/nightplan/core/model"

const minute = int64(60_000)

func testObs(id string, steps ...int64) *model.Obs {
	return &model.Obs{
		ID:         id,
		Prog:       &model.Prog{ID: "GS-2024A-Q-1"},
		Instrument: []string{"GMOS-S"},
		Class:      model.ClassScience,
		Steps: model.Steps{
			SetupTime:         10 * minute,
			ReacquisitionTime: 5 * minute,
			StepTimes:         steps,
		},
	}
}

// recorder counts subscriber invocations.
type recorder struct {
	calls int
}

func (r *recorder) onVariant(*Variant)   { r.calls++ }
func (r *recorder) onSchedule(*Schedule) { r.calls++ }
