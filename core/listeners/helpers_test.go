package listeners

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/nightplan/core/model"
	"github.com/kilianp07/nightplan/core/schedule"
)

const minute = int64(60_000)

type circStats map[model.Circumstance]model.Stats

// stubSampler serves fixed statistics per observation. entire overrides science
// samples for whole-visit queries.
type stubSampler struct {
	science map[string]circStats
	entire  map[string]circStats
}

func newStubSampler() *stubSampler {
	return &stubSampler{science: map[string]circStats{}, entire: map[string]circStats{}}
}

func (s *stubSampler) set(obsID string, c model.Circumstance, st model.Stats) {
	if s.science[obsID] == nil {
		s.science[obsID] = circStats{}
	}
	s.science[obsID][c] = st
}

func (s *stubSampler) setEntire(obsID string, c model.Circumstance, st model.Stats) {
	if s.entire[obsID] == nil {
		s.entire[obsID] = circStats{}
	}
	s.entire[obsID][c] = st
}

func (s *stubSampler) Sample(a *schedule.Alloc, c model.Circumstance, entire bool) (model.Stats, bool) {
	if entire {
		if st, ok := s.entire[a.Obs().ID][c]; ok {
			return st, true
		}
	}
	st, ok := s.science[a.Obs().ID][c]
	return st, ok
}

func flat(x float64) model.Stats { return model.Stats{Min: x, Max: x, Mean: x} }

func newObs(id string, steps int) *model.Obs {
	times := make([]int64, steps)
	for i := range times {
		times[i] = minute
	}
	return &model.Obs{
		ID:         id,
		Prog:       &model.Prog{ID: "GS-2024A-Q-1", RemainingTime: 100 * minute},
		Instrument: []string{"GMOS-S"},
		Coords:     model.FixedCoords(model.Coords{RA: 10, Dec: -20}),
		Class:      model.ClassScience,
		Conditions: model.AnySky{},
		Steps:      model.Steps{SetupTime: 10 * minute, ReacquisitionTime: 5 * minute, StepTimes: times},
	}
}

type fixture struct {
	sampler *stubSampler
	reg     *Registry
	sched   *schedule.Schedule
	v       *schedule.Variant
}

func newFixture(t *testing.T, rules ...Rule[*schedule.Variant]) *fixture {
	t.Helper()
	f := &fixture{sampler: newStubSampler(), reg: NewRegistry()}
	for _, r := range rules {
		f.reg.AddVariantRule(r)
	}
	f.sched = schedule.New("night", schedule.WithSampler(f.sampler), schedule.WithAttacher(f.reg), schedule.WithICTD(true))
	require.NoError(t, f.sched.AddBlock(0, 600*minute))
	v, err := f.sched.AddVariant("A")
	require.NoError(t, err)
	f.v = v
	return f
}

func (f *fixture) add(t *testing.T, obs *model.Obs, start int64, first, last int, setup schedule.SetupType) *schedule.Alloc {
	t.Helper()
	a, err := f.v.AddAlloc(obs, start, first, last, setup, schedule.Force())
	require.NoError(t, err)
	return a
}

func (f *fixture) markers(source string) []*schedule.Marker {
	return f.sched.MarkerManager().MarkersFrom(source)
}

func messages(ms []*schedule.Marker) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Severity.String() + ": " + m.Message
	}
	return out
}
