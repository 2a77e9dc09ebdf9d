package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/nightplan/core/interval"
	"github.com/kilianp07/nightplan/core/model"
)

func TestAddAllocComputesSpan(t *testing.T) {
	s := New("night")
	v, _ := s.AddVariant("A")
	obs := testObs("o1", 2*minute, 3*minute, 4*minute)

	a, err := v.AddAlloc(obs, 1000, 0, 1, SetupFull)
	require.NoError(t, err)
	assert.Equal(t, int64(1000+15*minute), a.End())
	assert.Equal(t, "o1 S1-2", a.String())

	b, err := v.AddAlloc(obs, a.End(), 2, 2, SetupReacquisition)
	require.NoError(t, err)
	assert.Equal(t, 9*minute, b.Length())
	assert.Equal(t, "o1 S3", b.String())

	assert.Same(t, a, b.Predecessor())
	assert.Same(t, b, a.Successor())
	assert.Same(t, a, b.Previous())
	assert.Same(t, b, a.Next())
	assert.Nil(t, a.Previous())
	assert.Nil(t, b.Successor())
}

func TestAddAllocRejectsCollisionAndOrdering(t *testing.T) {
	s := New("night")
	v, _ := s.AddVariant("A")
	o1 := testObs("o1", minute, minute)
	o2 := testObs("o2", minute)

	a, err := v.AddAlloc(o1, 0, 0, 0, SetupNone)
	require.NoError(t, err)

	_, err = v.AddAlloc(o2, 30_000, 0, 0, SetupNone)
	assert.ErrorIs(t, err, ErrCollision)

	_, err = v.AddAlloc(testObs("o3", minute, minute), 0+10*minute, 1, 1, SetupNone)
	assert.ErrorIs(t, err, ErrMissingPredecessor)

	_, err = v.AddAlloc(o1, a.End()-1, 1, 1, SetupNone, Force())
	require.NoError(t, err, "forced adds skip checks")
	assert.Equal(t, 2, v.Len())

	_, err = v.AddAlloc(o1, 0, 2, 2, SetupNone)
	assert.ErrorIs(t, err, ErrInvalidSteps)
}

func TestRemoveAllocProtectsSuccessor(t *testing.T) {
	s := New("night")
	v, _ := s.AddVariant("A")
	obs := testObs("o1", minute, minute)
	a, _ := v.AddAlloc(obs, 0, 0, 0, SetupNone)
	b, _ := v.AddAlloc(obs, minute, 1, 1, SetupNone)

	assert.ErrorIs(t, v.RemoveAlloc(a, false), ErrAbandonedSuccessor)
	require.NoError(t, v.RemoveAlloc(b, false))
	require.NoError(t, v.RemoveAlloc(a, false))
	assert.True(t, v.Empty())
	assert.ErrorIs(t, v.RemoveAlloc(a, false), ErrForeignAlloc)
}

func TestMoveAllocKeepsOrder(t *testing.T) {
	s := New("night")
	v, _ := s.AddVariant("A")
	a, _ := v.AddAlloc(testObs("o1", minute), 0, 0, 0, SetupNone)
	b, _ := v.AddAlloc(testObs("o2", minute), 2*minute, 0, 0, SetupNone)

	moved, err := v.MoveAlloc(a, 5*minute, SetupFull)
	require.NoError(t, err)
	assert.Equal(t, []*Alloc{b, moved}, v.Allocs())
	assert.Equal(t, 11*minute, moved.Length())

	_, err = v.MoveAlloc(a, 0, SetupNone)
	assert.ErrorIs(t, err, ErrForeignAlloc)
}

func TestAllocsOverlappingBlock(t *testing.T) {
	s := New("night")
	v, _ := s.AddVariant("A")
	in, _ := v.AddAlloc(testObs("in", minute), 0, 0, 0, SetupNone)
	straddle, _ := v.AddAlloc(testObs("straddle", minute), 9*minute+30_000, 0, 0, SetupNone)
	_, _ = v.AddAlloc(testObs("out", minute), 20*minute, 0, 0, SetupNone)

	b := Block{interval.Interval{Start: 0, End: 10 * minute}}
	assert.Equal(t, []*Alloc{in, straddle}, v.AllocsOverlapping(b, interval.OverlapEither))
	assert.Equal(t, []*Alloc{straddle}, v.AllocsOverlapping(b, interval.OverlapPartial))
}

func TestAllocStatsDelegatesToSampler(t *testing.T) {
	var gotEntire []bool
	sampler := SamplerFunc(func(a *Alloc, c model.Circumstance, entire bool) (model.Stats, bool) {
		gotEntire = append(gotEntire, entire)
		if c != model.CircAirmass {
			return model.Stats{}, false
		}
		return model.Stats{Min: 1.1, Max: 1.4, Mean: 1.2}, true
	})
	s := New("night", WithSampler(sampler))
	v, _ := s.AddVariant("A")
	a, _ := v.AddAlloc(testObs("o1", minute), 0, 0, 0, SetupNone)

	hi, ok := a.Max(model.CircAirmass, true)
	assert.True(t, ok)
	assert.Equal(t, 1.4, hi)
	lo, ok := a.Min(model.CircAirmass, false)
	assert.True(t, ok)
	assert.Equal(t, 1.1, lo)
	_, ok = a.Mean(model.CircElevation, false)
	assert.False(t, ok)
	assert.Equal(t, []bool{true, false, false}, gotEntire)
}

func TestAllocWithoutSamplerHasNoStats(t *testing.T) {
	s := New("night")
	v, _ := s.AddVariant("A")
	a, _ := v.AddAlloc(testObs("o1", minute), 0, 0, 0, SetupNone)
	_, ok := a.Min(model.CircAirmass, true)
	assert.False(t, ok)
}
