package listeners

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/nightplan/core/interval"
	"github.com/kilianp07/nightplan/core/model"
	"github.com/kilianp07/nightplan/core/schedule"
	"github.com/kilianp07/nightplan/core/windows"
)

// limitsCase schedules one visit of obs "o" after configuring the sampler.
func limitsCase(t *testing.T, setup func(s *stubSampler, obs *model.Obs), rule *Limits) []string {
	t.Helper()
	if rule == nil {
		rule = NewLimits(Collaborators{})
	}
	f := newFixture(t, rule)
	obs := newObs("o", 1)
	setup(f.sampler, obs)
	f.add(t, obs, 0, 0, 0, schedule.SetupFull)
	return messages(f.markers(SourceLimits))
}

func TestLimitsTrackingElevationBoundaries(t *testing.T) {
	cases := []struct {
		min  float64
		want []string
	}{
		{17.5, []string{"Warning: Tracking: target reaches 17.50°."}},
		{17.4999, []string{"Error: Tracking: target reaches 17.50°."}},
		{20.0, nil},
		{19.9999, []string{"Warning: Tracking: target reaches 20.00°."}},
	}
	for _, c := range cases {
		got := limitsCase(t, func(s *stubSampler, _ *model.Obs) {
			s.setEntire("o", model.CircElevation, model.Stats{Min: c.min, Max: 60, Mean: 40})
		}, nil)
		assert.ElementsMatch(t, c.want, got, "min elevation %v", c.min)
	}
}

func TestLimitsUsesWholeVisitForTracking(t *testing.T) {
	got := limitsCase(t, func(s *stubSampler, _ *model.Obs) {
		s.set("o", model.CircElevation, model.Stats{Min: 50, Max: 60})
		s.setEntire("o", model.CircElevation, model.Stats{Min: 15, Max: 89})
		s.setEntire("o", model.CircAirmass, model.Stats{Min: 0})
	}, nil)
	assert.ElementsMatch(t, []string{
		"Error: Target is below horizon.",
		"Error: Tracking: target reaches 15.00°.",
		"Warning: Tracking: target reaches 89.00°.",
	}, got)
}

func TestLimitsDefaultAirmassBoundaries(t *testing.T) {
	cases := []struct {
		max  float64
		want []string
	}{
		{2.0, []string{"Warning: Observation reaches airmass 2.00."}},
		{2.0001, []string{"Error: Observation reaches airmass 2.00."}},
		{1.75, nil},
		{1.7501, []string{"Warning: Observation reaches airmass 1.75."}},
	}
	for _, c := range cases {
		got := limitsCase(t, func(s *stubSampler, _ *model.Obs) {
			s.set("o", model.CircAirmass, model.Stats{Min: 1.1, Max: c.max, Mean: 1.3})
		}, nil)
		assert.ElementsMatch(t, c.want, got, "max airmass %v", c.max)
	}
}

func TestLimitsLGSElevationBoundaries(t *testing.T) {
	cases := []struct {
		min  float64
		want []string
	}{
		{40.0, []string{"Warning: LGS observation reaches elevation 40.00°."}},
		{39.99, []string{"Error: LGS observation reaches elevation 39.99°."}},
		{42.0, nil},
		{41.99, []string{"Warning: LGS observation reaches elevation 41.99°."}},
	}
	for _, c := range cases {
		got := limitsCase(t, func(s *stubSampler, obs *model.Obs) {
			obs.LGS = true
			s.set("o", model.CircElevation, model.Stats{Min: c.min, Max: 70, Mean: 50})
			// a high airmass is ignored for LGS observations
			s.set("o", model.CircAirmass, flat(2.5))
		}, nil)
		assert.ElementsMatch(t, c.want, got, "LGS min elevation %v", c.min)
	}
}

func TestLimitsTimingWindow(t *testing.T) {
	withWindow := func(open float64) func(*stubSampler, *model.Obs) {
		return func(s *stubSampler, obs *model.Obs) {
			obs.TimingWindows = []model.TimingWindow{{Start: 0, Duration: -1}}
			s.set("o", model.CircTimingWindowOpen, flat(open))
		}
	}
	assert.Equal(t, []string{"Info: Timing constraint is met."}, limitsCase(t, withWindow(1), nil))
	assert.Equal(t, []string{"Error: Timing constraint is violated for entire scheduled visit."}, limitsCase(t, withWindow(0), nil))
	assert.Equal(t, []string{"Error: Timing constraint is violated for 37% of scheduled visit."}, limitsCase(t, withWindow(0.63), nil))

	none := limitsCase(t, func(s *stubSampler, _ *model.Obs) {
		s.set("o", model.CircTimingWindowOpen, flat(1))
	}, nil)
	assert.Empty(t, none, "no Info without timing windows")
}

func TestLimitsTimingMetIsEphemeral(t *testing.T) {
	f := newFixture(t, NewLimits(Collaborators{}))
	obs := newObs("o", 1)
	obs.TimingWindows = []model.TimingWindow{{Start: 0, Duration: -1}}
	f.sampler.set("o", model.CircTimingWindowOpen, flat(1))
	f.add(t, obs, 0, 0, 0, schedule.SetupFull)
	ms := f.markers(SourceLimits)
	require.Len(t, ms, 1)
	assert.True(t, ms[0].Ephemeral)
}

func TestLimitsAirmassConstraint(t *testing.T) {
	run := func(min, max, lo, hi float64) []string {
		return limitsCase(t, func(s *stubSampler, obs *model.Obs) {
			obs.ElevationConstraint = model.ElevationConstraint{Type: model.ElevationAirmass, Min: lo, Max: hi}
			s.set("o", model.CircAirmass, model.Stats{Min: min, Max: max, Mean: (min + max) / 2})
		}, nil)
	}
	assert.Equal(t, []string{"Error: Airmass constraint violated (1.60 > 1.50)."}, run(1.2, 1.6, 1.0, 1.5))
	assert.Equal(t, []string{"Warning: Observation reaches airmass 1.48."}, run(1.2, 1.48, 1.0, 1.5))
	assert.Empty(t, run(1.2, 1.4, 1.0, 1.5))
	// the lower limit check replaces the upper one
	assert.Equal(t, []string{"Error: Airmass constraint violated (1.10 < 1.20)."}, run(1.1, 1.6, 1.2, 1.5))
	assert.Equal(t, []string{"Warning: Observation reaches airmass 1.22."}, run(1.21, 1.22, 1.2, 2.0))
}

func TestLimitsHourAngleConstraint(t *testing.T) {
	run := func(min, max float64) []string {
		return limitsCase(t, func(s *stubSampler, obs *model.Obs) {
			obs.ElevationConstraint = model.ElevationConstraint{Type: model.ElevationHourAngle, Min: -2, Max: 2}
			s.set("o", model.CircHourAngle, model.Stats{Min: min, Max: max})
		}, nil)
	}
	assert.Equal(t, []string{"Error: Hour angle constraint violated (-02:30:00 < -02:00:00)."}, run(-2.5, 0))
	assert.Equal(t, []string{"Warning: Target comes within 1° of lower HA constraint."}, run(-1.95, 0))
	assert.Equal(t, []string{"Error: Hour angle constraint violated (03:00:00 > 02:00:00)."}, run(-1, 3))
	assert.Equal(t, []string{"Warning: Target comes within 1° of upper HA constraint."}, run(-1, 1.99))
	assert.Empty(t, run(-1, 1))
}

func TestLimitsMoonAndSky(t *testing.T) {
	got := limitsCase(t, func(s *stubSampler, obs *model.Obs) {
		obs.Conditions = model.SkyBackground{Limit: 20.5}
		s.set("o", model.CircLunarDistance, flat(4.2))
		s.set("o", model.CircTotalSkyBrightness, flat(19.8))
	}, nil)
	assert.ElementsMatch(t, []string{
		"Error: Target approaches within 4.20° of the moon.",
		"Error: Sky brightness constraint violated.",
	}, got)

	got = limitsCase(t, func(s *stubSampler, obs *model.Obs) {
		obs.Conditions = model.SkyBackground{Limit: 20.5}
		s.set("o", model.CircLunarDistance, flat(12))
		s.set("o", model.CircTotalSkyBrightness, flat(21.0))
	}, nil)
	assert.Equal(t, []string{"Warning: Target approaches within 12.00° of the moon."}, got)
}

func TestLimitsFlagsAndShutter(t *testing.T) {
	flags := ClassifierFunc(func(*schedule.Variant, *model.Obs) model.FlagSet {
		return model.NewFlagSet(model.FlagInactive, model.FlagOverQualified, model.FlagMaskInCabinet,
			model.FlagScheduled, model.FlagBlocked, model.FlagInProgress, model.FlagElevationConstrained)
	})
	shutter := ShutterAdvisorFunc(func(a *schedule.Alloc) (string, bool) {
		return "Laser shutter closure 02:10-02:12 UT.", true
	})
	got := limitsCase(t, func(*stubSampler, *model.Obs) {}, NewLimits(Collaborators{Flags: flags, Shutter: shutter}))
	assert.Equal(t, []string{
		"Error: Science program is inactive.",
		"Error: Required custom mask is in cabinet.",
		"Warning: Laser shutter closure 02:10-02:12 UT.",
		"Info: Variant conditions are better than necessary.",
	}, got)
}

func TestLimitsMissingSamplesEmitNothing(t *testing.T) {
	got := limitsCase(t, func(*stubSampler, *model.Obs) {}, nil)
	assert.Empty(t, got)
}

func TestLimitsHigherScoringAlternatives(t *testing.T) {
	at := func(id string, ra float64) *model.Obs {
		o := newObs(id, 1)
		o.Coords = model.FixedCoords(model.Coords{RA: ra, Dec: -20})
		return o
	}
	obs := at("o", 10)
	near, far, wrapped, weaker, flagged, planned := at("near", 30), at("far", 40), at("wrapped", 355), at("weaker", 12), at("flagged", 11), at("planned", 9)
	prog := obs.Prog
	prog.Observations = []*model.Obs{obs, near, far, wrapped, weaker, flagged, planned}
	for _, o := range prog.Observations {
		o.Prog = prog
	}
	scores := map[string]float64{"o": 2, "near": 5, "far": 9, "wrapped": 3, "weaker": 1, "flagged": 7, "planned": 1}
	rule := NewLimits(Collaborators{
		Scores: ScorerFunc(func(_ *schedule.Variant, o *model.Obs) float64 { return scores[o.ID] }),
		Flags: ClassifierFunc(func(_ *schedule.Variant, o *model.Obs) model.FlagSet {
			if o == flagged {
				return model.NewFlagSet(model.FlagScheduled)
			}
			return nil
		}),
	})
	f := newFixture(t, rule)
	f.add(t, planned, 60*minute, 0, 0, schedule.SetupFull)
	a := f.add(t, obs, 0, 0, 0, schedule.SetupFull)

	ms := f.sched.MarkerManager().MarkersFor(schedule.AllocTarget(a), false)
	require.Len(t, ms, 1)
	assert.Equal(t, "Warning: Higher-scoring observation(s) within 1.5H: near wrapped", messages(ms)[0])
	assert.True(t, ms[0].Ephemeral)

	scores["o"] = 10
	require.NoError(t, f.v.Notify())
	assert.Empty(t, f.sched.MarkerManager().MarkersFor(schedule.AllocTarget(a), false))
}

// windowsOf serves fixed unions per kind for every observation.
func windowsOf(byKind map[windows.Kind][]interval.Interval) windows.Provider {
	return windows.ProviderFunc(func(_ *schedule.Schedule, _ *model.Obs, k windows.Kind) *interval.Union {
		return interval.NewUnion(byKind[k]...)
	})
}

func TestLimitsNoticesWhenConstraintsHold(t *testing.T) {
	hour := 60 * minute
	rule := NewLimits(Collaborators{Windows: windowsOf(map[windows.Kind][]interval.Interval{
		windows.Timing:  {{Start: 0, End: 2 * hour}},
		windows.Visible: {{Start: hour / 2, End: 5 * hour}},
		windows.Dark:    {{Start: hour, End: 3 * hour}, {Start: 4 * hour, End: 5 * hour}},
	})})
	dark := "Notice: Background constraints are met between (01:00, 03:00), (04:00, 05:00)."

	got := limitsCase(t, func(s *stubSampler, obs *model.Obs) {
		obs.TimingWindows = []model.TimingWindow{{Start: 0, Duration: 2 * hour}}
		s.set("o", model.CircTimingWindowOpen, flat(1))
	}, rule)
	assert.ElementsMatch(t, []string{
		"Info: Timing constraint is met.",
		"Notice: Must be in the timing window (00:00, 02:00).",
		dark,
	}, got)

	airmass := func(max float64) []string {
		return limitsCase(t, func(s *stubSampler, obs *model.Obs) {
			obs.ElevationConstraint = model.ElevationConstraint{Type: model.ElevationAirmass, Min: 1.0, Max: 1.5}
			s.set("o", model.CircAirmass, model.Stats{Min: 1.2, Max: max})
		}, rule)
	}
	assert.ElementsMatch(t, []string{"Notice: Must be observed in the airmass range 1.00 - 1.50 (00:30, 05:00).", dark}, airmass(1.4))
	assert.ElementsMatch(t, []string{"Error: Airmass constraint violated (1.60 > 1.50).", dark}, airmass(1.6))

	hourAngle := func(max float64) []string {
		return limitsCase(t, func(s *stubSampler, obs *model.Obs) {
			obs.ElevationConstraint = model.ElevationConstraint{Type: model.ElevationHourAngle, Min: -2, Max: 2}
			s.set("o", model.CircHourAngle, model.Stats{Min: -1, Max: max})
		}, rule)
	}
	assert.ElementsMatch(t, []string{"Notice: Must be observed in the hour angle range -2.00 - 2.00 (00:30, 05:00).", dark}, hourAngle(1))
	assert.ElementsMatch(t, []string{"Warning: Target comes within 1° of upper HA constraint.", dark}, hourAngle(1.99))

	sky := limitsCase(t, func(s *stubSampler, obs *model.Obs) {
		obs.Conditions = model.SkyBackground{Limit: 20.5}
		s.set("o", model.CircTotalSkyBrightness, flat(19.8))
	}, rule)
	assert.Equal(t, []string{"Error: Sky brightness constraint violated."}, sky)
}

func TestLimitsNoticesAreNotEphemeral(t *testing.T) {
	rule := NewLimits(Collaborators{Windows: windowsOf(map[windows.Kind][]interval.Interval{
		windows.Dark: {{Start: 0, End: 60 * minute}},
	})})
	f := newFixture(t, rule)
	f.add(t, newObs("o", 1), 0, 0, 0, schedule.SetupFull)
	ms := f.markers(SourceLimits)
	require.Len(t, ms, 1)
	assert.Equal(t, schedule.SeverityNotice, ms[0].Severity)
	assert.False(t, ms[0].Ephemeral)
}
