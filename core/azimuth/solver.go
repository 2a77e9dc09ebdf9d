// Package azimuth finds the parts of a visit during which the telescope points into
// the wind.
package azimuth

import (
	"math"
	"time"

	"github.com/kilianp07/nightplan/core/interval"
	"github.com/kilianp07/nightplan/core/model"
)

// Solver returns the sub-intervals of iv during which the target lies inside the
// wind constraint.
type Solver interface {
	Solve(iv interval.Interval) *interval.Union
}

// Factory builds a Solver for one target under one wind constraint.
type Factory interface {
	New(site model.Site, coords model.CoordsFunc, wind model.WindConstraint) Solver
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(site model.Site, coords model.CoordsFunc, wind model.WindConstraint) Solver

func (f FactoryFunc) New(site model.Site, coords model.CoordsFunc, wind model.WindConstraint) Solver {
	return f(site, coords, wind)
}

// SolverFunc adapts a function to Solver.
type SolverFunc func(iv interval.Interval) *interval.Union

func (f SolverFunc) Solve(iv interval.Interval) *interval.Union { return f(iv) }

// Nop never reports wind.
type Nop struct{}

func (Nop) New(model.Site, model.CoordsFunc, model.WindConstraint) Solver { return Nop{} }
func (Nop) Solve(interval.Interval) *interval.Union                       { return interval.NewUnion() }

// PointingFunc returns the azimuth in degrees of a position seen from site at t (epoch ms).
type PointingFunc func(site model.Site, c model.Coords, t int64) float64

// DefaultStep is the sampling step of Sampled solvers.
const DefaultStep = 30 * time.Second

// SampledFactory builds solvers that evaluate the pointing azimuth at a fixed step.
// Each step whose midpoint azimuth falls inside the constraint counts as windy.
type SampledFactory struct {
	Pointing PointingFunc
	Step     time.Duration
}

// NewSampledFactory returns a factory using pointing, or Pointing when nil.
func NewSampledFactory(pointing PointingFunc, step time.Duration) *SampledFactory {
	if pointing == nil {
		pointing = Pointing
	}
	if step <= 0 {
		step = DefaultStep
	}
	return &SampledFactory{Pointing: pointing, Step: step}
}

func (f *SampledFactory) New(site model.Site, coords model.CoordsFunc, wind model.WindConstraint) Solver {
	return &sampled{site: site, coords: coords, wind: wind, pointing: f.Pointing, step: f.Step.Milliseconds()}
}

type sampled struct {
	site     model.Site
	coords   model.CoordsFunc
	wind     model.WindConstraint
	pointing PointingFunc
	step     int64
}

func (s *sampled) Solve(iv interval.Interval) *interval.Union {
	u := interval.NewUnion()
	if iv.Empty() || s.coords == nil {
		return u
	}
	for t := iv.Start; t < iv.End; t += s.step {
		end := min(t+s.step, iv.End)
		mid := t + (end-t)/2
		az := s.pointing(s.site, s.coords(mid), mid)
		if AngularDistance(az, s.wind.Direction) <= s.wind.Tolerance {
			u.Add(interval.Interval{Start: t, End: end})
		}
	}
	return u
}

// AngularDistance is the smallest separation between two azimuths, in [0, 180].
func AngularDistance(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}
