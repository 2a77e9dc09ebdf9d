// Package circumstance provides schedule.Sampler implementations for the host.
package circumstance

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/nightplan/core/model"
	"github.com/kilianp07/nightplan/core/schedule"
)

// DefaultQuantum is the spacing of samples over a visit.
const DefaultQuantum = 30 * time.Second

// Ephemeris evaluates a circumstance for an observation at an instant (epoch ms).
type Ephemeris interface {
	Value(site model.Site, obs *model.Obs, c model.Circumstance, t int64) (float64, bool)
}

// EphemerisFunc adapts a function to Ephemeris.
type EphemerisFunc func(site model.Site, obs *model.Obs, c model.Circumstance, t int64) (float64, bool)

func (f EphemerisFunc) Value(site model.Site, obs *model.Obs, c model.Circumstance, t int64) (float64, bool) {
	return f(site, obs, c, t)
}

// cacheKey holds everything compute reads, so a moved or re-created visit with the
// same placement hits the same entry.
type cacheKey struct {
	site   model.Site
	obs    *model.Obs
	start  int64
	length int64
	skip   int64
	circ   model.Circumstance
}

// DefaultCacheLimit bounds the number of cached sample sets.
const DefaultCacheLimit = 4096

// samples holds one value per quantum; NaN marks a missing sample.
type samples struct {
	visit   []float64
	science []float64
}

// Quantized samples an ephemeris every quantum across a visit, starting at the visit
// start. There is always at least one sample. Science samples skip the quanta that
// fall inside setup time but keep at least the last sample. Timing window openness
// is computed from the observation's windows rather than the ephemeris.
// Results are cached by placement; the cache is dropped whole once it reaches its
// limit.
type Quantized struct {
	eph     Ephemeris
	quantum int64
	limit   int
	cache   map[cacheKey]samples
}

// NewQuantized returns a sampler over eph. A non-positive quantum selects DefaultQuantum.
func NewQuantized(eph Ephemeris, quantum time.Duration) *Quantized {
	if quantum <= 0 {
		quantum = DefaultQuantum
	}
	return &Quantized{eph: eph, quantum: quantum.Milliseconds(), limit: DefaultCacheLimit, cache: map[cacheKey]samples{}}
}

// Reset drops every cached sample.
func (q *Quantized) Reset() { q.cache = map[cacheKey]samples{} }

// Cached returns the number of cached sample sets.
func (q *Quantized) Cached() int { return len(q.cache) }

// Sample implements schedule.Sampler.
func (q *Quantized) Sample(a *schedule.Alloc, c model.Circumstance, entireVisit bool) (model.Stats, bool) {
	key := cacheKey{site: siteOf(a), obs: a.Obs(), start: a.Start(), length: a.Length(), circ: c}
	if a.Setup() != schedule.SetupNone {
		key.skip = a.SetupTime()
	}
	s, ok := q.cache[key]
	if !ok {
		if len(q.cache) >= q.limit {
			q.Reset()
		}
		s = q.compute(a, c)
		q.cache[key] = s
	}
	if entireVisit {
		return summarise(s.visit)
	}
	return summarise(s.science)
}

func (q *Quantized) compute(a *schedule.Alloc, c model.Circumstance) samples {
	n := max(1, int(a.Length()/q.quantum))
	site := siteOf(a)
	visit := make([]float64, n)
	for i := range visit {
		t := a.Start() + q.quantum*int64(i)
		visit[i] = math.NaN()
		if c == model.CircTimingWindowOpen {
			visit[i] = TimingWindowOpen(a.Obs(), t)
			continue
		}
		if q.eph == nil {
			continue
		}
		if val, ok := q.eph.Value(site, a.Obs(), c, t); ok {
			visit[i] = val
		}
	}
	if a.Setup() == schedule.SetupNone {
		return samples{visit: visit, science: visit}
	}
	skip := min(int(a.SetupTime()/q.quantum), n-1)
	return samples{visit: visit, science: visit[skip:]}
}

func siteOf(a *schedule.Alloc) model.Site {
	if v := a.Variant(); v != nil && v.Schedule() != nil {
		return v.Schedule().Site()
	}
	return model.Site{}
}

// TimingWindowOpen returns 1 when t lies inside one of the observation's timing
// windows, or when it has none, and 0 otherwise.
func TimingWindowOpen(obs *model.Obs, t int64) float64 {
	if len(obs.TimingWindows) == 0 {
		return 1
	}
	for _, w := range obs.TimingWindows {
		if t < w.Start {
			continue
		}
		if w.Duration < 0 || t < w.Start+w.Duration {
			return 1
		}
	}
	return 0
}

// summarise ignores missing samples and reports false when none remain.
func summarise(vals []float64) (model.Stats, bool) {
	present := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return model.Stats{}, false
	}
	return model.Stats{
		Min:  floats.Min(present),
		Max:  floats.Max(present),
		Mean: stat.Mean(present, nil),
	}, true
}
