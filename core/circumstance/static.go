package circumstance

import (
	"github.com/kilianp07/nightplan/core/model"
	"github.com/kilianp07/nightplan/core/schedule"
)

// Pair holds the statistics of one circumstance for a whole visit and for its
// science steps only. A nil Science reuses Visit.
type Pair struct {
	Visit   model.Stats  `json:"visit" yaml:"visit"`
	Science *model.Stats `json:"science,omitempty" yaml:"science,omitempty"`
}

// Static serves precomputed statistics keyed by observation ID. Scenario files and
// tests use it in place of an ephemeris.
type Static struct {
	// Fallback, when set, answers circumstances that were not stored.
	Fallback schedule.Sampler

	byObs map[string]map[model.Circumstance]Pair
}

// NewStatic returns an empty Static sampler.
func NewStatic() *Static {
	return &Static{byObs: map[string]map[model.Circumstance]Pair{}}
}

// Set stores the statistics of c for the observation.
func (s *Static) Set(obsID string, c model.Circumstance, p Pair) {
	m, ok := s.byObs[obsID]
	if !ok {
		m = map[model.Circumstance]Pair{}
		s.byObs[obsID] = m
	}
	m[c] = p
}

// Sample implements schedule.Sampler.
func (s *Static) Sample(a *schedule.Alloc, c model.Circumstance, entireVisit bool) (model.Stats, bool) {
	p, ok := s.byObs[a.Obs().ID][c]
	if !ok {
		if s.Fallback != nil {
			return s.Fallback.Sample(a, c, entireVisit)
		}
		return model.Stats{}, false
	}
	if entireVisit || p.Science == nil {
		return p.Visit, true
	}
	return *p.Science, true
}
