package schedule

import "github.com/kilianp07/nightplan/core/model"

// Sampler supplies statistics of a circumstance over an Alloc. entireVisit selects the
// whole visit including setup; otherwise only the covered science steps are sampled.
// ok is false when no sample is available.
type Sampler interface {
	Sample(a *Alloc, c model.Circumstance, entireVisit bool) (stats model.Stats, ok bool)
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func(a *Alloc, c model.Circumstance, entireVisit bool) (model.Stats, bool)

func (f SamplerFunc) Sample(a *Alloc, c model.Circumstance, entireVisit bool) (model.Stats, bool) {
	return f(a, c, entireVisit)
}

// Attacher binds validation rules to schedule entities. The schedule calls it when
// it is created and as variants come and go.
type Attacher interface {
	AttachSchedule(s *Schedule)
	DetachSchedule(s *Schedule)
	AttachVariant(v *Variant)
	DetachVariant(v *Variant)
}

type nopAttacher struct{}

func (nopAttacher) AttachSchedule(*Schedule) {}
func (nopAttacher) DetachSchedule(*Schedule) {}
func (nopAttacher) AttachVariant(*Variant)   {}
func (nopAttacher) DetachVariant(*Variant)   {}
