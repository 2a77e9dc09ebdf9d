package schedule

import (
	"fmt"
	"sort"

	"github.com/kilianp07/nightplan/core/interval"
	"github.com/kilianp07/nightplan/core/model"
)

// Variant is one candidate plan for the night.
type Variant struct {
	schedule *Schedule
	name     string
	allocs   []*Alloc
	wind     *model.WindConstraint
	lgsOnly  bool
	subject  *Subject[*Variant]
}

// AddOption tunes AddAlloc.
type AddOption func(*addOptions)

type addOptions struct {
	force   bool
	comment string
}

// Force skips collision and step-order checks. Importers use it to load plans as they
// were saved, leaving the rules to report any inconsistency.
func Force() AddOption { return func(o *addOptions) { o.force = true } }

// WithComment attaches a planner comment to the new Alloc.
func WithComment(c string) AddOption { return func(o *addOptions) { o.comment = c } }

func (v *Variant) Schedule() *Schedule { return v.schedule }
func (v *Variant) Name() string        { return v.name }
func (v *Variant) LGSOnly() bool       { return v.lgsOnly }
func (v *Variant) Len() int            { return len(v.allocs) }
func (v *Variant) Empty() bool         { return len(v.allocs) == 0 }
func (v *Variant) String() string      { return v.name }

// Wind returns the wind constraint, false when none is set.
func (v *Variant) Wind() (model.WindConstraint, bool) {
	if v.wind == nil {
		return model.WindConstraint{}, false
	}
	return *v.wind, true
}

// Allocs returns the allocations ordered by start time.
func (v *Variant) Allocs() []*Alloc {
	out := make([]*Alloc, len(v.allocs))
	copy(out, v.allocs)
	return out
}

// AllocsFor returns the allocations of obs in time order.
func (v *Variant) AllocsFor(obs *model.Obs) []*Alloc {
	var out []*Alloc
	for _, a := range v.allocs {
		if a.obs == obs {
			out = append(out, a)
		}
	}
	return out
}

// AllocsOverlapping returns the allocations overlapping b with the given kind.
func (v *Variant) AllocsOverlapping(b Block, kind interval.Overlap) []*Alloc {
	var out []*Alloc
	for _, a := range v.allocs {
		if b.Overlaps(a.iv, kind) {
			out = append(out, a)
		}
	}
	return out
}

// Span is the interval from the first Alloc start to the last Alloc end.
func (v *Variant) Span() (interval.Interval, bool) {
	if len(v.allocs) == 0 {
		return interval.Interval{}, false
	}
	end := v.allocs[0].iv.End
	for _, a := range v.allocs[1:] {
		end = max(end, a.iv.End)
	}
	return interval.Interval{Start: v.allocs[0].iv.Start, End: end}, true
}

func (v *Variant) Predecessor(a *Alloc) *Alloc {
	for _, p := range v.allocs {
		if p.obs == a.obs && a.first == p.last+1 {
			return p
		}
	}
	return nil
}

func (v *Variant) Successor(a *Alloc) *Alloc {
	for _, p := range v.allocs {
		if p.obs == a.obs && a.last+1 == p.first {
			return p
		}
	}
	return nil
}

func (v *Variant) Previous(a *Alloc) *Alloc {
	i := v.index(a)
	if i <= 0 {
		return nil
	}
	return v.allocs[i-1]
}

func (v *Variant) Next(a *Alloc) *Alloc {
	i := v.index(a)
	if i < 0 || i+1 >= len(v.allocs) {
		return nil
	}
	return v.allocs[i+1]
}

// Severity returns the worst marker on the variant or any of its allocations.
func (v *Variant) Severity() (Severity, bool) {
	return v.schedule.markers.Worst(VariantTarget(v), true)
}

// Markers returns the markers of the variant, including those of its allocations
// when transitive is set.
func (v *Variant) Markers(transitive bool) []*Marker {
	return v.schedule.markers.MarkersFor(VariantTarget(v), transitive)
}

// AddAlloc schedules steps first..last of obs starting at start.
func (v *Variant) AddAlloc(obs *model.Obs, start int64, first, last int, setup SetupType, opts ...AddOption) (*Alloc, error) {
	if err := v.writable(); err != nil {
		return nil, err
	}
	var o addOptions
	for _, opt := range opts {
		opt(&o)
	}
	a, err := v.newAlloc(obs, start, first, last, setup, o.comment)
	if err != nil {
		return nil, err
	}
	if !o.force {
		if err := v.tryAdd(a, nil); err != nil {
			return nil, err
		}
	}
	v.insert(a)
	return a, v.Notify()
}

// RemoveAlloc drops a from the variant. Unless force is set, removing an Alloc whose
// later steps are still scheduled fails with ErrAbandonedSuccessor.
func (v *Variant) RemoveAlloc(a *Alloc, force bool) error {
	if err := v.writable(); err != nil {
		return err
	}
	i := v.index(a)
	if i < 0 {
		return ErrForeignAlloc
	}
	if !force && v.Successor(a) != nil {
		return fmt.Errorf("remove %s: %w", a, ErrAbandonedSuccessor)
	}
	v.allocs = append(v.allocs[:i], v.allocs[i+1:]...)
	return v.Notify()
}

// MoveAlloc replaces a with an equivalent Alloc starting at start with the given setup.
// Collision checks are skipped: a dragged visit may land on another and the
// overlap rule reports it.
func (v *Variant) MoveAlloc(a *Alloc, start int64, setup SetupType) (*Alloc, error) {
	if err := v.writable(); err != nil {
		return nil, err
	}
	i := v.index(a)
	if i < 0 {
		return nil, ErrForeignAlloc
	}
	moved, err := v.newAlloc(a.obs, start, a.first, a.last, setup, a.comment)
	if err != nil {
		return nil, err
	}
	v.allocs = append(v.allocs[:i], v.allocs[i+1:]...)
	v.insert(moved)
	return moved, v.Notify()
}

// SetWind sets or clears (nil) the wind constraint.
func (v *Variant) SetWind(w *model.WindConstraint) error {
	if err := v.writable(); err != nil {
		return err
	}
	if w != nil {
		c := *w
		w = &c
	}
	v.wind = w
	return v.Notify()
}

// SetLGSOnly marks the variant as a laser-guide-star night.
func (v *Variant) SetLGSOnly(lgs bool) error {
	if err := v.writable(); err != nil {
		return err
	}
	v.lgsOnly = lgs
	return v.Notify()
}

// SetName renames the variant.
func (v *Variant) SetName(name string) error {
	if err := v.writable(); err != nil {
		return err
	}
	v.name = name
	return v.Notify()
}

// Subscribe registers fn for change notifications and runs it once immediately.
func (v *Variant) Subscribe(fn func(*Variant)) (Subscription, error) {
	return v.subject.Subscribe(v, fn)
}

func (v *Variant) Unsubscribe(id Subscription) { v.subject.Unsubscribe(id) }

// Notify re-runs every subscriber. External mutators call it after changing the
// variant by other means than its own methods.
func (v *Variant) Notify() error {
	if err := v.subject.Notify(v); err != nil {
		v.schedule.log.Warnf("variant %s: change rejected during notification", v.name)
		return err
	}
	return nil
}

func (v *Variant) writable() error {
	if v.subject.Notifying() {
		v.schedule.log.Warnf("variant %s: change rejected during notification", v.name)
		return ErrReentrantNotify
	}
	return nil
}

func (v *Variant) newAlloc(obs *model.Obs, start int64, first, last int, setup SetupType, comment string) (*Alloc, error) {
	if obs == nil || first < 0 || last < first || last >= obs.Steps.Len() {
		return nil, ErrInvalidSteps
	}
	span := Span(obs, first, last, setup)
	return &Alloc{
		variant: v,
		obs:     obs,
		iv:      interval.Interval{Start: start, End: start + span},
		first:   first,
		last:    last,
		setup:   setup,
		comment: comment,
	}, nil
}

// tryAdd checks a candidate against the current allocations, ignoring skip.
func (v *Variant) tryAdd(a, skip *Alloc) error {
	var pred, succ *Alloc
	for _, o := range v.allocs {
		if o == skip {
			continue
		}
		if o.Overlaps(a, interval.OverlapEither) {
			return fmt.Errorf("add %s: %w with %s", a, ErrCollision, o)
		}
		if o.obs == a.obs {
			if o.last+1 == a.first {
				pred = o
			}
			if a.last+1 == o.first {
				succ = o
			}
		}
	}
	if a.first > a.obs.Steps.Done && pred == nil {
		return fmt.Errorf("add %s: %w", a, ErrMissingPredecessor)
	}
	if pred != nil && pred.iv.End > a.iv.Start {
		return fmt.Errorf("add %s: %w", a, ErrOrdering)
	}
	if succ != nil && a.iv.End > succ.iv.Start {
		return fmt.Errorf("add %s: %w", a, ErrOrdering)
	}
	return nil
}

func (v *Variant) insert(a *Alloc) {
	i := sort.Search(len(v.allocs), func(k int) bool { return less(a, v.allocs[k]) })
	v.allocs = append(v.allocs, nil)
	copy(v.allocs[i+1:], v.allocs[i:])
	v.allocs[i] = a
}

func (v *Variant) index(a *Alloc) int {
	for i, o := range v.allocs {
		if o == a {
			return i
		}
	}
	return -1
}

// Scope is the marker target covering the variant and its allocations.
func (v *Variant) Scope() Target { return VariantTarget(v) }

// MarkerManager returns the manager of the owning schedule.
func (v *Variant) MarkerManager() *MarkerManager { return v.schedule.markers }
