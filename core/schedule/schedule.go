package schedule

import (
	"fmt"

	"github.com/kilianp07/nightplan/core/interval"
	"github.com/kilianp07/nightplan/core/logger"
	"github.com/kilianp07/nightplan/core/model"
)

// Schedule is the aggregate root of one night plan.
type Schedule struct {
	name     string
	site     model.Site
	blocks   interval.Union
	variants []*Variant
	current  *Variant
	ictd     bool
	markers  *MarkerManager
	sampler  Sampler
	attacher Attacher
	log      logger.Logger
	guard    *guard
	subject  *Subject[*Schedule]
}

// Option configures a Schedule at construction.
type Option func(*Schedule)

func WithSite(site model.Site) Option { return func(s *Schedule) { s.site = site } }

// WithSampler sets the circumstance sampler Allocs delegate to.
func WithSampler(sm Sampler) Option { return func(s *Schedule) { s.sampler = sm } }

// WithAttacher sets the rule registry bound to the schedule and its variants.
func WithAttacher(a Attacher) Option {
	return func(s *Schedule) {
		if a != nil {
			s.attacher = a
		}
	}
}

func WithMarkerManager(m *MarkerManager) Option {
	return func(s *Schedule) {
		if m != nil {
			s.markers = m
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(s *Schedule) {
		if l != nil {
			s.log = l
		}
	}
}

// WithICTD records whether instrument configuration data is available for the night.
func WithICTD(available bool) Option { return func(s *Schedule) { s.ictd = available } }

// New creates a schedule and attaches the schedule-level rules.
func New(name string, opts ...Option) *Schedule {
	g := &guard{}
	s := &Schedule{
		name:     name,
		attacher: nopAttacher{},
		log:      logger.Nop{},
		guard:    g,
		subject:  newSubject[*Schedule](g),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.markers == nil {
		s.markers = NewMarkerManager()
	}
	s.attacher.AttachSchedule(s)
	return s
}

func (s *Schedule) Name() string                  { return s.name }
func (s *Schedule) Site() model.Site              { return s.site }
func (s *Schedule) MarkerManager() *MarkerManager { return s.markers }
func (s *Schedule) ICTD() bool                    { return s.ictd }
func (s *Schedule) Current() *Variant             { return s.current }
func (s *Schedule) String() string                { return s.name }

// Blocks returns the working-time blocks in ascending order.
func (s *Schedule) Blocks() []Block {
	ivs := s.blocks.Intervals()
	out := make([]Block, len(ivs))
	for i, iv := range ivs {
		out[i] = Block{Interval: iv}
	}
	return out
}

// Variants returns the variants in creation order.
func (s *Schedule) Variants() []*Variant {
	out := make([]*Variant, len(s.variants))
	copy(out, s.variants)
	return out
}

// Variant looks a variant up by name.
func (s *Schedule) Variant(name string) (*Variant, bool) {
	for _, v := range s.variants {
		if v.name == name {
			return v, true
		}
	}
	return nil, false
}

// Span covers the first block start to the last block end.
func (s *Schedule) Span() (interval.Interval, bool) {
	ivs := s.blocks.Intervals()
	if len(ivs) == 0 {
		return interval.Interval{}, false
	}
	return interval.Interval{Start: ivs[0].Start, End: ivs[len(ivs)-1].End}, true
}

// MiddlePoint is the instant used to compare target coordinates; zero without blocks.
func (s *Schedule) MiddlePoint() int64 {
	span, ok := s.Span()
	if !ok {
		return 0
	}
	return (span.Start + span.End) / 2
}

// AddBlock adds working time, merging with touching blocks.
func (s *Schedule) AddBlock(start, end int64) error {
	if err := s.writable(); err != nil {
		return err
	}
	if end <= start {
		return fmt.Errorf("add block [%d, %d): %w", start, end, ErrInvalidInterval)
	}
	s.blocks.Add(interval.Interval{Start: start, End: end})
	return s.notifyAll()
}

// RemoveBlock removes working time, splitting blocks that straddle it.
func (s *Schedule) RemoveBlock(start, end int64) error {
	if err := s.writable(); err != nil {
		return err
	}
	if end <= start {
		return fmt.Errorf("remove block [%d, %d): %w", start, end, ErrInvalidInterval)
	}
	s.blocks.Remove(interval.Interval{Start: start, End: end})
	return s.notifyAll()
}

// AddVariant creates a named variant, attaches the variant rules to it and makes it
// current when it is the first one.
func (s *Schedule) AddVariant(name string) (*Variant, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	v := &Variant{schedule: s, name: name, subject: newSubject[*Variant](s.guard)}
	s.variants = append(s.variants, v)
	if s.current == nil {
		s.current = v
	}
	s.attacher.AttachVariant(v)
	return v, s.Notify()
}

// DuplicateVariant copies the allocations and constraints of v into a new variant.
func (s *Schedule) DuplicateVariant(v *Variant, name string) (*Variant, error) {
	if s.index(v) < 0 {
		return nil, ErrUnknownVariant
	}
	if err := s.writable(); err != nil {
		return nil, err
	}
	dup := &Variant{schedule: s, name: name, lgsOnly: v.lgsOnly, subject: newSubject[*Variant](s.guard)}
	if v.wind != nil {
		w := *v.wind
		dup.wind = &w
	}
	for _, a := range v.allocs {
		c := *a
		c.variant = dup
		dup.allocs = append(dup.allocs, &c)
	}
	s.variants = append(s.variants, dup)
	s.attacher.AttachVariant(dup)
	return dup, s.Notify()
}

// RemoveVariant detaches the variant rules, which clears their markers, and drops v.
func (s *Schedule) RemoveVariant(v *Variant) error {
	if err := s.writable(); err != nil {
		return err
	}
	i := s.index(v)
	if i < 0 {
		return ErrUnknownVariant
	}
	s.attacher.DetachVariant(v)
	s.variants = append(s.variants[:i], s.variants[i+1:]...)
	if s.current == v {
		s.current = nil
		if len(s.variants) > 0 {
			s.current = s.variants[0]
		}
	}
	return s.Notify()
}

// SetCurrent selects the variant shown to the planner.
func (s *Schedule) SetCurrent(v *Variant) error {
	if err := s.writable(); err != nil {
		return err
	}
	if v != nil && s.index(v) < 0 {
		return ErrUnknownVariant
	}
	s.current = v
	return s.Notify()
}

// SetICTD records whether instrument configuration data is available.
func (s *Schedule) SetICTD(available bool) error {
	if err := s.writable(); err != nil {
		return err
	}
	s.ictd = available
	return s.notifyAll()
}

// Close detaches every rule from the schedule and its variants.
func (s *Schedule) Close() {
	for _, v := range s.variants {
		s.attacher.DetachVariant(v)
	}
	s.attacher.DetachSchedule(s)
}

// Subscribe registers fn for change notifications and runs it once immediately.
func (s *Schedule) Subscribe(fn func(*Schedule)) (Subscription, error) {
	return s.subject.Subscribe(s, fn)
}

func (s *Schedule) Unsubscribe(id Subscription) { s.subject.Unsubscribe(id) }

// Notify re-runs every schedule-level subscriber.
func (s *Schedule) Notify() error {
	if err := s.subject.Notify(s); err != nil {
		s.log.Warnf("schedule %s: change rejected during notification", s.name)
		return err
	}
	return nil
}

// notifyAll is used for changes variant rules depend on too, such as blocks.
func (s *Schedule) notifyAll() error {
	if err := s.Notify(); err != nil {
		return err
	}
	for _, v := range s.variants {
		if err := v.Notify(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schedule) writable() error {
	if s.guard.active {
		s.log.Warnf("schedule %s: change rejected during notification", s.name)
		return ErrReentrantNotify
	}
	return nil
}

func (s *Schedule) index(v *Variant) int {
	for i, o := range s.variants {
		if o == v {
			return i
		}
	}
	return -1
}

// Scope is the marker target covering the schedule and everything in it.
func (s *Schedule) Scope() Target { return ScheduleTarget(s) }
