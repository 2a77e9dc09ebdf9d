package listeners

import (
	"time"

	"github.com/kilianp07/nightplan/core/events"
	"github.com/kilianp07/nightplan/core/logger"
	"github.com/kilianp07/nightplan/core/metrics"
	"github.com/kilianp07/nightplan/core/monitoring"
	"github.com/kilianp07/nightplan/core/schedule"
	"github.com/kilianp07/nightplan/internal/eventbus"
)

// env carries the ambient services shared by every listener of a registry.
type env struct {
	log     logger.Logger
	monitor monitoring.Monitor
	sink    metrics.MetricsSink
	bus     *eventbus.TypedBus[events.RuleEvent]
	now     func() time.Time
}

func (e *env) fault(source, scope, target string, err error) {
	e.log.Errorf("rule %s failed on %s %s: %v", source, scope, target, err)
	e.monitor.CaptureException(err, map[string]string{"rule": source, "scope": scope, "target": target})
}

func (e *env) record(run metrics.RuleRun, err error) {
	if serr := e.sink.RecordRuleRun(run); serr != nil {
		e.log.Warnf("record rule run %s: %v", run.Rule, serr)
	}
	if e.bus != nil {
		e.bus.Publish(ruleEvent(run, err))
	}
	e.log.Debugw("rule run", map[string]any{
		"rule":     run.Rule,
		"target":   run.Target,
		"outcome":  run.Outcome,
		"markers":  run.Markers,
		"duration": run.Duration.String(),
	})
}

// Option configures a Registry.
type Option func(*env)

func WithLogger(l logger.Logger) Option {
	return func(e *env) {
		if l != nil {
			e.log = l
		}
	}
}

func WithMonitor(m monitoring.Monitor) Option {
	return func(e *env) {
		if m != nil {
			e.monitor = m
		}
	}
}

func WithMetrics(s metrics.MetricsSink) Option {
	return func(e *env) {
		if s != nil {
			e.sink = s
		}
	}
}

// WithRuleEvents publishes a RuleEvent after every run.
func WithRuleEvents(bus *eventbus.TypedBus[events.RuleEvent]) Option {
	return func(e *env) { e.bus = bus }
}

// WithClock overrides the clock used to time rule runs.
func WithClock(now func() time.Time) Option {
	return func(e *env) {
		if now != nil {
			e.now = now
		}
	}
}

// Registry is the ordered rule set bound to one planning session. It implements
// schedule.Attacher and is handed to schedule.New.
type Registry struct {
	env       *env
	schedules []*Listener[*schedule.Schedule]
	variants  []*Listener[*schedule.Variant]
}

var _ schedule.Attacher = (*Registry)(nil)

// NewRegistry returns an empty registry. Rules are added before any schedule is
// attached and never afterwards.
func NewRegistry(opts ...Option) *Registry {
	e := &env{
		log:     logger.Nop{},
		monitor: monitoring.NopMonitor{},
		sink:    metrics.NopSink{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return &Registry{env: e}
}

// AddScheduleRule appends a schedule-level rule.
func (r *Registry) AddScheduleRule(rule Rule[*schedule.Schedule]) *Registry {
	r.schedules = append(r.schedules, newListener[*schedule.Schedule](rule, "schedule", r.env))
	return r
}

// AddVariantRule appends a variant-level rule.
func (r *Registry) AddVariantRule(rule Rule[*schedule.Variant]) *Registry {
	r.variants = append(r.variants, newListener[*schedule.Variant](rule, "variant", r.env))
	return r
}

// ScheduleRules lists the sources of the schedule-level rules in order.
func (r *Registry) ScheduleRules() []string {
	out := make([]string, len(r.schedules))
	for i, l := range r.schedules {
		out[i] = l.Source()
	}
	return out
}

// VariantRules lists the sources of the variant-level rules in order.
func (r *Registry) VariantRules() []string {
	out := make([]string, len(r.variants))
	for i, l := range r.variants {
		out[i] = l.Source()
	}
	return out
}

func (r *Registry) AttachSchedule(s *schedule.Schedule) {
	for _, l := range r.schedules {
		if err := l.Subscribe(s); err != nil {
			r.env.log.Errorf("attach: %v", err)
		}
	}
}

func (r *Registry) DetachSchedule(s *schedule.Schedule) {
	for _, l := range r.schedules {
		l.Unsubscribe(s)
	}
}

func (r *Registry) AttachVariant(v *schedule.Variant) {
	for _, l := range r.variants {
		if err := l.Subscribe(v); err != nil {
			r.env.log.Errorf("attach: %v", err)
		}
	}
}

func (r *Registry) DetachVariant(v *schedule.Variant) {
	for _, l := range r.variants {
		l.Unsubscribe(v)
	}
}
