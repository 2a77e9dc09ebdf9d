package listeners

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/kilianp07/nightplan/core/events"
	"github.com/kilianp07/nightplan/core/metrics"
	"github.com/kilianp07/nightplan/core/schedule"
)

// ErrRulePanic wraps a panic recovered from a rule.
var ErrRulePanic = errors.New("rule panicked")

// target is satisfied by *schedule.Schedule and *schedule.Variant.
type target[T any] interface {
	comparable
	Subscribe(fn func(T)) (schedule.Subscription, error)
	Unsubscribe(id schedule.Subscription)
	Scope() schedule.Target
	MarkerManager() *schedule.MarkerManager
	Name() string
}

// Listener runs one rule against every target it is subscribed to.
type Listener[T target[T]] struct {
	rule  Rule[T]
	scope string
	env   *env
	subs  map[T]schedule.Subscription
}

func newListener[T target[T]](rule Rule[T], scope string, e *env) *Listener[T] {
	return &Listener[T]{rule: rule, scope: scope, env: e, subs: map[T]schedule.Subscription{}}
}

// Source returns the rule identity stamped on its markers.
func (l *Listener[T]) Source() string { return l.rule.Source() }

// Subscribe registers the listener on t and validates t immediately.
func (l *Listener[T]) Subscribe(t T) error {
	if _, ok := l.subs[t]; ok {
		return nil
	}
	id, err := t.Subscribe(l.OnChange)
	if err != nil {
		return fmt.Errorf("subscribe %s to %s: %w", l.Source(), t.Name(), err)
	}
	l.subs[t] = id
	return nil
}

// Unsubscribe deregisters from t and clears the rule's markers for it.
func (l *Listener[T]) Unsubscribe(t T) {
	id, ok := l.subs[t]
	if !ok {
		return
	}
	t.Unsubscribe(id)
	delete(l.subs, t)
	t.MarkerManager().Clear(l.Source(), t.Scope())
}

// OnChange clears the rule's markers for t and recomputes them.
func (l *Listener[T]) OnChange(t T) {
	m := t.MarkerManager()
	source := l.Source()
	m.Clear(source, t.Scope())

	emit := NewEmitter(m, source)
	start := l.env.now()
	outcome, err := l.check(t, emit)
	if err != nil {
		// a failed run keeps nothing it produced
		m.Clear(source, t.Scope())
		l.env.fault(source, l.scope, t.Name(), err)
	}
	l.env.record(metrics.RuleRun{
		Rule:     source,
		Scope:    l.scope,
		Schedule: t.Scope().Schedule().Name(),
		Target:   t.Name(),
		Outcome:  outcome,
		Markers:  emit.Count(),
		Duration: l.env.now().Sub(start),
		Time:     start,
	}, err)
}

func (l *Listener[T]) check(t T, emit *Emitter) (outcome string, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = metrics.OutcomePanic
			err = fmt.Errorf("%w: %v\n%s", ErrRulePanic, r, debug.Stack())
		}
	}()
	if cerr := l.rule.Check(t, emit); cerr != nil {
		return metrics.OutcomeError, cerr
	}
	return metrics.OutcomeOK, nil
}

// ruleEvent converts a run into a bus event.
func ruleEvent(run metrics.RuleRun, err error) events.RuleEvent {
	return events.RuleEvent{
		Rule:     run.Rule,
		Scope:    run.Scope,
		Outcome:  run.Outcome,
		Markers:  run.Markers,
		Duration: run.Duration,
		Err:      err,
	}
}
