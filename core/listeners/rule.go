package listeners

import (
	"github.com/kilianp07/nightplan/core/model"
	"github.com/kilianp07/nightplan/core/schedule"
)

// Rule recomputes the markers of one source for a target of type T. Check must only
// read the model and must only write markers through the Emitter.
type Rule[T any] interface {
	Source() string
	Check(target T, emit *Emitter) error
}

// Emitter adds markers on behalf of a single rule.
type Emitter struct {
	m      *schedule.MarkerManager
	source string
	count  int
}

// NewEmitter binds an emitter to source. The registry creates one per run.
func NewEmitter(m *schedule.MarkerManager, source string) *Emitter {
	return &Emitter{m: m, source: source}
}

// Add records a marker.
func (e *Emitter) Add(ephemeral bool, sev schedule.Severity, msg string, target schedule.Target) {
	e.m.Add(ephemeral, e.source, sev, msg, target)
	e.count++
}

func (e *Emitter) Info(msg string, target schedule.Target) {
	e.Add(false, schedule.SeverityInfo, msg, target)
}

func (e *Emitter) Warning(msg string, target schedule.Target) {
	e.Add(false, schedule.SeverityWarning, msg, target)
}

func (e *Emitter) Error(msg string, target schedule.Target) {
	e.Add(false, schedule.SeverityError, msg, target)
}

// Count returns the number of markers added so far.
func (e *Emitter) Count() int { return e.count }

// Classifier computes the per-variant flags of an observation.
type Classifier interface {
	FlagsFor(v *schedule.Variant, obs *model.Obs) model.FlagSet
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(v *schedule.Variant, obs *model.Obs) model.FlagSet

func (f ClassifierFunc) FlagsFor(v *schedule.Variant, obs *model.Obs) model.FlagSet { return f(v, obs) }

// ShutterAdvisor reports laser shutter closures affecting an allocation.
type ShutterAdvisor interface {
	ShutterWarningFor(a *schedule.Alloc) (string, bool)
}

// ShutterAdvisorFunc adapts a function to ShutterAdvisor.
type ShutterAdvisorFunc func(a *schedule.Alloc) (string, bool)

func (f ShutterAdvisorFunc) ShutterWarningFor(a *schedule.Alloc) (string, bool) { return f(a) }

// Scorer ranks an observation for a variant; higher is better.
type Scorer interface {
	ScoreFor(v *schedule.Variant, obs *model.Obs) float64
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(v *schedule.Variant, obs *model.Obs) float64

func (f ScorerFunc) ScoreFor(v *schedule.Variant, obs *model.Obs) float64 { return f(v, obs) }

type noFlags struct{}

func (noFlags) FlagsFor(*schedule.Variant, *model.Obs) model.FlagSet { return nil }

type noShutter struct{}

func (noShutter) ShutterWarningFor(*schedule.Alloc) (string, bool) { return "", false }

type noScores struct{}

func (noScores) ScoreFor(*schedule.Variant, *model.Obs) float64 { return 0 }
