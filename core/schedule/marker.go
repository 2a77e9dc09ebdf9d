package schedule

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/nightplan/core/events"
	"github.com/kilianp07/nightplan/internal/eventbus"
)

// Marker is one diagnostic produced by a rule.
type Marker struct {
	ID       string
	Source   string
	Severity Severity
	Message  string
	Target   Target
	// Ephemeral markers are not kept when the schedule is saved.
	Ephemeral bool
	Created   time.Time

	seq uint64
}

// MarkerChange is delivered to synchronous MarkerManager observers.
type MarkerChange struct {
	Op     events.MarkerOp
	Marker *Marker
}

// MarkerManager owns the live markers of one Schedule. Adds and clears are scoped to a
// (source, target) pair so rules never disturb each other's markers.
type MarkerManager struct {
	markers   []*Marker
	seq       uint64
	observers map[uint64]func(MarkerChange)
	nextObs   uint64
	bus       *eventbus.TypedBus[events.MarkerEvent]
	now       func() time.Time
}

// ManagerOption configures a MarkerManager.
type ManagerOption func(*MarkerManager)

// WithEventBus mirrors every change onto bus as a flattened MarkerEvent.
func WithEventBus(bus *eventbus.TypedBus[events.MarkerEvent]) ManagerOption {
	return func(m *MarkerManager) { m.bus = bus }
}

// WithClock overrides the time source used to stamp markers.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *MarkerManager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMarkerManager creates an empty manager.
func NewMarkerManager(opts ...ManagerOption) *MarkerManager {
	m := &MarkerManager{observers: map[uint64]func(MarkerChange){}, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Add appends a marker attributed to source and returns it.
func (m *MarkerManager) Add(ephemeral bool, source string, sev Severity, msg string, target Target) *Marker {
	m.seq++
	mk := &Marker{
		ID:        uuid.NewString(),
		Source:    source,
		Severity:  sev,
		Message:   msg,
		Target:    target,
		Ephemeral: ephemeral,
		Created:   m.now(),
		seq:       m.seq,
	}
	m.markers = append(m.markers, mk)
	m.emit(events.MarkerAdded, mk)
	return mk
}

// Clear removes every marker added by source whose target lies within scope and
// returns how many were removed.
func (m *MarkerManager) Clear(source string, scope Target) int {
	kept := m.markers[:0]
	var removed []*Marker
	for _, mk := range m.markers {
		if mk.Source == source && mk.Target.Within(scope) {
			removed = append(removed, mk)
			continue
		}
		kept = append(kept, mk)
	}
	for i := len(kept); i < len(m.markers); i++ {
		m.markers[i] = nil
	}
	m.markers = kept
	for _, mk := range removed {
		m.emit(events.MarkerRemoved, mk)
	}
	return len(removed)
}

// Subscribe registers a synchronous observer and returns a function that cancels it.
func (m *MarkerManager) Subscribe(fn func(MarkerChange)) func() {
	m.nextObs++
	id := m.nextObs
	m.observers[id] = fn
	return func() { delete(m.observers, id) }
}

// Len returns the number of live markers.
func (m *MarkerManager) Len() int { return len(m.markers) }

// Markers returns every live marker, worst severity first then in insertion order.
func (m *MarkerManager) Markers() []*Marker {
	return sorted(m.markers)
}

// MarkersFor returns the markers attached to target. When transitive is set, markers
// of entities within target are included too.
func (m *MarkerManager) MarkersFor(target Target, transitive bool) []*Marker {
	var out []*Marker
	for _, mk := range m.markers {
		if transitive {
			if mk.Target.Within(target) {
				out = append(out, mk)
			}
		} else if mk.Target == target {
			out = append(out, mk)
		}
	}
	return sorted(out)
}

// MarkersFrom returns the live markers added by source.
func (m *MarkerManager) MarkersFrom(source string) []*Marker {
	var out []*Marker
	for _, mk := range m.markers {
		if mk.Source == source {
			out = append(out, mk)
		}
	}
	return sorted(out)
}

// Worst returns the most severe marker severity for target, false when there is none.
func (m *MarkerManager) Worst(target Target, transitive bool) (Severity, bool) {
	var worst Severity
	for _, mk := range m.MarkersFor(target, transitive) {
		if mk.Severity > worst {
			worst = mk.Severity
		}
	}
	return worst, worst != 0
}

// Counts returns the number of live markers per severity.
func (m *MarkerManager) Counts() map[Severity]int {
	out := map[Severity]int{}
	for _, mk := range m.markers {
		out[mk.Severity]++
	}
	return out
}

func (m *MarkerManager) emit(op events.MarkerOp, mk *Marker) {
	ids := make([]uint64, 0, len(m.observers))
	for id := range m.observers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if fn, ok := m.observers[id]; ok {
			fn(MarkerChange{Op: op, Marker: mk})
		}
	}
	if m.bus != nil {
		m.bus.Publish(mk.Event(op, m.now()))
	}
}

// Event flattens the marker into a bus event.
func (mk *Marker) Event(op events.MarkerOp, at time.Time) events.MarkerEvent {
	ev := events.MarkerEvent{
		Op:         op,
		ID:         mk.ID,
		Source:     mk.Source,
		Severity:   mk.Severity.String(),
		Message:    mk.Message,
		TargetKind: mk.Target.Kind.String(),
		Target:     mk.Target.Label(),
		Ephemeral:  mk.Ephemeral,
		Time:       at,
	}
	if s := mk.Target.Schedule(); s != nil {
		ev.Schedule = s.Name()
	}
	return ev
}

func sorted(in []*Marker) []*Marker {
	out := make([]*Marker, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity > out[j].Severity
		}
		return out[i].seq < out[j].seq
	})
	return out
}
