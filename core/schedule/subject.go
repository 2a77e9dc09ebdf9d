package schedule

// Subscription identifies one registration on a Subject.
type Subscription uint64

type subscriber[T any] struct {
	id Subscription
	fn func(T)
}

// guard is shared by every Subject of one Schedule. It is held while subscribers run,
// which makes a change made from inside a recompute detectable.
type guard struct {
	active bool
}

// Subject is an explicit observer list. Mutators call Notify after changing state.
type Subject[T any] struct {
	guard  *guard
	subs   []subscriber[T]
	nextID Subscription
}

// NewSubject creates a Subject with its own notification guard.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{guard: &guard{}}
}

func newSubject[T any](g *guard) *Subject[T] {
	return &Subject[T]{guard: g}
}

// Subscribe registers fn and runs it once against target so the current state is
// evaluated without waiting for a first change.
func (s *Subject[T]) Subscribe(target T, fn func(T)) (Subscription, error) {
	if s.guard.active {
		return 0, ErrReentrantNotify
	}
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	s.guard.active = true
	defer func() { s.guard.active = false }()
	fn(target)
	return id, nil
}

// Unsubscribe removes a registration. Unknown ids are ignored.
func (s *Subject[T]) Unsubscribe(id Subscription) {
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of subscribers.
func (s *Subject[T]) Len() int { return len(s.subs) }

// Notifying reports whether subscribers of the owning schedule are running.
func (s *Subject[T]) Notifying() bool { return s.guard.active }

// Notify runs every subscriber in registration order.
func (s *Subject[T]) Notify(target T) error {
	if s.guard.active {
		return ErrReentrantNotify
	}
	s.guard.active = true
	defer func() { s.guard.active = false }()
	subs := make([]subscriber[T], len(s.subs))
	copy(subs, s.subs)
	for _, sub := range subs {
		sub.fn(target)
	}
	return nil
}
