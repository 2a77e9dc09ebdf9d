package journal

import (
	"context"

	"github.com/kilianp07/nightplan/core/events"
	"github.com/kilianp07/nightplan/core/logger"
	"github.com/kilianp07/nightplan/internal/eventbus"
)

// Follow appends every marker event published on bus to store until ctx is canceled
// or the bus closes. Append failures are logged and do not stop the follower. The
// returned channel is closed once the follower has exited.
func Follow(ctx context.Context, bus *eventbus.TypedBus[events.MarkerEvent], store Store, log logger.Logger) <-chan struct{} {
	if log == nil {
		log = logger.Nop{}
	}
	done := make(chan struct{})
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := store.Append(context.WithoutCancel(ctx), ev); err != nil {
					log.Errorf("journal append %s: %v", ev.ID, err)
				}
			}
		}
	}()
	return done
}
