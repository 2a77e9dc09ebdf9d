package metrics

import (
	"context"

	"github.com/kilianp07/nightplan/core/events"
	coremetrics "github.com/kilianp07/nightplan/core/metrics"
	"github.com/kilianp07/nightplan/infra/logger"
	"github.com/kilianp07/nightplan/internal/eventbus"
)

// StartMarkerCollector forwards marker events from the bus to sinks implementing
// MarkerRecorder. It stops when ctx is canceled or the bus is closed, and the
// returned channel is closed once the goroutine has exited. Sink errors are logged
// to log, or to a component logger when log is nil.
func StartMarkerCollector(ctx context.Context, bus *eventbus.TypedBus[events.MarkerEvent], sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if log == nil {
		log = logger.New("marker-collector")
	}
	rec, ok := sink.(coremetrics.MarkerRecorder)
	if bus == nil || !ok {
		close(done)
		return done
	}
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
				if err := rec.RecordMarker(ev); err != nil {
					log.Warnf("record marker %s %s: %v", ev.Op, ev.ID, err)
				}
			}
		}
	}()
	return done
}
