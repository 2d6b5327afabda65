package metrics

import (
	"context"
	"time"

	"github.com/kwikdrytn/kwikdry-sub000/core/events"
	coremetrics "github.com/kwikdrytn/kwikdry-sub000/core/metrics"
	"github.com/kwikdrytn/kwikdry-sub000/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and forwards ranking
// events to the sink recorders it implements. It stops when the context is
// canceled or the bus is closed. The returned channel is closed once the
// collector has exited.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
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
				switch e := ev.(type) {
				case events.StateEvent:
					if r, ok := sink.(coremetrics.TransitionRecorder); ok {
						_ = r.RecordTransition(coremetrics.TransitionEvent{From: e.From, To: e.To, Time: e.Time})
					}
				case events.SuggestionDroppedEvent:
					if r, ok := sink.(coremetrics.DropRecorder); ok {
						_ = r.RecordDrop(coremetrics.DropEvent{
							RequestID:    e.RequestID,
							TechnicianID: e.TechnicianID,
							Rule:         e.Rule,
							Time:         time.Now(),
						})
					}
				}
			}
		}
	}()
	return done
}
