package metrics

import (
	"context"
	"sort"

	"github.com/kilianp07/assetfin/core/events"
	coremetrics "github.com/kilianp07/assetfin/core/metrics"
	"github.com/kilianp07/assetfin/infra/logger"
	"github.com/kilianp07/assetfin/internal/eventbus"
)

// Buses groups the event streams a collector listens on. Nil buses are skipped.
type Buses struct {
	Calculations *eventbus.TypedBus[events.CalculationEvent]
	Sensitivity  *eventbus.TypedBus[events.SensitivityEvent]
}

// StartEventCollector subscribes to the buses and records every event on sink.
// It stops when the context is canceled or the buses are closed.
func StartEventCollector(ctx context.Context, buses Buses, sink coremetrics.MetricsSink, log logger.Logger) {
	if sink == nil {
		return
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if buses.Calculations != nil {
		sub := buses.Calculations.Subscribe()
		go drain(ctx, sub, buses.Calculations.Unsubscribe, func(ev events.CalculationEvent) {
			if err := sink.RecordCalculation(ev); err != nil {
				log.Errorf("record calculation %s: %v", ev.RunID, err)
			}
		})
	}
	if buses.Sensitivity != nil {
		rec, ok := sink.(coremetrics.SensitivityRecorder)
		if !ok {
			return
		}
		sub := buses.Sensitivity.Subscribe()
		go drain(ctx, sub, buses.Sensitivity.Unsubscribe, func(ev events.SensitivityEvent) {
			if err := rec.RecordSensitivity(ev); err != nil {
				log.Errorf("record sensitivity %s: %v", ev.RunID, err)
			}
		})
	}
}

func drain[T any](ctx context.Context, sub <-chan T, unsubscribe func(<-chan T), handle func(T)) {
	defer unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			handle(ev)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
