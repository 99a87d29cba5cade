package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/assetfin/core/events"
	"github.com/kilianp07/assetfin/internal/eventbus"
)

type countingSink struct {
	mu           sync.Mutex
	calculations []string
	sweeps       int
}

func (s *countingSink) RecordCalculation(ev events.CalculationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculations = append(s.calculations, ev.RunID)
	return nil
}

func (s *countingSink) RecordSensitivity(events.SensitivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweeps++
	return nil
}

func (s *countingSink) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calculations), s.sweeps
}

func TestStartEventCollector(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calc := eventbus.NewTyped[events.CalculationEvent]()
	sens := eventbus.NewTyped[events.SensitivityEvent]()
	sink := &countingSink{}
	StartEventCollector(ctx, Buses{Calculations: calc, Sensitivity: sens}, sink, nil)

	require.Equal(t, 1, calc.Subscribers())
	require.Equal(t, 1, sens.Subscribers())

	calc.Publish(events.CalculationEvent{RunID: "a"})
	calc.Publish(events.CalculationEvent{RunID: "b"})
	sens.Publish(events.SensitivityEvent{RunID: "s"})

	require.Eventually(t, func() bool {
		c, s := sink.counts()
		return c == 2 && s == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.Eventually(t, func() bool {
		return calc.Subscribers() == 0 && sens.Subscribers() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestStartEventCollector_NilSink(t *testing.T) {
	calc := eventbus.NewTyped[events.CalculationEvent]()
	StartEventCollector(context.Background(), Buses{Calculations: calc}, nil, nil)
	require.Equal(t, 0, calc.Subscribers())
}
