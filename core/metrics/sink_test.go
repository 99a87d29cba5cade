package metrics

import (
	"errors"
	"testing"

	"github.com/kilianp07/assetfin/core/events"
)

type recordSink struct {
	calcs, sweeps int
	err           error
}

func (r *recordSink) RecordCalculation(events.CalculationEvent) error {
	r.calcs++
	return r.err
}

func (r *recordSink) RecordSensitivity(events.SensitivityEvent) error {
	r.sweeps++
	return nil
}

type calcOnly struct{ n int }

func (c *calcOnly) RecordCalculation(events.CalculationEvent) error {
	c.n++
	return nil
}

func TestMultiSinkForwards(t *testing.T) {
	s1 := &recordSink{}
	s2 := &calcOnly{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordCalculation(events.CalculationEvent{RunID: "a"}); err != nil {
		t.Fatalf("record calculation: %v", err)
	}
	if err := m.RecordSensitivity(events.SensitivityEvent{RunID: "b"}); err != nil {
		t.Fatalf("record sensitivity: %v", err)
	}
	if s1.calcs != 1 || s1.sweeps != 1 || s2.n != 1 {
		t.Fatalf("records not forwarded: %+v %+v", s1, s2)
	}
}

func TestMultiSinkStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	s1 := &recordSink{err: boom}
	s2 := &recordSink{}
	if err := NewMultiSink(s1, s2).RecordCalculation(events.CalculationEvent{}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if s2.calcs != 0 {
		t.Fatalf("second sink should not be called")
	}
}
