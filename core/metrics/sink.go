package metrics

import (
	"fmt"

	"github.com/kilianp07/assetfin/core/events"
	"github.com/kilianp07/assetfin/core/factory"
)

// MetricsSink records completed portfolio valuations.
type MetricsSink interface {
	RecordCalculation(ev events.CalculationEvent) error
}

// SensitivityRecorder is implemented by sinks that also record tornado sweeps.
type SensitivityRecorder interface {
	RecordSensitivity(ev events.SensitivityEvent) error
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) RecordCalculation(events.CalculationEvent) error { return nil }
func (NopSink) RecordSensitivity(events.SensitivityEvent) error { return nil }

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink combines sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordCalculation forwards to every sink, returning the first error.
func (m *MultiSink) RecordCalculation(ev events.CalculationEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordCalculation(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordSensitivity forwards to the sinks that support it.
func (m *MultiSink) RecordSensitivity(ev events.SensitivityEvent) error {
	for _, s := range m.Sinks {
		if r, ok := s.(SensitivityRecorder); ok {
			if err := r.RecordSensitivity(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// backends maps a sink type ("prometheus", "influx", "nop") to its builder.
var backends = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink makes a valuation sink backend available to NewMetricsSink.
func RegisterMetricsSink(backend string, build factory.Factory[MetricsSink]) error {
	return backends.Register(backend, build)
}

// NewMetricsSink builds the valuation sinks listed under metrics.sinks. An empty
// list records nothing; more than one sink is wrapped in a MultiSink.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	built := make([]MetricsSink, 0, len(cfgs))
	for _, c := range cfgs {
		s, err := backends.Create(c)
		if err != nil {
			return nil, fmt.Errorf("valuation sink %q: %w", c.Type, err)
		}
		built = append(built, s)
	}
	switch len(built) {
	case 0:
		return NopSink{}, nil
	case 1:
		return built[0], nil
	}
	return NewMultiSink(built...), nil
}
