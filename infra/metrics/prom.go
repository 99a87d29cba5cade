package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/assetfin/core/events"
	coremetrics "github.com/kilianp07/assetfin/core/metrics"
)

// PromSink exposes valuation runs as Prometheus metrics.
type PromSink struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	irr         *prometheus.GaugeVec
	minDSCR     *prometheus.GaugeVec
	warnings    *prometheus.CounterVec
	sensitivity prometheus.Counter
	sensRuns    prometheus.Counter
}

// NewPromSink registers metrics on the default Prometheus registerer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry("", prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Metrics
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(namespace string, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "assetfin"
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calculation_runs_total",
		Help:      "Number of completed portfolio valuations",
	}, []string{"revenue_case", "cached"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "calculation_duration_seconds",
		Help:      "Wall time of a portfolio valuation",
		Buckets:   prometheus.DefBuckets,
	}, []string{"revenue_case"})
	irr := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "equity_irr_ratio",
		Help:      "Latest converged equity IRR per portfolio and asset",
	}, []string{"portfolio", "asset"})
	minDSCR := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "min_dscr_ratio",
		Help:      "Minimum debt service coverage ratio of the latest run",
	}, []string{"portfolio"})
	warnings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calculation_warnings_total",
		Help:      "Warnings raised during valuations",
	}, []string{"code"})
	sensitivity := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sensitivity_sweeps_total",
		Help:      "Number of completed tornado sweeps",
	})
	sensRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sensitivity_runs_total",
		Help:      "Valuations executed by tornado sweeps",
	})

	var err error
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if irr, err = register(reg, irr); err != nil {
		return nil, err
	}
	if minDSCR, err = register(reg, minDSCR); err != nil {
		return nil, err
	}
	if warnings, err = register(reg, warnings); err != nil {
		return nil, err
	}
	if sensitivity, err = register(reg, sensitivity); err != nil {
		return nil, err
	}
	if sensRuns, err = register(reg, sensRuns); err != nil {
		return nil, err
	}
	return &PromSink{
		runs:        runs,
		duration:    duration,
		irr:         irr,
		minDSCR:     minDSCR,
		warnings:    warnings,
		sensitivity: sensitivity,
		sensRuns:    sensRuns,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordCalculation updates run counters and the latest IRR and DSCR gauges.
func (s *PromSink) RecordCalculation(ev events.CalculationEvent) error {
	cached := "false"
	if ev.Cached {
		cached = "true"
	}
	s.runs.WithLabelValues(ev.RevenueCase, cached).Inc()
	s.duration.WithLabelValues(ev.RevenueCase).Observe(ev.Duration.Seconds())
	if v, ok := ev.PortfolioIRR.Value(); ok {
		s.irr.WithLabelValues(ev.PortfolioID, "").Set(v)
	}
	for name, r := range ev.AssetIRR {
		if v, ok := r.Value(); ok {
			s.irr.WithLabelValues(ev.PortfolioID, name).Set(v)
		}
	}
	if ev.MinDSCR != nil {
		s.minDSCR.WithLabelValues(ev.PortfolioID).Set(*ev.MinDSCR)
	}
	for _, w := range ev.Warnings {
		s.warnings.WithLabelValues(string(w.Code)).Inc()
	}
	return nil
}

// RecordSensitivity counts a tornado sweep and the valuations it ran.
func (s *PromSink) RecordSensitivity(ev events.SensitivityEvent) error {
	s.sensitivity.Inc()
	s.sensRuns.Add(float64(ev.Runs))
	return nil
}
