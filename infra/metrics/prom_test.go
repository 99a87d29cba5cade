package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/assetfin/core/events"
	"github.com/kilianp07/assetfin/core/model"
)

func TestPromSink_RecordCalculation(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry("", reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	dscr := 1.42
	ev := events.CalculationEvent{
		RunID:        "r1",
		PortfolioID:  "p1",
		RevenueCase:  "base",
		Duration:     120 * time.Millisecond,
		PortfolioIRR: model.Converged(0.085, 4),
		AssetIRR: map[string]model.IRRResult{
			"solar-1": model.Converged(0.09, 5),
			"wind-1":  {Status: model.IRRNoRoot},
		},
		MinDSCR: &dscr,
		Warnings: []model.Warning{
			{Code: model.WarnDefaultedCosts, Asset: "solar-1"},
			{Code: model.WarnDefaultedCosts, Asset: "wind-1"},
		},
	}
	if err := sink.RecordCalculation(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}

	expected := `
# HELP assetfin_calculation_runs_total Number of completed portfolio valuations
# TYPE assetfin_calculation_runs_total counter
assetfin_calculation_runs_total{cached="false",revenue_case="base"} 1
`
	if err := testutil.CollectAndCompare(sink.runs, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if c := testutil.CollectAndCount(sink.duration); c != 1 {
		t.Errorf("duration not recorded: %d", c)
	}
	// the non-converged asset must not publish a gauge
	if c := testutil.CollectAndCount(sink.irr); c != 2 {
		t.Errorf("expected 2 irr series, got %d", c)
	}
	if v := testutil.ToFloat64(sink.irr.WithLabelValues("p1", "solar-1")); v != 0.09 {
		t.Errorf("asset irr = %v", v)
	}
	if v := testutil.ToFloat64(sink.minDSCR.WithLabelValues("p1")); v != 1.42 {
		t.Errorf("min dscr = %v", v)
	}
	if v := testutil.ToFloat64(sink.warnings.WithLabelValues(string(model.WarnDefaultedCosts))); v != 2 {
		t.Errorf("warnings = %v", v)
	}
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry("", reg)
	if err != nil {
		t.Fatalf("first sink: %v", err)
	}
	second, err := NewPromSinkWithRegistry("", reg)
	if err != nil {
		t.Fatalf("second sink: %v", err)
	}
	if err := first.RecordSensitivity(events.SensitivityEvent{Runs: 12}); err != nil {
		t.Fatal(err)
	}
	if err := second.RecordSensitivity(events.SensitivityEvent{Runs: 3}); err != nil {
		t.Fatal(err)
	}
	if v := testutil.ToFloat64(first.sensitivity); v != 2 {
		t.Errorf("sweeps = %v", v)
	}
	if v := testutil.ToFloat64(second.sensRuns); v != 15 {
		t.Errorf("runs = %v", v)
	}
}
