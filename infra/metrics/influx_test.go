package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/assetfin/core/events"
	"github.com/kilianp07/assetfin/core/model"
)

type influxRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (r *influxRecorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		data, _ := io.ReadAll(req.Body)
		r.mu.Lock()
		r.bodies = append(r.bodies, strings.TrimSpace(string(data)))
		r.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInfluxSink_RecordCalculation(t *testing.T) {
	rec := &influxRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ev := events.CalculationEvent{
		RunID:        "r1",
		PortfolioID:  "p1",
		RevenueCase:  "base",
		Assets:       1,
		Periods:      31,
		Duration:     250 * time.Millisecond,
		PortfolioIRR: model.Converged(0.0812345678, 6),
		AssetIRR: map[string]model.IRRResult{
			"solar-1": model.Converged(0.0812345678, 6),
		},
		Time: now,
	}
	if err := sink.RecordCalculation(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	run := write.NewPointWithMeasurement("calculation_run").
		AddTag("portfolio_id", "p1").
		AddTag("revenue_case", "base").
		AddTag("cached", "false").
		AddField("run_id", "r1").
		AddField("assets", 1).
		AddField("periods", 31).
		AddField("duration_ms", 250.0).
		AddField("warnings", 0).
		AddField("equity_irr", 0.081235).
		SetTime(now)
	asset := write.NewPointWithMeasurement("asset_irr").
		AddTag("portfolio_id", "p1").
		AddTag("asset", "solar-1").
		AddTag("revenue_case", "base").
		AddField("equity_irr", 0.081235).
		SetTime(now)
	exp1 := strings.TrimSpace(write.PointToLineProtocol(run, time.Nanosecond))
	exp2 := strings.TrimSpace(write.PointToLineProtocol(asset, time.Nanosecond))
	if len(rec.bodies) != 2 || rec.bodies[0] != exp1 || rec.bodies[1] != exp2 {
		t.Errorf("unexpected bodies: %#v", rec.bodies)
	}
}

func TestInfluxSink_RecordSensitivity(t *testing.T) {
	rec := &influxRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := sink.RecordSensitivity(events.SensitivityEvent{
		RunID: "s1", PortfolioID: "p1", Drivers: 6, Runs: 13, CacheHits: 1, Time: now,
	}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if len(rec.bodies) != 1 || !strings.HasPrefix(rec.bodies[0], "sensitivity_sweep,portfolio_id=p1 ") {
		t.Errorf("unexpected bodies: %#v", rec.bodies)
	}
	if !strings.Contains(rec.bodies[0], "runs=13i") {
		t.Errorf("runs field missing: %s", rec.bodies[0])
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
