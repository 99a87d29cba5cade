package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/assetfin/core/events"
	coremetrics "github.com/kilianp07/assetfin/core/metrics"
	"github.com/kilianp07/assetfin/infra/logger"
)

// InfluxSink writes valuation runs to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordCalculation writes one calculation_run point plus one asset_irr point
// per converged asset.
func (s *InfluxSink) RecordCalculation(ev events.CalculationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("calculation_run").
		AddTag("portfolio_id", ev.PortfolioID).
		AddTag("revenue_case", ev.RevenueCase).
		AddTag("cached", strconv.FormatBool(ev.Cached)).
		AddField("run_id", ev.RunID).
		AddField("assets", ev.Assets).
		AddField("periods", ev.Periods).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		AddField("warnings", len(ev.Warnings))
	if v, ok := ev.PortfolioIRR.Value(); ok {
		p = p.AddField("equity_irr", round6(v))
	}
	if ev.MinDSCR != nil {
		p = p.AddField("min_dscr", round3(*ev.MinDSCR))
	}
	p = p.SetTime(ev.Time)
	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		return err
	}
	for _, name := range sortedKeys(ev.AssetIRR) {
		v, ok := ev.AssetIRR[name].Value()
		if !ok {
			continue
		}
		ap := write.NewPointWithMeasurement("asset_irr").
			AddTag("portfolio_id", ev.PortfolioID).
			AddTag("asset", name).
			AddTag("revenue_case", ev.RevenueCase).
			AddField("equity_irr", round6(v)).
			SetTime(ev.Time)
		if err := s.writeAPI.WritePoint(ctx, ap); err != nil {
			return err
		}
	}
	return nil
}

// RecordSensitivity writes a sensitivity_sweep point.
func (s *InfluxSink) RecordSensitivity(ev events.SensitivityEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("sensitivity_sweep").
		AddTag("portfolio_id", ev.PortfolioID).
		AddField("run_id", ev.RunID).
		AddField("drivers", ev.Drivers).
		AddField("runs", ev.Runs).
		AddField("cache_hits", ev.CacheHits).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000))
	if v, ok := ev.BaseIRR.Value(); ok {
		p = p.AddField("base_irr", round6(v))
	}
	p = p.SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

func round6(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}
