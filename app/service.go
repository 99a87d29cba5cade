package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/assetfin/config"
	"github.com/kilianp07/assetfin/core/events"
	"github.com/kilianp07/assetfin/core/finance"
	"github.com/kilianp07/assetfin/core/memo"
	coremetrics "github.com/kilianp07/assetfin/core/metrics"
	"github.com/kilianp07/assetfin/core/model"
	coremon "github.com/kilianp07/assetfin/core/monitoring"
	"github.com/kilianp07/assetfin/core/pricing"
	"github.com/kilianp07/assetfin/core/sensitivity"
	"github.com/kilianp07/assetfin/core/summary"
	"github.com/kilianp07/assetfin/core/validate"
	"github.com/kilianp07/assetfin/infra/logger"
	_ "github.com/kilianp07/assetfin/infra/market" // registers the "market" price source
	"github.com/kilianp07/assetfin/infra/metrics"
	"github.com/kilianp07/assetfin/infra/monitoring"
	"github.com/kilianp07/assetfin/infra/store"
	"github.com/kilianp07/assetfin/internal/eventbus"
)

// ErrNoStore is returned by history lookups when persistence is disabled.
var ErrNoStore = errors.New("run store disabled")

// Outcome is a completed valuation.
type Outcome struct {
	store.Run
	Cached bool `json:"cached"`
}

// SensitivityOutcome is a completed tornado sweep.
type SensitivityOutcome struct {
	RunID       string `json:"runId"`
	PortfolioID string `json:"portfolioId"`
	sensitivity.Result
}

// Service wires the engines to persistence, metrics and scheduling.
type Service struct {
	cfg      *config.Config
	engine   *finance.Engine
	analyzer *sensitivity.Analyzer
	cache    *memo.Cache[finance.Result]
	store    *store.SQLiteStore
	sink     coremetrics.MetricsSink
	calcBus  *eventbus.TypedBus[events.CalculationEvent]
	sensBus  *eventbus.TypedBus[events.SensitivityEvent]
	log      logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	prices, err := pricing.NewSource(cfg.Pricing, logger.New("pricing"))
	if err != nil {
		return nil, err
	}
	engine := finance.NewEngine(prices, finance.WithLogger(logger.New("finance")))

	var st *store.SQLiteStore
	var backing memo.Store = memo.NewMemoryStore(cfg.Store.MemoEntries)
	if cfg.Store.Path != "" {
		st, err = store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("run store: %w", err)
		}
		backing = st
	}
	cache := memo.NewCache[finance.Result](backing)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		if st != nil {
			_ = st.Close()
		}
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	return &Service{
		cfg:    cfg,
		engine: engine,
		analyzer: sensitivity.NewAnalyzer(engine,
			sensitivity.WithCache(cache),
			sensitivity.WithLogger(logger.New("sensitivity"))),
		cache:   cache,
		store:   st,
		sink:    sink,
		calcBus: eventbus.NewTyped[events.CalculationEvent](),
		sensBus: eventbus.NewTyped[events.SensitivityEvent](),
		log:     logg,
	}, nil
}

// Config returns the loaded configuration.
func (s *Service) Config() *config.Config { return s.cfg }

// FiscalStart returns the configured fiscal year start month.
func (s *Service) FiscalStart() time.Month { return s.cfg.Engine.FiscalStart() }

// Options returns the configured default run options.
func (s *Service) Options() finance.Options { return s.cfg.Engine.Options() }

// Validate reports portfolio problems without running the engines.
func (s *Service) Validate(p model.Portfolio) validate.Report { return validate.Portfolio(p) }

func portfolioID(p model.Portfolio) string {
	switch {
	case p.ID != "":
		return p.ID
	case p.Name != "":
		return p.Name
	}
	return "adhoc"
}

// Calculate validates and values p, reusing a memoized result when the same
// inputs were valued before. The run is stored and published.
func (s *Service) Calculate(ctx context.Context, p model.Portfolio, opts finance.Options) (Outcome, error) {
	start := time.Now()
	if err := validate.Check(p); err != nil {
		return Outcome{}, err
	}
	key, err := memo.RunKey(p, opts, s.engine.Prices())
	if err != nil {
		return Outcome{}, err
	}
	res, cached, err := s.cache.Do(ctx, key, func() (finance.Result, error) {
		return s.engine.CalculateProjectMetrics(p, opts)
	})
	if err != nil {
		report(err, p, opts)
		return Outcome{}, err
	}
	rc := opts.RevenueCase
	if rc == "" {
		rc = finance.DefaultOptions().RevenueCase
	}
	out := Outcome{
		Run: store.Run{
			ID:          uuid.NewString(),
			PortfolioID: portfolioID(p),
			InputHash:   key,
			RevenueCase: string(rc),
			CreatedAt:   start.UTC(),
			Duration:    time.Since(start),
			Result:      res,
		},
		Cached: cached,
	}
	if s.store != nil {
		if err := s.store.Save(ctx, out.Run); err != nil {
			s.log.Errorf("save run %s: %v", out.ID, err)
			report(err, p, opts)
		}
	}
	s.calcBus.Publish(calculationEvent(out))
	s.log.Infof("run %s: portfolio %s valued in %s (cached=%t)", out.ID, out.PortfolioID, out.Duration, cached)
	return out, nil
}

// report forwards unexpected failures to the error tracker. Input errors and
// cancellations are the caller's problem and are not reported.
func report(err error, p model.Portfolio, opts finance.Options) {
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, finance.ErrNoAssets),
		errors.Is(err, finance.ErrContractOverlap),
		errors.Is(err, finance.ErrMissingStart),
		errors.Is(err, finance.ErrUnknownTechnology):
		return
	}
	coremon.CaptureException(err, map[string]string{
		"portfolio_id": portfolioID(p),
		"revenue_case": string(opts.RevenueCase),
		"frequency":    string(opts.Frequency),
	})
}

func calculationEvent(o Outcome) events.CalculationEvent {
	ev := events.CalculationEvent{
		RunID:       o.ID,
		PortfolioID: o.PortfolioID,
		RevenueCase: o.RevenueCase,
		Duration:    o.Duration,
		Cached:      o.Cached,
		AssetIRR:    make(map[string]model.IRRResult, len(o.Result.Metrics)),
		Warnings:    o.Result.Warnings,
		Time:        o.CreatedAt,
	}
	for name, m := range o.Result.Metrics {
		if name == model.PortfolioKey {
			continue
		}
		ev.Assets++
		ev.AssetIRR[name] = m.EquityIRR
	}
	if m, ok := o.Result.Portfolio(); ok {
		ev.PortfolioIRR = m.EquityIRR
		ev.MinDSCR = m.MinDSCR
		ev.Periods = len(m.CashFlows)
	}
	return ev
}

// Sensitivity runs a tornado sweep and the named scenarios of set.
func (s *Service) Sensitivity(ctx context.Context, p model.Portfolio, opts finance.Options, set sensitivity.Set) (SensitivityOutcome, error) {
	start := time.Now()
	if err := validate.Check(p); err != nil {
		return SensitivityOutcome{}, err
	}
	res, err := s.analyzer.Run(ctx, p, opts, set)
	if err != nil {
		report(err, p, opts)
		return SensitivityOutcome{}, err
	}
	out := SensitivityOutcome{RunID: uuid.NewString(), PortfolioID: portfolioID(p), Result: res}
	s.sensBus.Publish(events.SensitivityEvent{
		RunID:       out.RunID,
		PortfolioID: out.PortfolioID,
		Drivers:     len(res.Bars),
		Runs:        res.Runs,
		CacheHits:   res.CacheHits,
		Duration:    time.Since(start),
		BaseIRR:     res.Base,
		Time:        start.UTC(),
	})
	return out, nil
}

// Latest returns the most recent stored run of a portfolio.
func (s *Service) Latest(ctx context.Context, portfolioID string) (store.Run, error) {
	if s.store == nil {
		return store.Run{}, ErrNoStore
	}
	return s.store.Latest(ctx, portfolioID)
}

// Summaries rolls the cash flows of m up by calendar year, quarter and fiscal year.
func (s *Service) Summaries(m model.ProjectMetrics) (map[summary.Basis][]summary.Row, error) {
	return summary.All(m.CashFlows, s.FiscalStart())
}

// CacheStats returns the memo hit and miss counters.
func (s *Service) CacheStats() memo.Stats { return s.cache.Stats() }

// Start launches the metrics collector and, when configured, the Prometheus
// exporter. Both stop with ctx.
func (s *Service) Start(ctx context.Context) {
	metrics.StartEventCollector(ctx, metrics.Buses{Calculations: s.calcBus, Sensitivity: s.sensBus}, s.sink, logger.New("metrics"))
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	coremon.Flush(2 * time.Second)
	s.calcBus.Close()
	s.sensBus.Close()
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
