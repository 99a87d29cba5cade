package sensitivity

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/assetfin/core/finance"
	"github.com/kilianp07/assetfin/core/logger"
	"github.com/kilianp07/assetfin/core/memo"
	"github.com/kilianp07/assetfin/core/model"
	"github.com/kilianp07/assetfin/core/revenue"
)

// Bar is one tornado bar. Deltas are in IRR percentage points against the
// base run and are only set when both IRRs converged.
type Bar struct {
	Driver    string          `json:"driver"`
	Kind      Kind            `json:"kind"`
	Low       float64         `json:"low"`
	High      float64         `json:"high"`
	LowIRR    model.IRRResult `json:"lowIRR"`
	HighIRR   model.IRRResult `json:"highIRR"`
	LowDelta  *float64        `json:"lowDelta"`
	HighDelta *float64        `json:"highDelta"`
	// Spread is |HighDelta - LowDelta|, or -1 when either side is undefined.
	Spread float64 `json:"spread"`
}

// ScenarioResult is the outcome of one named revenue scenario.
type ScenarioResult struct {
	Name      string          `json:"name"`
	Case      revenue.Case    `json:"case"`
	EquityIRR model.IRRResult `json:"equityIRR"`
	MinDSCR   *float64        `json:"minDSCR"`
	Gearing   float64         `json:"gearing"`
	Warnings  int             `json:"warnings"`
}

// Result is a complete tornado analysis.
type Result struct {
	Base       model.IRRResult  `json:"base"`
	Bars       []Bar            `json:"bars"`
	Scenarios  []ScenarioResult `json:"scenarios,omitempty"`
	MeanSpread float64          `json:"meanSpread"`
	StdSpread  float64          `json:"stdSpread"`
	Runs       int              `json:"runs"`
	CacheHits  int              `json:"cacheHits"`
}

// Analyzer sweeps drivers over a finance engine.
type Analyzer struct {
	engine      *finance.Engine
	cache       *memo.Cache[finance.Result]
	log         logger.Logger
	concurrency int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithCache memoizes engine runs.
func WithCache(c *memo.Cache[finance.Result]) Option { return func(a *Analyzer) { a.cache = c } }

// WithLogger sets the analyzer logger.
func WithLogger(l logger.Logger) Option { return func(a *Analyzer) { a.log = logger.OrNop(l) } }

// WithConcurrency bounds the number of engine runs in flight. Values below 1
// use GOMAXPROCS.
func WithConcurrency(n int) Option { return func(a *Analyzer) { a.concurrency = n } }

// NewAnalyzer creates an analyzer over engine.
func NewAnalyzer(engine *finance.Engine, opts ...Option) *Analyzer {
	a := &Analyzer{engine: engine, log: logger.Nop{}}
	for _, o := range opts {
		o(a)
	}
	if a.concurrency < 1 {
		a.concurrency = runtime.GOMAXPROCS(0)
	}
	return a
}

type counters struct {
	runs atomic.Int64
	hits atomic.Int64
}

func (a *Analyzer) calculate(ctx context.Context, eng *finance.Engine, p model.Portfolio, opts finance.Options, c *counters) (finance.Result, error) {
	c.runs.Add(1)
	if a.cache == nil {
		return eng.CalculateProjectMetrics(p, opts)
	}
	key, err := memo.RunKey(p, opts, eng.Prices())
	if err != nil {
		a.log.Warnf("sensitivity: uncacheable run: %v", err)
		return eng.CalculateProjectMetrics(p, opts)
	}
	res, hit, err := a.cache.Do(ctx, key, func() (finance.Result, error) {
		return eng.CalculateProjectMetrics(p, opts)
	})
	if hit {
		c.hits.Add(1)
	}
	return res, err
}

func portfolioIRR(r finance.Result) model.IRRResult {
	m, ok := r.Portfolio()
	if !ok {
		return model.IRRResult{Status: model.IRRNoRoot}
	}
	return m.EquityIRR
}

// Tornado runs the base case and each driver at its low and high values,
// concurrently, and returns the bars sorted by descending spread.
func (a *Analyzer) Tornado(ctx context.Context, p model.Portfolio, opts finance.Options, drivers []Driver) (Result, error) {
	if len(drivers) == 0 {
		drivers = DefaultDrivers()
	}
	for _, d := range drivers {
		if err := d.Validate(); err != nil {
			return Result{}, err
		}
	}
	costs, _, err := finance.ResolveCosts(p)
	if err != nil {
		return Result{}, err
	}
	var c counters
	base, err := a.calculate(ctx, a.engine, p, opts, &c)
	if err != nil {
		return Result{}, fmt.Errorf("base run: %w", err)
	}
	out := Result{Base: portfolioIRR(base), Bars: make([]Bar, len(drivers))}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, d := range drivers {
		out.Bars[i] = Bar{Driver: d.label(), Kind: d.Kind, Low: d.Low, High: d.High}
		for _, side := range []bool{false, true} {
			i, d, high := i, d, side
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				pct := d.Low
				if high {
					pct = d.High
				}
				pp, prices := perturb(p, costs, a.engine.Prices(), d.Kind, pct)
				res, err := a.calculate(gctx, a.engine.WithPrices(prices), pp, opts, &c)
				if err != nil {
					return fmt.Errorf("driver %s at %+g%%: %w", d.label(), pct, err)
				}
				if high {
					out.Bars[i].HighIRR = portfolioIRR(res)
				} else {
					out.Bars[i].LowIRR = portfolioIRR(res)
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var spreads []float64
	for i := range out.Bars {
		b := &out.Bars[i]
		b.Spread = -1
		baseRate, ok := out.Base.Value()
		if !ok {
			continue
		}
		lo, lok := b.LowIRR.Value()
		hi, hok := b.HighIRR.Value()
		if lok {
			d := (lo - baseRate) * 100
			b.LowDelta = &d
		}
		if hok {
			d := (hi - baseRate) * 100
			b.HighDelta = &d
		}
		if lok && hok {
			b.Spread = math.Abs(*b.HighDelta - *b.LowDelta)
			spreads = append(spreads, b.Spread)
		}
	}
	sort.SliceStable(out.Bars, func(i, j int) bool { return out.Bars[i].Spread > out.Bars[j].Spread })
	if len(spreads) > 0 {
		out.MeanSpread, out.StdSpread = stat.MeanStdDev(spreads, nil)
		if math.IsNaN(out.StdSpread) {
			out.StdSpread = 0
		}
	}
	out.Runs = int(c.runs.Load())
	out.CacheHits = int(c.hits.Load())
	a.log.Debugw("tornado complete", map[string]any{
		"drivers":    len(drivers),
		"runs":       out.Runs,
		"cache_hits": out.CacheHits,
		"base":       out.Base.String(),
	})
	return out, nil
}

// Scenarios runs each named revenue scenario concurrently, in input order.
func (a *Analyzer) Scenarios(ctx context.Context, p model.Portfolio, opts finance.Options, scenarios []Scenario) ([]ScenarioResult, error) {
	if len(scenarios) == 0 {
		scenarios = DefaultScenarios()
	}
	out := make([]ScenarioResult, len(scenarios))
	var c counters
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, s := range scenarios {
		rc, err := revenue.ParseCase(string(s.Case))
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
		}
		so := opts
		so.RevenueCase = rc
		if s.Stress != nil {
			st := *s.Stress
			so.Stress = &st
		}
		i, name := i, s.Name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := a.calculate(gctx, a.engine, p, so, &c)
			if err != nil {
				return fmt.Errorf("scenario %q: %w", name, err)
			}
			sr := ScenarioResult{Name: name, Case: rc, Warnings: len(res.Warnings)}
			if m, ok := res.Portfolio(); ok {
				sr.EquityIRR = m.EquityIRR
				sr.MinDSCR = m.MinDSCR
				sr.Gearing = m.Gearing
			}
			out[i] = sr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Run performs the tornado sweep and the scenario runs.
func (a *Analyzer) Run(ctx context.Context, p model.Portfolio, opts finance.Options, set Set) (Result, error) {
	res, err := a.Tornado(ctx, p, opts, set.Drivers)
	if err != nil {
		return Result{}, err
	}
	sc, err := a.Scenarios(ctx, p, opts, set.Scenarios)
	if err != nil {
		return Result{}, err
	}
	res.Scenarios = sc
	res.Runs += len(sc)
	return res, nil
}
