package finance

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/assetfin/core/irr"
	"github.com/kilianp07/assetfin/core/logger"
	"github.com/kilianp07/assetfin/core/model"
	"github.com/kilianp07/assetfin/core/pricing"
	"github.com/kilianp07/assetfin/core/revenue"
	"github.com/kilianp07/assetfin/core/validate"
)

var (
	// ErrNoAssets is returned for an empty portfolio.
	ErrNoAssets = errors.New("portfolio has no assets")
	// ErrContractOverlap is returned under OverlapReject.
	ErrContractOverlap = errors.New("contracted share above 100%")
)

// Result holds the metrics of one run keyed by asset name, plus
// model.PortfolioKey when the portfolio has two or more assets.
type Result struct {
	Metrics  map[string]model.ProjectMetrics `json:"metrics"`
	Warnings []model.Warning                 `json:"warnings"`
}

// Portfolio returns the aggregate entry, or the only asset's metrics.
func (r Result) Portfolio() (model.ProjectMetrics, bool) {
	if m, ok := r.Metrics[model.PortfolioKey]; ok {
		return m, true
	}
	if len(r.Metrics) == 1 {
		for _, m := range r.Metrics {
			return m, true
		}
	}
	return model.ProjectMetrics{}, false
}

// Engine is the project finance engine. It is stateless between calls.
type Engine struct {
	prices revenue.PriceSource
	log    logger.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) EngineOption { return func(e *Engine) { e.log = logger.OrNop(l) } }

// NewEngine returns an engine pricing merchant volumes with prices.
func NewEngine(prices revenue.PriceSource, opts ...EngineOption) *Engine {
	e := &Engine{prices: prices, log: logger.Nop{}}
	for _, o := range opts {
		o(e)
	}
	if e.prices == nil {
		e.prices = pricing.Flat{Energy: pricing.DefaultFallback}
	}
	return e
}

// Prices returns the merchant price source.
func (e *Engine) Prices() revenue.PriceSource { return e.prices }

// WithPrices returns a copy of the engine using another price source.
func (e *Engine) WithPrices(prices revenue.PriceSource) *Engine {
	c := *e
	c.prices = prices
	return &c
}

// CalculateProjectMetrics runs every asset of p and, for two or more assets,
// the index-aligned portfolio aggregate.
func (e *Engine) CalculateProjectMetrics(p model.Portfolio, opts Options) (Result, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	assets := p.AssetList()
	if len(assets) == 0 {
		return Result{}, ErrNoAssets
	}
	costs, warns, err := ResolveCosts(p)
	if err != nil {
		return Result{}, err
	}
	byAsset := make(map[string][]model.Warning)
	for _, w := range warns {
		byAsset[w.Asset] = append(byAsset[w.Asset], w)
	}

	res := Result{Metrics: make(map[string]model.ProjectMetrics, len(assets)+1)}
	ordered := make([]model.ProjectMetrics, 0, len(assets))
	for _, a := range assets {
		pre := byAsset[a.Name]
		for _, o := range validate.Overlaps(a) {
			if opts.OverlapPolicy == OverlapReject {
				return Result{}, fmt.Errorf("asset %s: %w (%.1f%% from %s)", a.Name, ErrContractOverlap, o.Total, o.Start.Format("2006-01"))
			}
			pre = append(pre, model.NewWarning(model.WarnContractOverlap, a.Name,
				"active contracts cover %.1f%% of output from %s to %s", o.Total, o.Start.Format("2006-01"), o.End.Format("2006-01")))
		}
		m, err := e.CalculateAsset(a, costs[a.Name], opts)
		if err != nil {
			return Result{}, err
		}
		m.Warnings = append(pre, m.Warnings...)
		res.Metrics[a.Name] = m
		res.Warnings = append(res.Warnings, m.Warnings...)
		ordered = append(ordered, m)
	}
	if len(ordered) >= 2 {
		res.Metrics[model.PortfolioKey] = Aggregate(ordered)
	}
	return res, nil
}

// CalculateAsset builds the full cash-flow schedule of one asset.
func (e *Engine) CalculateAsset(a model.Asset, c model.AssetCostAssumptions, opts Options) (model.ProjectMetrics, error) {
	opts = opts.withDefaults()
	if err := c.Validate(); err != nil {
		return model.ProjectMetrics{}, fmt.Errorf("asset %s costs: %w", a.Name, err)
	}
	if a.LifeYears <= 0 {
		return model.ProjectMetrics{}, fmt.Errorf("asset %s: asset life must be > 0", a.Name)
	}
	constructionMonths := c.ConstructionDuration
	if constructionMonths <= 0 {
		constructionMonths = a.ConstructionMonths
	}
	start, err := operatingStart(a, constructionMonths)
	if err != nil {
		return model.ProjectMetrics{}, err
	}
	a.OperatingStart = model.Date{Time: start}
	tl := buildTimeline(a, start, constructionMonths, opts)

	var warns []model.Warning
	for i, k := range a.Contracts {
		if !k.Type.AppliesTo(a.Type) {
			warns = append(warns, model.NewWarning(model.WarnContractIgnored, a.Name,
				"contract %d (%s) earns nothing on %s", i+1, k.Type, a.Type))
		}
	}
	if a.Type != model.TechStorage {
		if _, defaulted := revenue.CapacityFactor(a, 1); defaulted {
			warns = append(warns, model.NewWarning(model.WarnMissingFactors, a.Name,
				"no capacity factors, using %.0f%% regional default", revenue.DefaultCapacityFactor(a.Type, a.Region)))
		}
	}

	rev := revenue.NewEngine(e.prices, revenue.WithCase(opts.RevenueCase, opts.StressOrDefault()), revenue.WithLogger(e.log))
	ops := tl.periods[tl.construction:]
	rows := make([]model.CashFlowPeriod, len(tl.periods))
	in := debtInput{
		cfads:   make([]float64, len(ops)),
		targets: make([]float64, len(ops)),
		rate:    c.InterestRate / float64(tl.ppy),
		tenor:   c.TenorYears * tl.ppy,
	}
	if in.tenor > len(ops) {
		warns = append(warns, model.NewWarning(model.WarnTenorTruncated, a.Name,
			"tenor of %d years exceeds the %d operating periods modelled, repaying over the horizon", c.TenorYears, len(ops)))
		in.tenor = len(ops)
	}
	for j, p := range ops {
		b := rev.Calculate(a, p)
		opex := c.OperatingCosts / float64(tl.ppy) * math.Pow(1+c.OperatingCostEscalation/100, float64(j/tl.ppy))
		cfads := b.Total() - opex
		rows[tl.construction+j] = model.CashFlowPeriod{
			Generation:        b.Generation,
			Revenue:           b.Total(),
			ContractedRevenue: b.Contracted(),
			MerchantRevenue:   b.Merchant(),
			Opex:              opex,
			OperatingCashFlow: cfads,
		}
		in.cfads[j] = cfads
		in.targets[j] = blendedTarget(b.Contracted(), b.Total(), c.TargetDSCRContract, c.TargetDSCRMerchant)
	}

	gearing := c.MaxGearing
	var sched debtSchedule
	if opts.SolveGearing {
		gearing, sched = solveGearing(c.CAPEX, c.MaxGearing, in, opts.Repayment)
		if gearing == 0 && c.MaxGearing > 0 && c.CAPEX > 0 {
			warns = append(warns, model.NewWarning(model.WarnDSCRUnreachable, a.Name,
				"DSCR target cannot be met at any gearing, gearing set to 0"))
		}
	} else {
		sched = scheduleDebt(c.CAPEX*gearing, in, opts.Repayment)
		if !sched.feasible() || sched.annuityFallback {
			warns = append(warns, model.NewWarning(model.WarnDSCRBelowTarget, a.Name,
				"gearing %.1f%% breaches the DSCR target (worst period at %.0f%% of target)", gearing*100, ratioPct(sched.minRatio)))
		}
	}
	if out := sched.outstanding(); out > balanceEpsilon*math.Max(1, sched.amount) {
		warns = append(warns, model.NewWarning(model.WarnDebtNotRepaid, a.Name, "%.3f $M outstanding at end of horizon", out))
	}

	equity, debt := fund(c.CAPEX, gearing, tl.construction, c.EquityTimingUpfront, opts.FundingType)
	flows := make([]float64, len(rows))
	for i, p := range tl.periods {
		r := &rows[i]
		r.Index = i
		r.Label = p.Label()
		r.Start = p.Start
		r.Construction = p.Construction
		if p.Construction {
			r.EquityInvestment = equity[i]
			r.DebtDrawdown = debt[i]
			r.EquityCashFlow = -equity[i]
		} else {
			j := i - tl.construction
			r.Interest = sched.interest[j]
			r.Principal = sched.principal[j]
			r.DebtService = sched.service[j]
			r.DebtBalance = sched.balance[j]
			r.DSCR = sched.dscr[j]
			r.EquityCashFlow = r.OperatingCashFlow - r.DebtService
		}
		flows[i] = r.EquityCashFlow
	}
	if opts.IncludeTerminalValue && len(ops) > 0 {
		last := &rows[len(rows)-1]
		last.TerminalValue = c.TerminalValue
		last.EquityCashFlow += c.TerminalValue
		flows[len(flows)-1] = last.EquityCashFlow
	}

	m := model.ProjectMetrics{
		Name:                a.Name,
		CAPEX:               c.CAPEX,
		Gearing:             gearing,
		DebtAmount:          c.CAPEX * gearing,
		MinDSCR:             sched.minDSCR,
		TerminalValue:       c.TerminalValue,
		CashFlows:           rows,
		EquityCashFlows:     flows,
		EquityTimingUpfront: c.EquityTimingUpfront,
		PeriodsPerYear:      tl.ppy,
		EquityIRR:           irr.Calculate(flows).Annualize(tl.ppy),
		Warnings:            warns,
	}
	if in.tenor > 0 {
		m.AnnualDebtService = sched.totalService() / (float64(in.tenor) / float64(tl.ppy))
	}
	e.log.Debugw("asset calculated", map[string]any{
		"asset":        a.Name,
		"periods":      len(rows),
		"construction": tl.construction,
		"gearing":      gearing,
		"irr":          m.EquityIRR.String(),
	})
	return m, nil
}

func ratioPct(r float64) float64 {
	if math.IsInf(r, 0) {
		return 0
	}
	return r * 100
}

// PeriodStarts returns the start of every period, for dated IRR.
func PeriodStarts(m model.ProjectMetrics) []time.Time {
	out := make([]time.Time, len(m.CashFlows))
	for i, r := range m.CashFlows {
		out[i] = r.Start
	}
	return out
}
