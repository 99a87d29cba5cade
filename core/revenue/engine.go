package revenue

import (
	"math"
	"time"

	"github.com/kilianp07/assetfin/core/logger"
	"github.com/kilianp07/assetfin/core/model"
	"github.com/kilianp07/assetfin/core/pricing"
)

const (
	HoursPerYear  = 8760.0
	DaysPerMonth  = 30.4375
	HoursPerMonth = DaysPerMonth * 24
	mega          = 1_000_000.0
)

// PriceSource supplies merchant prices.
type PriceSource interface {
	MerchantPrice(q pricing.Query) float64
}

// Engine evaluates asset revenue against contracts and merchant prices.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	prices PriceSource
	rcase  Case
	stress Stress
	log    logger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithCase applies a stress scenario to every breakdown.
func WithCase(c Case, s Stress) Option {
	return func(e *Engine) {
		e.rcase = c
		e.stress = s
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option { return func(e *Engine) { e.log = logger.OrNop(l) } }

// NewEngine returns an Engine using prices for merchant volumes.
func NewEngine(prices PriceSource, opts ...Option) *Engine {
	e := &Engine{prices: prices, rcase: CaseBase, stress: DefaultStress, log: logger.Nop{}}
	for _, o := range opts {
		o(e)
	}
	if e.prices == nil {
		e.prices = pricing.Flat{Energy: pricing.DefaultFallback}
	}
	return e
}

// Case reports the configured scenario.
func (e *Engine) Case() Case { return e.rcase }

// Calculate returns the revenue of a over p. Multi-month periods are the sum
// of their monthly sub-periods; contracted percentages are averaged.
func (e *Engine) Calculate(a model.Asset, p model.Period) Breakdown {
	subs := p.SubPeriods()
	var total Breakdown
	for _, sp := range subs {
		total = total.add(e.month(a, sp.Start))
	}
	if n := float64(len(subs)); n > 1 {
		total.GreenPercentage /= n
		total.EnergyPercentage /= n
	}
	return total
}

func (e *Engine) month(a model.Asset, t time.Time) Breakdown {
	if !a.Operating(t) {
		return Breakdown{}
	}
	var b Breakdown
	if a.Type == model.TechStorage {
		b = e.storage(a, t)
	} else {
		b = e.renewable(a, t)
	}
	return e.stress.Apply(e.rcase, b)
}

// DegradationFactor is (1-d)^(months since operating start / 12).
func DegradationFactor(a model.Asset, t time.Time) float64 {
	years := float64(model.MonthsBetween(a.OperatingStart.Time, t)) / 12
	return math.Pow(1-a.AnnualDegradation/100, math.Max(0, years))
}

// escalate applies contract indexation relative to the reference year.
func escalate(c model.Contract, t time.Time) float64 {
	return math.Pow(1+c.Indexation/100, float64(t.Year()-c.ReferenceYear()))
}

func (e *Engine) renewable(a model.Asset, t time.Time) Breakdown {
	quarter := (int(t.Month())-1)/3 + 1
	cf, _ := CapacityFactor(a, quarter)
	deg := DegradationFactor(a, t)
	gen := a.CapacityMW * cf / 100 * (1 - a.VolumeLossAdjustment/100) * HoursPerYear / 12 * deg

	b := Breakdown{Generation: gen}
	for _, c := range a.Contracts {
		if !c.Active(t) {
			continue
		}
		if !c.Type.AppliesTo(a.Type) {
			e.log.Debugf("asset %s: %s contract ignored for %s", a.Name, c.Type, a.Type)
			continue
		}
		share := c.Share()
		idx := escalate(c, t)
		switch c.Type {
		case model.ContractFixed:
			b.ContractedEnergy += c.StrikePrice / 12 * idx * deg
			b.EnergyPercentage += c.BuyersPercentage
		case model.ContractBundled:
			green, energy := c.GreenPrice*idx, c.EnergyPrice*idx
			if green == 0 && energy == 0 {
				energy = c.StrikePrice * idx
			}
			if c.HasFloor && green+energy < c.FloorValue {
				green, energy = splitFloor(green, energy, c.FloorValue)
			}
			b.ContractedGreen += gen * share * green / mega
			b.ContractedEnergy += gen * share * energy / mega
			b.GreenPercentage += c.BuyersPercentage
			b.EnergyPercentage += c.BuyersPercentage
		case model.ContractGreen, model.ContractEnergy:
			price := floor(c, c.StrikePrice*idx)
			rev := gen * share * price / mega
			if c.Type == model.ContractGreen {
				b.ContractedGreen += rev
				b.GreenPercentage += c.BuyersPercentage
			} else {
				b.ContractedEnergy += rev
				b.EnergyPercentage += c.BuyersPercentage
			}
		}
	}

	q := pricing.Query{Technology: a.Type, Region: a.Region, Date: t}
	greenMerchant := math.Max(0, 100-b.GreenPercentage) / 100
	energyMerchant := math.Max(0, 100-b.EnergyPercentage) / 100
	if greenMerchant > 0 {
		q.Type = pricing.Green
		b.MerchantGreen = gen * greenMerchant * e.prices.MerchantPrice(q) / mega
	}
	if energyMerchant > 0 {
		q.Type = pricing.Energy
		b.MerchantEnergy = gen * energyMerchant * e.prices.MerchantPrice(q) / mega
	}
	return b
}

// StorageMonthlyVolume is the monthly throughput before contracts, in MWh.
func StorageMonthlyVolume(a model.Asset, t time.Time) float64 {
	base := a.VolumeMWh * DaysPerMonth
	if a.AnnualVolumeMWh > 0 {
		base = a.AnnualVolumeMWh / 12
	}
	return base * (1 - a.VolumeLossAdjustment/100) * DegradationFactor(a, t)
}

func (e *Engine) storage(a model.Asset, t time.Time) Breakdown {
	deg := DegradationFactor(a, t)
	vol := StorageMonthlyVolume(a, t)
	b := Breakdown{Generation: vol}
	for _, c := range a.Contracts {
		if !c.Active(t) {
			continue
		}
		share := c.Share()
		idx := escalate(c, t)
		switch c.Type {
		case model.ContractFixed:
			b.ContractedEnergy += c.StrikePrice / 12 * idx * deg
		case model.ContractTolling:
			rate := floor(c, c.StrikePrice*idx)
			b.ContractedEnergy += a.CapacityMW * HoursPerMonth * rate * deg * (1 - a.VolumeLossAdjustment/100) * share / mega
		default:
			spread := floor(c, c.StrikePrice*idx)
			b.ContractedEnergy += vol * spread * share / mega
		}
		b.EnergyPercentage += c.BuyersPercentage
	}
	if m := math.Max(0, 100-b.EnergyPercentage) / 100; m > 0 {
		spread := e.prices.MerchantPrice(pricing.Query{
			Technology: a.Type,
			Type:       pricing.Spread,
			Region:     a.Region,
			Duration:   a.DurationHours(),
			Date:       t,
		})
		b.MerchantEnergy = vol * spread * m / mega
	}
	return b
}

func floor(c model.Contract, price float64) float64 {
	if c.HasFloor && price < c.FloorValue {
		return c.FloorValue
	}
	return price
}

// splitFloor lifts a bundled price to the floor, keeping the green/energy ratio.
func splitFloor(green, energy, floorValue float64) (float64, float64) {
	total := green + energy
	if total > 0 {
		return green / total * floorValue, energy / total * floorValue
	}
	return floorValue / 2, floorValue / 2
}
