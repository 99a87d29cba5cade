// Package sensitivity runs tornado analyses and named revenue scenarios on
// top of the project finance engine.
package sensitivity

import (
	"fmt"

	"github.com/kilianp07/assetfin/core/model"
	"github.com/kilianp07/assetfin/core/pricing"
	"github.com/kilianp07/assetfin/core/revenue"
)

// Kind names the input a driver perturbs.
type Kind string

const (
	KindCAPEX         Kind = "capex"
	KindOPEX          Kind = "opex"
	KindVolume        Kind = "volume"
	KindMerchantPrice Kind = "merchant_price"
	KindInterestRate  Kind = "interest_rate"
	KindTerminalValue Kind = "terminal_value"
)

// Driver moves one input by Low and High percent of its base value.
type Driver struct {
	Name string  `json:"name" yaml:"name"`
	Kind Kind    `json:"kind" yaml:"kind"`
	Low  float64 `json:"low" yaml:"low"`
	High float64 `json:"high" yaml:"high"`
}

// DefaultDrivers moves every supported input by ±10%.
func DefaultDrivers() []Driver {
	return []Driver{
		{Name: "CAPEX", Kind: KindCAPEX, Low: -10, High: 10},
		{Name: "OPEX", Kind: KindOPEX, Low: -10, High: 10},
		{Name: "Volume", Kind: KindVolume, Low: -10, High: 10},
		{Name: "Merchant price", Kind: KindMerchantPrice, Low: -10, High: 10},
		{Name: "Interest rate", Kind: KindInterestRate, Low: -10, High: 10},
		{Name: "Terminal value", Kind: KindTerminalValue, Low: -10, High: 10},
	}
}

// Validate checks the kind and that the perturbations keep values non-negative.
func (d Driver) Validate() error {
	switch d.Kind {
	case KindCAPEX, KindOPEX, KindVolume, KindMerchantPrice, KindInterestRate, KindTerminalValue:
	default:
		return fmt.Errorf("driver %q: unknown kind %q", d.Name, d.Kind)
	}
	if d.Low < -100 || d.High < -100 {
		return fmt.Errorf("driver %q: change below -100%%", d.Name)
	}
	return nil
}

func (d Driver) label() string {
	if d.Name != "" {
		return d.Name
	}
	return string(d.Kind)
}

// Scenario is a named revenue case run. A nil Stress keeps the run's stress.
type Scenario struct {
	Name   string          `json:"name" yaml:"name"`
	Case   revenue.Case    `json:"case" yaml:"case"`
	Stress *revenue.Stress `json:"stress,omitempty" yaml:"stress,omitempty"`
}

// DefaultScenarios covers the four revenue cases.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{Name: "Base", Case: revenue.CaseBase},
		{Name: "Worst", Case: revenue.CaseWorst},
		{Name: "Volume stress", Case: revenue.CaseVolume},
		{Name: "Price stress", Case: revenue.CasePrice},
	}
}

// perturb returns copies of p and prices with kind moved by pct percent.
// costs must hold resolved assumptions for every asset.
func perturb(p model.Portfolio, costs map[string]model.AssetCostAssumptions, prices revenue.PriceSource, kind Kind, pct float64) (model.Portfolio, revenue.PriceSource) {
	f := 1 + pct/100
	out := p
	out.Constants.AssetCosts = make(map[string]model.AssetCostAssumptions, len(costs))
	for name, c := range costs {
		switch kind {
		case KindCAPEX:
			c.CAPEX *= f
		case KindOPEX:
			c.OperatingCosts *= f
		case KindInterestRate:
			c.InterestRate *= f
		case KindTerminalValue:
			c.TerminalValue *= f
		}
		out.Constants.AssetCosts[name] = c
	}
	switch kind {
	case KindVolume:
		out.Assets = make(map[string]model.Asset, len(p.Assets))
		for k, a := range p.Assets {
			a.CapacityMW *= f
			a.VolumeMWh *= f
			a.AnnualVolumeMWh *= f
			out.Assets[k] = a
		}
	case KindMerchantPrice:
		prices = pricing.Scaled{Source: prices, Factor: f}
	}
	return out, prices
}
