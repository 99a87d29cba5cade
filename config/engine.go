package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/assetfin/core/finance"
	"github.com/kilianp07/assetfin/core/model"
	"github.com/kilianp07/assetfin/core/revenue"
)

// EngineConfig holds the default run options.
type EngineConfig struct {
	Frequency   string `json:"frequency"`
	RevenueCase string `json:"revenue_case"`
	// SolveGearing and IncludeTerminalValue default to true when unset.
	SolveGearing         *bool  `json:"solve_gearing"`
	IncludeTerminalValue *bool  `json:"include_terminal_value"`
	FundingType          string `json:"funding_type"`
	Repayment            string `json:"repayment"`
	OverlapPolicy        string `json:"overlap_policy"`
	// Stress percentages default to 20 when unset; 0 disables that axis.
	VolumeStressPct      *float64 `json:"volume_stress_pct"`
	PriceStressPct       *float64 `json:"price_stress_pct"`
	FiscalYearStartMonth int      `json:"fiscal_year_start_month"`
	HorizonYears         int      `json:"horizon_years"`
}

// SetDefaults applies the engine defaults.
func (c *EngineConfig) SetDefaults() {
	d := finance.DefaultOptions()
	if c.Frequency == "" {
		c.Frequency = string(d.Frequency)
	}
	if c.RevenueCase == "" {
		c.RevenueCase = string(d.RevenueCase)
	}
	if c.SolveGearing == nil {
		v := d.SolveGearing
		c.SolveGearing = &v
	}
	if c.IncludeTerminalValue == nil {
		v := d.IncludeTerminalValue
		c.IncludeTerminalValue = &v
	}
	if c.FundingType == "" {
		c.FundingType = string(d.FundingType)
	}
	if c.Repayment == "" {
		c.Repayment = string(d.Repayment)
	}
	if c.OverlapPolicy == "" {
		c.OverlapPolicy = string(d.OverlapPolicy)
	}
	if c.VolumeStressPct == nil {
		v := d.Stress.VolumePct
		c.VolumeStressPct = &v
	}
	if c.PriceStressPct == nil {
		v := d.Stress.PricePct
		c.PriceStressPct = &v
	}
	if c.FiscalYearStartMonth == 0 {
		c.FiscalYearStartMonth = int(time.July)
	}
}

// Options converts the section into engine options.
func (c EngineConfig) Options() finance.Options {
	o := finance.Options{
		Frequency:     model.Frequency(c.Frequency),
		RevenueCase:   revenue.Case(c.RevenueCase),
		FundingType:   finance.FundingType(c.FundingType),
		Repayment:     finance.Repayment(c.Repayment),
		OverlapPolicy: finance.OverlapPolicy(c.OverlapPolicy),
		HorizonYears:  c.HorizonYears,
	}
	if c.SolveGearing != nil {
		o.SolveGearing = *c.SolveGearing
	}
	if c.IncludeTerminalValue != nil {
		o.IncludeTerminalValue = *c.IncludeTerminalValue
	}
	if c.VolumeStressPct != nil || c.PriceStressPct != nil {
		s := revenue.DefaultStress
		if c.VolumeStressPct != nil {
			s.VolumePct = *c.VolumeStressPct
		}
		if c.PriceStressPct != nil {
			s.PricePct = *c.PriceStressPct
		}
		o.Stress = &s
	}
	return o
}

// FiscalStart returns the fiscal year start month.
func (c EngineConfig) FiscalStart() time.Month { return time.Month(c.FiscalYearStartMonth) }

// Validate checks enumerations and ranges.
func (c EngineConfig) Validate() error {
	if c.FiscalYearStartMonth < 1 || c.FiscalYearStartMonth > 12 {
		return fmt.Errorf("fiscal_year_start_month must be within [1,12]")
	}
	return c.Options().Validate()
}
