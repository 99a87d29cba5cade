package finance

import (
	"fmt"

	"github.com/kilianp07/assetfin/core/model"
	"github.com/kilianp07/assetfin/core/revenue"
)

// FundingType controls how pro-rata construction spend is split.
type FundingType string

const (
	PariPassu   FundingType = "pari_passu"
	EquityFirst FundingType = "equity_first"
)

// Repayment selects the debt repayment profile.
type Repayment string

const (
	Sculpted Repayment = "sculpted"
	Annuity  Repayment = "annuity"
)

// OverlapPolicy decides what happens when active contracts cover more than 100%.
type OverlapPolicy string

const (
	// OverlapAllow keeps the additive behaviour and reports a warning.
	OverlapAllow OverlapPolicy = "allow"
	// OverlapReject fails the calculation.
	OverlapReject OverlapPolicy = "reject"
)

// Options parameterises one engine run.
type Options struct {
	Frequency   model.Frequency `json:"frequency" yaml:"frequency"`
	RevenueCase revenue.Case    `json:"revenue_case" yaml:"revenue_case"`
	// Stress overrides the case haircuts; nil means DefaultStress. An explicit
	// zero is kept.
	Stress               *revenue.Stress `json:"stress,omitempty" yaml:"stress,omitempty"`
	SolveGearing         bool            `json:"solve_gearing" yaml:"solve_gearing"`
	IncludeTerminalValue bool            `json:"include_terminal_value" yaml:"include_terminal_value"`
	FundingType          FundingType     `json:"funding_type" yaml:"funding_type"`
	Repayment            Repayment       `json:"repayment" yaml:"repayment"`
	OverlapPolicy        OverlapPolicy   `json:"overlap_policy" yaml:"overlap_policy"`
	// HorizonYears caps the operating phase when positive and shorter than the asset life.
	HorizonYears int `json:"horizon_years" yaml:"horizon_years"`
}

// DefaultOptions is an annual, base-case run with solved gearing and terminal value.
func DefaultOptions() Options {
	return Options{
		Frequency:            model.Annual,
		RevenueCase:          revenue.CaseBase,
		Stress:               defaultStress(),
		SolveGearing:         true,
		IncludeTerminalValue: true,
		FundingType:          PariPassu,
		Repayment:            Sculpted,
		OverlapPolicy:        OverlapAllow,
	}
}

func defaultStress() *revenue.Stress {
	s := revenue.DefaultStress
	return &s
}

// StressOrDefault returns the configured stress, or DefaultStress when unset.
func (o Options) StressOrDefault() revenue.Stress {
	if o.Stress == nil {
		return revenue.DefaultStress
	}
	return *o.Stress
}

// withDefaults fills zero values.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Frequency == "" {
		o.Frequency = d.Frequency
	}
	if o.RevenueCase == "" {
		o.RevenueCase = d.RevenueCase
	}
	if o.Stress == nil {
		o.Stress = d.Stress
	}
	if o.FundingType == "" {
		o.FundingType = d.FundingType
	}
	if o.Repayment == "" {
		o.Repayment = d.Repayment
	}
	if o.OverlapPolicy == "" {
		o.OverlapPolicy = d.OverlapPolicy
	}
	return o
}

// Validate checks enumerated fields.
func (o Options) Validate() error {
	o = o.withDefaults()
	if !o.Frequency.Valid() {
		return fmt.Errorf("invalid frequency %q", o.Frequency)
	}
	if _, err := revenue.ParseCase(string(o.RevenueCase)); err != nil {
		return err
	}
	switch o.FundingType {
	case PariPassu, EquityFirst:
	default:
		return fmt.Errorf("invalid funding type %q", o.FundingType)
	}
	switch o.Repayment {
	case Sculpted, Annuity:
	default:
		return fmt.Errorf("invalid repayment %q", o.Repayment)
	}
	switch o.OverlapPolicy {
	case OverlapAllow, OverlapReject:
	default:
		return fmt.Errorf("invalid overlap policy %q", o.OverlapPolicy)
	}
	if o.HorizonYears < 0 {
		return fmt.Errorf("horizon years must be >= 0")
	}
	if s := o.StressOrDefault(); s.VolumePct < 0 || s.VolumePct > 100 || s.PricePct < 0 || s.PricePct > 100 {
		return fmt.Errorf("stress percentages must be within [0,100]")
	}
	return nil
}
