package model

import (
	"fmt"
	"time"
)

// ContractType is the revenue arrangement kind.
type ContractType string

const (
	ContractBundled ContractType = "bundled"
	ContractGreen   ContractType = "green"
	ContractEnergy  ContractType = "energy"
	ContractFixed   ContractType = "fixed"
	ContractTolling ContractType = "tolling"
	ContractCfD     ContractType = "cfd"
)

// AppliesTo reports whether contracts of type t earn revenue on tech.
// Tolling and cfd are storage arrangements; every type applies to storage.
func (t ContractType) AppliesTo(tech Technology) bool {
	if tech == TechStorage {
		return true
	}
	return t != ContractTolling && t != ContractCfD
}

// Contract covers part of an asset's output over a date range.
type Contract struct {
	ID           string       `json:"id,omitempty" yaml:"id"`
	Counterparty string       `json:"counterparty,omitempty" yaml:"counterparty"`
	Type         ContractType `json:"type" yaml:"type"`
	// BuyersPercentage is the share of output covered, 0..100.
	BuyersPercentage float64 `json:"buyersPercentage" yaml:"buyersPercentage"`
	// StrikePrice is $/MWh ($/MW/hr for tolling, $M/yr for fixed). Zero means unset.
	StrikePrice float64 `json:"strikePrice" yaml:"strikePrice"`
	// GreenPrice and EnergyPrice split a bundled strike.
	GreenPrice  float64 `json:"greenPrice,omitempty" yaml:"greenPrice"`
	EnergyPrice float64 `json:"energyPrice,omitempty" yaml:"energyPrice"`

	Indexation              float64 `json:"indexation" yaml:"indexation"`
	IndexationReferenceYear int     `json:"indexationReferenceYear,omitempty" yaml:"indexationReferenceYear"`

	StartDate Date `json:"startDate" yaml:"startDate"`
	EndDate   Date `json:"endDate" yaml:"endDate"`

	HasFloor   bool    `json:"hasFloor,omitempty" yaml:"hasFloor"`
	FloorValue float64 `json:"floorValue,omitempty" yaml:"floorValue"`
}

// Active reports whether t lies within [StartDate, EndDate].
func (c Contract) Active(t time.Time) bool {
	return !t.Before(c.StartDate.Time) && !t.After(c.EndDate.Time)
}

// ReferenceYear is the base year for indexation, defaulting to the start year.
func (c Contract) ReferenceYear() int {
	if c.IndexationReferenceYear != 0 {
		return c.IndexationReferenceYear
	}
	return c.StartDate.Year()
}

// Share returns the buyer's percentage as a fraction.
func (c Contract) Share() float64 { return c.BuyersPercentage / 100 }

// Priced reports whether any price field is set.
func (c Contract) Priced() bool {
	return c.StrikePrice != 0 || c.GreenPrice != 0 || c.EnergyPrice != 0
}

// Validate checks the contract invariants.
func (c Contract) Validate() error {
	switch c.Type {
	case ContractBundled, ContractGreen, ContractEnergy, ContractFixed, ContractTolling, ContractCfD:
	default:
		return fmt.Errorf("unknown contract type %q", c.Type)
	}
	if c.BuyersPercentage < 0 || c.BuyersPercentage > 100 {
		return fmt.Errorf("buyers percentage %.2f out of [0,100]", c.BuyersPercentage)
	}
	if c.StrikePrice < 0 {
		return fmt.Errorf("strike price must be >= 0")
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return fmt.Errorf("start and end dates are required")
	}
	if c.StartDate.After(c.EndDate.Time) {
		return fmt.Errorf("start date %s after end date %s", c.StartDate, c.EndDate)
	}
	return nil
}
