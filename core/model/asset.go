package model

import (
	"fmt"
	"time"
)

// Technology identifies the kind of generation or storage asset.
type Technology string

const (
	TechSolar   Technology = "solar"
	TechWind    Technology = "wind"
	TechStorage Technology = "storage"
)

// Valid reports whether t is a supported technology.
func (t Technology) Valid() bool {
	switch t {
	case TechSolar, TechWind, TechStorage:
		return true
	}
	return false
}

// Asset is one physical generation or storage unit.
type Asset struct {
	ID     string     `json:"id,omitempty" yaml:"id"`
	Name   string     `json:"name" yaml:"name"`
	Type   Technology `json:"type" yaml:"type"`
	Region string     `json:"state" yaml:"state"`

	CapacityMW float64 `json:"capacity" yaml:"capacity"`
	// VolumeMWh is the storage energy volume (one full cycle).
	VolumeMWh float64 `json:"volume,omitempty" yaml:"volume"`
	// AnnualVolumeMWh overrides the derived storage throughput when set.
	AnnualVolumeMWh float64 `json:"annualVolume,omitempty" yaml:"annualVolume"`

	// QuarterlyCapacityFactors are percentages for Q1..Q4.
	QuarterlyCapacityFactors []float64 `json:"qtrCapacityFactors,omitempty" yaml:"qtrCapacityFactors"`
	// CapacityFactor is a flat percentage used when quarterly factors are absent.
	CapacityFactor float64 `json:"capacityFactor,omitempty" yaml:"capacityFactor"`

	AnnualDegradation    float64 `json:"annualDegradation" yaml:"annualDegradation"`
	VolumeLossAdjustment float64 `json:"volumeLossAdjustment" yaml:"volumeLossAdjustment"`

	OperatingStart     Date `json:"assetStartDate" yaml:"assetStartDate"`
	ConstructionStart  Date `json:"constructionStartDate" yaml:"constructionStartDate"`
	ConstructionMonths int  `json:"constructionDuration" yaml:"constructionDuration"`
	LifeYears          int  `json:"assetLife" yaml:"assetLife"`

	Contracts []Contract `json:"contracts" yaml:"contracts"`
}

// DurationHours returns the storage duration (volume / capacity), zero for other assets.
func (a Asset) DurationHours() float64 {
	if a.Type != TechStorage || a.CapacityMW <= 0 {
		return 0
	}
	return a.VolumeMWh / a.CapacityMW
}

// OperatingEnd is the first instant after the asset's operating life.
// Life is counted from the start month.
func (a Asset) OperatingEnd() time.Time {
	return MonthStart(a.OperatingStart.Time).AddDate(a.LifeYears, 0, 0)
}

// Operating reports whether the asset produces at t. The month holding
// OperatingStart counts as a full operating month.
func (a Asset) Operating(t time.Time) bool {
	if a.OperatingStart.IsZero() {
		return false
	}
	return !t.Before(MonthStart(a.OperatingStart.Time)) && t.Before(a.OperatingEnd())
}

// Validate checks the structural invariants of the asset.
func (a Asset) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("asset name is required")
	}
	if !a.Type.Valid() {
		return fmt.Errorf("asset %s: unknown type %q", a.Name, a.Type)
	}
	if a.CapacityMW < 0 {
		return fmt.Errorf("asset %s: capacity must be >= 0", a.Name)
	}
	if a.LifeYears <= 0 {
		return fmt.Errorf("asset %s: asset life must be > 0", a.Name)
	}
	if a.VolumeLossAdjustment < 0 || a.VolumeLossAdjustment > 100 {
		return fmt.Errorf("asset %s: volume loss adjustment out of [0,100]", a.Name)
	}
	for i, cf := range a.QuarterlyCapacityFactors {
		if cf < 0 || cf > 100 {
			return fmt.Errorf("asset %s: Q%d capacity factor out of [0,100]", a.Name, i+1)
		}
	}
	for i, c := range a.Contracts {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("asset %s contract %d: %w", a.Name, i+1, err)
		}
	}
	return nil
}
