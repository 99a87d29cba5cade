// Package validate checks portfolios before they reach the engines.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kilianp07/assetfin/core/model"
)

// ErrInvalidPortfolio wraps every validation failure returned by Check.
var ErrInvalidPortfolio = errors.New("invalid portfolio")

// Report lists the problems found in a portfolio.
type Report struct {
	Errors        []string        `json:"errors"`
	Warnings      []model.Warning `json:"warnings"`
	AssetCount    int             `json:"assetCount"`
	ContractCount int             `json:"contractCount"`
}

// Valid reports whether no errors were found.
func (r Report) Valid() bool { return len(r.Errors) == 0 }

// Err returns nil for a valid report, else an error wrapping ErrInvalidPortfolio.
func (r Report) Err() error {
	if r.Valid() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidPortfolio, strings.Join(r.Errors, "; "))
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Portfolio validates every asset, contract and supplied cost assumption.
func Portfolio(p model.Portfolio) Report {
	var r Report
	assets := p.AssetList()
	r.AssetCount = len(assets)
	if len(assets) == 0 {
		r.errorf("portfolio has no assets")
	}
	for _, a := range assets {
		asset(&r, a)
		if c, ok := p.Constants.AssetCosts[a.Name]; ok {
			if err := c.Validate(); err != nil {
				r.errorf("asset %s costs: %v", label(a), err)
			}
		}
	}
	return r
}

// Check returns Portfolio(p).Err().
func Check(p model.Portfolio) error { return Portfolio(p).Err() }

func label(a model.Asset) string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

func asset(r *Report, a model.Asset) {
	name := label(a)
	if a.Name == "" {
		r.errorf("asset %s: name is required", a.ID)
	}
	if a.Type == "" {
		r.errorf("asset %s: type is required", name)
	} else if !a.Type.Valid() {
		r.errorf("asset %s: unknown type %q", name, a.Type)
	}
	if a.CapacityMW < 0 {
		r.errorf("asset %s: capacity must be >= 0", name)
	}
	if a.LifeYears <= 0 {
		r.errorf("asset %s: asset life must be > 0", name)
	}
	if a.VolumeLossAdjustment < 0 || a.VolumeLossAdjustment > 100 {
		r.errorf("asset %s: volume loss adjustment must be within [0,100]", name)
	}
	if a.AnnualDegradation < 0 || a.AnnualDegradation > 100 {
		r.errorf("asset %s: annual degradation must be within [0,100]", name)
	}
	if a.OperatingStart.IsZero() && a.ConstructionStart.IsZero() {
		r.errorf("asset %s: operating start date is required", name)
	}
	switch a.Type {
	case model.TechStorage:
		if a.VolumeMWh <= 0 && a.AnnualVolumeMWh <= 0 {
			r.errorf("asset %s: storage requires a volume", name)
		}
	case model.TechSolar, model.TechWind:
		if len(a.QuarterlyCapacityFactors) != 4 && a.CapacityFactor <= 0 {
			r.Warnings = append(r.Warnings, model.NewWarning(model.WarnMissingFactors, name,
				"capacity factors missing, regional defaults will be used"))
		}
		for i, cf := range a.QuarterlyCapacityFactors {
			if cf < 0 || cf > 100 {
				r.errorf("asset %s: Q%d capacity factor must be within [0,100]", name, i+1)
			}
		}
	}

	r.ContractCount += len(a.Contracts)
	for i, c := range a.Contracts {
		if err := c.Validate(); err != nil {
			r.errorf("asset %s contract %d: %v", name, i+1, err)
			continue
		}
		if !c.Type.AppliesTo(a.Type) {
			r.Warnings = append(r.Warnings, model.NewWarning(model.WarnContractIgnored, name,
				"contract %d (%s) only applies to storage and is ignored for %s", i+1, c.Type, a.Type))
			continue
		}
		if !c.Priced() {
			r.Warnings = append(r.Warnings, model.NewWarning(model.WarnMissingPrice, name,
				"contract %d (%s) has no price", i+1, c.Type))
		}
	}
	for _, o := range Overlaps(a) {
		r.Warnings = append(r.Warnings, model.NewWarning(model.WarnContractOverlap, name,
			"contracts cover %.1f%% of output between %s and %s", o.Total, o.Start.Format("2006-01"), o.End.Format("2006-01")))
	}
}
