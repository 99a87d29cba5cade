package finance

import (
	"errors"
	"fmt"

	"github.com/kilianp07/assetfin/core/model"
)

// ErrUnknownTechnology is returned when no heuristics exist for an asset type.
var ErrUnknownTechnology = errors.New("unknown technology")

type heuristics struct {
	capexPerMW, opexPerMW, terminalPerMW float64
	maxGearing, dscrContract             float64
	tenorYears, constructionMonths       int
}

const (
	defaultDSCRMerchant   = 2.0
	defaultInterestRate   = 0.06
	defaultOpexEscalation = 2.5
)

var techDefaults = map[model.Technology]heuristics{
	model.TechSolar:   {capexPerMW: 1.2, opexPerMW: 0.014, terminalPerMW: 0.15, maxGearing: 0.70, dscrContract: 1.35, tenorYears: 20, constructionMonths: 12},
	model.TechWind:    {capexPerMW: 2.5, opexPerMW: 0.040, terminalPerMW: 0.20, maxGearing: 0.65, dscrContract: 1.40, tenorYears: 18, constructionMonths: 18},
	model.TechStorage: {capexPerMW: 1.6, opexPerMW: 0.015, terminalPerMW: 0.10, maxGearing: 0.60, dscrContract: 1.40, tenorYears: 15, constructionMonths: 12},
}

// DefaultAssumptions derives cost assumptions from the asset technology and size.
func DefaultAssumptions(a model.Asset) (model.AssetCostAssumptions, error) {
	h, ok := techDefaults[a.Type]
	if !ok {
		return model.AssetCostAssumptions{}, fmt.Errorf("%w %q for asset %s", ErrUnknownTechnology, a.Type, a.Name)
	}
	construction := a.ConstructionMonths
	if construction <= 0 {
		construction = h.constructionMonths
	}
	return model.AssetCostAssumptions{
		CAPEX:                   a.CapacityMW * h.capexPerMW,
		OperatingCosts:          a.CapacityMW * h.opexPerMW,
		OperatingCostEscalation: defaultOpexEscalation,
		TerminalValue:           a.CapacityMW * h.terminalPerMW,
		MaxGearing:              h.maxGearing,
		TargetDSCRContract:      h.dscrContract,
		TargetDSCRMerchant:      defaultDSCRMerchant,
		InterestRate:            defaultInterestRate,
		TenorYears:              h.tenorYears,
		EquityTimingUpfront:     true,
		ConstructionDuration:    construction,
	}, nil
}

// InitializeProjectValues returns technology-based assumptions keyed by asset
// name. Assets of unknown technology are skipped.
func InitializeProjectValues(assets []model.Asset) map[string]model.AssetCostAssumptions {
	out := make(map[string]model.AssetCostAssumptions, len(assets))
	for _, a := range assets {
		c, err := DefaultAssumptions(a)
		if err != nil {
			continue
		}
		out[a.Name] = c
	}
	return out
}

// ResolveCosts returns the portfolio cost assumptions with every asset filled
// in, plus a warning for each defaulted asset.
func ResolveCosts(p model.Portfolio) (map[string]model.AssetCostAssumptions, []model.Warning, error) {
	out := make(map[string]model.AssetCostAssumptions, len(p.Assets))
	var warns []model.Warning
	for _, a := range p.AssetList() {
		if c, ok := p.Constants.AssetCosts[a.Name]; ok {
			out[a.Name] = c
			continue
		}
		c, err := DefaultAssumptions(a)
		if err != nil {
			return nil, nil, err
		}
		out[a.Name] = c
		warns = append(warns, model.NewWarning(model.WarnDefaultedCosts, a.Name,
			"no cost assumptions, using %s defaults (capex %.2f $M)", a.Type, c.CAPEX))
	}
	return out, warns, nil
}
