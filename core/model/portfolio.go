package model

import "sort"

// Constants carries the portfolio-wide financial settings.
type Constants struct {
	// AssetCosts is keyed by asset name.
	AssetCosts map[string]AssetCostAssumptions `json:"assetCosts" yaml:"assetCosts"`
	// Escalation is the general escalation rate in %/yr.
	Escalation    float64 `json:"escalation" yaml:"escalation"`
	ReferenceYear int     `json:"referenceYear" yaml:"referenceYear"`
}

// Portfolio is the explicit context passed to the engines: assets plus constants.
type Portfolio struct {
	ID        string           `json:"id,omitempty" yaml:"id"`
	Name      string           `json:"portfolioName,omitempty" yaml:"portfolioName"`
	Assets    map[string]Asset `json:"assets" yaml:"assets"`
	Constants Constants        `json:"constants" yaml:"constants"`
}

// AssetList returns the assets ordered by map key for deterministic runs.
func (p Portfolio) AssetList() []Asset {
	keys := make([]string, 0, len(p.Assets))
	for k := range p.Assets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Asset, 0, len(keys))
	for _, k := range keys {
		a := p.Assets[k]
		if a.ID == "" {
			a.ID = k
		}
		out = append(out, a)
	}
	return out
}
