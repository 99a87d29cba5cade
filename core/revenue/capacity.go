package revenue

import (
	"strings"

	"github.com/kilianp07/assetfin/core/model"
)

// fallbackCapacityFactor is used for unknown technology/region pairs, in percent.
const fallbackCapacityFactor = 25.0

var defaultCapacityFactors = map[model.Technology]map[string]float64{
	model.TechSolar: {"NSW": 28, "VIC": 25, "QLD": 29, "SA": 27, "WA": 26, "TAS": 23},
	model.TechWind:  {"NSW": 35, "VIC": 38, "QLD": 32, "SA": 40, "WA": 37, "TAS": 42},
}

// DefaultCapacityFactor returns the regional default in percent.
func DefaultCapacityFactor(t model.Technology, region string) float64 {
	if f, ok := defaultCapacityFactors[t][strings.ToUpper(region)]; ok {
		return f
	}
	return fallbackCapacityFactor
}

// CapacityFactor returns the percent factor for a 1-based quarter and whether
// it had to be defaulted.
func CapacityFactor(a model.Asset, quarter int) (float64, bool) {
	if len(a.QuarterlyCapacityFactors) == 4 && quarter >= 1 && quarter <= 4 {
		return a.QuarterlyCapacityFactors[quarter-1], false
	}
	if a.CapacityFactor > 0 {
		return a.CapacityFactor, false
	}
	return DefaultCapacityFactor(a.Type, a.Region), true
}
