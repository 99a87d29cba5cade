package validate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/assetfin/core/model"
)

func contract(typ model.ContractType, pct float64, from, to int) model.Contract {
	return model.Contract{
		Type:             typ,
		BuyersPercentage: pct,
		StrikePrice:      50,
		StartDate:        model.NewDate(from, time.January, 1),
		EndDate:          model.NewDate(to, time.December, 31),
	}
}

func solar() model.Asset {
	return model.Asset{
		Name: "Sun", Type: model.TechSolar, Region: "QLD", CapacityMW: 50, LifeYears: 30,
		QuarterlyCapacityFactors: []float64{30, 25, 20, 28},
		OperatingStart:           model.NewDate(2026, time.July, 1),
	}
}

func TestPortfolioValid(t *testing.T) {
	a := solar()
	a.Contracts = []model.Contract{contract(model.ContractEnergy, 60, 2026, 2035)}
	r := Portfolio(model.Portfolio{Assets: map[string]model.Asset{"1": a}})
	assert.True(t, r.Valid(), "%v", r.Errors)
	assert.NoError(t, r.Err())
	assert.Equal(t, 1, r.AssetCount)
	assert.Equal(t, 1, r.ContractCount)
	assert.Empty(t, r.Warnings)
}

func TestPortfolioErrors(t *testing.T) {
	bad := solar()
	bad.LifeYears = 0
	bad.CapacityMW = -1
	bad.Contracts = []model.Contract{contract(model.ContractEnergy, 50, 2030, 2026)}
	storage := model.Asset{Name: "Bat", Type: model.TechStorage, LifeYears: 15, OperatingStart: model.NewDate(2026, 1, 1)}
	p := model.Portfolio{
		Assets: map[string]model.Asset{"1": bad, "2": storage},
		Constants: model.Constants{AssetCosts: map[string]model.AssetCostAssumptions{
			"Bat": {MaxGearing: 1.5, TenorYears: 10},
		}},
	}
	r := Portfolio(p)
	require.False(t, r.Valid())
	assert.Len(t, r.Errors, 5)
	err := Check(p)
	assert.True(t, errors.Is(err, ErrInvalidPortfolio))
}

func TestEmptyPortfolio(t *testing.T) {
	assert.ErrorIs(t, Check(model.Portfolio{}), ErrInvalidPortfolio)
}

func TestWarnings(t *testing.T) {
	a := solar()
	a.QuarterlyCapacityFactors = nil
	unpriced := contract(model.ContractGreen, 30, 2026, 2030)
	unpriced.StrikePrice = 0
	a.Contracts = []model.Contract{unpriced}
	r := Portfolio(model.Portfolio{Assets: map[string]model.Asset{"1": a}})
	require.True(t, r.Valid())
	codes := []model.WarningCode{}
	for _, w := range r.Warnings {
		codes = append(codes, w.Code)
	}
	assert.ElementsMatch(t, []model.WarningCode{model.WarnMissingFactors, model.WarnMissingPrice}, codes)
}

func TestOverlaps(t *testing.T) {
	a := solar()
	a.Contracts = []model.Contract{
		contract(model.ContractEnergy, 70, 2026, 2030),
		contract(model.ContractBundled, 50, 2029, 2032),
		contract(model.ContractGreen, 60, 2026, 2035),
	}
	got := Overlaps(a)
	require.Len(t, got, 1)
	// Energy reaches 120% in 2029-2030, green stays at 110% until the bundled contract ends.
	assert.Equal(t, time.Date(2029, time.January, 1, 0, 0, 0, 0, time.UTC), got[0].Start)
	assert.Equal(t, time.Date(2032, time.December, 1, 0, 0, 0, 0, time.UTC), got[0].End)
	assert.InDelta(t, 120, got[0].Total, 1e-9)

	a.Contracts = a.Contracts[:1]
	assert.Empty(t, Overlaps(a))
}

func TestStorageContractsOnSolarAreIgnored(t *testing.T) {
	a := solar()
	a.Contracts = []model.Contract{
		contract(model.ContractEnergy, 80, 2026, 2035),
		contract(model.ContractCfD, 40, 2026, 2035),
	}
	assert.Empty(t, Overlaps(a), "only the energy contract earns revenue on solar")

	r := Portfolio(model.Portfolio{Assets: map[string]model.Asset{"1": a}})
	assert.True(t, r.Valid(), "%v", r.Errors)
	require.Len(t, r.Warnings, 1)
	assert.Equal(t, model.WarnContractIgnored, r.Warnings[0].Code)
	assert.Contains(t, r.Warnings[0].Message, "contract 2 (cfd)")
}

func TestStorageContractsCountOnStorage(t *testing.T) {
	a := model.Asset{
		Name: "Battery", Type: model.TechStorage, Region: "QLD", CapacityMW: 50, VolumeMWh: 100, LifeYears: 20,
		OperatingStart: model.NewDate(2026, time.July, 1),
	}
	a.Contracts = []model.Contract{
		contract(model.ContractTolling, 80, 2026, 2035),
		contract(model.ContractCfD, 40, 2026, 2035),
	}
	got := Overlaps(a)
	require.Len(t, got, 1)
	assert.InDelta(t, 120, got[0].Total, 1e-9)
}
