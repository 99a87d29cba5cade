package sensitivity

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/assetfin/core/finance"
	"github.com/kilianp07/assetfin/core/memo"
	"github.com/kilianp07/assetfin/core/model"
	"github.com/kilianp07/assetfin/core/pricing"
	"github.com/kilianp07/assetfin/core/revenue"
)

func merchantPortfolio() model.Portfolio {
	a := model.Asset{
		Name:                     "Sun",
		Type:                     model.TechSolar,
		Region:                   "NSW",
		CapacityMW:               100,
		QuarterlyCapacityFactors: []float64{25, 25, 25, 25},
		OperatingStart:           model.NewDate(2026, time.January, 1),
		LifeYears:                25,
	}
	c := model.AssetCostAssumptions{
		CAPEX:                   100,
		OperatingCosts:          1.4,
		OperatingCostEscalation: 2.5,
		TerminalValue:           15,
		MaxGearing:              0.7,
		TargetDSCRContract:      1.35,
		TargetDSCRMerchant:      2.0,
		InterestRate:            0.06,
		TenorYears:              15,
		EquityTimingUpfront:     true,
		ConstructionDuration:    12,
	}
	return model.Portfolio{
		ID:        "p1",
		Assets:    map[string]model.Asset{"1": a},
		Constants: model.Constants{AssetCosts: map[string]model.AssetCostAssumptions{"Sun": c}},
	}
}

func barFor(t *testing.T, res Result, kind Kind) Bar {
	t.Helper()
	for _, b := range res.Bars {
		if b.Kind == kind {
			return b
		}
	}
	t.Fatalf("no bar for %s", kind)
	return Bar{}
}

func TestTornado_Directions(t *testing.T) {
	a := NewAnalyzer(finance.NewEngine(pricing.Flat{Energy: 50}), WithConcurrency(4))
	res, err := a.Tornado(context.Background(), merchantPortfolio(), finance.DefaultOptions(), nil)
	require.NoError(t, err)
	require.True(t, res.Base.OK(), "base IRR %s", res.Base)
	require.Len(t, res.Bars, len(DefaultDrivers()))
	assert.Equal(t, 13, res.Runs)

	capex := barFor(t, res, KindCAPEX)
	require.NotNil(t, capex.LowDelta)
	require.NotNil(t, capex.HighDelta)
	assert.Greater(t, *capex.LowDelta, 0.0)
	assert.Less(t, *capex.HighDelta, 0.0)

	price := barFor(t, res, KindMerchantPrice)
	require.NotNil(t, price.HighDelta)
	assert.Greater(t, *price.HighDelta, 0.0)

	vol := barFor(t, res, KindVolume)
	require.NotNil(t, vol.HighDelta)
	assert.Greater(t, *vol.HighDelta, 0.0)

	opex := barFor(t, res, KindOPEX)
	require.NotNil(t, opex.HighDelta)
	assert.Less(t, *opex.HighDelta, 0.0)

	for i := 1; i < len(res.Bars); i++ {
		assert.GreaterOrEqual(t, res.Bars[i-1].Spread, res.Bars[i].Spread)
	}
	assert.Greater(t, res.MeanSpread, 0.0)
}

func TestTornado_MemoizedRerun(t *testing.T) {
	cache := memo.NewCache[finance.Result](nil)
	a := NewAnalyzer(finance.NewEngine(pricing.Flat{Energy: 50}), WithCache(cache))
	p := merchantPortfolio()
	first, err := a.Tornado(context.Background(), p, finance.DefaultOptions(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, first.CacheHits)

	second, err := a.Tornado(context.Background(), p, finance.DefaultOptions(), nil)
	require.NoError(t, err)
	assert.Equal(t, second.Runs, second.CacheHits)
	require.Equal(t, len(first.Bars), len(second.Bars))
	for i := range first.Bars {
		assert.Equal(t, first.Bars[i].Driver, second.Bars[i].Driver)
		assert.InDelta(t, first.Bars[i].Spread, second.Bars[i].Spread, 1e-12)
	}
}

func TestTornado_DoesNotMutateInput(t *testing.T) {
	p := merchantPortfolio()
	a := NewAnalyzer(finance.NewEngine(pricing.Flat{Energy: 50}))
	_, err := a.Tornado(context.Background(), p, finance.DefaultOptions(), []Driver{
		{Kind: KindCAPEX, Low: -50, High: 50},
		{Kind: KindVolume, Low: -50, High: 50},
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, p.Constants.AssetCosts["Sun"].CAPEX)
	assert.Equal(t, 100.0, p.Assets["1"].CapacityMW)
}

func TestTornado_InvalidDriver(t *testing.T) {
	a := NewAnalyzer(finance.NewEngine(nil))
	_, err := a.Tornado(context.Background(), merchantPortfolio(), finance.DefaultOptions(), []Driver{{Name: "x", Kind: "fx"}})
	assert.Error(t, err)
}

func TestTornado_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := NewAnalyzer(finance.NewEngine(pricing.Flat{Energy: 50}))
	_, err := a.Tornado(ctx, merchantPortfolio(), finance.DefaultOptions(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScenarios(t *testing.T) {
	a := NewAnalyzer(finance.NewEngine(pricing.Flat{Energy: 50}))
	deep := revenue.Stress{VolumePct: 40, PricePct: 40}
	out, err := a.Scenarios(context.Background(), merchantPortfolio(), finance.DefaultOptions(), []Scenario{
		{Name: "Base", Case: revenue.CaseBase},
		{Name: "Worst", Case: revenue.CaseWorst},
		{Name: "Deep", Case: revenue.CaseWorst, Stress: &deep},
	})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "Base", out[0].Name)
	base, ok := out[0].EquityIRR.Value()
	require.True(t, ok)
	worst, ok := out[1].EquityIRR.Value()
	require.True(t, ok)
	assert.Less(t, worst, base)
	if deepIRR, ok := out[2].EquityIRR.Value(); ok {
		assert.Less(t, deepIRR, worst)
	}

	_, err = a.Scenarios(context.Background(), merchantPortfolio(), finance.DefaultOptions(), []Scenario{{Name: "bad", Case: "boom"}})
	assert.Error(t, err)
}

func TestDecodeDrivers(t *testing.T) {
	data := `drivers:
  - name: Build cost
    kind: capex
    low: -15
    high: 20
scenarios:
  - name: Downside
    case: worst
    stress:
      volume_pct: 10
      price_pct: 30
`
	set, err := DecodeDrivers(strings.NewReader(data), "yaml")
	require.NoError(t, err)
	require.Len(t, set.Drivers, 1)
	assert.Equal(t, Driver{Name: "Build cost", Kind: KindCAPEX, Low: -15, High: 20}, set.Drivers[0])
	require.Len(t, set.Scenarios, 1)
	require.NotNil(t, set.Scenarios[0].Stress)
	assert.Equal(t, 30.0, set.Scenarios[0].Stress.PricePct)

	_, err = DecodeDrivers(strings.NewReader(`{"drivers":[{"kind":"weather"}]}`), "json")
	assert.Error(t, err)
	_, err = DecodeDrivers(strings.NewReader(""), "toml")
	assert.Error(t, err)
}

func TestLoadDriversFile(t *testing.T) {
	path := t.TempDir() + "/drivers.json"
	require.NoError(t, writeFile(path, `{"drivers":[{"name":"Rate","kind":"interest_rate","low":-25,"high":25}]}`))
	set, err := LoadDrivers(path)
	require.NoError(t, err)
	require.Len(t, set.Drivers, 1)
	assert.Equal(t, KindInterestRate, set.Drivers[0].Kind)
	_, err = LoadDrivers(path + ".missing")
	assert.Error(t, err)
}
