package portfolio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/assetfin/core/model"
)

const jsonPortfolio = `{
  "portfolioName": "Demo",
  "assets": {
    "1": {
      "name": "Sun",
      "type": "solar",
      "state": "NSW",
      "capacity": 100,
      "qtrCapacityFactors": [28, 24, 20, 26],
      "annualDegradation": 0.4,
      "volumeLossAdjustment": 1,
      "assetStartDate": "01/07/2026",
      "constructionDuration": 18,
      "assetLife": 30,
      "contracts": [
        {"type": "bundled", "buyersPercentage": 60, "strikePrice": 75, "indexation": 2.5,
         "startDate": "2026-07-01", "endDate": "2036-06-30"}
      ]
    }
  },
  "constants": {
    "assetCosts": {
      "Sun": {"capex": 120, "operatingCosts": 1.6, "maxGearing": 0.7, "tenorYears": 18}
    },
    "escalation": 2.5,
    "referenceYear": 2026
  }
}`

func TestDecodeJSON(t *testing.T) {
	p, err := Decode(strings.NewReader(jsonPortfolio), "json")
	require.NoError(t, err)
	assert.Equal(t, "Demo", p.Name)
	require.Contains(t, p.Assets, "1")
	a := p.Assets["1"]
	assert.Equal(t, model.TechSolar, a.Type)
	assert.Equal(t, "NSW", a.Region)
	assert.Equal(t, []float64{28, 24, 20, 26}, a.QuarterlyCapacityFactors)
	assert.True(t, a.OperatingStart.Equal(time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)))
	require.Len(t, a.Contracts, 1)
	assert.Equal(t, model.ContractBundled, a.Contracts[0].Type)
	assert.Equal(t, 2026, p.Constants.ReferenceYear)
	assert.Equal(t, 120.0, p.Constants.AssetCosts["Sun"].CAPEX)
}

func TestDecodeYAML(t *testing.T) {
	data := `portfolioName: Storage
assets:
  bess:
    name: Battery
    type: storage
    state: SA
    capacity: 50
    volume: 100
    assetStartDate: "2027-01-01"
    assetLife: 20
    contracts:
      - type: tolling
        buyersPercentage: 100
        strikePrice: 12
        startDate: "2027-01-01"
        endDate: "2036-12-31"
`
	p, err := Decode(strings.NewReader(data), "yaml")
	require.NoError(t, err)
	a := p.Assets["bess"]
	assert.Equal(t, model.TechStorage, a.Type)
	assert.Equal(t, 2.0, a.DurationHours())
	require.Len(t, a.Contracts, 1)
	assert.Equal(t, model.ContractTolling, a.Contracts[0].Type)
	assert.Equal(t, 2036, a.Contracts[0].EndDate.Year())
}

func TestLoad_DefaultsIDAndRoundTripsFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "demo.json")
	require.NoError(t, os.WriteFile(src, []byte(jsonPortfolio), 0o644))
	p, err := Load(src)
	require.NoError(t, err)
	assert.Equal(t, "demo", p.ID)

	dst := filepath.Join(dir, "copy.json")
	require.NoError(t, Save(dst, p))
	again, err := Load(dst)
	require.NoError(t, err)
	assert.Equal(t, "demo", again.ID)
	assert.Equal(t, p.Assets["1"].LifeYears, again.Assets["1"].LifeYears)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "p.txt")
	require.NoError(t, os.WriteFile(bad, []byte("x"), 0o644))
	_, err := Load(bad)
	assert.Error(t, err)
	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
	_, err = Decode(strings.NewReader(`{"assets":`), "json")
	assert.Error(t, err)
}
