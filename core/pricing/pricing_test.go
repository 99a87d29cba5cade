package pricing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/assetfin/core/factory"
	"github.com/kilianp07/assetfin/core/logger"
	"github.com/kilianp07/assetfin/core/model"
)

const monthlyCSV = `profile,type,REGION,time,price
solar,Energy,NSW,01/01/2025,60
solar,Energy,NSW,01/02/2025,62
solar,green,NSW,01/01/2025,20
`

const spreadCSV = `REGION,YEAR,DURATION,SPREAD
NSW,2025,1,100
NSW,2025,4,160
`

func date(y int, m time.Month) time.Time { return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC) }

func testCurve(t *testing.T, opts ...CurveOption) *Curve {
	t.Helper()
	monthly, err := LoadMonthlyCSV(strings.NewReader(monthlyCSV))
	require.NoError(t, err)
	spreads, err := LoadSpreadsCSV(strings.NewReader(spreadCSV))
	require.NoError(t, err)
	return NewCurve(monthly, spreads, opts...)
}

func TestCurveExactAndBackwardSearch(t *testing.T) {
	c := testCurve(t)
	q := Query{Technology: model.TechSolar, Type: Energy, Region: "nsw", Date: date(2025, time.February)}
	assert.Equal(t, 62.0, c.MerchantPrice(q))

	q.Date = date(2026, time.June)
	assert.Equal(t, 62.0, c.MerchantPrice(q), "latest earlier month within 60 months")

	q.Date = date(2031, time.June)
	assert.Equal(t, DefaultFallback, c.MerchantPrice(q))

	q.Type = Green
	q.Date = date(2025, time.March)
	assert.Equal(t, 20.0, c.MerchantPrice(q))
}

func TestCurveMissingSeriesFallsBack(t *testing.T) {
	c := testCurve(t, WithFallback(42))
	q := Query{Technology: model.TechWind, Type: Energy, Region: "VIC", Date: date(2025, time.January)}
	assert.Equal(t, 42.0, c.MerchantPrice(q))
}

func TestCurveSpreadInterpolation(t *testing.T) {
	c := testCurve(t)
	q := Query{Technology: model.TechStorage, Type: Spread, Region: "NSW", Date: date(2025, time.May)}
	q.Duration = 2
	assert.InDelta(t, 120, c.MerchantPrice(q), 1e-9)
	q.Duration = 0.5
	assert.InDelta(t, 100, c.MerchantPrice(q), 1e-9)
	q.Duration = 8
	assert.InDelta(t, 160, c.MerchantPrice(q), 1e-9)
	q.Date = date(2026, time.May)
	assert.Equal(t, DefaultFallback, c.MerchantPrice(q))
}

type countingLogger struct {
	logger.Nop
	warns int
}

func (l *countingLogger) Warnf(string, ...any) { l.warns++ }

func TestCurveWarnsOncePerSeries(t *testing.T) {
	log := &countingLogger{}
	c := testCurve(t, WithLogger(log))
	wind := Query{Technology: model.TechWind, Type: Energy, Region: "VIC"}
	late := Query{Technology: model.TechSolar, Type: Energy, Region: "NSW"}
	spread := Query{Technology: model.TechStorage, Type: Spread, Region: "QLD", Duration: 2}
	for m := 0; m < 300; m++ {
		d := date(2031, time.January).AddDate(0, m, 0)
		wind.Date, late.Date, spread.Date = d, d, d
		c.MerchantPrice(wind)
		c.MerchantPrice(late)
		c.MerchantPrice(spread)
	}
	assert.Equal(t, 3, log.warns)

	wind.Region = "SA"
	c.MerchantPrice(wind)
	assert.Equal(t, 4, log.warns, "a new series warns again")
}

func TestEscalationFactor(t *testing.T) {
	e := Escalation{Rate: 0.025, Reference: date(2025, time.January)}
	assert.Equal(t, 1.0, e.Factor(date(2024, time.January)), "no negative exponent")
	assert.InDelta(t, 1.025, e.Factor(date(2026, time.January)), 1e-12)
	c := testCurve(t, WithEscalation(e))
	q := Query{Technology: model.TechSolar, Type: Energy, Region: "NSW", Date: date(2026, time.January)}
	assert.InDelta(t, 62*1.025, c.MerchantPrice(q), 1e-9)
}

func TestCurveFingerprintStable(t *testing.T) {
	a := testCurve(t)
	b := testCurve(t)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	c := testCurve(t, WithFallback(10))
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	m, s := a.Len()
	assert.Equal(t, 3, m)
	assert.Equal(t, 2, s)
}

func TestLoadCSVErrors(t *testing.T) {
	_, err := LoadMonthlyCSV(strings.NewReader("profile,type\nsolar,energy\n"))
	assert.Error(t, err)
	_, err = LoadMonthlyCSV(strings.NewReader(""))
	assert.Error(t, err)
	_, err = LoadSpreadsCSV(strings.NewReader("REGION,YEAR,DURATION,SPREAD\nNSW,x,1,2\n"))
	assert.Error(t, err)
}

func TestNewSourceFromConfig(t *testing.T) {
	src, err := NewSource(factory.ModuleConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 50.0, src.MerchantPrice(Query{Type: Energy}))

	src, err = NewSource(factory.ModuleConfig{Type: "flat", Conf: map[string]any{"energy": 70, "green": 15}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 15.0, src.MerchantPrice(Query{Type: Green}))

	dir := t.TempDir()
	path := filepath.Join(dir, "monthly.csv")
	require.NoError(t, os.WriteFile(path, []byte(monthlyCSV), 0o600))
	src, err = NewSource(factory.ModuleConfig{Type: "csv", Conf: map[string]any{"monthly": path}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 60.0, src.MerchantPrice(Query{Technology: model.TechSolar, Type: Energy, Region: "NSW", Date: date(2025, time.January)}))

	_, err = NewSource(factory.ModuleConfig{Type: "oracle"}, nil)
	assert.ErrorIs(t, err, factory.ErrUnknownType)
}

func TestScaledAndFuncSources(t *testing.T) {
	s := Scaled{Source: Func(func(Query) float64 { return 10 }), Factor: 0.8}
	assert.InDelta(t, 8, s.MerchantPrice(Query{}), 1e-12)
	assert.Contains(t, s.Fingerprint(), "scaled:0.8")
}
