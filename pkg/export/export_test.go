package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/assetfin/core/model"
	"github.com/kilianp07/assetfin/core/sensitivity"
	"github.com/kilianp07/assetfin/core/summary"
)

func TestWriteCashFlowsCSV(t *testing.T) {
	d := 1.456789
	rows := []model.CashFlowPeriod{
		{Index: 0, Label: "2025", Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Construction: true, EquityInvestment: 30, DebtDrawdown: 70, EquityCashFlow: -30},
		{Index: 1, Label: "2026", Generation: 219000, Revenue: 10.95, Opex: 1.4, OperatingCashFlow: 9.55, DebtService: 6.5, DSCR: &d, EquityCashFlow: 3.05},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCashFlowsCSV(&buf, rows))
	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "period", recs[0][1])
	assert.Equal(t, "true", recs[1][2])
	assert.Equal(t, "", recs[1][15])
	assert.Equal(t, "-30.000000", recs[1][17])
	assert.Equal(t, "219000.000", recs[2][3])
	assert.Equal(t, "10.950000", recs[2][4])
	assert.Equal(t, "1.4568", recs[2][15])
}

func TestWriteSummaryCSV(t *testing.T) {
	m := 1.5
	var buf bytes.Buffer
	require.NoError(t, WriteSummaryCSV(&buf, []summary.Row{{Label: "FY2026", Periods: 12, Revenue: 12, MeanDSCR: &m}}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "FY2026,12,0.000,12.000000,"))
	assert.True(t, strings.HasSuffix(lines[1], ",1.5000,"))
}

func TestWriteTornadoCSV(t *testing.T) {
	var buf bytes.Buffer
	bars := []sensitivity.Bar{
		{Driver: "CAPEX", Kind: sensitivity.KindCAPEX, Low: -10, High: 10,
			LowIRR: model.Converged(0.1, 3), HighIRR: model.Converged(0.08, 3), Spread: 2},
		{Driver: "OPEX", Kind: sensitivity.KindOPEX, Low: -10, High: 10,
			LowIRR: model.IRRResult{Status: model.IRRNoRoot}, Spread: -1},
	}
	require.NoError(t, WriteTornadoCSV(&buf, bars))
	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"CAPEX", "capex", "-10", "10", "10.0000", "8.0000", "2.0000"}, recs[1])
	assert.Equal(t, "no_root", recs[2][4])
	assert.Equal(t, "", recs[2][6])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]model.IRRResult{"x": {Status: model.IRRDidNotConverge}}))
	assert.Contains(t, buf.String(), `"rate": null`)
}
