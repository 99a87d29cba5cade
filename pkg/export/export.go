package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/kilianp07/assetfin/core/model"
	"github.com/kilianp07/assetfin/core/sensitivity"
	"github.com/kilianp07/assetfin/core/summary"
)

// MoneyPlaces is the number of decimals written for $M columns.
const MoneyPlaces = 6

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(MoneyPlaces)
}

func ratio(v *float64) string {
	if v == nil {
		return ""
	}
	return decimal.NewFromFloat(*v).StringFixed(4)
}

// WriteCashFlowsCSV writes one row per period.
func WriteCashFlowsCSV(w io.Writer, rows []model.CashFlowPeriod) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"index", "period", "construction", "generation_mwh", "revenue", "contracted_revenue",
		"merchant_revenue", "opex", "operating_cash_flow", "equity_investment", "debt_drawdown",
		"interest", "principal", "debt_service", "debt_balance", "dscr", "terminal_value", "equity_cash_flow",
	}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.Index),
			r.Label,
			strconv.FormatBool(r.Construction),
			decimal.NewFromFloat(r.Generation).StringFixed(3),
			money(r.Revenue),
			money(r.ContractedRevenue),
			money(r.MerchantRevenue),
			money(r.Opex),
			money(r.OperatingCashFlow),
			money(r.EquityInvestment),
			money(r.DebtDrawdown),
			money(r.Interest),
			money(r.Principal),
			money(r.DebtService),
			money(r.DebtBalance),
			ratio(r.DSCR),
			money(r.TerminalValue),
			money(r.EquityCashFlow),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryCSV writes one row per summary bucket.
func WriteSummaryCSV(w io.Writer, rows []summary.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"period", "periods", "generation_mwh", "revenue", "contracted_revenue", "merchant_revenue",
		"opex", "operating_cash_flow", "debt_service", "equity_cash_flow", "mean_dscr", "min_dscr",
	}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Label,
			strconv.Itoa(r.Periods),
			decimal.NewFromFloat(r.Generation).StringFixed(3),
			money(r.Revenue),
			money(r.ContractedRevenue),
			money(r.MerchantRevenue),
			money(r.Opex),
			money(r.OperatingCashFlow),
			money(r.DebtService),
			money(r.EquityCashFlow),
			ratio(r.MeanDSCR),
			ratio(r.MinDSCR),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTornadoCSV writes one row per driver, IRRs in percent.
func WriteTornadoCSV(w io.Writer, bars []sensitivity.Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"driver", "kind", "low_pct", "high_pct", "low_irr", "high_irr", "spread_pp"}); err != nil {
		return err
	}
	for _, b := range bars {
		spread := ""
		if b.Spread >= 0 {
			spread = decimal.NewFromFloat(b.Spread).StringFixed(4)
		}
		rec := []string{
			b.Driver,
			string(b.Kind),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			irrPct(b.LowIRR),
			irrPct(b.HighIRR),
			spread,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func irrPct(r model.IRRResult) string {
	v, ok := r.Value()
	if !ok {
		return string(r.Status)
	}
	return decimal.NewFromFloat(v * 100).StringFixed(4)
}
