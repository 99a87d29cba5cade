package finance

import (
	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/assetfin/core/irr"
	"github.com/kilianp07/assetfin/core/model"
)

// Aggregate sums asset metrics index by index. Shorter vectors are zero-padded
// and periods are aligned by offset, not by calendar date.
func Aggregate(assets []model.ProjectMetrics) model.ProjectMetrics {
	out := model.ProjectMetrics{Name: model.PortfolioKey, EquityTimingUpfront: true}
	n := 0
	for _, m := range assets {
		if len(m.CashFlows) > n {
			n = len(m.CashFlows)
		}
		if m.PeriodsPerYear > out.PeriodsPerYear {
			out.PeriodsPerYear = m.PeriodsPerYear
		}
	}
	rows := make([]model.CashFlowPeriod, n)
	flows := make([]float64, n)
	for _, m := range assets {
		out.CAPEX += m.CAPEX
		out.DebtAmount += m.DebtAmount
		out.AnnualDebtService += m.AnnualDebtService
		out.TerminalValue += m.TerminalValue
		out.EquityTimingUpfront = out.EquityTimingUpfront && m.EquityTimingUpfront

		padded := make([]float64, n)
		copy(padded, m.EquityCashFlows)
		floats.Add(flows, padded)

		for i, r := range m.CashFlows {
			dst := &rows[i]
			if dst.Label == "" {
				dst.Label = r.Label
				dst.Start = r.Start
			}
			dst.Construction = dst.Construction || r.Construction
			dst.Generation += r.Generation
			dst.Revenue += r.Revenue
			dst.ContractedRevenue += r.ContractedRevenue
			dst.MerchantRevenue += r.MerchantRevenue
			dst.Opex += r.Opex
			dst.OperatingCashFlow += r.OperatingCashFlow
			dst.EquityInvestment += r.EquityInvestment
			dst.DebtDrawdown += r.DebtDrawdown
			dst.Interest += r.Interest
			dst.Principal += r.Principal
			dst.DebtService += r.DebtService
			dst.DebtBalance += r.DebtBalance
			dst.TerminalValue += r.TerminalValue
			dst.EquityCashFlow += r.EquityCashFlow
		}
	}
	for i := range rows {
		rows[i].Index = i
		if rows[i].DebtService > 0 {
			d := rows[i].OperatingCashFlow / rows[i].DebtService
			rows[i].DSCR = &d
			if out.MinDSCR == nil || d < *out.MinDSCR {
				v := d
				out.MinDSCR = &v
			}
		}
	}
	if out.CAPEX > 0 {
		out.Gearing = out.DebtAmount / out.CAPEX
	}
	out.CashFlows = rows
	out.EquityCashFlows = flows
	if out.PeriodsPerYear == 0 {
		out.PeriodsPerYear = 1
	}
	out.EquityIRR = irr.Calculate(flows).Annualize(out.PeriodsPerYear)
	return out
}
