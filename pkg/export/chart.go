package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/assetfin/core/model"
	"github.com/kilianp07/assetfin/core/sensitivity"
)

// WriteCashFlowChart renders revenue, opex, debt service and equity cash flow
// per period as a standalone HTML line chart.
func WriteCashFlowChart(w io.Writer, title string, rows []model.CashFlowPeriod) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Period"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "$M"}),
	)

	x := make([]string, len(rows))
	revenue := make([]opts.LineData, len(rows))
	opex := make([]opts.LineData, len(rows))
	debt := make([]opts.LineData, len(rows))
	equity := make([]opts.LineData, len(rows))
	for i, r := range rows {
		x[i] = r.Label
		revenue[i] = opts.LineData{Value: r.Revenue}
		opex[i] = opts.LineData{Value: r.Opex}
		debt[i] = opts.LineData{Value: r.DebtService}
		equity[i] = opts.LineData{Value: r.EquityCashFlow}
	}
	line.SetXAxis(x).
		AddSeries("Revenue", revenue).
		AddSeries("Opex", opex).
		AddSeries("Debt service", debt).
		AddSeries("Equity cash flow", equity)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// WriteTornadoChart renders the IRR deltas of each driver in percentage points
// as a horizontal bar chart. Undefined deltas are left blank.
func WriteTornadoChart(w io.Writer, title string, bars []sensitivity.Bar) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "IRR delta (pp)"}),
	)

	// echarts draws the first category at the bottom; reverse so the widest bar is on top.
	n := len(bars)
	y := make([]string, n)
	low := make([]opts.BarData, n)
	high := make([]opts.BarData, n)
	for i, b := range bars {
		j := n - 1 - i
		y[j] = b.Driver
		low[j] = opts.BarData{Value: delta(b.LowDelta)}
		high[j] = opts.BarData{Value: delta(b.HighDelta)}
	}
	bar.SetXAxis(y).
		AddSeries("Low", low).
		AddSeries("High", high).
		XYReversal()

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func delta(v *float64) any {
	if v == nil {
		return "-"
	}
	return *v
}
