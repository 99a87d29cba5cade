package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kilianp07/assetfin/core/finance"
	"github.com/kilianp07/assetfin/core/model"
	"github.com/kilianp07/assetfin/core/summary"
	"github.com/kilianp07/assetfin/infra/portfolio"
	"github.com/kilianp07/assetfin/pkg/export"
)

var (
	runOpts    runFlags
	runFormat  string
	runAsset   string
	runSummary string
)

var runCmd = &cobra.Command{
	Use:   "run <portfolio>",
	Short: "Value a portfolio file",
	Args:  cobra.ExactArgs(1),
	RunE:  runPortfolio,
}

func init() {
	runOpts.bind(runCmd)
	runCmd.Flags().StringVarP(&runFormat, "format", "f", "json", "output format: json, csv or html")
	runCmd.Flags().StringVar(&runAsset, "asset", "", "asset whose cash flows are written as csv or html (default: portfolio)")
	runCmd.Flags().StringVar(&runSummary, "summary", "", "roll csv output up by calendar, quarterly or fiscal")
	rootCmd.AddCommand(runCmd)
}

func runPortfolio(cmd *cobra.Command, args []string) error {
	p, err := portfolio.Load(args[0])
	if err != nil {
		return err
	}
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	opts, err := runOpts.apply(svc.Options())
	if err != nil {
		return err
	}
	out, err := svc.Calculate(cmd.Context(), p, opts)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch runFormat {
	case "json":
		return export.WriteJSON(w, out)
	case "html":
		m, err := pickMetrics(out.Result, runAsset)
		if err != nil {
			return err
		}
		return export.WriteCashFlowChart(w, m.Name, m.CashFlows)
	case "csv":
		m, err := pickMetrics(out.Result, runAsset)
		if err != nil {
			return err
		}
		if runSummary == "" {
			return export.WriteCashFlowsCSV(w, m.CashFlows)
		}
		basis, err := summary.ParseBasis(runSummary)
		if err != nil {
			return err
		}
		rows, err := summary.Summarize(m.CashFlows, basis, svc.FiscalStart())
		if err != nil {
			return err
		}
		return export.WriteSummaryCSV(w, rows)
	}
	return fmt.Errorf("unknown format %q", runFormat)
}

// pickMetrics returns the named entry, or the portfolio aggregate, or the only asset.
func pickMetrics(res finance.Result, name string) (model.ProjectMetrics, error) {
	if name == "" {
		if m, ok := res.Metrics[model.PortfolioKey]; ok {
			return m, nil
		}
		if len(res.Metrics) == 1 {
			for _, m := range res.Metrics {
				return m, nil
			}
		}
		names := make([]string, 0, len(res.Metrics))
		for k := range res.Metrics {
			names = append(names, k)
		}
		sort.Strings(names)
		return model.ProjectMetrics{}, fmt.Errorf("--asset required, one of %v", names)
	}
	m, ok := res.Metrics[name]
	if !ok {
		return model.ProjectMetrics{}, fmt.Errorf("no metrics for %q", name)
	}
	return m, nil
}
