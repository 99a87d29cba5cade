package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/assetfin/core/sensitivity"
	"github.com/kilianp07/assetfin/infra/portfolio"
	"github.com/kilianp07/assetfin/pkg/export"
)

var (
	sensOpts    runFlags
	sensDrivers string
	sensFormat  string
)

var sensitivityCmd = &cobra.Command{
	Use:   "sensitivity <portfolio>",
	Short: "Run a tornado sweep of the portfolio equity IRR",
	Args:  cobra.ExactArgs(1),
	RunE:  runSensitivity,
}

func init() {
	sensOpts.bind(sensitivityCmd)
	sensitivityCmd.Flags().StringVar(&sensDrivers, "drivers", "", "yaml or json file with drivers and scenarios")
	sensitivityCmd.Flags().StringVarP(&sensFormat, "format", "f", "json", "output format: json, csv or html")
	rootCmd.AddCommand(sensitivityCmd)
}

func runSensitivity(cmd *cobra.Command, args []string) error {
	p, err := portfolio.Load(args[0])
	if err != nil {
		return err
	}
	var set sensitivity.Set
	if sensDrivers != "" {
		if set, err = sensitivity.LoadDrivers(sensDrivers); err != nil {
			return err
		}
	}
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	opts, err := sensOpts.apply(svc.Options())
	if err != nil {
		return err
	}
	out, err := svc.Sensitivity(cmd.Context(), p, opts, set)
	if err != nil {
		return err
	}
	switch sensFormat {
	case "json":
		return export.WriteJSON(cmd.OutOrStdout(), out)
	case "csv":
		return export.WriteTornadoCSV(cmd.OutOrStdout(), out.Bars)
	case "html":
		return export.WriteTornadoChart(cmd.OutOrStdout(), "Equity IRR sensitivity: "+out.PortfolioID, out.Bars)
	}
	return fmt.Errorf("unknown format %q", sensFormat)
}
