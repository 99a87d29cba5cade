package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/assetfin/app"
	"github.com/kilianp07/assetfin/config"
	"github.com/kilianp07/assetfin/core/finance"
	"github.com/kilianp07/assetfin/core/model"
	"github.com/kilianp07/assetfin/core/revenue"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "assetfin",
	Short:        "Renewable asset revenue and project finance engine",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func newService() (*app.Service, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.New(cfg)
}

// runFlags are the per-run overrides shared by run and sensitivity.
type runFlags struct {
	revenueCase string
	frequency   string
	noTerminal  bool
}

func (f *runFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.revenueCase, "case", "", "revenue case: base, worst, volume or price")
	cmd.Flags().StringVar(&f.frequency, "frequency", "", "period frequency: monthly or annual")
	cmd.Flags().BoolVar(&f.noTerminal, "no-terminal-value", false, "exclude terminal value from the last period")
}

func (f runFlags) apply(opts finance.Options) (finance.Options, error) {
	if f.revenueCase != "" {
		c, err := revenue.ParseCase(f.revenueCase)
		if err != nil {
			return opts, err
		}
		opts.RevenueCase = c
	}
	if f.frequency != "" {
		opts.Frequency = model.Frequency(f.frequency)
	}
	if f.noTerminal {
		opts.IncludeTerminalValue = false
	}
	return opts, opts.Validate()
}
