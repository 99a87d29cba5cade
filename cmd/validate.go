package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/assetfin/core/validate"
	"github.com/kilianp07/assetfin/infra/portfolio"
	"github.com/kilianp07/assetfin/pkg/export"
)

var validateCmd = &cobra.Command{
	Use:   "validate <portfolio>",
	Short: "Check a portfolio file without valuing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := portfolio.Load(args[0])
		if err != nil {
			return err
		}
		rep := validate.Portfolio(p)
		if err := export.WriteJSON(cmd.OutOrStdout(), rep); err != nil {
			return err
		}
		return rep.Err()
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
