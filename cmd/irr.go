package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/assetfin/core/irr"
	"github.com/kilianp07/assetfin/core/model"
)

var (
	irrFile           string
	irrPeriodsPerYear int
	irrRate           float64
)

var irrCmd = &cobra.Command{
	Use:   "irr [--] [flow...]",
	Short: "Solve the IRR of a cash-flow vector",
	Long: `Solve the IRR of cash flows given as arguments or read from a csv file.
A file may carry a second date column (YYYY-MM-DD), in which case XIRR is used.
Negative leading flows must follow "--", e.g. assetfin irr -- -100 110.`,
	RunE: runIRR,
}

func init() {
	irrCmd.Flags().StringVar(&irrFile, "file", "", "csv file with flow[,date] rows")
	irrCmd.Flags().IntVar(&irrPeriodsPerYear, "periods-per-year", 1, "annualize a periodic rate")
	irrCmd.Flags().Float64Var(&irrRate, "npv-rate", 0, "also print the NPV at this rate")
	rootCmd.AddCommand(irrCmd)
}

func runIRR(cmd *cobra.Command, args []string) error {
	var (
		flows []float64
		dates []time.Time
		err   error
	)
	if irrFile != "" {
		f, err := os.Open(irrFile)
		if err != nil {
			return err
		}
		defer f.Close()
		flows, dates, err = readFlows(f)
		if err != nil {
			return fmt.Errorf("%s: %w", irrFile, err)
		}
	} else {
		flows, err = parseFlows(args)
		if err != nil {
			return err
		}
	}
	if len(flows) == 0 {
		return fmt.Errorf("no cash flows given")
	}

	w := cmd.OutOrStdout()
	if len(dates) > 0 {
		fmt.Fprintf(w, "xirr: %s\n", irr.XIRR(flows, dates))
		if cmd.Flags().Changed("npv-rate") {
			fmt.Fprintf(w, "xnpv: %.6f\n", irr.XNPV(irrRate, flows, dates))
		}
		return nil
	}
	fmt.Fprintf(w, "irr: %s\n", irr.Calculate(flows).Annualize(irrPeriodsPerYear))
	if cmd.Flags().Changed("npv-rate") {
		fmt.Fprintf(w, "npv: %.6f\n", irr.NPV(irrRate, flows))
	}
	return nil
}

func parseFlows(args []string) ([]float64, error) {
	out := make([]float64, 0, len(args))
	for _, a := range args {
		for _, s := range strings.Split(a, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("cash flow %q: %w", s, err)
			}
			out = append(out, v)
		}
	}
	return out, nil
}

// readFlows reads flow[,date] rows. Dates must be given on every row or none.
func readFlows(r io.Reader) ([]float64, []time.Time, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	var (
		flows []float64
		dates []time.Time
	)
	for i, rec := range recs {
		v, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			if i == 0 {
				continue // header
			}
			return nil, nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		flows = append(flows, v)
		if len(rec) > 1 && rec[1] != "" {
			d, err := model.ParseDate(rec[1])
			if err != nil {
				return nil, nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			dates = append(dates, d.Time)
		}
	}
	if len(dates) > 0 && len(dates) != len(flows) {
		return nil, nil, fmt.Errorf("%d dates for %d cash flows", len(dates), len(flows))
	}
	return flows, dates, nil
}
