package finance

import (
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/assetfin/core/model"
)

// ErrMissingStart is returned when an asset has neither an operating start
// nor a construction start to derive it from.
var ErrMissingStart = errors.New("operating start date required")

type timeline struct {
	periods      []model.Period
	construction int
	operations   int
	ppy          int
}

// operatingStart returns the asset's start date, deriving it from the
// construction start when unset.
func operatingStart(a model.Asset, constructionMonths int) (time.Time, error) {
	if !a.OperatingStart.IsZero() {
		return a.OperatingStart.Time, nil
	}
	if !a.ConstructionStart.IsZero() {
		return a.ConstructionStart.AddDate(0, constructionMonths, 0), nil
	}
	return time.Time{}, fmt.Errorf("asset %s: %w", a.Name, ErrMissingStart)
}

// buildTimeline lays construction periods immediately before the operating
// start month, at least one so the initial investment sits at index 0.
func buildTimeline(a model.Asset, start time.Time, constructionMonths int, opts Options) timeline {
	ppy := opts.Frequency.PeriodsPerYear()
	pm := opts.Frequency.Months()
	nCons := (constructionMonths + pm - 1) / pm
	if nCons < 1 {
		nCons = 1
	}
	years := a.LifeYears
	if opts.HorizonYears > 0 && opts.HorizonYears < years {
		years = opts.HorizonYears
	}
	nOps := years * ppy
	anchor := model.MonthStart(start)

	periods := make([]model.Period, 0, nCons+nOps)
	for i := 0; i < nCons; i++ {
		periods = append(periods, model.Period{
			Index:        i,
			Start:        anchor.AddDate(0, -(nCons-i)*pm, 0),
			Months:       pm,
			Construction: true,
		})
	}
	for j := 0; j < nOps; j++ {
		periods = append(periods, model.Period{
			Index:  nCons + j,
			Start:  anchor.AddDate(0, j*pm, 0),
			Months: pm,
		})
	}
	return timeline{periods: periods, construction: nCons, operations: nOps, ppy: ppy}
}

// fund splits capex into equity and debt draws over n construction periods.
func fund(capex, gearing float64, n int, upfront bool, ft FundingType) (equity, debt []float64) {
	equity = make([]float64, n)
	debt = make([]float64, n)
	totalDebt := capex * gearing
	totalEquity := capex - totalDebt
	if upfront || n == 1 {
		equity[0] = totalEquity
		debt[0] = totalDebt
		return equity, debt
	}
	spend := capex / float64(n)
	remaining := totalEquity
	for i := 0; i < n; i++ {
		switch ft {
		case EquityFirst:
			e := spend
			if e > remaining {
				e = remaining
			}
			remaining -= e
			equity[i] = e
			debt[i] = spend - e
		default:
			equity[i] = spend * (1 - gearing)
			debt[i] = spend * gearing
		}
	}
	return equity, debt
}
