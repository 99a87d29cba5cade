// Package summary rolls a cash-flow sequence up into calendar-year,
// quarterly and fiscal-year totals.
package summary

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/assetfin/core/model"
)

// DefaultFiscalStart is July.
const DefaultFiscalStart = time.July

// Basis selects the bucket a period is summed into.
type Basis string

const (
	Calendar  Basis = "calendar"
	Quarterly Basis = "quarterly"
	Fiscal    Basis = "fiscal"
)

// ParseBasis accepts "calendar"/"cy", "quarterly"/"qtr" and "fiscal"/"fy".
func ParseBasis(s string) (Basis, error) {
	switch s {
	case "calendar", "cy", "CY":
		return Calendar, nil
	case "quarterly", "qtr", "QTR":
		return Quarterly, nil
	case "fiscal", "fy", "FY":
		return Fiscal, nil
	}
	return "", fmt.Errorf("unknown summary basis %q", s)
}

// Row holds the totals of one bucket. Money is in $M.
type Row struct {
	Label   string    `json:"label"`
	Start   time.Time `json:"start"`
	Periods int       `json:"periods"`

	Generation        float64 `json:"generation"`
	Revenue           float64 `json:"revenue"`
	ContractedRevenue float64 `json:"contractedRevenue"`
	MerchantRevenue   float64 `json:"merchantRevenue"`
	Opex              float64 `json:"opex"`
	OperatingCashFlow float64 `json:"operatingCashFlow"`
	EquityInvestment  float64 `json:"equityInvestment"`
	DebtDrawdown      float64 `json:"debtDrawdown"`
	Interest          float64 `json:"interest"`
	Principal         float64 `json:"principal"`
	DebtService       float64 `json:"debtService"`
	TerminalValue     float64 `json:"terminalValue"`
	EquityCashFlow    float64 `json:"equityCashFlow"`

	// MeanDSCR averages the defined period DSCRs; nil when none is defined.
	MeanDSCR *float64 `json:"meanDSCR"`
	MinDSCR  *float64 `json:"minDSCR"`
}

// Summarize groups rows by basis. fiscalStart is only used for Fiscal and
// defaults to July when zero. Buckets are returned in chronological order.
func Summarize(rows []model.CashFlowPeriod, basis Basis, fiscalStart time.Month) ([]Row, error) {
	if fiscalStart == 0 {
		fiscalStart = DefaultFiscalStart
	}
	if fiscalStart < time.January || fiscalStart > time.December {
		return nil, fmt.Errorf("fiscal year start month %d out of range", fiscalStart)
	}
	var key func(time.Time) (string, time.Time)
	switch basis {
	case Calendar:
		key = calendarKey
	case Quarterly:
		key = quarterKey
	case Fiscal:
		key = func(t time.Time) (string, time.Time) { return fiscalKey(t, fiscalStart) }
	default:
		return nil, fmt.Errorf("unknown summary basis %q", basis)
	}

	buckets := make(map[string]*Row)
	dscrs := make(map[string][]float64)
	for _, r := range rows {
		label, start := key(r.Start)
		b, ok := buckets[label]
		if !ok {
			b = &Row{Label: label, Start: start}
			buckets[label] = b
		}
		b.add(r)
		if r.DSCR != nil {
			dscrs[label] = append(dscrs[label], *r.DSCR)
		}
	}
	out := make([]Row, 0, len(buckets))
	for label, b := range buckets {
		if d := dscrs[label]; len(d) > 0 {
			mean := stat.Mean(d, nil)
			b.MeanDSCR = &mean
			lo := d[0]
			for _, v := range d[1:] {
				if v < lo {
					lo = v
				}
			}
			b.MinDSCR = &lo
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// All returns the three standard roll-ups keyed by basis.
func All(rows []model.CashFlowPeriod, fiscalStart time.Month) (map[Basis][]Row, error) {
	out := make(map[Basis][]Row, 3)
	for _, b := range []Basis{Calendar, Quarterly, Fiscal} {
		s, err := Summarize(rows, b, fiscalStart)
		if err != nil {
			return nil, err
		}
		out[b] = s
	}
	return out, nil
}

func (b *Row) add(r model.CashFlowPeriod) {
	b.Periods++
	b.Generation += r.Generation
	b.Revenue += r.Revenue
	b.ContractedRevenue += r.ContractedRevenue
	b.MerchantRevenue += r.MerchantRevenue
	b.Opex += r.Opex
	b.OperatingCashFlow += r.OperatingCashFlow
	b.EquityInvestment += r.EquityInvestment
	b.DebtDrawdown += r.DebtDrawdown
	b.Interest += r.Interest
	b.Principal += r.Principal
	b.DebtService += r.DebtService
	b.TerminalValue += r.TerminalValue
	b.EquityCashFlow += r.EquityCashFlow
}

func calendarKey(t time.Time) (string, time.Time) {
	return fmt.Sprintf("%d", t.Year()), time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

func quarterKey(t time.Time) (string, time.Time) {
	q := (int(t.Month())-1)/3 + 1
	return fmt.Sprintf("%d-Q%d", t.Year(), q), time.Date(t.Year(), time.Month(3*(q-1)+1), 1, 0, 0, 0, 0, time.UTC)
}

// fiscalKey names a fiscal year after the calendar year it ends in.
func fiscalKey(t time.Time, start time.Month) (string, time.Time) {
	y := t.Year()
	if t.Month() < start {
		y--
	}
	end := y
	if start != time.January {
		end = y + 1
	}
	return fmt.Sprintf("FY%d", end), time.Date(y, start, 1, 0, 0, 0, 0, time.UTC)
}
