package model

import (
	"fmt"
	"time"
)

// Frequency is the cash-flow grid granularity.
type Frequency string

const (
	Monthly Frequency = "monthly"
	Annual  Frequency = "annual"
)

// PeriodsPerYear returns 12 for monthly grids and 1 otherwise.
func (f Frequency) PeriodsPerYear() int {
	if f == Monthly {
		return 12
	}
	return 1
}

// Months is the length of one period in months.
func (f Frequency) Months() int { return 12 / f.PeriodsPerYear() }

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool { return f == Monthly || f == Annual }

// Period is one slot on the cash-flow grid.
type Period struct {
	Index        int       `json:"index"`
	Start        time.Time `json:"start"`
	Months       int       `json:"months"`
	Construction bool      `json:"construction"`
}

// End is the first instant after the period.
func (p Period) End() time.Time { return p.Start.AddDate(0, p.Months, 0) }

// Label renders the period as "2025" or "2025-03".
func (p Period) Label() string {
	if p.Months == 12 && p.Start.Month() == time.January {
		return fmt.Sprintf("%d", p.Start.Year())
	}
	if p.Months == 12 {
		return fmt.Sprintf("%d/%d", p.Start.Year(), p.Start.Year()+1)
	}
	return p.Start.Format("2006-01")
}

// SubPeriods splits the period into monthly periods.
func (p Period) SubPeriods() []Period {
	if p.Months <= 1 {
		return []Period{p}
	}
	out := make([]Period, p.Months)
	for i := range out {
		out[i] = Period{Index: p.Index, Start: p.Start.AddDate(0, i, 0), Months: 1, Construction: p.Construction}
	}
	return out
}
