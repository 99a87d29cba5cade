// Package irr solves for internal rates of return on equity cash flows.
package irr

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/assetfin/core/model"
)

const (
	guess         = 0.1
	tolerance     = 1e-6
	maxNewton     = 100
	maxBisection  = 200
	lowerBound    = -0.99
	upperBound    = 10.0
	scanSteps     = 200
	daysPerYear   = 365.25
	derivativeEps = 1e-12
)

// NPV discounts flows at rate per period, the first flow undiscounted.
func NPV(rate float64, flows []float64) float64 {
	if len(flows) == 0 {
		return 0
	}
	factors := make([]float64, len(flows))
	d := 1.0
	for i := range factors {
		factors[i] = d
		d /= 1 + rate
	}
	return floats.Dot(flows, factors)
}

// XNPV discounts dated flows with 365.25-day years from the first date.
func XNPV(rate float64, flows []float64, dates []time.Time) float64 {
	if len(flows) == 0 || len(flows) != len(dates) {
		return 0
	}
	return npvAt(rate, yearFractions(dates), flows)
}

// Calculate returns the periodic rate that zeroes NPV over flows.
func Calculate(flows []float64) model.IRRResult {
	times := make([]float64, len(flows))
	for i := range times {
		times[i] = float64(i)
	}
	return solve(flows, times)
}

// XIRR returns the annual rate that zeroes XNPV over dated flows.
func XIRR(flows []float64, dates []time.Time) model.IRRResult {
	if len(flows) != len(dates) {
		return model.IRRResult{Status: model.IRRNoRoot}
	}
	return solve(flows, yearFractions(dates))
}

func yearFractions(dates []time.Time) []float64 {
	out := make([]float64, len(dates))
	if len(dates) == 0 {
		return out
	}
	first := dates[0]
	for i, d := range dates {
		out[i] = d.Sub(first).Hours() / 24 / daysPerYear
	}
	return out
}

func npvAt(rate float64, times, flows []float64) float64 {
	var sum float64
	for i, cf := range flows {
		sum += cf / math.Pow(1+rate, times[i])
	}
	return sum
}

func dnpvAt(rate float64, times, flows []float64) float64 {
	var sum float64
	for i, cf := range flows {
		sum -= times[i] * cf / math.Pow(1+rate, times[i]+1)
	}
	return sum
}

func hasRoot(flows []float64) bool {
	var neg, pos bool
	for _, v := range flows {
		if v < 0 {
			neg = true
		}
		if v > 0 {
			pos = true
		}
	}
	return neg && pos
}

func solve(flows, times []float64) model.IRRResult {
	if len(flows) == 0 || !hasRoot(flows) {
		return model.IRRResult{Status: model.IRRNoRoot}
	}
	if r, it, ok := newton(flows, times); ok {
		return model.Converged(r, it)
	}
	if r, it, ok := bracketed(flows, times); ok {
		return model.Converged(r, it)
	}
	return model.IRRResult{Status: model.IRRDidNotConverge, Iterations: maxNewton + maxBisection}
}

func newton(flows, times []float64) (float64, int, bool) {
	r := guess
	for i := 1; i <= maxNewton; i++ {
		v := npvAt(r, times, flows)
		if math.Abs(v) < tolerance {
			return r, i, true
		}
		d := dnpvAt(r, times, flows)
		if math.Abs(d) < derivativeEps || math.IsNaN(d) {
			return 0, i, false
		}
		next := r - v/d
		if math.IsNaN(next) || math.IsInf(next, 0) || next <= -1 {
			return 0, i, false
		}
		r = next
	}
	return 0, maxNewton, false
}

// bracketed scans [lowerBound, upperBound] for a sign change and bisects it.
func bracketed(flows, times []float64) (float64, int, bool) {
	step := (upperBound - lowerBound) / scanSteps
	lo := lowerBound
	flo := npvAt(lo, times, flows)
	for s := 1; s <= scanSteps; s++ {
		hi := lowerBound + float64(s)*step
		fhi := npvAt(hi, times, flows)
		if math.Abs(fhi) < tolerance {
			return hi, s, true
		}
		if !math.IsNaN(flo) && !math.IsNaN(fhi) && (flo < 0) != (fhi < 0) {
			return bisect(flows, times, lo, hi, flo)
		}
		lo, flo = hi, fhi
	}
	return 0, scanSteps, false
}

func bisect(flows, times []float64, lo, hi, flo float64) (float64, int, bool) {
	for i := 1; i <= maxBisection; i++ {
		mid := (lo + hi) / 2
		fm := npvAt(mid, times, flows)
		if math.Abs(fm) < tolerance || (hi-lo)/2 < 1e-12 {
			return mid, i, true
		}
		if (fm < 0) == (flo < 0) {
			lo, flo = mid, fm
		} else {
			hi = mid
		}
	}
	return 0, maxBisection, false
}
