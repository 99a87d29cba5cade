package model

import (
	"encoding/json"
	"fmt"
	"math"
)

// IRRStatus tags the outcome of an IRR solve.
type IRRStatus string

const (
	IRRConverged      IRRStatus = "converged"
	IRRNoRoot         IRRStatus = "no_root"
	IRRDidNotConverge IRRStatus = "did_not_converge"
)

// IRRResult is a tagged IRR outcome. Rate is meaningful only when converged.
type IRRResult struct {
	Status     IRRStatus `json:"status"`
	Rate       float64   `json:"-"`
	Iterations int       `json:"iterations,omitempty"`
}

// Converged wraps a solved rate.
func Converged(rate float64, iterations int) IRRResult {
	return IRRResult{Status: IRRConverged, Rate: rate, Iterations: iterations}
}

// Value returns the rate and whether it is defined.
func (r IRRResult) Value() (float64, bool) {
	if r.Status != IRRConverged {
		return 0, false
	}
	return r.Rate, true
}

// OK reports whether the rate is defined.
func (r IRRResult) OK() bool { return r.Status == IRRConverged }

// Annualize converts a per-period rate to an annual rate.
func (r IRRResult) Annualize(periodsPerYear int) IRRResult {
	if !r.OK() || periodsPerYear <= 1 {
		return r
	}
	r.Rate = math.Pow(1+r.Rate, float64(periodsPerYear)) - 1
	return r
}

func (r IRRResult) String() string {
	if v, ok := r.Value(); ok {
		return fmt.Sprintf("%.2f%%", v*100)
	}
	return "undefined (" + string(r.Status) + ")"
}

type irrJSON struct {
	Status     IRRStatus `json:"status"`
	Rate       *float64  `json:"rate"`
	Iterations int       `json:"iterations,omitempty"`
}

// MarshalJSON writes rate as null unless converged.
func (r IRRResult) MarshalJSON() ([]byte, error) {
	out := irrJSON{Status: r.Status, Iterations: r.Iterations}
	if v, ok := r.Value(); ok {
		out.Rate = &v
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *IRRResult) UnmarshalJSON(b []byte) error {
	var in irrJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	r.Status = in.Status
	r.Iterations = in.Iterations
	r.Rate = 0
	if in.Rate != nil {
		r.Rate = *in.Rate
	}
	return nil
}
