// Package pricing provides merchant price lookups for the revenue engine.
package pricing

import (
	"fmt"
	"time"

	"github.com/kilianp07/assetfin/core/model"
)

// PriceType selects the merchant product being priced.
type PriceType string

const (
	Energy PriceType = "energy"
	Green  PriceType = "green"
	// Spread is the storage arbitrage spread, looked up by duration.
	Spread PriceType = "spread"
)

// Query describes one merchant price lookup.
type Query struct {
	Technology model.Technology
	Type       PriceType
	Region     string
	// Duration is the storage duration in hours, used for Spread.
	Duration float64
	Date     time.Time
}

// Source returns the merchant price in $/MWh for a query.
type Source interface {
	MerchantPrice(q Query) float64
}

// Fingerprinter is implemented by sources whose content can be hashed for memoization.
type Fingerprinter interface {
	Fingerprint() string
}

// Func adapts a plain function to Source.
type Func func(q Query) float64

// MerchantPrice calls f.
func (f Func) MerchantPrice(q Query) float64 { return f(q) }

// Flat returns constant prices regardless of date and region.
type Flat struct {
	Energy float64 `json:"energy" yaml:"energy"`
	Green  float64 `json:"green" yaml:"green"`
	Spread float64 `json:"spread" yaml:"spread"`
}

// MerchantPrice implements Source.
func (f Flat) MerchantPrice(q Query) float64 {
	switch q.Type {
	case Green:
		return f.Green
	case Spread:
		return f.Spread
	default:
		return f.Energy
	}
}

// Fingerprint implements Fingerprinter.
func (f Flat) Fingerprint() string {
	return fmt.Sprintf("flat:%g:%g:%g", f.Energy, f.Green, f.Spread)
}

// Scaled multiplies every price of an underlying source by Factor.
type Scaled struct {
	Source Source
	Factor float64
}

// MerchantPrice implements Source.
func (s Scaled) MerchantPrice(q Query) float64 {
	return s.Source.MerchantPrice(q) * s.Factor
}

// Fingerprint implements Fingerprinter when the wrapped source does.
func (s Scaled) Fingerprint() string {
	return fmt.Sprintf("scaled:%g:%s", s.Factor, FingerprintOf(s.Source))
}

// FingerprintOf returns the source fingerprint or its dynamic type name.
func FingerprintOf(s Source) string {
	if f, ok := s.(Fingerprinter); ok {
		return f.Fingerprint()
	}
	return fmt.Sprintf("%T", s)
}
