package revenue

import "fmt"

// Case selects a revenue stress scenario.
type Case string

const (
	CaseBase   Case = "base"
	CaseWorst  Case = "worst"
	CaseVolume Case = "volume"
	CasePrice  Case = "price"
)

// ParseCase accepts the case names, empty meaning base.
func ParseCase(s string) (Case, error) {
	switch Case(s) {
	case "", CaseBase:
		return CaseBase, nil
	case CaseWorst, CaseVolume, CasePrice:
		return Case(s), nil
	}
	return "", fmt.Errorf("unknown revenue case %q", s)
}

// Stress holds the volume and price haircuts in percent.
type Stress struct {
	VolumePct float64 `json:"volume_pct" yaml:"volume_pct"`
	PricePct  float64 `json:"price_pct" yaml:"price_pct"`
}

// DefaultStress is a 20% haircut on both volume and price.
var DefaultStress = Stress{VolumePct: 20, PricePct: 20}

// Apply scales b for case c. Volume stress hits all revenue, price stress
// hits merchant revenue only.
func (s Stress) Apply(c Case, b Breakdown) Breakdown {
	v := 1 - s.VolumePct/100
	p := 1 - s.PricePct/100
	switch c {
	case CaseWorst:
		b.ContractedGreen *= v
		b.ContractedEnergy *= v
		b.MerchantGreen *= v * p
		b.MerchantEnergy *= v * p
	case CaseVolume:
		b.ContractedGreen *= v
		b.ContractedEnergy *= v
		b.MerchantGreen *= v
		b.MerchantEnergy *= v
	case CasePrice:
		b.MerchantGreen *= p
		b.MerchantEnergy *= p
	}
	return b
}
