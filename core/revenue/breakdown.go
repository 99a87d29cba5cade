package revenue

// Breakdown is the revenue of one asset over one period.
type Breakdown struct {
	Generation       float64 `json:"generation"`
	ContractedGreen  float64 `json:"contractedGreen"`
	ContractedEnergy float64 `json:"contractedEnergy"`
	MerchantGreen    float64 `json:"merchantGreen"`
	MerchantEnergy   float64 `json:"merchantEnergy"`
	// GreenPercentage and EnergyPercentage are the contracted shares, 0..100+.
	GreenPercentage  float64 `json:"greenPercentage"`
	EnergyPercentage float64 `json:"energyPercentage"`
}

// Contracted is the revenue under contract.
func (b Breakdown) Contracted() float64 { return b.ContractedGreen + b.ContractedEnergy }

// Merchant is the revenue sold at market prices.
func (b Breakdown) Merchant() float64 { return b.MerchantGreen + b.MerchantEnergy }

// Total is contracted plus merchant revenue.
func (b Breakdown) Total() float64 { return b.Contracted() + b.Merchant() }

// ContractedShare is the contracted fraction of total revenue, 0 when there is none.
func (b Breakdown) ContractedShare() float64 {
	t := b.Total()
	if t <= 0 {
		return 0
	}
	return b.Contracted() / t
}

func (b Breakdown) add(o Breakdown) Breakdown {
	b.Generation += o.Generation
	b.ContractedGreen += o.ContractedGreen
	b.ContractedEnergy += o.ContractedEnergy
	b.MerchantGreen += o.MerchantGreen
	b.MerchantEnergy += o.MerchantEnergy
	b.GreenPercentage += o.GreenPercentage
	b.EnergyPercentage += o.EnergyPercentage
	return b
}
