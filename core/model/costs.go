package model

import "fmt"

// AssetCostAssumptions holds the financing parameters of one asset.
// Monetary values are in $M; rates are fractions unless noted.
type AssetCostAssumptions struct {
	CAPEX float64 `json:"capex" yaml:"capex"`
	// OperatingCosts is the annual OPEX in $M.
	OperatingCosts float64 `json:"operatingCosts" yaml:"operatingCosts"`
	// OperatingCostEscalation is in %/yr.
	OperatingCostEscalation float64 `json:"operatingCostEscalation" yaml:"operatingCostEscalation"`
	TerminalValue           float64 `json:"terminalValue" yaml:"terminalValue"`
	MaxGearing              float64 `json:"maxGearing" yaml:"maxGearing"`
	TargetDSCRContract      float64 `json:"targetDSCRContract" yaml:"targetDSCRContract"`
	TargetDSCRMerchant      float64 `json:"targetDSCRMerchant" yaml:"targetDSCRMerchant"`
	InterestRate            float64 `json:"interestRate" yaml:"interestRate"`
	TenorYears              int     `json:"tenorYears" yaml:"tenorYears"`
	EquityTimingUpfront     bool    `json:"equityTimingUpfront" yaml:"equityTimingUpfront"`
	// ConstructionDuration is in months.
	ConstructionDuration int `json:"constructionDuration" yaml:"constructionDuration"`
}

// Validate checks the cost assumption invariants.
func (c AssetCostAssumptions) Validate() error {
	if c.MaxGearing < 0 || c.MaxGearing > 1 {
		return fmt.Errorf("max gearing %.3f out of [0,1]", c.MaxGearing)
	}
	if c.InterestRate < 0 {
		return fmt.Errorf("interest rate must be >= 0")
	}
	if c.TenorYears <= 0 {
		return fmt.Errorf("tenor years must be > 0")
	}
	if c.CAPEX < 0 {
		return fmt.Errorf("capex must be >= 0")
	}
	return nil
}
