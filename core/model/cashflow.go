package model

import "time"

// CashFlowPeriod is one row of a project timeline. Money is in $M.
type CashFlowPeriod struct {
	Index        int       `json:"index"`
	Label        string    `json:"label"`
	Start        time.Time `json:"start"`
	Construction bool      `json:"construction"`

	Generation        float64 `json:"generation"`
	Revenue           float64 `json:"revenue"`
	ContractedRevenue float64 `json:"contractedRevenue"`
	MerchantRevenue   float64 `json:"merchantRevenue"`
	Opex              float64 `json:"opex"`
	OperatingCashFlow float64 `json:"operatingCashFlow"`

	EquityInvestment float64 `json:"equityInvestment"`
	DebtDrawdown     float64 `json:"debtDrawdown"`

	Interest    float64  `json:"interest"`
	Principal   float64  `json:"principal"`
	DebtService float64  `json:"debtService"`
	DebtBalance float64  `json:"debtBalance"`
	DSCR        *float64 `json:"dscr"`

	TerminalValue  float64 `json:"terminalValue"`
	EquityCashFlow float64 `json:"equityCashFlow"`
}

// ProjectMetrics summarises the financing outcome of an asset or the portfolio.
type ProjectMetrics struct {
	Name                string           `json:"name"`
	CAPEX               float64          `json:"capex"`
	Gearing             float64          `json:"calculatedGearing"`
	DebtAmount          float64          `json:"debtAmount"`
	AnnualDebtService   float64          `json:"annualDebtService"`
	MinDSCR             *float64         `json:"minDSCR"`
	TerminalValue       float64          `json:"terminalValue"`
	CashFlows           []CashFlowPeriod `json:"cashFlows"`
	EquityCashFlows     []float64        `json:"equityCashFlows"`
	EquityTimingUpfront bool             `json:"equityTimingUpfront"`
	PeriodsPerYear      int              `json:"periodsPerYear"`
	EquityIRR           IRRResult        `json:"equityIRR"`
	Warnings            []Warning        `json:"warnings,omitempty"`
}

// PortfolioKey is the metrics key of the aggregate entry.
const PortfolioKey = "portfolio"
