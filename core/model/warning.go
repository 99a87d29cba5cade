package model

import "fmt"

// WarningCode classifies a non-fatal condition met during a calculation.
type WarningCode string

const (
	WarnDefaultedCosts  WarningCode = "defaulted_costs"
	WarnDSCRUnreachable WarningCode = "dscr_unreachable"
	WarnDSCRBelowTarget WarningCode = "dscr_below_target"
	WarnContractOverlap WarningCode = "contract_overlap"
	WarnMissingPrice    WarningCode = "missing_price"
	WarnDebtNotRepaid   WarningCode = "debt_not_repaid"
	WarnMissingFactors  WarningCode = "missing_capacity_factors"
	WarnContractIgnored WarningCode = "contract_ignored"
	WarnTenorTruncated  WarningCode = "tenor_truncated"
)

// Warning is an observable record of defaulting, clamping or suspicious input.
type Warning struct {
	Code    WarningCode `json:"code"`
	Asset   string      `json:"asset,omitempty"`
	Message string      `json:"message"`
}

// NewWarning formats a warning for asset.
func NewWarning(code WarningCode, asset, format string, args ...any) Warning {
	return Warning{Code: code, Asset: asset, Message: fmt.Sprintf(format, args...)}
}

func (w Warning) String() string {
	if w.Asset == "" {
		return fmt.Sprintf("[%s] %s", w.Code, w.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", w.Code, w.Asset, w.Message)
}
