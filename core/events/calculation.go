package events

import (
	"time"

	"github.com/kilianp07/assetfin/core/model"
)

// CalculationEvent is published when a portfolio valuation completes.
type CalculationEvent struct {
	RunID       string
	PortfolioID string
	RevenueCase string
	Assets      int
	Periods     int
	Duration    time.Duration
	Cached      bool
	// PortfolioIRR is the aggregate (or single asset) equity IRR.
	PortfolioIRR model.IRRResult
	AssetIRR     map[string]model.IRRResult
	MinDSCR      *float64
	Warnings     []model.Warning
	Time         time.Time
}

// SensitivityEvent is published when a tornado sweep completes.
type SensitivityEvent struct {
	RunID       string
	PortfolioID string
	Drivers     int
	Runs        int
	CacheHits   int
	Duration    time.Duration
	BaseIRR     model.IRRResult
	Time        time.Time
}
