// Package events defines the events published on the event bus after
// calculation and sensitivity runs.
//
// Available event types:
//   - CalculationEvent: a portfolio valuation finished
//   - SensitivityEvent: a tornado sweep finished
package events
