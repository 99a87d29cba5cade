// Package finance builds project cash-flow schedules: construction funding,
// escalated OPEX, DSCR-sized debt, equity cash flows and IRR, per asset and
// for the portfolio aggregate.
package finance
