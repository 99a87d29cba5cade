// Package revenue computes generation and the contracted/merchant revenue
// split for one asset over one period. All money is in $M, volumes in MWh.
package revenue
