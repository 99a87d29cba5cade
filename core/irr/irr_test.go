package irr

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/assetfin/core/model"
)

func TestCalculateOnePeriod(t *testing.T) {
	res := Calculate([]float64{-100, 110})
	v, ok := res.Value()
	require.True(t, ok, "status %s", res.Status)
	assert.InDelta(t, 0.10, v, 1e-6)
}

func TestCalculateNoNegative(t *testing.T) {
	res := Calculate([]float64{100, 110})
	assert.Equal(t, model.IRRNoRoot, res.Status)
	_, ok := res.Value()
	assert.False(t, ok)
}

func TestCalculateEmptyAndAllNegative(t *testing.T) {
	assert.Equal(t, model.IRRNoRoot, Calculate(nil).Status)
	assert.Equal(t, model.IRRNoRoot, Calculate([]float64{-1, -2}).Status)
}

func TestCalculateAnnuity(t *testing.T) {
	flows := []float64{-1000}
	for i := 0; i < 10; i++ {
		flows = append(flows, 162.745394883)
	}
	res := Calculate(flows)
	require.True(t, res.OK())
	assert.InDelta(t, 0.10, res.Rate, 1e-6)
	assert.Less(t, math.Abs(NPV(res.Rate, flows)), 1e-5)
}

func TestCalculateHighReturn(t *testing.T) {
	flows := []float64{-1, 0, 0, 0, 0, 0, 0, 0, 0, 400}
	res := Calculate(flows)
	require.True(t, res.OK(), "status %s", res.Status)
	assert.InDelta(t, 0, NPV(res.Rate, flows), 1e-5)
}

// Newton overshoots below -1 here so the bracketed scan has to find it.
func TestCalculateNegativeRate(t *testing.T) {
	res := Calculate([]float64{-100, 50})
	require.True(t, res.OK())
	assert.InDelta(t, -0.5, res.Rate, 1e-6)
}

func TestNPV(t *testing.T) {
	assert.InDelta(t, 0, NPV(0.1, []float64{-100, 110}), 1e-9)
	assert.InDelta(t, 10, NPV(0, []float64{-100, 110}), 1e-9)
	assert.Equal(t, 0.0, NPV(0.1, nil))
}

func TestXIRR(t *testing.T) {
	d0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d1 := d0.Add(time.Duration(365.25*24) * time.Hour)
	res := XIRR([]float64{-100, 110}, []time.Time{d0, d1})
	require.True(t, res.OK())
	assert.InDelta(t, 0.10, res.Rate, 1e-6)
	assert.InDelta(t, 0, XNPV(res.Rate, []float64{-100, 110}, []time.Time{d0, d1}), 1e-6)
}

func TestXIRRMismatchedLengths(t *testing.T) {
	res := XIRR([]float64{-100, 110}, []time.Time{time.Now()})
	assert.Equal(t, model.IRRNoRoot, res.Status)
}
