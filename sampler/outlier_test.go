package sampler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func recordGens(o *outlierCheck, logps []float64, n int) {
	for i := 0; i < n; i++ {
		o.Record(logps)
	}
}

func TestOutlierCheck(t *testing.T) {
	assert := assert.New(t)

	o := newOutlierCheck(8, 10, 2.0, 1.0/3.0)
	assert.Nil(o.Check()) // no data yet

	logps := []float64{-1.0, -1.1, -0.9, -1.05, -0.95, -1.02, -0.98, -500.0}
	recordGens(o, logps, 10)

	flagged := o.Check()
	assert.Equal([]int{7}, flagged)

	// After reinitialization the chain is no longer flagged
	o.Reset(7, -1.0)
	assert.Nil(o.Check())
}

func TestOutlierCheckCap(t *testing.T) {
	assert := assert.New(t)

	// maxFrac 1/12 allows only the single worst chain per check
	o := newOutlierCheck(12, 10, 2.0, 1.0/12.0)
	logps := []float64{
		-1.0, -1.1, -0.9, -1.05, -0.95, -1.02,
		-0.97, -1.08, -0.93, -1.01, -900.0, -500.0,
	}
	recordGens(o, logps, 10)

	flagged := o.Check()
	assert.Equal([]int{10}, flagged) // worst first, capped at one
}

func TestOutlierCheckInfinite(t *testing.T) {
	assert := assert.New(t)

	o := newOutlierCheck(6, 5, 2.0, 0.5)
	logps := []float64{-1.0, -1.1, -0.9, -1.05, math.Inf(-1), -1.02}
	recordGens(o, logps, 5)

	flagged := o.Check()
	assert.Equal([]int{4}, flagged)

	// All chains infeasible: nothing sensible to flag
	o2 := newOutlierCheck(4, 5, 2.0, 0.5)
	inf := math.Inf(-1)
	recordGens(o2, []float64{inf, inf, inf, inf}, 5)
	assert.Nil(o2.Check())
}
