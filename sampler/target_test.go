package sampler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fitpack/dream/rand"
)

func TestSafeEval(t *testing.T) {
	assert := assert.New(t)

	logp, failed := safeEval(func(x []float64) float64 { return -x[0] }, []float64{2})
	assert.Equal(-2.0, logp)
	assert.False(failed)

	// Infeasible is a legitimate signal, not a failure
	logp, failed = safeEval(func(x []float64) float64 { return math.Inf(-1) }, []float64{2})
	assert.True(math.IsInf(logp, -1))
	assert.False(failed)

	logp, failed = safeEval(func(x []float64) float64 { return math.NaN() }, []float64{2})
	assert.True(math.IsInf(logp, -1))
	assert.True(failed)

	logp, failed = safeEval(func(x []float64) float64 { return math.Inf(1) }, []float64{2})
	assert.True(math.IsInf(logp, -1))
	assert.True(failed)

	logp, failed = safeEval(func(x []float64) float64 { panic("numerical meltdown") }, []float64{2})
	assert.True(math.IsInf(logp, -1))
	assert.True(failed)
}

func TestMetropolisAccept(t *testing.T) {
	assert := assert.New(t)

	gen, err := rand.NewGenerator(3)
	assert.NoError(err)

	// Better candidates always accepted
	assert.True(metropolisAccept(gen, -10, -5, 0))
	assert.True(metropolisAccept(gen, math.Inf(-1), -5, 0))

	// Infeasible candidates never accepted, even from an infeasible state
	assert.False(metropolisAccept(gen, -5, math.Inf(-1), 0))
	assert.False(metropolisAccept(gen, math.Inf(-1), math.Inf(-1), 0))

	// Worse candidates accepted with probability exp(lr)
	accepted := 0
	const trials = 20000
	for i := 0; i < trials; i++ {
		if metropolisAccept(gen, -5, -6, 0) {
			accepted++
		}
	}
	assert.InDelta(math.Exp(-1), float64(accepted)/trials, 0.02)

	// The asymmetry correction shifts the ratio
	assert.True(metropolisAccept(gen, -5, -6, 2.0))
}
