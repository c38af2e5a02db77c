package sampler

import (
	"math"

	"github.com/fitpack/dream/rand"
)

// metropolisAccept applies the standard Metropolis rule to a scored
// candidate: accept when log(u) < logpY - logpX (+ any proposal asymmetry
// correction). Infeasible candidates are never accepted; a feasible
// candidate always beats an infeasible current state.
func metropolisAccept(gen *rand.Generator, logpX float64, logpY float64, logQ float64) bool {
	if math.IsInf(logpY, -1) {
		return false
	}

	lr := logpY - logpX + logQ
	if lr >= 0 {
		return true
	}
	return math.Log(gen.Float64()) < lr
}
