package sampler

import "math"

// Target is the log-probability function under study: it maps a parameter
// vector to a scalar where higher is better and -Inf marks an infeasible
// point. Implementations must be pure and safe to call concurrently from
// multiple chains.
type Target func(x []float64) float64

// safeEval calls the target, converting panics and non-finite garbage
// (NaN or +Inf) into a -Inf log-probability. A -Inf return from the target
// itself is a legitimate infeasible signal, not a failure.
func safeEval(f Target, x []float64) (logp float64, failed bool) {
	defer func() {
		if r := recover(); r != nil {
			logp = math.Inf(-1)
			failed = true
		}
	}()

	logp = f(x)
	if math.IsNaN(logp) || math.IsInf(logp, 1) {
		return math.Inf(-1), true
	}
	return logp, false
}
