package sampler

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// outlierCheck watches a trailing window of per-chain log-probabilities and
// flags chains that have fallen far below the rest of the population. A
// flagged chain is stuck in a low-probability region and would otherwise
// poison the convergence diagnostic indefinitely.
type outlierCheck struct {
	iqrMult float64 // flag below Q1 - iqrMult*IQR
	maxFrac float64 // max fraction of chains replaced per check

	hist [][]float64 // per-chain ring of recent logps
	pos  int
	cnt  int
}

func newOutlierCheck(nChains int, window int, iqrMult float64, maxFrac float64) *outlierCheck {
	hist := make([][]float64, nChains)
	for i := range hist {
		hist[i] = make([]float64, window)
	}

	return &outlierCheck{
		iqrMult: iqrMult,
		maxFrac: maxFrac,
		hist:    hist,
	}
}

// Record appends the current generation's log-probabilities to the trailing
// window.
func (o *outlierCheck) Record(logps []float64) {
	for i, lp := range logps {
		o.hist[i][o.pos] = lp
	}
	o.pos = (o.pos + 1) % len(o.hist[0])
	if o.cnt < len(o.hist[0]) {
		o.cnt++
	}
}

// Reset clears chain i's trailing window after it has been reinitialized,
// so its old scores can not flag it again on the next check.
func (o *outlierCheck) Reset(i int, logp float64) {
	for j := 0; j < o.cnt; j++ {
		o.hist[i][j] = logp
	}
}

// Check returns the chains whose trailing-mean log-probability falls below
// Q1 - iqrMult*IQR of the population's trailing means, worst first, capped
// at maxFrac of the population. Chains stuck at -Inf are always flagged.
func (o *outlierCheck) Check() []int {
	if o.cnt < 2 {
		return nil
	}

	n := len(o.hist)
	means := make([]float64, n)
	for i := range o.hist {
		m := 0.0
		finite := true
		for j := 0; j < o.cnt; j++ {
			if math.IsInf(o.hist[i][j], -1) {
				finite = false
				break
			}
			m += o.hist[i][j]
		}
		if finite {
			means[i] = m / float64(o.cnt)
		} else {
			means[i] = math.Inf(-1)
		}
	}

	// Quartiles over the finite means only
	sorted := make([]float64, 0, n)
	for _, m := range means {
		if !math.IsInf(m, -1) {
			sorted = append(sorted, m)
		}
	}
	if len(sorted) < 3 {
		return nil
	}
	sort.Float64s(sorted)
	q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	thresh := q1 - o.iqrMult*(q3-q1)

	flagged := make([]int, 0)
	for i, m := range means {
		if m < thresh || math.IsInf(m, -1) {
			flagged = append(flagged, i)
		}
	}
	if len(flagged) < 1 {
		return nil
	}

	// Worst chains first, then cap the replacement count to preserve
	// population diversity
	sort.Slice(flagged, func(a, b int) bool {
		return means[flagged[a]] < means[flagged[b]]
	})

	maxN := int(o.maxFrac * float64(n))
	if maxN < 1 {
		maxN = 1
	}
	if len(flagged) > maxN {
		flagged = flagged[:maxN]
	}

	return flagged
}
