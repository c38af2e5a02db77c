package sampler

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/fitpack/dream/buffer"
)

// minSeqLen is the fewest samples a (chain, half) sequence needs before it
// contributes to the R-hat estimate.
const minSeqLen = 3

// Convergence tracks the split-chain Gelman-Rubin diagnostic across checks
// and reports convergence once the max R-hat stays under threshold for the
// required number of consecutive checks. It never stops the run itself:
// the engine owns that decision.
type Convergence struct {
	Threshold float64
	Needed    int

	RHat   []float64 // most recent per-dimension diagnostic
	passes int
}

func newConvergence(threshold float64, needed int, dims int) *Convergence {
	rhat := make([]float64, dims)
	for i := range rhat {
		rhat[i] = math.Inf(1)
	}
	return &Convergence{
		Threshold: threshold,
		Needed:    needed,
		RHat:      rhat,
	}
}

// Observe records a fresh diagnostic and returns true when convergence has
// been sustained for the required consecutive checks.
func (c *Convergence) Observe(rhat []float64) bool {
	c.RHat = rhat

	max := 0.0
	for _, r := range rhat {
		if r > max {
			max = r
		}
	}

	if max < c.Threshold {
		c.passes++
	} else {
		c.passes = 0
	}
	return c.passes >= c.Needed
}

// MaxRHat returns the worst per-dimension diagnostic from the last check.
func (c *Convergence) MaxRHat() float64 {
	max := 0.0
	for _, r := range c.RHat {
		if r > max {
			max = r
		}
	}
	return max
}

// splitRHat computes the per-dimension Gelman-Rubin statistic over the
// history window, treating each (chain, window half) as a separate
// sequence. Returns nil until the window has filled; dimensions without
// spread report exactly 1.
func splitRHat(hist *buffer.CircularSample, nChains int, dims int) []float64 {
	first := hist.FirstHalf()
	if first == nil {
		return nil
	}

	// Bucket sample values per (chain, half) sequence per dimension
	seqs := make([][][]float64, 2*nChains)
	for i := range seqs {
		seqs[i] = make([][]float64, dims)
	}
	for iter := first; iter.Next(); {
		s := iter.Value()
		for d := 0; d < dims; d++ {
			seqs[s.Chain*2][d] = append(seqs[s.Chain*2][d], s.Point[d])
		}
	}
	for iter := hist.SecondHalf(); iter.Next(); {
		s := iter.Value()
		for d := 0; d < dims; d++ {
			seqs[s.Chain*2+1][d] = append(seqs[s.Chain*2+1][d], s.Point[d])
		}
	}

	rhat := make([]float64, dims)
	for d := 0; d < dims; d++ {
		means := make([]float64, 0, len(seqs))
		vars := make([]float64, 0, len(seqs))
		nTot := 0
		for _, seq := range seqs {
			vals := seq[d]
			if len(vals) < minSeqLen {
				continue
			}
			means = append(means, stat.Mean(vals, nil))
			vars = append(vars, stat.Variance(vals, nil))
			nTot += len(vals)
		}

		if len(means) < 2 {
			rhat[d] = math.Inf(1)
			continue
		}

		w := stat.Mean(vars, nil)
		if w < 1e-12 {
			// No in-chain spread: pinned dimension or fully stuck chains
			rhat[d] = 1.0
			continue
		}

		n := float64(nTot) / float64(len(means))
		varPlus := (n-1)/n*w + stat.Variance(means, nil)
		rhat[d] = math.Sqrt(varPlus / w)
	}

	return rhat
}
