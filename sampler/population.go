package sampler

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// Population holds the current state of every chain: one parameter vector
// and one log-probability per chain. Chains are mutated only through
// Replace at the generation barrier; proposal generation works from a
// Snapshot so concurrent target evaluation never sees a moving population.
type Population struct {
	dims   int
	points [][]float64
	logps  []float64
}

// NewPopulation wraps the given points. Every vector must have the same
// dimension; log-probabilities start at -Inf until scored.
func NewPopulation(points [][]float64) (*Population, error) {
	if len(points) < 1 {
		return nil, errors.Errorf("A population requires at least one chain")
	}

	dims := len(points[0])
	logps := make([]float64, len(points))
	for i, x := range points {
		if len(x) != dims {
			return nil, errors.Errorf("Chain %d has %d dims, chain 0 has %d", i, len(x), dims)
		}
		logps[i] = math.Inf(-1)
	}

	return &Population{
		dims:   dims,
		points: points,
		logps:  logps,
	}, nil
}

// Len returns the number of chains.
func (p *Population) Len() int {
	return len(p.points)
}

// Dims returns the parameter vector length.
func (p *Population) Dims() int {
	return p.dims
}

// Point returns chain i's current vector. The slice is live: callers must
// treat it as read-only.
func (p *Population) Point(i int) []float64 {
	return p.points[i]
}

// LogP returns chain i's current log-probability.
func (p *Population) LogP(i int) float64 {
	return p.logps[i]
}

// LogPs returns a copy of all current log-probabilities.
func (p *Population) LogPs() []float64 {
	out := make([]float64, len(p.logps))
	copy(out, p.logps)
	return out
}

// Replace installs a new state for chain i.
func (p *Population) Replace(i int, x []float64, logp float64) {
	p.points[i] = x
	p.logps[i] = logp
}

// SetLogP updates chain i's score without moving it (used when scoring the
// initial population).
func (p *Population) SetLogP(i int, logp float64) {
	p.logps[i] = logp
}

// Snapshot returns a deep copy for the generation barrier.
func (p *Population) Snapshot() *Population {
	points := make([][]float64, len(p.points))
	for i, x := range p.points {
		cp := make([]float64, len(x))
		copy(cp, x)
		points[i] = cp
	}
	logps := make([]float64, len(p.logps))
	copy(logps, p.logps)

	return &Population{
		dims:   p.dims,
		points: points,
		logps:  logps,
	}
}

// Best returns the index of the chain with the highest log-probability.
func (p *Population) Best() int {
	best := 0
	for i, lp := range p.logps {
		if lp > p.logps[best] {
			best = i
		}
	}
	return best
}

// variances returns the per-dimension sample variance across chains, with
// a small floor so pinned or collapsed dimensions never divide by zero.
func (p *Population) variances() []float64 {
	const floor = 1e-12

	col := make([]float64, len(p.points))
	out := make([]float64, p.dims)
	for d := 0; d < p.dims; d++ {
		for i, x := range p.points {
			col[i] = x[d]
		}
		v := stat.Variance(col, nil)
		if math.IsNaN(v) || v < floor {
			v = floor
		}
		out[d] = v
	}
	return out
}
