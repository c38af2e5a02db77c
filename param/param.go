package param

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/fitpack/dream/rand"
)

// A Param is one free model parameter: hard inclusive bounds (possibly
// infinite) plus an optional soft constraint that penalizes values outside
// a preferred interval in the log-prior. Equal bounds pin the parameter.
type Param struct {
	Name  string
	Lower float64
	Upper float64

	// Soft constraint: when Weight > 0, values outside [SoftLower,
	// SoftUpper] cost Weight * excess^2 in the log-prior.
	SoftLower float64
	SoftUpper float64
	Weight    float64
}

// Uniform returns a parameter with hard bounds and no soft constraint.
func Uniform(name string, lower float64, upper float64) *Param {
	return &Param{Name: name, Lower: lower, Upper: upper}
}

// Pinned is true when the bounds fix the parameter to a single value.
func (p *Param) Pinned() bool {
	return p.Lower == p.Upper
}

// Range returns Upper - Lower (may be +Inf).
func (p *Param) Range() float64 {
	return p.Upper - p.Lower
}

// A Space binds an ordered set of parameters to the flat real vector the
// sampler operates on. Dimension i of every vector is Params[i].
type Space struct {
	Params []*Param
}

// NewSpace validates the parameter set and returns the binding. Bound
// violations are configuration errors and are surfaced before any sampling
// can run.
func NewSpace(params []*Param) (*Space, error) {
	if len(params) < 1 {
		return nil, errors.Errorf("A space requires at least one parameter")
	}

	for i, p := range params {
		if p == nil {
			return nil, errors.Errorf("Parameter %d is nil", i)
		}
		if len(p.Name) < 1 {
			p.Name = fmt.Sprintf("p%d", i)
		}
		if math.IsNaN(p.Lower) || math.IsNaN(p.Upper) {
			return nil, errors.Errorf("Parameter %s has NaN bounds", p.Name)
		}
		if p.Lower > p.Upper {
			return nil, errors.Errorf("Parameter %s has lower bound %f > upper bound %f", p.Name, p.Lower, p.Upper)
		}
		if p.Weight < 0 {
			return nil, errors.Errorf("Parameter %s has negative constraint weight %f", p.Name, p.Weight)
		}
		if p.Weight > 0 && p.SoftLower > p.SoftUpper {
			return nil, errors.Errorf("Parameter %s has inverted soft interval [%f, %f]", p.Name, p.SoftLower, p.SoftUpper)
		}
	}

	return &Space{Params: params}, nil
}

// Dims returns the dimension of the bound vector space.
func (s *Space) Dims() int {
	return len(s.Params)
}

// Bounds returns copies of the lower and upper bound vectors.
func (s *Space) Bounds() ([]float64, []float64) {
	lower := make([]float64, len(s.Params))
	upper := make([]float64, len(s.Params))
	for i, p := range s.Params {
		lower[i] = p.Lower
		upper[i] = p.Upper
	}
	return lower, upper
}

// Fold reflects x into bounds in place. Reflection (rather than clipping)
// keeps proposal symmetry approximately intact; values that land exactly on
// a bound stay there. Pinned dimensions are forced to the pinned value and
// non-finite entries fall back to the nearest bound.
func (s *Space) Fold(x []float64) {
	for i, p := range s.Params {
		x[i] = foldOne(x[i], p.Lower, p.Upper)
	}
}

func foldOne(v float64, lo float64, hi float64) float64 {
	if lo == hi {
		return lo
	}

	if math.IsNaN(v) {
		switch {
		case !math.IsInf(lo, -1):
			return lo
		case !math.IsInf(hi, 1):
			return hi
		default:
			return 0
		}
	}

	loFin := !math.IsInf(lo, -1)
	hiFin := !math.IsInf(hi, 1)

	if loFin && hiFin {
		if v >= lo && v <= hi {
			return v
		}
		// Fold into [lo, hi] with a single triangle-wave evaluation instead
		// of iterated reflection, so huge overshoots stay O(1)
		r := hi - lo
		y := math.Mod(v-lo, 2*r)
		if y < 0 {
			y += 2 * r
		}
		if y > r {
			y = 2*r - y
		}
		return lo + y
	}

	if loFin && v < lo {
		if math.IsInf(v, -1) {
			return lo
		}
		return 2*lo - v
	}
	if hiFin && v > hi {
		if math.IsInf(v, 1) {
			return hi
		}
		return 2*hi - v
	}
	return v
}

// InBounds reports whether every dimension of x lies within its inclusive
// bounds.
func (s *Space) InBounds(x []float64) bool {
	for i, p := range s.Params {
		if x[i] < p.Lower || x[i] > p.Upper || math.IsNaN(x[i]) {
			return false
		}
	}
	return true
}

// LogPrior returns the soft-constraint contribution to the log-probability:
// zero when every constrained parameter sits inside its soft interval,
// negative quadratic penalties otherwise.
func (s *Space) LogPrior(x []float64) float64 {
	logp := 0.0
	for i, p := range s.Params {
		if p.Weight <= 0 {
			continue
		}
		if x[i] < p.SoftLower {
			d := p.SoftLower - x[i]
			logp -= p.Weight * d * d
		} else if x[i] > p.SoftUpper {
			d := x[i] - p.SoftUpper
			logp -= p.Weight * d * d
		}
	}
	return logp
}

// jitterSD is the relative scale used when replicating initial vectors.
const jitterSD = 1e-4

// Init builds an initial population of n vectors from the caller-supplied
// base vectors. A deficit is filled by replicating the supplied vectors
// with small jitter; an empty base draws uniformly inside finite bounds
// (standard normal for unbounded dimensions). Supplying more than n vectors
// is an error.
func (s *Space) Init(n int, base [][]float64, gen *rand.Generator) ([][]float64, error) {
	if n < 1 {
		return nil, errors.Errorf("Population size %d is invalid", n)
	}
	if len(base) > n {
		return nil, errors.Errorf("Got %d initial vectors for %d chains", len(base), n)
	}

	dims := s.Dims()
	pop := make([][]float64, 0, n)

	for i, b := range base {
		if len(b) != dims {
			return nil, errors.Errorf("Initial vector %d has %d dims, space has %d", i, len(b), dims)
		}
		x := make([]float64, dims)
		for d, v := range b {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.Errorf("Initial vector %d has non-finite value at dim %d", i, d)
			}
			x[d] = v
		}
		s.Fold(x)
		pop = append(pop, x)
	}

	for len(pop) < n {
		x := make([]float64, dims)
		if len(base) > 0 {
			src := pop[len(pop)%len(base)]
			for d, p := range s.Params {
				x[d] = src[d] + gen.Norm(0, jitterSD*jitterScale(p, src[d]))
			}
		} else {
			for d, p := range s.Params {
				switch {
				case p.Pinned():
					x[d] = p.Lower
				case !math.IsInf(p.Lower, -1) && !math.IsInf(p.Upper, 1):
					x[d] = gen.Uniform(p.Lower, p.Upper)
				default:
					x[d] = gen.Norm(0, 1)
				}
			}
		}
		s.Fold(x)
		pop = append(pop, x)
	}

	return pop, nil
}

// jitterScale returns an absolute scale for perturbing the given value: the
// parameter range when finite, otherwise proportional to the value itself.
func jitterScale(p *Param, v float64) float64 {
	if p.Pinned() {
		return 0
	}
	if !math.IsInf(p.Lower, -1) && !math.IsInf(p.Upper, 1) {
		return p.Range()
	}
	return 1 + math.Abs(v)
}
