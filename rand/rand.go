package rand

import (
	"math"

	"github.com/pkg/errors"
	"github.com/seehuhn/mt19937"
	"gonum.org/v1/gonum/stat/distuv"
)

// mtSource adapts *mt19937.MT19937 to the rand source interface used by
// gonum's distuv (its Seed takes a uint64, mt19937's takes an int64).
type mtSource struct {
	*mt19937.MT19937
}

func (s mtSource) Seed(seed uint64) {
	s.MT19937.Seed(int64(seed))
}

// A Generator is a seedable Mersenne twister wrapped with the draw kinds
// the samplers need. A Generator is NOT safe for concurrent use: fork one
// stream per chain instead of sharing.
type Generator struct {
	seed int64
	mt   *mt19937.MT19937
	norm distuv.Normal
}

// NewGenerator returns a deterministic generator for the given seed. Equal
// seeds always produce equal draw sequences.
func NewGenerator(seed int64) (*Generator, error) {
	mt := mt19937.New()
	mt.Seed(seed)

	g := &Generator{
		seed: seed,
		mt:   mt,
	}
	g.norm = distuv.Normal{Mu: 0.0, Sigma: 1.0, Src: mtSource{mt}}

	return g, nil
}

// NewGeneratorSlice returns a generator seeded from a key array (matches
// the canonical mt19937-64 init_by_array test vectors).
func NewGeneratorSlice(key []uint64) (*Generator, error) {
	if len(key) < 1 {
		return nil, errors.Errorf("Seed slice must have at least one value")
	}

	mt := mt19937.New()
	mt.SeedFromSlice(key)

	g := &Generator{
		seed: int64(key[0]),
		mt:   mt,
	}
	g.norm = distuv.Normal{Mu: 0.0, Sigma: 1.0, Src: mtSource{mt}}

	return g, nil
}

// Seed returns the seed the generator was created with.
func (g *Generator) Seed() int64 {
	return g.seed
}

// Fork returns an independent stream derived from this generator's seed and
// the given index. Forking does not advance the parent stream, so a master
// generator plus per-chain forks stay reproducible under parallel runs.
func (g *Generator) Fork(idx int) *Generator {
	s := splitmix64(uint64(g.seed)) ^ splitmix64(uint64(idx)+0x9e3779b97f4a7c15)
	f, _ := NewGenerator(int64(splitmix64(s)))
	return f
}

// splitmix64 scrambles fork seeds so nearby (seed, idx) pairs yield
// unrelated streams.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// Int63 provides the same interface as Go's math/rand.
func (g *Generator) Int63() int64 {
	return g.mt.Int63()
}

// Int63n is a copy of the current Go code
func (g *Generator) Int63n(n int64) int64 {
	if n <= 0 {
		panic("invalid argument to Int63n")
	}

	if n&(n-1) == 0 { // n is power of two, can mask
		return g.Int63() & (n - 1)
	}

	max := int64((1 << 63) - 1 - (1<<63)%uint64(n))
	v := g.Int63()
	for v > max {
		v = g.Int63()
	}

	return v % n
}

// Int31 is just a copy of the golang impl
func (g *Generator) Int31() int32 {
	return int32(g.Int63() >> 32)
}

// Int31n is just a copy of the golang impL
func (g *Generator) Int31n(n int32) int32 {
	if n <= 0 {
		panic("invalid argument to Int31n")
	}

	if n&(n-1) == 0 { // n is power of two, can mask
		return g.Int31() & (n - 1)
	}

	max := int32((1 << 31) - 1 - (1<<31)%uint32(n))
	v := g.Int31()

	for v > max {
		v = g.Int31()
	}

	return v % n
}

// Intn returns an int in [0, n).
func (g *Generator) Intn(n int) int {
	return int(g.Int63n(int64(n)))
}

// Float64 uses the commented, simpler implmentation since we don't have the
// same support requirements for users
func (g *Generator) Float64() float64 {
	// See the Go lang comments for Rand Float64 implementation for details
	return float64(g.Int63n(1<<53)) / (1 << 53)
}

// Uniform returns a draw from U(low, high).
func (g *Generator) Uniform(low float64, high float64) float64 {
	return low + (high-low)*g.Float64()
}

// Norm returns a draw from a normal distribution with the given mean and
// standard deviation.
func (g *Generator) Norm(mean float64, sd float64) float64 {
	return mean + sd*g.norm.Rand()
}

// Choice returns an index drawn from the given weights. The weights need
// not be normalized but must be non-negative with a positive sum.
func (g *Generator) Choice(weights []float64) (int, error) {
	if len(weights) < 1 {
		return -1, errors.Errorf("Can not choose from empty weights")
	}

	tot := 0.0
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return -1, errors.Errorf("Invalid weight %f at index %d", w, i)
		}
		tot += w
	}
	if tot <= 0 {
		return -1, errors.Errorf("Weights sum to %f - nothing to choose", tot)
	}

	r := g.Float64() * tot
	for i, w := range weights {
		r -= w
		if r < 0 {
			return i, nil
		}
	}

	// Possible via float round off: fall back to last positive weight
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i, nil
		}
	}
	return len(weights) - 1, nil
}

// PermK returns k distinct indices drawn without replacement from [0, n),
// never including exclude (pass a negative exclude to allow all indices).
// Uses a partial Fisher-Yates shuffle.
func (g *Generator) PermK(n int, k int, exclude int) ([]int, error) {
	avail := n
	if exclude >= 0 && exclude < n {
		avail--
	}
	if k < 0 || k > avail {
		return nil, errors.Errorf("Can not draw %d distinct indices from %d available", k, avail)
	}

	idx := make([]int, 0, avail)
	for i := 0; i < n; i++ {
		if i != exclude {
			idx = append(idx, i)
		}
	}

	for i := 0; i < k; i++ {
		j := i + g.Intn(avail-i)
		idx[i], idx[j] = idx[j], idx[i]
	}

	return idx[:k], nil
}
