package sampler

import (
	"math"

	"github.com/fitpack/dream/param"
	"github.com/fitpack/dream/rand"
)

// proposalKind tags the closed set of proposal strategies.
type proposalKind int

const (
	kindDiffEvo proposalKind = iota
	kindSnooker
	kindNoise
)

// A proposal is one candidate point plus the bookkeeping the barrier step
// needs: which crossover value produced it (negative when the crossover
// table was not involved) and the asymmetry correction for the Metropolis
// log-ratio (snooker moves are not symmetric).
type proposal struct {
	point []float64
	kind  proposalKind
	crIdx int
	logQ  float64
}

// proposer builds candidate points for each chain from an immutable
// snapshot of the population. It holds no per-chain state: all randomness
// comes from the chain's own Generator, so proposals are reproducible
// regardless of evaluation parallelism.
type proposer struct {
	space    *param.Space
	ct       *crossoverTable
	freeIdx  []int // non-pinned dimensions
	maxPairs int
	snookerP float64
	unitP    float64
	eps      float64
}

func newProposer(space *param.Space, ct *crossoverTable, maxPairs int, snookerP, unitP, eps float64) *proposer {
	free := make([]int, 0, space.Dims())
	for d, p := range space.Params {
		if !p.Pinned() {
			free = append(free, d)
		}
	}

	return &proposer{
		space:    space,
		ct:       ct,
		freeIdx:  free,
		maxPairs: maxPairs,
		snookerP: snookerP,
		unitP:    unitP,
		eps:      eps,
	}
}

// Propose returns a candidate for the given chain. Strategy selection is a
// fixed cascade: occasional snooker move, differential evolution when the
// population is large enough, pure-noise fallback otherwise.
func (pr *proposer) Propose(snap *Population, chain int, gen *rand.Generator) *proposal {
	if len(pr.freeIdx) < 1 {
		// Every dimension pinned: nothing can move
		cur := make([]float64, snap.Dims())
		copy(cur, snap.Point(chain))
		return &proposal{point: cur, kind: kindNoise, crIdx: -1}
	}

	if pr.snookerP > 0 && gen.Float64() < pr.snookerP {
		if p := pr.snooker(snap, chain, gen); p != nil {
			return p
		}
	}
	if p := pr.diffEvo(snap, chain, gen); p != nil {
		return p
	}
	return pr.noise(snap, chain, gen)
}

// diffEvo builds a differential-evolution jump: the sum of 1-3 chain-pair
// differences, applied to a random subspace of dimensions chosen by the
// adapted crossover probability. Returns nil when too few chains exist for
// even a single pair.
func (pr *proposer) diffEvo(snap *Population, chain int, gen *rand.Generator) *proposal {
	n := snap.Len()

	pairs := 1 + gen.Intn(pr.maxPairs)
	for pairs > 1 && 2*pairs > n-1 {
		pairs--
	}
	if 2*pairs > n-1 {
		return nil
	}

	idxs, err := gen.PermK(n, 2*pairs, chain)
	if err != nil {
		return nil
	}

	crIdx, cr := pr.ct.Sample(gen)

	// Pick the participating subspace. Guarantee at least one dimension:
	// resample a few times, then force a single random free dimension.
	dims := snap.Dims()
	include := make([]bool, dims)
	selected := 0
	for attempt := 0; attempt < 10; attempt++ {
		selected = 0
		for _, d := range pr.freeIdx {
			include[d] = gen.Float64() < cr
			if include[d] {
				selected++
			}
		}
		if selected > 0 {
			break
		}
	}
	if selected == 0 {
		include[pr.freeIdx[gen.Intn(len(pr.freeIdx))]] = true
		selected = 1
	}

	gamma := 2.38 / math.Sqrt(2*float64(pairs*selected))
	if gen.Float64() < pr.unitP {
		// Occasional full-size jump so chains can hop between modes
		gamma = 1.0
	}

	cur := snap.Point(chain)
	y := make([]float64, dims)
	copy(y, cur)
	for d := 0; d < dims; d++ {
		if !include[d] {
			continue
		}
		sum := 0.0
		for p := 0; p < pairs; p++ {
			sum += snap.Point(idxs[2*p])[d] - snap.Point(idxs[2*p+1])[d]
		}
		y[d] = cur[d] + gamma*sum + pr.eps*gen.Norm(0, 1)
	}
	pr.space.Fold(y)

	return &proposal{point: y, kind: kindDiffEvo, crIdx: crIdx}
}

// snooker builds a snooker move: a jump along the line from the current
// point through a random anchor chain, sized by the projected separation of
// two further chains. The move is asymmetric, so the proposal carries a
// log-ratio correction. Returns nil when the geometry degenerates.
func (pr *proposer) snooker(snap *Population, chain int, gen *rand.Generator) *proposal {
	n := snap.Len()
	if n < 4 {
		return nil
	}

	idxs, err := gen.PermK(n, 3, chain)
	if err != nil {
		return nil
	}

	cur := snap.Point(chain)
	anchor := snap.Point(idxs[0])
	z1 := snap.Point(idxs[1])
	z2 := snap.Point(idxs[2])

	dims := snap.Dims()
	dir := make([]float64, dims)
	norm2 := 0.0
	for d := 0; d < dims; d++ {
		dir[d] = anchor[d] - cur[d]
		norm2 += dir[d] * dir[d]
	}
	if norm2 < 1e-300 {
		return nil
	}

	// Projected separation of z1 and z2 along the line
	proj := 0.0
	for d := 0; d < dims; d++ {
		proj += (z1[d] - z2[d]) * dir[d]
	}
	proj /= norm2

	gamma := gen.Uniform(1.2, 2.2)
	y := make([]float64, dims)
	for d := 0; d < dims; d++ {
		y[d] = cur[d] + gamma*proj*dir[d]
	}
	pr.space.Fold(y)

	distOld := distance(cur, anchor)
	distNew := distance(y, anchor)
	if distNew < 1e-300 || distOld < 1e-300 {
		return nil
	}

	df := float64(len(pr.freeIdx))
	logQ := (df - 1) * (math.Log(distNew) - math.Log(distOld))

	return &proposal{point: y, kind: kindSnooker, crIdx: -1, logQ: logQ}
}

// noise is the degenerate-proposal fallback: a small symmetric perturbation
// of the current point. Always succeeds.
func (pr *proposer) noise(snap *Population, chain int, gen *rand.Generator) *proposal {
	cur := snap.Point(chain)
	y := make([]float64, snap.Dims())
	copy(y, cur)
	for _, d := range pr.freeIdx {
		y[d] = cur[d] + gen.Norm(0, noiseScale(pr.space.Params[d], cur[d]))
	}
	pr.space.Fold(y)

	return &proposal{point: y, kind: kindNoise, crIdx: -1}
}

// noiseScale sizes fallback noise from the parameter range when it is
// finite and from the value's own magnitude otherwise.
func noiseScale(p *param.Param, v float64) float64 {
	if !math.IsInf(p.Lower, -1) && !math.IsInf(p.Upper, 1) {
		return 1e-3 * p.Range()
	}
	return 1e-3 * (1 + math.Abs(v))
}

func distance(a []float64, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return math.Sqrt(s)
}

// jumpDist2 returns the squared jump distance normalized by per-dimension
// population variance, the credit paid to the crossover table on accept.
func jumpDist2(from []float64, to []float64, variances []float64) float64 {
	s := 0.0
	for d := range from {
		dv := to[d] - from[d]
		s += dv * dv / variances[d]
	}
	return s
}
