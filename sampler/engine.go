package sampler

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/fitpack/dream/buffer"
	"github.com/fitpack/dream/param"
	"github.com/fitpack/dream/rand"
)

// Diagnostics summarizes a finished run.
type Diagnostics struct {
	Reason         TerminationReason `json:"reason"`
	Seed           int64             `json:"seed"`
	Chains         int               `json:"chains"`
	Dims           int               `json:"dims"`
	Generations    int               `json:"generations"`
	Proposed       int64             `json:"proposed"`
	Accepted       int64             `json:"accepted"`
	AcceptRate     float64           `json:"acceptRate"`
	TargetFailures int64             `json:"targetFailures"`
	DegradedTarget bool              `json:"degradedTarget"`
	OutlierSwaps   int64             `json:"outlierSwaps"`
	RHat           []float64         `json:"rhat,omitempty"`
	Converged      bool              `json:"converged"`
	Elapsed        time.Duration     `json:"elapsed"`
}

// Result is a finished run: the retained posterior window oldest-first,
// plus summary diagnostics.
type Result struct {
	Samples []buffer.Sample
	Diag    Diagnostics
}

// Sampler is the DREAM engine: it orchestrates generations of
// differential-evolution Metropolis updates over a population of chains,
// adapting crossover weights during burn-in, replacing outlier chains, and
// watching the split-chain R-hat for early convergence. A Sampler runs
// exactly once.
type Sampler struct {
	cfg    Config
	space  *param.Space
	target Target

	master *rand.Generator
	gens   []*rand.Generator // one private stream per chain

	pop  *Population
	hist *buffer.CircularSample
	prop *proposer
	ct   *crossoverTable
	out  *outlierCheck
	conv *Convergence

	proposed int64
	accepted int64
	failures int64
	swaps    int64
	recorded int64
	degraded bool
	ran      bool
}

// NewSampler validates the configuration, seeds the population from the
// caller's initial vectors (jitter-replicated to fill any deficit), and
// returns an engine ready to Run. All configuration problems surface here,
// before any generation can execute.
func NewSampler(space *param.Space, target Target, init [][]float64, cfg Config) (*Sampler, error) {
	if space == nil {
		return nil, errors.Errorf("A parameter space is required")
	}
	if target == nil {
		return nil, errors.Errorf("A target function is required")
	}

	cfg.fillDefaults(space.Dims())
	if cfg.Chains < 3 {
		return nil, errors.Errorf("At least 3 chains required, got %d", cfg.Chains)
	}

	master, err := rand.NewGenerator(cfg.Seed)
	if err != nil {
		return nil, errors.Wrap(err, "Could not create master random stream")
	}

	points, err := space.Init(cfg.Chains, init, master)
	if err != nil {
		return nil, errors.Wrap(err, "Could not build initial population")
	}
	pop, err := NewPopulation(points)
	if err != nil {
		return nil, errors.Wrap(err, "Could not build initial population")
	}

	var ct *crossoverTable
	if len(cfg.CRValues) > 0 {
		ct, err = newCrossoverTableValues(cfg.CRValues)
	} else {
		ct, err = newCrossoverTable(cfg.CRCount)
	}
	if err != nil {
		return nil, errors.Wrap(err, "Could not build crossover table")
	}

	gens := make([]*rand.Generator, cfg.Chains)
	for i := range gens {
		gens[i] = master.Fork(i)
	}

	s := &Sampler{
		cfg:    cfg,
		space:  space,
		target: target,
		master: master,
		gens:   gens,
		pop:    pop,
		hist:   buffer.NewCircularSample(cfg.HistoryWindow * cfg.Chains),
		ct:     ct,
		out:    newOutlierCheck(cfg.Chains, cfg.OutlierWindow, cfg.OutlierIQRMult, cfg.MaxOutlierFrac),
		conv:   newConvergence(cfg.RHatThreshold, cfg.ConvergencePasses, space.Dims()),
	}
	s.prop = newProposer(space, ct, cfg.MaxPairs, cfg.SnookerProb, cfg.UnitJumpProb, cfg.NoiseEps)

	return s, nil
}

// Run executes the engine until its generation budget is exhausted, its
// wall-clock budget expires, convergence is sustained past the minimum
// sample floor, or the context is cancelled. Cancellation is checked at
// generation boundaries only; the partial history returned for a cancelled
// run is valid.
func (s *Sampler) Run(ctx context.Context) (*Result, error) {
	if s.ran {
		return nil, errors.Errorf("A Sampler may only run once")
	}
	s.ran = true

	start := time.Now()
	s.scoreInitial()

	total := s.cfg.BurnIn + s.cfg.Samples
	reason := ReasonBudgetExhausted
	converged := false
	completed := 0

	for g := 0; g < total; g++ {
		if ctx.Err() != nil {
			reason = ReasonCancelled
			break
		}
		if s.cfg.MaxRuntime > 0 && time.Since(start) >= s.cfg.MaxRuntime {
			break
		}

		sampling := g >= s.cfg.BurnIn
		s.step(g, sampling)
		completed++

		done := g + 1
		if !sampling && done%s.cfg.CRUpdateInterval == 0 {
			s.ct.Adapt()
		}
		if s.cfg.OutlierInterval > 0 && done%s.cfg.OutlierInterval == 0 {
			s.replaceOutliers()
		}
		if sampling && s.cfg.ConvergenceInterval > 0 && done%s.cfg.ConvergenceInterval == 0 {
			if rhat := splitRHat(s.hist, s.cfg.Chains, s.pop.Dims()); rhat != nil {
				sustained := s.conv.Observe(rhat)
				if sustained && s.recorded >= int64(s.cfg.MinSamples) {
					converged = true
				}
			}
		}

		if s.cfg.Progress != nil {
			s.cfg.Progress(s.progress(g, sampling))
		}

		if converged {
			reason = ReasonConverged
			break
		}
	}

	diag := Diagnostics{
		Reason:         reason,
		Seed:           s.cfg.Seed,
		Chains:         s.cfg.Chains,
		Dims:           s.pop.Dims(),
		Generations:    completed,
		Proposed:       s.proposed,
		Accepted:       s.accepted,
		TargetFailures: s.failures,
		DegradedTarget: s.degraded,
		OutlierSwaps:   s.swaps,
		RHat:           s.conv.RHat,
		Converged:      converged,
		Elapsed:        time.Since(start),
	}
	if s.proposed > 0 {
		diag.AcceptRate = float64(s.accepted) / float64(s.proposed)
	}

	return &Result{
		Samples: s.hist.Snapshot(),
		Diag:    diag,
	}, nil
}

// scoreInitial evaluates the target over the starting population. Nothing
// is recorded to history: burn-in has not started yet.
func (s *Sampler) scoreInitial() {
	n := s.pop.Len()
	logps := make([]float64, n)
	failed := make([]bool, n)

	s.parallel(n, func(c int) {
		logps[c], failed[c] = s.eval(s.pop.Point(c))
	})

	for c := 0; c < n; c++ {
		if failed[c] {
			s.failures++
		}
		s.pop.SetLogP(c, logps[c])
	}
}

// step runs one generation: proposals from an immutable snapshot, parallel
// target evaluation, then a single-threaded barrier applying accept/reject,
// history recording, and crossover credit.
func (s *Sampler) step(genNum int, sampling bool) {
	snap := s.pop.Snapshot()
	variances := snap.variances()

	n := s.pop.Len()
	props := make([]*proposal, n)
	for c := 0; c < n; c++ {
		props[c] = s.prop.Propose(snap, c, s.gens[c])
	}

	logps := make([]float64, n)
	failed := make([]bool, n)
	s.parallel(n, func(c int) {
		logps[c], failed[c] = s.eval(props[c].point)
	})

	genFailures := 0
	for c := 0; c < n; c++ {
		s.proposed++
		if failed[c] {
			s.failures++
			genFailures++
		}

		if metropolisAccept(s.gens[c], snap.LogP(c), logps[c], props[c].logQ) {
			s.accepted++
			if !sampling && props[c].crIdx >= 0 {
				s.ct.Credit(props[c].crIdx, jumpDist2(snap.Point(c), props[c].point, variances))
			}
			s.pop.Replace(c, props[c].point, logps[c])

			if sampling {
				s.record(genNum, c)
			}
		} else if sampling && s.cfg.Thin == RecordEveryGeneration {
			s.record(genNum, c)
		}
	}

	s.out.Record(s.pop.LogPs())

	if float64(genFailures) > s.cfg.FailureWarnFrac*float64(n) {
		s.degraded = true
	}
}

// record appends chain c's current state to the posterior history. Point
// slices are never mutated in place, so storing the live slice is safe.
func (s *Sampler) record(genNum int, c int) {
	s.hist.Add(buffer.Sample{
		Generation: genNum,
		Chain:      c,
		Point:      s.pop.Point(c),
		LogP:       s.pop.LogP(c),
	})
	s.recorded++
}

// eval scores a candidate: target log-probability plus the space's
// soft-constraint log-prior. Failures come back as -Inf.
func (s *Sampler) eval(x []float64) (float64, bool) {
	logp, failed := safeEval(s.target, x)
	if failed || math.IsInf(logp, -1) {
		return math.Inf(-1), failed
	}
	return logp + s.space.LogPrior(x), false
}

// parallel runs fn(0..n-1) across the configured worker count and waits
// for all of them. With one worker it degenerates to a plain loop.
func (s *Sampler) parallel(n int, fn func(int)) {
	workers := s.cfg.Workers
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	idx := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range idx {
				fn(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		idx <- i
	}
	close(idx)
	wg.Wait()
}

// replaceOutliers reinitializes flagged chains from the current best chain
// plus small noise. Replaced chains get a fresh trailing window so they are
// not immediately re-flagged.
func (s *Sampler) replaceOutliers() {
	flagged := s.out.Check()
	if len(flagged) < 1 {
		return
	}

	best := s.pop.Best()
	src := s.pop.Point(best)

	for _, c := range flagged {
		if c == best {
			continue
		}

		x := make([]float64, len(src))
		copy(x, src)
		for d, p := range s.space.Params {
			if p.Pinned() {
				continue
			}
			x[d] += s.gens[c].Norm(0, noiseScale(p, x[d]))
		}
		s.space.Fold(x)

		logp, failed := s.eval(x)
		if failed {
			s.failures++
		}
		s.pop.Replace(c, x, logp)
		s.out.Reset(c, logp)
		s.swaps++
	}
}

// progress builds the per-generation report from the population's current
// log-probability distribution.
func (s *Sampler) progress(genNum int, sampling bool) Progress {
	logps := s.pop.LogPs()
	sort.Float64s(logps)

	p := Progress{
		Generation: genNum,
		Sampling:   sampling,
		Best:       logps[len(logps)-1],
		MaxRHat:    s.conv.MaxRHat(),
	}
	p.Quartiles[0] = logps[0]
	p.Quartiles[1] = stat.Quantile(0.25, stat.Empirical, logps, nil)
	p.Quartiles[2] = stat.Quantile(0.5, stat.Empirical, logps, nil)
	p.Quartiles[3] = stat.Quantile(0.75, stat.Empirical, logps, nil)
	p.Quartiles[4] = logps[len(logps)-1]
	if s.proposed > 0 {
		p.AcceptRate = float64(s.accepted) / float64(s.proposed)
	}
	return p
}
