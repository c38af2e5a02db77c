package sampler

import (
	"runtime"
	"time"
)

// Thinning selects which states are recorded to the posterior history.
type Thinning int

const (
	// RecordEveryGeneration records each chain's current state every
	// sampling generation, whether or not the proposal was accepted.
	RecordEveryGeneration Thinning = iota
	// RecordAcceptedOnly records a chain's state only on acceptance.
	RecordAcceptedOnly
)

// TerminationReason reports why a run ended.
type TerminationReason string

// Termination reasons. Cancellation is not an error: the history collected
// up to the cancelled generation is valid.
const (
	ReasonConverged       TerminationReason = "converged"
	ReasonBudgetExhausted TerminationReason = "budget-exhausted"
	ReasonCancelled       TerminationReason = "cancelled"
)

// Progress is a per-generation report delivered at the barrier: the phase,
// the best and quartile log-probabilities of the population, and the
// running acceptance rate. Mirrors the population trace a convergence plot
// wants.
type Progress struct {
	Generation int
	Sampling   bool
	Best       float64
	Quartiles  [5]float64 // min, Q1, median, Q3, max
	AcceptRate float64
	MaxRHat    float64
}

// ProgressFunc receives per-generation progress. It is called
// single-threaded at the generation barrier, so it must be fast and may
// not call back into the sampler.
type ProgressFunc func(p Progress)

// Config holds every run option. Zero values fall back to the defaults
// documented per field; fields noted as disable-able treat negative values
// as "off".
type Config struct {
	// Chains is the population size. Default max(8, 2*dims); minimum 3.
	Chains int
	// BurnIn is the generation count run before any state is recorded.
	// Default 200; negative for none.
	BurnIn int
	// Samples is the sampling generation count. Default 1000.
	Samples int
	// MaxRuntime caps wall-clock time, checked at generation boundaries.
	// Zero means no cap.
	MaxRuntime time.Duration
	// Seed drives every random draw of the run.
	Seed int64
	// Workers is the number of goroutines evaluating the target within a
	// generation. Default GOMAXPROCS.
	Workers int
	// Thin selects the history recording policy.
	Thin Thinning

	// CRValues overrides the crossover probability candidates. Default
	// i/CRCount for i=1..CRCount.
	CRValues []float64
	// CRCount sizes the default crossover table. Default 3.
	CRCount int
	// CRUpdateInterval is the generation count between crossover weight
	// renormalizations during burn-in. Default 10.
	CRUpdateInterval int
	// MaxPairs is the most chain pairs a differential-evolution jump may
	// sum. Default 3.
	MaxPairs int
	// SnookerProb is the chance a proposal uses a snooker move. Default
	// 0.1; negative to disable.
	SnookerProb float64
	// UnitJumpProb is the chance a differential-evolution jump uses the
	// full non-adaptive scale, letting chains hop between modes. Default
	// 0.05; negative to disable.
	UnitJumpProb float64
	// NoiseEps is the micro-noise added to jump dimensions so proposals
	// never degenerate. Default 1e-6.
	NoiseEps float64

	// OutlierInterval is the generation count between outlier checks.
	// Default 10; negative to disable.
	OutlierInterval int
	// OutlierWindow is the trailing generation count whose mean
	// log-probability feeds the outlier test. Default 20.
	OutlierWindow int
	// OutlierIQRMult flags chains below Q1 - mult*IQR. Default 2.
	OutlierIQRMult float64
	// MaxOutlierFrac caps the fraction of chains replaced per check.
	// Default 1/3.
	MaxOutlierFrac float64

	// ConvergenceInterval is the generation count between R-hat checks
	// during sampling. Default 20; negative to disable early stopping.
	ConvergenceInterval int
	// RHatThreshold is the convergence cutoff on max R-hat. Default 1.2.
	RHatThreshold float64
	// ConvergencePasses is the consecutive passing checks required.
	// Default 3.
	ConvergencePasses int
	// MinSamples is the fewest recorded samples required before the
	// engine may stop early on convergence. Default: a full history
	// window.
	MinSamples int
	// HistoryWindow is the generation count retained in the posterior
	// ring buffer. Default min(Samples, 400). Rounded up to an even count
	// so the window halves split on a generation boundary.
	HistoryWindow int

	// FailureWarnFrac marks the run degraded when the fraction of target
	// failures within one generation exceeds it. Default 0.5.
	FailureWarnFrac float64

	// Progress, when set, receives a report every generation.
	Progress ProgressFunc
}

// DefaultConfig returns the documented defaults for a problem of the given
// dimension.
func DefaultConfig(dims int) Config {
	cfg := Config{}
	cfg.fillDefaults(dims)
	return cfg
}

func (cfg *Config) fillDefaults(dims int) {
	if cfg.Chains == 0 {
		cfg.Chains = 2 * dims
		if cfg.Chains < 8 {
			cfg.Chains = 8
		}
	}
	if cfg.BurnIn == 0 {
		cfg.BurnIn = 200
	} else if cfg.BurnIn < 0 {
		cfg.BurnIn = 0
	}
	if cfg.Samples <= 0 {
		cfg.Samples = 1000
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}

	if cfg.CRCount <= 0 {
		cfg.CRCount = 3
	}
	if cfg.CRUpdateInterval <= 0 {
		cfg.CRUpdateInterval = 10
	}
	if cfg.MaxPairs <= 0 {
		cfg.MaxPairs = 3
	}
	if cfg.SnookerProb == 0 {
		cfg.SnookerProb = 0.1
	} else if cfg.SnookerProb < 0 {
		cfg.SnookerProb = 0
	}
	if cfg.UnitJumpProb == 0 {
		cfg.UnitJumpProb = 0.05
	} else if cfg.UnitJumpProb < 0 {
		cfg.UnitJumpProb = 0
	}
	if cfg.NoiseEps <= 0 {
		cfg.NoiseEps = 1e-6
	}

	if cfg.OutlierInterval == 0 {
		cfg.OutlierInterval = 10
	}
	if cfg.OutlierWindow <= 0 {
		cfg.OutlierWindow = 20
	}
	if cfg.OutlierIQRMult <= 0 {
		cfg.OutlierIQRMult = 2.0
	}
	if cfg.MaxOutlierFrac <= 0 || cfg.MaxOutlierFrac > 1 {
		cfg.MaxOutlierFrac = 1.0 / 3.0
	}

	if cfg.ConvergenceInterval == 0 {
		cfg.ConvergenceInterval = 20
	}
	if cfg.RHatThreshold <= 0 {
		cfg.RHatThreshold = 1.2
	}
	if cfg.ConvergencePasses <= 0 {
		cfg.ConvergencePasses = 3
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = cfg.Samples
		if cfg.HistoryWindow > 400 {
			cfg.HistoryWindow = 400
		}
	}
	if cfg.HistoryWindow%2 != 0 {
		// An odd window would make the ring buffer split its halves in
		// the middle of a generation
		cfg.HistoryWindow++
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = cfg.HistoryWindow * cfg.Chains
	}

	if cfg.FailureWarnFrac <= 0 || cfg.FailureWarnFrac > 1 {
		cfg.FailureWarnFrac = 0.5
	}
}
