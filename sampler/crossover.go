package sampler

import (
	"github.com/pkg/errors"

	"github.com/fitpack/dream/rand"
)

// weightFloor is the minimum selection weight (divided by table size) any
// crossover value may decay to, so every value keeps being explored.
const weightFloor = 0.1

// crossoverTable maintains a discrete distribution over candidate crossover
// probabilities. Proposals draw a value by weight; accepted proposals pay
// jump-distance credit back to the value they used; Adapt periodically
// renormalizes the weights from credit per use.
type crossoverTable struct {
	Values  []float64 // candidate crossover probabilities
	Weights []float64 // current selection weights, always sum to 1

	credit []float64 // accumulated normalized squared jump distance
	uses   []int64   // draws since last Adapt
}

// newCrossoverTable builds the default table of m values i/m for i=1..m
// with uniform selection weights.
func newCrossoverTable(m int) (*crossoverTable, error) {
	if m < 1 {
		return nil, errors.Errorf("Crossover table requires at least one value, got %d", m)
	}

	values := make([]float64, m)
	for i := range values {
		values[i] = float64(i+1) / float64(m)
	}
	return newCrossoverTableValues(values)
}

// newCrossoverTableValues builds a table over explicit candidate values.
func newCrossoverTableValues(values []float64) (*crossoverTable, error) {
	if len(values) < 1 {
		return nil, errors.Errorf("Crossover table requires at least one value")
	}
	for _, v := range values {
		if v <= 0 || v > 1 {
			return nil, errors.Errorf("Crossover probability %f outside (0, 1]", v)
		}
	}

	m := len(values)
	weights := make([]float64, m)
	for i := range weights {
		weights[i] = 1.0 / float64(m)
	}

	return &crossoverTable{
		Values:  values,
		Weights: weights,
		credit:  make([]float64, m),
		uses:    make([]int64, m),
	}, nil
}

// Sample draws a crossover value by the current selection weights.
func (ct *crossoverTable) Sample(gen *rand.Generator) (int, float64) {
	idx, err := gen.Choice(ct.Weights)
	if err != nil {
		// Weights always sum to 1 by construction
		idx = 0
	}
	ct.uses[idx]++
	return idx, ct.Values[idx]
}

// Credit records the normalized squared jump distance of an accepted
// proposal against the crossover value that produced it.
func (ct *crossoverTable) Credit(idx int, dist2 float64) {
	if idx < 0 || idx >= len(ct.credit) || dist2 < 0 {
		return
	}
	ct.credit[idx] += dist2
}

// Adapt renormalizes the selection weights proportional to credit per use,
// floored so no value collapses to zero, then resets the accumulators. The
// weights themselves persist across calls. A table with no credit at all
// is left unchanged.
func (ct *crossoverTable) Adapt() {
	m := len(ct.Values)

	total := 0.0
	raw := make([]float64, m)
	for i := range raw {
		if ct.uses[i] > 0 {
			raw[i] = ct.credit[i] / float64(ct.uses[i])
		}
		total += raw[i]
	}

	if total > 0 {
		floor := weightFloor / float64(m)
		sum := 0.0
		for i := range raw {
			w := raw[i] / total
			if w < floor {
				w = floor
			}
			ct.Weights[i] = w
			sum += w
		}
		for i := range ct.Weights {
			ct.Weights[i] /= sum
		}
	}

	for i := range ct.credit {
		ct.credit[i] = 0
		ct.uses[i] = 0
	}
}
