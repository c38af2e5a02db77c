package sampler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPopulation(t *testing.T) {
	assert := assert.New(t)

	pop, err := NewPopulation(nil)
	assert.Nil(pop)
	assert.Error(err)

	pop, err = NewPopulation([][]float64{{1, 2}, {1, 2, 3}})
	assert.Nil(pop)
	assert.Error(err)

	pop, err = NewPopulation([][]float64{{1, 2}, {3, 4}, {5, 6}})
	assert.NoError(err)
	assert.Equal(3, pop.Len())
	assert.Equal(2, pop.Dims())
	assert.True(math.IsInf(pop.LogP(0), -1))
}

func TestPopulationSnapshot(t *testing.T) {
	assert := assert.New(t)

	pop, err := NewPopulation([][]float64{{1, 2}, {3, 4}, {5, 6}})
	assert.NoError(err)
	pop.SetLogP(0, -1)
	pop.SetLogP(1, -2)
	pop.SetLogP(2, -3)

	snap := pop.Snapshot()
	pop.Replace(0, []float64{9, 9}, -9)

	assert.Equal([]float64{1, 2}, snap.Point(0))
	assert.Equal(-1.0, snap.LogP(0))
	assert.Equal([]float64{9, 9}, pop.Point(0))

	assert.Equal(1, pop.Best()) // -2 beats -3 and -9
}

func TestPopulationVariances(t *testing.T) {
	assert := assert.New(t)

	pop, err := NewPopulation([][]float64{{0, 5}, {2, 5}, {4, 5}})
	assert.NoError(err)

	v := pop.variances()
	assert.InDelta(4.0, v[0], 1e-12)
	// Collapsed dimension gets the floor, never zero
	assert.Equal(1e-12, v[1])
}
