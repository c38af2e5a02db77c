package param

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fitpack/dream/rand"
)

func TestNewSpaceValidation(t *testing.T) {
	assert := assert.New(t)

	sp, err := NewSpace(nil)
	assert.Nil(sp)
	assert.Error(err)

	sp, err = NewSpace([]*Param{Uniform("a", 2, 1)})
	assert.Nil(sp)
	assert.Error(err)

	sp, err = NewSpace([]*Param{{Name: "a", Lower: math.NaN(), Upper: 1}})
	assert.Nil(sp)
	assert.Error(err)

	sp, err = NewSpace([]*Param{{Name: "a", Lower: 0, Upper: 1, Weight: -1}})
	assert.Nil(sp)
	assert.Error(err)

	sp, err = NewSpace([]*Param{
		Uniform("", -1, 1),
		Uniform("width", 0, math.Inf(1)),
		Uniform("pin", 3, 3),
	})
	assert.NoError(err)
	assert.Equal(3, sp.Dims())
	assert.Equal("p0", sp.Params[0].Name)
	assert.True(sp.Params[2].Pinned())

	lower, upper := sp.Bounds()
	assert.Equal([]float64{-1, 0, 3}, lower)
	assert.Equal([]float64{1, math.Inf(1), 3}, upper)
}

func TestFold(t *testing.T) {
	assert := assert.New(t)

	sp, err := NewSpace([]*Param{
		Uniform("a", 0, 1),
		Uniform("b", 0, math.Inf(1)),
		Uniform("pin", 2, 2),
		Uniform("free", math.Inf(-1), math.Inf(1)),
	})
	assert.NoError(err)

	x := []float64{1.25, -0.5, 99, -12.5}
	sp.Fold(x)
	assert.InDelta(0.75, x[0], 1e-12)
	assert.InDelta(0.5, x[1], 1e-12)
	assert.Equal(2.0, x[2])
	assert.Equal(-12.5, x[3])
	assert.True(sp.InBounds(x))

	// Huge overshoot still folds into range
	x = []float64{1e9 + 0.25, 1, 2, 0}
	sp.Fold(x)
	assert.True(x[0] >= 0 && x[0] <= 1)

	// Non-finite input falls back to a bound
	x = []float64{math.NaN(), math.Inf(-1), 2, 0}
	sp.Fold(x)
	assert.Equal(0.0, x[0])
	assert.Equal(0.0, x[1])
	assert.True(sp.InBounds(x))

	// In-bounds values are untouched
	x = []float64{0.5, 3.25, 2, 7}
	sp.Fold(x)
	assert.Equal([]float64{0.5, 3.25, 2, 7}, x)
}

func TestLogPrior(t *testing.T) {
	assert := assert.New(t)

	sp, err := NewSpace([]*Param{
		{Name: "a", Lower: -10, Upper: 10, SoftLower: -1, SoftUpper: 1, Weight: 2},
		Uniform("b", -10, 10),
	})
	assert.NoError(err)

	assert.Equal(0.0, sp.LogPrior([]float64{0.5, 9}))
	assert.Equal(0.0, sp.LogPrior([]float64{-1, 0}))
	assert.InDelta(-2.0, sp.LogPrior([]float64{2, 0}), 1e-12)
	assert.InDelta(-8.0, sp.LogPrior([]float64{-3, 0}), 1e-12)
}

func TestInit(t *testing.T) {
	assert := assert.New(t)

	gen, err := rand.NewGenerator(42)
	assert.NoError(err)

	sp, err := NewSpace([]*Param{
		Uniform("a", -1, 1),
		Uniform("pin", 5, 5),
	})
	assert.NoError(err)

	// Shape mismatch and non-finite vectors are fatal
	_, err = sp.Init(4, [][]float64{{1, 2, 3}}, gen)
	assert.Error(err)
	_, err = sp.Init(4, [][]float64{{math.NaN(), 5}}, gen)
	assert.Error(err)
	_, err = sp.Init(1, [][]float64{{0, 5}, {0.5, 5}}, gen)
	assert.Error(err)

	// Deficit filled with jittered replicas
	pop, err := sp.Init(6, [][]float64{{0.25, 5}, {-0.25, 5}}, gen)
	assert.NoError(err)
	assert.Len(pop, 6)
	for _, x := range pop {
		assert.True(sp.InBounds(x))
		assert.Equal(5.0, x[1])
	}
	assert.Equal(0.25, pop[0][0])
	assert.Equal(-0.25, pop[1][0])
	// Replicas are near but not equal to their source
	assert.NotEqual(pop[0][0], pop[2][0])
	assert.InDelta(pop[0][0], pop[2][0], 0.01)

	// Empty base draws inside bounds
	pop, err = sp.Init(8, nil, gen)
	assert.NoError(err)
	assert.Len(pop, 8)
	for _, x := range pop {
		assert.True(sp.InBounds(x))
	}
}
