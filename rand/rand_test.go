package rand

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMTBadSeed(t *testing.T) {
	assert := assert.New(t)

	gen, err := NewGeneratorSlice([]uint64{})
	assert.Nil(gen)
	assert.Error(err)
}

func TestMTCanonicalSeed(t *testing.T) {
	assert := assert.New(t)

	gen, err := NewGeneratorSlice([]uint64{0x12345, 0x23456, 0x34567, 0x45678})
	assert.NotNil(gen)
	assert.NoError(err)

	origTestSeq := []uint64{
		7266447313870364031,
		4946485549665804864,
		16945909448695747420,
		16394063075524226720,
		4873882236456199058,
	}

	// Now convert to the format we should get from Int63
	for _, v := range origTestSeq {
		exp := int64(v & 0x7fffffffffffffff)
		act := gen.Int63()
		assert.Equal(exp, act)
	}
}

func TestReproducible(t *testing.T) {
	assert := assert.New(t)

	g1, err := NewGenerator(42)
	assert.NoError(err)
	g2, err := NewGenerator(42)
	assert.NoError(err)

	for i := 0; i < 64; i++ {
		assert.Equal(g1.Int63(), g2.Int63())
	}
	for i := 0; i < 64; i++ {
		assert.Equal(g1.Norm(0, 1), g2.Norm(0, 1))
	}
}

func TestFork(t *testing.T) {
	assert := assert.New(t)

	g1, err := NewGenerator(42)
	assert.NoError(err)
	g2, err := NewGenerator(42)
	assert.NoError(err)

	// Equal (seed, idx) => equal streams
	f1 := g1.Fork(3)
	f2 := g2.Fork(3)
	for i := 0; i < 32; i++ {
		assert.Equal(f1.Int63(), f2.Int63())
	}

	// Different idx => different streams
	a := g1.Fork(1)
	b := g1.Fork(2)
	same := true
	for i := 0; i < 16; i++ {
		if a.Int63() != b.Int63() {
			same = false
		}
	}
	assert.False(same)

	// Forking must not advance the parent
	before, _ := NewGenerator(42)
	before.Fork(99)
	fresh, _ := NewGenerator(42)
	assert.Equal(fresh.Int63(), before.Int63())
}

func TestIntDraws(t *testing.T) {
	assert := assert.New(t)

	g1, err := NewGenerator(99)
	assert.NoError(err)
	g2, err := NewGenerator(99)
	assert.NoError(err)

	for i := 0; i < 256; i++ {
		v := g1.Int31()
		assert.True(v >= 0)
		assert.Equal(v, g2.Int31())
	}

	// Power-of-two and general moduli both stay in range
	seen := make(map[int32]bool)
	for i := 0; i < 256; i++ {
		v := g1.Int31n(8)
		assert.True(v >= 0 && v < 8)
		seen[v] = true

		w := g1.Int31n(7)
		assert.True(w >= 0 && w < 7)
	}
	assert.Len(seen, 8)

	for i := 0; i < 256; i++ {
		v := g1.Intn(100)
		assert.True(v >= 0 && v < 100)
	}

	assert.Panics(func() { g1.Int31n(0) })
	assert.Panics(func() { g1.Int63n(-1) })
}

func TestUniformAndNorm(t *testing.T) {
	assert := assert.New(t)

	gen, err := NewGenerator(12345)
	assert.NoError(err)

	const n = 20000
	sum, sumSq := 0.0, 0.0
	for i := 0; i < n; i++ {
		u := gen.Uniform(-2.0, 4.0)
		assert.True(u >= -2.0 && u < 4.0)
		sum += u
	}
	assert.InDelta(1.0, sum/n, 0.1)

	sum = 0.0
	for i := 0; i < n; i++ {
		v := gen.Norm(5.0, 2.0)
		sum += v
		sumSq += (v - 5.0) * (v - 5.0)
	}
	assert.InDelta(5.0, sum/n, 0.1)
	assert.InDelta(2.0, math.Sqrt(sumSq/n), 0.1)
}

func TestChoice(t *testing.T) {
	assert := assert.New(t)

	gen, err := NewGenerator(1)
	assert.NoError(err)

	_, err = gen.Choice(nil)
	assert.Error(err)
	_, err = gen.Choice([]float64{0, 0})
	assert.Error(err)
	_, err = gen.Choice([]float64{1, -1})
	assert.Error(err)

	for i := 0; i < 16; i++ {
		idx, err := gen.Choice([]float64{0, 0, 3.5})
		assert.NoError(err)
		assert.Equal(2, idx)
	}

	// Rough frequency check on a skewed distribution
	counts := make([]int, 2)
	for i := 0; i < 10000; i++ {
		idx, err := gen.Choice([]float64{9, 1})
		assert.NoError(err)
		counts[idx]++
	}
	assert.InDelta(9000, counts[0], 300)
}

func TestPermK(t *testing.T) {
	assert := assert.New(t)

	gen, err := NewGenerator(7)
	assert.NoError(err)

	_, err = gen.PermK(4, 4, 2)
	assert.Error(err)

	for i := 0; i < 100; i++ {
		idxs, err := gen.PermK(8, 6, 3)
		assert.NoError(err)
		assert.Len(idxs, 6)

		seen := make(map[int]bool)
		for _, ix := range idxs {
			assert.True(ix >= 0 && ix < 8)
			assert.NotEqual(3, ix)
			assert.False(seen[ix])
			seen[ix] = true
		}
	}

	// Negative exclude allows the full range
	idxs, err := gen.PermK(3, 3, -1)
	assert.NoError(err)
	assert.Len(idxs, 3)
}
