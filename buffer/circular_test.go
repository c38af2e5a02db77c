package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func mk(gen int, logp float64) Sample {
	return Sample{Generation: gen, Chain: 0, Point: []float64{float64(gen)}, LogP: logp}
}

func TestCircularSample(t *testing.T) {
	assert := assert.New(t)

	cs := NewCircularSample(6)
	assert.Equal(6, cs.BufSize)
	assert.Equal(0, cs.Count)

	for g := 1; g <= 5; g++ {
		cs.Add(mk(g, float64(-g)))
	}
	assert.Equal(6, cs.BufSize)
	assert.Equal(5, cs.Count)
	assert.Nil(cs.FirstHalf())
	assert.Nil(cs.SecondHalf())

	cs.Add(mk(6, -6))
	assert.Equal(6, cs.BufSize)
	assert.Equal(6, cs.Count)

	exp := 0
	for iter := cs.FirstHalf(); iter.Next(); {
		val := iter.Value()
		exp++
		assert.Equal(exp, val.Generation)
	}
	for iter := cs.SecondHalf(); iter.Next(); {
		val := iter.Value()
		exp++
		assert.Equal(exp, val.Generation)
	}

	// 1 2 3 4 5 6 add 8 add 8 => 8 8 3 4 5 6
	// So first=3,4,5 second=6,8,8
	cs.Add(mk(8, -8))
	cs.Add(mk(8, -8))
	expVals := []int{3, 4, 5, 6, 8, 8}
	idx := 0
	for iter := cs.FirstHalf(); iter.Next(); {
		val := iter.Value()
		assert.Equal(expVals[idx], val.Generation)
		idx++
	}
	for iter := cs.SecondHalf(); iter.Next(); {
		val := iter.Value()
		assert.Equal(expVals[idx], val.Generation)
		idx++
	}
	assert.Equal(6, idx)
}

func TestCircularSampleSnapshot(t *testing.T) {
	assert := assert.New(t)

	cs := NewCircularSample(4)
	assert.Empty(cs.Snapshot())

	cs.Add(mk(1, -1))
	cs.Add(mk(2, -2))
	snap := cs.Snapshot()
	assert.Len(snap, 2)
	assert.Equal(1, snap[0].Generation)
	assert.Equal(2, snap[1].Generation)

	cs.Add(mk(3, -3))
	cs.Add(mk(4, -4))
	cs.Add(mk(5, -5))
	cs.Add(mk(6, -6))

	snap = cs.Snapshot()
	assert.Len(snap, 4)
	for i, s := range snap {
		assert.Equal(i+3, s.Generation)
	}
	assert.Equal(int64(6), cs.TotalSeen)
}
