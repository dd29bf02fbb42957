package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferPool_ReusesBacking(t *testing.T) {
	p := NewBufferPool(0)

	a := p.Claim(2, 8)
	a.Data[0] = 42
	p.ReleaseAll()

	b := p.Claim(2, 8)
	require.Len(t, b.Data, 16)
	assert.Same(t, a, b, "same shape reuses the pooled buffer")
	assert.Equal(t, 0.0, b.Data[0], "reused buffers come back zeroed")
}

func TestBufferPool_DistinctKeys(t *testing.T) {
	p := NewBufferPool(0)

	a := p.Claim(2, 8)
	p.ReleaseAll()

	b := p.Claim(4, 8)
	assert.NotSame(t, a, b, "stride is part of the pool key")
	assert.Len(t, b.Data, 32)
}

func TestBufferPool_EvictsBeyondCap(t *testing.T) {
	p := NewBufferPool(2)

	for i := 0; i < 5; i++ {
		p.Claim(3, 4)
	}
	p.ReleaseAll()

	assert.Equal(t, 2, p.PooledCount())
}

func TestBuffer_At(t *testing.T) {
	p := NewBufferPool(0)
	b := p.Claim(3, 4)
	copy(b.At(2), []float64{7, 8, 9})

	assert.Equal(t, []float64{7, 8, 9}, b.At(2))
	assert.Equal(t, []float64{0, 0, 0}, b.At(1))
}
