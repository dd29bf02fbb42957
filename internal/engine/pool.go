package engine

// BufferKey identifies a pool bucket: buffers are interchangeable only
// when both their per-element stride and their element count match.
type BufferKey struct {
	Stride int
	Count  int
}

// Buffer is a materialized field: Count elements of Stride contiguous
// float64 components. Buffers are valid until the frame that produced them
// is superseded by the next ExecuteFrame call.
type Buffer struct {
	Key  BufferKey
	Data []float64
}

// At returns the components of element i.
func (b *Buffer) At(i int) []float64 {
	off := i * b.Key.Stride
	return b.Data[off : off+b.Key.Stride]
}

// BufferPool recycles field buffers across frames. Materialization claims
// buffers during a frame; the executor releases the whole frame's buffers
// at the start of the next one. Per-key free lists are capped so a burst
// of large instances does not pin memory forever.
type BufferPool struct {
	free      map[BufferKey][]*Buffer
	inUse     []*Buffer
	maxPooled int
}

// defaultMaxPooled bounds each free list when no option overrides it.
const defaultMaxPooled = 8

// NewBufferPool returns a pool whose free lists hold at most maxPooled
// buffers per key. Non-positive values fall back to the default cap.
func NewBufferPool(maxPooled int) *BufferPool {
	if maxPooled <= 0 {
		maxPooled = defaultMaxPooled
	}
	return &BufferPool{
		free:      make(map[BufferKey][]*Buffer),
		maxPooled: maxPooled,
	}
}

// Claim returns a zeroed buffer for the given shape, reusing a pooled one
// when available. The buffer stays claimed until the next ReleaseAll.
func (p *BufferPool) Claim(stride, count int) *Buffer {
	key := BufferKey{Stride: stride, Count: count}
	var b *Buffer
	if list := p.free[key]; len(list) > 0 {
		b = list[len(list)-1]
		p.free[key] = list[:len(list)-1]
		for i := range b.Data {
			b.Data[i] = 0
		}
	} else {
		b = &Buffer{Key: key, Data: make([]float64, stride*count)}
	}
	p.inUse = append(p.inUse, b)
	return b
}

// ReleaseAll returns every claimed buffer to its free list, dropping
// buffers beyond the per-key cap.
func (p *BufferPool) ReleaseAll() {
	for _, b := range p.inUse {
		if len(p.free[b.Key]) < p.maxPooled {
			p.free[b.Key] = append(p.free[b.Key], b)
		}
	}
	p.inUse = p.inUse[:0]
}

// PooledCount returns the total number of buffers currently on free lists.
func (p *BufferPool) PooledCount() int {
	n := 0
	for _, list := range p.free {
		n += len(list)
	}
	return n
}
