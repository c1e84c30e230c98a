package pool

import "sync"

const (
	// ScratchBufferDefaultSize is the initial capacity of encoder scratch buffers.
	ScratchBufferDefaultSize = 1024 * 4 // 4KiB
	// ScratchBufferMaxThreshold is the largest scratch buffer kept by the pool.
	ScratchBufferMaxThreshold = 1024 * 64 // 64KiB
	// ImageBufferDefaultSize is the initial capacity of arena image buffers.
	ImageBufferDefaultSize = 1024 * 64 // 64KiB
	// ImageBufferMaxThreshold is the largest image buffer kept by the pool.
	ImageBufferMaxThreshold = 1024 * 1024 * 8 // 8MiB
)

// ByteBuffer is an append-oriented byte buffer with in-place patching.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified default size.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset empties the buffer but keeps its memory.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// MustWrite appends data, growing the buffer if necessary.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.B = append(bb.B, data...)
}

// ExtendOrGrow extends the buffer by n bytes, growing it if necessary,
// and returns the offset of the first new byte.
func (bb *ByteBuffer) ExtendOrGrow(n int) int {
	start := len(bb.B)
	if cap(bb.B)-start < n {
		bb.Grow(n)
	}
	bb.B = bb.B[:start+n]

	return start
}

// Grow ensures the buffer can hold requiredBytes more bytes without reallocating.
//
// Small buffers grow by ScratchBufferDefaultSize, larger ones by 25% of their capacity.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	available := cap(bb.B) - len(bb.B)
	if available >= requiredBytes {
		return
	}

	growBy := ScratchBufferDefaultSize
	if cap(bb.B) > 4*ScratchBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}
	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// ByteBufferPool is a sync.Pool of ByteBuffers that drops buffers grown past
// maxThreshold instead of retaining them.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a new ByteBufferPool with buffers of the specified default size.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves an empty ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && bb.Cap() > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var (
	scratchDefaultPool = NewByteBufferPool(ScratchBufferDefaultSize, ScratchBufferMaxThreshold)
	imageDefaultPool   = NewByteBufferPool(ImageBufferDefaultSize, ImageBufferMaxThreshold)
)

// GetScratchBuffer retrieves a ByteBuffer from the encoder scratch pool.
func GetScratchBuffer() *ByteBuffer {
	return scratchDefaultPool.Get()
}

// PutScratchBuffer returns a ByteBuffer to the encoder scratch pool.
func PutScratchBuffer(bb *ByteBuffer) {
	scratchDefaultPool.Put(bb)
}

// GetImageBuffer retrieves a ByteBuffer from the arena image pool.
func GetImageBuffer() *ByteBuffer {
	return imageDefaultPool.Get()
}

// PutImageBuffer returns a ByteBuffer to the arena image pool.
func PutImageBuffer(bb *ByteBuffer) {
	imageDefaultPool.Put(bb)
}
