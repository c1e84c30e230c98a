package arena

import (
	"testing"

	"github.com/arloliu/sos/endian"
	"github.com/arloliu/sos/errs"
	"github.com/stretchr/testify/require"
)

func newArena(t *testing.T, capacity int, opts ...Option) *Arena {
	t.Helper()

	a, err := New(capacity, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Release() })

	return a
}

func TestNew(t *testing.T) {
	a := newArena(t, 1024)

	require.Equal(t, 1024, a.Capacity())
	require.Equal(t, 1, a.NumBlocks())
	require.Equal(t, First, a.FirstBlock())
	require.Equal(t, 1024-BlockOverhead, a.BlockSize(First))
	require.True(t, a.VerifyIntegrity())
}

func TestNew_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{-1, 0, MinCapacity - 1, MaxCapacity + 1} {
		_, err := New(capacity)
		require.ErrorIs(t, err, errs.ErrInvalidCapacity, "capacity=%d", capacity)
	}

	a := newArena(t, MinCapacity)
	require.Equal(t, 0, a.BlockSize(First))
	require.True(t, a.VerifyIntegrity())
}

func TestNew_Options(t *testing.T) {
	t.Run("big endian tags", func(t *testing.T) {
		a := newArena(t, 64, WithByteOrder(endian.GetBigEndianEngine()))
		require.Equal(t, []byte{0, 0, 0, 56}, a.Raw()[0:4])
		require.Equal(t, 56, a.BlockSize(First))
	})

	t.Run("nil byte order", func(t *testing.T) {
		_, err := New(64, WithByteOrder(nil))
		require.Error(t, err)
	})

	t.Run("mmap", func(t *testing.T) {
		a := newArena(t, 1<<16, WithMmap())
		require.True(t, a.VerifyIntegrity())
		a.PutInt64(128, 42)
		require.Equal(t, int64(42), a.Int64(128))
		require.NoError(t, a.Release())
		require.True(t, a.Released())
		require.NoError(t, a.Release())
	})
}

func TestSplitBlock(t *testing.T) {
	a := newArena(t, 1024)

	next, err := a.SplitBlock(First, 100*2+16)
	require.NoError(t, err)
	require.Equal(t, Pointer(4+216+8), next)
	require.Equal(t, 216, a.BlockSize(First))
	require.Equal(t, 1016-216-8, a.BlockSize(next))
	require.Equal(t, 2, a.NumBlocks())
	require.True(t, a.VerifyIntegrity())

	third, err := a.SplitBlock(next, 100)
	require.NoError(t, err)
	require.Equal(t, 3, a.NumBlocks())
	require.True(t, a.VerifyIntegrity())

	n, err := a.NextBlock(First)
	require.NoError(t, err)
	require.Equal(t, next, n)

	n, err = a.NextBlock(next)
	require.NoError(t, err)
	require.Equal(t, third, n)

	n, err = a.NextBlock(third)
	require.NoError(t, err)
	require.Equal(t, Nil, n)

	p, err := a.PreviousBlock(third)
	require.NoError(t, err)
	require.Equal(t, next, p)

	p, err = a.PreviousBlock(next)
	require.NoError(t, err)
	require.Equal(t, First, p)

	p, err = a.PreviousBlock(First)
	require.NoError(t, err)
	require.Equal(t, Nil, p)
}

func TestSplitBlock_TooSmall(t *testing.T) {
	a := newArena(t, 128)
	size := a.BlockSize(First)

	p, err := a.SplitBlock(First, size-BlockOverhead)
	require.NoError(t, err)
	require.Equal(t, Nil, p)
	require.Equal(t, 1, a.NumBlocks())

	p, err = a.SplitBlock(First, size-BlockOverhead-1)
	require.NoError(t, err)
	require.NotEqual(t, Nil, p)
	require.Equal(t, 1, a.BlockSize(p))

	_, err = a.SplitBlock(First, -1)
	require.ErrorIs(t, err, errs.ErrInvalidSize)
}

func TestMergeBlocks(t *testing.T) {
	a := newArena(t, 1024)
	raw := append([]byte(nil), a.Raw()[:4]...)

	second, err := a.SplitBlock(First, 216)
	require.NoError(t, err)
	third, err := a.SplitBlock(second, 300)
	require.NoError(t, err)

	_, err = a.MergeBlocks(second, First)
	require.ErrorIs(t, err, errs.ErrPointerOrder)

	_, err = a.MergeBlocks(First, third)
	require.ErrorIs(t, err, errs.ErrNotAdjacent)

	merged, err := a.MergeBlocks(second, third)
	require.NoError(t, err)
	require.Equal(t, second, merged)
	require.Equal(t, 2, a.NumBlocks())
	require.True(t, a.VerifyIntegrity())

	merged, err = a.MergeBlocks(First, second)
	require.NoError(t, err)
	require.Equal(t, First, merged)
	require.Equal(t, 1, a.NumBlocks())
	require.Equal(t, 1016, a.BlockSize(First))
	require.Equal(t, raw, a.Raw()[:4])
	require.True(t, a.VerifyIntegrity())
}

func TestVerify_DetectsCorruption(t *testing.T) {
	a := newArena(t, 1024)
	second, err := a.SplitBlock(First, 200)
	require.NoError(t, err)

	a.setTag(int(second)+a.BlockSize(second), 12)
	require.ErrorIs(t, a.Verify(), errs.ErrCorruptedBlock)
	require.False(t, a.VerifyIntegrity())
	require.False(t, a.IsBlock(second))
}

func TestVerify_BlockCountMismatch(t *testing.T) {
	a := newArena(t, 256)
	a.blocks = 3
	require.ErrorIs(t, a.Verify(), errs.ErrCorruptedBlock)
}

func TestPreviousBlock_Corrupted(t *testing.T) {
	a := newArena(t, 256)
	second, err := a.SplitBlock(First, 40)
	require.NoError(t, err)

	a.setTag(int(second)-BlockOverhead, 500)
	_, err = a.PreviousBlock(second)
	require.ErrorIs(t, err, errs.ErrCorruptedBlock)

	_, err = a.PreviousBlock(Pointer(6))
	require.ErrorIs(t, err, errs.ErrCorruptedBlock)
}

func TestIsBlock(t *testing.T) {
	a := newArena(t, 256)

	require.True(t, a.IsBlock(First))
	require.False(t, a.IsBlock(Nil))
	require.False(t, a.IsBlock(0))
	require.False(t, a.IsBlock(Pointer(a.Capacity())))
	require.False(t, a.IsBlock(Pointer(a.Capacity()-2)))
}

func TestRawAccessors(t *testing.T) {
	for _, engine := range []endian.EndianEngine{endian.GetLittleEndianEngine(), endian.GetBigEndianEngine()} {
		a := newArena(t, 256, WithByteOrder(engine))
		base := int(First)

		a.PutUint8(base, 0x7f)
		a.PutInt16(base+1, -2)
		a.PutInt32(base+3, -70000)
		a.PutInt64(base+7, -1<<40)
		a.PutFloat32(base+15, 6.6)
		a.PutFloat64(base+19, 7.7)
		a.PutBytes(base+27, []byte("elem"))

		require.Equal(t, byte(0x7f), a.Uint8(base))
		require.Equal(t, int16(-2), a.Int16(base+1))
		require.Equal(t, int32(-70000), a.Int32(base+3))
		require.Equal(t, int64(-1<<40), a.Int64(base+7))
		require.Equal(t, float32(6.6), a.Float32(base+15))
		require.Equal(t, 7.7, a.Float64(base+19))
		require.Equal(t, []byte("elem"), a.Slice(base+27, 4))

		a.Zero(base+27, 4)
		require.Equal(t, []byte{0, 0, 0, 0}, a.Slice(base+27, 4))
	}
}

func TestWalkAndLayout(t *testing.T) {
	a := newArena(t, 512)
	_, err := a.SplitBlock(First, 100)
	require.NoError(t, err)

	var sizes []int
	require.NoError(t, a.Walk(func(_ Pointer, size int) bool {
		sizes = append(sizes, size)
		return true
	}))
	require.Equal(t, []int{100, 512 - BlockOverhead - 100 - BlockOverhead}, sizes)

	layout := a.Layout()
	require.Contains(t, layout, "blocks=2")
	require.Contains(t, layout, "ptr=4 size=100")
}

func TestInspect(t *testing.T) {
	a := newArena(t, 512)
	_, err := a.SplitBlock(First, 64)
	require.NoError(t, err)

	raw := append([]byte(nil), a.Raw()...)
	b, err := Inspect(raw, a.Engine())
	require.NoError(t, err)
	require.Equal(t, 2, b.NumBlocks())
	require.True(t, b.VerifyIntegrity())

	raw[0] = 0xff
	_, err = Inspect(raw, a.Engine())
	require.ErrorIs(t, err, errs.ErrCorruptedBlock)

	_, err = Inspect(raw[:4], a.Engine())
	require.ErrorIs(t, err, errs.ErrInvalidCapacity)
}
