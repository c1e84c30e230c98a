package store

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/arloliu/sos/alloc"
	"github.com/arloliu/sos/codec"
	"github.com/arloliu/sos/endian"
	"github.com/arloliu/sos/errs"
)

func testStores(t *testing.T) map[string]*Store {
	t.Helper()

	unique, err := alloc.NewUnique()
	require.NoError(t, err)
	binned, err := alloc.NewBinned(1 << 16)
	require.NoError(t, err)

	stores := make(map[string]*Store)
	for name, a := range map[string]alloc.Allocator{"Unique": unique, "Binned": binned} {
		s, err := New(a, WithOwnedAllocator())
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		stores[name] = s
	}

	return stores
}

func sampleMap() *codec.Map {
	return codec.NewMap().
		PutInt8("by", 64).
		PutInt16("sh", 312).
		PutInt32("in", 45).
		PutInt64("lo", 76).
		PutString("st", "ing").
		PutFloat32("fl", 36.4).
		PutFloat64("do", 789.45436)
}

func TestStore_MapRoundTrip(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			before := s.Stats().Allocator

			h, err := s.CreateMap(sampleMap())
			require.NoError(t, err)
			require.Equal(t, 1, s.Len())

			view, err := s.MapView(h)
			require.NoError(t, err)

			by, err := view.GetInt8("by")
			require.NoError(t, err)
			require.Equal(t, int8(64), by)
			sh, err := view.GetInt16("sh")
			require.NoError(t, err)
			require.Equal(t, int16(312), sh)
			in, err := view.GetInt32("in")
			require.NoError(t, err)
			require.Equal(t, int32(45), in)
			lo, err := view.GetInt64("lo")
			require.NoError(t, err)
			require.Equal(t, int64(76), lo)
			st, err := view.GetString("st")
			require.NoError(t, err)
			require.Equal(t, "ing", st)
			fl, err := view.GetFloat32("fl")
			require.NoError(t, err)
			require.Equal(t, float32(36.4), fl)
			do, err := view.GetFloat64("do")
			require.NoError(t, err)
			require.Equal(t, 789.45436, do)

			got, err := view.Materialize()
			require.NoError(t, err)
			require.Equal(t, sampleMap(), got)

			stats := s.Stats()
			require.Equal(t, 1, stats.Objects)
			require.True(t, stats.AllocatorIntact)

			require.NoError(t, s.Remove(h))
			require.Zero(t, s.Len())
			require.Equal(t, before.FreeBytes, s.Stats().Allocator.FreeBytes)
			require.Zero(t, s.Stats().EncodedBytes)

			_, err = s.MapView(h)
			require.ErrorIs(t, err, errs.ErrUnknownHandle)
			require.ErrorIs(t, s.Remove(h), errs.ErrUnknownHandle)
		})
	}
}

func TestStore_Lists(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			list := codec.NewList(int32(1), int32(2), int32(3), "elem", int32(4), float32(6.6), 7.7)
			h, err := s.CreateList(list)
			require.NoError(t, err)

			view, err := s.ListView(h)
			require.NoError(t, err)
			got, err := view.Materialize()
			require.NoError(t, err)
			require.Equal(t, list, got)

			_, err = s.MapView(h)
			require.ErrorIs(t, err, errs.ErrTypeMismatch)

			size, err := s.Size(h)
			require.NoError(t, err)
			require.Equal(t, view.Size(), size)
		})
	}
}

func TestStore_HandlesAreDistinct(t *testing.T) {
	s := testStores(t)["Binned"]

	seen := make(map[Handle]bool)
	ptrs := make(map[alloc.Pointer]bool)
	for i := range 50 {
		h, err := s.CreateMap(codec.NewMap().PutInt32("i", int32(i)))
		require.NoError(t, err)
		require.False(t, seen[h])
		seen[h] = true

		p, err := s.Pointer(h)
		require.NoError(t, err)
		require.False(t, ptrs[p])
		ptrs[p] = true
	}

	count := 0
	s.Handles(func(h Handle) bool {
		require.True(t, seen[h])
		count++
		return true
	})
	require.Equal(t, 50, count)

	for h := range seen {
		view, err := s.MapView(h)
		require.NoError(t, err)
		_, err = view.GetInt32("i")
		require.NoError(t, err)
		require.NoError(t, s.Remove(h))
	}
	require.Zero(t, s.Len())
	require.Equal(t, 1, s.Stats().Allocator.FreeBlocks)
}

func TestStore_Named(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			first, err := s.Put("config", codec.NewMap().PutString("mode", "fast"))
			require.NoError(t, err)

			view, err := s.Get("config")
			require.NoError(t, err)
			mode, err := view.GetString("mode")
			require.NoError(t, err)
			require.Equal(t, "fast", mode)

			second, err := s.Put("config", codec.NewMap().PutString("mode", "safe"))
			require.NoError(t, err)
			require.NotEqual(t, first, second)
			require.Equal(t, 1, s.Len())

			_, err = s.MapView(first)
			require.ErrorIs(t, err, errs.ErrUnknownHandle)

			h, err := s.Lookup("config")
			require.NoError(t, err)
			require.Equal(t, second, h)

			_, err = s.Put("", codec.NewMap())
			require.ErrorIs(t, err, errs.ErrInvalidName)

			_, err = s.Get("missing")
			require.ErrorIs(t, err, errs.ErrNameNotFound)

			require.Equal(t, 1, s.Stats().Named)
			require.NoError(t, s.Delete("config"))
			require.Zero(t, s.Len())
			require.ErrorIs(t, s.Delete("config"), errs.ErrNameNotFound)

			named, err := s.Put("gone", codec.NewMap())
			require.NoError(t, err)
			require.NoError(t, s.Remove(named))
			_, err = s.Lookup("gone")
			require.ErrorIs(t, err, errs.ErrNameNotFound)
		})
	}
}

func TestStore_Msgpack(t *testing.T) {
	s := testStores(t)["Binned"]

	data, err := msgpack.Marshal(map[string]any{"name": "probe", "tags": []any{"a", "b"}})
	require.NoError(t, err)

	h, err := s.ImportMsgpack(data)
	require.NoError(t, err)

	view, err := s.MapView(h)
	require.NoError(t, err)
	tags, err := view.GetList("tags")
	require.NoError(t, err)
	second, err := tags.GetString(1)
	require.NoError(t, err)
	require.Equal(t, "b", second)

	out, err := s.ExportMsgpack(h)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, msgpack.Unmarshal(out, &decoded))
	require.Equal(t, "probe", decoded["name"])

	lh, err := s.CreateList(codec.NewList(int8(1)))
	require.NoError(t, err)
	out, err = s.ExportMsgpack(lh)
	require.NoError(t, err)
	back, err := codec.FromMsgpack(out)
	require.NoError(t, err)
	require.Equal(t, codec.NewList(int8(1)), back)

	_, err = s.ImportMsgpack([]byte{0xc3})
	require.ErrorIs(t, err, errs.ErrUnsupportedType)
}

func TestStore_Exhaustion(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	a, err := alloc.NewBinned(512)
	require.NoError(t, err)
	s, err := New(a, WithLogger(logger), WithOwnedAllocator())
	require.NoError(t, err)
	defer s.Close()

	big := codec.NewMap().PutString("s", string(bytes.Repeat([]byte{'x'}, 200)))
	_, err = s.CreateMap(big)
	require.NoError(t, err)
	_, err = s.CreateMap(big)
	require.NoError(t, err)
	_, err = s.CreateMap(big)
	require.ErrorIs(t, err, errs.ErrNoSpace)

	require.Contains(t, logs.String(), "object allocation failed")
	require.Contains(t, logs.String(), "object created")
	require.Equal(t, 2, s.Len())
	require.True(t, s.Stats().AllocatorIntact)
}

func TestStore_EncoderOptions(t *testing.T) {
	a, err := alloc.NewBinned(4096, alloc.WithByteOrder(endian.GetBigEndianEngine()))
	require.NoError(t, err)

	s, err := New(a,
		WithOwnedAllocator(),
		WithEncoderOptions(codec.WithByteOrder(endian.GetLittleEndianEngine()), codec.WithMaxObjectSize(64)),
	)
	require.NoError(t, err)
	defer s.Close()

	h, err := s.CreateMap(codec.NewMap().PutInt32("v", 0x01020304))
	require.NoError(t, err)
	view, err := s.MapView(h)
	require.NoError(t, err)
	v, err := view.GetInt32("v")
	require.NoError(t, err)
	require.Equal(t, int32(0x01020304), v)

	_, err = s.CreateMap(codec.NewMap().PutString("s", string(bytes.Repeat([]byte{'x'}, 80))))
	require.ErrorIs(t, err, errs.ErrObjectTooLarge)

	_, err = New(a, WithEncoderOptions(codec.WithMaxObjectSize(1)))
	require.Error(t, err)
}

func TestStore_Close(t *testing.T) {
	a, err := alloc.NewUnique()
	require.NoError(t, err)

	s, err := New(a)
	require.NoError(t, err)
	h, err := s.CreateMap(codec.NewMap())
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.MapView(h)
	require.ErrorIs(t, err, errs.ErrStoreClosed)
	_, err = s.CreateMap(codec.NewMap())
	require.ErrorIs(t, err, errs.ErrStoreClosed)
	_, err = s.Lookup("x")
	require.ErrorIs(t, err, errs.ErrStoreClosed)

	// Not owned: the allocator outlives the store.
	_, err = a.Allocate(1)
	require.NoError(t, err)
}
