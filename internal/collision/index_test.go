package collision

import (
	"testing"

	"github.com/arloliu/sos/errs"
	"github.com/stretchr/testify/require"
)

func constantHash(string) uint64 { return 0x1234567890abcdef }

func TestNewIndex(t *testing.T) {
	ix := NewIndex[int]()

	require.NotNil(t, ix)
	require.Equal(t, 0, ix.Len())
	require.Equal(t, 0, ix.Collisions())
}

func TestIndex_PutGet(t *testing.T) {
	ix := NewIndex[int]()

	_, replaced, err := ix.Put("cpu.usage", 1)
	require.NoError(t, err)
	require.False(t, replaced)

	_, _, err = ix.Put("mem.usage", 2)
	require.NoError(t, err)
	require.Equal(t, 2, ix.Len())

	v, ok := ix.Get("cpu.usage")
	require.True(t, ok)
	require.Equal(t, 1, v)

	_, ok = ix.Get("disk.usage")
	require.False(t, ok)

	old, replaced, err := ix.Put("cpu.usage", 10)
	require.NoError(t, err)
	require.True(t, replaced)
	require.Equal(t, 1, old)
	require.Equal(t, 2, ix.Len())
}

func TestIndex_EmptyName(t *testing.T) {
	ix := NewIndex[int]()

	_, _, err := ix.Put("", 1)
	require.ErrorIs(t, err, errs.ErrInvalidName)
	require.Equal(t, 0, ix.Len())
}

func TestIndex_Collision(t *testing.T) {
	ix := NewIndexWithHash[string](constantHash)

	for _, name := range []string{"a", "b", "c"} {
		_, _, err := ix.Put(name, "v-"+name)
		require.NoError(t, err)
	}
	require.Equal(t, 3, ix.Len())
	require.Equal(t, 3, ix.Collisions())

	for _, name := range []string{"a", "b", "c"} {
		v, ok := ix.Get(name)
		require.True(t, ok)
		require.Equal(t, "v-"+name, v)
	}

	v, ok := ix.Delete("a")
	require.True(t, ok)
	require.Equal(t, "v-a", v)
	require.Equal(t, 2, ix.Len())

	v, ok = ix.Get("c")
	require.True(t, ok)
	require.Equal(t, "v-c", v)

	_, ok = ix.Delete("a")
	require.False(t, ok)

	ix.Delete("b")
	require.Equal(t, 0, ix.Collisions())
	ix.Delete("c")
	require.Equal(t, 0, ix.Len())
}

func TestIndex_RangeAndReset(t *testing.T) {
	ix := NewIndex[int]()
	for i, name := range []string{"x", "y", "z"} {
		_, _, err := ix.Put(name, i)
		require.NoError(t, err)
	}

	seen := map[string]int{}
	ix.Range(func(name string, value int) bool {
		seen[name] = value
		return true
	})
	require.Equal(t, map[string]int{"x": 0, "y": 1, "z": 2}, seen)

	calls := 0
	ix.Range(func(string, int) bool {
		calls++
		return false
	})
	require.Equal(t, 1, calls)

	ix.Reset()
	require.Equal(t, 0, ix.Len())
	_, ok := ix.Get("x")
	require.False(t, ok)
}
