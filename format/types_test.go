package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueType_FixedWidth(t *testing.T) {
	tests := []struct {
		typ   ValueType
		width int
	}{
		{TypeByte, 1},
		{TypeShort, 2},
		{TypeInteger, 4},
		{TypeFloat, 4},
		{TypeLong, 8},
		{TypeDouble, 8},
		{TypeString, 0},
		{TypeMap, 0},
		{TypeList, 0},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			require.Equal(t, tt.width, tt.typ.FixedWidth())
			require.True(t, tt.typ.Valid())
		})
	}
}

func TestValueType_Valid(t *testing.T) {
	require.False(t, ValueType(0).Valid())
	require.False(t, ValueType(10).Valid())
	require.Equal(t, "Unknown", ValueType(42).String())
	require.True(t, TypeMap.IsContainer())
	require.True(t, TypeList.IsContainer())
	require.False(t, TypeString.IsContainer())
}

func TestParseCompression(t *testing.T) {
	for _, name := range []string{"none", "zstd", "s2", "lz4"} {
		c, ok := ParseCompression(name)
		require.True(t, ok, name)
		require.NotEqual(t, "Unknown", c.String())
	}

	_, ok := ParseCompression("gzip")
	require.False(t, ok)
}
