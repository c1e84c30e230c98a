package bitsize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitsNeeded(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{15, 4},
		{16, 5},
		{120, 7},
		{500, 9},
		{1024, 11},
		{65535, 16},
		{65536, 17},
		{1 << 30, 31},
		{1<<31 - 1, 31},
		{1 << 40, 31},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, BitsNeeded(tt.n), "n=%d", tt.n)
	}
}

func TestBitsNeeded_Bound(t *testing.T) {
	for n := 1; n < 1<<16; n++ {
		i := BitsNeeded(n)
		require.LessOrEqual(t, n, 1<<i-1)
		if i > 1 {
			require.Greater(t, n, 1<<(i-1)-1)
		}
	}
}

func TestClassIndex(t *testing.T) {
	require.Equal(t, 0, ClassIndex(1))
	require.Equal(t, 6, ClassIndex(120))
	require.Equal(t, 9, ClassIndex(1000))
	require.Equal(t, 10, ClassIndex(1024))
}
