package hash

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestID_KnownNames(t *testing.T) {
	tests := []struct {
		name string
		id   uint64
	}{
		{"", 0xef46db3751d8e999},
		{"test", 0x4fdcca5ddb678139},
		{"another test string", 0x212a22f593810bec},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.name), func(t *testing.T) {
			require.Equal(t, tt.id, ID(tt.name))
		})
	}
}

func TestID_DistinctObjectNames(t *testing.T) {
	seen := make(map[uint64]string, 10000)
	for i := range 10000 {
		name := fmt.Sprintf("object-%05d", i)
		id := ID(name)
		prev, dup := seen[id]
		require.False(t, dup, "%s collides with %s", name, prev)
		seen[id] = name
	}
}

func TestChecksum_ArenaBytes(t *testing.T) {
	for _, s := range []string{"", "test", "another test string"} {
		require.Equal(t, ID(s), Checksum([]byte(s)))
	}

	raw := make([]byte, 4096)
	before := Checksum(raw)
	raw[2048] = 127
	require.NotEqual(t, before, Checksum(raw))
	require.NotEqual(t, Checksum([]byte{0, 0, 0, 1}), Checksum([]byte{1, 0, 0, 0}))
}

func BenchmarkChecksum(b *testing.B) {
	r := rand.New(rand.NewPCG(1, 2))
	raw := make([]byte, 64*1024)
	for i := range raw {
		raw[i] = byte(r.IntN(256))
	}

	b.SetBytes(int64(len(raw)))
	b.ResetTimer()
	for b.Loop() {
		Checksum(raw)
	}
}
