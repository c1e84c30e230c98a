package endian

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestGetNativeEngine(t *testing.T) {
	var v uint16 = 0x0102
	first := (*[2]byte)(unsafe.Pointer(&v))[0]

	engine := GetNativeEngine()
	switch first {
	case 0x01:
		require.Equal(t, GetBigEndianEngine(), engine)
	case 0x02:
		require.Equal(t, GetLittleEndianEngine(), engine)
	default:
		require.Failf(t, "unexpected byte value", "got: %v", first)
	}

	buf := make([]byte, 2)
	engine.PutUint16(buf, v)
	require.Equal(t, first, buf[0])
}

func TestEngineID(t *testing.T) {
	tests := []struct {
		name   string
		engine EndianEngine
		id     uint8
	}{
		{"little", GetLittleEndianEngine(), LittleEndianID},
		{"big", GetBigEndianEngine(), BigEndianID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.id, ID(tt.engine))

			engine, ok := FromID(tt.id)
			require.True(t, ok)
			require.Equal(t, tt.engine, engine)
		})
	}

	_, ok := FromID(0)
	require.False(t, ok)
}

func TestEngineRoundTrip(t *testing.T) {
	for _, engine := range []EndianEngine{GetLittleEndianEngine(), GetBigEndianEngine()} {
		buf := make([]byte, 8)
		engine.PutUint32(buf, 0xCAFEBABE)
		require.Equal(t, uint32(0xCAFEBABE), engine.Uint32(buf))

		buf = engine.AppendUint16(buf[:0], 0x1234)
		require.Len(t, buf, 2)
		require.Equal(t, uint16(0x1234), engine.Uint16(buf))
	}

	buf := GetBigEndianEngine().AppendUint32(nil, 1)
	require.Equal(t, []byte{0, 0, 0, 1}, buf)
}
