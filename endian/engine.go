// Package endian selects the byte order used for every multi-byte value in an arena.
//
// Boundary tags, free-list pointers and encoded scalars all go through the same
// EndianEngine, so an arena and the codec writing into it must agree on one engine.
// Little-endian is the default:
//
//	engine := endian.GetLittleEndianEngine()
//	engine.PutUint32(buf[4:], uint32(size))
//
// The returned engines are immutable and safe for concurrent use.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines binary.ByteOrder and binary.AppendByteOrder.
//
// binary.LittleEndian and binary.BigEndian both satisfy it.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Identifiers stored in arena images to record the byte order of the raw bytes.
const (
	LittleEndianID uint8 = 0x1
	BigEndianID    uint8 = 0x2
)

// GetNativeEngine returns the engine matching the host byte order.
func GetNativeEngine() EndianEngine {
	var probe uint16 = 0x0100
	if (*[2]byte)(unsafe.Pointer(&probe))[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// ID returns the image identifier of engine.
func ID(engine EndianEngine) uint8 {
	if engine == binary.BigEndian {
		return BigEndianID
	}

	return LittleEndianID
}

// FromID returns the engine for an image identifier.
func FromID(id uint8) (EndianEngine, bool) {
	switch id {
	case LittleEndianID:
		return binary.LittleEndian, true
	case BigEndianID:
		return binary.BigEndian, true
	default:
		return nil, false
	}
}
