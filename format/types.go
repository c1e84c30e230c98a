package format

type (
	// ValueType is the one-byte tag that precedes every encoded value.
	ValueType       uint8
	CompressionType uint8
)

const (
	TypeMap     ValueType = 0x1 // TypeMap is an ordered sequence of key/value entries.
	TypeList    ValueType = 0x2 // TypeList is an ordered sequence of values.
	TypeByte    ValueType = 0x3 // TypeByte is a signed 8-bit integer.
	TypeShort   ValueType = 0x4 // TypeShort is a signed 16-bit integer.
	TypeInteger ValueType = 0x5 // TypeInteger is a signed 32-bit integer.
	TypeLong    ValueType = 0x6 // TypeLong is a signed 64-bit integer.
	TypeString  ValueType = 0x7 // TypeString is a length-prefixed UTF-8 string.
	TypeFloat   ValueType = 0x8 // TypeFloat is an IEEE-754 binary32 value.
	TypeDouble  ValueType = 0x9 // TypeDouble is an IEEE-754 binary64 value.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// Valid reports whether v is one of the known value tags.
func (v ValueType) Valid() bool {
	return v >= TypeMap && v <= TypeDouble
}

// IsContainer reports whether v is a map or list tag.
func (v ValueType) IsContainer() bool {
	return v == TypeMap || v == TypeList
}

// FixedWidth returns the encoded payload width of a fixed-size scalar, excluding the tag.
// It returns 0 for strings and containers.
func (v ValueType) FixedWidth() int {
	switch v {
	case TypeByte:
		return 1
	case TypeShort:
		return 2
	case TypeInteger, TypeFloat:
		return 4
	case TypeLong, TypeDouble:
		return 8
	default:
		return 0
	}
}

// String returns the tag name.
func (v ValueType) String() string {
	switch v {
	case TypeMap:
		return "Map"
	case TypeList:
		return "List"
	case TypeByte:
		return "Byte"
	case TypeShort:
		return "Short"
	case TypeInteger:
		return "Integer"
	case TypeLong:
		return "Long"
	case TypeString:
		return "String"
	case TypeFloat:
		return "Float"
	case TypeDouble:
		return "Double"
	default:
		return "Unknown"
	}
}

// ParseCompression maps a case-sensitive lower-case name to a CompressionType.
func ParseCompression(name string) (CompressionType, bool) {
	switch name {
	case "none":
		return CompressionNone, true
	case "zstd":
		return CompressionZstd, true
	case "s2":
		return CompressionS2, true
	case "lz4":
		return CompressionLZ4, true
	default:
		return 0, false
	}
}

// String returns the codec name.
func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
