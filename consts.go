package cbor

// CBOR major types (top 3 bits of the initial byte).
const (
	majorUnsigned = 0
	majorNegative = 1
	majorBytes    = 2
	majorText     = 3
	majorArray    = 4
	majorMap      = 5
	majorTag      = 6
	majorSimple   = 7
)

// Additional info values (low 5 bits of the initial byte).
const (
	addInfoDirect     = 23 // largest value encoded directly in the initial byte
	addInfoUint8      = 24
	addInfoUint16     = 25
	addInfoUint32     = 26
	addInfoUint64     = 27
	addInfoIndefinite = 31
)

// Simple values (major type 7).
const (
	simpleFalse     = 20
	simpleTrue      = 21
	simpleNull      = 22
	simpleUndefined = 23
	simpleFloat16   = 25
	simpleFloat32   = 26
	simpleFloat64   = 27
	simpleBreak     = 31
)

// defaultMaxDepth and defaultMaxIndefiniteChunks are the Reader's default
// resource bounds.
const (
	defaultMaxDepth            = 512
	defaultMaxIndefiniteChunks = 1_000_000
)

func makeInitialByte(major, addInfo uint8) byte {
	return byte((major << 5) | (addInfo & 0x1f))
}

func splitInitialByte(b byte) (major, addInfo uint8) {
	return (b >> 5) & 0x07, b & 0x1f
}
