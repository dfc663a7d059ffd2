package cbor

import (
	"math"

	"github.com/x448/float16"
)

// Canonical half-precision encodings of the non-finite float classes.
const (
	canonicalNaNBits    uint16 = 0x7E00
	canonicalPosInfBits uint16 = 0x7C00
	canonicalNegInfBits uint16 = 0xFC00
)

// float32ToFloat16Bits narrows f to IEEE-754 binary16 bits using
// github.com/x448/float16, rounding to nearest/even. canonical.go checks
// losslessness before committing to this width; this function always
// produces a result, lossy or not.
func float32ToFloat16Bits(f float32) uint16 {
	return float16.Fromfloat32(f).Bits()
}

// float16BitsToFloat32 widens an IEEE-754 binary16 bit pattern to float32.
func float16BitsToFloat32(bits uint16) float32 {
	return float16.Frombits(bits).Float32()
}

// float16Lossless reports whether f survives a round trip through
// binary16 without loss.
func float16Lossless(f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false // NaN/Inf are handled by their own canonical constants
	}
	bits := float16.Fromfloat32(float32(f))
	return float64(bits.Float32()) == f
}

// float32Lossless reports whether f survives a round trip through
// binary32 without loss.
func float32Lossless(f float64) bool {
	return float64(float32(f)) == f
}
