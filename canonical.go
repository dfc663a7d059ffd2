package cbor

import (
	"bytes"
	"encoding/binary"
	"math"
	"sort"
)

// CanonicalEncode encodes v deterministically: shortest-form integers
// (already true of every Writer emitter), float width narrowing with
// canonical NaN/Infinity, definite-length strings only, and map-key
// ordering by (encoded length, lexicographic bytes). Equal inputs always
// produce byte-identical output.
func CanonicalEncode(v Value) ([]byte, error) {
	return EncodeValue(v, EncodeOptions{Canonical: true})
}

// appendValue is the single recursive encoder shared by the non-canonical
// and canonical modes; opts.Canonical toggles the only three behaviors
// that differ between them (float narrowing, canonical NaN, map ordering).
func appendValue(bb *byteBuffer, v Value, opts EncodeOptions) error {
	switch v.kind {
	case KindUnsigned:
		appendUintCore(bb, majorUnsigned, v.u)
	case KindNegative:
		appendUintCore(bb, majorNegative, v.u)
	case KindByteString:
		appendUintCore(bb, majorBytes, uint64(len(v.bytes)))
		bb.Write(v.bytes)
	case KindTextString:
		appendUintCore(bb, majorText, uint64(len(v.str)))
		bb.Write([]byte(v.str))
	case KindArray:
		appendUintCore(bb, majorArray, uint64(len(v.arr)))
		for _, item := range v.arr {
			if err := appendValue(bb, item, opts); err != nil {
				return err
			}
		}
	case KindMap:
		return appendMap(bb, v.mp, opts)
	case KindTagged:
		appendUintCore(bb, majorTag, v.u)
		return appendValue(bb, *v.tagged, opts)
	case KindSimple:
		s := SimpleValue(v.u)
		if s <= addInfoDirect {
			bb.writeByte(makeInitialByte(majorSimple, uint8(s)))
		} else {
			bb.writeByte(makeInitialByte(majorSimple, addInfoUint8))
			bb.writeByte(byte(s))
		}
	case KindFloat16:
		appendFloat(bb, v.u, 16, opts)
	case KindFloat32:
		appendFloat(bb, v.u, 32, opts)
	case KindFloat64:
		appendFloat(bb, v.u, 64, opts)
	case KindBreak:
		return newEncodeError("cannot encode an internal Break value")
	default:
		return newEncodeError("cannot encode an invalid Value")
	}
	return nil
}

// appendFloat emits a float stored as raw bit pattern bits at storedWidth
// bits (16: float32 widening of the half-precision value, 32, or 64). In
// non-canonical mode the stored width and bit pattern are preserved
// exactly, including the caller's NaN payload. In canonical mode the
// narrowing chain and canonical NaN/Infinity constants apply regardless
// of storedWidth.
func appendFloat(bb *byteBuffer, bits uint64, storedWidth int, opts EncodeOptions) {
	if !opts.Canonical {
		switch storedWidth {
		case 16:
			// The widening float16 -> float32 is exact and invertible, so
			// narrowing back recovers the original wire bits, NaN payload
			// included.
			emitFloat16(bb, float32ToFloat16Bits(math.Float32frombits(uint32(bits))))
		case 32:
			bb.writeByte(makeInitialByte(majorSimple, simpleFloat32))
			binary.BigEndian.PutUint32(bb.Extend(4), uint32(bits))
		default:
			bb.writeByte(makeInitialByte(majorSimple, simpleFloat64))
			binary.BigEndian.PutUint64(bb.Extend(8), bits)
		}
		return
	}

	var v float64
	if storedWidth == 64 {
		v = math.Float64frombits(bits)
	} else {
		v = float64(math.Float32frombits(uint32(bits)))
	}

	switch {
	case math.IsNaN(v):
		emitFloat16(bb, canonicalNaNBits)
	case math.IsInf(v, +1):
		emitFloat16(bb, canonicalPosInfBits)
	case math.IsInf(v, -1):
		emitFloat16(bb, canonicalNegInfBits)
	case float16Lossless(v):
		// Covers both signed zeroes, which stay distinct at half width.
		emitFloat16(bb, float32ToFloat16Bits(float32(v)))
	case float32Lossless(v):
		bb.writeByte(makeInitialByte(majorSimple, simpleFloat32))
		binary.BigEndian.PutUint32(bb.Extend(4), math.Float32bits(float32(v)))
	default:
		bb.writeByte(makeInitialByte(majorSimple, simpleFloat64))
		binary.BigEndian.PutUint64(bb.Extend(8), math.Float64bits(v))
	}
}

func emitFloat16(bb *byteBuffer, bits uint16) {
	bb.writeByte(makeInitialByte(majorSimple, simpleFloat16))
	binary.BigEndian.PutUint16(bb.Extend(2), bits)
}

func appendMap(bb *byteBuffer, entries []MapEntry, opts EncodeOptions) error {
	appendUintCore(bb, majorMap, uint64(len(entries)))

	type encoded struct {
		key []byte
		val []byte
	}
	enc := make([]encoded, len(entries))
	for i, e := range entries {
		kb := getByteBuffer()
		if err := appendValue(kb, e.Key.Value(), opts); err != nil {
			putByteBuffer(kb)
			return err
		}
		keyBytes := append([]byte(nil), kb.Bytes()...)
		putByteBuffer(kb)

		vb := getByteBuffer()
		if err := appendValue(vb, e.Value, opts); err != nil {
			putByteBuffer(vb)
			return err
		}
		valBytes := append([]byte(nil), vb.Bytes()...)
		putByteBuffer(vb)

		enc[i] = encoded{key: keyBytes, val: valBytes}
	}

	order := make([]int, len(enc))
	for i := range order {
		order[i] = i
	}
	if opts.Canonical {
		keys := make([][]byte, len(enc))
		for i, e := range enc {
			keys[i] = e.key
		}
		sortPairsByEncodedKey(order, keys)
	}
	for _, i := range order {
		bb.Write(enc[i].key)
		bb.Write(enc[i].val)
	}
	return nil
}

// sortPairsByEncodedKey reorders order (indices into keys) so that keys
// appear by ascending encoded length, then lexicographic bytes.
func sortPairsByEncodedKey(order []int, keys [][]byte) {
	sort.SliceStable(order, func(i, j int) bool {
		a, b := keys[order[i]], keys[order[j]]
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return bytes.Compare(a, b) < 0
	})
}
