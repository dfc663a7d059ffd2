package cbor

import (
	"encoding/binary"
	"math"
)

// EncodeOptions configures an encode.
type EncodeOptions struct {
	// Canonical activates deterministic encoding: float width narrowing
	// with canonical NaN/Infinity and map-key sorting. When false, floats
	// are emitted at their stored width and maps in insertion order.
	Canonical bool
}

// EncodeValue encodes v to its CBOR wire representation.
func EncodeValue(v Value, opts EncodeOptions) ([]byte, error) {
	bb := getByteBuffer()
	defer putByteBuffer(bb)
	if err := appendValue(bb, v, opts); err != nil {
		return nil, err
	}
	out := make([]byte, bb.Len())
	copy(out, bb.Bytes())
	return out, nil
}

// Writer exposes byte-level emitters for CBOR primitives. Every emitter
// that writes a length or tag number already uses the shortest-form rule;
// the three remaining differences in canonical mode (float width
// narrowing, canonical NaN, map key ordering) are layered on top in
// canonical.go.
type Writer struct {
	bb *byteBuffer
}

// NewWriter constructs a Writer appending to a fresh internal buffer.
func NewWriter() *Writer { return &Writer{bb: getByteBuffer()} }

// Bytes returns the bytes emitted so far.
func (w *Writer) Bytes() []byte { return w.bb.Bytes() }

// Release returns the Writer's buffer to the pool. Do not use w after
// calling Release.
func (w *Writer) Release() { putByteBuffer(w.bb) }

func appendUintCore(bb *byteBuffer, major uint8, u uint64) {
	switch {
	case u <= addInfoDirect:
		bb.writeByte(makeInitialByte(major, uint8(u)))
	case u <= math.MaxUint8:
		bb.writeByte(makeInitialByte(major, addInfoUint8))
		bb.writeByte(uint8(u))
	case u <= math.MaxUint16:
		bb.writeByte(makeInitialByte(major, addInfoUint16))
		d := bb.Extend(2)
		binary.BigEndian.PutUint16(d, uint16(u))
	case u <= math.MaxUint32:
		bb.writeByte(makeInitialByte(major, addInfoUint32))
		d := bb.Extend(4)
		binary.BigEndian.PutUint32(d, uint32(u))
	default:
		bb.writeByte(makeInitialByte(major, addInfoUint64))
		d := bb.Extend(8)
		binary.BigEndian.PutUint64(d, u)
	}
}

// EmitNil appends the null simple value.
func (w *Writer) EmitNil() { w.bb.writeByte(makeInitialByte(majorSimple, simpleNull)) }

// EmitUndefined appends the undefined simple value.
func (w *Writer) EmitUndefined() { w.bb.writeByte(makeInitialByte(majorSimple, simpleUndefined)) }

// EmitBool appends a boolean simple value.
func (w *Writer) EmitBool(v bool) {
	if v {
		w.bb.writeByte(makeInitialByte(majorSimple, simpleTrue))
		return
	}
	w.bb.writeByte(makeInitialByte(majorSimple, simpleFalse))
}

// EmitSimple appends an arbitrary simple value byte.
func (w *Writer) EmitSimple(s SimpleValue) {
	if s <= addInfoDirect {
		w.bb.writeByte(makeInitialByte(majorSimple, uint8(s)))
		return
	}
	w.bb.writeByte(makeInitialByte(majorSimple, addInfoUint8))
	w.bb.writeByte(byte(s))
}

// EmitUint appends an unsigned integer (major 0).
func (w *Writer) EmitUint(u uint64) { appendUintCore(w.bb, majorUnsigned, u) }

// EmitInt appends a signed integer using major 0 for x >= 0 and major 1
// for x < 0.
func (w *Writer) EmitInt(x int64) {
	if x >= 0 {
		appendUintCore(w.bb, majorUnsigned, uint64(x))
		return
	}
	appendUintCore(w.bb, majorNegative, uint64(-1-x))
}

// EmitNegativeRaw appends a major-1 integer from its raw wire value
// (logical value -1-raw), covering the full -2^64..-1 range major type 1
// can express.
func (w *Writer) EmitNegativeRaw(raw uint64) { appendUintCore(w.bb, majorNegative, raw) }

// EmitBytes appends a definite-length byte string.
func (w *Writer) EmitBytes(b []byte) {
	appendUintCore(w.bb, majorBytes, uint64(len(b)))
	w.bb.Write(b)
}

// EmitString appends a definite-length text string.
func (w *Writer) EmitString(s string) {
	appendUintCore(w.bb, majorText, uint64(len(s)))
	w.bb.Write([]byte(s))
}

// EmitFloat16 appends a float at its stored 16-bit width, exactly as
// given (no canonicalization of NaN payload).
func (w *Writer) EmitFloat16(bits uint16) {
	w.bb.writeByte(makeInitialByte(majorSimple, simpleFloat16))
	d := w.bb.Extend(2)
	binary.BigEndian.PutUint16(d, bits)
}

// EmitFloat32 appends a float at its stored 32-bit width.
func (w *Writer) EmitFloat32(f float32) {
	w.bb.writeByte(makeInitialByte(majorSimple, simpleFloat32))
	d := w.bb.Extend(4)
	binary.BigEndian.PutUint32(d, math.Float32bits(f))
}

// EmitFloat64 appends a float at its stored 64-bit width.
func (w *Writer) EmitFloat64(f float64) {
	w.bb.writeByte(makeInitialByte(majorSimple, simpleFloat64))
	d := w.bb.Extend(8)
	binary.BigEndian.PutUint64(d, math.Float64bits(f))
}

// EmitTag appends a tag header; the caller must follow with exactly one
// emitted value for the tag's content.
func (w *Writer) EmitTag(tag uint64) { appendUintCore(w.bb, majorTag, tag) }

// ArrayBuilder buffers child encodings so the array header (which needs
// the element count) can be emitted before the children, without
// rewriting bytes already written.
type ArrayBuilder struct {
	items [][]byte
	opts  EncodeOptions
}

// NewArrayBuilder starts an array builder.
func NewArrayBuilder(opts EncodeOptions) *ArrayBuilder { return &ArrayBuilder{opts: opts} }

// Add encodes v and appends it as the next array element.
func (b *ArrayBuilder) Add(v Value) error {
	enc, err := EncodeValue(v, b.opts)
	if err != nil {
		return err
	}
	b.items = append(b.items, enc)
	return nil
}

// Finish emits the array header followed by the buffered children, and
// returns the complete encoding.
func (b *ArrayBuilder) Finish() []byte {
	bb := getByteBuffer()
	defer putByteBuffer(bb)
	appendUintCore(bb, majorArray, uint64(len(b.items)))
	for _, it := range b.items {
		bb.Write(it)
	}
	out := make([]byte, bb.Len())
	copy(out, bb.Bytes())
	return out
}

// MapBuilder buffers (key, value) child encodings. Finalization emits the
// header with the observed pair count, then each pair in insertion order
// (non-canonical) or sorted order (canonical, see canonical.go).
type MapBuilder struct {
	keys   [][]byte
	values [][]byte
	opts   EncodeOptions
}

// NewMapBuilder starts a map builder.
func NewMapBuilder(opts EncodeOptions) *MapBuilder { return &MapBuilder{opts: opts} }

// Add encodes k and v and appends the pair.
func (b *MapBuilder) Add(k, v Value) error {
	keyEnc, err := EncodeValue(k, b.opts)
	if err != nil {
		return err
	}
	valEnc, err := EncodeValue(v, b.opts)
	if err != nil {
		return err
	}
	b.keys = append(b.keys, keyEnc)
	b.values = append(b.values, valEnc)
	return nil
}

// Finish emits the map header and pairs, sorted by encoded key when the
// builder was constructed with Canonical encoding.
func (b *MapBuilder) Finish() []byte {
	bb := getByteBuffer()
	defer putByteBuffer(bb)
	appendUintCore(bb, majorMap, uint64(len(b.keys)))

	order := make([]int, len(b.keys))
	for i := range order {
		order[i] = i
	}
	if b.opts.Canonical {
		sortPairsByEncodedKey(order, b.keys)
	}
	for _, i := range order {
		bb.Write(b.keys[i])
		bb.Write(b.values[i])
	}
	out := make([]byte, bb.Len())
	copy(out, bb.Bytes())
	return out
}
