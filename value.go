package cbor

import (
	"bytes"
	"math"
)

// Kind discriminates the variants of Value.
type Kind int

const (
	// KindInvalid is the zero value of Kind; a zero-value Value is never
	// a valid decoded or constructed item.
	KindInvalid Kind = iota
	KindUnsigned
	KindNegative
	KindByteString
	KindTextString
	KindArray
	KindMap
	KindTagged
	KindSimple
	KindFloat16
	KindFloat32
	KindFloat64
	// KindBreak names the break marker (0xFF). The Reader detects the
	// marker byte directly and never produces a Value of this kind, so it
	// never appears inside a Value returned to a caller.
	KindBreak
)

func (k Kind) String() string {
	switch k {
	case KindUnsigned:
		return "unsigned"
	case KindNegative:
		return "negative"
	case KindByteString:
		return "bytestring"
	case KindTextString:
		return "textstring"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindTagged:
		return "tagged"
	case KindSimple:
		return "simple"
	case KindFloat16:
		return "float16"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindBreak:
		return "break"
	default:
		return "invalid"
	}
}

// SimpleValue is a major-type-7 simple value. Only False, True, Null and
// Undefined are named by RFC 8949 for general use; values 32..255 may
// appear as opaque simple values.
type SimpleValue byte

const (
	SimpleFalse     SimpleValue = 20
	SimpleTrue      SimpleValue = 21
	SimpleNull      SimpleValue = 22
	SimpleUndefined SimpleValue = 23
)

func (s SimpleValue) String() string {
	switch s {
	case SimpleFalse:
		return "false"
	case SimpleTrue:
		return "true"
	case SimpleNull:
		return "null"
	case SimpleUndefined:
		return "undefined"
	default:
		return "simple"
	}
}

// MapEntry is a single key/value pair of a Map Value. Order matters only
// when the consumer inspects the underlying slice directly; canonical
// encoding reorders independently of this slice's order.
type MapEntry struct {
	Key   Key
	Value Value
}

// Value is a single CBOR data item of any major type. The zero value
// has Kind() == KindInvalid and should never be used directly; build
// values with the New* constructors.
type Value struct {
	kind Kind

	// u carries: Unsigned's value, Negative's raw (wire) additional-info
	// value, the tag number for Tagged, the raw bit pattern for
	// Float16/32/64, and the byte value for Simple.
	u uint64

	str   string
	bytes []byte
	arr   []Value
	mp    []MapEntry

	// tagged is non-nil only for KindTagged; indirected through a
	// pointer to break the Value/Tagged size cycle.
	tagged *Value
}

// Kind reports the variant of v.
func (v Value) Kind() Kind { return v.kind }

// --- constructors ---

// NewUnsigned constructs a major-0 value.
func NewUnsigned(u uint64) Value { return Value{kind: KindUnsigned, u: u} }

// NewNegativeRaw constructs a major-1 value from its raw wire additional
// info (the logical value is -1-raw). Use this to represent values below
// -2^63, which NewNegative cannot express.
func NewNegativeRaw(raw uint64) Value { return Value{kind: KindNegative, u: raw} }

// NewNegative constructs a major-1 value from a signed int64 known to be
// negative. Panics if n >= 0; use NewNegativeRaw for the full wire range.
func NewNegative(n int64) Value {
	if n >= 0 {
		panic("cbor: NewNegative requires n < 0")
	}
	raw := uint64(-1 - n)
	return NewNegativeRaw(raw)
}

// NewByteString constructs a major-2 value. The byte slice is copied.
func NewByteString(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindByteString, bytes: cp}
}

// NewTextString constructs a major-3 value. s must be valid UTF-8;
// callers that obtained s from untrusted bytes should decode through
// DecodeValue instead, which validates.
func NewTextString(s string) Value { return Value{kind: KindTextString, str: s} }

// NewArray constructs a major-4 value. The slice is copied shallowly
// (Values are themselves immutable trees).
func NewArray(items []Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindArray, arr: cp}
}

// NewMap constructs a major-5 value from entries in insertion order.
// Duplicate keys are not rejected here; DecodeValue enforces that at
// parse time per ReaderOptions.AllowDuplicateMapKeys.
func NewMap(entries []MapEntry) Value {
	cp := make([]MapEntry, len(entries))
	copy(cp, entries)
	return Value{kind: KindMap, mp: cp}
}

// NewTagged constructs a major-6 value. inner is owned exclusively by the
// returned Value.
func NewTagged(tag uint64, inner Value) Value {
	iv := inner
	return Value{kind: KindTagged, u: tag, tagged: &iv}
}

// NewSimple constructs a major-7 non-float simple value.
func NewSimple(s SimpleValue) Value { return Value{kind: KindSimple, u: uint64(s)} }

// NewFloat16 constructs a major-7 value holding an IEEE-754 binary16
// number, stored as its float32 widening; the exact half-precision bit
// pattern is recovered via Float16Bits.
func NewFloat16(f float32) Value {
	return Value{kind: KindFloat16, u: uint64(math.Float32bits(f))}
}

// NewFloat32 constructs a major-7 value holding an IEEE-754 binary32 number.
func NewFloat32(f float32) Value {
	return Value{kind: KindFloat32, u: uint64(math.Float32bits(f))}
}

// NewFloat64 constructs a major-7 value holding an IEEE-754 binary64 number.
func NewFloat64(f float64) Value {
	return Value{kind: KindFloat64, u: math.Float64bits(f)}
}

func newBreak() Value { return Value{kind: KindBreak} }

// --- predicates ---

func (v Value) IsUnsigned() bool  { return v.kind == KindUnsigned }
func (v Value) IsNegative() bool  { return v.kind == KindNegative }
func (v Value) IsInteger() bool   { return v.kind == KindUnsigned || v.kind == KindNegative }
func (v Value) IsByteString() bool { return v.kind == KindByteString }
func (v Value) IsTextString() bool { return v.kind == KindTextString }
func (v Value) IsArray() bool     { return v.kind == KindArray }
func (v Value) IsMap() bool       { return v.kind == KindMap }
func (v Value) IsTagged() bool    { return v.kind == KindTagged }
func (v Value) IsSimple() bool    { return v.kind == KindSimple }
func (v Value) IsFloat16() bool   { return v.kind == KindFloat16 }
func (v Value) IsFloat32() bool   { return v.kind == KindFloat32 }
func (v Value) IsFloat64() bool   { return v.kind == KindFloat64 }
func (v Value) IsFloat() bool {
	return v.kind == KindFloat16 || v.kind == KindFloat32 || v.kind == KindFloat64
}
func (v Value) IsNumeric() bool { return v.IsInteger() || v.IsFloat() }
func (v Value) IsBreak() bool   { return v.kind == KindBreak }

// --- accessors ---

// Unsigned returns the value and true iff Kind() == KindUnsigned.
func (v Value) Unsigned() (uint64, bool) {
	if v.kind != KindUnsigned {
		return 0, false
	}
	return v.u, true
}

// NegativeRaw returns the raw wire additional-info value and true iff
// Kind() == KindNegative. The logical value is -1-raw.
func (v Value) NegativeRaw() (uint64, bool) {
	if v.kind != KindNegative {
		return 0, false
	}
	return v.u, true
}

// Int64 returns the logical value of a Negative as an int64, and true iff
// Kind() == KindNegative and the value fits in the representable range
// (raw <= math.MaxInt64, i.e. value >= -2^63).
func (v Value) Int64() (int64, bool) {
	raw, ok := v.NegativeRaw()
	if !ok {
		return 0, false
	}
	if raw > math.MaxInt64 {
		return 0, false
	}
	return -1 - int64(raw), true
}

// Bytes returns the byte string payload and true iff Kind() == KindByteString.
func (v Value) Bytes() ([]byte, bool) {
	if v.kind != KindByteString {
		return nil, false
	}
	return v.bytes, true
}

// Text returns the text string payload and true iff Kind() == KindTextString.
func (v Value) Text() (string, bool) {
	if v.kind != KindTextString {
		return "", false
	}
	return v.str, true
}

// Items returns the array elements and true iff Kind() == KindArray.
func (v Value) Items() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// Entries returns the map entries and true iff Kind() == KindMap.
func (v Value) Entries() ([]MapEntry, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.mp, true
}

// Lookup finds the value for a text-string key in a Map Value. Returns
// false if v is not a Map or the key is absent.
func (v Value) Lookup(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	for _, e := range v.mp {
		if s, ok := e.Key.v.Text(); ok && s == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Tag returns the tag number and inner value, and true iff Kind() == KindTagged.
func (v Value) Tag() (uint64, Value, bool) {
	if v.kind != KindTagged {
		return 0, Value{}, false
	}
	return v.u, *v.tagged, true
}

// Simple returns the simple value byte and true iff Kind() == KindSimple.
func (v Value) Simple() (SimpleValue, bool) {
	if v.kind != KindSimple {
		return 0, false
	}
	return SimpleValue(v.u), true
}

// Float16Bits returns the raw IEEE-754 binary16 bit pattern and true iff
// Kind() == KindFloat16.
func (v Value) Float16Bits() (uint16, bool) {
	if v.kind != KindFloat16 {
		return 0, false
	}
	return float32ToFloat16Bits(math.Float32frombits(uint32(v.u))), true
}

// Float32 returns the value widened to float32 and true iff Kind() is
// KindFloat16 or KindFloat32.
func (v Value) Float32() (float32, bool) {
	if v.kind != KindFloat16 && v.kind != KindFloat32 {
		return 0, false
	}
	return math.Float32frombits(uint32(v.u)), true
}

// Float64 returns the value widened to float64 and true iff Kind() is
// any of the three float kinds.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindFloat64:
		return math.Float64frombits(v.u), true
	case KindFloat32, KindFloat16:
		return float64(math.Float32frombits(uint32(v.u))), true
	default:
		return 0, false
	}
}

// --- Key ---

// Key wraps a Value so it can participate in map/set lookup.
type Key struct{ v Value }

// NewKey wraps v as a Key. Behavior is undefined if v contains a Break
// anywhere in its tree (the Reader rejects such input before it reaches
// this point).
func NewKey(v Value) Key { return Key{v: v} }

// Value returns the wrapped Value.
func (k Key) Value() Value { return k.v }

// Equal reports whether two keys wrap structurally equal values.
func (k Key) Equal(o Key) bool { return k.v.Equal(o.v) }

// Hash returns a hash of the key suitable for use in a Go map, folding
// variant discriminator plus variant-specific payload bytes. For Array
// and Map keys only the length is folded in, bounding hash cost on large
// nested keys while Equal still compares in full.
func (k Key) Hash() uint64 { return k.v.hash() }

// Equal reports structural equality between two Values.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindUnsigned, KindNegative, KindSimple:
		return v.u == o.u
	case KindFloat16, KindFloat32, KindFloat64:
		return v.u == o.u
	case KindByteString:
		return bytes.Equal(v.bytes, o.bytes)
	case KindTextString:
		return v.str == o.str
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.mp) != len(o.mp) {
			return false
		}
		// Map equality ignores entry order: every entry in v must have
		// a structurally-equal counterpart in o.
		used := make([]bool, len(o.mp))
		for _, e := range v.mp {
			found := false
			for j, oe := range o.mp {
				if used[j] {
					continue
				}
				if e.Key.Equal(oe.Key) && e.Value.Equal(oe.Value) {
					used[j] = true
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case KindTagged:
		return v.u == o.u && v.tagged.Equal(*o.tagged)
	case KindBreak:
		return true
	default:
		return false
	}
}

// hash folds the variant discriminator plus payload bytes using an
// FNV-1a-style mix. Array/Map entries fold only their length, not their
// full contents, so Equal is the authority on equality; hash is a
// fast pre-filter.
func (v Value) hash() uint64 {
	h := uint64(1469598103934665603) // FNV offset basis
	mix := func(x uint64) {
		h ^= x
		h *= 1099511628211 // FNV prime
	}
	mix(uint64(v.kind))
	switch v.kind {
	case KindUnsigned, KindNegative, KindSimple, KindFloat16, KindFloat32, KindFloat64:
		mix(v.u)
	case KindByteString:
		mix(uint64(len(v.bytes)))
		for _, b := range v.bytes {
			mix(uint64(b))
		}
	case KindTextString:
		mix(uint64(len(v.str)))
		for i := 0; i < len(v.str); i++ {
			mix(uint64(v.str[i]))
		}
	case KindArray:
		mix(uint64(len(v.arr))) // length only
	case KindMap:
		mix(uint64(len(v.mp))) // length only
	case KindTagged:
		mix(v.u)
		mix(v.tagged.hash())
	}
	return h
}
