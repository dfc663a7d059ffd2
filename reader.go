package cbor

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// ReaderOptions configures a decode.
type ReaderOptions struct {
	// AllowDuplicateMapKeys disables duplicate-key rejection; when true,
	// a later value for an already-seen key overwrites the earlier one.
	AllowDuplicateMapKeys bool
	// StrictMode enables non-canonical-encoding rejection and unknown-tag
	// rejection.
	StrictMode bool
	// MaxDepth bounds nesting depth. Zero selects the default of 512.
	MaxDepth int
	// MaxIndefiniteChunks bounds the chunk count of an indefinite-length
	// string. Zero selects the default of 1,000,000.
	MaxIndefiniteChunks int
}

func (o ReaderOptions) maxDepth() int {
	if o.MaxDepth <= 0 {
		return defaultMaxDepth
	}
	return o.MaxDepth
}

func (o ReaderOptions) maxIndefiniteChunks() int {
	if o.MaxIndefiniteChunks <= 0 {
		return defaultMaxIndefiniteChunks
	}
	return o.MaxIndefiniteChunks
}

// Reader decodes a single CBOR data item at a time from an in-memory
// buffer. A Reader is exclusively owned by its caller for the duration of
// a decode: it is not safe for concurrent use.
type Reader struct {
	buf   []byte
	pos   int
	depth int
	opts  ReaderOptions
}

// NewReader constructs a Reader over b with the given options.
func NewReader(b []byte, opts ReaderOptions) *Reader {
	return &Reader{buf: b, opts: opts}
}

// Pos returns the number of bytes consumed so far.
func (r *Reader) Pos() int { return r.pos }

// DecodeValue decodes a single CBOR data item from b and returns it along
// with the number of bytes consumed.
func DecodeValue(b []byte, opts ReaderOptions) (Value, int, error) {
	r := NewReader(b, opts)
	v, err := r.readValue()
	if err != nil {
		return Value{}, 0, err
	}
	return v, r.pos, nil
}

func (r *Reader) fail(kind ErrorKind, msg string) error {
	return newDecodeError(kind, r.pos, msg)
}

func (r *Reader) readByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, r.fail(UnexpectedEnd, "expected 1 more byte")
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *Reader) readN(n int) ([]byte, error) {
	if n < 0 || r.pos > len(r.buf)-n {
		return nil, r.fail(UnexpectedEnd, "short buffer")
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) enterDepth() error {
	r.depth++
	if r.depth > r.opts.maxDepth() {
		return r.fail(DepthLimitExceeded, "nesting depth exceeds configured maximum")
	}
	return nil
}

func (r *Reader) leaveDepth() { r.depth-- }

// readLength reads a length/count/tag-number argument per the RFC 8949
// additional-info encoding, applying strict-mode shortest-form rejection
// when configured.
func (r *Reader) readLength(info byte) (uint64, error) {
	switch {
	case info <= addInfoDirect:
		return uint64(info), nil
	case info == addInfoUint8:
		b, err := r.readByte()
		if err != nil {
			return 0, err
		}
		if r.opts.StrictMode && b < 24 {
			return 0, r.fail(InvalidFormat, "non-canonical length encoding (1-byte form for value < 24)")
		}
		return uint64(b), nil
	case info == addInfoUint16:
		b, err := r.readN(2)
		if err != nil {
			return 0, err
		}
		v := uint64(binary.BigEndian.Uint16(b))
		if r.opts.StrictMode && v <= math.MaxUint8 {
			return 0, r.fail(InvalidFormat, "non-canonical length encoding (2-byte form fits in 1 byte)")
		}
		return v, nil
	case info == addInfoUint32:
		b, err := r.readN(4)
		if err != nil {
			return 0, err
		}
		v := uint64(binary.BigEndian.Uint32(b))
		if r.opts.StrictMode && v <= math.MaxUint16 {
			return 0, r.fail(InvalidFormat, "non-canonical length encoding (4-byte form fits in 2 bytes)")
		}
		return v, nil
	case info == addInfoUint64:
		b, err := r.readN(8)
		if err != nil {
			return 0, err
		}
		v := binary.BigEndian.Uint64(b)
		if r.opts.StrictMode && v <= math.MaxUint32 {
			return 0, r.fail(InvalidFormat, "non-canonical length encoding (8-byte form fits in 4 bytes)")
		}
		return v, nil
	default:
		return 0, r.fail(InvalidFormat, "invalid additional info for length")
	}
}

// readValue decodes exactly one data item, including its nested content.
func (r *Reader) readValue() (Value, error) {
	lead, err := r.readByte()
	if err != nil {
		return Value{}, err
	}
	major, info := splitInitialByte(lead)

	switch major {
	case majorUnsigned:
		u, err := r.readLength(info)
		if err != nil {
			return Value{}, err
		}
		return NewUnsigned(u), nil

	case majorNegative:
		raw, err := r.readLength(info)
		if err != nil {
			return Value{}, err
		}
		return NewNegativeRaw(raw), nil

	case majorBytes:
		return r.readByteOrTextString(info, majorBytes)

	case majorText:
		return r.readByteOrTextString(info, majorText)

	case majorArray:
		return r.readArray(info)

	case majorMap:
		return r.readMap(info)

	case majorTag:
		return r.readTagged(info)

	case majorSimple:
		return r.readSimple(info)

	default:
		return Value{}, r.fail(InvalidFormat, "unreachable major type")
	}
}

func (r *Reader) readByteOrTextString(info byte, major uint8) (Value, error) {
	if info == addInfoIndefinite {
		data, err := r.readIndefiniteString(major)
		if err != nil {
			return Value{}, err
		}
		if major == majorText {
			return NewTextString(string(data)), nil
		}
		return NewByteString(data), nil
	}
	n, err := r.readLength(info)
	if err != nil {
		return Value{}, err
	}
	if n > uint64(len(r.buf)-r.pos) {
		return Value{}, r.fail(UnexpectedEnd, "string length exceeds remaining buffer")
	}
	data, err := r.readN(int(n))
	if err != nil {
		return Value{}, err
	}
	if major == majorText {
		if !utf8.Valid(data) {
			return Value{}, r.fail(IncorrectUTF8String, "text string is not valid UTF-8")
		}
		return NewTextString(string(data)), nil
	}
	return NewByteString(data), nil
}

// readIndefiniteString concatenates the chunks of an indefinite-length
// byte/text string. Each chunk must be a definite-length string of the
// same major type; text chunks are validated as UTF-8 individually
// before concatenation, per RFC 8949 §3.2.3.
func (r *Reader) readIndefiniteString(major uint8) ([]byte, error) {
	var total []byte
	chunks := 0
	maxChunks := r.opts.maxIndefiniteChunks()
	for {
		if r.pos >= len(r.buf) {
			return nil, r.fail(UnexpectedEnd, "unterminated indefinite-length string")
		}
		lead := r.buf[r.pos]
		if lead == makeInitialByte(majorSimple, addInfoIndefinite) {
			r.pos++
			return total, nil
		}
		chunkMajor, chunkInfo := splitInitialByte(lead)
		if chunkMajor != major || chunkInfo == addInfoIndefinite {
			return nil, r.fail(WrongTypeInsideIndefiniteLength, "indefinite-length string chunk has wrong type")
		}
		r.pos++
		n, err := r.readLength(chunkInfo)
		if err != nil {
			return nil, err
		}
		if n > uint64(len(r.buf)-r.pos) {
			return nil, r.fail(UnexpectedEnd, "chunk length exceeds remaining buffer")
		}
		data, err := r.readN(int(n))
		if err != nil {
			return nil, err
		}
		if major == majorText && !utf8.Valid(data) {
			return nil, r.fail(IncorrectUTF8String, "indefinite-length text chunk is not valid UTF-8")
		}
		chunks++
		if chunks > maxChunks {
			return nil, r.fail(TooLongIndefiniteLength, "indefinite-length string chunk count exceeds configured maximum")
		}
		if len(total) > math.MaxInt-len(data) {
			return nil, r.fail(MalformedData, "indefinite-length string size overflow")
		}
		total = append(total, data...)
	}
}

func (r *Reader) readArray(info byte) (Value, error) {
	if err := r.enterDepth(); err != nil {
		return Value{}, err
	}
	defer r.leaveDepth()

	if info == addInfoIndefinite {
		var items []Value
		for {
			if r.pos >= len(r.buf) {
				return Value{}, r.fail(UnexpectedEnd, "unterminated indefinite-length array")
			}
			if r.buf[r.pos] == makeInitialByte(majorSimple, addInfoIndefinite) {
				r.pos++
				return NewArray(items), nil
			}
			child, err := r.readValue()
			if err != nil {
				return Value{}, err
			}
			items = append(items, child)
		}
	}

	n, err := r.readLength(info)
	if err != nil {
		return Value{}, err
	}
	items := make([]Value, 0, preallocCap(n))
	for i := uint64(0); i < n; i++ {
		child, err := r.readValue()
		if err != nil {
			return Value{}, err
		}
		items = append(items, child)
	}
	return NewArray(items), nil
}

func (r *Reader) readMap(info byte) (Value, error) {
	if err := r.enterDepth(); err != nil {
		return Value{}, err
	}
	defer r.leaveDepth()

	seen := newKeySet()
	var entries []MapEntry

	addPair := func(k, v Value) error {
		key := NewKey(k)
		if !r.opts.AllowDuplicateMapKeys {
			if seen.has(key) {
				return r.fail(DuplicateMapKey, "duplicate key in map")
			}
			seen.add(key)
			entries = append(entries, MapEntry{Key: key, Value: v})
			return nil
		}
		// Duplicates allowed: the later value wins, but the first
		// occurrence's position is preserved.
		for i := range entries {
			if entries[i].Key.Equal(key) {
				entries[i].Value = v
				return nil
			}
		}
		entries = append(entries, MapEntry{Key: key, Value: v})
		return nil
	}

	if info == addInfoIndefinite {
		for {
			if r.pos >= len(r.buf) {
				return Value{}, r.fail(UnexpectedEnd, "unterminated indefinite-length map")
			}
			if r.buf[r.pos] == makeInitialByte(majorSimple, addInfoIndefinite) {
				r.pos++
				return NewMap(entries), nil
			}
			k, err := r.readValue()
			if err != nil {
				return Value{}, err
			}
			v, err := r.readValue()
			if err != nil {
				return Value{}, err
			}
			if err := addPair(k, v); err != nil {
				return Value{}, err
			}
		}
	}

	n, err := r.readLength(info)
	if err != nil {
		return Value{}, err
	}
	entries = make([]MapEntry, 0, preallocCap(n))
	for i := uint64(0); i < n; i++ {
		k, err := r.readValue()
		if err != nil {
			return Value{}, err
		}
		v, err := r.readValue()
		if err != nil {
			return Value{}, err
		}
		if err := addPair(k, v); err != nil {
			return Value{}, err
		}
	}
	return NewMap(entries), nil
}

func (r *Reader) readTagged(info byte) (Value, error) {
	start := r.pos - 1
	tag, err := r.readLength(info)
	if err != nil {
		return Value{}, err
	}
	if err := r.enterDepth(); err != nil {
		return Value{}, err
	}
	child, err := r.readValue()
	r.leaveDepth()
	if err != nil {
		return Value{}, err
	}
	if err := ValidateTag(tag, child, r.opts.StrictMode); err != nil {
		if de, ok := err.(*DecodeError); ok {
			de.Offset = start
		}
		return Value{}, err
	}
	return NewTagged(tag, child), nil
}

func (r *Reader) readSimple(info byte) (Value, error) {
	switch info {
	case simpleFalse, simpleTrue, simpleNull, simpleUndefined:
		return NewSimple(SimpleValue(info)), nil
	case addInfoUint8:
		v, err := r.readByte()
		if err != nil {
			return Value{}, err
		}
		if v < 20 {
			return Value{}, r.fail(InvalidFormat, "unassigned simple value")
		}
		if v >= 24 && v <= 31 {
			return Value{}, r.fail(InvalidFormat, "reserved simple value")
		}
		if r.opts.StrictMode && v <= 23 {
			return Value{}, r.fail(InvalidFormat, "non-canonical simple value encoding (1-byte form for value <= 23)")
		}
		// v in 20..23 maps to the named simple values; v >= 32 is
		// accepted as an opaque simple value.
		return NewSimple(SimpleValue(v)), nil
	case simpleFloat16:
		b, err := r.readN(2)
		if err != nil {
			return Value{}, err
		}
		bits := binary.BigEndian.Uint16(b)
		return NewFloat16(float16BitsToFloat32(bits)), nil
	case simpleFloat32:
		b, err := r.readN(4)
		if err != nil {
			return Value{}, err
		}
		bits := binary.BigEndian.Uint32(b)
		return NewFloat32(math.Float32frombits(bits)), nil
	case simpleFloat64:
		b, err := r.readN(8)
		if err != nil {
			return Value{}, err
		}
		bits := binary.BigEndian.Uint64(b)
		return NewFloat64(math.Float64frombits(bits)), nil
	case addInfoIndefinite:
		return Value{}, r.fail(InvalidIndefiniteLength, "break encountered outside an indefinite-length context")
	default:
		// info in 0..19 (unassigned simple values encoded inline) or
		// 28..30 (reserved additional-info values).
		return Value{}, r.fail(InvalidFormat, "unassigned simple value")
	}
}

// preallocCap bounds up-front slice allocation for attacker-controlled
// element counts; growth beyond this still happens via append.
func preallocCap(n uint64) int {
	const limit = 4096
	if n > limit {
		return limit
	}
	return int(n)
}

// keySet tracks map keys seen so far for duplicate detection, hashing
// first and falling back to full equality on collision.
type keySet struct {
	buckets map[uint64][]Key
}

func newKeySet() *keySet { return &keySet{buckets: make(map[uint64][]Key)} }

func (s *keySet) has(k Key) bool {
	for _, existing := range s.buckets[k.Hash()] {
		if existing.Equal(k) {
			return true
		}
	}
	return false
}

func (s *keySet) add(k Key) {
	h := k.Hash()
	s.buckets[h] = append(s.buckets[h], k)
}
