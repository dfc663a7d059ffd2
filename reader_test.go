package cbor

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func decodeHex(t *testing.T, hexStr string, opts ReaderOptions) (Value, int) {
	t.Helper()
	b := mustHex(t, hexStr)
	v, n, err := DecodeValue(b, opts)
	if err != nil {
		t.Fatalf("DecodeValue(%s) returned error: %v", hexStr, err)
	}
	return v, n
}

func TestDecodeUnsignedDirect(t *testing.T) {
	v, n := decodeHex(t, "17", ReaderOptions{})
	if n != 1 {
		t.Fatalf("consumed %d bytes, want 1", n)
	}
	u, ok := v.Unsigned()
	if !ok || u != 23 {
		t.Fatalf("Unsigned() = (%d, %v), want (23, true)", u, ok)
	}
}

func TestDecodeUnsignedStrictModeRejectsNonCanonicalLength(t *testing.T) {
	// 0x18 0x17 spells out 23 using the 1-byte follow form, which could
	// have been expressed directly (0x17) — rejected in strict mode.
	b := mustHex(t, "1817")
	_, _, err := DecodeValue(b, ReaderOptions{StrictMode: true})
	if !IsKind(err, InvalidFormat) {
		t.Fatalf("error = %v, want InvalidFormat", err)
	}

	// Outside strict mode the same bytes decode successfully.
	v, _, err := DecodeValue(b, ReaderOptions{})
	if err != nil {
		t.Fatalf("non-strict decode failed: %v", err)
	}
	if u, _ := v.Unsigned(); u != 23 {
		t.Fatalf("Unsigned() = %d, want 23", u)
	}
}

func TestDecodeUnsignedLargeValue(t *testing.T) {
	// 1_000_000_000_000 encoded as an 8-byte unsigned integer.
	v, _ := decodeHex(t, "1b000000e8d4a51000", ReaderOptions{})
	u, ok := v.Unsigned()
	if !ok || u != 1_000_000_000_000 {
		t.Fatalf("Unsigned() = (%d, %v), want (1000000000000, true)", u, ok)
	}
}

func TestDecodeNegative(t *testing.T) {
	// -1000 is encoded as major 1 with raw additional value 999.
	v, _ := decodeHex(t, "3903e7", ReaderOptions{})
	n, ok := v.Int64()
	if !ok || n != -1000 {
		t.Fatalf("Int64() = (%d, %v), want (-1000, true)", n, ok)
	}
}

func TestDecodeTextString(t *testing.T) {
	v, _ := decodeHex(t, "6449455446", ReaderOptions{})
	s, ok := v.Text()
	if !ok || s != "IETF" {
		t.Fatalf("Text() = (%q, %v), want (\"IETF\", true)", s, ok)
	}
}

func TestDecodeTextStringInvalidUTF8(t *testing.T) {
	// A 1-byte text string containing a lone continuation byte (0x80) is
	// not valid UTF-8.
	b := mustHex(t, "6180")
	_, _, err := DecodeValue(b, ReaderOptions{})
	if !IsKind(err, IncorrectUTF8String) {
		t.Fatalf("error = %v, want IncorrectUTF8String", err)
	}
}

func TestDecodeIndefiniteArray(t *testing.T) {
	// [_ 1, 2, 3]
	v, n := decodeHex(t, "9f010203ff", ReaderOptions{})
	items, ok := v.Items()
	if !ok || len(items) != 3 {
		t.Fatalf("Items() = (%v, %v), want 3 items", items, ok)
	}
	for i, want := range []uint64{1, 2, 3} {
		if u, _ := items[i].Unsigned(); u != want {
			t.Errorf("items[%d] = %d, want %d", i, u, want)
		}
	}
	if n != 5 {
		t.Fatalf("consumed %d bytes, want 5", n)
	}
}

func TestDecodeIndefiniteMap(t *testing.T) {
	// {_ "a": 1}
	v, _ := decodeHex(t, "bf616101ff", ReaderOptions{})
	entries, ok := v.Entries()
	if !ok || len(entries) != 1 {
		t.Fatalf("Entries() = (%v, %v), want 1 entry", entries, ok)
	}
	if s, _ := entries[0].Key.Value().Text(); s != "a" {
		t.Fatalf("key = %q, want %q", s, "a")
	}
}

func TestDecodeTaggedFloat64(t *testing.T) {
	// Tag 1 wrapping a float64.
	b := mustHex(t, "c1fb3ff8000000000000")
	v, _, err := DecodeValue(b, ReaderOptions{})
	if err != nil {
		t.Fatalf("DecodeValue: %v", err)
	}
	tag, inner, ok := v.Tag()
	if !ok || tag != 1 {
		t.Fatalf("Tag() = (%d, _, %v), want (1, _, true)", tag, ok)
	}
	f, ok := inner.Float64()
	if !ok || f != 1.5 {
		t.Fatalf("inner Float64() = (%v, %v), want (1.5, true)", f, ok)
	}
}

func TestDecodeTagStrictModeRejectsWrongShape(t *testing.T) {
	// Tag 37 (binary UUID) requires a 16-byte byte string content; here
	// the content is a 3-byte byte string.
	b := mustHex(t, "d825"+"43"+"010203")
	_, _, err := DecodeValue(b, ReaderOptions{StrictMode: true})
	if err == nil {
		t.Fatal("expected an error for a tag-37 value with the wrong byte length")
	}
}

func TestDecodeDepthLimitExceeded(t *testing.T) {
	var buf bytes.Buffer
	const n = 600
	for i := 0; i < n; i++ {
		buf.WriteByte(makeInitialByte(majorArray, 1))
	}
	buf.WriteByte(makeInitialByte(majorUnsigned, 0))

	_, _, err := DecodeValue(buf.Bytes(), ReaderOptions{})
	if !IsKind(err, DepthLimitExceeded) {
		t.Fatalf("error = %v, want DepthLimitExceeded", err)
	}
}

func TestDecodeAtMaxDepthSucceeds(t *testing.T) {
	var buf bytes.Buffer
	const n = defaultMaxDepth
	for i := 0; i < n; i++ {
		buf.WriteByte(makeInitialByte(majorArray, 1))
	}
	buf.WriteByte(makeInitialByte(majorUnsigned, 0))

	_, _, err := DecodeValue(buf.Bytes(), ReaderOptions{})
	if err != nil {
		t.Fatalf("decode at exactly the max depth failed: %v", err)
	}
}

func TestDecodeDuplicateMapKeyRejected(t *testing.T) {
	// {"a": 1, "a": 2}
	b := mustHex(t, "a2616101616102")
	_, _, err := DecodeValue(b, ReaderOptions{})
	if !IsKind(err, DuplicateMapKey) {
		t.Fatalf("error = %v, want DuplicateMapKey", err)
	}

	v, _, err := DecodeValue(b, ReaderOptions{AllowDuplicateMapKeys: true})
	if err != nil {
		t.Fatalf("decode with AllowDuplicateMapKeys failed: %v", err)
	}
	entries, _ := v.Entries()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1 (later value should win)", len(entries))
	}
	if u, _ := entries[0].Value.Unsigned(); u != 2 {
		t.Fatalf("surviving value = %d, want 2 (later value wins)", u)
	}
}

func TestDecodeBreakOutsideIndefiniteContext(t *testing.T) {
	b := mustHex(t, "ff")
	_, _, err := DecodeValue(b, ReaderOptions{})
	if !IsKind(err, InvalidIndefiniteLength) {
		t.Fatalf("error = %v, want InvalidIndefiniteLength", err)
	}
}

func TestDecodeUnexpectedEnd(t *testing.T) {
	// A 2-byte-length unsigned integer header with no payload.
	b := mustHex(t, "19")
	_, _, err := DecodeValue(b, ReaderOptions{})
	if !IsKind(err, UnexpectedEnd) {
		t.Fatalf("error = %v, want UnexpectedEnd", err)
	}
}

func TestDecodeNamedSimpleValuesViaFollowByte(t *testing.T) {
	// 0xF8 0x14..0x17 spells out false/true/null/undefined using the
	// 1-byte follow form instead of the direct 0xF4..0xF7 encoding.
	for _, tc := range []struct {
		hex  string
		want SimpleValue
	}{
		{"f814", SimpleFalse},
		{"f815", SimpleTrue},
		{"f816", SimpleNull},
		{"f817", SimpleUndefined},
	} {
		v, _ := decodeHex(t, tc.hex, ReaderOptions{})
		s, ok := v.Simple()
		if !ok || s != tc.want {
			t.Fatalf("%s: Simple() = (%v, %v), want (%v, true)", tc.hex, s, ok, tc.want)
		}
	}
}

func TestDecodeReservedSimpleValueRejected(t *testing.T) {
	// Follow-byte values 24..31 are reserved.
	b := mustHex(t, "f818")
	_, _, err := DecodeValue(b, ReaderOptions{})
	if !IsKind(err, InvalidFormat) {
		t.Fatalf("error = %v, want InvalidFormat", err)
	}
}

func TestDecodeOpaqueSimpleValueAccepted(t *testing.T) {
	// Follow-byte values >= 32 decode as an opaque Simple.
	v, _ := decodeHex(t, "f860", ReaderOptions{})
	s, ok := v.Simple()
	if !ok || s != SimpleValue(0x60) {
		t.Fatalf("Simple() = (%v, %v), want (0x60, true)", s, ok)
	}
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("invalid hex literal %q: %v", s, err)
	}
	return b
}
