package cbor

import (
	"encoding/hex"
	"math"
	"testing"
)

func TestCanonicalEncodeNaN(t *testing.T) {
	b, err := CanonicalEncode(NewFloat64(math.NaN()))
	if err != nil {
		t.Fatalf("CanonicalEncode: %v", err)
	}
	if got := hex.EncodeToString(b); got != "f97e00" {
		t.Errorf("canonical NaN = %s, want f97e00", got)
	}
}

func TestCanonicalEncodeInfinity(t *testing.T) {
	pos, err := CanonicalEncode(NewFloat64(math.Inf(1)))
	if err != nil {
		t.Fatal(err)
	}
	if got := hex.EncodeToString(pos); got != "f97c00" {
		t.Errorf("canonical +Infinity = %s, want f97c00", got)
	}

	neg, err := CanonicalEncode(NewFloat64(math.Inf(-1)))
	if err != nil {
		t.Fatal(err)
	}
	if got := hex.EncodeToString(neg); got != "f9fc00" {
		t.Errorf("canonical -Infinity = %s, want f9fc00", got)
	}
}

func TestCanonicalEncodePreservesSignedZero(t *testing.T) {
	pos, err := CanonicalEncode(NewFloat64(0))
	if err != nil {
		t.Fatal(err)
	}
	neg, err := CanonicalEncode(NewFloat64(math.Copysign(0, -1)))
	if err != nil {
		t.Fatal(err)
	}
	if hex.EncodeToString(pos) == hex.EncodeToString(neg) {
		t.Fatal("canonical encoding collapsed +0 and -0 to the same bytes")
	}
	if got := hex.EncodeToString(pos); got != "f90000" {
		t.Errorf("canonical +0 = %s, want f90000", got)
	}
	if got := hex.EncodeToString(neg); got != "f98000" {
		t.Errorf("canonical -0 = %s, want f98000", got)
	}
}

func TestCanonicalEncodeNarrowsFloatWidth(t *testing.T) {
	// 1.5 is exactly representable at half precision.
	b, err := CanonicalEncode(NewFloat64(1.5))
	if err != nil {
		t.Fatal(err)
	}
	if got := hex.EncodeToString(b); got != "f93e00" {
		t.Errorf("canonical 1.5 = %s, want f93e00 (narrowed to float16)", got)
	}
}

func TestCanonicalEncodeMapKeyOrdering(t *testing.T) {
	m := NewMap([]MapEntry{
		{Key: NewKey(NewTextString("aa")), Value: NewUnsigned(1)},
		{Key: NewKey(NewTextString("b")), Value: NewUnsigned(2)},
		{Key: NewKey(NewTextString("aaa")), Value: NewUnsigned(3)},
		{Key: NewKey(NewTextString("z")), Value: NewUnsigned(4)},
	})
	b, err := CanonicalEncode(m)
	if err != nil {
		t.Fatal(err)
	}
	decoded, _, err := DecodeValue(b, ReaderOptions{})
	if err != nil {
		t.Fatal(err)
	}
	entries, _ := decoded.Entries()
	wantOrder := []string{"b", "z", "aa", "aaa"}
	if len(entries) != len(wantOrder) {
		t.Fatalf("got %d entries, want %d", len(entries), len(wantOrder))
	}
	for i, want := range wantOrder {
		got, _ := entries[i].Key.Value().Text()
		if got != want {
			t.Errorf("entries[%d] key = %q, want %q", i, got, want)
		}
	}
}

func TestCanonicalEncodeDeterministic(t *testing.T) {
	m1 := NewMap([]MapEntry{
		{Key: NewKey(NewTextString("x")), Value: NewUnsigned(1)},
		{Key: NewKey(NewTextString("y")), Value: NewUnsigned(2)},
	})
	m2 := NewMap([]MapEntry{
		{Key: NewKey(NewTextString("y")), Value: NewUnsigned(2)},
		{Key: NewKey(NewTextString("x")), Value: NewUnsigned(1)},
	})
	b1, err := CanonicalEncode(m1)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := CanonicalEncode(m2)
	if err != nil {
		t.Fatal(err)
	}
	if hex.EncodeToString(b1) != hex.EncodeToString(b2) {
		t.Fatal("structurally equal maps in different insertion order produced different canonical bytes")
	}
}
