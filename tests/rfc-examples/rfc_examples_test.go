package tests

import (
	"encoding/hex"
	"testing"

	"github.com/sparrowcbor/cbor"
)

type rfcExample struct {
	name string
	diag string
	hex  string
}

var rfcExamples = []rfcExample{
	{name: "text-a", diag: `"a"`, hex: "6161"},
	{name: "zero", diag: "0", hex: "00"},
	{name: "minus-one", diag: "-1", hex: "20"},
	{name: "bytes-010203", diag: "h'010203'", hex: "43010203"},
	{name: "array-1-2-3", diag: "[1, 2, 3]", hex: "83010203"},
	{name: "map-a1-b2", diag: `{"a": 1, "b": 2}`, hex: "a2616101616202"},
	// The Value model normalizes indefinite- and definite-length arrays
	// to the same Array variant: the diagnostic rendering of a decoded
	// indefinite-length array is indistinguishable from a definite-length
	// one, unlike wire-form-preserving diagnostic tools.
	{name: "indef-array-1-2", diag: "[1, 2]", hex: "9f0102ff"},
	{name: "tag-epoch-datetime", diag: "1(1363896240)", hex: "c11a514b67b0"},
}

func TestRFCExamplesDiagAndWellFormed(t *testing.T) {
	for _, ex := range rfcExamples {
		ex := ex
		t.Run(ex.name, func(t *testing.T) {
			msg, err := hex.DecodeString(ex.hex)
			if err != nil {
				t.Fatalf("bad hex %q: %v", ex.hex, err)
			}

			v, n, err := cbor.DecodeValue(msg, cbor.ReaderOptions{})
			if err != nil {
				t.Fatalf("DecodeValue error: %v", err)
			}
			if n != len(msg) {
				t.Fatalf("DecodeValue leftover: %d byte(s)", len(msg)-n)
			}
			if got := v.String(); got != ex.diag {
				t.Fatalf("diag mismatch: got %q want %q (hex %s)", got, ex.diag, ex.hex)
			}
		})
	}
}
