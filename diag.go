package cbor

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"
)

// String renders v in a diagnostic notation: integers as decimal, byte
// strings as h'..hex..', text strings quoted, arrays/maps bracketed with
// comma-separated children, tagged values as tag(inner), simple values
// by keyword.
func (v Value) String() string {
	var sb strings.Builder
	v.render(&sb)
	return sb.String()
}

func (v Value) render(sb *strings.Builder) {
	switch v.kind {
	case KindUnsigned:
		sb.WriteString(strconv.FormatUint(v.u, 10))
	case KindNegative:
		if n, ok := v.Int64(); ok {
			sb.WriteString(strconv.FormatInt(n, 10))
			return
		}
		// Below -2^63: render via the raw wire value (-1-raw) in decimal
		// using a big-number-free subtraction, since it doesn't fit int64.
		sb.WriteString("-")
		sb.WriteString(decimalPlusOne(v.u))
	case KindByteString:
		sb.WriteString("h'")
		sb.WriteString(hex.EncodeToString(v.bytes))
		sb.WriteString("'")
	case KindTextString:
		sb.WriteString(strconv.Quote(v.str))
	case KindArray:
		sb.WriteString("[")
		for i, item := range v.arr {
			if i > 0 {
				sb.WriteString(", ")
			}
			item.render(sb)
		}
		sb.WriteString("]")
	case KindMap:
		sb.WriteString("{")
		for i, e := range v.mp {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.Key.v.render(sb)
			sb.WriteString(": ")
			e.Value.render(sb)
		}
		sb.WriteString("}")
	case KindTagged:
		sb.WriteString(strconv.FormatUint(v.u, 10))
		sb.WriteString("(")
		v.tagged.render(sb)
		sb.WriteString(")")
	case KindSimple:
		sb.WriteString(SimpleValue(v.u).String())
	case KindFloat16, KindFloat32, KindFloat64:
		renderFloat(sb, v)
	case KindBreak:
		sb.WriteString("<break>")
	default:
		sb.WriteString("<invalid>")
	}
}

func renderFloat(sb *strings.Builder, v Value) {
	f, _ := v.Float64()
	switch {
	case math.IsNaN(f):
		sb.WriteString("NaN")
	case math.IsInf(f, +1):
		sb.WriteString("Infinity")
	case math.IsInf(f, -1):
		sb.WriteString("-Infinity")
	default:
		sb.WriteString(formatFloatDiag(f))
	}
}

func formatFloatDiag(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	return s
}

// decimalPlusOne returns the decimal string for raw+1 where raw is an
// arbitrary uint64, used to render Negative values below -2^63 (where
// -1-int64(raw) would overflow) without pulling in math/big.
func decimalPlusOne(raw uint64) string {
	if raw != ^uint64(0) {
		return strconv.FormatUint(raw+1, 10)
	}
	// raw == math.MaxUint64: raw+1 overflows uint64, so render digit-wise.
	return "18446744073709551616"
}
