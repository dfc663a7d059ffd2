package cbor

import (
	"fmt"
	"strings"
)

// RequirementKind enumerates the content shapes a tag definition can
// require of its child item.
type RequirementKind int

const (
	ReqAny RequirementKind = iota
	ReqUnsigned
	ReqInteger
	ReqNumeric
	ReqByteString
	ReqTextString
	ReqArray
	ReqMap
	ReqTagged
	ReqInvalid
)

// Requirement describes the content shape a tag's child item must have.
type Requirement struct {
	Kind RequirementKind
	// Length, when non-nil, is the exact required length/element count
	// for ReqByteString/ReqArray.
	Length *int
	// Tag, used only for ReqTagged, names the required nested tag number.
	Tag uint64
}

func intPtr(n int) *int { return &n }

// TagDefinition describes one entry of the IANA CBOR tag registry this
// codec recognizes.
type TagDefinition struct {
	Number      uint64
	Name        string
	Description string
	Requirement Requirement
}

var tagRegistry = buildTagRegistry()

// LookupTag returns the registry entry for tag, if any.
func LookupTag(tag uint64) (TagDefinition, bool) {
	d, ok := tagRegistry[tag]
	return d, ok
}

func buildTagRegistry() map[uint64]TagDefinition {
	reg := make(map[uint64]TagDefinition)

	define := func(n uint64, name, desc string, req Requirement) {
		reg[n] = TagDefinition{Number: n, Name: name, Description: desc, Requirement: req}
	}

	// registerRange fills a contiguous range with placeholder entries of
	// a uniform requirement; define() calls below override the specific,
	// well-known tags within (or outside) any such range.
	registerRange := func(lo, hi uint64, namePrefix string, req Requirement) {
		for n := lo; n <= hi; n++ {
			reg[n] = TagDefinition{
				Number:      n,
				Name:        fmt.Sprintf("%s-%d", namePrefix, n),
				Description: "IANA-registered tag",
				Requirement: req,
			}
		}
	}

	// 0-5: date/time and bignum core, each individually named.
	define(0, "standard-datetime", "Standard date/time string", Requirement{Kind: ReqTextString})
	define(1, "epoch-datetime", "Epoch-based date/time", Requirement{Kind: ReqNumeric})
	define(2, "positive-bignum", "Positive bignum", Requirement{Kind: ReqByteString})
	define(3, "negative-bignum", "Negative bignum", Requirement{Kind: ReqByteString})
	define(4, "decimal-fraction", "Decimal fraction", Requirement{Kind: ReqArray, Length: intPtr(2)})
	define(5, "bigfloat", "Bigfloat", Requirement{Kind: ReqArray, Length: intPtr(2)})

	// 16-19: COSE/typed-array adjacent structural tags.
	registerRange(16, 19, "cose-related", Requirement{Kind: ReqAny})

	// 21-23: expected later base-encoding, 24: embedded CBOR, 25-30 misc.
	define(21, "expected-base64url", "Expected conversion to base64url", Requirement{Kind: ReqAny})
	define(22, "expected-base64", "Expected conversion to base64", Requirement{Kind: ReqAny})
	define(23, "expected-base16", "Expected conversion to base16", Requirement{Kind: ReqAny})
	define(24, "encoded-cbor", "Encoded CBOR data item", Requirement{Kind: ReqByteString})
	registerRange(25, 29, "string-ref", Requirement{Kind: ReqAny})
	define(30, "rational-number", "Rational number", Requirement{Kind: ReqArray, Length: intPtr(2)})
	registerRange(31, 31, "unassigned", Requirement{Kind: ReqAny})
	define(32, "uri", "URI", Requirement{Kind: ReqTextString})
	define(33, "base64url", "base64url-encoded text", Requirement{Kind: ReqTextString})
	define(34, "base64", "base64-encoded text", Requirement{Kind: ReqTextString})
	define(35, "regexp", "Regular expression", Requirement{Kind: ReqTextString})
	define(36, "mime-message", "MIME message", Requirement{Kind: ReqTextString})
	define(37, "uuid", "Binary UUID", Requirement{Kind: ReqByteString, Length: intPtr(16)})
	define(38, "language-tagged-string", "Language-tagged string", Requirement{Kind: ReqArray, Length: intPtr(2)})
	define(39, "identifier", "Identifier reference", Requirement{Kind: ReqAny})
	registerRange(40, 47, "multi-dim-array", Requirement{Kind: ReqArray})

	// 52-54, 61: network addresses and CBOR-in-CBOR.
	registerRange(52, 54, "network-address", Requirement{Kind: ReqAny})
	define(61, "cbor-sequence", "CBOR Sequence item", Requirement{Kind: ReqAny})

	// 64-87: typed arrays (fixed-width numeric arrays).
	registerRange(64, 87, "typed-array", Requirement{Kind: ReqByteString})

	// 96-98: COSE structural recognition only; no COSE semantics.
	define(96, "cose-encrypt", "COSE_Encrypt structural tag", Requirement{Kind: ReqArray})
	define(97, "cose-mac", "COSE_Mac structural tag", Requirement{Kind: ReqArray})
	define(98, "cose-sign", "COSE_Sign structural tag", Requirement{Kind: ReqArray})

	// 100-112: date/area-adjacent registered tags.
	registerRange(100, 112, "misc-registered", Requirement{Kind: ReqAny})

	// 120-121, 200-201, 266-267: various registered extensions.
	registerRange(120, 121, "misc-registered", Requirement{Kind: ReqAny})
	registerRange(200, 201, "misc-registered", Requirement{Kind: ReqAny})
	registerRange(266, 267, "misc-registered", Requirement{Kind: ReqAny})

	// 256-263: stringref namespace, binary MIME, sets, and embedded data.
	define(256, "stringref-namespace", "Mark value as having string references", Requirement{Kind: ReqAny})
	define(257, "binary-mime-message", "Binary MIME message", Requirement{Kind: ReqByteString})
	define(258, "mathematical-set", "Mathematical finite set", Requirement{Kind: ReqArray})
	define(259, "keyed-map", "Map with typed keys", Requirement{Kind: ReqMap})
	// 260: IP address (byte string, 4 or 16 bytes) - no fixed Length here
	// since two lengths are valid; enforced by a dedicated check below.
	define(260, "ip-address", "IPv4 or IPv6 address", Requirement{Kind: ReqByteString})
	define(261, "ip-prefix", "IP address plus prefix length", Requirement{Kind: ReqMap})
	define(262, "embedded-json", "Embedded JSON document", Requirement{Kind: ReqByteString})
	define(263, "hex-string", "Hexadecimal string", Requirement{Kind: ReqByteString})

	// 1001-1003: extended time/duration maps.
	registerRange(1001, 1003, "structured-map", Requirement{Kind: ReqMap})

	// 40000-40001, 55799, 15309736: self-describe and sentinel tags.
	registerRange(40000, 40001, "misc-registered", Requirement{Kind: ReqAny})
	define(55799, "self-describe-cbor", "Self-describe CBOR", Requirement{Kind: ReqAny})
	define(15309736, "self-describe-cbor-seq", "Self-describe CBOR Sequence", Requirement{Kind: ReqAny})

	// Explicit "Invalid" sentinel tags - always fail validation.
	define(65535, "invalid-sentinel", "Reserved, always invalid", Requirement{Kind: ReqInvalid})
	define(1<<32-1, "invalid-sentinel-32", "Reserved, always invalid", Requirement{Kind: ReqInvalid})
	define(1<<64-1, "invalid-sentinel-64", "Reserved, always invalid", Requirement{Kind: ReqInvalid})

	return reg
}

// ValidateTag checks child against tag's registered content requirement.
// strict controls whether an unregistered tag is rejected.
func ValidateTag(tag uint64, child Value, strict bool) error {
	def, ok := LookupTag(tag)
	if !ok {
		if strict {
			return newTagError(TagNotSupported, 0, tag, "tag is not present in the registry")
		}
		return nil
	}

	if err := checkRequirement(tag, def, child); err != nil {
		return err
	}
	return checkTagSpecificShape(tag, child)
}

func checkRequirement(tag uint64, def TagDefinition, child Value) error {
	req := def.Requirement
	fail := func() error {
		return newTagError(InvalidFormat, 0, tag,
			fmt.Sprintf("content does not match requirement for tag %d (%s)", tag, def.Name))
	}
	switch req.Kind {
	case ReqAny:
		return nil
	case ReqInvalid:
		return fail()
	case ReqUnsigned:
		if !child.IsUnsigned() {
			return fail()
		}
	case ReqInteger:
		if !child.IsInteger() {
			return fail()
		}
	case ReqNumeric:
		if !child.IsNumeric() {
			return fail()
		}
	case ReqByteString:
		if !child.IsByteString() {
			return fail()
		}
		if req.Length != nil {
			b, _ := child.Bytes()
			if len(b) != *req.Length {
				return fail()
			}
		}
	case ReqTextString:
		if !child.IsTextString() {
			return fail()
		}
	case ReqArray:
		if !child.IsArray() {
			return fail()
		}
		if req.Length != nil {
			items, _ := child.Items()
			if len(items) != *req.Length {
				return fail()
			}
		}
	case ReqMap:
		if !child.IsMap() {
			return fail()
		}
	case ReqTagged:
		gotTag, _, ok := child.Tag()
		if !ok || gotTag != req.Tag {
			return fail()
		}
	}
	return nil
}

// checkTagSpecificShape applies per-tag semantic checks beyond the base
// content requirement.
func checkTagSpecificShape(tag uint64, child Value) error {
	fail := func(msg string) error { return newTagError(InvalidFormat, 0, tag, msg) }
	isBignumTag := func(v Value) bool {
		t, _, ok := v.Tag()
		return ok && (t == 2 || t == 3)
	}
	isIntegerLike := func(v Value) bool { return v.IsInteger() || isBignumTag(v) }

	switch tag {
	case 0:
		s, _ := child.Text()
		if !strings.ContainsAny(s, "Tt") {
			return fail("tag 0 text string must contain a date/time separator ('T' or 't')")
		}
	case 4:
		items, _ := child.Items()
		if len(items) != 2 || !items[0].IsInteger() || !isIntegerLike(items[1]) {
			return fail("tag 4 requires [integer exponent, integer-or-bignum mantissa]")
		}
	case 5:
		items, _ := child.Items()
		if len(items) != 2 || !items[0].IsInteger() || !items[1].IsInteger() {
			return fail("tag 5 requires [integer exponent, integer mantissa]")
		}
	case 30:
		items, _ := child.Items()
		if len(items) != 2 || !isIntegerLike(items[0]) || !isIntegerLike(items[1]) {
			return fail("tag 30 requires two integer-or-bignum elements")
		}
	case 37:
		b, _ := child.Bytes()
		if len(b) != 16 {
			return fail("tag 37 (UUID) requires a 16-byte string")
		}
	case 38:
		items, _ := child.Items()
		if len(items) != 2 || !items[0].IsTextString() || !items[1].IsTextString() {
			return fail("tag 38 requires [text language, text content]")
		}
	case 260:
		b, _ := child.Bytes()
		if len(b) != 4 && len(b) != 16 {
			return fail("tag 260 requires a 4-byte or 16-byte string")
		}
	case 1001, 1002, 1003:
		if !child.IsMap() {
			return fail("tag requires a map")
		}
	}
	return nil
}
