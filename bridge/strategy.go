// Package bridge is a generic reflection bridge: it marshals arbitrary
// user-defined Go struct types to and from the core's Value tree. It is
// intentionally thin, an external collaborator with a narrow contract
// against the core rather than a subject of the core's own engineering
// weight.
package bridge

import "github.com/sparrowcbor/cbor"

// DateStrategy selects how time.Time fields are encoded/decoded.
type DateStrategy int

const (
	// DateEpochTime encodes/decodes as a numeric count of seconds.
	DateEpochTime DateStrategy = iota
	// DateTagged encodes/decodes using tag 1 (epoch-based date/time).
	DateTagged
	// DateISO8601String encodes/decodes an RFC 3339 text string.
	DateISO8601String
	// DateCustom delegates to DecodeOptions.CustomDate / EncodeOptions.CustomDate.
	DateCustom
)

// DataStrategy selects how []byte fields are encoded/decoded.
type DataStrategy int

const (
	// DataByteString encodes/decodes as a CBOR byte string (major 2).
	DataByteString DataStrategy = iota
	// DataBase64String encodes/decodes as a base64 text string.
	DataBase64String
	// DataCustom delegates to DecodeOptions.CustomData / EncodeOptions.CustomData.
	DataCustom
)

// NonconformingFloatStrategy selects whether float fields accept
// NaN/Infinity spelled as text strings on decode. It has no encode-side
// counterpart: the encoder always emits non-finite floats natively.
type NonconformingFloatStrategy int

const (
	// FloatConvertFromString accepts the text strings "NaN", "Infinity"
	// and "-Infinity" in place of a non-finite numeric literal.
	FloatConvertFromString NonconformingFloatStrategy = iota
	// FloatThrow rejects text strings in float fields. Native non-finite
	// float values are still accepted.
	FloatThrow
)

// KeyStrategy selects how struct field names map to map keys absent an
// explicit `cbor:"..."` tag.
type KeyStrategy int

const (
	// KeyUseDefaultKeys uses the Go field name verbatim.
	KeyUseDefaultKeys KeyStrategy = iota
	// KeyConvertFromSnakeCase converts exported field names to snake_case.
	KeyConvertFromSnakeCase
	// KeyCustom delegates to DecodeOptions.CustomKey / EncodeOptions.CustomKey.
	KeyCustom
)

// DecodeOptions configures the decode-side strategies, propagated to
// every leaf of the walked Value tree.
type DecodeOptions struct {
	Date               DateStrategy
	Data               DataStrategy
	NonconformingFloat NonconformingFloatStrategy
	Key                KeyStrategy
	CustomDate         func(cbor.Value) (int64, error)
	CustomData         func(cbor.Value) ([]byte, error)
	CustomKey          func(fieldName string) string

	AllowDuplicateMapKeys bool
	StrictMode            bool
	MaxDepth              int
}

func (o DecodeOptions) readerOptions() cbor.ReaderOptions {
	return cbor.ReaderOptions{
		AllowDuplicateMapKeys: o.AllowDuplicateMapKeys,
		StrictMode:            o.StrictMode,
		MaxDepth:              o.MaxDepth,
	}
}

// EncodeOptions configures the encode-side strategies.
type EncodeOptions struct {
	Date       DateStrategy
	Data       DataStrategy
	Key        KeyStrategy
	CustomDate func(int64) (cbor.Value, error)
	CustomData func([]byte) (cbor.Value, error)
	CustomKey  func(fieldName string) string

	SortKeys  bool
	Canonical bool
}

func (o EncodeOptions) encodeOptions() cbor.EncodeOptions {
	return cbor.EncodeOptions{Canonical: o.Canonical || o.SortKeys}
}
