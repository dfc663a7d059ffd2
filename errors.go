package cbor

import "fmt"

// ErrorKind enumerates the closed set of error conditions this codec
// raises.
type ErrorKind int

const (
	// InvalidFormat covers structural or semantic violations caught
	// during decode, including tag content-shape failures.
	InvalidFormat ErrorKind = iota
	// UnexpectedEnd signals the byte stream was exhausted mid-item.
	UnexpectedEnd
	// WrongTypeInsideIndefiniteLength signals a chunk inside an
	// indefinite-length string had a major type other than the outer
	// string's.
	WrongTypeInsideIndefiniteLength
	// TooLongIndefiniteLength signals the indefinite-length chunk count
	// cap was exceeded.
	TooLongIndefiniteLength
	// IncorrectUTF8String signals a text string's bytes are not valid UTF-8.
	IncorrectUTF8String
	// DuplicateMapKey signals two equal keys in one map when duplicates
	// are disallowed.
	DuplicateMapKey
	// TagNotSupported signals strict mode rejected a tag absent from the
	// registry.
	TagNotSupported
	// DepthLimitExceeded signals nesting exceeded the configured maximum.
	DepthLimitExceeded
	// InvalidIndefiniteLength signals a Break encountered outside an
	// indefinite-length context.
	InvalidIndefiniteLength
	// MalformedData signals arithmetic overflow or another integrity
	// failure unrelated to a specific item's shape.
	MalformedData
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidFormat:
		return "InvalidFormat"
	case UnexpectedEnd:
		return "UnexpectedEnd"
	case WrongTypeInsideIndefiniteLength:
		return "WrongTypeInsideIndefiniteLength"
	case TooLongIndefiniteLength:
		return "TooLongIndefiniteLength"
	case IncorrectUTF8String:
		return "IncorrectUTF8String"
	case DuplicateMapKey:
		return "DuplicateMapKey"
	case TagNotSupported:
		return "TagNotSupported"
	case DepthLimitExceeded:
		return "DepthLimitExceeded"
	case InvalidIndefiniteLength:
		return "InvalidIndefiniteLength"
	case MalformedData:
		return "MalformedData"
	default:
		return "Unknown"
	}
}

// DecodeError is the concrete error type returned by every decode-time
// failure in this package. Kind is meant for programmatic dispatch;
// Message is for diagnostics only and must not be parsed by callers.
type DecodeError struct {
	Kind    ErrorKind
	Offset  int
	Tag     uint64 // populated for TagNotSupported and tag content failures
	hasTag  bool
	Message string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.hasTag {
		return fmt.Sprintf("cbor: %s at offset %d (tag %d): %s", e.Kind, e.Offset, e.Tag, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("cbor: %s at offset %d: %s", e.Kind, e.Offset, e.Message)
	}
	return fmt.Sprintf("cbor: %s at offset %d", e.Kind, e.Offset)
}

// Resumable reports whether the underlying byte stream might still be
// usable after this error. No decode error in this package is resumable:
// the Reader never attempts resynchronization.
func (e *DecodeError) Resumable() bool { return false }

func newDecodeError(kind ErrorKind, offset int, msg string) *DecodeError {
	return &DecodeError{Kind: kind, Offset: offset, Message: msg}
}

func newTagError(kind ErrorKind, offset int, tag uint64, msg string) *DecodeError {
	return &DecodeError{Kind: kind, Offset: offset, Tag: tag, hasTag: true, Message: msg}
}

// IsKind reports whether err is a *DecodeError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	de, ok := err.(*DecodeError)
	return ok && de.Kind == kind
}

// EncodeError is returned by the Writer/Canonical Encoder. Encoding this
// codec's Value tree only fails on a Break-kind or zero-value (invalid)
// Value inside the tree. Text strings are written as stored; their UTF-8
// validity is not checked on encode.
type EncodeError struct {
	Message string
}

func (e *EncodeError) Error() string { return "cbor: encode: " + e.Message }

func newEncodeError(msg string) *EncodeError { return &EncodeError{Message: msg} }
