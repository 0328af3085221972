package cbor

import "fmt"

// ErrorKind classifies why a SACP-CBOR/1 operation was rejected.
//
// The set is intentionally stable and string-free in the wire sense (codes
// are comparable constants) so callers can switch on it without string
// matching.
type ErrorKind uint8

const (
	// Resource limits.
	ErrInvalidLimits ErrorKind = iota
	ErrMessageLenLimitExceeded
	ErrDepthLimitExceeded
	ErrTotalItemsLimitExceeded
	ErrArrayLenLimitExceeded
	ErrMapLenLimitExceeded
	ErrBytesLenLimitExceeded
	ErrTextLenLimitExceeded

	// Canonical-form violations.
	ErrNonCanonicalEncoding
	ErrIndefiniteLengthForbidden
	ErrReservedAdditionalInfo
	ErrTrailingBytes

	// Map rules.
	ErrMapKeyMustBeText
	ErrDuplicateMapKey
	ErrNonCanonicalMapOrder

	// Numeric rules.
	ErrIntegerOutsideSafeRange
	ErrForbiddenOrMalformedTag
	ErrBignumNotCanonical
	ErrBignumMustBeOutsideSafeRange
	ErrNegativeZeroForbidden
	ErrNonCanonicalNaN
	ErrUnsupportedSimpleValue
	ErrUtf8Invalid

	// Type mismatches (query/edit).
	ErrExpectedMap
	ErrExpectedArray
	ErrExpectedInteger
	ErrExpectedText
	ErrExpectedBytes
	ErrExpectedBool
	ErrExpectedNull
	ErrExpectedFloat
	ErrExpectedBignum

	// Editor.
	ErrPatchConflict
	ErrIndexOutOfBounds
	ErrInvalidQuery
	ErrMissingKey

	// Infrastructure.
	ErrUnexpectedEOF
	ErrLengthOverflow
	ErrAllocationFailed
	ErrMalformedCanonical
	ErrArrayLenMismatch
	ErrMapLenMismatch
)

var errorKindText = map[ErrorKind]string{
	ErrInvalidLimits:               "invalid CBOR limits",
	ErrMessageLenLimitExceeded:     "input length exceeds decode limits",
	ErrDepthLimitExceeded:          "nesting depth limit exceeded",
	ErrTotalItemsLimitExceeded:     "total items limit exceeded",
	ErrArrayLenLimitExceeded:       "array length exceeds decode limits",
	ErrMapLenLimitExceeded:         "map length exceeds decode limits",
	ErrBytesLenLimitExceeded:       "byte string length exceeds decode limits",
	ErrTextLenLimitExceeded:        "text string length exceeds decode limits",
	ErrNonCanonicalEncoding:        "non-canonical integer/length encoding",
	ErrIndefiniteLengthForbidden:   "indefinite length forbidden",
	ErrReservedAdditionalInfo:      "reserved additional info value",
	ErrTrailingBytes:               "trailing bytes after single CBOR item",
	ErrMapKeyMustBeText:            "map keys must be text strings",
	ErrDuplicateMapKey:             "duplicate map key",
	ErrNonCanonicalMapOrder:        "non-canonical map key order",
	ErrIntegerOutsideSafeRange:     "integer outside safe-integer range",
	ErrForbiddenOrMalformedTag:     "forbidden or malformed CBOR tag",
	ErrBignumNotCanonical:          "bignum magnitude must be canonical (non-empty, no leading zero)",
	ErrBignumMustBeOutsideSafeRange: "bignum must be outside safe-integer range",
	ErrNegativeZeroForbidden:       "negative zero forbidden",
	ErrNonCanonicalNaN:             "non-canonical NaN encoding",
	ErrUnsupportedSimpleValue:      "unsupported CBOR simple value",
	ErrUtf8Invalid:                 "text must be valid UTF-8",
	ErrExpectedMap:                 "expected CBOR map",
	ErrExpectedArray:               "expected CBOR array",
	ErrExpectedInteger:             "expected CBOR integer",
	ErrExpectedText:                "expected CBOR text string",
	ErrExpectedBytes:               "expected CBOR byte string",
	ErrExpectedBool:                "expected CBOR bool",
	ErrExpectedNull:                "expected CBOR null",
	ErrExpectedFloat:               "expected CBOR float64",
	ErrExpectedBignum:              "expected CBOR bignum (tag 2/3)",
	ErrPatchConflict:               "patch operations conflict",
	ErrIndexOutOfBounds:            "array index out of bounds",
	ErrInvalidQuery:                "invalid query arguments",
	ErrMissingKey:                  "missing required map key",
	ErrUnexpectedEOF:               "unexpected end of input",
	ErrLengthOverflow:              "length overflow",
	ErrAllocationFailed:            "allocation failed",
	ErrMalformedCanonical:          "malformed canonical CBOR",
	ErrArrayLenMismatch:            "array length mismatch",
	ErrMapLenMismatch:              "map length mismatch",
}

func (k ErrorKind) String() string {
	if s, ok := errorKindText[k]; ok {
		return s
	}
	return "unknown CBOR error"
}

// Error is a structured SACP-CBOR/1 error: a stable code plus the byte
// offset at which the violation was detected. Errors raised without an input
// position (limit construction, Editor.Set/Delete/Splice conflicts, owned
// value constructors) carry Offset 0. ErrInvalidQuery from the MapRef
// multi-key lookups carries the offset of the map's first entry, and errors
// found by Editor.Apply carry either 0 or the offset of the source value
// being patched.
type Error struct {
	Code   ErrorKind
	Offset int
}

func newError(code ErrorKind, offset int) *Error {
	return &Error{Code: code, Offset: offset}
}

func (e *Error) Error() string {
	return fmt.Sprintf("cbor error at %d: %s", e.Offset, e.Code)
}

// Is lets errors.Is match any *Error whose Code equals the target *Error's
// Code, regardless of offset (e.g. errors.Is(err, &Error{Code: ErrMissingKey})).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}
