package cbor

// ValidatedBytes wraps a byte slice known to hold exactly one canonical
// SACP-CBOR/1 item and nothing else. Constructing one is the only way to
// obtain a [ValueRef] root, which is how the query engine and editor commit
// to never re-deriving trust they were already given.
type ValidatedBytes struct {
	data []byte
}

// Bytes returns the validated byte slice.
func (v ValidatedBytes) Bytes() []byte { return v.data }

// Root returns a zero-copy reference to the top-level value.
func (v ValidatedBytes) Root() ValueRef {
	return ValueRef{data: v.data, start: 0, end: len(v.data)}
}

// Validate checks data against the default message limits sized to len(data)
// and returns a ValidatedBytes on success.
func Validate(data []byte) (ValidatedBytes, error) {
	return ValidateCanonical(data, LimitsForMessageBytes(len(data)))
}

// ValidateCanonical checks that data is exactly one canonical SACP-CBOR/1
// item, enforcing limits, and rejects any trailing bytes after that item.
func ValidateCanonical(data []byte, limits Limits) (ValidatedBytes, error) {
	if limits.MaxInputBytes > 0 && len(data) > limits.MaxInputBytes {
		return ValidatedBytes{}, newError(ErrMessageLenLimitExceeded, 0)
	}
	end, err := walkOne(data, limits)
	if err != nil {
		return ValidatedBytes{}, err
	}
	if end != len(data) {
		return ValidatedBytes{}, newError(ErrTrailingBytes, end)
	}
	return ValidatedBytes{data: data}, nil
}
