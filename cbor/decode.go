package cbor

// Decode builds an owned Value tree from already-validated bytes. Because
// the input was validated by Validate/ValidateCanonical, every rule check
// here is an assertion against already-canonical bytes rather than a
// gatekeeping check against untrusted input.
func Decode(vb ValidatedBytes) (Value, error) {
	return decodeValue(vb.Root())
}

func decodeValue(v ValueRef) (Value, error) {
	kind, err := v.Kind()
	if err != nil {
		return Value{}, err
	}
	switch kind {
	case KindNull:
		return NullValue(), nil
	case KindBool:
		b, err := v.Bool()
		if err != nil {
			return Value{}, err
		}
		return BoolValue(b), nil
	case KindInt:
		i, err := v.Int64()
		if err != nil {
			return Value{}, err
		}
		return Int64Value(i), nil
	case KindBignum:
		neg, mag, err := v.Bignum()
		if err != nil {
			return Value{}, err
		}
		return IntValue(BigInteger(newBigIntUnchecked(neg, append([]byte(nil), mag...)))), nil
	case KindBytes:
		b, err := v.Bytes()
		if err != nil {
			return Value{}, err
		}
		return BytesValue(b), nil
	case KindText:
		s, err := v.Text()
		if err != nil {
			return Value{}, err
		}
		return TextValue(s), nil
	case KindFloat:
		f, err := v.Float64()
		if err != nil {
			return Value{}, err
		}
		return FloatValue(newF64FromBits(bitsFromFloat64(f))), nil
	case KindArray:
		arr, err := v.Array()
		if err != nil {
			return Value{}, err
		}
		items := make([]Value, 0, arr.Len())
		iterErr := arr.Iter(func(_ int, elem ValueRef) *Error {
			val, derr := decodeValue(elem)
			if derr != nil {
				e, _ := derr.(*Error)
				return e
			}
			items = append(items, val)
			return nil
		})
		if iterErr != nil {
			return Value{}, iterErr
		}
		return ArrayValue(items), nil
	case KindMap:
		m, err := v.Map()
		if err != nil {
			return Value{}, err
		}
		entries := make([]mapEntry, 0, m.Len())
		iterErr := m.Iter(func(key string, elem ValueRef) *Error {
			val, derr := decodeValue(elem)
			if derr != nil {
				e, _ := derr.(*Error)
				return e
			}
			entries = append(entries, mapEntry{key: key, value: val})
			return nil
		})
		if iterErr != nil {
			return Value{}, iterErr
		}
		return MapValue(newMapFromSortedEntries(entries)), nil
	}
	return Value{}, newError(ErrMalformedCanonical, v.start)
}
