package cbor

import "sort"

// ValueKind is an alias of CborKind: the owned tree and the zero-copy API
// share one kind tag set.
type ValueKind = CborKind

// BigInt is a validated arbitrary-precision integer: a sign plus a
// big-endian magnitude that is non-empty, has no leading zero byte, and is
// strictly greater than MaxSafeInteger.
type BigInt struct {
	negative  bool
	magnitude []byte
}

// NewBigInt validates and constructs a BigInt from a sign and magnitude.
func NewBigInt(negative bool, magnitude []byte) (BigInt, error) {
	if err := validateBignumMagnitude(magnitude, negative, 0); err != nil {
		return BigInt{}, err
	}
	m := append([]byte(nil), magnitude...)
	return BigInt{negative: negative, magnitude: m}, nil
}

func newBigIntUnchecked(negative bool, magnitude []byte) BigInt {
	return BigInt{negative: negative, magnitude: magnitude}
}

func (b BigInt) Negative() bool    { return b.negative }
func (b BigInt) Magnitude() []byte { return b.magnitude }

func (b BigInt) equal(o BigInt) bool {
	return b.negative == o.negative && string(b.magnitude) == string(o.magnitude)
}

// Integer is either a safe-range int64 or a BigInt, matching the profile's
// two ways of representing whole numbers.
type Integer struct {
	big    *BigInt
	safe   int64
	isBig  bool
}

func SafeInt(v int64) Integer { return Integer{safe: v} }
func BigInteger(b BigInt) Integer { return Integer{big: &b, isBig: true} }

func (i Integer) IsSafe() bool { return !i.isBig }
func (i Integer) IsBig() bool  { return i.isBig }

func (i Integer) AsInt64() (int64, bool) {
	if i.isBig {
		return 0, false
	}
	return i.safe, true
}

func (i Integer) AsBigInt() (BigInt, bool) {
	if !i.isBig {
		return BigInt{}, false
	}
	return *i.big, true
}

func (i Integer) equal(o Integer) bool {
	if i.isBig != o.isBig {
		return false
	}
	if i.isBig {
		return i.big.equal(*o.big)
	}
	return i.safe == o.safe
}

// F64Bits wraps a canonical float64 bit pattern (no negative zero, NaN only
// in its single canonical form).
type F64Bits struct {
	bits uint64
}

// NewF64 constructs an F64Bits from a float64, canonicalizing any NaN to
// the profile's single accepted bit pattern but rejecting negative zero.
func NewF64(f float64) (F64Bits, error) {
	bits := bitsFromFloat64(f)
	if err := validateFloat64Bits(bits, 0); err != nil {
		return F64Bits{}, err
	}
	return F64Bits{bits: bits}, nil
}

func newF64FromBits(bits uint64) F64Bits { return F64Bits{bits: bits} }

func (f F64Bits) Bits() uint64    { return f.bits }
func (f F64Bits) Float64() float64 { return float64FromBits(f.bits) }

// mapEntry is one key/value pair of an owned Map.
type mapEntry struct {
	key   string
	value Value
}

// Map is a canonical owned map: entries are always held sorted by canonical
// key order with no duplicates, so any Map constructed through this package
// encodes deterministically.
type Map struct {
	entries []mapEntry
}

// NewMap validates and sorts entries into a canonical Map. entries are not
// assumed to be pre-sorted.
func NewMap(keys []string, values []Value) (Map, error) {
	if len(keys) != len(values) {
		return Map{}, newError(ErrInvalidQuery, 0)
	}
	entries := make([]mapEntry, len(keys))
	for i, k := range keys {
		entries[i] = mapEntry{key: k, value: values[i]}
	}
	sort.SliceStable(entries, func(a, b int) bool {
		return cmpTextKeys(entries[a].key, entries[b].key) < 0
	})
	for i := 1; i < len(entries); i++ {
		if cmpTextKeys(entries[i-1].key, entries[i].key) == 0 {
			return Map{}, newError(ErrDuplicateMapKey, 0)
		}
	}
	return Map{entries: entries}, nil
}

func newMapFromSortedEntries(entries []mapEntry) Map {
	return Map{entries: entries}
}

func (m Map) Len() int      { return len(m.entries) }
func (m Map) IsEmpty() bool { return len(m.entries) == 0 }

// Get performs a binary search, since entries are always sorted.
func (m Map) Get(key string) (Value, bool) {
	i := sort.Search(len(m.entries), func(i int) bool {
		return cmpTextKeys(m.entries[i].key, key) >= 0
	})
	if i < len(m.entries) && m.entries[i].key == key {
		return m.entries[i].value, true
	}
	return Value{}, false
}

// Iter calls fn for each entry in canonical order.
func (m Map) Iter(fn func(key string, v Value) bool) {
	for _, e := range m.entries {
		if !fn(e.key, e.value) {
			return
		}
	}
}

func (m Map) equal(o Map) bool {
	if len(m.entries) != len(o.entries) {
		return false
	}
	for i := range m.entries {
		if m.entries[i].key != o.entries[i].key {
			return false
		}
		if !m.entries[i].value.Equal(o.entries[i].value) {
			return false
		}
	}
	return true
}

// valueRepr is the tagged union backing Value.
type valueRepr struct {
	kind  CborKind
	i     Integer
	bytes []byte
	text  string
	arr   []Value
	m     Map
	b     bool
	f     F64Bits
}

// Value is an owned SACP-CBOR/1 value tree, for callers needing ownership
// beyond the lifetime of a source buffer (long-lived caches, cross-goroutine
// hand-off). The zero-copy [ValueRef] path is preferred on the hot path.
type Value struct {
	r valueRepr
}

func NullValue() Value           { return Value{r: valueRepr{kind: KindNull}} }
func BoolValue(b bool) Value     { return Value{r: valueRepr{kind: KindBool, b: b}} }
func IntValue(i Integer) Value   { return Value{r: valueRepr{kind: KindInt, i: i}} }
func Int64Value(v int64) Value   { return IntValue(SafeInt(v)) }
func BytesValue(b []byte) Value  { return Value{r: valueRepr{kind: KindBytes, bytes: append([]byte(nil), b...)}} }
func TextValue(s string) Value   { return Value{r: valueRepr{kind: KindText, text: s}} }
func ArrayValue(items []Value) Value { return Value{r: valueRepr{kind: KindArray, arr: items}} }
func MapValue(m Map) Value       { return Value{r: valueRepr{kind: KindMap, m: m}} }
func FloatValue(f F64Bits) Value { return Value{r: valueRepr{kind: KindFloat, f: f}} }

func (v Value) Kind() CborKind { return v.r.kind }
func (v Value) IsNull() bool   { return v.r.kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	if v.r.kind != KindBool {
		return false, false
	}
	return v.r.b, true
}

func (v Value) AsInteger() (Integer, bool) {
	if v.r.kind != KindInt {
		return Integer{}, false
	}
	return v.r.i, true
}

func (v Value) AsBytes() ([]byte, bool) {
	if v.r.kind != KindBytes {
		return nil, false
	}
	return v.r.bytes, true
}

func (v Value) AsText() (string, bool) {
	if v.r.kind != KindText {
		return "", false
	}
	return v.r.text, true
}

func (v Value) AsArray() ([]Value, bool) {
	if v.r.kind != KindArray {
		return nil, false
	}
	return v.r.arr, true
}

func (v Value) AsMap() (Map, bool) {
	if v.r.kind != KindMap {
		return Map{}, false
	}
	return v.r.m, true
}

func (v Value) AsFloat() (F64Bits, bool) {
	if v.r.kind != KindFloat {
		return F64Bits{}, false
	}
	return v.r.f, true
}

// At traverses path over the owned tree, matching ValueRef.At's semantics.
func (v Value) At(path ...PathElem) (Value, *Error) {
	cur := v
	for _, elem := range path {
		if elem.isIndex {
			arr, ok := cur.AsArray()
			if !ok {
				return Value{}, newError(ErrExpectedArray, 0)
			}
			if elem.index < 0 || elem.index >= len(arr) {
				return Value{}, newError(ErrIndexOutOfBounds, 0)
			}
			cur = arr[elem.index]
		} else {
			m, ok := cur.AsMap()
			if !ok {
				return Value{}, newError(ErrExpectedMap, 0)
			}
			next, ok := m.Get(elem.key)
			if !ok {
				return Value{}, newError(ErrMissingKey, 0)
			}
			cur = next
		}
	}
	return cur, nil
}

// Equal reports structural equality, mirroring cbor_equal from the
// reference implementation this profile was distilled from: two values are
// equal iff their canonical encodings would be byte-identical.
func (v Value) Equal(o Value) bool {
	if v.r.kind != o.r.kind {
		return false
	}
	switch v.r.kind {
	case KindNull:
		return true
	case KindBool:
		return v.r.b == o.r.b
	case KindInt:
		return v.r.i.equal(o.r.i)
	case KindBytes:
		return string(v.r.bytes) == string(o.r.bytes)
	case KindText:
		return v.r.text == o.r.text
	case KindFloat:
		return v.r.f.bits == o.r.f.bits
	case KindArray:
		if len(v.r.arr) != len(o.r.arr) {
			return false
		}
		for i := range v.r.arr {
			if !v.r.arr[i].Equal(o.r.arr[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return v.r.m.equal(o.r.m)
	}
	return false
}

// EncodeCanonical serializes v to its canonical wire form using a fresh
// Encoder.
func (v Value) EncodeCanonical() ([]byte, error) {
	enc := NewEncoder()
	if err := enc.Value(v); err != nil {
		return nil, err
	}
	b, err := enc.IntoCanonical()
	if err != nil {
		return nil, err
	}
	return b, nil
}
