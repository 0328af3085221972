package cbor

import "sort"

// CborKind is the dispatch tag the query engine exposes for a ValueRef,
// collapsing the profile's allowed major types (plus the bignum tags) into
// one enum a caller can switch on without re-deriving CBOR major-type
// arithmetic.
type CborKind uint8

const (
	KindInt CborKind = iota
	KindBignum
	KindBytes
	KindText
	KindArray
	KindMap
	KindBool
	KindNull
	KindFloat
)

// PathElem is one step of a query path: either a map key or an array
// index. Use [Key] and [Index] to build one.
type PathElem struct {
	isIndex bool
	key     string
	index   int
}

// Key builds a map-key path element.
func Key(k string) PathElem { return PathElem{key: k} }

// Index builds an array-index path element.
func Index(i int) PathElem { return PathElem{isIndex: true, index: i} }

// ValueRef is a zero-copy reference to one CBOR item inside already
// validated bytes: [start, end) of data. Every accessor independently
// re-reads the header at start, so a ValueRef is cheap to pass by value and
// safe to keep around as long as the backing ValidatedBytes lives.
type ValueRef struct {
	data       []byte
	start, end int
}

func (v ValueRef) Offset() int { return v.start }
func (v ValueRef) Len() int    { return v.end - v.start }
func (v ValueRef) Raw() []byte { return v.data[v.start:v.end] }

func (v ValueRef) header() (major, ai byte, ok bool) {
	if v.start >= len(v.data) {
		return 0, 0, false
	}
	major, ai = splitInitialByte(v.data[v.start])
	return major, ai, true
}

// Kind reports the value's kind.
func (v ValueRef) Kind() (CborKind, *Error) {
	major, ai, ok := v.header()
	if !ok {
		return 0, newError(ErrUnexpectedEOF, v.start)
	}
	switch major {
	case majorUnsigned, majorNegative:
		return KindInt, nil
	case majorBytes:
		return KindBytes, nil
	case majorText:
		return KindText, nil
	case majorArray:
		return KindArray, nil
	case majorMap:
		return KindMap, nil
	case majorTag:
		return KindBignum, nil
	case majorSimple:
		switch ai {
		case 20, 21:
			return KindBool, nil
		case 22:
			return KindNull, nil
		case ai8Byte:
			return KindFloat, nil
		}
	}
	return 0, newError(ErrMalformedCanonical, v.start)
}

func (v ValueRef) IsNull() bool {
	k, err := v.Kind()
	return err == nil && k == KindNull
}

// Int64 returns the value as an int64, provided it is a safe-range integer
// (major type 0 or 1, not a bignum).
func (v ValueRef) Int64() (int64, *Error) {
	major, ai, ok := v.header()
	if !ok {
		return 0, newError(ErrUnexpectedEOF, v.start)
	}
	if major != majorUnsigned && major != majorNegative {
		return 0, newError(ErrExpectedInteger, v.start)
	}
	c := cursor{data: v.data, pos: v.start + 1}
	arg, err := readUintTrusted(&c, ai)
	if err != nil {
		return 0, err
	}
	if major == majorUnsigned {
		return int64(arg), nil
	}
	return -1 - int64(arg), nil
}

// Bignum returns the value's sign and big-endian magnitude, provided it is
// tagged 2 (positive) or 3 (negative).
func (v ValueRef) Bignum() (negative bool, magnitude []byte, rerr *Error) {
	major, ai, ok := v.header()
	if !ok {
		return false, nil, newError(ErrUnexpectedEOF, v.start)
	}
	if major != majorTag {
		return false, nil, newError(ErrExpectedBignum, v.start)
	}
	c := cursor{data: v.data, pos: v.start + 1}
	tagNum, err := readUintTrusted(&c, ai)
	if err != nil {
		return false, nil, err
	}
	if tagNum != tagPositiveBignum && tagNum != tagNegativeBignum {
		return false, nil, newError(ErrExpectedBignum, v.start)
	}
	mb, mai, ok := (ValueRef{data: v.data, start: c.pos, end: v.end}).header()
	if !ok || mb != majorBytes {
		return false, nil, newError(ErrMalformedCanonical, c.pos)
	}
	bc := cursor{data: v.data, pos: c.pos + 1}
	n, err := readUintTrusted(&bc, mai)
	if err != nil {
		return false, nil, err
	}
	ni, err := lenToInt(n, bc.pos)
	if err != nil {
		return false, nil, err
	}
	mag, ok := bc.readExact(ni)
	if !ok {
		return false, nil, newError(ErrUnexpectedEOF, bc.pos)
	}
	return tagNum == tagNegativeBignum, mag, nil
}

func (v ValueRef) Bytes() ([]byte, *Error) {
	major, ai, ok := v.header()
	if !ok {
		return nil, newError(ErrUnexpectedEOF, v.start)
	}
	if major != majorBytes {
		return nil, newError(ErrExpectedBytes, v.start)
	}
	c := cursor{data: v.data, pos: v.start + 1}
	n, err := readUintTrusted(&c, ai)
	if err != nil {
		return nil, err
	}
	ni, err := lenToInt(n, c.pos)
	if err != nil {
		return nil, err
	}
	b, ok := c.readExact(ni)
	if !ok {
		return nil, newError(ErrUnexpectedEOF, c.pos)
	}
	return b, nil
}

func (v ValueRef) Text() (string, *Error) {
	major, ai, ok := v.header()
	if !ok {
		return "", newError(ErrUnexpectedEOF, v.start)
	}
	if major != majorText {
		return "", newError(ErrExpectedText, v.start)
	}
	c := cursor{data: v.data, pos: v.start + 1}
	n, err := readUintTrusted(&c, ai)
	if err != nil {
		return "", err
	}
	ni, err := lenToInt(n, c.pos)
	if err != nil {
		return "", err
	}
	b, ok := c.readExact(ni)
	if !ok {
		return "", newError(ErrUnexpectedEOF, c.pos)
	}
	return string(b), nil
}

func (v ValueRef) Bool() (bool, *Error) {
	major, ai, ok := v.header()
	if !ok {
		return false, newError(ErrUnexpectedEOF, v.start)
	}
	if major != majorSimple || (ai != 20 && ai != 21) {
		return false, newError(ErrExpectedBool, v.start)
	}
	return ai == 21, nil
}

func (v ValueRef) Float64() (float64, *Error) {
	major, ai, ok := v.header()
	if !ok {
		return 0, newError(ErrUnexpectedEOF, v.start)
	}
	if major != majorSimple || ai != ai8Byte {
		return 0, newError(ErrExpectedFloat, v.start)
	}
	c := cursor{data: v.data, pos: v.start + 1}
	b, ok := c.readExact(8)
	if !ok {
		return 0, newError(ErrUnexpectedEOF, c.pos)
	}
	return float64FromBits(beUint64(b)), nil
}

// Array returns an ArrayRef, provided the value is a CBOR array.
func (v ValueRef) Array() (ArrayRef, *Error) {
	major, ai, ok := v.header()
	if !ok {
		return ArrayRef{}, newError(ErrUnexpectedEOF, v.start)
	}
	if major != majorArray {
		return ArrayRef{}, newError(ErrExpectedArray, v.start)
	}
	c := cursor{data: v.data, pos: v.start + 1}
	n, err := readUintTrusted(&c, ai)
	if err != nil {
		return ArrayRef{}, err
	}
	ni, err := lenToInt(n, c.pos)
	if err != nil {
		return ArrayRef{}, err
	}
	return ArrayRef{data: v.data, itemsStart: c.pos, end: v.end, length: ni}, nil
}

// Map returns a MapRef, provided the value is a CBOR map.
func (v ValueRef) Map() (MapRef, *Error) {
	major, ai, ok := v.header()
	if !ok {
		return MapRef{}, newError(ErrUnexpectedEOF, v.start)
	}
	if major != majorMap {
		return MapRef{}, newError(ErrExpectedMap, v.start)
	}
	c := cursor{data: v.data, pos: v.start + 1}
	n, err := readUintTrusted(&c, ai)
	if err != nil {
		return MapRef{}, err
	}
	ni, err := lenToInt(n, c.pos)
	if err != nil {
		return MapRef{}, err
	}
	return MapRef{data: v.data, entriesStart: c.pos, end: v.end, length: ni}, nil
}

// At walks a path of keys/indices from v, returning the referenced value.
func (v ValueRef) At(path ...PathElem) (ValueRef, *Error) {
	cur := v
	for _, elem := range path {
		if elem.isIndex {
			arr, err := cur.Array()
			if err != nil {
				return ValueRef{}, err
			}
			next, ok, err := arr.Get(elem.index)
			if err != nil {
				return ValueRef{}, err
			}
			if !ok {
				return ValueRef{}, newError(ErrIndexOutOfBounds, cur.start)
			}
			cur = next
		} else {
			m, err := cur.Map()
			if err != nil {
				return ValueRef{}, err
			}
			next, ok, err := m.Get(elem.key)
			if err != nil {
				return ValueRef{}, err
			}
			if !ok {
				return ValueRef{}, newError(ErrMissingKey, cur.start)
			}
			cur = next
		}
	}
	return cur, nil
}

// ArrayRef is a zero-copy reference to a validated array's elements.
type ArrayRef struct {
	data             []byte
	itemsStart, end  int
	length           int
}

func (a ArrayRef) Len() int      { return a.length }
func (a ArrayRef) IsEmpty() bool { return a.length == 0 }

// Get returns the element at index, found=false if index is out of bounds.
func (a ArrayRef) Get(index int) (ValueRef, bool, *Error) {
	if index < 0 || index >= a.length {
		return ValueRef{}, false, nil
	}
	pos := a.itemsStart
	for i := 0; i < index; i++ {
		end, err := skipValueTrusted(a.data, pos)
		if err != nil {
			return ValueRef{}, false, err
		}
		pos = end
	}
	end, err := skipValueTrusted(a.data, pos)
	if err != nil {
		return ValueRef{}, false, err
	}
	return ValueRef{data: a.data, start: pos, end: end}, true, nil
}

// Iter calls fn for each element in order, stopping early if fn returns an
// error.
func (a ArrayRef) Iter(fn func(i int, v ValueRef) *Error) *Error {
	pos := a.itemsStart
	for i := 0; i < a.length; i++ {
		end, err := skipValueTrusted(a.data, pos)
		if err != nil {
			return err
		}
		if err := fn(i, ValueRef{data: a.data, start: pos, end: end}); err != nil {
			return err
		}
		pos = end
	}
	return nil
}

// MapRef is a zero-copy reference to a validated map's entries, known to be
// stored in canonical key order with no duplicates.
type MapRef struct {
	data                 []byte
	entriesStart, end    int
	length               int
}

func (m MapRef) Len() int      { return m.length }
func (m MapRef) IsEmpty() bool { return m.length == 0 }

// Get performs a single forward scan for key, stopping as soon as the scan
// passes the point where key would have sorted (canonical order makes this
// a correct early exit, not just an optimization).
func (m MapRef) Get(key string) (ValueRef, bool, *Error) {
	pos := m.entriesStart
	for i := 0; i < m.length; i++ {
		keyStart := pos
		kv := ValueRef{data: m.data, start: pos, end: m.end}
		k, err := kv.Text()
		if err != nil {
			return ValueRef{}, false, err
		}
		keyEnd, err := skipValueTrusted(m.data, keyStart)
		if err != nil {
			return ValueRef{}, false, err
		}
		c := cmpTextKeys(k, key)
		if c == 0 {
			valEnd, err := skipValueTrusted(m.data, keyEnd)
			if err != nil {
				return ValueRef{}, false, err
			}
			return ValueRef{data: m.data, start: keyEnd, end: valEnd}, true, nil
		}
		if c > 0 {
			return ValueRef{}, false, nil
		}
		valEnd, err := skipValueTrusted(m.data, keyEnd)
		if err != nil {
			return ValueRef{}, false, err
		}
		pos = valEnd
	}
	return ValueRef{}, false, nil
}

// Require behaves like Get but treats a missing key as an error instead of a
// found=false result, for callers that already know the key must be
// present.
func (m MapRef) Require(key string) (ValueRef, *Error) {
	v, ok, err := m.Get(key)
	if err != nil {
		return ValueRef{}, err
	}
	if !ok {
		return ValueRef{}, newError(ErrMissingKey, m.entriesStart)
	}
	return v, nil
}

// ExtrasSorted returns, in canonical key order, the entries whose key is not
// present in usedKeys. usedKeys must already be strictly increasing in
// canonical order, mirroring GetManySorted; this lets both functions share
// a single forward merge-scan over the map instead of per-key lookups.
func (m MapRef) ExtrasSorted(usedKeys []string) ([]string, []ValueRef, *Error) {
	for i := 1; i < len(usedKeys); i++ {
		if cmpTextKeys(usedKeys[i-1], usedKeys[i]) >= 0 {
			return nil, nil, newError(ErrInvalidQuery, m.entriesStart)
		}
	}
	var keys []string
	var values []ValueRef
	pos := m.entriesStart
	ui := 0
	for i := 0; i < m.length; i++ {
		keyStart := pos
		kv := ValueRef{data: m.data, start: pos, end: m.end}
		k, err := kv.Text()
		if err != nil {
			return nil, nil, err
		}
		keyEnd, err := skipValueTrusted(m.data, keyStart)
		if err != nil {
			return nil, nil, err
		}
		valEnd, err := skipValueTrusted(m.data, keyEnd)
		if err != nil {
			return nil, nil, err
		}
		for ui < len(usedKeys) && cmpTextKeys(usedKeys[ui], k) < 0 {
			ui++
		}
		used := ui < len(usedKeys) && cmpTextKeys(usedKeys[ui], k) == 0
		if used {
			ui++
		} else {
			keys = append(keys, k)
			values = append(values, ValueRef{data: m.data, start: keyEnd, end: valEnd})
		}
		pos = valEnd
	}
	return keys, values, nil
}

// GetManySorted looks up keys, which must already be strictly increasing in
// canonical order, in a single forward merge-scan over the map. Returns one
// result per key, in the same order as keys.
func (m MapRef) GetManySorted(keys []string) ([]ValueRef, []bool, *Error) {
	for i := 1; i < len(keys); i++ {
		if cmpTextKeys(keys[i-1], keys[i]) >= 0 {
			return nil, nil, newError(ErrInvalidQuery, m.entriesStart)
		}
	}
	results := make([]ValueRef, len(keys))
	found := make([]bool, len(keys))
	pos := m.entriesStart
	qi := 0
	for i := 0; i < m.length && qi < len(keys); i++ {
		keyStart := pos
		kv := ValueRef{data: m.data, start: pos, end: m.end}
		k, err := kv.Text()
		if err != nil {
			return nil, nil, err
		}
		keyEnd, err := skipValueTrusted(m.data, keyStart)
		if err != nil {
			return nil, nil, err
		}
		valEnd, err := skipValueTrusted(m.data, keyEnd)
		if err != nil {
			return nil, nil, err
		}
		for qi < len(keys) {
			c := cmpTextKeys(k, keys[qi])
			if c == 0 {
				results[qi] = ValueRef{data: m.data, start: keyEnd, end: valEnd}
				found[qi] = true
				qi++
				break
			}
			if c > 0 {
				// Entry key sorts after the query key: that query key is
				// absent, advance past it without advancing the scan.
				qi++
				continue
			}
			break
		}
		pos = valEnd
	}
	return results, found, nil
}

// GetMany looks up keys in any order (duplicates are an error), internally
// sorting a permutation of indices so the scan is still a single forward
// pass, and writes results back through the original index so the returned
// slice preserves the caller's key order.
func (m MapRef) GetMany(keys []string) ([]ValueRef, []bool, *Error) {
	idxs := make([]int, len(keys))
	for i := range idxs {
		idxs[i] = i
	}
	sort.Slice(idxs, func(a, b int) bool {
		return cmpTextKeys(keys[idxs[a]], keys[idxs[b]]) < 0
	})
	for i := 1; i < len(idxs); i++ {
		if cmpTextKeys(keys[idxs[i-1]], keys[idxs[i]]) == 0 {
			return nil, nil, newError(ErrInvalidQuery, m.entriesStart)
		}
	}
	sortedKeys := make([]string, len(keys))
	for i, idx := range idxs {
		sortedKeys[i] = keys[idx]
	}
	sortedResults, sortedFound, err := m.GetManySorted(sortedKeys)
	if err != nil {
		return nil, nil, err
	}
	results := make([]ValueRef, len(keys))
	found := make([]bool, len(keys))
	for i, idx := range idxs {
		results[idx] = sortedResults[i]
		found[idx] = sortedFound[i]
	}
	return results, found, nil
}

// Iter calls fn for each entry in canonical key order.
func (m MapRef) Iter(fn func(key string, v ValueRef) *Error) *Error {
	pos := m.entriesStart
	for i := 0; i < m.length; i++ {
		keyStart := pos
		kv := ValueRef{data: m.data, start: pos, end: m.end}
		k, err := kv.Text()
		if err != nil {
			return err
		}
		keyEnd, err := skipValueTrusted(m.data, keyStart)
		if err != nil {
			return err
		}
		valEnd, err := skipValueTrusted(m.data, keyEnd)
		if err != nil {
			return err
		}
		if err := fn(k, ValueRef{data: m.data, start: keyEnd, end: valEnd}); err != nil {
			return err
		}
		pos = valEnd
	}
	return nil
}

// skipValueTrusted walks exactly one value starting at start in data
// already known to be canonical, returning the offset past it. It performs
// no canonical-form rule checks, only structural traversal, using the same
// explicit work-stack shape as the validating walker.
func skipValueTrusted(data []byte, start int) (int, *Error) {
	c := cursor{data: data, pos: start}
	stack := []int{1}
	for len(stack) > 0 {
		top := len(stack) - 1
		if stack[top] == 0 {
			stack = stack[:top]
			continue
		}
		stack[top]--
		b, ok := c.readByte()
		if !ok {
			return 0, newError(ErrUnexpectedEOF, c.pos)
		}
		major, ai := splitInitialByte(b)
		switch major {
		case majorUnsigned, majorNegative:
			if _, err := readUintTrusted(&c, ai); err != nil {
				return 0, err
			}
		case majorBytes, majorText:
			n, err := readUintTrusted(&c, ai)
			if err != nil {
				return 0, err
			}
			ni, err := lenToInt(n, c.pos)
			if err != nil {
				return 0, err
			}
			if _, ok := c.readExact(ni); !ok {
				return 0, newError(ErrUnexpectedEOF, c.pos)
			}
		case majorArray:
			n, err := readUintTrusted(&c, ai)
			if err != nil {
				return 0, err
			}
			ni, err := lenToInt(n, c.pos)
			if err != nil {
				return 0, err
			}
			stack = append(stack, ni)
		case majorMap:
			n, err := readUintTrusted(&c, ai)
			if err != nil {
				return 0, err
			}
			ni, err := lenToInt(n, c.pos)
			if err != nil {
				return 0, err
			}
			stack = append(stack, ni*2)
		case majorTag:
			if _, err := readUintTrusted(&c, ai); err != nil {
				return 0, err
			}
			stack = append(stack, 1)
		case majorSimple:
			if ai == ai8Byte {
				if _, ok := c.readExact(8); !ok {
					return 0, newError(ErrUnexpectedEOF, c.pos)
				}
			}
		default:
			return 0, newError(ErrMalformedCanonical, c.pos-1)
		}
	}
	return c.pos, nil
}
