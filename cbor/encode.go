package cbor

// Encoder builds a canonical SACP-CBOR/1 item into an internal buffer.
// Exactly one top-level value may be written; a second call to any
// top-level method returns ErrTrailingBytes. Container builders
// ([Encoder.Array], [Encoder.Map]) are transactional: if the callback
// returns an error, or writes the wrong number of items, the buffer is
// rolled back to its state before the container header was written, so a
// failed encode never leaves a truncated item behind.
type Encoder struct {
	buf      []byte
	rootDone bool
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// AsBytes returns the encoded buffer as-is, with no completion check.
// Callers that need to know the buffer holds a complete canonical item
// should use [Encoder.IntoCanonical] instead.
func (e *Encoder) AsBytes() []byte { return e.buf }

// IntoCanonical returns the encoded buffer, failing unless it holds exactly
// one complete top-level item.
func (e *Encoder) IntoCanonical() ([]byte, *Error) {
	if !e.rootDone || len(e.buf) == 0 {
		return nil, newError(ErrUnexpectedEOF, len(e.buf))
	}
	return e.buf, nil
}

func (e *Encoder) beginValue() *Error {
	if e.rootDone {
		return newError(ErrTrailingBytes, len(e.buf))
	}
	return nil
}

func (e *Encoder) finishValue() {
	e.rootDone = true
}

// Null writes a null value.
func (e *Encoder) Null() *Error {
	if err := e.beginValue(); err != nil {
		return err
	}
	e.buf = append(e.buf, simpleNull)
	e.finishValue()
	return nil
}

// Bool writes a boolean value.
func (e *Encoder) Bool(b bool) *Error {
	if err := e.beginValue(); err != nil {
		return err
	}
	if b {
		e.buf = append(e.buf, simpleTrue)
	} else {
		e.buf = append(e.buf, simpleFalse)
	}
	e.finishValue()
	return nil
}

// Int writes a safe-range integer value.
func (e *Encoder) Int(v int64) *Error {
	if err := e.beginValue(); err != nil {
		return err
	}
	if v > MaxSafeInteger || v < MinSafeInteger {
		return newError(ErrIntegerOutsideSafeRange, len(e.buf))
	}
	e.emitInt(v)
	e.finishValue()
	return nil
}

func (e *Encoder) emitInt(v int64) {
	if v >= 0 {
		e.buf = encodeMajorLen(e.buf, majorUnsigned, uint64(v))
	} else {
		e.buf = encodeMajorLen(e.buf, majorNegative, uint64(-1-v))
	}
}

// Bignum writes a bignum value; negative and magnitude must already satisfy
// the canonical-bignum rules (non-empty magnitude, no leading zero, magnitude
// strictly greater than MaxSafeInteger).
func (e *Encoder) Bignum(negative bool, magnitude []byte) *Error {
	if err := e.beginValue(); err != nil {
		return err
	}
	if err := validateBignumMagnitude(magnitude, negative, len(e.buf)); err != nil {
		return err
	}
	e.emitBignum(negative, magnitude)
	e.finishValue()
	return nil
}

func (e *Encoder) emitBignum(negative bool, magnitude []byte) {
	tag := uint64(tagPositiveBignum)
	if negative {
		tag = tagNegativeBignum
	}
	e.buf = encodeMajorLen(e.buf, majorTag, tag)
	e.buf = encodeMajorLen(e.buf, majorBytes, uint64(len(magnitude)))
	e.buf = append(e.buf, magnitude...)
}

// Integer writes an Integer (safe or big) using whichever representation
// it already holds.
func (e *Encoder) Integer(i Integer) *Error {
	if v, ok := i.AsInt64(); ok {
		return e.Int(v)
	}
	b, _ := i.AsBigInt()
	return e.Bignum(b.Negative(), b.Magnitude())
}

// Bytes writes a byte-string value.
func (e *Encoder) Bytes(b []byte) *Error {
	if err := e.beginValue(); err != nil {
		return err
	}
	e.buf = encodeMajorLen(e.buf, majorBytes, uint64(len(b)))
	e.buf = append(e.buf, b...)
	e.finishValue()
	return nil
}

// Text writes a text-string value.
func (e *Encoder) Text(s string) *Error {
	if err := e.beginValue(); err != nil {
		return err
	}
	e.buf = encodeMajorLen(e.buf, majorText, uint64(len(s)))
	e.buf = append(e.buf, s...)
	e.finishValue()
	return nil
}

// Float writes a float64 value, canonicalizing any NaN and rejecting
// negative zero.
func (e *Encoder) Float(f float64) *Error {
	if err := e.beginValue(); err != nil {
		return err
	}
	bits := bitsFromFloat64(f)
	if err := validateFloat64Bits(bits, len(e.buf)); err != nil {
		return err
	}
	e.emitFloatBits(bits)
	e.finishValue()
	return nil
}

func (e *Encoder) emitFloatBits(bits uint64) {
	e.buf = append(e.buf, majorSimple<<5|ai8Byte,
		byte(bits>>56), byte(bits>>48), byte(bits>>40), byte(bits>>32),
		byte(bits>>24), byte(bits>>16), byte(bits>>8), byte(bits))
}

// RawCbor splices already-canonical bytes verbatim, trusting the caller
// that raw is exactly one canonical item (used by the editor to re-emit
// unmodified subtrees without re-encoding them).
func (e *Encoder) RawCbor(raw []byte) *Error {
	if err := e.beginValue(); err != nil {
		return err
	}
	e.buf = append(e.buf, raw...)
	e.finishValue()
	return nil
}

// Array writes an array of length n, calling f with an ArrayEncoder that
// must write exactly n items.
func (e *Encoder) Array(n int, f func(*ArrayEncoder) *Error) *Error {
	if err := e.beginValue(); err != nil {
		return err
	}
	start := len(e.buf)
	e.buf = encodeMajorLen(e.buf, majorArray, uint64(n))
	ae := &ArrayEncoder{enc: e, remaining: n}
	if err := f(ae); err != nil {
		e.buf = e.buf[:start]
		return err
	}
	if ae.remaining != 0 {
		e.buf = e.buf[:start]
		return newError(ErrArrayLenMismatch, start)
	}
	e.finishValue()
	return nil
}

// Map writes a map of length n, calling f with a MapEncoder that must write
// exactly n entries in strictly increasing canonical key order.
func (e *Encoder) Map(n int, f func(*MapEncoder) *Error) *Error {
	if err := e.beginValue(); err != nil {
		return err
	}
	start := len(e.buf)
	e.buf = encodeMajorLen(e.buf, majorMap, uint64(n))
	me := &MapEncoder{enc: e, remaining: n}
	if err := f(me); err != nil {
		e.buf = e.buf[:start]
		return err
	}
	if me.remaining != 0 {
		e.buf = e.buf[:start]
		return newError(ErrMapLenMismatch, start)
	}
	e.finishValue()
	return nil
}

// Value writes an owned Value tree.
func (e *Encoder) Value(v Value) *Error {
	switch v.Kind() {
	case KindNull:
		return e.Null()
	case KindBool:
		b, _ := v.AsBool()
		return e.Bool(b)
	case KindInt:
		i, _ := v.AsInteger()
		return e.Integer(i)
	case KindBytes:
		b, _ := v.AsBytes()
		return e.Bytes(b)
	case KindText:
		s, _ := v.AsText()
		return e.Text(s)
	case KindFloat:
		f, _ := v.AsFloat()
		return e.Float(f.Float64())
	case KindArray:
		arr, _ := v.AsArray()
		return e.Array(len(arr), func(ae *ArrayEncoder) *Error {
			for _, item := range arr {
				if err := ae.Value(item); err != nil {
					return err
				}
			}
			return nil
		})
	case KindMap:
		m, _ := v.AsMap()
		return e.Map(m.Len(), func(me *MapEncoder) *Error {
			var outerErr *Error
			m.Iter(func(key string, val Value) bool {
				if err := me.Entry(key, func(ve *Encoder) *Error {
					return ve.Value(val)
				}); err != nil {
					outerErr = err
					return false
				}
				return true
			})
			return outerErr
		})
	}
	return newError(ErrMalformedCanonical, len(e.buf))
}

// ArrayEncoder writes exactly the declared number of elements of an array
// opened by [Encoder.Array].
type ArrayEncoder struct {
	enc       *Encoder
	remaining int
}

func (a *ArrayEncoder) consumeOne() *Error {
	if a.remaining <= 0 {
		return newError(ErrArrayLenMismatch, len(a.enc.buf))
	}
	a.remaining--
	return nil
}

// Emit consumes one array slot and runs f against the underlying Encoder,
// the generic escape hatch the editor uses to splice arbitrary already-
// resolved values (raw bytes, nested edits) into an array being rebuilt.
func (a *ArrayEncoder) Emit(f func(*Encoder) *Error) *Error {
	if err := a.consumeOne(); err != nil {
		return err
	}
	a.enc.rootDone = false
	return f(a.enc)
}

func (a *ArrayEncoder) Null() *Error {
	if err := a.consumeOne(); err != nil {
		return err
	}
	return a.enc.rawScalar(a.enc.Null)
}

func (a *ArrayEncoder) Bool(b bool) *Error {
	if err := a.consumeOne(); err != nil {
		return err
	}
	return a.enc.rawScalar(func() *Error { return a.enc.Bool(b) })
}

func (a *ArrayEncoder) Int(v int64) *Error {
	if err := a.consumeOne(); err != nil {
		return err
	}
	return a.enc.rawScalar(func() *Error { return a.enc.Int(v) })
}

func (a *ArrayEncoder) Bytes(b []byte) *Error {
	if err := a.consumeOne(); err != nil {
		return err
	}
	return a.enc.rawScalar(func() *Error { return a.enc.Bytes(b) })
}

func (a *ArrayEncoder) Text(s string) *Error {
	if err := a.consumeOne(); err != nil {
		return err
	}
	return a.enc.rawScalar(func() *Error { return a.enc.Text(s) })
}

func (a *ArrayEncoder) Float(f float64) *Error {
	if err := a.consumeOne(); err != nil {
		return err
	}
	return a.enc.rawScalar(func() *Error { return a.enc.Float(f) })
}

func (a *ArrayEncoder) RawCbor(raw []byte) *Error {
	if err := a.consumeOne(); err != nil {
		return err
	}
	return a.enc.rawScalar(func() *Error { return a.enc.RawCbor(raw) })
}

func (a *ArrayEncoder) Array(n int, f func(*ArrayEncoder) *Error) *Error {
	if err := a.consumeOne(); err != nil {
		return err
	}
	a.enc.rootDone = false
	return a.enc.Array(n, f)
}

func (a *ArrayEncoder) Map(n int, f func(*MapEncoder) *Error) *Error {
	if err := a.consumeOne(); err != nil {
		return err
	}
	a.enc.rootDone = false
	return a.enc.Map(n, f)
}

func (a *ArrayEncoder) Value(v Value) *Error {
	if err := a.consumeOne(); err != nil {
		return err
	}
	a.enc.rootDone = false
	return a.enc.Value(v)
}

// rawScalar runs a scalar-writing Encoder method, which expects to manage
// its own beginValue/finishValue against root state; nested encoders reuse
// the same buffer, so we reset rootDone around each nested item.
func (e *Encoder) rawScalar(f func() *Error) *Error {
	e.rootDone = false
	return f()
}

// MapEncoder writes exactly the declared number of entries of a map opened
// by [Encoder.Map], enforcing strictly increasing canonical key order as
// entries are written.
type MapEncoder struct {
	enc            *Encoder
	remaining      int
	havePrevKey    bool
	prevKeyStart   int
	prevKeyEnd     int
}

// Entry writes one key/value pair: key is text-encoded first, then f is
// called with an Encoder positioned to write exactly one value. If key
// order is violated, if key is a duplicate, or if f errors, the whole entry
// is rolled back.
func (m *MapEncoder) Entry(key string, f func(*Encoder) *Error) *Error {
	if m.remaining <= 0 {
		return newError(ErrMapLenMismatch, len(m.enc.buf))
	}
	entryStart := len(m.enc.buf)
	keyStart := len(m.enc.buf)
	m.enc.buf = encodeMajorLen(m.enc.buf, majorText, uint64(len(key)))
	m.enc.buf = append(m.enc.buf, key...)
	keyEnd := len(m.enc.buf)

	if m.havePrevKey {
		c := cmpEncodedKeyBytes(m.enc.buf[m.prevKeyStart:m.prevKeyEnd], m.enc.buf[keyStart:keyEnd])
		if c == 0 {
			m.enc.buf = m.enc.buf[:entryStart]
			return newError(ErrDuplicateMapKey, entryStart)
		}
		if c > 0 {
			m.enc.buf = m.enc.buf[:entryStart]
			return newError(ErrNonCanonicalMapOrder, entryStart)
		}
	}

	m.enc.rootDone = false
	if err := f(m.enc); err != nil {
		m.enc.buf = m.enc.buf[:entryStart]
		return err
	}

	m.prevKeyStart, m.prevKeyEnd = keyStart, keyEnd
	m.havePrevKey = true
	m.remaining--
	return nil
}

// EntryValue writes one key/value pair from an owned Value.
func (m *MapEncoder) EntryValue(key string, v Value) *Error {
	return m.Entry(key, func(e *Encoder) *Error { return e.Value(v) })
}
