package cbor

import "unicode/utf8"

// The walker is a single-pass, non-recursive scanner: instead of recursing
// into nested arrays/maps, it pushes a small frame onto an explicit stack
// and keeps looping until the stack drains. This bounds Go call-stack use to
// a constant regardless of input nesting (still subject to limits.MaxDepth),
// which matters for untrusted network input where a deeply nested payload
// would otherwise be a cheap way to exhaust the goroutine stack.

const (
	frameArray = iota
	frameMap
	frameTagContent
)

type walkFrame struct {
	kind      int
	remaining int // items left to consume at this level
	tagNum    uint64

	// map-only bookkeeping for canonical key-order enforcement.
	havePrevKey bool
	prevKey     []byte
}

// walkState carries the scan's mutable bookkeeping across the whole pass.
type walkState struct {
	c          cursor
	limits     Limits
	stack      []walkFrame
	totalItems int
	depth      int
}

func newWalkState(data []byte, limits Limits) *walkState {
	return &walkState{c: cursor{data: data}, limits: limits}
}

// walkOne validates exactly one canonical CBOR item starting at data[0]
// and returns the offset immediately past it.
// It does not check for trailing bytes; callers that require "exactly one
// item, nothing more" do that check themselves.
func walkOne(data []byte, limits Limits) (end int, err *Error) {
	w := newWalkState(data, limits)
	if err := w.push(1); err != nil {
		return 0, err
	}
	for len(w.stack) > 0 {
		top := &w.stack[len(w.stack)-1]
		if top.remaining == 0 {
			w.stack = w.stack[:len(w.stack)-1]
			w.depth--
			continue
		}
		isKey := top.kind == frameMap && top.remaining%2 == 0
		top.remaining--

		if err := w.stepItem(top, isKey); err != nil {
			return 0, err
		}
	}
	return w.c.pos, nil
}

func (w *walkState) push(n int) *Error {
	w.depth++
	if w.depth > w.limits.effectiveMaxDepth() {
		return newError(ErrDepthLimitExceeded, w.c.pos)
	}
	// Placeholder frame; caller fills in kind-specific fields.
	w.stack = append(w.stack, walkFrame{remaining: n})
	return nil
}

func (w *walkState) pushFrame(f walkFrame) *Error {
	w.depth++
	if w.depth > w.limits.effectiveMaxDepth() {
		return newError(ErrDepthLimitExceeded, w.c.pos)
	}
	w.stack = append(w.stack, f)
	return nil
}

// stepItem consumes exactly one value at the cursor. top is the frame this
// item belongs to (already decremented); isKey is true iff top is a map
// frame and this item is a key rather than a value.
func (w *walkState) stepItem(top *walkFrame, isKey bool) *Error {
	w.totalItems++
	if w.limits.MaxTotalItems > 0 && w.totalItems > w.limits.MaxTotalItems {
		return newError(ErrTotalItemsLimitExceeded, w.c.pos)
	}

	start := w.c.pos
	b, ok := w.c.readByte()
	if !ok {
		return newError(ErrUnexpectedEOF, start)
	}
	major, ai := splitInitialByte(b)

	if top.kind == frameTagContent {
		if major != majorBytes {
			return newError(ErrForbiddenOrMalformedTag, start)
		}
	}
	if top.kind == frameMap && isKey && major != majorText {
		return newError(ErrMapKeyMustBeText, start)
	}

	switch major {
	case majorUnsigned:
		v, err := readUintChecked(&w.c, ai)
		if err != nil {
			return err
		}
		if v > uint64(MaxSafeInteger) {
			return newError(ErrIntegerOutsideSafeRange, start)
		}
	case majorNegative:
		v, err := readUintChecked(&w.c, ai)
		if err != nil {
			return err
		}
		// Represents -1-v; safe range check is symmetric.
		if v > uint64(-(MinSafeInteger+1)) {
			return newError(ErrIntegerOutsideSafeRange, start)
		}
	case majorBytes:
		n, err := w.readLen(ai, start)
		if err != nil {
			return err
		}
		if w.limits.MaxBytesLen > 0 && n > w.limits.MaxBytesLen {
			return newError(ErrBytesLenLimitExceeded, start)
		}
		payload, ok := w.c.readExact(n)
		if !ok {
			return newError(ErrUnexpectedEOF, w.c.pos)
		}
		if top.kind == frameTagContent {
			if err := validateBignumMagnitude(payload, top.tagNum == tagNegativeBignum, start); err != nil {
				return err
			}
		}
	case majorText:
		n, err := w.readLen(ai, start)
		if err != nil {
			return err
		}
		if w.limits.MaxTextLen > 0 && n > w.limits.MaxTextLen {
			return newError(ErrTextLenLimitExceeded, start)
		}
		payload, ok := w.c.readExact(n)
		if !ok {
			return newError(ErrUnexpectedEOF, w.c.pos)
		}
		if !utf8.Valid(payload) {
			return newError(ErrUtf8Invalid, start)
		}
		if top.kind == frameMap && isKey {
			if top.havePrevKey {
				c := cmpTextKeys(string(top.prevKey), string(payload))
				if c == 0 {
					return newError(ErrDuplicateMapKey, start)
				}
				if c > 0 {
					return newError(ErrNonCanonicalMapOrder, start)
				}
			}
			top.prevKey = payload
			top.havePrevKey = true
		}
	case majorArray:
		n, err := w.readLen(ai, start)
		if err != nil {
			return err
		}
		if w.limits.MaxArrayLen > 0 && n > w.limits.MaxArrayLen {
			return newError(ErrArrayLenLimitExceeded, start)
		}
		if err := w.pushFrame(walkFrame{kind: frameArray, remaining: n}); err != nil {
			return err
		}
	case majorMap:
		n, err := w.readLen(ai, start)
		if err != nil {
			return err
		}
		if w.limits.MaxMapLen > 0 && n > w.limits.MaxMapLen {
			return newError(ErrMapLenLimitExceeded, start)
		}
		if err := w.pushFrame(walkFrame{kind: frameMap, remaining: n * 2}); err != nil {
			return err
		}
	case majorTag:
		v, err := readUintChecked(&w.c, ai)
		if err != nil {
			return err
		}
		if v != tagPositiveBignum && v != tagNegativeBignum {
			return newError(ErrForbiddenOrMalformedTag, start)
		}
		if err := w.pushFrame(walkFrame{kind: frameTagContent, remaining: 1, tagNum: v}); err != nil {
			return err
		}
	case majorSimple:
		if err := w.stepSimple(ai, start); err != nil {
			return err
		}
	default:
		return newError(ErrMalformedCanonical, start)
	}
	return nil
}

func (w *walkState) readLen(ai byte, start int) (int, *Error) {
	v, err := readUintChecked(&w.c, ai)
	if err != nil {
		return 0, err
	}
	return lenToInt(v, start)
}

func (w *walkState) stepSimple(ai byte, start int) *Error {
	switch ai {
	case 20, 21, 22: // false, true, null
		return nil
	case ai8Byte: // float64 only; half/single precision are forbidden
		b, ok := w.c.readExact(8)
		if !ok {
			return newError(ErrUnexpectedEOF, w.c.pos)
		}
		bits := beUint64(b)
		return validateFloat64Bits(bits, start)
	default:
		return newError(ErrUnsupportedSimpleValue, start)
	}
}

// validateBignumMagnitude enforces the canonical bignum rules: the
// magnitude must be non-empty, have no leading zero byte, and be strictly
// greater than MaxSafeInteger. The sign does not affect the range check.
func validateBignumMagnitude(magnitude []byte, negative bool, offset int) *Error {
	if len(magnitude) == 0 {
		return newError(ErrBignumNotCanonical, offset)
	}
	if magnitude[0] == 0 {
		return newError(ErrBignumNotCanonical, offset)
	}
	if !magnitudeOutsideSafeRange(magnitude) {
		return newError(ErrBignumMustBeOutsideSafeRange, offset)
	}
	_ = negative
	return nil
}

// maxSafeIntegerBE is MaxSafeInteger (2^53-1) as a big-endian byte string,
// used to compare a bignum magnitude against the safe-integer boundary
// without converting either side to a machine integer type.
var maxSafeIntegerBE = []byte{0x1f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

func magnitudeOutsideSafeRange(magnitude []byte) bool {
	trimmed := magnitude
	for len(trimmed) > 0 && trimmed[0] == 0 {
		trimmed = trimmed[1:]
	}
	if len(trimmed) != len(maxSafeIntegerBE) {
		return len(trimmed) > len(maxSafeIntegerBE)
	}
	for i := range trimmed {
		if trimmed[i] != maxSafeIntegerBE[i] {
			return trimmed[i] > maxSafeIntegerBE[i]
		}
	}
	return false // exactly equal to the boundary: still representable safely
}
