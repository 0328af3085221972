package cbor

// MaxSafeInteger and MinSafeInteger bound the range of integers this profile
// represents as native int64 values. Integers outside this range must be
// carried as canonical bignums (tag 2/3).
const (
	MaxSafeInteger int64 = 9007199254740991 // 2^53 - 1
	MinSafeInteger int64 = -9007199254740991
)

// DefaultMaxDepth and DefaultMaxContainerLen are the baseline limits applied
// when a caller does not supply its own Limits.
const (
	DefaultMaxDepth         = 256
	DefaultMaxContainerLen  = 1 << 16
)

// Limits bounds the cost of validating a single canonical CBOR item. All
// fields are independent. A field set to 0 disables that limit, except
// MaxDepth, for which 0 means DefaultMaxDepth. LimitsForMessageBytes fills
// in every field.
type Limits struct {
	MaxDepth       int
	MaxTotalItems  int
	MaxArrayLen    int
	MaxMapLen      int
	MaxBytesLen    int
	MaxTextLen     int
	MaxInputBytes  int
}

// LimitsForMessageBytes returns the recommended baseline limits for
// validating a single message of at most maxMessageBytes bytes: container
// lengths are capped at the smaller of maxMessageBytes and
// DefaultMaxContainerLen, since no container can legitimately hold more
// items than there are bytes to encode them.
func LimitsForMessageBytes(maxMessageBytes int) Limits {
	containerLen := DefaultMaxContainerLen
	if maxMessageBytes < containerLen {
		containerLen = maxMessageBytes
	}
	return Limits{
		MaxDepth:      DefaultMaxDepth,
		MaxTotalItems: maxMessageBytes,
		MaxArrayLen:   containerLen,
		MaxMapLen:     containerLen,
		MaxBytesLen:   maxMessageBytes,
		MaxTextLen:    maxMessageBytes,
		MaxInputBytes: maxMessageBytes,
	}
}

// LimitsForStateBytes returns limits appropriate for validating durable
// state rather than a single wire message: maxStateBytes must not exceed
// maxMessageBytes, since state is assumed to be built up out of messages
// that were themselves validated against the message limits.
func LimitsForStateBytes(maxMessageBytes, maxStateBytes int) (Limits, error) {
	if maxStateBytes > maxMessageBytes {
		return Limits{}, newError(ErrInvalidLimits, 0)
	}
	l := LimitsForMessageBytes(maxMessageBytes)
	l.MaxInputBytes = maxStateBytes
	return l, nil
}

func (l Limits) effectiveMaxDepth() int {
	if l.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return l.MaxDepth
}
