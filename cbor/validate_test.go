package cbor

import (
	"bytes"
	"encoding/hex"
	"strconv"
	"strings"
	"testing"
)

func hexBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		t.Fatalf("bad hex literal %q: %v", s, err)
	}
	return b
}

func TestValidateCanonical(t *testing.T) {
	tests := []struct {
		name       string
		hex        string
		wantErr    ErrorKind
		wantOffset int
		accept     bool
	}{
		{name: "S1 map a:1", hex: "A1 61 61 01", accept: true},
		{name: "S2 non-canonical int", hex: "18 00", wantErr: ErrNonCanonicalEncoding, wantOffset: 0},
		{name: "S3 out-of-order map", hex: "A2 61 62 01 61 61 02", wantErr: ErrNonCanonicalMapOrder, wantOffset: 4},
		{name: "S4 duplicate map key", hex: "A2 61 61 01 61 61 02", wantErr: ErrDuplicateMapKey},
		{name: "S5 indefinite array", hex: "9F 01 FF", wantErr: ErrIndefiniteLengthForbidden},
		{name: "S6 negative zero float", hex: "FB 80 00 00 00 00 00 00 00", wantErr: ErrNegativeZeroForbidden},
		{name: "S7 bignum inside safe range", hex: "C2 41 01", wantErr: ErrBignumMustBeOutsideSafeRange},
		{name: "empty array", hex: "80", accept: true},
		{name: "empty map", hex: "A0", accept: true},
		{name: "canonical NaN", hex: "FB 7F F8 00 00 00 00 00 00", accept: true},
		{name: "trailing bytes", hex: "01 02", wantErr: ErrTrailingBytes, wantOffset: 1},
		{name: "bignum outside safe range", hex: "C2 48 20 00 00 00 00 00 00 00", accept: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := hexBytes(t, tt.hex)
			vb, err := Validate(data)
			if tt.accept {
				if err != nil {
					t.Fatalf("expected accept, got error: %v", err)
				}
				if !bytes.Equal(vb.Bytes(), data) {
					t.Fatalf("validated bytes differ from input")
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %s, got accept", tt.wantErr)
			}
			cerr, ok := err.(*Error)
			if !ok {
				t.Fatalf("expected *cbor.Error, got %T", err)
			}
			if cerr.Code != tt.wantErr {
				t.Fatalf("expected error code %s, got %s", tt.wantErr, cerr.Code)
			}
			if tt.wantOffset != 0 && cerr.Offset != tt.wantOffset {
				t.Fatalf("expected offset %d, got %d", tt.wantOffset, cerr.Offset)
			}
		})
	}
}

func TestValidateDepthLimit(t *testing.T) {
	var buf []byte
	depth := 300
	for i := 0; i < depth; i++ {
		buf = append(buf, 0x81) // array of length 1
	}
	buf = append(buf, 0x00) // innermost: integer 0

	_, err := ValidateCanonical(buf, LimitsForMessageBytes(len(buf)))
	if err == nil {
		t.Fatalf("expected depth limit error")
	}
	cerr := err.(*Error)
	if cerr.Code != ErrDepthLimitExceeded {
		t.Fatalf("expected ErrDepthLimitExceeded, got %s", cerr.Code)
	}
}

func TestValidateWideSiblingsNotTreatedAsDeep(t *testing.T) {
	// A flat map with many sibling empty-array values has real nesting depth
	// 2 (root map, each array), not one level per sibling. It must not trip
	// the depth limit just because many containers were opened and closed
	// over the course of the scan.
	const n = 300
	keys := make([]string, n)
	values := make([]Value, n)
	for i := range keys {
		keys[i] = "k" + strconv.Itoa(i)
		values[i] = ArrayValue(nil)
	}
	m, err := NewMap(keys, values)
	if err != nil {
		t.Fatalf("new map: %v", err)
	}
	data, err := MapValue(m).EncodeCanonical()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if _, verr := ValidateCanonical(data, LimitsForMessageBytes(len(data))); verr != nil {
		t.Fatalf("expected wide sibling document to validate, got %v", verr)
	}
}

func TestRoundTripIdentity(t *testing.T) {
	samples := []string{
		"A1 61 61 01",
		"82 01 02",
		"A2 61 61 01 61 62 02",
		"65 68 65 6C 6C 6F", // text "hello"
		"80",
		"A0",
	}
	for _, h := range samples {
		t.Run(h, func(t *testing.T) {
			data := hexBytes(t, h)
			vb, err := Validate(data)
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			v, err := Decode(vb)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			out, err := v.EncodeCanonical()
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if !bytes.Equal(out, data) {
				t.Fatalf("round trip mismatch: got % X, want % X", out, data)
			}
		})
	}
}
