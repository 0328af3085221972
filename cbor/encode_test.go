package cbor

import (
	"bytes"
	"testing"
)

func TestEncoderScalars(t *testing.T) {
	tests := []struct {
		name string
		emit func(*Encoder) *Error
		want string
	}{
		{"null", func(e *Encoder) *Error { return e.Null() }, "F6"},
		{"true", func(e *Encoder) *Error { return e.Bool(true) }, "F5"},
		{"false", func(e *Encoder) *Error { return e.Bool(false) }, "F4"},
		{"int small", func(e *Encoder) *Error { return e.Int(1) }, "01"},
		{"int negative", func(e *Encoder) *Error { return e.Int(-1) }, "20"},
		{"int needs 1 byte arg", func(e *Encoder) *Error { return e.Int(24) }, "1818"},
		{"text hello", func(e *Encoder) *Error { return e.Text("hello") }, "6568656C6C6F"},
		{"bytes", func(e *Encoder) *Error { return e.Bytes([]byte{0xde, 0xad}) }, "42DEAD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := NewEncoder()
			if err := tt.emit(enc); err != nil {
				t.Fatalf("emit: %v", err)
			}
			want := hexBytes(t, tt.want)
			if !bytes.Equal(enc.AsBytes(), want) {
				t.Fatalf("got % X, want % X", enc.AsBytes(), want)
			}
		})
	}
}

func TestEncoderSecondRootValueRejected(t *testing.T) {
	enc := NewEncoder()
	if err := enc.Int(1); err != nil {
		t.Fatalf("first value: %v", err)
	}
	if err := enc.Int(2); err == nil || err.Code != ErrTrailingBytes {
		t.Fatalf("expected ErrTrailingBytes, got %v", err)
	}
}

func TestEncoderMapRejectsOutOfOrderKeys(t *testing.T) {
	enc := NewEncoder()
	err := enc.Map(2, func(me *MapEncoder) *Error {
		if err := me.EntryValue("b", Int64Value(1)); err != nil {
			return err
		}
		return me.EntryValue("a", Int64Value(2))
	})
	if err == nil || err.Code != ErrNonCanonicalMapOrder {
		t.Fatalf("expected ErrNonCanonicalMapOrder, got %v", err)
	}
	if len(enc.AsBytes()) != 0 {
		t.Fatalf("expected buffer rolled back to empty, got % X", enc.AsBytes())
	}
}

func TestEncoderMapRejectsDuplicateKeys(t *testing.T) {
	enc := NewEncoder()
	err := enc.Map(2, func(me *MapEncoder) *Error {
		if err := me.EntryValue("a", Int64Value(1)); err != nil {
			return err
		}
		return me.EntryValue("a", Int64Value(2))
	})
	if err == nil || err.Code != ErrDuplicateMapKey {
		t.Fatalf("expected ErrDuplicateMapKey, got %v", err)
	}
}

func TestEncoderArrayLengthMismatchRollsBack(t *testing.T) {
	enc := NewEncoder()
	err := enc.Array(3, func(ae *ArrayEncoder) *Error {
		if err := ae.Int(1); err != nil {
			return err
		}
		return ae.Int(2)
	})
	if err == nil || err.Code != ErrArrayLenMismatch {
		t.Fatalf("expected ErrArrayLenMismatch, got %v", err)
	}
	if len(enc.AsBytes()) != 0 {
		t.Fatalf("expected rollback to empty buffer, got % X", enc.AsBytes())
	}
}

func TestEncoderNestedContainers(t *testing.T) {
	enc := NewEncoder()
	err := enc.Map(1, func(me *MapEncoder) *Error {
		return me.Entry("user", func(e *Encoder) *Error {
			return e.Map(1, func(inner *MapEncoder) *Error {
				return inner.EntryValue("id", Int64Value(1))
			})
		})
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := hexBytes(t, "A1 64 75 73 65 72 A1 62 69 64 01")
	if !bytes.Equal(enc.AsBytes(), want) {
		t.Fatalf("got % X, want % X", enc.AsBytes(), want)
	}
}

func TestEncoderRejectsNonCanonicalFloat(t *testing.T) {
	enc := NewEncoder()
	bits := NegativeZeroBits
	err := enc.Float(float64FromBits(bits))
	if err == nil || err.Code != ErrNegativeZeroForbidden {
		t.Fatalf("expected ErrNegativeZeroForbidden, got %v", err)
	}
}
