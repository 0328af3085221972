package frame

import (
	"bytes"
	"testing"

	"github.com/Synext-Solution/sacp-cbor/cbor"
)

func TestWriteReadFrameRoundTrip(t *testing.T) {
	payload := []byte{0xA1, 0x61, 0x61, 0x01} // {"a":1}
	var buf bytes.Buffer
	w := NewWriterWithCRC(&buf)
	if err := w.WriteDoc(1, 1, payload); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := NewReader(&buf)
	f, err := r.ReadFrame()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if f.SID != 1 || f.Seq != 1 || f.Kind != KindDoc {
		t.Fatalf("unexpected frame metadata: %+v", f)
	}
	if !bytes.Equal(f.Payload, payload) {
		t.Fatalf("payload mismatch: got % X want % X", f.Payload, payload)
	}
	if !f.HasCRC() {
		t.Fatalf("expected CRC to be present")
	}
}

func TestCompressedFrameRoundTrip(t *testing.T) {
	// A canonical array of 200 repeated text items: a single valid CBOR item
	// that also compresses well, unlike arbitrary repeated bytes.
	items := make([]cbor.Value, 200)
	for i := range items {
		items[i] = cbor.TextValue("aa")
	}
	payload, err := cbor.ArrayValue(items).EncodeCanonical()
	if err != nil {
		t.Fatalf("encode payload: %v", err)
	}
	var buf bytes.Buffer
	w := NewCompressedWriter(&buf)
	if err := w.WriteFrame(&Frame{SID: 2, Seq: 1, Kind: KindRow, Payload: payload}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.Len() >= len(payload) {
		t.Fatalf("expected compression to shrink payload: wire=%d raw=%d", buf.Len(), len(payload))
	}

	r := NewReader(&buf)
	f, err := r.ReadFrame()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(f.Payload, payload) {
		t.Fatalf("payload mismatch after decompression")
	}
}

func TestCRCMismatchDetected(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriterWithCRC(&buf)
	if err := w.WriteDoc(1, 1, []byte{0x01}); err != nil {
		t.Fatalf("write: %v", err)
	}
	wire := buf.Bytes()
	// Flip a payload byte after the fixed header + CRC to corrupt it.
	wire[len(wire)-1] ^= 0xFF

	r := NewReader(bytes.NewReader(wire))
	_, err := r.ReadFrame()
	if err == nil {
		t.Fatalf("expected CRC mismatch error")
	}
	if _, ok := err.(*CRCMismatchError); !ok {
		t.Fatalf("expected *CRCMismatchError, got %T: %v", err, err)
	}
}

func TestReadFrameRejectsNonCanonicalPayload(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	// WriteFrame itself refuses a payload that is not a single canonical
	// CBOR item.
	if err := w.WriteFrame(&Frame{SID: 1, Seq: 1, Kind: KindDoc, Payload: []byte{0x18, 0x00}}); err == nil {
		t.Fatalf("expected WriteFrame to reject non-canonical payload")
	}

	// Construct the wire bytes directly, bypassing WriteFrame's check, to
	// confirm ReadFrame independently validates what it decodes.
	var raw bytes.Buffer
	raw.Write([]byte{Version, byte(KindDoc), 0})
	raw.Write([]byte{0, 0, 0, 0, 0, 0, 0, 1}) // sid
	raw.Write([]byte{0, 0, 0, 0, 0, 0, 0, 1}) // seq
	raw.Write([]byte{0, 0, 0, 2})             // wireLen = 2
	raw.Write([]byte{0x18, 0x00})             // non-canonical integer encoding

	r := NewReader(&raw)
	if _, err := r.ReadFrame(); err == nil {
		t.Fatalf("expected ReadFrame to reject non-canonical payload")
	}
}

func TestFinalFlagRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteFinal(3, 1, KindAck, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := NewReader(&buf)
	f, err := r.ReadFrame()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !f.IsFinal() {
		t.Fatalf("expected final flag set")
	}
}
