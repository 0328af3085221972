package frame

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
)

// compressPayload DEFLATE-compresses already-canonical CBOR bytes.
func compressPayload(canonical []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(canonical); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decompressPayload inflates wire bytes back into canonical CBOR bytes,
// enforcing maxLen so a frame can't be used to inflate-bomb the reader.
func decompressPayload(compressed []byte, maxLen int) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()
	limited := io.LimitReader(r, int64(maxLen)+1)
	out, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if len(out) > maxLen {
		return nil, &ParseError{Reason: "decompressed payload exceeds limit", Offset: -1}
	}
	return out, nil
}
