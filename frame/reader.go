package frame

import (
	"encoding/binary"
	"io"

	"github.com/Synext-Solution/sacp-cbor/cbor"
)

// Reader reads binary frames from an io.Reader, matching the layout
// [Writer.WriteFrame] produces.
type Reader struct {
	r       io.Reader
	maxSize int
}

// NewReader creates a frame reader with the default MaxPayloadSize limit.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, maxSize: MaxPayloadSize}
}

// NewReaderWithLimit creates a frame reader bounding decompressed payload
// size to maxSize bytes.
func NewReaderWithLimit(r io.Reader, maxSize int) *Reader {
	return &Reader{r: r, maxSize: maxSize}
}

// ReadFrame reads the next frame, decompressing and CRC-checking it if
// those flags are set. io.EOF is returned unmodified when the stream ends
// cleanly between frames.
func (rd *Reader) ReadFrame() (*Frame, error) {
	fixed := make([]byte, 3+8+8+4)
	if _, err := io.ReadFull(rd.r, fixed); err != nil {
		return nil, err
	}
	version := fixed[0]
	kind := Kind(fixed[1])
	flags := Flags(fixed[2])
	sid := binary.BigEndian.Uint64(fixed[3:11])
	seq := binary.BigEndian.Uint64(fixed[11:19])
	wireLen := binary.BigEndian.Uint32(fixed[19:23])

	f := &Frame{Version: version, SID: sid, Seq: seq, Kind: kind, Flags: flags}
	f.Final = flags&FlagFinal != 0

	if flags&FlagHasCRC != 0 {
		crcBuf := make([]byte, 4)
		if _, err := io.ReadFull(rd.r, crcBuf); err != nil {
			return nil, err
		}
		crc := binary.BigEndian.Uint32(crcBuf)
		f.CRC = &crc
	}
	if flags&FlagHasBase != 0 {
		var base [32]byte
		if _, err := io.ReadFull(rd.r, base[:]); err != nil {
			return nil, err
		}
		f.Base = &base
	}

	if int64(wireLen) > int64(rd.maxSize)*2+1024 {
		return nil, &ParseError{Reason: "declared payload length exceeds limit", Offset: -1}
	}
	wire := make([]byte, wireLen)
	if _, err := io.ReadFull(rd.r, wire); err != nil {
		return nil, err
	}

	payload := wire
	if flags&FlagCompressed != 0 {
		decoded, err := decompressPayload(wire, rd.maxSize)
		if err != nil {
			return nil, err
		}
		payload = decoded
	} else if len(wire) > rd.maxSize {
		return nil, &ParseError{Reason: "payload exceeds limit", Offset: -1}
	}
	f.Payload = payload

	if f.CRC != nil && !VerifyCRC(payload, *f.CRC) {
		return nil, &CRCMismatchError{Expected: *f.CRC, Got: ComputeCRC(payload)}
	}
	if len(payload) > 0 {
		if _, err := cbor.Validate(payload); err != nil {
			return nil, err
		}
	}
	return f, nil
}
