package frame

import (
	"encoding/binary"
	"io"

	"github.com/Synext-Solution/sacp-cbor/cbor"
)

// Writer writes binary frames to an io.Writer.
type Writer struct {
	w          io.Writer
	withCRC    bool
	compressed bool
}

// NewWriter creates a frame writer with no optional fields enabled.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// NewWriterWithCRC creates a writer that computes a CRC-32 for every frame.
func NewWriterWithCRC(w io.Writer) *Writer {
	return &Writer{w: w, withCRC: true}
}

// NewCompressedWriter creates a writer that DEFLATE-compresses every
// frame's payload before writing it.
func NewCompressedWriter(w io.Writer) *Writer {
	return &Writer{w: w, compressed: true}
}

// WriteFrame writes a single frame.
//
// Wire layout (all multi-byte integers big-endian):
//
//	u8  version
//	u8  kind
//	u8  flags
//	u64 sid
//	u64 seq
//	u32 wire payload length
//	[u32 crc]        present iff FlagHasCRC
//	[32 bytes base]  present iff FlagHasBase
//	wire payload bytes
func (w *Writer) WriteFrame(f *Frame) error {
	if len(f.Payload) > 0 {
		if _, err := cbor.Validate(f.Payload); err != nil {
			return err
		}
	}

	version := f.Version
	if version == 0 {
		version = Version
	}

	flags := f.Flags
	if f.IsFinal() {
		flags |= FlagFinal
	}

	payload := f.Payload
	if w.compressed {
		compressed, err := compressPayload(payload)
		if err != nil {
			return err
		}
		payload = compressed
		flags |= FlagCompressed
	}

	crc := f.CRC
	if crc == nil && w.withCRC {
		computed := ComputeCRC(f.Payload)
		crc = &computed
	}
	if crc != nil {
		flags |= FlagHasCRC
	}
	if f.Base != nil {
		flags |= FlagHasBase
	}

	header := make([]byte, 0, 27)
	header = append(header, version, byte(f.Kind), byte(flags))
	header = binary.BigEndian.AppendUint64(header, f.SID)
	header = binary.BigEndian.AppendUint64(header, f.Seq)
	header = binary.BigEndian.AppendUint32(header, uint32(len(payload)))
	if crc != nil {
		header = binary.BigEndian.AppendUint32(header, *crc)
	}
	if f.Base != nil {
		header = append(header, f.Base[:]...)
	}

	if _, err := w.w.Write(header); err != nil {
		return err
	}
	_, err := w.w.Write(payload)
	return err
}

func (w *Writer) WriteDoc(sid, seq uint64, payload []byte) error {
	return w.WriteFrame(&Frame{SID: sid, Seq: seq, Kind: KindDoc, Payload: payload})
}

func (w *Writer) WritePatch(sid, seq uint64, payload []byte, base *[32]byte) error {
	return w.WriteFrame(&Frame{SID: sid, Seq: seq, Kind: KindPatch, Payload: payload, Base: base})
}

func (w *Writer) WriteFinal(sid, seq uint64, kind Kind, payload []byte) error {
	return w.WriteFrame(&Frame{SID: sid, Seq: seq, Kind: kind, Payload: payload, Final: true})
}
