// Package frame implements a binary transport envelope for carrying
// validated canonical SACP-CBOR/1 items over a byte stream: WebSocket
// frames, length-prefixed TCP connections, or any other API body channel.
//
// A frame carries one canonical CBOR item as its payload, or an empty
// payload (control frames such as acks and pings), plus
// transport bookkeeping the CBOR profile itself deliberately stays silent
// on: stream multiplexing (SID), ordering (Seq), integrity (an optional
// CRC-32), and patch safety (an optional state hash). None of the header
// fields participate in CBOR canonicalization; they frame a payload that is
// independently validated.
//
// Payloads may optionally be compressed with DEFLATE (FlagCompressed).
// Compression always wraps an already-canonicalized payload: writers
// canonicalize before compressing, and readers decompress before handing
// the payload to [cbor.Validate], so the compression boundary never
// reinterprets or relaxes canonicalization.
package frame
