// Package cbor implements SACP-CBOR/1, a strict deterministic binary-object
// profile over the CBOR data model.
//
// The profile is aimed at hot-path validation of framed network payloads
// (WebSocket frames, API bodies) where downstream code relies on byte-level
// canonicalization for hashing, signing, and byte-equality-as-semantic-equality.
//
// # Shape
//
// Three subsystems do the work:
//
//   - The canonical walker ([Validate], [ValidateCanonical]) is a single-pass
//     byte scanner enforcing the profile's structural, numeric, ordering, and
//     tag rules. It produces a [ValidatedBytes] wrapper or a located [Error].
//   - The query engine ([ValidatedBytes.Root], [ValueRef], [MapRef],
//     [ArrayRef]) walks validated bytes directly, without decoding.
//   - The streaming [Encoder] and the patch-based [Editor] produce new
//     canonical bytes: the encoder from scratch, the editor by splicing
//     mutations into previously validated bytes in one forward pass.
//
// An owned tree representation ([Value]) sits alongside the zero-copy path
// for callers that need ownership beyond the lifetime of the source buffer.
//
// # Non-goals
//
// Indefinite-length items, non-text map keys, tags other than 2 and 3
// (bignums), half/single-precision floats, simple values other than
// false/true/null, and round-tripping of non-canonical input are all
// rejected by design. The profile is defined only on canonical inputs and
// emits only canonical outputs.
package cbor
