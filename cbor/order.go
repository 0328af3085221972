package cbor

// Canonical map-key order: shorter encoded key first, ties broken by
// lexicographic byte order of the raw UTF-8 text. This is RFC 8949 §4.2.1's
// "length-first" map-key canonicalization, applied to the encoded header +
// payload as a whole rather than the decoded string, so that the comparator
// matches what an encoder actually writes.

// cmpEncodedKeyBytes compares two already-encoded text-string keys (header
// bytes included) by canonical order: shorter total encoding first, then
// lexicographic.
func cmpEncodedKeyBytes(a, b []byte) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// cmpTextKeys compares two decoded key strings by the same canonical order
// their canonical encodings would have: shorter text first (since the
// header length only ever grows with text length in this profile's range),
// then byte-lexicographic on the text itself.
func cmpTextKeys(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// isStrictlyIncreasingEncoded reports whether a sequence of already-encoded
// map keys (header+payload bytes, in the order they appear on the wire) is
// strictly increasing under canonical order, i.e. free of disorder and of
// duplicates.
func isStrictlyIncreasingEncoded(keys [][]byte) bool {
	for i := 1; i < len(keys); i++ {
		if cmpEncodedKeyBytes(keys[i-1], keys[i]) >= 0 {
			return false
		}
	}
	return true
}
