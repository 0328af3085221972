package frame

import "hash/crc32"

var crcTable = crc32.MakeTable(crc32.IEEE)

// ComputeCRC computes CRC-32 IEEE of the given bytes.
func ComputeCRC(data []byte) uint32 {
	return crc32.Checksum(data, crcTable)
}

// VerifyCRC reports whether expected matches the CRC-32 of data.
func VerifyCRC(data []byte, expected uint32) bool {
	return ComputeCRC(data) == expected
}
