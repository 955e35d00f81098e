package scan

import (
	"bytes"
)

// patternPrefixBytes is the number of leading bytes of every block that
// carry the block index.
const patternPrefixBytes = 8

// FillBlock stores the block index in the first eight bytes of buf, each
// byte of the little-endian index XOR-ed with the pattern. The rest of
// buf is left untouched; callers pre-fill it with the pattern.
//
// Because the content of every block depends on its address, devices
// that silently map several addresses onto the same storage (fake
// capacity USB sticks) return mismatching data when read back.
func FillBlock(buf []byte, pattern byte, blockIndex uint64) {
	for i := 0; i < patternPrefixBytes && i < len(buf); i++ {
		buf[i] = pattern ^ byte(blockIndex>>(8*i))
	}
}

// ExpectedContent returns the content that is written to, and expected
// to be read back from, a block of a given size.
func ExpectedContent(pattern byte, blockIndex uint64, sizeBytes int) []byte {
	buf := bytes.Repeat([]byte{pattern}, sizeBytes)
	FillBlock(buf, pattern, blockIndex)
	return buf
}

// firstMismatch returns the offset of the first byte at which got and
// want differ, or -1 if they are equal. Both slices must have the same
// length.
func firstMismatch(got, want []byte) int {
	if bytes.Equal(got, want) {
		return -1
	}
	for i := range got {
		if got[i] != want[i] {
			return i
		}
	}
	return -1
}
