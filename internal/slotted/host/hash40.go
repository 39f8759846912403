package host

import (
	"fmt"
	"hash/crc32"
	"strings"
)

// Hash40 is a 40-bit engine name hash: the CRC-32 of the lowercased name in
// the low 32 bits and the name length in the next 8.
type Hash40 uint64

// Hash computes the Hash40 of name.
func Hash(name string) Hash40 {
	lower := strings.ToLower(name)
	sum := crc32.ChecksumIEEE([]byte(lower))
	return Hash40(uint64(len(lower)&0xff)<<32 | uint64(sum))
}

// String formats the hash the way engine dumps print it.
func (h Hash40) String() string {
	return fmt.Sprintf("0x%010x", uint64(h))
}
