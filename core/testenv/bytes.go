package testenv

import (
	"encoding/binary"
	"encoding/hex"
	"math/rand/v2"
	"strings"
	"unicode"

	"github.com/stretchr/testify/assert"
)

// RandBytes fills p with non-crypto-safe random bytes.
func RandBytes(p []byte) {
	var seed [32]byte
	binary.LittleEndian.PutUint64(seed[:], rand.Uint64())
	rand.NewChaCha8(seed).Read(p)
}

// BytesFromHex converts a hexadecimal frame dump to a byte slice.
// Whitespace and the separators ':', '-', '.' are ignored, so MAC addresses and
// multi-line dumps can be pasted as is. It panics on any other character.
func BytesFromHex(input string) []byte {
	s := strings.Map(func(ch rune) rune {
		if unicode.IsSpace(ch) || strings.ContainsRune(":-.", ch) {
			return -1
		}
		return ch
	}, input)
	decoded, e := hex.DecodeString(s)
	if e != nil {
		panic(e)
	}
	return decoded
}

// BytesEqual asserts that actual bytes equals expected bytes, treating nil and empty as equal.
func BytesEqual(a *assert.Assertions, expected, actual []byte, msgAndArgs ...any) bool {
	if len(expected) == 0 && len(actual) == 0 {
		return true
	}
	return a.Equal(expected, actual, msgAndArgs...)
}
