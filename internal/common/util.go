package common

import "crypto/rand"

// GenerateRandByteArray returns size bytes from crypto/rand.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	// crypto/rand.Read never fails on supported platforms.
	_, _ = rand.Read(b)
	return b
}

// WipeByteArray overwrites b with zeros. Used for passwords and key
// material once they are no longer needed. Nil-safe.
func WipeByteArray(b []byte) {
	clear(b)
}
