// Package checksum computes content digests used to identify clipboard
// content in logs without writing the content itself.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Short returns the first 12 hex characters of the digest of s.
func Short(s string) string {
	return Sum([]byte(s))[:12]
}
