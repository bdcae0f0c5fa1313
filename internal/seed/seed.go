// Package seed generates per-job random seeds for external inference tools.
package seed

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"io"
	mathrand "math/rand"
)

// New returns a fresh 32-bit seed drawn from the operating system's
// cryptographic random source. If that source is unavailable it falls back
// to math/rand/v2, which still covers the full 32-bit range but is not
// cryptographically sourced; fallback seeds are only suitable for seeding
// tool runs, never for anything requiring cryptographic randomness.
func New() uint32 {
	return fromReader(cryptorand.Reader)
}

func fromReader(r io.Reader) uint32 {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return mathrand.Uint32()
	}
	return binary.BigEndian.Uint32(b[:])
}
