// Package security holds the hygiene helpers shared by every package that
// touches key material: wiping, constant-time comparison and parameter
// checks.
package security

import (
	"crypto/subtle"
	"math/big"
	"runtime"
)

// SecureZero wipes data in place.
func SecureZero(data []byte) {
	for i := range data {
		data[i] = 0
	}
	runtime.KeepAlive(data)
}

// SecureZeroBigInt overwrites the limbs backing b and sets it to zero.
// Copies made earlier by big.Int arithmetic are out of reach.
func SecureZeroBigInt(b *big.Int) {
	if b == nil {
		return
	}
	words := b.Bits()
	for i := range words {
		words[i] = 0
	}
	b.SetInt64(0)
	runtime.KeepAlive(words)
}

// SecureZeroBigInts zeroes every non-nil value.
func SecureZeroBigInts(values ...*big.Int) {
	for _, v := range values {
		SecureZeroBigInt(v)
	}
}

// ConstantTimeCompare reports whether a and b are equal without an early
// exit on the first differing byte. Lengths are not hidden.
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
