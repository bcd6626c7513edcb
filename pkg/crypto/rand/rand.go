// Package rand samples scalars, units and primes from an explicit reader.
// Every sampler takes its source as an argument so protocol runs can be
// replayed with NewDeterministicReader in tests.
package rand

import (
	"crypto/rand"
	"io"
	"math/big"
)

// Reader is the process-wide secure source used when callers supply none.
var Reader io.Reader = rand.Reader

// maxUnitAttempts bounds rejection sampling in Unit. For a Paillier modulus
// a non-unit is hit with probability about 2^-1023 per draw.
const maxUnitAttempts = 64

var one = big.NewInt(1)

// Bytes reads n bytes from r.
func Bytes(r io.Reader, n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrInvalidLength
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Scalar samples uniformly from [1, max) using r. Zero is redrawn.
func Scalar(r io.Reader, max *big.Int) (*big.Int, error) {
	if err := checkMax(max); err != nil {
		return nil, err
	}
	for {
		v, err := rand.Int(r, max)
		if err != nil {
			return nil, err
		}
		if v.Sign() != 0 {
			return v, nil
		}
	}
}

// Int samples uniformly from [0, max) using r.
func Int(r io.Reader, max *big.Int) (*big.Int, error) {
	if err := checkMax(max); err != nil {
		return nil, err
	}
	return rand.Int(r, max)
}

// Unit samples uniformly from Z*_n, the elements of [1, n) coprime to n.
func Unit(r io.Reader, n *big.Int) (*big.Int, error) {
	if err := checkMax(n); err != nil {
		return nil, err
	}

	gcd := new(big.Int)
	for i := 0; i < maxUnitAttempts; i++ {
		v, err := Scalar(r, n)
		if err != nil {
			return nil, err
		}
		if gcd.GCD(nil, nil, v, n).Cmp(one) == 0 {
			return v, nil
		}
	}
	return nil, ErrNoUnit
}

// Prime returns a prime of exactly bits bits read from r.
func Prime(r io.Reader, bits int) (*big.Int, error) {
	if bits < 2 {
		return nil, ErrInvalidBitSize
	}
	return rand.Prime(r, bits)
}

func checkMax(max *big.Int) error {
	if max == nil {
		return ErrNilMax
	}
	if max.Sign() <= 0 {
		return ErrInvalidMax
	}
	return nil
}
