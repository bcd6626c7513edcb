package security

import (
	"errors"
	"math/big"
)

var (
	ErrInvalidThreshold  = errors.New("security: threshold must satisfy 1 <= t < n")
	ErrInvalidPartyCount = errors.New("security: at least two parties required")
	ErrInvalidPartyIndex = errors.New("security: party index outside [1, n]")
	ErrInvalidRange      = errors.New("security: scalar outside [1, n)")
	ErrNilValue          = errors.New("security: nil value")
)

// ValidateThreshold checks a degree-t sharing among n parties. Signing
// takes t+1 of them, so t ranges over [1, n).
func ValidateThreshold(t, n int) error {
	switch {
	case n < 2:
		return ErrInvalidPartyCount
	case t < 1 || t >= n:
		return ErrInvalidThreshold
	}
	return nil
}

// ValidatePartyIndex checks a 1-based index among n parties.
func ValidatePartyIndex(index, n int) error {
	switch {
	case n < 2:
		return ErrInvalidPartyCount
	case index < 1 || index > n:
		return ErrInvalidPartyIndex
	}
	return nil
}

// ValidateScalarInRange checks 0 < value < max. Zero is rejected because
// a zero share or key makes the public point the identity.
func ValidateScalarInRange(value, max *big.Int) error {
	if value == nil || max == nil {
		return ErrNilValue
	}
	if value.Sign() <= 0 || value.Cmp(max) >= 0 {
		return ErrInvalidRange
	}
	return nil
}
