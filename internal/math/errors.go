package math

import "errors"

var (
	ErrInvalidModulus     = errors.New("math: modulus must be positive")
	ErrInvalidDegree      = errors.New("math: negative polynomial degree")
	ErrNilSecret          = errors.New("math: nil secret")
	ErrInsufficientShares = errors.New("math: fewer than threshold+1 shares")
	ErrNilShare           = errors.New("math: nil share")

	// Index set errors from Lagrange interpolation
	ErrEmptyIndexSet  = errors.New("math: empty index set")
	ErrDuplicateIndex = errors.New("math: duplicate index in set")
	ErrIndexNotInSet  = errors.New("math: index is not a member of the set")
	ErrInvalidIndex   = errors.New("math: index is zero modulo the order")
)
