package rand

import "errors"

var (
	ErrInvalidLength  = errors.New("rand: length must be positive")
	ErrNilMax         = errors.New("rand: nil upper bound")
	ErrInvalidMax     = errors.New("rand: upper bound must be positive")
	ErrInvalidBitSize = errors.New("rand: prime size below 2 bits")

	// ErrNoUnit means every draw shared a factor with the modulus, which
	// points at a broken reader or a modulus with small factors.
	ErrNoUnit = errors.New("rand: no unit found modulo n")
)
