package dealer

import "errors"

var (
	// ErrNilCurve is returned when a nil curve is provided
	ErrNilCurve = errors.New("curve cannot be nil")

	// ErrInvalidShare is returned when a share fails verification
	ErrInvalidShare = errors.New("invalid share")

	// ErrInvalidSecret is returned when the dealer secret is zero or out of range
	ErrInvalidSecret = errors.New("secret must be in [1, order)")

	// ErrInvalidEncoding is returned when a stored key share cannot be decoded
	ErrInvalidEncoding = errors.New("invalid key share encoding")
)
