package curve

import "errors"

var (
	ErrUnsupportedCurve = errors.New("curve: unsupported group")
	ErrInvalidPoint     = errors.New("curve: point is not on the curve")
	ErrInvalidScalar    = errors.New("curve: negative or missing scalar")
	ErrInvalidEncoding  = errors.New("curve: malformed point encoding")

	// ErrScalarZero is returned when a scalar reduces to zero modulo n,
	// which would make the product the identity.
	ErrScalarZero = errors.New("curve: scalar is zero modulo the order")
)
