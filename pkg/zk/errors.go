package zk

import "errors"

var (
	// ErrNilSecret is returned when a nil secret is provided
	ErrNilSecret = errors.New("secret cannot be nil")

	// ErrNilPublicPoint is returned when a nil public point is provided
	ErrNilPublicPoint = errors.New("public point cannot be nil")

	// ErrNilCurve is returned when a nil curve is provided
	ErrNilCurve = errors.New("curve cannot be nil")

	// ErrInvalidWitness is returned when the witness doesn't satisfy the relation
	ErrInvalidWitness = errors.New("invalid witness: does not satisfy the relation")

	// ErrInvalidProof is returned when a proof cannot be decoded
	ErrInvalidProof = errors.New("invalid proof")
)
