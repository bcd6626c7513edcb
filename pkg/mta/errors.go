package mta

import "errors"

var (
	// ErrModulusTooSmall is returned when N cannot hold a·b + β' without wrapping
	ErrModulusTooSmall = errors.New("mta: paillier modulus too small for the group order")

	// ErrInvalidRequest is returned for a malformed initiator message
	ErrInvalidRequest = errors.New("mta: invalid request")

	// ErrInvalidResponse is returned for a malformed responder message
	ErrInvalidResponse = errors.New("mta: invalid response")

	// ErrScalarOutOfRange is returned when an input is not in [0, order)
	ErrScalarOutOfRange = errors.New("mta: scalar out of range")

	// ErrFinished is returned when an initiator is used after Finish or Abort
	ErrFinished = errors.New("mta: initiator already finished")
)
