package paillier

import "errors"

var (
	// ErrKeySizeTooSmall is returned when the requested modulus is below MinBits
	ErrKeySizeTooSmall = errors.New("paillier: modulus size too small")

	// ErrInvalidModulus is returned for an even or undersized public modulus
	ErrInvalidModulus = errors.New("paillier: invalid public modulus")

	// ErrInvalidCiphertext is returned for ciphertexts outside Z*_{N²}
	ErrInvalidCiphertext = errors.New("paillier: invalid ciphertext")

	// ErrMessageOutOfRange is returned when a plaintext is not in [0, N)
	ErrMessageOutOfRange = errors.New("paillier: plaintext out of range")

	// ErrKeyDestroyed is returned when a zeroed secret key is used
	ErrKeyDestroyed = errors.New("paillier: secret key destroyed")

	// ErrKeyGeneration is returned when no suitable primes were found
	ErrKeyGeneration = errors.New("paillier: key generation failed")
)
