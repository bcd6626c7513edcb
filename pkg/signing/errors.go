package signing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidShareSet is returned when the qualified set is not exactly
	// threshold+1 distinct known indices including the local signer
	ErrInvalidShareSet = errors.New("invalid qualified signer set")

	// ErrDegenerateNonce is returned when r, s or delta is zero. The session
	// must be restarted with fresh nonces
	ErrDegenerateNonce = errors.New("degenerate nonce")

	// ErrProtocolTimeout is returned when a co-signer misses the session deadline
	ErrProtocolTimeout = errors.New("signing protocol timeout")

	// ErrConsistencyViolation is returned when a co-signer's data fails a check
	// or the combined signature does not verify
	ErrConsistencyViolation = errors.New("consistency violation")

	// ErrHomomorphicEngineFailure is returned when Paillier key generation,
	// encryption or decryption fails
	ErrHomomorphicEngineFailure = errors.New("homomorphic engine failure")

	// ErrSessionConsumed is returned when a session is used a second time
	ErrSessionConsumed = errors.New("signing session already used")

	// ErrSessionMismatch marks a message that belongs to another session
	ErrSessionMismatch = errors.New("message for another session")

	// ErrPeerAborted is returned when a co-signer announced an abort
	ErrPeerAborted = errors.New("co-signer aborted the session")

	// ErrInvalidKeyShare is returned when the key share is invalid
	ErrInvalidKeyShare = errors.New("invalid key share")

	// ErrInvalidConfig is returned when the configuration is invalid
	ErrInvalidConfig = errors.New("invalid signing configuration")

	// ErrInvalidSessionID is returned when the session ID is empty or too long
	ErrInvalidSessionID = errors.New("invalid session ID")

	// ErrInvalidSignature is returned when signature verification fails
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInvalidEncoding is returned when a signature cannot be decoded
	ErrInvalidEncoding = errors.New("invalid signature encoding")

	// ErrInvalidMessage is returned when a protocol message cannot be decoded
	ErrInvalidMessage = errors.New("invalid protocol message")
)

// PartyError attributes a session failure to a co-signer.
type PartyError struct {
	Party int
	Err   error
}

func (e *PartyError) Error() string {
	return fmt.Sprintf("party %d: %v", e.Party, e.Err)
}

func (e *PartyError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err may be retried with a brand-new session.
// Only timeouts qualify; every other failure points at a faulty party or a bug.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrProtocolTimeout)
}

// Culprit returns the co-signer blamed for err, if any.
func Culprit(err error) (int, bool) {
	var pe *PartyError
	if errors.As(err, &pe) {
		return pe.Party, true
	}
	return 0, false
}

func blame(party int, kind error, format string, args ...interface{}) error {
	return &PartyError{Party: party, Err: fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))}
}
