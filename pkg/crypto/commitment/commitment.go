// Package commitment provides hash commitments to curve points, used to
// bind each signer to its nonce share before any share is revealed.
package commitment

import (
	"io"

	"github.com/Caqil/threshold-ecdsa/internal/security"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/curve"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/hash"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/rand"
)

// NonceSize is the length of the commitment randomness in bytes
const NonceSize = 32

// HashCommitment is a BLAKE3 commitment C = H(context || value || nonce).
type HashCommitment struct {
	// Commitment is the published digest
	Commitment []byte

	// Decommitment is the nonce revealed together with the value
	Decommitment []byte
}

// CommitToCurvePoint commits to point under context. The decommitment must
// stay private until the point is revealed.
func CommitToCurvePoint(r io.Reader, point *curve.Point, context []byte) (*HashCommitment, error) {
	if point == nil || point.IsIdentity() {
		return nil, ErrNilValue
	}

	nonce, err := rand.Bytes(r, NonceSize)
	if err != nil {
		return nil, err
	}

	return &HashCommitment{
		Commitment:   computeCommitment(point.Bytes(), nonce, context),
		Decommitment: nonce,
	}, nil
}

// VerifyCommitmentToCurvePoint checks that (point, decommit) opens commitment.
func VerifyCommitmentToCurvePoint(commitment []byte, point *curve.Point, decommit []byte, context []byte) bool {
	if point == nil || point.IsIdentity() || len(commitment) == 0 || len(decommit) != NonceSize {
		return false
	}

	expected := computeCommitment(point.Bytes(), decommit, context)
	return security.ConstantTimeCompare(commitment, expected)
}

func computeCommitment(value, nonce, context []byte) []byte {
	return hash.NewTranscript("threshold-ecdsa/commitment").
		WriteBytes(context).
		WriteBytes(value).
		WriteBytes(nonce).
		Sum()
}
