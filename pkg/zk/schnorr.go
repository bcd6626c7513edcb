// Package zk implements the Schnorr proof of knowledge each signer attaches
// to its revealed nonce point.
package zk

import (
	"io"
	"math/big"

	"github.com/Caqil/threshold-ecdsa/internal/security"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/curve"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/hash"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/rand"
)

const (
	pointSize  = 33
	scalarSize = 32
)

// SchnorrProof represents a Schnorr proof of knowledge of discrete logarithm
// Proves knowledge of x such that Y = x*G without revealing x
type SchnorrProof struct {
	// Commitment is the prover's commitment R = k*G
	Commitment *curve.Point

	// Response is z = k + e*x mod n
	Response *big.Int
}

// ProveSchnorr proves knowledge of secret with publicPoint = secret*G.
// The challenge e = H(G, Y, R, context) binds the proof to context.
func ProveSchnorr(r io.Reader, secret *big.Int, publicPoint *curve.Point, c curve.Curve, context []byte) (*SchnorrProof, error) {
	if secret == nil {
		return nil, ErrNilSecret
	}
	if publicPoint == nil {
		return nil, ErrNilPublicPoint
	}
	if c == nil {
		return nil, ErrNilCurve
	}

	expectedPoint, err := c.ScalarBaseMult(secret)
	if err != nil {
		return nil, err
	}
	if !expectedPoint.IsEqual(publicPoint) {
		return nil, ErrInvalidWitness
	}

	order := c.Order()
	k, err := rand.Scalar(r, order)
	if err != nil {
		return nil, err
	}
	defer security.SecureZeroBigInt(k)

	commitment, err := c.ScalarBaseMult(k)
	if err != nil {
		return nil, err
	}

	challenge := computeSchnorrChallenge(c, publicPoint, commitment, context)

	// z = k + e*x mod n
	response := new(big.Int).Mul(challenge, secret)
	response.Add(response, k)
	response.Mod(response, order)

	return &SchnorrProof{
		Commitment: commitment,
		Response:   response,
	}, nil
}

// Verify checks z*G = R + e*Y
func (sp *SchnorrProof) Verify(c curve.Curve, publicPoint *curve.Point, context []byte) bool {
	if sp == nil || sp.Commitment == nil || sp.Response == nil || publicPoint == nil {
		return false
	}
	if !c.IsOnCurve(sp.Commitment) || !c.IsOnCurve(publicPoint) {
		return false
	}

	challenge := computeSchnorrChallenge(c, publicPoint, sp.Commitment, context)

	zG, err := c.ScalarBaseMult(sp.Response)
	if err != nil {
		return false
	}

	eY, err := c.ScalarMult(publicPoint, challenge)
	if err != nil {
		return false
	}

	rightSide, err := c.Add(sp.Commitment, eY)
	if err != nil {
		return false
	}

	return zG.IsEqual(rightSide)
}

// Bytes encodes the proof as R (33 bytes compressed) || z (32 bytes).
func (sp *SchnorrProof) Bytes() []byte {
	out := make([]byte, 0, pointSize+scalarSize)
	out = append(out, sp.Commitment.Bytes()...)
	return append(out, curve.PaddedBytes(sp.Response, scalarSize)...)
}

// SchnorrProofFromBytes decodes a proof produced by Bytes.
func SchnorrProofFromBytes(c curve.Curve, data []byte) (*SchnorrProof, error) {
	if len(data) != pointSize+scalarSize {
		return nil, ErrInvalidProof
	}
	commitment, err := c.Unmarshal(data[:pointSize])
	if err != nil {
		return nil, ErrInvalidProof
	}
	response := new(big.Int).SetBytes(data[pointSize:])
	if response.Cmp(c.Order()) >= 0 {
		return nil, ErrInvalidProof
	}
	return &SchnorrProof{Commitment: commitment, Response: response}, nil
}

// computeSchnorrChallenge computes e = H(G || Y || R || context) mod n
func computeSchnorrChallenge(c curve.Curve, publicPoint, commitment *curve.Point, context []byte) *big.Int {
	return hash.NewTranscript("threshold-ecdsa/schnorr").
		WritePoint(c.Generator()).
		WritePoint(publicPoint).
		WritePoint(commitment).
		WriteBytes(context).
		Challenge(c.Order())
}
