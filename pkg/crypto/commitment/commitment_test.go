package commitment

import (
	"math/big"
	"testing"

	"github.com/Caqil/threshold-ecdsa/pkg/crypto/curve"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/rand"
)

func TestCommitToCurvePoint(t *testing.T) {
	c, _ := curve.NewCurve(curve.Secp256k1)
	p, _ := c.ScalarBaseMult(big.NewInt(99))
	q, _ := c.ScalarBaseMult(big.NewInt(100))
	ctx := []byte("session-1|party-2")

	hc, err := CommitToCurvePoint(rand.Reader, p, ctx)
	if err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}

	if !VerifyCommitmentToCurvePoint(hc.Commitment, p, hc.Decommitment, ctx) {
		t.Fatal("valid opening rejected")
	}
	if VerifyCommitmentToCurvePoint(hc.Commitment, q, hc.Decommitment, ctx) {
		t.Error("opening to a different point accepted")
	}
	if VerifyCommitmentToCurvePoint(hc.Commitment, p, hc.Decommitment, []byte("session-2|party-2")) {
		t.Error("opening under a different context accepted")
	}

	tampered := append([]byte(nil), hc.Decommitment...)
	tampered[0] ^= 1
	if VerifyCommitmentToCurvePoint(hc.Commitment, p, tampered, ctx) {
		t.Error("tampered decommitment accepted")
	}

	if _, err := CommitToCurvePoint(rand.Reader, nil, ctx); err != ErrNilValue {
		t.Errorf("nil point: got %v, want ErrNilValue", err)
	}
}
