package signing

import (
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/Caqil/threshold-ecdsa/internal/math"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/curve"
)

// Verify checks sig over digest e against pub:
// (e·s⁻¹·G + r·s⁻¹·pub).x mod n == r. Both low and high s are accepted.
func Verify(g *Group, pub *curve.Point, e *big.Int, sig *Signature) bool {
	if g == nil || pub == nil || pub.IsIdentity() || e == nil || sig == nil || sig.R == nil || sig.S == nil {
		return false
	}
	n := g.Order
	if sig.R.Sign() <= 0 || sig.R.Cmp(n) >= 0 || sig.S.Sign() <= 0 || sig.S.Cmp(n) >= 0 {
		return false
	}

	sInv := math.ModInverse(sig.S, n)
	if sInv == nil {
		return false
	}
	u1 := math.ModMul(math.Mod(e, n), sInv, n)
	u2 := math.ModMul(sig.R, sInv, n)

	var p1 *curve.Point
	if u1.Sign() == 0 {
		p1 = g.Curve.Identity()
	} else {
		var err error
		if p1, err = g.Curve.ScalarBaseMult(u1); err != nil {
			return false
		}
	}
	p2, err := g.Curve.ScalarMult(pub, u2)
	if err != nil {
		return false
	}
	sum, err := g.Curve.Add(p1, p2)
	if err != nil || sum.IsIdentity() {
		return false
	}

	return math.Mod(sum.X, n).Cmp(sig.R) == 0
}

// VerifyMessage hashes msg and verifies sig
func VerifyMessage(g *Group, pub *curve.Point, msg []byte, sig *Signature) bool {
	return Verify(g, pub, messageDigest(g, msg), sig)
}

// VerifyBTCEC verifies with btcec's ecdsa implementation, which enforces
// nothing about s beyond range. digest is the raw 32-byte hash.
func VerifyBTCEC(pub *curve.Point, digest []byte, sig *Signature) bool {
	pk, err := curve.ToBTCEC(pub)
	if err != nil {
		return false
	}
	der, err := sig.DER()
	if err != nil {
		return false
	}
	parsed, err := ecdsa.ParseDERSignature(der)
	if err != nil {
		return false
	}
	return parsed.Verify(digest, pk)
}
