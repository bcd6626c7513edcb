// Package dealer implements the trusted dealer that splits a signing key
// into Shamir shares with Feldman commitments. It stands in for key
// generation; signing only ever consumes the resulting KeyShare values.
package dealer

import (
	"io"
	"math/big"

	"github.com/pkg/errors"

	"github.com/Caqil/threshold-ecdsa/internal/math"
	"github.com/Caqil/threshold-ecdsa/internal/security"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/curve"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/rand"
)

// KeyShare represents a party's share of the group key
type KeyShare struct {
	// Index is this party's 1-based Shamir index
	Index int

	// Threshold is the polynomial degree; Threshold+1 parties sign
	Threshold int

	// Parties is the total number of parties
	Parties int

	// Share is this party's secret share f(Index)
	Share *big.Int

	// PublicKey is the group's public key f(0)*G
	PublicKey *curve.Point

	// VerificationShares maps every index j to f(j)*G
	VerificationShares map[int]*curve.Point

	// Curve is the elliptic curve being used
	Curve curve.Curve
}

// Dealing is the dealer's full output.
type Dealing struct {
	// Shares holds one KeyShare per party, Shares[i] has Index i+1
	Shares []*KeyShare

	// Commitments are C_j = a_j*G for the polynomial coefficients
	Commitments []*curve.Point

	// PublicKey is C_0
	PublicKey *curve.Point
}

// Deal shares secret among parties with a degree-threshold polynomial.
// A nil secret is replaced by a fresh random key.
func Deal(r io.Reader, c curve.Curve, threshold, parties int, secret *big.Int) (*Dealing, error) {
	if c == nil {
		return nil, ErrNilCurve
	}
	if err := security.ValidateThreshold(threshold, parties); err != nil {
		return nil, err
	}

	order := c.Order()
	if secret == nil {
		s, err := rand.Scalar(r, order)
		if err != nil {
			return nil, errors.Wrap(err, "sample secret")
		}
		defer security.SecureZeroBigInt(s)
		secret = s
	} else if err := security.ValidateScalarInRange(secret, order); err != nil {
		return nil, ErrInvalidSecret
	}

	shares, polynomial, err := math.Split(r, secret, threshold, parties, order)
	if err != nil {
		return nil, errors.Wrap(err, "split secret")
	}
	defer polynomial.Zero()

	commitments := make([]*curve.Point, polynomial.Degree()+1)
	err = polynomial.EachCoefficient(func(j int, a *big.Int) error {
		var err error
		commitments[j], err = c.ScalarBaseMult(a)
		return errors.Wrapf(err, "commit to coefficient %d", j)
	})
	if err != nil {
		return nil, err
	}

	verification := make(map[int]*curve.Point, parties)
	for _, s := range shares {
		verification[s.Index], err = c.ScalarBaseMult(s.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "verification share %d", s.Index)
		}
	}

	out := &Dealing{
		Shares:      make([]*KeyShare, parties),
		Commitments: commitments,
		PublicKey:   commitments[0],
	}
	for i, s := range shares {
		vs := make(map[int]*curve.Point, parties)
		for j, p := range verification {
			vs[j] = p.Clone()
		}
		out.Shares[i] = &KeyShare{
			Index:              s.Index,
			Threshold:          threshold,
			Parties:            parties,
			Share:              s.Value,
			PublicKey:          commitments[0].Clone(),
			VerificationShares: vs,
			Curve:              c,
		}
	}

	return out, nil
}

// VerifyShare checks f(i)*G = Σ_j (i^j)*C_j for the share at index i.
func VerifyShare(c curve.Curve, share *math.Share, commitments []*curve.Point) bool {
	if c == nil || share == nil || share.Value == nil || len(commitments) == 0 {
		return false
	}

	order := c.Order()
	expected := commitments[0].Clone()
	index := big.NewInt(int64(share.Index))
	indexPower := new(big.Int).Set(index)

	for j := 1; j < len(commitments); j++ {
		term, err := c.ScalarMult(commitments[j], indexPower)
		if err != nil {
			return false
		}
		expected, err = c.Add(expected, term)
		if err != nil {
			return false
		}
		indexPower = math.ModMul(indexPower, index, order)
	}

	actual, err := c.ScalarBaseMult(share.Value)
	if err != nil {
		return false
	}
	return actual.IsEqual(expected)
}

// Validate checks the share against its own verification point.
func (ks *KeyShare) Validate() error {
	if ks == nil || ks.Curve == nil || ks.Share == nil || ks.PublicKey == nil {
		return ErrInvalidShare
	}
	if err := security.ValidateThreshold(ks.Threshold, ks.Parties); err != nil {
		return err
	}
	if err := security.ValidatePartyIndex(ks.Index, ks.Parties); err != nil {
		return err
	}
	if err := security.ValidateScalarInRange(ks.Share, ks.Curve.Order()); err != nil {
		return ErrInvalidShare
	}

	if vs, ok := ks.VerificationShares[ks.Index]; ok {
		actual, err := ks.Curve.ScalarBaseMult(ks.Share)
		if err != nil || !actual.IsEqual(vs) {
			return ErrInvalidShare
		}
	}
	return nil
}

// Destroy zeroes the secret share.
func (ks *KeyShare) Destroy() {
	if ks != nil {
		security.SecureZeroBigInt(ks.Share)
	}
}
