package math

import (
	"io"
	"math/big"
	"sort"

	"github.com/Caqil/threshold-ecdsa/internal/security"
)

// Share is the point (Index, f(Index)) of a sharing polynomial.
type Share struct {
	Index int
	Value *big.Int
}

// Split shares secret among parties with a degree-t polynomial: any t+1
// shares determine it, t reveal nothing. Indices run 1..parties. The
// polynomial is returned so the caller can publish commitments to its
// coefficients; the caller zeroes it afterwards.
func Split(r io.Reader, secret *big.Int, t, parties int, q *big.Int) ([]*Share, *Polynomial, error) {
	if err := security.ValidateThreshold(t, parties); err != nil {
		return nil, nil, err
	}
	f, err := RandomPolynomial(r, t, secret, q)
	if err != nil {
		return nil, nil, err
	}

	shares := make([]*Share, parties)
	for i := range shares {
		x := big.NewInt(int64(i + 1))
		shares[i] = &Share{Index: i + 1, Value: f.Evaluate(x)}
	}
	return shares, f, nil
}

// Reconstruct interpolates f(0) = Σ λ_i(S)·share_i from at least t+1
// shares. Signing never calls it; the key only exists reassembled in the
// dealer and in tests.
func Reconstruct(shares []*Share, t int, q *big.Int) (*big.Int, error) {
	if len(shares) < t+1 {
		return nil, ErrInsufficientShares
	}

	set := make([]int, len(shares))
	for i, s := range shares {
		if s == nil || s.Value == nil {
			return nil, ErrNilShare
		}
		set[i] = s.Index
	}
	sort.Ints(set)

	lambdas, err := LagrangeCoefficients(set, q)
	if err != nil {
		return nil, err
	}

	secret := new(big.Int)
	for _, s := range shares {
		secret = ModAdd(secret, ModMul(lambdas[s.Index], s.Value, q), q)
	}
	return secret, nil
}
