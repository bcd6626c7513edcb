package signing

import (
	"math/big"
	"sort"

	"github.com/pkg/errors"

	"github.com/Caqil/threshold-ecdsa/internal/math"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/curve"
)

// Group holds the immutable curve parameters shared by every session
type Group struct {
	Curve     curve.Curve
	Order     *big.Int
	Generator *curve.Point

	halfOrder *big.Int
}

// NewGroup derives group parameters from c
func NewGroup(c curve.Curve) (*Group, error) {
	if c == nil {
		return nil, errors.Wrap(ErrInvalidKeyShare, "nil curve")
	}
	order := c.Order()
	return &Group{
		Curve:     c,
		Order:     order,
		Generator: c.Generator(),
		halfOrder: new(big.Int).Rsh(order, 1),
	}, nil
}

// QualifiedSet is the sorted index set of one session
type QualifiedSet []int

// NewQualifiedSet validates signers against a (threshold, parties) sharing.
// The set must hold exactly threshold+1 distinct indices in [1, parties].
func NewQualifiedSet(signers []int, threshold, parties int) (QualifiedSet, error) {
	if len(signers) != threshold+1 {
		return nil, errors.Wrapf(ErrInvalidShareSet, "got %d signers, need %d", len(signers), threshold+1)
	}

	set := make(QualifiedSet, len(signers))
	copy(set, signers)
	sort.Ints(set)

	for i, idx := range set {
		if idx < 1 || idx > parties {
			return nil, errors.Wrapf(ErrInvalidShareSet, "unknown signer %d", idx)
		}
		if i > 0 && set[i-1] == idx {
			return nil, errors.Wrapf(ErrInvalidShareSet, "duplicate signer %d", idx)
		}
	}
	return set, nil
}

// Contains reports whether idx is a member
func (s QualifiedSet) Contains(idx int) bool {
	i := sort.SearchInts(s, idx)
	return i < len(s) && s[i] == idx
}

// Peers returns every member except self
func (s QualifiedSet) Peers(self int) []int {
	peers := make([]int, 0, len(s)-1)
	for _, idx := range s {
		if idx != self {
			peers = append(peers, idx)
		}
	}
	return peers
}

// Lagrange returns lambda_i for this set
func (s QualifiedSet) Lagrange(i int, order *big.Int) (*big.Int, error) {
	lambda, err := math.LagrangeCoefficient(s, i, order)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidShareSet, err.Error())
	}
	return lambda, nil
}
