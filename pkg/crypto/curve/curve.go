// Package curve is the prime-order group the signers work in. secp256k1,
// backed by btcec, is the only group provided.
package curve

import (
	"math/big"
	"strings"
)

// CurveType selects a group implementation
type CurveType int

const (
	// Secp256k1 is the Bitcoin curve y² = x³ + 7
	Secp256k1 CurveType = iota
)

// Point is an affine point. The identity has nil or (0, 0) coordinates;
// secp256k1 has no affine point with x = y = 0.
type Point struct {
	X     *big.Int
	Y     *big.Int
	curve Curve
}

// Curve is the group interface used by dealing, proofs and signing.
// Scalars are reduced modulo the group order before use.
type Curve interface {
	ScalarBaseMult(k *big.Int) (*Point, error)
	ScalarMult(p *Point, k *big.Int) (*Point, error)
	Add(p1, p2 *Point) (*Point, error)
	Negate(p *Point) (*Point, error)
	IsOnCurve(p *Point) bool

	// Marshal returns the 33-byte compressed form, nil for the identity.
	Marshal(p *Point) []byte
	Unmarshal(data []byte) (*Point, error)

	Identity() *Point
	Generator() *Point
	// Order returns a copy of the group order n.
	Order() *big.Int
	Name() string
}

// NewCurve returns the group for curveType
func NewCurve(curveType CurveType) (Curve, error) {
	if curveType != Secp256k1 {
		return nil, ErrUnsupportedCurve
	}
	return secp256k1Group, nil
}

// FromName resolves a group by the name stored alongside key material.
func FromName(name string) (Curve, error) {
	switch strings.ToLower(name) {
	case "secp256k1", "k256":
		return secp256k1Group, nil
	}
	return nil, ErrUnsupportedCurve
}

func (p *Point) IsEqual(other *Point) bool {
	if p.IsIdentity() || other.IsIdentity() {
		return p.IsIdentity() && other.IsIdentity()
	}
	return p.X.Cmp(other.X) == 0 && p.Y.Cmp(other.Y) == 0
}

func (p *Point) IsIdentity() bool {
	return p == nil || p.X == nil || p.Y == nil || (p.X.Sign() == 0 && p.Y.Sign() == 0)
}

func (p *Point) Clone() *Point {
	if p == nil {
		return nil
	}
	q := &Point{X: new(big.Int), Y: new(big.Int), curve: p.curve}
	if !p.IsIdentity() {
		q.X.Set(p.X)
		q.Y.Set(p.Y)
	}
	return q
}

// Bytes is the compressed encoding. Points built outside this package
// are encoded as secp256k1 points.
func (p *Point) Bytes() []byte {
	c := p.curve
	if c == nil {
		c = secp256k1Group
	}
	return c.Marshal(p)
}
