package curve

import (
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
)

var secp256k1Group = newSecp256k1()

// secp256k1 runs group operations in Jacobian coordinates through btcec
// and converts to affine big.Int points at the boundary.
type secp256k1 struct {
	p, n   *big.Int
	gx, gy *big.Int
}

func newSecp256k1() *secp256k1 {
	params := btcec.S256().Params()
	return &secp256k1{p: params.P, n: params.N, gx: params.Gx, gy: params.Gy}
}

func (c *secp256k1) scalar(k *big.Int) (*btcec.ModNScalar, error) {
	if k == nil || k.Sign() < 0 {
		return nil, ErrInvalidScalar
	}
	reduced := new(big.Int).Mod(k, c.n)
	if reduced.Sign() == 0 {
		return nil, ErrScalarZero
	}
	buf := PaddedBytes(reduced, 32)
	var s btcec.ModNScalar
	s.SetByteSlice(buf)
	for i := range buf {
		buf[i] = 0
	}
	reduced.SetInt64(0)
	return &s, nil
}

func (c *secp256k1) jacobian(p *Point) btcec.JacobianPoint {
	var j btcec.JacobianPoint
	if p.IsIdentity() {
		return j
	}
	j.X.SetByteSlice(PaddedBytes(p.X, 32))
	j.Y.SetByteSlice(PaddedBytes(p.Y, 32))
	j.Z.SetInt(1)
	return j
}

func (c *secp256k1) affine(j *btcec.JacobianPoint) *Point {
	if j.Z.IsZero() || (j.X.IsZero() && j.Y.IsZero()) {
		return c.Identity()
	}
	j.ToAffine()
	x, y := j.X.Bytes(), j.Y.Bytes()
	return &Point{X: new(big.Int).SetBytes(x[:]), Y: new(big.Int).SetBytes(y[:]), curve: c}
}

func (c *secp256k1) ScalarBaseMult(k *big.Int) (*Point, error) {
	s, err := c.scalar(k)
	if err != nil {
		return nil, err
	}
	defer s.Zero()

	var out btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(s, &out)
	return c.affine(&out), nil
}

func (c *secp256k1) ScalarMult(p *Point, k *big.Int) (*Point, error) {
	if p.IsIdentity() || !c.IsOnCurve(p) {
		return nil, ErrInvalidPoint
	}
	s, err := c.scalar(k)
	if err != nil {
		return nil, err
	}
	defer s.Zero()

	in := c.jacobian(p)
	var out btcec.JacobianPoint
	btcec.ScalarMultNonConst(s, &in, &out)
	return c.affine(&out), nil
}

// Add accepts the identity on either side and returns it when p2 = -p1.
func (c *secp256k1) Add(p1, p2 *Point) (*Point, error) {
	if p1 == nil || p2 == nil {
		return nil, ErrInvalidPoint
	}
	if (!p1.IsIdentity() && !c.IsOnCurve(p1)) || (!p2.IsIdentity() && !c.IsOnCurve(p2)) {
		return nil, ErrInvalidPoint
	}

	a, b := c.jacobian(p1), c.jacobian(p2)
	var out btcec.JacobianPoint
	btcec.AddNonConst(&a, &b, &out)
	return c.affine(&out), nil
}

func (c *secp256k1) Negate(p *Point) (*Point, error) {
	if p.IsIdentity() {
		return c.Identity(), nil
	}
	if !c.IsOnCurve(p) {
		return nil, ErrInvalidPoint
	}
	return &Point{X: new(big.Int).Set(p.X), Y: new(big.Int).Sub(c.p, p.Y), curve: c}, nil
}

func (c *secp256k1) IsOnCurve(p *Point) bool {
	if p.IsIdentity() {
		return false
	}
	return btcec.S256().IsOnCurve(p.X, p.Y)
}

func (c *secp256k1) Marshal(p *Point) []byte {
	if p.IsIdentity() {
		return nil
	}
	return c.publicKey(p).SerializeCompressed()
}

func (c *secp256k1) Unmarshal(data []byte) (*Point, error) {
	if len(data) != 33 && len(data) != 65 {
		return nil, ErrInvalidEncoding
	}
	pk, err := btcec.ParsePubKey(data)
	if err != nil {
		return nil, ErrInvalidEncoding
	}
	return &Point{X: pk.X(), Y: pk.Y(), curve: c}, nil
}

func (c *secp256k1) publicKey(p *Point) *btcec.PublicKey {
	j := c.jacobian(p)
	return btcec.NewPublicKey(&j.X, &j.Y)
}

func (c *secp256k1) Identity() *Point {
	return &Point{X: new(big.Int), Y: new(big.Int), curve: c}
}

func (c *secp256k1) Generator() *Point {
	return &Point{X: new(big.Int).Set(c.gx), Y: new(big.Int).Set(c.gy), curve: c}
}

func (c *secp256k1) Order() *big.Int { return new(big.Int).Set(c.n) }

func (c *secp256k1) Name() string { return "secp256k1" }

// ToBTCEC converts a secp256k1 point for use with btcec's ecdsa package.
func ToBTCEC(p *Point) (*btcec.PublicKey, error) {
	if !secp256k1Group.IsOnCurve(p) {
		return nil, ErrInvalidPoint
	}
	return secp256k1Group.publicKey(p), nil
}

// PaddedBytes returns value big-endian, left-padded with zeros to length.
func PaddedBytes(value *big.Int, length int) []byte {
	b := value.Bytes()
	if len(b) >= length {
		return b
	}
	out := make([]byte, length)
	copy(out[length-len(b):], b)
	return out
}
