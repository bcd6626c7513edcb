// Package math provides the field arithmetic behind secret sharing and
// share interpolation over Z_q, q the group order.
package math

import (
	"io"
	"math/big"

	"github.com/Caqil/threshold-ecdsa/pkg/crypto/rand"
)

// Polynomial is f(x) = a_0 + a_1·x + ... + a_t·x^t over Z_q. The
// coefficients are secret whenever a_0 is; call Zero when done.
type Polynomial struct {
	coeffs []*big.Int
	q      *big.Int
}

// RandomPolynomial samples a degree-t polynomial with f(0) = constant.
// a_1..a_t are drawn from [1, q), so the degree is exactly t.
func RandomPolynomial(r io.Reader, t int, constant, q *big.Int) (*Polynomial, error) {
	if t < 0 {
		return nil, ErrInvalidDegree
	}
	if q == nil || q.Sign() <= 0 {
		return nil, ErrInvalidModulus
	}
	if constant == nil {
		return nil, ErrNilSecret
	}

	p := &Polynomial{coeffs: make([]*big.Int, t+1), q: q}
	p.coeffs[0] = Mod(constant, q)
	for j := 1; j <= t; j++ {
		a, err := rand.Scalar(r, q)
		if err != nil {
			p.Zero()
			return nil, err
		}
		p.coeffs[j] = a
	}
	return p, nil
}

func (p *Polynomial) Degree() int { return len(p.coeffs) - 1 }

// EachCoefficient calls fn with a_0..a_t in order and stops at the first
// error. fn must not retain the value.
func (p *Polynomial) EachCoefficient(fn func(j int, a *big.Int) error) error {
	for j, a := range p.coeffs {
		if err := fn(j, a); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate returns f(x) mod q by Horner's rule.
func (p *Polynomial) Evaluate(x *big.Int) *big.Int {
	xq := Mod(x, p.q)
	acc := new(big.Int)
	for j := len(p.coeffs) - 1; j >= 0; j-- {
		acc.Mul(acc, xq)
		acc.Add(acc, p.coeffs[j])
		acc.Mod(acc, p.q)
	}
	return acc
}

// Zero overwrites every coefficient.
func (p *Polynomial) Zero() {
	for _, a := range p.coeffs {
		if a != nil {
			a.SetInt64(0)
		}
	}
}
