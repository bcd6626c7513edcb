package math

import "math/big"

// Mod returns x mod m in [0, m) for either sign of x. Every reduction of a
// protocol value goes through this helper so negated betas and index
// differences never leave a function unreduced.
func Mod(x, m *big.Int) *big.Int {
	r := new(big.Int).Mod(x, m)
	if r.Sign() < 0 {
		r.Add(r, m)
	}
	return r
}

// ModAdd returns (a + b) mod m.
func ModAdd(a, b, m *big.Int) *big.Int {
	return Mod(new(big.Int).Add(a, b), m)
}

// ModSub returns (a - b) mod m.
func ModSub(a, b, m *big.Int) *big.Int {
	return Mod(new(big.Int).Sub(a, b), m)
}

// ModMul returns (a * b) mod m.
func ModMul(a, b, m *big.Int) *big.Int {
	return Mod(new(big.Int).Mul(a, b), m)
}

// ModNeg returns -a mod m.
func ModNeg(a, m *big.Int) *big.Int {
	return Mod(new(big.Int).Neg(a), m)
}

// ModInverse returns a^-1 mod m, or nil when a has no inverse.
func ModInverse(a, m *big.Int) *big.Int {
	return new(big.Int).ModInverse(Mod(a, m), m)
}
