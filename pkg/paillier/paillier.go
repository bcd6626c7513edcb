// Package paillier implements the Paillier cryptosystem with generator
// N+1. It is additively homomorphic: Enc(a) ⊕ Enc(b) = Enc(a+b) and
// k ⊙ Enc(a) = Enc(k·a), both mod N.
package paillier

import (
	"io"
	"math/big"

	"github.com/cronokirby/saferith"

	"github.com/Caqil/threshold-ecdsa/internal/security"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/rand"
)

const (
	// DefaultBits is the modulus size used for signing sessions
	DefaultBits = 2048

	// MinBits is the smallest modulus GenerateKey will produce. Protocols
	// layered on top enforce their own, larger floors.
	MinBits = 256

	// maxKeygenAttempts bounds the search for a distinct prime pair
	maxKeygenAttempts = 16
)

var one = big.NewInt(1)

// PublicKey is a Paillier public key.
type PublicKey struct {
	N *big.Int

	nSquared *big.Int
}

// SecretKey is a Paillier private key. It must never leave the party that
// generated it and is zeroed with Destroy once the owning exchange ends.
type SecretKey struct {
	*PublicKey

	phi    *big.Int
	phiInv *big.Int

	// saferith views of the secret values for constant-time decryption
	phiNat    *saferith.Nat
	phiInvNat *saferith.Nat
	nMod      *saferith.Modulus
	nSqMod    *saferith.Modulus
}

// Ciphertext is an element of Z*_{N²}.
type Ciphertext struct {
	C *big.Int
}

// NewPublicKey wraps a received modulus. N must be odd and at least MinBits.
func NewPublicKey(n *big.Int) (*PublicKey, error) {
	if n == nil || n.Sign() <= 0 || n.Bit(0) == 0 || n.BitLen() < MinBits {
		return nil, ErrInvalidModulus
	}
	return &PublicKey{
		N:        new(big.Int).Set(n),
		nSquared: new(big.Int).Mul(n, n),
	}, nil
}

// GenerateKey samples two distinct bits/2-bit primes from r and returns
// the key pair for N = p·q.
func GenerateKey(r io.Reader, bits int) (*SecretKey, error) {
	if bits < MinBits || bits%2 != 0 {
		return nil, ErrKeySizeTooSmall
	}

	for attempt := 0; attempt < maxKeygenAttempts; attempt++ {
		p, err := rand.Prime(r, bits/2)
		if err != nil {
			return nil, err
		}
		q, err := rand.Prime(r, bits/2)
		if err != nil {
			return nil, err
		}
		if p.Cmp(q) == 0 {
			continue
		}

		n := new(big.Int).Mul(p, q)
		if n.BitLen() != bits {
			continue
		}

		// φ(N) = (p-1)(q-1)
		pm1 := new(big.Int).Sub(p, one)
		qm1 := new(big.Int).Sub(q, one)
		phi := new(big.Int).Mul(pm1, qm1)
		security.SecureZeroBigInts(p, q, pm1, qm1)

		sk, err := newSecretKey(n, phi)
		if err != nil {
			continue
		}
		return sk, nil
	}

	return nil, ErrKeyGeneration
}

func newSecretKey(n, phi *big.Int) (*SecretKey, error) {
	pk, err := NewPublicKey(n)
	if err != nil {
		return nil, err
	}

	phiInv := new(big.Int).ModInverse(phi, n)
	if phiInv == nil {
		return nil, ErrKeyGeneration
	}

	nSqBits := pk.nSquared.BitLen()
	return &SecretKey{
		PublicKey: pk,
		phi:       phi,
		phiInv:    phiInv,
		phiNat:    new(saferith.Nat).SetBig(phi, n.BitLen()),
		phiInvNat: new(saferith.Nat).SetBig(phiInv, n.BitLen()),
		nMod:      saferith.ModulusFromNat(new(saferith.Nat).SetBig(n, n.BitLen())),
		nSqMod:    saferith.ModulusFromNat(new(saferith.Nat).SetBig(pk.nSquared, nSqBits)),
	}, nil
}

// Encrypt returns Enc(m) with fresh randomness from r. m must lie in [0, N).
func (pk *PublicKey) Encrypt(r io.Reader, m *big.Int) (*Ciphertext, error) {
	rho, err := rand.Unit(r, pk.N)
	if err != nil {
		return nil, err
	}
	defer security.SecureZeroBigInt(rho)

	return pk.EncryptWithNonce(m, rho)
}

// EncryptWithNonce computes (1 + m·N)·ρ^N mod N², which equals
// (N+1)^m·ρ^N mod N².
func (pk *PublicKey) EncryptWithNonce(m, rho *big.Int) (*Ciphertext, error) {
	if m == nil || m.Sign() < 0 || m.Cmp(pk.N) >= 0 {
		return nil, ErrMessageOutOfRange
	}
	if rho == nil || rho.Sign() <= 0 || rho.Cmp(pk.N) >= 0 {
		return nil, ErrInvalidCiphertext
	}

	gm := new(big.Int).Mul(m, pk.N)
	gm.Add(gm, one)

	c := new(big.Int).Exp(rho, pk.N, pk.nSquared)
	c.Mul(c, gm)
	c.Mod(c, pk.nSquared)

	return &Ciphertext{C: c}, nil
}

// Add returns Enc(m1 + m2) as c1·c2 mod N².
func (pk *PublicKey) Add(c1, c2 *Ciphertext) (*Ciphertext, error) {
	if !pk.ValidateCiphertext(c1) || !pk.ValidateCiphertext(c2) {
		return nil, ErrInvalidCiphertext
	}

	c := new(big.Int).Mul(c1.C, c2.C)
	c.Mod(c, pk.nSquared)
	return &Ciphertext{C: c}, nil
}

// Mul returns Enc(k·m) as c^k mod N². k must be non-negative.
func (pk *PublicKey) Mul(c *Ciphertext, k *big.Int) (*Ciphertext, error) {
	if !pk.ValidateCiphertext(c) {
		return nil, ErrInvalidCiphertext
	}
	if k == nil || k.Sign() < 0 {
		return nil, ErrMessageOutOfRange
	}

	return &Ciphertext{C: new(big.Int).Exp(c.C, k, pk.nSquared)}, nil
}

// ValidateCiphertext reports whether c lies in [1, N²) and is coprime to N.
func (pk *PublicKey) ValidateCiphertext(c *Ciphertext) bool {
	if c == nil || c.C == nil {
		return false
	}
	if c.C.Sign() <= 0 || c.C.Cmp(pk.nSquared) >= 0 {
		return false
	}
	return new(big.Int).GCD(nil, nil, c.C, pk.N).Cmp(one) == 0
}

// Equal reports whether both keys share the same modulus.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	return pk != nil && other != nil && pk.N.Cmp(other.N) == 0
}

// Decrypt returns m = L(c^φ mod N²)·φ⁻¹ mod N with L(x) = (x-1)/N. The
// exponentiation by φ runs in constant time through saferith.
func (sk *SecretKey) Decrypt(c *Ciphertext) (*big.Int, error) {
	if sk.phiNat == nil {
		return nil, ErrKeyDestroyed
	}
	if !sk.ValidateCiphertext(c) {
		return nil, ErrInvalidCiphertext
	}

	oneNat := new(saferith.Nat).SetUint64(1)
	cNat := new(saferith.Nat).SetBig(c.C, sk.nSquared.BitLen())

	// x = c^φ (mod N²)
	x := new(saferith.Nat).Exp(cNat, sk.phiNat, sk.nSqMod)
	// x = (c^φ - 1) / N
	x.Sub(x, oneNat, -1)
	x.Div(x, sk.nMod, -1)
	// m = x·φ⁻¹ (mod N)
	x.ModMul(x, sk.phiInvNat, sk.nMod)

	return x.Big(), nil
}

// Destroy zeroes the secret values. The public half stays usable.
func (sk *SecretKey) Destroy() {
	if sk == nil {
		return
	}
	security.SecureZeroBigInts(sk.phi, sk.phiInv)
	sk.phiNat = nil
	sk.phiInvNat = nil
}

// Public returns the public half of the key pair.
func (sk *SecretKey) Public() *PublicKey {
	return sk.PublicKey
}
