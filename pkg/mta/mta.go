// Package mta converts a product of two secret scalars into additive
// shares. The initiator holds a, the responder holds b, and the exchange
// leaves them with α and β such that α + β ≡ a·b (mod order).
//
//	initiator                          responder
//	sk ← Paillier keygen
//	cA = Enc(a)        ── N, cA ──▶
//	                                   β' ← [0, order)
//	                                   cB = b ⊙ cA ⊕ Enc(β')
//	                   ◀── cB ──       β = -β' mod order
//	α = Dec(cB) mod order
//
// Every initiator owns a fresh key pair that is destroyed by Finish or
// Abort, so no key ever decrypts more than one response.
package mta

import (
	"io"
	"math/big"

	"github.com/pkg/errors"

	"github.com/Caqil/threshold-ecdsa/internal/math"
	"github.com/Caqil/threshold-ecdsa/internal/security"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/rand"
	"github.com/Caqil/threshold-ecdsa/pkg/paillier"
)

// Request is the initiator's message.
type Request struct {
	PublicKey  *paillier.PublicKey
	Ciphertext *paillier.Ciphertext
}

// Response is the responder's message.
type Response struct {
	Ciphertext *paillier.Ciphertext
}

// Initiator is the a-holding side of one exchange.
type Initiator struct {
	order *big.Int
	sk    *paillier.SecretKey
	done  bool
}

// MinModulusBits is the smallest Paillier modulus for which
// a·b + β' < N holds for all a, b, β' in [0, order).
func MinModulusBits(order *big.Int) int {
	return 2*order.BitLen() + 1
}

// NewInitiator generates a fresh key pair of the given size and encrypts a.
func NewInitiator(r io.Reader, a, order *big.Int, bits int) (*Initiator, *Request, error) {
	if err := checkScalar(a, order); err != nil {
		return nil, nil, err
	}
	if bits < MinModulusBits(order) {
		return nil, nil, ErrModulusTooSmall
	}

	sk, err := paillier.GenerateKey(r, bits)
	if err != nil {
		return nil, nil, errors.Wrap(err, "generate paillier key")
	}

	cA, err := sk.Encrypt(r, a)
	if err != nil {
		sk.Destroy()
		return nil, nil, errors.Wrap(err, "encrypt initiator scalar")
	}

	return &Initiator{order: order, sk: sk}, &Request{
		PublicKey:  sk.Public(),
		Ciphertext: cA,
	}, nil
}

// Finish decrypts the response into α and destroys the key pair.
func (in *Initiator) Finish(resp *Response) (*big.Int, error) {
	if in.done {
		return nil, ErrFinished
	}
	defer in.Abort()

	if resp == nil || !in.sk.ValidateCiphertext(resp.Ciphertext) {
		return nil, ErrInvalidResponse
	}

	plain, err := in.sk.Decrypt(resp.Ciphertext)
	if err != nil {
		return nil, errors.Wrap(err, "decrypt response")
	}
	defer security.SecureZeroBigInt(plain)

	return math.Mod(plain, in.order), nil
}

// Abort destroys the key pair without producing α.
func (in *Initiator) Abort() {
	if in.done {
		return
	}
	in.done = true
	in.sk.Destroy()
}

// PublicKey returns the initiator's ephemeral Paillier public key.
func (in *Initiator) PublicKey() *paillier.PublicKey {
	return in.sk.Public()
}

// Respond answers req with the responder's scalar b. It returns the reply
// and β = -β' mod order.
func Respond(r io.Reader, req *Request, b, order *big.Int) (*Response, *big.Int, error) {
	if err := checkScalar(b, order); err != nil {
		return nil, nil, err
	}
	if req == nil || req.PublicKey == nil || req.PublicKey.N == nil {
		return nil, nil, ErrInvalidRequest
	}
	pk := req.PublicKey
	if pk.N.BitLen() < MinModulusBits(order) {
		return nil, nil, ErrModulusTooSmall
	}
	if !pk.ValidateCiphertext(req.Ciphertext) {
		return nil, nil, ErrInvalidRequest
	}

	betaDash, err := rand.Int(r, order)
	if err != nil {
		return nil, nil, errors.Wrap(err, "sample blinding")
	}
	defer security.SecureZeroBigInt(betaDash)

	scaled, err := pk.Mul(req.Ciphertext, b)
	if err != nil {
		return nil, nil, errors.Wrap(err, "scale ciphertext")
	}
	blind, err := pk.Encrypt(r, betaDash)
	if err != nil {
		return nil, nil, errors.Wrap(err, "encrypt blinding")
	}
	cB, err := pk.Add(scaled, blind)
	if err != nil {
		return nil, nil, errors.Wrap(err, "add blinding")
	}

	return &Response{Ciphertext: cB}, math.ModNeg(betaDash, order), nil
}

// Convert runs both halves in-process. The signing protocol never calls it;
// it exists for tests and for callers that hold both inputs.
func Convert(r io.Reader, a, b, order *big.Int, bits int) (alpha, beta *big.Int, err error) {
	in, req, err := NewInitiator(r, a, order, bits)
	if err != nil {
		return nil, nil, err
	}

	resp, beta, err := Respond(r, req, b, order)
	if err != nil {
		in.Abort()
		return nil, nil, err
	}

	alpha, err = in.Finish(resp)
	if err != nil {
		return nil, nil, err
	}
	return alpha, beta, nil
}

func checkScalar(v, order *big.Int) error {
	if v == nil || v.Sign() < 0 || v.Cmp(order) >= 0 {
		return ErrScalarOutOfRange
	}
	return nil
}
