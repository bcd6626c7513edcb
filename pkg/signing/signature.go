package signing

import (
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	"github.com/Caqil/threshold-ecdsa/pkg/crypto/curve"
)

// ScalarSize is the fixed width of r and s in bytes
const ScalarSize = 32

// Signature is an ECDSA signature (r, s)
type Signature struct {
	R *big.Int
	S *big.Int
}

// Bytes returns r || s, each fixed-width big-endian
func (sig *Signature) Bytes() []byte {
	out := make([]byte, 0, 2*ScalarSize)
	out = append(out, curve.PaddedBytes(sig.R, ScalarSize)...)
	out = append(out, curve.PaddedBytes(sig.S, ScalarSize)...)
	return out
}

// SignatureFromBytes parses r || s
func SignatureFromBytes(data []byte) (*Signature, error) {
	if len(data) != 2*ScalarSize {
		return nil, ErrInvalidEncoding
	}
	sig := &Signature{
		R: new(big.Int).SetBytes(data[:ScalarSize]),
		S: new(big.Int).SetBytes(data[ScalarSize:]),
	}
	if sig.R.Sign() == 0 || sig.S.Sign() == 0 {
		return nil, ErrInvalidEncoding
	}
	return sig, nil
}

// DER returns the ASN.1 DER encoding. btcec canonicalises s to the lower
// half of the order, so DER output always carries a low-s value.
func (sig *Signature) DER() ([]byte, error) {
	var r, s btcec.ModNScalar
	if overflow := r.SetByteSlice(curve.PaddedBytes(sig.R, ScalarSize)); overflow || r.IsZero() {
		return nil, ErrInvalidEncoding
	}
	if overflow := s.SetByteSlice(curve.PaddedBytes(sig.S, ScalarSize)); overflow || s.IsZero() {
		return nil, ErrInvalidEncoding
	}
	return ecdsa.NewSignature(&r, &s).Serialize(), nil
}

// ParseDER parses a strict DER signature
func ParseDER(der []byte) (*Signature, error) {
	if _, err := ecdsa.ParseDERSignature(der); err != nil {
		return nil, ErrInvalidEncoding
	}

	var (
		inner cryptobyte.String
		r, s  = new(big.Int), new(big.Int)
	)
	input := cryptobyte.String(der)
	if !input.ReadASN1(&inner, asn1.SEQUENCE) || !input.Empty() ||
		!inner.ReadASN1Integer(r) || !inner.ReadASN1Integer(s) || !inner.Empty() {
		return nil, ErrInvalidEncoding
	}
	return &Signature{R: r, S: s}, nil
}

// IsLowS reports whether s <= order/2
func (sig *Signature) IsLowS(g *Group) bool {
	return sig.S.Cmp(g.halfOrder) <= 0
}

func (sig *Signature) normalizeLowS(g *Group) {
	if !sig.IsLowS(g) {
		sig.S = new(big.Int).Sub(g.Order, sig.S)
	}
}
