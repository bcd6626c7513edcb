// Package hash provides message digesting and the domain-separated BLAKE3
// transcripts used for commitments, challenges and session identifiers.
package hash

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"

	"github.com/zeebo/blake3"

	"github.com/Caqil/threshold-ecdsa/pkg/crypto/curve"
)

// MessageDigest hashes msg with SHA-256 and converts the digest to an
// integer with HashToInt. The result is the e used by both signing and
// verification.
func MessageDigest(msg []byte, order *big.Int) *big.Int {
	sum := sha256.Sum256(msg)
	return HashToInt(sum[:], order)
}

// HashToInt is bits2int from RFC 6979 section 2.3.2: the digest is read as
// a big-endian integer and only its leftmost order.BitLen() bits are kept.
// The value is not reduced mod order.
func HashToInt(digest []byte, order *big.Int) *big.Int {
	orderBits := order.BitLen()
	orderBytes := (orderBits + 7) / 8
	if len(digest) > orderBytes {
		digest = digest[:orderBytes]
	}

	ret := new(big.Int).SetBytes(digest)
	if excess := len(digest)*8 - orderBits; excess > 0 {
		ret.Rsh(ret, uint(excess))
	}
	return ret
}

// Transcript is a domain-separated BLAKE3 hash. Every write is length
// prefixed so distinct sequences of inputs never collide.
type Transcript struct {
	h *blake3.Hasher
}

// NewTranscript starts a transcript bound to domain.
func NewTranscript(domain string) *Transcript {
	t := &Transcript{h: blake3.New()}
	t.WriteBytes([]byte(domain))
	return t
}

// WriteBytes appends a length-prefixed byte string.
func (t *Transcript) WriteBytes(data []byte) *Transcript {
	var l [8]byte
	binary.BigEndian.PutUint64(l[:], uint64(len(data)))
	_, _ = t.h.Write(l[:])
	_, _ = t.h.Write(data)
	return t
}

// WriteInt appends a non-negative integer.
func (t *Transcript) WriteInt(v *big.Int) *Transcript {
	if v == nil {
		return t.WriteBytes(nil)
	}
	return t.WriteBytes(v.Bytes())
}

// WriteUint appends a fixed-width unsigned integer.
func (t *Transcript) WriteUint(v uint64) *Transcript {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return t.WriteBytes(b[:])
}

// WritePoint appends the compressed encoding of a point.
func (t *Transcript) WritePoint(p *curve.Point) *Transcript {
	if p == nil || p.IsIdentity() {
		return t.WriteBytes(nil)
	}
	return t.WriteBytes(p.Bytes())
}

// Clone returns an independent copy of the transcript state.
func (t *Transcript) Clone() *Transcript {
	return &Transcript{h: t.h.Clone()}
}

// Sum returns the 32-byte digest without altering the state.
func (t *Transcript) Sum() []byte {
	return t.h.Sum(nil)
}

// Challenge derives a non-zero scalar mod order from the transcript.
// 64 bytes of XOF output keep the modular bias negligible.
func (t *Transcript) Challenge(order *big.Int) *big.Int {
	out := make([]byte, 64)
	_, _ = t.h.Clone().Digest().Read(out)

	c := new(big.Int).SetBytes(out)
	c.Mod(c, order)
	if c.Sign() == 0 {
		c.SetInt64(1)
	}
	return c
}
