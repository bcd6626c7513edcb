package dealer

import (
	"math/big"

	"github.com/fxamacker/cbor/v2"

	"github.com/Caqil/threshold-ecdsa/internal/security"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/curve"
)

type keyShareWire struct {
	Curve              string         `cbor:"1,keyasint"`
	Index              int            `cbor:"2,keyasint"`
	Threshold          int            `cbor:"3,keyasint"`
	Parties            int            `cbor:"4,keyasint"`
	Share              []byte         `cbor:"5,keyasint"`
	PublicKey          []byte         `cbor:"6,keyasint"`
	VerificationShares map[int][]byte `cbor:"7,keyasint"`
}

// MarshalBinary encodes the share as CBOR. The output contains the secret
// share and must only be written through an encrypted store.
func (ks *KeyShare) MarshalBinary() ([]byte, error) {
	w := keyShareWire{
		Curve:              ks.Curve.Name(),
		Index:              ks.Index,
		Threshold:          ks.Threshold,
		Parties:            ks.Parties,
		Share:              curve.PaddedBytes(ks.Share, 32),
		PublicKey:          ks.PublicKey.Bytes(),
		VerificationShares: make(map[int][]byte, len(ks.VerificationShares)),
	}
	for j, p := range ks.VerificationShares {
		w.VerificationShares[j] = p.Bytes()
	}
	defer security.SecureZero(w.Share)

	return cbor.Marshal(&w)
}

// UnmarshalKeyShare decodes and validates a share produced by MarshalBinary.
func UnmarshalKeyShare(data []byte) (*KeyShare, error) {
	var w keyShareWire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, ErrInvalidEncoding
	}
	defer security.SecureZero(w.Share)

	c, err := curve.FromName(w.Curve)
	if err != nil {
		return nil, err
	}

	pub, err := c.Unmarshal(w.PublicKey)
	if err != nil {
		return nil, ErrInvalidEncoding
	}

	vs := make(map[int]*curve.Point, len(w.VerificationShares))
	for j, b := range w.VerificationShares {
		if vs[j], err = c.Unmarshal(b); err != nil {
			return nil, ErrInvalidEncoding
		}
	}

	ks := &KeyShare{
		Index:              w.Index,
		Threshold:          w.Threshold,
		Parties:            w.Parties,
		Share:              new(big.Int).SetBytes(w.Share),
		PublicKey:          pub,
		VerificationShares: vs,
		Curve:              c,
	}
	if err := ks.Validate(); err != nil {
		return nil, err
	}
	return ks, nil
}
