package signing

import (
	"crypto/sha256"
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Caqil/threshold-ecdsa/pkg/crypto/curve"
)

// singleKeySignature signs with btcec so encodings can be checked without
// running a session.
func singleKeySignature(t *testing.T, msg []byte) (*Group, *curve.Point, *Signature) {
	t.Helper()
	c, err := curve.NewCurve(curve.Secp256k1)
	require.NoError(t, err)
	g, err := NewGroup(c)
	require.NoError(t, err)

	priv, _ := btcec.PrivKeyFromBytes(curve.PaddedBytes(big.NewInt(0xabcdef), 32))
	digest := sha256.Sum256(msg)
	sig, err := ParseDER(ecdsa.Sign(priv, digest[:]).Serialize())
	require.NoError(t, err)

	pub, err := c.Unmarshal(priv.PubKey().SerializeCompressed())
	require.NoError(t, err)

	return g, pub, sig
}

func TestSignatureEncodingsRoundTrip(t *testing.T) {
	g, pub, sig := singleKeySignature(t, satoshi)
	require.True(t, VerifyMessage(g, pub, satoshi, sig))

	fixed := sig.Bytes()
	assert.Len(t, fixed, 2*ScalarSize)
	fromFixed, err := SignatureFromBytes(fixed)
	require.NoError(t, err)
	assert.True(t, VerifyMessage(g, pub, satoshi, fromFixed))

	der, err := sig.DER()
	require.NoError(t, err)
	fromDER, err := ParseDER(der)
	require.NoError(t, err)
	assert.Zero(t, fromDER.R.Cmp(sig.R))
	assert.Zero(t, fromDER.S.Cmp(sig.S))
	assert.True(t, VerifyMessage(g, pub, satoshi, fromDER))

	digest := sha256.Sum256(satoshi)
	assert.True(t, VerifyBTCEC(pub, digest[:], fromDER))
}

func TestSignatureFixedWidth(t *testing.T) {
	sig := &Signature{R: big.NewInt(1), S: big.NewInt(2)}
	b := sig.Bytes()
	require.Len(t, b, 64)
	assert.Equal(t, byte(1), b[31])
	assert.Equal(t, byte(2), b[63])
}

func TestSignatureDecodingRejectsGarbage(t *testing.T) {
	_, err := SignatureFromBytes(make([]byte, 63))
	assert.ErrorIs(t, err, ErrInvalidEncoding)

	_, err = SignatureFromBytes(make([]byte, 64))
	assert.ErrorIs(t, err, ErrInvalidEncoding)

	_, err = ParseDER([]byte{0x30, 0x02, 0x01})
	assert.ErrorIs(t, err, ErrInvalidEncoding)

	_, err = (&Signature{R: big.NewInt(0), S: big.NewInt(1)}).DER()
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestVerifyRejectsOutOfRange(t *testing.T) {
	g, pub, sig := singleKeySignature(t, satoshi)
	e := messageDigest(g, satoshi)

	assert.False(t, Verify(g, pub, e, &Signature{R: sig.R, S: new(big.Int)}))
	assert.False(t, Verify(g, pub, e, &Signature{R: g.Order, S: sig.S}))
	assert.False(t, Verify(g, pub, e, &Signature{R: sig.R, S: new(big.Int).Add(sig.S, g.Order)}))
	assert.False(t, Verify(g, nil, e, sig))
}
