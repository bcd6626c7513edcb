package dealer

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Caqil/threshold-ecdsa/internal/math"
	"github.com/Caqil/threshold-ecdsa/internal/security"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/curve"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/rand"
)

func testCurve(t *testing.T) curve.Curve {
	t.Helper()
	c, err := curve.NewCurve(curve.Secp256k1)
	require.NoError(t, err)
	return c
}

func TestDealTwoOfThree(t *testing.T) {
	c := testCurve(t)
	secret := big.NewInt(0xC0FFEE)

	d, err := Deal(rand.NewDeterministicReader([]byte("deal")), c, 1, 3, secret)
	require.NoError(t, err)
	require.Len(t, d.Shares, 3)
	require.Len(t, d.Commitments, 2)

	want, _ := c.ScalarBaseMult(secret)
	assert.True(t, d.PublicKey.IsEqual(want))

	for i, ks := range d.Shares {
		assert.Equal(t, i+1, ks.Index)
		require.NoError(t, ks.Validate())
		assert.True(t, VerifyShare(c, &math.Share{Index: ks.Index, Value: ks.Share}, d.Commitments))
	}

	// share_i = secret + a_1*i, so share_3 - share_1 = 2*(share_2 - share_1)
	order := c.Order()
	d31 := math.ModSub(d.Shares[2].Share, d.Shares[0].Share, order)
	d21 := math.ModSub(d.Shares[1].Share, d.Shares[0].Share, order)
	assert.Zero(t, d31.Cmp(math.ModMul(big.NewInt(2), d21, order)))
}

func TestDealRandomSecret(t *testing.T) {
	c := testCurve(t)
	d, err := Deal(rand.Reader, c, 2, 5, nil)
	require.NoError(t, err)

	secret, err := math.Reconstruct([]*math.Share{
		{Index: 2, Value: d.Shares[1].Share},
		{Index: 4, Value: d.Shares[3].Share},
		{Index: 5, Value: d.Shares[4].Share},
	}, 2, c.Order())
	require.NoError(t, err)

	pub, _ := c.ScalarBaseMult(secret)
	assert.True(t, pub.IsEqual(d.PublicKey))
}

func TestTamperedShareRejected(t *testing.T) {
	c := testCurve(t)
	d, err := Deal(rand.Reader, c, 1, 3, nil)
	require.NoError(t, err)

	ks := d.Shares[1]
	bad := &math.Share{Index: ks.Index, Value: math.ModAdd(ks.Share, big.NewInt(1), c.Order())}
	assert.False(t, VerifyShare(c, bad, d.Commitments))

	ks.Share = bad.Value
	assert.ErrorIs(t, ks.Validate(), ErrInvalidShare)
}

func TestDealRejectsBadParameters(t *testing.T) {
	c := testCurve(t)

	_, err := Deal(rand.Reader, c, 3, 3, nil)
	assert.ErrorIs(t, err, security.ErrInvalidThreshold)

	_, err = Deal(rand.Reader, nil, 1, 3, nil)
	assert.ErrorIs(t, err, ErrNilCurve)

	_, err = Deal(rand.Reader, c, 1, 3, c.Order())
	assert.ErrorIs(t, err, ErrInvalidSecret)
}

func TestKeyShareEncoding(t *testing.T) {
	c := testCurve(t)
	d, err := Deal(rand.Reader, c, 1, 3, nil)
	require.NoError(t, err)

	data, err := d.Shares[2].MarshalBinary()
	require.NoError(t, err)

	ks, err := UnmarshalKeyShare(data)
	require.NoError(t, err)
	assert.Equal(t, 3, ks.Index)
	assert.Zero(t, ks.Share.Cmp(d.Shares[2].Share))
	assert.True(t, ks.PublicKey.IsEqual(d.PublicKey))
	assert.Len(t, ks.VerificationShares, 3)

	_, err = UnmarshalKeyShare([]byte{0xff, 0x00})
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}
