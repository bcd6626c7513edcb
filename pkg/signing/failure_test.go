package signing

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Caqil/threshold-ecdsa/pkg/mta"
	"github.com/Caqil/threshold-ecdsa/pkg/network"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy source unavailable")
}

func TestNonceCommitmentRejectsDegenerateValues(t *testing.T) {
	d := deal(t, 1, 3, big.NewInt(42))
	g, err := NewGroup(d.Shares[0].Curve)
	require.NoError(t, err)

	G := g.Curve.Generator()
	twoG, err := g.Curve.ScalarBaseMult(big.NewInt(2))
	require.NoError(t, err)
	negG, err := g.Curve.Negate(G)
	require.NoError(t, err)

	// delta_1 + delta_3 = 0
	_, err = nonceCommitment(g, map[int]*reveal{
		1: {delta: big.NewInt(1), gamma: G},
		3: {delta: new(big.Int).Sub(g.Order, big.NewInt(1)), gamma: twoG},
	})
	assert.ErrorIs(t, err, ErrDegenerateNonce)

	// Γ_1 + Γ_3 = O
	_, err = nonceCommitment(g, map[int]*reveal{
		1: {delta: big.NewInt(5), gamma: G},
		3: {delta: big.NewInt(6), gamma: negG},
	})
	assert.ErrorIs(t, err, ErrDegenerateNonce)

	R, err := nonceCommitment(g, map[int]*reveal{
		1: {delta: big.NewInt(1), gamma: G},
		3: {delta: big.NewInt(1), gamma: G},
	})
	require.NoError(t, err)
	assert.True(t, R.IsEqual(G), "(1+1)⁻¹·2G must be G")
}

func TestFinalizeRejectsZeroS(t *testing.T) {
	d := deal(t, 1, 3, big.NewInt(42))
	signer, err := NewSigner(d.Shares[0], testConfig(), nil)
	require.NoError(t, err)
	ss := &Session{signer: signer, set: QualifiedSet{1, 2}}

	n := signer.Group().Order
	_, err = ss.finalize(big.NewInt(1), big.NewInt(1), []*big.Int{big.NewInt(3), new(big.Int).Sub(n, big.NewInt(3))})
	assert.ErrorIs(t, err, ErrDegenerateNonce)
}

func TestPaillierKeygenFailureIsEngineFailure(t *testing.T) {
	d := deal(t, 1, 3, big.NewInt(42))
	signer, err := NewSigner(d.Shares[0], testConfig(), nil)
	require.NoError(t, err)
	signer.SetRandom(failingReader{})

	net := network.NewLocalNetwork([]int{1, 2})
	tr, err := net.Transport(1)
	require.NoError(t, err)
	ss, err := signer.NewSession(tr, []int{1, 2}, make([]byte, 32))
	require.NoError(t, err)

	st := &ephemeral{k: big.NewInt(5), initiators: make(map[mtaSlot]*mta.Initiator)}
	err = ss.startMtA(context.Background(), st, []int{2})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHomomorphicEngineFailure)
	assert.False(t, IsRetryable(classify(err)))
	_, blamed := Culprit(err)
	assert.False(t, blamed, "a local engine failure is nobody else's fault")
	st.destroy()
}
