package signing

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Caqil/threshold-ecdsa/internal/math"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/curve"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/rand"
	"github.com/Caqil/threshold-ecdsa/pkg/dealer"
	"github.com/Caqil/threshold-ecdsa/pkg/mta"
)

// simulation runs every signer's local computations in one process, with
// mta.Convert standing in for the message exchange.
type simulation struct {
	g      *Group
	set    QualifiedSet
	k      map[int]*big.Int
	gamma  map[int]*big.Int
	omega  map[int]*big.Int
	delta  map[int]*big.Int
	sigma  map[int]*big.Int
	points map[int]*reveal
}

func simulate(t *testing.T, d *dealer.Dealing, signers []int, k, gamma map[int]*big.Int) *simulation {
	t.Helper()
	share := d.Shares[0]
	g, err := NewGroup(share.Curve)
	require.NoError(t, err)
	set, err := NewQualifiedSet(signers, share.Threshold, share.Parties)
	require.NoError(t, err)

	order := g.Order
	r := rand.NewDeterministicReader([]byte("simulation"))
	sim := &simulation{
		g: g, set: set, k: k, gamma: gamma,
		omega:  map[int]*big.Int{},
		delta:  map[int]*big.Int{},
		sigma:  map[int]*big.Int{},
		points: map[int]*reveal{},
	}

	for _, i := range set {
		lambda, err := set.Lagrange(i, order)
		require.NoError(t, err)
		sim.omega[i] = math.ModMul(lambda, d.Shares[i-1].Share, order)
	}

	alphaD, alphaS := map[int]*big.Int{}, map[int]*big.Int{}
	betaD, betaS := map[int]*big.Int{}, map[int]*big.Int{}
	for _, i := range set {
		alphaD[i], alphaS[i], betaD[i], betaS[i] = new(big.Int), new(big.Int), new(big.Int), new(big.Int)
	}

	for _, i := range set {
		for _, j := range set.Peers(i) {
			a, b, err := mta.Convert(r, k[i], gamma[j], order, 768)
			require.NoError(t, err)
			alphaD[i] = math.ModAdd(alphaD[i], a, order)
			betaD[j] = math.ModAdd(betaD[j], b, order)

			a, b, err = mta.Convert(r, k[i], sim.omega[j], order, 768)
			require.NoError(t, err)
			alphaS[i] = math.ModAdd(alphaS[i], a, order)
			betaS[j] = math.ModAdd(betaS[j], b, order)
		}
	}

	for _, i := range set {
		sim.delta[i] = shareOfProduct(k[i], gamma[i], alphaD[i], betaD[i], order)
		sim.sigma[i] = shareOfProduct(k[i], sim.omega[i], alphaS[i], betaS[i], order)
		gp, err := g.Curve.ScalarBaseMult(gamma[i])
		require.NoError(t, err)
		sim.points[i] = &reveal{delta: sim.delta[i], gamma: gp}
	}
	return sim
}

func (sim *simulation) sign(t *testing.T, e *big.Int) *Signature {
	t.Helper()
	R, err := nonceCommitment(sim.g, sim.points)
	require.NoError(t, err)
	r := math.Mod(R.X, sim.g.Order)

	s := new(big.Int)
	for _, i := range sim.set {
		s = math.ModAdd(s, partialSignature(e, sim.k[i], r, sim.sigma[i], sim.g.Order), sim.g.Order)
	}
	return &Signature{R: r, S: s}
}

func randomNonces(t *testing.T, seed string, set []int, order *big.Int) (k, gamma map[int]*big.Int) {
	t.Helper()
	r := rand.NewDeterministicReader([]byte(seed))
	k, gamma = map[int]*big.Int{}, map[int]*big.Int{}
	for _, i := range set {
		var err error
		k[i], err = rand.Scalar(r, order)
		require.NoError(t, err)
		gamma[i], err = rand.Scalar(r, order)
		require.NoError(t, err)
	}
	return k, gamma
}

func sum(values map[int]*big.Int, order *big.Int) *big.Int {
	out := new(big.Int)
	for _, v := range values {
		out = math.ModAdd(out, v, order)
	}
	return out
}

func TestNonceAssemblyInvariants(t *testing.T) {
	secret := big.NewInt(0x5eed)
	d := deal(t, 2, 5, secret)
	c := d.Shares[0].Curve
	order := c.Order()

	for _, signers := range [][]int{{1, 3, 4}, {2, 3, 5}} {
		k, gamma := randomNonces(t, "invariants", signers, order)
		sim := simulate(t, d, signers, k, gamma)

		kSum := sum(k, order)
		gammaSum := sum(gamma, order)

		// Lagrange-weighted shares reconstruct the dealer secret
		assert.Zero(t, sum(sim.omega, order).Cmp(secret))

		// k·gamma ≡ Σ delta_i and k·x ≡ Σ sigma_i
		assert.Zero(t, math.ModMul(kSum, gammaSum, order).Cmp(sum(sim.delta, order)))
		assert.Zero(t, math.ModMul(kSum, secret, order).Cmp(sum(sim.sigma, order)))

		// R = k⁻¹·G
		R, err := nonceCommitment(sim.g, sim.points)
		require.NoError(t, err)
		want, err := c.ScalarBaseMult(math.ModInverse(kSum, order))
		require.NoError(t, err)
		assert.True(t, R.IsEqual(want))

		e := messageDigest(sim.g, satoshi)
		assert.True(t, Verify(sim.g, d.PublicKey, e, sim.sign(t, e)))
	}
}

func TestTwoSignersCollapseToSinglePairExchange(t *testing.T) {
	secret := big.NewInt(424242)
	d := deal(t, 1, 3, secret)
	order := d.Shares[0].Curve.Order()

	// With {1,3}: lambda_1 = 3/2, lambda_3 = -1/2
	k, gamma := randomNonces(t, "pair", []int{1, 3}, order)
	sim := simulate(t, d, []int{1, 3}, k, gamma)

	half := math.ModInverse(big.NewInt(2), order)
	assert.Zero(t, sim.omega[1].Cmp(math.ModMul(math.ModMul(big.NewInt(3), half, order), d.Shares[0].Share, order)))
	assert.Zero(t, sim.omega[3].Cmp(math.ModMul(math.ModNeg(half, order), d.Shares[2].Share, order)))

	e := messageDigest(sim.g, satoshi)
	assert.True(t, Verify(sim.g, d.PublicKey, e, sim.sign(t, e)))
}

// Reusing k for two messages gives away the key: s_1 - s_2 = k(e_1 - e_2)
// and then x = (s_1·k⁻¹ - e_1)·r⁻¹.
func TestNonceReuseRecoversKey(t *testing.T) {
	secret, _ := new(big.Int).SetString("1f1e1d1c1b1a191817161514131211100f0e0d0c0b0a09080706050403020100", 16)
	d := deal(t, 1, 3, secret)
	order := d.Shares[0].Curve.Order()
	signers := []int{1, 3}

	k, gamma := randomNonces(t, "reused", signers, order)
	sim := simulate(t, d, signers, k, gamma)

	e1 := messageDigest(sim.g, []byte("first"))
	e2 := messageDigest(sim.g, []byte("second"))
	sig1 := sim.sign(t, e1)
	sig2 := sim.sign(t, e2)
	require.Zero(t, sig1.R.Cmp(sig2.R))
	require.True(t, Verify(sim.g, d.PublicKey, e1, sig1))
	require.True(t, Verify(sim.g, d.PublicKey, e2, sig2))

	kSum := math.ModMul(
		math.ModSub(sig1.S, sig2.S, order),
		math.ModInverse(math.ModSub(e1, e2, order), order),
		order,
	)
	recovered := math.ModMul(
		math.ModSub(math.ModMul(sig1.S, math.ModInverse(kSum, order), order), e1, order),
		math.ModInverse(sig1.R, order),
		order,
	)
	assert.Zero(t, recovered.Cmp(secret), "reused nonce must expose the key")
}

func TestHedgedNoncesNeverRepeatAcrossMessages(t *testing.T) {
	c, err := curve.NewCurve(curve.Secp256k1)
	require.NoError(t, err)
	order := c.Order()
	share := big.NewInt(99)
	e1, e2 := big.NewInt(1), big.NewInt(2)

	draw := func(sid string, e *big.Int) *big.Int {
		// A broken source that replays the same bytes every time
		k, err := hedgedScalar(rand.NewDeterministicReader([]byte("stuck")), "k", share, []byte(sid), e, order)
		require.NoError(t, err)
		return k
	}

	assert.Zero(t, draw("s", e1).Cmp(draw("s", e1)))
	assert.NotZero(t, draw("s", e1).Cmp(draw("s", e2)))
	assert.NotZero(t, draw("s", e1).Cmp(draw("t", e1)))
}

func TestSessionsDrawFreshNonces(t *testing.T) {
	d := deal(t, 1, 3, nil)
	signers := []int{1, 3}

	// signAll seeds every signer's randomness from the session id alone,
	// so both sessions replay identical random streams
	var rs []*big.Int
	for _, msg := range [][]byte{[]byte("first"), []byte("second")} {
		out := signAll(t, newNet(signers), d, testConfig(), signers, []byte("same-session-id"), msg)
		require.NoError(t, out[1].err)
		rs = append(rs, out[1].sig.R)
	}
	assert.NotZero(t, rs[0].Cmp(rs[1]))
}
