package signing

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Caqil/threshold-ecdsa/internal/math"
	"github.com/Caqil/threshold-ecdsa/internal/security"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/commitment"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/curve"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/hash"
	"github.com/Caqil/threshold-ecdsa/pkg/mta"
	"github.com/Caqil/threshold-ecdsa/pkg/network"
	"github.com/Caqil/threshold-ecdsa/pkg/paillier"
	"github.com/Caqil/threshold-ecdsa/pkg/zk"
)

// ephemeral is the per-session secret state of one signer
type ephemeral struct {
	k     *big.Int
	gamma *big.Int
	omega *big.Int
	delta *big.Int
	sigma *big.Int

	// MtA results, summed as they arrive
	alphaDelta, alphaSigma *big.Int
	betaDelta, betaSigma   *big.Int

	initiators map[mtaSlot]*mta.Initiator
}

type mtaSlot struct {
	peer int
	kind mtaKind
}

func (st *ephemeral) destroy() {
	for _, in := range st.initiators {
		in.Abort()
	}
	security.SecureZeroBigInts(st.k, st.gamma, st.omega, st.delta, st.sigma,
		st.alphaDelta, st.alphaSigma, st.betaDelta, st.betaSigma)
}

// reveal is a co-signer's opened nonce share
type reveal struct {
	delta *big.Int
	gamma *curve.Point
}

func (ss *Session) run(ctx context.Context, e *big.Int) (*Signature, error) {
	g := ss.signer.group
	key := ss.signer.key
	self := key.Index
	peers := ss.set.Peers(self)
	order := g.Order

	mb := &mailbox{transport: ss.transport, sessionID: ss.id, peers: peers, log: ss.log}
	bind := ss.binding()

	// Round 1: nonce shares and commitment to Γ_i
	st, err := ss.prepare(e)
	if err != nil {
		return nil, err
	}
	defer st.destroy()

	gammaPoint, err := g.Curve.ScalarBaseMult(st.gamma)
	if err != nil {
		return nil, errors.Wrap(err, "compute gamma point")
	}
	com, err := commitment.CommitToCurvePoint(ss.signer.rand, gammaPoint, bind)
	if err != nil {
		return nil, errors.Wrap(err, "commit to gamma point")
	}
	if err := ss.broadcast(ctx, network.MessageTypeCommitment, &commitmentBody{Commitment: com.Commitment}); err != nil {
		return nil, err
	}

	commitments := make(map[int][]byte, len(peers))
	err = mb.collect(ctx, network.MessageTypeCommitment, 1, func(msg *network.Message) error {
		var body commitmentBody
		if err := decodeBody(msg, &body); err != nil {
			return err
		}
		if len(body.Commitment) == 0 {
			return blame(msg.From, ErrConsistencyViolation, "empty commitment")
		}
		commitments[msg.From] = body.Commitment
		return nil
	})
	if err != nil {
		return nil, err
	}
	ss.log.DebugEvent().Round(1).Msg("round complete")

	// Round 2: MtA requests out, responses to peers' requests
	if err := ss.startMtA(ctx, st, peers); err != nil {
		return nil, err
	}

	var requests []*network.Message
	err = mb.collect(ctx, network.MessageTypeMtARequest, len(mtaKinds), func(msg *network.Message) error {
		requests = append(requests, msg)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := ss.respondMtA(ctx, st, requests); err != nil {
		return nil, err
	}
	ss.log.DebugEvent().Round(2).Msg("round complete")

	// Round 3: finish own MtAs and form delta_i, sigma_i
	seen := make(map[mtaSlot]bool, len(st.initiators))
	err = mb.collect(ctx, network.MessageTypeMtAResponse, len(mtaKinds), func(msg *network.Message) error {
		var body mtaResponseBody
		if err := decodeBody(msg, &body); err != nil {
			return err
		}
		slot := mtaSlot{peer: msg.From, kind: body.Kind}
		in, ok := st.initiators[slot]
		if !ok || seen[slot] {
			return blame(msg.From, ErrConsistencyViolation, "unexpected %s response", body.Kind)
		}
		seen[slot] = true

		alpha, err := in.Finish(&mta.Response{Ciphertext: &paillier.Ciphertext{C: new(big.Int).SetBytes(body.Ciphertext)}})
		if err != nil {
			if errors.Is(err, mta.ErrInvalidResponse) {
				return blame(msg.From, ErrConsistencyViolation, "%s response: %v", body.Kind, err)
			}
			return fmt.Errorf("%w: %w", ErrHomomorphicEngineFailure, err)
		}
		defer security.SecureZeroBigInt(alpha)

		switch body.Kind {
		case mtaDelta:
			st.alphaDelta = math.ModAdd(st.alphaDelta, alpha, order)
		case mtaSigma:
			st.alphaSigma = math.ModAdd(st.alphaSigma, alpha, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	st.delta = shareOfProduct(st.k, st.gamma, st.alphaDelta, st.betaDelta, order)
	st.sigma = shareOfProduct(st.k, st.omega, st.alphaSigma, st.betaSigma, order)
	ss.log.DebugEvent().Round(3).Msg("round complete")

	// Round 4: open Γ_i, publish delta_i, derive r
	proof, err := zk.ProveSchnorr(ss.signer.rand, st.gamma, gammaPoint, g.Curve, proofContext(bind, self))
	if err != nil {
		return nil, errors.Wrap(err, "prove gamma")
	}
	err = ss.broadcast(ctx, network.MessageTypeReveal, &revealBody{
		Delta:        curve.PaddedBytes(st.delta, ScalarSize),
		Gamma:        gammaPoint.Bytes(),
		Decommitment: com.Decommitment,
		Proof:        proof.Bytes(),
	})
	if err != nil {
		return nil, err
	}

	reveals := map[int]*reveal{self: {delta: st.delta, gamma: gammaPoint}}
	err = mb.collect(ctx, network.MessageTypeReveal, 1, func(msg *network.Message) error {
		rv, err := ss.checkReveal(msg, commitments[msg.From], bind)
		if err != nil {
			return err
		}
		reveals[msg.From] = rv
		return nil
	})
	if err != nil {
		return nil, err
	}

	R, err := nonceCommitment(g, reveals)
	if err != nil {
		return nil, err
	}
	r := math.Mod(R.X, order)
	if r.Sign() == 0 {
		return nil, errors.Wrap(ErrDegenerateNonce, "r is zero")
	}
	ss.log.DebugEvent().Round(4).Msg("round complete")

	// Round 5: partial signatures
	si := partialSignature(e, st.k, r, st.sigma, order)
	if err := ss.broadcast(ctx, network.MessageTypePartialSignature, &partialBody{S: curve.PaddedBytes(si, ScalarSize)}); err != nil {
		return nil, err
	}

	partials := []*big.Int{si}
	err = mb.collect(ctx, network.MessageTypePartialSignature, 1, func(msg *network.Message) error {
		var body partialBody
		if err := decodeBody(msg, &body); err != nil {
			return err
		}
		sj := new(big.Int).SetBytes(body.S)
		if sj.Cmp(order) >= 0 {
			return blame(msg.From, ErrConsistencyViolation, "partial signature out of range")
		}
		partials = append(partials, sj)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ss.finalize(e, r, partials)
}

// prepare draws k_i and gamma_i and computes omega_i
func (ss *Session) prepare(e *big.Int) (*ephemeral, error) {
	key := ss.signer.key
	order := ss.signer.group.Order

	lambda, err := ss.set.Lagrange(key.Index, order)
	if err != nil {
		return nil, err
	}

	k, err := hedgedScalar(ss.signer.rand, "k", key.Share, ss.id, e, order)
	if err != nil {
		return nil, errors.Wrap(err, "sample k")
	}
	gamma, err := hedgedScalar(ss.signer.rand, "gamma", key.Share, ss.id, e, order)
	if err != nil {
		security.SecureZeroBigInt(k)
		return nil, errors.Wrap(err, "sample gamma")
	}

	return &ephemeral{
		k:          k,
		gamma:      gamma,
		omega:      math.ModMul(lambda, key.Share, order),
		alphaDelta: new(big.Int),
		alphaSigma: new(big.Int),
		betaDelta:  new(big.Int),
		betaSigma:  new(big.Int),
		initiators: make(map[mtaSlot]*mta.Initiator, 2*len(ss.set)),
	}, nil
}

// startMtA creates one initiator per (peer, kind), each with its own
// Paillier key, and sends the requests.
func (ss *Session) startMtA(ctx context.Context, st *ephemeral, peers []int) error {
	order := ss.signer.group.Order
	bits := ss.signer.cfg.PaillierBits

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	for _, peer := range peers {
		for _, kind := range mtaKinds {
			peer, kind := peer, kind
			eg.Go(func() error {
				in, req, err := mta.NewInitiator(ss.signer.rand, st.k, order, bits)
				if err != nil {
					return fmt.Errorf("%w: %w", ErrHomomorphicEngineFailure, err)
				}
				mu.Lock()
				st.initiators[mtaSlot{peer: peer, kind: kind}] = in
				mu.Unlock()

				return ss.send(egCtx, peer, network.MessageTypeMtARequest, &mtaRequestBody{
					Kind:       kind,
					Modulus:    req.PublicKey.N.Bytes(),
					Ciphertext: req.Ciphertext.C.Bytes(),
				})
			})
		}
	}
	return eg.Wait()
}

// respondMtA answers every peer request: gamma_i for delta requests,
// omega_i for sigma requests.
func (ss *Session) respondMtA(ctx context.Context, st *ephemeral, requests []*network.Message) error {
	order := ss.signer.group.Order

	type answered struct {
		kind mtaKind
		beta *big.Int
	}
	results := make([]answered, len(requests))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, msg := range requests {
		i, msg := i, msg
		eg.Go(func() error {
			var body mtaRequestBody
			if err := decodeBody(msg, &body); err != nil {
				return err
			}

			var b *big.Int
			switch body.Kind {
			case mtaDelta:
				b = st.gamma
			case mtaSigma:
				b = st.omega
			default:
				return blame(msg.From, ErrConsistencyViolation, "unknown mta kind %d", body.Kind)
			}

			pk, err := paillier.NewPublicKey(new(big.Int).SetBytes(body.Modulus))
			if err != nil {
				return blame(msg.From, ErrConsistencyViolation, "%s request modulus: %v", body.Kind, err)
			}
			req := &mta.Request{
				PublicKey:  pk,
				Ciphertext: &paillier.Ciphertext{C: new(big.Int).SetBytes(body.Ciphertext)},
			}

			resp, beta, err := mta.Respond(ss.signer.rand, req, b, order)
			if err != nil {
				if errors.Is(err, mta.ErrInvalidRequest) || errors.Is(err, mta.ErrModulusTooSmall) {
					return blame(msg.From, ErrConsistencyViolation, "%s request: %v", body.Kind, err)
				}
				return fmt.Errorf("%w: %w", ErrHomomorphicEngineFailure, err)
			}
			results[i] = answered{kind: body.Kind, beta: beta}

			return ss.send(egCtx, msg.From, network.MessageTypeMtAResponse, &mtaResponseBody{
				Kind:       body.Kind,
				Ciphertext: resp.Ciphertext.C.Bytes(),
			})
		})
	}
	err := eg.Wait()

	seen := make(map[mtaSlot]bool, len(requests))
	for i, res := range results {
		if res.beta == nil {
			continue
		}
		slot := mtaSlot{peer: requests[i].From, kind: res.kind}
		if seen[slot] && err == nil {
			err = blame(slot.peer, ErrConsistencyViolation, "duplicate %s request", res.kind)
		}
		seen[slot] = true

		switch res.kind {
		case mtaDelta:
			st.betaDelta = math.ModAdd(st.betaDelta, res.beta, order)
		case mtaSigma:
			st.betaSigma = math.ModAdd(st.betaSigma, res.beta, order)
		}
		security.SecureZeroBigInt(res.beta)
	}
	return err
}

// checkReveal opens a co-signer's Γ_j and checks its proof
func (ss *Session) checkReveal(msg *network.Message, com []byte, bind []byte) (*reveal, error) {
	g := ss.signer.group

	var body revealBody
	if err := decodeBody(msg, &body); err != nil {
		return nil, err
	}

	delta := new(big.Int).SetBytes(body.Delta)
	if delta.Cmp(g.Order) >= 0 {
		return nil, blame(msg.From, ErrConsistencyViolation, "delta share out of range")
	}
	gamma, err := g.Curve.Unmarshal(body.Gamma)
	if err != nil {
		return nil, blame(msg.From, ErrConsistencyViolation, "gamma point: %v", err)
	}
	if !commitment.VerifyCommitmentToCurvePoint(com, gamma, body.Decommitment, bind) {
		return nil, blame(msg.From, ErrConsistencyViolation, "gamma point does not open commitment")
	}
	proof, err := zk.SchnorrProofFromBytes(g.Curve, body.Proof)
	if err != nil || !proof.Verify(g.Curve, gamma, proofContext(bind, msg.From)) {
		return nil, blame(msg.From, ErrConsistencyViolation, "invalid gamma proof")
	}

	return &reveal{delta: delta, gamma: gamma}, nil
}

// finalize sums the partial signatures and applies the configured policy
func (ss *Session) finalize(e, r *big.Int, partials []*big.Int) (*Signature, error) {
	g := ss.signer.group
	cfg := ss.signer.cfg

	s := new(big.Int)
	for _, sj := range partials {
		s = math.ModAdd(s, sj, g.Order)
	}
	if s.Sign() == 0 {
		return nil, errors.Wrap(ErrDegenerateNonce, "s is zero")
	}

	sig := &Signature{R: r, S: s}
	if cfg.LowS {
		sig.normalizeLowS(g)
	}
	if cfg.VerifyResult && !Verify(g, ss.signer.key.PublicKey, e, sig) {
		return nil, errors.Wrap(ErrConsistencyViolation, "combined signature does not verify")
	}
	return sig, nil
}

func (ss *Session) broadcast(ctx context.Context, t network.MessageType, body interface{}) error {
	msg, err := network.NewMessage(t, ss.signer.key.Index, network.BroadcastID, ss.id, body)
	if err != nil {
		return err
	}
	for _, peer := range ss.set.Peers(ss.signer.key.Index) {
		if err := ss.transport.Send(ctx, peer, msg); err != nil {
			return errors.Wrapf(err, "send %s to %d", t, peer)
		}
	}
	return nil
}

func (ss *Session) send(ctx context.Context, peer int, t network.MessageType, body interface{}) error {
	msg, err := network.NewMessage(t, ss.signer.key.Index, peer, ss.id, body)
	if err != nil {
		return err
	}
	return errors.Wrapf(ss.transport.Send(ctx, peer, msg), "send %s to %d", t, peer)
}

// binding ties commitments and proofs to this session and signer set
func (ss *Session) binding() []byte {
	t := hash.NewTranscript("threshold-ecdsa/session").
		WriteBytes(ss.id).
		WritePoint(ss.signer.key.PublicKey)
	for _, idx := range ss.set {
		t.WriteUint(uint64(idx))
	}
	return t.Sum()
}

func proofContext(bind []byte, party int) []byte {
	return hash.NewTranscript("threshold-ecdsa/gamma-proof").
		WriteBytes(bind).
		WriteUint(uint64(party)).
		Sum()
}

// shareOfProduct is a·b + Σα + Σβ, one signer's additive share of the
// product of the summed a and b values.
func shareOfProduct(a, b, alphas, betas, order *big.Int) *big.Int {
	out := math.ModMul(a, b, order)
	out = math.ModAdd(out, alphas, order)
	return math.ModAdd(out, betas, order)
}

// nonceCommitment computes R = delta⁻¹ · ΣΓ_j
func nonceCommitment(g *Group, reveals map[int]*reveal) (*curve.Point, error) {
	delta := new(big.Int)
	sum := g.Curve.Identity()
	for _, rv := range reveals {
		delta = math.ModAdd(delta, rv.delta, g.Order)
		var err error
		if sum, err = g.Curve.Add(sum, rv.gamma); err != nil {
			return nil, errors.Wrap(err, "sum gamma points")
		}
	}

	if delta.Sign() == 0 {
		return nil, errors.Wrap(ErrDegenerateNonce, "delta is zero")
	}
	if sum.IsIdentity() {
		return nil, errors.Wrap(ErrDegenerateNonce, "gamma sum is the identity")
	}

	deltaInv := math.ModInverse(delta, g.Order)
	R, err := g.Curve.ScalarMult(sum, deltaInv)
	if err != nil {
		return nil, errors.Wrap(ErrDegenerateNonce, err.Error())
	}
	return R, nil
}

// partialSignature is s_i = e·k_i + r·sigma_i
func partialSignature(e, k, r, sigma, order *big.Int) *big.Int {
	return math.ModAdd(math.ModMul(e, k, order), math.ModMul(r, sigma, order), order)
}
