// Package signing implements threshold ECDSA signing over Shamir shares
// from a trusted dealer.
//
// A qualified set S of threshold+1 signers produces an ordinary ECDSA
// signature without reconstructing the key. Signer i holds share x_i and
// uses omega_i = lambda_i(S)·x_i, so that Σ omega_i = x.
//
// Rounds, per signer i:
//
//	1. draw k_i, gamma_i; broadcast a commitment to Γ_i = gamma_i·G
//	2. for every peer j run two MtA exchanges as initiator with k_i,
//	   answering j's requests with gamma_i and omega_i
//	3. delta_i = k_i·gamma_i + Σα + Σβ, sigma_i likewise with omega_i
//	4. broadcast delta_i and open Γ_i with a proof of knowledge of gamma_i;
//	   R = delta⁻¹·ΣΓ_j, r = R.x mod n
//	5. broadcast s_i = e·k_i + r·sigma_i; s = Σ s_j
//
// Then k·gamma = delta, so R = k⁻¹·G, and Σ sigma_j = k·x, so s = k(e + r·x).
package signing

import (
	"context"
	"crypto/sha256"
	"io"
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/Caqil/threshold-ecdsa/pkg/crypto/curve"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/hash"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/rand"
	"github.com/Caqil/threshold-ecdsa/pkg/dealer"
	"github.com/Caqil/threshold-ecdsa/pkg/logger"
	"github.com/Caqil/threshold-ecdsa/pkg/mta"
	"github.com/Caqil/threshold-ecdsa/pkg/network"
)

// SessionIDSize is the length of identifiers from NewSessionID
const SessionIDSize = 32

// abortTimeout bounds the best-effort abort notification
const abortTimeout = time.Second

// Signer holds one party's long-lived signing material
type Signer struct {
	key   *dealer.KeyShare
	group *Group
	cfg   *Config
	log   *logger.Logger
	rand  io.Reader
}

// NewSigner creates a signer for key. A nil cfg means DefaultConfig and a
// nil log discards output.
func NewSigner(key *dealer.KeyShare, cfg *Config, log *logger.Logger) (*Signer, error) {
	if key == nil {
		return nil, ErrInvalidKeyShare
	}
	if err := key.Validate(); err != nil {
		return nil, errors.Wrap(ErrInvalidKeyShare, err.Error())
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	group, err := NewGroup(key.Curve)
	if err != nil {
		return nil, err
	}
	if floor := mta.MinModulusBits(group.Order); cfg.PaillierBits < floor {
		return nil, errors.Wrapf(ErrInvalidConfig, "paillier bits %d below %d", cfg.PaillierBits, floor)
	}

	if log == nil {
		log = logger.Nop()
	}

	return &Signer{
		key:   key,
		group: group,
		cfg:   cfg,
		log:   log.With().Party(key.Index).Logger(),
		rand:  rand.Reader,
	}, nil
}

// SetRandom replaces the randomness source. Tests use a deterministic reader.
func (s *Signer) SetRandom(r io.Reader) {
	s.rand = r
}

// Group returns the signer's group parameters
func (s *Signer) Group() *Group {
	return s.group
}

// PublicKey returns the group public key
func (s *Signer) PublicKey() *curve.Point {
	return s.key.PublicKey
}

// NewSessionID derives a fresh session identifier bound to the signer set
// and group key. One party creates it and hands it to every co-signer.
func NewSessionID(r io.Reader, signers []int, pub *curve.Point) ([]byte, error) {
	fresh, err := rand.Bytes(r, 32)
	if err != nil {
		return nil, err
	}
	t := hash.NewTranscript("threshold-ecdsa/session-id").WriteBytes(fresh).WritePoint(pub)
	for _, idx := range signers {
		t.WriteUint(uint64(idx))
	}
	return t.Sum(), nil
}

// Session is one signing attempt by one signer. It signs at most once.
type Session struct {
	signer    *Signer
	set       QualifiedSet
	id        []byte
	transport network.Transport
	log       *logger.Logger

	mu   sync.Mutex
	used bool
}

// NewSession prepares a session over transport with the given signers.
// The set is checked before any cryptographic work.
func (s *Signer) NewSession(transport network.Transport, signers []int, sessionID []byte) (*Session, error) {
	set, err := NewQualifiedSet(signers, s.key.Threshold, s.key.Parties)
	if err != nil {
		return nil, err
	}
	if !set.Contains(s.key.Index) {
		return nil, errors.Wrapf(ErrInvalidShareSet, "local signer %d not in set", s.key.Index)
	}
	if len(sessionID) == 0 || len(sessionID) > network.MaxSessionIDSize {
		return nil, ErrInvalidSessionID
	}
	if transport == nil || transport.LocalPartyID() != s.key.Index {
		return nil, errors.Wrap(ErrInvalidKeyShare, "transport does not belong to this signer")
	}

	id := make([]byte, len(sessionID))
	copy(id, sessionID)

	return &Session{
		signer:    s,
		set:       set,
		id:        id,
		transport: transport,
		log:       s.log.With().Session(id).Logger(),
	}, nil
}

// ID returns the session identifier
func (ss *Session) ID() []byte {
	return ss.id
}

// Signers returns the sorted qualified set
func (ss *Session) Signers() []int {
	return append([]int(nil), ss.set...)
}

// Sign signs the SHA-256 digest of message
func (ss *Session) Sign(ctx context.Context, message []byte) (*Signature, error) {
	digest := sha256.Sum256(message)
	return ss.SignHash(ctx, digest[:])
}

// SignHash signs a precomputed digest. The digest is truncated to the
// order's bit length as in ECDSA.
func (ss *Session) SignHash(ctx context.Context, digest []byte) (*Signature, error) {
	if len(digest) == 0 {
		return nil, ErrInvalidMessage
	}

	ss.mu.Lock()
	if ss.used {
		ss.mu.Unlock()
		return nil, ErrSessionConsumed
	}
	ss.used = true
	ss.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, ss.signer.cfg.SessionTimeout)
	defer cancel()

	start := time.Now()
	ss.log.InfoEvent().Signers(ss.set).Msg("signing session started")

	e := hash.HashToInt(digest, ss.signer.group.Order)
	sig, err := ss.run(ctx, e)
	if err != nil {
		err = classify(err)
		ss.report(err)
		ss.abort(err)
		return nil, err
	}

	ss.log.InfoEvent().
		Hex("r", curve.PaddedBytes(sig.R, ScalarSize)).
		Dur("elapsed", time.Since(start)).
		Msg("signing session completed")
	return sig, nil
}

// Destroy marks the session used without signing
func (ss *Session) Destroy() {
	ss.mu.Lock()
	ss.used = true
	ss.mu.Unlock()
}

func (ss *Session) report(err error) {
	ev := ss.log.WarnEvent()
	if errors.Is(err, ErrConsistencyViolation) {
		ev = ss.log.ErrorEvent()
	}
	if party, ok := Culprit(err); ok {
		ev = ev.Culprit(party)
	}
	ev.Bool("retryable", IsRetryable(err)).Err(err).Msg("signing session aborted")
}

// abort tells co-signers to stop waiting. Failures are ignored.
func (ss *Session) abort(cause error) {
	if errors.Is(cause, ErrPeerAborted) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), abortTimeout)
	defer cancel()

	msg, err := network.NewMessage(network.MessageTypeAbort, ss.signer.key.Index, network.BroadcastID, ss.id, &abortBody{Reason: cause.Error()})
	if err != nil {
		return
	}
	for _, peer := range ss.set.Peers(ss.signer.key.Index) {
		_ = ss.transport.Send(ctx, peer, msg)
	}
}

// classify maps context expiry onto ErrProtocolTimeout
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrProtocolTimeout) {
		return errors.Wrap(ErrProtocolTimeout, err.Error())
	}
	return err
}

func messageDigest(g *Group, msg []byte) *big.Int {
	return hash.MessageDigest(msg, g.Order)
}
