package signing

import (
	"context"
	"errors"
	"fmt"

	"github.com/Caqil/threshold-ecdsa/internal/security"
	"github.com/Caqil/threshold-ecdsa/pkg/logger"
	"github.com/Caqil/threshold-ecdsa/pkg/network"
)

// mailbox reads one session's messages off a transport. Messages for a
// later round are held until that round asks for them.
type mailbox struct {
	transport network.Transport
	sessionID []byte
	peers     []int
	log       *logger.Logger

	pending []*network.Message
}

// collect delivers perPeer messages of type t from every peer to handle.
// It fails on a peer abort, an extra message, a handler error or ctx expiry.
func (mb *mailbox) collect(ctx context.Context, t network.MessageType, perPeer int, handle func(*network.Message) error) error {
	counts := make(map[int]int, len(mb.peers))
	remaining := perPeer * len(mb.peers)

	accept := func(msg *network.Message) error {
		if counts[msg.From] >= perPeer {
			return blame(msg.From, ErrConsistencyViolation, "unexpected extra %s", t)
		}
		counts[msg.From]++
		remaining--
		return handle(msg)
	}

	kept := mb.pending[:0]
	var stashed []*network.Message
	for _, msg := range mb.pending {
		if msg.Type == t {
			stashed = append(stashed, msg)
		} else {
			kept = append(kept, msg)
		}
	}
	mb.pending = kept
	for _, msg := range stashed {
		if err := accept(msg); err != nil {
			return err
		}
	}

	for remaining > 0 {
		msg, err := mb.transport.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return mb.timeout(ctx, t, counts, perPeer)
			}
			return fmt.Errorf("receive %s: %w", t, err)
		}

		if !security.ConstantTimeCompare(msg.SessionID, mb.sessionID) {
			mb.log.WarnEvent().
				From(msg.From).
				Str("other_session", logger.ShortID(msg.SessionID)).
				Err(ErrSessionMismatch).
				Msg("dropping message")
			continue
		}
		if !mb.isPeer(msg.From) {
			mb.log.WarnEvent().From(msg.From).Msg("dropping message from non-member")
			continue
		}

		switch msg.Type {
		case network.MessageTypeAbort:
			var body abortBody
			_ = network.DecodePayload(msg.Payload, &body)
			return blame(msg.From, ErrPeerAborted, "%s", body.Reason)
		case t:
			if err := accept(msg); err != nil {
				return err
			}
		default:
			mb.pending = append(mb.pending, msg)
		}
	}
	return nil
}

func (mb *mailbox) timeout(ctx context.Context, t network.MessageType, counts map[int]int, perPeer int) error {
	if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("waiting for %s: %w", t, ctx.Err())
	}
	for _, p := range mb.peers {
		if counts[p] < perPeer {
			return blame(p, ErrProtocolTimeout, "no %s before deadline", t)
		}
	}
	return fmt.Errorf("%w: waiting for %s", ErrProtocolTimeout, t)
}

func (mb *mailbox) isPeer(idx int) bool {
	for _, p := range mb.peers {
		if p == idx {
			return true
		}
	}
	return false
}
