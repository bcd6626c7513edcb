// Package network moves signing messages between parties. Messages are
// framed with a fixed binary header and carry CBOR payloads.
package network

import (
	"context"
	"time"
)

// MessageType identifies the type of message being sent
type MessageType uint8

const (
	// MessageTypeCommitment carries a signer's commitment to its nonce point
	MessageTypeCommitment MessageType = iota + 1
	// MessageTypeMtARequest carries an initiator's key and Enc(k_i)
	MessageTypeMtARequest
	// MessageTypeMtAResponse carries a responder's blinded ciphertext
	MessageTypeMtAResponse
	// MessageTypeReveal carries delta_i and the opened nonce point
	MessageTypeReveal
	// MessageTypePartialSignature carries a signer's s_i
	MessageTypePartialSignature
	// MessageTypeAbort notifies co-signers that a party gave up on the session
	MessageTypeAbort
)

// BroadcastID is the To value of a broadcast message
const BroadcastID = -1

// Message represents a network message
type Message struct {
	// Type identifies the message type
	Type MessageType

	// From is the sender party index
	From int

	// To is the recipient party index (BroadcastID for broadcast)
	To int

	// SessionID uniquely identifies the signing session
	SessionID []byte

	// Payload is the CBOR encoded round data
	Payload []byte

	// Timestamp is when the message was created
	Timestamp time.Time

	// Sequence number assigned by the sending transport
	Sequence uint64
}

// Transport defines the interface for network transport
type Transport interface {
	// Send sends a message to a specific party
	Send(ctx context.Context, partyID int, msg *Message) error

	// Broadcast sends a message to all other parties
	Broadcast(ctx context.Context, msg *Message) error

	// Receive blocks until a message arrives or ctx is done
	Receive(ctx context.Context) (*Message, error)

	// LocalPartyID returns this party's index
	LocalPartyID() int

	// Close releases the transport; pending Receive calls return ErrTransportClosed
	Close() error
}

// IsBroadcast reports whether the message is addressed to every party
func (m *Message) IsBroadcast() bool {
	return m.To == BroadcastID
}
