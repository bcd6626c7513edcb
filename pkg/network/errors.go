package network

import "errors"

var (
	// ErrInvalidPartyID is returned when party ID is invalid
	ErrInvalidPartyID = errors.New("invalid party ID")

	// ErrUnknownParty is returned when sending to a party not on the network
	ErrUnknownParty = errors.New("unknown party")

	// ErrMessageTooLarge is returned when message exceeds size limit
	ErrMessageTooLarge = errors.New("message too large")

	// ErrInvalidMessage is returned when message is malformed
	ErrInvalidMessage = errors.New("invalid message")

	// ErrUnsupportedVersion is returned for frames from another protocol version
	ErrUnsupportedVersion = errors.New("unsupported protocol version")

	// ErrTransportClosed is returned when transport is closed
	ErrTransportClosed = errors.New("transport closed")
)
