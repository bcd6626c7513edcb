package network

import (
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"golang.org/x/crypto/cryptobyte"
)

const (
	// CurrentProtocolVersion is the frame version written by Serialize
	CurrentProtocolVersion uint16 = 1

	// HeaderSize is the fixed part of a frame: version, type, from, to,
	// sequence, timestamp and the two length prefixes.
	HeaderSize = 2 + 1 + 4 + 4 + 8 + 8 + 1 + 4

	// MaxSessionIDSize is the largest accepted session identifier
	MaxSessionIDSize = 64

	// MaxPayloadSize bounds a single payload. An MtA request with a
	// 4096-bit modulus is well under 4 KiB.
	MaxPayloadSize = 1 << 20
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = (cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		MaxArrayElements: 1024,
		MaxMapPairs:      1024,
	}).DecMode(); err != nil {
		panic(err)
	}
}

// Serialize writes the frame
//
//	version u16 | type u8 | from i32 | to i32 | seq u64 | unix nanos u64 |
//	session id (u8 length) | payload (u32 length)
//
// in network byte order.
func (m *Message) Serialize() ([]byte, error) {
	if len(m.SessionID) > MaxSessionIDSize {
		return nil, ErrInvalidMessage
	}
	if len(m.Payload) > MaxPayloadSize {
		return nil, ErrMessageTooLarge
	}

	b := cryptobyte.NewBuilder(make([]byte, 0, HeaderSize+len(m.SessionID)+len(m.Payload)))
	b.AddUint16(CurrentProtocolVersion)
	b.AddUint8(uint8(m.Type))
	b.AddUint32(uint32(int32(m.From)))
	b.AddUint32(uint32(int32(m.To)))
	b.AddUint64(m.Sequence)
	b.AddUint64(uint64(m.Timestamp.UnixNano()))
	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(m.SessionID)
	})
	b.AddUint32(uint32(len(m.Payload)))
	b.AddBytes(m.Payload)

	frame, err := b.Bytes()
	if err != nil {
		return nil, errors.Wrap(ErrInvalidMessage, err.Error())
	}
	return frame, nil
}

// DeserializeMessage parses and validates a frame produced by Serialize.
// Trailing bytes are an error.
func DeserializeMessage(data []byte) (*Message, error) {
	if len(data) < HeaderSize {
		return nil, ErrInvalidMessage
	}

	s := cryptobyte.String(data)
	var (
		version     uint16
		msgType     uint8
		from, to    uint32
		seq, nanos  uint64
		sessionID   cryptobyte.String
		payloadSize uint32
		payload     []byte
	)
	if !s.ReadUint16(&version) {
		return nil, ErrInvalidMessage
	}
	if version != CurrentProtocolVersion {
		return nil, ErrUnsupportedVersion
	}
	if !s.ReadUint8(&msgType) ||
		!s.ReadUint32(&from) ||
		!s.ReadUint32(&to) ||
		!s.ReadUint64(&seq) ||
		!s.ReadUint64(&nanos) ||
		!s.ReadUint8LengthPrefixed(&sessionID) ||
		!s.ReadUint32(&payloadSize) ||
		payloadSize > MaxPayloadSize ||
		!s.ReadBytes(&payload, int(payloadSize)) ||
		!s.Empty() {
		return nil, ErrInvalidMessage
	}

	msg := &Message{
		Type:      MessageType(msgType),
		From:      int(int32(from)),
		To:        int(int32(to)),
		SessionID: append([]byte(nil), sessionID...),
		Payload:   append([]byte(nil), payload...),
		Timestamp: time.Unix(0, int64(nanos)),
		Sequence:  seq,
	}
	if err := ValidateMessage(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// NewMessage builds a message with an encoded payload
func NewMessage(msgType MessageType, from, to int, sessionID []byte, body interface{}) (*Message, error) {
	payload, err := EncodePayload(body)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      msgType,
		From:      from,
		To:        to,
		SessionID: sessionID,
		Payload:   payload,
		Timestamp: time.Now(),
	}, nil
}

// EncodePayload encodes a round body as deterministic CBOR
func EncodePayload(data interface{}) ([]byte, error) {
	out, err := encMode.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "encode payload")
	}
	return out, nil
}

// DecodePayload decodes payload into data
func DecodePayload(payload []byte, data interface{}) error {
	if err := decMode.Unmarshal(payload, data); err != nil {
		return errors.Wrap(err, "decode payload")
	}
	return nil
}

// ValidateMessage checks the routing fields of a message. It does not
// look inside the payload.
func ValidateMessage(msg *Message) error {
	if msg == nil {
		return ErrInvalidMessage
	}

	if msg.From <= 0 {
		return ErrInvalidPartyID
	}

	if msg.To <= 0 && msg.To != BroadcastID {
		return ErrInvalidPartyID
	}

	if len(msg.SessionID) == 0 || len(msg.SessionID) > MaxSessionIDSize {
		return ErrInvalidMessage
	}

	if len(msg.Payload) > MaxPayloadSize {
		return ErrMessageTooLarge
	}

	if msg.Type < MessageTypeCommitment || msg.Type > MessageTypeAbort {
		return ErrInvalidMessage
	}

	return nil
}

// Clone creates a deep copy of a message
func (m *Message) Clone() *Message {
	clone := *m
	clone.SessionID = append([]byte(nil), m.SessionID...)
	clone.Payload = append([]byte(nil), m.Payload...)
	return &clone
}

// String returns a string representation of message type
func (mt MessageType) String() string {
	switch mt {
	case MessageTypeCommitment:
		return "COMMITMENT"
	case MessageTypeMtARequest:
		return "MTA_REQUEST"
	case MessageTypeMtAResponse:
		return "MTA_RESPONSE"
	case MessageTypeReveal:
		return "REVEAL"
	case MessageTypePartialSignature:
		return "PARTIAL_SIGNATURE"
	case MessageTypeAbort:
		return "ABORT"
	default:
		return "UNKNOWN"
	}
}
