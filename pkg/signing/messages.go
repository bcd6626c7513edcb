package signing

import (
	"github.com/Caqil/threshold-ecdsa/pkg/network"
)

// mtaKind selects which responder scalar an MtA request is paired with
type mtaKind uint8

const (
	mtaDelta mtaKind = iota + 1 // k_i · gamma_j
	mtaSigma                    // k_i · omega_j
)

func (k mtaKind) String() string {
	switch k {
	case mtaDelta:
		return "delta"
	case mtaSigma:
		return "sigma"
	default:
		return "unknown"
	}
}

var mtaKinds = []mtaKind{mtaDelta, mtaSigma}

type commitmentBody struct {
	Commitment []byte `cbor:"1,keyasint"`
}

type mtaRequestBody struct {
	Kind       mtaKind `cbor:"1,keyasint"`
	Modulus    []byte  `cbor:"2,keyasint"`
	Ciphertext []byte  `cbor:"3,keyasint"`
}

type mtaResponseBody struct {
	Kind       mtaKind `cbor:"1,keyasint"`
	Ciphertext []byte  `cbor:"2,keyasint"`
}

type revealBody struct {
	Delta        []byte `cbor:"1,keyasint"`
	Gamma        []byte `cbor:"2,keyasint"`
	Decommitment []byte `cbor:"3,keyasint"`
	Proof        []byte `cbor:"4,keyasint"`
}

type partialBody struct {
	S []byte `cbor:"1,keyasint"`
}

type abortBody struct {
	Reason string `cbor:"1,keyasint"`
}

func decodeBody(msg *network.Message, body interface{}) error {
	if err := network.DecodePayload(msg.Payload, body); err != nil {
		return blame(msg.From, ErrConsistencyViolation, "malformed %s: %v", msg.Type, err)
	}
	return nil
}
