package signing

import (
	"io"
	"math/big"

	"github.com/Caqil/threshold-ecdsa/internal/security"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/hash"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/rand"
)

// hedgedScalar draws 32 fresh bytes from r and hashes them together with
// the signer's share, the session and the digest. The result is uniform in
// [1, order) while r is sound, and still differs between sessions and
// messages when r repeats.
func hedgedScalar(r io.Reader, label string, share *big.Int, sessionID []byte, e, order *big.Int) (*big.Int, error) {
	fresh, err := rand.Bytes(r, 32)
	if err != nil {
		return nil, err
	}
	defer security.SecureZero(fresh)

	return hash.NewTranscript("threshold-ecdsa/nonce").
		WriteBytes([]byte(label)).
		WriteBytes(fresh).
		WriteInt(share).
		WriteBytes(sessionID).
		WriteInt(e).
		Challenge(order), nil
}
