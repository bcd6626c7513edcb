package rand

import (
	"io"
	"sync"

	"github.com/zeebo/blake3"
)

// deterministicReader is an endless BLAKE3 XOF stream keyed by a seed.
type deterministicReader struct {
	mu     sync.Mutex
	digest *blake3.Digest
}

// NewDeterministicReader returns a goroutine-safe reader producing the same
// byte stream for the same seed. It exists for reproducible tests and must
// never back a production signing session.
func NewDeterministicReader(seed []byte) io.Reader {
	h := blake3.New()
	_, _ = h.Write([]byte("threshold-ecdsa deterministic reader"))
	_, _ = h.Write(seed)
	return &deterministicReader{digest: h.Digest()}
}

func (d *deterministicReader) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.digest.Read(p)
}
