package signing

import (
	"time"

	"github.com/pkg/errors"

	"github.com/Caqil/threshold-ecdsa/pkg/paillier"
)

const (
	// MinSecurePaillierBits is the smallest MtA modulus accepted unless
	// AllowWeakPaillier is set
	MinSecurePaillierBits = 2048

	// DefaultSessionTimeout bounds a whole signing session
	DefaultSessionTimeout = 2 * time.Minute
)

// Config holds signing session parameters
type Config struct {
	// PaillierBits is the modulus size of every ephemeral MtA key pair
	PaillierBits int

	// SessionTimeout is the deadline for one complete session
	SessionTimeout time.Duration

	// LowS replaces s with order-s when s > order/2
	LowS bool

	// VerifyResult checks the combined signature against the group key
	VerifyResult bool

	// AllowWeakPaillier lowers the modulus floor to what MtA correctness
	// needs. Only tests set it
	AllowWeakPaillier bool
}

// DefaultConfig returns the production defaults
func DefaultConfig() *Config {
	return &Config{
		PaillierBits:   paillier.DefaultBits,
		SessionTimeout: DefaultSessionTimeout,
		LowS:           true,
		VerifyResult:   true,
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c == nil {
		return ErrInvalidConfig
	}
	if c.SessionTimeout <= 0 {
		return errors.Wrap(ErrInvalidConfig, "session timeout must be positive")
	}
	if c.PaillierBits < paillier.MinBits {
		return errors.Wrapf(ErrInvalidConfig, "paillier bits %d below %d", c.PaillierBits, paillier.MinBits)
	}
	if !c.AllowWeakPaillier && c.PaillierBits < MinSecurePaillierBits {
		return errors.Wrapf(ErrInvalidConfig, "paillier bits %d below %d", c.PaillierBits, MinSecurePaillierBits)
	}
	return nil
}
