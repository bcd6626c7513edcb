// Package config loads signer settings from a file, TECDSA_* environment
// variables and command line flags.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Caqil/threshold-ecdsa/pkg/logger"
	"github.com/Caqil/threshold-ecdsa/pkg/signing"
)

// EnvPrefix is prepended to every environment key, e.g. TECDSA_SIGNING_LOW_S
const EnvPrefix = "TECDSA"

// Setting keys
const (
	KeyPaillierBits   = "signing.paillier_bits"
	KeySessionTimeout = "signing.session_timeout"
	KeyLowS           = "signing.low_s"
	KeyVerifyResult   = "signing.verify_result"
	KeyLogLevel       = "log.level"
	KeyLogPretty      = "log.pretty"
	KeyShareDir       = "storage.share_dir"
)

// Settings wraps a viper instance
type Settings struct {
	v *viper.Viper
}

// New returns settings holding only the defaults
func New() *Settings {
	v := viper.New()
	def := signing.DefaultConfig()
	v.SetDefault(KeyPaillierBits, def.PaillierBits)
	v.SetDefault(KeySessionTimeout, def.SessionTimeout)
	v.SetDefault(KeyLowS, def.LowS)
	v.SetDefault(KeyVerifyResult, def.VerifyResult)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogPretty, false)
	v.SetDefault(KeyShareDir, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Settings{v: v}
}

// Load reads path (yaml, json or toml by extension) over the defaults.
// An empty path loads defaults and environment only.
func Load(path string) (*Settings, error) {
	s := New()
	if path == "" {
		return s, nil
	}

	s.v.SetConfigFile(path)
	if err := s.v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	return s, nil
}

// BindPFlags lets flags override file and environment values
func (s *Settings) BindPFlags(flags *pflag.FlagSet) error {
	return s.v.BindPFlags(flags)
}

// Set overrides a key
func (s *Settings) Set(key string, val interface{}) {
	s.v.Set(key, val)
}

// GetString returns the value of key as a string
func (s *Settings) GetString(key string) string {
	return s.v.GetString(key)
}

// Signing returns the validated signing configuration
func (s *Settings) Signing() (*signing.Config, error) {
	cfg := &signing.Config{
		PaillierBits:   s.v.GetInt(KeyPaillierBits),
		SessionTimeout: s.v.GetDuration(KeySessionTimeout),
		LowS:           s.v.GetBool(KeyLowS),
		VerifyResult:   s.v.GetBool(KeyVerifyResult),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Logger returns the logger configuration writing to stderr
func (s *Settings) Logger() *logger.Config {
	return &logger.Config{
		Level:      s.v.GetString(KeyLogLevel),
		Output:     os.Stderr,
		Pretty:     s.v.GetBool(KeyLogPretty),
		TimeFormat: time.RFC3339,
	}
}
