// Package storage keeps one signer's key share in a password protected
// file. The share is encrypted with AES-256-GCM under an Argon2id key; the
// metadata stays readable and is bound to the ciphertext as associated data.
package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"

	"github.com/Caqil/threshold-ecdsa/internal/security"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/hash"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/rand"
	"github.com/Caqil/threshold-ecdsa/pkg/dealer"
)

// FormatVersion is written into every file
const FormatVersion = "tecdsa-share/1"

// KeyShareStorage defines the interface for key share storage
type KeyShareStorage interface {
	// Save encrypts and saves a key share with password protection
	Save(share *dealer.KeyShare, password string) error

	// Load decrypts and loads a key share using the password
	Load(password string) (*dealer.KeyShare, error)

	// Delete overwrites and removes the stored key share
	Delete() error

	// Exists checks if a key share exists in storage
	Exists() bool

	// Metadata returns storage metadata without decrypting
	Metadata() (*Metadata, error)

	// ChangePassword re-encrypts the key share with a new password
	ChangePassword(oldPassword, newPassword string) error
}

// Metadata describes a stored share. It never contains secret material.
type Metadata struct {
	Version       string    `cbor:"1,keyasint"`
	Index         int       `cbor:"2,keyasint"`
	Threshold     int       `cbor:"3,keyasint"`
	Parties       int       `cbor:"4,keyasint"`
	Curve         string    `cbor:"5,keyasint"`
	PublicKey     []byte    `cbor:"6,keyasint"`
	CreatedAt     time.Time `cbor:"7,keyasint"`
	EncryptionAlg string    `cbor:"8,keyasint"`
	KDF           KDFParams `cbor:"9,keyasint"`
}

// KDFParams contains key derivation function parameters
type KDFParams struct {
	Time    uint32 `cbor:"1,keyasint"`
	Memory  uint32 `cbor:"2,keyasint"`
	Threads uint8  `cbor:"3,keyasint"`
	Salt    []byte `cbor:"4,keyasint"`
}

type envelope struct {
	Metadata   []byte `cbor:"1,keyasint"`
	Nonce      []byte `cbor:"2,keyasint"`
	Ciphertext []byte `cbor:"3,keyasint"`
	Checksum   []byte `cbor:"4,keyasint"`
}

// Config contains configuration for key share storage
type Config struct {
	// FilePath is the path where the key share is stored
	FilePath string

	// FileMode is the Unix file permissions (default: 0600)
	FileMode os.FileMode

	// Argon2 KDF parameters
	Argon2Time    uint32 // Time cost (iterations)
	Argon2Memory  uint32 // Memory cost (KB)
	Argon2Threads uint8  // Parallelism

	// MinPasswordLength is the minimum password length
	MinPasswordLength int
}

// DefaultConfig returns the default configuration for filePath
func DefaultConfig(filePath string) *Config {
	return &Config{
		FilePath:          filePath,
		FileMode:          0600,
		Argon2Time:        3,
		Argon2Memory:      64 * 1024,
		Argon2Threads:     4,
		MinPasswordLength: 12,
	}
}

// Validate validates the storage configuration
func (c *Config) Validate() error {
	switch {
	case c.FilePath == "":
		return errors.Wrap(ErrInvalidConfig, "file path cannot be empty")
	case c.FileMode&0077 != 0:
		return errors.Wrapf(ErrInvalidConfig, "insecure file permissions %o", c.FileMode)
	case c.Argon2Time < 1:
		return errors.Wrap(ErrInvalidConfig, "argon2 time cost must be at least 1")
	case c.Argon2Memory < 8*1024:
		return errors.Wrap(ErrInvalidConfig, "argon2 memory cost must be at least 8 MB")
	case c.Argon2Threads < 1:
		return errors.Wrap(ErrInvalidConfig, "argon2 threads must be at least 1")
	case c.MinPasswordLength < 8:
		return errors.Wrap(ErrInvalidConfig, "minimum password length must be at least 8")
	}
	return nil
}

func (c *Config) validatePassword(password string) error {
	if len(password) < c.MinPasswordLength {
		return errors.Wrapf(ErrWeakPassword, "must be at least %d characters", c.MinPasswordLength)
	}

	hasLetter, hasNumber := false, false
	for _, ch := range password {
		if ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' {
			hasLetter = true
		}
		if ch >= '0' && ch <= '9' {
			hasNumber = true
		}
	}
	if !hasLetter || !hasNumber {
		return errors.Wrap(ErrWeakPassword, "must contain both letters and numbers")
	}
	return nil
}

func deriveKey(password string, p KDFParams) []byte {
	return argon2.IDKey([]byte(password), p.Salt, p.Time, p.Memory, p.Threads, 32)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// checksum is a BLAKE3 transcript over the envelope fields. It catches
// truncation and bit rot before the password is even tried.
func checksum(parts ...[]byte) []byte {
	t := hash.NewTranscript("threshold-ecdsa/share-envelope")
	for _, p := range parts {
		t.WriteBytes(p)
	}
	return t.Sum()
}

// FileStorage implements KeyShareStorage using an encrypted file
type FileStorage struct {
	config *Config
	rand   io.Reader
}

// NewFileStorage creates a new file-based key share storage
func NewFileStorage(config *Config) (*FileStorage, error) {
	if config == nil {
		return nil, ErrInvalidConfig
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &FileStorage{config: config, rand: rand.Reader}, nil
}

// Save encrypts and saves a key share to disk
func (fs *FileStorage) Save(share *dealer.KeyShare, password string) error {
	if share == nil || share.Validate() != nil {
		return ErrInvalidKeyShare
	}
	if err := fs.config.validatePassword(password); err != nil {
		return err
	}

	body, err := share.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "encode key share")
	}
	defer security.SecureZero(body)

	salt, err := rand.Bytes(fs.rand, 32)
	if err != nil {
		return errors.Wrap(err, "generate salt")
	}
	meta := &Metadata{
		Version:       FormatVersion,
		Index:         share.Index,
		Threshold:     share.Threshold,
		Parties:       share.Parties,
		Curve:         share.Curve.Name(),
		PublicKey:     share.PublicKey.Bytes(),
		CreatedAt:     time.Now().UTC(),
		EncryptionAlg: "AES-256-GCM",
		KDF: KDFParams{
			Time:    fs.config.Argon2Time,
			Memory:  fs.config.Argon2Memory,
			Threads: fs.config.Argon2Threads,
			Salt:    salt,
		},
	}
	metaBytes, err := cbor.Marshal(meta)
	if err != nil {
		return errors.Wrap(err, "encode metadata")
	}

	key := deriveKey(password, meta.KDF)
	defer security.SecureZero(key)

	gcm, err := newGCM(key)
	if err != nil {
		return ErrEncryptionFailed
	}
	nonce, err := rand.Bytes(fs.rand, gcm.NonceSize())
	if err != nil {
		return errors.Wrap(err, "generate nonce")
	}
	ciphertext := gcm.Seal(nil, nonce, body, metaBytes)

	data, err := cbor.Marshal(&envelope{
		Metadata:   metaBytes,
		Nonce:      nonce,
		Ciphertext: ciphertext,
		Checksum:   checksum(metaBytes, nonce, ciphertext),
	})
	if err != nil {
		return errors.Wrap(err, "encode envelope")
	}

	return writeSecureFile(fs.config.FilePath, data, fs.config.FileMode)
}

// Load decrypts and loads a key share from disk
func (fs *FileStorage) Load(password string) (*dealer.KeyShare, error) {
	env, meta, err := fs.read()
	if err != nil {
		return nil, err
	}

	key := deriveKey(password, meta.KDF)
	defer security.SecureZero(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, ErrStorageCorrupted
	}
	if len(env.Nonce) != gcm.NonceSize() {
		return nil, ErrInvalidNonce
	}
	body, err := gcm.Open(nil, env.Nonce, env.Ciphertext, env.Metadata)
	if err != nil {
		return nil, ErrInvalidPassword
	}
	defer security.SecureZero(body)

	share, err := dealer.UnmarshalKeyShare(body)
	if err != nil {
		return nil, errors.Wrap(ErrStorageCorrupted, err.Error())
	}
	if share.Index != meta.Index || share.Threshold != meta.Threshold || share.Parties != meta.Parties {
		return nil, ErrStorageCorrupted
	}
	return share, nil
}

// Metadata returns storage metadata without decrypting
func (fs *FileStorage) Metadata() (*Metadata, error) {
	_, meta, err := fs.read()
	return meta, err
}

func (fs *FileStorage) read() (*envelope, *Metadata, error) {
	data, err := readSecureFile(fs.config.FilePath, fs.config.FileMode)
	if err != nil {
		return nil, nil, err
	}

	var env envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return nil, nil, ErrStorageCorrupted
	}
	if !security.ConstantTimeCompare(env.Checksum, checksum(env.Metadata, env.Nonce, env.Ciphertext)) {
		return nil, nil, ErrChecksumMismatch
	}

	var meta Metadata
	if err := cbor.Unmarshal(env.Metadata, &meta); err != nil {
		return nil, nil, ErrStorageCorrupted
	}
	if meta.Version != FormatVersion {
		return nil, nil, ErrVersionMismatch
	}
	return &env, &meta, nil
}

// Delete overwrites the file with random bytes and removes it
func (fs *FileStorage) Delete() error {
	info, err := os.Stat(fs.config.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrKeyShareNotFound
		}
		return err
	}

	noise, err := rand.Bytes(fs.rand, int(info.Size())+1)
	if err != nil {
		return err
	}
	if err := os.WriteFile(fs.config.FilePath, noise[:info.Size()], fs.config.FileMode); err != nil {
		return err
	}
	return os.Remove(fs.config.FilePath)
}

// Exists checks if a key share exists in storage
func (fs *FileStorage) Exists() bool {
	_, err := os.Stat(fs.config.FilePath)
	return err == nil
}

// ChangePassword re-encrypts the key share with a new password
func (fs *FileStorage) ChangePassword(oldPassword, newPassword string) error {
	share, err := fs.Load(oldPassword)
	if err != nil {
		return err
	}
	defer share.Destroy()

	return fs.Save(share, newPassword)
}

// writeSecureFile writes through a temporary file and renames it into place
func writeSecureFile(path string, data []byte, mode os.FileMode) error {
	tmpPath := path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return errors.Wrap(ErrPermissionDenied, err.Error())
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "write key share")
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "sync key share")
	}
	f.Close()

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "rename key share")
	}
	return nil
}

// readSecureFile reads path after checking its permissions
func readSecureFile(path string, expectedMode os.FileMode) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyShareNotFound
		}
		return nil, err
	}

	if info.Mode().Perm() != expectedMode {
		return nil, errors.Wrapf(ErrPermissionDenied, "file has permissions %o, expected %o",
			info.Mode().Perm(), expectedMode)
	}

	return os.ReadFile(path)
}
