package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Caqil/threshold-ecdsa/pkg/crypto/curve"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/rand"
	"github.com/Caqil/threshold-ecdsa/pkg/dealer"
)

const password = "SecurePassword123"

// testConfig keeps Argon2 cheap enough for the suite
func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig(filepath.Join(t.TempDir(), "keyshare.enc"))
	cfg.Argon2Time = 1
	cfg.Argon2Memory = 8 * 1024
	cfg.Argon2Threads = 1
	return cfg
}

func createTestKeyShares(t *testing.T) []*dealer.KeyShare {
	t.Helper()
	c, err := curve.NewCurve(curve.Secp256k1)
	if err != nil {
		t.Fatalf("Failed to create curve: %v", err)
	}
	d, err := dealer.Deal(rand.Reader, c, 1, 3, nil)
	if err != nil {
		t.Fatalf("Failed to deal shares: %v", err)
	}
	return d.Shares
}

func newStorage(t *testing.T) *FileStorage {
	t.Helper()
	fs, err := NewFileStorage(testConfig(t))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	return fs
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig("/tmp/test.key")

	if config.FileMode != 0600 {
		t.Errorf("Expected FileMode 0600, got %o", config.FileMode)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty path", func(c *Config) { c.FilePath = "" }},
		{"world readable", func(c *Config) { c.FileMode = 0644 }},
		{"zero time", func(c *Config) { c.Argon2Time = 0 }},
		{"low memory", func(c *Config) { c.Argon2Memory = 1024 }},
		{"zero threads", func(c *Config) { c.Argon2Threads = 0 }},
		{"short password policy", func(c *Config) { c.MinPasswordLength = 4 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig("/tmp/test.key")
			tt.modify(config)
			if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestPasswordValidation(t *testing.T) {
	config := DefaultConfig("/tmp/test.key")

	tests := []struct {
		password string
		valid    bool
	}{
		{"short1", false},
		{"onlyletterslong", false},
		{"123456789012", false},
		{"letters4ndNumb3rs", true},
	}
	for _, tt := range tests {
		err := config.validatePassword(tt.password)
		if tt.valid && err != nil {
			t.Errorf("Password %q should be valid: %v", tt.password, err)
		}
		if !tt.valid && !errors.Is(err, ErrWeakPassword) {
			t.Errorf("Password %q should be rejected, got %v", tt.password, err)
		}
	}
}

func TestFileStorage_SaveAndLoad(t *testing.T) {
	storage := newStorage(t)
	share := createTestKeyShares(t)[1]

	if err := storage.Save(share, password); err != nil {
		t.Fatalf("Failed to save key share: %v", err)
	}
	if !storage.Exists() {
		t.Error("Key share file should exist")
	}

	loaded, err := storage.Load(password)
	if err != nil {
		t.Fatalf("Failed to load key share: %v", err)
	}

	if loaded.Index != share.Index {
		t.Errorf("Index mismatch: expected %d, got %d", share.Index, loaded.Index)
	}
	if loaded.Threshold != share.Threshold || loaded.Parties != share.Parties {
		t.Errorf("Threshold mismatch: expected %d/%d, got %d/%d",
			share.Threshold, share.Parties, loaded.Threshold, loaded.Parties)
	}
	if loaded.Share.Cmp(share.Share) != 0 {
		t.Error("Share mismatch")
	}
	if !loaded.PublicKey.IsEqual(share.PublicKey) {
		t.Error("Public key mismatch")
	}
	if len(loaded.VerificationShares) != share.Parties {
		t.Errorf("Expected %d verification shares, got %d", share.Parties, len(loaded.VerificationShares))
	}
}

func TestFileStorage_LoadWithWrongPassword(t *testing.T) {
	storage := newStorage(t)
	if err := storage.Save(createTestKeyShares(t)[0], password); err != nil {
		t.Fatalf("Failed to save key share: %v", err)
	}

	if _, err := storage.Load("WrongPassword123"); err != ErrInvalidPassword {
		t.Errorf("Expected ErrInvalidPassword, got %v", err)
	}
}

func TestFileStorage_TamperedFile(t *testing.T) {
	storage := newStorage(t)
	if err := storage.Save(createTestKeyShares(t)[0], password); err != nil {
		t.Fatalf("Failed to save key share: %v", err)
	}

	data, err := os.ReadFile(storage.config.FilePath)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	data[len(data)-40] ^= 0xff
	if err := os.WriteFile(storage.config.FilePath, data, 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if _, err := storage.Load(password); err == nil {
		t.Error("Tampered file should not load")
	}
}

func TestFileStorage_Metadata(t *testing.T) {
	storage := newStorage(t)
	share := createTestKeyShares(t)[2]
	if err := storage.Save(share, password); err != nil {
		t.Fatalf("Failed to save key share: %v", err)
	}

	meta, err := storage.Metadata()
	if err != nil {
		t.Fatalf("Failed to read metadata: %v", err)
	}
	if meta.Version != FormatVersion {
		t.Errorf("Expected version %s, got %s", FormatVersion, meta.Version)
	}
	if meta.Index != 3 || meta.Threshold != 1 || meta.Parties != 3 {
		t.Errorf("Unexpected metadata %+v", meta)
	}
	if meta.Curve != "secp256k1" {
		t.Errorf("Expected secp256k1, got %s", meta.Curve)
	}
	if len(meta.KDF.Salt) != 32 {
		t.Errorf("Expected 32-byte salt, got %d", len(meta.KDF.Salt))
	}
}

func TestFileStorage_ChangePassword(t *testing.T) {
	storage := newStorage(t)
	share := createTestKeyShares(t)[0]
	if err := storage.Save(share, password); err != nil {
		t.Fatalf("Failed to save key share: %v", err)
	}

	newPassword := "AnotherPassword456"
	if err := storage.ChangePassword(password, newPassword); err != nil {
		t.Fatalf("Failed to change password: %v", err)
	}

	if _, err := storage.Load(password); err != ErrInvalidPassword {
		t.Errorf("Old password should fail, got %v", err)
	}
	loaded, err := storage.Load(newPassword)
	if err != nil {
		t.Fatalf("Failed to load with new password: %v", err)
	}
	if loaded.Share.Cmp(share.Share) != 0 {
		t.Error("Share mismatch after password change")
	}
}

func TestFileStorage_Delete(t *testing.T) {
	storage := newStorage(t)
	if err := storage.Delete(); err != ErrKeyShareNotFound {
		t.Errorf("Expected ErrKeyShareNotFound, got %v", err)
	}

	if err := storage.Save(createTestKeyShares(t)[0], password); err != nil {
		t.Fatalf("Failed to save key share: %v", err)
	}
	if err := storage.Delete(); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if storage.Exists() {
		t.Error("Key share should not exist after deletion")
	}
	if _, err := storage.Load(password); err != ErrKeyShareNotFound {
		t.Errorf("Expected ErrKeyShareNotFound, got %v", err)
	}
}

func TestFilePermissions(t *testing.T) {
	storage := newStorage(t)
	if err := storage.Save(createTestKeyShares(t)[0], password); err != nil {
		t.Fatalf("Failed to save key share: %v", err)
	}

	info, err := os.Stat(storage.config.FilePath)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected permissions 0600, got %o", info.Mode().Perm())
	}

	if err := os.Chmod(storage.config.FilePath, 0644); err != nil {
		t.Fatalf("Failed to chmod: %v", err)
	}
	if _, err := storage.Load(password); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("Expected ErrPermissionDenied, got %v", err)
	}
}

func TestSaveRejectsInvalidShare(t *testing.T) {
	storage := newStorage(t)
	if err := storage.Save(nil, password); err != ErrInvalidKeyShare {
		t.Errorf("Expected ErrInvalidKeyShare, got %v", err)
	}

	share := createTestKeyShares(t)[0]
	if err := storage.Save(share, "weak"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("Expected ErrWeakPassword, got %v", err)
	}
}
