package infra

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
)

// historyKeySize is the SQLCipher passphrase length for the history store.
const historyKeySize = 32

// FileKeyProvider implements domain.KeyProvider for the history store key.
// The key sits in a hidden file next to the database, its name derived from
// the hostname the same way the registry file hides, so a casual ls of the
// data directory gives neither away.
type FileKeyProvider struct {
	keyPath string
}

// NewFileKeyProvider creates a FileKeyProvider for the given data directory.
func NewFileKeyProvider(dataDir string) *FileKeyProvider {
	hostname, _ := os.Hostname()
	hash := md5.Sum([]byte("nightmon-history-key-" + hostname))
	filename := ".cf_idx_" + hex.EncodeToString(hash[:])[:8]

	return &FileKeyProvider{
		keyPath: filepath.Join(dataDir, filename),
	}
}

// GetKey reads and decodes the history store key.
// The key is stored hex-encoded, the same form the SQLCipher DSN takes it in.
func (p *FileKeyProvider) GetKey() ([]byte, error) {
	raw, err := os.ReadFile(p.keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	key, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode key: %w", err)
	}
	if len(key) != historyKeySize {
		return nil, fmt.Errorf("invalid key size: got %d, want %d", len(key), historyKeySize)
	}
	return key, nil
}

// StoreKey writes the key with restricted permissions. The write is atomic
// (temp file + rename) so a crash mid-write cannot strand the history store
// behind a truncated key.
func (p *FileKeyProvider) StoreKey(key []byte) error {
	if len(key) != historyKeySize {
		return fmt.Errorf("invalid key size: got %d, want %d", len(key), historyKeySize)
	}
	if err := os.MkdirAll(filepath.Dir(p.keyPath), 0700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", p.keyPath, os.Getpid())
	if err := os.WriteFile(tmpPath, []byte(hex.EncodeToString(key)), 0600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	if err := os.Rename(tmpPath, p.keyPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to place key file: %w", err)
	}
	return nil
}

// KeyExists checks if the key file exists.
func (p *FileKeyProvider) KeyExists() bool {
	_, err := os.Stat(p.keyPath)
	return err == nil
}

// GenerateKey creates a new random history store key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, historyKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate random key: %w", err)
	}
	return key, nil
}

// EnsureKey generates and stores a key if one doesn't exist.
// Returns the key (existing or newly generated).
func EnsureKey(provider domain.KeyProvider) ([]byte, error) {
	if provider.KeyExists() {
		return provider.GetKey()
	}
	key, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	if err := provider.StoreKey(key); err != nil {
		return nil, err
	}
	return key, nil
}

// Ensure FileKeyProvider implements domain.KeyProvider.
var _ domain.KeyProvider = (*FileKeyProvider)(nil)
