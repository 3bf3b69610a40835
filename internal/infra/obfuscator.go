package infra

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
)

// Linux session-service name patterns. The daemons run next to shutdown(8)
// and a /var/tmp registry, so the names blend in with the service processes
// a ps listing shows on a desktop Linux session.
var namePrefixes = []string{
	"systemd",
	"dbus",
	"gvfsd",
	"pipewire",
	"udisks",
	"polkit",
	"xdg-desktop",
	"gnome-session",
}

var nameSuffixes = []string{
	"helper",
	"agent",
	"worker",
	"monitor",
	"portal",
	"spawn",
}

// ObfuscatorImpl implements domain.Obfuscator.
type ObfuscatorImpl struct{}

// NewObfuscator creates a new process name obfuscator.
func NewObfuscator() domain.Obfuscator {
	return &ObfuscatorImpl{}
}

// GenerateName creates a random system-looking process name.
// Examples:
//   - systemd-helper-a1b2c3
//   - dbus-agent-d4e5f6
//   - xdg-desktop-worker-789abc
func (o *ObfuscatorImpl) GenerateName() string {
	prefix := namePrefixes[randomIndex(len(namePrefixes))]
	suffix := nameSuffixes[randomIndex(len(nameSuffixes))]

	return fmt.Sprintf("%s-%s-%s", prefix, suffix, randomHex(6))
}

// randomIndex returns a cryptographically random int in [0, n).
func randomIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// randomHex generates a random hex string of length chars.
func randomHex(length int) string {
	raw := make([]byte, length/2+1)
	if _, err := rand.Read(raw); err != nil {
		return "000000"
	}
	return hex.EncodeToString(raw)[:length]
}

// Ensure ObfuscatorImpl implements domain.Obfuscator.
var _ domain.Obfuscator = (*ObfuscatorImpl)(nil)
