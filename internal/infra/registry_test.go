package infra

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
)

// stubProcessManager lets tests control liveness answers.
type stubProcessManager struct {
	running map[int]bool
}

func (s *stubProcessManager) List() ([]domain.Process, error) { return nil, nil }
func (s *stubProcessManager) Terminate(pid int) error         { return nil }
func (s *stubProcessManager) IsRunning(pid int) bool          { return s.running[pid] }
func (s *stubProcessManager) GetCurrentPID() int              { return os.Getpid() }

func tempRegistry(t *testing.T, pm domain.ProcessManager) domain.DaemonRegistry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.json")
	return NewFileRegistryWithPath(path, pm)
}

func TestFileRegistry_RegisterAndGetPartner(t *testing.T) {
	reg := tempRegistry(t, &stubProcessManager{})

	require.NoError(t, reg.Register(domain.Daemon{
		PID: 1111, Role: domain.RoleCurfew, ObfuscatedName: "systemd-agent-a1b2c3",
	}))
	require.NoError(t, reg.Register(domain.Daemon{
		PID: 2222, Role: domain.RoleGuardian, ObfuscatedName: "dbus-helper-d4e5f6",
	}))

	// Guardian is the curfew daemon's partner.
	partner, err := reg.GetPartner(domain.RoleCurfew)
	require.NoError(t, err)
	assert.Equal(t, 2222, partner.PID)
	assert.Equal(t, domain.RoleGuardian, partner.Role)
	assert.Equal(t, "dbus-helper-d4e5f6", partner.ObfuscatedName)

	// And vice versa.
	partner, err = reg.GetPartner(domain.RoleGuardian)
	require.NoError(t, err)
	assert.Equal(t, 1111, partner.PID)
	assert.Equal(t, domain.RoleCurfew, partner.Role)
}

func TestFileRegistry_SecondRegisterKeepsFirst(t *testing.T) {
	reg := tempRegistry(t, &stubProcessManager{})

	require.NoError(t, reg.Register(domain.Daemon{PID: 10, Role: domain.RoleCurfew, ObfuscatedName: "a"}))
	require.NoError(t, reg.Register(domain.Daemon{PID: 20, Role: domain.RoleGuardian, ObfuscatedName: "b"}))

	entry, err := reg.GetAll()
	require.NoError(t, err)
	assert.Equal(t, 10, entry.CurfewPID)
	assert.Equal(t, 20, entry.GuardianPID)
}

func TestFileRegistry_IsPartnerAlive(t *testing.T) {
	pm := &stubProcessManager{running: map[int]bool{2222: true}}
	reg := tempRegistry(t, pm)

	// Nothing registered: not alive, not an error.
	alive, err := reg.IsPartnerAlive(domain.RoleCurfew)
	require.NoError(t, err)
	assert.False(t, alive)

	require.NoError(t, reg.Register(domain.Daemon{PID: 2222, Role: domain.RoleGuardian, ObfuscatedName: "g"}))

	alive, err = reg.IsPartnerAlive(domain.RoleCurfew)
	require.NoError(t, err)
	assert.True(t, alive)

	pm.running[2222] = false
	alive, err = reg.IsPartnerAlive(domain.RoleCurfew)
	require.NoError(t, err)
	assert.False(t, alive)
}

func TestFileRegistry_Clear(t *testing.T) {
	reg := tempRegistry(t, &stubProcessManager{})
	require.NoError(t, reg.Register(domain.Daemon{PID: 1, Role: domain.RoleCurfew, ObfuscatedName: "x"}))
	require.NoError(t, reg.Clear())

	entry, err := reg.GetAll()
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestKeyProvider_RoundTrip(t *testing.T) {
	provider := NewFileKeyProvider(t.TempDir())
	assert.False(t, provider.KeyExists())

	key, err := EnsureKey(provider)
	require.NoError(t, err)
	require.Len(t, key, 32)
	assert.True(t, provider.KeyExists())

	// Second call returns the stored key, not a fresh one.
	again, err := EnsureKey(provider)
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestKeyProvider_HidesKeyFile(t *testing.T) {
	dir := t.TempDir()
	provider := NewFileKeyProvider(dir)

	_, err := EnsureKey(provider)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), ".cf_idx_"),
		"key file %q is not hidden", entries[0].Name())
}

func TestKeyProvider_RejectsWrongKeySize(t *testing.T) {
	provider := NewFileKeyProvider(t.TempDir())
	err := provider.StoreKey([]byte("short"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid key size")
}
