package infra

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/LimTec-de/dockapptoggler/internal/domain"
)

const registryDir = "/var/tmp"

// FileRegistry implements domain.DaemonRegistry using a hidden JSON file.
// The filename is derived from the hostname so parallel users on one
// machine do not collide.
type FileRegistry struct {
	path string
}

// NewFileRegistry creates a file-based daemon registry.
func NewFileRegistry() *FileRegistry {
	hostname, _ := os.Hostname()
	hash := md5.Sum([]byte("docktoggler-registry-" + hostname))
	filename := ".docktoggler_" + hex.EncodeToString(hash[:])[:8]

	return &FileRegistry{path: filepath.Join(registryDir, filename)}
}

// NewFileRegistryWithPath creates a registry at a specific path (for testing).
func NewFileRegistryWithPath(path string) *FileRegistry {
	return &FileRegistry{path: path}
}

// Path returns the registry file location.
func (r *FileRegistry) Path() string {
	return r.path
}

// Register saves the current daemon's PID and start time.
func (r *FileRegistry) Register(pid int, version string) error {
	// File lock guards against a start command racing a dying daemon.
	lockPath := r.path + ".lock"
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}
	defer lockFile.Close()

	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() { _ = syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN) }()

	now := time.Now().Unix()
	entry := &domain.RegistryEntry{
		Version:       1,
		PID:           pid,
		StartedAt:     now,
		LastHeartbeat: now,
		AppVersion:    version,
	}
	return r.atomicWrite(entry)
}

// UpdateHeartbeat updates the liveness timestamp.
func (r *FileRegistry) UpdateHeartbeat() error {
	entry, err := r.Get()
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("daemon not registered")
	}

	entry.LastHeartbeat = time.Now().Unix()
	return r.atomicWrite(entry)
}

// Get returns the full registry state, nil when absent.
func (r *FileRegistry) Get() (*domain.RegistryEntry, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entry domain.RegistryEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Clear removes the registry file.
func (r *FileRegistry) Clear() error {
	err := os.Remove(r.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// IsDaemonAlive reports whether the registered PID is still running.
func (r *FileRegistry) IsDaemonAlive() (bool, error) {
	entry, err := r.Get()
	if err != nil || entry == nil {
		return false, err
	}
	return pidRunning(entry.PID), nil
}

// atomicWrite writes the registry file via write + rename.
func (r *FileRegistry) atomicWrite(entry *domain.RegistryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", r.path, os.Getpid())
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// pidRunning sends signal 0 to probe for process existence.
func pidRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// Ensure FileRegistry implements domain.DaemonRegistry.
var _ domain.DaemonRegistry = (*FileRegistry)(nil)
