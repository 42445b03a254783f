package infra

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mkliu/usagemon/internal/domain"
)

const registryFileName = "usagemon.run.json"

// FileRunRegistry implements domain.RunRegistry using a JSON file in the
// system temp directory. A flock around updates prevents a race between
// a starting instance and a heartbeat from a running one.
type FileRunRegistry struct {
	path string
}

// NewFileRunRegistry creates a registry at the default location.
func NewFileRunRegistry() *FileRunRegistry {
	return &FileRunRegistry{
		path: filepath.Join(os.TempDir(), registryFileName),
	}
}

// NewFileRunRegistryWithPath creates a registry at a specific path (for testing).
func NewFileRunRegistryWithPath(path string) *FileRunRegistry {
	return &FileRunRegistry{path: path}
}

// Path returns the registry file path.
func (r *FileRunRegistry) Path() string {
	return r.path
}

// Register saves the current instance's run info.
func (r *FileRunRegistry) Register(info domain.RunInfo) error {
	unlock, err := r.lock()
	if err != nil {
		return err
	}
	defer unlock()

	info.LastHeartbeat = time.Now().Unix()
	return r.atomicWrite(&info)
}

// Heartbeat updates the liveness timestamp.
func (r *FileRunRegistry) Heartbeat() error {
	unlock, err := r.lock()
	if err != nil {
		return err
	}
	defer unlock()

	info, err := r.Current()
	if err != nil {
		return err
	}
	if info == nil {
		return fmt.Errorf("no run registered")
	}

	info.LastHeartbeat = time.Now().Unix()
	return r.atomicWrite(info)
}

// Current returns the registered run, or nil if none.
func (r *FileRunRegistry) Current() (*domain.RunInfo, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var info domain.RunInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Clear removes the registry file.
func (r *FileRunRegistry) Clear() error {
	err := os.Remove(r.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// lock acquires an exclusive flock on a sidecar lock file and returns
// the release func.
func (r *FileRunRegistry) lock() (func(), error) {
	lockFile, err := os.OpenFile(r.path+".lock", os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX); err != nil {
		lockFile.Close()
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	return func() {
		_ = syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN)
		lockFile.Close()
	}, nil
}

// atomicWrite writes the registry file atomically (write + rename).
func (r *FileRunRegistry) atomicWrite(info *domain.RunInfo) error {
	data, err := json.Marshal(info)
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

// Ensure FileRunRegistry implements domain.RunRegistry.
var _ domain.RunRegistry = (*FileRunRegistry)(nil)
