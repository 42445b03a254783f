package infra

import (
	"os"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/mkliu/usagemon/internal/domain"
)

// ProcessCheckerImpl implements domain.ProcessChecker using gopsutil.
type ProcessCheckerImpl struct{}

// NewProcessChecker creates a new process checker.
func NewProcessChecker() domain.ProcessChecker {
	return &ProcessCheckerImpl{}
}

// IsRunning checks if a PID exists and is running.
func (pc *ProcessCheckerImpl) IsRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	exists, err := process.PidExists(int32(pid))
	return err == nil && exists
}

// CurrentPID returns the current process PID.
func (pc *ProcessCheckerImpl) CurrentPID() int {
	return os.Getpid()
}

// Ensure ProcessCheckerImpl implements domain.ProcessChecker.
var _ domain.ProcessChecker = (*ProcessCheckerImpl)(nil)
