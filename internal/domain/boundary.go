package domain

import "time"

// HookHandle is an opaque token for an installed foreground-change hook.
// Only the EventSource that issued it can interpret it.
type HookHandle interface{}

// EventSource abstracts the platform mechanism that reports foreground
// window changes and user input recency.
// Implementation: X11/EWMH on Linux (internal/infra/x11).
type EventSource interface {
	// InstallHook registers a callback invoked on each foreground-window
	// transition. Duplicate or spurious invocations are tolerated; the
	// engine deduplicates titles downstream.
	InstallHook(onChange func()) (HookHandle, error)

	// UninstallHook releases the hook. No callbacks are delivered after
	// it returns.
	UninstallHook(h HookHandle)

	// ForegroundWindowTitle returns the title of the focused window,
	// or "" when there is none or it cannot be determined.
	ForegroundWindowTitle() string

	// IdleDuration returns time elapsed since the last user input.
	IdleDuration() time.Duration
}

// Timer delivers a recurring callback on a fixed period, first fire
// immediate. Stop blocks until no further callbacks will run.
type Timer interface {
	Start(period time.Duration, fn func())
	Stop()
}

// ActivityRecorder is the engine-facing append surface of the activity
// log. Append never fails: I/O errors are swallowed by the implementation
// and reported through its ErrorSink, so the monitoring loop keeps going.
type ActivityRecorder interface {
	Append(message string)
}

// ErrorSink receives I/O failure reports from components that must not
// propagate errors. Best effort; its own failures are discarded.
type ErrorSink interface {
	Report(message string)
}

// RunRegistry provides run discovery for the status command and
// single-instance enforcement.
// Implementation: JSON file with flock in the system temp dir.
type RunRegistry interface {
	// Register saves the current instance's run info.
	Register(info RunInfo) error

	// Heartbeat updates the liveness timestamp.
	Heartbeat() error

	// Current returns the registered run, or nil if none.
	Current() (*RunInfo, error)

	// Clear removes the registry file.
	Clear() error

	// Path returns the registry file path (for tests).
	Path() string
}

// ProcessChecker reports process liveness.
// Implementation: uses gopsutil for cross-platform support.
type ProcessChecker interface {
	// IsRunning checks if a PID exists and is running.
	IsRunning(pid int) bool

	// CurrentPID returns the current process PID.
	CurrentPID() int
}
