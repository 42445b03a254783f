// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import "time"

// State classifies whether the user is interacting with the machine.
type State string

const (
	StateActive State = "active"
	StateIdle   State = "idle"
)

// Lifecycle marker messages written to the activity log alongside window
// titles. Consumers parse the log by row, so these are stable strings.
const (
	MsgAppStarted     = "Application Started"
	MsgAppEnded       = "Application Ended"
	MsgIdleStart      = "Idle Start"
	MsgIdleEnd        = "Idle End"
	MsgSystemShutdown = "System Shutdown"
	MsgSystemLogoff   = "System Logoff"
	MsgUserTerminated = "Application Terminated by User"
)

// ActivityEvent is a single row of the activity log. Immutable once created.
type ActivityEvent struct {
	Timestamp time.Time
	Message   string
}

// RunInfo records a running usagemon instance for discovery by the
// status command and for single-instance enforcement.
// Persisted as JSON in the run registry file.
type RunInfo struct {
	PID           int    `json:"pid"`
	StartedAt     int64  `json:"started_at"`
	LogDirectory  string `json:"log_directory"`
	AppVersion    string `json:"app_version,omitempty"`
	LastHeartbeat int64  `json:"last_heartbeat"`
}

// StartedTime returns StartedAt as a wall-clock time.
func (r RunInfo) StartedTime() time.Time {
	return time.Unix(r.StartedAt, 0)
}
