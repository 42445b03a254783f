// Package policy holds the idle classification rule and its defaults.
package policy

import (
	"time"

	"github.com/mkliu/usagemon/internal/domain"
)

const (
	// DefaultIdleThreshold separates genuine inactivity from normal
	// task-switch pauses.
	DefaultIdleThreshold = 5 * time.Minute

	// DefaultCheckInterval is how often the engine rechecks idle state
	// even when no foreground change arrives.
	DefaultCheckInterval = 10 * time.Second
)

// Classify decides Active vs Idle from the time since last user input.
// Idle requires strictly exceeding the threshold; exactly at the
// threshold is still Active.
func Classify(idle, threshold time.Duration) domain.State {
	if idle > threshold {
		return domain.StateIdle
	}
	return domain.StateActive
}
