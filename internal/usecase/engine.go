package usecase

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mkliu/usagemon/internal/domain"
	"github.com/mkliu/usagemon/internal/policy"
)

// EngineConfig holds activity engine tuning.
type EngineConfig struct {
	IdleThreshold time.Duration // inactivity beyond this is idle (default 5 min)
	CheckInterval time.Duration // idle recheck period (default 10s)

	// Heartbeat, when set, is invoked from the periodic tick. Used to
	// refresh the run registry liveness timestamp.
	Heartbeat func()
}

// DefaultEngineConfig returns default engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		IdleThreshold: policy.DefaultIdleThreshold,
		CheckInterval: policy.DefaultCheckInterval,
	}
}

// Engine is the activity-detection state machine. It turns foreground
// window notifications and a periodic idle recheck into a single ordered
// stream of activity log rows.
//
// Two producers call into the engine concurrently: the event source's
// hook callback and the periodic timer. One mutex serializes every state
// transition and every append, so an idle flip and a title log can never
// interleave.
type Engine struct {
	config  EngineConfig
	source  domain.EventSource
	timer   domain.Timer
	rec     domain.ActivityRecorder
	tracker *WindowTracker
	logger  *zap.Logger

	mu      sync.Mutex
	isIdle  bool
	started bool
	stopped bool
	hook    domain.HookHandle
}

// NewEngine creates an activity engine. It does nothing until Start.
func NewEngine(
	config EngineConfig,
	source domain.EventSource,
	timer domain.Timer,
	rec domain.ActivityRecorder,
	logger *zap.Logger,
) *Engine {
	if config.IdleThreshold <= 0 {
		config.IdleThreshold = policy.DefaultIdleThreshold
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = policy.DefaultCheckInterval
	}
	return &Engine{
		config:  config,
		source:  source,
		timer:   timer,
		rec:     rec,
		tracker: NewWindowTracker(),
		logger:  logger,
	}
}

// Start installs the foreground hook, starts the periodic idle recheck,
// and writes the opening rows: the start marker followed by the current
// title. A hook install failure is fatal: without it the engine has no
// data source.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return fmt.Errorf("engine already started")
	}

	hook, err := e.source.InstallHook(e.onForegroundChanged)
	if err != nil {
		return fmt.Errorf("failed to install foreground hook: %w", err)
	}
	e.hook = hook
	e.started = true

	// The first tick fires immediately but blocks on the engine mutex
	// until the opening rows below are written.
	e.timer.Start(e.config.CheckInterval, e.onTick)

	e.rec.Append(domain.MsgAppStarted)
	e.logTitleLocked(false)

	e.logger.Info("activity engine started",
		zap.Duration("idle_threshold", e.config.IdleThreshold),
		zap.Duration("check_interval", e.config.CheckInterval))
	return nil
}

// Stop ends monitoring with the default closing marker.
func (e *Engine) Stop() {
	e.StopWithReason(domain.MsgAppEnded)
}

// StopWithReason ends monitoring and writes reason as the closing row.
// Idempotent: a second call is a no-op. If the user is idle at stop
// time, an Idle End row precedes the closing marker so the log never
// ends mid-interval.
//
// Safe to call concurrently with in-flight callbacks: the stopped flag
// is flipped under the engine mutex, and the timer and hook are released
// only after that, so a blocked callback observes the flag and bails.
func (e *Engine) StopWithReason(reason string) {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true

	if e.isIdle {
		e.isIdle = false
		e.rec.Append(domain.MsgIdleEnd)
	}
	e.rec.Append(reason)
	e.mu.Unlock()

	// Outside the mutex: Stop waits for an in-flight tick, which may be
	// blocked on the mutex above.
	e.timer.Stop()
	e.source.UninstallHook(e.hook)

	e.logger.Info("activity engine stopped", zap.String("reason", reason))
}

// onForegroundChanged is the hook callback. It rechecks idle state and,
// when active, logs the new title through the dedup tracker.
func (e *Engine) onForegroundChanged() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started || e.stopped {
		return
	}

	e.recheckIdleLocked()

	// Idle periods produce no title churn; the recovery path inside
	// recheckIdleLocked already re-logged the title if we just woke up.
	if !e.isIdle {
		e.logTitleLocked(false)
	}
}

// onTick is the periodic callback. It only rechecks idle state, which is
// what catches the user going idle when no focus change ever arrives.
func (e *Engine) onTick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started || e.stopped {
		return
	}

	e.recheckIdleLocked()

	if e.config.Heartbeat != nil {
		e.config.Heartbeat()
	}
}

// recheckIdleLocked queries the event source and applies the idle
// policy, logging the transition bookends. Caller holds e.mu.
func (e *Engine) recheckIdleLocked() {
	state := policy.Classify(e.source.IdleDuration(), e.config.IdleThreshold)

	switch {
	case state == domain.StateIdle && !e.isIdle:
		e.isIdle = true
		e.rec.Append(domain.MsgIdleStart)
		e.logger.Debug("user went idle")

	case state == domain.StateActive && e.isIdle:
		e.isIdle = false
		e.rec.Append(domain.MsgIdleEnd)
		// The recovery row is the information of interest: log the
		// current title even if it equals the last pre-idle one.
		e.logTitleLocked(true)
		e.logger.Debug("user returned from idle")
	}
}

// logTitleLocked queries the current foreground title and appends it,
// deduplicated unless force is set. An empty title is treated as "no
// title" and produces no row. Caller holds e.mu.
func (e *Engine) logTitleLocked(force bool) {
	title := e.source.ForegroundWindowTitle()
	if title == "" {
		return
	}

	if force {
		e.tracker.Record(title)
		e.rec.Append(title)
		return
	}

	if t, ok := e.tracker.Observe(title); ok {
		e.rec.Append(t)
	}
}
