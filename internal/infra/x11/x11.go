// Package x11 implements the event source on X11: foreground window via
// EWMH, idle time via the MIT-SCREEN-SAVER extension.
package x11

import (
	"fmt"
	"time"

	"github.com/BurntSushi/xgb/screensaver"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"go.uber.org/zap"

	"github.com/mkliu/usagemon/internal/domain"
)

// DefaultPollInterval is how often the hook polls the active window.
// X11 has no portable push notification for focus changes across window
// managers, so the hook is emulated by polling; the engine deduplicates
// repeated titles downstream, which the boundary contract allows.
const DefaultPollInterval = 500 * time.Millisecond

// Source implements domain.EventSource against an X display.
type Source struct {
	x            *xgbutil.XUtil
	root         xproto.Window
	pollInterval time.Duration
	logger       *zap.Logger
}

// New connects to the X server and verifies the extensions we need.
// Fails when there is no display: the daemon has no data source then.
func New(pollInterval time.Duration, logger *zap.Logger) (*Source, error) {
	x, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	if err := screensaver.Init(x.Conn()); err != nil {
		return nil, fmt.Errorf("MIT-SCREEN-SAVER extension unavailable: %w", err)
	}

	// EWMH is what modern window managers speak; warn but continue if
	// the check fails, title queries may still work.
	if _, err := ewmh.CurrentDesktopGet(x); err != nil {
		logger.Warn("window manager may not support EWMH", zap.Error(err))
	}

	return &Source{
		x:            x,
		root:         x.RootWin(),
		pollInterval: pollInterval,
		logger:       logger,
	}, nil
}

// pollHook is the handle returned by InstallHook.
type pollHook struct {
	stop chan struct{}
	done chan struct{}
}

// InstallHook starts the focus poll loop. The callback fires once per
// observed foreground transition.
func (s *Source) InstallHook(onChange func()) (domain.HookHandle, error) {
	h := &pollHook{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(h.done)

		last := s.ForegroundWindowTitle()
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-h.stop:
				return
			case <-ticker.C:
				title := s.ForegroundWindowTitle()
				if title != last {
					last = title
					onChange()
				}
			}
		}
	}()

	return h, nil
}

// UninstallHook stops the poll loop and waits for it to exit, so the
// callback is never invoked after this returns.
func (s *Source) UninstallHook(handle domain.HookHandle) {
	h, ok := handle.(*pollHook)
	if !ok || h == nil {
		return
	}
	close(h.stop)
	<-h.done
}

// ForegroundWindowTitle returns the active window's title, preferring
// _NET_WM_NAME with a WM_NAME fallback. Returns "" when there is no
// active window or the query fails.
func (s *Source) ForegroundWindowTitle() string {
	active, err := ewmh.ActiveWindowGet(s.x)
	if err != nil || active == 0 {
		return ""
	}

	title, err := ewmh.WmNameGet(s.x, active)
	if err != nil || title == "" {
		title, err = icccm.WmNameGet(s.x, active)
		if err != nil {
			return ""
		}
	}
	return title
}

// IdleDuration returns time since the last user input as reported by the
// X screensaver extension. Query failures read as zero idle: better to
// call an unknown state active than to fabricate an idle interval.
func (s *Source) IdleDuration() time.Duration {
	reply, err := screensaver.QueryInfo(s.x.Conn(), xproto.Drawable(s.root)).Reply()
	if err != nil {
		s.logger.Debug("screensaver query failed", zap.Error(err))
		return 0
	}
	return time.Duration(reply.MsSinceUserInput) * time.Millisecond
}

// Ensure Source implements domain.EventSource.
var _ domain.EventSource = (*Source)(nil)
