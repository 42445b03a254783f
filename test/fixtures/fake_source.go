// Package fixtures provides test doubles shared by integration tests.
package fixtures

import (
	"sync"
	"time"

	"github.com/mkliu/usagemon/internal/domain"
)

// FakeEventSource is a scripted domain.EventSource. Tests set the
// foreground title and idle duration and fire focus notifications by
// hand.
type FakeEventSource struct {
	mu       sync.Mutex
	title    string
	idle     time.Duration
	onChange func()

	installed   bool
	uninstalled bool
}

// NewFakeEventSource creates a source with the given starting title.
func NewFakeEventSource(title string) *FakeEventSource {
	return &FakeEventSource{title: title}
}

// InstallHook records the callback for later FireChange calls.
func (f *FakeEventSource) InstallHook(onChange func()) (domain.HookHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onChange = onChange
	f.installed = true
	return f, nil
}

// UninstallHook marks the hook released.
func (f *FakeEventSource) UninstallHook(h domain.HookHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uninstalled = true
}

// ForegroundWindowTitle returns the scripted title.
func (f *FakeEventSource) ForegroundWindowTitle() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.title
}

// IdleDuration returns the scripted idle duration.
func (f *FakeEventSource) IdleDuration() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.idle
}

// SetTitle changes the scripted foreground title.
func (f *FakeEventSource) SetTitle(title string) {
	f.mu.Lock()
	f.title = title
	f.mu.Unlock()
}

// SetIdle changes the scripted idle duration.
func (f *FakeEventSource) SetIdle(d time.Duration) {
	f.mu.Lock()
	f.idle = d
	f.mu.Unlock()
}

// FireChange simulates the OS delivering a foreground-change
// notification on its own thread.
func (f *FakeEventSource) FireChange() {
	f.mu.Lock()
	cb := f.onChange
	f.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Uninstalled reports whether the hook was released.
func (f *FakeEventSource) Uninstalled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uninstalled
}

// Ensure FakeEventSource implements domain.EventSource.
var _ domain.EventSource = (*FakeEventSource)(nil)
