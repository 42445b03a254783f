// Package usecase contains application business logic.
package usecase

// WindowTracker suppresses repeated observations of the same foreground
// window title. Matching is exact: case-sensitive, whitespace-sensitive,
// no normalization.
//
// Not safe for concurrent use; the engine serializes access behind its
// own mutex.
type WindowTracker struct {
	last string
	seen bool
}

// NewWindowTracker creates an empty tracker; the first observed title is
// always returned.
func NewWindowTracker() *WindowTracker {
	return &WindowTracker{}
}

// Observe returns (title, true) when the title differs from the last one
// returned, updating the last-seen title only in that case. Otherwise it
// returns ("", false) and leaves the tracker untouched.
func (t *WindowTracker) Observe(title string) (string, bool) {
	if t.seen && title == t.last {
		return "", false
	}
	t.last = title
	t.seen = true
	return title, true
}

// Record force-sets the last-seen title without the dedup check. The
// engine uses it when a title is logged unconditionally, such as on idle
// recovery, so that Observe stays consistent with what was written.
func (t *WindowTracker) Record(title string) {
	t.last = title
	t.seen = true
}

// Last returns the last title returned by Observe or set via Record.
func (t *WindowTracker) Last() string {
	return t.last
}
