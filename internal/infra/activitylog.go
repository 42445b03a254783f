// Package infra implements infrastructure concerns (activity log, run
// registry, process liveness, timer).
package infra

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mkliu/usagemon/internal/domain"
)

const (
	logFilePrefix = "usage history "
	dayFormat     = "2006-01-02"
	rowTimeFormat = "15:04:05"
)

// ActivityLog is an append-only per-day CSV writer. One file per
// calendar day, rows never rewritten, no header. A row is
// `HH:mm:ss,"message"` with embedded quotes doubled.
//
// Append never returns an error: I/O failures are reported to the
// ErrorSink and monitoring continues. A mutex covers the whole
// compute-filename/format/append sequence so the hook callback and the
// tick callback cannot interleave partial writes.
type ActivityLog struct {
	dir  string
	sink domain.ErrorSink
	now  func() time.Time

	mu sync.Mutex
}

// NewActivityLog creates a writer rooted at dir. The directory is
// created on first append; creation here would hide a meaningful error
// behind construction.
func NewActivityLog(dir string, sink domain.ErrorSink) *ActivityLog {
	return &ActivityLog{
		dir:  dir,
		sink: sink,
		now:  time.Now,
	}
}

// NewActivityLogWithClock creates a writer with an injected clock (for tests).
func NewActivityLogWithClock(dir string, sink domain.ErrorSink, now func() time.Time) *ActivityLog {
	return &ActivityLog{
		dir:  dir,
		sink: sink,
		now:  now,
	}
}

// Dir returns the log directory.
func (l *ActivityLog) Dir() string {
	return l.dir
}

// FilePath returns the log file path for the day containing t.
func (l *ActivityLog) FilePath(t time.Time) string {
	return filepath.Join(l.dir, logFilePrefix+t.Format(dayFormat)+".csv")
}

// Append writes one row for message, timestamped now. Errors go to the
// sink, never to the caller: a failed append must not stop monitoring.
func (l *ActivityLog) Append(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	if err := os.MkdirAll(l.dir, 0755); err != nil {
		l.sink.Report(fmt.Sprintf("create log directory %s: %v", l.dir, err))
		return
	}

	path := l.FilePath(now)
	row := FormatRow(now, message)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		l.sink.Report(fmt.Sprintf("open %s: %v", path, err))
		return
	}
	defer f.Close()

	if _, err := f.WriteString(row); err != nil {
		l.sink.Report(fmt.Sprintf("append to %s: %v", path, err))
	}
}

// ReadDay parses the log file for the day containing t. A missing file
// is an empty day, not an error. Malformed rows are skipped.
func (l *ActivityLog) ReadDay(t time.Time) ([]domain.ActivityEvent, error) {
	f, err := os.Open(l.FilePath(t))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var events []domain.ActivityEvent
	day := t.Format(dayFormat)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		ev, ok := parseRow(day, scanner.Text())
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// FormatRow renders one newline-terminated CSV row.
func FormatRow(t time.Time, message string) string {
	escaped := strings.ReplaceAll(message, `"`, `""`)
	return fmt.Sprintf("%s,\"%s\"\n", t.Format(rowTimeFormat), escaped)
}

// parseRow is the inverse of FormatRow: split on the first comma, strip
// the outer quotes, undouble embedded ones.
func parseRow(day, line string) (domain.ActivityEvent, bool) {
	idx := strings.Index(line, ",")
	if idx < 0 {
		return domain.ActivityEvent{}, false
	}

	ts, err := time.ParseInLocation(dayFormat+" "+rowTimeFormat, day+" "+line[:idx], time.Local)
	if err != nil {
		return domain.ActivityEvent{}, false
	}

	field := line[idx+1:]
	if len(field) < 2 || !strings.HasPrefix(field, `"`) || !strings.HasSuffix(field, `"`) {
		return domain.ActivityEvent{}, false
	}
	message := strings.ReplaceAll(field[1:len(field)-1], `""`, `"`)

	return domain.ActivityEvent{Timestamp: ts, Message: message}, true
}

// Ensure ActivityLog implements domain.ActivityRecorder.
var _ domain.ActivityRecorder = (*ActivityLog)(nil)
