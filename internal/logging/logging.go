// Package logging provides the engine's single structured logger,
// backed by charmbracelet/log. Only control-thread code ever logs:
// the hot-patch applier (swap begin/commit/abort), the scheduler's
// lock-miss counter, and cmd/ entry points. Nothing on the audio
// thread calls into this package.
package logging

import (
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      time.Kitchen,
	Prefix:          "engine",
})

// SetOutput redirects the package logger, for tests and for cmd/ tools
// that want logs folded into their own output stream.
func SetOutput(w io.Writer) { logger.SetOutput(w) }

// SetLevel adjusts verbosity ("debug", "info", "warn", "error").
func SetLevel(level log.Level) { logger.SetLevel(level) }

func Debug(msg string, keyvals ...any) { logger.Debug(msg, keyvals...) }
func Info(msg string, keyvals ...any)  { logger.Info(msg, keyvals...) }
func Warn(msg string, keyvals ...any)  { logger.Warn(msg, keyvals...) }
func Error(msg string, keyvals ...any) { logger.Error(msg, keyvals...) }

// LockMissReporter rate-limits the scheduler's lock-miss counter so a
// sustained run of audio-thread try-lock failures logs once per window
// instead of flooding stderr at sample rate.
type LockMissReporter struct {
	window   time.Duration
	lastLog  atomic.Int64 // unix nanos
	lastSeen atomic.Uint64
}

func NewLockMissReporter(window time.Duration) *LockMissReporter {
	return &LockMissReporter{window: window}
}

// Observe is called periodically (not per-sample) by control-thread code
// with the scheduler's current cumulative lock-miss count. It logs only
// when the window has elapsed and the count has moved.
func (r *LockMissReporter) Observe(total uint64) {
	now := time.Now().UnixNano()
	last := r.lastLog.Load()
	if now-last < r.window.Nanoseconds() {
		return
	}
	prev := r.lastSeen.Swap(total)
	if total == prev {
		return
	}
	if !r.lastLog.CompareAndSwap(last, now) {
		return
	}
	Warn("patch lock contention", "total_misses", total, "new_misses", total-prev)
}
