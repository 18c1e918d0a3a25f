// Package logging is the small severity-highlighted wrapper both state
// machines log through. It follows the corpus's own plain stdlib `log`
// usage (server/server.go, newport/esp301.go, zygo/zygo.go) and adds
// the critical/debug highlighting the Python original gets from
// coloredlogs, using the color library already present in the
// dependency set.
package logging

import (
	"log"
	"os"

	"github.com/fatih/color"
)

var (
	critical = color.New(color.FgRed, color.Bold)
	warn     = color.New(color.FgYellow)
	debugClr = color.New(color.FgCyan, color.Faint)
)

// Logger is a severity-aware wrapper over a standard library logger.
type Logger struct {
	out   *log.Logger
	debug bool
}

// New returns a Logger writing to stderr with the given name prefix.
// Debug-level messages are only emitted when debug is true.
func New(name string, debug bool) *Logger {
	return &Logger{
		out:   log.New(os.Stderr, "["+name+"] ", log.LstdFlags),
		debug: debug,
	}
}

// Critical logs an unsafe or unrecoverable condition in red.
func (l *Logger) Critical(format string, args ...interface{}) {
	l.out.Print(critical.Sprintf(format, args...))
}

// Warn logs a recoverable anomaly in yellow.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.out.Print(warn.Sprintf(format, args...))
}

// Debug logs a diagnostic message, suppressed unless debug mode is on.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.out.Print(debugClr.Sprintf(format, args...))
}

// Info logs a routine, uncolored message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.out.Printf(format, args...)
}

// Latch suppresses repeated logging of the same cause until the cause
// changes or is cleared (spec §7: "a same_message latch suppresses
// repeats while the cause persists; the latch is cleared on any state
// or direction-map change").
type Latch struct {
	last string
}

// Critical logs via l.Critical only if message differs from the last
// one latched; it always updates the latch.
func (la *Latch) Critical(l *Logger, message string) {
	if message == la.last {
		return
	}
	la.last = message
	l.Critical("%s", message)
}

// Clear resets the latch so the next message (even if repeated) logs.
func (la *Latch) Clear() {
	la.last = ""
}

// Info logs via l.Info only if message differs from the last one
// latched; it always updates the latch. Used for advisories that
// aren't themselves critical but shouldn't be reprinted every tick
// while the underlying condition persists.
func (la *Latch) Info(l *Logger, message string) {
	if message == la.last {
		return
	}
	la.last = message
	l.Info("%s", message)
}
