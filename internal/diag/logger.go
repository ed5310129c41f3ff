// Package diag provides the minimal diagnostics interface used across
// the control loops, modeled on the teacher's bare println call sites
// for state-transition announcements and sensor-fault prints, kept
// host-testable behind a thin interface instead of calling println
// directly everywhere.
package diag

import "fmt"

// Logger is the diagnostics sink every controller takes at
// construction. There is no level filtering or structured fields —
// the teacher firmware doesn't have a log aggregator to target either.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

// Println is the production Logger, backed by println the way the
// teacher's main.go announces state changes on a target with no real
// stdout.
type Println struct{}

func (Println) Debugf(format string, args ...any) { println("DEBUG " + fmt.Sprintf(format, args...)) }
func (Println) Infof(format string, args ...any)  { println("INFO " + fmt.Sprintf(format, args...)) }
func (Println) Warnf(format string, args ...any)  { println("WARN " + fmt.Sprintf(format, args...)) }

// Buffer is a test Logger that records formatted lines instead of
// printing them, so tests can assert on diagnostics without capturing
// stdout.
type Buffer struct {
	Lines []string
}

func (b *Buffer) Debugf(format string, args ...any) { b.append("DEBUG", format, args...) }
func (b *Buffer) Infof(format string, args ...any)  { b.append("INFO", format, args...) }
func (b *Buffer) Warnf(format string, args ...any)  { b.append("WARN", format, args...) }

func (b *Buffer) append(level, format string, args ...any) {
	b.Lines = append(b.Lines, level+" "+fmt.Sprintf(format, args...))
}
