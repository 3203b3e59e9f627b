// log_sink.go - Ambient logging
//
// A small logSink wrapping the standard library's log.Logger over a
// configurable io.Writer (rationale for staying on the standard library
// rather than a third-party logging package is in DESIGN.md). It exists
// as a seam so bus-miss, peer-failure and NVR-checksum diagnostics have
// one place to log through instead of being sprinkled as raw fmt calls
// everywhere.

package main

import (
	"fmt"
	"io"
	"log"
	"os"
)

type logLevel int

const (
	logDebug logLevel = iota
	logInfo
	logWarn
	logError
)

type logSink struct {
	out   *log.Logger
	level logLevel
}

// newLogSink builds a logSink writing to w (stderr if w is nil) at the
// given minimum level.
func newLogSink(w io.Writer, level logLevel) *logSink {
	if w == nil {
		w = os.Stderr
	}
	return &logSink{out: log.New(w, "", log.LstdFlags), level: level}
}

func (s *logSink) log(level logLevel, prefix, format string, args ...any) {
	if s == nil || level < s.level {
		return
	}
	s.out.Print(prefix + fmt.Sprintf(format, args...))
}

func (s *logSink) Debugf(format string, args ...any) { s.log(logDebug, "[debug] ", format, args...) }
func (s *logSink) Infof(format string, args ...any)   { s.log(logInfo, "[info] ", format, args...) }
func (s *logSink) Warnf(format string, args ...any)   { s.log(logWarn, "[warn] ", format, args...) }
func (s *logSink) Errorf(format string, args ...any)  { s.log(logError, "[error] ", format, args...) }
