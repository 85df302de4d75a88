/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package logger is the process-wide log sink for dualpack.
//
// Library code logs through the package functions; the CLI picks the level
// with --log-level, and embedders can silence everything with
// SetOutput(io.Discard).
package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stderr, log.WarnLevel)
)

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:  level,
		Prefix: "dualpack",
	})
}

// SetOutput redirects logging to w, keeping the current level.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w, logger.GetLevel())
}

// SetLevel takes a level name: debug, info, warn, error or fatal.
func SetLevel(name string) error {
	level, err := log.ParseLevel(name)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	logger.SetLevel(level)
	return nil
}

func current() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Error, Warn, Info and Debug log a formatted message at their level.
func Error(format string, args ...any) { current().Errorf(format, args...) }
func Warn(format string, args ...any)  { current().Warnf(format, args...) }
func Info(format string, args ...any)  { current().Infof(format, args...) }
func Debug(format string, args ...any) { current().Debugf(format, args...) }

// Debugw logs msg with key/value pairs.
func Debugw(msg string, keyvals ...any) {
	current().Debug(msg, keyvals...)
}

// Phase logs the start of a named step of a build at debug level and
// returns a func that logs its duration when the step ends:
//
//	defer logger.Phase("graph", "entries", len(entries))()
func Phase(name string, keyvals ...any) func() {
	l := current()
	if l.GetLevel() > log.DebugLevel {
		return func() {}
	}
	start := time.Now()
	l.Debug(name+" started", keyvals...)
	return func() {
		l.Debug(name+" finished", append(append([]any{}, keyvals...), "elapsed", time.Since(start).Round(time.Microsecond))...)
	}
}
