// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2026 Canonical Ltd
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

// Package logger implements the low-fuss leveled logger shared by every
// package in this repository. It plays the role libblkid's DBG() macros
// play in the C source: an always-compiled, cheap-when-silent tracing
// facility, here backed by the standard log package instead of a
// preprocessor.
package logger

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

type Flags int

const (
	// DefaultFlags matches log.LstdFlags so mocked loggers are
	// comparable to a freshly constructed one in tests.
	DefaultFlags Flags = Flags(log.LstdFlags)
)

// Logger is the minimal leveled interface the rest of the repository
// depends on.
type Logger interface {
	Debugf(format string, args ...interface{})
	Noticef(format string, args ...interface{})
	Panicf(format string, args ...interface{})
}

type logger struct {
	log   *log.Logger
	debug bool
}

// New builds a Logger that writes to w. Debug-level output is enabled
// when $BLKID_DEBUG is set and non-empty, matching libblkid's
// environment-driven debug gate.
func New(w io.Writer, flag Flags) (Logger, error) {
	if w == nil {
		return nil, fmt.Errorf("logger: nil writer")
	}
	return &logger{
		log:   log.New(w, "", int(flag)),
		debug: os.Getenv("BLKID_DEBUG") != "",
	}, nil
}

func (l *logger) Debugf(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.log.Output(3, "DEBUG: "+fmt.Sprintf(format, args...))
}

func (l *logger) Noticef(format string, args ...interface{}) {
	l.log.Output(3, fmt.Sprintf(format, args...))
}

func (l *logger) Panicf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.log.Output(3, "PANIC: "+msg)
	panic(msg)
}

// nullLogger discards everything; used as the default before SetLogger
// is ever called and as an explicit opt-out via SetLogger(NullLogger).
type nullLogger struct{}

func (nullLogger) Debugf(string, ...interface{})  {}
func (nullLogger) Noticef(string, ...interface{}) {}
func (nullLogger) Panicf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

// NullLogger discards all output.
var NullLogger Logger = nullLogger{}

var (
	mu      sync.Mutex
	current Logger = NullLogger
)

// SetLogger installs l as the package-level logger used by Debugf,
// Noticef and Panicf.
func SetLogger(l Logger) {
	mu.Lock()
	defer mu.Unlock()
	current = l
}

func getLogger() Logger {
	mu.Lock()
	defer mu.Unlock()
	return current
}

// SimpleSetup installs a stderr-backed logger with DefaultFlags, the
// same bootstrapping call-sites expect at process start.
func SimpleSetup() error {
	l, err := New(os.Stderr, DefaultFlags)
	if err != nil {
		return err
	}
	SetLogger(l)
	return nil
}

// MockLogger installs a buffer-backed logger for the duration of a test
// and returns it together with a restore function.
func MockLogger() (buf *bytes.Buffer, restore func()) {
	buf = &bytes.Buffer{}
	l, err := New(buf, DefaultFlags)
	if err != nil {
		// New only fails on a nil writer, which cannot happen here.
		panic(err)
	}
	old := getLogger()
	SetLogger(l)
	return buf, func() { SetLogger(old) }
}

func Debugf(format string, args ...interface{})  { getLogger().Debugf(format, args...) }
func Noticef(format string, args ...interface{}) { getLogger().Noticef(format, args...) }
func Panicf(format string, args ...interface{})  { getLogger().Panicf(format, args...) }
