// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// Package logging provides the leveled, file-backed logger used
// throughout nwipe. It plays the same role as sibench's logger
// package, but the sink also writes timestamped lines to an
// append-only log file so a run can be audited after the fact.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level is a logging severity, ordered least to most verbose.
type Level int

const (
	Fatal Level = iota
	Error
	Warning
	Notice
	Info
	Debug
)

func (l Level) String() string {
	switch l {
	case Fatal:
		return "FATAL"
	case Error:
		return "ERROR"
	case Warning:
		return "WARNING"
	case Notice:
		return "NOTICE"
	case Info:
		return "INFO"
	case Debug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// DefaultLogPath is where nwipe appends its log lines unless overridden.
const DefaultLogPath = "/var/log/nwipe.log"

var (
	mu       sync.Mutex
	level    = Info
	sink     io.Writer = os.Stderr
	file     *os.File
)

// SetLevel sets the minimum severity that will be emitted.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// Open appends to the log file at path, in addition to the existing
// stderr sink. Callers should defer Close.
func Open(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("logging: opening %s: %w", path, err)
	}

	mu.Lock()
	file = f
	mu.Unlock()

	return nil
}

// Close flushes and closes the log file, if one is open.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if file == nil {
		return nil
	}

	err := file.Close()
	file = nil
	return err
}

func enabled(l Level) bool {
	mu.Lock()
	defer mu.Unlock()
	return l <= level
}

func emit(l Level, format string, args ...interface{}) {
	if !enabled(l) {
		return
	}

	msg := fmt.Sprintf(format, args...)

	mu.Lock()
	defer mu.Unlock()

	fmt.Fprintf(sink, "%s: %s", l, msg)

	if file != nil {
		fmt.Fprintf(file, "%d %s %s", time.Now().Unix(), l, msg)
	}
}

func Fatalf(format string, args ...interface{})   { emit(Fatal, format, args...) }
func Errorf(format string, args ...interface{})   { emit(Error, format, args...) }
func Warnf(format string, args ...interface{})    { emit(Warning, format, args...) }
func Noticef(format string, args ...interface{})  { emit(Notice, format, args...) }
func Infof(format string, args ...interface{})    { emit(Info, format, args...) }
func Debugf(format string, args ...interface{})   { emit(Debug, format, args...) }
