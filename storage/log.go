// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storage

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log"
)

// Level is the minimum severity a Log reports.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
	LevelSilent
)

var levelNames = [...]string{"info", "warn", "error", "silent"}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel parses a level name as printed by Level.String.
func ParseLevel(s string) (Level, error) {
	for l, name := range levelNames {
		if name == s {
			return Level(l), nil
		}
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// A Log records memory actions and model state.
//
// A nil *Log discards everything. Errors writing to the underlying
// writer are ignored.
type Log struct {
	l     *log.Logger
	level Level
}

// NewLog returns a Log that writes messages at or above level to w.
func NewLog(w io.Writer, level Level) *Log {
	return &Log{log.New(w, "", 0), level}
}

func (l *Log) enabled(level Level) bool {
	return l != nil && level >= l.level
}

func (l *Log) Infof(format string, args ...interface{}) {
	if l.enabled(LevelInfo) {
		l.l.Printf("INFO: "+format, args...)
	}
}

func (l *Log) Warningf(format string, args ...interface{}) {
	if l.enabled(LevelWarning) {
		l.l.Printf("WARN: "+format, args...)
	}
}

func (l *Log) Errorf(format string, args ...interface{}) {
	if l.enabled(LevelError) {
		l.l.Printf("ERROR: "+format, args...)
	}
}

func (l *Log) action(format string, args ...interface{}) {
	if l.enabled(LevelInfo) {
		l.l.Printf("ACTION: "+format, args...)
	}
}

func (l *Log) Load(tid, addr int, mode Mode, v int32) {
	l.action("t%d at #%d: %v load -> %d", tid, addr, mode, v)
}

func (l *Log) Store(tid, addr int, mode Mode, v int32) {
	l.action("t%d at #%d: %v store %d", tid, addr, mode, v)
}

func (l *Log) CompareAndSwap(tid, addr int, mode Mode, expected, actual, desired int32) {
	if actual == expected {
		l.action("t%d at #%d: %v cas %d -> %d succeeded", tid, addr, mode, expected, desired)
	} else {
		l.action("t%d at #%d: %v cas %d -> %d failed, found %d", tid, addr, mode, expected, desired, actual)
	}
}

// Blocked records that an operation by tid is waiting to see newer
// writes to addr.
func (l *Log) Blocked(tid, addr int, mode Mode) {
	l.action("t%d at #%d: %v blocked on newer writes", tid, addr, mode)
}

func (l *Log) FetchAndIncrement(tid, addr int, mode Mode, old, inc int32) {
	l.action("t%d at #%d: %v fetch %d and increment by %d", tid, addr, mode, old, inc)
}

func (l *Log) Fence(tid int, mode Mode) {
	l.action("t%d: %v fence", tid, mode)
}

// Internal records an internal update performed by a model.
func (l *Log) Internal(format string, args ...interface{}) {
	if l.enabled(LevelInfo) {
		l.l.Printf("INTERNAL: "+format, args...)
	}
}

// State dumps the full state of m, one "STATE: " line per line of
// m.WriteState.
func (l *Log) State(m Manager) {
	if !l.enabled(LevelInfo) {
		return
	}
	var buf bytes.Buffer
	if err := m.WriteState(&buf); err != nil {
		l.Errorf("writing state: %v", err)
		return
	}
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		l.l.Print("STATE: " + sc.Text())
	}
}
