// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storage

import "fmt"

// Mode is the ordering mode of a memory access.
type Mode int

const (
	SeqCst Mode = iota
	Release
	Acquire
	AcqRel
	Relaxed
)

var modeNames = [...]string{
	SeqCst:  "SEQ_CST",
	Release: "REL",
	Acquire: "ACQ",
	AcqRel:  "REL_ACQ",
	Relaxed: "RLX",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode returns the Mode named by s, using the same spelling as
// Mode.String.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return Mode(m), nil
		}
	}
	return 0, fmt.Errorf("unknown memory mode %q", s)
}

// IsRelease reports whether a write in mode m publishes the
// writer's view. Sequentially consistent accesses are both
// release and acquire.
func (m Mode) IsRelease() bool {
	return m == Release || m == AcqRel || m == SeqCst
}

// IsAcquire reports whether a read in mode m acquires the view
// published by the write it reads from.
func (m Mode) IsAcquire() bool {
	return m == Acquire || m == AcqRel || m == SeqCst
}
