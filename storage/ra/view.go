// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ra

import (
	"strconv"
	"strings"
)

// A View maps each location to the timestamp of the newest message
// at that location a thread must take into account.
//
// Views are values: operations that combine views modify only their
// receiver, and views stored in messages are never modified after
// the message is created.
type View []float64

func (v View) Clone() View {
	return append(View(nil), v...)
}

// Join raises each entry of v to at least the matching entry of o.
func (v View) Join(o View) {
	for i, t := range o {
		if t > v[i] {
			v[i] = t
		}
	}
}

// LessEq reports whether every entry of v is at most the matching
// entry of o.
func (v View) LessEq(o View) bool {
	for i, t := range v {
		if t > o[i] {
			return false
		}
	}
	return true
}

func (v View) String() string {
	parts := make([]string, len(v))
	for i, t := range v {
		parts[i] = strconv.FormatFloat(t, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
