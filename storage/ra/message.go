// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ra

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// A Message records one write to a location.
type Message struct {
	Loc       int
	Value     int32
	Timestamp float64

	// Base is the view a relaxed read of this message joins.
	Base View

	// Release is the view an acquire read of this message joins,
	// or nil if the write was not a release.
	Release View

	// UsedByRMW is set once an atomic read-modify-write has read
	// this message and placed its write directly after it. No
	// other read-modify-write may read it again.
	UsedByRMW bool
}

// clone returns a deep copy of m.
func (m *Message) clone() Message {
	c := *m
	c.Base = m.Base.Clone()
	if m.Release != nil {
		c.Release = m.Release.Clone()
	}
	return c
}

func (m *Message) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<#%d->%d @%s", m.Loc, m.Value, strconv.FormatFloat(m.Timestamp, 'g', -1, 64))
	if m.UsedByRMW {
		b.WriteString(" rmw")
	}
	fmt.Fprintf(&b, " base: %v release: ", m.Base)
	if m.Release == nil {
		b.WriteString("none")
	} else {
		b.WriteString(m.Release.String())
	}
	b.WriteString(">")
	return b.String()
}

// A History is the set of messages at one location, ordered by
// timestamp.
type History struct {
	msgs []*Message
}

// From returns the messages with timestamp at least ts. The result
// aliases h.
func (h *History) From(ts float64) []*Message {
	i := sort.Search(len(h.msgs), func(i int) bool { return h.msgs[i].Timestamp >= ts })
	return h.msgs[i:]
}

// Last returns the message with the greatest timestamp.
func (h *History) Last() *Message {
	return h.msgs[len(h.msgs)-1]
}

// Next returns the message following m, or nil if m is the last.
func (h *History) Next(m *Message) *Message {
	i := sort.Search(len(h.msgs), func(i int) bool { return h.msgs[i].Timestamp > m.Timestamp })
	if i == len(h.msgs) {
		return nil
	}
	return h.msgs[i]
}

func (h *History) insert(m *Message) {
	i := sort.Search(len(h.msgs), func(i int) bool { return h.msgs[i].Timestamp > m.Timestamp })
	h.msgs = append(h.msgs, nil)
	copy(h.msgs[i+1:], h.msgs[i:])
	h.msgs[i] = m
}

// prune drops messages older than ts and returns how many it
// dropped.
func (h *History) prune(ts float64) int {
	i := sort.Search(len(h.msgs), func(i int) bool { return h.msgs[i].Timestamp >= ts })
	if i == 0 {
		return 0
	}
	h.msgs = append(h.msgs[:0:0], h.msgs[i:]...)
	return i
}

func (h *History) Len() int {
	return len(h.msgs)
}

func (h *History) String() string {
	parts := make([]string, len(h.msgs))
	for i, m := range h.msgs {
		parts[i] = m.String()
	}
	return strings.Join(parts, " ")
}
