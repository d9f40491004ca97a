// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sra

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aclements/wmm/storage"
)

// A Message is a write broadcast from one thread to the others.
type Message struct {
	Loc       int
	Value     int32
	Timestamp int
}

func (m Message) String() string {
	return fmt.Sprintf("#%d->%d @%d", m.Loc, m.Value, m.Timestamp)
}

// A MessageBuffer is a thread's outgoing messages, oldest first.
type MessageBuffer struct {
	msgs []Message
}

func (b *MessageBuffer) push(m Message) {
	b.msgs = append(b.msgs, m)
}

// At returns the i'th message, if there is one.
func (b *MessageBuffer) At(i int) (Message, bool) {
	if i >= len(b.msgs) {
		return Message{}, false
	}
	return b.msgs[i], true
}

func (b *MessageBuffer) popN(n int) {
	b.msgs = append(b.msgs[:0:0], b.msgs[n:]...)
}

func (b *MessageBuffer) Len() int {
	return len(b.msgs)
}

func (b *MessageBuffer) String() string {
	parts := make([]string, len(b.msgs))
	for i, m := range b.msgs {
		parts[i] = m.String()
	}
	return strings.Join(parts, " ")
}

// A ThreadState is one thread's local copy of memory and its
// position in every thread's broadcast.
type ThreadState struct {
	mem *storage.Storage
	out MessageBuffer

	// pos[o] is the index in thread o's outgoing buffer of the
	// next message this thread will consider. pos of the thread
	// itself counts its own messages.
	pos []int

	// last[loc] is the timestamp of the write this thread last
	// applied at loc.
	last []int
}

func newThreadState(size, threads int) ThreadState {
	return ThreadState{
		mem:  storage.New(size),
		pos:  make([]int, threads),
		last: make([]int, size),
	}
}

// apply applies m to t's memory and forwards it, unless t has
// already applied a newer write to the same location.
func (t *ThreadState) apply(self int, m Message) bool {
	if m.Timestamp <= t.last[m.Loc] {
		return false
	}
	t.mem.Store(m.Loc, m.Value)
	t.out.push(m)
	t.pos[self]++
	t.last[m.Loc] = m.Timestamp
	return true
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, " ")
}

func (t *ThreadState) String() string {
	return fmt.Sprintf("Storage: %s\nBuffer: %s\nBuffer positions: %s\nLast timestamps: %s",
		t.mem, &t.out, joinInts(t.pos), joinInts(t.last))
}
