// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sra implements strong release/acquire memory as causal
// broadcast.
//
// Every thread has its own copy of memory. A write takes the next
// timestamp of its location, updates the writer's copy, and is
// appended to the writer's outgoing buffer. An internal update lets
// one thread consume the next message of another thread's buffer:
// the message is applied and forwarded if it is newer than what the
// thread has at that location, and skipped otherwise.
//
// Atomic read-modify-writes and fences first force internal updates
// until the thread has caught up with the newest write, panicking
// with storage.ErrStuck if that cannot happen.
package sra

import (
	"bufio"
	"fmt"
	"io"

	"github.com/aclements/wmm/storage"
)

// Manager is an SRA storage.Manager.
type Manager struct {
	size    int
	threads []ThreadState
	global  []int // Newest timestamp of each location.
	policy  Policy
	log     *storage.Log
}

// New returns a Manager with size locations shared by threads
// threads. policy chooses which pair of threads each internal update
// involves. log may be nil.
func New(size, threads int, policy Policy, log *storage.Log) *Manager {
	m := &Manager{
		size:    size,
		threads: make([]ThreadState, threads),
		global:  make([]int, size),
		policy:  policy,
		log:     log,
	}
	for i := range m.threads {
		m.threads[i] = newThreadState(size, threads)
	}
	return m
}

func (m *Manager) check(addr int) {
	if addr < 0 || addr >= m.size {
		panic(&storage.AddressError{Address: addr, Size: m.size})
	}
}

func (m *Manager) Load(tid, addr int, mode storage.Mode) int32 {
	v := m.threads[tid].mem.Load(addr)
	m.log.Load(tid, addr, mode, v)
	return v
}

func (m *Manager) Store(tid, addr int, value int32, mode storage.Mode) {
	m.check(addr)
	m.write(tid, addr, value)
	m.log.Store(tid, addr, mode, value)
}

func (m *Manager) write(tid, addr int, value int32) {
	m.global[addr]++
	m.threads[tid].apply(tid, Message{addr, value, m.global[addr]})
	m.cleanUp(tid)
}

// catchUp forces internal updates until tid has seen the newest
// write to every location in addrs.
func (m *Manager) catchUp(tid int, mode storage.Mode, addrs ...int) {
	t := &m.threads[tid]
	for _, addr := range addrs {
		for t.last[addr] < m.global[addr] {
			m.log.Blocked(tid, addr, mode)
			if !m.InternalUpdate() {
				panic(storage.ErrStuck)
			}
		}
	}
}

func (m *Manager) CompareAndSwap(tid, addr int, expected, desired int32, mode storage.Mode) {
	m.check(addr)
	m.catchUp(tid, mode, addr)
	v := m.threads[tid].mem.Load(addr)
	if v == expected {
		m.write(tid, addr, desired)
	}
	m.log.CompareAndSwap(tid, addr, mode, expected, v, desired)
}

func (m *Manager) FetchAndIncrement(tid, addr int, inc int32, mode storage.Mode) {
	m.check(addr)
	m.catchUp(tid, mode, addr)
	v := m.threads[tid].mem.Load(addr)
	m.write(tid, addr, v+inc)
	m.log.FetchAndIncrement(tid, addr, mode, v, inc)
}

// Fence waits until tid has seen the newest write to every location.
func (m *Manager) Fence(tid int, mode storage.Mode) {
	addrs := make([]int, m.size)
	for i := range addrs {
		addrs[i] = i
	}
	m.catchUp(tid, mode, addrs...)
	m.log.Fence(tid, mode)
}

func (m *Manager) InternalUpdate() bool {
	m.policy.Reset(m.snapshot())
	for {
		p, ok := m.policy.Next()
		if !ok {
			return false
		}
		storage.CheckChoice("thread", p.Reader, len(m.threads))
		storage.CheckChoice("thread", p.Sender, len(m.threads))
		if m.deliver(p.Reader, p.Sender) {
			return true
		}
	}
}

func (m *Manager) snapshot() Snapshot {
	var s Snapshot
	s.Threads = len(m.threads)
	for r := range m.threads {
		for o := range m.threads {
			if o == r {
				continue
			}
			if msg, ok := m.threads[o].out.At(m.threads[r].pos[o]); ok {
				s.Pending = append(s.Pending, Delivery{Pair{r, o}, msg})
			}
		}
	}
	return s
}

// deliver lets reader consume the next message from sender's
// buffer.
func (m *Manager) deliver(reader, sender int) bool {
	if reader == sender {
		return false
	}
	t := &m.threads[reader]
	msg, ok := m.threads[sender].out.At(t.pos[sender])
	if !ok {
		return false
	}
	t.pos[sender]++
	m.cleanUp(sender)
	if t.apply(reader, msg) {
		m.log.Internal("t%d execute from t%d: %v", reader, sender, msg)
	} else {
		m.log.Internal("t%d skip message from t%d: %v", reader, sender, msg)
	}
	m.cleanUp(reader)
	return true
}

// cleanUp drops the messages every thread has consumed from
// sender's buffer.
func (m *Manager) cleanUp(sender int) {
	n := m.threads[sender].out.Len()
	for i := range m.threads {
		if p := m.threads[i].pos[sender]; p < n {
			n = p
		}
	}
	if n == 0 {
		return
	}
	m.threads[sender].out.popN(n)
	for i := range m.threads {
		m.threads[i].pos[sender] -= n
	}
}

func (m *Manager) WriteState(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i := range m.threads {
		fmt.Fprintf(bw, "Thread %d\n%s\n", i, &m.threads[i])
	}
	fmt.Fprintf(bw, "Location timestamps: %s\n", joinInts(m.global))
	return bw.Flush()
}
