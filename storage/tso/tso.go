// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tso implements total store order memory, in the style of
// x86-TSO.
//
// Each thread has a FIFO store buffer. Stores enter the issuing
// thread's buffer and reach shared storage only when propagated,
// either by an internal update, a fence, or an atomic
// read-modify-write by the same thread. A thread's loads see its own
// newest buffered store to an address before shared storage.
package tso

import (
	"bufio"
	"fmt"
	"io"

	"github.com/aclements/wmm/storage"
)

// Manager is a TSO storage.Manager.
type Manager struct {
	mem     *storage.Storage
	buffers []Buffer
	policy  Policy
	log     *storage.Log
}

// New returns a Manager with size cells shared by threads threads.
// policy chooses which buffer each internal update propagates. log
// may be nil.
func New(size, threads int, policy Policy, log *storage.Log) *Manager {
	return &Manager{
		mem:     storage.New(size),
		buffers: make([]Buffer, threads),
		policy:  policy,
		log:     log,
	}
}

func (m *Manager) Load(tid, addr int, mode storage.Mode) int32 {
	v, ok := m.buffers[tid].Lookup(addr)
	if !ok {
		v = m.mem.Load(addr)
	}
	m.log.Load(tid, addr, mode, v)
	return v
}

func (m *Manager) Store(tid, addr int, value int32, mode storage.Mode) {
	if addr < 0 || addr >= m.mem.Len() {
		// Catch bad addresses now rather than at propagation.
		panic(&storage.AddressError{Address: addr, Size: m.mem.Len()})
	}
	m.buffers[tid].Push(StoreInstruction{addr, value})
	m.log.Store(tid, addr, mode, value)
}

func (m *Manager) CompareAndSwap(tid, addr int, expected, desired int32, mode storage.Mode) {
	m.flush(tid)
	v := m.mem.Load(addr)
	if v == expected {
		m.mem.Store(addr, desired)
	}
	m.log.CompareAndSwap(tid, addr, mode, expected, v, desired)
}

func (m *Manager) FetchAndIncrement(tid, addr int, inc int32, mode storage.Mode) {
	m.flush(tid)
	v := m.mem.Load(addr)
	m.mem.Store(addr, v+inc)
	m.log.FetchAndIncrement(tid, addr, mode, v, inc)
}

func (m *Manager) Fence(tid int, mode storage.Mode) {
	m.flush(tid)
	m.log.Fence(tid, mode)
}

func (m *Manager) InternalUpdate() bool {
	m.policy.Reset(m.snapshot())
	for {
		tid, ok := m.policy.Next()
		if !ok {
			return false
		}
		storage.CheckChoice("thread", tid, len(m.buffers))
		if m.propagate(tid) {
			return true
		}
	}
}

func (m *Manager) snapshot() Snapshot {
	s := Snapshot{Buffers: make([][]StoreInstruction, len(m.buffers))}
	for i := range m.buffers {
		s.Buffers[i] = m.buffers[i].Stores()
	}
	return s
}

// propagate moves the oldest store in tid's buffer to shared
// storage.
func (m *Manager) propagate(tid int) bool {
	s, ok := m.buffers[tid].Pop()
	if !ok {
		return false
	}
	m.mem.Store(s.Addr, s.Value)
	m.log.Internal("b%d: propagate (%v)", tid, s)
	return true
}

func (m *Manager) flush(tid int) {
	for m.propagate(tid) {
	}
}

func (m *Manager) WriteState(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Shared storage: %s\n", m.mem)
	fmt.Fprintf(bw, "Thread buffers:\n")
	for i := range m.buffers {
		fmt.Fprintf(bw, "b%d: %s\n", i, &m.buffers[i])
	}
	return bw.Flush()
}
