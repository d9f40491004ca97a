// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pso implements partial store order memory.
//
// PSO generalizes TSO by keeping a separate FIFO store buffer for
// every (thread, address) pair. A thread's stores to one address
// become visible in issue order, but stores to different addresses
// may overtake each other.
package pso

import (
	"bufio"
	"fmt"
	"io"

	"github.com/aclements/wmm/storage"
)

// Manager is a PSO storage.Manager.
type Manager struct {
	mem     *storage.Storage
	buffers []ThreadBuffer
	policy  Policy
	log     *storage.Log
}

// New returns a Manager with size cells shared by threads threads.
// policy chooses which (thread, address) buffer each internal update
// propagates. log may be nil.
func New(size, threads int, policy Policy, log *storage.Log) *Manager {
	m := &Manager{
		mem:     storage.New(size),
		buffers: make([]ThreadBuffer, threads),
		policy:  policy,
		log:     log,
	}
	for i := range m.buffers {
		m.buffers[i] = newThreadBuffer(size)
	}
	return m
}

// buffer returns tid's buffer for addr, panicking on a bad address.
func (m *Manager) buffer(tid, addr int) *AddressBuffer {
	if addr < 0 || addr >= m.mem.Len() {
		panic(&storage.AddressError{Address: addr, Size: m.mem.Len()})
	}
	return m.buffers[tid].Address(addr)
}

func (m *Manager) Load(tid, addr int, mode storage.Mode) int32 {
	v, ok := m.buffer(tid, addr).Newest()
	if !ok {
		v = m.mem.Load(addr)
	}
	m.log.Load(tid, addr, mode, v)
	return v
}

func (m *Manager) Store(tid, addr int, value int32, mode storage.Mode) {
	m.buffer(tid, addr).Push(value)
	m.log.Store(tid, addr, mode, value)
}

func (m *Manager) CompareAndSwap(tid, addr int, expected, desired int32, mode storage.Mode) {
	m.flush(tid, addr)
	v := m.mem.Load(addr)
	if v == expected {
		m.mem.Store(addr, desired)
	}
	m.log.CompareAndSwap(tid, addr, mode, expected, v, desired)
}

func (m *Manager) FetchAndIncrement(tid, addr int, inc int32, mode storage.Mode) {
	m.flush(tid, addr)
	v := m.mem.Load(addr)
	m.mem.Store(addr, v+inc)
	m.log.FetchAndIncrement(tid, addr, mode, v, inc)
}

// Fence flushes every address buffer of tid.
func (m *Manager) Fence(tid int, mode storage.Mode) {
	for addr := 0; addr < m.mem.Len(); addr++ {
		m.flush(tid, addr)
	}
	m.log.Fence(tid, mode)
}

func (m *Manager) InternalUpdate() bool {
	m.policy.Reset(m.snapshot())
	for {
		t, ok := m.policy.Next()
		if !ok {
			return false
		}
		storage.CheckChoice("thread", t.Thread, len(m.buffers))
		storage.CheckChoice("address", t.Addr, m.mem.Len())
		if m.propagate(t.Thread, t.Addr) {
			return true
		}
	}
}

func (m *Manager) snapshot() Snapshot {
	s := Snapshot{Buffers: make([][][]int32, len(m.buffers))}
	for i := range m.buffers {
		s.Buffers[i] = m.buffers[i].values()
	}
	return s
}

func (m *Manager) propagate(tid, addr int) bool {
	v, ok := m.buffer(tid, addr).Pop()
	if !ok {
		return false
	}
	m.mem.Store(addr, v)
	m.log.Internal("b%d#%d: propagate (%d)", tid, addr, v)
	return true
}

func (m *Manager) flush(tid, addr int) {
	for m.propagate(tid, addr) {
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
