// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sc implements sequentially consistent memory: a single
// shared Storage that every access reads and writes directly.
package sc

import (
	"fmt"
	"io"

	"github.com/aclements/wmm/storage"
)

// Manager is a sequentially consistent storage.Manager.
type Manager struct {
	mem *storage.Storage
	log *storage.Log
}

// New returns a Manager over size zeroed cells. log may be nil.
func New(size int, log *storage.Log) *Manager {
	return &Manager{storage.New(size), log}
}

func (m *Manager) Load(tid, addr int, mode storage.Mode) int32 {
	v := m.mem.Load(addr)
	m.log.Load(tid, addr, mode, v)
	return v
}

func (m *Manager) Store(tid, addr int, value int32, mode storage.Mode) {
	m.mem.Store(addr, value)
	m.log.Store(tid, addr, mode, value)
}

func (m *Manager) CompareAndSwap(tid, addr int, expected, desired int32, mode storage.Mode) {
	v := m.mem.Load(addr)
	if v == expected {
		m.mem.Store(addr, desired)
	}
	m.log.CompareAndSwap(tid, addr, mode, expected, v, desired)
}

func (m *Manager) FetchAndIncrement(tid, addr int, inc int32, mode storage.Mode) {
	v := m.mem.Load(addr)
	m.mem.Store(addr, v+inc)
	m.log.FetchAndIncrement(tid, addr, mode, v, inc)
}

func (m *Manager) Fence(tid int, mode storage.Mode) {
	m.log.Fence(tid, mode)
}

// InternalUpdate always returns false: sequentially consistent
// memory has no hidden state.
func (m *Manager) InternalUpdate() bool {
	return false
}

func (m *Manager) WriteState(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Storage: %s\n", m.mem)
	return err
}
