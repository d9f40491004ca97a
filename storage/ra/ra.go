// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ra implements release/acquire memory as message passing
// with views.
//
// Every write adds a Message to its location's History, placed in
// the location's modification order by a timestamp. Each thread has
// a View giving, per location, the oldest message it may still
// read. A read picks any message at or after the thread's view and
// joins the message's view into the thread's: the message's release
// view for an acquire read of a release write, its base view
// otherwise. A relaxed write's base view covers only the write
// itself, plus whatever the writer published with its last release
// fence.
//
// Atomic read-modify-writes read a message not yet read by another
// read-modify-write and place their write immediately after it.
// Fences are read-modify-writes of an extra location that no
// program can address.
//
// In the SRA variant every write goes after the newest message of
// its location and read-modify-writes must read the newest message.
package ra

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/aclements/wmm/storage"
)

// Variant selects between release/acquire and strong
// release/acquire.
type Variant int

const (
	RA Variant = iota
	SRA
)

func (v Variant) String() string {
	if v == SRA {
		return "SRA"
	}
	return "RA"
}

// Manager is a release/acquire storage.Manager.
type Manager struct {
	size    int
	variant Variant
	hist    []History // Indexed by location; hist[size] is the fence location.
	views   []View
	bases   []View
	policy  Policy
	log     *storage.Log
}

// New returns a Manager with size locations shared by threads
// threads. policy chooses which message each read takes and where
// each write goes. log may be nil.
func New(size, threads int, variant Variant, policy Policy, log *storage.Log) *Manager {
	m := &Manager{
		size:    size,
		variant: variant,
		hist:    make([]History, size+1),
		views:   make([]View, threads),
		bases:   make([]View, threads),
		policy:  policy,
		log:     log,
	}
	for loc := range m.hist {
		m.hist[loc].insert(&Message{Loc: loc, Base: make(View, size+1)})
	}
	for tid := range m.views {
		m.views[tid] = make(View, size+1)
		m.bases[tid] = make(View, size+1)
	}
	return m
}

func (m *Manager) fenceLoc() int {
	return m.size
}

func (m *Manager) check(addr int) {
	if addr < 0 || addr >= m.size {
		panic(&storage.AddressError{Address: addr, Size: m.size})
	}
}

func (m *Manager) Load(tid, addr int, mode storage.Mode) int32 {
	m.check(addr)
	msg := m.read(tid, addr, mode.IsAcquire(), false)
	m.log.Load(tid, addr, mode, msg.Value)
	return msg.Value
}

func (m *Manager) Store(tid, addr int, value int32, mode storage.Mode) {
	m.check(addr)
	m.write(tid, addr, value, mode.IsRelease(), nil)
	m.log.Store(tid, addr, mode, value)
}

func (m *Manager) CompareAndSwap(tid, addr int, expected, desired int32, mode storage.Mode) {
	m.check(addr)
	msg := m.read(tid, addr, mode.IsAcquire(), true)
	if msg.Value == expected {
		m.write(tid, addr, desired, mode.IsRelease(), msg)
	}
	m.log.CompareAndSwap(tid, addr, mode, expected, msg.Value, desired)
}

func (m *Manager) FetchAndIncrement(tid, addr int, inc int32, mode storage.Mode) {
	m.check(addr)
	msg := m.read(tid, addr, mode.IsAcquire(), true)
	m.write(tid, addr, msg.Value+inc, mode.IsRelease(), msg)
	m.log.FetchAndIncrement(tid, addr, mode, msg.Value, inc)
}

func (m *Manager) Fence(tid int, mode storage.Mode) {
	loc := m.fenceLoc()
	msg := m.read(tid, loc, mode.IsAcquire(), true)
	m.write(tid, loc, msg.Value, mode.IsRelease(), msg)
	m.log.Fence(tid, mode)
}

// InternalUpdate always returns false. All of this model's
// nondeterminism is resolved by the policy during reads and writes.
func (m *Manager) InternalUpdate() bool {
	return false
}

func snapshot(msgs []*Message) []Message {
	out := make([]Message, len(msgs))
	for i, msg := range msgs {
		out[i] = msg.clone()
	}
	return out
}

// read chooses a message at loc for tid to read and updates tid's
// view. If rmw is set, only messages that no other read-modify-write
// has read are eligible.
func (m *Manager) read(tid, loc int, acquire, rmw bool) *Message {
	h := &m.hist[loc]
	cands := h.From(m.views[tid][loc])
	if rmw {
		if m.variant == SRA {
			cands = []*Message{h.Last()}
		} else {
			var free []*Message
			for _, msg := range cands {
				if !msg.UsedByRMW {
					free = append(free, msg)
				}
			}
			cands = free
		}
	}
	i := 0
	if len(cands) > 1 {
		i = m.policy.ChooseMessage(tid, snapshot(cands), rmw)
		storage.CheckChoice("message", i, len(cands))
	}
	msg := cands[i]

	if acquire && msg.Release != nil {
		m.views[tid].Join(msg.Release)
	} else {
		m.views[tid].Join(msg.Base)
	}
	m.collect()
	return msg
}

// write adds a message at loc on behalf of tid. If prev is non-nil,
// this write completes a read-modify-write that read prev and goes
// directly after it.
func (m *Manager) write(tid, loc int, value int32, release bool, prev *Message) {
	h := &m.hist[loc]
	var ts float64
	switch {
	case m.variant == SRA:
		ts = h.Last().Timestamp + 1
	case prev != nil:
		ts = m.after(loc, prev)
	default:
		cands := h.From(m.views[tid][loc])
		i := len(cands) - 1
		if len(cands) > 1 {
			i = m.policy.ChooseSlot(tid, snapshot(cands))
			storage.CheckChoice("timestamp", i, len(cands))
			if cands[i].UsedByRMW {
				panic(&storage.ChoiceError{What: "timestamp after atomic update", Choice: i, N: len(cands)})
			}
		}
		ts = m.after(loc, cands[i])
	}
	if prev != nil {
		prev.UsedByRMW = true
	}

	view := m.views[tid]
	view[loc] = ts
	msg := &Message{Loc: loc, Value: value, Timestamp: ts}
	msg.Base = m.bases[tid].Clone()
	msg.Base[loc] = ts
	if release {
		msg.Release = view.Clone()
		if loc == m.fenceLoc() {
			// A release fence publishes everything the
			// thread has seen with its later relaxed writes.
			m.bases[tid] = view.Clone()
		}
	}
	h.insert(msg)
	m.collect()
}

// after returns a fresh timestamp between prev and the message
// following it.
func (m *Manager) after(loc int, prev *Message) float64 {
	next := m.hist[loc].Next(prev)
	if next == nil {
		return prev.Timestamp + 1
	}
	mid := prev.Timestamp + (next.Timestamp-prev.Timestamp)/2
	if mid <= prev.Timestamp || mid >= next.Timestamp {
		// Out of float64 precision between prev and next.
		m.relabel(loc)
		mid = prev.Timestamp + (next.Timestamp-prev.Timestamp)/2
	}
	return mid
}

// relabel renumbers the messages at loc 0, 1, 2, ... and rewrites
// every view entry for loc to match, preserving order.
func (m *Manager) relabel(loc int) {
	h := &m.hist[loc]
	old := make([]float64, len(h.msgs))
	for i, msg := range h.msgs {
		old[i] = msg.Timestamp
		msg.Timestamp = float64(i)
	}
	remap := func(v View) {
		if v == nil {
			return
		}
		ts := v[loc]
		i := sort.SearchFloat64s(old, ts)
		if i < len(old) && old[i] == ts {
			v[loc] = float64(i)
		} else {
			v[loc] = float64(i) - 0.5
		}
	}
	for tid := range m.views {
		remap(m.views[tid])
		remap(m.bases[tid])
	}
	for l := range m.hist {
		for _, msg := range m.hist[l].msgs {
			remap(msg.Base)
			remap(msg.Release)
		}
	}
	m.log.Warningf("relabeled %d timestamps at #%d", len(old), loc)
}

// collect drops messages no thread can read any more.
func (m *Manager) collect() {
	if len(m.views) == 0 {
		return
	}
	for loc := range m.hist {
		min := math.Inf(1)
		for _, v := range m.views {
			min = math.Min(min, v[loc])
		}
		m.hist[loc].prune(min)
	}
}

func (m *Manager) WriteState(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Messages per location:\n")
	for loc := range m.hist {
		name := fmt.Sprintf("#%d", loc)
		if loc == m.fenceLoc() {
			name = "fence"
		}
		fmt.Fprintf(bw, "%s: %s\n", name, &m.hist[loc])
	}
	fmt.Fprintf(bw, "Thread views:\n")
	for tid := range m.views {
		fmt.Fprintf(bw, "t%d: %v base: %v\n", tid, m.views[tid], m.bases[tid])
	}
	return bw.Flush()
}
