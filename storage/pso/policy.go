// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pso

import (
	"fmt"
	"math/rand"

	"github.com/aclements/wmm/internal/prompt"
	"github.com/aclements/wmm/storage"
)

// A Target names one (thread, address) store buffer.
type Target struct {
	Thread, Addr int
}

func (t Target) String() string {
	return fmt.Sprintf("b%d#%d", t.Thread, t.Addr)
}

// A Snapshot is a copy of a Manager's store buffers.
type Snapshot struct {
	// Buffers[tid][addr] holds the values pending for addr in
	// thread tid, oldest first.
	Buffers [][][]int32
}

func (s Snapshot) size() int {
	if len(s.Buffers) == 0 {
		return 0
	}
	return len(s.Buffers[0])
}

func (s Snapshot) pending() []Target {
	var ts []Target
	for tid, addrs := range s.Buffers {
		for addr, vals := range addrs {
			if len(vals) > 0 {
				ts = append(ts, Target{tid, addr})
			}
		}
	}
	return ts
}

// A Policy decides which (thread, address) buffer an internal
// update propagates. It follows the same Reset/Next protocol as
// tso.Policy.
type Policy interface {
	Reset(s Snapshot)
	Next() (t Target, ok bool)
}

// SequentialPolicy takes turns among non-empty buffers, ordered by
// thread and then address.
type SequentialPolicy struct {
	last  int
	size  int
	queue []int
}

func NewSequentialPolicy() *SequentialPolicy {
	return &SequentialPolicy{last: -1}
}

func (p *SequentialPolicy) Reset(s Snapshot) {
	p.size = s.size()
	p.queue = p.queue[:0]
	for _, t := range s.pending() {
		p.queue = append(p.queue, t.Thread*p.size+t.Addr)
	}
	storage.RoundRobin(p.queue, p.last)
}

func (p *SequentialPolicy) Next() (Target, bool) {
	if len(p.queue) == 0 {
		return Target{}, false
	}
	p.last, p.queue = p.queue[0], p.queue[1:]
	return Target{p.last / p.size, p.last % p.size}, true
}

// RandomPolicy picks non-empty buffers in a random order.
type RandomPolicy struct {
	rng   *rand.Rand
	queue []Target
}

func NewRandomPolicy(seed int64) *RandomPolicy {
	return &RandomPolicy{rng: rand.New(rand.NewSource(seed))}
}

func (p *RandomPolicy) Reset(s Snapshot) {
	p.queue = s.pending()
	p.rng.Shuffle(len(p.queue), func(i, j int) {
		p.queue[i], p.queue[j] = p.queue[j], p.queue[i]
	})
}

func (p *RandomPolicy) Next() (Target, bool) {
	if len(p.queue) == 0 {
		return Target{}, false
	}
	t := p.queue[0]
	p.queue = p.queue[1:]
	return t, true
}

// InteractivePolicy asks an operator for a thread and an address.
type InteractivePolicy struct {
	p     *prompt.Prompter
	snap  Snapshot
	asked bool
}

func NewInteractivePolicy(p *prompt.Prompter) *InteractivePolicy {
	return &InteractivePolicy{p: p}
}

func (p *InteractivePolicy) Reset(s Snapshot) {
	p.snap, p.asked = s, false
}

func (p *InteractivePolicy) Next() (Target, bool) {
	if p.asked || len(p.snap.pending()) == 0 {
		return Target{}, false
	}
	p.asked = true
	p.p.Printf("Pending stores:\n")
	for _, t := range p.snap.pending() {
		b := AddressBuffer{p.snap.Buffers[t.Thread][t.Addr]}
		p.p.Printf("%v: %s\n", t, &b)
	}
	v, err := p.p.Ints("Enter thread id and address > ", len(p.snap.Buffers), p.snap.size())
	if err != nil {
		p.p.Printf("%v\n", err)
		return Target{}, false
	}
	return Target{v[0], v[1]}, true
}

// AmbPolicy lets a storage.Chooser pick the buffer to propagate.
type AmbPolicy struct {
	c     storage.Chooser
	queue []Target
}

func NewAmbPolicy(c storage.Chooser) *AmbPolicy {
	return &AmbPolicy{c: c}
}

func (p *AmbPolicy) Reset(s Snapshot) {
	p.queue = s.pending()
}

func (p *AmbPolicy) Next() (Target, bool) {
	if len(p.queue) == 0 {
		return Target{}, false
	}
	t := p.queue[0]
	if len(p.queue) > 1 {
		t = p.queue[p.c.Amb(len(p.queue))]
	}
	p.queue = nil
	return t, true
}
