// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tso

import (
	"math/rand"

	"github.com/aclements/wmm/internal/prompt"
	"github.com/aclements/wmm/storage"
)

// A Snapshot is a copy of a Manager's store buffers.
type Snapshot struct {
	// Buffers holds the pending stores of each thread, oldest
	// first.
	Buffers [][]StoreInstruction
}

func (s Snapshot) pending() []int {
	var tids []int
	for tid, b := range s.Buffers {
		if len(b) > 0 {
			tids = append(tids, tid)
		}
	}
	return tids
}

// A Policy decides which thread's store buffer an internal update
// propagates.
//
// Reset is called at the start of every internal update with the
// current state. Next then returns candidate threads until the
// Manager finds one it can propagate, or until Next returns false.
type Policy interface {
	Reset(s Snapshot)
	Next() (tid int, ok bool)
}

// SequentialPolicy takes turns among threads with pending stores.
type SequentialPolicy struct {
	last  int
	queue []int
}

func NewSequentialPolicy() *SequentialPolicy {
	return &SequentialPolicy{last: -1}
}

func (p *SequentialPolicy) Reset(s Snapshot) {
	p.queue = s.pending()
	storage.RoundRobin(p.queue, p.last)
}

func (p *SequentialPolicy) Next() (int, bool) {
	if len(p.queue) == 0 {
		return 0, false
	}
	p.last, p.queue = p.queue[0], p.queue[1:]
	return p.last, true
}

// RandomPolicy picks threads with pending stores in a random order.
type RandomPolicy struct {
	rng   *rand.Rand
	queue []int
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

func (p *RandomPolicy) Next() (int, bool) {
	if len(p.queue) == 0 {
		return 0, false
	}
	tid := p.queue[0]
	p.queue = p.queue[1:]
	return tid, true
}

// InteractivePolicy shows the store buffers to an operator and asks
// which one to propagate. It declines to propagate at end of input
// or on an invalid answer.
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

func (p *InteractivePolicy) Next() (int, bool) {
	if p.asked || len(p.snap.pending()) == 0 {
		return 0, false
	}
	p.asked = true
	p.p.Printf("Thread buffers:\n")
	for tid, b := range p.snap.Buffers {
		buf := Buffer{b}
		p.p.Printf("b%d: %s\n", tid, &buf)
	}
	tid, err := p.p.Int("Enter thread id > ", len(p.snap.Buffers))
	if err != nil {
		p.p.Printf("%v\n", err)
		return 0, false
	}
	return tid, true
}

// AmbPolicy lets a storage.Chooser pick the thread to propagate.
type AmbPolicy struct {
	c     storage.Chooser
	queue []int
}

func NewAmbPolicy(c storage.Chooser) *AmbPolicy {
	return &AmbPolicy{c: c}
}

func (p *AmbPolicy) Reset(s Snapshot) {
	p.queue = s.pending()
}

func (p *AmbPolicy) Next() (int, bool) {
	if len(p.queue) == 0 {
		return 0, false
	}
	tid := p.queue[0]
	if len(p.queue) > 1 {
		tid = p.queue[p.c.Amb(len(p.queue))]
	}
	p.queue = nil
	return tid, true
}
