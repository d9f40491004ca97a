// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sra

import (
	"fmt"
	"math/rand"

	"github.com/aclements/wmm/internal/prompt"
	"github.com/aclements/wmm/storage"
)

// A Pair names a thread that consumes a message from another
// thread's buffer.
type Pair struct {
	Reader, Sender int
}

// A Delivery is a message a Reader can consume next from a Sender.
type Delivery struct {
	Pair
	Msg Message
}

// A Snapshot lists every delivery possible in the current state.
type Snapshot struct {
	Threads int
	Pending []Delivery
}

func (s Snapshot) has(p Pair) bool {
	for _, d := range s.Pending {
		if d.Pair == p {
			return true
		}
	}
	return false
}

// A Policy chooses which delivery an internal update performs.
type Policy interface {
	Reset(s Snapshot)
	Next() (p Pair, ok bool)
}

// SequentialPolicy takes turns among possible deliveries, ordered by
// reader and then sender.
type SequentialPolicy struct {
	last    int
	threads int
	queue   []int
}

func NewSequentialPolicy() *SequentialPolicy {
	return &SequentialPolicy{last: -1}
}

func (p *SequentialPolicy) Reset(s Snapshot) {
	p.threads = s.Threads
	p.queue = p.queue[:0]
	for _, d := range s.Pending {
		p.queue = append(p.queue, d.Reader*s.Threads+d.Sender)
	}
	storage.RoundRobin(p.queue, p.last)
}

func (p *SequentialPolicy) Next() (Pair, bool) {
	if len(p.queue) == 0 {
		return Pair{}, false
	}
	p.last, p.queue = p.queue[0], p.queue[1:]
	return Pair{p.last / p.threads, p.last % p.threads}, true
}

// RandomPolicy picks possible deliveries in a random order.
type RandomPolicy struct {
	rng   *rand.Rand
	queue []Pair
}

func NewRandomPolicy(seed int64) *RandomPolicy {
	return &RandomPolicy{rng: rand.New(rand.NewSource(seed))}
}

func (p *RandomPolicy) Reset(s Snapshot) {
	p.queue = p.queue[:0]
	for _, d := range s.Pending {
		p.queue = append(p.queue, d.Pair)
	}
	p.rng.Shuffle(len(p.queue), func(i, j int) {
		p.queue[i], p.queue[j] = p.queue[j], p.queue[i]
	})
}

func (p *RandomPolicy) Next() (Pair, bool) {
	if len(p.queue) == 0 {
		return Pair{}, false
	}
	d := p.queue[0]
	p.queue = p.queue[1:]
	return d, true
}

// InteractivePolicy asks an operator which delivery to perform.
//
// Answers naming a pair with nothing to deliver are asked again.
// Since atomic operations and fences may depend on an answer, it
// panics with an error wrapping storage.ErrEndOfInput if it cannot
// get one.
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

func (p *InteractivePolicy) Next() (Pair, bool) {
	if p.asked || len(p.snap.Pending) == 0 {
		return Pair{}, false
	}
	p.asked = true
	p.p.Printf("Possible deliveries (reader sender: message):\n")
	for _, d := range p.snap.Pending {
		p.p.Printf("%d %d: %v\n", d.Reader, d.Sender, d.Msg)
	}
	for {
		v, err := p.p.Ints("Enter reader and sender thread ids > ", p.snap.Threads, p.snap.Threads)
		if err != nil {
			panic(fmt.Errorf("%w: %v", storage.ErrEndOfInput, err))
		}
		pair := Pair{v[0], v[1]}
		if p.snap.has(pair) {
			return pair, true
		}
		p.p.Printf("t%d has no message to consume from t%d.\n", pair.Reader, pair.Sender)
	}
}

// AmbPolicy lets a storage.Chooser pick the delivery.
type AmbPolicy struct {
	c     storage.Chooser
	queue []Pair
}

func NewAmbPolicy(c storage.Chooser) *AmbPolicy {
	return &AmbPolicy{c: c}
}

func (p *AmbPolicy) Reset(s Snapshot) {
	p.queue = p.queue[:0]
	for _, d := range s.Pending {
		p.queue = append(p.queue, d.Pair)
	}
}

func (p *AmbPolicy) Next() (Pair, bool) {
	if len(p.queue) == 0 {
		return Pair{}, false
	}
	d := p.queue[0]
	if len(p.queue) > 1 {
		d = p.queue[p.c.Amb(len(p.queue))]
	}
	p.queue = nil
	return d, true
}
