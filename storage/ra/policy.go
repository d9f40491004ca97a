// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ra

import (
	"fmt"
	"math/rand"

	"github.com/aclements/wmm/internal/prompt"
	"github.com/aclements/wmm/storage"
)

// A Policy resolves the nondeterminism of reads and writes.
//
// Both methods receive copies of the candidate messages, in
// timestamp order, and are only called when there is more than one
// candidate.
type Policy interface {
	// ChooseMessage returns the index of the message thread tid
	// reads. rmw reports whether the read is part of an atomic
	// read-modify-write.
	ChooseMessage(tid int, cands []Message, rmw bool) int

	// ChooseSlot returns the index of the message that a new
	// write by tid immediately follows. The chosen message must
	// not have UsedByRMW set.
	ChooseSlot(tid int, cands []Message) int
}

// freeSlots returns the indexes of messages a write may follow.
func freeSlots(cands []Message) []int {
	var idx []int
	for i := range cands {
		if !cands[i].UsedByRMW {
			idx = append(idx, i)
		}
	}
	return idx
}

// SequentialPolicy always reads the newest message and places
// writes after the newest message, which makes every location behave
// like sequentially consistent memory.
type SequentialPolicy struct{}

func NewSequentialPolicy() SequentialPolicy {
	return SequentialPolicy{}
}

func (SequentialPolicy) ChooseMessage(tid int, cands []Message, rmw bool) int {
	return len(cands) - 1
}

func (SequentialPolicy) ChooseSlot(tid int, cands []Message) int {
	return len(cands) - 1
}

// RandomPolicy picks uniformly among the candidates.
type RandomPolicy struct {
	rng *rand.Rand
}

func NewRandomPolicy(seed int64) *RandomPolicy {
	return &RandomPolicy{rand.New(rand.NewSource(seed))}
}

func (p *RandomPolicy) ChooseMessage(tid int, cands []Message, rmw bool) int {
	return p.rng.Intn(len(cands))
}

func (p *RandomPolicy) ChooseSlot(tid int, cands []Message) int {
	free := freeSlots(cands)
	return free[p.rng.Intn(len(free))]
}

// InteractivePolicy asks an operator. Since a read cannot be
// declined, it panics with an error wrapping storage.ErrEndOfInput
// if it cannot get an answer.
type InteractivePolicy struct {
	p *prompt.Prompter
}

func NewInteractivePolicy(p *prompt.Prompter) *InteractivePolicy {
	return &InteractivePolicy{p}
}

func (p *InteractivePolicy) list(cands []Message) {
	for i := range cands {
		p.p.Printf("%d: %v\n", i, &cands[i])
	}
}

func (p *InteractivePolicy) ChooseMessage(tid int, cands []Message, rmw bool) int {
	what := "read"
	if rmw {
		what = "atomic update"
	}
	p.p.Printf("Messages t%d may %s at #%d:\n", tid, what, cands[0].Loc)
	p.list(cands)
	i, err := p.p.Int("Enter message > ", len(cands))
	if err != nil {
		panic(fmt.Errorf("%w: %v", storage.ErrEndOfInput, err))
	}
	return i
}

func (p *InteractivePolicy) ChooseSlot(tid int, cands []Message) int {
	p.p.Printf("Messages t%d may write after at #%d:\n", tid, cands[0].Loc)
	p.list(cands)
	i, err := p.p.Int("Write after message > ", len(cands))
	if err == nil && cands[i].UsedByRMW {
		err = fmt.Errorf("%w: message %d was read by an atomic update", prompt.ErrInvalid, i)
	}
	if err != nil {
		panic(fmt.Errorf("%w: %v", storage.ErrEndOfInput, err))
	}
	return i
}

// AmbPolicy lets a storage.Chooser make every choice.
type AmbPolicy struct {
	c storage.Chooser
}

func NewAmbPolicy(c storage.Chooser) *AmbPolicy {
	return &AmbPolicy{c}
}

func (p *AmbPolicy) ChooseMessage(tid int, cands []Message, rmw bool) int {
	return p.c.Amb(len(cands))
}

func (p *AmbPolicy) ChooseSlot(tid int, cands []Message) int {
	free := freeSlots(cands)
	if len(free) == 1 {
		return free[0]
	}
	return free[p.c.Amb(len(free))]
}
