// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package program parses and prints the thread programs run by the
// memory model simulators.
//
// A program is a sequence of lines, each holding at most one
// instruction, optionally preceded by a numeric label:
//
//	N = C             set register N to constant C
//	N = A op B        set register N to A op B, op one of + - * /
//	if R goto L       jump to label L if register R is non-zero
//	load M #A R       load from the address in register A into R
//	store M #A V      store register V to the address in register A
//	cas M #A E N      compare-and-swap: if *A == E { *A = N }
//	fei M #A I        fetch-and-increment *A by register I
//	fence M           memory fence
//	L: ...            label L names the following instruction
//
// M is a memory access mode: SEQ_CST, REL, ACQ, REL_ACQ or RLX.
// Lines beginning with "/" are comments.
package program

import (
	"fmt"
	"sort"
	"strings"
)

// A Program is one thread's instructions.
type Program struct {
	Insts []Inst

	// Labels maps each label to the index of the instruction it
	// names. A label may name len(Insts), the end of the program.
	Labels map[int]int
}

// Target returns the instruction index named by label.
func (p *Program) Target(label int) (int, bool) {
	pc, ok := p.Labels[label]
	return pc, ok
}

// String formats p in the syntax accepted by Parse.
func (p *Program) String() string {
	byPC := make(map[int][]int)
	for label, pc := range p.Labels {
		byPC[pc] = append(byPC[pc], label)
	}
	for _, labels := range byPC {
		sort.Ints(labels)
	}

	var b strings.Builder
	for pc := 0; pc <= len(p.Insts); pc++ {
		labels := byPC[pc]
		if pc == len(p.Insts) {
			for _, l := range labels {
				fmt.Fprintf(&b, "%d:\n", l)
			}
			break
		}
		for i, l := range labels {
			if i == len(labels)-1 {
				fmt.Fprintf(&b, "%d: ", l)
			} else {
				fmt.Fprintf(&b, "%d:\n", l)
			}
		}
		fmt.Fprintf(&b, "%v\n", p.Insts[pc])
	}
	return b.String()
}

// MemoryOps returns the number of instructions in p that access
// shared memory.
func (p *Program) MemoryOps() int {
	n := 0
	for _, inst := range p.Insts {
		if inst.Op.IsMemory() {
			n++
		}
	}
	return n
}
