// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/aclements/wmm/program"
	"github.com/aclements/wmm/sim"
	"github.com/aclements/wmm/storage"
)

// genOp is one operation of a generated litmus thread: a store of 1
// to variable v, or a load of v.
type genOp struct {
	store bool
	v     int
}

func (o genOp) String() string {
	if o.store {
		return fmt.Sprintf("st %d", o.v)
	}
	return fmt.Sprintf("ld %d", o.v)
}

// A generator enumerates litmus programs of stores and loads with up
// to maxThreads threads of up to maxOps operations each.
type generator struct {
	maxThreads, maxOps int
	storeMode, loadMode storage.Mode
}

// maxVar returns the number of variables. Every variable needs a
// store and a load, so there can be at most half as many as
// operations.
func (g *generator) maxVar() int {
	return g.maxThreads * g.maxOps / 2
}

// generate calls yield with every program that is not silly. Thread
// lengths are weakly decreasing and variables are stored in
// increasing order, which removes most programs that differ only by
// renaming.
func (g *generator) generate(yield func([][]genOp)) {
	threads := make([][]genOp, g.maxThreads)
	g.genrec(threads, 0, g.maxOps, 0, yield)
}

func (g *generator) genrec(threads [][]genOp, thr, maxops, nextstore int, yield func([][]genOp)) {
	if thr == g.maxThreads {
		if !silly(threads, nextstore) {
			yield(threads)
		}
		return
	}
	inst := len(threads[thr])

	// End this thread.
	if inst == 0 {
		// No more threads. There need to be at least two
		// threads for this to be interesting.
		if thr >= 2 {
			g.genrec(threads[:thr], g.maxThreads, 0, nextstore, yield)
		}
	} else {
		// Limit the next thread to the length of this one.
		g.genrec(threads, thr+1, inst, nextstore, yield)
	}
	if inst == maxops {
		return
	}

	// Store the next variable.
	if nextstore < g.maxVar() {
		threads[thr] = append(threads[thr], genOp{true, nextstore})
		g.genrec(threads, thr, maxops, nextstore+1, yield)
		threads[thr] = threads[thr][:inst]
	}

	// Load any variable.
	for v := 0; v < g.maxVar(); v++ {
		threads[thr] = append(threads[thr], genOp{false, v})
		g.genrec(threads, thr, maxops, nextstore, yield)
		threads[thr] = threads[thr][:inst]
	}
}

// silly reports whether a program has a load of a variable that is
// never stored, or a store that no other thread loads.
func silly(threads [][]genOp, nvars int) bool {
	storeThread := make([]int, nvars)
	for tid, ops := range threads {
		for _, op := range ops {
			if op.store {
				storeThread[op.v] = tid
			}
		}
	}
	loadedElsewhere := make([]bool, nvars)
	for tid, ops := range threads {
		for _, op := range ops {
			if op.store {
				continue
			}
			if op.v >= nvars {
				return true
			}
			if storeThread[op.v] != tid {
				loadedElsewhere[op.v] = true
			}
		}
	}
	for _, ok := range loadedElsewhere {
		if !ok {
			return true
		}
	}
	return false
}

// programs converts a generated program to thread programs. Register
// 0 holds 1, register 1+v holds the address of variable v, and the
// i'th load of a thread goes to register 1+maxVar+i.
func (g *generator) programs(threads [][]genOp) []*program.Program {
	var out []*program.Program
	for _, ops := range threads {
		p := &program.Program{Labels: map[int]int{}}
		p.Insts = append(p.Insts, program.Inst{Op: program.OpConst, Dst: 0, Value: 1})
		addrs := map[int]bool{}
		nload := 0
		for _, op := range ops {
			areg := 1 + op.v
			if !addrs[op.v] {
				addrs[op.v] = true
				p.Insts = append(p.Insts, program.Inst{Op: program.OpConst, Dst: areg, Value: int32(op.v)})
			}
			if op.store {
				p.Insts = append(p.Insts, program.Inst{Op: program.OpStore, Mode: g.storeMode, A: areg, B: 0})
			} else {
				p.Insts = append(p.Insts, program.Inst{Op: program.OpLoad, Mode: g.loadMode, A: areg, Dst: 1 + g.maxVar() + nload})
				nload++
			}
		}
		out = append(out, p)
	}
	return out
}

// regs returns the number of registers generated programs use.
func (g *generator) regs() int {
	return 1 + g.maxVar() + g.maxOps
}

func formatOps(threads [][]genOp) string {
	var lines []string
	var hdr []string
	for tid := range threads {
		hdr = append(hdr, fmt.Sprintf("T%d", tid))
	}
	lines = append(lines, strings.Join(hdr, "\t"))
	for i := 0; ; i++ {
		var line []string
		more := false
		for _, ops := range threads {
			if i < len(ops) {
				line = append(line, ops[i].String())
				more = true
			} else {
				line = append(line, "")
			}
		}
		if !more {
			break
		}
		lines = append(lines, strings.Join(line, "\t"))
	}
	return strings.Join(lines, "\n")
}

// A counterexample is a program on which the weaker model permits an
// outcome the stronger one does not.
type counterexample struct {
	progs            []*program.Program
	weaker, stronger sim.Model
	wset, sset       *sim.OutcomeSet
}

func (c *counterexample) print(w io.Writer) {
	l := &program.Litmus{Comment: fmt.Sprintf("%v is weaker than %v", c.weaker, c.stronger), Threads: c.progs}
	w.Write(l.Format())
	tab := sim.OutcomeTable([]string{c.weaker.String(), c.stronger.String()}, []*sim.OutcomeSet{c.wset, c.sset})
	sim.WriteTable(w, tab)
}

// findCounterexamples fills in counterexamples[i][j] for every pair
// of models that progs distinguishes and that has none yet.
// es[i] is the enumeration of progs under models[i]. It returns the
// new counterexamples.
func findCounterexamples(counterexamples [][]*counterexample, es []*sim.Enumeration, progs []*program.Program) []*counterexample {
	var found []*counterexample
	for i := range counterexamples {
		for j := range counterexamples[i] {
			if i == j || counterexamples[i][j] != nil {
				continue
			}
			wi, wj := &es[i].Outcomes, &es[j].Outcomes
			if wi.Equal(wj) || !wi.Contains(wj) {
				continue
			}
			// Model i permits outcomes that model j does
			// not. (i is weaker than j.)
			c := &counterexample{progs, es[i].Model, es[j].Model, wi, wj}
			counterexamples[i][j] = c
			found = append(found, c)
		}
	}
	return found
}
