// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"errors"
	"fmt"
	"io"

	"github.com/aclements/wmm/amb"
	"github.com/aclements/wmm/program"
	"github.com/aclements/wmm/storage"
)

// MaxLocalSteps bounds the number of register-only instructions a
// thread may execute between two memory instructions.
var MaxLocalSteps = 10000

// ErrSpin is panicked when a thread exceeds MaxLocalSteps.
var ErrSpin = errors.New("thread spins without accessing memory")

// A StepError wraps a fatal error raised while a thread executed an
// instruction.
type StepError struct {
	Thread, PC int
	Inst       program.Inst
	Err        error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("t%d pc %d (%v): %v", e.Thread, e.PC, e.Inst, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// A Thread executes one program against a shared memory Manager. Its
// registers are a private Storage.
type Thread struct {
	id   int
	prog *program.Program
	regs *storage.Storage
	mem  storage.Manager
	pc   int
}

// NewThread returns thread id running prog with nregs zeroed
// registers.
func NewThread(id int, prog *program.Program, mem storage.Manager, nregs int) *Thread {
	return &Thread{id: id, prog: prog, regs: storage.New(nregs), mem: mem}
}

func (t *Thread) ID() int {
	return t.id
}

// PC returns the index of the next instruction.
func (t *Thread) PC() int {
	return t.pc
}

// Done reports whether t has run past its last instruction.
func (t *Thread) Done() bool {
	return t.pc >= len(t.prog.Insts)
}

// Current returns the next instruction, if any.
func (t *Thread) Current() (program.Inst, bool) {
	if t.Done() {
		return program.Inst{}, false
	}
	return t.prog.Insts[t.pc], true
}

// Registers returns t's register file. The caller must not modify it.
func (t *Thread) Registers() *storage.Storage {
	return t.regs
}

// RunLocal executes instructions up to the next memory instruction
// or the end of the program.
func (t *Thread) RunLocal() {
	for n := 0; ; n++ {
		inst, ok := t.Current()
		if !ok || inst.Op.IsMemory() {
			return
		}
		if n == MaxLocalSteps {
			panic(&StepError{t.id, t.pc, inst, ErrSpin})
		}
		t.Step()
	}
}

// Step executes the next instruction. It returns false if t is done.
func (t *Thread) Step() bool {
	inst, ok := t.Current()
	if !ok {
		return false
	}
	defer func() {
		err := recover()
		if err == nil {
			return
		}
		if e, ok := err.(error); ok && err != amb.PathTerminated && err != amb.PathCut {
			if _, ok := e.(*StepError); !ok {
				err = &StepError{t.id, t.pc, inst, e}
			}
		}
		panic(err)
	}()

	next := t.pc + 1
	r := t.regs
	switch inst.Op {
	case program.OpConst:
		r.Store(inst.Dst, inst.Value)
	case program.OpExpr:
		r.Store(inst.Dst, inst.Bin.Eval(r.Load(inst.A), r.Load(inst.B)))
	case program.OpGoto:
		if r.Load(inst.A) != 0 {
			pc, ok := t.prog.Target(inst.Label)
			if !ok {
				panic(fmt.Errorf("undefined label %d", inst.Label))
			}
			next = pc
		}
	case program.OpLoad:
		r.Store(inst.Dst, t.mem.Load(t.id, t.addr(inst), inst.Mode))
	case program.OpStore:
		t.mem.Store(t.id, t.addr(inst), r.Load(inst.B), inst.Mode)
	case program.OpCAS:
		t.mem.CompareAndSwap(t.id, t.addr(inst), r.Load(inst.B), r.Load(inst.C), inst.Mode)
	case program.OpFAI:
		t.mem.FetchAndIncrement(t.id, t.addr(inst), r.Load(inst.B), inst.Mode)
	case program.OpFence:
		t.mem.Fence(t.id, inst.Mode)
	default:
		panic(fmt.Errorf("bad instruction %v", inst))
	}
	t.pc = next
	return true
}

func (t *Thread) addr(inst program.Inst) int {
	return int(t.regs.Load(inst.A))
}

// Threads runs a set of threads that share one memory Manager. Each
// step of a thread executes exactly one memory instruction; the
// register-only instructions around it are run eagerly.
type Threads struct {
	threads []*Thread
}

// NewThreads returns threads 0 through len(progs)-1, each running the
// corresponding program with nregs registers. Each thread runs up to
// its first memory instruction; a failure there is returned as a
// *StepError.
func NewThreads(progs []*program.Program, mem storage.Manager, nregs int) (ts *Threads, err error) {
	defer func() {
		if v := recover(); v != nil {
			serr, ok := v.(*StepError)
			if !ok {
				panic(v)
			}
			ts, err = nil, serr
		}
	}()
	ts = &Threads{}
	for i, p := range progs {
		t := NewThread(i, p, mem, nregs)
		t.RunLocal()
		ts.threads = append(ts.threads, t)
	}
	return ts, nil
}

func (ts *Threads) Len() int {
	return len(ts.threads)
}

func (ts *Threads) Thread(tid int) *Thread {
	return ts.threads[tid]
}

// Step executes the next memory instruction of thread tid. It returns
// false if the thread is done.
func (ts *Threads) Step(tid int) bool {
	t := ts.threads[tid]
	t.RunLocal()
	if !t.Step() {
		return false
	}
	t.RunLocal()
	return true
}

// Unfinished returns the IDs of the threads that are not done.
func (ts *Threads) Unfinished() []int {
	var out []int
	for _, t := range ts.threads {
		if !t.Done() {
			out = append(out, t.id)
		}
	}
	return out
}

// Done reports whether every thread is done.
func (ts *Threads) Done() bool {
	for _, t := range ts.threads {
		if !t.Done() {
			return false
		}
	}
	return true
}

// WriteState writes the program counter and registers of every
// thread to w.
func (ts *Threads) WriteState(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Thread-local storages:\n"); err != nil {
		return err
	}
	for _, t := range ts.threads {
		if _, err := fmt.Fprintf(w, "t%d (pc %d): %v\n", t.id, t.pc, t.regs); err != nil {
			return err
		}
	}
	return nil
}
