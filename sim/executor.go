// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"errors"
	"fmt"
	"io"
	"math/rand"

	"github.com/aclements/wmm/internal/prompt"
	"github.com/aclements/wmm/storage"
)

// ErrAllBlocked is panicked when unfinished threads remain but none
// of them can take a step.
var ErrAllBlocked = errors.New("all threads are blocked")

// An Executor drives a Machine.
type Executor interface {
	// Execute performs one step, either of a thread or of the
	// memory model. It returns false if no step was possible.
	Execute() bool

	// WriteState writes the state of the Machine to w.
	WriteState(w io.Writer) error
}

// Run calls e.Execute until it returns false or maxSteps steps have
// been taken. maxSteps <= 0 means no limit. Run returns the number of
// steps taken and whether e ran to completion.
func Run(e Executor, maxSteps int) (steps int, done bool) {
	for maxSteps <= 0 || steps < maxSteps {
		if !e.Execute() {
			return steps, true
		}
		steps++
	}
	return steps, false
}

// RandomExecutor picks steps at random.
type RandomExecutor struct {
	m   *Machine
	rng *rand.Rand
}

func NewRandomExecutor(m *Machine, seed int64) *RandomExecutor {
	return &RandomExecutor{m, rand.New(rand.NewSource(seed))}
}

// Execute flips a coin to decide whether to try a thread step or an
// internal update first, falling back to the other. After each step
// the memory state is logged.
func (e *RandomExecutor) Execute() bool {
	var ok bool
	if e.rng.Intn(2) == 0 {
		ok = e.executeThread() || e.m.Mem.InternalUpdate()
	} else {
		ok = e.m.Mem.InternalUpdate() || e.executeThread()
	}
	if ok {
		e.m.log.State(e.m.Mem)
	}
	return ok
}

func (e *RandomExecutor) executeThread() bool {
	tids := e.m.Threads.Unfinished()
	if len(tids) == 0 {
		return false
	}
	e.rng.Shuffle(len(tids), func(i, j int) { tids[i], tids[j] = tids[j], tids[i] })
	for _, tid := range tids {
		if e.m.Threads.Step(tid) {
			return true
		}
	}
	panic(ErrAllBlocked)
}

func (e *RandomExecutor) WriteState(w io.Writer) error {
	return e.m.WriteState(w)
}

// stepKinds are the answers to the interactive step prompt, the
// default first.
var stepKinds = []string{"thread", "memory"}

// InteractiveExecutor asks an operator for every step and prints the
// memory state after each one.
type InteractiveExecutor struct {
	m *Machine
	p *prompt.Prompter
}

func NewInteractiveExecutor(m *Machine, p *prompt.Prompter) *InteractiveExecutor {
	return &InteractiveExecutor{m, p}
}

// Execute performs the step the operator asks for, or the other kind
// of step if that one is impossible. It returns false at the end of
// input.
func (e *InteractiveExecutor) Execute() (ok bool) {
	defer func() {
		if err := recover(); err != nil {
			if err, isErr := err.(error); isErr && errors.Is(err, storage.ErrEndOfInput) {
				e.p.Printf("End of input.\n")
				ok = false
				return
			}
			panic(err)
		}
	}()

	var kind int
	for {
		var err error
		kind, err = e.p.Index("Execute user THREAD or internal MEMORY update? [T/m] > ", stepKinds)
		if err == io.EOF {
			return false
		}
		if err == nil {
			break
		}
		e.p.Printf("%v\n", err)
	}

	if kind == 0 {
		ok = e.executeThread() || e.internalUpdate()
	} else {
		ok = e.internalUpdate() || e.executeThread()
	}
	if err := e.m.Mem.WriteState(e.p.Writer()); err != nil {
		panic(err)
	}
	return ok
}

func (e *InteractiveExecutor) executeThread() bool {
	ts := e.m.Threads
	if ts.Done() {
		e.p.Printf("All threads have finished their execution.\n")
		return false
	}
	e.p.Printf("Choose thread to execute:\n")
	for _, tid := range ts.Unfinished() {
		t := ts.Thread(tid)
		inst, _ := t.Current()
		e.p.Printf("%d: %-20s registers: %v\n", tid, inst, t.Registers())
	}
	for {
		tid, err := e.p.Int("Enter thread id > ", ts.Len())
		if err == io.EOF {
			panic(fmt.Errorf("choosing thread: %w", storage.ErrEndOfInput))
		}
		if err == nil && ts.Step(tid) {
			return true
		}
		e.p.Printf("This thread cannot be executed.\n")
	}
}

func (e *InteractiveExecutor) internalUpdate() bool {
	if e.m.Mem.InternalUpdate() {
		return true
	}
	e.p.Printf("No internal memory updates could be performed.\n")
	return false
}

func (e *InteractiveExecutor) WriteState(w io.Writer) error {
	return e.m.WriteState(w)
}
