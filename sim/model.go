// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sim runs thread programs on the simulated memory models.
//
// A Config names a memory model and how its internal nondeterminism
// is resolved; Config.New builds a Machine, which pairs a
// storage.Manager with the Threads that use it. An Executor drives a
// Machine one step at a time. Enumerate and Explore collect the
// outcomes a program can reach, exhaustively or by sampling.
package sim

import (
	"fmt"
	"io"

	"github.com/aclements/wmm/internal/prompt"
	"github.com/aclements/wmm/program"
	"github.com/aclements/wmm/storage"
	"github.com/aclements/wmm/storage/pso"
	"github.com/aclements/wmm/storage/ra"
	"github.com/aclements/wmm/storage/sc"
	"github.com/aclements/wmm/storage/sra"
	"github.com/aclements/wmm/storage/tso"
)

// Model identifies a memory model.
type Model int

const (
	SC Model = iota
	TSO
	PSO
	RA
	SRA     // Strong release/acquire as causal broadcast.
	SRAView // Strong release/acquire as the view-based RA variant.
)

// Models lists every model, roughly from strongest to weakest.
var Models = []Model{SC, TSO, PSO, SRA, SRAView, RA}

var modelNames = []string{
	SC:      "sc",
	TSO:     "tso",
	PSO:     "pso",
	RA:      "ra",
	SRA:     "sra",
	SRAView: "sra-view",
}

func (m Model) String() string {
	if m < 0 || int(m) >= len(modelNames) {
		return fmt.Sprintf("Model(%d)", int(m))
	}
	return modelNames[m]
}

// ParseModel returns the Model named s.
func ParseModel(s string) (Model, error) {
	for m, name := range modelNames {
		if s == name {
			return Model(m), nil
		}
	}
	return 0, fmt.Errorf("unknown memory model %q", s)
}

// PolicyKind selects how a model resolves its internal
// nondeterminism.
type PolicyKind int

const (
	Sequential PolicyKind = iota
	Random
	Interactive
	Amb
)

// Policy configures the internal update policy of a model.
type Policy struct {
	Kind PolicyKind

	Seed    int64            // Random
	Prompt  *prompt.Prompter // Interactive
	Chooser storage.Chooser  // Amb
}

// Config describes a simulation.
type Config struct {
	Model  Model
	Size   int // Shared storage cells.
	Regs   int // Registers per thread.
	Policy Policy
	Log    *storage.Log // May be nil.
}

// Validate checks that c describes a simulation New can build.
func (c *Config) Validate() error {
	if c.Regs <= 0 {
		return fmt.Errorf("register count %d must be positive", c.Regs)
	}
	if c.Model < 0 || int(c.Model) >= len(modelNames) {
		return fmt.Errorf("unknown memory model %v", c.Model)
	}
	return c.checkManager()
}

func (c *Config) checkManager() error {
	if c.Size <= 0 {
		return fmt.Errorf("storage size %d must be positive", c.Size)
	}
	p := c.Policy
	switch p.Kind {
	case Sequential, Random:
	case Interactive:
		if p.Prompt == nil {
			return fmt.Errorf("interactive policy needs a prompt")
		}
	case Amb:
		if p.Chooser == nil {
			return fmt.Errorf("amb policy needs a chooser")
		}
	default:
		return fmt.Errorf("unknown policy kind %d", p.Kind)
	}
	return nil
}

// NewManager returns a Manager for threads threads.
func (c *Config) NewManager(threads int) (storage.Manager, error) {
	if err := c.checkManager(); err != nil {
		return nil, err
	}
	p := c.Policy
	switch c.Model {
	case SC:
		return sc.New(c.Size, c.Log), nil

	case TSO:
		var pol tso.Policy
		switch p.Kind {
		case Sequential:
			pol = tso.NewSequentialPolicy()
		case Random:
			pol = tso.NewRandomPolicy(p.Seed)
		case Interactive:
			pol = tso.NewInteractivePolicy(p.Prompt)
		case Amb:
			pol = tso.NewAmbPolicy(p.Chooser)
		}
		return tso.New(c.Size, threads, pol, c.Log), nil

	case PSO:
		var pol pso.Policy
		switch p.Kind {
		case Sequential:
			pol = pso.NewSequentialPolicy()
		case Random:
			pol = pso.NewRandomPolicy(p.Seed)
		case Interactive:
			pol = pso.NewInteractivePolicy(p.Prompt)
		case Amb:
			pol = pso.NewAmbPolicy(p.Chooser)
		}
		return pso.New(c.Size, threads, pol, c.Log), nil

	case RA, SRAView:
		var pol ra.Policy
		switch p.Kind {
		case Sequential:
			pol = ra.NewSequentialPolicy()
		case Random:
			pol = ra.NewRandomPolicy(p.Seed)
		case Interactive:
			pol = ra.NewInteractivePolicy(p.Prompt)
		case Amb:
			pol = ra.NewAmbPolicy(p.Chooser)
		}
		v := ra.RA
		if c.Model == SRAView {
			v = ra.SRA
		}
		return ra.New(c.Size, threads, v, pol, c.Log), nil

	case SRA:
		var pol sra.Policy
		switch p.Kind {
		case Sequential:
			pol = sra.NewSequentialPolicy()
		case Random:
			pol = sra.NewRandomPolicy(p.Seed)
		case Interactive:
			pol = sra.NewInteractivePolicy(p.Prompt)
		case Amb:
			pol = sra.NewAmbPolicy(p.Chooser)
		}
		return sra.New(c.Size, threads, pol, c.Log), nil
	}
	return nil, fmt.Errorf("unknown memory model %v", c.Model)
}

// New returns a Machine running progs, one thread per program. If a
// thread fails before reaching its first memory instruction, the
// error is a *StepError.
func (c *Config) New(progs []*program.Program) (*Machine, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	mem, err := c.NewManager(len(progs))
	if err != nil {
		return nil, err
	}
	ts, err := NewThreads(progs, mem, c.Regs)
	if err != nil {
		return nil, err
	}
	return &Machine{Mem: mem, Threads: ts, progs: progs, log: c.Log}, nil
}

// A Machine is a set of threads and the memory they share.
type Machine struct {
	Mem     storage.Manager
	Threads *Threads

	progs []*program.Program
	log   *storage.Log
}

// WriteState writes the memory state followed by the state of every
// thread.
func (m *Machine) WriteState(w io.Writer) error {
	if err := m.Mem.WriteState(w); err != nil {
		return err
	}
	return m.Threads.WriteState(w)
}

// Outcome returns the values of every register some load writes.
func (m *Machine) Outcome() Outcome {
	return Observe(m.progs, m.Threads)
}
