// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"bytes"
	"fmt"

	"github.com/aclements/wmm/amb"
	"github.com/aclements/wmm/internal/failure"
	"github.com/aclements/wmm/program"
	"golang.org/x/crypto/blake2b"
)

// EnumConfig configures Enumerate. The Policy of the embedded Config
// is ignored.
type EnumConfig struct {
	Config

	// MaxDepth bounds the number of choices on one path. If 0, it
	// defaults to amb.DefaultMaxDepth. Paths cut at this depth
	// contribute no outcome, so if Stats.Cut is non-zero the
	// outcome set may be incomplete.
	MaxDepth int

	// NoPrune disables skipping states that were already
	// explored.
	NoPrune bool

	// Samples, if positive, makes Enumerate follow that many
	// random paths, chosen by Seed, instead of every path.
	// Sampling never prunes.
	Samples int
	Seed    int64

	// Progress shows a running path count on a terminal.
	Progress bool
}

// An Enumeration is the result of Enumerate.
type Enumeration struct {
	Model    Model
	Outcomes OutcomeSet
	Failures []*failure.Failure
	Stats    amb.Stats

	// Pruned counts paths ended because they reached a state
	// that had already been explored.
	Pruned int
}

type fingerprint [blake2b.Size256]byte

// Enumerate explores every way of running progs under cfg: every
// interleaving of thread steps and internal updates and every choice
// the memory model makes. It returns the outcomes of all paths that
// finish and the failures of all paths that panic.
//
// Paths that ask for an internal update when none is possible end
// without an outcome, since the same state is explored without that
// request.
//
// Pruning forgets the states of paths cut at MaxDepth, so a later
// visit to one of them explores it again.
func Enumerate(cfg EnumConfig, progs []*program.Program) (*Enumeration, error) {
	var strategy amb.Strategy = &amb.DFS{MaxDepth: cfg.MaxDepth}
	prune := !cfg.NoPrune
	if cfg.Samples > 0 {
		strategy = &amb.Random{MaxDepth: cfg.MaxDepth, MaxPaths: cfg.Samples, Seed: cfg.Seed}
		prune = false
	}
	sched := &amb.Scheduler{Strategy: strategy, Progress: cfg.Progress}
	c := cfg.Config
	c.Policy = Policy{Kind: Amb, Chooser: sched}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	res := &Enumeration{Model: c.Model}
	sched.Failure = func(v interface{}) {
		res.Failures = append(res.Failures, toFailure(v))
	}
	seen := make(map[fingerprint]bool)
	var path []fingerprint // States on the current path.
	var buf bytes.Buffer
	res.Stats = sched.Run(func() {
		path = path[:0]
		defer func() {
			if v := recover(); v != nil {
				if v == amb.PathCut {
					// Everything above the cut has
					// unexplored paths.
					for _, key := range path {
						delete(seen, key)
					}
				}
				panic(v)
			}
		}()

		m, err := c.New(progs)
		if err != nil {
			panic(err)
		}
		for {
			if prune {
				buf.Reset()
				if err := m.WriteState(&buf); err != nil {
					panic(err)
				}
				key := fingerprint(blake2b.Sum256(buf.Bytes()))
				if !sched.Replaying() {
					if seen[key] {
						res.Pruned++
						sched.Terminate()
					}
					seen[key] = true
				}
				path = append(path, key)
			}

			tids := m.Threads.Unfinished()
			if i := sched.Amb(len(tids) + 1); i < len(tids) {
				m.Threads.Step(tids[i])
				continue
			}
			if !m.Mem.InternalUpdate() {
				if len(tids) > 0 {
					sched.Terminate()
				}
				res.Outcomes.Add(m.Outcome())
				return
			}
		}
	})
	return res, nil
}

// Compare enumerates progs under each of models.
func Compare(cfg EnumConfig, models []Model, progs []*program.Program) ([]*Enumeration, error) {
	var out []*Enumeration
	for _, model := range models {
		cfg.Model = model
		e, err := Enumerate(cfg, progs)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", model, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// toFailure converts a panic value from a run into a Failure.
func toFailure(v interface{}) *failure.Failure {
	switch v := v.(type) {
	case *StepError:
		return &failure.Failure{Message: v.Err.Error(), Where: fmt.Sprintf("t%d pc %d", v.Thread, v.PC)}
	case error:
		return &failure.Failure{Message: v.Error()}
	}
	return &failure.Failure{Message: fmt.Sprint(v)}
}
