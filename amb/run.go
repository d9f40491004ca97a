// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package amb explores spaces of nondeterministic choices.
//
// A function run under a Scheduler calls Scheduler.Amb wherever it
// makes a choice. The Scheduler runs the function repeatedly,
// steering the choices with a Strategy, until the Strategy has
// covered the space.
package amb

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// A Strategy describes how to explore a space of ambiguous values.
// Such a space can be viewed as a tree, where a call to Amb
// introduces a node with fan-out n and a call to Next terminates a
// path.
type Strategy interface {
	// Amb returns an "ambiguous" value in the range [0, n). If
	// the current path cannot be continued (for example, it's
	// reached a maximum depth), it returns 0, false.
	//
	// The first call to Amb after constructing a Strategy or
	// calling Next always starts at the root of the tree.
	//
	// Amb may panic with ErrNondeterminism if it detects that the
	// application is behaving non-deterministically.
	Amb(n int) (int, bool)

	// Next terminates the current path. If there are no more
	// paths to explore, Next returns false.
	Next() bool

	// Reset resets the state of this Strategy to the point where
	// no paths have been explored.
	Reset()
}

// A Replayer is a Strategy that can report whether it is currently
// replaying choices made on an earlier path.
type Replayer interface {
	Replaying() bool
}

// DefaultMaxDepth is the number of choices after which a path is
// cut if a Strategy does not say otherwise.
var DefaultMaxDepth = 100

func depthOr(max int) int {
	if max == 0 {
		return DefaultMaxDepth
	}
	return max
}

// Stats counts the paths explored by Run.
type Stats struct {
	Paths      int // All paths, including the others below.
	Terminated int // Paths ended by Terminate.
	Cut        int // Paths cut at the Strategy's maximum depth.
	Failures   int // Paths that panicked with another value.
}

// Scheduler uses a Strategy to execute a function repeatedly at
// different points in a space of ambiguous values.
type Scheduler struct {
	// Strategy specifies the strategy for exploring the execution
	// space.
	Strategy Strategy

	// Failure, if non-nil, is called with the value of every
	// panic from root other than PathTerminated and PathCut. If
	// Failure is
	// nil, such panics are printed.
	Failure func(v interface{})

	// Progress enables a running path count on standard error
	// when it is a terminal.
	Progress bool

	active bool
	stats  Stats
	paths  int64 // Accessed atomically while Progress is running.
}

// Run calls root repeatedly at different points in the ambiguous
// value space.
func (s *Scheduler) Run(root func()) Stats {
	if s.active {
		panic("nested Run call")
	}
	s.active = true
	defer func() { s.active = false }()

	s.stats = Stats{}
	atomic.StoreInt64(&s.paths, 0)
	if s.Progress {
		p := startProgress(&s.paths)
		defer p.stop()
	}

	s.Strategy.Reset()
	for {
		s.run1(root)
		s.stats.Paths++
		atomic.AddInt64(&s.paths, 1)

		if !s.Strategy.Next() {
			break
		}
	}
	return s.stats
}

func (s *Scheduler) run1(root func()) {
	defer func() {
		err := recover()
		if err == nil {
			return
		}
		switch err {
		case PathTerminated:
			s.stats.Terminated++
			return
		case PathCut:
			s.stats.Cut++
			return
		}
		s.stats.Failures++
		if s.Failure != nil {
			s.Failure(err)
		} else {
			fmt.Println("failure:", err)
		}
	}()
	root()
}

// Amb returns a value in the range [0, n).
//
// Amb panics with PathCut if the Strategy will not extend the path.
func (s *Scheduler) Amb(n int) int {
	x, ok := s.Strategy.Amb(n)
	if !ok {
		panic(PathCut)
	}
	return x
}

// Replaying reports whether the Strategy is replaying a prefix of
// an earlier path. Strategies that don't implement Replayer never
// replay.
func (s *Scheduler) Replaying() bool {
	r, ok := s.Strategy.(Replayer)
	return ok && r.Replaying()
}

// Terminate ends the current path. It panics with PathTerminated.
func (s *Scheduler) Terminate() {
	panic(PathTerminated)
}

// PathTerminated is panicked by Scheduler.Terminate. Run continues
// with the next path.
var PathTerminated = errors.New("path terminated")

// PathCut is panicked by Scheduler.Amb when a path reaches the
// Strategy's maximum depth. Run continues with the next path. Unlike
// PathTerminated, it means the rest of the path was never explored.
var PathCut = errors.New("path cut at maximum depth")
