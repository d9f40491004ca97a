// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package amb

import "fmt"

// DFS enumerates every path of the choice tree, depth first, trying
// choice 0 first at every branch. A path is cut once it has made
// MaxDepth choices.
//
// Every path after the first starts by replaying the choices it
// shares with the previous path. Replaying reports when that is
// happening, so callers can skip work they already did for the
// shared prefix.
type DFS struct {
	// MaxDepth bounds the number of choices on a path. If 0, it
	// defaults to DefaultMaxDepth.
	MaxDepth int

	path []branch
	pos  int // Index in path of the next Amb call.
}

// A branch is one choice on the current path.
type branch struct {
	n, choice int
}

func (s *DFS) Reset() {
	s.path = s.path[:0]
	s.pos = 0
}

func (s *DFS) Amb(n int) (int, bool) {
	if s.pos < len(s.path) {
		b := s.path[s.pos]
		if b.n != n {
			panic(&ErrNondeterminism{fmt.Sprintf("choice %d of the path has %d options, %d on the previous path", s.pos, n, b.n)})
		}
		s.pos++
		return b.choice, true
	}
	if s.pos == depthOr(s.MaxDepth) {
		return 0, false
	}
	s.path = append(s.path, branch{n, 0})
	s.pos++
	return 0, true
}

// Replaying reports whether the next call to Amb repeats a choice of
// the previous path.
func (s *DFS) Replaying() bool {
	return s.pos < len(s.path)
}

// Next advances to the next unexplored path: the deepest branch with
// choices left takes its next choice and everything below it is
// forgotten.
func (s *DFS) Next() bool {
	s.path = s.path[:s.pos]
	s.pos = 0
	for len(s.path) > 0 {
		b := &s.path[len(s.path)-1]
		b.choice++
		if b.choice < b.n {
			return true
		}
		s.path = s.path[:len(s.path)-1]
	}
	return false
}

// ErrNondeterminism is panicked by DFS when a replayed path makes a
// different set of choices than it did before.
type ErrNondeterminism struct {
	Detail string
}

func (e *ErrNondeterminism) Error() string {
	return "non-determinism detected: " + e.Detail
}
