// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package amb

import "math/rand"

// Random samples MaxPaths paths of the choice tree, picking uniformly
// at every branch. The same path may be sampled more than once. The
// sequence of paths is fixed by Seed.
type Random struct {
	// MaxDepth bounds the number of choices on a path. If 0, it
	// defaults to DefaultMaxDepth.
	MaxDepth int

	// MaxPaths is the number of paths to sample. If 0, sampling
	// never stops.
	MaxPaths int

	Seed int64

	rng          *rand.Rand
	depth, paths int
}

func (s *Random) Reset() {
	s.rng = rand.New(rand.NewSource(s.Seed))
	s.depth, s.paths = 0, 0
}

func (s *Random) Amb(n int) (int, bool) {
	if s.rng == nil {
		s.Reset()
	}
	if s.depth == depthOr(s.MaxDepth) {
		return 0, false
	}
	s.depth++
	return s.rng.Intn(n), true
}

func (s *Random) Next() bool {
	s.depth = 0
	s.paths++
	return s.MaxPaths == 0 || s.paths < s.MaxPaths
}
