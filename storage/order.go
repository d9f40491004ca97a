// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storage

import "sort"

// RoundRobin sorts keys in place and rotates them so the keys
// greater than last come first, in increasing order, followed by
// the rest. Policies use it to take turns deterministically.
func RoundRobin(keys []int, last int) {
	sort.Ints(keys)
	i := sort.SearchInts(keys, last+1)
	rotated := append(append(make([]int, 0, len(keys)), keys[i:]...), keys[:i]...)
	copy(keys, rotated)
}
