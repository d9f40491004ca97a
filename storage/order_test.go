// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storage

import (
	"reflect"
	"testing"
)

func TestRoundRobin(t *testing.T) {
	for _, test := range []struct {
		keys []int
		last int
		want []int
	}{
		{[]int{2, 0, 1}, -1, []int{0, 1, 2}},
		{[]int{2, 0, 1}, 0, []int{1, 2, 0}},
		{[]int{0, 1, 2}, 2, []int{0, 1, 2}},
		{[]int{5, 1}, 3, []int{5, 1}},
		{[]int{}, 3, []int{}},
	} {
		got := append([]int{}, test.keys...)
		RoundRobin(got, test.last)
		if !reflect.DeepEqual(got, test.want) {
			t.Errorf("RoundRobin(%v, %d) = %v, want %v", test.keys, test.last, got, test.want)
		}
	}
}
