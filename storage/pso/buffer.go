// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pso

import (
	"fmt"
	"strconv"
	"strings"
)

// An AddressBuffer is a FIFO of values stored to one address.
type AddressBuffer struct {
	values []int32
}

func (b *AddressBuffer) Push(v int32) {
	b.values = append(b.values, v)
}

func (b *AddressBuffer) Pop() (int32, bool) {
	if len(b.values) == 0 {
		return 0, false
	}
	v := b.values[0]
	b.values = b.values[1:]
	if len(b.values) == 0 {
		b.values = nil
	}
	return v, true
}

// Newest returns the most recently pushed value.
func (b *AddressBuffer) Newest() (int32, bool) {
	if len(b.values) == 0 {
		return 0, false
	}
	return b.values[len(b.values)-1], true
}

func (b *AddressBuffer) Len() int {
	return len(b.values)
}

func (b *AddressBuffer) String() string {
	parts := make([]string, len(b.values))
	for i, v := range b.values {
		parts[i] = strconv.FormatInt(int64(v), 10)
	}
	return strings.Join(parts, " ")
}

// A ThreadBuffer holds one thread's pending stores, with a separate
// FIFO per address.
type ThreadBuffer struct {
	addrs []AddressBuffer
}

func newThreadBuffer(size int) ThreadBuffer {
	return ThreadBuffer{make([]AddressBuffer, size)}
}

// Address returns the buffer for addr.
func (b *ThreadBuffer) Address(addr int) *AddressBuffer {
	return &b.addrs[addr]
}

// values returns a copy of every address buffer.
func (b *ThreadBuffer) values() [][]int32 {
	out := make([][]int32, len(b.addrs))
	for i := range b.addrs {
		out[i] = append([]int32(nil), b.addrs[i].values...)
	}
	return out
}

// String lists the non-empty address buffers.
func (b *ThreadBuffer) String() string {
	var parts []string
	for addr := range b.addrs {
		if b.addrs[addr].Len() > 0 {
			parts = append(parts, fmt.Sprintf("#%d: [%s]", addr, &b.addrs[addr]))
		}
	}
	return strings.Join(parts, " ")
}
