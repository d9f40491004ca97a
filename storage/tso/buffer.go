// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tso

import (
	"fmt"
	"strings"
)

// A StoreInstruction is a store waiting in a store buffer.
type StoreInstruction struct {
	Addr  int
	Value int32
}

func (s StoreInstruction) String() string {
	return fmt.Sprintf("#%d->%d", s.Addr, s.Value)
}

// A Buffer is a FIFO store buffer.
type Buffer struct {
	stores []StoreInstruction
}

func (b *Buffer) Push(s StoreInstruction) {
	b.stores = append(b.stores, s)
}

// Pop removes and returns the oldest store.
func (b *Buffer) Pop() (StoreInstruction, bool) {
	if len(b.stores) == 0 {
		return StoreInstruction{}, false
	}
	s := b.stores[0]
	b.stores = b.stores[1:]
	if len(b.stores) == 0 {
		b.stores = nil
	}
	return s, true
}

// Lookup returns the value of the newest store to addr.
func (b *Buffer) Lookup(addr int) (int32, bool) {
	for i := len(b.stores) - 1; i >= 0; i-- {
		if b.stores[i].Addr == addr {
			return b.stores[i].Value, true
		}
	}
	return 0, false
}

func (b *Buffer) Len() int {
	return len(b.stores)
}

// Stores returns a copy of the buffered stores, oldest first.
func (b *Buffer) Stores() []StoreInstruction {
	return append([]StoreInstruction(nil), b.stores...)
}

func (b *Buffer) String() string {
	parts := make([]string, len(b.stores))
	for i, s := range b.stores {
		parts[i] = s.String()
	}
	return strings.Join(parts, " ")
}
