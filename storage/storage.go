// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storage

import (
	"strconv"
	"strings"
)

// Storage is a fixed-size array of int32 cells, all initially zero.
//
// Accesses outside [0, Len()) panic with an *AddressError.
type Storage struct {
	cells []int32
}

// New returns a zeroed Storage with size cells.
func New(size int) *Storage {
	if size < 0 {
		panic("storage: negative size")
	}
	return &Storage{make([]int32, size)}
}

func (s *Storage) Len() int {
	return len(s.cells)
}

func (s *Storage) check(addr int) {
	if addr < 0 || addr >= len(s.cells) {
		panic(&AddressError{Address: addr, Size: len(s.cells)})
	}
}

func (s *Storage) Load(addr int) int32 {
	s.check(addr)
	return s.cells[addr]
}

func (s *Storage) Store(addr int, v int32) {
	s.check(addr)
	s.cells[addr] = v
}

// Clone returns an independent copy of s.
func (s *Storage) Clone() *Storage {
	return &Storage{append([]int32(nil), s.cells...)}
}

// Cells returns a copy of the contents of s.
func (s *Storage) Cells() []int32 {
	return append([]int32(nil), s.cells...)
}

// String returns the cells of s separated by spaces.
func (s *Storage) String() string {
	var sb strings.Builder
	for i, v := range s.cells {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatInt(int64(v), 10))
	}
	return sb.String()
}
