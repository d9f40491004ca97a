// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package storage defines the shared memory abstraction used by the
// weak memory model simulators.
//
// A Manager implements one memory model. Threads access memory
// through Load, Store, CompareAndSwap, FetchAndIncrement and Fence,
// always naming the issuing thread. Any hidden state a model keeps
// (store buffers, message histories) evolves only through those
// operations and through InternalUpdate, which performs one pending
// model-internal transition. Driving InternalUpdate from outside is
// what lets an executor explore the model's nondeterminism.
//
// Managers signal fatal conditions, such as an out of range address,
// by panicking with an error value. Logical failures, like a
// compare-and-swap that does not match, are not errors.
package storage

import "io"

// A Manager is a memory model instance shared by a fixed number of
// threads, identified by 0 through n-1.
type Manager interface {
	Load(tid, addr int, mode Mode) int32
	Store(tid, addr int, value int32, mode Mode)

	// CompareAndSwap atomically replaces the value at addr with
	// desired if it equals expected.
	CompareAndSwap(tid, addr int, expected, desired int32, mode Mode)

	// FetchAndIncrement atomically adds inc to the value at addr.
	FetchAndIncrement(tid, addr int, inc int32, mode Mode)

	Fence(tid int, mode Mode)

	// InternalUpdate performs at most one pending internal
	// transition and reports whether it did.
	InternalUpdate() bool

	// WriteState writes a human-readable dump of the full model
	// state to w.
	WriteState(w io.Writer) error
}

// A Chooser picks one of n alternatives. *amb.Scheduler is a
// Chooser, which lets a model's internal nondeterminism be
// enumerated.
type Chooser interface {
	Amb(n int) int
}
