// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storage

import (
	"errors"
	"fmt"
)

// An AddressError is panicked when an access falls outside a
// Storage.
type AddressError struct {
	Address int
	Size    int
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("address %d out of range [0, %d)", e.Address, e.Size)
}

// ErrStuck is panicked when an operation waits for an internal
// update that can never happen.
var ErrStuck = errors.New("execution is stuck")

// ErrEndOfInput is panicked by interactive policies that must make a
// choice but can no longer read one. Interactive drivers recover it
// and stop cleanly.
var ErrEndOfInput = errors.New("end of interactive input")

// A ChoiceError is panicked when a policy returns a choice outside
// the candidates it was offered.
type ChoiceError struct {
	What   string
	Choice int
	N      int
}

func (e *ChoiceError) Error() string {
	return fmt.Sprintf("invalid %s choice %d of %d", e.What, e.Choice, e.N)
}

// CheckChoice panics with a *ChoiceError if choice is not in [0, n).
func CheckChoice(what string, choice, n int) {
	if choice < 0 || choice >= n {
		panic(&ChoiceError{what, choice, n})
	}
}
