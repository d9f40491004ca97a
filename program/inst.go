// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package program

import (
	"errors"
	"fmt"

	"github.com/aclements/wmm/storage"
)

// Op is the kind of an instruction.
type Op uint8

const (
	OpConst Op = iota // Dst = Value
	OpExpr            // Dst = A Bin B
	OpGoto            // if A goto Label
	OpLoad            // load Mode #A Dst
	OpStore           // store Mode #A B
	OpCAS             // cas Mode #A B C
	OpFAI             // fei Mode #A B
	OpFence           // fence Mode
)

// IsMemory reports whether instructions of kind op access shared
// memory.
func (op Op) IsMemory() bool {
	return op >= OpLoad
}

// BinOp is a binary arithmetic operator.
type BinOp byte

const (
	Add BinOp = '+'
	Sub BinOp = '-'
	Mul BinOp = '*'
	Div BinOp = '/'
)

// ErrDivideByZero is panicked by BinOp.Eval.
var ErrDivideByZero = errors.New("division by zero")

// Eval applies op to x and y. Integer overflow wraps.
func (op BinOp) Eval(x, y int32) int32 {
	switch op {
	case Add:
		return x + y
	case Sub:
		return x - y
	case Mul:
		return x * y
	case Div:
		if y == 0 {
			panic(ErrDivideByZero)
		}
		return x / y
	}
	panic(fmt.Sprintf("bad BinOp %q", byte(op)))
}

// An Inst is one instruction. Register operands are register
// numbers; which of them are used depends on Op, as shown by the
// syntax next to each Op constant. In memory instructions, A is the
// register holding the address.
type Inst struct {
	Op      Op
	Mode    storage.Mode
	Dst     int
	A, B, C int
	Value   int32
	Bin     BinOp
	Label   int
}

func (i Inst) String() string {
	switch i.Op {
	case OpConst:
		return fmt.Sprintf("%d = %d", i.Dst, i.Value)
	case OpExpr:
		return fmt.Sprintf("%d = %d %c %d", i.Dst, i.A, i.Bin, i.B)
	case OpGoto:
		return fmt.Sprintf("if %d goto %d", i.A, i.Label)
	case OpLoad:
		return fmt.Sprintf("load %v #%d %d", i.Mode, i.A, i.Dst)
	case OpStore:
		return fmt.Sprintf("store %v #%d %d", i.Mode, i.A, i.B)
	case OpCAS:
		return fmt.Sprintf("cas %v #%d %d %d", i.Mode, i.A, i.B, i.C)
	case OpFAI:
		return fmt.Sprintf("fei %v #%d %d", i.Mode, i.A, i.B)
	case OpFence:
		return fmt.Sprintf("fence %v", i.Mode)
	}
	return "???"
}
