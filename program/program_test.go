// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package program

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/aclements/wmm/storage"
)

func TestInstRoundTrip(t *testing.T) {
	for _, line := range []string{
		"1 = 2",
		"1 = -7",
		"1 = 2 + 3",
		"1 = 2 - 3",
		"1 = 2 * 3",
		"1 = 2 / 3",
		"if 1 goto 2",
		"load SEQ_CST #1 2",
		"store REL #1 2",
		"cas ACQ #1 2 3",
		"fei REL_ACQ #1 2",
		"fence RLX",
	} {
		_, _, inst, err := parseLine(line)
		if err != nil {
			t.Errorf("parseLine(%q): %v", line, err)
			continue
		}
		if got := inst.String(); got != line {
			t.Errorf("parseLine(%q).String() = %q", line, got)
		}
	}
}

func TestParseInst(t *testing.T) {
	for _, test := range []struct {
		line string
		want Inst
	}{
		{"3 = 2 * 1", Inst{Op: OpExpr, Dst: 3, A: 2, Bin: Mul, B: 1}},
		{"store REL #1 2", Inst{Op: OpStore, Mode: storage.Release, A: 1, B: 2}},
		{"load ACQ #4 0", Inst{Op: OpLoad, Mode: storage.Acquire, A: 4, Dst: 0}},
		{"cas RLX #0 1 2", Inst{Op: OpCAS, Mode: storage.Relaxed, A: 0, B: 1, C: 2}},
		{"  fence   SEQ_CST ", Inst{Op: OpFence, Mode: storage.SeqCst}},
	} {
		_, _, inst, err := parseLine(test.line)
		if err != nil {
			t.Errorf("parseLine(%q): %v", test.line, err)
		} else if !reflect.DeepEqual(*inst, test.want) {
			t.Errorf("parseLine(%q) = %+v, want %+v", test.line, *inst, test.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, test := range []struct {
		line, err string
	}{
		{"1 = 2 -5 6", "couldn't parse binary operation"},
		{"1 = 2 % 3", "couldn't parse binary operation"},
		{"load FOO #1 2", "unknown memory mode"},
		{"load RLX 1 2", "address register"},
		{"store RLX #1", "store takes 3 operands"},
		{"if 1 then 2", "couldn't parse if"},
		{"x: 1 = 2", "couldn't parse label"},
		{"1 = 99999999999", "couldn't parse constant"},
		{"frobnicate", "couldn't parse instruction"},
	} {
		_, _, _, err := parseLine(test.line)
		if err == nil || !strings.Contains(err.Error(), test.err) {
			t.Errorf("parseLine(%q) error = %v, want %q", test.line, err, test.err)
		}
	}
	if _, _, _, err := parseLine("1 = 2 -5 6"); !errors.Is(err, errBinOp) {
		t.Errorf("bad operator error is %v, want errBinOp", err)
	}
}

const spinLock = `// Spin until #0 is zero, then take it.
0 = 0
1 = 1
2 = 0
10: cas SEQ_CST #0 2 1
load SEQ_CST #0 3
3 = 3 - 1
if 3 goto 10
11:
`

func TestParseProgram(t *testing.T) {
	p, err := ParseString(spinLock)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Insts) != 7 {
		t.Errorf("got %d instructions, want 7", len(p.Insts))
	}
	want := map[int]int{10: 3, 11: 7}
	if !reflect.DeepEqual(p.Labels, want) {
		t.Errorf("labels %v, want %v", p.Labels, want)
	}
	if n := p.MemoryOps(); n != 2 {
		t.Errorf("MemoryOps() = %d, want 2", n)
	}

	// Formatting drops the comment but otherwise round-trips.
	p2, err := ParseString(p.String())
	if err != nil {
		t.Fatalf("reparsing %q: %v", p.String(), err)
	}
	if !reflect.DeepEqual(p, p2) {
		t.Errorf("round trip changed program:\n%v\nbecame\n%v", p, p2)
	}
}

func TestStackedLabels(t *testing.T) {
	p, err := ParseString("1:\n2: fence RLX\n3:\n4:\n")
	if err != nil {
		t.Fatal(err)
	}
	want := "1:\n2: fence RLX\n3:\n4:\n"
	if got := p.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParseProgramErrors(t *testing.T) {
	for _, test := range []struct {
		src  string
		line int
		err  string
	}{
		{"1: 0 = 1\n1: 0 = 2\n", 2, "duplicate label 1"},
		{"0 = 1\nif 0 goto 5\n", 2, "undefined label 5"},
		{"0 = 1\n\n/ comment\nbogus\n", 4, "couldn't parse"},
	} {
		_, err := ParseString(test.src)
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("%q: error %v, want *ParseError", test.src, err)
			continue
		}
		if perr.Line != test.line || !strings.Contains(perr.Error(), test.err) {
			t.Errorf("%q: error %v, want line %d: %s", test.src, perr, test.line, test.err)
		}
	}
}

func TestBinOpEval(t *testing.T) {
	for _, test := range []struct {
		op   BinOp
		x, y int32
		want int32
	}{
		{Add, 2, 3, 5},
		{Sub, 2, 3, -1},
		{Mul, -4, 3, -12},
		{Div, 7, 2, 3},
		{Div, -7, 2, -3},
	} {
		if got := test.op.Eval(test.x, test.y); got != test.want {
			t.Errorf("%d %c %d = %d, want %d", test.x, test.op, test.y, got, test.want)
		}
	}
	defer func() {
		if r := recover(); r != ErrDivideByZero {
			t.Errorf("1/0 panicked with %v", r)
		}
	}()
	Div.Eval(1, 0)
}

const mpArchive = `Message passing.
-- t0 --
0 = 0
1 = 1
2 = 42
store RLX #0 2
store REL #1 1
-- t1 --
1 = 1
load ACQ #1 3
load RLX #0 4
`

func TestParseArchive(t *testing.T) {
	l, err := ParseArchive([]byte(mpArchive))
	if err != nil {
		t.Fatal(err)
	}
	if l.Comment != "Message passing." {
		t.Errorf("comment %q", l.Comment)
	}
	if !reflect.DeepEqual(l.Names, []string{"t0", "t1"}) {
		t.Errorf("names %v", l.Names)
	}
	if len(l.Threads) != 2 || len(l.Threads[0].Insts) != 5 || len(l.Threads[1].Insts) != 3 {
		t.Fatalf("threads parsed wrong: %v", l.Threads)
	}
	l2, err := ParseArchive(l.Format())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(l, l2) {
		t.Errorf("archive round trip changed litmus test")
	}

	_, err = ParseArchive([]byte("-- t0 --\nload RLX 0 1\n"))
	var perr *ParseError
	if !errors.As(err, &perr) || perr.File != "t0" || perr.Line != 1 {
		t.Errorf("bad archive error = %v", err)
	}
}
