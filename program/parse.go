// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package program

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aclements/wmm/storage"
	"github.com/kballard/go-shellquote"
)

// A ParseError reports a malformed line.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var errBinOp = errors.New("couldn't parse binary operation")

// Parse reads a program from r.
func Parse(r io.Reader) (*Program, error) {
	p := &Program{Labels: make(map[int]int)}
	jumps := make(map[int]int) // label -> first line using it
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		label, hasLabel, inst, err := parseLine(sc.Text())
		if err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}
		if hasLabel {
			if _, ok := p.Labels[label]; ok {
				return nil, &ParseError{Line: line, Err: fmt.Errorf("duplicate label %d", label)}
			}
			p.Labels[label] = len(p.Insts)
		}
		if inst != nil {
			if inst.Op == OpGoto {
				if _, ok := jumps[inst.Label]; !ok {
					jumps[inst.Label] = line
				}
			}
			p.Insts = append(p.Insts, *inst)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	for label, line := range jumps {
		if _, ok := p.Labels[label]; !ok {
			return nil, &ParseError{Line: line, Err: fmt.Errorf("undefined label %d", label)}
		}
	}
	return p, nil
}

// ParseString parses a program from a string.
func ParseString(s string) (*Program, error) {
	return Parse(strings.NewReader(s))
}

// ParseFile parses the program in the named file.
func ParseFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := Parse(f)
	if perr, ok := err.(*ParseError); ok {
		perr.File = path
	}
	return p, err
}

// parseLine parses one line. inst is nil if the line has no
// instruction.
func parseLine(line string) (label int, hasLabel bool, inst *Inst, err error) {
	line = strings.TrimSpace(line)
	if line == "" || line[0] == '/' {
		return 0, false, nil, nil
	}
	toks, err := shellquote.Split(line)
	if err != nil {
		return 0, false, nil, err
	}
	if len(toks) > 0 && strings.HasSuffix(toks[0], ":") {
		label, err = strconv.Atoi(strings.TrimSuffix(toks[0], ":"))
		if err != nil || label < 0 {
			return 0, false, nil, fmt.Errorf("couldn't parse label %q", toks[0])
		}
		hasLabel = true
		toks = toks[1:]
	}
	if len(toks) == 0 {
		return label, hasLabel, nil, nil
	}
	inst, err = parseInst(toks)
	return label, hasLabel, inst, err
}

func parseInst(toks []string) (*Inst, error) {
	nargs := func(n int) error {
		if len(toks) != n {
			return fmt.Errorf("%s takes %d operands, got %d", toks[0], n-1, len(toks)-1)
		}
		return nil
	}
	var inst Inst
	var err error
	switch toks[0] {
	case "if":
		if len(toks) != 4 || toks[2] != "goto" {
			return nil, fmt.Errorf("couldn't parse if: want \"if R goto L\"")
		}
		inst.Op = OpGoto
		if inst.A, err = parseReg(toks[1]); err != nil {
			return nil, err
		}
		if inst.Label, err = strconv.Atoi(toks[3]); err != nil || inst.Label < 0 {
			return nil, fmt.Errorf("couldn't parse label %q", toks[3])
		}
		return &inst, nil

	case "load", "store", "fei":
		if err := nargs(4); err != nil {
			return nil, err
		}
		inst.Op = map[string]Op{"load": OpLoad, "store": OpStore, "fei": OpFAI}[toks[0]]
		if inst.Mode, err = storage.ParseMode(toks[1]); err != nil {
			return nil, err
		}
		if inst.A, err = parseAddrReg(toks[2]); err != nil {
			return nil, err
		}
		r, err := parseReg(toks[3])
		if err != nil {
			return nil, err
		}
		if inst.Op == OpLoad {
			inst.Dst = r
		} else {
			inst.B = r
		}
		return &inst, nil

	case "cas":
		if err := nargs(5); err != nil {
			return nil, err
		}
		inst.Op = OpCAS
		if inst.Mode, err = storage.ParseMode(toks[1]); err != nil {
			return nil, err
		}
		if inst.A, err = parseAddrReg(toks[2]); err != nil {
			return nil, err
		}
		if inst.B, err = parseReg(toks[3]); err != nil {
			return nil, err
		}
		if inst.C, err = parseReg(toks[4]); err != nil {
			return nil, err
		}
		return &inst, nil

	case "fence":
		if err := nargs(2); err != nil {
			return nil, err
		}
		inst.Op = OpFence
		if inst.Mode, err = storage.ParseMode(toks[1]); err != nil {
			return nil, err
		}
		return &inst, nil
	}

	// Register assignment.
	if (len(toks) != 3 && len(toks) != 5) || toks[1] != "=" {
		return nil, fmt.Errorf("couldn't parse instruction %q", strings.Join(toks, " "))
	}
	if inst.Dst, err = parseReg(toks[0]); err != nil {
		return nil, err
	}
	if len(toks) == 3 {
		v, err := strconv.ParseInt(toks[2], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("couldn't parse constant %q", toks[2])
		}
		inst.Op, inst.Value = OpConst, int32(v)
		return &inst, nil
	}
	inst.Op = OpExpr
	if inst.A, err = parseReg(toks[2]); err != nil {
		return nil, err
	}
	if len(toks[3]) != 1 || !strings.Contains("+-*/", toks[3]) {
		return nil, errBinOp
	}
	inst.Bin = BinOp(toks[3][0])
	if inst.B, err = parseReg(toks[4]); err != nil {
		return nil, err
	}
	return &inst, nil
}

func parseReg(s string) (int, error) {
	r, err := strconv.Atoi(s)
	if err != nil || r < 0 {
		return 0, fmt.Errorf("couldn't parse register %q", s)
	}
	return r, nil
}

func parseAddrReg(s string) (int, error) {
	if !strings.HasPrefix(s, "#") {
		return 0, fmt.Errorf("couldn't parse address register %q: want #R", s)
	}
	return parseReg(s[1:])
}
