// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package prompt reads choices from an operator, one line at a time.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"golang.org/x/term"
)

// ErrInvalid is returned for input that does not name one of the
// offered choices.
var ErrInvalid = errors.New("invalid choice")

// A Prompter writes prompts to one stream and reads answers from
// another.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	// echo repeats each answer on out, so transcripts of
	// scripted sessions read like interactive ones.
	echo bool
}

// New returns a Prompter reading from in and writing to out. If in is
// a file that is not a terminal, answers are echoed to out.
func New(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		p.echo = true
	}
	return p
}

// Printf writes to the prompt's output stream.
func (p *Prompter) Printf(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format, args...)
}

// Writer returns the prompt's output stream.
func (p *Prompter) Writer() io.Writer {
	return p.out
}

// Fields prints prompt and returns the words of the next input line,
// split using shell quoting rules. At end of input it returns io.EOF.
func (p *Prompter) Fields(prompt string) ([]string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			fmt.Fprintln(p.out)
		}
		return nil, err
	}
	if p.echo {
		fmt.Fprint(p.out, line)
		if line[len(line)-1] != '\n' {
			fmt.Fprintln(p.out)
		}
	}
	words, err := shellquote.Split(line)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return words, nil
}

// Ints reads a line of exactly n integers, each in [0, limits[i]).
func (p *Prompter) Ints(prompt string, limits ...int) ([]int, error) {
	words, err := p.Fields(prompt)
	if err != nil {
		return nil, err
	}
	if len(words) != len(limits) {
		return nil, fmt.Errorf("%w: want %d numbers, got %q", ErrInvalid, len(limits), words)
	}
	out := make([]int, len(words))
	for i, w := range words {
		v, err := strconv.Atoi(w)
		if err != nil || v < 0 || v >= limits[i] {
			return nil, fmt.Errorf("%w: %q not in [0, %d)", ErrInvalid, w, limits[i])
		}
		out[i] = v
	}
	return out, nil
}

// Int reads a single integer in [0, n).
func (p *Prompter) Int(prompt string, n int) (int, error) {
	vs, err := p.Ints(prompt, n)
	if err != nil {
		return 0, err
	}
	return vs[0], nil
}

// Index reads a line naming one of choices and returns its index. An
// answer may be any prefix of exactly one choice, ignoring case. An
// empty line selects choices[0].
func (p *Prompter) Index(prompt string, choices []string) (int, error) {
	words, err := p.Fields(prompt)
	if err != nil {
		return 0, err
	}
	switch len(words) {
	case 0:
		return 0, nil
	case 1:
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalid, words)
	}
	w := strings.ToLower(words[0])
	found := -1
	for i, c := range choices {
		if w != "" && strings.HasPrefix(strings.ToLower(c), w) {
			if found >= 0 {
				return 0, fmt.Errorf("%w: %q is ambiguous", ErrInvalid, words[0])
			}
			found = i
		}
	}
	if found < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, words[0])
	}
	return found, nil
}
