// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aclements/go-gg/table"
	"github.com/aclements/wmm/program"
)

// An Outcome is the observable result of a finished run: the final
// value of every register that is the destination of a load, written
// as "t<thread>.r<reg>=<value>".
type Outcome string

// noOutcome is the Outcome of programs without loads.
const noOutcome Outcome = "-"

// Observe returns the Outcome of threads, which run progs.
func Observe(progs []*program.Program, threads *Threads) Outcome {
	var parts []string
	for tid, p := range progs {
		regs := map[int]bool{}
		for _, inst := range p.Insts {
			if inst.Op == program.OpLoad {
				regs[inst.Dst] = true
			}
		}
		sorted := make([]int, 0, len(regs))
		for r := range regs {
			sorted = append(sorted, r)
		}
		sort.Ints(sorted)
		rf := threads.Thread(tid).Registers()
		for _, r := range sorted {
			parts = append(parts, fmt.Sprintf("t%d.r%d=%d", tid, r, rf.Load(r)))
		}
	}
	if len(parts) == 0 {
		return noOutcome
	}
	return Outcome(strings.Join(parts, " "))
}

// An OutcomeSet records the outcomes of a set of runs and how often
// each occurred. The zero value is an empty set.
type OutcomeSet struct {
	counts map[Outcome]int
}

// Add records one run with outcome o.
func (s *OutcomeSet) Add(o Outcome) {
	if s.counts == nil {
		s.counts = make(map[Outcome]int)
	}
	s.counts[o]++
}

// AddAll adds all outcomes in s2 to s.
func (s *OutcomeSet) AddAll(s2 *OutcomeSet) {
	for o, n := range s2.counts {
		if s.counts == nil {
			s.counts = make(map[Outcome]int)
		}
		s.counts[o] += n
	}
}

func (s *OutcomeSet) Has(o Outcome) bool {
	return s.counts[o] > 0
}

// Count returns the number of runs with outcome o.
func (s *OutcomeSet) Count(o Outcome) int {
	return s.counts[o]
}

// Len returns the number of distinct outcomes.
func (s *OutcomeSet) Len() int {
	return len(s.counts)
}

// Outcomes returns the distinct outcomes in s, sorted.
func (s *OutcomeSet) Outcomes() []Outcome {
	out := make([]Outcome, 0, len(s.counts))
	for o := range s.counts {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Contains returns true if every outcome in s2 is contained in s.
func (s *OutcomeSet) Contains(s2 *OutcomeSet) bool {
	for o := range s2.counts {
		if !s.Has(o) {
			return false
		}
	}
	return true
}

// Equal reports whether s and s2 have the same outcomes, ignoring
// counts.
func (s *OutcomeSet) Equal(s2 *OutcomeSet) bool {
	return s.Len() == s2.Len() && s.Contains(s2)
}

func (s *OutcomeSet) String() string {
	var b strings.Builder
	for _, o := range s.Outcomes() {
		fmt.Fprintf(&b, "%s\n", o)
	}
	return b.String()
}

// OutcomeTable returns a table with one row per outcome in any of
// sets and one column per set, marking whether that set permits the
// outcome. Rows on which the sets disagree are marked in the
// "differs" column.
func OutcomeTable(cols []string, sets []*OutcomeSet) *table.Table {
	var all OutcomeSet
	for _, s := range sets {
		all.AddAll(s)
	}
	outcomes := all.Outcomes()

	names := make([]string, len(outcomes))
	marks := make([][]string, len(sets))
	for i := range marks {
		marks[i] = make([]string, len(outcomes))
	}
	differs := make([]string, len(outcomes))
	for row, o := range outcomes {
		names[row] = string(o)
		var haveY, haveN bool
		for i, s := range sets {
			if s.Has(o) {
				marks[i][row] = "Y"
				haveY = true
			} else {
				marks[i][row] = "N"
				haveN = true
			}
		}
		if haveY && haveN {
			differs[row] = "*"
		}
	}

	b := new(table.Builder).Add("outcome", names)
	for i, col := range cols {
		b.Add(col, marks[i])
	}
	return b.Add("differs", differs).Done()
}

// CountTable returns a table of the outcomes in s, how many runs
// reached each, and what fraction of runs that is.
func (s *OutcomeSet) CountTable() *table.Table {
	outcomes := s.Outcomes()
	total := 0
	for _, n := range s.counts {
		total += n
	}
	names := make([]string, len(outcomes))
	runs := make([]int, len(outcomes))
	frac := make([]float64, len(outcomes))
	for i, o := range outcomes {
		names[i] = string(o)
		runs[i] = s.counts[o]
		frac[i] = float64(runs[i]) / float64(total)
	}
	return new(table.Builder).
		Add("outcome", names).
		Add("runs", runs).
		Add("fraction", frac).
		Done()
}

// WriteTable prints t to w.
func WriteTable(w io.Writer, t *table.Table) {
	table.Fprint(w, t)
}
