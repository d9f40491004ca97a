// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/aclements/wmm/internal/failure"
	"github.com/aclements/wmm/internal/prompt"
	"github.com/aclements/wmm/program"
	"github.com/aclements/wmm/storage"
)

// Store buffering: each thread stores to one location and loads the
// other.
const litmusSB = `
-- t0 --
1 = 1
2 = 1
store RLX #0 2
load RLX #1 3
-- t1 --
1 = 1
2 = 1
store RLX #1 2
load RLX #0 3
`

// Message passing: t0 writes data then a flag; t1 reads the flag
// then the data.
const litmusMP = `
-- t0 --
1 = 1
2 = 1
store RLX #0 2
store %s #1 2
-- t1 --
1 = 1
load %s #1 3
load RLX #0 4
`

func litmus(t *testing.T, src string, args ...interface{}) []*program.Program {
	t.Helper()
	if len(args) > 0 {
		src = strings.NewReplacer("%s", args[0].(string)).Replace(src)
		if len(args) > 1 {
			src = strings.Replace(src, "load "+args[0].(string), "load "+args[1].(string), 1)
		}
	}
	l, err := program.ParseArchive([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	return l.Threads
}

func parse(t *testing.T, srcs ...string) []*program.Program {
	t.Helper()
	var progs []*program.Program
	for _, src := range srcs {
		p, err := program.ParseString(src)
		if err != nil {
			t.Fatal(err)
		}
		progs = append(progs, p)
	}
	return progs
}

func outcomes(list ...Outcome) *OutcomeSet {
	var s OutcomeSet
	for _, o := range list {
		s.Add(o)
	}
	return &s
}

func TestParseModel(t *testing.T) {
	for _, m := range Models {
		got, err := ParseModel(m.String())
		if err != nil || got != m {
			t.Errorf("ParseModel(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseModel("x86"); err == nil {
		t.Errorf("ParseModel(\"x86\") succeeded")
	}
}

func TestConfigErrors(t *testing.T) {
	progs := parse(t, "")
	for _, c := range []Config{
		{Model: SC, Size: 0, Regs: 1},
		{Model: SC, Size: 1, Regs: 0},
		{Model: Model(42), Size: 1, Regs: 1},
		{Model: TSO, Size: 1, Regs: 1, Policy: Policy{Kind: Interactive}},
		{Model: TSO, Size: 1, Regs: 1, Policy: Policy{Kind: Amb}},
	} {
		if _, err := c.New(progs); err == nil {
			t.Errorf("%+v: New succeeded", c)
		}
	}
}

func TestThreads(t *testing.T) {
	c := Config{Model: SC, Size: 2, Regs: 3}
	m, err := c.New(parse(t, "0 = 1\n1 = 5\nstore RLX #0 1\n2 = 7", "2 = 2"))
	if err != nil {
		t.Fatal(err)
	}
	ts := m.Threads
	if !reflect.DeepEqual(ts.Unfinished(), []int{0}) {
		t.Errorf("Unfinished() = %v, want [0]", ts.Unfinished())
	}
	if pc := ts.Thread(0).PC(); pc != 2 {
		t.Errorf("t0 at pc %d after local steps, want 2", pc)
	}
	if !ts.Step(0) {
		t.Fatalf("Step(0) = false")
	}
	if ts.Step(0) || ts.Step(1) {
		t.Errorf("finished thread stepped")
	}
	if !ts.Done() {
		t.Errorf("not Done")
	}

	var buf bytes.Buffer
	if err := m.WriteState(&buf); err != nil {
		t.Fatal(err)
	}
	want := "Storage: 0 5\nThread-local storages:\nt0 (pc 4): 1 5 7\nt1 (pc 1): 0 0 2\n"
	if buf.String() != want {
		t.Errorf("state:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestThreadGoto(t *testing.T) {
	// Count register 1 down from 3, incrementing register 2.
	src := `0 = 1
1 = 3
3 = 1
1: 2 = 2 + 0
1 = 1 - 0
if 1 goto 1
store RLX #3 2`
	c := Config{Model: SC, Size: 2, Regs: 4}
	m, err := c.New(parse(t, src))
	if err != nil {
		t.Fatal(err)
	}
	m.Threads.Step(0)
	if got := m.Mem.Load(0, 1, storage.Relaxed); got != 3 {
		t.Errorf("stored %d, want 3", got)
	}
}

func TestThreadErrors(t *testing.T) {
	tests := []struct {
		src   string
		want  error
		where string
	}{
		{"0 = 1\n1: if 0 goto 1", ErrSpin, "t0 pc 1"},
		{"1 = 0\n2 = 1 / 1", program.ErrDivideByZero, "t0 pc 1"},
	}
	for _, test := range tests {
		c := Config{Model: SC, Size: 1, Regs: 3}
		_, err := c.New(parse(t, test.src))
		var serr *StepError
		if !errors.Is(err, test.want) || !errors.As(err, &serr) {
			t.Errorf("%q: got error %v, want StepError wrapping %v", test.src, err, test.want)
			continue
		}
		if f := toFailure(serr); f.Where != test.where {
			t.Errorf("%q: failure at %q, want %q", test.src, f.Where, test.where)
		}
	}

	// Memory errors are wrapped too.
	c := Config{Model: SC, Size: 1, Regs: 3}
	m, err := c.New(parse(t, "0 = 5\nload RLX #0 1"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		err, _ := recover().(error)
		var aerr *storage.AddressError
		var serr *StepError
		if !errors.As(err, &aerr) || !errors.As(err, &serr) {
			t.Fatalf("got panic %v, want StepError wrapping AddressError", err)
		}
		if serr.PC != 1 || serr.Inst.Op != program.OpLoad {
			t.Errorf("failure at pc %d (%v)", serr.PC, serr.Inst)
		}
	}()
	m.Threads.Step(0)
}

func TestRandomExecutor(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		c := Config{Model: TSO, Size: 2, Regs: 4, Policy: Policy{Kind: Random, Seed: seed}}
		m, err := c.New(litmus(t, litmusSB))
		if err != nil {
			t.Fatal(err)
		}
		e := NewRandomExecutor(m, seed)
		steps, done := Run(e, 0)
		if !done {
			t.Fatalf("seed %d: not done", seed)
		}
		// Four memory instructions and two propagations.
		if steps != 6 {
			t.Errorf("seed %d: %d steps, want 6", seed, steps)
		}
		if !m.Threads.Done() || m.Mem.InternalUpdate() {
			t.Errorf("seed %d: finished with work left", seed)
		}
	}
}

func TestRandomExecutorLogsState(t *testing.T) {
	var out bytes.Buffer
	c := Config{Model: SC, Size: 2, Regs: 4, Log: storage.NewLog(&out, storage.LevelInfo)}
	m, err := c.New(litmus(t, litmusSB))
	if err != nil {
		t.Fatal(err)
	}
	if _, done := Run(NewRandomExecutor(m, 1), 0); !done {
		t.Fatalf("not done")
	}
	if n := strings.Count(out.String(), "STATE: Storage: "); n != 4 {
		t.Errorf("%d state dumps for 4 steps:\n%s", n, out.String())
	}
	if !strings.HasSuffix(out.String(), "STATE: Storage: 1 1\n") {
		t.Errorf("last state dump is not the final memory:\n%s", out.String())
	}
}

func TestRunStepLimit(t *testing.T) {
	c := Config{Model: SC, Size: 2, Regs: 3}
	m, err := c.New(parse(t, "0 = 1\n1: load RLX #1 2\nif 0 goto 1"))
	if err != nil {
		t.Fatal(err)
	}
	steps, done := Run(NewRandomExecutor(m, 1), 25)
	if done || steps != 25 {
		t.Errorf("Run = %d, %v, want 25, false", steps, done)
	}
}

func TestInteractiveExecutor(t *testing.T) {
	var out bytes.Buffer
	p := prompt.New(strings.NewReader("t\n0\nm\n0\nt\n1\n"), &out)
	c := Config{Model: TSO, Size: 10, Regs: 2, Policy: Policy{Kind: Interactive, Prompt: p}}
	m, err := c.New(parse(t, "1 = 42\nstore RLX #0 1", "load RLX #0 1"))
	if err != nil {
		t.Fatal(err)
	}
	steps, done := Run(NewInteractiveExecutor(m, p), 0)
	if steps != 3 || !done {
		t.Errorf("Run = %d, %v, want 3, true", steps, done)
	}
	if got := m.Threads.Thread(1).Registers().Load(1); got != 42 {
		t.Errorf("t1 loaded %d, want 42", got)
	}
	for _, want := range []string{"Choose thread to execute:", "0: store RLX #0 1", "Thread buffers:"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestInteractiveExecutorEndOfInput(t *testing.T) {
	// The RA policy must pick a message for t1's load, but the
	// input ends first.
	var out bytes.Buffer
	p := prompt.New(strings.NewReader("t\n0\nt\n1\n"), &out)
	c := Config{Model: RA, Size: 10, Regs: 2, Policy: Policy{Kind: Interactive, Prompt: p}}
	m, err := c.New(parse(t, "1 = 42\nstore RLX #0 1", "load RLX #0 1"))
	if err != nil {
		t.Fatal(err)
	}
	steps, done := Run(NewInteractiveExecutor(m, p), 0)
	if steps != 1 || !done {
		t.Errorf("Run = %d, %v, want 1, true", steps, done)
	}
}

func TestInteractiveExecutorSRA(t *testing.T) {
	// t1's CAS must first consume t0's store. An answer naming a
	// pair with nothing to deliver is asked again.
	progs := parse(t, "1 = 1\nstore RLX #0 1", "1 = 1\n2 = 2\ncas RLX #0 1 2")
	for _, test := range []struct {
		in    string
		steps int
		want  int32
	}{
		{"t\n0\nt\n1\n1 1\n1 0\n", 2, 2},
		{"t\n0\nt\n1\n1 1\n", 1, 0},
	} {
		var out bytes.Buffer
		p := prompt.New(strings.NewReader(test.in), &out)
		c := Config{Model: SRA, Size: 1, Regs: 3, Policy: Policy{Kind: Interactive, Prompt: p}}
		m, err := c.New(progs)
		if err != nil {
			t.Fatal(err)
		}
		steps, done := Run(NewInteractiveExecutor(m, p), 0)
		if steps != test.steps || !done {
			t.Errorf("%q: Run = %d, %v, want %d, true", test.in, steps, done, test.steps)
		}
		if got := m.Mem.Load(1, 0, storage.Relaxed); got != test.want {
			t.Errorf("%q: t1 loads %d, want %d", test.in, got, test.want)
		}
		if !strings.Contains(out.String(), "t1 has no message to consume from t1.") {
			t.Errorf("%q: invalid answer accepted:\n%s", test.in, out.String())
		}
	}
}

func TestEnumerate(t *testing.T) {
	const (
		sb00 = "t0.r3=0 t1.r3=0"
		sb01 = "t0.r3=0 t1.r3=1"
		sb10 = "t0.r3=1 t1.r3=0"
		sb11 = "t0.r3=1 t1.r3=1"
		mp00 = "t1.r3=0 t1.r4=0"
		mp01 = "t1.r3=0 t1.r4=1"
		mp10 = "t1.r3=1 t1.r4=0"
		mp11 = "t1.r3=1 t1.r4=1"
	)
	tests := []struct {
		name  string
		model Model
		progs []*program.Program
		want  *OutcomeSet
	}{
		{"SB", SC, litmus(t, litmusSB), outcomes(sb01, sb10, sb11)},
		{"SB", TSO, litmus(t, litmusSB), outcomes(sb00, sb01, sb10, sb11)},
		{"SB", PSO, litmus(t, litmusSB), outcomes(sb00, sb01, sb10, sb11)},
		{"MP", SC, litmus(t, litmusMP, "RLX"), outcomes(mp00, mp01, mp11)},
		{"MP", TSO, litmus(t, litmusMP, "RLX"), outcomes(mp00, mp01, mp11)},
		{"MP", PSO, litmus(t, litmusMP, "RLX"), outcomes(mp00, mp01, mp10, mp11)},
		{"MP+rlx", RA, litmus(t, litmusMP, "RLX"), outcomes(mp00, mp01, mp10, mp11)},
		{"MP+rel+acq", RA, litmus(t, litmusMP, "REL", "ACQ"), outcomes(mp00, mp01, mp11)},
		{"MP+rel+rlx", RA, litmus(t, litmusMP, "REL", "RLX"), outcomes(mp00, mp01, mp10, mp11)},
	}
	for _, test := range tests {
		for _, noPrune := range []bool{false, true} {
			cfg := EnumConfig{Config: Config{Model: test.model, Size: 2, Regs: 5}, NoPrune: noPrune}
			e, err := Enumerate(cfg, test.progs)
			if err != nil {
				t.Fatal(err)
			}
			if len(e.Failures) != 0 {
				t.Errorf("%s/%v: failures %v", test.name, test.model, e.Failures)
			}
			if !e.Outcomes.Equal(test.want) {
				t.Errorf("%s/%v (prune %v): outcomes\n%v\nwant\n%v", test.name, test.model, !noPrune, e.Outcomes.String(), test.want.String())
			}
			if noPrune && e.Pruned != 0 {
				t.Errorf("%s/%v: pruned %d paths with pruning disabled", test.name, test.model, e.Pruned)
			}
		}
	}
}

func TestEnumerateDepthLimit(t *testing.T) {
	// With paths cut short, pruning must still find every outcome
	// the unpruned search finds.
	for _, test := range []struct {
		model Model
		progs []*program.Program
	}{
		{TSO, litmus(t, litmusSB)},
		{PSO, litmus(t, litmusSB)},
		{PSO, litmus(t, litmusMP, "RLX")},
	} {
		for depth := 2; depth <= 10; depth++ {
			cfg := EnumConfig{Config: Config{Model: test.model, Size: 2, Regs: 5}, MaxDepth: depth}
			pruned, err := Enumerate(cfg, test.progs)
			if err != nil {
				t.Fatal(err)
			}
			cfg.NoPrune = true
			full, err := Enumerate(cfg, test.progs)
			if err != nil {
				t.Fatal(err)
			}
			if !pruned.Outcomes.Equal(&full.Outcomes) {
				t.Errorf("%v depth %d: pruned outcomes\n%v\nunpruned\n%v", test.model, depth, pruned.Outcomes.String(), full.Outcomes.String())
			}
			if depth == 3 && full.Stats.Cut == 0 {
				t.Errorf("%v depth %d: no paths cut", test.model, depth)
			}
		}
	}
}

func TestEnumerateSamples(t *testing.T) {
	sc := outcomes("t0.r3=0 t1.r3=1", "t0.r3=1 t1.r3=0", "t0.r3=1 t1.r3=1")
	cfg := EnumConfig{Config: Config{Model: SC, Size: 2, Regs: 4}, Samples: 200, Seed: 1}
	e, err := Enumerate(cfg, litmus(t, litmusSB))
	if err != nil {
		t.Fatal(err)
	}
	if e.Stats.Paths != 200 || e.Pruned != 0 {
		t.Errorf("stats %+v, pruned %d; want 200 paths, none pruned", e.Stats, e.Pruned)
	}
	if e.Outcomes.Len() == 0 || !sc.Contains(&e.Outcomes) {
		t.Errorf("sampled outcomes\n%v\nnot within\n%v", e.Outcomes.String(), sc.String())
	}
	again, err := Enumerate(cfg, litmus(t, litmusSB))
	if err != nil {
		t.Fatal(err)
	}
	if !again.Outcomes.Equal(&e.Outcomes) {
		t.Errorf("same seed sampled different outcomes")
	}
}

func TestEnumerateFailures(t *testing.T) {
	cfg := EnumConfig{Config: Config{Model: SC, Size: 10, Regs: 2}}
	e, err := Enumerate(cfg, parse(t, "0 = 20\nload RLX #0 1"))
	if err != nil {
		t.Fatal(err)
	}
	want := []*failure.Failure{{Message: "address 20 out of range [0, 10)", Where: "t0 pc 1"}}
	if !reflect.DeepEqual(e.Failures, want) {
		t.Errorf("failures %v, want %v", e.Failures, want)
	}
	if e.Outcomes.Len() != 0 {
		t.Errorf("outcomes %v, want none", e.Outcomes.String())
	}
}

func TestCompare(t *testing.T) {
	cfg := EnumConfig{Config: Config{Size: 2, Regs: 4}}
	es, err := Compare(cfg, []Model{SC, TSO}, litmus(t, litmusSB))
	if err != nil {
		t.Fatal(err)
	}
	if es[0].Model != SC || es[1].Model != TSO {
		t.Errorf("models %v, %v", es[0].Model, es[1].Model)
	}
	if !es[1].Outcomes.Contains(&es[0].Outcomes) || es[0].Outcomes.Contains(&es[1].Outcomes) {
		t.Errorf("TSO should be strictly weaker than SC")
	}

	tab := OutcomeTable([]string{"sc", "tso"}, []*OutcomeSet{&es[0].Outcomes, &es[1].Outcomes})
	want := map[string][]string{
		"sc":      {"N", "Y", "Y", "Y"},
		"tso":     {"Y", "Y", "Y", "Y"},
		"differs": {"*", "", "", ""},
	}
	for col, w := range want {
		if got := tab.Column(col).([]string); !reflect.DeepEqual(got, w) {
			t.Errorf("column %s = %v, want %v", col, got, w)
		}
	}
}

func TestExplore(t *testing.T) {
	progs := litmus(t, litmusSB)
	sc := outcomes("t0.r3=0 t1.r3=1", "t0.r3=1 t1.r3=0", "t0.r3=1 t1.r3=1")
	cfg := ExploreConfig{
		Config:  Config{Model: SC, Size: 2, Regs: 4},
		Runs:    50,
		Seed:    1,
		Workers: 4,
	}
	rep, err := Explore(context.Background(), cfg, progs)
	if err != nil {
		t.Fatal(err)
	}
	if !sc.Contains(&rep.Outcomes) || len(rep.Failures) != 0 {
		t.Errorf("outcomes %v, failures %v", rep.Outcomes.String(), rep.Failures)
	}
	sum := rep.Summary()
	if sum.N != 50 || sum.Min != 4 || sum.Median != 4 || sum.Max != 4 || sum.Mean != 4 {
		t.Errorf("summary %v", sum)
	}

	cfg.Workers = 1
	rep1, err := Explore(context.Background(), cfg, progs)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(rep, rep1) {
		t.Errorf("report depends on worker count")
	}
}

func TestExploreFailures(t *testing.T) {
	cfg := ExploreConfig{
		Config:   Config{Model: SC, Size: 2, Regs: 3},
		Runs:     3,
		MaxSteps: 10,
	}
	rep, err := Explore(context.Background(), cfg, parse(t, "0 = 1\n1: load RLX #1 2\nif 0 goto 1"))
	if err != nil {
		t.Fatal(err)
	}
	want := []failure.Class{{Failure: failure.Failure{Message: "no result after 10 steps"}, Count: 3}}
	if got := rep.FailureClasses(); !reflect.DeepEqual(got, want) {
		t.Errorf("failure classes %v, want %v", got, want)
	}
	if rep.Outcomes.Len() != 0 || rep.Summary().N != 0 {
		t.Errorf("unexpected outcomes %v", rep.Outcomes.String())
	}

	rep, err = Explore(context.Background(), cfg, parse(t, "0 = 0\n1 = 1 / 0\nstore RLX #0 1"))
	if err != nil {
		t.Fatal(err)
	}
	want = []failure.Class{{Failure: failure.Failure{Message: program.ErrDivideByZero.Error(), Where: "t0 pc 1"}, Count: 3}}
	if got := rep.FailureClasses(); !reflect.DeepEqual(got, want) {
		t.Errorf("failure classes %v, want %v", got, want)
	}

	cfg.Size = 0
	if _, err := Explore(context.Background(), cfg, nil); err == nil {
		t.Errorf("Explore with bad config succeeded")
	}
}

func TestWritePlot(t *testing.T) {
	for _, set := range []*OutcomeSet{
		outcomes("t0.r1=1", "t0.r1=1"),
		outcomes("t0.r1=0", "t0.r1=1", "t0.r1=1"),
	} {
		rep := &Report{Runs: set.Len(), Outcomes: *set}
		var buf bytes.Buffer
		if err := rep.WritePlot(&buf, "plot"); err != nil {
			t.Errorf("WritePlot(%q): %v", set.Outcomes(), err)
			continue
		}
		if !strings.Contains(buf.String(), "<svg") {
			t.Errorf("WritePlot(%q) wrote no SVG", set.Outcomes())
		}
	}

	var buf bytes.Buffer
	if err := new(Report).WritePlot(&buf, ""); err != ErrNoOutcomes {
		t.Errorf("WritePlot with no outcomes: got %v, want %v", err, ErrNoOutcomes)
	}
}

func TestOutcomeSet(t *testing.T) {
	var s OutcomeSet
	s.Add("b")
	s.Add("a")
	s.Add("b")
	if got := s.Outcomes(); !reflect.DeepEqual(got, []Outcome{"a", "b"}) {
		t.Errorf("Outcomes() = %v", got)
	}
	if s.Count("b") != 2 || s.Count("c") != 0 {
		t.Errorf("counts wrong")
	}
	tab := s.CountTable()
	if got := tab.Column("runs").([]int); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("runs column %v", got)
	}
	if !s.Equal(outcomes("a", "b")) || s.Equal(outcomes("a")) {
		t.Errorf("Equal wrong")
	}
}

func TestObserveNoLoads(t *testing.T) {
	c := Config{Model: SC, Size: 1, Regs: 2}
	m, err := c.New(parse(t, "store RLX #0 1"))
	if err != nil {
		t.Fatal(err)
	}
	if o := m.Outcome(); o != noOutcome {
		t.Errorf("Outcome() = %q, want %q", o, noOutcome)
	}
}
