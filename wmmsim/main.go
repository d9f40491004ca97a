// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command wmmsim runs programs on simulated weak memory models.
//
// Usage:
//
//	wmmsim [flags] program...
//
// Each program file holds one thread. A file ending in .txtar is a
// litmus archive holding one thread per member file.
//
//
// Modes
//
// With -mode rand (the default), wmmsim runs the threads once with
// random scheduling, logging every memory action, and prints the
// final state. With -runs N it instead runs them N times in parallel
// and prints how often each outcome occurred; -plot writes those
// frequencies as an SVG chart.
//
// With -mode interact, an operator chooses every step.
//
// With -mode enum, wmmsim explores every possible execution and
// prints the set of reachable outcomes. With -samples N it follows N
// random executions instead, for programs too large to explore.
//
// With -mode compare, it does that under every memory model and
// prints which models permit which outcomes.
//
// With -mode gen, it ignores its arguments and instead generates
// small litmus programs of stores and loads, comparing every model
// on each. -examples prints programs that show where models differ.
// In both compare and gen modes, -graph writes the strength order of
// the models as a dot graph.
//
//
// Outcomes
//
// The outcome of a run is the final value of every register that is
// the destination of a load, written t<thread>.r<register>=<value>.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/aclements/wmm/internal/failure"
	"github.com/aclements/wmm/internal/prompt"
	"github.com/aclements/wmm/program"
	"github.com/aclements/wmm/sim"
	"github.com/aclements/wmm/storage"
)

var (
	flagModel    = flag.String("model", "sc", "memory `model`: sc, tso, pso, ra, sra or sra-view")
	flagMode     = flag.String("mode", "rand", "execution `mode`: rand, interact, enum, compare or gen")
	flagV        = flag.String("v", "", "log `level`: info, warn, error or silent (default info for single runs, silent otherwise)")
	flagSize     = flag.Int("size", 10, "shared storage `cells`")
	flagRegs     = flag.Int("regs", 10, "`registers` per thread")
	flagSeed     = flag.Int64("seed", 0, "random `seed` (0 means time based)")
	flagRuns     = flag.Int("runs", 1, "number of random `runs`")
	flagJ        = flag.Int("j", runtime.GOMAXPROCS(-1), "run `n` random runs in parallel")
	flagMaxSteps = flag.Int("max-steps", 100000, "stop a random run after `n` steps")
	flagDepth    = flag.Int("depth", 1000, "maximum nondeterministic choices per explored `path`")
	flagSamples  = flag.Int("samples", 0, "follow `n` random paths instead of every path (enum, compare, gen)")
	flagPlot     = flag.String("plot", "", "write outcome frequencies to `output` SVG file")
	flagGraph    = flag.String("graph", "", "write model graph to `output` dot file")
	flagExamples = flag.Bool("examples", false, "show examples where models differ")

	flagNoSimplify = flag.Bool("no-simplify", false, "disable graph simplification")
	flagNoPrune    = flag.Bool("no-prune", false, "explore states more than once")
	flagGenThreads = flag.Int("gen-threads", 2, "maximum `threads` of generated programs")
	flagGenOps     = flag.Int("gen-ops", 2, "maximum `ops` per thread of generated programs")
	flagStoreMode  = flag.String("store-mode", "RLX", "access `mode` of generated stores")
	flagLoadMode   = flag.String("load-mode", "RLX", "access `mode` of generated loads")
)

func main() {
	log.SetPrefix("wmmsim: ")
	log.SetFlags(0)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] program...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Fatal simulation errors are panics carrying errors.
	defer func() {
		if err := recover(); err != nil {
			if err, ok := err.(error); ok {
				log.Fatal(err)
			}
			panic(err)
		}
	}()

	model, err := sim.ParseModel(*flagModel)
	if err != nil {
		log.Fatal(err)
	}
	level := storage.LevelSilent
	if *flagV != "" {
		level, err = storage.ParseLevel(*flagV)
		if err != nil {
			log.Fatal(err)
		}
	} else if (*flagMode == "rand" && *flagRuns == 1) || *flagMode == "interact" {
		level = storage.LevelInfo
	}
	seed := *flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	cfg := sim.Config{
		Model: model,
		Size:  *flagSize,
		Regs:  *flagRegs,
		Log:   storage.NewLog(os.Stdout, level),
	}

	if *flagMode == "gen" {
		if flag.NArg() > 0 {
			flag.Usage()
			os.Exit(2)
		}
		if err := gen(cfg, seed); err != nil {
			log.Fatal(err)
		}
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	progs, err := loadPrograms(flag.Args())
	if err != nil {
		log.Fatal(err)
	}

	switch *flagMode {
	case "rand":
		if *flagRuns > 1 {
			err = explore(cfg, progs, seed)
		} else {
			err = runRandom(cfg, progs, seed)
		}
	case "interact":
		err = runInteractive(cfg, progs)
	case "enum":
		err = enumerate(cfg, progs, seed)
	case "compare":
		err = compare(cfg, progs, seed)
	default:
		err = fmt.Errorf("unknown mode %q", *flagMode)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// loadPrograms reads one thread from each path, or every thread of
// a .txtar litmus archive.
func loadPrograms(paths []string) ([]*program.Program, error) {
	var progs []*program.Program
	for _, path := range paths {
		if strings.HasSuffix(path, ".txtar") {
			l, err := program.ParseArchiveFile(path)
			if err != nil {
				return nil, err
			}
			progs = append(progs, l.Threads...)
			continue
		}
		p, err := program.ParseFile(path)
		if err != nil {
			return nil, err
		}
		progs = append(progs, p)
	}
	return progs, nil
}

func runRandom(cfg sim.Config, progs []*program.Program, seed int64) error {
	cfg.Policy = sim.Policy{Kind: sim.Random, Seed: seed}
	m, err := cfg.New(progs)
	if err != nil {
		return err
	}
	cfg.Log.Infof("seed %d", seed)
	e := sim.NewRandomExecutor(m, seed)
	steps, done := sim.Run(e, *flagMaxSteps)
	if !done {
		cfg.Log.Warningf("stopped after %d steps", steps)
	}
	return e.WriteState(os.Stdout)
}

func runInteractive(cfg sim.Config, progs []*program.Program) error {
	p := prompt.New(os.Stdin, os.Stdout)
	cfg.Policy = sim.Policy{Kind: sim.Interactive, Prompt: p}
	m, err := cfg.New(progs)
	if err != nil {
		return err
	}
	e := sim.NewInteractiveExecutor(m, p)
	sim.Run(e, 0)
	return e.WriteState(os.Stdout)
}

func explore(cfg sim.Config, progs []*program.Program, seed int64) error {
	ecfg := sim.ExploreConfig{
		Config:   cfg,
		Runs:     *flagRuns,
		Seed:     seed,
		Workers:  *flagJ,
		MaxSteps: *flagMaxSteps,
	}
	rep, err := sim.Explore(context.Background(), ecfg, progs)
	if err != nil {
		return err
	}
	fmt.Printf("seed %d\n", seed)
	sim.WriteTable(os.Stdout, rep.Outcomes.CountTable())
	fmt.Println(rep.Summary())
	printFailures(len(rep.Failures), rep.FailureClasses())

	if *flagPlot != "" {
		f, err := os.Create(*flagPlot)
		if err != nil {
			return err
		}
		err = rep.WritePlot(f, fmt.Sprintf("%v, %d runs", cfg.Model, rep.Runs))
		if err1 := f.Close(); err == nil {
			err = err1
		}
		if err != nil {
			return fmt.Errorf("%s: %w", *flagPlot, err)
		}
	}
	return nil
}

func enumConfig(cfg sim.Config, seed int64) sim.EnumConfig {
	return sim.EnumConfig{
		Config:   cfg,
		MaxDepth: *flagDepth,
		NoPrune:  *flagNoPrune,
		Samples:  *flagSamples,
		Seed:     seed,
		Progress: true,
	}
}

func enumerate(cfg sim.Config, progs []*program.Program, seed int64) error {
	e, err := sim.Enumerate(enumConfig(cfg, seed), progs)
	if err != nil {
		return err
	}
	fmt.Print(e.Outcomes.String())
	fmt.Fprintf(os.Stderr, "%d paths, %d redundant, %d pruned as already explored\n", e.Stats.Paths, e.Stats.Terminated-e.Pruned, e.Pruned)
	if e.Stats.Cut > 0 {
		log.Printf("warning: %d paths cut at depth %d; outcomes may be missing", e.Stats.Cut, *flagDepth)
	}
	printFailures(len(e.Failures), failureClasses(e))
	return nil
}

func compare(cfg sim.Config, progs []*program.Program, seed int64) error {
	es, err := sim.Compare(enumConfig(cfg, seed), sim.Models, progs)
	if err != nil {
		return err
	}
	var names []string
	var sets []*sim.OutcomeSet
	for _, e := range es {
		names = append(names, e.Model.String())
		sets = append(sets, &e.Outcomes)
		if len(e.Failures) > 0 {
			fmt.Printf("%v:\n", e.Model)
			printFailures(len(e.Failures), failureClasses(e))
		}
	}
	sim.WriteTable(os.Stdout, sim.OutcomeTable(names, sets))

	if *flagGraph != "" {
		ces := newCounterexamples(len(es))
		findCounterexamples(ces, es, progs)
		return writeGraphFile(*flagGraph, ces)
	}
	return nil
}

func gen(cfg sim.Config, seed int64) error {
	storeMode, err := storage.ParseMode(*flagStoreMode)
	if err != nil {
		return err
	}
	loadMode, err := storage.ParseMode(*flagLoadMode)
	if err != nil {
		return err
	}
	g := &generator{
		maxThreads: *flagGenThreads,
		maxOps:     *flagGenOps,
		storeMode:  storeMode,
		loadMode:   loadMode,
	}
	if g.maxVar() > cfg.Size {
		return fmt.Errorf("generated programs need %d cells, have %d", g.maxVar(), cfg.Size)
	}
	cfg.Regs = g.regs()
	ecfg := enumConfig(cfg, seed)
	ecfg.Progress = false

	ces := newCounterexamples(len(sim.Models))
	n := 0
	var genErr error
	g.generate(func(threads [][]genOp) {
		if genErr != nil {
			return
		}
		if !*flagExamples && n%10 == 0 {
			fmt.Fprintf(os.Stderr, "\r%d progs", n)
		}
		n++
		progs := g.programs(threads)
		es, err := sim.Compare(ecfg, sim.Models, progs)
		if err != nil {
			genErr = err
			return
		}
		for _, c := range findCounterexamples(ces, es, progs) {
			if *flagExamples {
				fmt.Printf("%s\n", formatOps(threads))
				c.print(os.Stdout)
				fmt.Println()
			}
		}
		if n%100 == 0 && *flagGraph != "" {
			// dot uses inotify wrong, so it doesn't
			// notice if we write to a temp file and
			// rename it over the output file.
			if err := writeGraphFile(*flagGraph, ces); err != nil {
				genErr = err
			}
		}
	})
	fmt.Fprintf(os.Stderr, "\r%d progs\n", n)
	if genErr != nil {
		return genErr
	}
	if *flagGraph != "" {
		return writeGraphFile(*flagGraph, ces)
	}
	return nil
}

func newCounterexamples(n int) [][]*counterexample {
	ces := make([][]*counterexample, n)
	for i := range ces {
		ces[i] = make([]*counterexample, n)
	}
	return ces
}

func writeGraphFile(path string, ces [][]*counterexample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	writeModelGraph(f, sim.Models, ces, !*flagNoSimplify)
	return f.Close()
}

func failureClasses(e *sim.Enumeration) []failure.Class {
	return failure.Summarize(e.Failures)
}

func printFailures(n int, classes []failure.Class) {
	if n == 0 {
		return
	}
	fmt.Printf("%d failed runs:\n", n)
	for _, c := range classes {
		fmt.Printf("\t%v\n", c)
	}
}
