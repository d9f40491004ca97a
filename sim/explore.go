// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sort"

	"github.com/aclements/go-gg/gg"
	"github.com/aclements/go-gg/table"
	"github.com/aclements/go-moremath/stats"
	"github.com/aclements/wmm/internal/failure"
	"github.com/aclements/wmm/program"
	"golang.org/x/sync/errgroup"
)

// ExploreConfig configures Explore. Each run uses a Random policy
// seeded from Seed; the Policy of the embedded Config is ignored.
type ExploreConfig struct {
	Config

	Runs int
	Seed int64

	// Workers is the number of runs in flight at once. If <= 0,
	// it defaults to GOMAXPROCS.
	Workers int

	// MaxSteps bounds the steps of one run. If <= 0, runs are
	// unbounded.
	MaxSteps int
}

// A Report summarizes the runs of Explore.
type Report struct {
	Runs     int
	Outcomes OutcomeSet
	Steps    []float64 // Steps of each finished run, sorted.
	Failures []*failure.Failure
}

type runResult struct {
	outcome Outcome
	steps   int
	failure *failure.Failure
}

// Explore runs progs cfg.Runs times with random scheduling. Run i
// uses seed cfg.Seed+i for both the executor and the memory model,
// so a Report does not depend on cfg.Workers.
func Explore(ctx context.Context, cfg ExploreConfig, progs []*program.Program) (*Report, error) {
	c := cfg.Config
	c.Policy = Policy{Kind: Random}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	nworkers := cfg.Workers
	if nworkers <= 0 {
		nworkers = runtime.GOMAXPROCS(-1)
	}

	results := make([]runResult, cfg.Runs)
	runs := make(chan int)
	g, ctx := errgroup.WithContext(ctx)

	// Feeder.
	g.Go(func() error {
		defer close(runs)
		for i := 0; i < cfg.Runs; i++ {
			select {
			case runs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	// Workers.
	for w := 0; w < nworkers; w++ {
		g.Go(func() error {
			for i := range runs {
				rc := c
				rc.Policy.Seed = cfg.Seed + int64(i)
				r, err := runOne(&rc, progs, cfg.MaxSteps)
				if err != nil {
					return err
				}
				results[i] = r
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &Report{Runs: cfg.Runs}
	for _, r := range results {
		if r.failure != nil {
			rep.Failures = append(rep.Failures, r.failure)
			continue
		}
		rep.Outcomes.Add(r.outcome)
		rep.Steps = append(rep.Steps, float64(r.steps))
	}
	sort.Float64s(rep.Steps)
	return rep, nil
}

// runOne runs progs to completion once. Panics from the run become
// the result's failure.
func runOne(c *Config, progs []*program.Program, maxSteps int) (r runResult, err error) {
	defer func() {
		if v := recover(); v != nil {
			r.failure = toFailure(v)
		}
	}()
	m, err := c.New(progs)
	if err != nil {
		var serr *StepError
		if errors.As(err, &serr) {
			r.failure = toFailure(serr)
			return r, nil
		}
		return r, err
	}
	steps, done := Run(NewRandomExecutor(m, c.Policy.Seed), maxSteps)
	if !done {
		r.failure = &failure.Failure{Message: fmt.Sprintf("no result after %d steps", steps)}
		return r, nil
	}
	r.outcome = m.Outcome()
	r.steps = steps
	return r, nil
}

// StepSummary describes the number of steps runs took.
type StepSummary struct {
	N int

	Mean, StdDev float64
	Min, Median  float64
	Max          float64
}

func (s StepSummary) String() string {
	return fmt.Sprintf("%d runs, steps: mean %.1f ± %.1f, min %g, median %g, max %g", s.N, s.Mean, s.StdDev, s.Min, s.Median, s.Max)
}

// Summary returns statistics of the steps of the finished runs.
func (r *Report) Summary() StepSummary {
	if len(r.Steps) == 0 {
		return StepSummary{}
	}
	s := stats.Sample{Xs: r.Steps, Sorted: true}
	min, max := s.Bounds()
	sum := StepSummary{
		N:      len(r.Steps),
		Mean:   s.Mean(),
		Min:    min,
		Median: s.Quantile(0.5),
		Max:    max,
	}
	if len(r.Steps) > 1 {
		sum.StdDev = s.StdDev()
	}
	return sum
}

// FailureClasses groups the failures of the report.
func (r *Report) FailureClasses() []failure.Class {
	return failure.Summarize(r.Failures)
}

// ErrNoOutcomes is returned by WritePlot for a report in which no
// run finished.
var ErrNoOutcomes = errors.New("no outcomes to plot")

// WritePlot writes an SVG chart of how many runs reached each
// outcome. Outcomes are numbered in the order of
// r.Outcomes.CountTable.
func (r *Report) WritePlot(w io.Writer, title string) error {
	outcomes := r.Outcomes.Outcomes()
	if len(outcomes) == 0 {
		return ErrNoOutcomes
	}
	idx := make([]float64, len(outcomes))
	runs := make([]float64, len(outcomes))
	labels := make([]string, len(outcomes))
	for i, o := range outcomes {
		idx[i] = float64(i)
		runs[i] = float64(r.Outcomes.Count(o))
		labels[i] = string(o)
	}
	tab := new(table.Builder).
		Add("outcome", idx).
		Add("runs", runs).
		Add("label", labels).
		Done()

	p := gg.NewPlot(tab)
	// Pad by half an outcome so a single outcome still has a width.
	p.SetScale("x", gg.NewLinearScaler().Include(-0.5).Include(float64(len(outcomes))-0.5))
	p.SetScale("y", gg.NewLinearScaler().Include(0))
	p.Add(gg.LayerLines{X: "outcome", Y: "runs"})
	p.Add(gg.LayerTooltips{X: "outcome", Y: "runs", Label: "label"})
	if title != "" {
		p.Add(gg.Title(title))
	}
	return p.WriteSVG(w, 500, 350)
}
