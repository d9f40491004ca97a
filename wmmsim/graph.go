// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aclements/wmm/sim"
)

// A strengthGraph is a directed graph over memory models. An edge
// from A to B means A is stronger than or equal to B.
type strengthGraph struct {
	nodes []*gnode
}

type gnode struct {
	id    int
	label string
	in    map[int]bool
	out   map[int]bool
}

func (g *strengthGraph) newNode(label string) *gnode {
	n := &gnode{id: len(g.nodes), label: label, in: make(map[int]bool), out: make(map[int]bool)}
	g.nodes = append(g.nodes, n)
	return n
}

func (g *strengthGraph) edge(from, to *gnode) {
	from.out[to.id] = true
	to.in[from.id] = true
}

func (g *strengthGraph) removeEdge(from, to *gnode) {
	delete(from.out, to.id)
	delete(to.in, from.id)
}

// maximalCliques partitions the nodes into groups in which every
// pair of nodes has edges both ways.
func (g *strengthGraph) maximalCliques() [][]int {
	var cliques [][]int
	have := make([]bool, len(g.nodes))
	for id := range g.nodes {
		if have[id] {
			continue
		}
		clique := []int{id}
		have[id] = true
	next:
		for oid := id + 1; oid < len(g.nodes); oid++ {
			if have[oid] {
				continue
			}
			o := g.nodes[oid]
			for _, cid := range clique {
				if !o.in[cid] || !o.out[cid] {
					continue next
				}
			}
			clique = append(clique, oid)
			have[oid] = true
		}
		cliques = append(cliques, clique)
	}
	return cliques
}

// collapse returns a graph with one node per group. Edges within a
// group are dropped unless they were self-edges.
func (g *strengthGraph) collapse(groups [][]int) *strengthGraph {
	out := new(strengthGraph)
	oldToNew := make([]*gnode, len(g.nodes))
	for _, group := range groups {
		var labels []string
		for _, id := range group {
			labels = append(labels, g.nodes[id].label)
		}
		n := out.newNode(strings.Join(labels, "\n"))
		for _, id := range group {
			oldToNew[id] = n
		}
	}
	for oid, old := range g.nodes {
		from := oldToNew[oid]
		if from == nil {
			continue
		}
		for to := range old.out {
			nto := oldToNew[to]
			if nto == nil || (nto == from && to != oid) {
				continue
			}
			out.edge(from, nto)
		}
	}
	return out
}

// transitiveReduction removes every edge implied by a longer path.
// The graph must be acyclic.
func (g *strengthGraph) transitiveReduction() {
	type edge struct{ from, to *gnode }
	remove := make(map[edge]bool)
	visited := make([]bool, len(g.nodes))
	var rec func(from, to *gnode, indirect bool)
	rec = func(from, to *gnode, indirect bool) {
		if indirect {
			if visited[to.id] {
				return
			}
			visited[to.id] = true
			remove[edge{from, to}] = true
		}
		for next := range to.out {
			rec(from, g.nodes[next], true)
		}
	}
	for _, n := range g.nodes {
		for i := range visited {
			visited[i] = false
		}
		for child := range n.out {
			rec(n, g.nodes[child], false)
		}
	}
	for e := range remove {
		g.removeEdge(e.from, e.to)
	}
}

func (g *strengthGraph) writeDot(w io.Writer) {
	for _, n := range g.nodes {
		fmt.Fprintf(w, "n%d [label=%q];\n", n.id, n.label)
		var outs []int
		for o := range n.out {
			outs = append(outs, o)
		}
		sort.Ints(outs)
		for _, o := range outs {
			fmt.Fprintf(w, "n%d -> n%d;\n", n.id, o)
		}
	}
}

// writeModelGraph writes a dot graph of the strength order of models.
// counterexamples[i][j] is a program showing that models[i] is weaker
// than models[j], or nil if none was found.
func writeModelGraph(w io.Writer, models []sim.Model, counterexamples [][]*counterexample, simplify bool) {
	fmt.Fprintln(w, "digraph wmm {")
	if simplify {
		fmt.Fprintln(w, "label=\"A -> B means A is stronger than B\";")
	} else {
		fmt.Fprintln(w, "label=\"A -> B means A is stronger than or equal to B\";")
	}

	g := new(strengthGraph)
	var nodes []*gnode
	for _, m := range models {
		nodes = append(nodes, g.newNode(m.String()))
	}
	for i := range counterexamples {
		for j, ce := range counterexamples[i] {
			if i == j {
				continue
			}
			if ce == nil {
				g.edge(nodes[i], nodes[j])
				continue
			}
			var buf bytes.Buffer
			ce.print(&buf)
			fmt.Fprintf(w, "# %s\n", strings.Replace(strings.TrimSuffix(buf.String(), "\n"), "\n", "\n# ", -1))
		}
	}

	if simplify {
		// Equivalent models form cliques. Collapsing them
		// leaves a strict partial order, from which we drop
		// the implied edges.
		g = g.collapse(g.maximalCliques())
		g.transitiveReduction()
	}
	g.writeDot(w)
	fmt.Fprintln(w, "}")
}
