package targeting

import (
	"fmt"
	"maps"
	"slices"
)

type edge struct {
	from, to string
}

// Graph is a targeting graph: each node's targets and attackers. Edges
// placed while a constraint was relaxed are remembered so that the strict
// invariants can be checked over the rest.
type Graph struct {
	targets   map[string][]string
	attackers map[string][]string
	relaxed   map[edge]bool
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		targets:   make(map[string][]string),
		attackers: make(map[string][]string),
		relaxed:   make(map[edge]bool),
	}
}

func (g *Graph) addEdge(from, to string, relaxed bool) {
	g.targets[from] = append(g.targets[from], to)
	g.attackers[to] = append(g.attackers[to], from)
	if relaxed {
		g.relaxed[edge{from, to}] = true
	}
}

func (g *Graph) hasEdge(from, to string) bool {
	return slices.Contains(g.targets[from], to)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.targets)
}

// Contains reports whether id is a node.
func (g *Graph) Contains(id string) bool {
	_, ok := g.targets[id]
	return ok
}

// Nodes returns every node, sorted.
func (g *Graph) Nodes() []string {
	return slices.Sorted(maps.Keys(g.targets))
}

// TargetsOf returns who id is targeting.
func (g *Graph) TargetsOf(id string) []string {
	return slices.Clone(g.targets[id])
}

// AttackersOf returns who is targeting id.
func (g *Graph) AttackersOf(id string) []string {
	return slices.Clone(g.attackers[id])
}

// Targets returns a copy of the whole target map.
func (g *Graph) Targets() map[string][]string {
	out := make(map[string][]string, len(g.targets))
	for id, ts := range g.targets {
		out[id] = slices.Clone(ts)
	}
	return out
}

// IsRelaxed reports whether the edge was placed under a relaxed constraint.
func (g *Graph) IsRelaxed(from, to string) bool {
	return g.relaxed[edge{from, to}]
}

// Clone returns a deep copy of g.
func (g *Graph) Clone() *Graph {
	c := NewGraph()
	for id, ts := range g.targets {
		c.targets[id] = slices.Clone(ts)
	}
	for id, as := range g.attackers {
		c.attackers[id] = slices.Clone(as)
	}
	maps.Copy(c.relaxed, g.relaxed)
	return c
}

// Validate checks the graph invariants: every node has three distinct
// targets and three attackers, nothing targets itself, and no mutual pair or
// triangle is made only of strict edges.
func (g *Graph) Validate() error {
	for _, id := range g.Nodes() {
		ts := g.targets[id]
		if len(ts) != degree {
			return fmt.Errorf("%s has %d targets", id, len(ts))
		}
		if n := len(g.attackers[id]); n != degree {
			return fmt.Errorf("%s has %d attackers", id, n)
		}
		for i, t := range ts {
			if t == id {
				return fmt.Errorf("%s targets itself", id)
			}
			if slices.Contains(ts[:i], t) {
				return fmt.Errorf("%s targets %s twice", id, t)
			}
			if !g.Contains(t) {
				return fmt.Errorf("%s targets %s, which is not in the graph", id, t)
			}
		}
	}
	for _, a := range g.Nodes() {
		for _, b := range g.targets[a] {
			if g.relaxed[edge{a, b}] {
				continue
			}
			if g.hasEdge(b, a) && !g.relaxed[edge{b, a}] {
				return fmt.Errorf("%s and %s target each other", a, b)
			}
			for _, c := range g.targets[b] {
				if g.relaxed[edge{b, c}] {
					continue
				}
				if g.hasEdge(c, a) && !g.relaxed[edge{c, a}] {
					return fmt.Errorf("%s, %s and %s form a triangle", a, b, c)
				}
			}
		}
	}
	return nil
}

func (g *Graph) removeNodes(dead map[string]bool) {
	for d := range dead {
		for _, t := range g.targets[d] {
			if !dead[t] {
				g.attackers[t] = slices.DeleteFunc(g.attackers[t], func(x string) bool { return x == d })
			}
			delete(g.relaxed, edge{d, t})
		}
		for _, a := range g.attackers[d] {
			if !dead[a] {
				g.targets[a] = slices.DeleteFunc(g.targets[a], func(x string) bool { return x == d })
			}
			delete(g.relaxed, edge{a, d})
		}
	}
	for d := range dead {
		delete(g.targets, d)
		delete(g.attackers, d)
	}
}
