package targeting

import (
	"slices"
)

// Stage is a level of constraint relaxation used to repair a chunk.
type Stage int

const (
	// StageStrict enforces every constraint.
	StageStrict Stage = iota
	// StageAllowSeeds allows edges between two seeds.
	StageAllowSeeds
	// StageAllowMutual also allows mutual targets. Triangles are never allowed.
	StageAllowMutual
	// StageCollapsed means no assignment exists; the graph is abandoned.
	StageCollapsed
)

func (s Stage) String() string {
	switch s {
	case StageStrict:
		return "strict"
	case StageAllowSeeds:
		return "allow seeds"
	case StageAllowMutual:
		return "allow mutual"
	case StageCollapsed:
		return "collapsed"
	}
	return "unknown"
}

// repairOutcome describes how a chunk was repaired.
type repairOutcome struct {
	stage   Stage
	capHits []Stage
}

// repair removes the dead nodes and reassigns their attackers to their
// targets, relaxing constraints in order until an assignment is found. On
// collapse the graph is left untouched.
func (g *Graph) repair(dead []string, seeds map[string]bool, permutationCap int) repairOutcome {
	deadSet := make(map[string]bool, len(dead))
	for _, d := range dead {
		deadSet[d] = true
	}

	var targeters, targeted []string
	for _, d := range dead {
		for _, a := range g.attackers[d] {
			if !deadSet[a] {
				targeters = append(targeters, a)
			}
		}
	}
	for _, d := range dead {
		for _, t := range g.targets[d] {
			if !deadSet[t] {
				targeted = append(targeted, t)
			}
		}
	}

	var outcome repairOutcome
	if len(targeters) != len(targeted) {
		outcome.stage = StageCollapsed
		return outcome
	}

	remaining := g.Clone()
	remaining.removeNodes(deadSet)

	stages := []Stage{StageStrict, StageAllowSeeds, StageAllowMutual}
	if len(seeds) == 0 {
		stages = []Stage{StageStrict, StageAllowMutual}
	}
	for _, stage := range stages {
		s := &search{
			graph:     remaining,
			targeters: targeters,
			targeted:  targeted,
			seeds:     seeds,
			stage:     stage,
			budget:    permutationCap,
			used:      make([]bool, len(targeters)),
			chosen:    make([]int, 0, len(targeters)),
			added:     make(map[string][]string),
		}
		found := s.run()
		if s.budget < 0 {
			outcome.capHits = append(outcome.capHits, stage)
		}
		if !found {
			continue
		}
		for i, ti := range s.chosen {
			remaining.addEdge(targeters[ti], targeted[i], stage != StageStrict)
		}
		*g = *remaining
		outcome.stage = stage
		return outcome
	}
	outcome.stage = StageCollapsed
	return outcome
}

// search walks permutations of the targeters in lexicographic order of
// their indices, pairing position i with targeted[i]. Constraints on a
// single edge prune as soon as the edge is chosen; constraints between the
// new edges are checked on complete assignments.
type search struct {
	graph     *Graph
	targeters []string
	targeted  []string
	seeds     map[string]bool
	stage     Stage
	budget    int

	used   []bool
	chosen []int
	added  map[string][]string
}

func (s *search) run() bool {
	pos := len(s.chosen)
	if pos == len(s.targeted) {
		return s.completeOK()
	}
	b := s.targeted[pos]
	for i, a := range s.targeters {
		if s.used[i] {
			continue
		}
		s.budget--
		if s.budget < 0 {
			return false
		}
		if !s.edgeOK(a, b) {
			continue
		}
		s.used[i] = true
		s.chosen = append(s.chosen, i)
		s.added[a] = append(s.added[a], b)
		if s.run() {
			return true
		}
		s.added[a] = s.added[a][:len(s.added[a])-1]
		s.chosen = s.chosen[:len(s.chosen)-1]
		s.used[i] = false
		if s.budget < 0 {
			return false
		}
	}
	return false
}

func (s *search) edgeOK(a, b string) bool {
	if a == b {
		return false
	}
	if s.graph.hasEdge(a, b) || slices.Contains(s.added[a], b) {
		return false
	}
	if s.stage < StageAllowSeeds && len(s.seeds) > 0 && s.seeds[a] && s.seeds[b] {
		return false
	}
	if s.stage < StageAllowMutual && s.graph.hasEdge(b, a) {
		return false
	}
	return true
}

func (s *search) successors(x string) []string {
	return append(slices.Clone(s.graph.targets[x]), s.added[x]...)
}

func (s *search) completeOK() bool {
	for a, bs := range s.added {
		for _, b := range bs {
			if s.stage < StageAllowMutual && slices.Contains(s.added[b], a) {
				return false
			}
			for _, c := range s.successors(b) {
				if slices.Contains(s.successors(c), a) {
					return false
				}
			}
		}
	}
	return true
}
