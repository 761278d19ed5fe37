package targeting

import (
	"slices"

	"github.com/mcoot/autoumpire/internal/dependencies/random"
)

// degree is the number of targets (and attackers) of every node.
const degree = 3

// MinPlayers is the smallest player count a graph is built for.
const MinPlayers = 8

type pair struct {
	a, b string
}

func unordered(a, b string) pair {
	if b < a {
		a, b = b, a
	}
	return pair{a, b}
}

// buildInitial builds the starting graph from three cycles over players. All
// randomness comes from rng, in cycle order.
func buildInitial(players []string, seeds map[string]bool, interleave bool, rng random.Random, limits Limits) (*Graph, error) {
	if len(players) < MinPlayers {
		return nil, ErrTooFewPlayers
	}
	for range limits.MaxRestarts + 1 {
		claimed := make(map[pair]bool)
		var cycles [][]string
		var strict []bool
		for len(cycles) < degree {
			cycle, triangleFree, ok := findCycle(players, claimed, cycles, seeds, interleave, rng, limits)
			if !ok {
				break
			}
			for i := range cycle {
				claimed[unordered(cycle[i], cycle[(i+1)%len(cycle)])] = true
			}
			cycles = append(cycles, cycle)
			strict = append(strict, triangleFree)
		}
		if len(cycles) < degree {
			continue
		}
		g := NewGraph()
		for i, cycle := range cycles {
			for j, from := range cycle {
				g.addEdge(from, cycle[(j+1)%len(cycle)], !strict[i])
			}
		}
		return g, nil
	}
	return nil, ErrTargetingUnsatisfiable
}

// findCycle shuffles players until the cycle reuses no claimed pair. For the
// first StrictShuffles attempts the cycle must also close no triangle with
// the accepted cycles.
func findCycle(players []string, claimed map[pair]bool, accepted [][]string, seeds map[string]bool, interleave bool, rng random.Random, limits Limits) (cycle []string, triangleFree, ok bool) {
	for attempt := range limits.ShufflesPerCycle {
		perm := slices.Clone(players)
		rng.Shuffle(len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
		if interleave && len(seeds) > 0 && hasAdjacentSeeds(perm, seeds) {
			perm = interleaveSeeds(perm, seeds, rng)
		}
		if reusesClaimed(perm, claimed) {
			continue
		}
		strict := attempt < limits.StrictShuffles
		if strict && closesTriangle(perm, accepted) {
			continue
		}
		return perm, strict, true
	}
	return nil, false, false
}

func hasAdjacentSeeds(cycle []string, seeds map[string]bool) bool {
	for i, id := range cycle {
		if seeds[id] && seeds[cycle[(i+1)%len(cycle)]] {
			return true
		}
	}
	return false
}

// interleaveSeeds reshuffles the seeds and non-seeds separately, then spreads
// the seeds evenly through the non-seeds.
func interleaveSeeds(perm []string, seeds map[string]bool, rng random.Random) []string {
	var seedPart, rest []string
	for _, id := range perm {
		if seeds[id] {
			seedPart = append(seedPart, id)
		} else {
			rest = append(rest, id)
		}
	}
	rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	rng.Shuffle(len(seedPart), func(i, j int) { seedPart[i], seedPart[j] = seedPart[j], seedPart[i] })

	ratio := float64(len(rest)) / float64(len(seedPart))
	out := make([]string, 0, len(perm))
	next := 0
	balance := 0.0
	for _, id := range rest {
		out = append(out, id)
		balance++
		if balance >= ratio && next < len(seedPart) {
			out = append(out, seedPart[next])
			next++
			balance -= ratio
		}
	}
	return append(out, seedPart[next:]...)
}

func reusesClaimed(cycle []string, claimed map[pair]bool) bool {
	for i, id := range cycle {
		if claimed[unordered(id, cycle[(i+1)%len(cycle)])] {
			return true
		}
	}
	return false
}

// closesTriangle reports whether adding cycle to the accepted cycles creates
// a directed triangle through one of its edges.
func closesTriangle(cycle []string, accepted [][]string) bool {
	succ := make(map[string][]string, len(cycle))
	for _, c := range append(slices.Clone(accepted), cycle) {
		for i, id := range c {
			succ[id] = append(succ[id], c[(i+1)%len(c)])
		}
	}
	for i, a := range cycle {
		b := cycle[(i+1)%len(cycle)]
		for _, c := range succ[b] {
			if slices.Contains(succ[c], a) {
				return true
			}
		}
	}
	return false
}
