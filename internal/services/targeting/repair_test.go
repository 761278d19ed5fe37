package targeting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func graphOf(edges ...[2]string) *Graph {
	g := NewGraph()
	for _, e := range edges {
		g.addEdge(e[0], e[1], false)
	}
	return g
}

func seedSet(ids ...string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func TestRepairPicksFirstPermutationInOrder(t *testing.T) {
	g := graphOf(
		[2]string{"A1", "D"}, [2]string{"A2", "D"},
		[2]string{"D", "B1"}, [2]string{"D", "B2"},
	)

	outcome := g.repair([]string{"D"}, nil, DefaultLimits.PermutationCap)

	assert.Equal(t, StageStrict, outcome.stage)
	assert.Equal(t, []string{"B1"}, g.TargetsOf("A1"))
	assert.Equal(t, []string{"B2"}, g.TargetsOf("A2"))
	assert.False(t, g.Contains("D"))
	assert.Empty(t, g.AttackersOf("D"))
}

func TestRepairSkipsExistingEdges(t *testing.T) {
	g := graphOf(
		[2]string{"A1", "D"}, [2]string{"A2", "D"},
		[2]string{"D", "B1"}, [2]string{"D", "B2"},
		[2]string{"A1", "B1"},
	)

	outcome := g.repair([]string{"D"}, nil, DefaultLimits.PermutationCap)

	assert.Equal(t, StageStrict, outcome.stage)
	assert.Equal(t, []string{"B1", "B2"}, g.TargetsOf("A1"))
	assert.Equal(t, []string{"B1"}, g.TargetsOf("A2"))
}

func TestRepairRelaxesSeedsFirst(t *testing.T) {
	g := graphOf([2]string{"A", "D"}, [2]string{"D", "B"})

	outcome := g.repair([]string{"D"}, seedSet("A", "B"), DefaultLimits.PermutationCap)

	assert.Equal(t, StageAllowSeeds, outcome.stage)
	assert.Equal(t, []string{"B"}, g.TargetsOf("A"))
	assert.True(t, g.IsRelaxed("A", "B"))
}

func TestRepairRelaxesMutualAfterSeeds(t *testing.T) {
	g := graphOf([2]string{"A", "D"}, [2]string{"D", "B"}, [2]string{"B", "A"})

	outcome := g.repair([]string{"D"}, seedSet("A", "B"), DefaultLimits.PermutationCap)

	assert.Equal(t, StageAllowMutual, outcome.stage)
	assert.Equal(t, []string{"B"}, g.TargetsOf("A"))
}

func TestRepairNeverAllowsTriangles(t *testing.T) {
	// The only reassignment, A->B, closes the triangle A->B->C->A.
	g := graphOf(
		[2]string{"A", "D"}, [2]string{"D", "B"},
		[2]string{"B", "C"}, [2]string{"C", "A"},
	)
	before := g.Targets()

	outcome := g.repair([]string{"D"}, nil, DefaultLimits.PermutationCap)

	assert.Equal(t, StageCollapsed, outcome.stage)
	assert.Equal(t, before, g.Targets())
	assert.True(t, g.Contains("D"))
}

func TestRepairRejectsMutualWithinChunk(t *testing.T) {
	// D1 and D2 die together; A would target B and B would target A.
	g := graphOf(
		[2]string{"A", "D1"}, [2]string{"D1", "B"},
		[2]string{"B", "D2"}, [2]string{"D2", "A"},
	)

	outcome := g.repair([]string{"D1", "D2"}, nil, DefaultLimits.PermutationCap)

	assert.Equal(t, StageAllowMutual, outcome.stage)
}

func TestRepairCollapsesWhenNothingFits(t *testing.T) {
	g := graphOf([2]string{"A", "D"}, [2]string{"D", "B"}, [2]string{"A", "B"})
	before := g.Targets()

	outcome := g.repair([]string{"D"}, seedSet("A", "B"), DefaultLimits.PermutationCap)

	assert.Equal(t, StageCollapsed, outcome.stage)
	assert.Equal(t, before, g.Targets())
}

func TestRepairSearchCap(t *testing.T) {
	g := graphOf(
		[2]string{"A1", "D"}, [2]string{"A2", "D"},
		[2]string{"D", "B1"}, [2]string{"D", "B2"},
	)

	outcome := g.repair([]string{"D"}, nil, 1)

	assert.Equal(t, StageCollapsed, outcome.stage)
	require.NotEmpty(t, outcome.capHits)
	assert.Equal(t, StageStrict, outcome.capHits[0])
}

func TestRepairDropsEdgesBetweenDead(t *testing.T) {
	g := graphOf(
		[2]string{"A", "D1"}, [2]string{"D1", "D2"}, [2]string{"D2", "B"},
	)

	outcome := g.repair([]string{"D1", "D2"}, nil, DefaultLimits.PermutationCap)

	assert.Equal(t, StageStrict, outcome.stage)
	assert.Equal(t, []string{"B"}, g.TargetsOf("A"))
	assert.Equal(t, []string{"A"}, g.AttackersOf("B"))
	assert.Equal(t, 1, g.Len())
}
