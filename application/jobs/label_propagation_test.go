package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawcontext/engram-sub005/tests/fixtures"
)

func TestLabelPropagation_TwoDisjointTriangles(t *testing.T) {
	// Arrange
	edges := append(
		fixtures.Triangle("a1", "a2", "a3"),
		fixtures.Triangle("b1", "b2", "b3")...,
	)

	// Act
	adj := buildAdjacency(edges)
	labels, iterations := propagateLabels(adj, 10)
	groups := clusters(labels, 3)

	// Assert
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"a1", "a2", "a3"}, groups[0])
	assert.Equal(t, []string{"b1", "b2", "b3"}, groups[1])
	assert.LessOrEqual(t, iterations, 10)
}

func TestLabelPropagation_PairBelowMinSizeDropped(t *testing.T) {
	// Arrange
	edges := fixtures.Edges([2]string{"x", "y"})

	// Act
	adj := buildAdjacency(edges)
	labels, _ := propagateLabels(adj, 10)
	groups := clusters(labels, 3)

	// Assert
	assert.Empty(t, groups)
}

func TestBuildAdjacency_DeduplicatesAndSkipsSelfLoops(t *testing.T) {
	// Arrange: duplicate edge, reverse edge, and a self loop
	edges := fixtures.Edges(
		[2]string{"a", "b"},
		[2]string{"a", "b"},
		[2]string{"b", "a"},
		[2]string{"a", "a"},
	)

	// Act
	adj := buildAdjacency(edges)

	// Assert
	assert.Equal(t, []string{"a", "b"}, adj.order)
	assert.Equal(t, []string{"b"}, adj.neighbors["a"])
	assert.Equal(t, []string{"a"}, adj.neighbors["b"])
}

func TestPropagateLabels_IterationCapRespected(t *testing.T) {
	// A long path keeps flipping labels for several passes; the cap must
	// stop propagation even before convergence.
	edges := fixtures.Edges(
		[2]string{"n1", "n2"},
		[2]string{"n2", "n3"},
		[2]string{"n3", "n4"},
		[2]string{"n4", "n5"},
		[2]string{"n5", "n6"},
	)
	adj := buildAdjacency(edges)

	_, iterations := propagateLabels(adj, 1)

	assert.Equal(t, 1, iterations)
}

func TestPropagateLabels_ConnectedPairConverges(t *testing.T) {
	// Arrange: single edge, each side sees exactly one neighbor label.
	adj := buildAdjacency(fixtures.Edges([2]string{"a", "b"}))

	// Act
	labels, _ := propagateLabels(adj, 10)

	// Assert: both nodes end up sharing one label.
	assert.Equal(t, labels["a"], labels["b"])
}
