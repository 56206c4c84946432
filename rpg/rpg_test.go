package rpg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/rpgraph/graph"
	"github.com/viant/rpgraph/graph/memstore"
	"github.com/viant/rpgraph/rpgerr"
)

func newRPG(t *testing.T) *RPG {
	t.Helper()
	store, err := memstore.Open("memory")
	require.NoError(t, err)
	return New(store, graph.Config{Name: "demo"})
}

func TestRPG_AddHighLevelNodeValidates(t *testing.T) {
	ctx := context.Background()
	r := newRPG(t)

	_, err := r.AddHighLevelNode(ctx, HighLevelArgs{ID: "", Feature: graph.SemanticFeature{Description: "x"}})
	assert.Equal(t, rpgerr.CodeValidation, rpgerr.CodeOf(err))

	_, err = r.AddHighLevelNode(ctx, HighLevelArgs{ID: "domain:Auth", Feature: graph.SemanticFeature{}})
	assert.Equal(t, rpgerr.CodeValidation, rpgerr.CodeOf(err))

	n, err := r.AddHighLevelNode(ctx, HighLevelArgs{ID: "domain:Auth", Feature: graph.SemanticFeature{Description: "validate credentials"}})
	require.NoError(t, err)
	assert.True(t, IsHighLevel(n))
	assert.False(t, IsLowLevel(n))
}

func TestRPG_AddLowLevelNodeRequiresMetadataPath(t *testing.T) {
	ctx := context.Background()
	r := newRPG(t)

	_, err := r.AddLowLevelNode(ctx, LowLevelArgs{
		ID:      "a.go:file",
		Feature: graph.SemanticFeature{Description: "define module"},
	})
	assert.Equal(t, rpgerr.CodeValidation, rpgerr.CodeOf(err), "low-level nodes always carry exactly one path")

	n, err := r.AddLowLevelNode(ctx, LowLevelArgs{
		ID:       "a.go:file",
		Feature:  graph.SemanticFeature{Description: "define module"},
		Metadata: graph.StructuralMetadata{EntityType: graph.EntityFile, Path: "a.go"},
	})
	require.NoError(t, err)
	assert.True(t, IsLowLevel(n))
}

func TestRPG_AddDependencyEdgeRejectsUnknownType(t *testing.T) {
	ctx := context.Background()
	r := newRPG(t)
	_, err := r.AddLowLevelNode(ctx, LowLevelArgs{ID: "a", Feature: graph.SemanticFeature{Description: "x"}, Metadata: graph.StructuralMetadata{Path: "a.go"}})
	require.NoError(t, err)
	_, err = r.AddLowLevelNode(ctx, LowLevelArgs{ID: "b", Feature: graph.SemanticFeature{Description: "x"}, Metadata: graph.StructuralMetadata{Path: "b.go"}})
	require.NoError(t, err)

	err = r.AddDependencyEdge(ctx, DependencyEdgeArgs{Source: "a", Target: "b", DependencyType: "bogus"})
	assert.Equal(t, rpgerr.CodeValidation, rpgerr.CodeOf(err))

	err = r.AddDependencyEdge(ctx, DependencyEdgeArgs{Source: "a", Target: "b", DependencyType: graph.DepCall})
	assert.NoError(t, err)
}

func TestRPG_FunctionalEdgePredicates(t *testing.T) {
	ctx := context.Background()
	r := newRPG(t)
	_, err := r.AddHighLevelNode(ctx, HighLevelArgs{ID: "domain:A", Feature: graph.SemanticFeature{Description: "group files"}})
	require.NoError(t, err)
	_, err = r.AddLowLevelNode(ctx, LowLevelArgs{ID: "a.go", Feature: graph.SemanticFeature{Description: "define module"}, Metadata: graph.StructuralMetadata{Path: "a.go"}})
	require.NoError(t, err)

	require.NoError(t, r.AddFunctionalEdge(ctx, FunctionalEdgeArgs{Source: "domain:A", Target: "a.go"}))

	edges, err := r.Store.GetEdges(ctx, graph.EdgeFilter{})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.True(t, IsFunctional(edges[0]))
	assert.False(t, IsDependency(edges[0]))
}
