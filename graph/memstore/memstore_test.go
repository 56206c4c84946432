package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/rpgraph/graph"
	"github.com/viant/rpgraph/rpgerr"
)

func lowLevelNode(id, p string) *graph.Node {
	return &graph.Node{
		ID:      id,
		Kind:    graph.LowLevel,
		Feature: graph.SemanticFeature{Description: "do something", Keywords: []string{"parse", "files"}},
		Metadata: &graph.StructuralMetadata{
			EntityType: graph.EntityFunction,
			Path:       p,
		},
	}
}

func TestStore_AddGetRemoveNode(t *testing.T) {
	ctx := context.Background()
	s, err := Open("memory")
	require.NoError(t, err)

	n := lowLevelNode("a.go:function:Foo", "a.go")
	require.NoError(t, s.AddNode(ctx, n))

	got, err := s.GetNode(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, n.ID, got.ID)

	require.NoError(t, s.RemoveNode(ctx, n.ID))
	_, err = s.GetNode(ctx, n.ID)
	assert.Equal(t, rpgerr.CodeNotFound, rpgerr.CodeOf(err))

	// Removing an absent id is idempotent, not an error.
	assert.NoError(t, s.RemoveNode(ctx, n.ID))
}

func TestStore_RemoveNodeCascadesEdges(t *testing.T) {
	ctx := context.Background()
	s, _ := Open("memory")
	parent := lowLevelNode("file", "a.go")
	parent.Kind = graph.HighLevel
	child := lowLevelNode("file:fn", "a.go")
	require.NoError(t, s.AddNode(ctx, parent))
	require.NoError(t, s.AddNode(ctx, child))
	require.NoError(t, s.AddEdge(ctx, &graph.Edge{Source: parent.ID, Target: child.ID, Kind: graph.Functional}))

	require.NoError(t, s.RemoveNode(ctx, child.ID))

	edges, err := s.GetEdges(ctx, graph.EdgeFilter{})
	require.NoError(t, err)
	assert.Empty(t, edges, "edge incident to the removed node must be cascaded away")
}

func TestStore_AddEdgeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := Open("memory")
	a := lowLevelNode("a", "a.go")
	a.Kind = graph.HighLevel
	b := lowLevelNode("b", "b.go")
	require.NoError(t, s.AddNode(ctx, a))
	require.NoError(t, s.AddNode(ctx, b))

	e := &graph.Edge{Source: "a", Target: "b", Kind: graph.Functional}
	require.NoError(t, s.AddEdge(ctx, e))
	require.NoError(t, s.AddEdge(ctx, e))

	edges, err := s.GetEdges(ctx, graph.EdgeFilter{})
	require.NoError(t, err)
	assert.Len(t, edges, 1, "duplicate (source,target,type) must not create a second edge")
}

func TestStore_FunctionalEdgeRejectsSecondParent(t *testing.T) {
	ctx := context.Background()
	s, _ := Open("memory")
	for _, id := range []string{"a", "b", "c"} {
		n := lowLevelNode(id, id+".go")
		n.Kind = graph.HighLevel
		require.NoError(t, s.AddNode(ctx, n))
	}
	require.NoError(t, s.AddEdge(ctx, &graph.Edge{Source: "a", Target: "c", Kind: graph.Functional}))
	err := s.AddEdge(ctx, &graph.Edge{Source: "b", Target: "c", Kind: graph.Functional})
	assert.Equal(t, rpgerr.CodeValidation, rpgerr.CodeOf(err), "functional edges form a forest: at most one incoming edge per node")
}

func TestStore_FunctionalEdgeRejectsCycle(t *testing.T) {
	ctx := context.Background()
	s, _ := Open("memory")
	for _, id := range []string{"a", "b"} {
		n := lowLevelNode(id, id+".go")
		n.Kind = graph.HighLevel
		require.NoError(t, s.AddNode(ctx, n))
	}
	require.NoError(t, s.AddEdge(ctx, &graph.Edge{Source: "a", Target: "b", Kind: graph.Functional}))
	err := s.AddEdge(ctx, &graph.Edge{Source: "b", Target: "a", Kind: graph.Functional})
	assert.Equal(t, rpgerr.CodeValidation, rpgerr.CodeOf(err))
}

func TestStore_UpdateNodeDeepMergesFeatureAndExtra(t *testing.T) {
	ctx := context.Background()
	s, _ := Open("memory")
	n := lowLevelNode("a", "a.go")
	n.Metadata.Extra = map[string]any{"kept": "yes"}
	require.NoError(t, s.AddNode(ctx, n))

	newPath := "b.go"
	require.NoError(t, s.UpdateNode(ctx, "a", graph.NodePatch{
		Feature:    &graph.SemanticFeature{Description: "render template", Keywords: []string{"render"}},
		Path:       &newPath,
		ExtraPatch: map[string]any{"added": "also"},
	}))

	got, err := s.GetNode(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "render template", got.Feature.Description)
	assert.ElementsMatch(t, []string{"parse", "files", "render"}, got.Feature.Keywords)
	assert.Equal(t, "b.go", got.Metadata.Path)
	assert.Equal(t, "yes", got.Metadata.Extra["kept"])
	assert.Equal(t, "also", got.Metadata.Extra["added"])
}

func TestStore_GetChildrenAndParent(t *testing.T) {
	ctx := context.Background()
	s, _ := Open("memory")
	parent := lowLevelNode("p", "p.go")
	parent.Kind = graph.HighLevel
	child1 := lowLevelNode("c1", "c1.go")
	child2 := lowLevelNode("c2", "c2.go")
	require.NoError(t, s.AddNode(ctx, parent))
	require.NoError(t, s.AddNode(ctx, child1))
	require.NoError(t, s.AddNode(ctx, child2))
	require.NoError(t, s.AddEdge(ctx, &graph.Edge{Source: "p", Target: "c1", Kind: graph.Functional}))
	require.NoError(t, s.AddEdge(ctx, &graph.Edge{Source: "p", Target: "c2", Kind: graph.Functional}))

	children, err := s.GetChildren(ctx, "p")
	require.NoError(t, err)
	assert.Len(t, children, 2)

	gotParent, err := s.GetParent(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, gotParent)
	assert.Equal(t, "p", gotParent.ID)

	rootParent, err := s.GetParent(ctx, "p")
	require.NoError(t, err)
	assert.Nil(t, rootParent)
}

func TestStore_TraverseDepthZeroReturnsOnlyStart(t *testing.T) {
	ctx := context.Background()
	s, _ := Open("memory")
	parent := lowLevelNode("p", "p.go")
	parent.Kind = graph.HighLevel
	child := lowLevelNode("c", "c.go")
	require.NoError(t, s.AddNode(ctx, parent))
	require.NoError(t, s.AddNode(ctx, child))
	require.NoError(t, s.AddEdge(ctx, &graph.Edge{Source: "p", Target: "c", Kind: graph.Functional}))

	res, err := s.Traverse(ctx, graph.TraverseOptions{StartNode: "p", EdgeType: graph.TraverseFunctional, Direction: graph.DirOut, MaxDepth: 0})
	require.NoError(t, err)
	require.Len(t, res.Nodes, 1)
	assert.Equal(t, "p", res.Nodes[0].ID)
	assert.Equal(t, 0, res.MaxDepthReached)
}

func TestStore_TraverseBoundedMultiHop(t *testing.T) {
	ctx := context.Background()
	s, _ := Open("memory")
	for _, id := range []string{"a", "b", "c", "d"} {
		n := lowLevelNode(id, id+".go")
		n.Kind = graph.HighLevel
		require.NoError(t, s.AddNode(ctx, n))
	}
	require.NoError(t, s.AddEdge(ctx, &graph.Edge{Source: "a", Target: "b", Kind: graph.Functional}))
	require.NoError(t, s.AddEdge(ctx, &graph.Edge{Source: "b", Target: "c", Kind: graph.Functional}))
	require.NoError(t, s.AddEdge(ctx, &graph.Edge{Source: "c", Target: "d", Kind: graph.Functional}))

	res, err := s.Traverse(ctx, graph.TraverseOptions{StartNode: "a", EdgeType: graph.TraverseFunctional, Direction: graph.DirOut, MaxDepth: 2})
	require.NoError(t, err)
	var ids []string
	for _, n := range res.Nodes {
		ids = append(ids, n.ID)
	}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids, "depth 2 reaches a->b->c but not d")
	assert.Equal(t, 2, res.MaxDepthReached)
}

func TestStore_SearchByFeatureEmptyQuery(t *testing.T) {
	ctx := context.Background()
	s, _ := Open("memory")
	require.NoError(t, s.AddNode(ctx, lowLevelNode("a", "a.go")))
	hits, err := s.SearchByFeature(ctx, "", nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestStore_SearchByFeatureScopesRestrictToSubtree(t *testing.T) {
	ctx := context.Background()
	s, _ := Open("memory")
	scopeRoot := lowLevelNode("scope", "scope")
	scopeRoot.Kind = graph.HighLevel
	scopeRoot.Feature = graph.SemanticFeature{Description: "group helpers"}
	inScope := lowLevelNode("in", "in.go")
	inScope.Feature = graph.SemanticFeature{Description: "parse arguments", Keywords: []string{"parse"}}
	outScope := lowLevelNode("out", "out.go")
	outScope.Feature = graph.SemanticFeature{Description: "parse arguments", Keywords: []string{"parse"}}
	require.NoError(t, s.AddNode(ctx, scopeRoot))
	require.NoError(t, s.AddNode(ctx, inScope))
	require.NoError(t, s.AddNode(ctx, outScope))
	require.NoError(t, s.AddEdge(ctx, &graph.Edge{Source: "scope", Target: "in", Kind: graph.Functional}))

	hits, err := s.SearchByFeature(ctx, "parse", []string{"scope"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "in", hits[0].Node.ID)
}

func TestStore_SearchByPathMatchesExtraPaths(t *testing.T) {
	ctx := context.Background()
	s, _ := Open("memory")
	n := &graph.Node{
		ID:      "h",
		Kind:    graph.HighLevel,
		Feature: graph.SemanticFeature{Description: "share helper logic"},
		Metadata: &graph.StructuralMetadata{
			Path:  "src/utils",
			Extra: map[string]any{"paths": []string{"src/utils", "tests/utils"}},
		},
	}
	require.NoError(t, s.AddNode(ctx, n))

	hits, err := s.SearchByPath(ctx, "tests/*")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "h", hits[0].ID)
}

func TestStore_TopologicalOrderSourcesBeforeDependencies(t *testing.T) {
	ctx := context.Background()
	s, _ := Open("memory")
	for _, id := range []string{"main", "utils"} {
		n := lowLevelNode(id, id+".go")
		n.Kind = graph.HighLevel
		require.NoError(t, s.AddNode(ctx, n))
	}
	require.NoError(t, s.AddEdge(ctx, &graph.Edge{Source: "main", Target: "utils", Kind: graph.Dependency, DependencyType: graph.DepImport}))

	order, err := s.TopologicalOrder(ctx)
	require.NoError(t, err)
	idx := map[string]int{}
	for i, n := range order {
		idx[n.ID] = i
	}
	assert.Less(t, idx["main"], idx["utils"], "source must be yielded before its dependency")
}

func TestStore_ExportImportJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := Open("memory")
	parent := lowLevelNode("p", "p.go")
	parent.Kind = graph.HighLevel
	child := lowLevelNode("c", "c.go")
	require.NoError(t, s.AddNode(ctx, parent))
	require.NoError(t, s.AddNode(ctx, child))
	require.NoError(t, s.AddEdge(ctx, &graph.Edge{Source: "p", Target: "c", Kind: graph.Functional}))

	doc, err := s.ExportJSON(ctx, graph.Config{Name: "demo"})
	require.NoError(t, err)
	assert.Equal(t, graph.SchemaVersion, doc.Version)

	s2, _ := Open("memory")
	require.NoError(t, s2.ImportJSON(ctx, doc))
	doc2, err := s2.ExportJSON(ctx, graph.Config{Name: "demo"})
	require.NoError(t, err)
	assert.Equal(t, doc, doc2)
}
