package reorg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/rpgraph/graph"
	"github.com/viant/rpgraph/graph/memstore"
	"github.com/viant/rpgraph/llm"
)

func seedHierarchy(t *testing.T) graph.Store {
	t.Helper()
	ctx := context.Background()
	s, err := memstore.Open("memory")
	require.NoError(t, err)

	root := &graph.Node{ID: "domain:Root", Kind: graph.HighLevel, Feature: graph.SemanticFeature{Description: "root of the hierarchy"}}
	auth := &graph.Node{ID: "domain:Root/auth", Kind: graph.HighLevel, Feature: graph.SemanticFeature{Description: "authenticate and authorize users"}}
	billing := &graph.Node{ID: "domain:Root/billing", Kind: graph.HighLevel, Feature: graph.SemanticFeature{Description: "compute invoices and charge cards"}}
	require.NoError(t, s.AddNode(ctx, root))
	require.NoError(t, s.AddNode(ctx, auth))
	require.NoError(t, s.AddNode(ctx, billing))
	require.NoError(t, s.AddEdge(ctx, &graph.Edge{Source: root.ID, Target: auth.ID, Kind: graph.Functional}))
	require.NoError(t, s.AddEdge(ctx, &graph.Edge{Source: root.ID, Target: billing.ID, Kind: graph.Functional}))
	return s
}

func TestFindBestParent_LLMSelectsCandidateByIndex(t *testing.T) {
	s := seedHierarchy(t)
	backend := llm.NewFakeBackend()
	backend.Enqueue(`<solution>{"index": 0}</solution>`)
	// At the chosen child (domain:Root/auth) there are no HighLevel
	// children, so FindBestParent stops without another LLM call.

	r := NewSemanticRouter(s, backend, nil)
	parent, err := r.FindBestParent(context.Background(), graph.SemanticFeature{Description: "verify login credentials"}, "domain:Root")
	require.NoError(t, err)
	assert.Equal(t, "domain:Root/auth", parent)
}

func TestFindBestParent_LLMIndexNullStopsAtCurrent(t *testing.T) {
	s := seedHierarchy(t)
	backend := llm.NewFakeBackend()
	backend.Enqueue(`<solution>{"index": null}</solution>`)

	r := NewSemanticRouter(s, backend, nil)
	parent, err := r.FindBestParent(context.Background(), graph.SemanticFeature{Description: "do something unrelated"}, "domain:Root")
	require.NoError(t, err)
	assert.Equal(t, "domain:Root", parent)
}

func TestFindBestParent_LLMOutOfRangeIndexTreatedAsNone(t *testing.T) {
	s := seedHierarchy(t)
	backend := llm.NewFakeBackend()
	backend.Enqueue(`<solution>{"index": 99}</solution>`)

	r := NewSemanticRouter(s, backend, nil)
	parent, err := r.FindBestParent(context.Background(), graph.SemanticFeature{Description: "whatever"}, "domain:Root")
	require.NoError(t, err)
	assert.Equal(t, "domain:Root", parent)
}

func TestFindBestParent_NoHighLevelChildrenStopsImmediately(t *testing.T) {
	s := seedHierarchy(t)
	backend := llm.NewFakeBackend()
	r := NewSemanticRouter(s, backend, nil)
	parent, err := r.FindBestParent(context.Background(), graph.SemanticFeature{Description: "anything"}, "domain:Root/auth")
	require.NoError(t, err)
	assert.Equal(t, "domain:Root/auth", parent)
	assert.Empty(t, backend.Requests, "no candidates means choose is never called")
}

func TestFindBestParent_EmbeddingFallbackPicksMostSimilar(t *testing.T) {
	s := seedHierarchy(t)
	embedder := llm.NewFakeEmbeddingBackend(8)
	r := NewSemanticRouter(s, nil, embedder)

	// Feature text is identical to the auth node's description, so cosine
	// similarity against it is 1.0 and must win over billing.
	parent, err := r.FindBestParent(context.Background(),
		graph.SemanticFeature{Description: "authenticate and authorize users"}, "domain:Root")
	require.NoError(t, err)
	assert.Equal(t, "domain:Root/auth", parent)
}

func TestFindBestParent_NoBackendNoEmbedderStaysAtRoot(t *testing.T) {
	s := seedHierarchy(t)
	r := NewSemanticRouter(s, nil, nil)
	parent, err := r.FindBestParent(context.Background(), graph.SemanticFeature{Description: "anything"}, "domain:Root")
	require.NoError(t, err)
	assert.Equal(t, "domain:Root", parent)
}

func TestCosineSimilarity_IdenticalVectorsIsOne(t *testing.T) {
	v := []float32{1, 2, 3}
	assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-9)
}

func TestCosineSimilarity_MismatchedLengthsIsZero(t *testing.T) {
	assert.Equal(t, float64(0), CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
}

func TestCosineSimilarity_OrthogonalVectorsIsZero(t *testing.T) {
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
}
